package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/sqlite"
)

func main() {
	ctx := context.Background()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	path := os.Getenv("FLOW_EXAMPLE_DB")
	if path == "" {
		path = filepath.Join(os.TempDir(), "flow-example.db")
	}
	store, err := sqlite.Open(path)
	if err != nil {
		log.Fatal().Err(err).Msg("open")
	}
	defer store.Close()

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema")
	}
	fmt.Println("schema created")

	automations := flow.NewAutomations(store, flow.WithStoreLogger(log))
	ed := flow.NewEditor(automations, flow.WithLogger(log))

	// ── Build a chain by auto-connect ─────────────────────────────────
	schedule, _ := flow.Lookup(flow.KindTrigger, "Schedule")
	email, _ := flow.Lookup(flow.KindAction, "Send Email")
	for _, t := range []flow.Template{schedule, email} {
		if _, err := ed.Dispatch(flow.NodeAddRequested{Template: t}); err != nil {
			log.Fatal().Err(err).Msg("add node")
		}
	}
	snap := ed.Snapshot()
	fmt.Printf("\nchain: %d nodes, %d edges\n", len(snap.Nodes), len(snap.Edges))

	// ── Insert a router on the only edge ──────────────────────────────
	edgeID := snap.Edges[0].ID
	res, err := ed.Dispatch(flow.EdgeClicked{ID: edgeID, At: flow.Position{X: 200, Y: 100}})
	if err != nil {
		log.Fatal().Err(err).Msg("click edge")
	}
	fmt.Printf("prompt: %s\n", res.Prompt.Title)

	router, _ := flow.Lookup(flow.KindRouter, "If/Then Router")
	res, err = ed.Dispatch(flow.NodeAddRequested{Template: router})
	if err != nil {
		log.Fatal().Err(err).Msg("insert router")
	}
	fmt.Println("\nafter split:")
	printJSON(res.Snapshot.Edges)

	// ── Configure the action ──────────────────────────────────────────
	action := res.Snapshot.Nodes[1].ID
	host := "smtp.example.com"
	_, err = ed.Dispatch(flow.NodeEdited{ID: action, Update: flow.NodeUpdate{
		Settings: &flow.Settings{Email: &flow.EmailSettings{Host: host, Port: "587"}},
	}})
	if err != nil {
		log.Fatal().Err(err).Msg("edit node")
	}

	// ── Save and reload ───────────────────────────────────────────────
	saved, err := ed.Save(ctx, "Welcome series")
	if err != nil {
		log.Fatal().Err(err).Msg("save")
	}
	fmt.Printf("\nsaved %s\n", saved.ID)

	other := flow.NewEditor(automations)
	if _, err := other.Open(ctx, saved.ID); err != nil {
		log.Fatal().Err(err).Msg("open")
	}
	fmt.Println("\nreloaded:")
	printJSON(other.Snapshot())

	fmt.Println("\nnet changes before reload:")
	printJSON(ed.Net())

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := automations.Delete(ctx, saved.ID); err != nil {
		log.Fatal().Err(err).Msg("delete")
	}
	fmt.Println("\nautomation deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
