package main

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/meikuraledutech/flow"
)

func newApp(automations *flow.Automations, opts []flow.Option, log zerolog.Logger) *fiber.App {
	open := newSessions(automations, opts)
	app := fiber.New()

	// ── Catalog ───────────────────────────────────────────────────────
	app.Get("/catalog", func(c fiber.Ctx) error {
		return c.JSON(flow.Search(c.Query("q")))
	})

	// ── Stored automations ────────────────────────────────────────────
	app.Get("/automations", func(c fiber.Ctx) error {
		docs, err := automations.List(c.Context())
		if err != nil {
			return writeError(c, log, err)
		}
		return c.JSON(docs)
	})

	app.Get("/automations/:id", func(c fiber.Ctx) error {
		doc, err := automations.Load(c.Context(), c.Params("id"))
		if err != nil {
			return writeError(c, log, err)
		}
		return c.JSON(doc)
	})

	app.Delete("/automations/:id", func(c fiber.Ctx) error {
		if err := automations.Delete(c.Context(), c.Params("id")); err != nil {
			return writeError(c, log, err)
		}
		open.close(c.Params("id"))
		return c.SendStatus(204)
	})

	// ── Editor sessions ───────────────────────────────────────────────
	app.Post("/sessions", func(c fiber.Ctx) error {
		ed := open.create()
		return c.Status(201).JSON(fiber.Map{"id": ed.ID(), "snapshot": ed.Snapshot()})
	})

	app.Post("/sessions/:id/open", func(c fiber.Ctx) error {
		ed, snap, err := open.load(c.Context(), c.Params("id"))
		if err != nil {
			return writeError(c, log, err)
		}
		return c.JSON(fiber.Map{"id": ed.ID(), "name": ed.Name(), "snapshot": snap})
	})

	app.Get("/sessions/:id", func(c fiber.Ctx) error {
		ed, ok := open.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		return c.JSON(fiber.Map{"id": ed.ID(), "name": ed.Name(), "snapshot": ed.Snapshot(), "net": ed.Net()})
	})

	app.Post("/sessions/:id/events", func(c fiber.Ctx) error {
		ed, ok := open.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		var req eventRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		ev, err := req.event()
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		res, err := ed.Dispatch(ev)
		if err != nil {
			return writeError(c, log, err)
		}
		return c.JSON(res)
	})

	app.Post("/sessions/:id/save", func(c fiber.Ctx) error {
		ed, ok := open.get(c.Params("id"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		var req struct {
			Name string `json:"name"`
		}
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		doc, err := ed.Save(c.Context(), req.Name)
		if err != nil {
			return writeError(c, log, err)
		}
		return c.JSON(doc)
	})

	app.Delete("/sessions/:id", func(c fiber.Ctx) error {
		open.close(c.Params("id"))
		return c.SendStatus(204)
	})

	return app
}

// writeError maps flow errors onto HTTP statuses.
func writeError(c fiber.Ctx, log zerolog.Logger, err error) error {
	var verr *flow.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(422).JSON(fiber.Map{"error": err.Error(), "fields": verr.Fields})
	case errors.Is(err, flow.ErrValidation):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, flow.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}

// eventRequest is the wire form of a flow.Event, discriminated by Type.
type eventRequest struct {
	Type        string           `json:"type"`
	ID          string           `json:"id"`
	Template    flow.Template    `json:"template"`
	At          *flow.Position   `json:"at"`
	ReconnectTo string           `json:"reconnect_to"`
	Source      string           `json:"source"`
	Target      string           `json:"target"`
	Enabled     *bool            `json:"enabled"`
	Update      flow.NodeUpdate  `json:"update"`
	Orientation flow.Orientation `json:"orientation"`
}

func (r eventRequest) event() (flow.Event, error) {
	switch r.Type {
	case "node_add":
		return flow.NodeAddRequested{Template: r.Template, At: r.At}, nil
	case "node_removed":
		return flow.NodeRemoved{ID: r.ID}, nil
	case "edge_removed":
		return flow.EdgeRemoved{ID: r.ID, ReconnectTo: r.ReconnectTo}, nil
	case "edge_delete_requested":
		return flow.EdgeDeleteRequested{ID: r.ID}, nil
	case "edge_created":
		return flow.EdgeCreated{Source: r.Source, Target: r.Target}, nil
	case "edge_clicked":
		if r.At == nil {
			return nil, errors.New("edge_clicked needs at")
		}
		return flow.EdgeClicked{ID: r.ID, At: *r.At}, nil
	case "insert_cancelled":
		return flow.InsertCancelled{}, nil
	case "node_edit_requested":
		return flow.NodeEditRequested{ID: r.ID}, nil
	case "node_edited":
		return flow.NodeEdited{ID: r.ID, Update: r.Update}, nil
	case "node_toggle_requested":
		if r.Enabled == nil {
			return nil, errors.New("node_toggle_requested needs enabled")
		}
		return flow.NodeToggleRequested{ID: r.ID, Enabled: *r.Enabled}, nil
	case "node_moved":
		if r.At == nil {
			return nil, errors.New("node_moved needs at")
		}
		return flow.NodeMoved{ID: r.ID, To: *r.At}, nil
	case "layout_changed":
		return flow.LayoutChanged{Orientation: r.Orientation}, nil
	case "cleared":
		return flow.Cleared{}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", r.Type)
}
