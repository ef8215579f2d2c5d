package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/backend"
	"github.com/meikuraledutech/flow/config"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "flow",
		Short:         "Automation flow editor server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yml")

	root.AddCommand(serveCmd(), schemaCmd(), listCmd(), showCmd(), deleteCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what every command needs: config, logger and an open store.
type env struct {
	cfg   *config.Config
	log   zerolog.Logger
	store flow.Store
	close func()
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := cfg.Log.Logger()
	store, closeFn, err := backend.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, store: store, close: closeFn}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.store.CreateSchema(ctx); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}

			automations := flow.NewAutomations(e.store, flow.WithStoreLogger(e.log))
			app := newApp(automations, e.cfg.EngineOptions(e.log), e.log)

			go func() {
				<-ctx.Done()
				_ = app.Shutdown()
			}()
			e.log.Info().Str("addr", e.cfg.Server.Addr).Msg("listening")
			return app.Listen(e.cfg.Server.Addr)
		},
	}
}

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "schema", Short: "Manage the store schema"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create tables if they don't exist",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), func(e *env) error {
					return e.store.CreateSchema(cmd.Context())
				})
			},
		},
		&cobra.Command{
			Use:   "drop",
			Short: "Drop every stored automation",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), func(e *env) error {
					return e.store.DropSchema(cmd.Context())
				})
			},
		},
	)
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored automations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(e *env) error {
				docs, err := flow.NewAutomations(e.store).List(cmd.Context())
				if err != nil {
					return err
				}
				for _, d := range docs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d nodes\t%d edges\t%s\n",
						d.ID, d.Name, len(d.Nodes), len(d.Edges), d.Metadata.UpdatedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored automation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(e *env) error {
				doc, err := flow.NewAutomations(e.store).Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			})
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored automation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(e *env) error {
				return flow.NewAutomations(e.store, flow.WithStoreLogger(e.log)).Delete(cmd.Context(), args[0])
			})
		},
	}
}

func withStore(ctx context.Context, fn func(e *env) error) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(e)
}
