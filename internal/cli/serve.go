package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pullwave/pullwave/internal/server"
	"github.com/pullwave/pullwave/pkg/scenario"
)

// serveCommand creates the serve command for the HTTP inspection API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [scenario.toml]",
		Short: "Serve a scenario's graph over an HTTP inspection API",
		Long: `Serve a scenario's graph over HTTP.

The server exposes the graph structure as JSON and DOT, evaluates nodes on
demand, and accepts cell writes and set deltas. Every mutation commits in
its own transaction. The server runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, path, addr string) error {
	logger := loggerFromContext(ctx)

	s, err := scenario.Load(path)
	if err != nil {
		return fmt.Errorf("load scenario %s: %w", path, err)
	}
	p, err := scenario.Build(s)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	// Prime the graph so the first snapshot already has edges.
	if _, err := p.Outputs(); err != nil {
		logger.Warn("initial evaluation failed", "err", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(p, logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", addr, "scenario", s.Title)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("stopped")
		return ctx.Err()
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
