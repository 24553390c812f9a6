package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/hunkr/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve [comparison]",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the review engine. When a comparison is
given it is loaded from the current repository; otherwise clients load a
diff through /api/load or the websocket.

Endpoints:
  GET  /health        Health check
  POST /api/parse     Parse a diff into files and hunks
  POST /api/load      Open a review over a diff
  GET  /api/state     Review state and progress
  GET  /api/hunks     Hunks with their review status
  GET  /api/tree      Directory tree with rolled-up counts
  GET  /api/patch     Approved and trusted hunks as a patch
  POST /api/action    Approve, reject, save, clear and bulk actions
  POST /api/trust     Add trust patterns (DELETE removes)
  POST /api/classify  Label hunks (also /api/group, /api/narrate)
  GET  /api/reviews   Saved reviews
  GET  /api/ws        WebSocket for interactive review sessions`,
	Args: cobra.MaximumNArgs(1),
	Annotations: map[string]string{
		"server.addr":   "addr",
		"server.port":   "port",
		"context_lines": "context",
	},
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "127.0.0.1", "address to listen on")
	serveCmd.Flags().IntP("port", "p", 6880, "port to listen on")
	serveCmd.Flags().IntP("context", "C", 3, "lines of context around changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	repoDir, _ := gitRepoRoot(ctx)
	srv := api.New(cfg.Server.Address(), newService(store, repoDir), store, log)

	if len(args) == 1 {
		if repoDir == "" {
			return errors.New("loading a comparison requires a git repository")
		}
		c, err := parseComparison(args)
		if err != nil {
			return err
		}
		ds, staged, err := loadDiff(ctx, repoDir, c)
		if err != nil {
			return err
		}
		if err := srv.Open(ctx, c, ds, staged); err != nil {
			return err
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}
