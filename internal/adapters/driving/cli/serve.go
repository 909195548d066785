package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/policyhelper/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

var (
	serveAddr   string
	serveIngest bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API. Routes are served at the root and under /api:

  POST /ingest              index DATA_DIR
  POST /ask                 {"query": "...", "k": 4}
  GET  /metrics             counters and latencies as JSON
  GET  /metrics/prometheus  Prometheus exposition
  GET  /health              active backends and degradation
  GET  /documents           indexed documents

When WATCH_DATA_DIR is set, DATA_DIR is re-indexed after every change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HTTP_ADDR or :8000)")
	serveCmd.Flags().BoolVar(&serveIngest, "ingest", false, "index DATA_DIR before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if application == nil {
		return errors.New("application not configured")
	}

	ctx := cmd.Context()
	if serveIngest {
		res, err := application.Ingest.Ingest(ctx)
		if err != nil {
			return err
		}
		logger.Info("indexed %d documents (%d chunks)", res.IndexedDocs, res.IndexedChunks)
	}

	server, err := httpapi.New(httpapi.Services{
		Ask:        application.Ask,
		Ingest:     application.Ingest,
		Status:     application.Status,
		Document:   application.Documents,
		Prometheus: application.MetricsHandler(),
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = application.Settings.Server.HTTPAddr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, addr) })
	g.Go(func() error { return application.Watch(gctx) })
	return g.Wait()
}
