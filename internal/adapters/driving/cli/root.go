// Package cli provides the policyhelper command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyhelper/internal/app"
	"github.com/custodia-labs/policyhelper/internal/core/ports/driving"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// Services used by commands. They are populated by bootstrap before a
// command runs, or set directly by tests.
var (
	askService      driving.AskService
	ingestService   driving.IngestService
	statusService   driving.StatusService
	documentService driving.DocumentService
	application     *app.App
)

// bootstrap builds the application. Replaced in tests.
var bootstrap = func(ctx context.Context) (func(), error) {
	a, err := app.New(ctx, app.Options{ConfigPath: configPath, Verbose: verbose})
	if err != nil {
		return nil, err
	}
	application = a
	askService = a.Ask
	ingestService = a.Ingest
	statusService = a.Status
	documentService = a.Documents
	return func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}, nil
}

// cleanup releases what bootstrap opened.
var cleanup func()

var rootCmd = &cobra.Command{
	Use:   "policyhelper",
	Short: "Answer questions over policy documents",
	Long: `policyhelper indexes a directory of policy documents and answers
natural-language questions about them with citations.

Run "policyhelper ingest" to index DATA_DIR, then "policyhelper ask" or
"policyhelper serve" to answer questions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if verbose {
			logger.SetVerbose(true)
		}
		if !needsServices(cmd) {
			return nil
		}
		done, err := bootstrap(cmd.Context())
		if err != nil {
			return fmt.Errorf("startup: %w", err)
		}
		cleanup = done
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

// needsServices reports whether cmd talks to the application.
func needsServices(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationNoServices] == ""
}

// annotationNoServices marks commands that run without bootstrapping.
const annotationNoServices = "no-services"

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (default $CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if cleanup != nil {
		cleanup()
	}
	if err != nil {
		os.Exit(1)
	}
}
