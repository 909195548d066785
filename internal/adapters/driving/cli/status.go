package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backends, configuration problems and metrics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}

	ctx := cmd.Context()
	health := statusService.Health(ctx)
	metrics := statusService.Metrics(ctx)

	if statusJSON {
		return printJSON(cmd, struct {
			Health  domain.Health         `json:"health"`
			Metrics domain.ServiceMetrics `json:"metrics"`
		}{health, metrics})
	}

	status := string(health.Status)
	if health.Status == domain.HealthDegraded {
		status = warnColor.Sprint(status)
	}
	cmd.Printf("Status:       %s\n", status)
	cmd.Printf("LLM:          %s (configured %s, model %s)\n",
		domain.LLMProvider(health.ActiveLLMProvider).Description(), health.ConfiguredLLMProvider, metrics.LLMModel)
	if !metrics.LLMHealthy {
		cmd.Println(warnColor.Sprint("              answering with the fallback"))
	}
	cmd.Printf("Vector store: %s (configured %s)\n", health.ActiveVectorStore, health.ConfiguredVectorStore)
	cmd.Printf("Embedding:    %s\n", health.EmbeddingModel)
	cmd.Printf("Corpus:       %d documents, %d chunks\n", metrics.TotalDocs, metrics.TotalChunks)

	printList(cmd, "Degraded", health.DegradedReasons)
	printList(cmd, "Config issues", health.ConfigIssues)
	printList(cmd, "Config warnings", health.ConfigWarnings)
	return nil
}

func printList(cmd *cobra.Command, title string, items []string) {
	if len(items) == 0 {
		return
	}
	cmd.Println()
	cmd.Println(warnColor.Sprint(title + ":"))
	for _, item := range items {
		cmd.Printf("  - %s\n", item)
	}
}
