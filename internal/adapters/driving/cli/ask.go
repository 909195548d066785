package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyhelper/internal/core/domain"
)

var (
	askK    int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed policies",
	Long: `Retrieves the most relevant policy passages and answers the question,
listing the documents and sections the answer is based on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "k", "k", 0, "number of passages to retrieve (default 4)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	req := domain.AskRequest{Query: strings.Join(args, " "), K: askK}
	resp, err := askService.Ask(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, resp)
	}
	return outputAnswer(cmd, resp)
}

func outputAnswer(cmd *cobra.Command, resp *domain.AskResponse) error {
	cmd.Println(resp.Answer)

	if len(resp.Citations) > 0 {
		cmd.Println()
		cmd.Println(headingColor.Sprint("Sources:"))
		for i, c := range resp.Citations {
			if c.Section != "" {
				cmd.Printf("  [%d] %s - %s\n", i+1, c.Title, c.Section)
			} else {
				cmd.Printf("  [%d] %s\n", i+1, c.Title)
			}
		}
	}

	m := resp.Metrics
	cmd.Println()
	cmd.Println(dimColor.Sprintf("%s | retrieval %.0fms | generation %.0fms", m.LLMProvider, m.RetrievalMs, m.GenerationMs))
	if m.Degraded {
		cmd.Println(warnColor.Sprintf("degraded: %s", m.FallbackReason))
	}
	return nil
}
