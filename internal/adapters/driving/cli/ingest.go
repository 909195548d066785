package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the documents in DATA_DIR",
	Long: `Loads every supported document (.md, .txt, .html, .pdf) from DATA_DIR,
splits it into chunks, embeds them and replaces the document's previous
chunks in the vector store. Unreadable files are reported and skipped.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	res, err := ingestService.Ingest(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		return printJSON(cmd, res)
	}

	cmd.Printf("Indexed %d documents (%d chunks)\n", res.IndexedDocs, res.IndexedChunks)
	if len(res.Warnings) > 0 {
		cmd.Println()
		cmd.Println(warnColor.Sprintf("Skipped %d files:", len(res.Warnings)))
		for _, w := range res.Warnings {
			cmd.Printf("  %s: %s\n", w.SourcePath, w.Error)
		}
	}
	return nil
}
