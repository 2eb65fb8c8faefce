package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List indexed documents",
	Long:  `Lists every document in the tenant's collection with a text preview.`,
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	engine, err := engineForTenant(cmd)
	if err != nil {
		return err
	}

	summaries, err := engine.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("list documents failed: %w", err)
	}

	if documentsJSON {
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summaries: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(summaries) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	return outputDocumentsTable(cmd, summaries)
}

func outputDocumentsTable(cmd *cobra.Command, summaries []domain.DocumentSummary) error {
	cmd.Printf("%d document(s):\n\n", len(summaries))
	for _, s := range summaries {
		name := s.Filename
		if name == "" {
			name = s.ID
		}
		cmd.Printf("  %d  %s\n", s.DocumentID, name)
		if s.TextPreview != "" {
			cmd.Printf("      %s\n", strings.ReplaceAll(s.TextPreview, "\n", " "))
		}
		cmd.Println()
	}
	return nil
}
