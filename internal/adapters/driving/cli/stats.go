package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics for the tenant",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	engine, err := engineForTenant(cmd)
	if err != nil {
		return err
	}

	stats, err := engine.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Tenant:           %s\n", stats.Tenant)
	cmd.Printf("Documents:        %d\n", stats.TotalDocuments)
	cmd.Printf("Tokens:           %d\n", stats.TotalTokens)
	cmd.Printf("Avg doc length:   %.1f chars\n", stats.AvgDocumentLength)
	cmd.Printf("Namespace:        %s\n", stats.Namespace)
	cmd.Printf("Collection:       %s\n", stats.Collection)
	return nil
}
