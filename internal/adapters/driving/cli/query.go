package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

var (
	queryTopK       int
	queryMode       string
	queryRerank     bool
	queryRerankTopK int
	queryCutoff     float64
	queryFilters    []string
	queryJSON       bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve the most relevant chunks for a query",
	Long: `Embeds the query, searches the tenant's vector index, optionally
reranks the candidates and applies the similarity cutoff.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "n", 10, "number of results to return")
	queryCmd.Flags().StringVarP(&queryMode, "mode", "m", "", "search mode: dense, sparse or hybrid")
	queryCmd.Flags().BoolVar(&queryRerank, "rerank", false, "rerank candidates with the configured reranker")
	queryCmd.Flags().IntVar(&queryRerankTopK, "rerank-top-k", 0, "results to keep after reranking (default top-k)")
	queryCmd.Flags().Float64Var(&queryCutoff, "cutoff", 0, "drop results scoring below this similarity")
	queryCmd.Flags().StringArrayVar(&queryFilters, "filter", nil, "metadata filter as key=value (repeatable)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	engine, err := engineForTenant(cmd)
	if err != nil {
		return err
	}

	filters, err := parseFilters(queryFilters)
	if err != nil {
		return err
	}

	opts := domain.QueryOptions{
		TopK:             queryTopK,
		Rerank:           queryRerank,
		RerankTopK:       queryRerankTopK,
		SimilarityCutoff: queryCutoff,
		Mode:             domain.SearchMode(queryMode),
		Filters:          filters,
	}

	result, err := engine.Query(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, result)
	}
	return outputQueryTable(cmd, result)
}

func parseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		filters[key] = value
	}
	return filters, nil
}

func outputQueryJSON(cmd *cobra.Command, result *domain.QueryResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, result *domain.QueryResult) error {
	if len(result.Sources) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results for %q:\n\n", result.Query)
	for i, src := range result.Sources {
		cmd.Printf("  [%d] doc %d (%.4f)\n", i+1, src.DocumentID, src.Score)
		text := src.Text
		if len(text) > 160 {
			text = truncateRunes(text, 160) + "..."
		}
		cmd.Printf("      %s\n\n", strings.ReplaceAll(text, "\n", " "))
	}
	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
