package cli

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

var (
	ingestIDs    []int64
	ingestUpdate bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Index documents into the tenant's collection",
	Long: `Reads the given files, splits them into chunks, embeds the chunks
and writes them to the tenant's document store and vector index.

Document ids come from --id (one per file, in order). Without --id each
file gets a stable id derived from its base name, so re-ingesting the
same file with --update replaces its previous index entries.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Int64SliceVar(&ingestIDs, "id", nil, "document id per file, in argument order")
	ingestCmd.Flags().BoolVarP(&ingestUpdate, "update", "u", false, "replace documents that are already indexed")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(ingestIDs) > 0 && len(ingestIDs) != len(args) {
		return fmt.Errorf("--id given %d times for %d files", len(ingestIDs), len(args))
	}

	engine, err := engineForTenant(cmd)
	if err != nil {
		return err
	}

	docs := make([]domain.Document, 0, len(args))
	for i, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		id := fileID(path)
		if len(ingestIDs) > 0 {
			id = ingestIDs[i]
		}
		docs = append(docs, domain.Document{
			ID:       id,
			Filename: filepath.Base(path),
			Content:  string(content),
		})
	}

	ctx := cmd.Context()

	if ingestUpdate {
		for _, doc := range docs {
			if _, err := engine.Update(ctx, doc); err != nil {
				return fmt.Errorf("update document %d: %w", doc.ID, err)
			}
			cmd.Printf("Updated %s (id %d)\n", doc.Filename, doc.ID)
		}
		return nil
	}

	committed, err := engine.Ingest(ctx, docs)

	var partial *domain.PartialFailureError
	if errors.As(err, &partial) {
		for _, id := range partial.Committed {
			cmd.Printf("Indexed %s\n", id)
		}
		for id, docErr := range partial.Failures {
			cmd.PrintErrf("Failed %s: %v\n", id, docErr)
		}
		return fmt.Errorf("%d of %d documents failed", len(partial.Failures), len(docs))
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	for _, id := range committed {
		cmd.Printf("Indexed %s\n", id)
	}
	cmd.Printf("Done: %d document(s)\n", len(committed))
	return nil
}

// fileID derives a stable positive id from a file's base name.
func fileID(path string) int64 {
	h := fnv.New64a()
	h.Write([]byte(filepath.Base(path)))
	return int64(h.Sum64() & (1<<63 - 1))
}
