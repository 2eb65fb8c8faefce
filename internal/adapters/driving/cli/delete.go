package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Remove documents from the tenant's collection",
	Long: `Deletes the given document ids from both the document store and the
vector index. Ids that are not indexed are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	engine, err := engineForTenant(cmd)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid document id %q", arg)
		}
		ids = append(ids, id)
	}

	if len(ids) == 1 {
		existed, err := engine.Delete(cmd.Context(), ids[0])
		if err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		if existed {
			cmd.Printf("Deleted document %d\n", ids[0])
		} else {
			cmd.Printf("Document %d was not indexed\n", ids[0])
		}
		return nil
	}

	if _, err := engine.DeleteMany(cmd.Context(), ids); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Printf("Deleted %d document(s)\n", len(ids))
	return nil
}
