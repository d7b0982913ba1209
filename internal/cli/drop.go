package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dropCmd = &cobra.Command{
	Use:   "drop <collection>",
	Short: "Delete a stored collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrop,
}

func init() {
	rootCmd.AddCommand(dropCmd)
}

func runDrop(cmd *cobra.Command, args []string) error {
	collectionID := args[0]

	a, err := openApp(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	a.engine.Drop(collectionID)
	if err := a.snapshots.Delete(collectionID); err != nil {
		return fmt.Errorf("failed to delete collection %q: %w", collectionID, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Dropped %s\n", collectionID)
	return nil
}
