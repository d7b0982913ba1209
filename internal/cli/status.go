package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status <collection>",
	Short: "Show whether a collection is trained",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	collectionID := args[0]

	a, err := openApp(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.Restore(collectionID, a.snapshots); err != nil && !errors.Is(err, domain.ErrCollectionNotTrained) {
		return fmt.Errorf("failed to load collection %q: %w", collectionID, err)
	}
	status := a.engine.Status(collectionID)

	if statusJSON {
		return writeJSON(cmd, status)
	}

	w := cmd.OutOrStdout()
	if !status.Exists {
		fmt.Fprintf(w, "%s: not trained\n", collectionID)
		return nil
	}
	fmt.Fprintf(w, "%s: %d documents\n", collectionID, status.DocumentCount)
	return nil
}
