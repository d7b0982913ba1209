package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <collection> <file>",
	Short: "Write a collection snapshot to a file",
	Long: `Write a collection as a versioned JSON snapshot. Use "-" to write to
stdout. The snapshot can be imported under any name by an engine of the same
embedding dimension.`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <collection> <file>",
	Short: "Load a collection snapshot from a file",
	Long: `Replace a collection with the documents of a snapshot and persist it.
Use "-" to read from stdin. Snapshots with a different embedding dimension
are rejected.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	collectionID, path := args[0], args[1]

	a, err := openApp(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.restore(collectionID); err != nil {
		return err
	}

	if path == "-" {
		return a.engine.Save(collectionID, cmd.OutOrStdout())
	}

	err = writeFileAtomic(path, func(w io.Writer) error {
		return a.engine.Save(collectionID, w)
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", collectionID, path)
	return nil
}

// writeFileAtomic writes to a temporary file next to path and renames it
// into place, so a failed write never leaves a partial file at path.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	collectionID, path := args[0], args[1]

	a, err := openApp(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	if err := a.engine.Load(collectionID, r); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if err := a.engine.Persist(collectionID, a.snapshots); err != nil {
		return err
	}

	status := a.engine.Status(collectionID)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d documents into %s\n", status.DocumentCount, collectionID)
	return nil
}
