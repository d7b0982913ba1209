package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"docrag/internal/usecase"
)

var trainQuiet bool

var trainCmd = &cobra.Command{
	Use:   "train <collection> [path...]",
	Short: "Train a collection on files or stdin",
	Long: `Train a named collection on text. Directories are walked using the
train.includes and train.excludes patterns; files named explicitly are always
read. Several files are joined with "=== FILE: name ===" headers. With no
paths the text is read from stdin. Training replaces any previous content of
the collection and persists it to the configured store.

Examples:
  docrag train notes ./docs
  docrag train specs design.md api.md
  pbpaste | docrag train scratch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().BoolVar(&trainQuiet, "quiet", false, "hide the progress bar even on a terminal")
}

func runTrain(cmd *cobra.Command, args []string) error {
	collectionID, paths := args[0], args[1:]

	a, err := openApp(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []usecase.TrainOption
	if !trainQuiet && isTerminal(cmd.ErrOrStderr()) {
		opts = append(opts, usecase.WithProgress(newEmbeddingProgress(cmd.ErrOrStderr())))
	}

	trainUC := a.trainUseCase()
	var out *usecase.TrainOutcome
	if len(paths) > 0 {
		out, err = trainUC.TrainFiles(cmd.Context(), collectionID, paths, opts...)
	} else {
		data, readErr := io.ReadAll(cmd.InOrStdin())
		if readErr != nil {
			return fmt.Errorf("failed to read stdin: %w", readErr)
		}
		out, err = trainUC.TrainText(cmd.Context(), collectionID, string(data), opts...)
	}
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Training complete:\n")
	fmt.Fprintf(w, "  Collection:     %s\n", collectionID)
	if len(out.Files) > 0 {
		fmt.Fprintf(w, "  Files read:     %d\n", len(out.Files))
	}
	fmt.Fprintf(w, "  Text length:    %d\n", out.TextLength)
	fmt.Fprintf(w, "  Chunks:         %d\n", out.ChunkCount)
	fmt.Fprintf(w, "  Documents:      %d\n", out.DocumentsCount)
	if out.SkippedChunks > 0 {
		fmt.Fprintf(w, "  Skipped chunks: %d\n", out.SkippedChunks)
	}
	fmt.Fprintf(w, "  Avg words:      %.1f\n", out.AvgChunkLength)

	if len(out.Errors) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}

	fmt.Fprintf(w, "\nCollection stored at: %s\n", a.cfg.StorePath(GetRootDir()))
	return nil
}

// newEmbeddingProgress draws a progress bar once the chunk count is known.
func newEmbeddingProgress(w io.Writer) usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		once      sync.Once
		startTime time.Time
	)

	return func(done, total int) {
		once.Do(func() {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		})

		bar.Set(done)

		elapsed := time.Since(startTime)
		if done > 0 && done < total && elapsed > 0 {
			rate := float64(done) / elapsed.Seconds()
			eta := time.Duration(float64(total-done)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
		}
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
