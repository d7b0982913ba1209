package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/domain"
	"docrag/internal/usecase"
)

var (
	queryText     string
	queryTopK     int
	queryMinScore float64
	queryJSON     bool
	queryContext  bool
)

var queryCmd = &cobra.Command{
	Use:   "query <collection>",
	Short: "Search a trained collection",
	Long: `Rank the passages of a collection by cosine similarity to the query.
Results scoring at or below retrieve.min_score are dropped. --context prints
the matches as numbered source blocks ready to paste into a prompt.

Examples:
  docrag query notes -q "release plan"
  docrag query notes -q "open risks" -k 10 --json
  docrag query notes -q "budget" --min-score 0 --context`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-score", 0, "drop results at or below this score (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "output numbered source blocks")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	collectionID := args[0]
	cfg := GetConfig()

	a, err := openApp(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.restore(collectionID); err != nil {
		return err
	}

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}
	minScore := cfg.Retrieve.MinScore
	if cmd.Flags().Changed("min-score") {
		minScore = queryMinScore
	}

	retrieveUC := usecase.NewRetrieveUseCase(a.engine, minScore, cfg.Retrieve.PreviewChars)
	w := cmd.OutOrStdout()

	if queryContext {
		rc, err := retrieveUC.Context(cmd.Context(), collectionID, queryText, topK)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if queryJSON {
			return writeJSON(cmd, rc)
		}
		if rc.Context == "" {
			fmt.Fprintln(w, "No relevant sources found.")
			return nil
		}
		fmt.Fprintln(w, rc.Context)
		return nil
	}

	results, err := retrieveUC.Retrieve(cmd.Context(), collectionID, queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		if results == nil {
			results = []domain.ScoredDocument{}
		}
		return writeJSON(cmd, results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}
	fmt.Fprintf(w, "Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Fprintf(w, "--- [%d] #%d (score: %.3f) ---\n", i+1, r.SequenceID, r.Score)
		fmt.Fprintln(w, usecase.Preview(r.Text, 500))
		fmt.Fprintln(w)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}
