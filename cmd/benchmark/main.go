package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"docrag/config"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/fs"
	"docrag/internal/adapter/memstore"
	"docrag/internal/adapter/retriever"
	"docrag/internal/adapter/store"
	"docrag/internal/usecase"
)

const benchCollection = "benchmark"

func main() {
	dir := flag.String("dir", ".", "Directory holding docrag.yaml and .docrag")
	corpus := flag.String("corpus", "", "File or directory to train on (default: use a stored collection)")
	collection := flag.String("collection", "", "Stored collection to search instead of training")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	repeat := flag.Int("n", 100, "Search repetitions for timing")
	flag.Parse()

	if *query == "" || (*corpus == "") == (*collection == "") {
		fmt.Println("Usage: go run cmd/benchmark/main.go (-corpus ./docs | -collection notes) -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Training throughput (chunks embedded per second)")
		fmt.Println("  2. Search latency over repeated uncached queries")
		fmt.Println("  3. Similarity of the top matches")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading environment: %v\n", err)
		os.Exit(1)
	}

	collections := memstore.NewMemoryStore()
	embedder := embedding.NewHashEmbedder(cfg.Embedding.Dimension)
	engine := usecase.NewEngine(
		collections,
		chunker.NewSentenceChunker(cfg.Chunk.TargetWords, cfg.Chunk.OverlapHint),
		embedder,
		retriever.NewSemanticRetriever(collections, embedder),
		cfg.EmbeddingWorkers(),
	)

	fmt.Println("DOCRAG RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Model: %s\n", embedder.ModelName())
	fmt.Printf("Workers: %d\n", cfg.EmbeddingWorkers())

	id := *collection
	if *corpus != "" {
		id = benchCollection
		if err := train(engine, cfg, id, *corpus); err != nil {
			fmt.Fprintf(os.Stderr, "Training failed: %v\n", err)
			os.Exit(1)
		}
	} else if err := restore(engine, cfg, *dir, id); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading collection: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Documents indexed: %d\n\n", engine.Status(id).DocumentCount)
	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < *repeat; i++ {
		if _, err := engine.Search(ctx, id, *query, *topK); err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
	}
	perQuery := time.Since(start) / time.Duration(max(*repeat, 1))

	results, err := engine.Search(ctx, id, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := strings.ReplaceAll(usecase.Preview(r.Text, 150), "\n", " ")
		totalScore += r.Score

		rating := "LOW"
		if r.Score > 0.5 {
			rating = "HIGH"
		} else if r.Score > 0.3 {
			rating = "GOOD"
		} else if r.Score > cfg.Retrieve.MinScore {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] #%d\n", i+1, rating, r.Score, r.SequenceID)
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("METRICS:\n")
	fmt.Printf("  Search latency:     %s/query\n", perQuery)
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
}

func train(engine *usecase.Engine, cfg *config.Config, id, corpus string) error {
	walker := fs.NewWalker(cfg.Train.Includes, cfg.Train.Excludes)
	trainUC := usecase.NewTrainUseCase(engine, walker, nil, cfg.Train.MinTextLength)

	start := time.Now()
	out, err := trainUC.TrainFiles(context.Background(), id, []string{corpus})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Files read: %d\n", len(out.Files))
	fmt.Printf("Chunks: %d (%d skipped, avg %.1f words)\n", out.ChunkCount, out.SkippedChunks, out.AvgChunkLength)
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Printf("Training: %s (%.0f chunks/s)\n", elapsed, float64(out.ChunkCount)/secs)
	}
	return nil
}

func restore(engine *usecase.Engine, cfg *config.Config, dir, id string) error {
	snapshots, err := store.Open(cfg, dir)
	if err != nil {
		return err
	}
	defer snapshots.Close()
	return engine.Restore(id, snapshots)
}
