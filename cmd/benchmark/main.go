package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"resumerag/config"
	"resumerag/internal/adapter/embedding"
	"resumerag/internal/adapter/retriever"
	"resumerag/internal/adapter/store"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding resumerag.yaml and the collection")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	relevant := flag.String("relevant", "", "Comma-separated document names expected to match")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\" [-relevant a.txt,b.txt]")
		fmt.Println("\nReports:")
		fmt.Println("  1. Collection size and encoder dimension")
		fmt.Println("  2. Similarity of the top matches")
		fmt.Println("  3. Precision, recall, MRR and nDCG when -relevant is given")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if !filepath.IsAbs(cfg.Store.PersistDir) {
		cfg.Store.PersistDir = filepath.Join(*dir, cfg.Store.PersistDir)
	}

	dbPath := cfg.StorePath()
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "No collection at %s - run 'resumerag ingest' first\n", dbPath)
		os.Exit(1)
	}

	st, err := store.NewBoltStore(dbPath, cfg.Embedding.Dimension)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening collection: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if rebuild, reason, err := st.NeedsRebuild(cfg); err != nil || rebuild {
		if err == nil {
			err = fmt.Errorf("%s", reason)
		}
		fmt.Fprintf(os.Stderr, "Collection is out of date (%v) - run 'resumerag ingest' again\n", err)
		st.Close()
		os.Exit(1)
	}

	embedder, err := embedding.NewHashingEmbedder(cfg.Embedding.Dimension)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Encoder init failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	count, _ := st.Count(ctx)
	fmt.Printf("Chunks stored: %d\n", count)
	fmt.Printf("Encoder: %s\n", embedder.ModelName())
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := retriever.NewSemanticRetriever(st, embedder).Retrieve(ctx, *query, *topK, "")
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
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.DocName

		preview := []rune(r.Text)
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}

		totalScore += r.Score
		fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating(r.Score), r.Score, r.ChunkID)
		fmt.Printf("   %s\n\n", strings.ReplaceAll(string(preview), "\n", " "))
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	fmt.Printf("  Gate (>= %.2f):      %s\n", cfg.Retrieve.MinRelevanceScore, gate(results[0].Score, cfg.Retrieve.MinRelevanceScore))

	if *relevant == "" {
		return
	}

	var expected []string
	for _, name := range strings.Split(*relevant, ",") {
		if name = strings.TrimSpace(name); name != "" {
			expected = append(expected, name)
		}
	}

	gains := make([]float64, len(docs))
	for i, d := range docs {
		for _, e := range expected {
			if d == e {
				gains[i] = 1
			}
		}
	}
	ideal := append([]float64(nil), gains...)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))

	fmt.Printf("  Precision@%d:        %.3f\n", len(docs), retriever.PrecisionAtK(docs, expected))
	fmt.Printf("  Recall@%d:           %.3f\n", len(docs), retriever.RecallAtK(docs, expected))
	fmt.Printf("  MRR:                %.3f\n", retriever.ReciprocalRank(docs, expected))
	fmt.Printf("  nDCG:               %.3f\n", retriever.NDCG(gains, ideal))
}

func rating(score float64) string {
	switch {
	case score > 0.7:
		return "HIGH"
	case score > 0.5:
		return "GOOD"
	case score > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

func gate(best, threshold float64) string {
	if best >= threshold {
		return "PASS"
	}
	return "REFUSE"
}
