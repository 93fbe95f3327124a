package retriever

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"resumerag/internal/domain"
	"resumerag/internal/port"
)

// MetaPage is the record metadata key holding the 1-based page number.
const MetaPage = "page"

// SemanticRetriever embeds the query once and ranks stored chunks by
// similarity to it.
type SemanticRetriever struct {
	vectorStore port.VectorStore
	embedder    port.Embedder
}

func NewSemanticRetriever(vectorStore port.VectorStore, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
	}
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, topK int, docName string) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	embeddings, err := r.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	results, err := r.vectorStore.Query(ctx, embeddings[0], topK, docName)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(results))
	for _, result := range results {
		rec := result.Record
		chunks = append(chunks, domain.RetrievedChunk{
			DocName: rec.Chunk.DocName,
			ChunkID: rec.Chunk.ID,
			Text:    rec.Chunk.Text,
			Score:   result.Score,
			Page:    pageOf(rec.Metadata),
		})
	}

	return chunks, nil
}

func pageOf(meta map[string]string) *int {
	v, ok := meta[MetaPage]
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
