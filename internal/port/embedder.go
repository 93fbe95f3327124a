package port

import (
	"context"

	"resumerag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore stores chunk records and answers similarity queries over them.
type VectorStore interface {
	// Upsert adds or replaces records by chunk id. The batch is applied atomically.
	Upsert(ctx context.Context, records []domain.StoredRecord) error

	// Query scores every candidate (optionally restricted to docName) against
	// vector and returns the topK best, highest first.
	Query(ctx context.Context, vector []float32, topK int, docName string) ([]domain.ScoredRecord, error)

	// ListDocNames returns the distinct document names, sorted ascending.
	ListDocNames(ctx context.Context) ([]string, error)

	// Reset deletes every record.
	Reset(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// DocumentStore is a VectorStore that can also replace or drop all records
// of one document.
type DocumentStore interface {
	VectorStore

	// ReplaceDoc upserts records and removes earlier records of docName that
	// are not among them, atomically. It returns the number removed.
	ReplaceDoc(ctx context.Context, docName string, records []domain.StoredRecord) (int, error)

	// DeleteDoc removes every record of docName.
	DeleteDoc(ctx context.Context, docName string) (int, error)
}
