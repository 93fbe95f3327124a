package port

import (
	"context"

	"resumerag/internal/domain"
)

// Retriever returns the chunks most similar to a query, best first.
// An empty docName searches every document.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, docName string) ([]domain.RetrievedChunk, error)
}
