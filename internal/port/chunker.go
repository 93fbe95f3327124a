package port

import "resumerag/internal/domain"

type Chunker interface {
	Segment(text, docName string) []domain.Chunk
}
