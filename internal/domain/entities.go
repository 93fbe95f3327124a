package domain

import "fmt"

// DefaultSection labels text that precedes any recognised section header.
const DefaultSection = "BODY"

type Document struct {
	Name string
	Text string
	Meta map[string]string
}

type Chunk struct {
	ID       string
	Text     string
	DocName  string
	Section  string
	Sequence int
}

// ChunkID derives the stable id of the seq-th chunk of a document.
func ChunkID(docName string, seq int) string {
	return fmt.Sprintf("%s:%04d", docName, seq)
}

// StoredRecord is the unit persisted by the similarity store.
type StoredRecord struct {
	Chunk    Chunk
	Vector   []float32
	Metadata map[string]string
}

// ScoredRecord is a stored record paired with its similarity to a query.
type ScoredRecord struct {
	Record StoredRecord
	Score  float64
}

type RetrievedChunk struct {
	DocName string  `json:"doc_name"`
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Page    *int    `json:"page,omitempty"`
}

type Citation struct {
	Source  string `json:"source"`
	ChunkID string `json:"chunk_id"`
	Quote   string `json:"quote"`
}

// Fit labels used by screening results.
const (
	FitStrong   = "Strong"
	FitModerate = "Moderate"
	FitWeak     = "Weak"
	FitUnclear  = "Unclear"
)

type ScreeningResult struct {
	ResumeName string     `json:"resume_name"`
	OverallFit string     `json:"overall_fit"`
	Confidence float64    `json:"confidence"`
	Summary    string     `json:"summary"`
	Strengths  []string   `json:"strengths"`
	Gaps       []string   `json:"gaps"`
	Citations  []Citation `json:"citations"`
	// Fallback is set when the result was produced without a generation backend.
	Fallback bool `json:"fallback"`
}

// Turn is one prior exchange supplied by the caller of Answer.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
