package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"resumerag/internal/domain"
)

const (
	reasonNoContext   = "No relevant context retrieved."
	reasonNoGenerator = "Generation backend is not configured."

	refusalLead = "I don't have enough evidence in the indexed resumes to answer that."

	excerptRunes = 220
	quoteRunes   = 240
)

// Gate is the confidence guardrail. It passes when at least one chunk was
// retrieved and the best score reaches minScore (inclusive). On failure it
// returns the human-readable reason.
func Gate(chunks []domain.RetrievedChunk, minScore float64) (bool, string) {
	if len(chunks) == 0 {
		return false, reasonNoContext
	}
	best := chunks[0].Score
	for _, c := range chunks[1:] {
		if c.Score > best {
			best = c.Score
		}
	}
	if best < minScore {
		return false, fmt.Sprintf("Low retrieval confidence (best score=%.2f < %.2f).", best, minScore)
	}
	return true, ""
}

// Evidence is the outcome of the retrieval and gating steps for one query.
type Evidence struct {
	Chunks []domain.RetrievedChunk
	Passed bool
	Reason string
}

// Retrieve runs the retrieval and gating steps, optionally restricted to one
// document. Storage failures are returned; weak evidence is not an error.
func (s *Service) Retrieve(ctx context.Context, query, docName string) (Evidence, error) {
	chunks, err := s.retriever.Retrieve(ctx, query, s.opts.TopK, docName)
	if err != nil {
		return Evidence{}, fmt.Errorf("retrieval failed: %w", err)
	}
	ok, reason := Gate(chunks, s.opts.MinRelevanceScore)
	return Evidence{Chunks: chunks, Passed: ok, Reason: reason}, nil
}

// contextBlock enumerates chunks with their ids and scores for the backend.
func contextBlock(chunks []domain.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[%s | score=%.2f]\n%s", c.ChunkID, c.Score, c.Text)
	}
	return strings.Join(parts, "\n\n")
}

// excerptList renders the top chunks as a markdown bullet list.
func excerptList(chunks []domain.RetrievedChunk, n int) string {
	if len(chunks) > n {
		chunks = chunks[:n]
	}
	lines := make([]string, len(chunks))
	for i, c := range chunks {
		lines[i] = fmt.Sprintf("- `%s`: %s...", c.ChunkID, truncateRunes(c.Text, excerptRunes))
	}
	return strings.Join(lines, "\n")
}

// truncateRunes returns at most n runes of s with surrounding space trimmed.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return strings.TrimSpace(string(r))
}

// refusal is the answer given when the guardrail blocks a request.
func refusal(reason string) string {
	return refusalLead + "\n\nReason: " + reason
}

func backendReason(err error) string {
	return "LLM error: " + err.Error()
}

// narrative calls the backend under the generation timeout.
func (s *Service) narrative(ctx context.Context, log *slog.Logger, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	log.Debug("calling generation backend", "mode", "narrative", "model", s.generator.ModelName(), "context_tokens", s.tokenizer.CountTokens(user))
	text, err := s.generator.CompleteNarrative(ctx, system, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *Service) structured(ctx context.Context, log *slog.Logger, system, user string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	log.Debug("calling generation backend", "mode", "structured", "model", s.generator.ModelName(), "context_tokens", s.tokenizer.CountTokens(user))
	return s.generator.CompleteStructured(ctx, system, user)
}
