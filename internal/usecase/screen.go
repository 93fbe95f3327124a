package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"resumerag/internal/domain"
)

const (
	maxListItems       = 8
	maxCitations       = 6
	patchCitations     = 3
	fallbackTopChunks  = 5
	defaultConfidence  = 0.4
	unclearBelow       = 0.35
	moderateBelow      = 0.55
	fallbackStrength   = "See cited excerpts for evidence; configure a generation backend for richer synthesis."
	fallbackGap        = "Insufficient evidence to fully assess without stronger retrieval or backend synthesis."
	fallbackSummaryFmt = "Generation backend is not configured or retrieval confidence is low. Showing best-effort, evidence-first excerpts.\nReason: %s"
)

// Screen evaluates each named resume against a job description and returns
// one result per name, in order. An empty docNames screens every document.
func (s *Service) Screen(ctx context.Context, jobDesc string, docNames []string) ([]domain.ScreeningResult, error) {
	if strings.TrimSpace(jobDesc) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if len(docNames) == 0 {
		names, err := s.ListDocuments(ctx)
		if err != nil {
			return nil, err
		}
		docNames = names
	}

	results := make([]domain.ScreeningResult, 0, len(docNames))
	for _, name := range docNames {
		res, err := s.screenOne(ctx, jobDesc, name)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) screenOne(ctx context.Context, jobDesc, docName string) (domain.ScreeningResult, error) {
	log := s.requestLogger("screen").With("doc", docName)

	ev, err := s.Retrieve(ctx, jobDesc, docName)
	if err != nil {
		return domain.ScreeningResult{}, err
	}

	switch {
	case !ev.Passed:
		log.Info("guardrail refused", "reason", ev.Reason)
		return screenFallback(docName, ev.Chunks, ev.Reason), nil
	case s.generator == nil:
		return screenFallback(docName, ev.Chunks, reasonNoGenerator), nil
	}

	user := fmt.Sprintf("JOB DESCRIPTION:\n%s\n\nCONTEXT (single resume: %s):\n%s", jobDesc, docName, contextBlock(ev.Chunks))
	data, err := s.structured(ctx, log, screenSystem, user)
	if err != nil {
		log.Warn("generation failed, using heuristic screening", "error", err)
		return screenFallback(docName, ev.Chunks, backendReason(err)), nil
	}

	return parseScreening(log, docName, data, ev.Chunks), nil
}

// parseScreening converts a backend reply into a result. Citations naming
// chunks that were not retrieved are dropped; when none remain, the top
// retrieved chunks are cited instead.
func parseScreening(log *slog.Logger, docName string, data map[string]any, chunks []domain.RetrievedChunk) domain.ScreeningResult {
	retrieved := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		retrieved[c.ChunkID] = true
	}

	var citations []domain.Citation
	if raw, ok := data["citations"].([]any); ok {
		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id := stringValue(m["chunk_id"])
			quote := stringValue(m["quote"])
			if id == "" || quote == "" {
				continue
			}
			if !retrieved[id] {
				log.Warn("dropping citation of unretrieved chunk", "chunk_id", id)
				continue
			}
			citations = append(citations, domain.Citation{Source: docName, ChunkID: id, Quote: quote})
		}
	}
	if len(citations) == 0 {
		citations = topCitations(docName, chunks, patchCitations)
	}
	if len(citations) > maxCitations {
		citations = citations[:maxCitations]
	}

	confidence := defaultConfidence
	if v, ok := floatValue(data["confidence"]); ok {
		confidence = v
	}

	return domain.ScreeningResult{
		ResumeName: docName,
		OverallFit: normalizeFit(stringValue(data["overall_fit"])),
		Confidence: clamp01(confidence),
		Summary:    stringValue(data["summary"]),
		Strengths:  stringList(data["strengths"], maxListItems),
		Gaps:       stringList(data["gaps"], maxListItems),
		Citations:  citations,
	}
}

// screenFallback builds a heuristic result from retrieval scores alone.
func screenFallback(docName string, chunks []domain.RetrievedChunk, reason string) domain.ScreeningResult {
	top := chunks
	if len(top) > fallbackTopChunks {
		top = top[:fallbackTopChunks]
	}

	var confidence float64
	if len(top) > 0 {
		for _, c := range top {
			confidence += c.Score
		}
		confidence /= float64(len(top))
	}

	return domain.ScreeningResult{
		ResumeName: docName,
		OverallFit: FitForScore(confidence),
		Confidence: clamp01(confidence),
		Summary:    fmt.Sprintf(fallbackSummaryFmt, reason),
		Strengths:  []string{fallbackStrength},
		Gaps:       []string{fallbackGap},
		Citations:  topCitations(docName, chunks, patchCitations),
		Fallback:   true,
	}
}

// FitForScore maps a heuristic confidence onto a fit label.
func FitForScore(score float64) string {
	switch {
	case score < unclearBelow:
		return domain.FitUnclear
	case score < moderateBelow:
		return domain.FitModerate
	default:
		return domain.FitStrong
	}
}

func topCitations(docName string, chunks []domain.RetrievedChunk, n int) []domain.Citation {
	if len(chunks) > n {
		chunks = chunks[:n]
	}
	citations := make([]domain.Citation, 0, len(chunks))
	for _, c := range chunks {
		citations = append(citations, domain.Citation{
			Source:  docName,
			ChunkID: c.ChunkID,
			Quote:   truncateRunes(c.Text, quoteRunes),
		})
	}
	return citations
}

func normalizeFit(s string) string {
	for _, fit := range []string{domain.FitStrong, domain.FitModerate, domain.FitWeak, domain.FitUnclear} {
		if strings.EqualFold(strings.TrimSpace(s), fit) {
			return fit
		}
	}
	return domain.FitUnclear
}

func clamp01(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func floatValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func stringList(v any, limit int) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s := stringValue(item); s != "" {
			out = append(out, s)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}
