package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"resumerag/internal/domain"
)

// compareExcerpts is how many chunks per resume the evidence-only report lists.
const compareExcerpts = 6

type resumeEvidence struct {
	name string
	ev   Evidence
}

// Compare ranks several resumes against a job description in one narrative
// report. Each resume is retrieved and gated on its own; a resume that fails
// the gate keeps its block with the reason instead of aborting the report.
// An empty docNames compares every document.
func (s *Service) Compare(ctx context.Context, jobDesc string, docNames []string) (string, error) {
	if strings.TrimSpace(jobDesc) == "" {
		return "", domain.ErrEmptyQuery
	}
	log := s.requestLogger("compare")

	if len(docNames) == 0 {
		names, err := s.ListDocuments(ctx)
		if err != nil {
			return "", err
		}
		docNames = names
	}
	if len(docNames) == 0 {
		return "No documents have been ingested.", nil
	}

	resumes, err := s.gatherEvidence(ctx, jobDesc, docNames)
	if err != nil {
		return "", err
	}

	if s.generator == nil {
		return "Generation backend is not configured. Evidence per resume:\n\n" + evidenceReport(resumes), nil
	}

	blocks := make([]string, len(resumes))
	for i, r := range resumes {
		blocks[i] = resumeBlock(r)
	}
	user := fmt.Sprintf("JOB DESCRIPTION:\n%s\n\nCONTEXT (grouped by resume):\n%s\n\n%s",
		jobDesc, strings.Join(blocks, "\n"), compareInstructions)

	text, err := s.narrative(ctx, log, compareSystem, user)
	if err == nil {
		return text, nil
	}
	log.Warn("combined comparison failed, assessing resumes one by one", "error", err)

	// The per-resume assessments share a single generation budget.
	actx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "The generation backend could not produce a combined comparison.\nReason: %s\n\n", backendReason(err))
	for _, r := range resumes {
		b.WriteString(s.assessResume(actx, log, jobDesc, r))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

// gatherEvidence retrieves and gates every resume concurrently. Results keep
// the order of docNames; the first storage error in that order is returned.
func (s *Service) gatherEvidence(ctx context.Context, query string, docNames []string) ([]resumeEvidence, error) {
	resumes := make([]resumeEvidence, len(docNames))
	errs := make([]error, len(docNames))

	var wg sync.WaitGroup
	for i, name := range docNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			ev, err := s.Retrieve(ctx, query, name)
			resumes[i] = resumeEvidence{name: name, ev: ev}
			errs[i] = err
		}(i, name)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", docNames[i], err)
		}
	}
	return resumes, nil
}

// assessResume renders one resume's block after a failed combined call.
func (s *Service) assessResume(ctx context.Context, log *slog.Logger, jobDesc string, r resumeEvidence) string {
	if !r.ev.Passed {
		return resumeBlock(r)
	}

	err := ctx.Err()
	var text string
	if err == nil {
		user := fmt.Sprintf("JOB DESCRIPTION:\n%s\n\nCONTEXT (single resume: %s):\n%s", jobDesc, r.name, contextBlock(r.ev.Chunks))
		text, err = s.narrative(ctx, log.With("doc", r.name), assessSystem, user)
	}
	if err != nil {
		log.Warn("assessment failed, showing evidence", "doc", r.name, "error", err)
		return fmt.Sprintf("## %s\nReason: %s\n%s\n", r.name, backendReason(err), excerptList(r.ev.Chunks, compareExcerpts))
	}
	return fmt.Sprintf("## %s\n%s\n", r.name, text)
}

// resumeBlock is the labelled context of one resume, or its refusal reason.
func resumeBlock(r resumeEvidence) string {
	if !r.ev.Passed {
		return fmt.Sprintf("## %s\nNo strong evidence retrieved. Reason: %s\n", r.name, r.ev.Reason)
	}
	return fmt.Sprintf("## %s\n%s\n", r.name, contextBlock(r.ev.Chunks))
}

func evidenceReport(resumes []resumeEvidence) string {
	var b strings.Builder
	for _, r := range resumes {
		if !r.ev.Passed {
			b.WriteString(resumeBlock(r))
		} else {
			fmt.Fprintf(&b, "## %s\n%s\n", r.name, excerptList(r.ev.Chunks, compareExcerpts))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
