package usecase

import (
	"context"
	"fmt"
	"strings"

	"resumerag/internal/domain"
)

// maxHistoryTurns bounds how much caller-supplied conversation is forwarded.
const maxHistoryTurns = 6

// Answer responds to a question from the indexed resumes. Prior turns, when
// given, are passed to the backend as background; retrieval uses the question
// alone. Weak evidence yields a refusal and backend failures yield excerpts,
// so the only errors are input and storage errors.
func (s *Service) Answer(ctx context.Context, question string, history ...domain.Turn) (string, error) {
	log := s.requestLogger("answer")

	ev, err := s.Retrieve(ctx, question, "")
	if err != nil {
		return "", err
	}
	if !ev.Passed {
		log.Info("guardrail refused", "reason", ev.Reason)
		return refusal(ev.Reason), nil
	}

	if s.generator == nil {
		return "Generation backend is not configured. Here are the most relevant excerpts:\n\n" +
			excerptList(ev.Chunks, 3), nil
	}

	user := answerPrompt(question, history, ev.Chunks)
	text, err := s.narrative(ctx, log, answerSystem, user)
	if err != nil {
		log.Warn("generation failed, returning excerpts", "error", err)
		return "The generation backend is currently unavailable.\nReason: " + backendReason(err) +
			"\n\nHere are the most relevant excerpts from the resumes instead:\n\n" + excerptList(ev.Chunks, 3), nil
	}
	return text, nil
}

func answerPrompt(question string, history []domain.Turn, chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("CONVERSATION SO FAR:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, strings.TrimSpace(t.Content))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "QUESTION:\n%s\n\nCONTEXT:\n%s", question, contextBlock(chunks))
	return b.String()
}
