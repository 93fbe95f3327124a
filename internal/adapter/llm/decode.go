package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"resumerag/internal/domain"
)

// ErrEmptyReply is returned when a backend answers without content.
var ErrEmptyReply = errors.New("empty reply")

// DecodeObject parses a model reply that should hold a single JSON object.
// Markdown code fences and text around the object are tolerated.
func DecodeObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedOutput, ErrEmptyReply)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj != nil {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("%w: reply is not a JSON object", domain.ErrMalformedOutput)
}
