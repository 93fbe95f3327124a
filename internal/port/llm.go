package port

import "context"

// Generator is the text-generation capability behind the guardrail.
// Every call either succeeds completely or returns an error.
type Generator interface {
	// CompleteNarrative returns free-form text for the given instructions.
	CompleteNarrative(ctx context.Context, system, user string) (string, error)

	// CompleteStructured returns a decoded JSON object.
	CompleteStructured(ctx context.Context, system, user string) (map[string]any, error)

	// ModelName returns the name of the model.
	ModelName() string
}
