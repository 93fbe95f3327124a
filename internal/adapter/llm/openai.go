package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"resumerag/internal/port"
)

var _ port.Generator = (*OpenAIGenerator)(nil)

// DefaultOpenAIModel is used when no model is configured for the openai provider.
const DefaultOpenAIModel = openai.GPT4oMini

// ErrNoAPIKey is returned when the configured API key variable is unset.
var ErrNoAPIKey = errors.New("api key environment variable not set")

// OpenAIGenerator uses the chat completions API of OpenAI or any compatible server.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (g *OpenAIGenerator) CompleteNarrative(ctx context.Context, system, user string) (string, error) {
	text, err := g.complete(ctx, system, user, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *OpenAIGenerator) CompleteStructured(ctx context.Context, system, user string) (map[string]any, error) {
	text, err := g.complete(ctx, system, user, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return nil, err
	}
	return DecodeObject(text)
}

func (g *OpenAIGenerator) ModelName() string {
	return g.model
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string, format *openai.ChatCompletionResponseFormat) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices: %w", ErrEmptyReply)
	}
	return resp.Choices[0].Message.Content, nil
}
