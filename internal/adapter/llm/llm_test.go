package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/config"
	"resumerag/internal/domain"
)

func ollamaServer(t *testing.T, reply string, status int, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		if status != http.StatusOK {
			http.Error(w, "model not found", status)
			return
		}
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: reply},
			Done:    true,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaGenerator_Narrative(t *testing.T) {
	var seen chatRequest
	srv := ollamaServer(t, "  Alice fits.\n", http.StatusOK, &seen)
	g := NewOllamaGenerator(srv.URL+"/", "llama3.1", time.Second)

	text, err := g.CompleteNarrative(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "Alice fits.", text)

	assert.Equal(t, "llama3.1", seen.Model)
	assert.False(t, seen.Stream)
	assert.Empty(t, seen.Format)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "sys"}, seen.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "usr"}, seen.Messages[1])
}

func TestOllamaGenerator_Structured(t *testing.T) {
	var seen chatRequest
	srv := ollamaServer(t, `{"overall_fit":"Strong","confidence":0.8}`, http.StatusOK, &seen)
	g := NewOllamaGenerator(srv.URL, "", 0)

	obj, err := g.CompleteStructured(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "json", seen.Format)
	assert.Equal(t, "Strong", obj["overall_fit"])
	assert.Equal(t, 0.8, obj["confidence"])
	assert.Equal(t, DefaultOllamaModel, g.ModelName())
}

func TestOllamaGenerator_MalformedJSON(t *testing.T) {
	srv := ollamaServer(t, "sorry, I cannot", http.StatusOK, nil)
	g := NewOllamaGenerator(srv.URL, "m", time.Second)

	_, err := g.CompleteStructured(context.Background(), "sys", "usr")
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}

func TestOllamaGenerator_HTTPError(t *testing.T) {
	srv := ollamaServer(t, "", http.StatusNotFound, nil)
	g := NewOllamaGenerator(srv.URL, "m", time.Second)

	_, err := g.CompleteNarrative(context.Background(), "sys", "usr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestOllamaGenerator_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	g := NewOllamaGenerator(srv.URL, "m", time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := g.CompleteNarrative(ctx, "sys", "usr")
	assert.Error(t, err)
}

func TestOpenAIGenerator(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "```json\n{\"overall_fit\":\"Weak\"}\n```"},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	g, err := NewOpenAIGenerator("test-key", srv.URL+"/v1", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, g.ModelName())

	obj, err := g.CompleteStructured(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "Weak", obj["overall_fit"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
}

func TestNewOpenAIGenerator_RequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator("", "", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject(`Here you go: {"a": 1} hope it helps`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, obj["a"])

	_, err = DecodeObject("")
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)

	_, err = DecodeObject("[1,2,3]")
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}

func TestNew(t *testing.T) {
	gen, err := New(config.GenerationConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, gen)

	gen, err = New(config.GenerationConfig{Provider: "Ollama", Model: "qwen2"})
	require.NoError(t, err)
	assert.Equal(t, "qwen2", gen.ModelName())

	t.Setenv("RESUMERAG_TEST_KEY", "")
	_, err = New(config.GenerationConfig{Provider: "openai", APIKeyEnv: "RESUMERAG_TEST_KEY"})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	t.Setenv("RESUMERAG_TEST_KEY", "k")
	gen, err = New(config.GenerationConfig{Provider: "openai", APIKeyEnv: "RESUMERAG_TEST_KEY", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", gen.ModelName())

	_, err = New(config.GenerationConfig{Provider: "carrier-pigeon"})
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}
