package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/internal/adapter/chunker"
	"resumerag/internal/adapter/embedding"
	"resumerag/internal/adapter/memstore"
	"resumerag/internal/domain"
	"resumerag/internal/logging"
	"resumerag/internal/usecase"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	emb, err := embedding.NewHashingEmbedder(embedding.DefaultDimension)
	require.NoError(t, err)

	svc := usecase.NewService(usecase.Deps{
		Chunker:  chunker.NewSectionChunker(1000, 150),
		Embedder: emb,
		Store:    memstore.NewMemoryStore(emb.Dimension()),
		Logger:   logging.Discard(),
	}, usecase.Options{MinRelevanceScore: usecase.DefaultMinRelevanceScore})

	server, err := NewServer(svc, "test")
	require.NoError(t, err)
	return server
}

func TestNewServer(t *testing.T) {
	server, err := NewServer(nil, "")
	assert.ErrorIs(t, err, ErrMissingService)
	assert.Nil(t, server)

	server = newTestServer(t)
	assert.NotNil(t, server.HTTPHandler())
}

func TestServer_IngestAndList(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	_, out, err := server.handleIngestText(ctx, nil, IngestTextInput{
		Name: "a.txt",
		Text: "Skills\nGo, Rust\n\nExperience\nBuilt a scheduler.",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt:0000", "a.txt:0001"}, out.ChunkIDs)

	_, list, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, list.Documents)
	assert.Equal(t, 1, list.Count)

	_, _, err = server.handleIngestText(ctx, nil, IngestTextInput{Text: "Skills\nGo"})
	assert.ErrorIs(t, err, errNameRequired)
}

func TestServer_AnswerScreenCompare(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)
	_, _, err := server.handleIngestText(ctx, nil, IngestTextInput{
		Name: "a.txt",
		Text: "Skills\nGo, Rust\n\nExperience\nBuilt a scheduler.",
	})
	require.NoError(t, err)

	_, _, err = server.handleAnswer(ctx, nil, AnswerInput{})
	assert.ErrorIs(t, err, errQuestionRequired)

	_, answer, err := server.handleAnswer(ctx, nil, AnswerInput{Question: "Who knows Rust?"})
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Answer)

	_, _, err = server.handleScreen(ctx, nil, JobInput{})
	assert.ErrorIs(t, err, errJobRequired)

	_, screened, err := server.handleScreen(ctx, nil, JobInput{JobDescription: "Rust developer"})
	require.NoError(t, err)
	require.Len(t, screened.Results, 1)
	assert.Equal(t, "a.txt", screened.Results[0].ResumeName)

	_, compared, err := server.handleCompare(ctx, nil, JobInput{JobDescription: "Rust developer", Documents: []string{"a.txt"}})
	require.NoError(t, err)
	assert.Contains(t, compared.Report, "## a.txt")
}

type brokenService struct {
	Service
}

func (brokenService) ListDocuments(context.Context) ([]string, error) {
	return nil, errors.New("store unavailable")
}

func (brokenService) Screen(context.Context, string, []string) ([]domain.ScreeningResult, error) {
	return nil, errors.New("store unavailable")
}

func TestServer_PropagatesServiceErrors(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(brokenService{}, "test")
	require.NoError(t, err)

	_, _, err = server.handleListDocuments(ctx, nil, ListDocumentsInput{})
	assert.ErrorContains(t, err, "store unavailable")

	_, _, err = server.handleScreen(ctx, nil, JobInput{JobDescription: "Go"})
	assert.ErrorContains(t, err, "store unavailable")
}
