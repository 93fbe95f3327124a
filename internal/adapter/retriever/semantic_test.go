package retriever

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/internal/adapter/embedding"
	"resumerag/internal/adapter/store"
	"resumerag/internal/domain"
)

func newTestRetriever(t *testing.T, chunks []domain.Chunk, meta []map[string]string) *SemanticRetriever {
	t.Helper()
	ctx := context.Background()

	emb, err := embedding.NewHashingEmbedder(embedding.DefaultDimension)
	require.NoError(t, err)
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "resumes.db"), emb.Dimension())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := emb.Embed(texts)
	require.NoError(t, err)

	records := make([]domain.StoredRecord, len(chunks))
	for i, ch := range chunks {
		records[i] = domain.StoredRecord{Chunk: ch, Vector: vectors[i], Metadata: meta[i]}
	}
	require.NoError(t, st.Upsert(ctx, records))

	return NewSemanticRetriever(st, emb)
}

func chunk(doc string, seq int, text string) domain.Chunk {
	return domain.Chunk{ID: domain.ChunkID(doc, seq), Text: text, DocName: doc, Section: domain.DefaultSection, Sequence: seq}
}

func TestSemanticRetriever_RanksBySimilarity(t *testing.T) {
	r := newTestRetriever(t,
		[]domain.Chunk{
			chunk("alice.txt", 0, "Kubernetes operator development in Go with Helm charts"),
			chunk("bob.txt", 0, "Watercolor painting and gallery curation"),
		},
		[]map[string]string{{MetaPage: "3"}, nil},
	)

	results, err := r.Retrieve(context.Background(), "kubernetes go helm", 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	top := results[0]
	assert.Equal(t, "alice.txt", top.DocName)
	assert.Equal(t, "alice.txt:0000", top.ChunkID)
	assert.Greater(t, top.Score, results[1].Score)
	require.NotNil(t, top.Page)
	assert.Equal(t, 3, *top.Page)
	assert.Nil(t, results[1].Page)
}

func TestSemanticRetriever_DocFilter(t *testing.T) {
	r := newTestRetriever(t,
		[]domain.Chunk{
			chunk("alice.txt", 0, "Go developer"),
			chunk("bob.txt", 0, "Go developer"),
		},
		[]map[string]string{nil, nil},
	)

	results, err := r.Retrieve(context.Background(), "go developer", 5, "bob.txt")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bob.txt", results[0].DocName)
}

func TestSemanticRetriever_EmptyQuery(t *testing.T) {
	r := newTestRetriever(t, nil, nil)

	_, err := r.Retrieve(context.Background(), "   ", 5, "")
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestPageOf(t *testing.T) {
	assert.Nil(t, pageOf(nil))
	assert.Nil(t, pageOf(map[string]string{MetaPage: "x"}))
	assert.Nil(t, pageOf(map[string]string{MetaPage: "0"}))
	p := pageOf(map[string]string{MetaPage: "12"})
	require.NotNil(t, p)
	assert.Equal(t, 12, *p)
}
