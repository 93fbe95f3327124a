package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/internal/domain"
)

func record(doc string, seq int, vec ...float32) domain.StoredRecord {
	return domain.StoredRecord{
		Chunk:  domain.Chunk{ID: domain.ChunkID(doc, seq), Text: doc, DocName: doc, Sequence: seq},
		Vector: vec,
	}
}

func TestMemoryStore_QueryRanksAndFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	require.NoError(t, s.Upsert(ctx, []domain.StoredRecord{
		record("b.txt", 0, 1, 0),
		record("a.txt", 0, 1, 0),
		record("a.txt", 1, 0, 1),
		record("c.txt", 0, -1, 0),
	}))

	results, err := s.Query(ctx, []float32{1, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "a.txt:0000", results[0].Record.Chunk.ID)
	assert.Equal(t, "b.txt:0000", results[1].Record.Chunk.ID)
	assert.Equal(t, 0.0, results[3].Score)
	assert.Equal(t, "a.txt", results[0].Record.Metadata["doc_name"])

	results, err = s.Query(ctx, []float32{0, 1}, 1, "a.txt")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.txt:0001", results[0].Record.Chunk.ID)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	err := s.Upsert(ctx, []domain.StoredRecord{record("a.txt", 0, 1, 0), record("a.txt", 1, 1)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Query(ctx, []float32{1}, 3, "")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestMemoryStore_ReplaceDeleteReset(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(1)

	require.NoError(t, s.Upsert(ctx, []domain.StoredRecord{
		record("a.txt", 0, 1), record("a.txt", 1, 1), record("b.txt", 0, 1),
	}))

	removed, err := s.ReplaceDoc(ctx, "a.txt", []domain.StoredRecord{record("a.txt", 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	removed, err = s.DeleteDoc(ctx, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	names, err := s.ListDocNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names)

	require.NoError(t, s.Reset(ctx))
	names, err = s.ListDocNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}
