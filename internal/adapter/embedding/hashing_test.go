package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func l2(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestHashingEmbedder_Deterministic(t *testing.T) {
	e1, err := NewHashingEmbedder(DefaultDimension)
	require.NoError(t, err)
	e2, err := NewHashingEmbedder(DefaultDimension)
	require.NoError(t, err)

	texts := []string{"Senior Go engineer, Kubernetes and gRPC", "Built a scheduler."}
	a, err := e1.Embed(texts)
	require.NoError(t, err)
	b, err := e2.Embed(texts)
	require.NoError(t, err)

	require.Len(t, a, 2)
	for i := range a {
		require.Len(t, a[i], DefaultDimension)
		for j := range a[i] {
			assert.Equal(t, math.Float32bits(a[i][j]), math.Float32bits(b[i][j]))
		}
	}
}

func TestHashingEmbedder_StableBuckets(t *testing.T) {
	e, err := NewHashingEmbedder(DefaultDimension)
	require.NoError(t, err)

	// A single token produces exactly one non-zero bucket with value 1.
	vecs, err := e.Embed([]string{"kubernetes"})
	require.NoError(t, err)

	nonZero := 0
	for i, x := range vecs[0] {
		if x != 0 {
			nonZero++
			assert.Equal(t, e.bucket("kubernetes"), i)
			assert.InDelta(t, 1.0, x, 1e-6)
		}
	}
	assert.Equal(t, 1, nonZero)
}

// Pinned values hold across processes and releases; a seeded or
// per-process hash would move them.
func TestHashingEmbedder_GoldenBuckets(t *testing.T) {
	e, err := NewHashingEmbedder(DefaultDimension)
	require.NoError(t, err)

	assert.Equal(t, 12, e.bucket("kubernetes"))
	assert.Equal(t, 380, e.bucket("rust"))
	assert.Equal(t, 308, e.bucket("go"))
	assert.Equal(t, 216, e.bucket("engineer"))
	assert.Equal(t, 201, e.bucket("go_engineer"))
}

func TestHashingEmbedder_GoldenVector(t *testing.T) {
	e, err := NewHashingEmbedder(DefaultDimension)
	require.NoError(t, err)

	vecs, err := e.Embed([]string{"Go engineer"})
	require.NoError(t, err)

	// Unigrams weigh 1 and the bigram 0.5, so the norm is 1.5.
	want := map[int]uint32{
		201: 0x3eaaaaab, // 1/3
		216: 0x3f2aaaab, // 2/3
		308: 0x3f2aaaab, // 2/3
	}
	for i, x := range vecs[0] {
		bits, ok := want[i]
		if !ok {
			assert.Zero(t, x, "bucket %d", i)
			continue
		}
		assert.Equal(t, bits, math.Float32bits(x), "bucket %d", i)
	}
}

func TestHashingEmbedder_UnitNormAndNonNegative(t *testing.T) {
	e, err := NewHashingEmbedder(64)
	require.NoError(t, err)

	texts := []string{
		"Experience with Python, Go and C++",
		"go go go go",
		"Led migration of billing platform to AWS; mentored five engineers.",
	}
	vecs, err := e.Embed(texts)
	require.NoError(t, err)

	for _, v := range vecs {
		assert.InDelta(t, 1.0, l2(v), 1e-5)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, float32(0))
		}
	}
}

func TestHashingEmbedder_EmptyIsZero(t *testing.T) {
	e, err := NewHashingEmbedder(32)
	require.NoError(t, err)

	vecs, err := e.Embed([]string{"", "   ", "a ! ?"})
	require.NoError(t, err)
	for _, v := range vecs {
		require.Len(t, v, 32)
		assert.Zero(t, l2(v))
	}
}

func TestHashingEmbedder_SimilarityOrdering(t *testing.T) {
	e, err := NewHashingEmbedder(DefaultDimension)
	require.NoError(t, err)

	vecs, err := e.Embed([]string{
		"kubernetes docker terraform",
		"kubernetes docker helm",
		"watercolour painting classes",
	})
	require.NoError(t, err)

	near := dot(vecs[0], vecs[1])
	far := dot(vecs[0], vecs[2])
	assert.Greater(t, near, far)
	assert.LessOrEqual(t, near, 1.0+1e-6)
	assert.GreaterOrEqual(t, far, 0.0)
}

func TestNewHashingEmbedder_InvalidDimension(t *testing.T) {
	_, err := NewHashingEmbedder(0)
	assert.Error(t, err)
}
