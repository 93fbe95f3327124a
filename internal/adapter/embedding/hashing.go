package embedding

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/crypto/blake2b"

	"resumerag/internal/adapter/analyzer"
)

const (
	// DefaultDimension is the number of hash buckets per vector.
	DefaultDimension = 384

	// ModelHashing is the model name reported by HashingEmbedder.
	ModelHashing = "hashing-blake2b-uni+bi"

	unigramWeight = 1.0
	bigramWeight  = 0.5
)

// HashingEmbedder maps text into a fixed number of buckets using hashed
// unigrams and bigrams. Vectors are L2-normalised and non-negative, so the
// dot product of two vectors lies in [0,1].
type HashingEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

// NewHashingEmbedder creates an embedder producing vectors of the given dimension.
func NewHashingEmbedder(dimension int) (*HashingEmbedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension: %d", dimension)
	}
	return &HashingEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(),
	}, nil
}

// Embed generates one vector per input text.
func (e *HashingEmbedder) Embed(texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *HashingEmbedder) embedOne(text string) []float32 {
	acc := make([]float64, e.dimension)

	tokens := e.tokenizer.Tokenize(text)
	for _, tok := range tokens {
		acc[e.bucket(tok)] += unigramWeight
	}
	for _, bi := range analyzer.Bigrams(tokens) {
		acc[e.bucket(bi)] += bigramWeight
	}

	var sum float64
	for _, x := range acc {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}

	vec := make([]float32, e.dimension)
	for i, x := range acc {
		vec[i] = float32(x / norm)
	}
	return vec
}

// bucket hashes s with an unkeyed 8-byte BLAKE2b digest, read little-endian.
func (e *HashingEmbedder) bucket(s string) int {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(s))
	n := binary.LittleEndian.Uint64(h.Sum(nil))
	return int(n % uint64(e.dimension))
}

func (e *HashingEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashingEmbedder) ModelName() string {
	return ModelHashing
}
