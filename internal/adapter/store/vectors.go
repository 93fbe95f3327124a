package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"go.etcd.io/bbolt"

	"resumerag/internal/domain"
)

// encodeVector stores a vector as little-endian float32 values.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}

// dotEncoded computes the dot product of query with an encoded vector
// without decoding it into a slice.
func dotEncoded(query []float32, data []byte) (float64, bool) {
	if len(data) != len(query)*4 {
		return 0, false
	}
	var dot float64
	for i, q := range query {
		dot += float64(q) * float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return dot, true
}

// clampScore maps a raw similarity into [0,1].
func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s) || s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

type candidate struct {
	id    string
	score float64
}

// Query scores every stored vector (or only those of docName, when set)
// against vector and returns the topK best records, highest score first.
// Ties keep chunk id order. Scores are clamped to [0,1].
func (s *BoltStore) Query(ctx context.Context, vector []float32, topK int, docName string) ([]domain.ScoredRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector: expected %d, got %d: %w", s.dimension, len(vector), domain.ErrDimensionMismatch)
	}
	if topK <= 0 {
		return nil, nil
	}

	var results []domain.ScoredRecord
	err := s.view(func(tx *bbolt.Tx) error {
		vectors := tx.Bucket(bucketVectors)

		var candidates []candidate
		score := func(id string, data []byte) error {
			if data == nil {
				return fmt.Errorf("vector %s is missing: %w", id, domain.ErrCorruptRecord)
			}
			dot, ok := dotEncoded(vector, data)
			if !ok {
				return fmt.Errorf("stored vector %s: expected %d, got %d bytes: %w", id, s.dimension*4, len(data), domain.ErrDimensionMismatch)
			}
			candidates = append(candidates, candidate{id: id, score: clampScore(dot)})
			return nil
		}

		if docName != "" {
			for _, id := range docChunkIDs(tx, docName) {
				if err := score(id, vectors.Get([]byte(id))); err != nil {
					return err
				}
			}
		} else {
			c := vectors.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				if err := score(string(k), v); err != nil {
					return err
				}
			}
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].score > candidates[j].score
		})
		if len(candidates) > topK {
			candidates = candidates[:topK]
		}

		records := tx.Bucket(bucketRecords)
		results = make([]domain.ScoredRecord, 0, len(candidates))
		for _, cand := range candidates {
			data := records.Get([]byte(cand.id))
			if data == nil {
				return fmt.Errorf("record %s is missing: %w", cand.id, domain.ErrCorruptRecord)
			}
			rec, err := decodeRecord(cand.id, data)
			if err != nil {
				return err
			}
			results = append(results, domain.ScoredRecord{Record: rec, Score: cand.score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
