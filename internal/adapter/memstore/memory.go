package memstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"resumerag/internal/domain"
	"resumerag/internal/port"
)

var _ port.DocumentStore = (*MemoryStore)(nil)

// MemoryStore is a non-persistent DocumentStore with the same ranking rules
// as the bolt store. It backs ephemeral sessions and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]domain.StoredRecord
	docChunks map[string]map[string]struct{}
}

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		records:   make(map[string]domain.StoredRecord),
		docChunks: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) check(records []domain.StoredRecord) error {
	for _, rec := range records {
		if rec.Chunk.ID == "" {
			return fmt.Errorf("record without chunk id")
		}
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("record %s: expected %d, got %d: %w", rec.Chunk.ID, s.dimension, len(rec.Vector), domain.ErrDimensionMismatch)
		}
	}
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, records []domain.StoredRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.check(records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.put(rec)
	}
	return nil
}

func (s *MemoryStore) ReplaceDoc(ctx context.Context, docName string, records []domain.StoredRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.check(records); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[string]struct{}, len(records))
	for _, rec := range records {
		keep[rec.Chunk.ID] = struct{}{}
	}
	removed := 0
	for id := range s.docChunks[docName] {
		if _, ok := keep[id]; !ok {
			s.remove(id)
			removed++
		}
	}
	for _, rec := range records {
		s.put(rec)
	}
	return removed, nil
}

func (s *MemoryStore) DeleteDoc(ctx context.Context, docName string) (int, error) {
	return s.ReplaceDoc(ctx, docName, nil)
}

func (s *MemoryStore) put(rec domain.StoredRecord) {
	id := rec.Chunk.ID
	s.remove(id)

	meta := maps.Clone(rec.Metadata)
	if meta == nil {
		meta = make(map[string]string, 1)
	}
	meta["doc_name"] = rec.Chunk.DocName
	rec.Metadata = meta
	rec.Vector = append([]float32(nil), rec.Vector...)

	s.records[id] = rec
	if s.docChunks[rec.Chunk.DocName] == nil {
		s.docChunks[rec.Chunk.DocName] = make(map[string]struct{})
	}
	s.docChunks[rec.Chunk.DocName][id] = struct{}{}
}

func (s *MemoryStore) remove(id string) {
	old, ok := s.records[id]
	if !ok {
		return
	}
	delete(s.records, id)
	ids := s.docChunks[old.Chunk.DocName]
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.docChunks, old.Chunk.DocName)
	}
}

// Query ranks candidates by dot product. Ties keep chunk id order.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, topK int, docName string) ([]domain.ScoredRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector: expected %d, got %d: %w", s.dimension, len(vector), domain.ErrDimensionMismatch)
	}
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	if docName != "" {
		for id := range s.docChunks[docName] {
			ids = append(ids, id)
		}
	} else {
		for id := range s.records {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	results := make([]domain.ScoredRecord, 0, len(ids))
	for _, id := range ids {
		rec := s.records[id]
		var dot float64
		for i, v := range rec.Vector {
			dot += float64(v) * float64(vector[i])
		}
		results = append(results, domain.ScoredRecord{Record: rec, Score: clamp(dot)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func clamp(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func (s *MemoryStore) ListDocNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docChunks))
	for name := range s.docChunks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]domain.StoredRecord)
	s.docChunks = make(map[string]map[string]struct{})
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
