package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"resumerag/internal/domain"
)

var (
	bucketRecords  = []byte("records")
	bucketVectors  = []byte("vectors")
	bucketDocIndex = []byte("doc_index")
	bucketMeta     = []byte("meta")

	dataBuckets = [][]byte{bucketRecords, bucketVectors, bucketDocIndex}
)

// MetaDocName is the metadata key every stored record carries.
const MetaDocName = "doc_name"

// docIndexSep separates the document name from the chunk id in doc_index keys.
const docIndexSep = 0x00

// BoltStore is the persistent similarity store of one collection. Records,
// vectors and the document index live in separate buckets of a single bbolt
// file, so every write is one transaction and readers never see a partial batch.
type BoltStore struct {
	db        *bbolt.DB
	path      string
	dimension int
}

// NewBoltStore opens (or creates) the collection file at path. Vectors
// written to or queried against the store must have the given dimension.
func NewBoltStore(path string, dimension int) (*BoltStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid store dimension: %d", dimension)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range append([][]byte{bucketMeta}, dataBuckets...) {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, path: path, dimension: dimension}, nil
}

// Path returns the collection file path.
func (s *BoltStore) Path() string {
	return s.path
}

func (s *BoltStore) Dimension() int {
	return s.dimension
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// storedRecord is the JSON form of a record's chunk fields and metadata.
type storedRecord struct {
	DocName  string            `json:"doc_name"`
	Section  string            `json:"section"`
	Sequence int               `json:"seq"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (s *BoltStore) view(fn func(tx *bbolt.Tx) error) error {
	return storeErr(s.db.View(fn))
}

func (s *BoltStore) update(fn func(tx *bbolt.Tx) error) error {
	return storeErr(s.db.Update(fn))
}

func storeErr(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return domain.ErrStoreClosed
	}
	return err
}

func (s *BoltStore) checkRecords(records []domain.StoredRecord) error {
	for i, rec := range records {
		if rec.Chunk.ID == "" {
			return fmt.Errorf("record %d has an empty id", i)
		}
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("record %s: expected %d, got %d: %w", rec.Chunk.ID, s.dimension, len(rec.Vector), domain.ErrDimensionMismatch)
		}
	}
	return nil
}

// Upsert adds or replaces records by chunk id in a single transaction. A
// record that moves to another document is re-indexed under its new name.
func (s *BoltStore) Upsert(ctx context.Context, records []domain.StoredRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkRecords(records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	return s.update(func(tx *bbolt.Tx) error {
		for _, rec := range records {
			if err := putRecord(tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceDoc upserts records for docName and deletes, in the same
// transaction, any earlier record of that document whose id is not among
// them. It returns the number of deleted records.
func (s *BoltStore) ReplaceDoc(ctx context.Context, docName string, records []domain.StoredRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.checkRecords(records); err != nil {
		return 0, err
	}

	keep := make(map[string]struct{}, len(records))
	for _, rec := range records {
		keep[rec.Chunk.ID] = struct{}{}
	}

	var removed int
	err := s.update(func(tx *bbolt.Tx) error {
		for _, id := range docChunkIDs(tx, docName) {
			if _, ok := keep[id]; ok {
				continue
			}
			if err := deleteRecord(tx, id); err != nil {
				return err
			}
			removed++
		}
		for _, rec := range records {
			if err := putRecord(tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	return removed, err
}

// DeleteDoc removes every record of docName and returns how many were removed.
func (s *BoltStore) DeleteDoc(ctx context.Context, docName string) (int, error) {
	return s.ReplaceDoc(ctx, docName, nil)
}

func putRecord(tx *bbolt.Tx, rec domain.StoredRecord) error {
	id := []byte(rec.Chunk.ID)
	records := tx.Bucket(bucketRecords)
	index := tx.Bucket(bucketDocIndex)

	if prev := records.Get(id); prev != nil {
		old, err := decodeRecord(rec.Chunk.ID, prev)
		if err != nil {
			return err
		}
		if old.Chunk.DocName != rec.Chunk.DocName {
			if err := index.Delete(docIndexKey(old.Chunk.DocName, rec.Chunk.ID)); err != nil {
				return err
			}
		}
	}

	meta := make(map[string]string, len(rec.Metadata)+1)
	for k, v := range rec.Metadata {
		meta[k] = v
	}
	meta[MetaDocName] = rec.Chunk.DocName

	data, err := json.Marshal(storedRecord{
		DocName:  rec.Chunk.DocName,
		Section:  rec.Chunk.Section,
		Sequence: rec.Chunk.Sequence,
		Text:     rec.Chunk.Text,
		Metadata: meta,
	})
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.Chunk.ID, err)
	}

	if err := records.Put(id, data); err != nil {
		return err
	}
	if err := tx.Bucket(bucketVectors).Put(id, encodeVector(rec.Vector)); err != nil {
		return err
	}
	return index.Put(docIndexKey(rec.Chunk.DocName, rec.Chunk.ID), id)
}

func deleteRecord(tx *bbolt.Tx, id string) error {
	records := tx.Bucket(bucketRecords)
	if data := records.Get([]byte(id)); data != nil {
		old, err := decodeRecord(id, data)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketDocIndex).Delete(docIndexKey(old.Chunk.DocName, id)); err != nil {
			return err
		}
	}
	if err := records.Delete([]byte(id)); err != nil {
		return err
	}
	return tx.Bucket(bucketVectors).Delete([]byte(id))
}

func docIndexKey(docName, id string) []byte {
	key := make([]byte, 0, len(docName)+1+len(id))
	key = append(key, docName...)
	key = append(key, docIndexSep)
	return append(key, id...)
}

func splitDocIndexKey(key []byte) (docName, id string) {
	i := bytes.IndexByte(key, docIndexSep)
	if i < 0 {
		return string(key), ""
	}
	return string(key[:i]), string(key[i+1:])
}

// docChunkIDs returns the ids indexed under docName in key order.
func docChunkIDs(tx *bbolt.Tx, docName string) []string {
	prefix := docIndexKey(docName, "")
	var ids []string
	c := tx.Bucket(bucketDocIndex).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		ids = append(ids, string(k[len(prefix):]))
	}
	return ids
}

func decodeRecord(id string, data []byte) (domain.StoredRecord, error) {
	var sr storedRecord
	if err := json.Unmarshal(data, &sr); err != nil {
		return domain.StoredRecord{}, fmt.Errorf("failed to decode record %s: %v: %w", id, err, domain.ErrCorruptRecord)
	}
	return domain.StoredRecord{
		Chunk: domain.Chunk{
			ID:       id,
			Text:     sr.Text,
			DocName:  sr.DocName,
			Section:  sr.Section,
			Sequence: sr.Sequence,
		},
		Metadata: sr.Metadata,
	}, nil
}

// Get returns the record with the given id.
func (s *BoltStore) Get(ctx context.Context, id string) (domain.StoredRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredRecord{}, false, err
	}

	var (
		rec   domain.StoredRecord
		found bool
	)
	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get([]byte(id))
		if data == nil {
			return nil
		}
		var err error
		if rec, err = decodeRecord(id, data); err != nil {
			return err
		}
		rec.Vector = decodeVector(tx.Bucket(bucketVectors).Get([]byte(id)))
		found = true
		return nil
	})
	return rec, found, err
}

// ListDocNames returns the distinct document names in ascending order.
func (s *BoltStore) ListDocNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := []string{}
	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocIndex).ForEach(func(k, _ []byte) error {
			name, _ := splitDocIndexKey(k)
			if n := len(names); n == 0 || names[n-1] != name {
				names = append(names, name)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Reset deletes every record. Schema information in the meta bucket is kept.
func (s *BoltStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(tx *bbolt.Tx) error {
		for _, name := range dataBuckets {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("failed to drop bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Count returns the number of stored records.
func (s *BoltStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := s.view(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketRecords).Stats().KeyN
		return nil
	})
	return n, err
}
