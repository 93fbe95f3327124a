package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"resumerag/internal/domain"
	"resumerag/internal/port"
)

// QueryCache is an LRU cache of retrieval results with a TTL. Entries written
// before the last Invalidate are never returned.
type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
	now      func() time.Time
}

type cacheEntry struct {
	results   []domain.RetrievedChunk
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, topK int, docName string) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(docName))
	var k [8]byte
	binary.LittleEndian.PutUint64(k[:], uint64(topK))
	h.Write(k[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *QueryCache) Get(query string, topK int, docName string) ([]domain.RetrievedChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK, docName)
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl || entry.indexGen != c.indexGen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return cloneResults(entry.results), true
}

func (c *QueryCache) Put(query string, topK int, docName string, results []domain.RetrievedChunk) {
	c.PutAt(c.Generation(), query, topK, docName, results)
}

// Generation returns the current invalidation generation. Take it before
// reading the store and hand it to PutAt.
func (c *QueryCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexGen
}

// PutAt stores results read at generation gen. The write is dropped when the
// cache was invalidated since, as the results may predate the change.
func (c *QueryCache) PutAt(gen uint64, query string, topK int, docName string, results []domain.RetrievedChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.indexGen {
		return
	}

	key := cacheKey(query, topK, docName)
	entry := &cacheEntry{
		results:   cloneResults(results),
		timestamp: c.now(),
		indexGen:  gen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry. Call it whenever the store changes.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func cloneResults(in []domain.RetrievedChunk) []domain.RetrievedChunk {
	if in == nil {
		return nil
	}
	out := make([]domain.RetrievedChunk, len(in))
	copy(out, in)
	return out
}

// CachedRetriever serves repeated retrievals from a QueryCache.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, query string, topK int, docName string) ([]domain.RetrievedChunk, error) {
	if results, hit := r.cache.Get(query, topK, docName); hit {
		return results, nil
	}

	gen := r.cache.Generation()
	results, err := r.retriever.Retrieve(ctx, query, topK, docName)
	if err != nil {
		return nil, err
	}

	r.cache.PutAt(gen, query, topK, docName, results)
	return results, nil
}

// Invalidate drops cached results.
func (r *CachedRetriever) Invalidate() {
	r.cache.Invalidate()
}
