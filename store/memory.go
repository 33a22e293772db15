package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"readmekb/types"
)

type chunkKey struct {
	source     string
	externalID string
}

// MemoryStore is a KnowledgeStore kept in process memory. The loader uses it
// for dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[uuid.UUID]types.Document
	chunks map[chunkKey]*types.KnowledgeChunk
	seq    map[chunkKey]int
	next   int
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[uuid.UUID]types.Document),
		chunks: make(map[chunkKey]*types.KnowledgeChunk),
		seq:    make(map[chunkKey]int),
		now:    time.Now,
	}
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) SaveDocument(_ context.Context, doc types.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.docs[doc.ID]; ok {
		doc.CreatedAt = old.CreatedAt
		doc.Version = old.Version + 1
	}
	doc.Chunks = nil
	m.docs[doc.ID] = doc
	return nil
}

func (m *MemoryStore) GetDocumentByID(_ context.Context, id uuid.UUID) (*types.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return &doc, nil
}

func (m *MemoryStore) UpsertChunk(_ context.Context, c *types.KnowledgeChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := chunkKey{c.Source, c.ExternalID}
	now := m.now()
	if old, ok := m.chunks[key]; ok {
		c.ID = old.ID
		c.CreatedAt = old.CreatedAt
	} else {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CreatedAt = now
		m.seq[key] = m.next
		m.next++
	}
	c.UpdatedAt = now

	stored := *c
	stored.Embedding = slices.Clone(c.Embedding)
	m.chunks[key] = &stored
	return nil
}

func (m *MemoryStore) GetChunkByExternalID(_ context.Context, source, externalID string) (*types.KnowledgeChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chunks[chunkKey{source, externalID}]
	if !ok {
		return nil, fmt.Errorf("chunk %s/%s: %w", source, externalID, ErrNotFound)
	}
	out := *c
	return &out, nil
}

// ListBySource returns chunks in insertion order.
func (m *MemoryStore) ListBySource(_ context.Context, source string, limit, offset int) ([]types.KnowledgeChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []chunkKey
	for k := range m.chunks {
		if k.source == source {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return m.seq[keys[i]] < m.seq[keys[j]] })

	if offset >= len(keys) {
		return nil, nil
	}
	keys = keys[offset:]
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]types.KnowledgeChunk, len(keys))
	for i, k := range keys {
		out[i] = *m.chunks[k]
	}
	return out, nil
}

func (m *MemoryStore) Search(_ context.Context, vec []float32, limit int) ([]types.KnowledgeChunk, error) {
	if len(vec) == 0 {
		return nil, errors.New("empty query vector")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.KnowledgeChunk
	for _, c := range m.chunks {
		if len(c.Embedding) != len(vec) {
			continue
		}
		hit := *c
		hit.Distance = cosine(vec, c.Embedding)
		out = append(out, hit)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance > out[j].Distance
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) DeleteBySource(_ context.Context, source string) (int64, error) {
	return m.deleteWhere(func(k chunkKey) bool { return k.source == source }), nil
}

func (m *MemoryStore) PruneSource(_ context.Context, source string, keep []string) (int64, error) {
	return m.deleteWhere(func(k chunkKey) bool {
		return k.source == source && !slices.Contains(keep, k.externalID)
	}), nil
}

func (m *MemoryStore) deleteWhere(match func(chunkKey) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.chunks {
		if match(k) {
			delete(m.chunks, k)
			delete(m.seq, k)
			n++
		}
	}
	return n
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
