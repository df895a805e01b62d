package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryVectorIndex keeps the index in process memory. It is used for
// development (VECTOR_STORE=memory) and in tests; the semantics mirror the
// Postgres index. Readers run concurrently, writes serialize on the lock.
type MemoryVectorIndex struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]VectorEntry
}

func NewMemoryVectorIndex() *MemoryVectorIndex {
	return &MemoryVectorIndex{entries: make(map[uuid.UUID]VectorEntry)}
}

func (m *MemoryVectorIndex) Upsert(_ context.Context, entry VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.JobID] = entry
	return nil
}

func (m *MemoryVectorIndex) Remove(_ context.Context, jobID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, jobID)
	return nil
}

func (m *MemoryVectorIndex) Search(_ context.Context, embedding []float32, limit int, filter VectorFilter) ([]VectorHit, error) {
	if limit <= 0 {
		return []VectorHit{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]VectorHit, 0, len(m.entries))
	for _, entry := range m.entries {
		if !matchesFilter(entry, filter) {
			continue
		}
		hits = append(hits, VectorHit{
			JobID:      entry.JobID,
			Similarity: CosineSimilarity(embedding, entry.Embedding),
			Title:      entry.Title,
			Department: entry.Department,
			Level:      entry.Level,
			Skills:     entry.Skills,
			Document:   entry.Document,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].JobID.String() < hits[j].JobID.String()
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func matchesFilter(entry VectorEntry, filter VectorFilter) bool {
	if filter.Status != "" && entry.Status != filter.Status {
		return false
	}
	if filter.Department != "" && entry.Department != filter.Department {
		return false
	}
	if filter.Level != "" && entry.Level != filter.Level {
		return false
	}
	return true
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
