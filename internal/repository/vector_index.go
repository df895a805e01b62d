package repository

import (
	"context"

	"github.com/google/uuid"
)

// VectorEntry is what gets stored for one job: the embedding, the text it
// was built from, and a metadata snapshot used for filtering and scoring.
type VectorEntry struct {
	JobID      uuid.UUID
	Embedding  []float32
	Document   string
	Title      string
	Department string
	Level      string
	Status     string
	Skills     []string
}

// VectorFilter is an exact-match metadata filter. Empty fields match anything.
type VectorFilter struct {
	Status     string
	Department string
	Level      string
}

// VectorHit is a nearest-neighbor result. Similarity is cosine similarity,
// which for unit vectors is the dot product.
type VectorHit struct {
	JobID      uuid.UUID
	Similarity float64
	Title      string
	Department string
	Level      string
	Skills     []string
	Document   string
}

// VectorIndex stores one entry per job id. Upsert replaces, Remove is
// idempotent, and Search over an empty index returns an empty slice rather
// than an error. Results come back ordered by descending similarity with
// ties broken by job id.
type VectorIndex interface {
	Upsert(ctx context.Context, entry VectorEntry) error
	Remove(ctx context.Context, jobID uuid.UUID) error
	Search(ctx context.Context, embedding []float32, limit int, filter VectorFilter) ([]VectorHit, error)
}
