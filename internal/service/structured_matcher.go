package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hirewise/matchengine/internal/dto"
	"github.com/hirewise/matchengine/internal/model"
)

// StructuredMatch is one ranked result from the taxonomy-based matcher.
type StructuredMatch struct {
	JobID            string
	JobTitle         string
	Score            float64
	Details          map[string]string
	CompetencyScores map[string]float64
	SkillGaps        []string
}

// StructuredMatcher is the pluggable taxonomy matcher capability. Callers
// must check Available before Match; an unhealthy matcher behaves exactly
// like an absent one. Match errors are recoverable by the semantic path.
type StructuredMatcher interface {
	Available() bool
	Match(ctx context.Context, candidate dto.CandidateProfile, jobIDs []string, topN int) ([]StructuredMatch, error)
}

// JobSource is the slice of the catalog the stub matcher needs.
type JobSource interface {
	GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error)
	ListJobs(ctx context.Context, status string, limit, offset int) ([]model.Job, error)
}
