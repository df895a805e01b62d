package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hirewise/matchengine/internal/apperr"
	"github.com/hirewise/matchengine/internal/model"
	"gorm.io/gorm"
)

// JobRepository reads catalog records. Writes to the jobs table belong to
// the catalog service, not to the matching engine.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

func (r *JobRepository) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var j model.Job
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("job %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JobRepository) ListJobs(ctx context.Context, status string, limit, offset int) ([]model.Job, error) {
	var jobs []model.Job
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Offset(offset).Order("created_at ASC").Find(&jobs).Error
	return jobs, err
}
