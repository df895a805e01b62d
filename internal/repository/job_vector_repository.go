package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hirewise/matchengine/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobVectorRepository is the durable vector index, backed by a pgvector
// column. One row per job id; the upsert keeps concurrent writes for the
// same id from interleaving.
type JobVectorRepository struct {
	db *gorm.DB
}

func NewJobVectorRepository(db *gorm.DB) *JobVectorRepository {
	return &JobVectorRepository{db}
}

func (r *JobVectorRepository) Upsert(ctx context.Context, entry VectorEntry) error {
	row := model.JobEmbedding{
		JobID:      entry.JobID,
		Embedding:  pgvector.NewVector(entry.Embedding),
		Document:   entry.Document,
		Title:      entry.Title,
		Department: entry.Department,
		Level:      entry.Level,
		Status:     entry.Status,
		Skills:     entry.Skills,
		UpdatedAt:  time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (r *JobVectorRepository) Remove(ctx context.Context, jobID uuid.UUID) error {
	// Deleting a missing row is not an error.
	return r.db.WithContext(ctx).Delete(&model.JobEmbedding{}, "job_id = ?", jobID).Error
}

type vectorSearchRow struct {
	JobID      uuid.UUID
	Title      string
	Department string
	Level      string
	Skills     string
	Document   string
	Similarity float64
}

func (r *JobVectorRepository) Search(ctx context.Context, embedding []float32, limit int, filter VectorFilter) ([]VectorHit, error) {
	if limit <= 0 {
		return []VectorHit{}, nil
	}

	vec := pgvector.NewVector(embedding)

	// <=> is cosine distance, so similarity = 1 - distance. Ordering by
	// distance lets pgvector use its index; job_id breaks ties.
	var rows []vectorSearchRow
	err := r.db.WithContext(ctx).Raw(`
        SELECT job_id, title, department, level, skills, document,
               1 - (embedding <=> ?) AS similarity
        FROM job_embeddings
        WHERE (? = '' OR status = ?)
          AND (? = '' OR department = ?)
          AND (? = '' OR level = ?)
        ORDER BY embedding <=> ? ASC, job_id ASC
        LIMIT ?
    `, vec,
		filter.Status, filter.Status,
		filter.Department, filter.Department,
		filter.Level, filter.Level,
		vec, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	hits := make([]VectorHit, 0, len(rows))
	for _, row := range rows {
		var skills []string
		if row.Skills != "" {
			_ = json.Unmarshal([]byte(row.Skills), &skills)
		}
		hits = append(hits, VectorHit{
			JobID:      row.JobID,
			Similarity: row.Similarity,
			Title:      row.Title,
			Department: row.Department,
			Level:      row.Level,
			Skills:     skills,
			Document:   row.Document,
		})
	}
	return hits, nil
}
