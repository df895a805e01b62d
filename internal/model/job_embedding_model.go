package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// JobEmbedding is one vector-index entry per job. Re-indexing overwrites the
// row, removing a job deletes it. The metadata columns are a snapshot taken
// at indexing time, not a live view of the catalog record.
type JobEmbedding struct {
	JobID      uuid.UUID       `gorm:"type:uuid;primaryKey" json:"job_id"`
	Embedding  pgvector.Vector `gorm:"type:vector(3072)" json:"embedding"`
	Document   string          `gorm:"type:text" json:"document"`
	Title      string          `json:"title"`
	Department string          `json:"department"`
	Level      string          `json:"level"`
	Status     string          `gorm:"type:varchar(50);index" json:"status"`
	Skills     []string        `gorm:"type:jsonb;serializer:json" json:"skills"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (e *JobEmbedding) TableName() string {
	return "job_embeddings"
}
