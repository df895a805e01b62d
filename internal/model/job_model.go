package model

import (
	"time"

	"github.com/google/uuid"
)

// Job is a catalog record. The matching engine only reads it; create/update
// of catalog rows belongs to the catalog service.
type Job struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID        string    `json:"project_id"`
	Title            string    `json:"title"`
	JobCode          string    `json:"job_code"`
	Status           string    `gorm:"type:varchar(50);index" json:"status"` // e.g. "draft", "published", "closed"
	Department       string    `json:"department"`
	Level            string    `json:"level"`
	Description      string    `gorm:"type:text" json:"description"`
	RequiredSkills   []string  `gorm:"type:jsonb;serializer:json" json:"required_skills"`
	Responsibilities []string  `gorm:"type:jsonb;serializer:json" json:"responsibilities"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (j *Job) TableName() string {
	return "jobs"
}
