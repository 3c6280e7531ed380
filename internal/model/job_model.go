package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// JobListing is one posting on the DevHub job board, carrying an embedding
// so completed CVs can be matched against it.
type JobListing struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title     string          `json:"title"`
	Company   string          `gorm:"type:varchar(255)" json:"company"`
	Location  string          `gorm:"type:varchar(255)" json:"location"`
	Content   string          `gorm:"type:text" json:"content"`
	Embedding pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (j *JobListing) TableName() string {
	return "job_listings"
}
