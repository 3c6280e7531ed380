package repository

import (
	"github.com/devhub/cv-optimizer/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

// SearchByEmbedding returns the topK listings nearest to the given vector,
// using the pgvector distance operator.
func (r *JobRepository) SearchByEmbedding(embedding pgvector.Vector, topK int) ([]model.JobListing, error) {
	var listings []model.JobListing

	err := r.db.Raw(`
        SELECT *, embedding <-> ? AS distance
        FROM job_listings
        ORDER BY embedding <-> ?
        LIMIT ?
    `, embedding, embedding, topK).Scan(&listings).Error

	return listings, err
}

func (r *JobRepository) Create(listing *model.JobListing) error {
	return r.db.Create(listing).Error
}

func (r *JobRepository) Update(listing *model.JobListing) error {
	return r.db.Save(listing).Error
}

func (r *JobRepository) FindByID(id string) (*model.JobListing, error) {
	var j model.JobListing
	err := r.db.First(&j, "id = ?", id).Error
	return &j, err
}

func (r *JobRepository) GetAll() ([]model.JobListing, error) {
	var listings []model.JobListing
	err := r.db.Find(&listings).Error
	return listings, err
}
