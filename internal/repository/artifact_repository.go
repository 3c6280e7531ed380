package repository

import (
	"github.com/devhub/cv-optimizer/internal/model"
	"gorm.io/gorm"
)

type ArtifactRepository struct {
	db *gorm.DB
}

func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{db}
}

func (r *ArtifactRepository) Create(artifact *model.Artifact) error {
	return r.db.Create(artifact).Error
}

func (r *ArtifactRepository) FindByCVID(cvID string) (*model.Artifact, error) {
	var a model.Artifact
	err := r.db.First(&a, "cv_id = ?", cvID).Error
	return &a, err
}
