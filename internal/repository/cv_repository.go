package repository

import (
	"github.com/devhub/cv-optimizer/internal/model"
	"gorm.io/gorm"
)

type CVRepository struct {
	db *gorm.DB
}

func NewCVRepository(db *gorm.DB) *CVRepository {
	return &CVRepository{db}
}

func (r *CVRepository) Create(cv *model.CV) error {
	return r.db.Create(cv).Error
}

func (r *CVRepository) Update(cv *model.CV) error {
	return r.db.Save(cv).Error
}

// UpdateStatus writes status and progress in one statement so a concurrent
// reader never observes a torn pair.
func (r *CVRepository) UpdateStatus(id string, status string, progress int) error {
	return r.db.Model(&model.CV{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "progress_percentage": progress}).Error
}

func (r *CVRepository) MarkFailed(id string, message string) error {
	return r.db.Model(&model.CV{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.CVStatusFailed, "error_message": message}).Error
}

func (r *CVRepository) FindByID(id string) (*model.CV, error) {
	var cv model.CV
	err := r.db.First(&cv, "id = ?", id).Error
	return &cv, err
}

func (r *CVRepository) FindByIDWithSections(id string) (*model.CV, error) {
	var cv model.CV
	err := r.db.Preload("Sections", func(db *gorm.DB) *gorm.DB {
		return db.Order("type, index")
	}).First(&cv, "id = ?", id).Error
	return &cv, err
}

// List returns one page of CVs, newest first, plus the total count.
func (r *CVRepository) List(page, pageSize int) ([]model.CV, int64, error) {
	var cvs []model.CV
	var total int64
	if err := r.db.Model(&model.CV{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&cvs).Error
	return cvs, total, err
}
