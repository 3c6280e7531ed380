package repository

import (
	"github.com/devhub/cv-optimizer/internal/model"
	"gorm.io/gorm"
)

type SectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db}
}

// CreateBatch inserts a CV's full section set in one transaction. Sections
// are only ever created together, once processing completes.
func (r *SectionRepository) CreateBatch(sections []model.Section) error {
	if len(sections) == 0 {
		return nil
	}
	return r.db.Create(&sections).Error
}

func (r *SectionRepository) Update(section *model.Section) error {
	return r.db.Save(section).Error
}

func (r *SectionRepository) FindByID(id string) (*model.Section, error) {
	var s model.Section
	err := r.db.First(&s, "id = ?", id).Error
	return &s, err
}

func (r *SectionRepository) FindByCVID(cvID string) ([]model.Section, error) {
	var sections []model.Section
	err := r.db.Where("cv_id = ?", cvID).Order("type, index").Find(&sections).Error
	return sections, err
}
