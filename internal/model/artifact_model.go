package model

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is the generation result for one CV. DocxURL is always set once
// generation succeeds; PDFURL is nil when the PDF converter is unavailable,
// which is a partial success and must not block DOCX delivery.
type Artifact struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CVID      uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"cv_id"`
	DocxURL   string    `gorm:"type:text" json:"docx_url"`
	PDFURL    *string   `gorm:"type:text" json:"pdf_url"`
	DocxPath  string    `gorm:"type:text" json:"-"`
	PDFPath   *string   `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Artifact) TableName() string {
	return "artifacts"
}
