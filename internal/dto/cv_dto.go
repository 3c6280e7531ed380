package dto

import (
	"time"

	"github.com/google/uuid"
)

type CVStatusDTO struct {
	CVID               uuid.UUID `json:"cv_id"`
	Status             string    `json:"status"` // uploaded, processing, completed, failed
	ProgressPercentage int       `json:"progress_percentage"`
	ErrorMessage       string    `json:"error_message,omitempty"`
}

type SectionDTO struct {
	ID       uuid.UUID `json:"id"`
	Type     string    `json:"type"`
	Index    int       `json:"index"`
	Original *string   `json:"original"`
	Improved string    `json:"improved"`
	UserEdit *string   `json:"user_edit"`
	Status   string    `json:"status"`
}

type CVImprovementsDTO struct {
	CVID               uuid.UUID    `json:"cv_id"`
	Status             string       `json:"status"`
	ProgressPercentage int          `json:"progress_percentage"`
	Sections           []SectionDTO `json:"sections"`
}

type GenerateResultDTO struct {
	CVID    uuid.UUID `json:"cv_id"`
	DocxURL string    `json:"docx_url"`
	PDFURL  *string   `json:"pdf_url,omitempty"`
}

type CVListItemDTO struct {
	ID                 uuid.UUID `json:"id"`
	Filename           string    `json:"filename"`
	Status             string    `json:"status"`
	ProgressPercentage int       `json:"progress_percentage"`
	CreatedAt          time.Time `json:"created_at"`
}
