package model

import (
	"time"

	"github.com/google/uuid"
)

// CV statuses. completed and failed are terminal: once reached, the server
// never transitions the record again.
const (
	CVStatusUploaded   = "uploaded"
	CVStatusProcessing = "processing"
	CVStatusCompleted  = "completed"
	CVStatusFailed     = "failed"
)

// CVStatusTerminal reports whether no further server-side transition occurs.
func CVStatusTerminal(status string) bool {
	return status == CVStatusCompleted || status == CVStatusFailed
}

type CV struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Filename           string    `gorm:"type:varchar(255)" json:"filename"`
	Status             string    `gorm:"type:varchar(50)" json:"status"` // uploaded, processing, completed, failed
	ProgressPercentage int       `gorm:"type:int" json:"progress_percentage"`
	OriginalText       string    `gorm:"type:text" json:"original_text"`
	ErrorMessage       string    `gorm:"type:text" json:"error_message"`
	Sections           []Section `gorm:"foreignKey:CVID" json:"sections,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (c *CV) TableName() string {
	return "cvs"
}
