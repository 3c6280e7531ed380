package model

import (
	"time"

	"github.com/google/uuid"
)

// Section statuses. A section is ready for generation iff its status is
// approved or edited.
const (
	SectionStatusPending  = "pending"
	SectionStatusApproved = "approved"
	SectionStatusEdited   = "edited"
	SectionStatusRejected = "rejected"
)

// Section types, in the order the improvement prompt asks for them.
const (
	SectionTypeSummary        = "summary"
	SectionTypeSkills         = "skills"
	SectionTypeExperience     = "experience"
	SectionTypeEducation      = "education"
	SectionTypeCertifications = "certifications"
	SectionTypeLanguages      = "languages"
	SectionTypeInterests      = "interests"
)

// SectionTypes lists every valid section type.
var SectionTypes = []string{
	SectionTypeSummary,
	SectionTypeSkills,
	SectionTypeExperience,
	SectionTypeEducation,
	SectionTypeCertifications,
	SectionTypeLanguages,
	SectionTypeInterests,
}

// ValidSectionType reports whether t is one of the known section types.
func ValidSectionType(t string) bool {
	for _, s := range SectionTypes {
		if s == t {
			return true
		}
	}
	return false
}

// ValidSectionStatus reports whether s is a known section status.
func ValidSectionStatus(s string) bool {
	switch s {
	case SectionStatusPending, SectionStatusApproved, SectionStatusEdited, SectionStatusRejected:
		return true
	}
	return false
}

// SectionReady reports whether a section counts toward the generation gate.
func SectionReady(status string) bool {
	return status == SectionStatusApproved || status == SectionStatusEdited
}

type Section struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CVID      uuid.UUID `gorm:"type:uuid;index" json:"cv_id"`
	Type      string    `gorm:"type:varchar(50)" json:"type"`
	Index     int       `gorm:"type:int" json:"index"` // ordinal among sections of the same type
	Original  *string   `gorm:"type:text" json:"original"`
	Improved  string    `gorm:"type:text" json:"improved"`
	UserEdit  *string   `gorm:"type:text" json:"user_edit"`
	Status    string    `gorm:"type:varchar(50)" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Section) TableName() string {
	return "sections"
}

// EffectiveContent is what generation and display use: the user's edit when
// present, the AI suggestion otherwise. An edit persists through approval.
func (s *Section) EffectiveContent() string {
	if s.UserEdit != nil {
		return *s.UserEdit
	}
	return s.Improved
}
