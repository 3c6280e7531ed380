package client

// CV statuses as reported by the status endpoint. Completed and failed are
// terminal: the server never transitions a CV out of them.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// TerminalStatus reports whether polling should stop for this status.
func TerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Section statuses.
const (
	SectionPending  = "pending"
	SectionApproved = "approved"
	SectionEdited   = "edited"
	SectionRejected = "rejected"
)

// Status is one observation from the status endpoint.
type Status struct {
	CVID               string `json:"cv_id"`
	Status             string `json:"status"`
	ProgressPercentage int    `json:"progress_percentage"`
	ErrorMessage       string `json:"error_message,omitempty"`
}

// Section is one reviewable unit of the improved resume.
type Section struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Index    int     `json:"index"`
	Original *string `json:"original"`
	Improved string  `json:"improved"`
	UserEdit *string `json:"user_edit"`
	Status   string  `json:"status"`
}

// Ready reports whether the section counts toward the generation gate.
func (s *Section) Ready() bool {
	return s.Status == SectionApproved || s.Status == SectionEdited
}

// EffectiveContent is the user's edit when present, the AI suggestion
// otherwise. An edit persists through approval.
func (s *Section) EffectiveContent() string {
	if s.UserEdit != nil {
		return *s.UserEdit
	}
	return s.Improved
}

// Improvements is the full review payload for a completed CV.
type Improvements struct {
	CVID               string    `json:"cv_id"`
	Status             string    `json:"status"`
	ProgressPercentage int       `json:"progress_percentage"`
	Sections           []Section `json:"sections"`
}

// GenerateResult is the artifact bundle. DocxURL is always present on
// success; a nil PDFURL signals partial success (PDF conversion
// unavailable) and must not block DOCX delivery.
type GenerateResult struct {
	CVID    string  `json:"cv_id"`
	DocxURL string  `json:"docx_url"`
	PDFURL  *string `json:"pdf_url,omitempty"`
}
