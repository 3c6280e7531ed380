package client

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// SectionAPI is the slice of the client API the review session uses.
type SectionAPI interface {
	UpdateSection(ctx context.Context, cvID, sectionID string, content *string, status string) (*Section, error)
	Generate(ctx context.Context, cvID string) (*GenerateResult, error)
}

// Progress is the aggregate the review UI renders.
type Progress struct {
	ApprovedCount      int
	TotalCount         int
	ProgressPercentage int
	AllReady           bool
}

// ReviewSession owns the section set for one CV during review. The server
// stays the single source of truth: Approve and Edit call it first and
// mutate local state only from its confirmed response, so a failed call
// leaves the snapshot exactly as it was. All mutations are serialized, so
// rapid approve-then-edit on one section applies in issue order.
type ReviewSession struct {
	mu       sync.Mutex
	api      SectionAPI
	cvID     string
	sections []Section
	byID     map[string]int
}

// NewReviewSession builds a session over the sections fetched from the
// improvements endpoint.
func NewReviewSession(api SectionAPI, cvID string, sections []Section) *ReviewSession {
	s := &ReviewSession{
		api:      api,
		cvID:     cvID,
		sections: make([]Section, len(sections)),
		byID:     make(map[string]int, len(sections)),
	}
	copy(s.sections, sections)
	for i := range s.sections {
		s.byID[s.sections[i].ID] = i
	}
	return s
}

// Sections returns an immutable snapshot of the current section state.
func (s *ReviewSession) Sections() []Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Section, len(s.sections))
	copy(out, s.sections)
	return out
}

// Section returns a copy of one section by id.
func (s *ReviewSession) Section(id string) (Section, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return Section{}, false
	}
	return s.sections[i], true
}

// Approve marks a section approved. Any existing user edit is left in place
// and remains the effective content. Idempotent: re-approving an approved
// section yields the same observable state.
func (s *ReviewSession) Approve(ctx context.Context, sectionID string) error {
	return s.update(ctx, sectionID, nil, SectionApproved)
}

// Edit replaces the section's content with the user's text and marks it
// edited. The new content wins over the AI suggestion until overwritten by
// a later edit.
func (s *ReviewSession) Edit(ctx context.Context, sectionID, content string) error {
	return s.update(ctx, sectionID, &content, SectionEdited)
}

// Reject marks a section rejected, removing it from the ready count.
func (s *ReviewSession) Reject(ctx context.Context, sectionID string) error {
	return s.update(ctx, sectionID, nil, SectionRejected)
}

func (s *ReviewSession) update(ctx context.Context, sectionID string, content *string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[sectionID]
	if !ok {
		return fmt.Errorf("section %s: %w", sectionID, ErrNotFound)
	}

	// confirm-then-mutate: the snapshot only changes on a confirmed response
	updated, err := s.api.UpdateSection(ctx, s.cvID, sectionID, content, status)
	if err != nil {
		return err
	}

	s.sections[i] = *updated
	return nil
}

// Progress computes the approval aggregate. With zero sections the
// percentage is defined as 0 and AllReady is false.
func (s *ReviewSession) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.sections)
	approved := 0
	for i := range s.sections {
		if s.sections[i].Ready() {
			approved++
		}
	}

	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(approved) / float64(total) * 100))
	}

	return Progress{
		ApprovedCount:      approved,
		TotalCount:         total,
		ProgressPercentage: pct,
		AllReady:           total > 0 && approved == total,
	}
}

// AllReady reports whether generation is permitted.
func (s *ReviewSession) AllReady() bool {
	return s.Progress().AllReady
}

// Generate requests the artifact bundle. The gate is enforced locally: when
// any section is still pending or rejected the call fails fast with a
// validation error and no request is sent. On success DocxURL is always
// set; PDFURL may be nil (DOCX-only delivery).
func (s *ReviewSession) Generate(ctx context.Context) (*GenerateResult, error) {
	progress := s.Progress()
	if !progress.AllReady {
		return nil, &ValidationError{Message: fmt.Sprintf(
			"cannot generate: %d of %d sections reviewed", progress.ApprovedCount, progress.TotalCount)}
	}
	return s.api.Generate(ctx, s.cvID)
}
