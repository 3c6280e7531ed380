package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/devhub/cv-optimizer/internal/dto"
	"github.com/devhub/cv-optimizer/internal/logger"
	"github.com/devhub/cv-optimizer/internal/model"
	"github.com/devhub/cv-optimizer/internal/response"
	"github.com/devhub/cv-optimizer/internal/service"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/tidwall/gjson"
)

// Sentinel errors the handler maps onto HTTP statuses.
var (
	ErrNotAllSectionsReady = errors.New("not all sections are approved or edited")
	ErrNoSections          = errors.New("cv has no sections to generate from")
	ErrInvalidFormat       = errors.New("format must be docx or pdf")
	ErrInvalidStatus       = errors.New("invalid section status")
	ErrCVNotCompleted      = errors.New("cv processing has not completed")
	ErrPDFNotAvailable     = errors.New("pdf artifact is not available for this cv")
)

const improveModel = "gemini-2.5-flash"

// Store interfaces mirror the repository structs so tests can fake them.

type CVStore interface {
	Create(cv *model.CV) error
	UpdateStatus(id string, status string, progress int) error
	MarkFailed(id string, message string) error
	FindByID(id string) (*model.CV, error)
	FindByIDWithSections(id string) (*model.CV, error)
	List(page, pageSize int) ([]model.CV, int64, error)
}

type SectionStore interface {
	CreateBatch(sections []model.Section) error
	Update(section *model.Section) error
	FindByID(id string) (*model.Section, error)
	FindByCVID(cvID string) ([]model.Section, error)
}

type ArtifactStore interface {
	Create(artifact *model.Artifact) error
	FindByCVID(cvID string) (*model.Artifact, error)
}

type JobStore interface {
	SearchByEmbedding(embedding pgvector.Vector, topK int) ([]model.JobListing, error)
	Create(listing *model.JobListing) error
	Update(listing *model.JobListing) error
	GetAll() ([]model.JobListing, error)
}

type CVUsecase struct {
	cvRepo       CVStore
	sectionRepo  SectionStore
	artifactRepo ArtifactStore
	jobRepo      JobStore
	gemini       service.GeminiServiceInterface
	documents    service.DocumentServiceInterface
}

func NewCVUsecase(cvRepo CVStore, sectionRepo SectionStore, artifactRepo ArtifactStore, jobRepo JobStore, gemini service.GeminiServiceInterface, documents service.DocumentServiceInterface) *CVUsecase {
	return &CVUsecase{
		cvRepo:       cvRepo,
		sectionRepo:  sectionRepo,
		artifactRepo: artifactRepo,
		jobRepo:      jobRepo,
		gemini:       gemini,
		documents:    documents,
	}
}

// Submit registers an uploaded resume and starts processing in the
// background. The returned id is the handle for all later calls.
func (uc *CVUsecase) Submit(filename, originalText string) (string, error) {
	cv := &model.CV{
		Filename:           filename,
		Status:             model.CVStatusUploaded,
		ProgressPercentage: 0,
		OriginalText:       originalText,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	if err := uc.cvRepo.Create(cv); err != nil {
		return "", err
	}

	go uc.Process(cv)

	return cv.ID.String(), nil
}

// Process runs the server side of the pipeline: improve the resume text via
// the AI service, split the result into sections, and mark the CV completed.
// Any failure marks the CV failed with a message; the record never leaves a
// terminal state afterwards.
func (uc *CVUsecase) Process(cv *model.CV) error {
	ctx := context.Background()
	id := cv.ID.String()

	fail := func(stage string, err error) error {
		logger.L().Error().Err(err).Str("cv_id", id).Str("stage", stage).Msg("cv processing failed")
		_ = uc.cvRepo.MarkFailed(id, fmt.Sprintf("%s: %v", stage, err))
		return err
	}

	if err := uc.cvRepo.UpdateStatus(id, model.CVStatusProcessing, 10); err != nil {
		return fail("start", err)
	}

	prompt := buildImprovePrompt(cv.OriginalText)

	if err := uc.cvRepo.UpdateStatus(id, model.CVStatusProcessing, 40); err != nil {
		return fail("progress", err)
	}

	result, err := uc.gemini.GenerateContent(ctx, improveModel, prompt)
	if err != nil {
		return fail("improve", err)
	}

	sections, err := parseSections(cv.ID, result.Text())
	if err != nil {
		return fail("parse", err)
	}

	if err := uc.cvRepo.UpdateStatus(id, model.CVStatusProcessing, 70); err != nil {
		return fail("progress", err)
	}

	if err := uc.sectionRepo.CreateBatch(sections); err != nil {
		return fail("persist", err)
	}

	if err := uc.cvRepo.UpdateStatus(id, model.CVStatusCompleted, 100); err != nil {
		return fail("finish", err)
	}

	logger.L().Info().Str("cv_id", id).Int("sections", len(sections)).Msg("cv processing completed")
	return nil
}

func (uc *CVUsecase) GetStatus(id string) (*dto.CVStatusDTO, error) {
	cv, err := uc.cvRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return &dto.CVStatusDTO{
		CVID:               cv.ID,
		Status:             cv.Status,
		ProgressPercentage: cv.ProgressPercentage,
		ErrorMessage:       cv.ErrorMessage,
	}, nil
}

func (uc *CVUsecase) GetImprovements(id string) (*dto.CVImprovementsDTO, error) {
	cv, err := uc.cvRepo.FindByIDWithSections(id)
	if err != nil {
		return nil, err
	}
	out := &dto.CVImprovementsDTO{
		CVID:               cv.ID,
		Status:             cv.Status,
		ProgressPercentage: cv.ProgressPercentage,
		Sections:           make([]dto.SectionDTO, 0, len(cv.Sections)),
	}
	for _, s := range cv.Sections {
		out.Sections = append(out.Sections, sectionDTO(&s))
	}
	return out, nil
}

// UpdateSection applies an approve, edit, or reject action. Approving never
// touches UserEdit, so a prior edit stays the effective content. The call is
// idempotent: repeating it yields the same stored state.
func (uc *CVUsecase) UpdateSection(cvID, sectionID string, content *string, status string) (*dto.SectionDTO, error) {
	if !model.ValidSectionStatus(status) {
		return nil, ErrInvalidStatus
	}

	section, err := uc.sectionRepo.FindByID(sectionID)
	if err != nil {
		return nil, err
	}
	if section.CVID.String() != cvID {
		return nil, fmt.Errorf("section %s does not belong to cv %s", sectionID, cvID)
	}

	if content != nil {
		section.UserEdit = content
	}
	section.Status = status
	section.UpdatedAt = time.Now()

	if err := uc.sectionRepo.Update(section); err != nil {
		return nil, err
	}

	d := sectionDTO(section)
	return &d, nil
}

// Generate is gated: every section must be approved or edited. The call is
// idempotent per CV; a stored artifact is returned as-is.
func (uc *CVUsecase) Generate(ctx context.Context, cvID string) (*dto.GenerateResultDTO, error) {
	cv, err := uc.cvRepo.FindByID(cvID)
	if err != nil {
		return nil, err
	}
	if cv.Status != model.CVStatusCompleted {
		return nil, ErrCVNotCompleted
	}

	if existing, err := uc.artifactRepo.FindByCVID(cvID); err == nil {
		return &dto.GenerateResultDTO{CVID: cv.ID, DocxURL: existing.DocxURL, PDFURL: existing.PDFURL}, nil
	}

	sections, err := uc.sectionRepo.FindByCVID(cvID)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, ErrNoSections
	}
	for _, s := range sections {
		if !model.SectionReady(s.Status) {
			return nil, ErrNotAllSectionsReady
		}
	}

	doc, err := uc.documents.Generate(ctx, cvID, cv.Filename, sections)
	if err != nil {
		return nil, err
	}

	artifact := &model.Artifact{
		CVID:     cv.ID,
		DocxURL:  doc.DocxURL,
		PDFURL:   doc.PDFURL,
		DocxPath: doc.DocxPath,
		PDFPath:  doc.PDFPath,
	}
	if err := uc.artifactRepo.Create(artifact); err != nil {
		return nil, err
	}

	return &dto.GenerateResultDTO{CVID: cv.ID, DocxURL: artifact.DocxURL, PDFURL: artifact.PDFURL}, nil
}

// Download resolves the stored artifact path for the requested format.
// Format is restricted to exactly docx and pdf; anything else is a
// validation error, checked before any lookup.
func (uc *CVUsecase) Download(cvID, format string) (path string, filename string, err error) {
	if format != "docx" && format != "pdf" {
		return "", "", ErrInvalidFormat
	}

	artifact, err := uc.artifactRepo.FindByCVID(cvID)
	if err != nil {
		return "", "", err
	}

	switch format {
	case "docx":
		return artifact.DocxPath, fmt.Sprintf("cv-%s.docx", cvID), nil
	default:
		if artifact.PDFPath == nil {
			return "", "", ErrPDFNotAvailable
		}
		return *artifact.PDFPath, fmt.Sprintf("cv-%s.pdf", cvID), nil
	}
}

// List returns one page of processing history.
func (uc *CVUsecase) List(page, pageSize int) ([]dto.CVListItemDTO, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	cvs, total, err := uc.cvRepo.List(page, pageSize)
	if err != nil {
		return nil, nil, err
	}

	items := make([]dto.CVListItemDTO, 0, len(cvs))
	for _, cv := range cvs {
		items = append(items, dto.CVListItemDTO{
			ID:                 cv.ID,
			Filename:           cv.Filename,
			Status:             cv.Status,
			ProgressPercentage: cv.ProgressPercentage,
			CreatedAt:          cv.CreatedAt,
		})
	}

	totalPages := int64(math.Ceil(float64(total) / float64(pageSize)))
	pagination := &response.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: total,
		HasMore:    int64(page) < totalPages,
		From:       (page-1)*pageSize + 1,
		To:         (page-1)*pageSize + len(items),
	}
	return items, pagination, nil
}

// MatchingJobs embeds the CV's effective content and returns the nearest
// job listings. Only meaningful once processing has completed.
func (uc *CVUsecase) MatchingJobs(ctx context.Context, cvID string, topK int) ([]model.JobListing, error) {
	cv, err := uc.cvRepo.FindByIDWithSections(cvID)
	if err != nil {
		return nil, err
	}
	if cv.Status != model.CVStatusCompleted {
		return nil, ErrCVNotCompleted
	}
	if topK < 1 || topK > 20 {
		topK = 5
	}

	var content strings.Builder
	for _, s := range cv.Sections {
		content.WriteString(s.EffectiveContent())
		content.WriteString("\n")
	}

	emb, err := uc.gemini.GenerateEmbedding(ctx, content.String())
	if err != nil {
		return nil, err
	}

	return uc.jobRepo.SearchByEmbedding(pgvector.NewVector(emb), topK)
}

// SeedJobListings embeds and stores board listings so MatchingJobs has a
// corpus to search. Intended for bootstrap/admin use.
func (uc *CVUsecase) SeedJobListings(ctx context.Context, listings []model.JobListing) error {
	for i := range listings {
		emb, err := uc.gemini.GenerateEmbedding(ctx, listings[i].Content)
		if err != nil {
			return fmt.Errorf("embedding for %q failed: %w", listings[i].Title, err)
		}
		listings[i].Embedding = pgvector.NewVector(emb)
		listings[i].CreatedAt = time.Now()
		listings[i].UpdatedAt = time.Now()
		if err := uc.jobRepo.Create(&listings[i]); err != nil {
			return err
		}
	}
	return nil
}

func sectionDTO(s *model.Section) dto.SectionDTO {
	return dto.SectionDTO{
		ID:       s.ID,
		Type:     s.Type,
		Index:    s.Index,
		Original: s.Original,
		Improved: s.Improved,
		UserEdit: s.UserEdit,
		Status:   s.Status,
	}
}

func buildImprovePrompt(cvText string) string {
	return fmt.Sprintf(`
You are an experienced resume writer. Rewrite the following resume so each
part is clear, quantified, and tailored for software engineering roles.

Return your answer STRICTLY in JSON format with this schema:
{
  "sections": [
    {
      "type": "<one of: summary, skills, experience, education, certifications, languages, interests>",
      "index": <zero-based ordinal among sections of the same type>,
      "original": "<the source text for this section, or null if the resume had none>",
      "improved": "<your rewritten text for this section>"
    }
  ]
}

Emit one entry per experience position and per education entry. Always
include a summary and a skills section even if the source resume lacks them.

Resume:
%s
`, cvText)
}

// parseSections turns the model's strict-JSON reply into section rows.
// Unknown types and empty improved texts are rejected rather than stored.
func parseSections(cvID uuid.UUID, text string) ([]model.Section, error) {
	// models occasionally wrap JSON in a markdown fence
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	parsed := gjson.Get(text, "sections")
	if !parsed.Exists() || !parsed.IsArray() {
		return nil, fmt.Errorf("model reply has no sections array")
	}

	now := time.Now()
	var sections []model.Section
	indexByType := map[string]int{}
	for _, item := range parsed.Array() {
		sectionType := item.Get("type").String()
		if !model.ValidSectionType(sectionType) {
			return nil, fmt.Errorf("unknown section type %q", sectionType)
		}
		improved := item.Get("improved").String()
		if strings.TrimSpace(improved) == "" {
			return nil, fmt.Errorf("empty improved text for section type %q", sectionType)
		}

		var original *string
		if orig := item.Get("original"); orig.Exists() && orig.Type == gjson.String {
			v := orig.String()
			original = &v
		}

		// index assigned locally so repeated types stay dense even if the
		// model's own numbering has gaps
		idx := indexByType[sectionType]
		indexByType[sectionType] = idx + 1

		sections = append(sections, model.Section{
			CVID:      cvID,
			Type:      sectionType,
			Index:     idx,
			Original:  original,
			Improved:  improved,
			Status:    model.SectionStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("model reply contained no sections")
	}
	return sections, nil
}
