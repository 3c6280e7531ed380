package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devhub/cv-optimizer/internal/dto"
	"github.com/devhub/cv-optimizer/internal/model"
	"github.com/devhub/cv-optimizer/internal/response"
	"github.com/devhub/cv-optimizer/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	// the storage config is a process-wide singleton; point it at a scratch
	// dir before any handler loads it
	dir, err := os.MkdirTemp("", "cv-handler-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("STORAGE_UPLOAD_DIR", filepath.Join(dir, "uploads"))
	os.Setenv("STORAGE_ARTIFACT_DIR", filepath.Join(dir, "artifacts"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// stubUsecase lets each test wire only the methods its route touches.
type stubUsecase struct {
	submitCalls   int
	submittedText string
	submitErr     error

	statusFn   func(id string) (*dto.CVStatusDTO, error)
	generateFn func(cvID string) (*dto.GenerateResultDTO, error)
	downloadFn func(cvID, format string) (string, string, error)
	updateFn   func(cvID, sectionID string, content *string, status string) (*dto.SectionDTO, error)
}

func (s *stubUsecase) Submit(filename, originalText string) (string, error) {
	s.submitCalls++
	s.submittedText = originalText
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return uuid.NewString(), nil
}

func (s *stubUsecase) GetStatus(id string) (*dto.CVStatusDTO, error) {
	if s.statusFn != nil {
		return s.statusFn(id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsecase) GetImprovements(id string) (*dto.CVImprovementsDTO, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsecase) UpdateSection(cvID, sectionID string, content *string, status string) (*dto.SectionDTO, error) {
	if s.updateFn != nil {
		return s.updateFn(cvID, sectionID, content, status)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsecase) Generate(_ context.Context, cvID string) (*dto.GenerateResultDTO, error) {
	if s.generateFn != nil {
		return s.generateFn(cvID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsecase) Download(cvID, format string) (string, string, error) {
	if s.downloadFn != nil {
		return s.downloadFn(cvID, format)
	}
	return "", "", gorm.ErrRecordNotFound
}

func (s *stubUsecase) List(page, pageSize int) ([]dto.CVListItemDTO, *response.Pagination, error) {
	return nil, &response.Pagination{Page: page, PageSize: pageSize}, nil
}

func (s *stubUsecase) MatchingJobs(_ context.Context, cvID string, topK int) ([]model.JobListing, error) {
	return nil, nil
}

func newTestApp(uc CVUsecaseInterface) *fiber.App {
	app := fiber.New(fiber.Config{BodyLimit: MaxUploadBytes + 1024*1024})
	NewCVHandler(uc).RegisterRoutes(app)
	return app
}

func envelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

// multipartUpload builds a multipart body carrying one file field.
func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// docxBytes builds a real minimal DOCX so text extraction succeeds.
func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUpload_RejectsUnsupportedExtension(t *testing.T) {
	uc := &stubUsecase{}
	app := newTestApp(uc)

	body, contentType := multipartUpload(t, "resume.txt", []byte("plain text resume"))
	req := httptest.NewRequest(http.MethodPost, "/cv/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, envelope(t, resp)["message"], "only PDF and DOCX")
	assert.Equal(t, 0, uc.submitCalls)
}

func TestUpload_RejectsOversizeFile(t *testing.T) {
	uc := &stubUsecase{}
	app := newTestApp(uc)

	// one byte over the cap, still under the server body limit so the
	// handler's own check is what rejects it
	body, contentType := multipartUpload(t, "resume.pdf", make([]byte, MaxUploadBytes+1))
	req := httptest.NewRequest(http.MethodPost, "/cv/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, envelope(t, resp)["message"], "exceeds 10MB limit")
	assert.Equal(t, 0, uc.submitCalls, "oversize upload must never reach processing")
}

func TestUpload_RejectsUnextractableFile(t *testing.T) {
	uc := &stubUsecase{}
	app := newTestApp(uc)

	body, contentType := multipartUpload(t, "resume.docx", []byte("not a real docx"))
	req := httptest.NewRequest(http.MethodPost, "/cv/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 0, uc.submitCalls)
}

func TestUpload_HappyPath(t *testing.T) {
	uc := &stubUsecase{}
	app := newTestApp(uc)

	content := docxBytes(t,
		"Jane Doe, Backend Engineer",
		"Built and operated Go services handling millions of requests per day.",
	)
	body, contentType := multipartUpload(t, "resume.docx", content)
	req := httptest.NewRequest(http.MethodPost, "/cv/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	data := envelope(t, resp)["data"].(map[string]any)
	assert.NotEmpty(t, data["cv_id"])
	assert.Equal(t, model.CVStatusUploaded, data["status"])

	assert.Equal(t, 1, uc.submitCalls)
	assert.Contains(t, uc.submittedText, "Jane Doe", "extracted text is what gets processed")
}

func TestStatus_NotFound(t *testing.T) {
	app := newTestApp(&stubUsecase{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cv/"+uuid.NewString()+"/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "cv not found", envelope(t, resp)["message"])
}

func TestStatus_ReturnsProgress(t *testing.T) {
	id := uuid.New()
	uc := &stubUsecase{statusFn: func(string) (*dto.CVStatusDTO, error) {
		return &dto.CVStatusDTO{CVID: id, Status: model.CVStatusProcessing, ProgressPercentage: 40}, nil
	}}
	app := newTestApp(uc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cv/"+id.String()+"/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := envelope(t, resp)["data"].(map[string]any)
	assert.Equal(t, "processing", data["status"])
	assert.EqualValues(t, 40, data["progress_percentage"])
}

func TestGenerate_GateConflict(t *testing.T) {
	uc := &stubUsecase{generateFn: func(string) (*dto.GenerateResultDTO, error) {
		return nil, usecase.ErrNotAllSectionsReady
	}}
	app := newTestApp(uc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/cv/"+uuid.NewString()+"/generate", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, envelope(t, resp)["message"], "not all sections")
}

func TestGenerate_NotCompletedConflict(t *testing.T) {
	uc := &stubUsecase{generateFn: func(string) (*dto.GenerateResultDTO, error) {
		return nil, usecase.ErrCVNotCompleted
	}}
	app := newTestApp(uc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/cv/"+uuid.NewString()+"/generate", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDownload_InvalidFormat(t *testing.T) {
	uc := &stubUsecase{downloadFn: func(_, format string) (string, string, error) {
		return "", "", usecase.ErrInvalidFormat
	}}
	app := newTestApp(uc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cv/"+uuid.NewString()+"/download?format=exe", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownload_PDFNotAvailable(t *testing.T) {
	uc := &stubUsecase{downloadFn: func(_, format string) (string, string, error) {
		return "", "", usecase.ErrPDFNotAvailable
	}}
	app := newTestApp(uc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cv/"+uuid.NewString()+"/download?format=pdf", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownload_ServesArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.docx")
	require.NoError(t, os.WriteFile(path, []byte("docx bytes"), 0644))

	uc := &stubUsecase{downloadFn: func(cvID, format string) (string, string, error) {
		return path, "cv-" + cvID + ".docx", nil
	}}
	app := newTestApp(uc)

	id := uuid.NewString()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cv/"+id+"/download?format=docx", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cv-"+id+".docx")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "docx bytes", string(body))
}

func TestUpdateSection_InvalidStatus(t *testing.T) {
	uc := &stubUsecase{updateFn: func(_, _ string, _ *string, _ string) (*dto.SectionDTO, error) {
		return nil, usecase.ErrInvalidStatus
	}}
	app := newTestApp(uc)

	req := httptest.NewRequest(http.MethodPatch,
		"/cv/"+uuid.NewString()+"/sections/"+uuid.NewString(),
		strings.NewReader(`{"status":"maybe"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateSection_AppliesEdit(t *testing.T) {
	var gotContent *string
	var gotStatus string
	uc := &stubUsecase{updateFn: func(_, sectionID string, content *string, status string) (*dto.SectionDTO, error) {
		gotContent, gotStatus = content, status
		return &dto.SectionDTO{Status: status, UserEdit: content}, nil
	}}
	app := newTestApp(uc)

	req := httptest.NewRequest(http.MethodPatch,
		"/cv/"+uuid.NewString()+"/sections/"+uuid.NewString(),
		strings.NewReader(`{"content":"my own wording","status":"edited"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, gotContent)
	assert.Equal(t, "my own wording", *gotContent)
	assert.Equal(t, model.SectionStatusEdited, gotStatus)
}
