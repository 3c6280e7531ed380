package handler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devhub/cv-optimizer/internal/config"
	"github.com/devhub/cv-optimizer/internal/dto"
	"github.com/devhub/cv-optimizer/internal/middleware"
	"github.com/devhub/cv-optimizer/internal/model"
	"github.com/devhub/cv-optimizer/internal/response"
	"github.com/devhub/cv-optimizer/internal/usecase"
	"github.com/devhub/cv-optimizer/internal/util"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MaxUploadBytes is the upload size cap. Checked before the file is stored
// or any processing starts.
const MaxUploadBytes = 10 * 1024 * 1024

// CVUsecaseInterface is what the handler needs from the pipeline usecase.
type CVUsecaseInterface interface {
	Submit(filename, originalText string) (string, error)
	GetStatus(id string) (*dto.CVStatusDTO, error)
	GetImprovements(id string) (*dto.CVImprovementsDTO, error)
	UpdateSection(cvID, sectionID string, content *string, status string) (*dto.SectionDTO, error)
	Generate(ctx context.Context, cvID string) (*dto.GenerateResultDTO, error)
	Download(cvID, format string) (path string, filename string, err error)
	List(page, pageSize int) ([]dto.CVListItemDTO, *response.Pagination, error)
	MatchingJobs(ctx context.Context, cvID string, topK int) ([]model.JobListing, error)
}

type CVHandler struct {
	uc CVUsecaseInterface
}

func NewCVHandler(uc CVUsecaseInterface) *CVHandler {
	return &CVHandler{uc: uc}
}

func (h *CVHandler) RegisterRoutes(app *fiber.App) {
	cv := app.Group("/cv", middleware.Auth())
	cv.Post("/upload", middleware.RateLimiter(5, 1*time.Minute), h.Upload)
	cv.Get("/", h.List)
	cv.Get("/:id/status", h.Status)
	cv.Get("/:id/improvements", h.Improvements)
	cv.Patch("/:id/sections/:sectionId", h.UpdateSection)
	cv.Post("/:id/generate", h.Generate)
	cv.Get("/:id/download", h.Download)
	cv.Get("/:id/jobs", h.MatchingJobs)
}

func (h *CVHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "file is required",
		}, err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" && ext != ".docx" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "only PDF and DOCX files are supported",
		}, nil)
	}
	if file.Size > MaxUploadBytes {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "file exceeds 10MB limit",
		}, nil)
	}

	uploadDir := config.LoadStorageConfig().UploadDir
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "cannot prepare upload directory",
		}, err)
	}
	savePath := filepath.Join(uploadDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(file.Filename)))
	if err := c.SaveFile(file, savePath); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "cannot save uploaded file",
		}, err)
	}

	content, err := util.ExtractText(savePath, ext)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnprocessableEntity,
			Message: "failed to extract resume text",
		}, err)
	}

	id, err := h.uc.Submit(file.Filename, content)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to submit cv",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "CV uploaded",
		Data:    fiber.Map{"cv_id": id, "status": model.CVStatusUploaded},
	})
}

func (h *CVHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	items, pagination, err := h.uc.List(page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list CVs",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:       fiber.StatusOK,
		Message:    "Success",
		Data:       items,
		Pagination: pagination,
	})
}

func (h *CVHandler) Status(c *fiber.Ctx) error {
	status, err := h.uc.GetStatus(c.Params("id"))
	if err != nil {
		return h.notFoundOr(c, err, "cv not found")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success",
		Data:    status,
	})
}

func (h *CVHandler) Improvements(c *fiber.Ctx) error {
	improvements, err := h.uc.GetImprovements(c.Params("id"))
	if err != nil {
		return h.notFoundOr(c, err, "cv not found")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success",
		Data:    improvements,
	})
}

type updateSectionRequest struct {
	Content *string `json:"content"`
	Status  string  `json:"status"`
}

func (h *CVHandler) UpdateSection(c *fiber.Ctx) error {
	var req updateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		}, err)
	}

	section, err := h.uc.UpdateSection(c.Params("id"), c.Params("sectionId"), req.Content, req.Status)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidStatus) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: err.Error(),
			}, nil)
		}
		return h.notFoundOr(c, err, "section not found")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Section updated",
		Data:    section,
	})
}

func (h *CVHandler) Generate(c *fiber.Ctx) error {
	result, err := h.uc.Generate(c.UserContext(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNotAllSectionsReady), errors.Is(err, usecase.ErrNoSections):
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusConflict,
				Message: err.Error(),
			}, nil)
		case errors.Is(err, usecase.ErrCVNotCompleted):
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusConflict,
				Message: err.Error(),
			}, nil)
		default:
			return h.notFoundOr(c, err, "cv not found")
		}
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Document generated",
		Data:    result,
	})
}

func (h *CVHandler) Download(c *fiber.Ctx) error {
	format := c.Query("format", "docx")
	path, filename, err := h.uc.Download(c.Params("id"), format)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidFormat):
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: err.Error(),
			}, nil)
		case errors.Is(err, usecase.ErrPDFNotAvailable):
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: err.Error(),
			}, nil)
		default:
			return h.notFoundOr(c, err, "artifact not found")
		}
	}
	return c.Download(path, filename)
}

func (h *CVHandler) MatchingJobs(c *fiber.Ctx) error {
	listings, err := h.uc.MatchingJobs(c.UserContext(), c.Params("id"), c.QueryInt("top", 5))
	if err != nil {
		if errors.Is(err, usecase.ErrCVNotCompleted) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusConflict,
				Message: err.Error(),
			}, nil)
		}
		return h.notFoundOr(c, err, "cv not found")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success",
		Data:    listings,
	})
}

func (h *CVHandler) notFoundOr(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: message,
		}, nil)
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Message: "internal error",
	}, err)
}
