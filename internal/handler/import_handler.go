package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/middleware"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
	"github.com/markbookdev/markbook-classic-sub000/pkg/response"
)

type legacyImporter interface {
	ImportFolder(ctx context.Context, req dto.ImportRequest) (*models.ImportResult, error)
}

type legacyImportJobs interface {
	Enqueue(ctx context.Context, req dto.ImportRequest, createdBy string) (*models.ImportJob, error)
	Status(ctx context.Context, id string) (*models.ImportJob, error)
}

// ImportHandler exposes legacy class folder imports.
type ImportHandler struct {
	importer  legacyImporter
	jobs      legacyImportJobs
	apiPrefix string
}

// NewImportHandler constructs an import handler. jobs may be nil when background imports are disabled.
func NewImportHandler(importer legacyImporter, jobs legacyImportJobs, apiPrefix string) *ImportHandler {
	return &ImportHandler{importer: importer, jobs: jobs, apiPrefix: strings.TrimRight(apiPrefix, "/")}
}

// Import godoc
// @Summary Import a legacy class folder
// @Description Decodes every file in the folder and replaces the stored class in one transaction.
// @Tags LegacyImports
// @Accept json
// @Produce json
// @Param payload body dto.ImportRequest true "Folder relative to the import root"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /legacy/imports [post]
func (h *ImportHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	result, err := h.importer.ImportFolder(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Enqueue godoc
// @Summary Queue a legacy class folder import
// @Tags LegacyImports
// @Accept json
// @Produce json
// @Param payload body dto.ImportRequest true "Folder relative to the import root"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /legacy/imports/jobs [post]
func (h *ImportHandler) Enqueue(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	var createdBy string
	if claims := middleware.CurrentUser(c); claims != nil {
		createdBy = claims.UserID
	}
	job, err := h.jobs.Enqueue(c.Request.Context(), req, createdBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.ImportJobResponse{
		ID:        job.ID,
		Status:    job.Status,
		StatusURL: h.apiPrefix + "/legacy/imports/jobs/" + job.ID,
	})
}

// Status godoc
// @Summary Legacy import job status
// @Tags LegacyImports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /legacy/imports/jobs/{id} [get]
func (h *ImportHandler) Status(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	job, err := h.jobs.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewImportJobStatusResponse(job), nil)
}
