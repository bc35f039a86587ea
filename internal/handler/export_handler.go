package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	"github.com/markbookdev/markbook-classic-sub000/internal/service"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
	"github.com/markbookdev/markbook-classic-sub000/pkg/response"
)

type markSetExporter interface {
	ExportMarkSet(ctx context.Context, classID, markSetID string, req dto.ExportRequest) (*dto.ExportResponse, error)
	Open(token string) (*service.Download, error)
}

// ExportHandler exposes mark set report exports.
type ExportHandler struct {
	exports markSetExporter
}

// NewExportHandler constructs an export handler.
func NewExportHandler(exports markSetExporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Export a mark set report
// @Tags Exports
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param markSetId path string true "Mark set ID"
// @Param payload body dto.ExportRequest true "Format and summary filters"
// @Success 201 {object} response.Envelope
// @Router /classes/{classId}/marksets/{markSetId}/exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	result, err := h.exports.ExportMarkSet(c.Request.Context(), c.Param("classId"), c.Param("markSetId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an exported report
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.BadParam("token", "token is required"))
		return
	}
	download, err := h.exports.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType(download.Format), download.File, nil)
}

func contentType(format models.ReportFormat) string {
	if format == models.ReportFormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}
