package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/markset"
	"github.com/markbookdev/markbook-classic-sub000/internal/middleware"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
	"github.com/markbookdev/markbook-classic-sub000/pkg/response"
)

type markSetSummaryProvider interface {
	MarkSetSummary(ctx context.Context, classID, markSetID string, raw markset.RawSummaryFilters) (*markset.Summary, error)
	AssessmentStats(ctx context.Context, classID, markSetID string, raw markset.RawSummaryFilters) ([]markset.AssessmentStats, error)
}

type markSetAnalyticsProvider interface {
	MarkSetAnalytics(ctx context.Context, classID, markSetID string, raw markset.RawSummaryFilters) (*markset.Analytics, error)
}

type scoreSetter interface {
	SetScore(ctx context.Context, req dto.SetScoreRequest) (*dto.ScoreResponse, error)
}

// MarkSetHandler exposes mark set calculation and grid editing endpoints.
type MarkSetHandler struct {
	summaries markSetSummaryProvider
	analytics markSetAnalyticsProvider
	scores    scoreSetter
}

// NewMarkSetHandler constructs a mark set handler.
func NewMarkSetHandler(summaries markSetSummaryProvider, analytics markSetAnalyticsProvider, scores scoreSetter) *MarkSetHandler {
	return &MarkSetHandler{summaries: summaries, analytics: analytics, scores: scores}
}

// Summary godoc
// @Summary Mark set summary
// @Description Per-assessment statistics, per-student final marks and category breakdowns.
// @Tags MarkSets
// @Produce json
// @Param classId path string true "Class ID"
// @Param markSetId path string true "Mark set ID"
// @Param term query int false "Term number; omit for all terms"
// @Param categories query []string false "Category names" collectionFormat(multi)
// @Param types query string false "Assessment type bitmask, 1 to 31"
// @Param studentScope query string false "all, active or valid"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/marksets/{markSetId}/summary [get]
func (h *MarkSetHandler) Summary(c *gin.Context) {
	raw, ok := bindSummaryFilters(c)
	if !ok {
		return
	}
	summary, err := h.summaries.MarkSetSummary(c.Request.Context(), c.Param("classId"), c.Param("markSetId"), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "studentCount", len(summary.PerStudent))
	response.JSON(c, http.StatusOK, summary, middleware.ExtractMeta(c))
}

// AssessmentStats godoc
// @Summary Mark set assessment statistics
// @Tags MarkSets
// @Produce json
// @Param classId path string true "Class ID"
// @Param markSetId path string true "Mark set ID"
// @Param term query int false "Term number"
// @Param categories query []string false "Category names" collectionFormat(multi)
// @Param types query string false "Assessment type bitmask"
// @Param studentScope query string false "all, active or valid"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/marksets/{markSetId}/assessment-stats [get]
func (h *MarkSetHandler) AssessmentStats(c *gin.Context) {
	raw, ok := bindSummaryFilters(c)
	if !ok {
		return
	}
	stats, err := h.summaries.AssessmentStats(c.Request.Context(), c.Param("classId"), c.Param("markSetId"), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
}

// Analytics godoc
// @Summary Mark set analytics
// @Description KPIs, distribution bins, top/bottom rankings and per-student rows.
// @Tags MarkSets
// @Produce json
// @Param classId path string true "Class ID"
// @Param markSetId path string true "Mark set ID"
// @Param term query int false "Term number"
// @Param categories query []string false "Category names" collectionFormat(multi)
// @Param types query string false "Assessment type bitmask"
// @Param studentScope query string false "all, active or valid"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/marksets/{markSetId}/analytics [get]
func (h *MarkSetHandler) Analytics(c *gin.Context) {
	raw, ok := bindSummaryFilters(c)
	if !ok {
		return
	}
	analytics, err := h.analytics.MarkSetAnalytics(c.Request.Context(), c.Param("classId"), c.Param("markSetId"), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analytics, middleware.ExtractMeta(c))
}

// SetScore godoc
// @Summary Edit one grid cell
// @Tags MarkSets
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param markSetId path string true "Mark set ID"
// @Param idx path int true "Assessment index"
// @Param studentId path string true "Student ID"
// @Param payload body dto.SetScoreRequest true "Cell state and value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/marksets/{markSetId}/assessments/{idx}/scores/{studentId} [put]
func (h *MarkSetHandler) SetScore(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		response.Error(c, appErrors.BadParam("idx", "assessment index must be a non-negative integer"))
		return
	}
	var req dto.SetScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}
	req.ClassID = c.Param("classId")
	req.MarkSetID = c.Param("markSetId")
	req.AssessmentIdx = idx
	req.StudentID = c.Param("studentId")

	result, err := h.scores.SetScore(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func bindSummaryFilters(c *gin.Context) (markset.RawSummaryFilters, bool) {
	var raw markset.RawSummaryFilters
	if err := c.ShouldBindQuery(&raw); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadParams.Code, http.StatusBadRequest, "invalid summary filters"))
		return raw, false
	}
	return raw, true
}
