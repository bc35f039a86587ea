package dto

import (
	"time"

	"github.com/markbookdev/markbook-classic-sub000/internal/markset"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
)

// SetScoreRequest is a single grid edit. Path parameters fill the identifiers.
type SetScoreRequest struct {
	ClassID       string  `json:"-" validate:"required"`
	MarkSetID     string  `json:"-" validate:"required"`
	AssessmentIdx int     `json:"-" validate:"gte=0"`
	StudentID     string  `json:"-" validate:"required"`
	State         string  `json:"state" validate:"required,oneof=no_mark zero scored"`
	Value         float64 `json:"value" validate:"gte=0"`
}

// ScoreResponse echoes the stored cell.
type ScoreResponse struct {
	AssessmentID string    `json:"assessmentId"`
	StudentID    string    `json:"studentId"`
	State        string    `json:"state"`
	Value        float64   `json:"value"`
	RawValue     float64   `json:"rawValue"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ExportRequest captures POST /classes/:classId/marksets/:markSetId/exports.
type ExportRequest struct {
	Format  models.ReportFormat       `json:"format" validate:"required,oneof=csv pdf"`
	Filters markset.RawSummaryFilters `json:"filters"`
}

// ExportResponse points at the signed download.
type ExportResponse struct {
	URL       string              `json:"url"`
	Token     string              `json:"token"`
	Format    models.ReportFormat `json:"format"`
	ExpiresAt time.Time           `json:"expiresAt"`
}
