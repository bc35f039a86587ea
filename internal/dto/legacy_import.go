package dto

import (
	"time"

	"github.com/markbookdev/markbook-classic-sub000/internal/models"
)

// ImportRequest captures POST /legacy/imports and /legacy/imports/jobs payloads.
// Folder is relative to the configured import root.
type ImportRequest struct {
	Folder string `json:"folder" validate:"required,max=512"`
}

// ImportJobResponse is returned after enqueueing an import.
type ImportJobResponse struct {
	ID        string                 `json:"id"`
	Status    models.ImportJobStatus `json:"status"`
	StatusURL string                 `json:"statusUrl"`
}

// ImportJobStatusResponse exposes the cached job state.
type ImportJobStatusResponse struct {
	ID         string                 `json:"id"`
	Folder     string                 `json:"folder"`
	Status     models.ImportJobStatus `json:"status"`
	Attempts   int                    `json:"attempts"`
	Result     *models.ImportResult   `json:"result,omitempty"`
	ErrorCode  string                 `json:"errorCode,omitempty"`
	Error      string                 `json:"error,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
}

// NewImportJobStatusResponse maps a job to its response.
func NewImportJobStatusResponse(job *models.ImportJob) ImportJobStatusResponse {
	return ImportJobStatusResponse{
		ID:         job.ID,
		Folder:     job.Folder,
		Status:     job.Status,
		Attempts:   job.Attempts,
		Result:     job.Result,
		ErrorCode:  job.ErrorCode,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
}
