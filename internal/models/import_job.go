package models

import "time"

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ImportJobStatus captures background import lifecycle states.
type ImportJobStatus string

const (
	ImportJobQueued   ImportJobStatus = "QUEUED"
	ImportJobRunning  ImportJobStatus = "RUNNING"
	ImportJobFinished ImportJobStatus = "FINISHED"
	ImportJobFailed   ImportJobStatus = "FAILED"
)

// ImportJob is the cached state of an asynchronous legacy import.
type ImportJob struct {
	ID         string          `json:"id"`
	Folder     string          `json:"folder"`
	Status     ImportJobStatus `json:"status"`
	Attempts   int             `json:"attempts"`
	Result     *ImportResult   `json:"result,omitempty"`
	ErrorCode  string          `json:"errorCode,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedBy  string          `json:"createdBy"`
	CreatedAt  time.Time       `json:"createdAt"`
	StartedAt  *time.Time      `json:"startedAt,omitempty"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}

// ImportResult is the outcome of one legacy folder import.
type ImportResult struct {
	ClassID              string          `json:"classId"`
	StudentsImported     int             `json:"studentsImported"`
	MarkSetsImported     int             `json:"markSetsImported"`
	AssessmentsImported  int             `json:"assessmentsImported"`
	ScoresImported       int             `json:"scoresImported"`
	AttendanceImported   bool            `json:"attendanceImported"`
	SeatingImported      bool            `json:"seatingImported"`
	DeviceCodesImported  bool            `json:"deviceCodesImported"`
	LoanedItemsImported  bool            `json:"loanedItemsImported"`
	CommentBanksImported int             `json:"commentBanksImported"`
	CommentSetsImported  int             `json:"commentSetsImported"`
	Warnings             []ImportWarning `json:"warnings"`
}

// ImportWarning is a non-fatal import condition.
type ImportWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}
