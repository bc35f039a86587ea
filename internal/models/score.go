package models

import (
	"time"

	"github.com/markbookdev/markbook-classic-sub000/internal/legacy"
)

// Score is the stored raw cell for one student on one assessment.
// RawValue follows the legacy sign convention; use State to interpret it.
type Score struct {
	AssessmentID string    `db:"assessment_id" json:"assessmentId"`
	StudentID    string    `db:"student_id" json:"studentId"`
	RawValue     float64   `db:"raw_value" json:"rawValue"`
	Remark       string    `db:"remark" json:"remark,omitempty"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// State decodes the raw value.
func (s Score) State() legacy.Score {
	return legacy.DecodeRaw(s.RawValue)
}

// MarkSetSnapshot is everything the aggregation engine reads for one mark set,
// loaded in a single read-only transaction.
type MarkSetSnapshot struct {
	Class       Class             `json:"class"`
	MarkSet     MarkSet           `json:"markSet"`
	Categories  []MarkSetCategory `json:"categories"`
	Assessments []Assessment      `json:"assessments"`
	Students    []Student         `json:"students"`
	Scores      []Score           `json:"scores"`
}
