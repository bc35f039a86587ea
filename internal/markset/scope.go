package markset

import (
	"fmt"
	"strings"

	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
)

// StudentScope selects which students appear in per-student output.
type StudentScope string

const (
	ScopeAll    StudentScope = "all"
	ScopeActive StudentScope = "active"
	ScopeValid  StudentScope = "valid"
)

// ParseStudentScope accepts all, active or valid; empty means all.
func ParseStudentScope(raw string) (StudentScope, error) {
	switch StudentScope(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeActive:
		return ScopeActive, nil
	case ScopeValid:
		return ScopeValid, nil
	default:
		return "", appErrors.BadParam("studentScope", fmt.Sprintf("unsupported student scope %q", raw))
	}
}

// EnrollmentPredicate decides from a student's enrollment mask whether the
// student was enrolled for the mark set at sortOrder.
type EnrollmentPredicate func(mask string, sortOrder int) bool

// DefaultEnrollmentPredicate reads the mask character at the mark set's
// 0-based sort order: '0' means not enrolled. An empty mask, or a position
// past its end, means enrolled.
func DefaultEnrollmentPredicate(mask string, sortOrder int) bool {
	if mask == "" || sortOrder < 0 || sortOrder >= len(mask) {
		return true
	}
	return mask[sortOrder] != '0'
}

// IsValid reports whether a student counts under the valid scope.
// A nil predicate falls back to DefaultEnrollmentPredicate.
func IsValid(active bool, mask string, sortOrder int, pred EnrollmentPredicate) bool {
	if !active {
		return false
	}
	if pred == nil {
		pred = DefaultEnrollmentPredicate
	}
	return pred(mask, sortOrder)
}

// Includes reports whether a student is kept under the scope.
func (s StudentScope) Includes(active bool, mask string, sortOrder int, pred EnrollmentPredicate) bool {
	switch s {
	case ScopeActive:
		return active
	case ScopeValid:
		return IsValid(active, mask, sortOrder, pred)
	default:
		return true
	}
}

// ApplyScope returns a copy of summary with excluded students removed from
// PerStudent and PerStudentCategory. Assessment and category stats are kept as computed.
func ApplyScope(summary *Summary, scope StudentScope, pred EnrollmentPredicate) *Summary {
	if summary == nil {
		return nil
	}
	scoped := *summary
	scoped.Filters.StudentScope = scope
	if scope == ScopeAll || scope == "" {
		scoped.Filters.StudentScope = ScopeAll
		return &scoped
	}

	kept := make(map[string]struct{}, len(summary.PerStudent))
	scoped.PerStudent = make([]StudentFinal, 0, len(summary.PerStudent))
	for _, student := range summary.PerStudent {
		if !scope.Includes(student.Active, student.EnrollmentMask, summary.MarkSet.SortOrder, pred) {
			continue
		}
		kept[student.StudentID] = struct{}{}
		scoped.PerStudent = append(scoped.PerStudent, student)
	}
	if summary.PerStudentCategory != nil {
		scoped.PerStudentCategory = make([]StudentCategoryBreakdown, 0, len(kept))
		for _, row := range summary.PerStudentCategory {
			if _, ok := kept[row.StudentID]; ok {
				scoped.PerStudentCategory = append(scoped.PerStudentCategory, row)
			}
		}
	}
	return &scoped
}
