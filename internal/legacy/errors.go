package legacy

import (
	"errors"
	"fmt"
)

// Kind names a legacy file kind for diagnostics.
type Kind string

const (
	KindRoster          Kind = "class_roster"
	KindMarkFile        Kind = "mark_file"
	KindAssessmentTypes Kind = "assessment_types"
	KindRemarks         Kind = "remarks"
	KindCommentIndex    Kind = "comment_set_index"
	KindCommentSet      Kind = "comment_set_remarks"
	KindAttendance      Kind = "attendance"
	KindSeating         Kind = "seating"
	KindDeviceCodes     Kind = "device_codes"
	KindCommentBank     Kind = "comment_bank"
	KindLoanedItems     Kind = "loaned_items"
)

// Sentinels matched through errors.Is.
var (
	ErrNotFound    = errors.New("legacy file not found")
	ErrParseFailed = errors.New("legacy file malformed")
)

// NotFoundError reports a file absent under the expected naming convention.
type NotFoundError struct {
	Kind Kind
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s file not found: %s", e.Kind, e.Path)
}

// Is makes NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParseError reports a file that exists but cannot be decoded.
type ParseError struct {
	Kind   Kind
	Path   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s %s line %d: %s", e.Kind, e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Path, e.Reason)
}

// Is makes ParseError match ErrParseFailed.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailed
}

// PathOf extracts the offending path from a decoder error, if any.
func PathOf(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Path
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Path
	}
	return ""
}

// KindOf extracts the file kind from a decoder error, if any.
func KindOf(err error) Kind {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Kind
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
