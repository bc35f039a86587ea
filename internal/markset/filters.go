package markset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/markbookdev/markbook-classic-sub000/internal/legacy"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
)

// AllTypesMask selects every assessment type.
const AllTypesMask = 1<<(legacy.MaxAssessmentType+1) - 1

// SummaryFilters restricts which assessments and students a summary covers.
// Nil or empty fields mean no restriction.
type SummaryFilters struct {
	Term         *int         `json:"term,omitempty"`
	Categories   []string     `json:"categories,omitempty"`
	Types        *int         `json:"types,omitempty"`
	StudentScope StudentScope `json:"studentScope"`
}

// RawSummaryFilters is the unvalidated request form, bound from a query string or a JSON body.
type RawSummaryFilters struct {
	Term         string   `form:"term"`
	Categories   []string `form:"categories"`
	Types        string   `form:"types"`
	StudentScope string   `form:"studentScope"`
}

// UnmarshalJSON accepts numbers or strings for term and types, and a list or
// comma separated string for categories. Unknown keys are rejected.
func (r *RawSummaryFilters) UnmarshalJSON(data []byte) error {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	for key, value := range payload {
		var err error
		switch key {
		case "term":
			r.Term, err = scalarString(value)
		case "types":
			r.Types, err = scalarString(value)
		case "studentScope", "student_scope":
			r.StudentScope, err = scalarString(value)
		case "categories":
			r.Categories, err = stringList(value)
		default:
			return appErrors.BadParam(key, fmt.Sprintf("unknown filter %q", key))
		}
		if err != nil {
			return appErrors.BadParam(key, err.Error())
		}
	}
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected a number or string")
	}
	return n.String(), nil
}

func stringList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("expected a list of names")
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// ParseSummaryFilters validates raw filters. Errors are BAD_PARAMS naming the field.
func ParseSummaryFilters(raw RawSummaryFilters) (SummaryFilters, error) {
	var filters SummaryFilters

	if term := strings.TrimSpace(raw.Term); term != "" {
		value, err := strconv.Atoi(term)
		if err != nil || value < 0 {
			return SummaryFilters{}, appErrors.BadParam("term", "term must be a non-negative integer")
		}
		filters.Term = &value
	}

	if raw.Categories != nil {
		categories, err := parseCategories(raw.Categories)
		if err != nil {
			return SummaryFilters{}, err
		}
		filters.Categories = categories
	}

	if types := strings.TrimSpace(raw.Types); types != "" {
		value, err := strconv.Atoi(types)
		if err != nil || value < 1 || value > AllTypesMask {
			return SummaryFilters{}, appErrors.BadParam("types", fmt.Sprintf("types must be a bitmask between 1 and %d", AllTypesMask))
		}
		filters.Types = &value
	}

	scope, err := ParseStudentScope(raw.StudentScope)
	if err != nil {
		return SummaryFilters{}, err
	}
	filters.StudentScope = scope
	return filters, nil
}

// parseCategories splits comma separated entries, trims them and drops case-insensitive duplicates.
func parseCategories(values []string) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				return nil, appErrors.BadParam("categories", "category names must not be empty")
			}
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, appErrors.BadParam("categories", "at least one category is required when filtering by category")
	}
	return out, nil
}

// MatchesTerm reports whether an assessment term passes the filter.
func (f SummaryFilters) MatchesTerm(term int) bool {
	return f.Term == nil || *f.Term == term
}

// MatchesCategory reports whether a category name passes the filter.
func (f SummaryFilters) MatchesCategory(name string) bool {
	if len(f.Categories) == 0 {
		return true
	}
	for _, candidate := range f.Categories {
		if strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// MatchesType reports whether an assessment type code passes the types bitmask.
func (f SummaryFilters) MatchesType(code int) bool {
	if f.Types == nil {
		return true
	}
	if code < 0 || code > int(legacy.MaxAssessmentType) {
		return false
	}
	return *f.Types&legacy.AssessmentType(code).Bit() != 0
}
