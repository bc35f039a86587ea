package legacy

import "strings"

// AssessmentType classifies an assessment for the types bitmask filter.
type AssessmentType int

const (
	TypeSummative AssessmentType = iota
	TypeFormative
	TypeDiagnostic
	TypeSelf
	TypePeer
)

// MaxAssessmentType is the highest recognised type code.
const MaxAssessmentType = TypePeer

var assessmentTypeNames = map[AssessmentType]string{
	TypeSummative:  "summative",
	TypeFormative:  "formative",
	TypeDiagnostic: "diagnostic",
	TypeSelf:       "self",
	TypePeer:       "peer",
}

func (t AssessmentType) String() string {
	if name, ok := assessmentTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Bit is the flag for this type inside a types bitmask.
func (t AssessmentType) Bit() int {
	return 1 << uint(t)
}

// AssessmentTypeMap holds one type per assessment index.
type AssessmentTypeMap struct {
	Path  string           `json:"path"`
	Types []AssessmentType `json:"types"`
}

// TypeAt returns the type for idx, defaulting to summative when the file is short.
func (m *AssessmentTypeMap) TypeAt(idx int) AssessmentType {
	if m == nil || idx < 0 || idx >= len(m.Types) {
		return TypeSummative
	}
	return m.Types[idx]
}

// DecodeAssessmentTypes parses a .TYP file.
func DecodeAssessmentTypes(path string) (*AssessmentTypeMap, error) {
	r, err := readLines(KindAssessmentTypes, path)
	if err != nil {
		return nil, err
	}
	n, err := r.boundedCount("type count", MaxAssessments)
	if err != nil {
		return nil, err
	}
	out := &AssessmentTypeMap{Path: path, Types: make([]AssessmentType, n)}
	for i := 0; i < n; i++ {
		line, ok := r.next()
		if !ok {
			break
		}
		code, err := parseIntField(strings.TrimSpace(line))
		if err != nil || code < 0 || code > int(MaxAssessmentType) {
			return nil, r.errorf("invalid assessment type %q", line)
		}
		out.Types[i] = AssessmentType(code)
	}
	return out, nil
}
