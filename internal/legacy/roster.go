package legacy

import (
	"strings"
)

// ClassRoster is the decoded class file: identity, declared mark sets and the student list.
type ClassRoster struct {
	Path      string          `json:"path"`
	ClassName string          `json:"className"`
	ClassCode string          `json:"classCode"`
	MarkSets  []MarkSetDef    `json:"markSets"`
	Students  []RosterStudent `json:"students"`
	// DeclaredStudents is the count written in the file, which may exceed len(Students).
	DeclaredStudents int `json:"declaredStudents"`
}

// MarkSetDef is one mark set declared in the class file.
type MarkSetDef struct {
	Code        string  `json:"code"`
	FilePrefix  string  `json:"filePrefix"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	SortOrder   int     `json:"sortOrder"`
	RawLine     string  `json:"rawLine"`
}

// RosterStudent is one student row; Ordinal is its 1-based position in the file.
type RosterStudent struct {
	Ordinal        int    `json:"ordinal"`
	Active         bool   `json:"active"`
	LastName       string `json:"lastName"`
	FirstName      string `json:"firstName"`
	StudentNumber  string `json:"studentNumber"`
	BirthDate      string `json:"birthDate"`
	EnrollmentMask string `json:"enrollmentMask"`
	RawLine        string `json:"rawLine"`
}

// DisplayName renders "Last, First", or whichever part is present.
func (s RosterStudent) DisplayName() string {
	switch {
	case s.LastName != "" && s.FirstName != "":
		return s.LastName + ", " + s.FirstName
	case s.LastName != "":
		return s.LastName
	default:
		return s.FirstName
	}
}

// DecodeClassRoster parses a class (.CL) file.
func DecodeClassRoster(path string) (*ClassRoster, error) {
	r, err := readLines(KindRoster, path)
	if err != nil {
		return nil, err
	}
	roster := &ClassRoster{Path: path}

	name, err := r.require("class name")
	if err != nil {
		return nil, err
	}
	roster.ClassName = cleanText(name)
	code, err := r.require("class code")
	if err != nil {
		return nil, err
	}
	roster.ClassCode = strings.TrimSpace(code)

	markSetCount, err := r.boundedCount("mark set count", MaxMarkSets)
	if err != nil {
		return nil, err
	}
	roster.MarkSets = make([]MarkSetDef, 0, min(markSetCount, r.remaining()))
	seen := make(map[string]struct{})
	for i := 0; i < markSetCount; i++ {
		line, err := r.require("mark set definition")
		if err != nil {
			return nil, err
		}
		def, err := parseMarkSetDef(r, line)
		if err != nil {
			return nil, err
		}
		key := strings.ToUpper(def.Code)
		if _, dup := seen[key]; dup {
			return nil, r.errorf("duplicate mark set code %q", def.Code)
		}
		seen[key] = struct{}{}
		roster.MarkSets = append(roster.MarkSets, def)
	}

	studentCount, err := r.boundedCount("student count", MaxStudents)
	if err != nil {
		return nil, err
	}
	roster.DeclaredStudents = studentCount
	roster.Students = make([]RosterStudent, 0, min(studentCount, r.remaining()))
	for i := 0; i < studentCount; i++ {
		line, ok := r.next()
		if !ok {
			break
		}
		student, err := parseRosterStudent(r, line, i+1)
		if err != nil {
			return nil, err
		}
		roster.Students = append(roster.Students, student)
	}
	return roster, nil
}

func parseMarkSetDef(r *lineReader, line string) (MarkSetDef, error) {
	parts := fields(line, 5)
	def := MarkSetDef{
		Code:        strings.ToUpper(strings.TrimSpace(parts[0])),
		FilePrefix:  strings.TrimSpace(parts[1]),
		Description: cleanText(parts[4]),
		RawLine:     line,
	}
	if def.Code == "" || def.FilePrefix == "" {
		return def, r.errorf("mark set definition requires code and file prefix")
	}
	weight, err := parseFloatField(parts[2])
	if err != nil {
		return def, r.errorf("invalid mark set weight %q", parts[2])
	}
	def.Weight = weight
	sortOrder, err := parseIntField(parts[3])
	if err != nil || sortOrder < 0 {
		return def, r.errorf("invalid mark set sort order %q", parts[3])
	}
	def.SortOrder = sortOrder
	return def, nil
}

func parseRosterStudent(r *lineReader, line string, ordinal int) (RosterStudent, error) {
	parts := fields(line, 6)
	active, ok := parseFlag(parts[0])
	if !ok {
		return RosterStudent{}, r.errorf("invalid active flag %q", parts[0])
	}
	return RosterStudent{
		Ordinal:        ordinal,
		Active:         active,
		LastName:       cleanText(parts[1]),
		FirstName:      cleanText(parts[2]),
		StudentNumber:  strings.TrimSpace(parts[3]),
		BirthDate:      strings.TrimSpace(parts[4]),
		EnrollmentMask: strings.TrimSpace(parts[5]),
		RawLine:        line,
	}, nil
}
