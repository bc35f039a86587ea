package legacy

// RemarksMatrix holds per-assessment, per-student remark strings.
type RemarksMatrix struct {
	Path         string `json:"path"`
	Assessments  int    `json:"assessments"`
	StudentCount int    `json:"studentCount"`
	// Remarks is indexed [assessment index][ordinal-1].
	Remarks [][]string `json:"remarks"`
}

// At returns the remark for an assessment and 1-based ordinal, or "" when absent.
func (m *RemarksMatrix) At(idx, ordinal int) string {
	if m == nil || idx < 0 || idx >= len(m.Remarks) {
		return ""
	}
	row := m.Remarks[idx]
	if ordinal < 1 || ordinal > len(row) {
		return ""
	}
	return row[ordinal-1]
}

// DecodeRemarks parses a .RMK file.
func DecodeRemarks(path string) (*RemarksMatrix, error) {
	r, err := readLines(KindRemarks, path)
	if err != nil {
		return nil, err
	}
	header, err := r.require("remarks header")
	if err != nil {
		return nil, err
	}
	parts := fields(header, 2)
	assessments, err := parseIntField(parts[0])
	if err != nil || assessments < 0 {
		return nil, r.errorf("invalid assessment count %q", parts[0])
	}
	students, err := parseIntField(parts[1])
	if err != nil || students < 0 {
		return nil, r.errorf("invalid student count %q", parts[1])
	}
	if err := r.checkLimit("assessment count", assessments, MaxAssessments); err != nil {
		return nil, err
	}
	if err := r.checkLimit("student count", students, MaxStudents); err != nil {
		return nil, err
	}

	m := &RemarksMatrix{Path: path, Assessments: assessments, StudentCount: students, Remarks: make([][]string, assessments)}
	for a := 0; a < assessments; a++ {
		row := make([]string, students)
		for s := 0; s < students; s++ {
			line, ok := r.next()
			if !ok {
				break
			}
			row[s] = cleanText(line)
		}
		m.Remarks[a] = row
	}
	return m, nil
}
