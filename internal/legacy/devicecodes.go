package legacy

import "strings"

// DeviceCodes is the decoded .ICC matrix.
type DeviceCodes struct {
	Path         string `json:"path"`
	SubjectCount int    `json:"subjectCount"`
	// Rows is indexed by ordinal-1, each padded to SubjectCount.
	Rows [][]string `json:"rows"`
}

// DecodeDeviceCodes parses a .ICC file.
func DecodeDeviceCodes(path string) (*DeviceCodes, error) {
	r, err := readLines(KindDeviceCodes, path)
	if err != nil {
		return nil, err
	}
	header, err := r.require("device code header")
	if err != nil {
		return nil, err
	}
	parts := fields(header, 2)
	n, err := parseIntField(parts[0])
	if err != nil || n < 0 {
		return nil, r.errorf("invalid student count %q", parts[0])
	}
	k, err := parseIntField(parts[1])
	if err != nil || k < 0 {
		return nil, r.errorf("invalid subject count %q", parts[1])
	}
	if err := r.checkLimit("student count", n, MaxStudents); err != nil {
		return nil, err
	}
	if err := r.checkLimit("subject count", k, MaxSubjects); err != nil {
		return nil, err
	}
	out := &DeviceCodes{Path: path, SubjectCount: k, Rows: make([][]string, n)}
	for i := 0; i < n; i++ {
		row := make([]string, k)
		if line, ok := r.next(); ok && k > 0 {
			for j, code := range strings.SplitN(line, ",", k) {
				row[j] = strings.TrimSpace(code)
			}
		}
		out.Rows[i] = row
	}
	return out, nil
}
