package legacy

import (
	"strings"
)

const miscMarker = "[MISC]"

// Weight and calculation method codes accepted in a mark file header.
const (
	MaxWeightMethod = 2
	MaxCalcMethod   = 4
)

// MarkFile is the decoded body of one mark set file.
type MarkFile struct {
	Path        string             `json:"path"`
	Header      *MarkFileHeader    `json:"header,omitempty"`
	Categories  []MarkFileCategory `json:"categories"`
	Assessments []MarkFileEntry    `json:"assessments"`
	// StudentCount is the declared width of every score row.
	StudentCount int `json:"studentCount"`
	// Scores is indexed [assessment index][ordinal-1].
	Scores [][]Score `json:"scores"`
}

// MarkFileHeader is the optional misc block.
type MarkFileHeader struct {
	FullCode     string `json:"fullCode"`
	Room         string `json:"room"`
	Day          string `json:"day"`
	Period       string `json:"period"`
	WeightMethod int    `json:"weightMethod"`
	CalcMethod   int    `json:"calcMethod"`
	RawLine      string `json:"rawLine"`
}

// MarkFileCategory is one weighted category.
type MarkFileCategory struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	RawLine string  `json:"rawLine"`
}

// MarkFileEntry is one assessment definition.
type MarkFileEntry struct {
	Index            int     `json:"idx"`
	Date             string  `json:"date"`
	Category         string  `json:"category"`
	Title            string  `json:"title"`
	Term             int     `json:"term"`
	LegacyKind       int     `json:"legacyKind"`
	Weight           float64 `json:"weight"`
	OutOf            float64 `json:"outOf"`
	LegacyAvgPercent float64 `json:"legacyAvgPercent"`
	LegacyAvgRaw     float64 `json:"legacyAvgRaw"`
	RawLine          string  `json:"rawLine"`
}

// WeightMethod returns the header's weight method or 0 when the header is absent.
func (m *MarkFile) WeightMethod() int {
	if m.Header == nil {
		return 0
	}
	return m.Header.WeightMethod
}

// CalcMethod returns the header's calc method or 0 when the header is absent.
func (m *MarkFile) CalcMethod() int {
	if m.Header == nil {
		return 0
	}
	return m.Header.CalcMethod
}

// DecodeMarkFile parses a mark set file.
func DecodeMarkFile(path string) (*MarkFile, error) {
	r, err := readLines(KindMarkFile, path)
	if err != nil {
		return nil, err
	}
	mf := &MarkFile{Path: path}

	if line, ok := r.peek(); ok && strings.EqualFold(strings.TrimSpace(line), miscMarker) {
		r.next()
		headerLine, err := r.require("misc header")
		if err != nil {
			return nil, err
		}
		header, err := parseMarkFileHeader(r, headerLine)
		if err != nil {
			return nil, err
		}
		mf.Header = header
	}

	categoryCount, err := r.boundedCount("category count", MaxCategories)
	if err != nil {
		return nil, err
	}
	mf.Categories = make([]MarkFileCategory, 0, min(categoryCount, r.remaining()))
	for i := 0; i < categoryCount; i++ {
		line, err := r.require("category")
		if err != nil {
			return nil, err
		}
		parts := fields(line, 2)
		weight, err := parseFloatField(parts[0])
		if err != nil {
			return nil, r.errorf("invalid category weight %q", parts[0])
		}
		mf.Categories = append(mf.Categories, MarkFileCategory{Name: cleanText(parts[1]), Weight: weight, RawLine: line})
	}

	assessmentCount, err := r.boundedCount("assessment count", MaxAssessments)
	if err != nil {
		return nil, err
	}
	mf.Assessments = make([]MarkFileEntry, 0, min(assessmentCount, r.remaining()))
	for i := 0; i < assessmentCount; i++ {
		line, ok := r.next()
		if !ok {
			break
		}
		entry, err := parseMarkFileEntry(r, line, i)
		if err != nil {
			return nil, err
		}
		mf.Assessments = append(mf.Assessments, entry)
	}

	if r.eof() {
		mf.Scores = make([][]Score, len(mf.Assessments))
		for i := range mf.Scores {
			mf.Scores[i] = []Score{}
		}
		return mf, nil
	}
	studentCount, err := r.boundedCount("student count", MaxStudents)
	if err != nil {
		return nil, err
	}
	mf.StudentCount = studentCount
	mf.Scores = make([][]Score, len(mf.Assessments))
	for i := range mf.Assessments {
		row := make([]Score, studentCount)
		line, ok := r.next()
		if ok {
			if err := parseScoreRow(r, line, row); err != nil {
				return nil, err
			}
		}
		mf.Scores[i] = row
	}
	return mf, nil
}

func parseMarkFileHeader(r *lineReader, line string) (*MarkFileHeader, error) {
	parts := fields(line, 6)
	weightMethod, err := parseIntField(parts[4])
	if err != nil || weightMethod < 0 || weightMethod > MaxWeightMethod {
		return nil, r.errorf("invalid weight method %q", parts[4])
	}
	calcMethod, err := parseIntField(parts[5])
	if err != nil || calcMethod < 0 || calcMethod > MaxCalcMethod {
		return nil, r.errorf("invalid calc method %q", parts[5])
	}
	return &MarkFileHeader{
		FullCode:     strings.TrimSpace(parts[0]),
		Room:         strings.TrimSpace(parts[1]),
		Day:          strings.TrimSpace(parts[2]),
		Period:       strings.TrimSpace(parts[3]),
		WeightMethod: weightMethod,
		CalcMethod:   calcMethod,
		RawLine:      line,
	}, nil
}

func parseMarkFileEntry(r *lineReader, line string, idx int) (MarkFileEntry, error) {
	parts := fields(line, 9)
	entry := MarkFileEntry{
		Index:    idx,
		Date:     strings.TrimSpace(parts[0]),
		Category: cleanText(parts[1]),
		Title:    cleanText(parts[8]),
		RawLine:  line,
	}
	var err error
	if entry.Term, err = parseIntField(parts[2]); err != nil || entry.Term < 0 {
		return entry, r.errorf("invalid term %q", parts[2])
	}
	if entry.LegacyKind, err = parseIntField(parts[3]); err != nil {
		return entry, r.errorf("invalid legacy kind %q", parts[3])
	}
	if entry.Weight, err = parseFloatField(parts[4]); err != nil {
		return entry, r.errorf("invalid weight %q", parts[4])
	}
	if entry.OutOf, err = parseFloatField(parts[5]); err != nil {
		return entry, r.errorf("invalid out-of %q", parts[5])
	}
	if entry.LegacyAvgPercent, err = parseFloatField(parts[6]); err != nil {
		return entry, r.errorf("invalid average percent %q", parts[6])
	}
	if entry.LegacyAvgRaw, err = parseFloatField(parts[7]); err != nil {
		return entry, r.errorf("invalid average raw %q", parts[7])
	}
	return entry, nil
}

// parseScoreRow fills row from a comma separated cell line; cells past the line end stay NoMark.
func parseScoreRow(r *lineReader, line string, row []Score) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	cells := strings.Split(line, ",")
	for i, cell := range cells {
		if i >= len(row) {
			break
		}
		raw, err := parseFloatField(cell)
		if err != nil {
			return r.errorf("invalid score cell %d %q", i+1, cell)
		}
		row[i] = DecodeRaw(raw)
	}
	return nil
}
