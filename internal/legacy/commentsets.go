package legacy

import "strconv"

// CommentSetIndex lists the comment sets defined for a mark set.
type CommentSetIndex struct {
	Path string          `json:"path"`
	Sets []CommentSetDef `json:"sets"`
}

// CommentSetDef is one row of the index.
type CommentSetDef struct {
	SetNumber int    `json:"setNumber"`
	Title     string `json:"title"`
	FitMode   int    `json:"fitMode"`
	MaxChars  int    `json:"maxChars"`
	RawLine   string `json:"rawLine"`
}

// Extension is the companion file extension holding this set's remarks.
func (d CommentSetDef) Extension() string {
	return "R" + strconv.Itoa(d.SetNumber)
}

// CommentSetRemarks holds one set's per-student remark text.
type CommentSetRemarks struct {
	Path      string   `json:"path"`
	SetNumber int      `json:"setNumber"`
	Remarks   []string `json:"remarks"`
}

// DecodeCommentSetIndex parses a .IDX file.
func DecodeCommentSetIndex(path string) (*CommentSetIndex, error) {
	r, err := readLines(KindCommentIndex, path)
	if err != nil {
		return nil, err
	}
	n, err := r.boundedCount("comment set count", MaxCommentSets)
	if err != nil {
		return nil, err
	}
	idx := &CommentSetIndex{Path: path, Sets: make([]CommentSetDef, 0, min(n, r.remaining()))}
	seen := make(map[int]struct{})
	for i := 0; i < n; i++ {
		line, ok := r.next()
		if !ok {
			break
		}
		parts := fields(line, 4)
		setNumber, err := parseIntField(parts[0])
		if err != nil || setNumber < 1 {
			return nil, r.errorf("invalid comment set number %q", parts[0])
		}
		if _, dup := seen[setNumber]; dup {
			return nil, r.errorf("duplicate comment set number %d", setNumber)
		}
		seen[setNumber] = struct{}{}
		fitMode, err := parseIntField(parts[1])
		if err != nil {
			return nil, r.errorf("invalid fit mode %q", parts[1])
		}
		maxChars, err := parseIntField(parts[2])
		if err != nil || maxChars < 0 {
			return nil, r.errorf("invalid max chars %q", parts[2])
		}
		idx.Sets = append(idx.Sets, CommentSetDef{
			SetNumber: setNumber,
			Title:     cleanText(parts[3]),
			FitMode:   fitMode,
			MaxChars:  maxChars,
			RawLine:   line,
		})
	}
	return idx, nil
}

// DecodeCommentSetRemarks parses one .R<n> file.
func DecodeCommentSetRemarks(path string, setNumber int) (*CommentSetRemarks, error) {
	r, err := readLines(KindCommentSet, path)
	if err != nil {
		return nil, err
	}
	n, err := r.boundedCount("student count", MaxStudents)
	if err != nil {
		return nil, err
	}
	out := &CommentSetRemarks{Path: path, SetNumber: setNumber, Remarks: make([]string, n)}
	for i := 0; i < n; i++ {
		line, ok := r.next()
		if !ok {
			break
		}
		out.Remarks[i] = cleanText(line)
	}
	return out, nil
}
