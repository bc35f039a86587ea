package legacy

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// dosEOF is the Ctrl-Z terminator some DOS editors appended to text files.
const dosEOF = 0x1a

// Upper bounds on declared counts. Larger values mark a corrupt header.
const (
	MaxStudents    = 1000
	MaxAssessments = 500
	MaxCategories  = 100
	MaxMarkSets    = 200
	MaxCommentSets = 100
	MaxSubjects    = 50
	MaxBooks       = 200
	MaxSeatRows    = 50
	MaxSeatsPerRow = 50
)

// lineReader walks a decoded legacy text file one line at a time.
type lineReader struct {
	kind  Kind
	path  string
	lines []string
	pos   int
}

func readLines(kind Kind, path string) (*lineReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Kind: kind, Path: path}
		}
		return nil, &ParseError{Kind: kind, Path: path, Reason: err.Error()}
	}
	return newLineReader(kind, path, data), nil
}

func newLineReader(kind Kind, path string, data []byte) *lineReader {
	if idx := bytes.IndexByte(data, dosEOF); idx >= 0 {
		data = data[:idx]
	}
	text := decodeText(data)
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, strings.TrimRight(line, "\r"))
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return &lineReader{kind: kind, path: path, lines: lines}
}

// decodeText keeps UTF-8 input as is and otherwise assumes the DOS code page.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.CodePage437.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

func (r *lineReader) eof() bool {
	return r.pos >= len(r.lines)
}

// lineNo is the 1-based number of the line most recently returned.
func (r *lineReader) lineNo() int {
	return r.pos
}

func (r *lineReader) next() (string, bool) {
	if r.eof() {
		return "", false
	}
	line := r.lines[r.pos]
	r.pos++
	return line, true
}

// peek returns the next line without consuming it.
func (r *lineReader) peek() (string, bool) {
	if r.eof() {
		return "", false
	}
	return r.lines[r.pos], true
}

// require returns the next line or a parse error naming the missing field.
func (r *lineReader) require(field string) (string, error) {
	line, ok := r.next()
	if !ok {
		return "", r.errorf("unexpected end of file reading %s", field)
	}
	return line, nil
}

// count reads a non-negative integer header line.
func (r *lineReader) count(field string) (int, error) {
	line, err := r.require(field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 0 {
		return 0, r.errorf("invalid %s %q", field, line)
	}
	return n, nil
}

// boundedCount reads a count header and rejects values above limit.
func (r *lineReader) boundedCount(field string, limit int) (int, error) {
	n, err := r.count(field)
	if err != nil {
		return 0, err
	}
	if err := r.checkLimit(field, n, limit); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *lineReader) checkLimit(field string, n, limit int) error {
	if n > limit {
		return r.errorf("declared %s %d exceeds limit %d", field, n, limit)
	}
	return nil
}

// remaining is the number of unread lines.
func (r *lineReader) remaining() int {
	return len(r.lines) - r.pos
}

func (r *lineReader) errorf(format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: r.kind, Path: r.path, Line: r.lineNo(), Reason: fmt.Sprintf(format, args...)}
}

// fields splits line into exactly n comma separated fields; the last one keeps any further commas.
func fields(line string, n int) []string {
	parts := strings.SplitN(line, ",", n)
	for len(parts) < n {
		parts = append(parts, "")
	}
	return parts
}

// cleanText trims and NFC-normalises a free text field.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func parseIntField(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseFloatField(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseFlag(s string) (bool, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "Y", "T", "TRUE":
		return true, true
	case "", "0", "N", "F", "FALSE":
		return false, true
	default:
		return false, false
	}
}
