package legacy

import "strings"

// CommentBank is one decoded .BNK file.
type CommentBank struct {
	Path    string             `json:"path"`
	Title   string             `json:"title"`
	Entries []CommentBankEntry `json:"entries"`
}

// CommentBankEntry is one reusable comment.
type CommentBankEntry struct {
	TypeCode  string `json:"typeCode"`
	LevelCode string `json:"levelCode"`
	Text      string `json:"text"`
	RawLine   string `json:"rawLine"`
}

// DecodeCommentBank parses a .BNK file. Blank lines between entries are skipped.
func DecodeCommentBank(path string) (*CommentBank, error) {
	r, err := readLines(KindCommentBank, path)
	if err != nil {
		return nil, err
	}
	title, err := r.require("bank title")
	if err != nil {
		return nil, err
	}
	bank := &CommentBank{Path: path, Title: cleanText(title)}
	for {
		line, ok := r.next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := fields(line, 3)
		if !strings.Contains(line, ",") {
			return nil, r.errorf("comment entry requires type and level codes")
		}
		bank.Entries = append(bank.Entries, CommentBankEntry{
			TypeCode:  strings.TrimSpace(parts[0]),
			LevelCode: strings.TrimSpace(parts[1]),
			Text:      cleanText(parts[2]),
			RawLine:   line,
		})
	}
	return bank, nil
}
