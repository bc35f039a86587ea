package legacy

import "strings"

// LoanedItems is the decoded .TBK file.
type LoanedItems struct {
	Path         string       `json:"path"`
	StudentCount int          `json:"studentCount"`
	Books        []LoanedBook `json:"books"`
}

// LoanedBook is one title and its per-student loans.
type LoanedBook struct {
	Title     string  `json:"title"`
	Publisher string  `json:"publisher"`
	Cost      float64 `json:"cost"`
	// Loans is indexed by ordinal-1.
	Loans   []LoanedItem `json:"loans"`
	RawLine string       `json:"rawLine"`
}

// LoanedItem is one student's copy.
type LoanedItem struct {
	ItemID string `json:"itemId"`
	Note   string `json:"note"`
}

// Empty reports whether no copy is recorded.
func (i LoanedItem) Empty() bool {
	return i.ItemID == "" && i.Note == ""
}

// DecodeLoanedItems parses a .TBK file.
func DecodeLoanedItems(path string) (*LoanedItems, error) {
	r, err := readLines(KindLoanedItems, path)
	if err != nil {
		return nil, err
	}
	books, err := r.boundedCount("book count", MaxBooks)
	if err != nil {
		return nil, err
	}
	students, err := r.boundedCount("student count", MaxStudents)
	if err != nil {
		return nil, err
	}
	out := &LoanedItems{Path: path, StudentCount: students, Books: make([]LoanedBook, 0, min(books, r.remaining()))}
	for b := 0; b < books; b++ {
		header, ok := r.next()
		if !ok {
			break
		}
		parts := fields(header, 3)
		cost, err := parseFloatField(parts[0])
		if err != nil || cost < 0 {
			return nil, r.errorf("invalid book cost %q", parts[0])
		}
		book := LoanedBook{
			Cost:      cost,
			Publisher: cleanText(parts[1]),
			Title:     cleanText(parts[2]),
			Loans:     make([]LoanedItem, students),
			RawLine:   header,
		}
		for s := 0; s < students; s++ {
			line, ok := r.next()
			if !ok {
				break
			}
			loan := fields(line, 2)
			book.Loans[s] = LoanedItem{ItemID: strings.TrimSpace(loan[0]), Note: cleanText(loan[1])}
		}
		out.Books = append(out.Books, book)
	}
	return out, nil
}
