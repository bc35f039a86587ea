package legacy

import "strings"

// Seating is the decoded .SPL seating plan.
type Seating struct {
	Path        string `json:"path"`
	Rows        int    `json:"rows"`
	SeatsPerRow int    `json:"seatsPerRow"`
	// Blocked is row-major, one entry per seat.
	Blocked []bool `json:"blocked"`
	// SeatCodes is indexed by ordinal-1; 0 means unassigned.
	SeatCodes []int `json:"seatCodes"`
}

// Capacity is rows times seats per row.
func (s *Seating) Capacity() int {
	return s.Rows * s.SeatsPerRow
}

// SeatPosition converts a 1-based seat code to a 0-based row and column.
func (s *Seating) SeatPosition(code int) (row, col int, ok bool) {
	if code < 1 || code > s.Capacity() || s.SeatsPerRow == 0 {
		return 0, 0, false
	}
	return (code - 1) / s.SeatsPerRow, (code - 1) % s.SeatsPerRow, true
}

// DecodeSeating parses a .SPL file.
func DecodeSeating(path string) (*Seating, error) {
	r, err := readLines(KindSeating, path)
	if err != nil {
		return nil, err
	}
	dims, err := r.require("seating dimensions")
	if err != nil {
		return nil, err
	}
	parts := fields(dims, 2)
	rows, err := parseIntField(parts[0])
	if err != nil || rows < 0 {
		return nil, r.errorf("invalid row count %q", parts[0])
	}
	seats, err := parseIntField(parts[1])
	if err != nil || seats < 0 {
		return nil, r.errorf("invalid seats per row %q", parts[1])
	}
	if err := r.checkLimit("row count", rows, MaxSeatRows); err != nil {
		return nil, err
	}
	if err := r.checkLimit("seats per row", seats, MaxSeatsPerRow); err != nil {
		return nil, err
	}
	plan := &Seating{Path: path, Rows: rows, SeatsPerRow: seats, Blocked: make([]bool, rows*seats)}

	mask, _ := r.next()
	mask = strings.TrimSpace(mask)
	for i, ch := range mask {
		if i >= len(plan.Blocked) {
			break
		}
		switch ch {
		case '1':
			plan.Blocked[i] = true
		case '0':
		default:
			return nil, r.errorf("invalid blocked mask character %q", ch)
		}
	}

	n, err := r.boundedCount("student count", MaxStudents)
	if err != nil {
		return nil, err
	}
	plan.SeatCodes = make([]int, n)
	for i := 0; i < n; i++ {
		line, ok := r.next()
		if !ok {
			break
		}
		code, err := parseIntField(line)
		if err != nil || code < 0 || code > plan.Capacity() {
			return nil, r.errorf("invalid seat code %q", line)
		}
		plan.SeatCodes[i] = code
	}
	return plan, nil
}
