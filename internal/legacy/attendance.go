package legacy

import "strings"

// SchoolMonths is the number of month slots in an attendance file.
const SchoolMonths = 12

// Attendance is the decoded .ATN file.
type Attendance struct {
	Path       string `json:"path"`
	StartMonth int    `json:"startMonth"`
	// TypeOfDay holds the per-day type code string for each school month.
	TypeOfDay [SchoolMonths]string `json:"typeOfDay"`
	Students  []AttendanceStudent  `json:"students"`
}

// AttendanceStudent holds one student's day codes per school month.
type AttendanceStudent struct {
	Ordinal  int                  `json:"ordinal"`
	DayCodes [SchoolMonths]string `json:"dayCodes"`
	RawLine  string               `json:"rawLine"`
}

// CalendarMonth maps a 0-based school month slot to a calendar month 1..12.
func (a *Attendance) CalendarMonth(k int) int {
	return ((a.StartMonth-1+k)%SchoolMonths+SchoolMonths)%SchoolMonths + 1
}

// DecodeAttendance parses a .ATN file.
func DecodeAttendance(path string) (*Attendance, error) {
	r, err := readLines(KindAttendance, path)
	if err != nil {
		return nil, err
	}
	startLine, err := r.require("start month")
	if err != nil {
		return nil, err
	}
	start, err := parseIntField(startLine)
	if err != nil || start < 1 || start > 12 {
		return nil, r.errorf("invalid start month %q", startLine)
	}
	n, err := r.boundedCount("student count", MaxStudents)
	if err != nil {
		return nil, err
	}
	att := &Attendance{Path: path, StartMonth: start}
	for k := 0; k < SchoolMonths; k++ {
		line, ok := r.next()
		if !ok {
			break
		}
		att.TypeOfDay[k] = strings.TrimRight(line, " ")
	}
	att.Students = make([]AttendanceStudent, n)
	for i := 0; i < n; i++ {
		att.Students[i].Ordinal = i + 1
		line, ok := r.next()
		if !ok {
			continue
		}
		att.Students[i].RawLine = line
		for k, code := range strings.SplitN(line, ",", SchoolMonths) {
			att.Students[i].DayCodes[k] = strings.TrimRight(code, " ")
		}
	}
	return att, nil
}
