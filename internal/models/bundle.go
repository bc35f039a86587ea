package models

// LegacyClassBundle is a decoded legacy folder with ordinals already resolved
// to student IDs, ready to be written in one transaction.
type LegacyClassBundle struct {
	Class             Class                    `json:"class"`
	Students          []Student                `json:"students"`
	MarkSets          []MarkSetBundle          `json:"markSets"`
	AttendanceMonths  []ClassAttendanceMonth   `json:"attendanceMonths,omitempty"`
	StudentAttendance []StudentAttendanceMonth `json:"studentAttendance,omitempty"`
	Seating           *SeatingPlan             `json:"seating,omitempty"`
	SeatAssignments   []SeatAssignment         `json:"seatAssignments,omitempty"`
	DeviceCodes       []DeviceCode             `json:"deviceCodes,omitempty"`
	LoanedBooks       []LoanedBook             `json:"loanedBooks,omitempty"`
	Loans             []Loan                   `json:"loans,omitempty"`
	CommentBanks      []CommentBankBundle      `json:"commentBanks,omitempty"`
}

// MarkSetBundle groups a mark set with its children.
type MarkSetBundle struct {
	MarkSet     MarkSet            `json:"markSet"`
	Categories  []MarkSetCategory  `json:"categories"`
	Assessments []Assessment       `json:"assessments"`
	Scores      []Score            `json:"scores"`
	CommentSets []CommentSetBundle `json:"commentSets,omitempty"`
}

// CommentSetBundle groups a comment set with its remarks.
type CommentSetBundle struct {
	Set     CommentSet         `json:"set"`
	Remarks []CommentSetRemark `json:"remarks"`
}

// CommentBankBundle groups a comment bank with its entries.
type CommentBankBundle struct {
	Bank    CommentBank        `json:"bank"`
	Entries []CommentBankEntry `json:"entries"`
}

// ScoreCount returns the number of score rows across every mark set.
func (b *LegacyClassBundle) ScoreCount() int {
	total := 0
	for _, ms := range b.MarkSets {
		total += len(ms.Scores)
	}
	return total
}

// AssessmentCount returns the number of assessments across every mark set.
func (b *LegacyClassBundle) AssessmentCount() int {
	total := 0
	for _, ms := range b.MarkSets {
		total += len(ms.Assessments)
	}
	return total
}
