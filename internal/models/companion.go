package models

// ClassAttendanceMonth holds the type-of-day codes for one school month.
type ClassAttendanceMonth struct {
	ID            string `db:"id" json:"id"`
	ClassID       string `db:"class_id" json:"classId"`
	SchoolMonth   int    `db:"school_month" json:"schoolMonth"`
	CalendarMonth int    `db:"calendar_month" json:"calendarMonth"`
	TypeOfDay     string `db:"type_of_day" json:"typeOfDay"`
}

// StudentAttendanceMonth holds one student's day codes for one school month.
type StudentAttendanceMonth struct {
	ID          string `db:"id" json:"id"`
	StudentID   string `db:"student_id" json:"studentId"`
	SchoolMonth int    `db:"school_month" json:"schoolMonth"`
	DayCodes    string `db:"day_codes" json:"dayCodes"`
}

// SeatingPlan is the classroom layout. BlockedMask holds one '0'/'1' per seat.
type SeatingPlan struct {
	ClassID     string `db:"class_id" json:"classId"`
	Rows        int    `db:"rows" json:"rows"`
	SeatsPerRow int    `db:"seats_per_row" json:"seatsPerRow"`
	BlockedMask string `db:"blocked_mask" json:"blockedMask"`
}

// SeatAssignment places a student on a 1-based seat code.
type SeatAssignment struct {
	StudentID string `db:"student_id" json:"studentId"`
	SeatCode  int    `db:"seat_code" json:"seatCode"`
}

// DeviceCode maps a student to a device code for one subject position.
type DeviceCode struct {
	StudentID string `db:"student_id" json:"studentId"`
	Position  int    `db:"position" json:"position"`
	Code      string `db:"code" json:"code"`
}

// LoanedBook is a title handed out to the class.
type LoanedBook struct {
	ID        string  `db:"id" json:"id"`
	ClassID   string  `db:"class_id" json:"classId"`
	Title     string  `db:"title" json:"title"`
	Publisher string  `db:"publisher" json:"publisher"`
	Cost      float64 `db:"cost" json:"cost"`
	SortOrder int     `db:"sort_order" json:"sortOrder"`
}

// Loan is one student's copy of a loaned book.
type Loan struct {
	BookID    string `db:"book_id" json:"bookId"`
	StudentID string `db:"student_id" json:"studentId"`
	ItemID    string `db:"item_id" json:"itemId"`
	Note      string `db:"note" json:"note"`
}

// CommentBank is a reusable comment library.
type CommentBank struct {
	ID         string `db:"id" json:"id"`
	ClassID    string `db:"class_id" json:"classId"`
	Title      string `db:"title" json:"title"`
	SourceFile string `db:"source_file" json:"sourceFile"`
}

// CommentBankEntry is one comment within a bank.
type CommentBankEntry struct {
	BankID    string `db:"bank_id" json:"bankId"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`
	TypeCode  string `db:"type_code" json:"typeCode"`
	LevelCode string `db:"level_code" json:"levelCode"`
	Text      string `db:"text" json:"text"`
}

// CommentSet is a report-card comment set attached to a mark set.
type CommentSet struct {
	ID        string `db:"id" json:"id"`
	MarkSetID string `db:"mark_set_id" json:"markSetId"`
	SetNumber int    `db:"set_number" json:"setNumber"`
	Title     string `db:"title" json:"title"`
	FitMode   int    `db:"fit_mode" json:"fitMode"`
	MaxChars  int    `db:"max_chars" json:"maxChars"`
}

// CommentSetRemark is one student's remark within a comment set.
type CommentSetRemark struct {
	CommentSetID string `db:"comment_set_id" json:"commentSetId"`
	StudentID    string `db:"student_id" json:"studentId"`
	Remark       string `db:"remark" json:"remark"`
}
