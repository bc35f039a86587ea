package models

import "time"

// Student is one roster entry of a class. SortOrder is the 0-based roster position.
type Student struct {
	ID             string    `db:"id" json:"id"`
	ClassID        string    `db:"class_id" json:"classId"`
	LastName       string    `db:"last_name" json:"lastName"`
	FirstName      string    `db:"first_name" json:"firstName"`
	DisplayName    string    `db:"display_name" json:"displayName"`
	StudentNumber  string    `db:"student_number" json:"studentNumber"`
	BirthDate      string    `db:"birth_date" json:"birthDate"`
	Active         bool      `db:"active" json:"active"`
	EnrollmentMask string    `db:"enrollment_mask" json:"enrollmentMask"`
	SortOrder      int       `db:"sort_order" json:"sortOrder"`
	RawLine        string    `db:"raw_line" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
