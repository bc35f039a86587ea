package models

import "time"

// Class is a gradebook class imported from one legacy class folder.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	LegacyFolder string    `db:"legacy_folder" json:"legacyFolder"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// MarkSet is one gradebook column group belonging to a class.
type MarkSet struct {
	ID           string  `db:"id" json:"id"`
	ClassID      string  `db:"class_id" json:"classId"`
	Code         string  `db:"code" json:"code"`
	FilePrefix   string  `db:"file_prefix" json:"filePrefix"`
	Description  string  `db:"description" json:"description"`
	Weight       float64 `db:"weight" json:"weight"`
	SortOrder    int     `db:"sort_order" json:"sortOrder"`
	FullCode     string  `db:"full_code" json:"fullCode"`
	Room         string  `db:"room" json:"room"`
	Day          string  `db:"day" json:"day"`
	Period       string  `db:"period" json:"period"`
	WeightMethod int     `db:"weight_method" json:"weightMethod"`
	CalcMethod   int     `db:"calc_method" json:"calcMethod"`
	// DropLowest is the number of lowest entries discarded before combining.
	DropLowest int       `db:"drop_lowest" json:"dropLowest"`
	RawLine    string    `db:"raw_line" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// MarkSetCategory is a weighted assessment category within a mark set.
type MarkSetCategory struct {
	ID        string  `db:"id" json:"id"`
	MarkSetID string  `db:"mark_set_id" json:"markSetId"`
	Name      string  `db:"name" json:"name"`
	Weight    float64 `db:"weight" json:"weight"`
	SortOrder int     `db:"sort_order" json:"sortOrder"`
}

// Assessment is one gradebook column. Idx is dense and 0-based within the mark set.
type Assessment struct {
	ID               string  `db:"id" json:"id"`
	MarkSetID        string  `db:"mark_set_id" json:"markSetId"`
	Idx              int     `db:"idx" json:"idx"`
	Date             string  `db:"date" json:"date"`
	CategoryName     string  `db:"category_name" json:"categoryName"`
	Title            string  `db:"title" json:"title"`
	Term             int     `db:"term" json:"term"`
	LegacyKind       int     `db:"legacy_kind" json:"legacyKind"`
	Type             int     `db:"type" json:"type"`
	Weight           float64 `db:"weight" json:"weight"`
	OutOf            float64 `db:"out_of" json:"outOf"`
	LegacyAvgPercent float64 `db:"legacy_avg_percent" json:"legacyAvgPercent"`
	LegacyAvgRaw     float64 `db:"legacy_avg_raw" json:"legacyAvgRaw"`
	RawLine          string  `db:"raw_line" json:"-"`
}
