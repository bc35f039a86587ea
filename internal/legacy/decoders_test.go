package legacy

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClassRoster(t *testing.T) {
	dir := writeClassFolder(t)

	roster, err := DecodeClassRoster(filepath.Join(dir, "MAT1.CL"))
	require.NoError(t, err)

	assert.Equal(t, "Grade 9 Mathematics", roster.ClassName)
	assert.Equal(t, "MAT1D1", roster.ClassCode)
	require.Len(t, roster.MarkSets, 1)
	assert.Equal(t, MarkSetDef{Code: "T1", FilePrefix: "MAT1", Weight: 1.5, SortOrder: 0, Description: "Term 1, Fall", RawLine: "T1,MAT1,1.5,0,Term 1, Fall"}, roster.MarkSets[0])
	require.Len(t, roster.Students, 3)
	assert.Equal(t, 3, roster.Students[2].Ordinal)
	assert.False(t, roster.Students[1].Active)
	assert.Equal(t, "011", roster.Students[2].EnrollmentMask)
	assert.Equal(t, "Chen, Cal", roster.Students[2].DisplayName())
	assert.Equal(t, "1,Chen,Cal,1003,2009-07-08,011", roster.Students[2].RawLine)
}

func TestDecodeClassRosterTruncated(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "A.CL", "Class", "C1", "0", "4", "1,Only,One,1,,")

	roster, err := DecodeClassRoster(path)
	require.NoError(t, err)
	assert.Equal(t, 4, roster.DeclaredStudents)
	assert.Len(t, roster.Students, 1)
}

func TestDecodeClassRosterErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := DecodeClassRoster(filepath.Join(dir, "MISSING.CL"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, filepath.Join(dir, "MISSING.CL"), PathOf(err))

	bad := writeFile(t, dir, "BAD.CL", "Class", "C1", "x")
	_, err = DecodeClassRoster(bad)
	assert.ErrorIs(t, err, ErrParseFailed)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
	assert.Equal(t, KindRoster, KindOf(err))

	flag := writeFile(t, dir, "FLAG.CL", "Class", "C1", "0", "1", "maybe,Smith,Sam,1,,")
	_, err = DecodeClassRoster(flag)
	assert.ErrorIs(t, err, ErrParseFailed)

	dup := writeFile(t, dir, "DUP.CL", "Class", "C1", "2", "t1,P,1,0,A", "T1,P,1,1,B", "0")
	_, err = DecodeClassRoster(dup)
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestDecodeMarkFile(t *testing.T) {
	dir := writeClassFolder(t)

	mf, err := DecodeMarkFile(filepath.Join(dir, "MAT1.T1"))
	require.NoError(t, err)

	require.NotNil(t, mf.Header)
	assert.Equal(t, 1, mf.WeightMethod())
	assert.Equal(t, 0, mf.CalcMethod())
	assert.Equal(t, "204", mf.Header.Room)
	require.Len(t, mf.Categories, 2)
	assert.Equal(t, MarkFileCategory{Name: "Knowledge", Weight: 60, RawLine: "60,Knowledge"}, mf.Categories[0])
	require.Len(t, mf.Assessments, 2)
	assert.Equal(t, 1, mf.Assessments[1].Index)
	assert.Equal(t, "Test, part A", mf.Assessments[1].Title)
	assert.Equal(t, 20.0, mf.Assessments[1].OutOf)

	five, _ := Scored(5)
	assert.Equal(t, 3, mf.StudentCount)
	assert.Equal(t, []Score{NoMark(), Zero(), five}, mf.Scores[0])
	assert.Equal(t, []Score{five, NoMark(), Zero()}, mf.Scores[1])

	var sum float64
	var counted int
	for _, s := range mf.Scores[0] {
		if s.Counts() {
			sum += s.Value()
			counted++
		}
	}
	assert.Equal(t, 2.5, sum/float64(counted))
}

func TestDecodeMarkFileShortRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "X.T1",
		"0",
		"3",
		",,0,0,1,10,0,0,A",
		",,0,0,1,10,0,0,B",
		",,0,0,1,10,0,0,C",
		"4",
		"7,8",
	)

	mf, err := DecodeMarkFile(path)
	require.NoError(t, err)
	assert.Nil(t, mf.Header)
	assert.Equal(t, 0, mf.WeightMethod())
	require.Len(t, mf.Scores, 3)
	assert.Len(t, mf.Scores[0], 4)
	assert.True(t, mf.Scores[0][2].IsNoMark())
	assert.True(t, mf.Scores[0][3].IsNoMark())
	assert.Equal(t, []Score{{}, {}, {}, {}}, mf.Scores[2])
}

func TestDecodeMarkFileRejectsBadMethodsAndCells(t *testing.T) {
	dir := t.TempDir()

	calc := writeFile(t, dir, "X.T1", "[MISC]", "X,1,MON,1,0,7", "0", "0")
	_, err := DecodeMarkFile(calc)
	assert.ErrorIs(t, err, ErrParseFailed)

	weight := writeFile(t, dir, "X.T2", "[misc]", "X,1,MON,1,3,0", "0", "0")
	_, err = DecodeMarkFile(weight)
	assert.ErrorIs(t, err, ErrParseFailed)

	cell := writeFile(t, dir, "X.T3", "0", "1", ",,0,0,1,10,0,0,A", "2", "4,abc")
	_, err = DecodeMarkFile(cell)
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = DecodeMarkFile(filepath.Join(dir, "X.T9"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeCompanions(t *testing.T) {
	dir := writeClassFolder(t)

	types, err := DecodeAssessmentTypes(filepath.Join(dir, "mat1.typ"))
	require.NoError(t, err)
	assert.Equal(t, TypeFormative, types.TypeAt(0))
	assert.Equal(t, TypeSummative, types.TypeAt(5))

	remarks, err := DecodeRemarks(filepath.Join(dir, "MAT1.RMK"))
	require.NoError(t, err)
	assert.Equal(t, "late", remarks.At(0, 1))
	assert.Equal(t, "ok", remarks.At(1, 1))
	assert.Equal(t, "", remarks.At(1, 3))

	idx, err := DecodeCommentSetIndex(filepath.Join(dir, "MAT1.IDX"))
	require.NoError(t, err)
	require.Len(t, idx.Sets, 1)
	assert.Equal(t, "R1", idx.Sets[0].Extension())
	assert.Equal(t, 120, idx.Sets[0].MaxChars)

	sets, err := DecodeCommentSetRemarks(filepath.Join(dir, "MAT1.R1"), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Works hard", "Needs focus", "Excellent"}, sets.Remarks)

	att, err := DecodeAttendance(filepath.Join(dir, "MAT1.ATN"))
	require.NoError(t, err)
	assert.Equal(t, 9, att.StartMonth)
	assert.Equal(t, "SSSS", att.TypeOfDay[0])
	assert.Equal(t, 9, att.CalendarMonth(0))
	assert.Equal(t, 1, att.CalendarMonth(4))
	assert.Equal(t, 8, att.CalendarMonth(11))
	require.Len(t, att.Students, 3)
	assert.Equal(t, "AAP", att.Students[0].DayCodes[0])
	assert.Equal(t, "P", att.Students[2].DayCodes[0])

	plan, err := DecodeSeating(filepath.Join(dir, "MAT1.SPL"))
	require.NoError(t, err)
	assert.Equal(t, 6, plan.Capacity())
	assert.Equal(t, []bool{false, false, true, false, false, false}, plan.Blocked)
	assert.Equal(t, []int{1, 0, 6}, plan.SeatCodes)
	row, col, ok := plan.SeatPosition(6)
	assert.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 2, col)

	codes, err := DecodeDeviceCodes(filepath.Join(dir, "MAT1.ICC"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A1", "B2"}, {"C3", ""}, {"", ""}}, codes.Rows)

	books, err := DecodeLoanedItems(filepath.Join(dir, "MAT1.TBK"))
	require.NoError(t, err)
	require.Len(t, books.Books, 1)
	assert.Equal(t, "Math 9, 2nd ed", books.Books[0].Title)
	assert.Equal(t, 24.95, books.Books[0].Cost)
	assert.Equal(t, LoanedItem{ItemID: "B-17", Note: "worn cover"}, books.Books[0].Loans[0])
	assert.True(t, books.Books[0].Loans[2].Empty())

	bank, err := DecodeCommentBank(filepath.Join(dir, "GENERAL.BNK"))
	require.NoError(t, err)
	assert.Equal(t, "General comments", bank.Title)
	require.Len(t, bank.Entries, 2)
	assert.Equal(t, "Shows strong effort, every day", bank.Entries[0].Text)
}

func TestDecodeCompanionErrors(t *testing.T) {
	dir := t.TempDir()

	seat := writeFile(t, dir, "S.SPL", "2,2", "0000", "1", "9")
	_, err := DecodeSeating(seat)
	assert.ErrorIs(t, err, ErrParseFailed)

	att := writeFile(t, dir, "S.ATN", "13", "0")
	_, err = DecodeAttendance(att)
	assert.ErrorIs(t, err, ErrParseFailed)

	types := writeFile(t, dir, "S.TYP", "1", "8")
	_, err = DecodeAssessmentTypes(types)
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = DecodeAttendance(filepath.Join(dir, "NONE.ATN"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindAttendance, KindOf(err))
}

func TestDecodeCP437Text(t *testing.T) {
	dir := t.TempDir()
	// 0x82 is e-acute in code page 437; 0x1a terminates the file.
	path := filepath.Join(dir, "CP.BNK")
	require.NoError(t, writeRaw(path, []byte("Caf\x82 notes\r\n1,1,Tr\x82s bien\r\n\x1agarbage")))

	bank, err := DecodeCommentBank(path)
	require.NoError(t, err)
	assert.Equal(t, "Café notes", bank.Title)
	require.Len(t, bank.Entries, 1)
	assert.Equal(t, "Trés bien", bank.Entries[0].Text)
}

func TestDecodersRejectOversizedCounts(t *testing.T) {
	const huge = "9223372036854775807"
	dir := t.TempDir()

	cases := []struct {
		name   string
		file   string
		lines  []string
		kind   Kind
		decode func(string) error
	}{
		{"roster mark sets", "A.CL", []string{"Class", "C1", huge}, KindRoster, func(p string) error { _, err := DecodeClassRoster(p); return err }},
		{"roster students", "B.CL", []string{"Class", "C1", "0", "1001"}, KindRoster, func(p string) error { _, err := DecodeClassRoster(p); return err }},
		{"mark file categories", "X.T1", []string{huge}, KindMarkFile, func(p string) error { _, err := DecodeMarkFile(p); return err }},
		{"mark file assessments", "X.T2", []string{"0", huge}, KindMarkFile, func(p string) error { _, err := DecodeMarkFile(p); return err }},
		{"mark file students", "X.T3", []string{"0", "1", ",,0,0,1,10,0,0,A", huge}, KindMarkFile, func(p string) error { _, err := DecodeMarkFile(p); return err }},
		{"types", "X.TYP", []string{huge}, KindAssessmentTypes, func(p string) error { _, err := DecodeAssessmentTypes(p); return err }},
		{"remarks", "X.RMK", []string{huge + ",1"}, KindRemarks, func(p string) error { _, err := DecodeRemarks(p); return err }},
		{"remarks students", "Y.RMK", []string{"1," + huge}, KindRemarks, func(p string) error { _, err := DecodeRemarks(p); return err }},
		{"comment index", "X.IDX", []string{huge}, KindCommentIndex, func(p string) error { _, err := DecodeCommentSetIndex(p); return err }},
		{"comment set", "X.R1", []string{huge}, KindCommentSet, func(p string) error { _, err := DecodeCommentSetRemarks(p, 1); return err }},
		{"attendance", "X.ATN", []string{"9", huge}, KindAttendance, func(p string) error { _, err := DecodeAttendance(p); return err }},
		{"seating students", "X.SPL", []string{"2,2", "0000", huge}, KindSeating, func(p string) error { _, err := DecodeSeating(p); return err }},
		{"device codes", "X.ICC", []string{"100000000,1000"}, KindDeviceCodes, func(p string) error { _, err := DecodeDeviceCodes(p); return err }},
		{"device subjects", "Y.ICC", []string{"3," + huge}, KindDeviceCodes, func(p string) error { _, err := DecodeDeviceCodes(p); return err }},
		{"loaned books", "X.TBK", []string{huge, "1"}, KindLoanedItems, func(p string) error { _, err := DecodeLoanedItems(p); return err }},
		{"loaned students", "Y.TBK", []string{"1", huge}, KindLoanedItems, func(p string) error { _, err := DecodeLoanedItems(p); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, tc.file, tc.lines...)
			var err error
			require.NotPanics(t, func() { err = tc.decode(path) })
			assert.ErrorIs(t, err, ErrParseFailed)
			assert.Equal(t, tc.kind, KindOf(err))
			assert.Contains(t, err.Error(), "exceeds limit")
		})
	}
}

func TestDecodeSeatingRejectsOversizedGrid(t *testing.T) {
	dir := t.TempDir()

	wrap := writeFile(t, dir, "W.SPL", "4294967296,4294967296", "", "0")
	_, err := DecodeSeating(wrap)
	assert.ErrorIs(t, err, ErrParseFailed)

	wide := writeFile(t, dir, "S.SPL", "2,51", "", "0")
	_, err = DecodeSeating(wide)
	assert.ErrorIs(t, err, ErrParseFailed)

	edge := writeFile(t, dir, "E.SPL", "50,50", "", "1", "2500")
	plan, err := DecodeSeating(edge)
	require.NoError(t, err)
	assert.Equal(t, 2500, plan.Capacity())
	assert.Equal(t, []int{2500}, plan.SeatCodes)
}
