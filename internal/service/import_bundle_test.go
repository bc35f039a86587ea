package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markbookdev/markbook-classic-sub000/internal/legacy"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
)

func writeLegacyFile(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o644))
}

// writeLegacyClass lays down a complete three-student class folder under root.
func writeLegacyClass(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeLegacyFile(t, dir, "MAT1.CL",
		"Grade 9 Mathematics",
		"MAT1D1",
		"1",
		"T1,MAT1,1.5,0,Term 1, Fall",
		"3",
		"1,Adams,Ann,1001,2009-03-04,111",
		"0,Brown,Ben,1002,2009-05-06,111",
		"1,Chen,Cal,1003,2009-07-08,011",
	)
	writeLegacyFile(t, dir, "MAT1.T1",
		"[MISC]",
		"MAT1D1-T1,204,MON,2,1,0",
		"2",
		"60,Knowledge",
		"40,Application",
		"2",
		"2024-09-10,Knowledge,1,0,1,10,50,2.5,Quiz 1",
		"2024-09-20,Application,1,0,2,20,0,0,Test, part A",
		"3",
		"0,-1,5",
		"5,0,-1",
	)
	writeLegacyFile(t, dir, "mat1.typ", "2", "1", "0")
	writeLegacyFile(t, dir, "MAT1.RMK", "2,3", "late", "", "great", "ok")
	writeLegacyFile(t, dir, "MAT1.IDX", "1", "1,0,120,Term comments")
	writeLegacyFile(t, dir, "MAT1.R1", "3", "Works hard", "Needs focus", "Excellent")
	writeLegacyFile(t, dir, "MAT1.ATN", "9", "3", "SSSS", "", "", "", "", "", "", "", "", "", "", "", "AAP,,", ",,", "P")
	writeLegacyFile(t, dir, "MAT1.SPL", "2,3", "001000", "3", "1", "0", "6")
	writeLegacyFile(t, dir, "MAT1.ICC", "3,2", "A1,B2", "C3", "")
	writeLegacyFile(t, dir, "MAT1.TBK", "1", "3", "24.95,Nelson,Math 9, 2nd ed", "B-17,worn cover", "B-18,", "")
	writeLegacyFile(t, dir, "GENERAL.BNK", "General comments", "1,2,Shows strong effort, every day", "", "2,1,Participates")
	return dir
}

func decodeLegacyClass(t *testing.T, dir string) *legacy.Folder {
	t.Helper()
	files, err := legacy.Discover(dir)
	require.NoError(t, err)
	folder, err := legacy.DecodeFolder(context.Background(), files)
	require.NoError(t, err)
	return folder
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestBuildBundleResolvesOrdinals(t *testing.T) {
	folder := decodeLegacyClass(t, writeLegacyClass(t, t.TempDir(), "MAT1"))

	bundle := buildBundle(folder, "MAT1", sequentialIDs())

	assert.Equal(t, "id-1", bundle.Class.ID)
	assert.Equal(t, "Grade 9 Mathematics", bundle.Class.Name)
	assert.Equal(t, "MAT1", bundle.Class.LegacyFolder)
	require.Len(t, bundle.Students, 3)
	for i, s := range bundle.Students {
		assert.Equal(t, bundle.Class.ID, s.ClassID)
		assert.Equal(t, i, s.SortOrder)
	}
	assert.False(t, bundle.Students[1].Active)
	assert.Equal(t, "011", bundle.Students[2].EnrollmentMask)

	require.Len(t, bundle.MarkSets, 1)
	ms := bundle.MarkSets[0]
	assert.Equal(t, "T1", ms.MarkSet.Code)
	assert.Equal(t, "204", ms.MarkSet.Room)
	assert.Len(t, ms.Categories, 2)
	require.Len(t, ms.Assessments, 2)
	assert.Equal(t, 1, ms.Assessments[0].Type)
	assert.Equal(t, 0, ms.Assessments[1].Type)
	assert.Equal(t, "Test, part A", ms.Assessments[1].Title)
}

func TestBuildBundleStoresScoresSparsely(t *testing.T) {
	folder := decodeLegacyClass(t, writeLegacyClass(t, t.TempDir(), "MAT1"))
	bundle := buildBundle(folder, "MAT1", sequentialIDs())

	ms := bundle.MarkSets[0]
	students := bundle.Students
	byCell := make(map[string]models.Score, len(ms.Scores))
	for _, sc := range ms.Scores {
		byCell[sc.AssessmentID+"/"+sc.StudentID] = sc
	}
	first, second := ms.Assessments[0].ID, ms.Assessments[1].ID

	// No mark with a remark is kept so the remark survives.
	kept := byCell[first+"/"+students[0].ID]
	assert.Equal(t, 0.0, kept.RawValue)
	assert.Equal(t, "late", kept.Remark)
	assert.Equal(t, legacy.ZeroSentinel, byCell[first+"/"+students[1].ID].RawValue)
	assert.Equal(t, 5.0, byCell[first+"/"+students[2].ID].RawValue)
	assert.Equal(t, "great", byCell[first+"/"+students[2].ID].Remark)
	assert.Equal(t, "ok", byCell[second+"/"+students[0].ID].Remark)

	_, blank := byCell[second+"/"+students[1].ID]
	assert.False(t, blank)
	assert.Len(t, ms.Scores, 5)
	assert.Equal(t, 5, bundle.ScoreCount())
	assert.Equal(t, 2, bundle.AssessmentCount())
}

func TestBuildBundleCompanions(t *testing.T) {
	folder := decodeLegacyClass(t, writeLegacyClass(t, t.TempDir(), "MAT1"))
	bundle := buildBundle(folder, "MAT1", sequentialIDs())
	students := bundle.Students

	require.Len(t, bundle.MarkSets[0].CommentSets, 1)
	cs := bundle.MarkSets[0].CommentSets[0]
	assert.Equal(t, 1, cs.Set.SetNumber)
	assert.Equal(t, "Term comments", cs.Set.Title)
	assert.Len(t, cs.Remarks, 3)

	require.Len(t, bundle.AttendanceMonths, legacy.SchoolMonths)
	assert.Equal(t, 1, bundle.AttendanceMonths[0].SchoolMonth)
	assert.Equal(t, 9, bundle.AttendanceMonths[0].CalendarMonth)
	assert.Equal(t, "SSSS", bundle.AttendanceMonths[0].TypeOfDay)
	assert.Equal(t, 8, bundle.AttendanceMonths[11].CalendarMonth)
	require.Len(t, bundle.StudentAttendance, 2)
	assert.Equal(t, students[0].ID, bundle.StudentAttendance[0].StudentID)
	assert.Equal(t, "AAP", bundle.StudentAttendance[0].DayCodes)
	assert.Equal(t, students[2].ID, bundle.StudentAttendance[1].StudentID)

	require.NotNil(t, bundle.Seating)
	assert.Equal(t, "001000", bundle.Seating.BlockedMask)
	require.Len(t, bundle.SeatAssignments, 2)
	assert.Equal(t, models.SeatAssignment{StudentID: students[2].ID, SeatCode: 6}, bundle.SeatAssignments[1])

	require.Len(t, bundle.DeviceCodes, 3)
	assert.Equal(t, models.DeviceCode{StudentID: students[0].ID, Position: 2, Code: "B2"}, bundle.DeviceCodes[1])

	require.Len(t, bundle.LoanedBooks, 1)
	assert.Equal(t, "Math 9, 2nd ed", bundle.LoanedBooks[0].Title)
	require.Len(t, bundle.Loans, 2)
	assert.Equal(t, "B-18", bundle.Loans[1].ItemID)

	require.Len(t, bundle.CommentBanks, 1)
	assert.Equal(t, "GENERAL.BNK", bundle.CommentBanks[0].Bank.SourceFile)
	assert.NotEmpty(t, bundle.CommentBanks[0].Entries)
}

func TestBuildBundleTruncatesToDeclaredCount(t *testing.T) {
	dir := writeLegacyClass(t, t.TempDir(), "MAT1")
	folder := decodeLegacyClass(t, dir)
	folder.Roster.DeclaredStudents = 2

	bundle := buildBundle(folder, "MAT1", sequentialIDs())

	assert.Len(t, bundle.Students, 2)
	for _, sc := range bundle.MarkSets[0].Scores {
		assert.NotEqual(t, "", sc.StudentID)
	}
	assert.Len(t, bundle.MarkSets[0].Scores, 3)
}
