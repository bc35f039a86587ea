package legacy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o644))
	return path
}

// writeClassFolder lays down a complete three-student class with one mark set.
func writeClassFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "MAT1.CL",
		"Grade 9 Mathematics",
		"MAT1D1",
		"1",
		"T1,MAT1,1.5,0,Term 1, Fall",
		"3",
		"1,Adams,Ann,1001,2009-03-04,111",
		"0,Brown,Ben,1002,2009-05-06,111",
		"1,Chen,Cal,1003,2009-07-08,011",
	)
	writeFile(t, dir, "MAT1.T1",
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
	writeFile(t, dir, "mat1.typ", "2", "1", "0")
	writeFile(t, dir, "MAT1.RMK", "2,3", "late", "", "great", "ok")
	writeFile(t, dir, "MAT1.IDX", "1", "1,0,120,Term comments")
	writeFile(t, dir, "MAT1.R1", "3", "Works hard", "Needs focus", "Excellent")
	writeFile(t, dir, "MAT1.ATN", "9", "3", "SSSS", "", "", "", "", "", "", "", "", "", "", "", "AAP,,", ",,", "P")
	writeFile(t, dir, "MAT1.SPL", "2,3", "001000", "3", "1", "0", "6")
	writeFile(t, dir, "MAT1.ICC", "3,2", "A1,B2", "C3", "")
	writeFile(t, dir, "MAT1.TBK", "1", "3", "24.95,Nelson,Math 9, 2nd ed", "B-17,worn cover", "B-18,", "")
	writeFile(t, dir, "GENERAL.BNK", "General comments", "1,2,Shows strong effort, every day", "", "2,1,Participates")
	return dir
}
