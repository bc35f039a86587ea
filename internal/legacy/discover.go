package legacy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Companion extensions keyed to the class file base name.
const (
	extClass       = "CL"
	extAttendance  = "ATN"
	extSeating     = "SPL"
	extDeviceCodes = "ICC"
	extLoanedItems = "TBK"
	extCommentBank = "BNK"
	extTypes       = "TYP"
	extRemarks     = "RMK"
	extIndex       = "IDX"
)

// FileSet is a legacy class folder resolved by naming convention.
// Optional companions are empty strings when absent.
type FileSet struct {
	Folder       string   `json:"folder"`
	ClassFile    string   `json:"classFile"`
	ClassBase    string   `json:"classBase"`
	Attendance   string   `json:"attendance,omitempty"`
	Seating      string   `json:"seating,omitempty"`
	DeviceCodes  string   `json:"deviceCodes,omitempty"`
	LoanedItems  string   `json:"loanedItems,omitempty"`
	CommentBanks []string `json:"commentBanks,omitempty"`

	entries map[string]string
}

// MarkSetFiles are the resolved files for one declared mark set.
type MarkSetFiles struct {
	MarkFile     string `json:"markFile,omitempty"`
	Types        string `json:"types,omitempty"`
	Remarks      string `json:"remarks,omitempty"`
	CommentIndex string `json:"commentIndex,omitempty"`
	// ExpectedMarkFile is the conventional name used in not-found reports.
	ExpectedMarkFile string `json:"expectedMarkFile"`
}

// Discover lists folder once and resolves every file kind case-insensitively.
func Discover(folder string) (*FileSet, error) {
	dirEntries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: KindRoster, Path: folder}
		}
		return nil, fmt.Errorf("read legacy folder %s: %w", folder, err)
	}
	set := &FileSet{Folder: folder, entries: make(map[string]string, len(dirEntries))}
	var classFiles []string
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		set.entries[strings.ToUpper(name)] = name
		switch strings.ToUpper(strings.TrimPrefix(filepath.Ext(name), ".")) {
		case extClass:
			classFiles = append(classFiles, name)
		case extCommentBank:
			set.CommentBanks = append(set.CommentBanks, filepath.Join(folder, name))
		}
	}
	switch len(classFiles) {
	case 0:
		return nil, &NotFoundError{Kind: KindRoster, Path: filepath.Join(folder, "*."+extClass)}
	case 1:
	default:
		sort.Strings(classFiles)
		return nil, &ParseError{Kind: KindRoster, Path: folder, Reason: fmt.Sprintf("expected one class file, found %s", strings.Join(classFiles, ", "))}
	}
	sort.Strings(set.CommentBanks)

	set.ClassFile = filepath.Join(folder, classFiles[0])
	set.ClassBase = strings.TrimSuffix(classFiles[0], filepath.Ext(classFiles[0]))
	set.Attendance = set.Lookup(set.ClassBase, extAttendance)
	set.Seating = set.Lookup(set.ClassBase, extSeating)
	set.DeviceCodes = set.Lookup(set.ClassBase, extDeviceCodes)
	set.LoanedItems = set.Lookup(set.ClassBase, extLoanedItems)
	return set, nil
}

// Lookup returns the path of base.ext when present, or "".
func (s *FileSet) Lookup(base, ext string) string {
	name, ok := s.entries[strings.ToUpper(base+"."+ext)]
	if !ok {
		return ""
	}
	return filepath.Join(s.Folder, name)
}

// Expected is the conventional path for base.ext regardless of presence.
func (s *FileSet) Expected(base, ext string) string {
	if path := s.Lookup(base, ext); path != "" {
		return path
	}
	return filepath.Join(s.Folder, base+"."+ext)
}

// MarkSet resolves the files for a declared mark set.
func (s *FileSet) MarkSet(def MarkSetDef) MarkSetFiles {
	return MarkSetFiles{
		MarkFile:         s.Lookup(def.FilePrefix, def.Code),
		Types:            s.Lookup(def.FilePrefix, extTypes),
		Remarks:          s.Lookup(def.FilePrefix, extRemarks),
		CommentIndex:     s.Lookup(def.FilePrefix, extIndex),
		ExpectedMarkFile: s.Expected(def.FilePrefix, def.Code),
	}
}

// CommentSetFile resolves the .R<n> file for a comment set, or "".
func (s *FileSet) CommentSetFile(prefix string, def CommentSetDef) string {
	return s.Lookup(prefix, def.Extension())
}

// ExpectedCompanion returns the conventional path of an absent class companion.
func (s *FileSet) ExpectedCompanion(kind Kind) string {
	switch kind {
	case KindAttendance:
		return s.Expected(s.ClassBase, extAttendance)
	case KindSeating:
		return s.Expected(s.ClassBase, extSeating)
	case KindDeviceCodes:
		return s.Expected(s.ClassBase, extDeviceCodes)
	case KindLoanedItems:
		return s.Expected(s.ClassBase, extLoanedItems)
	case KindCommentBank:
		return filepath.Join(s.Folder, "*."+extCommentBank)
	default:
		return s.Folder
	}
}
