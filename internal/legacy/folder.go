package legacy

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Warning codes for absent optional companions.
const (
	WarnMissingAttendance   = "legacy_missing_attendance_file"
	WarnMissingSeating      = "legacy_missing_seating_file"
	WarnMissingDeviceCodes  = "legacy_missing_device_code_file"
	WarnMissingLoanedItems  = "legacy_missing_loaned_items_file"
	WarnMissingCommentBank  = "legacy_missing_comment_bank_file"
	WarnMissingTypes        = "legacy_missing_type_file"
	WarnMissingRemarks      = "legacy_missing_remarks_file"
	WarnMissingCommentIndex = "legacy_missing_comment_index_file"
	WarnMissingCommentSet   = "legacy_missing_comment_set_file"
)

// Warning records a non-fatal absence.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Folder is every record decoded from one class folder.
type Folder struct {
	Files        *FileSet         `json:"files"`
	Roster       *ClassRoster     `json:"roster"`
	MarkSets     []DecodedMarkSet `json:"markSets"`
	Attendance   *Attendance      `json:"attendance,omitempty"`
	Seating      *Seating         `json:"seating,omitempty"`
	DeviceCodes  *DeviceCodes     `json:"deviceCodes,omitempty"`
	LoanedItems  *LoanedItems     `json:"loanedItems,omitempty"`
	CommentBanks []*CommentBank   `json:"commentBanks,omitempty"`
	Warnings     []Warning        `json:"warnings"`
}

// DecodedMarkSet groups a mark set definition with its decoded files.
type DecodedMarkSet struct {
	Def          MarkSetDef           `json:"def"`
	Files        MarkSetFiles         `json:"files"`
	Marks        *MarkFile            `json:"marks"`
	Types        *AssessmentTypeMap   `json:"types,omitempty"`
	Remarks      *RemarksMatrix       `json:"remarks,omitempty"`
	CommentIndex *CommentSetIndex     `json:"commentIndex,omitempty"`
	CommentSets  []*CommentSetRemarks `json:"commentSets,omitempty"`
}

// DecodeFolder decodes the roster, then every mark set and companion in parallel.
// Any parse failure, or a missing roster or mark file, aborts the whole decode.
// Absent optional companions are reported as warnings.
func DecodeFolder(ctx context.Context, files *FileSet) (*Folder, error) {
	roster, err := DecodeClassRoster(files.ClassFile)
	if err != nil {
		return nil, err
	}
	out := &Folder{Files: files, Roster: roster, MarkSets: make([]DecodedMarkSet, len(roster.MarkSets))}

	var mu sync.Mutex
	// Warnings are bucketed by slot so their order does not depend on scheduling.
	slots := make([][]Warning, len(roster.MarkSets)+5)
	warn := func(slot int, w Warning) {
		mu.Lock()
		slots[slot] = append(slots[slot], w)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, def := range roster.MarkSets {
		i, def := i, def
		g.Go(guarded(KindMarkFile, files.MarkSet(def).MarkFile, func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			decoded, err := decodeMarkSet(files, def, func(w Warning) { warn(i, w) })
			if err != nil {
				return err
			}
			out.MarkSets[i] = *decoded
			return nil
		}))
	}

	base := len(roster.MarkSets)
	optional := []struct {
		path    string
		kind    Kind
		code    string
		decode  func(string) error
		message string
	}{
		{files.Attendance, KindAttendance, WarnMissingAttendance, func(p string) (err error) { out.Attendance, err = DecodeAttendance(p); return }, "attendance file not found"},
		{files.Seating, KindSeating, WarnMissingSeating, func(p string) (err error) { out.Seating, err = DecodeSeating(p); return }, "seating file not found"},
		{files.DeviceCodes, KindDeviceCodes, WarnMissingDeviceCodes, func(p string) (err error) { out.DeviceCodes, err = DecodeDeviceCodes(p); return }, "device code file not found"},
		{files.LoanedItems, KindLoanedItems, WarnMissingLoanedItems, func(p string) (err error) { out.LoanedItems, err = DecodeLoanedItems(p); return }, "loaned items file not found"},
	}
	for j, item := range optional {
		slot, item := base+j, item
		if item.path == "" {
			warn(slot, Warning{Code: item.code, Message: item.message, Path: files.ExpectedCompanion(item.kind)})
			continue
		}
		g.Go(guarded(item.kind, item.path, func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return item.decode(item.path)
		}))
	}

	bankSlot := base + len(optional)
	if len(files.CommentBanks) == 0 {
		warn(bankSlot, Warning{Code: WarnMissingCommentBank, Message: "no comment bank files found", Path: files.ExpectedCompanion(KindCommentBank)})
	}
	out.CommentBanks = make([]*CommentBank, len(files.CommentBanks))
	for j, path := range files.CommentBanks {
		j, path := j, path
		g.Go(guarded(KindCommentBank, path, func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bank, err := DecodeCommentBank(path)
			if err != nil {
				return err
			}
			out.CommentBanks[j] = bank
			return nil
		}))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, slot := range slots {
		out.Warnings = append(out.Warnings, slot...)
	}
	if out.Warnings == nil {
		out.Warnings = []Warning{}
	}
	return out, nil
}

// guarded reports a panic inside fn as a ParseError for path.
func guarded(kind Kind, path string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = &ParseError{Kind: kind, Path: path, Reason: fmt.Sprintf("decoder panic: %v", rec)}
			}
		}()
		return fn()
	}
}

func decodeMarkSet(files *FileSet, def MarkSetDef, warn func(Warning)) (*DecodedMarkSet, error) {
	resolved := files.MarkSet(def)
	if resolved.MarkFile == "" {
		return nil, &NotFoundError{Kind: KindMarkFile, Path: resolved.ExpectedMarkFile}
	}
	marks, err := DecodeMarkFile(resolved.MarkFile)
	if err != nil {
		return nil, err
	}
	out := &DecodedMarkSet{Def: def, Files: resolved, Marks: marks}

	if resolved.Types == "" {
		warn(Warning{Code: WarnMissingTypes, Message: fmt.Sprintf("mark set %s has no assessment type file", def.Code), Path: files.Expected(def.FilePrefix, extTypes)})
	} else if out.Types, err = DecodeAssessmentTypes(resolved.Types); err != nil {
		return nil, err
	}

	if resolved.Remarks == "" {
		warn(Warning{Code: WarnMissingRemarks, Message: fmt.Sprintf("mark set %s has no remarks file", def.Code), Path: files.Expected(def.FilePrefix, extRemarks)})
	} else if out.Remarks, err = DecodeRemarks(resolved.Remarks); err != nil {
		return nil, err
	}

	if resolved.CommentIndex == "" {
		warn(Warning{Code: WarnMissingCommentIndex, Message: fmt.Sprintf("mark set %s has no comment set index", def.Code), Path: files.Expected(def.FilePrefix, extIndex)})
		return out, nil
	}
	if out.CommentIndex, err = DecodeCommentSetIndex(resolved.CommentIndex); err != nil {
		return nil, err
	}
	for _, set := range out.CommentIndex.Sets {
		path := files.CommentSetFile(def.FilePrefix, set)
		if path == "" {
			warn(Warning{Code: WarnMissingCommentSet, Message: fmt.Sprintf("comment set %d of mark set %s not found", set.SetNumber, def.Code), Path: files.Expected(def.FilePrefix, set.Extension())})
			continue
		}
		remarks, err := DecodeCommentSetRemarks(path, set.SetNumber)
		if err != nil {
			return nil, err
		}
		out.CommentSets = append(out.CommentSets, remarks)
	}
	return out, nil
}
