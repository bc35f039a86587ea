package service

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/markbookdev/markbook-classic-sub000/internal/legacy"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
)

// bundleBuilder turns a decoded folder into persistable rows. Ordinals are
// resolved to student IDs once, in roster order.
type bundleBuilder struct {
	newID     func() string
	classID   string
	byOrdinal map[int]string
}

// BuildBundle maps a decoded legacy folder onto the persistence model.
// legacyFolder is the folder path relative to the import root.
func BuildBundle(folder *legacy.Folder, legacyFolder string) *models.LegacyClassBundle {
	return buildBundle(folder, legacyFolder, uuid.NewString)
}

func buildBundle(folder *legacy.Folder, legacyFolder string, newID func() string) *models.LegacyClassBundle {
	b := &bundleBuilder{newID: newID, classID: newID(), byOrdinal: make(map[int]string)}
	roster := folder.Roster

	bundle := &models.LegacyClassBundle{
		Class: models.Class{
			ID:           b.classID,
			Name:         roster.ClassName,
			Code:         roster.ClassCode,
			LegacyFolder: legacyFolder,
		},
	}

	limit := len(roster.Students)
	if roster.DeclaredStudents < limit {
		limit = roster.DeclaredStudents
	}
	bundle.Students = make([]models.Student, 0, limit)
	for i, rs := range roster.Students[:limit] {
		student := models.Student{
			ID:             newID(),
			ClassID:        b.classID,
			LastName:       rs.LastName,
			FirstName:      rs.FirstName,
			DisplayName:    rs.DisplayName(),
			StudentNumber:  rs.StudentNumber,
			BirthDate:      rs.BirthDate,
			Active:         rs.Active,
			EnrollmentMask: rs.EnrollmentMask,
			SortOrder:      i,
			RawLine:        rs.RawLine,
		}
		b.byOrdinal[rs.Ordinal] = student.ID
		bundle.Students = append(bundle.Students, student)
	}

	for _, dm := range folder.MarkSets {
		bundle.MarkSets = append(bundle.MarkSets, b.markSet(dm))
	}

	if folder.Attendance != nil {
		b.attendance(bundle, folder.Attendance)
	}
	if folder.Seating != nil {
		b.seating(bundle, folder.Seating)
	}
	if folder.DeviceCodes != nil {
		b.deviceCodes(bundle, folder.DeviceCodes)
	}
	if folder.LoanedItems != nil {
		b.loanedItems(bundle, folder.LoanedItems)
	}
	for _, bank := range folder.CommentBanks {
		bundle.CommentBanks = append(bundle.CommentBanks, b.commentBank(bank))
	}
	return bundle
}

// student returns the ID for a 1-based ordinal, or "" when the roster has no such row.
func (b *bundleBuilder) student(ordinal int) string {
	return b.byOrdinal[ordinal]
}

func (b *bundleBuilder) markSet(dm legacy.DecodedMarkSet) models.MarkSetBundle {
	marks := dm.Marks
	ms := models.MarkSet{
		ID:           b.newID(),
		ClassID:      b.classID,
		Code:         dm.Def.Code,
		FilePrefix:   dm.Def.FilePrefix,
		Description:  dm.Def.Description,
		Weight:       dm.Def.Weight,
		SortOrder:    dm.Def.SortOrder,
		WeightMethod: marks.WeightMethod(),
		CalcMethod:   marks.CalcMethod(),
		RawLine:      dm.Def.RawLine,
	}
	if h := marks.Header; h != nil {
		ms.FullCode, ms.Room, ms.Day, ms.Period = h.FullCode, h.Room, h.Day, h.Period
	}
	out := models.MarkSetBundle{MarkSet: ms}

	for i, c := range marks.Categories {
		out.Categories = append(out.Categories, models.MarkSetCategory{
			ID:        b.newID(),
			MarkSetID: ms.ID,
			Name:      c.Name,
			Weight:    c.Weight,
			SortOrder: i,
		})
	}

	for _, entry := range marks.Assessments {
		assessment := models.Assessment{
			ID:               b.newID(),
			MarkSetID:        ms.ID,
			Idx:              entry.Index,
			Date:             entry.Date,
			CategoryName:     entry.Category,
			Title:            entry.Title,
			Term:             entry.Term,
			LegacyKind:       entry.LegacyKind,
			Type:             int(dm.Types.TypeAt(entry.Index)),
			Weight:           entry.Weight,
			OutOf:            entry.OutOf,
			LegacyAvgPercent: entry.LegacyAvgPercent,
			LegacyAvgRaw:     entry.LegacyAvgRaw,
			RawLine:          entry.RawLine,
		}
		out.Assessments = append(out.Assessments, assessment)

		if entry.Index >= len(marks.Scores) {
			continue
		}
		for pos, score := range marks.Scores[entry.Index] {
			ordinal := pos + 1
			studentID := b.student(ordinal)
			if studentID == "" {
				continue
			}
			remark := dm.Remarks.At(entry.Index, ordinal)
			// Blank cells are implied by absence.
			if score.IsNoMark() && remark == "" {
				continue
			}
			out.Scores = append(out.Scores, models.Score{
				AssessmentID: assessment.ID,
				StudentID:    studentID,
				RawValue:     legacy.Encode(score),
				Remark:       remark,
			})
		}
	}

	if dm.CommentIndex != nil {
		decoded := make(map[int]*legacy.CommentSetRemarks, len(dm.CommentSets))
		for _, cs := range dm.CommentSets {
			if cs != nil {
				decoded[cs.SetNumber] = cs
			}
		}
		for _, def := range dm.CommentIndex.Sets {
			set := models.CommentSet{
				ID:        b.newID(),
				MarkSetID: ms.ID,
				SetNumber: def.SetNumber,
				Title:     def.Title,
				FitMode:   def.FitMode,
				MaxChars:  def.MaxChars,
			}
			cb := models.CommentSetBundle{Set: set}
			if remarks, ok := decoded[def.SetNumber]; ok {
				for pos, text := range remarks.Remarks {
					studentID := b.student(pos + 1)
					if studentID == "" || text == "" {
						continue
					}
					cb.Remarks = append(cb.Remarks, models.CommentSetRemark{CommentSetID: set.ID, StudentID: studentID, Remark: text})
				}
			}
			out.CommentSets = append(out.CommentSets, cb)
		}
	}
	return out
}

func (b *bundleBuilder) attendance(bundle *models.LegacyClassBundle, atn *legacy.Attendance) {
	for k := 0; k < legacy.SchoolMonths; k++ {
		bundle.AttendanceMonths = append(bundle.AttendanceMonths, models.ClassAttendanceMonth{
			ID:            b.newID(),
			ClassID:       b.classID,
			SchoolMonth:   k + 1,
			CalendarMonth: atn.CalendarMonth(k),
			TypeOfDay:     atn.TypeOfDay[k],
		})
	}
	for _, row := range atn.Students {
		studentID := b.student(row.Ordinal)
		if studentID == "" {
			continue
		}
		for k, codes := range row.DayCodes {
			if codes == "" {
				continue
			}
			bundle.StudentAttendance = append(bundle.StudentAttendance, models.StudentAttendanceMonth{
				ID:          b.newID(),
				StudentID:   studentID,
				SchoolMonth: k + 1,
				DayCodes:    codes,
			})
		}
	}
}

func (b *bundleBuilder) seating(bundle *models.LegacyClassBundle, spl *legacy.Seating) {
	var mask strings.Builder
	for _, blocked := range spl.Blocked {
		if blocked {
			mask.WriteByte('1')
		} else {
			mask.WriteByte('0')
		}
	}
	bundle.Seating = &models.SeatingPlan{
		ClassID:     b.classID,
		Rows:        spl.Rows,
		SeatsPerRow: spl.SeatsPerRow,
		BlockedMask: mask.String(),
	}
	for pos, code := range spl.SeatCodes {
		studentID := b.student(pos + 1)
		if studentID == "" || code == 0 {
			continue
		}
		bundle.SeatAssignments = append(bundle.SeatAssignments, models.SeatAssignment{StudentID: studentID, SeatCode: code})
	}
}

func (b *bundleBuilder) deviceCodes(bundle *models.LegacyClassBundle, icc *legacy.DeviceCodes) {
	for pos, row := range icc.Rows {
		studentID := b.student(pos + 1)
		if studentID == "" {
			continue
		}
		for subject, code := range row {
			if code == "" {
				continue
			}
			bundle.DeviceCodes = append(bundle.DeviceCodes, models.DeviceCode{StudentID: studentID, Position: subject + 1, Code: code})
		}
	}
}

func (b *bundleBuilder) loanedItems(bundle *models.LegacyClassBundle, tbk *legacy.LoanedItems) {
	for i, book := range tbk.Books {
		lb := models.LoanedBook{
			ID:        b.newID(),
			ClassID:   b.classID,
			Title:     book.Title,
			Publisher: book.Publisher,
			Cost:      book.Cost,
			SortOrder: i,
		}
		bundle.LoanedBooks = append(bundle.LoanedBooks, lb)
		for pos, item := range book.Loans {
			studentID := b.student(pos + 1)
			if studentID == "" || item.Empty() {
				continue
			}
			bundle.Loans = append(bundle.Loans, models.Loan{BookID: lb.ID, StudentID: studentID, ItemID: item.ItemID, Note: item.Note})
		}
	}
}

func (b *bundleBuilder) commentBank(bank *legacy.CommentBank) models.CommentBankBundle {
	out := models.CommentBankBundle{Bank: models.CommentBank{
		ID:         b.newID(),
		ClassID:    b.classID,
		Title:      bank.Title,
		SourceFile: filepath.Base(bank.Path),
	}}
	for i, entry := range bank.Entries {
		out.Entries = append(out.Entries, models.CommentBankEntry{
			BankID:    out.Bank.ID,
			SortOrder: i,
			TypeCode:  entry.TypeCode,
			LevelCode: entry.LevelCode,
			Text:      entry.Text,
		})
	}
	return out
}
