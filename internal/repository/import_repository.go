package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/markbookdev/markbook-classic-sub000/internal/models"
)

// insertBatchSize keeps bulk statements well under the postgres bind parameter limit.
const insertBatchSize = 500

const (
	insertClass = `INSERT INTO classes (id, name, code, legacy_folder, created_at, updated_at)
        VALUES (:id, :name, :code, :legacy_folder, :created_at, :updated_at)`

	insertStudents = `INSERT INTO students (id, class_id, last_name, first_name, display_name, student_number, birth_date, active,
        enrollment_mask, sort_order, raw_line, created_at, updated_at)
        VALUES (:id, :class_id, :last_name, :first_name, :display_name, :student_number, :birth_date, :active,
        :enrollment_mask, :sort_order, :raw_line, :created_at, :updated_at)`

	insertMarkSet = `INSERT INTO mark_sets (id, class_id, code, file_prefix, description, weight, sort_order, full_code, room, day, period,
        weight_method, calc_method, drop_lowest, raw_line, created_at, updated_at)
        VALUES (:id, :class_id, :code, :file_prefix, :description, :weight, :sort_order, :full_code, :room, :day, :period,
        :weight_method, :calc_method, :drop_lowest, :raw_line, :created_at, :updated_at)`

	insertCategories = `INSERT INTO mark_set_categories (id, mark_set_id, name, weight, sort_order)
        VALUES (:id, :mark_set_id, :name, :weight, :sort_order)`

	insertAssessments = `INSERT INTO assessments (id, mark_set_id, idx, date, category_name, title, term, legacy_kind, type, weight, out_of,
        legacy_avg_percent, legacy_avg_raw, raw_line)
        VALUES (:id, :mark_set_id, :idx, :date, :category_name, :title, :term, :legacy_kind, :type, :weight, :out_of,
        :legacy_avg_percent, :legacy_avg_raw, :raw_line)`

	insertScores = `INSERT INTO scores (assessment_id, student_id, raw_value, remark, updated_at)
        VALUES (:assessment_id, :student_id, :raw_value, :remark, :updated_at)`

	insertCommentSet = `INSERT INTO comment_sets (id, mark_set_id, set_number, title, fit_mode, max_chars)
        VALUES (:id, :mark_set_id, :set_number, :title, :fit_mode, :max_chars)`

	insertCommentSetRemarks = `INSERT INTO comment_set_remarks (comment_set_id, student_id, remark)
        VALUES (:comment_set_id, :student_id, :remark)`

	insertAttendanceMonths = `INSERT INTO class_attendance_months (id, class_id, school_month, calendar_month, type_of_day)
        VALUES (:id, :class_id, :school_month, :calendar_month, :type_of_day)`

	insertStudentAttendance = `INSERT INTO student_attendance_months (id, student_id, school_month, day_codes)
        VALUES (:id, :student_id, :school_month, :day_codes)`

	insertSeatingPlan = `INSERT INTO seating_plans (class_id, rows, seats_per_row, blocked_mask)
        VALUES (:class_id, :rows, :seats_per_row, :blocked_mask)`

	insertSeatAssignments = `INSERT INTO seat_assignments (student_id, seat_code)
        VALUES (:student_id, :seat_code)`

	insertDeviceCodes = `INSERT INTO device_codes (student_id, position, code)
        VALUES (:student_id, :position, :code)`

	insertLoanedBooks = `INSERT INTO loaned_books (id, class_id, title, publisher, cost, sort_order)
        VALUES (:id, :class_id, :title, :publisher, :cost, :sort_order)`

	insertLoans = `INSERT INTO loans (book_id, student_id, item_id, note)
        VALUES (:book_id, :student_id, :item_id, :note)`

	insertCommentBank = `INSERT INTO comment_banks (id, class_id, title, source_file)
        VALUES (:id, :class_id, :title, :source_file)`

	insertCommentBankEntries = `INSERT INTO comment_bank_entries (bank_id, sort_order, type_code, level_code, text)
        VALUES (:bank_id, :sort_order, :type_code, :level_code, :text)`
)

// ImportRepository writes decoded legacy folders.
type ImportRepository struct {
	db *sqlx.DB
}

// NewImportRepository constructs an ImportRepository.
func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// PersistBundle writes the whole bundle in one transaction. A class previously
// imported from the same legacy folder is replaced; its children go with it
// through ON DELETE CASCADE. Any failure rolls everything back.
func (r *ImportRepository) PersistBundle(ctx context.Context, bundle *models.LegacyClassBundle) error {
	if bundle == nil {
		return fmt.Errorf("persist bundle: bundle nil")
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	if err := persistBundleTx(ctx, tx, bundle); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func persistBundleTx(ctx context.Context, tx *sqlx.Tx, bundle *models.LegacyClassBundle) error {
	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx, "DELETE FROM classes WHERE legacy_folder = $1", bundle.Class.LegacyFolder); err != nil {
		return fmt.Errorf("replace previous import: %w", err)
	}

	bundle.Class.CreatedAt, bundle.Class.UpdatedAt = now, now
	if _, err := tx.NamedExecContext(ctx, insertClass, bundle.Class); err != nil {
		return fmt.Errorf("insert class: %w", err)
	}

	for i := range bundle.Students {
		bundle.Students[i].CreatedAt, bundle.Students[i].UpdatedAt = now, now
	}
	if err := insertBatches(ctx, tx, "students", insertStudents, bundle.Students); err != nil {
		return err
	}

	for i := range bundle.MarkSets {
		if err := persistMarkSetTx(ctx, tx, &bundle.MarkSets[i], now); err != nil {
			return err
		}
	}

	if err := insertBatches(ctx, tx, "attendance months", insertAttendanceMonths, bundle.AttendanceMonths); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx, "student attendance", insertStudentAttendance, bundle.StudentAttendance); err != nil {
		return err
	}
	if bundle.Seating != nil {
		if _, err := tx.NamedExecContext(ctx, insertSeatingPlan, bundle.Seating); err != nil {
			return fmt.Errorf("insert seating plan: %w", err)
		}
	}
	if err := insertBatches(ctx, tx, "seat assignments", insertSeatAssignments, bundle.SeatAssignments); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx, "device codes", insertDeviceCodes, bundle.DeviceCodes); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx, "loaned books", insertLoanedBooks, bundle.LoanedBooks); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx, "loans", insertLoans, bundle.Loans); err != nil {
		return err
	}
	for _, bank := range bundle.CommentBanks {
		if _, err := tx.NamedExecContext(ctx, insertCommentBank, bank.Bank); err != nil {
			return fmt.Errorf("insert comment bank: %w", err)
		}
		if err := insertBatches(ctx, tx, "comment bank entries", insertCommentBankEntries, bank.Entries); err != nil {
			return err
		}
	}
	return nil
}

func persistMarkSetTx(ctx context.Context, tx *sqlx.Tx, ms *models.MarkSetBundle, now time.Time) error {
	ms.MarkSet.CreatedAt, ms.MarkSet.UpdatedAt = now, now
	if _, err := tx.NamedExecContext(ctx, insertMarkSet, ms.MarkSet); err != nil {
		return fmt.Errorf("insert mark set %s: %w", ms.MarkSet.Code, err)
	}
	if err := insertBatches(ctx, tx, "categories", insertCategories, ms.Categories); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx, "assessments", insertAssessments, ms.Assessments); err != nil {
		return err
	}
	for i := range ms.Scores {
		ms.Scores[i].UpdatedAt = now
	}
	if err := insertBatches(ctx, tx, "scores", insertScores, ms.Scores); err != nil {
		return err
	}
	for _, set := range ms.CommentSets {
		if _, err := tx.NamedExecContext(ctx, insertCommentSet, set.Set); err != nil {
			return fmt.Errorf("insert comment set %d: %w", set.Set.SetNumber, err)
		}
		if err := insertBatches(ctx, tx, "comment set remarks", insertCommentSetRemarks, set.Remarks); err != nil {
			return err
		}
	}
	return nil
}

// insertBatches runs a multi-row named insert per chunk of rows.
func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, label, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return fmt.Errorf("insert %s: %w", label, err)
		}
	}
	return nil
}
