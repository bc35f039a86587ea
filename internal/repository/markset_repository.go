package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/markbookdev/markbook-classic-sub000/internal/models"
)

const (
	selectClass = `SELECT id, name, code, legacy_folder, created_at, updated_at FROM classes WHERE id = $1`

	selectMarkSet = `SELECT id, class_id, code, file_prefix, description, weight, sort_order, full_code, room, day, period,
        weight_method, calc_method, drop_lowest, raw_line, created_at, updated_at
        FROM mark_sets WHERE id = $1 AND class_id = $2`

	selectCategories = `SELECT id, mark_set_id, name, weight, sort_order FROM mark_set_categories WHERE mark_set_id = $1 ORDER BY sort_order`

	selectAssessments = `SELECT id, mark_set_id, idx, date, category_name, title, term, legacy_kind, type, weight, out_of,
        legacy_avg_percent, legacy_avg_raw, raw_line
        FROM assessments WHERE mark_set_id = $1 ORDER BY idx`

	selectStudents = `SELECT id, class_id, last_name, first_name, display_name, student_number, birth_date, active,
        enrollment_mask, sort_order, raw_line, created_at, updated_at
        FROM students WHERE class_id = $1 ORDER BY sort_order`

	selectScores = `SELECT s.assessment_id, s.student_id, s.raw_value, s.remark, s.updated_at
        FROM scores s JOIN assessments a ON a.id = s.assessment_id
        WHERE a.mark_set_id = $1`
)

// MarkSetRepository reads mark sets and their children.
type MarkSetRepository struct {
	db *sqlx.DB
}

// NewMarkSetRepository constructs a MarkSetRepository.
func NewMarkSetRepository(db *sqlx.DB) *MarkSetRepository {
	return &MarkSetRepository{db: db}
}

// MarkSetSnapshot loads a class, one of its mark sets and every row the
// aggregation engine reads, inside a single read-only transaction so the
// result is consistent. A missing class or mark set yields sql.ErrNoRows.
func (r *MarkSetRepository) MarkSetSnapshot(ctx context.Context, classID, markSetID string) (*models.MarkSetSnapshot, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	snapshot, err := loadSnapshot(ctx, tx, classID, markSetID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}
	return snapshot, nil
}

func loadSnapshot(ctx context.Context, tx *sqlx.Tx, classID, markSetID string) (*models.MarkSetSnapshot, error) {
	snapshot := &models.MarkSetSnapshot{}
	if err := tx.GetContext(ctx, &snapshot.Class, selectClass, classID); err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	if err := tx.GetContext(ctx, &snapshot.MarkSet, selectMarkSet, markSetID, classID); err != nil {
		return nil, fmt.Errorf("get mark set: %w", err)
	}
	if err := tx.SelectContext(ctx, &snapshot.Categories, selectCategories, markSetID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if err := tx.SelectContext(ctx, &snapshot.Assessments, selectAssessments, markSetID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	if err := tx.SelectContext(ctx, &snapshot.Students, selectStudents, classID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	if err := tx.SelectContext(ctx, &snapshot.Scores, selectScores, markSetID); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return snapshot, nil
}

// FindAssessment returns the assessment at idx of a mark set in the given class.
func (r *MarkSetRepository) FindAssessment(ctx context.Context, classID, markSetID string, idx int) (*models.Assessment, error) {
	const query = `SELECT a.id, a.mark_set_id, a.idx, a.date, a.category_name, a.title, a.term, a.legacy_kind, a.type, a.weight,
        a.out_of, a.legacy_avg_percent, a.legacy_avg_raw, a.raw_line
        FROM assessments a JOIN mark_sets m ON m.id = a.mark_set_id
        WHERE m.class_id = $1 AND a.mark_set_id = $2 AND a.idx = $3`
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, classID, markSetID, idx); err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return &assessment, nil
}

// StudentInClass reports whether the student belongs to the class.
func (r *MarkSetRepository) StudentInClass(ctx context.Context, classID, studentID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM students WHERE id = $1 AND class_id = $2 LIMIT 1", studentID, classID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student: %w", err)
	}
	return true, nil
}
