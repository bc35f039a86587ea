package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/markbookdev/markbook-classic-sub000/internal/models"
)

// ScoreRepository writes individual grid cells.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert stores the raw value for one cell, keeping any existing remark.
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	score.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO scores (assessment_id, student_id, raw_value, remark, updated_at)
        VALUES (:assessment_id, :student_id, :raw_value, :remark, :updated_at)
        ON CONFLICT (assessment_id, student_id)
        DO UPDATE SET raw_value = EXCLUDED.raw_value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}
