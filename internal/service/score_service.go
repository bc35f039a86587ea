package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/legacy"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
)

type gridLookup interface {
	FindAssessment(ctx context.Context, classID, markSetID string, idx int) (*models.Assessment, error)
	StudentInClass(ctx context.Context, classID, studentID string) (bool, error)
}

type scoreWriter interface {
	Upsert(ctx context.Context, score *models.Score) error
}

// ScoreService applies single-cell grid edits.
type ScoreService struct {
	lookup    gridLookup
	scores    scoreWriter
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewScoreService constructs a ScoreService.
func NewScoreService(lookup gridLookup, scores scoreWriter, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{lookup: lookup, scores: scores, validator: validate, metrics: metrics, logger: logger}
}

// SetScore stores one cell. A scored value must be greater than zero; an
// assessed zero is requested with state "zero".
func (s *ScoreService) SetScore(ctx context.Context, req dto.SetScoreRequest) (*dto.ScoreResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	score, err := legacy.ParseState(req.State, req.Value)
	if err != nil {
		if errors.Is(err, legacy.ErrInvalidScore) {
			return nil, appErrors.BadParam("value", "scored value must be greater than zero")
		}
		return nil, appErrors.BadParam("state", err.Error())
	}

	start := time.Now()
	assessment, err := s.lookup.FindAssessment(ctx, req.ClassID, req.MarkSetID, req.AssessmentIdx)
	s.metrics.ObserveDBQuery("find_assessment", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrNotFound, "assessment not found"),
				map[string]interface{}{"class_id": req.ClassID, "mark_set_id": req.MarkSetID, "idx": req.AssessmentIdx})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	ok, err := s.lookup.StudentInClass(ctx, req.ClassID, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !ok {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrNotFound, "student not found in class"),
			map[string]interface{}{"class_id": req.ClassID, "student_id": req.StudentID})
	}

	row := &models.Score{AssessmentID: assessment.ID, StudentID: req.StudentID, RawValue: legacy.Encode(score)}
	start = time.Now()
	err = s.scores.Upsert(ctx, row)
	s.metrics.ObserveDBQuery("upsert_score", time.Since(start))
	if err != nil {
		s.logger.Error("upsert score", zap.String("assessment_id", assessment.ID), zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store score")
	}
	s.logger.Debug("score updated",
		zap.String("assessment_id", assessment.ID),
		zap.String("student_id", req.StudentID),
		zap.String("state", score.State().String()),
	)
	return &dto.ScoreResponse{
		AssessmentID: row.AssessmentID,
		StudentID:    row.StudentID,
		State:        score.State().String(),
		Value:        score.Value(),
		RawValue:     row.RawValue,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
