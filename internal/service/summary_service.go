package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/markset"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
)

type markSetSnapshotReader interface {
	MarkSetSnapshot(ctx context.Context, classID, markSetID string) (*models.MarkSetSnapshot, error)
}

// SummaryConfig tunes final mark computation.
type SummaryConfig struct {
	Rounding      markset.RoundingMode
	FinalDecimals int
	// Predicate overrides the default enrollment mask interpretation.
	Predicate markset.EnrollmentPredicate
}

// SummaryService computes mark set summaries from one consistent snapshot.
type SummaryService struct {
	repo    markSetSnapshotReader
	metrics *MetricsService
	logger  *zap.Logger
	opts    markset.Options
}

// NewSummaryService constructs a SummaryService.
func NewSummaryService(repo markSetSnapshotReader, metrics *MetricsService, logger *zap.Logger, cfg SummaryConfig) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := markset.DefaultOptions()
	if cfg.Rounding != "" {
		opts.Rounding = cfg.Rounding
	}
	opts.FinalDecimals = cfg.FinalDecimals
	opts.Predicate = cfg.Predicate
	return &SummaryService{repo: repo, metrics: metrics, logger: logger, opts: opts}
}

// MarkSetSummary validates filters, loads the snapshot, computes the summary
// and then drops students outside the requested scope.
func (s *SummaryService) MarkSetSummary(ctx context.Context, classID, markSetID string, raw markset.RawSummaryFilters) (*markset.Summary, error) {
	filters, err := markset.ParseSummaryFilters(raw)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.loadSnapshot(ctx, classID, markSetID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary, err := markset.ComputeSummary(snapshot, filters, s.opts)
	if err != nil {
		s.logger.Warn("mark set summary failed",
			zap.String("class_id", classID),
			zap.String("mark_set_id", markSetID),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.ObserveCompute("summary", time.Since(start))
	return markset.ApplyScope(summary, filters.StudentScope, s.opts.Predicate), nil
}

// AssessmentStats returns per-assessment averages and counts only.
func (s *SummaryService) AssessmentStats(ctx context.Context, classID, markSetID string, raw markset.RawSummaryFilters) ([]markset.AssessmentStats, error) {
	filters, err := markset.ParseSummaryFilters(raw)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.loadSnapshot(ctx, classID, markSetID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	stats := markset.ComputeAssessmentStats(snapshot, filters, s.opts)
	s.metrics.ObserveCompute("assessment_stats", time.Since(start))
	return stats, nil
}

func (s *SummaryService) loadSnapshot(ctx context.Context, classID, markSetID string) (*models.MarkSetSnapshot, error) {
	if classID == "" {
		return nil, appErrors.BadParam("classId", "class id is required")
	}
	if markSetID == "" {
		return nil, appErrors.BadParam("markSetId", "mark set id is required")
	}
	start := time.Now()
	snapshot, err := s.repo.MarkSetSnapshot(ctx, classID, markSetID)
	s.metrics.ObserveDBQuery("markset_snapshot", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrNotFound, "class or mark set not found"),
				map[string]interface{}{"class_id": classID, "mark_set_id": markSetID})
		}
		s.logger.Error("load mark set snapshot", zap.String("class_id", classID), zap.String("mark_set_id", markSetID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mark set")
	}
	return snapshot, nil
}
