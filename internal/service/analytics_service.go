package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/markset"
)

type markSetSummarizer interface {
	MarkSetSummary(ctx context.Context, classID, markSetID string, raw markset.RawSummaryFilters) (*markset.Summary, error)
}

// AnalyticsService derives dashboard analytics from scoped summaries.
type AnalyticsService struct {
	summaries markSetSummarizer
	metrics   *MetricsService
	logger    *zap.Logger
	opts      markset.AnalyticsOptions
}

// NewAnalyticsService constructs an analytics service. rankLimit <= 0 uses the default.
func NewAnalyticsService(summaries markSetSummarizer, metrics *MetricsService, logger *zap.Logger, rankLimit int) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		summaries: summaries,
		metrics:   metrics,
		logger:    logger,
		opts:      markset.AnalyticsOptions{RankLimit: rankLimit},
	}
}

// MarkSetAnalytics returns KPIs, the grade distribution and rank lists for the
// students selected by the filters' scope.
func (s *AnalyticsService) MarkSetAnalytics(ctx context.Context, classID, markSetID string, raw markset.RawSummaryFilters) (*markset.Analytics, error) {
	summary, err := s.summaries.MarkSetSummary(ctx, classID, markSetID, raw)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	analytics := markset.BuildAnalytics(summary, s.opts)
	s.metrics.ObserveCompute("analytics", time.Since(start))
	s.logger.Debug("mark set analytics built",
		zap.String("class_id", classID),
		zap.String("mark_set_id", markSetID),
		zap.Int("students", analytics.KPIs.StudentCount),
		zap.Int("final_marks", analytics.KPIs.FinalMarkCount),
	)
	return analytics, nil
}
