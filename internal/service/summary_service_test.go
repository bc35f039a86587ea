package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/markset"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
)

type fakeSnapshotReader struct {
	snapshot *models.MarkSetSnapshot
	err      error
	calls    int
}

func (f *fakeSnapshotReader) MarkSetSnapshot(_ context.Context, classID, markSetID string) (*models.MarkSetSnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

// classSnapshot has four students on one out-of-10 assessment. The third is
// inactive and the fourth has no mark.
func classSnapshot() *models.MarkSetSnapshot {
	snap := &models.MarkSetSnapshot{
		Class:   models.Class{ID: "class-1", Name: "Mathematics", Code: "MAT1"},
		MarkSet: models.MarkSet{ID: "ms-1", ClassID: "class-1", Code: "T1", WeightMethod: markset.WeightByEntry, CalcMethod: markset.CalcAverage},
		Assessments: []models.Assessment{
			{ID: "a-0", MarkSetID: "ms-1", Idx: 0, Title: "Quiz", Term: 1, Weight: 1, OutOf: 10},
		},
	}
	for i, active := range []bool{true, true, false, true} {
		snap.Students = append(snap.Students, models.Student{
			ID: fmt.Sprintf("stu-%d", i+1), DisplayName: fmt.Sprintf("Student %d", i+1), Active: active, SortOrder: i,
		})
	}
	for i, raw := range []float64{8, 6, 9} {
		snap.Scores = append(snap.Scores, models.Score{AssessmentID: "a-0", StudentID: snap.Students[i].ID, RawValue: raw})
	}
	return snap
}

func newTestSummaryService(repo markSetSnapshotReader) *SummaryService {
	return NewSummaryService(repo, NewMetricsService(), zap.NewNop(), SummaryConfig{Rounding: markset.RoundHalfUp, FinalDecimals: 1})
}

func TestSummaryServiceComputesAndScopes(t *testing.T) {
	svc := newTestSummaryService(&fakeSnapshotReader{snapshot: classSnapshot()})

	summary, err := svc.MarkSetSummary(context.Background(), "class-1", "ms-1", markset.RawSummaryFilters{StudentScope: "active"})
	require.NoError(t, err)
	assert.Equal(t, markset.ScopeActive, summary.Filters.StudentScope)
	require.Len(t, summary.PerStudent, 3)
	assert.Equal(t, "stu-1", summary.PerStudent[0].StudentID)
	require.NotNil(t, summary.PerStudent[0].FinalMark)
	assert.Equal(t, 80.0, *summary.PerStudent[0].FinalMark)
	assert.Nil(t, summary.PerStudent[2].FinalMark)
	// Assessment statistics still cover every student.
	require.Len(t, summary.PerAssessment, 1)
	assert.Equal(t, 3, summary.PerAssessment[0].ScoredCount)
}

func TestSummaryServiceTermFilter(t *testing.T) {
	svc := newTestSummaryService(&fakeSnapshotReader{snapshot: classSnapshot()})

	summary, err := svc.MarkSetSummary(context.Background(), "class-1", "ms-1", markset.RawSummaryFilters{Term: "2"})
	require.NoError(t, err)
	assert.Empty(t, summary.Assessments)
	for _, row := range summary.PerStudent {
		assert.Nil(t, row.FinalMark)
	}
}

func TestSummaryServiceBadFiltersSkipStore(t *testing.T) {
	repo := &fakeSnapshotReader{snapshot: classSnapshot()}
	svc := newTestSummaryService(repo)

	_, err := svc.MarkSetSummary(context.Background(), "class-1", "ms-1", markset.RawSummaryFilters{StudentScope: "everyone"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrBadParams)
	assert.Equal(t, 0, repo.calls)
}

func TestSummaryServiceRequiresIDs(t *testing.T) {
	svc := newTestSummaryService(&fakeSnapshotReader{snapshot: classSnapshot()})

	_, err := svc.MarkSetSummary(context.Background(), "", "ms-1", markset.RawSummaryFilters{})
	assert.Equal(t, "classId", appErrors.FromError(err).Details["field"])
	_, err = svc.AssessmentStats(context.Background(), "class-1", "", markset.RawSummaryFilters{})
	assert.Equal(t, "markSetId", appErrors.FromError(err).Details["field"])
}

func TestSummaryServiceNotFound(t *testing.T) {
	svc := newTestSummaryService(&fakeSnapshotReader{err: fmt.Errorf("load mark set: %w", sql.ErrNoRows)})

	_, err := svc.MarkSetSummary(context.Background(), "class-1", "ms-9", markset.RawSummaryFilters{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "ms-9", appErr.Details["mark_set_id"])
}

func TestSummaryServiceStoreFailure(t *testing.T) {
	svc := newTestSummaryService(&fakeSnapshotReader{err: errors.New("connection reset")})

	_, err := svc.AssessmentStats(context.Background(), "class-1", "ms-1", markset.RawSummaryFilters{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestSummaryServiceUnsupportedMethod(t *testing.T) {
	snap := classSnapshot()
	snap.MarkSet.WeightMethod = 9
	svc := newTestSummaryService(&fakeSnapshotReader{snapshot: snap})

	_, err := svc.MarkSetSummary(context.Background(), "class-1", "ms-1", markset.RawSummaryFilters{})
	assert.ErrorIs(t, err, appErrors.ErrCalc)
}

func TestAssessmentStatsService(t *testing.T) {
	svc := newTestSummaryService(&fakeSnapshotReader{snapshot: classSnapshot()})

	stats, err := svc.AssessmentStats(context.Background(), "class-1", "ms-1", markset.RawSummaryFilters{})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].NoMarkCount)
	assert.Equal(t, 3, stats[0].ScoredCount)
}
