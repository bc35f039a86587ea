package markset

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markbookdev/markbook-classic-sub000/internal/models"
)

func topLevelKeys(t *testing.T, v interface{}) []string {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &fields))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestAnalyticsWireFormat(t *testing.T) {
	ranked := RankedStudent{Rank: 1, StudentID: "stu-1", DisplayName: "Adams, Ann", SortOrder: 0, FinalMark: 71.5}
	analytics := Analytics{
		KPIs: KPIs{StudentCount: 1, FinalMarkCount: 1, AssessmentCount: 2, ClassAverage: mark(71.5), ClassMedian: mark(71.5), NoMarkRate: 0.5},
		Distributions: Distribution{
			Bins: []DistributionBin{{Label: "70-79.9", Min: 70, Max: 79.9, Count: 1}},
		},
		TopBottom: TopBottom{Top: []RankedStudent{ranked}, Bottom: []RankedStudent{ranked}},
		Rows: []StudentFinal{{
			StudentID: "stu-1", DisplayName: "Adams, Ann", Active: true, EnrollmentMask: "111",
			FinalMark: mark(71.5), NoMarkCount: 1, ScoredCount: 1,
		}},
	}

	payload, err := json.Marshal(analytics)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kpis": {"studentCount":1,"finalMarkCount":1,"assessmentCount":2,"classAverage":71.5,"classMedian":71.5,"noMarkRate":0.5,"zeroRate":0},
		"distributions": {"bins":[{"label":"70-79.9","min":70,"max":79.9,"count":1}],"noFinalMarkCount":0},
		"topBottom": {
			"top":[{"rank":1,"studentId":"stu-1","displayName":"Adams, Ann","sortOrder":0,"finalMark":71.5}],
			"bottom":[{"rank":1,"studentId":"stu-1","displayName":"Adams, Ann","sortOrder":0,"finalMark":71.5}]
		},
		"rows": [{"studentId":"stu-1","displayName":"Adams, Ann","sortOrder":0,"active":true,"enrollmentMask":"111","finalMark":71.5,"noMarkCount":1,"zeroCount":0,"scoredCount":1}]
	}`, string(payload))
}

func TestSummaryWireFormat(t *testing.T) {
	summary := Summary{
		PerStudentCategory: []StudentCategoryBreakdown{{StudentID: "stu-1"}},
		Filters:            SummaryFilters{StudentScope: ScopeAll},
	}

	assert.Equal(t, []string{
		"assessments", "categories", "class", "filters", "markSet",
		"perAssessment", "perCategory", "perStudent", "perStudentCategory", "settings",
	}, topLevelKeys(t, summary))
	assert.Equal(t, []string{"calcMethod", "dropLowest", "finalDecimals", "rounding", "weightMethod"}, topLevelKeys(t, summary.Settings))
	assert.Equal(t, []string{"studentScope"}, topLevelKeys(t, summary.Filters))
	assert.Equal(t, []string{
		"assessmentId", "avgPercent", "avgRaw", "categoryName", "idx", "noMarkCount",
		"outOf", "scoredCount", "term", "title", "type", "weight", "zeroCount",
	}, topLevelKeys(t, AssessmentStats{}))
}

func TestImportResultWireFormat(t *testing.T) {
	result := models.ImportResult{
		ClassID:            "class-1",
		StudentsImported:   3,
		MarkSetsImported:   1,
		AttendanceImported: false,
		SeatingImported:    true,
		Warnings:           []models.ImportWarning{{Code: "legacy_missing_attendance_file", Message: "attendance file not found"}},
	}

	payload, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"classId":"class-1","studentsImported":3,"markSetsImported":1,"assessmentsImported":0,"scoresImported":0,
		"attendanceImported":false,"seatingImported":true,"deviceCodesImported":false,"loanedItemsImported":false,
		"commentBanksImported":0,"commentSetsImported":0,
		"warnings":[{"code":"legacy_missing_attendance_file","message":"attendance file not found"}]
	}`, string(payload))
}
