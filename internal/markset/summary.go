package markset

import (
	"sort"
	"strings"

	"github.com/markbookdev/markbook-classic-sub000/internal/legacy"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
)

// ClassRef identifies the class a summary belongs to.
type ClassRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// MarkSetRef identifies the summarised mark set.
type MarkSetRef struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

// Settings are the calculation settings in effect for a summary.
type Settings struct {
	WeightMethod  int          `json:"weightMethod"`
	CalcMethod    int          `json:"calcMethod"`
	DropLowest    int          `json:"dropLowest"`
	Rounding      RoundingMode `json:"rounding"`
	FinalDecimals int          `json:"finalDecimals"`
}

// AssessmentStats aggregates one assessment over the summarised students.
type AssessmentStats struct {
	AssessmentID string  `json:"assessmentId"`
	Idx          int     `json:"idx"`
	Title        string  `json:"title"`
	CategoryName string  `json:"categoryName"`
	Term         int     `json:"term"`
	Type         int     `json:"type"`
	Weight       float64 `json:"weight"`
	OutOf        float64 `json:"outOf"`
	AvgRaw       float64 `json:"avgRaw"`
	AvgPercent   float64 `json:"avgPercent"`
	ScoredCount  int     `json:"scoredCount"`
	ZeroCount    int     `json:"zeroCount"`
	NoMarkCount  int     `json:"noMarkCount"`
}

// CategoryStats aggregates one category.
type CategoryStats struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Weight     float64 `json:"weight"`
	// WeightShare is the category's percent of the total effective weight under the weight method.
	WeightShare     float64  `json:"weightShare"`
	AssessmentCount int      `json:"assessmentCount"`
	AvgPercent      *float64 `json:"avgPercent"`
}

// StudentFinal is one student's result. FinalMark is nil without any Zero or Scored contribution.
type StudentFinal struct {
	StudentID      string   `json:"studentId"`
	DisplayName    string   `json:"displayName"`
	SortOrder      int      `json:"sortOrder"`
	Active         bool     `json:"active"`
	EnrollmentMask string   `json:"enrollmentMask"`
	FinalMark      *float64 `json:"finalMark"`
	NoMarkCount    int      `json:"noMarkCount"`
	ZeroCount      int      `json:"zeroCount"`
	ScoredCount    int      `json:"scoredCount"`
}

// StudentCategoryBreakdown holds one student's percent per category.
type StudentCategoryBreakdown struct {
	StudentID  string                `json:"studentId"`
	Categories []StudentCategoryMark `json:"categories"`
}

// StudentCategoryMark is nil-valued when the student has no marks in the category.
type StudentCategoryMark struct {
	CategoryID string   `json:"categoryId"`
	Name       string   `json:"name"`
	Percent    *float64 `json:"percent"`
}

// Summary is the computed model for one mark set.
type Summary struct {
	Class              ClassRef                   `json:"class"`
	MarkSet            MarkSetRef                 `json:"markSet"`
	Settings           Settings                   `json:"settings"`
	Filters            SummaryFilters             `json:"filters"`
	Assessments        []models.Assessment        `json:"assessments"`
	Categories         []models.MarkSetCategory   `json:"categories"`
	PerAssessment      []AssessmentStats          `json:"perAssessment"`
	PerCategory        []CategoryStats            `json:"perCategory"`
	PerStudent         []StudentFinal             `json:"perStudent"`
	PerStudentCategory []StudentCategoryBreakdown `json:"perStudentCategory,omitempty"`
}

// Options tune a computation.
type Options struct {
	Rounding RoundingMode
	// FinalDecimals below zero selects DefaultFinalDecimals.
	FinalDecimals int
	// PreScope filters students before aggregation, so averages cover only them.
	PreScope  StudentScope
	Predicate EnrollmentPredicate
}

// DefaultOptions returns half_up rounding to one decimal with no pre-scope.
func DefaultOptions() Options {
	return Options{Rounding: RoundHalfUp, FinalDecimals: DefaultFinalDecimals}
}

func (o Options) normalised() Options {
	if o.Rounding == "" {
		o.Rounding = RoundHalfUp
	}
	if o.FinalDecimals < 0 {
		o.FinalDecimals = DefaultFinalDecimals
	}
	return o
}

// scoreGrid indexes decoded scores by assessment then student.
type scoreGrid map[string]map[string]legacy.Score

func newScoreGrid(scores []models.Score) scoreGrid {
	grid := make(scoreGrid)
	for _, s := range scores {
		row, ok := grid[s.AssessmentID]
		if !ok {
			row = make(map[string]legacy.Score)
			grid[s.AssessmentID] = row
		}
		row[s.StudentID] = s.State()
	}
	return grid
}

// at returns NoMark for cells without a stored row.
func (g scoreGrid) at(assessmentID, studentID string) legacy.Score {
	return g[assessmentID][studentID]
}

// ComputeSummary builds the full summary model for a snapshot.
func ComputeSummary(snap *models.MarkSetSnapshot, filters SummaryFilters, opts Options) (*Summary, error) {
	opts = opts.normalised()
	strategy, err := ResolveStrategy(snap.MarkSet.WeightMethod, snap.MarkSet.CalcMethod)
	if err != nil {
		return nil, err
	}

	assessments := filterAssessments(snap.Assessments, filters)
	categories := filterCategories(snap.Categories, filters)
	students := scopeStudents(snap.Students, snap.MarkSet.SortOrder, opts)
	grid := newScoreGrid(snap.Scores)

	summary := &Summary{
		Class:   ClassRef{ID: snap.Class.ID, Name: snap.Class.Name, Code: snap.Class.Code},
		MarkSet: MarkSetRef{ID: snap.MarkSet.ID, Code: snap.MarkSet.Code, Description: snap.MarkSet.Description, SortOrder: snap.MarkSet.SortOrder},
		Settings: Settings{
			WeightMethod:  snap.MarkSet.WeightMethod,
			CalcMethod:    snap.MarkSet.CalcMethod,
			DropLowest:    snap.MarkSet.DropLowest,
			Rounding:      opts.Rounding,
			FinalDecimals: opts.FinalDecimals,
		},
		Filters:       filters,
		Assessments:   assessments,
		Categories:    categories,
		PerAssessment: assessmentStats(assessments, students, grid),
	}
	if summary.Filters.StudentScope == "" {
		summary.Filters.StudentScope = ScopeAll
	}

	categoryWeights := make(map[string]float64, len(categories))
	for _, c := range categories {
		categoryWeights[categoryKey(c.Name)] = c.Weight
	}

	summary.PerStudent = make([]StudentFinal, 0, len(students))
	if len(categories) > 0 {
		summary.PerStudentCategory = make([]StudentCategoryBreakdown, 0, len(students))
	}
	for _, student := range students {
		final := StudentFinal{
			StudentID:      student.ID,
			DisplayName:    student.DisplayName,
			SortOrder:      student.SortOrder,
			Active:         student.Active,
			EnrollmentMask: student.EnrollmentMask,
		}
		var entries []Entry
		for _, a := range assessments {
			score := grid.at(a.ID, student.ID)
			switch score.State() {
			case legacy.StateNoMark:
				final.NoMarkCount++
				continue
			case legacy.StateZero:
				final.ZeroCount++
			case legacy.StateScored:
				final.ScoredCount++
			}
			if !contributes(a) {
				continue
			}
			entries = append(entries, Entry{Category: a.CategoryName, Percent: score.Value() / a.OutOf * 100, Weight: a.Weight})
		}
		if mark, ok := strategy.Final(entries, categoryWeights, snap.MarkSet.DropLowest); ok {
			rounded := Round(mark, opts.FinalDecimals, opts.Rounding)
			final.FinalMark = &rounded
		}
		summary.PerStudent = append(summary.PerStudent, final)
		if len(categories) > 0 {
			summary.PerStudentCategory = append(summary.PerStudentCategory, studentBreakdown(student.ID, categories, entries, strategy.WeightMethod, snap.MarkSet.DropLowest, opts))
		}
	}

	summary.PerCategory = categoryStats(categories, assessments, summary.PerStudentCategory, strategy.WeightMethod)
	return summary, nil
}

// ComputeAssessmentStats returns only the per-assessment statistics.
func ComputeAssessmentStats(snap *models.MarkSetSnapshot, filters SummaryFilters, opts Options) []AssessmentStats {
	opts = opts.normalised()
	assessments := filterAssessments(snap.Assessments, filters)
	students := scopeStudents(snap.Students, snap.MarkSet.SortOrder, opts)
	return assessmentStats(assessments, students, newScoreGrid(snap.Scores))
}

func contributes(a models.Assessment) bool {
	return a.OutOf > 0 && a.Weight > 0
}

func categoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func filterAssessments(all []models.Assessment, filters SummaryFilters) []models.Assessment {
	out := make([]models.Assessment, 0, len(all))
	for _, a := range all {
		if !filters.MatchesTerm(a.Term) || !filters.MatchesCategory(a.CategoryName) || !filters.MatchesType(a.Type) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Idx < out[j].Idx })
	return out
}

func filterCategories(all []models.MarkSetCategory, filters SummaryFilters) []models.MarkSetCategory {
	out := make([]models.MarkSetCategory, 0, len(all))
	for _, c := range all {
		if filters.MatchesCategory(c.Name) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func scopeStudents(all []models.Student, sortOrder int, opts Options) []models.Student {
	out := make([]models.Student, 0, len(all))
	for _, s := range all {
		if opts.PreScope != "" && !opts.PreScope.Includes(s.Active, s.EnrollmentMask, sortOrder, opts.Predicate) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func assessmentStats(assessments []models.Assessment, students []models.Student, grid scoreGrid) []AssessmentStats {
	stats := make([]AssessmentStats, 0, len(assessments))
	for _, a := range assessments {
		row := AssessmentStats{
			AssessmentID: a.ID,
			Idx:          a.Idx,
			Title:        a.Title,
			CategoryName: a.CategoryName,
			Term:         a.Term,
			Type:         a.Type,
			Weight:       a.Weight,
			OutOf:        a.OutOf,
		}
		var sum float64
		for _, student := range students {
			score := grid.at(a.ID, student.ID)
			switch score.State() {
			case legacy.StateNoMark:
				row.NoMarkCount++
				continue
			case legacy.StateZero:
				row.ZeroCount++
			case legacy.StateScored:
				row.ScoredCount++
			}
			sum += score.Value()
		}
		if counted := row.ScoredCount + row.ZeroCount; counted > 0 {
			row.AvgRaw = sum / float64(counted)
			if a.OutOf > 0 {
				row.AvgPercent = round1(row.AvgRaw * 100 / a.OutOf)
			}
		}
		stats = append(stats, row)
	}
	return stats
}

// studentBreakdown drops the same low entries as the final mark: per category under
// WeightByCategory, across all entries otherwise.
func studentBreakdown(studentID string, categories []models.MarkSetCategory, entries []Entry, weightMethod, dropLowest int, opts Options) StudentCategoryBreakdown {
	if weightMethod != WeightByCategory {
		entries = dropLowestEntries(entries, dropLowest)
	}
	breakdown := StudentCategoryBreakdown{StudentID: studentID, Categories: make([]StudentCategoryMark, 0, len(categories))}
	for _, c := range categories {
		mark := StudentCategoryMark{CategoryID: c.ID, Name: c.Name}
		var group []Entry
		for _, e := range entries {
			if categoryKey(e.Category) != categoryKey(c.Name) {
				continue
			}
			if weightMethod == WeightByCategory && e.Weight <= 0 {
				continue
			}
			group = append(group, e)
		}
		if weightMethod == WeightByCategory {
			group = dropLowestEntries(group, dropLowest)
		}
		var sum, total float64
		for _, e := range group {
			weight := e.Weight
			if weightMethod == WeightEqual {
				weight = 1
			}
			sum += e.Percent * weight
			total += weight
		}
		if total > 0 {
			percent := Round(sum/total, opts.FinalDecimals, opts.Rounding)
			mark.Percent = &percent
		}
		breakdown.Categories = append(breakdown.Categories, mark)
	}
	return breakdown
}

func categoryStats(categories []models.MarkSetCategory, assessments []models.Assessment, perStudent []StudentCategoryBreakdown, weightMethod int) []CategoryStats {
	effective := make(map[string]float64, len(categories))
	counts := make(map[string]int, len(categories))
	var total float64
	for _, c := range categories {
		key := categoryKey(c.Name)
		for _, a := range assessments {
			if categoryKey(a.CategoryName) != key {
				continue
			}
			counts[key]++
			if !contributes(a) {
				continue
			}
			switch weightMethod {
			case WeightByCategory:
				if c.Weight > 0 {
					effective[key] = c.Weight
				}
			case WeightEqual:
				effective[key]++
			default:
				effective[key] += a.Weight
			}
		}
		total += effective[key]
	}

	stats := make([]CategoryStats, 0, len(categories))
	for i, c := range categories {
		key := categoryKey(c.Name)
		row := CategoryStats{
			CategoryID:      c.ID,
			Name:            c.Name,
			Weight:          c.Weight,
			AssessmentCount: counts[key],
		}
		if total > 0 {
			row.WeightShare = round1(effective[key] / total * 100)
		}
		var sum float64
		var n int
		for _, breakdown := range perStudent {
			if i < len(breakdown.Categories) && breakdown.Categories[i].Percent != nil {
				sum += *breakdown.Categories[i].Percent
				n++
			}
		}
		if n > 0 {
			avg := round1(sum / float64(n))
			row.AvgPercent = &avg
		}
		stats = append(stats, row)
	}
	return stats
}
