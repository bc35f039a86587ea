package markset

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// DefaultRankLimit is the length of the top and bottom lists.
const DefaultRankLimit = 5

// AnalyticsOptions tune BuildAnalytics.
type AnalyticsOptions struct {
	RankLimit int
}

// KPIs are the headline class figures.
type KPIs struct {
	StudentCount    int      `json:"studentCount"`
	FinalMarkCount  int      `json:"finalMarkCount"`
	AssessmentCount int      `json:"assessmentCount"`
	ClassAverage    *float64 `json:"classAverage"`
	ClassMedian     *float64 `json:"classMedian"`
	NoMarkRate      float64  `json:"noMarkRate"`
	ZeroRate        float64  `json:"zeroRate"`
}

// DistributionBin counts final marks within inclusive bounds.
type DistributionBin struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Distribution is the fixed six-bin grade histogram.
type Distribution struct {
	Bins             []DistributionBin `json:"bins"`
	NoFinalMarkCount int               `json:"noFinalMarkCount"`
}

// RankedStudent is one entry of a rank list.
type RankedStudent struct {
	Rank        int     `json:"rank"`
	StudentID   string  `json:"studentId"`
	DisplayName string  `json:"displayName"`
	SortOrder   int     `json:"sortOrder"`
	FinalMark   float64 `json:"finalMark"`
}

// TopBottom holds the best and weakest students. Bottom is the ranked list reversed.
type TopBottom struct {
	Top    []RankedStudent `json:"top"`
	Bottom []RankedStudent `json:"bottom"`
}

// Analytics is the dashboard block derived from a summary.
type Analytics struct {
	KPIs          KPIs           `json:"kpis"`
	Distributions Distribution   `json:"distributions"`
	TopBottom     TopBottom      `json:"topBottom"`
	Rows          []StudentFinal `json:"rows"`
}

var binBounds = []DistributionBin{
	{Label: "0-49.9", Min: 0, Max: 49.9},
	{Label: "50-59.9", Min: 50, Max: 59.9},
	{Label: "60-69.9", Min: 60, Max: 69.9},
	{Label: "70-79.9", Min: 70, Max: 79.9},
	{Label: "80-89.9", Min: 80, Max: 89.9},
	{Label: "90-100", Min: 90, Max: 100},
}

// BuildAnalytics derives KPIs, the distribution and rank lists from a (possibly scoped) summary.
func BuildAnalytics(summary *Summary, opts AnalyticsOptions) *Analytics {
	if opts.RankLimit <= 0 {
		opts.RankLimit = DefaultRankLimit
	}
	rows := make([]StudentFinal, len(summary.PerStudent))
	copy(rows, summary.PerStudent)

	marks := make([]float64, 0, len(rows))
	var noMark, zero, scored int
	for _, row := range rows {
		noMark += row.NoMarkCount
		zero += row.ZeroCount
		scored += row.ScoredCount
		if row.FinalMark != nil {
			marks = append(marks, *row.FinalMark)
		}
	}

	kpis := KPIs{
		StudentCount:    len(rows),
		FinalMarkCount:  len(marks),
		AssessmentCount: len(summary.PerAssessment),
		ClassAverage:    optionalRounded(stats.Mean(marks)),
		ClassMedian:     optionalRounded(Median(marks)),
	}
	if total := noMark + zero + scored; total > 0 {
		kpis.NoMarkRate = float64(noMark) / float64(total)
		kpis.ZeroRate = float64(zero) / float64(total)
	}

	return &Analytics{
		KPIs:          kpis,
		Distributions: buildDistribution(rows),
		TopBottom:     rankStudents(rows, opts.RankLimit),
		Rows:          rows,
	}
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. An empty input yields an error.
func Median(values []float64) (float64, error) {
	return stats.Median(stats.Float64Data(values))
}

func optionalRounded(v float64, err error) *float64 {
	if err != nil {
		return nil
	}
	rounded := round1(v)
	return &rounded
}

// BinIndex returns the distribution bin for a final mark. Marks are compared
// after rounding to one decimal so values such as 49.95 cannot fall between bins.
func BinIndex(mark float64) int {
	mark = round1(mark)
	for i := len(binBounds) - 1; i > 0; i-- {
		if mark >= binBounds[i].Min {
			return i
		}
	}
	return 0
}

func buildDistribution(rows []StudentFinal) Distribution {
	dist := Distribution{Bins: make([]DistributionBin, len(binBounds))}
	copy(dist.Bins, binBounds)
	for _, row := range rows {
		if row.FinalMark == nil {
			dist.NoFinalMarkCount++
			continue
		}
		dist.Bins[BinIndex(*row.FinalMark)].Count++
	}
	return dist
}

// rankStudents sorts once by mark descending, ties by ascending sort order, and
// reads Bottom from the reversed list.
func rankStudents(rows []StudentFinal, limit int) TopBottom {
	ranked := make([]RankedStudent, 0, len(rows))
	for _, row := range rows {
		if row.FinalMark == nil {
			continue
		}
		ranked = append(ranked, RankedStudent{
			StudentID:   row.StudentID,
			DisplayName: row.DisplayName,
			SortOrder:   row.SortOrder,
			FinalMark:   *row.FinalMark,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalMark != ranked[j].FinalMark {
			return ranked[i].FinalMark > ranked[j].FinalMark
		}
		return ranked[i].SortOrder < ranked[j].SortOrder
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	reversed := make([]RankedStudent, len(ranked))
	for i, r := range ranked {
		reversed[len(ranked)-1-i] = r
	}
	return TopBottom{
		Top:    firstN(ranked, limit),
		Bottom: firstN(reversed, limit),
	}
}

func firstN(list []RankedStudent, n int) []RankedStudent {
	if len(list) < n {
		n = len(list)
	}
	out := make([]RankedStudent, n)
	copy(out, list[:n])
	return out
}
