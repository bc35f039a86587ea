package markset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
)

// Weight method codes stored on a mark set.
const (
	WeightByEntry    = 0
	WeightByCategory = 1
	WeightEqual      = 2
)

// Calc method codes stored on a mark set.
const (
	CalcAverage       = 0
	CalcMedian        = 1
	CalcMode          = 2
	CalcBlendedMode   = 3
	CalcBlendedMedian = 4
)

const (
	modeBandWidth     = 10.0
	modeBandCount     = 10
	weightTolerance   = 1e-9
	reasonUnsupported = "UNSUPPORTED_CALC_METHOD"
)

// Entry is one contributing assessment result for a student.
type Entry struct {
	Category string
	Percent  float64
	Weight   float64
}

// Point is a percent with the effective weight it carries into the final mark.
type Point struct {
	Percent float64
	Weight  float64
}

// WeightFunc turns a student's entries into weighted points.
// categories maps lower-cased category names to category weights.
type WeightFunc func(entries []Entry, categories map[string]float64, dropLowest int) []Point

// CalcFunc reduces weighted points to one mark; false means no mark.
type CalcFunc func(points []Point) (float64, bool)

// Strategy pairs a weighting scheme with a reducer.
type Strategy struct {
	WeightMethod int
	CalcMethod   int
	Weight       WeightFunc
	Calc         CalcFunc
}

var weightMethods = map[int]WeightFunc{
	WeightByEntry:    entryWeights,
	WeightByCategory: categoryWeights,
	WeightEqual:      equalWeights,
}

var calcMethods = map[int]CalcFunc{
	CalcAverage:       weightedAverage,
	CalcMedian:        weightedMedian,
	CalcMode:          weightedMode,
	CalcBlendedMode:   blend(weightedMode),
	CalcBlendedMedian: blend(weightedMedian),
}

// ResolveStrategy looks up the strategy for a mark set's method codes.
func ResolveStrategy(weightMethod, calcMethod int) (Strategy, error) {
	weight, ok := weightMethods[weightMethod]
	if !ok {
		return Strategy{}, unsupported("weight_method", weightMethod)
	}
	calc, ok := calcMethods[calcMethod]
	if !ok {
		return Strategy{}, unsupported("calc_method", calcMethod)
	}
	return Strategy{WeightMethod: weightMethod, CalcMethod: calcMethod, Weight: weight, Calc: calc}, nil
}

func unsupported(field string, code int) error {
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrCalc, fmt.Sprintf("unsupported %s %d", strings.ReplaceAll(field, "_", " "), code)),
		map[string]interface{}{"reason": reasonUnsupported, "field": field, "value": code},
	)
}

// Final computes a student's mark from entries.
func (s Strategy) Final(entries []Entry, categories map[string]float64, dropLowest int) (float64, bool) {
	points := s.Weight(entries, categories, dropLowest)
	if len(points) == 0 {
		return 0, false
	}
	return s.Calc(points)
}

func entryWeights(entries []Entry, _ map[string]float64, dropLowest int) []Point {
	kept := dropLowestEntries(entries, dropLowest)
	points := make([]Point, 0, len(kept))
	for _, e := range kept {
		if e.Weight <= 0 {
			continue
		}
		points = append(points, Point{Percent: e.Percent, Weight: e.Weight})
	}
	return points
}

func equalWeights(entries []Entry, _ map[string]float64, dropLowest int) []Point {
	kept := dropLowestEntries(entries, dropLowest)
	points := make([]Point, 0, len(kept))
	for _, e := range kept {
		points = append(points, Point{Percent: e.Percent, Weight: 1})
	}
	return points
}

// categoryWeights spreads each category's weight over its entries in
// proportion to entry weight, renormalised over the categories the student has marks in.
func categoryWeights(entries []Entry, categories map[string]float64, dropLowest int) []Point {
	grouped := make(map[string][]Entry)
	var order []string
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Category))
		if categories[key] <= 0 || e.Weight <= 0 {
			continue
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], e)
	}
	var totalCategoryWeight float64
	for _, key := range order {
		totalCategoryWeight += categories[key]
	}
	if totalCategoryWeight <= 0 {
		return nil
	}

	var points []Point
	for _, key := range order {
		kept := dropLowestEntries(grouped[key], dropLowest)
		var entryTotal float64
		for _, e := range kept {
			entryTotal += e.Weight
		}
		if entryTotal <= 0 {
			continue
		}
		share := categories[key] / totalCategoryWeight
		for _, e := range kept {
			points = append(points, Point{Percent: e.Percent, Weight: share * e.Weight / entryTotal})
		}
	}
	return points
}

// dropLowestEntries removes up to n of the lowest percents, always keeping at least one entry.
func dropLowestEntries(entries []Entry, n int) []Entry {
	if n <= 0 || len(entries) <= 1 {
		return entries
	}
	if n >= len(entries) {
		n = len(entries) - 1
	}
	indexes := make([]int, len(entries))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		return entries[indexes[a]].Percent < entries[indexes[b]].Percent
	})
	dropped := make(map[int]struct{}, n)
	for _, idx := range indexes[:n] {
		dropped[idx] = struct{}{}
	}
	kept := make([]Entry, 0, len(entries)-n)
	for i, e := range entries {
		if _, ok := dropped[i]; !ok {
			kept = append(kept, e)
		}
	}
	return kept
}

func weightedAverage(points []Point) (float64, bool) {
	var sum, total float64
	for _, p := range points {
		sum += p.Percent * p.Weight
		total += p.Weight
	}
	if total <= 0 {
		return 0, false
	}
	return sum / total, true
}

// weightedMedian takes the first percent whose cumulative weight reaches half the
// total; landing exactly on the half averages it with the next percent.
func weightedMedian(points []Point) (float64, bool) {
	sorted := make([]Point, 0, len(points))
	var total float64
	for _, p := range points {
		if p.Weight <= 0 {
			continue
		}
		sorted = append(sorted, p)
		total += p.Weight
	}
	if total <= 0 {
		return 0, false
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Percent < sorted[j].Percent })
	half := total / 2
	var cumulative float64
	for i, p := range sorted {
		cumulative += p.Weight
		if math.Abs(cumulative-half) <= weightTolerance && i+1 < len(sorted) {
			return (p.Percent + sorted[i+1].Percent) / 2, true
		}
		if cumulative > half {
			return p.Percent, true
		}
	}
	return sorted[len(sorted)-1].Percent, true
}

// weightedMode picks the 10-point band holding the most weight (ties go to the
// higher band) and returns the weighted mean of that band.
func weightedMode(points []Point) (float64, bool) {
	var bandWeight [modeBandCount]float64
	bands := make([][]Point, modeBandCount)
	for _, p := range points {
		if p.Weight <= 0 {
			continue
		}
		band := modeBand(p.Percent)
		bandWeight[band] += p.Weight
		bands[band] = append(bands[band], p)
	}
	best := -1
	for band := modeBandCount - 1; band >= 0; band-- {
		if bandWeight[band] <= 0 {
			continue
		}
		if best < 0 || bandWeight[band] > bandWeight[best]+weightTolerance {
			best = band
		}
	}
	if best < 0 {
		return 0, false
	}
	return weightedAverage(bands[best])
}

func modeBand(percent float64) int {
	band := int(math.Floor(percent / modeBandWidth))
	if band < 0 {
		return 0
	}
	if band >= modeBandCount {
		return modeBandCount - 1
	}
	return band
}

// blend averages a reducer with the weighted mean.
func blend(calc CalcFunc) CalcFunc {
	return func(points []Point) (float64, bool) {
		primary, ok := calc(points)
		if !ok {
			return 0, false
		}
		mean, ok := weightedAverage(points)
		if !ok {
			return 0, false
		}
		return (primary + mean) / 2, true
	}
}
