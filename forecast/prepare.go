// Package forecast turns the fact table into an annual series of set
// counts and runs the diagnostic and ARIMA pipeline on it.
package forecast

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sartorproj/brickcast/dataset"
	"github.com/sartorproj/brickcast/timeseries"
)

// DefaultTestYears is the length of the held-out tail.
const DefaultTestYears = 5

// SeriesName labels the annual series in exports.
const SeriesName = "nbr_sets"

var (
	// ErrNoData is returned when the table has no rows to count.
	ErrNoData = errors.New("no rows in the selected range")
	// ErrTooShort is returned when the series cannot cover the test years.
	ErrTooShort = errors.New("series too short for the train/test split")
)

// AnnualSetCounts returns the number of distinct set numbers per year.
func AnnualSetCounts(t *dataset.Table) map[int]int {
	seen := make(map[int]map[string]struct{})
	for _, row := range t.Rows {
		nums, ok := seen[row.Year]
		if !ok {
			nums = make(map[string]struct{})
			seen[row.Year] = nums
		}
		nums[row.SetNum] = struct{}{}
	}

	counts := make(map[int]int, len(seen))
	for year, nums := range seen {
		counts[year] = len(nums)
	}
	return counts
}

// AnnualSeries builds a gap-free series from the first to the last observed
// year, indexed by 31 December, with missing years counted as zero.
func AnnualSeries(t *dataset.Table) (*timeseries.Series, error) {
	counts := AnnualSetCounts(t)
	if len(counts) == 0 {
		return nil, ErrNoData
	}

	years := make([]int, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	sort.Ints(years)
	first, last := years[0], years[len(years)-1]

	values := make([]float64, last-first+1)
	for y, n := range counts {
		values[y-first] = float64(n)
	}
	s := timeseries.NewAnnual(first, values)
	s.Name = SeriesName
	return s, nil
}

// Split is the annual series with its train and test partitions.
type Split struct {
	Full  *timeseries.Series
	Train *timeseries.Series
	Test  *timeseries.Series
}

// Prepare builds the annual series of t and holds out the last testYears
// years. testYears <= 0 selects DefaultTestYears.
func Prepare(t *dataset.Table, testYears int) (*Split, error) {
	if testYears <= 0 {
		testYears = DefaultTestYears
	}
	full, err := AnnualSeries(t)
	if err != nil {
		return nil, err
	}
	if full.Len() <= testYears {
		return nil, fmt.Errorf("%w: %d years, %d held out", ErrTooShort, full.Len(), testYears)
	}

	train, test := full.Split(testYears)
	return &Split{Full: full, Train: train, Test: test}, nil
}
