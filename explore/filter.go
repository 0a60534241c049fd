// Package explore derives the dashboard's aggregate views from the fact
// table. Every function is pure: inputs are never mutated and results are
// freshly allocated.
package explore

import (
	"fmt"

	"github.com/sartorproj/brickcast/dataset"
)

// Bounds of the year selector.
const (
	MinYear = 1950
	MaxYear = 2017
)

// YearRange is an inclusive year interval.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FullRange returns the default selector range.
func FullRange() YearRange {
	return YearRange{Start: MinYear, End: MaxYear}
}

// Validate checks the range against the selector bounds.
func (r YearRange) Validate() error {
	return r.Within(MinYear, MaxYear)
}

// Within checks that lo <= Start <= End <= hi.
func (r YearRange) Within(lo, hi int) error {
	if r.Start > r.End {
		return fmt.Errorf("start year %d is after end year %d", r.Start, r.End)
	}
	if r.Start < lo || r.End > hi {
		return fmt.Errorf("year range %d-%d outside %d-%d", r.Start, r.End, lo, hi)
	}
	return nil
}

// Contains reports whether year lies in the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Filter returns a new table holding the rows whose year lies in r.
func Filter(t *dataset.Table, r YearRange) *dataset.Table {
	rows := make([]dataset.Row, 0, t.Len())
	for _, row := range t.Rows {
		if r.Contains(row.Year) {
			rows = append(rows, row)
		}
	}
	return dataset.NewTable(rows)
}
