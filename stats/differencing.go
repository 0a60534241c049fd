package stats

import (
	"github.com/sartorproj/brickcast/timeseries"
)

// SuggestDifferencing returns the smallest number of first differences, up
// to maxD, after which the ADF test rejects a unit root. When the test cannot
// run on a shorter series the order reached so far is returned.
func SuggestDifferencing(series *timeseries.Series, maxD int) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		result, err := ADF(current, 0)
		if err != nil {
			return d
		}
		if result.IsStationary {
			return d
		}

		current = current.Diff()
		if current.Len() < 10 {
			return d + 1
		}
	}

	return maxD
}
