// Package stats provides statistical tests and functions for time series analysis.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/brickcast/timeseries"
)

// ACF calculates the Autocorrelation Function for the given series.
// Returns ACF values for lags 0 to maxLag.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := series.Mean()
	variance := 0.0
	for _, v := range series.Values {
		diff := v - mean
		variance += diff * diff
	}

	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (series.Values[i] - mean) * (series.Values[i-k] - mean)
		}
		acf[k] = sum / variance
	}

	return acf
}

// PACF calculates the Partial Autocorrelation Function using the Durbin-Levinson algorithm.
// Returns PACF values for lags 0 to maxLag, with lag 0 fixed at 1.
func PACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		return nil
	}

	acf := ACF(series, maxLag)
	if acf == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1.0

	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}

	phi[1][1] = acf[1]
	pacf[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
			den -= phi[k-1][j] * acf[j]
		}

		if den == 0 {
			pacf[k] = 0
			continue
		}

		phi[k][k] = num / den
		pacf[k] = phi[k][k]

		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
	}

	return pacf
}

// Correlogram holds correlation estimates with a confidence band around zero.
// Band[k] is the half-width of the interval at lag k, so a lag is
// significant when |Values[k]| > Band[k].
type Correlogram struct {
	Lags   []int     `json:"lags"`
	Values []float64 `json:"values"`
	Band   []float64 `json:"band"`
	Alpha  float64   `json:"alpha"`
}

// DefaultACFLags returns the default number of ACF lags for n observations.
func DefaultACFLags(n int) int {
	if n < 2 {
		return 0
	}
	return min(int(10*math.Log10(float64(n))), n-1)
}

// DefaultPACFLags returns the default number of PACF lags for n observations.
func DefaultPACFLags(n int) int {
	if n < 4 {
		return 0
	}
	return min(int(10*math.Log10(float64(n))), n/2-1)
}

// ACFWithConfidence calculates ACF with Bartlett confidence bands at level
// 1-alpha. maxLag <= 0 selects DefaultACFLags.
func ACFWithConfidence(series *timeseries.Series, maxLag int, alpha float64) *Correlogram {
	n := series.Len()
	if maxLag <= 0 {
		maxLag = DefaultACFLags(n)
	}
	acf := ACF(series, maxLag)
	if acf == nil {
		return nil
	}

	z := criticalZ(alpha)
	band := make([]float64, len(acf))
	cum := 0.0
	for k := 1; k < len(acf); k++ {
		// Bartlett: var(r_k) = (1 + 2*sum_{j<k} r_j^2) / n
		band[k] = z * math.Sqrt((1+2*cum)/float64(n))
		cum += acf[k] * acf[k]
	}

	return &Correlogram{
		Lags:   lagRange(len(acf)),
		Values: acf,
		Band:   band,
		Alpha:  alpha,
	}
}

// PACFWithConfidence calculates PACF with 1/n variance bands at level
// 1-alpha. maxLag <= 0 selects DefaultPACFLags.
func PACFWithConfidence(series *timeseries.Series, maxLag int, alpha float64) *Correlogram {
	n := series.Len()
	if maxLag <= 0 {
		maxLag = DefaultPACFLags(n)
	}
	pacf := PACF(series, maxLag)
	if pacf == nil {
		return nil
	}

	width := criticalZ(alpha) / math.Sqrt(float64(n))
	band := make([]float64, len(pacf))
	for k := 1; k < len(pacf); k++ {
		band[k] = width
	}

	return &Correlogram{
		Lags:   lagRange(len(pacf)),
		Values: pacf,
		Band:   band,
		Alpha:  alpha,
	}
}

// SignificantLags returns the lags, excluding lag 0, whose estimate falls
// outside the confidence band.
func (c *Correlogram) SignificantLags() []int {
	var significant []int
	for i := 1; i < len(c.Values); i++ {
		if math.Abs(c.Values[i]) > c.Band[i] {
			significant = append(significant, c.Lags[i])
		}
	}
	return significant
}

func criticalZ(alpha float64) float64 {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}
	return distuv.UnitNormal.Quantile(1 - alpha/2)
}

func lagRange(n int) []int {
	lags := make([]int, n)
	for i := range lags {
		lags[i] = i
	}
	return lags
}
