package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/brickcast/timeseries"
)

// ErrInsufficientData is returned when a series is too short for a test.
var ErrInsufficientData = errors.New("insufficient data points")

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64            `json:"statistic"`
	PValue       float64            `json:"p_value"`
	Lags         int                `json:"lags"`
	NObs         int                `json:"n_obs"`
	CriticalVals map[string]float64 `json:"critical_values"`
	ICBest       float64            `json:"ic_best"`
	IsStationary bool               `json:"is_stationary"`
}

// ADF performs the Augmented Dickey-Fuller test for a unit root with a
// constant term. The null hypothesis is that the series has a unit root
// (is non-stationary); a p-value below 0.05 rejects it.
//
// maxLag <= 0 selects ceil(12*(n/100)^(1/4)), capped at n/2-2. The number
// of lagged differences is chosen by minimum AIC over a common sample, then
// the regression is re-run on the full sample for that lag.
func ADF(series *timeseries.Series, maxLag int) (*ADFResult, error) {
	n := series.Len()
	if n < 4 {
		return nil, fmt.Errorf("adf: %w: need at least 4 observations, got %d", ErrInsufficientData, n)
	}

	if maxLag <= 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
		maxLag = min(n/2-2, maxLag)
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("adf: %w: sample too short for a constant regression", ErrInsufficientData)
	}

	diff := series.Diff().Values
	if limit := (len(diff) - 3) / 2; maxLag > limit {
		maxLag = limit
	}
	levels := series.Values

	// Lag selection on the common sample that allows maxLag lagged differences.
	bestLag, bestAIC := 0, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		x, y := adfDesign(levels, diff, lag, maxLag)
		fit, err := ols(x, y)
		if err != nil {
			continue
		}
		if aic := fit.aic(); aic < bestAIC {
			bestAIC, bestLag = aic, lag
		}
	}
	if math.IsInf(bestAIC, 1) {
		return nil, fmt.Errorf("adf: %w", ErrSingular)
	}

	x, y := adfDesign(levels, diff, bestLag, bestLag)
	fit, err := ols(x, y)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}
	if fit.stdErrors[1] == 0 || math.IsNaN(fit.stdErrors[1]) {
		return nil, fmt.Errorf("adf: %w", ErrSingular)
	}

	// t-statistic for the lagged level coefficient.
	tStat := fit.coeffs[1] / fit.stdErrors[1]
	pValue := mackinnonPValue(tStat)

	return &ADFResult{
		Statistic:    tStat,
		PValue:       pValue,
		Lags:         bestLag,
		NObs:         fit.nobs,
		CriticalVals: mackinnonCritical(fit.nobs),
		ICBest:       bestAIC,
		IsStationary: pValue < 0.05,
	}, nil
}

// adfDesign builds the regression
//
//	dy_t = alpha + beta*y_{t-1} + sum_{i=1..lag} gamma_i*dy_{t-i}
//
// using the trailing observations that leave room for window lagged
// differences.
func adfDesign(levels, diff []float64, lag, window int) ([][]float64, []float64) {
	nobs := len(diff) - window
	x := make([][]float64, nobs)
	y := make([]float64, nobs)
	for i := 0; i < nobs; i++ {
		t := window + i // index into diff
		y[i] = diff[t]
		row := make([]float64, 2+lag)
		row[0] = 1
		row[1] = levels[t]
		for j := 1; j <= lag; j++ {
			row[1+j] = diff[t-j]
		}
		x[i] = row
	}
	return x, y
}

// mackinnonPValue approximates the ADF p-value for a constant-only
// regression using the MacKinnon (1994) response surface.
func mackinnonPValue(stat float64) float64 {
	const (
		maxStat  = 2.74
		minStat  = -18.83
		starStat = -1.61
	)
	switch {
	case stat > maxStat:
		return 1
	case stat < minStat:
		return 0
	}

	var coef []float64
	if stat <= starStat {
		coef = []float64{2.1659, 1.4412, 0.038269}
	} else {
		coef = []float64{1.7339, 0.93202, -0.12745, -0.010368}
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// mackinnonCritical returns the finite-sample critical values (MacKinnon
// 2010) for a constant-only regression with nobs observations.
func mackinnonCritical(nobs int) map[string]float64 {
	table := map[string][]float64{
		"1%":  {-3.43035, -6.5393, -16.786, -79.433},
		"5%":  {-2.86154, -2.8903, -4.234, -40.040},
		"10%": {-2.56677, -1.5384, -2.809, 0},
	}
	inv := 1 / float64(nobs)
	out := make(map[string]float64, len(table))
	for level, coef := range table {
		out[level] = polyval(coef, inv)
	}
	return out
}

// polyval evaluates c[0] + c[1]*x + c[2]*x^2 + ...
func polyval(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}
