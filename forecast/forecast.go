package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sartorproj/brickcast/arima"
	"github.com/sartorproj/brickcast/autoarima"
	"github.com/sartorproj/brickcast/dataset"
	"github.com/sartorproj/brickcast/stats"
	"github.com/sartorproj/brickcast/timeseries"
)

// Integration order of the fitted model. The differencing selector only
// drives the diagnostics.
const fitD = 1

// Limits of the user controls.
const (
	MaxDiff  = 2
	MaxOrder = 10
)

// Params are the forecaster controls.
type Params struct {
	Diff      int     `json:"diff"`
	P         int     `json:"p"`
	Q         int     `json:"q"`
	TestYears int     `json:"test_years"`
	Alpha     float64 `json:"alpha"`
}

// DefaultParams returns the initial control values.
func DefaultParams() Params {
	return Params{Diff: 1, TestYears: DefaultTestYears, Alpha: 0.05}
}

// Validate checks the controls against their ranges.
func (p Params) Validate() error {
	var problems []string
	if p.Diff < 0 || p.Diff > MaxDiff {
		problems = append(problems, fmt.Sprintf("differencing order must be 0-%d, got %d", MaxDiff, p.Diff))
	}
	if p.P < 0 || p.P > MaxOrder {
		problems = append(problems, fmt.Sprintf("p must be 0-%d, got %d", MaxOrder, p.P))
	}
	if p.Q < 0 || p.Q > MaxOrder {
		problems = append(problems, fmt.Sprintf("q must be 0-%d, got %d", MaxOrder, p.Q))
	}
	if p.TestYears < 1 {
		problems = append(problems, fmt.Sprintf("test years must be positive, got %d", p.TestYears))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Point is one year of a series.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Points pairs the values of s with its calendar years.
func Points(s *timeseries.Series) []Point {
	years := s.Years()
	out := make([]Point, len(s.Values))
	for i, v := range s.Values {
		out[i] = Point{Value: v}
		if years != nil {
			out[i].Year = years[i]
		}
	}
	return out
}

// Diagnostics are the informational checks on the differenced training
// series.
type Diagnostics struct {
	Order         int                `json:"order"`
	Differenced   []Point            `json:"differenced"`
	ADF           *stats.ADFResult   `json:"adf,omitempty"`
	ADFError      string             `json:"adf_error,omitempty"`
	ACF           *stats.Correlogram `json:"acf,omitempty"`
	PACF          *stats.Correlogram `json:"pacf,omitempty"`
	SuggestedDiff int                `json:"suggested_diff"`
}

// FitSummary describes the fitted model. AICc is nil when the sample is too
// small for the correction. Warning is set when the optimiser stopped at its
// budget with an admissible estimate.
type FitSummary struct {
	Order      arima.Order           `json:"order"`
	AR         []float64             `json:"ar"`
	MA         []float64             `json:"ma"`
	Sigma2     float64               `json:"sigma2"`
	LogLik     float64               `json:"log_likelihood"`
	AIC        float64               `json:"aic"`
	AICc       *float64              `json:"aicc"`
	BIC        float64               `json:"bic"`
	NObs       int                   `json:"n_obs"`
	Iterations int                   `json:"iterations"`
	Warning    string                `json:"warning,omitempty"`
	LjungBox   *stats.LjungBoxResult `json:"ljung_box,omitempty"`
}

// Metrics compare the forecast with the held-out years. MAPE is nil when
// every test value is zero.
type Metrics struct {
	RMSE float64  `json:"rmse"`
	MAE  float64  `json:"mae"`
	MAPE *float64 `json:"mape"`
}

// Result is everything the forecaster page shows for one set of controls.
// A failed fit leaves Fit, Predicted, Forecast and Metrics empty and sets
// FitErr; the rest is still populated.
type Result struct {
	Params      Params      `json:"params"`
	Actual      []Point     `json:"actual"`
	Train       []Point     `json:"train"`
	Test        []Point     `json:"test"`
	Diagnostics Diagnostics `json:"diagnostics"`
	Fit         *FitSummary `json:"fit,omitempty"`
	Predicted   []Point     `json:"predicted,omitempty"`
	Forecast    []Point     `json:"forecast,omitempty"`
	Metrics     *Metrics    `json:"metrics,omitempty"`
	FitError    string      `json:"fit_error,omitempty"`

	FitErr error `json:"-"`
}

// Run prepares the annual series of t and runs diagnostics, the ARIMA(p,1,q)
// fit, predictions and evaluation. It fails only for invalid controls or a
// series too short to split; model failures are reported in the result.
func Run(t *dataset.Table, p Params) (*Result, error) {
	if p.TestYears == 0 {
		p.TestYears = DefaultTestYears
	}
	if p.Alpha <= 0 || p.Alpha >= 1 {
		p.Alpha = 0.05
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	split, err := Prepare(t, p.TestYears)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Params:      p,
		Actual:      Points(split.Full),
		Train:       Points(split.Train),
		Test:        Points(split.Test),
		Diagnostics: Diagnose(split.Train, p.Diff, p.Alpha),
	}

	model := arima.New(p.P, fitD, p.Q)
	if err := model.Fit(split.Train); err != nil {
		res.FitErr = err
		res.FitError = err.Error()
		return res, nil
	}
	res.Fit = summarize(model)

	years := split.Full.Years()
	predicted, err := model.Predict(0, split.Full.Len()-1)
	if err != nil {
		res.FitErr = err
		res.FitError = err.Error()
		return res, nil
	}
	res.Predicted = make([]Point, len(predicted))
	for i, v := range predicted {
		res.Predicted[i] = Point{Year: years[i], Value: v}
	}

	ahead, err := model.Forecast(split.Test.Len())
	if err != nil {
		res.FitErr = err
		res.FitError = err.Error()
		return res, nil
	}
	res.Forecast = make([]Point, len(ahead))
	testYears := split.Test.Years()
	for i, v := range ahead {
		res.Forecast[i] = Point{Year: testYears[i], Value: v}
	}
	res.Metrics = Evaluate(split.Test.Values, ahead)
	return res, nil
}

// Diagnose differences s order times and runs the ADF test and the
// correlograms on the result. Failures of individual checks are recorded,
// not returned.
func Diagnose(s *timeseries.Series, order int, alpha float64) Diagnostics {
	diffed := s.Difference(order)
	d := Diagnostics{
		Order:         order,
		Differenced:   Points(diffed),
		SuggestedDiff: stats.SuggestDifferencing(s, MaxDiff),
	}

	if adf, err := stats.ADF(diffed, 0); err != nil {
		d.ADFError = err.Error()
	} else {
		d.ADF = adf
	}
	d.ACF = stats.ACFWithConfidence(diffed, 0, alpha)
	d.PACF = stats.PACFWithConfidence(diffed, 0, alpha)
	return d
}

func summarize(m *arima.Model) *FitSummary {
	s := m.Summary()
	fs := &FitSummary{
		Order:      s.Order,
		AR:         s.ARCoeffs,
		MA:         s.MACoeffs,
		Sigma2:     s.Variance,
		LogLik:     s.LogLik,
		AIC:        s.AIC,
		BIC:        s.BIC,
		NObs:       s.NObs,
		Iterations: s.Iterations,
		Warning:    s.Warning,
		LjungBox:   s.LjungBox,
	}
	if !math.IsInf(s.AICc, 0) && !math.IsNaN(s.AICc) {
		aicc := s.AICc
		fs.AICc = &aicc
	}
	return fs
}

// Evaluate computes RMSE, MAE and MAPE of predicted against actual over
// their common length.
func Evaluate(actual, predicted []float64) *Metrics {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return nil
	}

	var sse, sae, sape float64
	nonzero := 0
	for i := 0; i < n; i++ {
		e := actual[i] - predicted[i]
		sse += e * e
		sae += math.Abs(e)
		if actual[i] != 0 {
			sape += math.Abs(e / actual[i])
			nonzero++
		}
	}

	m := &Metrics{
		RMSE: math.Sqrt(sse / float64(n)),
		MAE:  sae / float64(n),
	}
	if nonzero > 0 {
		mape := 100 * sape / float64(nonzero)
		m.MAPE = &mape
	}
	return m
}

// Suggest searches (p, q) for the ARIMA(p,1,q) fit on the training part of
// t. A nil config searches up to the control limits stepwise by AICc.
func Suggest(t *dataset.Table, testYears int, cfg *autoarima.Config) (*autoarima.Result, error) {
	split, err := Prepare(t, testYears)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = autoarima.DefaultConfig()
		cfg.MaxP, cfg.MaxQ = MaxOrder, MaxOrder
	}
	cfg.D = fitD
	return autoarima.AutoARIMA(split.Train, cfg)
}

// Describe renders a one-line summary for notifications.
func (r *Result) Describe() string {
	if r.FitErr != nil || len(r.Forecast) == 0 {
		return fmt.Sprintf("ARIMA(%d,%d,%d) fit failed: %s", r.Params.P, fitD, r.Params.Q, r.FitError)
	}

	values := make([]string, len(r.Forecast))
	for i, pt := range r.Forecast {
		values[i] = fmt.Sprintf("%d: %s", pt.Year, humanize.Comma(int64(math.Round(pt.Value))))
	}
	line := fmt.Sprintf("%s forecast %s", r.Fit.Order, strings.Join(values, ", "))
	if r.Metrics != nil {
		rmse := math.Round(r.Metrics.RMSE*100) / 100
		line += fmt.Sprintf(" (test RMSE %s)", humanize.CommafWithDigits(rmse, 2))
	}
	return line
}
