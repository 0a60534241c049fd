// Package arima implements ARIMA (AutoRegressive Integrated Moving Average) models.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/brickcast/stats"
	"github.com/sartorproj/brickcast/timeseries"
)

var (
	// ErrInsufficientData is returned when the series is too short for the order.
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	// ErrNotFitted is returned when predictions are requested before Fit.
	ErrNotFitted = errors.New("model must be fitted before prediction")
	// ErrInvalidOrder is returned for negative orders.
	ErrInvalidOrder = errors.New("orders must be non-negative")
)

// maxModulus bounds the companion-matrix eigenvalues of accepted AR and MA
// polynomials.
const maxModulus = 0.999

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int `json:"p"` // AR order (number of autoregressive terms)
	D int `json:"d"` // Differencing order
	Q int `json:"q"` // MA order (number of moving average terms)
}

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// ConvergenceError reports a fit whose optimiser did not reach a usable
// minimum for the requested order.
type ConvergenceError struct {
	Order  Order
	Reason string
	Err    error
}

func (e *ConvergenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s did not converge: %s: %v", e.Order, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s did not converge: %s", e.Order, e.Reason)
}

func (e *ConvergenceError) Unwrap() error { return e.Err }

// Model represents an ARIMA model.
type Model struct {
	Order      Order
	ARCoeffs   []float64 // AR coefficients (phi)
	MACoeffs   []float64 // MA coefficients (theta)
	Intercept  float64   // mean of the differenced series; zero when D > 0
	Variance   float64   // Residual variance
	AIC        float64
	AICc       float64 // Corrected AIC for small sample sizes
	BIC        float64
	LogLik     float64
	Iterations int
	Warning    string // set when the optimiser stopped at a budget limit
	fitted     bool
	data       *timeseries.Series
	diffData   *timeseries.Series
	residuals  []float64
	fittedVals []float64
}

// New creates a new ARIMA model with the specified order.
func New(p, d, q int) *Model {
	return &Model{
		Order:    Order{P: p, D: d, Q: q},
		ARCoeffs: make([]float64, max(p, 0)),
		MACoeffs: make([]float64, max(q, 0)),
	}
}

// Fit estimates the model by conditional sum of squares on the differenced
// series. Without differencing the intercept is the sample mean; with
// differencing no trend term is estimated. The differenced series must be
// longer than p+q+1. An optimiser failure or a non-finite, non-stationary or
// non-invertible estimate returns a *ConvergenceError.
func (m *Model) Fit(series *timeseries.Series) error {
	o := m.Order
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("%s: %w", o, ErrInvalidOrder)
	}
	if series.Len()-o.D <= o.P+o.Q+1 {
		return fmt.Errorf("%s on %d points: %w", o, series.Len(), ErrInsufficientData)
	}

	m.fitted = false
	m.Warning = ""
	m.data = series
	m.diffData = series.Difference(o.D)

	m.Intercept = 0
	if o.D == 0 {
		m.Intercept = m.diffData.Mean()
	}

	if o.P == 0 && o.Q == 0 {
		m.Iterations = 0
		m.computeResiduals()
	} else if err := m.fitCSS(); err != nil {
		return err
	}

	m.calculateIC()
	m.fitted = true
	return nil
}

// fitCSS minimises the conditional sum of squares with Nelder-Mead,
// restarting once from the best point. An estimate that is admissible but
// stopped at a budget limit is kept and flagged in Warning.
func (m *Model) fitCSS() error {
	p, q := m.Order.P, m.Order.Q

	x0 := make([]float64, p+q)
	if p > 0 {
		acf := stats.ACF(m.diffData, p)
		if init := yuleWalker(acf, p); init != nil && isStationary(init) {
			copy(x0, init)
		}
	}

	y := m.diffData.Values
	scratch := make([]float64, len(y))
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			ar, ma := x[:p], x[p:]
			excess := math.Max(companionModulus(ar, 1), companionModulus(ma, -1)) - maxModulus
			if excess > 0 {
				return 1e12 * (1 + excess)
			}
			return cssResiduals(y, m.Intercept, ar, ma, scratch)
		},
	}

	best, err := optimize.Minimize(problem, x0, nelderMeadSettings(p+q), &optimize.NelderMead{})
	if err != nil {
		return &ConvergenceError{Order: m.Order, Reason: "optimiser failed", Err: err}
	}
	iterations := best.Stats.MajorIterations
	if again, err := optimize.Minimize(problem, best.X, nelderMeadSettings(p+q), &optimize.NelderMead{}); err == nil {
		iterations += again.Stats.MajorIterations
		if again.F <= best.F {
			best = again
		}
	}

	if best.Status == optimize.Failure {
		return &ConvergenceError{Order: m.Order, Reason: best.Status.String()}
	}
	if !finite(best.F) || !allFinite(best.X) {
		return &ConvergenceError{Order: m.Order, Reason: "non-finite sum of squares"}
	}
	ar, ma := best.X[:p], best.X[p:]
	if !isStationary(ar) || !isInvertible(ma) {
		return &ConvergenceError{Order: m.Order, Reason: "estimate is non-stationary or non-invertible"}
	}
	switch best.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		m.Warning = fmt.Sprintf("%s: optimiser stopped at %s, estimates may not be at the minimum", m.Order, best.Status)
	}

	m.ARCoeffs = append(m.ARCoeffs[:0], ar...)
	m.MACoeffs = append(m.MACoeffs[:0], ma...)
	m.Iterations = iterations
	m.computeResiduals()
	return nil
}

// nelderMeadSettings scales the iteration budget with the number of
// coefficients.
func nelderMeadSettings(k int) *optimize.Settings {
	budget := 1000 * (k + 1)
	return &optimize.Settings{
		MajorIterations: budget,
		FuncEvaluations: 4 * budget,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-9,
			Relative:   1e-9,
			Iterations: 100,
		},
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if !finite(v) {
			return false
		}
	}
	return true
}

// cssResiduals fills resid with the conditional residuals and returns their
// sum of squares. Residuals before the first p observations are zero.
func cssResiduals(y []float64, mu float64, ar, ma, resid []float64) float64 {
	p := len(ar)
	sse := 0.0
	for t := range y {
		if t < p {
			resid[t] = 0
			continue
		}
		pred := oneStep(y, resid, t, mu, ar, ma)
		resid[t] = y[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse
}

// oneStep returns the prediction for index t from values and residuals
// strictly before t.
func oneStep(y, resid []float64, t int, mu float64, ar, ma []float64) float64 {
	pred := mu
	for i := 0; i < len(ar) && t-i-1 >= 0; i++ {
		pred += ar[i] * (y[t-i-1] - mu)
	}
	for j := 0; j < len(ma) && t-j-1 >= 0; j++ {
		pred += ma[j] * resid[t-j-1]
	}
	return pred
}

func (m *Model) computeResiduals() {
	y := m.diffData.Values
	n := len(y)
	p := m.Order.P

	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	sse := cssResiduals(y, m.Intercept, m.ARCoeffs, m.MACoeffs, m.residuals)
	for t := range y {
		if t < p {
			m.fittedVals[t] = m.Intercept
			continue
		}
		m.fittedVals[t] = y[t] - m.residuals[t]
	}

	m.Variance = 0
	if count := n - p; count > 0 {
		m.Variance = sse / float64(count)
	}
}

// calculateIC calculates AIC, AICc, and BIC from the concentrated CSS
// log-likelihood.
func (m *Model) calculateIC() {
	n := len(m.diffData.Values) - m.Order.P
	k := m.Order.P + m.Order.Q + 1 // AR + MA + variance
	if m.Order.D == 0 {
		k++ // intercept
	}

	nf := float64(n)
	sigma2 := math.Max(m.Variance, math.SmallestNonzeroFloat64)
	m.LogLik = -nf / 2 * (math.Log(2*math.Pi) + math.Log(sigma2) + 1)

	kf := float64(k)
	m.AIC = -2*m.LogLik + 2*kf
	if nf-kf-1 > 0 {
		m.AICc = m.AIC + 2*kf*(kf+1)/(nf-kf-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + kf*math.Log(nf)
}

// Predict returns level predictions for observation indices start..end
// inclusive. Indices inside the fitted sample are one-step-ahead predictions
// built from observed history; indices from Len() onward are dynamic
// forecasts. The first D indices have no prediction and echo the observed
// values.
func (m *Model) Predict(start, end int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid prediction range [%d, %d]", start, end)
	}

	levels := m.data.Values
	n := len(levels)
	d := m.Order.D

	var ahead []float64
	if end >= n {
		ahead = m.forecastLevels(end - n + 1)
	}

	out := make([]float64, 0, end-start+1)
	for t := start; t <= end; t++ {
		switch {
		case t >= n:
			out = append(out, ahead[t-n])
		case t < d:
			out = append(out, levels[t])
		default:
			out = append(out, integrateStep(m.fittedVals[t-d], levels, t, d))
		}
	}
	return out, nil
}

// Forecast returns the next steps level forecasts after the fitted sample.
func (m *Model) Forecast(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}
	return m.Predict(m.data.Len(), m.data.Len()+steps-1)
}

// forecastLevels runs the recursion forward with future shocks set to zero
// and undoes the differencing on the extended level path.
func (m *Model) forecastLevels(steps int) []float64 {
	y := m.diffData.Values
	n := len(y)
	d := m.Order.D

	extY := make([]float64, n+steps)
	copy(extY, y)
	extResid := make([]float64, n+steps)
	copy(extResid, m.residuals)

	levels := make([]float64, len(m.data.Values), len(m.data.Values)+steps)
	copy(levels, m.data.Values)

	for h := 0; h < steps; h++ {
		t := n + h
		extY[t] = oneStep(extY, extResid, t, m.Intercept, m.ARCoeffs, m.MACoeffs)
		levels = append(levels, integrateStep(extY[t], levels, len(levels), d))
	}
	return levels[len(m.data.Values):]
}

// integrateStep recovers the level at index t from its d-th difference and
// the d preceding levels.
func integrateStep(diff float64, levels []float64, t, d int) float64 {
	value := diff
	sign := 1.0
	for k := 1; k <= d; k++ {
		value += sign * binomial(d, k) * levels[t-k]
		sign = -sign
	}
	return value
}

func binomial(n, k int) float64 {
	out := 1.0
	for i := 1; i <= k; i++ {
		out = out * float64(n-k+i) / float64(i)
	}
	return out
}

// Len returns the number of observations the model was fitted on.
func (m *Model) Len() int {
	if m.data == nil {
		return 0
	}
	return m.data.Len()
}

// Residuals returns the model residuals.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// FittedValues returns the fitted values on the differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.fittedVals))
	copy(result, m.fittedVals)
	return result
}

// Summary returns a summary of the fitted model.
type Summary struct {
	Order      Order                 `json:"order"`
	ARCoeffs   []float64             `json:"ar"`
	MACoeffs   []float64             `json:"ma"`
	Intercept  float64               `json:"intercept"`
	Variance   float64               `json:"sigma2"`
	AIC        float64               `json:"aic"`
	AICc       float64               `json:"aicc"`
	BIC        float64               `json:"bic"`
	LogLik     float64               `json:"log_likelihood"`
	NObs       int                   `json:"n_obs"`
	Iterations int                   `json:"iterations"`
	Warning    string                `json:"warning,omitempty"`
	LjungBox   *stats.LjungBoxResult `json:"ljung_box,omitempty"`
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	resid := m.residuals[m.Order.P:]
	lb := stats.LjungBox(timeseries.New(resid), min(10, len(resid)/5), m.Order.P+m.Order.Q)

	return &Summary{
		Order:      m.Order,
		ARCoeffs:   append([]float64(nil), m.ARCoeffs...),
		MACoeffs:   append([]float64(nil), m.MACoeffs...),
		Intercept:  m.Intercept,
		Variance:   m.Variance,
		AIC:        m.AIC,
		AICc:       m.AICc,
		BIC:        m.BIC,
		LogLik:     m.LogLik,
		NObs:       m.data.Len(),
		Iterations: m.Iterations,
		Warning:    m.Warning,
		LjungBox:   lb,
	}
}

func isStationary(ar []float64) bool { return companionModulus(ar, 1) < maxModulus+1e-12 }

func isInvertible(ma []float64) bool { return companionModulus(ma, -1) < maxModulus+1e-12 }

// companionModulus returns the largest eigenvalue modulus of the companion
// matrix of 1 - sign*(c1*z + c2*z^2 + ...). sign is 1 for AR and -1 for MA
// polynomials.
func companionModulus(coeffs []float64, sign float64) float64 {
	k := len(coeffs)
	switch k {
	case 0:
		return 0
	case 1:
		return math.Abs(coeffs[0])
	}

	comp := mat.NewDense(k, k, nil)
	for j, c := range coeffs {
		comp.Set(0, j, sign*c)
	}
	for i := 1; i < k; i++ {
		comp.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(comp, mat.EigenNone) {
		return math.Inf(1)
	}
	largest := 0.0
	for _, v := range eig.Values(nil) {
		largest = math.Max(largest, math.Hypot(real(v), imag(v)))
	}
	return largest
}

// yuleWalker estimates AR coefficients using Yule-Walker equations.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	// Levinson-Durbin recursion
	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}

	return phi
}
