package arima

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/sartorproj/brickcast/timeseries"
)

func noise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = rng.NormFloat64()
	}
	return values
}

func randomWalkWithDrift(n int, drift float64, seed int64) []float64 {
	e := noise(n, seed)
	values := make([]float64, n)
	values[0] = 50
	for i := 1; i < n; i++ {
		values[i] = values[i-1] + drift + 4*e[i]
	}
	return values
}

func ar1Series(n int, phi, mean float64) []float64 {
	e := noise(n, 11)
	values := make([]float64, n)
	values[0] = mean
	for i := 1; i < n; i++ {
		values[i] = phi*(values[i-1]-mean) + mean + e[i]
	}
	return values
}

func TestNewARIMA(t *testing.T) {
	model := New(2, 1, 1)

	if model.Order.P != 2 {
		t.Errorf("Expected P=2, got %d", model.Order.P)
	}
	if model.Order.D != 1 {
		t.Errorf("Expected D=1, got %d", model.Order.D)
	}
	if model.Order.Q != 1 {
		t.Errorf("Expected Q=1, got %d", model.Order.Q)
	}
	if got := model.Order.String(); got != "ARIMA(2,1,1)" {
		t.Errorf("Unexpected order string %q", got)
	}
}

func TestARIMAFitAR1(t *testing.T) {
	phi := 0.7
	series := timeseries.New(ar1Series(200, phi, 100))
	model := New(1, 0, 0)

	if err := model.Fit(series); err != nil {
		t.Fatalf("Failed to fit AR(1) model: %v", err)
	}

	t.Logf("True AR coeff: %f, Estimated: %f", phi, model.ARCoeffs[0])
	if math.Abs(model.ARCoeffs[0]-phi) > 0.15 {
		t.Errorf("AR coefficient estimate is off: true=%f, est=%f", phi, model.ARCoeffs[0])
	}
	if math.Abs(model.Intercept-series.Mean()) > 1e-9 {
		t.Errorf("Intercept should be the sample mean without differencing, got %f", model.Intercept)
	}
	if len(model.Residuals()) != 200 {
		t.Errorf("Expected 200 residuals, got %d", len(model.Residuals()))
	}
}

func TestARIMAFitMA1(t *testing.T) {
	theta := 0.5
	e := noise(300, 5)
	values := make([]float64, len(e))
	values[0] = e[0]
	for i := 1; i < len(e); i++ {
		values[i] = e[i] + theta*e[i-1] + 50
	}

	model := New(0, 0, 1)
	if err := model.Fit(timeseries.New(values[1:])); err != nil {
		t.Fatalf("Failed to fit MA(1) model: %v", err)
	}

	t.Logf("True MA coeff: %f, Estimated: %f", theta, model.MACoeffs[0])
	if math.Abs(model.MACoeffs[0]-theta) > 0.2 {
		t.Errorf("MA coefficient estimate is off: true=%f, est=%f", theta, model.MACoeffs[0])
	}
}

func TestARIMAFitWithDifferencing(t *testing.T) {
	steps := noise(200, 3)
	values := make([]float64, len(steps))
	values[0] = 100
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + steps[i]
	}

	model := New(1, 1, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit ARIMA(1,1,0) model: %v", err)
	}
	if model.Intercept != 0 {
		t.Errorf("Differenced model should carry no intercept, got %f", model.Intercept)
	}
	if len(model.Residuals()) != 199 {
		t.Errorf("Expected 199 residuals on the differenced scale, got %d", len(model.Residuals()))
	}

	t.Logf("ARIMA(1,1,0) - AIC: %f, BIC: %f, phi: %f", model.AIC, model.BIC, model.ARCoeffs[0])
}

func TestRandomWalkPredictions(t *testing.T) {
	values := []float64{5, 7, 6, 9, 12, 10, 11, 15, 14, 13, 16, 18}
	model := New(0, 1, 0)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	pred, err := model.Predict(0, len(values)-1)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred[0] != values[0] {
		t.Errorf("First prediction should echo the first observation, got %f", pred[0])
	}
	for i := 1; i < len(values); i++ {
		if pred[i] != values[i-1] {
			t.Errorf("In-sample prediction %d: expected %f, got %f", i, values[i-1], pred[i])
		}
	}

	forecasts, err := model.Forecast(3)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	for i, f := range forecasts {
		if f != 18 {
			t.Errorf("Forecast %d: expected last value 18, got %f", i, f)
		}
	}
}

func TestPredictSpansSampleBoundary(t *testing.T) {
	values := ar1Series(80, 0.5, 20)
	model := New(1, 1, 1)
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	n := len(values)
	span, err := model.Predict(n-2, n+1)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(span) != 4 {
		t.Fatalf("Expected 4 predictions, got %d", len(span))
	}

	forecasts, err := model.Forecast(2)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	for i := range forecasts {
		if math.Abs(span[2+i]-forecasts[i]) > 1e-9 {
			t.Errorf("Out-of-sample prediction %d differs from forecast: %f vs %f", i, span[2+i], forecasts[i])
		}
	}
	for i, v := range span {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("Prediction %d is not finite", i)
		}
	}
}

func TestPredictErrors(t *testing.T) {
	model := New(1, 1, 0)
	if _, err := model.Predict(0, 3); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}

	if err := model.Fit(timeseries.New(ar1Series(40, 0.3, 0))); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if _, err := model.Predict(5, 2); err == nil {
		t.Error("Expected error for reversed range")
	}
	if _, err := model.Forecast(0); err == nil {
		t.Error("Expected error for zero steps")
	}
}

func TestARIMASummary(t *testing.T) {
	n := 150
	model := New(1, 0, 1)
	if err := model.Fit(timeseries.New(ar1Series(n, 0.6, 10))); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	summary := model.Summary()
	if summary == nil {
		t.Fatal("Summary should not be nil")
	}
	if summary.NObs != n {
		t.Errorf("Expected NObs=%d, got %d", n, summary.NObs)
	}
	if summary.LjungBox == nil {
		t.Error("Expected a Ljung-Box result on residuals")
	}
	if summary.AICc <= summary.AIC {
		t.Errorf("AICc should exceed AIC: %f vs %f", summary.AICc, summary.AIC)
	}

	t.Logf("Summary - AIC: %f, BIC: %f, LogLik: %f", summary.AIC, summary.BIC, summary.LogLik)
}

func TestInformationCriteriaPreferTrueOrder(t *testing.T) {
	series := timeseries.New(ar1Series(200, 0.8, 0))

	ar := New(1, 0, 0)
	if err := ar.Fit(series); err != nil {
		t.Fatalf("Failed to fit AR(1): %v", err)
	}
	mean := New(0, 0, 0)
	if err := mean.Fit(series); err != nil {
		t.Fatalf("Failed to fit constant model: %v", err)
	}

	if ar.AICc >= mean.AICc {
		t.Errorf("AR(1) should beat the constant model on AR(1) data: %f vs %f", ar.AICc, mean.AICc)
	}
}

func TestARIMAInsufficientData(t *testing.T) {
	model := New(5, 2, 5)
	err := model.Fit(timeseries.New([]float64{1, 2, 3}))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestARIMAMinimumLength(t *testing.T) {
	tests := []struct {
		name    string
		p, d, q int
		n       int
		wantErr bool
	}{
		{"random walk on 2 points", 0, 1, 0, 2, true},
		{"random walk on 3 points", 0, 1, 0, 3, false},
		{"random walk on 7 points", 0, 1, 0, 7, false},
		{"ARIMA111 on 4 points", 1, 1, 1, 4, true},
		{"ARIMA313 on 8 points", 3, 1, 3, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := New(tt.p, tt.d, tt.q)
			err := model.Fit(timeseries.New(randomWalkWithDrift(tt.n, 2, 3)))
			if tt.wantErr {
				if !errors.Is(err, ErrInsufficientData) {
					t.Errorf("Expected ErrInsufficientData, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			forecasts, err := model.Forecast(5)
			if err != nil || len(forecasts) != 5 {
				t.Errorf("Forecast = %v, %v", forecasts, err)
			}
		})
	}
}

func TestARIMAHigherOrdersOnShortSeries(t *testing.T) {
	// 63 annual observations, the size of a full training window.
	series := timeseries.New(randomWalkWithDrift(63, 2, 21))

	for _, o := range []Order{{P: 2, D: 1, Q: 4}, {P: 3, D: 1, Q: 3}, {P: 5, D: 1, Q: 5}} {
		t.Run(o.String(), func(t *testing.T) {
			model := New(o.P, o.D, o.Q)
			if err := model.Fit(series); err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			if !isStationary(model.ARCoeffs) || !isInvertible(model.MACoeffs) {
				t.Errorf("estimate outside the admissible region: ar=%v ma=%v", model.ARCoeffs, model.MACoeffs)
			}
			if model.Warning != "" {
				t.Logf("warning: %s", model.Warning)
			}
			if got := model.Summary().Warning; got != model.Warning {
				t.Errorf("Summary warning %q, model warning %q", got, model.Warning)
			}

			forecasts, err := model.Forecast(5)
			if err != nil {
				t.Fatalf("Forecast failed: %v", err)
			}
			for i, f := range forecasts {
				if math.IsNaN(f) || math.IsInf(f, 0) {
					t.Errorf("forecast[%d] = %v", i, f)
				}
			}
		})
	}
}

func TestARIMAInvalidOrder(t *testing.T) {
	model := New(-1, 1, 0)
	if err := model.Fit(timeseries.New(ar1Series(50, 0.2, 0))); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder, got %v", err)
	}
}

func TestConvergenceError(t *testing.T) {
	cause := errors.New("line search failed")
	var err error = &ConvergenceError{Order: Order{P: 3, D: 1, Q: 2}, Reason: "optimiser failed", Err: cause}

	var convErr *ConvergenceError
	if !errors.As(err, &convErr) {
		t.Fatal("errors.As should match *ConvergenceError")
	}
	if convErr.Order.P != 3 {
		t.Errorf("Unexpected order %v", convErr.Order)
	}
	if !errors.Is(err, cause) {
		t.Error("ConvergenceError should unwrap to its cause")
	}
	if got := err.Error(); got != "ARIMA(3,1,2) did not converge: optimiser failed: line search failed" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestARIMAWhiteNoise(t *testing.T) {
	series := timeseries.New(noise(200, 9))
	model := New(0, 0, 0)

	if err := model.Fit(series); err != nil {
		t.Fatalf("Failed to fit white noise: %v", err)
	}

	if math.Abs(model.Intercept-series.Mean()) > 1e-12 {
		t.Errorf("Intercept should equal the mean: got %f, expected %f", model.Intercept, series.Mean())
	}
	if math.Abs(model.Variance-1) > 0.3 {
		t.Errorf("Residual variance should be near 1, got %f", model.Variance)
	}
}

func TestCompanionModulus(t *testing.T) {
	tests := []struct {
		name   string
		coeffs []float64
		sign   float64
		want   float64
	}{
		{"empty", nil, 1, 0},
		{"AR1", []float64{-0.5}, 1, 0.5},
		{"AR2", []float64{0.5, 0.3}, 1, (0.5 + math.Sqrt(1.45)) / 2},
		{"unit root", []float64{1.5, -0.5}, 1, 1},
		{"MA2 complex", []float64{0.5, 0.3}, -1, math.Sqrt(0.3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := companionModulus(tt.coeffs, tt.sign)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("companionModulus(%v) = %f, want %f", tt.coeffs, got, tt.want)
			}
		})
	}

	if isStationary([]float64{1.5, -0.5}) {
		t.Error("Unit-root AR polynomial should not be stationary")
	}
	if !isInvertible([]float64{0.5, 0.3}) {
		t.Error("MA(2) with modulus 0.55 should be invertible")
	}
}

func TestIntegrateStep(t *testing.T) {
	levels := []float64{1, 4, 9, 16}
	// second difference of squares is 2
	if got := integrateStep(2, levels, 3, 2); got != 16 {
		t.Errorf("integrateStep d=2: expected 16, got %f", got)
	}
	if got := integrateStep(7, levels, 3, 1); got != 16 {
		t.Errorf("integrateStep d=1: expected 16, got %f", got)
	}
	if got := integrateStep(3, levels, 2, 0); got != 3 {
		t.Errorf("integrateStep d=0 should be identity, got %f", got)
	}
}

func TestYuleWalker(t *testing.T) {
	// ACF of an AR(1) process with phi = 0.6
	acf := []float64{1.0, 0.6, 0.36, 0.216, 0.13}

	coeffs := yuleWalker(acf, 2)
	if coeffs == nil {
		t.Fatal("yuleWalker returned nil")
	}
	if len(coeffs) != 2 {
		t.Fatalf("Expected 2 coefficients, got %d", len(coeffs))
	}
	if math.Abs(coeffs[0]-0.6) > 1e-12 || math.Abs(coeffs[1]) > 1e-12 {
		t.Errorf("Expected [0.6 0], got %v", coeffs)
	}

	if yuleWalker(acf[:2], 3) != nil {
		t.Error("Expected nil when the ACF is shorter than the order")
	}
}

func TestARIMAMultipleOrders(t *testing.T) {
	tests := []struct {
		name    string
		p, d, q int
	}{
		{"AR1", 1, 0, 0},
		{"AR2", 2, 0, 0},
		{"MA1", 0, 0, 1},
		{"ARMA11", 1, 0, 1},
		{"ARIMA110", 1, 1, 0},
		{"ARIMA011", 0, 1, 1},
		{"ARIMA111", 1, 1, 1},
		{"ARIMA211", 2, 1, 1},
	}

	series := timeseries.New(ar1Series(150, 0.6, 100))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := New(tt.p, tt.d, tt.q)
			if err := model.Fit(series); err != nil {
				var convErr *ConvergenceError
				if errors.As(err, &convErr) {
					t.Logf("Model %s did not converge: %v", tt.name, err)
					return
				}
				t.Fatalf("Model %s failed: %v", tt.name, err)
			}

			forecasts, err := model.Forecast(3)
			if err != nil {
				t.Fatalf("Forecast failed: %v", err)
			}
			if len(forecasts) != 3 {
				t.Errorf("Expected 3 forecasts, got %d", len(forecasts))
			}

			t.Logf("%s - AIC: %.2f, BIC: %.2f, Forecasts: %v", tt.name, model.AIC, model.BIC, forecasts)
		})
	}
}
