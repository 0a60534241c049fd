package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sartorproj/brickcast/timeseries"
)

func whiteNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		values[i] = rng.NormFloat64()
	}
	return values
}

func cumsum(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}

func ar1(n int, phi float64) []float64 {
	noise := whiteNoise(n, 7)
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + noise[i]
	}
	return values
}

func TestACF(t *testing.T) {
	series := timeseries.New(ar1(100, 0.8))
	acf := ACF(series, 10)

	if acf == nil {
		t.Fatal("ACF returned nil")
	}
	if len(acf) != 11 {
		t.Errorf("Expected 11 ACF values, got %d", len(acf))
	}
	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
	if acf[1] < 0.5 {
		t.Errorf("AR(1) with phi=0.8 should have strong lag-1 autocorrelation, got %f", acf[1])
	}
}

func TestACFConstantSeries(t *testing.T) {
	if acf := ACF(timeseries.New([]float64{3, 3, 3, 3}), 2); acf != nil {
		t.Errorf("Expected nil ACF for zero-variance series, got %v", acf)
	}
}

func TestPACF(t *testing.T) {
	series := timeseries.New(ar1(200, 0.7))
	pacf := PACF(series, 10)

	if pacf == nil {
		t.Fatal("PACF returned nil")
	}
	if math.Abs(pacf[0]-1.0) > 1e-10 {
		t.Errorf("PACF at lag 0 should be 1, got %f", pacf[0])
	}

	acf := ACF(series, 1)
	if math.Abs(pacf[1]-acf[1]) > 1e-10 {
		t.Errorf("PACF at lag 1 should equal ACF at lag 1: %f vs %f", pacf[1], acf[1])
	}

	for i := 2; i < len(pacf); i++ {
		t.Logf("PACF lag %d: %f", i, pacf[i])
	}
}

func TestACFWithConfidence(t *testing.T) {
	n := 64
	series := timeseries.New(ar1(n, 0.6))
	c := ACFWithConfidence(series, 0, 0.05)
	if c == nil {
		t.Fatal("ACFWithConfidence returned nil")
	}

	if len(c.Values) != DefaultACFLags(n)+1 {
		t.Errorf("Expected %d lags, got %d", DefaultACFLags(n)+1, len(c.Values))
	}
	if c.Band[0] != 0 {
		t.Errorf("Band at lag 0 should be 0, got %f", c.Band[0])
	}

	want := 1.959963984540054 / math.Sqrt(float64(n))
	if math.Abs(c.Band[1]-want) > 1e-9 {
		t.Errorf("Band at lag 1: expected %f, got %f", want, c.Band[1])
	}

	// Bartlett bands widen with lag.
	for k := 2; k < len(c.Band); k++ {
		if c.Band[k] < c.Band[k-1] {
			t.Errorf("Band should be non-decreasing, lag %d: %f < %f", k, c.Band[k], c.Band[k-1])
		}
	}

	if sig := c.SignificantLags(); len(sig) == 0 || sig[0] != 1 {
		t.Errorf("Expected lag 1 to be significant for AR(1), got %v", sig)
	}
}

func TestPACFWithConfidence(t *testing.T) {
	n := 64
	c := PACFWithConfidence(timeseries.New(ar1(n, 0.6)), 0, 0.05)
	if c == nil {
		t.Fatal("PACFWithConfidence returned nil")
	}
	if len(c.Values) != DefaultPACFLags(n)+1 {
		t.Errorf("Expected %d lags, got %d", DefaultPACFLags(n)+1, len(c.Values))
	}
	want := 1.959963984540054 / math.Sqrt(float64(n))
	for k := 1; k < len(c.Band); k++ {
		if math.Abs(c.Band[k]-want) > 1e-9 {
			t.Errorf("Band at lag %d: expected %f, got %f", k, want, c.Band[k])
		}
	}
}

func TestDefaultLags(t *testing.T) {
	tests := []struct {
		n    int
		acf  int
		pacf int
	}{
		{63, 17, 17},
		{20, 13, 9},
		{5, 4, 1},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := DefaultACFLags(tt.n); got != tt.acf {
			t.Errorf("DefaultACFLags(%d) = %d, want %d", tt.n, got, tt.acf)
		}
		if got := DefaultPACFLags(tt.n); got != tt.pacf {
			t.Errorf("DefaultPACFLags(%d) = %d, want %d", tt.n, got, tt.pacf)
		}
	}
}

func TestADFStationary(t *testing.T) {
	result, err := ADF(timeseries.New(whiteNoise(200, 1)), 0)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	t.Logf("White noise ADF: stat=%f p=%f lags=%d", result.Statistic, result.PValue, result.Lags)
	if !result.IsStationary {
		t.Errorf("White noise should be stationary, p=%f", result.PValue)
	}
	if result.Statistic > result.CriticalVals["1%"] {
		t.Errorf("Statistic %f should be below 1%% critical value %f", result.Statistic, result.CriticalVals["1%"])
	}
}

func TestADFRandomWalk(t *testing.T) {
	noise := whiteNoise(200, 1)
	wn, err := ADF(timeseries.New(noise), 0)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}
	rw, err := ADF(timeseries.New(cumsum(noise)), 0)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	t.Logf("Random walk ADF: stat=%f p=%f", rw.Statistic, rw.PValue)
	if rw.PValue <= wn.PValue {
		t.Errorf("Random walk p-value %f should exceed white noise p-value %f", rw.PValue, wn.PValue)
	}
	if rw.NObs <= 0 || rw.NObs >= 200 {
		t.Errorf("Unexpected NObs %d", rw.NObs)
	}
}

func TestADFErrors(t *testing.T) {
	if _, err := ADF(timeseries.New([]float64{1, 2, 3}), 0); err == nil {
		t.Error("Expected error for a three-point series")
	}
	if _, err := ADF(timeseries.New(make([]float64, 30)), 0); err == nil {
		t.Error("Expected error for an all-zero series")
	}
}

func TestADFLargeMaxLagIsClamped(t *testing.T) {
	result, err := ADF(timeseries.New(whiteNoise(30, 3)), 50)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}
	if result.Lags > 13 {
		t.Errorf("Lag should be clamped, got %d", result.Lags)
	}
}

func TestMackinnonPValue(t *testing.T) {
	if p := mackinnonPValue(-2.86); math.Abs(p-0.05) > 0.01 {
		t.Errorf("Expected p close to 0.05 at the 5%% critical value, got %f", p)
	}
	if p := mackinnonPValue(0); p < 0.9 || p > 1 {
		t.Errorf("Expected p near 0.96 for statistic 0, got %f", p)
	}
	if p := mackinnonPValue(3); p != 1 {
		t.Errorf("Expected p=1 above the maximum statistic, got %f", p)
	}
	if p := mackinnonPValue(-20); p != 0 {
		t.Errorf("Expected p=0 below the minimum statistic, got %f", p)
	}

	// Both branches agree at the switch point.
	small := polyval([]float64{2.1659, 1.4412, 0.038269}, -1.61)
	large := polyval([]float64{1.7339, 0.93202, -0.12745, -0.010368}, -1.61)
	if math.Abs(small-large) > 0.01 {
		t.Errorf("Response surfaces disagree at -1.61: %f vs %f", small, large)
	}
}

func TestMackinnonCritical(t *testing.T) {
	crit := mackinnonCritical(1_000_000)
	expected := map[string]float64{"1%": -3.43035, "5%": -2.86154, "10%": -2.56677}
	for level, want := range expected {
		if math.Abs(crit[level]-want) > 1e-4 {
			t.Errorf("Critical value %s: expected %f, got %f", level, want, crit[level])
		}
	}
}

func TestSuggestDifferencing(t *testing.T) {
	if d := SuggestDifferencing(timeseries.New(whiteNoise(120, 5)), 2); d != 0 {
		t.Errorf("White noise should need no differencing, got %d", d)
	}

	integrated := cumsum(cumsum(whiteNoise(120, 5)))
	if d := SuggestDifferencing(timeseries.New(integrated), 2); d < 1 {
		t.Errorf("Twice-integrated series should need differencing, got %d", d)
	}
}

func TestLjungBox(t *testing.T) {
	result := LjungBox(timeseries.New(ar1(200, 0.9)), 10, 0)
	if result == nil {
		t.Fatal("LjungBox returned nil")
	}
	if result.PValue > 0.05 {
		t.Errorf("Strongly autocorrelated series should reject, p=%f", result.PValue)
	}
	if result.DOF != 10 {
		t.Errorf("Expected 10 degrees of freedom, got %d", result.DOF)
	}

	if LjungBox(timeseries.New([]float64{1, 2, 3}), 10, 0) != nil {
		t.Error("Expected nil for short series")
	}
}
