package chart

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"gonum.org/v1/plot"

	"github.com/sartorproj/brickcast/arima"
	"github.com/sartorproj/brickcast/explore"
	"github.com/sartorproj/brickcast/forecast"
	"github.com/sartorproj/brickcast/stats"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func renderPNG(t *testing.T, p *plot.Plot, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	var buf bytes.Buffer
	if err := Render(&buf, p); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Errorf("output is not a PNG (%d bytes)", buf.Len())
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#1f77b4", color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}},
		{"ff0000", color.RGBA{R: 0xff, A: 0xff}},
		{"#zzz", color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}},
		{"", color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}},
	}
	for _, tt := range tests {
		if got := ParseHex(tt.in); got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestThemes(t *testing.T) {
	r := &explore.Ranking{
		N: 2,
		Top: []explore.ThemeCount{
			{ParentTheme: "Town", Sets: 12, Color: "#1f77b4"},
			{ParentTheme: "Space", Sets: 8, Color: "#ff7f0e"},
		},
		Remainder: explore.ThemeCount{ParentTheme: explore.RemainderName, Sets: 3, Color: explore.RemainderColor},
	}
	p, err := Themes(r)
	renderPNG(t, p, err)
}

func TestYearly(t *testing.T) {
	counts := []explore.YearlyThemeCount{
		{Year: 1978, ParentTheme: "Town", Sets: 4, Color: "#1f77b4"},
		{Year: 1980, ParentTheme: "Town", Sets: 2, Color: "#1f77b4"},
		{Year: 1979, ParentTheme: "Space", Sets: 3, Color: "#ff7f0e"},
		{Year: 1980, ParentTheme: explore.RemainderName, Sets: 1, Color: explore.RemainderColor},
	}
	p, err := Yearly(counts)
	renderPNG(t, p, err)
	if !p.Legend.Top {
		t.Error("legend should be placed on top")
	}
}

func TestLargest(t *testing.T) {
	sets := []explore.LargestSet{
		{Year: 1982, ParentTheme: "Town", Label: "Town - Station", NumParts: 300},
		{Year: 1980, ParentTheme: "Space", Label: "Space - Base", NumParts: 250},
	}
	p, err := Largest(sets)
	renderPNG(t, p, err)
}

func TestHierarchy(t *testing.T) {
	root := &explore.Node{Name: "Town", Value: 3, Children: []*explore.Node{
		{Name: "City", Value: 2, Children: []*explore.Node{{Name: "a", Value: 1}, {Name: "b", Value: 1}}},
		{Name: "Harbor", Value: 1, Children: []*explore.Node{{Name: "c", Value: 1}}},
	}}
	p, err := Hierarchy(root)
	renderPNG(t, p, err)
}

func TestCorrelogram(t *testing.T) {
	n := 30
	values := make([]float64, n)
	band := make([]float64, n)
	lags := make([]int, n)
	for k := range values {
		lags[k] = k
		values[k] = 1 / float64(k+1)
		if k > 0 {
			band[k] = 0.35
		}
	}
	c := &stats.Correlogram{Lags: lags, Values: values, Band: band, Alpha: 0.05}
	p, err := Correlogram("ACF", c)
	renderPNG(t, p, err)
	if p.X.Max != MaxCorrelogramLags+0.5 {
		t.Errorf("X.Max = %v, want lags capped at %d", p.X.Max, MaxCorrelogramLags)
	}
}

func TestForecastChart(t *testing.T) {
	res := &forecast.Result{
		Actual:    []forecast.Point{{Year: 2000, Value: 10}, {Year: 2001, Value: 12}, {Year: 2002, Value: 15}},
		Predicted: []forecast.Point{{Year: 2000, Value: 10}, {Year: 2001, Value: 11}, {Year: 2002, Value: 13}},
		Forecast:  []forecast.Point{{Year: 2002, Value: 13}},
		Fit:       &forecast.FitSummary{Order: arima.Order{P: 1, D: 1}},
	}
	p, err := Forecast(res)
	renderPNG(t, p, err)
	if p.Title.Text != "Sets per year, ARIMA(1,1,0)" {
		t.Errorf("title = %q", p.Title.Text)
	}

	// A failed fit still draws the observed series.
	p, err = Forecast(&forecast.Result{Actual: res.Actual})
	renderPNG(t, p, err)
}

func TestEmptyInputs(t *testing.T) {
	checks := map[string]error{}
	_, checks["themes"] = Themes(&explore.Ranking{})
	_, checks["yearly"] = Yearly(nil)
	_, checks["largest"] = Largest(nil)
	_, checks["hierarchy"] = Hierarchy(&explore.Node{Name: "Town"})
	_, checks["series"] = Series("diff", nil)
	_, checks["correlogram"] = Correlogram("ACF", nil)
	_, checks["forecast"] = Forecast(nil)

	for name, err := range checks {
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("%s: err = %v, want ErrEmpty", name, err)
		}
	}
}
