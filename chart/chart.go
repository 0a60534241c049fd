// Package chart renders the dashboard figures as PNG images with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sartorproj/brickcast/explore"
	"github.com/sartorproj/brickcast/forecast"
	"github.com/sartorproj/brickcast/stats"
)

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("chart: no data")

// Default image size.
const (
	Width  = 10 * vg.Inch
	Height = 5 * vg.Inch
)

// MaxCorrelogramLags caps the lags shown on correlation plots.
const MaxCorrelogramLags = 15

var (
	actualColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	predictedColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	forecastColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	bandColor      = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// Render writes p as a PNG of the default size.
func Render(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// ParseHex converts "#rrggbb" to a colour. Invalid input gives the
// remainder grey.
func ParseHex(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if len(s) != 6 || err != nil {
		return color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func rotateX(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

// coloredBars adds one bar per value, each with its own colour, at x
// positions 0..n-1.
func coloredBars(p *plot.Plot, values []float64, colors []color.Color) error {
	for i, v := range values {
		bar, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(18))
		if err != nil {
			return err
		}
		bar.XMin = float64(i)
		bar.Color = colors[i]
		bar.LineStyle.Width = 0
		p.Add(bar)
	}
	return nil
}

// Themes draws the top-N master themes and the remainder bucket.
func Themes(r *explore.Ranking) (*plot.Plot, error) {
	if r == nil || len(r.Top) == 0 {
		return nil, ErrEmpty
	}
	rows := r.Rows()

	p := newPlot(fmt.Sprintf("Top %d master themes by sets", r.N), "", "Sets")
	names := make([]string, len(rows))
	values := make([]float64, len(rows))
	colors := make([]color.Color, len(rows))
	for i, tc := range rows {
		names[i] = tc.ParentTheme
		values[i] = float64(tc.Sets)
		colors[i] = ParseHex(tc.Color)
	}
	if err := coloredBars(p, values, colors); err != nil {
		return nil, err
	}
	p.NominalX(names...)
	rotateX(p)
	return p, nil
}

// Yearly draws new sets per year stacked by master theme.
func Yearly(counts []explore.YearlyThemeCount) (*plot.Plot, error) {
	if len(counts) == 0 {
		return nil, ErrEmpty
	}

	first, last := counts[0].Year, counts[0].Year
	var order []string
	colors := make(map[string]string)
	for _, c := range counts {
		first, last = min(first, c.Year), max(last, c.Year)
		if _, ok := colors[c.ParentTheme]; !ok {
			order = append(order, c.ParentTheme)
			colors[c.ParentTheme] = c.Color
		}
	}

	series := make(map[string]plotter.Values, len(order))
	for _, name := range order {
		series[name] = make(plotter.Values, last-first+1)
	}
	for _, c := range counts {
		series[c.ParentTheme][c.Year-first] += float64(c.Sets)
	}

	p := newPlot("New sets per year by master theme", "Year", "New sets")
	var below *plotter.BarChart
	for _, name := range order {
		bars, err := plotter.NewBarChart(series[name], vg.Points(6))
		if err != nil {
			return nil, err
		}
		bars.XMin = float64(first)
		bars.Color = ParseHex(colors[name])
		bars.LineStyle.Width = 0
		if below != nil {
			bars.StackOn(below)
		}
		below = bars
		p.Add(bars)
		p.Legend.Add(name, bars)
	}
	p.Legend.Top = true
	return p, nil
}

// Largest draws the part count of the largest set of each year.
func Largest(sets []explore.LargestSet) (*plot.Plot, error) {
	if len(sets) == 0 {
		return nil, ErrEmpty
	}

	first, last := sets[0].Year, sets[0].Year
	for _, s := range sets {
		first, last = min(first, s.Year), max(last, s.Year)
	}
	values := make(plotter.Values, last-first+1)
	pts := make(plotter.XYs, 0, len(sets))
	for i := len(sets) - 1; i >= 0; i-- {
		s := sets[i]
		values[s.Year-first] = float64(s.NumParts)
		pts = append(pts, plotter.XY{X: float64(s.Year), Y: float64(s.NumParts)})
	}

	p := newPlot("Largest set per year", "Year", "Parts")
	bars, err := plotter.NewBarChart(values, vg.Points(6))
	if err != nil {
		return nil, err
	}
	bars.XMin = float64(first)
	bars.Color = actualColor
	bars.LineStyle.Width = 0
	p.Add(bars)

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = forecastColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}

// Hierarchy draws the set count of each theme under a master theme.
func Hierarchy(root *explore.Node) (*plot.Plot, error) {
	if root == nil || root.Empty() {
		return nil, ErrEmpty
	}

	p := newPlot(root.Name, "", "Sets")
	names := make([]string, len(root.Children))
	values := make([]float64, len(root.Children))
	colors := make([]color.Color, len(root.Children))
	for i, child := range root.Children {
		names[i] = child.Name
		values[i] = float64(child.Leaves())
		colors[i] = ParseHex(explore.Palette[i%len(explore.Palette)])
	}
	if err := coloredBars(p, values, colors); err != nil {
		return nil, err
	}
	p.NominalX(names...)
	rotateX(p)
	return p, nil
}

func pointXYs(points []forecast.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: float64(pt.Year), Y: pt.Value}
	}
	return xys
}

// Series draws a single annual line.
func Series(title string, points []forecast.Point) (*plot.Plot, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}
	p := newPlot(title, "Year", "")
	line, err := plotter.NewLine(pointXYs(points))
	if err != nil {
		return nil, err
	}
	line.Color = actualColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}

// Correlogram draws correlation stems with the confidence band, up to
// MaxCorrelogramLags.
func Correlogram(title string, c *stats.Correlogram) (*plot.Plot, error) {
	if c == nil || len(c.Values) == 0 {
		return nil, ErrEmpty
	}
	n := min(len(c.Values), MaxCorrelogramLags+1)

	p := newPlot(title, "Lag", "")
	p.X.Min, p.X.Max = -0.5, float64(n)-0.5
	p.Y.Min, p.Y.Max = -1, 1

	upper := make(plotter.XYs, 0, n)
	lower := make(plotter.XYs, 0, n)
	tips := make(plotter.XYs, n)
	for k := 0; k < n; k++ {
		x, v := float64(c.Lags[k]), c.Values[k]
		stem, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: v}})
		if err != nil {
			return nil, err
		}
		stem.Color = actualColor
		p.Add(stem)
		tips[k] = plotter.XY{X: x, Y: v}
		if k > 0 {
			upper = append(upper, plotter.XY{X: x, Y: c.Band[k]})
			lower = append(lower, plotter.XY{X: x, Y: -c.Band[k]})
		}
	}

	glyphs, err := plotter.NewScatter(tips)
	if err != nil {
		return nil, err
	}
	glyphs.GlyphStyle.Color = actualColor
	glyphs.GlyphStyle.Shape = draw.CircleGlyph{}
	glyphs.GlyphStyle.Radius = vg.Points(3)
	p.Add(glyphs)

	if len(upper) > 0 {
		for _, edge := range []plotter.XYs{upper, lower} {
			band, err := plotter.NewLine(edge)
			if err != nil {
				return nil, err
			}
			band.Color = bandColor
			band.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
			p.Add(band)
		}
		p.Legend.Add(fmt.Sprintf("%.0f%% band", 100*(1-c.Alpha)), bandLegend(bandColor))
	}
	return p, nil
}

func bandLegend(c color.Color) plot.Thumbnailer {
	l := &plotter.Line{}
	l.LineStyle = draw.LineStyle{Color: c, Width: vg.Points(1), Dashes: []vg.Length{vg.Points(4), vg.Points(4)}}
	return l
}

// Forecast draws the observed series, the full-span prediction and the
// out-of-sample forecast.
func Forecast(res *forecast.Result) (*plot.Plot, error) {
	if res == nil || len(res.Actual) == 0 {
		return nil, ErrEmpty
	}

	title := "Sets per year"
	if res.Fit != nil {
		title = fmt.Sprintf("Sets per year, %s", res.Fit.Order)
	}
	p := newPlot(title, "Year", "Sets")

	layers := []struct {
		name   string
		points []forecast.Point
		color  color.Color
		dashed bool
	}{
		{"actual", res.Actual, actualColor, false},
		{"predicted", res.Predicted, predictedColor, false},
		{"forecast", res.Forecast, forecastColor, true},
	}
	for _, layer := range layers {
		if len(layer.points) == 0 {
			continue
		}
		line, err := plotter.NewLine(pointXYs(layer.points))
		if err != nil {
			return nil, err
		}
		line.Color = layer.color
		line.Width = vg.Points(1.5)
		if layer.dashed {
			line.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
		}
		p.Add(line)
		p.Legend.Add(layer.name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}
