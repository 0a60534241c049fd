// Package main writes an offline forecast report for the LEGO sets dataset:
// the whole catalogue and its largest master themes, each fitted with a few
// fixed ARIMA orders and the automatically selected one.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/sartorproj/brickcast/config"
	"github.com/sartorproj/brickcast/dataset"
	"github.com/sartorproj/brickcast/explore"
	"github.com/sartorproj/brickcast/forecast"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	configPath = flag.String("config", "", "config file (.toml or .yaml)")
	dataDir    = flag.String("data", "", "directory holding the dataset chunks")
	themes     = flag.Int("themes", 5, "number of master themes to report besides the whole catalogue")
	outPath    = flag.String("out", "forecast_results.json", "JSON report path")
)

// ModelResult holds one fitted order for JSON export
type ModelResult struct {
	ModelName       string            `json:"model_name"`
	Order           string            `json:"order"`
	AIC             *float64          `json:"aic"`
	AICc            *float64          `json:"aicc"`
	BIC             *float64          `json:"bic"`
	Metrics         *forecast.Metrics `json:"metrics,omitempty"`
	Forecasts       []forecast.Point  `json:"forecasts,omitempty"`
	ModelsEvaluated int               `json:"models_evaluated,omitempty"`
	Warning         string            `json:"warning,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// ScopeResult holds the analysis of one slice of the catalogue
type ScopeResult struct {
	Name          string           `json:"name"`
	Years         string           `json:"years"`
	Train         []forecast.Point `json:"train"`
	Test          []forecast.Point `json:"test"`
	ADFPValue     *float64         `json:"adf_pvalue,omitempty"`
	SuggestedDiff int              `json:"suggested_diff"`
	Models        []ModelResult    `json:"models"`
}

// OutputData holds the whole report
type OutputData struct {
	Scopes []ScopeResult `json:"scopes"`
}

type scope struct {
	name  string
	table *dataset.Table
}

func main() {
	flag.Parse()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("brickcast forecast report - distinct LEGO sets per year")
	fmt.Println(strings.Repeat("=", 80))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Data.Dir, cfg.Data.Chunks = *dataDir, nil
	}

	table, err := load(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load: %v\n", err)
		os.Exit(1)
	}
	lo, hi, _ := table.YearBounds()
	fmt.Printf("\nLoaded %d rows, %d-%d\n", table.Len(), lo, hi)

	scopes := []scope{{"All sets", table}}
	options := explore.ThemeOptions(table)
	for _, opt := range options[:min(*themes, len(options))] {
		scopes = append(scopes, scope{opt.ParentTheme, byParentTheme(table, opt.ParentTheme)})
	}

	output := OutputData{Scopes: []ScopeResult{}}
	for i, sc := range scopes {
		fmt.Printf("\n%s\n[%d/%d] %s\n%s\n", strings.Repeat("=", 80), i+1, len(scopes), sc.name, strings.Repeat("=", 80))
		if result := analyze(sc.name, sc.table, cfg.Forecast.TestYears); result != nil {
			output.Scopes = append(output.Scopes, *result)
		}
	}

	fmt.Printf("\n%s\nEXPORTING RESULTS\n%s\n", strings.Repeat("=", 80), strings.Repeat("=", 80))
	data, err := json.MarshalIndent(output, "", "  ")
	if err == nil {
		err = os.WriteFile(*outPath, data, 0644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d scopes to %s\n", len(output.Scopes), *outPath)
	fmt.Println(strings.Repeat("=", 80))
}

func load(cfg *config.AppConfig) (*dataset.Table, error) {
	chunks, dir, pattern := cfg.Sources()
	if len(chunks) == 0 {
		var err error
		if chunks, err = dataset.Discover(dir, pattern); err != nil {
			return nil, err
		}
	}
	return dataset.Load(context.Background(), chunks)
}

func byParentTheme(t *dataset.Table, theme string) *dataset.Table {
	var rows []dataset.Row
	for _, r := range t.Rows {
		if r.ParentThemeName == theme {
			rows = append(rows, r)
		}
	}
	return dataset.NewTable(rows)
}

// analyze fits the fixed orders and the automatic selection on one scope
func analyze(name string, t *dataset.Table, testYears int) *ScopeResult {
	// Fixed orders; d is always 1.
	orders := []struct{ p, q int }{
		{0, 0}, // Random walk
		{1, 0}, // AR(1) on differences
		{1, 1}, // ARIMA(1,1,1)
	}

	var result *ScopeResult
	for _, o := range orders {
		p := forecast.DefaultParams()
		p.P, p.Q, p.TestYears = o.p, o.q, testYears

		res, err := forecast.Run(t, p)
		if err != nil {
			fmt.Printf("   Skipped: %v\n", err)
			return nil
		}
		if result == nil {
			result = newScope(name, res)
			fmt.Printf("   Train: %d, Test: %d, suggested d=%d\n", len(res.Train), len(res.Test), result.SuggestedDiff)
		}

		m := ModelResult{ModelName: "ARIMA", Order: fmt.Sprintf("(%d,1,%d)", o.p, o.q)}
		if res.FitErr != nil {
			m.Error = res.FitError
			fmt.Printf("   ARIMA%s: %s\n", m.Order, res.FitError)
		} else {
			m.AIC, m.AICc, m.BIC = finite(res.Fit.AIC), res.Fit.AICc, finite(res.Fit.BIC)
			m.Metrics, m.Forecasts, m.Warning = res.Metrics, res.Forecast, res.Fit.Warning
			fmt.Printf("   ARIMA%s: RMSE=%.4f\n", m.Order, res.Metrics.RMSE)
		}
		result.Models = append(result.Models, m)
	}

	// Auto-ARIMA with AICc criterion
	if auto, err := forecast.Suggest(t, testYears, nil); err == nil {
		p := forecast.DefaultParams()
		p.P, p.Q, p.TestYears = auto.Order.P, auto.Order.Q, testYears
		if res, err := forecast.Run(t, p); err == nil && res.FitErr == nil {
			order := fmt.Sprintf("(%d,%d,%d)", auto.Order.P, auto.Order.D, auto.Order.Q)
			fmt.Printf("   Auto-ARIMA%s: RMSE=%.4f (%d models)\n", order, res.Metrics.RMSE, auto.ModelsEvaluated)
			result.Models = append(result.Models, ModelResult{
				ModelName: "Auto-ARIMA", Order: order,
				AIC: finite(auto.AIC), AICc: finite(auto.AICc), BIC: finite(auto.BIC),
				Metrics: res.Metrics, Forecasts: res.Forecast, ModelsEvaluated: auto.ModelsEvaluated,
			})
		}
	} else {
		fmt.Printf("   Auto-ARIMA: %v\n", err)
	}

	return result
}

func newScope(name string, res *forecast.Result) *ScopeResult {
	sc := &ScopeResult{
		Name:          name,
		Years:         fmt.Sprintf("%d-%d", res.Actual[0].Year, res.Actual[len(res.Actual)-1].Year),
		Train:         res.Train,
		Test:          res.Test,
		SuggestedDiff: res.Diagnostics.SuggestedDiff,
	}
	if adf := res.Diagnostics.ADF; adf != nil {
		sc.ADFPValue = finite(adf.PValue)
	}
	return sc
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
