// Package autoarima implements automatic ARIMA model selection.
package autoarima

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sartorproj/brickcast/arima"
	"github.com/sartorproj/brickcast/stats"
	"github.com/sartorproj/brickcast/timeseries"
)

// ErrNoModel is returned when no candidate order could be fitted.
var ErrNoModel = errors.New("no candidate model could be fitted")

// AutoD asks the search to pick the differencing order with the ADF test.
const AutoD = -1

// Config holds configuration for auto ARIMA search.
type Config struct {
	MaxP      int          // Maximum AR order (default: 5)
	MaxQ      int          // Maximum MA order (default: 5)
	D         int          // Differencing order, or AutoD (default: 1)
	MaxD      int          // Upper bound when D is AutoD (default: 2)
	Stepwise  bool         // Use stepwise search instead of exhaustive
	Criterion string       // Information criterion: "aic", "aicc" or "bic" (default: "aicc")
	Logger    *slog.Logger // Receives one debug record per candidate when set
}

// DefaultConfig returns the default auto ARIMA configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxP:      5,
		MaxQ:      5,
		D:         1,
		MaxD:      2,
		Stepwise:  true,
		Criterion: "aicc",
	}
}

// Result represents the result of auto ARIMA model selection.
type Result struct {
	Model *arima.Model `json:"-"`
	Order arima.Order  `json:"order"`

	AIC       float64 `json:"aic"`
	AICc      float64 `json:"aicc"`
	BIC       float64 `json:"bic"`
	Criterion float64 `json:"criterion"`

	// Search information
	ModelsEvaluated int `json:"models_evaluated"`
	ModelsFailed    int `json:"models_failed"`
}

type candidate struct{ p, q int }

type search struct {
	series *timeseries.Series
	d      int
	cfg    *Config
	seen   map[candidate]bool

	best      *arima.Model
	bestCand  candidate
	bestScore float64
	evaluated int
	failed    int
}

// AutoARIMA selects the (p, q) pair with the lowest information criterion
// for a fixed differencing order.
func AutoARIMA(series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxP < 0 || config.MaxQ < 0 {
		return nil, fmt.Errorf("autoarima: negative search bounds p<=%d q<=%d", config.MaxP, config.MaxQ)
	}

	d := config.D
	if d == AutoD {
		d = stats.SuggestDifferencing(series, config.MaxD)
	}

	s := &search{
		series:    series,
		d:         d,
		cfg:       config,
		seen:      make(map[candidate]bool),
		bestScore: math.Inf(1),
	}
	if config.Stepwise {
		s.stepwise()
	} else {
		s.grid()
	}

	if s.best == nil {
		return nil, fmt.Errorf("autoarima: d=%d, %d candidates failed: %w", d, s.failed, ErrNoModel)
	}

	return &Result{
		Model:           s.best,
		Order:           s.best.Order,
		AIC:             s.best.AIC,
		AICc:            s.best.AICc,
		BIC:             s.best.BIC,
		Criterion:       s.bestScore,
		ModelsEvaluated: s.evaluated,
		ModelsFailed:    s.failed,
	}, nil
}

func (s *search) criterion(model *arima.Model) float64 {
	switch s.cfg.Criterion {
	case "bic":
		return model.BIC
	case "aic":
		return model.AIC
	default:
		return model.AICc
	}
}

// try fits one candidate and reports whether it became the best so far.
func (s *search) try(c candidate) bool {
	if c.p < 0 || c.p > s.cfg.MaxP || c.q < 0 || c.q > s.cfg.MaxQ || s.seen[c] {
		return false
	}
	s.seen[c] = true

	model := arima.New(c.p, s.d, c.q)
	if err := model.Fit(s.series); err != nil {
		s.failed++
		if s.cfg.Logger != nil {
			s.cfg.Logger.Debug("candidate failed", "order", model.Order.String(), "error", err)
		}
		return false
	}
	s.evaluated++

	score := s.criterion(model)
	if s.cfg.Logger != nil {
		s.cfg.Logger.Debug("candidate fitted", "order", model.Order.String(), "criterion", score)
	}
	if score < s.bestScore {
		s.best, s.bestCand, s.bestScore = model, c, score
		return true
	}
	return false
}

func (s *search) grid() {
	for p := 0; p <= s.cfg.MaxP; p++ {
		for q := 0; q <= s.cfg.MaxQ; q++ {
			s.try(candidate{p, q})
		}
	}
}

// stepwise starts from a few simple orders and moves to the best neighbour
// until no neighbour improves the criterion.
func (s *search) stepwise() {
	for _, c := range []candidate{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 2}} {
		s.try(c)
	}
	if s.best == nil {
		return
	}

	for improved := true; improved; {
		improved = false
		b := s.bestCand
		neighbors := []candidate{
			{b.p + 1, b.q},
			{b.p - 1, b.q},
			{b.p, b.q + 1},
			{b.p, b.q - 1},
			{b.p + 1, b.q + 1},
			{b.p - 1, b.q - 1},
		}
		for _, c := range neighbors {
			if s.try(c) {
				improved = true
			}
		}
	}
}

// Forecast generates forecasts using the selected model.
func (r *Result) Forecast(steps int) ([]float64, error) {
	if r.Model == nil {
		return nil, arima.ErrNotFitted
	}
	return r.Model.Forecast(steps)
}

// Residuals returns the model residuals.
func (r *Result) Residuals() []float64 {
	if r.Model == nil {
		return nil
	}
	return r.Model.Residuals()
}
