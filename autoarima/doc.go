// Package autoarima implements automatic ARIMA model selection.
//
// The search fits candidate (p, q) orders for one differencing order and
// keeps the model with the lowest information criterion. Candidates that fail
// to converge are counted and skipped.
//
// # Basic Usage
//
//	config := autoarima.DefaultConfig() // d fixed at 1, AICc
//	result, err := autoarima.AutoARIMA(series, config)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Best model: %s, evaluated %d\n", result.Order, result.ModelsEvaluated)
//
//	forecasts, _ := result.Forecast(5)
//
// Set config.D to AutoD to pick d with repeated ADF tests instead.
//
// # Search Methods
//
// Two search methods are available:
//   - Stepwise (default): start from a handful of simple orders and walk to
//     the best neighbour until nothing improves
//   - Grid: every combination up to MaxP and MaxQ (set Stepwise=false)
package autoarima
