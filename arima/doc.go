// Package arima implements AutoRegressive Integrated Moving Average (ARIMA) models.
//
// An ARIMA(p,d,q) model combines:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//
// Parameters are estimated by conditional sum of squares, minimised with
// Nelder-Mead. Candidate points whose AR or MA polynomial has a companion
// eigenvalue outside the unit circle are rejected.
//
// # Basic Usage
//
//	model := arima.New(1, 1, 0)
//	if err := model.Fit(series); err != nil {
//	    var convErr *arima.ConvergenceError
//	    if errors.As(err, &convErr) {
//	        // pick another order
//	    }
//	}
//
//	// One-step predictions over the sample plus three dynamic forecasts.
//	levels, _ := model.Predict(0, series.Len()+2)
//
//	forecasts, _ := model.Forecast(5)
//
// # Model Selection
//
// Lower AICc is better when comparing orders fitted on the same series. The
// autoarima package automates the search.
package arima
