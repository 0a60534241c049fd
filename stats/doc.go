// Package stats provides the diagnostics shown next to the forecaster.
//
// # Stationarity
//
//	// H0: series has a unit root (non-stationary)
//	adf, err := stats.ADF(series, 0)
//	fmt.Printf("ADF: stat=%.4f, p=%.4f\n", adf.Statistic, adf.PValue)
//
//	d := stats.SuggestDifferencing(series, 2)
//
// # Autocorrelation
//
//	acf := stats.ACFWithConfidence(series, 0, 0.05)
//	pacf := stats.PACFWithConfidence(series, 0, 0.05)
//	fmt.Println(acf.SignificantLags(), pacf.SignificantLags())
//
// # Residual Diagnostics
//
//	lb := stats.LjungBox(residuals, 10, p+q)
//	if lb.PValue > 0.05 {
//	    // residuals look like white noise
//	}
package stats
