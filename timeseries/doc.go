// Package timeseries provides the annual series used by the forecaster.
//
// A Series pairs values with timestamps. Annual series are indexed by the
// last day of each calendar year, one observation per year.
//
// # Creating a Series
//
//	counts := []float64{12, 15, 9, 20}
//	series := timeseries.NewAnnual(1960, counts) // 1960-12-31 .. 1963-12-31
//
// # Differencing
//
// Difference applies first differencing repeatedly. The first k entries have
// no defined difference and are dropped:
//
//	d1 := series.Difference(1) // 3 values
//	d0 := series.Difference(0) // copy of series
//
// # Train/Test Split
//
//	train, test := series.Split(5) // last five observations held out
//
// # CSV
//
// Annual series round-trip through CSV with date, year and value columns:
//
//	err := timeseries.WriteCSV(w, series, nil)
//	back, err := timeseries.ReadCSV(r, nil)
package timeseries
