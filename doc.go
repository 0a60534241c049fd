// Package brickcast is an exploratory dashboard and forecaster for a static
// LEGO sets catalogue.
//
// The dataset is a denormalised table with one row per set, part line and
// colour. It is read from CSV, XLSX or SQLite chunks, concatenated and
// cached for the life of the process. Every page recomputes its views from
// that table and the selected year range.
//
// # Pages
//
//   - Home: entities first seen in the range, the top master themes with a
//     Remainder bucket, new sets per year and the largest set of each year
//   - Theme explorer: the theme and set hierarchy of one master theme and
//     its part rows
//   - Forecaster: ADF and correlogram diagnostics on the differenced annual
//     set count, an ARIMA(p,1,q) fit with a five year hold-out, and an
//     optional webhook notification
//
// # Quick Start
//
// Fit the annual series directly:
//
//	table, _ := dataset.Load(ctx, []string{"lego_dataset_chunk_1.csv"})
//	res, _ := forecast.Run(table, forecast.DefaultParams())
//	fmt.Println(res.Describe())
//
// Or serve the dashboard:
//
//	go run ./cmd/brickcast -data ./data
//
// # Packages
//
//   - dataset: chunk readers, loader and the memoising cache
//   - explore: year filter and the aggregate views
//   - timeseries: annual series and CSV export
//   - stats: ACF, PACF, ADF and Ljung-Box
//   - arima: ARIMA(p,d,q) fitted by conditional sum of squares
//   - autoarima: order search by information criterion
//   - forecast: series preparation and the forecaster pipeline
//   - chart: PNG figures
//   - notify: webhook client
//   - config: file and environment configuration
//   - server: HTTP pages and APIs
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package brickcast
