package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for reading and writing annual series as CSV.
type CSVOptions struct {
	DateColumn  string // Column holding the period end date (default: "date")
	YearColumn  string // Column holding the calendar year (default: "year")
	ValueColumn string // Column holding the observation (default: "nbr_sets")
	DateFormat  string // Date layout (default: "2006-01-02")
	Delimiter   rune   // Field delimiter (default: ',')
}

// DefaultCSVOptions returns default options for annual series CSV files.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn:  "date",
		YearColumn:  "year",
		ValueColumn: "nbr_sets",
		DateFormat:  "2006-01-02",
		Delimiter:   ',',
	}
}

// WriteCSV writes the series with a date, year and value column per row.
func WriteCSV(w io.Writer, series *Series, opts *CSVOptions) error {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if len(series.Timestamps) != len(series.Values) {
		return errors.New("series has no calendar index")
	}

	writer := csv.NewWriter(w)
	writer.Comma = opts.Delimiter

	if err := writer.Write([]string{opts.DateColumn, opts.YearColumn, opts.ValueColumn}); err != nil {
		return err
	}
	for i, v := range series.Values {
		ts := series.Timestamps[i]
		record := []string{
			ts.Format(opts.DateFormat),
			strconv.Itoa(ts.Year()),
			strconv.FormatFloat(v, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV reads a series written by WriteCSV. Rows are indexed by the date
// column when present, otherwise by the year column.
func ReadCSV(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	dateIdx, yearIdx, valueIdx := -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.Trim(h, "\"")) {
		case opts.DateColumn:
			dateIdx = i
		case opts.YearColumn:
			yearIdx = i
		case opts.ValueColumn:
			valueIdx = i
		}
	}
	if valueIdx == -1 {
		return nil, fmt.Errorf("value column %q not found", opts.ValueColumn)
	}
	if dateIdx == -1 && yearIdx == -1 {
		return nil, errors.New("no date or year column found")
	}

	var timestamps []time.Time
	var values []float64

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		val, err := strconv.ParseFloat(strings.TrimSpace(record[valueIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q", line, record[valueIdx])
		}

		var ts time.Time
		if dateIdx >= 0 {
			ts, err = time.Parse(opts.DateFormat, strings.TrimSpace(record[dateIdx]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		} else {
			year, err := strconv.Atoi(strings.TrimSpace(record[yearIdx]))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid year %q", line, record[yearIdx])
			}
			ts = YearEnd(year)
		}

		timestamps = append(timestamps, ts)
		values = append(values, val)
	}

	if len(values) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       opts.ValueColumn,
	}, nil
}
