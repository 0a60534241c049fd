package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"
)

// SQLiteTable is the table read from SQLite chunks.
const SQLiteTable = "lego_sets"

// ReadCSV reads a header-mapped CSV chunk.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	first, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h, err := newHeader(first)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}
		row, err := h.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadXLSX reads the first sheet of a workbook chunk. The first row is the
// header.
func ReadXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("sheet is empty")
	}

	h, err := newHeader(records[0])
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row, err := h.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("sheet %s row %d: %w", sheets[0], i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadSQLite reads the lego_sets table of a SQLite chunk in rowid order.
// Columns absent from the table read as empty.
func ReadSQLite(ctx context.Context, path string) ([]Row, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	present, err := tableColumns(ctx, db, SQLiteTable)
	if err != nil {
		return nil, err
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("table %s not found", SQLiteTable)
	}

	var selected []string
	for _, col := range Columns {
		if present[col] {
			selected = append(selected, col)
		}
	}
	h, err := newHeader(selected)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("select %s from %s order by rowid", strings.Join(selected, ", "), SQLiteTable)
	result, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	cells := make([]sql.NullString, len(selected))
	dest := make([]any, len(selected))
	for i := range cells {
		dest[i] = &cells[i]
	}
	rec := make([]string, len(selected))

	var rows []Row
	for n := 1; result.Next(); n++ {
		if err := result.Scan(dest...); err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		for i, c := range cells {
			rec[i] = c.String
		}
		row, err := h.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		rows = append(rows, row)
	}
	return rows, result.Err()
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("pragma table_info(%s);", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
