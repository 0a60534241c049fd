// Package dataset loads the LEGO sets fact table from chunked files.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column names of the fact table, in canonical order.
const (
	ColYear             = "year"
	ColParentThemeName  = "parent_theme_name"
	ColThemeName        = "theme_name"
	ColSetName          = "set_name"
	ColSetNum           = "set_num"
	ColNumParts         = "num_parts"
	ColPartNum          = "part_num"
	ColPartName         = "part_name"
	ColPartCategoryName = "part_category_name"
	ColQuantity         = "quantity"
	ColColorName        = "color_name"
	ColIsTrans          = "is_trans"
)

// Columns lists every column of the fact table.
var Columns = []string{
	ColYear, ColParentThemeName, ColThemeName, ColSetName, ColSetNum, ColNumParts,
	ColPartNum, ColPartName, ColPartCategoryName, ColQuantity, ColColorName, ColIsTrans,
}

// requiredColumns must be present in every chunk header.
var requiredColumns = []string{ColYear, ColSetNum}

// Row is one (set, part line, colour variant) record. Missing text values
// are empty strings.
type Row struct {
	Year             int    `json:"year"`
	ParentThemeName  string `json:"parent_theme_name"`
	ThemeName        string `json:"theme_name"`
	SetName          string `json:"set_name"`
	SetNum           string `json:"set_num"`
	NumParts         int    `json:"num_parts"`
	PartNum          string `json:"part_num"`
	PartName         string `json:"part_name"`
	PartCategoryName string `json:"part_category_name"`
	Quantity         int    `json:"quantity"`
	ColorName        string `json:"color_name"`
	IsTrans          bool   `json:"is_trans"`
}

// Table is the loaded fact table. It is shared read-only once built; every
// transformation returns a new Table.
type Table struct {
	Rows []Row
}

// NewTable wraps rows in a Table.
func NewTable(rows []Row) *Table {
	return &Table{Rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// YearBounds returns the smallest and largest year in the table.
func (t *Table) YearBounds() (lo, hi int, ok bool) {
	for i, r := range t.Rows {
		if i == 0 || r.Year < lo {
			lo = r.Year
		}
		if i == 0 || r.Year > hi {
			hi = r.Year
		}
	}
	return lo, hi, t.Len() > 0
}

// Concat joins tables in order into a new table.
func Concat(tables ...*Table) *Table {
	total := 0
	for _, t := range tables {
		total += t.Len()
	}
	rows := make([]Row, 0, total)
	for _, t := range tables {
		if t != nil {
			rows = append(rows, t.Rows...)
		}
	}
	return &Table{Rows: rows}
}

// header maps column names to record positions.
type header map[string]int

func newHeader(names []string) (header, error) {
	h := make(header, len(names))
	for i, name := range names {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if key == "" {
			continue
		}
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return h, nil
}

func (h header) get(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parseRow converts one record using the header mapping.
func (h header) parseRow(rec []string) (Row, error) {
	var row Row
	var err error

	if row.Year, err = parseCount(h.get(rec, ColYear)); err != nil {
		return row, fmt.Errorf("%s: %w", ColYear, err)
	}
	if row.NumParts, err = parseCount(h.get(rec, ColNumParts)); err != nil {
		return row, fmt.Errorf("%s: %w", ColNumParts, err)
	}
	if row.Quantity, err = parseCount(h.get(rec, ColQuantity)); err != nil {
		return row, fmt.Errorf("%s: %w", ColQuantity, err)
	}
	if row.IsTrans, err = parseFlag(h.get(rec, ColIsTrans)); err != nil {
		return row, fmt.Errorf("%s: %w", ColIsTrans, err)
	}

	row.ParentThemeName = h.get(rec, ColParentThemeName)
	row.ThemeName = h.get(rec, ColThemeName)
	row.SetName = h.get(rec, ColSetName)
	row.SetNum = h.get(rec, ColSetNum)
	row.PartNum = h.get(rec, ColPartNum)
	row.PartName = h.get(rec, ColPartName)
	row.PartCategoryName = h.get(rec, ColPartCategoryName)
	row.ColorName = h.get(rec, ColColorName)

	if row.SetNum == "" {
		return row, errors.New("empty set_num")
	}
	return row, nil
}

// parseCount accepts integers and integral floats such as "1987.0".
// Empty and NaN cells are zero.
func parseCount(s string) (int, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-integral number %q", s)
	}
	return int(f), nil
}

func parseFlag(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return b, nil
}

// Record renders a row in Columns order.
func (r Row) Record() []string {
	return []string{
		strconv.Itoa(r.Year),
		r.ParentThemeName,
		r.ThemeName,
		r.SetName,
		r.SetNum,
		strconv.Itoa(r.NumParts),
		r.PartNum,
		r.PartName,
		r.PartCategoryName,
		strconv.Itoa(r.Quantity),
		r.ColorName,
		strconv.FormatBool(r.IsTrans),
	}
}
