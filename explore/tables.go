package explore

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sartorproj/brickcast/dataset"
)

// SetRow is one row of the free table explorer.
type SetRow struct {
	Year        int    `json:"year"`
	ParentTheme string `json:"parent_theme_name"`
	Theme       string `json:"theme_name"`
	SetName     string `json:"set_name"`
	NumParts    int    `json:"num_parts"`
}

// SetRows returns the distinct (year, master theme, theme, set, num_parts)
// rows of t in first-seen order.
func SetRows(t *dataset.Table) []SetRow {
	seen := make(map[SetRow]struct{})
	var out []SetRow
	for _, row := range t.Rows {
		sr := SetRow{row.Year, row.ParentThemeName, row.ThemeName, row.SetName, row.NumParts}
		if _, dup := seen[sr]; dup {
			continue
		}
		seen[sr] = struct{}{}
		out = append(out, sr)
	}
	return out
}

// PartRows returns the distinct full rows of t, restricted to one master
// theme unless theme is empty.
func PartRows(t *dataset.Table, theme string) []dataset.Row {
	seen := make(map[dataset.Row]struct{})
	var out []dataset.Row
	for _, row := range t.Rows {
		if theme != "" && row.ParentThemeName != theme {
			continue
		}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	return out
}

// Cell is a typed table value: string, int or bool.
type Cell = any

// Columns maps column names to accessors for one row type.
type Columns[T any] map[string]func(T) Cell

// SetColumns are the sortable columns of SetRow.
var SetColumns = Columns[SetRow]{
	dataset.ColYear:            func(r SetRow) Cell { return r.Year },
	dataset.ColParentThemeName: func(r SetRow) Cell { return r.ParentTheme },
	dataset.ColThemeName:       func(r SetRow) Cell { return r.Theme },
	dataset.ColSetName:         func(r SetRow) Cell { return r.SetName },
	dataset.ColNumParts:        func(r SetRow) Cell { return r.NumParts },
}

// PartColumns are the sortable columns of dataset.Row.
var PartColumns = Columns[dataset.Row]{
	dataset.ColYear:             func(r dataset.Row) Cell { return r.Year },
	dataset.ColParentThemeName:  func(r dataset.Row) Cell { return r.ParentThemeName },
	dataset.ColThemeName:        func(r dataset.Row) Cell { return r.ThemeName },
	dataset.ColSetName:          func(r dataset.Row) Cell { return r.SetName },
	dataset.ColSetNum:           func(r dataset.Row) Cell { return r.SetNum },
	dataset.ColNumParts:         func(r dataset.Row) Cell { return r.NumParts },
	dataset.ColPartNum:          func(r dataset.Row) Cell { return r.PartNum },
	dataset.ColPartName:         func(r dataset.Row) Cell { return r.PartName },
	dataset.ColPartCategoryName: func(r dataset.Row) Cell { return r.PartCategoryName },
	dataset.ColQuantity:         func(r dataset.Row) Cell { return r.Quantity },
	dataset.ColColorName:        func(r dataset.Row) Cell { return r.ColorName },
	dataset.ColIsTrans:          func(r dataset.Row) Cell { return r.IsTrans },
}

// Query sorts and searches a table view.
type Query struct {
	Sort   string // column name; empty keeps row order
	Desc   bool
	Search string // case-insensitive substring over every column
	Limit  int    // <= 0 means no limit
}

// QueryRows applies q to rows and returns the page plus the number of rows
// matching the search before the limit. Sorting is stable.
func QueryRows[T any](rows []T, cols Columns[T], q Query) ([]T, int, error) {
	var sortBy func(T) Cell
	if q.Sort != "" {
		var ok bool
		if sortBy, ok = cols[q.Sort]; !ok {
			return nil, 0, fmt.Errorf("unknown sort column %q", q.Sort)
		}
	}

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if needle == "" || matches(r, cols, needle) {
			out = append(out, r)
		}
	}

	if sortBy != nil {
		slices.SortStableFunc(out, func(a, b T) int {
			c := compareCells(sortBy(a), sortBy(b))
			if q.Desc {
				return -c
			}
			return c
		})
	}

	total := len(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, total, nil
}

func matches[T any](r T, cols Columns[T], needle string) bool {
	for _, get := range cols {
		if strings.Contains(strings.ToLower(cellString(get(r))), needle) {
			return true
		}
	}
	return false
}

func cellString(c Cell) string {
	switch v := c.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func compareCells(a, b Cell) int {
	switch x := a.(type) {
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return cmp.Compare(cellString(a), cellString(b))
}
