package explore

import (
	"sort"

	"github.com/sartorproj/brickcast/dataset"
)

// YearlyThemeCount is the number of sets first seen in a year for one
// master theme, or for the Remainder bucket.
type YearlyThemeCount struct {
	Year        int    `json:"year"`
	ParentTheme string `json:"parent_theme"`
	Sets        int    `json:"sets"`
	Color       string `json:"color"`
}

// YearlyThemeSets counts new sets per year and master theme. A set is new
// in the first year its (master theme, set name) pair appears in t. Themes
// in the ranking keep their colour; all others are summed into one
// Remainder entry per year, listed after the top themes.
func YearlyThemeSets(t *dataset.Table, rank *Ranking) []YearlyThemeCount {
	type pair struct{ parent, set string }
	first := make(map[pair]int)
	for _, row := range t.Rows {
		if row.ParentThemeName == "" || row.SetName == "" {
			continue
		}
		k := pair{row.ParentThemeName, row.SetName}
		if y, seen := first[k]; !seen || row.Year < y {
			first[k] = row.Year
		}
	}

	type cell struct {
		year   int
		parent string
	}
	top := make(map[cell]int)
	rest := make(map[int]int)
	for k, year := range first {
		if rank.Contains(k.parent) {
			top[cell{year, k.parent}]++
		} else {
			rest[year]++
		}
	}

	out := make([]YearlyThemeCount, 0, len(top)+len(rest))
	for c, n := range top {
		out = append(out, YearlyThemeCount{Year: c.year, ParentTheme: c.parent, Sets: n, Color: rank.Color(c.parent)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParentTheme != out[j].ParentTheme {
			return out[i].ParentTheme < out[j].ParentTheme
		}
		return out[i].Year < out[j].Year
	})

	years := make([]int, 0, len(rest))
	for y := range rest {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		out = append(out, YearlyThemeCount{Year: y, ParentTheme: RemainderName, Sets: rest[y], Color: RemainderColor})
	}
	return out
}
