package explore

import (
	"sort"

	"github.com/sartorproj/brickcast/dataset"
)

// LargestSet is the set with the most parts in a year.
type LargestSet struct {
	Year        int    `json:"year"`
	ParentTheme string `json:"parent_theme"`
	Label       string `json:"theme_set"`
	NumParts    int    `json:"num_parts"`
}

// LargestSetPerYear returns one row per year holding the "theme - set"
// label with the largest part count. Distinct (year, parent, theme, set,
// num_parts) rows are summed per label; within a year the first label
// encountered wins ties. The result is sorted by year, latest first.
func LargestSetPerYear(t *dataset.Table) []LargestSet {
	type distinct struct {
		year  int
		key   setKey
		parts int
	}
	type group struct {
		year          int
		parent, label string
	}

	seen := make(map[distinct]struct{})
	sums := make(map[group]int)
	var order []group
	for _, row := range t.Rows {
		k := keyOf(row)
		if !k.complete() {
			continue
		}
		d := distinct{row.Year, k, row.NumParts}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}

		g := group{row.Year, k.parent, k.theme + " - " + k.set}
		if _, ok := sums[g]; !ok {
			order = append(order, g)
		}
		sums[g] += row.NumParts
	}

	best := make(map[int]LargestSet)
	for _, g := range order {
		cur, ok := best[g.year]
		if ok && sums[g] <= cur.NumParts {
			continue
		}
		best[g.year] = LargestSet{Year: g.year, ParentTheme: g.parent, Label: g.label, NumParts: sums[g]}
	}

	out := make([]LargestSet, 0, len(best))
	for _, ls := range best {
		out = append(out, ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}
