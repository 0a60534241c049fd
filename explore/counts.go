package explore

import (
	"github.com/sartorproj/brickcast/dataset"
)

// KeyFunc extracts a grouping key from a row. ok is false when the key has
// an empty component and the row must not be grouped.
type KeyFunc func(r dataset.Row) (key string, ok bool)

// Grouping keys used by the first-appearance counter.
var (
	ByParentTheme KeyFunc = func(r dataset.Row) (string, bool) { return r.ParentThemeName, r.ParentThemeName != "" }
	ByTheme       KeyFunc = func(r dataset.Row) (string, bool) { return r.ThemeName, r.ThemeName != "" }
	BySetName     KeyFunc = func(r dataset.Row) (string, bool) { return r.SetName, r.SetName != "" }
)

// Counts are the headline numbers of entities first seen within a range.
type Counts struct {
	MasterThemes int `json:"new_master_themes"`
	Themes       int `json:"new_themes"`
	Sets         int `json:"new_sets"`
	Parts        int `json:"parts_of_new_sets"`
}

// FirstSeen returns the minimum year per key over the rows of t.
func FirstSeen(t *dataset.Table, key KeyFunc) map[string]int {
	first := make(map[string]int)
	for _, row := range t.Rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		if y, seen := first[k]; !seen || row.Year < y {
			first[k] = row.Year
		}
	}
	return first
}

// NewCounts counts the keys of t whose first year lies in r. The first year
// is taken over t itself, so passing a year-filtered table counts entities
// first seen within the visible window. Parts sums num_parts over the
// distinct (set name, num_parts) keys first seen in r.
func NewCounts(t *dataset.Table, r YearRange) Counts {
	var c Counts
	c.MasterThemes = countInRange(FirstSeen(t, ByParentTheme), r)
	c.Themes = countInRange(FirstSeen(t, ByTheme), r)
	c.Sets = countInRange(FirstSeen(t, BySetName), r)

	type setParts struct {
		name  string
		parts int
	}
	first := make(map[setParts]int)
	for _, row := range t.Rows {
		if row.SetName == "" {
			continue
		}
		k := setParts{row.SetName, row.NumParts}
		if y, seen := first[k]; !seen || row.Year < y {
			first[k] = row.Year
		}
	}
	for k, year := range first {
		if r.Contains(year) {
			c.Parts += k.parts
		}
	}
	return c
}

func countInRange(first map[string]int, r YearRange) int {
	n := 0
	for _, year := range first {
		if r.Contains(year) {
			n++
		}
	}
	return n
}

// setKey identifies a set by name under a theme path.
type setKey struct {
	parent, theme, set string
}

func (k setKey) complete() bool {
	return k.parent != "" && k.theme != "" && k.set != ""
}

func keyOf(r dataset.Row) setKey {
	return setKey{r.ParentThemeName, r.ThemeName, r.SetName}
}
