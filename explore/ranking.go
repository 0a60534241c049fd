package explore

import (
	"fmt"
	"sort"

	"github.com/sartorproj/brickcast/dataset"
)

// RemainderName labels the bucket of themes outside the top N.
const RemainderName = "Remainder"

// RemainderColor is the fixed neutral colour of the Remainder bucket.
const RemainderColor = "#808080"

// Palette is the fixed colour sequence assigned to top themes. Its length
// caps N.
var Palette = []string{
	"#1F78C8", "#ff0000", "#33a02c", "#6A33C2", "#ff7f00", "#565656",
	"#FFD700", "#a6cee3", "#FB6496", "#b2df8a", "#CAB2D6", "#FDBF6F",
	"#999999", "#EEE685", "#C8308C", "#FF83FA", "#C814FA", "#0000FF",
	"#36648B", "#00E2E5", "#00FF00", "#778B00", "#BEBE00", "#8B3B00",
	"#A52A3C",
}

// ThemeCount is the number of distinct sets of one master theme.
type ThemeCount struct {
	ParentTheme string `json:"parent_theme"`
	Sets        int    `json:"sets"`
	Color       string `json:"color,omitempty"`
}

// Ranking is the top N master themes by distinct set count plus the
// Remainder bucket.
type Ranking struct {
	N         int               `json:"n"`
	Top       []ThemeCount      `json:"top"`
	Remainder ThemeCount        `json:"remainder"`
	Total     int               `json:"total"`
	Colors    map[string]string `json:"colors"`
}

// Rows returns the top themes followed by the Remainder bucket.
func (r *Ranking) Rows() []ThemeCount {
	rows := make([]ThemeCount, 0, len(r.Top)+1)
	rows = append(rows, r.Top...)
	return append(rows, r.Remainder)
}

// Contains reports whether theme is one of the top N.
func (r *Ranking) Contains(theme string) bool {
	for _, tc := range r.Top {
		if tc.ParentTheme == theme {
			return true
		}
	}
	return false
}

// Color returns the colour of theme, RemainderColor for anything outside
// the top N.
func (r *Ranking) Color(theme string) string {
	if c, ok := r.Colors[theme]; ok {
		return c
	}
	return RemainderColor
}

// AssignColors zips sorted names with palette. Names beyond the palette get
// no entry. The result is a new map.
func AssignColors(sorted []string, palette []string) map[string]string {
	colors := make(map[string]string, min(len(sorted), len(palette)))
	for i, name := range sorted {
		if i >= len(palette) {
			break
		}
		colors[name] = palette[i]
	}
	return colors
}

// ThemeOptions returns every master theme with its distinct set count,
// largest first and ties by name.
func ThemeOptions(t *dataset.Table) []ThemeCount {
	sets := make(map[string]map[string]struct{})
	for _, row := range t.Rows {
		k := keyOf(row)
		if !k.complete() {
			continue
		}
		names, ok := sets[k.parent]
		if !ok {
			names = make(map[string]struct{})
			sets[k.parent] = names
		}
		names[k.set] = struct{}{}
	}

	counts := make([]ThemeCount, 0, len(sets))
	for parent, names := range sets {
		counts = append(counts, ThemeCount{ParentTheme: parent, Sets: len(names)})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Sets != counts[j].Sets {
			return counts[i].Sets > counts[j].Sets
		}
		return counts[i].ParentTheme < counts[j].ParentTheme
	})
	return counts
}

// TopThemes ranks master themes by distinct set count, keeps the first n
// and folds the rest into the Remainder bucket. Colours are assigned to the
// alphabetically sorted top names.
func TopThemes(t *dataset.Table, n int) (*Ranking, error) {
	if n < 1 || n > len(Palette) {
		return nil, fmt.Errorf("top N must be between 1 and %d, got %d", len(Palette), n)
	}

	all := ThemeOptions(t)
	top := all[:min(n, len(all))]

	rank := &Ranking{
		N:         n,
		Top:       make([]ThemeCount, len(top)),
		Remainder: ThemeCount{ParentTheme: RemainderName, Color: RemainderColor},
	}
	copy(rank.Top, top)
	for _, tc := range all {
		rank.Total += tc.Sets
	}
	for _, tc := range all[len(top):] {
		rank.Remainder.Sets += tc.Sets
	}

	names := make([]string, len(top))
	for i, tc := range top {
		names[i] = tc.ParentTheme
	}
	sort.Strings(names)
	rank.Colors = AssignColors(names, Palette)
	for i := range rank.Top {
		rank.Top[i].Color = rank.Colors[rank.Top[i].ParentTheme]
	}
	return rank, nil
}
