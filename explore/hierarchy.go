package explore

import (
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/sartorproj/brickcast/dataset"
)

// Node is one level of the master theme -> theme -> set hierarchy. Leaves
// weigh 1; inner nodes carry the sum of their children.
type Node struct {
	Name     string  `json:"name"`
	Value    int     `json:"value"`
	Children []*Node `json:"children,omitempty"`
}

// Empty reports whether the hierarchy has no sets.
func (n *Node) Empty() bool {
	return n == nil || n.Value == 0
}

// Leaves returns the number of sets under n.
func (n *Node) Leaves() int {
	if n == nil {
		return 0
	}
	if len(n.Children) == 0 {
		return n.Value
	}
	total := 0
	for _, c := range n.Children {
		total += c.Leaves()
	}
	return total
}

// Hierarchy builds the tree of one master theme from the distinct (master
// theme, theme, set) triples of t. Rows with an empty component are
// dropped. A theme with no rows yields an empty root, not an error.
// Children are ordered by name.
func Hierarchy(t *dataset.Table, parent string) *Node {
	root := &Node{Name: parent}
	themes := make(map[string]*Node)
	seen := make(map[setKey]struct{})

	for _, row := range t.Rows {
		k := keyOf(row)
		if !k.complete() || k.parent != parent {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		theme, ok := themes[k.theme]
		if !ok {
			theme = &Node{Name: k.theme}
			themes[k.theme] = theme
			root.Children = append(root.Children, theme)
		}
		theme.Children = append(theme.Children, &Node{Name: k.set, Value: 1})
		theme.Value++
		root.Value++
	}

	sort.Slice(root.Children, func(i, j int) bool { return root.Children[i].Name < root.Children[j].Name })
	for _, theme := range root.Children {
		sort.Slice(theme.Children, func(i, j int) bool { return theme.Children[i].Name < theme.Children[j].Name })
	}
	return root
}

// ClosestTheme returns the option nearest to name by edit distance, or ""
// when there are no options. Ties go to the earlier option.
func ClosestTheme(name string, options []ThemeCount) string {
	best, bestDist := "", -1
	for _, opt := range options {
		d := levenshtein.ComputeDistance(name, opt.ParentTheme)
		if bestDist < 0 || d < bestDist {
			best, bestDist = opt.ParentTheme, d
		}
	}
	return best
}
