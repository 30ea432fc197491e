package nav

import (
	"sort"

	"golang.org/x/text/cases"
)

// Titles with fixed placement. They are compared after case folding.
const (
	TitleOverview           = "Overview"
	TitleCustom             = "Custom"
	TitleCommunitySupported = "Community-Supported"
)

// Order selects which fixed placements apply when sorting.
type Order int

const (
	// OrderPages puts "Overview" first and sorts the rest case-insensitively.
	OrderPages Order = iota
	// OrderMount additionally puts "Custom" second-to-last and
	// "Community-Supported" last, the placeholders that must trail every
	// appended plugin entry.
	OrderMount
)

type sortKey struct {
	rank   int
	folded string
	title  string
	path   string
}

func keyFor(caser cases.Caser, n *Node, order Order) sortKey {
	folded := caser.String(n.Title)
	k := sortKey{folded: folded, title: n.Title, path: n.Path}
	switch {
	case folded == fold(TitleOverview):
		k.rank = -1
	case order == OrderMount && folded == fold(TitleCustom):
		k.rank = 1
	case order == OrderMount && folded == fold(TitleCommunitySupported):
		k.rank = 2
	}
	return k
}

func (a sortKey) less(b sortKey) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	if a.folded != b.folded {
		return a.folded < b.folded
	}
	if a.title != b.title {
		return a.title < b.title
	}
	return a.path < b.path
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// Sorted returns a sorted copy of nodes. Ties on the folded title fall back
// to the raw title and then the url path, so the result does not depend on
// the input order.
func Sorted(nodes []*Node, order Order) []*Node {
	caser := cases.Fold()
	keyed := make([]struct {
		k sortKey
		n *Node
	}, len(nodes))
	for i, n := range nodes {
		keyed[i].k = keyFor(caser, n, order)
		keyed[i].n = n
	}
	sort.SliceStable(keyed, func(i, j int) bool { return keyed[i].k.less(keyed[j].k) })

	out := make([]*Node, len(nodes))
	for i := range keyed {
		out[i] = keyed[i].n
	}
	return out
}
