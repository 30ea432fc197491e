package resolve

import (
	"git.home.luguber.info/inful/plugindocs/internal/archive"
	"git.home.luguber.info/inful/plugindocs/internal/nav"
)

// Contribution is the entry one source adds under one mount point.
type Contribution struct {
	Type archive.ComponentType
	Node *nav.Node
}

// Merge appends contributions to every branch whose path names their
// component type and re-sorts that branch's children with the mount order.
// local is never modified; branches without contributions are shared with
// the result.
func Merge(local []*nav.Node, contributions []Contribution) []*nav.Node {
	byType := make(map[string][]*nav.Node)
	for _, c := range contributions {
		byType[string(c.Type)] = append(byType[string(c.Type)], c.Node)
	}
	return nav.Transform(local, nav.Transformer{Branch: func(b *nav.Node, children []*nav.Node) *nav.Node {
		extra := byType[b.Path]
		if len(extra) == 0 {
			return b
		}
		merged := make([]*nav.Node, 0, len(children)+len(extra))
		merged = append(merged, children...)
		merged = append(merged, extra...)
		return b.WithChildren(nav.Sorted(merged, nav.OrderMount))
	}})
}

// MountPoints returns the component types that have a mount branch in tree.
func MountPoints(tree []*nav.Node) map[archive.ComponentType]bool {
	mounts := make(map[archive.ComponentType]bool)
	nav.Walk(tree, func(n *nav.Node, _ int) bool {
		if n.Kind == nav.KindBranch && archive.IsComponentType(n.Path) {
			mounts[archive.ComponentType(n.Path)] = true
		}
		return true
	})
	return mounts
}
