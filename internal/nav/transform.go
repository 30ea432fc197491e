package nav

import "fmt"

// Transformer holds per-variant callbacks for Transform. A nil callback is
// the identity for that variant.
type Transformer struct {
	Leaf func(leaf *Node) *Node
	// Branch runs after the branch's children have been transformed and
	// receives them; returning b unchanged keeps the original node when the
	// children are unchanged too.
	Branch func(b *Node, children []*Node) *Node
	Other  func(n *Node) *Node
}

// Transform rebuilds nodes bottom-up. Subtrees where no callback produced a
// new node are returned by reference, so the input is never mutated and
// untouched branches are shared with the result.
func Transform(nodes []*Node, t Transformer) []*Node {
	out, _ := transformList(nodes, t)
	return out
}

func transformList(nodes []*Node, t Transformer) ([]*Node, bool) {
	out := make([]*Node, len(nodes))
	changed := false
	for i, n := range nodes {
		out[i] = transformNode(n, t)
		if out[i] != n {
			changed = true
		}
	}
	return out, changed
}

func transformNode(n *Node, t Transformer) *Node {
	switch n.Kind {
	case KindLeaf:
		if t.Leaf == nil {
			return n
		}
		return t.Leaf(n)
	case KindBranch:
		children, changed := transformList(n.Children, t)
		b := n
		if changed {
			b = n.WithChildren(children)
		} else {
			children = n.Children
		}
		if t.Branch == nil {
			return b
		}
		return t.Branch(b, children)
	case KindDivider, KindLink:
		if t.Other == nil {
			return n
		}
		return t.Other(n)
	default:
		panic(fmt.Sprintf("nav: unknown node kind %q", n.Kind))
	}
}

// Walk visits every node depth-first in order. Returning false from fn skips
// the node's children.
func Walk(nodes []*Node, fn func(n *Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []*Node, depth int, fn func(*Node, int) bool) {
	for _, n := range nodes {
		if !fn(n, depth) {
			continue
		}
		if n.Kind == KindBranch {
			walk(n.Children, depth+1, fn)
		}
	}
}

// Leaves returns every leaf in tree order.
func Leaves(nodes []*Node) []*Node {
	var out []*Node
	Walk(nodes, func(n *Node, _ int) bool {
		if n.Kind == KindLeaf {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Find returns the first leaf whose url path equals p.
func Find(nodes []*Node, p string) (*Node, bool) {
	var found *Node
	Walk(nodes, func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.Kind == KindLeaf && n.Path == p {
			found = n
		}
		return true
	})
	return found, found != nil
}

// PrefixPaths returns nodes with every leaf url path joined under prefix.
// An empty leaf path becomes the prefix itself.
func PrefixPaths(nodes []*Node, prefix string) []*Node {
	return Transform(nodes, Transformer{Leaf: func(l *Node) *Node {
		if l.Path == "" {
			return l.WithPath(prefix)
		}
		return l.WithPath(prefix + "/" + l.Path)
	}})
}

// StripContents drops remote file contents from every leaf except the one at
// keepPath, so a single page payload carries only the content it renders.
// An empty keepPath keeps every leaf's contents.
func StripContents(nodes []*Node, keepPath string) []*Node {
	if keepPath == "" {
		return nodes
	}
	return Transform(nodes, Transformer{Leaf: func(l *Node) *Node {
		if l.Remote == nil || l.Remote.Contents == "" || l.Path == keepPath {
			return l
		}
		remote := *l.Remote
		remote.Contents = ""
		c := *l
		c.Remote = &remote
		return &c
	}})
}
