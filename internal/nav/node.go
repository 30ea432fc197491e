// Package nav defines the navigation tree shared by the loader, the
// normalizer and the merger.
//
// A Node is a tagged union: Kind is set by the constructors and every
// traversal switches on it, so code never has to guess a record's shape from
// which fields happen to be populated. Trees are treated as immutable once
// built; Transform returns new trees that share untouched subtrees.
package nav

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the variants of Node.
type Kind string

const (
	KindLeaf    Kind = "leaf"
	KindBranch  Kind = "branch"
	KindDivider Kind = "divider"
	KindLink    Kind = "link"
)

// Node is one entry of a navigation tree.
type Node struct {
	Kind  Kind
	Title string
	// Path is the url path of a leaf, or the optional mount path of a branch.
	Path     string
	Href     string
	Local    *LocalSource
	Remote   *RemoteSource
	Children []*Node
}

// LocalSource points at a file below the local content root.
type LocalSource struct {
	FilePath string `json:"filePath"`
}

// RemoteSource points at a file inside a fetched documentation archive.
type RemoteSource struct {
	Repo        string     `json:"repo"`
	Ref         string     `json:"ref"`
	ArchivePath string     `json:"archivePath"`
	SourceURL   string     `json:"sourceUrl"`
	PageTitle   string     `json:"pageTitle,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Contents    string     `json:"contents,omitempty"`
	Plugin      PluginInfo `json:"plugin"`
}

// PluginInfo carries the per-source metadata the renderer shows as badges.
type PluginInfo struct {
	Tier     string `json:"tier"`
	Version  string `json:"version"`
	Archived bool   `json:"archived"`
	HCPReady bool   `json:"hcpReady"`
}

// NewLocalLeaf returns a leaf rendered from local content.
func NewLocalLeaf(title, urlPath, filePath string) *Node {
	return &Node{Kind: KindLeaf, Title: title, Path: urlPath, Local: &LocalSource{FilePath: filePath}}
}

// NewRemoteLeaf returns a leaf rendered from fetched remote content.
func NewRemoteLeaf(title, urlPath string, src RemoteSource) *Node {
	return &Node{Kind: KindLeaf, Title: title, Path: urlPath, Remote: &src}
}

// NewBranch returns a branch. mountPath may be empty.
func NewBranch(title, mountPath string, children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{Kind: KindBranch, Title: title, Path: mountPath, Children: children}
}

// NewDivider returns a visual separator entry.
func NewDivider() *Node {
	return &Node{Kind: KindDivider}
}

// NewLink returns an entry pointing outside the documentation tree.
func NewLink(title, href string) *Node {
	return &Node{Kind: KindLink, Title: title, Href: href}
}

// IsRemote reports whether n is a leaf backed by remote content.
func (n *Node) IsRemote() bool {
	return n.Kind == KindLeaf && n.Remote != nil
}

// WithPath returns a shallow copy of the leaf with a new url path.
func (n *Node) WithPath(p string) *Node {
	c := *n
	c.Path = p
	return &c
}

// WithTitle returns a shallow copy of n with a new title.
func (n *Node) WithTitle(title string) *Node {
	c := *n
	c.Title = title
	return &c
}

// WithChildren returns a shallow copy of the branch with new children.
func (n *Node) WithChildren(children []*Node) *Node {
	c := *n
	c.Children = children
	return &c
}

type wireSource struct {
	Kind string `json:"kind"`
	*LocalSource
	*RemoteSource
}

type wireNode struct {
	Kind     Kind        `json:"kind"`
	Title    string      `json:"title,omitempty"`
	Path     string      `json:"path,omitempty"`
	Href     string      `json:"href,omitempty"`
	Source   *wireSource `json:"source,omitempty"`
	Children *[]*Node    `json:"routes,omitempty"`
}

// MarshalJSON encodes the node with an explicit kind discriminant.
func (n *Node) MarshalJSON() ([]byte, error) {
	w := wireNode{Kind: n.Kind, Title: n.Title, Path: n.Path}
	switch n.Kind {
	case KindLeaf:
		switch {
		case n.Remote != nil:
			w.Source = &wireSource{Kind: "remote", RemoteSource: n.Remote}
		case n.Local != nil:
			w.Source = &wireSource{Kind: "local", LocalSource: n.Local}
		default:
			return nil, fmt.Errorf("leaf %q has no source", n.Title)
		}
	case KindBranch:
		children := n.Children
		if children == nil {
			children = []*Node{}
		}
		w.Children = &children
	case KindDivider:
	case KindLink:
		w.Href = n.Href
	default:
		return nil, fmt.Errorf("unknown nav node kind %q", n.Kind)
	}
	return json.Marshal(w)
}
