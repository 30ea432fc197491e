package nav

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
)

func titles(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Title
	}
	return out
}

func TestSorted_PageOrder(t *testing.T) {
	nodes := []*Node{
		NewLocalLeaf("clone", "b/clone", "x"),
		NewLocalLeaf("ISO", "b/iso", "x"),
		NewLocalLeaf("overview", "b/overview", "x"),
		NewLocalLeaf("Alpha", "b/alpha", "x"),
		NewLocalLeaf("Custom", "b/custom", "x"),
	}

	got := Sorted(nodes, OrderPages)
	assert.Equal(t, []string{"overview", "Alpha", "clone", "Custom", "ISO"}, titles(got))
	// input untouched
	assert.Equal(t, "clone", nodes[0].Title)
}

func TestSorted_MountOrder(t *testing.T) {
	nodes := []*Node{
		NewLocalLeaf("Community-Supported", "p/community", "x"),
		NewLocalLeaf("Custom", "p/custom", "x"),
		NewLocalLeaf("Shell", "p/shell", "x"),
		NewBranch("zeta", ""),
		NewLocalLeaf("Overview", "p", "x"),
		NewLocalLeaf("ansible", "p/ansible", "x"),
	}

	got := Sorted(nodes, OrderMount)
	assert.Equal(t, []string{"Overview", "ansible", "Shell", "zeta", "Custom", "Community-Supported"}, titles(got))
}

func TestSorted_TiesAreDeterministic(t *testing.T) {
	a := NewLocalLeaf("Docker", "builders/docker-a", "x")
	b := NewLocalLeaf("docker", "builders/docker-b", "x")
	c := NewLocalLeaf("Docker", "builders/docker-c", "x")

	first := Sorted([]*Node{c, b, a}, OrderMount)
	second := Sorted([]*Node{a, c, b}, OrderMount)
	assert.Equal(t, first, second)
	assert.Equal(t, "builders/docker-a", first[0].Path)
}

func TestTransform_SharesUntouchedBranches(t *testing.T) {
	untouched := NewBranch("Guides", "", NewLocalLeaf("Intro", "guides/intro", "guides/intro.mdx"))
	target := NewBranch("Builders", "builders", NewLocalLeaf("Overview", "builders", "builders/index.mdx"))
	tree := []*Node{untouched, target}

	out := Transform(tree, Transformer{Branch: func(b *Node, children []*Node) *Node {
		if b.Path != "builders" {
			return b
		}
		return b.WithChildren(append(append([]*Node{}, children...), NewLocalLeaf("Extra", "builders/extra", "x")))
	}})

	require.Len(t, out, 2)
	assert.Same(t, untouched, out[0], "branch without changes must be shared")
	assert.NotSame(t, target, out[1])
	assert.Len(t, out[1].Children, 2)
	assert.Len(t, target.Children, 1, "input must not be mutated")
}

func TestTransform_LeafChangePropagatesUp(t *testing.T) {
	leaf := NewLocalLeaf("A", "a", "a.mdx")
	inner := NewBranch("Inner", "", leaf)
	outer := NewBranch("Outer", "", inner)

	out := PrefixPaths([]*Node{outer}, "docs")
	require.Len(t, out, 1)
	assert.NotSame(t, outer, out[0])
	assert.Equal(t, "docs/a", out[0].Children[0].Children[0].Path)
	assert.Equal(t, "a", leaf.Path)
}

func TestStripContents(t *testing.T) {
	keep := NewRemoteLeaf("Clone", "builders/foo/clone", RemoteSource{Contents: "clone body"})
	drop := NewRemoteLeaf("ISO", "builders/foo/iso", RemoteSource{Contents: "iso body"})
	tree := []*Node{NewBranch("Builders", "builders", keep, drop)}

	out := StripContents(tree, "builders/foo/clone")
	leaves := Leaves(out)
	require.Len(t, leaves, 2)
	assert.Equal(t, "clone body", leaves[0].Remote.Contents)
	assert.Empty(t, leaves[1].Remote.Contents)
	assert.Equal(t, "iso body", drop.Remote.Contents)

	assert.Equal(t, tree, StripContents(tree, ""))
}

func TestFind(t *testing.T) {
	tree := []*Node{NewBranch("B", "builders", NewLocalLeaf("X", "builders/x", "x.mdx"))}
	n, ok := Find(tree, "builders/x")
	require.True(t, ok)
	assert.Equal(t, "X", n.Title)

	_, ok = Find(tree, "missing")
	assert.False(t, ok)
}

func TestMarshalJSON_Discriminants(t *testing.T) {
	tree := []*Node{
		NewBranch("Builders", "builders",
			NewLocalLeaf("Overview", "builders", "builders/index.mdx"),
			NewRemoteLeaf("Foo", "builders/foo", RemoteSource{Repo: "acme/foo", Ref: "v1.0.0", ArchivePath: "docs/builders/foo.mdx"}),
		),
		NewDivider(),
		NewLink("Registry", "https://example.com"),
		NewBranch("Empty", ""),
	}

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 4)
	assert.Equal(t, "branch", decoded[0]["kind"])
	assert.Equal(t, "divider", decoded[1]["kind"])
	assert.Equal(t, "https://example.com", decoded[2]["href"])
	assert.Equal(t, []any{}, decoded[3]["routes"])

	routes := decoded[0]["routes"].([]any)
	local := routes[0].(map[string]any)["source"].(map[string]any)
	remote := routes[1].(map[string]any)["source"].(map[string]any)
	assert.Equal(t, "local", local["kind"])
	assert.Equal(t, "builders/index.mdx", local["filePath"])
	assert.Equal(t, "remote", remote["kind"])
	assert.Equal(t, "acme/foo", remote["repo"])
}

func TestMarshalJSON_LeafWithoutSource(t *testing.T) {
	_, err := json.Marshal(&Node{Kind: KindLeaf, Title: "broken"})
	require.Error(t, err)
}

func TestParse_LocalFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "builders"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "builders", "index.mdx"), []byte("# Builders"), 0o600))

	data := []byte(`[
	  {"title": "Intro", "path": "intro"},
	  {"divider": true},
	  {"title": "Builders", "path": "builders", "children": [
	    {"title": "Overview", "path": "builders"},
	    {"title": "Custom", "path": "builders/custom", "filePath": "builders/custom-builders.mdx"}
	  ]},
	  {"title": "Guides", "routes": []},
	  {"title": "Registry", "href": "https://registry.example.com"}
	]`)

	nodes, err := Parse(data, LoadOptions{ContentDir: dir})
	require.NoError(t, err)
	require.Len(t, nodes, 5)

	assert.Equal(t, KindLeaf, nodes[0].Kind)
	assert.Equal(t, "intro.mdx", nodes[0].Local.FilePath)
	assert.Equal(t, KindDivider, nodes[1].Kind)
	assert.Equal(t, KindBranch, nodes[2].Kind)
	assert.Equal(t, "builders", nodes[2].Path)
	assert.Equal(t, "builders/index.mdx", nodes[2].Children[0].Local.FilePath)
	assert.Equal(t, "builders/custom-builders.mdx", nodes[2].Children[1].Local.FilePath)
	assert.Equal(t, KindBranch, nodes[3].Kind)
	assert.Empty(t, nodes[3].Children)
	assert.Equal(t, KindLink, nodes[4].Kind)
}

func TestParse_RejectsMalformedRecords(t *testing.T) {
	cases := map[string]string{
		"not json":            `[{`,
		"not an array":        `{"title": "x", "path": "x"}`,
		"unknown field":       `[{"title": "x", "path": "x", "color": "red"}]`,
		"missing title":       `[{"path": "x"}]`,
		"nested bad record":   `[{"title": "B", "routes": [{"title": 1, "path": "b"}]}]`,
		"routes and children": `[{"title": "B", "routes": [], "children": []}]`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data), LoadOptions{})
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err))
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"), LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}
