package resolve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/plugindocs/internal/archive"
	"git.home.luguber.info/inful/plugindocs/internal/config"
	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/nav"
)

// zipOf builds an archive from name/content pairs.
func zipOf(t testing.TB, entries ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i < len(entries); i += 2 {
		w, err := zw.Create(entries[i])
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[i+1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// memFetcher serves archives from memory and counts calls per key.
type memFetcher struct {
	mu       sync.Mutex
	archives map[string]*archive.Archive
	calls    map[string]int
}

func newMemFetcher() *memFetcher {
	return &memFetcher{archives: map[string]*archive.Archive{}, calls: map[string]int{}}
}

func (m *memFetcher) add(repo, tag string, kind archive.Kind, data []byte) {
	m.archives[repo+"@"+tag] = &archive.Archive{Kind: kind, Data: data, URL: "mem://" + repo + "/" + tag}
}

func (m *memFetcher) Fetch(_ context.Context, repo, tag string) (*archive.Archive, error) {
	key := repo + "@" + tag
	m.mu.Lock()
	m.calls[key]++
	a, ok := m.archives[key]
	m.mu.Unlock()
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("no archive for %s", key)).Build()
	}
	return a, nil
}

func (m *memFetcher) callsFor(repo, tag string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[repo+"@"+tag]
}

func source(title, slug, repo, version string) config.Source {
	return config.Source{Title: title, Slug: slug, Repo: repo, Version: version, SourceBranch: "main"}
}

func localTree() []*nav.Node {
	return []*nav.Node{
		nav.NewLocalLeaf("Introduction", "intro", "intro.mdx"),
		nav.NewBranch("Guides", "",
			nav.NewLocalLeaf("Getting started", "guides/start", "guides/start.mdx"),
		),
		nav.NewBranch("Builders", "builders",
			nav.NewLocalLeaf("Community-Supported", "builders/community-supported", "builders/community-supported.mdx"),
			nav.NewLocalLeaf("Custom", "builders/custom", "builders/custom.mdx"),
			nav.NewLocalLeaf("Overview", "builders", "builders/index.mdx"),
			nav.NewLocalLeaf("File", "builders/file", "builders/file.mdx"),
		),
		nav.NewBranch("Provisioners", "provisioners",
			nav.NewLocalLeaf("Overview", "provisioners", "provisioners/index.mdx"),
		),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func titles(nodes []*nav.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Title
	}
	return out
}
