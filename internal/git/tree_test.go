package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
)

func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string, msg string) string {
	t.Helper()
	for name, contents := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(contents), 0o600))
	}
	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add(".")
	require.NoError(t, err)
	hash, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestReadDocs(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	first := commitFiles(t, repo, dir, map[string]string{
		"main.go":                     "package main",
		"docs/README.md":              "# Docs",
		"docs/builders/clone.mdx":     "# Clone v1",
		"docs/provisioners/setup.mdx": "# Setup",
	}, "initial")
	second := commitFiles(t, repo, dir, map[string]string{
		"docs/builders/clone.mdx": "# Clone v2",
	}, "update clone")

	snap, err := ReadDocs(dir, "", "docs")
	require.NoError(t, err)
	assert.Equal(t, second, snap.Commit)
	require.Len(t, snap.Files, 3)
	assert.Equal(t, "docs/README.md", snap.Files[0].Path)
	assert.Equal(t, "docs/builders/clone.mdx", snap.Files[1].Path)
	assert.Equal(t, "# Clone v2", string(snap.Files[1].Contents))

	old, err := ReadDocs(dir, first, "/docs/")
	require.NoError(t, err)
	assert.Equal(t, "# Clone v1", string(old.Files[1].Contents))
}

func TestReadDocs_Errors(t *testing.T) {
	_, err := ReadDocs(t.TempDir(), "", "docs")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFiles(t, repo, dir, map[string]string{"main.go": "package main"}, "initial")

	_, err = ReadDocs(dir, "v9.9.9", "docs")
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	_, err = ReadDocs(dir, "", "docs")
	assert.True(t, errors.IsValidationError(err))
}
