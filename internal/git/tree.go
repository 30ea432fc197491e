package git

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/plugindocs/internal/archive"
	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
)

// Snapshot is the documentation subtree of a repository at one commit.
type Snapshot struct {
	Commit string
	// Files holds every file below the root, paths starting with the root
	// directory. Layout validation is left to the archive parser.
	Files []archive.File
}

// ReadDocs reads every file under rootDir at revision (HEAD when empty).
func ReadDocs(repoPath, revision, rootDir string) (*Snapshot, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "open repository").
			WithContext("path", repoPath).
			Build()
	}

	if revision == "" {
		revision = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotFound, fmt.Sprintf("resolve revision %s", revision)).
			WithContext("path", repoPath).
			Build()
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("get commit object: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}

	rootDir = strings.Trim(rootDir, "/")
	subtree, err := tree.Tree(rootDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, fmt.Sprintf("no %s/ directory at %s", rootDir, commit.Hash.String()[:12])).
			WithContext("path", repoPath).
			Build()
	}

	var files []archive.File
	err = subtree.Files().ForEach(func(f *object.File) error {
		contents, err := readFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		files = append(files, archive.File{Path: path.Join(rootDir, f.Name), Contents: contents})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return &Snapshot{Commit: commit.Hash.String(), Files: files}, nil
}

func readFile(f *object.File) ([]byte, error) {
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}
