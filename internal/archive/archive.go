// Package archive reads and writes plugin documentation archives.
//
// Two archive shapes are understood. A docs archive is the release asset a
// plugin publishes: its entries start directly at the documentation root.
// A source archive is the repository snapshot for a tag: every entry is
// nested under one release-specific top directory which is stripped before
// validation, and entries outside the documentation root are ignored.
package archive

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
)

// Kind tells the parser how entries are laid out.
type Kind string

const (
	KindDocs   Kind = "docs"
	KindSource Kind = "source"
)

// Archive is a fetched archive and where it came from.
type Archive struct {
	Kind Kind
	Data []byte
	// URL is the location the bytes were fetched from, or a file path.
	URL string
}

// File is one documentation file kept after validation.
type File struct {
	Path     string
	Contents []byte
}

// DocExtensions are the extensions of documentation content files.
var DocExtensions = []string{".mdx", ".md"}

const readme = "README.md"

// Open checks that data is a readable zip archive.
func Open(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	// Insecure entry names still yield a reader; Parse reports them itself.
	if zr == nil {
		return nil, fmt.Errorf("not a zip archive: %w", err)
	}
	return zr, nil
}

// Digest returns the hex BLAKE3 digest of the archive bytes.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse extracts the documentation files under rootDir. Every entry that
// violates the layout is collected and reported in one ValidationError.
// Directory markers and the root README are accepted but not returned.
func Parse(a *Archive, rootDir string) ([]File, error) {
	rootDir = strings.Trim(rootDir, "/")
	zr, err := Open(a.Data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "archive is not readable").
			WithContext("url", a.URL).
			Build()
	}

	var (
		files   []File
		invalid []string
	)
	for _, f := range zr.File {
		name, ok := entryName(f.Name, a.Kind, rootDir)
		if !ok {
			continue
		}
		switch classify(name, rootDir) {
		case entryInvalid:
			invalid = append(invalid, name)
		case entryDoc:
			contents, err := readEntry(f)
			if err != nil {
				return nil, errors.WrapError(err, errors.CategoryValidation, "archive entry is not readable").
					WithContext("path", name).
					WithContext("url", a.URL).
					Build()
			}
			files = append(files, File{Path: name, Contents: contents})
		}
	}

	if len(invalid) > 0 {
		return nil, errors.ValidationError(fmt.Sprintf("%d archive entries are outside the %s/<component>/<page> layout", len(invalid), rootDir)).
			WithContext("invalid_paths", invalid).
			WithContext("url", a.URL).
			Build()
	}
	if len(files) == 0 {
		return nil, errors.ValidationError(fmt.Sprintf("archive contains no documentation files under %s/", rootDir)).
			WithContext("url", a.URL).
			Build()
	}
	return files, nil
}

// entryName maps a raw zip entry name to its path relative to the archive
// root. ok is false for source-archive entries outside rootDir.
func entryName(raw string, kind Kind, rootDir string) (string, bool) {
	name := strings.TrimPrefix(raw, "./")
	if kind != KindSource {
		return name, true
	}
	_, rest, found := strings.Cut(name, "/")
	if !found {
		return "", false
	}
	if rest != rootDir+"/" && !strings.HasPrefix(rest, rootDir+"/") {
		return "", false
	}
	return rest, true
}

type entryClass int

const (
	entryInvalid entryClass = iota
	entryMarker
	entryDoc
)

func classify(name, rootDir string) entryClass {
	if name != path.Clean(name)+trailingSlash(name) || path.IsAbs(name) {
		return entryInvalid
	}
	if name == rootDir+"/" || name == rootDir+"/"+readme {
		return entryMarker
	}
	rest, ok := strings.CutPrefix(name, rootDir+"/")
	if !ok {
		return entryInvalid
	}
	parts := strings.Split(rest, "/")
	if !IsComponentType(parts[0]) {
		return entryInvalid
	}
	switch {
	case len(parts) == 2 && parts[1] == "":
		return entryMarker
	case len(parts) == 2 && isDocFile(parts[1]):
		return entryDoc
	default:
		return entryInvalid
	}
}

func trailingSlash(name string) string {
	if strings.HasSuffix(name, "/") {
		return "/"
	}
	return ""
}

func isDocFile(base string) bool {
	ext := path.Ext(base)
	if ext == "" || strings.TrimSuffix(base, ext) == "" {
		return false
	}
	for _, e := range DocExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// Write produces a docs archive from files. Entries are written in path
// order below their directory markers with zero timestamps so equal inputs
// give byte-identical archives.
func Write(w io.Writer, rootDir string, files []File) error {
	rootDir = strings.Trim(rootDir, "/")
	sorted := append([]File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	zw := zip.NewWriter(w)
	written := map[string]bool{}
	mkdir := func(dir string) error {
		if written[dir] {
			return nil
		}
		written[dir] = true
		_, err := zw.CreateHeader(&zip.FileHeader{Name: dir, Method: zip.Store})
		return err
	}

	if err := mkdir(rootDir + "/"); err != nil {
		return err
	}
	for _, f := range sorted {
		if dir := path.Dir(f.Path); dir != rootDir {
			if err := mkdir(dir + "/"); err != nil {
				return err
			}
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Path, Method: zip.Deflate})
		if err != nil {
			return err
		}
		if _, err := fw.Write(f.Contents); err != nil {
			return err
		}
	}
	return zw.Close()
}
