package nav

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
)

// localNavSchema describes the hand-authored navigation file. Branches may
// list their entries under "routes" or "children".
//
//go:embed schema.json
var localNavSchema string

var schemaLoader = gojsonschema.NewStringLoader(localNavSchema)

// record is one hand-authored entry as it appears in the local file.
type record struct {
	Title    string   `json:"title"`
	Path     string   `json:"path"`
	FilePath string   `json:"filePath"`
	Href     string   `json:"href"`
	Divider  bool     `json:"divider"`
	Routes   []record `json:"routes"`
	Children []record `json:"children"`
}

// LoadOptions controls how local leaves are bound to content files.
type LoadOptions struct {
	// ContentDir is the local content root. When set, a leaf without an
	// explicit filePath resolves to "{path}/index.mdx" if that file exists.
	ContentDir string
	// Ext is the content file extension, ".mdx" when empty.
	Ext string
}

// LoadFile reads and validates a local navigation file.
func LoadFile(file string, opts LoadOptions) ([]*Node, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "read navigation file").
			Fatal().
			WithContext("file", file).
			Build()
	}
	nodes, err := Parse(data, opts)
	if err != nil {
		if c, ok := errors.AsClassified(err); ok {
			return nil, c.WithContext("file", file)
		}
		return nil, err
	}
	return nodes, nil
}

// Parse validates data against the navigation schema and converts it into nodes.
func Parse(data []byte, opts LoadOptions) ([]*Node, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "navigation file is not valid JSON").Fatal().Build()
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return nil, errors.ConfigError("navigation file does not match the expected shape").
			WithContext("invalid_paths", problems).
			Build()
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "decode navigation file").Fatal().Build()
	}
	if opts.Ext == "" {
		opts.Ext = ".mdx"
	}
	return convert(records, opts), nil
}

// convert assigns each record its variant. The schema guarantees exactly one
// variant matches, so the checks below mirror its oneOf branches.
func convert(records []record, opts LoadOptions) []*Node {
	out := make([]*Node, 0, len(records))
	for _, r := range records {
		switch {
		case r.Divider:
			out = append(out, NewDivider())
		case r.Href != "":
			out = append(out, NewLink(r.Title, r.Href))
		case r.Routes != nil:
			out = append(out, NewBranch(r.Title, r.Path, convert(r.Routes, opts)...))
		case r.Children != nil:
			out = append(out, NewBranch(r.Title, r.Path, convert(r.Children, opts)...))
		default:
			out = append(out, NewLocalLeaf(r.Title, r.Path, localFile(r, opts)))
		}
	}
	return out
}

func localFile(r record, opts LoadOptions) string {
	if r.FilePath != "" {
		return r.FilePath
	}
	if opts.ContentDir != "" {
		index := path.Join(r.Path, "index"+opts.Ext)
		if _, err := os.Stat(filepath.Join(opts.ContentDir, filepath.FromSlash(index))); err == nil {
			return index
		}
	}
	if r.Path == "" {
		return "index" + opts.Ext
	}
	return r.Path + opts.Ext
}
