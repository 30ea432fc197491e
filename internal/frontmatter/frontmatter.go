// Package frontmatter splits YAML front matter from documentation pages and
// decodes the navigation fields the resolver cares about.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the page opened a front matter block
// that never closes.
var ErrMissingClosingDelimiter = errors.New("front matter opening delimiter found but closing delimiter is missing")

// Meta holds the title fields read from a page's front matter.
type Meta struct {
	NavTitle     string `yaml:"nav_title"`
	SidebarTitle string `yaml:"sidebar_title"`
	PageTitle    string `yaml:"page_title"`
	Description  string `yaml:"description"`
}

// Page is a documentation file split into its parts.
type Page struct {
	Meta Meta
	// Raw is the front matter block without delimiters.
	Raw  []byte
	Body []byte
	// HasFrontMatter is false when the page starts directly with content.
	HasFrontMatter bool
}

// NavTitle returns nav_title, else sidebar_title, else fallback.
func (p Page) NavTitle(fallback string) string {
	switch {
	case p.Meta.NavTitle != "":
		return p.Meta.NavTitle
	case p.Meta.SidebarTitle != "":
		return p.Meta.SidebarTitle
	default:
		return fallback
	}
}

// Parse splits content and decodes its front matter.
func Parse(content []byte) (Page, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Page{Body: content}, err
	}
	page := Page{Raw: raw, Body: body, HasFrontMatter: had}
	if len(bytes.TrimSpace(raw)) == 0 {
		return page, nil
	}
	// Unknown keys are expected (descriptions, badges, ...), so decoding is lenient.
	if err := yaml.Unmarshal(raw, &page.Meta); err != nil {
		return page, fmt.Errorf("decode front matter: %w", err)
	}
	return page, nil
}

// Split separates a `---` delimited front matter block from the body. Both
// LF and CRLF line endings are accepted.
func Split(content []byte) (raw, body []byte, had bool, err error) {
	nl := newline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closing := []byte(nl + "---")
	idx := bytes.Index(rest, closing)
	for idx >= 0 {
		after := rest[idx+len(closing):]
		switch {
		case len(after) == 0:
			return rest[:idx+len(nl)], []byte{}, true, nil
		case bytes.HasPrefix(after, []byte(nl)):
			return rest[:idx+len(nl)], after[len(nl):], true, nil
		}
		next := bytes.Index(after, closing)
		if next < 0 {
			break
		}
		idx += len(closing) + next
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
