// Package markdown extracts page metadata from Markdown bodies.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// FirstHeading returns the plain text of the first top-level heading in body.
// When the page has no level-1 heading the first heading of any level is
// used. It returns "" when body has no headings at all.
func FirstHeading(body []byte) string {
	root := md.Parser().Parse(text.NewReader(body))

	var first, top string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		title := headingText(h, body)
		if first == "" {
			first = title
		}
		if h.Level == 1 {
			top = title
			return gmast.WalkStop, nil
		}
		return gmast.WalkSkipChildren, nil
	})
	if top != "" {
		return top
	}
	return first
}

func headingText(h *gmast.Heading, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(h, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(node.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
