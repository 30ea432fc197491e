package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstHeading(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"atx", "# Clone Builder\n\ntext\n", "Clone Builder"},
		{"setext", "Clone Builder\n=============\n", "Clone Builder"},
		{"inline markup", "# The `clone` **builder**\n", "The clone builder"},
		{"link", "# [Docker](https://example.com) plugin\n", "Docker plugin"},
		{"prefers level one", "## Intro\n\n# Main\n", "Main"},
		{"falls back to any level", "text\n\n### Usage\n", "Usage"},
		{"none", "just text\n", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FirstHeading([]byte(tc.body)))
		})
	}
}
