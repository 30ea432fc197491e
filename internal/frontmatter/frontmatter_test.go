package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontMatter(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	raw, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, raw)
	require.Equal(t, input, body)
}

func TestSplit_FrontMatter(t *testing.T) {
	raw, body, had, err := Split([]byte("---\nnav_title: Clone\n---\n# Clone\n"))
	require.NoError(t, err)
	require.True(t, had)
	assert.Equal(t, "nav_title: Clone\n", string(raw))
	assert.Equal(t, "# Clone\n", string(body))
}

func TestSplit_CRLF(t *testing.T) {
	raw, body, had, err := Split([]byte("---\r\nnav_title: Clone\r\n---\r\nbody"))
	require.NoError(t, err)
	require.True(t, had)
	assert.Equal(t, "nav_title: Clone\r\n", string(raw))
	assert.Equal(t, "body", string(body))
}

func TestSplit_EmptyBlockAndNoBody(t *testing.T) {
	raw, body, had, err := Split([]byte("---\n---\ntext"))
	require.NoError(t, err)
	assert.True(t, had)
	assert.Empty(t, raw)
	assert.Equal(t, "text", string(body))

	raw, body, had, err = Split([]byte("---\na: b\n---"))
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, "a: b\n", string(raw))
	assert.Empty(t, body)
}

func TestSplit_DashesInsideValueAreNotADelimiter(t *testing.T) {
	raw, body, _, err := Split([]byte("---\na: |\n  x\n---- not a delimiter\n---\nbody"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "---- not a delimiter")
	assert.Equal(t, "body", string(body))
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParse_TitleOrder(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"nav title wins", "---\nnav_title: Nav\nsidebar_title: Side\n---\n", "Nav"},
		{"sidebar title", "---\nsidebar_title: Side\npage_title: Page\n---\n", "Side"},
		{"fallback", "# Heading\n", "clone"},
		{"unknown keys ignored", "---\ndescription: x\nbadges: [a]\n---\n", "clone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := Parse([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.want, page.NavTitle("clone"))
		})
	}
}

func TestParse_PageTitle(t *testing.T) {
	page, err := Parse([]byte("---\npage_title: Clone - Builders\n---\nbody\n"))
	require.NoError(t, err)
	assert.Equal(t, "Clone - Builders", page.Meta.PageTitle)
	assert.Equal(t, "body\n", string(page.Body))
}

func TestParse_InvalidYAML(t *testing.T) {
	page, err := Parse([]byte("---\nnav_title: [\n---\nbody"))
	require.Error(t, err)
	assert.Equal(t, "body", string(page.Body))
}
