package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

const (
	red color = iota + 1
	blue
)

func newColors() *Normalizer[color] {
	return New("color", map[string]color{"red": red, "Blue": blue, "navy": blue})
}

func TestLookup(t *testing.T) {
	n := newColors()

	got, err := n.Lookup("  RED ")
	require.NoError(t, err)
	assert.Equal(t, red, got)

	got, err = n.Lookup("blue")
	require.NoError(t, err)
	assert.Equal(t, blue, got)

	_, err = n.Lookup("green")
	require.Error(t, err)
	assert.Equal(t, `unknown color "green" (valid: blue, navy, red)`, err.Error())
}

func TestOr(t *testing.T) {
	n := newColors()
	assert.Equal(t, blue, n.Or("Navy", red))
	assert.Equal(t, red, n.Or("", red))
}

func TestKeysIsACopy(t *testing.T) {
	n := newColors()
	keys := n.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"blue", "navy", "red"}, n.Keys())
}
