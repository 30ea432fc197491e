// Package normalization maps free-form configuration strings onto enum values.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization.
type Normalizer[T comparable] struct {
	name   string
	values map[string]T
	keys   []string // sorted, for error messages
}

// New creates a normalizer named name (used in errors) accepting the keys of
// values. Keys are matched case-insensitively after trimming whitespace.
func New[T comparable](name string, values map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{
		name:   name,
		values: make(map[string]T, len(values)),
		keys:   make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Lookup returns the value for raw or an error listing the accepted keys.
func (n *Normalizer[T]) Lookup(raw string) (T, error) {
	if v, ok := n.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q (valid: %s)", n.name, raw, strings.Join(n.keys, ", "))
}

// Or returns the value for raw, or fallback when raw is not recognized.
func (n *Normalizer[T]) Or(raw string, fallback T) T {
	if v, ok := n.values[clean(raw)]; ok {
		return v
	}
	return fallback
}

// Keys returns the accepted keys in sorted order.
func (n *Normalizer[T]) Keys() []string {
	return append([]string(nil), n.keys...)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
