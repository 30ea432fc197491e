// Package cache provides run-scoped memoization for archive fetches and
// parsed archives.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/plugindocs/internal/archive"
	"git.home.luguber.info/inful/plugindocs/internal/fetch"
	"git.home.luguber.info/inful/plugindocs/internal/metrics"
)

// Memo is a get-or-populate cache. Results, including errors, are kept for
// the lifetime of the Memo; there is no eviction. Concurrent calls for a key
// that is still being computed wait for that computation.
type Memo[V any] struct {
	name     string
	recorder metrics.Recorder

	mu      sync.Mutex
	results map[string]result[V]
	group   singleflight.Group
}

type result[V any] struct {
	val V
	err error
}

// NewMemo creates an empty memo. name labels its cache metrics.
func NewMemo[V any](name string, recorder metrics.Recorder) *Memo[V] {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Memo[V]{name: name, recorder: recorder, results: make(map[string]result[V])}
}

// Do returns the stored result for key, or runs fn once and stores its result.
func (m *Memo[V]) Do(key string, fn func() (V, error)) (V, error) {
	if r, ok := m.lookup(key); ok {
		m.recorder.IncCacheLookup(m.name, true)
		return r.val, r.err
	}

	ran := false
	v, _, _ := m.group.Do(key, func() (any, error) {
		// Another caller may have stored the key between lookup and Do.
		if r, ok := m.lookup(key); ok {
			return r, nil
		}
		ran = true
		val, err := fn()
		r := result[V]{val: val, err: err}
		m.mu.Lock()
		m.results[key] = r
		m.mu.Unlock()
		return r, nil
	})
	m.recorder.IncCacheLookup(m.name, !ran)

	r := v.(result[V])
	return r.val, r.err
}

// Len returns the number of stored keys.
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

func (m *Memo[V]) lookup(key string) (result[V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[key]
	return r, ok
}

// Key serializes an argument tuple. Structurally equal tuples give equal keys.
func Key(args ...any) string {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%#v", args)
	}
	return string(data)
}

// CachingFetcher memoizes a Fetcher per (repo, tag).
type CachingFetcher struct {
	next fetch.Fetcher
	memo *Memo[*archive.Archive]
}

// NewCachingFetcher wraps next.
func NewCachingFetcher(next fetch.Fetcher, recorder metrics.Recorder) *CachingFetcher {
	return &CachingFetcher{next: next, memo: NewMemo[*archive.Archive]("fetch", recorder)}
}

// Fetch returns the memoized archive. The context of the first caller for a
// key is the one the underlying fetch runs with.
func (c *CachingFetcher) Fetch(ctx context.Context, repo, tag string) (*archive.Archive, error) {
	return c.memo.Do(Key(repo, tag), func() (*archive.Archive, error) {
		return c.next.Fetch(ctx, repo, tag)
	})
}
