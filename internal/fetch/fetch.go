// Package fetch downloads plugin documentation archives.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/plugindocs/internal/archive"
	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/logfields"
	"git.home.luguber.info/inful/plugindocs/internal/metrics"
)

// LatestTag is the floating release tag. It is never resolved to a
// concrete version, so it has no source archive fallback.
const LatestTag = "latest"

// Fetcher retrieves the documentation archive of a repository at a tag.
// Returned archives are readable zips; their layout is not checked.
type Fetcher interface {
	Fetch(ctx context.Context, repo, tag string) (*archive.Archive, error)
}

// GitHubFetcher fetches release assets and tag archives over plain HTTP GET.
// It never retries; server errors and transport failures are marked
// transient so a caller may.
type GitHubFetcher struct {
	client    *http.Client
	baseURL   string
	token     string
	asset     string
	userAgent string
	limiter   *rate.Limiter
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// Option configures a GitHubFetcher.
type Option func(*GitHubFetcher)

// WithHTTPClient replaces the default client (no timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(f *GitHubFetcher) { f.client = c }
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(f *GitHubFetcher) { f.token = token }
}

// WithAsset sets the release asset name, "docs.zip" by default.
func WithAsset(name string) Option {
	return func(f *GitHubFetcher) {
		if name != "" {
			f.asset = name
		}
	}
}

// WithRateLimit limits outbound requests per second. Zero or less disables it.
func WithRateLimit(rps float64) Option {
	return func(f *GitHubFetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *GitHubFetcher) { f.userAgent = ua }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(f *GitHubFetcher) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *GitHubFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewGitHubFetcher creates a fetcher for the host at baseURL, for example
// https://github.com.
func NewGitHubFetcher(baseURL string, opts ...Option) *GitHubFetcher {
	f := &GitHubFetcher{
		client:    &http.Client{},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		asset:     "docs.zip",
		userAgent: "plugindocs/1.0",
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DocsURL is the location of the documentation-only release asset.
func (f *GitHubFetcher) DocsURL(repo, tag string) string {
	if tag == LatestTag {
		return fmt.Sprintf("%s/%s/releases/latest/download/%s", f.baseURL, repo, f.asset)
	}
	return fmt.Sprintf("%s/%s/releases/download/%s/%s", f.baseURL, repo, tag, f.asset)
}

// SourceURL is the location of the full source archive of a tag.
func (f *GitHubFetcher) SourceURL(repo, tag string) string {
	return fmt.Sprintf("%s/%s/archive/refs/tags/%s.zip", f.baseURL, repo, tag)
}

// Fetch tries the docs asset first. When it does not exist and tag is a
// concrete version, the source archive of the tag is fetched instead.
func (f *GitHubFetcher) Fetch(ctx context.Context, repo, tag string) (*archive.Archive, error) {
	docsURL := f.DocsURL(repo, tag)
	data, err := f.get(ctx, docsURL, archive.KindDocs)
	if err == nil {
		return &archive.Archive{Kind: archive.KindDocs, Data: data, URL: docsURL}, nil
	}
	if !errors.HasCategory(err, errors.CategoryNotFound) {
		return nil, err
	}
	if tag == LatestTag {
		return nil, errors.WrapError(err, errors.CategoryNotFound, fmt.Sprintf("no %s asset on the latest release of %s", f.asset, repo)).
			WithContext("repository", repo).
			WithContext("tag", tag).
			Build()
	}

	f.logger.Debug("Docs asset missing, falling back to source archive",
		logfields.Repository(repo), logfields.Tag(tag))

	sourceURL := f.SourceURL(repo, tag)
	data, err = f.get(ctx, sourceURL, archive.KindSource)
	if err != nil {
		if errors.HasCategory(err, errors.CategoryNotFound) {
			return nil, errors.WrapError(err, errors.CategoryNotFound, fmt.Sprintf("neither %s asset nor source archive found for %s@%s", f.asset, repo, tag)).
				WithContext("repository", repo).
				WithContext("tag", tag).
				Build()
		}
		return nil, err
	}
	return &archive.Archive{Kind: archive.KindSource, Data: data, URL: sourceURL}, nil
}

func (f *GitHubFetcher) get(ctx context.Context, url string, kind archive.Kind) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, errors.WrapError(err, errors.CategoryNetwork, "rate limiter wait aborted").WithContext("url", url).Build()
		}
	}

	req, err := f.newRequest(ctx, url)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "build request").WithContext("url", url).Build()
	}

	start := time.Now()
	data, status, err := f.doRequest(req)
	elapsed := time.Since(start)

	result := metrics.ResultSuccess
	switch {
	case errors.HasCategory(err, errors.CategoryNotFound):
		result = metrics.ResultNotFound
	case err != nil:
		result = metrics.ResultError
	}
	f.recorder.ObserveFetchDuration(string(kind), elapsed, result)
	f.logger.Debug("Fetched archive",
		logfields.URL(url),
		logfields.ArchiveKind(string(kind)),
		logfields.Status(status),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return data, err
}

func (f *GitHubFetcher) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", f.userAgent)
	return req, nil
}

func (f *GitHubFetcher) doRequest(req *http.Request) ([]byte, int, error) {
	url := req.URL.String()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, errors.WrapError(err, errors.CategoryNetwork, "request failed").
			Transient().
			WithContext("url", url).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, errors.NotFoundError(fmt.Sprintf("%s returned %s", url, resp.Status)).
			WithContext("url", url).
			WithContext("status", resp.StatusCode).
			Build()
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		b := errors.NetworkError(fmt.Sprintf("%s returned %s", url, resp.Status)).
			WithContext("url", url).
			WithContext("status", resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			b = b.Transient()
		}
		return nil, resp.StatusCode, b.Build()
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.WrapError(err, errors.CategoryNetwork, "read response body").
			Transient().
			WithContext("url", url).
			Build()
	}
	if _, err := archive.Open(data); err != nil {
		return nil, resp.StatusCode, errors.WrapError(err, errors.CategoryNetwork, "response is not a zip archive").
			WithContext("url", url).
			Build()
	}
	return data, resp.StatusCode, nil
}

// LocalFetcher serves a documentation archive from disk. It stands in for
// the network when a source sets a local zip file override.
type LocalFetcher struct {
	Path string
}

// Fetch reads the archive at Path; repo and tag are only used in errors.
func (l LocalFetcher) Fetch(_ context.Context, repo, tag string) (*archive.Archive, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotFound, "local docs archive not readable").
			WithContext("file", l.Path).
			WithContext("repository", repo).
			WithContext("tag", tag).
			Build()
	}
	if _, err := archive.Open(data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "local docs archive is not a zip archive").
			WithContext("file", l.Path).
			Build()
	}
	return &archive.Archive{Kind: archive.KindDocs, Data: data, URL: l.Path}, nil
}
