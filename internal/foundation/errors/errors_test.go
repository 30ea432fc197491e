package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "plugindocs.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "plugindocs.yaml", file)
	})

	t.Run("Wrapped errors are still classified", func(t *testing.T) {
		base := NotFoundError("asset missing").Build()
		wrapped := fmt.Errorf("fetch acme/foo: %w", base)

		assert.True(t, IsFetchError(wrapped))
		assert.False(t, IsValidationError(wrapped))
		assert.Equal(t, CategoryNotFound, GetCategory(wrapped))
		assert.True(t, stderrors.Is(wrapped, base))
	})

	t.Run("Unclassified errors default to internal", func(t *testing.T) {
		assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("boom")))
		assert.False(t, IsFetchError(stderrors.New("boom")))
	})

	t.Run("Cause is exposed through Unwrap", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := WrapError(cause, CategoryNetwork, "request failed").Transient().Build()

		assert.True(t, stderrors.Is(err, cause))
		assert.True(t, err.Transient())
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestHasCategory_JoinedErrors(t *testing.T) {
	joined := stderrors.Join(ConfigError("bad repo").Build(), nil)
	assert.True(t, IsConfigError(joined))
	assert.Equal(t, CategoryConfig, GetCategory(joined))

	nested := fmt.Errorf("run: %w", stderrors.Join(
		fmt.Errorf("first: %w", NetworkError("reset").Build()),
		ValidationError("bad layout").Build(),
	))
	assert.True(t, IsFetchError(nested))
	assert.True(t, IsValidationError(nested))
	assert.False(t, IsConfigError(nested))

	assert.False(t, HasCategory(nil, CategoryConfig))
	assert.False(t, IsConfigError(stderrors.Join(stderrors.New("plain"))))
}

func TestErrorBuilder_ContextIsolation(t *testing.T) {
	b := ValidationError("bad layout").WithContext("invalid_paths", []string{"docs/a.txt"})
	first := b.Build()
	b.WithContext("repository", "acme/foo")
	second := b.Build()

	_, ok := first.Context().Get("repository")
	assert.False(t, ok, "context added after Build must not leak into earlier errors")
	_, ok = second.Context().Get("repository")
	assert.True(t, ok)
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{stderrors.New("plain"), 1},
		{ValidationError("v").Build(), 2},
		{ConfigError("c").Build(), 7},
		{NotFoundError("n").Build(), 8},
		{NetworkError("n").Build(), 8},
		{InternalError("i").Build(), 10},
		{ResolutionError("r").Build(), 11},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, a.ExitCodeFor(tc.err), "%v", tc.err)
	}
}

func TestCLIErrorAdapter_FormatEnumeratesProblems(t *testing.T) {
	var out bytes.Buffer
	a := NewCLIErrorAdapter(false, nil)
	a.out = &out

	err := ValidationError("archive contains invalid paths").
		WithContext("invalid_paths", []string{"docs/extra-root-file.txt", "docs/builders/nested/x.mdx"}).
		Build()

	code := a.Report(err)
	require.Equal(t, 2, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "archive contains invalid paths")
	assert.Equal(t, "  - docs/extra-root-file.txt", lines[1])
	assert.Equal(t, "  - docs/builders/nested/x.mdx", lines[2])
}

func TestHTTPErrorAdapter(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)

	assert.Equal(t, http.StatusOK, a.StatusCodeFor(nil))
	assert.Equal(t, http.StatusServiceUnavailable, a.StatusCodeFor(ResolutionError("r").Build()))
	assert.Equal(t, http.StatusBadGateway, a.StatusCodeFor(NetworkError("n").Build()))
	assert.Equal(t, http.StatusInternalServerError, a.StatusCodeFor(stderrors.New("x")))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nav", nil)
	a.WriteErrorResponse(rec, req, ResolutionError("sources failed").WithContext("failures", []string{"acme/foo"}).Build())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"code":"resolution"`)
	assert.Contains(t, rec.Body.String(), "acme/foo")
}
