package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bylinehq/byline/pkg/article"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGemini(GeminiConfig{
		Endpoint: server.URL,
		Model:    "gemini-2.0-flash",
		APIKey:   "test-key",
	}, article.RoleWriter)
}

func TestGeminiGenerate(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"a draft "},{"text":"article"}]}}]}`)
	})

	text, err := g.Generate(context.Background(), "write something")
	require.NoError(t, err)
	assert.Equal(t, "a draft article", text)
}

func TestGeminiClassifiesRateLimit(t *testing.T) {
	t.Run("429 status", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"code":429,"message":"quota exceeded"}}`, http.StatusTooManyRequests)
		})

		_, err := g.Generate(context.Background(), "x")
		require.Error(t, err)
		assert.True(t, IsRateLimited(err))
	})

	t.Run("RESOURCE_EXHAUSTED body", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, http.StatusForbidden)
		})

		_, err := g.Generate(context.Background(), "x")
		require.Error(t, err)
		assert.True(t, IsRateLimited(err))
	})

	t.Run("other errors are fatal", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"code":400,"message":"bad request"}}`, http.StatusBadRequest)
		})

		_, err := g.Generate(context.Background(), "x")
		require.Error(t, err)
		assert.False(t, IsRateLimited(err))

		var ae *Error
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, KindFatal, ae.Kind)
		assert.Equal(t, "gemini.generate", ae.Op)
	})
}

func TestGeminiRejectsEmptyResponse(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	})

	_, err := g.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, IsRateLimited(err))
}

func TestGeminiMisconfigured(t *testing.T) {
	g := NewGemini(GeminiConfig{Model: "gemini-2.0-flash"}, article.RoleEditor)

	_, err := g.Generate(context.Background(), "x")
	require.Error(t, err)

	var ae *Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, KindFatal, ae.Kind)
}

func TestIsRateLimited(t *testing.T) {
	rateLimited := &Error{Kind: KindRateLimited, Op: "test", Err: errors.New("quota")}
	assert.True(t, IsRateLimited(rateLimited))
	assert.True(t, IsRateLimited(fmt.Errorf("wrapped: %w", rateLimited)))

	fatal := &Error{Kind: KindFatal, Op: "test", Err: errors.New("boom")}
	assert.False(t, IsRateLimited(fatal))
	assert.False(t, IsRateLimited(errors.New("plain")))
	assert.False(t, IsRateLimited(nil))
}
