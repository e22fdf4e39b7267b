package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bylinehq/byline/internal/store"
	"github.com/bylinehq/byline/pkg/article"
)

func setupTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return NewServer(":0", st, nil), st
}

// finishArticle marks an article completed with revisions for the given
// stages.
func finishArticle(t *testing.T, st *store.Store, prompt string, stages ...article.Stage) *article.Article {
	t.Helper()
	ctx := context.Background()

	a, err := st.CreateArticle(ctx, store.CreateParams{
		Prompt:        prompt,
		TargetLength:  article.LengthShort,
		ResearchScope: article.ScopeBasic,
	})
	require.NoError(t, err)

	for _, stage := range stages {
		def, ok := article.StageByName(stage)
		require.True(t, ok)
		content := "content for " + string(stage)
		if stage == article.StageFinal {
			content = "# " + a.Title + "\n\nFinal *edited* body."
		}
		_, err := st.AppendRevision(ctx, a.ID, content, def.Agent, def.Stage)
		require.NoError(t, err)
	}

	require.NoError(t, st.UpdateStatus(ctx, a.ID, article.StatusCompleted, ""))
	return a
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexListsOnlyVerifiedArticles(t *testing.T) {
	srv, st := setupTestServer(t)

	ready := finishArticle(t, st, "finished piece", article.StageOrder()...)
	// Completed flag but missing the draft stage.
	broken := finishArticle(t, st, "broken piece", article.StagePlanning, article.StageResearch, article.StageFinal)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, ready.Title)
	assert.Contains(t, body, "/article/"+ready.ID)
	assert.NotContains(t, body, broken.ID)
}

func TestIndexEmpty(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No finished articles yet")
}

func TestArticlePageRendersMarkdown(t *testing.T) {
	srv, st := setupTestServer(t)

	a := finishArticle(t, st, "renders markdown", article.StageOrder()...)

	rec := get(t, srv, "/article/"+a.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<h1>"+a.Title+"</h1>")
	assert.Contains(t, body, "<em>edited</em>")
	assert.NotContains(t, body, "# "+a.Title, "markdown source should not leak through")
}

func TestArticlePageNotFound(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := get(t, srv, "/article/no-such-id")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArticlePageRedirectsWhenNotReady(t *testing.T) {
	srv, st := setupTestServer(t)

	// In-flight article: pending, no revisions.
	ctx := context.Background()
	a, err := st.CreateArticle(ctx, store.CreateParams{
		Prompt:        "still cooking",
		TargetLength:  article.LengthShort,
		ResearchScope: article.ScopeBasic,
	})
	require.NoError(t, err)

	rec := get(t, srv, "/article/"+a.ID)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAPIArticles(t *testing.T) {
	srv, st := setupTestServer(t)

	finishArticle(t, st, "first", article.StageOrder()...)
	ctx := context.Background()
	_, err := st.CreateArticle(ctx, store.CreateParams{
		Prompt:        "second",
		TargetLength:  article.LengthShort,
		ResearchScope: article.ScopeBasic,
	})
	require.NoError(t, err)

	rec := get(t, srv, "/api/articles")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var listed []article.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	// The API shows everything, including in-flight work.
	assert.Len(t, listed, 2)
}

func TestHealthz(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "connected", health.Store)
	assert.Empty(t, health.Redis, "no redis configured")
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
