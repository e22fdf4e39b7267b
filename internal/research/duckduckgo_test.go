package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `
<html><body>
  <div class="result">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fborg">Large-scale cluster management at Google with Borg</a>
    <a class="result__snippet">Borg runs hundreds of thousands of jobs across clusters.</a>
  </div>
  <div class="result">
    <a class="result__a" href="https://example.com/k8s">Kubernetes documentation</a>
    <a class="result__snippet">Production-grade container orchestration.</a>
  </div>
  <div class="result">
    <a class="result__a" href="https://example.com/nomad">Nomad by HashiCorp</a>
  </div>
</body></html>`

func TestSearchScrapesResults(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.FormValue("q")
		w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.Client())
	d.baseURL = srv.URL

	results, err := d.Search(context.Background(), "container orchestration", 5)
	require.NoError(t, err)

	assert.Equal(t, "container orchestration", gotQuery)
	require.Len(t, results, 3)

	assert.Equal(t, "Large-scale cluster management at Google with Borg", results[0].Title)
	assert.Equal(t, "https://example.com/borg", results[0].URL, "redirect link should be unwrapped")
	assert.Equal(t, "Borg runs hundreds of thousands of jobs across clusters.", results[0].Snippet)

	assert.Equal(t, "https://example.com/k8s", results[1].URL)
	assert.Empty(t, results[2].Snippet)
}

func TestSearchHonorsMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.Client())
	d.baseURL = srv.URL

	results, err := d.Search(context.Background(), "orchestration", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	d := NewDuckDuckGo(nil)

	_, err := d.Search(context.Background(), "   ", 5)
	assert.Error(t, err)
}

func TestSearchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.Client())
	d.baseURL = srv.URL

	_, err := d.Search(context.Background(), "orchestration", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestExtractResultsSkipsEmptyTitles(t *testing.T) {
	html := `<div class="result"><a class="result__a" href="https://example.com"></a></div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.Empty(t, extractResults(doc, 5))
}

func TestCleanResultURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"redirect link", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage", "https://example.com/page"},
		{"direct link", "https://example.com/page", "https://example.com/page"},
		{"schemeless link", "//example.com/page", "https://example.com/page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanResultURL(tt.in))
		})
	}
}
