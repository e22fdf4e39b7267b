package research

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trendingPage = `
<html><body>
  <article class="Box-row">
    <h2 class="h3"><a href="/example/orchestrator">example / orchestrator</a></h2>
    <p>A tiny workload orchestrator.</p>
    <a href="/example/orchestrator/stargazers">12,500</a>
  </article>
  <article class="Box-row">
    <h2 class="h3"><a href="/example/parser">example / parser</a></h2>
    <a href="/example/parser/stargazers">340</a>
  </article>
</body></html>`

// newTrendingServer serves fake Hacker News and GitHub endpoints.
func newTrendingServer(t *testing.T, stories map[int]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v0/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		ids := make([]int, 0, len(stories))
		for id := range stories {
			ids = append(ids, id)
		}
		fmt.Fprint(w, toJSONArray(ids))
	})
	mux.HandleFunc("/v0/item/", func(w http.ResponseWriter, r *http.Request) {
		var id int
		fmt.Sscanf(r.URL.Path, "/v0/item/%d.json", &id)
		body, ok := stories[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/trending", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, trendingPage)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func toJSONArray(ids []int) string {
	out := "["
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprint(id)
	}
	return out + "]"
}

func newTestTrending(srv *httptest.Server) *Trending {
	tr := NewTrending(srv.Client())
	tr.topStoriesURL = srv.URL + "/v0/topstories.json"
	tr.itemURL = srv.URL + "/v0/item/%d.json"
	tr.trendingURL = srv.URL + "/trending"
	return tr
}

func TestTopicsCombinesSources(t *testing.T) {
	now := time.Now().Unix()
	srv := newTrendingServer(t, map[int]string{
		1: fmt.Sprintf(`{"title":"New scheduler design","score":800,"url":"https://example.com/sched","time":%d}`, now),
		2: fmt.Sprintf(`{"title":"Ask HN: no score","time":%d}`, now),
	})

	topics, err := newTestTrending(srv).Topics(context.Background())
	require.NoError(t, err)

	// Story 2 has no score and is dropped; two GitHub repos remain.
	require.Len(t, topics, 3)

	byTitle := make(map[string]Topic)
	for _, topic := range topics {
		byTitle[topic.Title] = topic
	}

	hn, ok := byTitle["New scheduler design"]
	require.True(t, ok)
	assert.Equal(t, "hackernews", hn.Source)
	assert.Equal(t, "https://example.com/sched", hn.URL)
	assert.Equal(t, "Posted on Hacker News with 800 points", hn.Description)

	gh, ok := byTitle["GitHub Trending: example / orchestrator"]
	require.True(t, ok)
	assert.Equal(t, "A tiny workload orchestrator.", gh.Description)
	assert.Equal(t, "https://github.com/example/orchestrator", gh.URL)

	sparse, ok := byTitle["GitHub Trending: example / parser"]
	require.True(t, ok)
	assert.Equal(t, "No description available", sparse.Description)
}

func TestTopicsSortedByInterestScore(t *testing.T) {
	now := time.Now().Unix()
	srv := newTrendingServer(t, map[int]string{
		1: fmt.Sprintf(`{"title":"Low scorer","score":10,"time":%d}`, now),
		2: fmt.Sprintf(`{"title":"High scorer","score":2000,"time":%d}`, now),
	})

	topics, err := newTestTrending(srv).Topics(context.Background())
	require.NoError(t, err)

	for i := 1; i < len(topics); i++ {
		assert.GreaterOrEqual(t, topics[i-1].InterestScore, topics[i].InterestScore)
	}
	assert.Equal(t, "High scorer", topics[0].Title)
	assert.Equal(t, "https://news.ycombinator.com/item?id=2", topics[0].URL, "story without url falls back to its HN page")
}

func TestTopicsSurvivesSourceFailure(t *testing.T) {
	// Only the GitHub endpoint works.
	mux := http.NewServeMux()
	mux.HandleFunc("/trending", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, trendingPage)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	topics, err := newTestTrending(srv).Topics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "github", topics[0].Source)
}

func TestTopicsAllSourcesDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestTrending(srv).Topics(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trending topics available")
}

func TestMergeTopicsDeduplicates(t *testing.T) {
	topics := []Topic{
		{Title: "Same Topic", Source: "hackernews", relevance: 0.3},
		{Title: "same topic", Source: "github", relevance: 0.9},
		{Title: "Other", Source: "github", relevance: 0.1},
	}

	merged := mergeTopics(topics)
	require.Len(t, merged, 2)
	assert.Equal(t, "Same Topic", merged[0].Title)
	assert.Equal(t, 0.9, merged[0].relevance, "duplicate keeps the higher relevance")
	assert.Equal(t, 2, merged[0].sources)
}

func TestScoreTopics(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	topics := []Topic{
		{Title: "fresh and hot", relevance: 1.0, sources: 1, PublishedAt: now},
		{Title: "stale", relevance: 0.5, sources: 1, PublishedAt: now.Add(-48 * time.Hour)},
	}

	scoreTopics(topics, now)

	// Full relevance plus full recency, no multi-source bonus.
	assert.InDelta(t, 70.0, topics[0].InterestScore, 0.01)
	// Recency bonus fully decayed after a day.
	assert.InDelta(t, 25.0, topics[1].InterestScore, 0.01)
}

func TestParseStarCount(t *testing.T) {
	assert.Equal(t, 12500, parseStarCount(" 12,500 "))
	assert.Equal(t, 0, parseStarCount("not a number"))
}
