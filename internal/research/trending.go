package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	hackerNewsTopStoriesURL = "https://hacker-news.firebaseio.com/v0/topstories.json"
	hackerNewsItemURL       = "https://hacker-news.firebaseio.com/v0/item/%d.json"
	githubTrendingURL       = "https://github.com/trending"

	topStoryLimit = 30
)

// Topic is one trending subject worth writing about, scored 0-100.
type Topic struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Source        string    `json:"source"`
	URL           string    `json:"url"`
	PublishedAt   time.Time `json:"published_at"`
	InterestScore float64   `json:"interest_score"`

	relevance float64
	sources   int
}

// Trending discovers article-worthy topics from Hacker News and GitHub
// trending. A source failing is logged and skipped, not fatal.
type Trending struct {
	client *http.Client

	topStoriesURL string
	itemURL       string
	trendingURL   string
}

// NewTrending wires an HTTP client; a nil client gets a 20s timeout default.
func NewTrending(client *http.Client) *Trending {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Trending{
		client:        client,
		topStoriesURL: hackerNewsTopStoriesURL,
		itemURL:       hackerNewsItemURL,
		trendingURL:   githubTrendingURL,
	}
}

// Topics fetches, merges, and scores trending topics from all sources,
// sorted by interest score descending.
func (t *Trending) Topics(ctx context.Context) ([]Topic, error) {
	var all []Topic

	hn, err := t.hackerNewsTopics(ctx)
	if err != nil {
		log.Printf("[Research] Hacker News source failed: %v", err)
	}
	all = append(all, hn...)

	gh, err := t.githubTopics(ctx)
	if err != nil {
		log.Printf("[Research] GitHub trending source failed: %v", err)
	}
	all = append(all, gh...)

	if len(all) == 0 {
		return nil, fmt.Errorf("no trending topics available from any source")
	}

	merged := mergeTopics(all)
	scoreTopics(merged, time.Now().UTC())

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].InterestScore > merged[j].InterestScore
	})

	return merged, nil
}

func (t *Trending) hackerNewsTopics(ctx context.Context) ([]Topic, error) {
	var ids []int
	if err := t.getJSON(ctx, t.topStoriesURL, &ids); err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}
	if len(ids) > topStoryLimit {
		ids = ids[:topStoryLimit]
	}

	var topics []Topic
	for _, id := range ids {
		var story struct {
			Title string `json:"title"`
			Score int    `json:"score"`
			URL   string `json:"url"`
			Time  int64  `json:"time"`
		}
		if err := t.getJSON(ctx, fmt.Sprintf(t.itemURL, id), &story); err != nil {
			continue
		}
		if story.Title == "" || story.Score == 0 {
			continue
		}

		link := story.URL
		if link == "" {
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id)
		}

		topics = append(topics, Topic{
			Title:       story.Title,
			Description: fmt.Sprintf("Posted on Hacker News with %d points", story.Score),
			Source:      "hackernews",
			URL:         link,
			PublishedAt: time.Unix(story.Time, 0).UTC(),
			relevance:   clamp(float64(story.Score)/1000, 0, 1),
		})
	}

	return topics, nil
}

func (t *Trending) githubTopics(ctx context.Context) ([]Topic, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.trendingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request trending page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse trending page: %w", err)
	}

	now := time.Now().UTC()
	var topics []Topic

	doc.Find("article.Box-row").Each(func(i int, repo *goquery.Selection) {
		link := repo.Find("h2 a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		name := strings.Join(strings.Fields(link.Text()), " ")
		description := strings.TrimSpace(repo.Find("p").First().Text())
		if description == "" {
			description = "No description available"
		}

		stars := parseStarCount(repo.Find(`a[href$="stargazers"]`).First().Text())

		topics = append(topics, Topic{
			Title:       "GitHub Trending: " + name,
			Description: description,
			Source:      "github",
			URL:         "https://github.com" + href,
			PublishedAt: now,
			relevance:   clamp(float64(stars)/10000, 0, 1),
		})
	})

	return topics, nil
}

func (t *Trending) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", rawURL, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}

	return nil
}

// mergeTopics deduplicates by lowercased title; a duplicate keeps the
// higher relevance and counts as an extra source.
func mergeTopics(topics []Topic) []Topic {
	seen := make(map[string]int)
	var merged []Topic

	for _, topic := range topics {
		key := strings.ToLower(topic.Title)
		if idx, ok := seen[key]; ok {
			existing := &merged[idx]
			existing.sources++
			if topic.relevance > existing.relevance {
				existing.relevance = topic.relevance
			}
			continue
		}
		topic.sources = 1
		seen[key] = len(merged)
		merged = append(merged, topic)
	}

	return merged
}

// scoreTopics assigns interest scores: up to 50 points for relevance,
// 10 per extra source capped at 30, up to 20 for recency decaying over
// a day, capped at 100 total.
func scoreTopics(topics []Topic, now time.Time) {
	for i := range topics {
		topic := &topics[i]

		score := topic.relevance * 50
		score += clamp(float64(topic.sources-1)*10, 0, 30)

		hoursOld := now.Sub(topic.PublishedAt).Hours()
		score += clamp(20-(hoursOld/24)*20, 0, 20)

		topic.InterestScore = clamp(score, 0, 100)
	}
}

func parseStarCount(text string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
