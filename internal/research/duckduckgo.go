// Package research provides background material for the research stage:
// a query-driven web search and a trending-topic discovery tool. Both are
// best-effort; the pipeline treats their failures as non-fatal.
package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bylinehq/byline/internal/pipeline"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

const userAgent = "byline/1.0 (article research)"

// DuckDuckGo searches the DuckDuckGo HTML endpoint and scrapes the result
// list. It implements pipeline.Searcher.
type DuckDuckGo struct {
	client  *http.Client
	baseURL string
}

// NewDuckDuckGo wires an HTTP client; a nil client gets a 20s timeout default.
func NewDuckDuckGo(client *http.Client) *DuckDuckGo {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &DuckDuckGo{client: client, baseURL: duckDuckGoURL}
}

// Search runs one query and returns up to max results.
func (d *DuckDuckGo) Search(ctx context.Context, query string, max int) ([]pipeline.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if max <= 0 {
		max = 5
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request search results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	return extractResults(doc, max), nil
}

func extractResults(doc *goquery.Document, max int) []pipeline.SearchResult {
	results := make([]pipeline.SearchResult, 0, max)

	doc.Find("div.result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}

		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		results = append(results, pipeline.SearchResult{
			Title:   title,
			URL:     cleanResultURL(href),
			Snippet: snippet,
		})

		return len(results) < max
	})

	return results
}

// cleanResultURL unwraps DuckDuckGo's redirect links (/l/?uddg=<encoded>).
func cleanResultURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" {
		return "https:" + href
	}
	return href
}
