package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bylinehq/byline/pkg/article"
)

// DefaultGeminiEndpoint is the production Generative Language API base URL.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"

// Gemini is a Generator backed by the Gemini generateContent REST API.
// One instance is created per role so each carries its own persona.
type Gemini struct {
	endpoint   string
	model      string
	apiKey     string
	persona    string
	httpClient *http.Client
}

// GeminiConfig carries the connection settings for a Gemini generator.
type GeminiConfig struct {
	Endpoint string // Base URL; DefaultGeminiEndpoint if empty
	Model    string // e.g. "gemini-2.0-flash"
	APIKey   string
}

// NewGemini builds a Gemini generator for the given role.
func NewGemini(cfg GeminiConfig, role article.Role) *Gemini {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}

	return &Gemini{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		persona:  PersonaFor(role),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// request/response shapes for the generateContent endpoint. Only the fields
// we read are declared.
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate implements Generator. Failures are returned as *Error with the
// kind already classified; callers never inspect message text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "gemini.generate"

	if g.apiKey == "" || g.model == "" {
		return "", &Error{Kind: KindFatal, Op: op, Err: fmt.Errorf("gemini client misconfigured")}
	}

	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}, Role: "user"}},
	}
	if g.persona != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: g.persona}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Kind: KindFatal, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindFatal, Op: op, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindFatal, Op: op, Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &Error{Kind: KindFatal, Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &Error{
			Kind: classifyHTTP(resp.StatusCode, string(raw)),
			Op:   op,
			Err:  fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(raw))),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{Kind: KindFatal, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(parsed.Candidates) == 0 {
		return "", &Error{Kind: KindFatal, Op: op, Err: fmt.Errorf("no candidates in response")}
	}

	var out strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", &Error{Kind: KindFatal, Op: op, Err: fmt.Errorf("empty candidate text")}
	}

	return text, nil
}

// classifyHTTP maps an HTTP failure to an error kind. Rate-limit signals are
// the 429 status itself plus the quota markers Gemini embeds in error bodies.
func classifyHTTP(status int, body string) ErrorKind {
	if status == http.StatusTooManyRequests {
		return KindRateLimited
	}
	for _, marker := range []string{"429", "Too Many Requests", "RESOURCE_EXHAUSTED"} {
		if strings.Contains(body, marker) {
			return KindRateLimited
		}
	}
	return KindFatal
}
