// Package web serves the reader-facing site: an index of finished
// articles and a page per article with the editor's final pass rendered
// from markdown. Articles only appear once every stage has a revision,
// so readers never see half-built work.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"gitlab.com/golang-commonmark/markdown"

	"github.com/bylinehq/byline/internal/events"
	"github.com/bylinehq/byline/internal/store"
	"github.com/bylinehq/byline/pkg/article"
)

// Server hosts the article site and health endpoints.
type Server struct {
	store  *store.Store
	events *events.Publisher // May be nil; health then skips the Redis check
	md     *markdown.Markdown
	server *http.Server
	addr   string
}

// NewServer creates a server for the given listen address. The events
// publisher is optional.
func NewServer(addr string, st *store.Store, pub *events.Publisher) *Server {
	return &Server{
		store:  st,
		events: pub,
		md:     markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(true)),
		addr:   addr,
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/article/", s.handleArticle)
	mux.HandleFunc("/api/articles", s.handleAPIArticles)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Web] Server error: %v", err)
		}
	}()

	log.Printf("[Web] Listening on %s", s.addr)
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleIndex lists completed articles whose revision history passes
// verification, newest first.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ready, err := s.readyArticles(r.Context())
	if err != nil {
		log.Printf("[Web] Index error: %v", err)
		http.Error(w, "Error loading articles", http.StatusInternalServerError)
		return
	}

	s.render(w, indexTemplate, struct {
		Articles []article.Article
	}{Articles: ready})
}

// handleArticle shows one article's final content, rendered from markdown.
func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/article/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	a, err := s.store.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Article not found", http.StatusNotFound)
			return
		}
		log.Printf("[Web] Article %s error: %v", id, err)
		http.Error(w, "Error loading article", http.StatusInternalServerError)
		return
	}

	revisions, err := s.store.ListRevisions(r.Context(), id)
	if err != nil {
		log.Printf("[Web] Article %s error: %v", id, err)
		http.Error(w, "Error loading article", http.StatusInternalServerError)
		return
	}

	final, ok := finalRevision(revisions)
	if a.Status != article.StatusCompleted || !article.Verify(revisions).Complete() || !ok {
		// Not ready for readers yet; send them back to the index.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.render(w, articleTemplate, struct {
		Article *article.Article
		Content template.HTML
	}{
		Article: a,
		Content: template.HTML(s.md.RenderToString([]byte(final.Content))),
	})
}

// handleAPIArticles returns every article with its status as JSON,
// for scripting and the watch UI.
func (s *Server) handleAPIArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	articles, err := s.store.ListArticles(r.Context())
	if err != nil {
		log.Printf("[Web] API error: %v", err)
		http.Error(w, "Error loading articles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(articles)
}

// HealthResponse is the JSON response structure for health checks.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
	Redis  string `json:"redis,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleHealth returns 200 when the store (and Redis, when configured)
// is reachable, 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{Status: "healthy", Store: "connected"}
	status := http.StatusOK

	if err := s.store.Ping(ctx); err != nil {
		response.Status = "unhealthy"
		response.Store = "disconnected"
		response.Error = err.Error()
		status = http.StatusServiceUnavailable
	} else if s.events != nil {
		if err := s.events.Ping(ctx); err != nil {
			response.Status = "unhealthy"
			response.Redis = "disconnected"
			response.Error = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			response.Redis = "connected"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// readyArticles filters completed articles down to those whose revision
// history passes verification.
func (s *Server) readyArticles(ctx context.Context) ([]article.Article, error) {
	completed, err := s.store.ListByStatus(ctx, article.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list completed articles: %w", err)
	}

	// Newest first for readers, unlike the pipeline's oldest-first view.
	ready := make([]article.Article, 0, len(completed))
	for i := len(completed) - 1; i >= 0; i-- {
		a := completed[i]
		revisions, err := s.store.ListRevisions(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("list revisions for %s: %w", a.ID, err)
		}
		if article.Verify(revisions).Complete() {
			ready = append(ready, a)
		}
	}

	return ready, nil
}

// finalRevision returns the latest final-stage revision by the editor.
func finalRevision(revisions []article.Revision) (article.Revision, bool) {
	var best article.Revision
	found := false
	for _, rev := range revisions {
		if rev.Stage != article.StageFinal || rev.Agent != article.RoleEditor {
			continue
		}
		if !found || rev.CreatedAt.After(best.CreatedAt) {
			best = rev
			found = true
		}
	}
	return best, found
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("[Web] Template error: %v", err)
	}
}
