// Package pipeline drives an article through the four production stages:
// planning, research, draft, and final edit. The engine owns all status and
// revision writes during a run; it can start a fresh article or resume one
// from any completed stage, and it gates completion on the shared consistency
// verifier.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bylinehq/byline/internal/agent"
	"github.com/bylinehq/byline/internal/events"
	"github.com/bylinehq/byline/internal/store"
	"github.com/bylinehq/byline/pkg/article"
)

// ErrInvalidResumeState is returned when a resume is requested from a stage
// that is not in the stage table, or from the terminal stage.
var ErrInvalidResumeState = errors.New("invalid resume state")

// ErrIncompleteAfterResume is returned when the terminal stage has run but
// the verifier still reports missing stages. The article is left out of the
// completed status.
var ErrIncompleteAfterResume = errors.New("incomplete after resume")

// SearchResult is one background search hit handed to the research stage.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher is an optional research capability. Failures are logged and
// ignored; the pipeline never depends on search being available.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]SearchResult, error)
}

// Deps are the engine's explicit dependencies. Generators must cover all
// four roles; Events and Search are optional.
type Deps struct {
	Store      *store.Store
	Generators map[article.Role]agent.Generator
	Executor   *Executor
	Events     *events.Publisher
	Search     Searcher
	SearchMax  int // Background results per query; 0 means 5
}

// Engine executes and resumes article pipelines. Each article's run is a
// single sequential flow; separate articles may run concurrently on separate
// engines or goroutines, coordinated only through the store.
type Engine struct {
	store      *store.Store
	generators map[article.Role]agent.Generator
	exec       *Executor
	events     *events.Publisher
	search     Searcher
	searchMax  int
}

// New creates an engine, validating that every stage's role has a generator.
func New(deps Deps) (*Engine, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	for _, def := range article.Stages() {
		if _, ok := deps.Generators[def.Agent]; !ok {
			return nil, fmt.Errorf("no generator configured for role %q", def.Agent)
		}
	}
	if deps.Executor == nil {
		deps.Executor = NewExecutor(0, 0)
	}
	if deps.SearchMax <= 0 {
		deps.SearchMax = 5
	}

	return &Engine{
		store:      deps.Store,
		generators: deps.Generators,
		exec:       deps.Executor,
		events:     deps.Events,
		search:     deps.Search,
		searchMax:  deps.SearchMax,
	}, nil
}

// Request describes a new article to produce.
type Request struct {
	Prompt        string
	TargetLength  article.Length
	ResearchScope article.Scope
}

// Outcome is the result of a completed run.
type Outcome struct {
	ArticleID string
	Content   string
}

// Run creates a new article and drives it through all four stages. On
// failure the article is demoted to the error status with a diagnostic
// naming the last stage that did complete, and the error is returned.
func (e *Engine) Run(ctx context.Context, req Request) (*Outcome, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}
	if err := req.TargetLength.Validate(); err != nil {
		return nil, err
	}
	if err := req.ResearchScope.Validate(); err != nil {
		return nil, err
	}

	a, err := e.store.CreateArticle(ctx, store.CreateParams{
		Prompt:        req.Prompt,
		TargetLength:  req.TargetLength,
		ResearchScope: req.ResearchScope,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	log.Printf("[Pipeline] Article %s created for prompt %q", a.ID, req.Prompt)

	plan, err := e.runPlanning(ctx, a)
	if err != nil {
		e.failRun(ctx, a.ID, err)
		return nil, err
	}

	if err := e.runFrom(ctx, a, article.StagePlanning, plan); err != nil {
		e.failRun(ctx, a.ID, err)
		return nil, err
	}

	content, err := e.finalContent(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	return &Outcome{ArticleID: a.ID, Content: content}, nil
}

// ResumeFrom continues an existing article's pipeline after completedStage,
// whose output is completedContent. The same demote-on-failure policy as Run
// applies.
func (e *Engine) ResumeFrom(ctx context.Context, articleID string, completedStage article.Stage, completedContent string) error {
	a, err := e.store.GetArticle(ctx, articleID)
	if err != nil {
		return err
	}

	log.Printf("[Pipeline] Article %s: attempting resume from stage %q", a.ID, completedStage)

	if err := e.runFrom(ctx, a, completedStage, completedContent); err != nil {
		e.failRun(ctx, a.ID, err)
		return err
	}

	return nil
}

// Restart reruns an existing article from the very beginning, for articles
// that stalled before producing any revision. Earlier revisions, if any,
// stay in the history; verification only cares that each stage has one.
func (e *Engine) Restart(ctx context.Context, articleID string) error {
	a, err := e.store.GetArticle(ctx, articleID)
	if err != nil {
		return err
	}

	log.Printf("[Pipeline] Article %s: restarting from the planning stage", a.ID)

	plan, err := e.runPlanning(ctx, a)
	if err != nil {
		e.failRun(ctx, a.ID, err)
		return err
	}

	if err := e.runFrom(ctx, a, article.StagePlanning, plan); err != nil {
		e.failRun(ctx, a.ID, err)
		return err
	}

	return nil
}

// runPlanning executes the first stage, which has no predecessor output.
func (e *Engine) runPlanning(ctx context.Context, a *article.Article) (string, error) {
	def := article.Stages()[0]

	if err := e.store.UpdateStatus(ctx, a.ID, def.ActiveStatus, def.Agent); err != nil {
		return "", err
	}

	return e.executeStage(ctx, a, def, "")
}

// runFrom is the resume loop: starting after a completed stage, it walks the
// stage table until the terminal stage has run and verified. Stage N's input
// is stage N-1's exact output, threaded directly through the loop rather
// than re-read from storage.
//
// The loop form is deliberate: the bound is the four-row stage table, and an
// iterative walk keeps that visible in one place.
func (e *Engine) runFrom(ctx context.Context, a *article.Article, completed article.Stage, content string) error {
	for {
		next, ok := article.NextStage(completed)
		if !ok {
			return fmt.Errorf("%w: cannot resume from stage %q", ErrInvalidResumeState, completed)
		}

		log.Printf("[Pipeline] Article %s: next stage %s (%s)", a.ID, next.Stage, next.Agent)

		if err := e.store.UpdateStatus(ctx, a.ID, next.ActiveStatus, next.Agent); err != nil {
			return err
		}

		output, err := e.executeStage(ctx, a, next, content)
		if err != nil {
			return err
		}

		if next.Terminal() {
			return e.complete(ctx, a.ID)
		}

		completed, content = next.Stage, output
	}
}

// executeStage builds the stage's prompt, invokes its generator through the
// backoff executor, and persists the resulting revision.
func (e *Engine) executeStage(ctx context.Context, a *article.Article, def article.StageDef, prior string) (string, error) {
	gen := e.generators[def.Agent]

	prompt := promptBuilders[def.Stage](promptInput{
		Prompt:        a.Prompt,
		PriorContent:  prior,
		TargetLength:  a.TargetLength,
		ResearchScope: a.ResearchScope,
	})

	if def.Stage == article.StageResearch && e.search != nil {
		prompt += e.backgroundResults(ctx, a.Prompt)
	}

	stepName := fmt.Sprintf("%s stage (%s)", def.Stage, def.Agent)
	output, err := e.exec.Do(ctx, stepName, func(ctx context.Context) (string, error) {
		return gen.Generate(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", def.Stage, err)
	}

	if _, err := e.store.AppendRevision(ctx, a.ID, output, def.Agent, def.Stage); err != nil {
		return "", fmt.Errorf("stage %s: %w", def.Stage, err)
	}

	log.Printf("[Pipeline] Article %s: stage %s complete (%d characters)", a.ID, def.Stage, len(output))
	e.publish(ctx, events.StageEvent{
		ArticleID: a.ID,
		Stage:     def.Stage,
		Agent:     def.Agent,
		Status:    def.ActiveStatus,
		AtMs:      time.Now().UnixMilli(),
	})

	return output, nil
}

// complete verifies the full revision history and marks the article
// completed. A failed verification leaves the article in its current active
// status; the caller's failure path then demotes it to error.
func (e *Engine) complete(ctx context.Context, articleID string) error {
	revisions, err := e.store.ListRevisions(ctx, articleID)
	if err != nil {
		return err
	}

	result := article.Verify(revisions)
	if !result.Complete() {
		return fmt.Errorf("%w: missing stages: %s", ErrIncompleteAfterResume, result.MissingList())
	}
	if result.OutOfOrder {
		log.Printf("[Pipeline] Article %s: stages completed out of expected order", articleID)
	}

	if err := e.store.UpdateStatus(ctx, articleID, article.StatusCompleted, ""); err != nil {
		return err
	}

	log.Printf("[Pipeline] Article %s: all stages verified, marked completed", articleID)
	e.publish(ctx, events.StageEvent{
		ArticleID: articleID,
		Status:    article.StatusCompleted,
		AtMs:      time.Now().UnixMilli(),
	})

	return nil
}

// failRun demotes the article to the error status with a diagnostic that
// names the last stage known to have completed. The lookup tolerates an
// empty or unreadable history. Already-persisted revisions are kept: a later
// resume can pick up exactly where this run stopped.
func (e *Engine) failRun(ctx context.Context, articleID string, cause error) {
	message := fmt.Sprintf("failed before any stage completed: %v", cause)

	revisions, err := e.store.ListRevisions(ctx, articleID)
	if err != nil {
		log.Printf("[Pipeline] Article %s: could not read revisions while handling failure: %v", articleID, err)
	} else if stage, agentRole, _, ok := article.LastCompleted(revisions); ok {
		message = fmt.Sprintf("failed after %s by %s: %v", stage, agentRole, cause)
	}

	log.Printf("[Pipeline] Article %s: %s", articleID, message)

	if err := e.store.SetError(ctx, articleID, message); err != nil {
		log.Printf("[Pipeline] Article %s: failed to record error status: %v", articleID, err)
	}

	e.publish(ctx, events.StageEvent{
		ArticleID: articleID,
		Status:    article.StatusError,
		AtMs:      time.Now().UnixMilli(),
	})
}

// finalContent returns the latest final-stage revision for the article.
func (e *Engine) finalContent(ctx context.Context, articleID string) (string, error) {
	revisions, err := e.store.ListRevisions(ctx, articleID)
	if err != nil {
		return "", err
	}

	content := ""
	found := false
	for _, rev := range revisions {
		if rev.Stage == article.StageFinal && rev.Agent == article.RoleEditor {
			content = rev.Content
			found = true
		}
	}
	if !found {
		return "", fmt.Errorf("no final revision found after completion")
	}

	return content, nil
}

// backgroundResults runs the optional search capability and formats the hits
// as an addendum to the research prompt. Search failure is never fatal.
func (e *Engine) backgroundResults(ctx context.Context, query string) string {
	results, err := e.search.Search(ctx, query, e.searchMax)
	if err != nil {
		log.Printf("[Pipeline] Background search failed, continuing without it: %v", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nBackground search results to consider:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
	}
	return b.String()
}

// publish sends a stage event, logging and swallowing any failure.
func (e *Engine) publish(ctx context.Context, ev events.StageEvent) {
	if err := e.events.Publish(ctx, ev); err != nil {
		log.Printf("[Pipeline] Failed to publish stage event: %v", err)
	}
}
