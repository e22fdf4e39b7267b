package article

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Article is one unit of content production. The pipeline engine is the only
// writer of Status and CurrentAgent; revisions accumulate separately and are
// never mutated.
type Article struct {
	ID            string    `json:"id"`             // UUID
	Title         string    `json:"title"`          // Derived from the prompt at creation time
	Prompt        string    `json:"prompt"`         // Original free-text request
	TargetLength  Length    `json:"target_length"`  // short, medium, long
	ResearchScope Scope     `json:"research_scope"` // basic, thorough, comprehensive
	Status        Status    `json:"status"`         // Current lifecycle status
	CurrentAgent  Role      `json:"current_agent"`  // Role working the article; empty when idle or completed
	StatusMessage string    `json:"status_message"` // Diagnostic recorded on demotion to error
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Revision is an immutable record of one stage's output for one article.
// Revisions are only ever appended; duplicates per (article, stage, agent)
// are possible and must be tolerated by readers.
type Revision struct {
	ID        int64     `json:"id"`
	ArticleID string    `json:"article_id"`
	Stage     Stage     `json:"stage"`
	Agent     Role      `json:"agent"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Status is the article lifecycle state. The set is closed: the store rejects
// any other value before touching the database.
type Status string

const (
	// StatusPending indicates the article has been created but no stage has started.
	StatusPending Status = "pending"

	// StatusResearching covers both the planning and research stages.
	StatusResearching Status = "researching"

	// StatusWriting indicates the draft stage is running.
	StatusWriting Status = "writing"

	// StatusEditing indicates the final editing stage is running.
	StatusEditing Status = "editing"

	// StatusCompleted indicates all four stages completed and verified.
	StatusCompleted Status = "completed"

	// StatusPaused is an advisory flag set externally; a running pipeline does
	// not observe it mid-flight.
	StatusPaused Status = "paused"

	// StatusError indicates the pipeline aborted; the diagnostic lives in the
	// status message recorded alongside it.
	StatusError Status = "error"
)

// Stage labels the four production stages in order.
type Stage string

const (
	StagePlanning Stage = "planning"
	StageResearch Stage = "research"
	StageDraft    Stage = "draft"
	StageFinal    Stage = "final"
)

// Role labels the producing agent for each stage, 1:1 with stages.
type Role string

const (
	RoleManager    Role = "manager"
	RoleResearcher Role = "researcher"
	RoleWriter     Role = "writer"
	RoleEditor     Role = "editor"
)

// Length is the desired article length category. Opaque to the core; it is
// only threaded into prompt construction.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Scope is the desired research depth category. Opaque to the core.
type Scope string

const (
	ScopeBasic         Scope = "basic"
	ScopeThorough      Scope = "thorough"
	ScopeComprehensive Scope = "comprehensive"
)

// Validate checks if the Status is a member of the closed status set.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusResearching, StatusWriting, StatusEditing,
		StatusCompleted, StatusPaused, StatusError:
		return nil
	default:
		return fmt.Errorf("unknown status: %q", s)
	}
}

// Validate checks if the Stage is one of the four fixed stage labels.
func (s Stage) Validate() error {
	switch s {
	case StagePlanning, StageResearch, StageDraft, StageFinal:
		return nil
	default:
		return fmt.Errorf("unknown stage: %q", s)
	}
}

// Validate checks if the Role is one of the four fixed role labels.
func (r Role) Validate() error {
	switch r {
	case RoleManager, RoleResearcher, RoleWriter, RoleEditor:
		return nil
	default:
		return fmt.Errorf("unknown role: %q", r)
	}
}

// Validate checks if the Length is a valid length category.
func (l Length) Validate() error {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return nil
	default:
		return fmt.Errorf("unknown target length: %q", l)
	}
}

// Validate checks if the Scope is a valid research scope category.
func (s Scope) Validate() error {
	switch s {
	case ScopeBasic, ScopeThorough, ScopeComprehensive:
		return nil
	default:
		return fmt.Errorf("unknown research scope: %q", s)
	}
}

// Validate checks if the Article has valid field values.
func (a *Article) Validate() error {
	if !isValidUUID(a.ID) {
		return fmt.Errorf("invalid article ID: not a valid UUID")
	}

	if a.Prompt == "" {
		return fmt.Errorf("article prompt cannot be empty")
	}

	if err := a.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	if err := a.TargetLength.Validate(); err != nil {
		return fmt.Errorf("invalid target length: %w", err)
	}

	if err := a.ResearchScope.Validate(); err != nil {
		return fmt.Errorf("invalid research scope: %w", err)
	}

	if a.CurrentAgent != "" {
		if err := a.CurrentAgent.Validate(); err != nil {
			return fmt.Errorf("invalid current agent: %w", err)
		}
	}

	return nil
}

// TitleForPrompt derives the stored article title from the original request,
// truncating long prompts the same way on every code path.
func TitleForPrompt(prompt string) string {
	const limit = 50
	if len(prompt) > limit {
		return fmt.Sprintf("Article about: %s...", prompt[:limit])
	}
	return fmt.Sprintf("Article about: %s", prompt)
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
