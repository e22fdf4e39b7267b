// Package report renders human-readable diagnostics for an article and
// its revision history. It is the read-only counterpart to the pipeline:
// it never mutates state, only inspects it.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bylinehq/byline/pkg/article"
)

const timestampLayout = "2006-01-02 15:04:05"

// WriteReport writes a full diagnostic report for an article to the
// provided writer: article metadata, per-stage completion marks, the
// revision history, and any consistency warnings.
func WriteReport(w io.Writer, a *article.Article, revisions []article.Revision) {
	writeInfo(w, a)
	writeStageStatus(w, revisions)
	writeHistory(w, revisions)
	writeDiagnostics(w, a, revisions)
}

// WriteJSON writes the article and its revisions as pretty-printed JSON.
// Useful for scripting against the CLI.
func WriteJSON(w io.Writer, a *article.Article, revisions []article.Revision) error {
	payload := struct {
		Article   *article.Article     `json:"article"`
		Revisions []article.Revision   `json:"revisions"`
		Verify    article.Verification `json:"verification"`
	}{
		Article:   a,
		Revisions: revisions,
		Verify:    article.Verify(revisions),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func writeInfo(w io.Writer, a *article.Article) {
	fmt.Fprintf(w, "\nArticle Information:\n")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "ID: %s\n", a.ID)
	fmt.Fprintf(w, "Title: %s\n", a.Title)
	fmt.Fprintf(w, "Status: %s\n", a.Status)
	agent := "None"
	if a.CurrentAgent != "" {
		agent = string(a.CurrentAgent)
	}
	fmt.Fprintf(w, "Current Agent: %s\n", agent)
	fmt.Fprintf(w, "Created: %s\n", a.CreatedAt.Format(timestampLayout))
	fmt.Fprintf(w, "Updated: %s\n", a.UpdatedAt.Format(timestampLayout))
	fmt.Fprintf(w, "Target Length: %s\n", a.TargetLength)
	fmt.Fprintf(w, "Research Scope: %s\n", a.ResearchScope)
}

func writeStageStatus(w io.Writer, revisions []article.Revision) {
	fmt.Fprintf(w, "\nStage Completion Status:\n")
	fmt.Fprintln(w, strings.Repeat("-", 50))

	for _, def := range article.Stages() {
		completedAt, ok := firstCompletion(revisions, def)
		mark := "✗"
		when := "Not completed"
		if ok {
			mark = "✓"
			when = completedAt.Format(timestampLayout)
		}
		fmt.Fprintf(w, "%s %s by %s: %s\n", mark, titleCase(string(def.Stage)), def.Agent, when)
	}
}

func writeHistory(w io.Writer, revisions []article.Revision) {
	fmt.Fprintf(w, "\nVersion History:\n")
	fmt.Fprintln(w, strings.Repeat("-", 50))

	for _, rev := range sortedByTime(revisions) {
		fmt.Fprintf(w, "Stage: %s\n", rev.Stage)
		fmt.Fprintf(w, "Agent: %s\n", rev.Agent)
		fmt.Fprintf(w, "Created: %s\n", rev.CreatedAt.Format(timestampLayout))
		fmt.Fprintf(w, "Content Length: %d characters\n", len(rev.Content))
		fmt.Fprintln(w, strings.Repeat("-", 25))
	}
}

func writeDiagnostics(w io.Writer, a *article.Article, revisions []article.Revision) {
	fmt.Fprintf(w, "\nDiagnostic Information:\n")
	fmt.Fprintln(w, strings.Repeat("-", 50))

	result := article.Verify(revisions)

	if result.OutOfOrder {
		fmt.Fprintln(w, "Warning: stages not completed in expected order")
		fmt.Fprintf(w, "Expected: %s\n", joinStages(article.StageOrder()))
		fmt.Fprintf(w, "Actual: %s\n", joinStages(observedStages(revisions)))
	}

	if len(result.Missing) > 0 {
		fmt.Fprintf(w, "\nMissing Stages:\n")
		for _, pair := range result.Missing {
			fmt.Fprintf(w, "- %s\n", pair)
		}
	}

	if a.Status == article.StatusCompleted && len(result.Missing) > 0 {
		fmt.Fprintf(w, "\nInconsistency: article marked as completed but missing required stages\n")
	}

	if a.Status == article.StatusError {
		fmt.Fprintf(w, "\nArticle is in error state\n")
		if a.StatusMessage != "" {
			fmt.Fprintf(w, "Reason: %s\n", a.StatusMessage)
		}
	}

	if result.Complete() && !result.OutOfOrder && a.Status != article.StatusError {
		fmt.Fprintln(w, "No issues found")
	}
}

// firstCompletion returns the earliest revision matching the stage
// definition, mirroring the completion timestamp shown per stage.
func firstCompletion(revisions []article.Revision, def article.StageDef) (time.Time, bool) {
	var at time.Time
	found := false
	for _, rev := range revisions {
		if rev.Stage != def.Stage || rev.Agent != def.Agent {
			continue
		}
		if !found || rev.CreatedAt.Before(at) {
			at = rev.CreatedAt
			found = true
		}
	}
	return at, found
}

func observedStages(revisions []article.Revision) []article.Stage {
	stages := make([]article.Stage, 0, len(revisions))
	for _, rev := range sortedByTime(revisions) {
		stages = append(stages, rev.Stage)
	}
	return stages
}

func joinStages(stages []article.Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = string(s)
	}
	return strings.Join(parts, " -> ")
}

func sortedByTime(revisions []article.Revision) []article.Revision {
	out := make([]article.Revision, len(revisions))
	copy(out, revisions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
