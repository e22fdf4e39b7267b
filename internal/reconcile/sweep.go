// Package reconcile repairs drift between article status flags and the
// revision history that is supposed to back them. A completed article with a
// missing stage can appear after a crash mid-run or racing resume calls; the
// sweep demotes such articles to the error status so they are re-examined
// instead of being served as finished work.
package reconcile

import (
	"context"
	"fmt"
	"log"

	"github.com/bylinehq/byline/internal/store"
	"github.com/bylinehq/byline/pkg/article"
)

// Sweeper runs the reconciliation pass.
type Sweeper struct {
	store *store.Store
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(s *store.Store) *Sweeper {
	return &Sweeper{store: s}
}

// Sweep verifies every completed article against its revision history and
// demotes the inconsistent ones to error. Returns the number demoted.
//
// The sweep is idempotent and safe to run repeatedly, including alongside
// live pipeline runs. It can race a run in its final moments and demote an
// article just before the engine marks it completed; the next sweep sees the
// now-consistent history and leaves it alone, so the damage is limited to a
// spurious error status the operator can re-check.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	completed, err := s.store.ListByStatus(ctx, article.StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("failed to list completed articles: %w", err)
	}

	log.Printf("[Reconcile] Found %d articles marked as completed", len(completed))

	demoted := 0
	for _, a := range completed {
		revisions, err := s.store.ListRevisions(ctx, a.ID)
		if err != nil {
			log.Printf("[Reconcile] Failed to load revisions for article %s: %v", a.ID, err)
			continue
		}

		result := article.Verify(revisions)
		if result.Complete() {
			continue
		}

		message := fmt.Sprintf("incomplete article: missing stages: %s", result.MissingList())
		log.Printf("[Reconcile] Article %s (%s) is incomplete: %s", a.ID, a.Title, message)

		if err := s.store.SetError(ctx, a.ID, message); err != nil {
			log.Printf("[Reconcile] Failed to demote article %s: %v", a.ID, err)
			continue
		}

		demoted++
	}

	log.Printf("[Reconcile] Sweep complete, demoted %d articles", demoted)
	return demoted, nil
}
