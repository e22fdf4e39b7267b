package article

import (
	"fmt"
	"strings"
)

// StageAgent identifies one required (stage, producing role) pair.
type StageAgent struct {
	Stage Stage
	Agent Role
}

func (sa StageAgent) String() string {
	return fmt.Sprintf("%s by %s", sa.Stage, sa.Agent)
}

// Verification is the result of checking a revision history against the
// required stage table.
type Verification struct {
	// Missing lists required (stage, agent) pairs with no matching revision,
	// in canonical stage order.
	Missing []StageAgent

	// OutOfOrder is set when the time-sorted stage sequence diverges from the
	// canonical order. It is a warning, not a failure: an article with all
	// four stages present is complete even if they were persisted out of
	// order (for example by two racing resume calls).
	OutOfOrder bool
}

// Complete reports whether every required stage is present.
func (v Verification) Complete() bool {
	return len(v.Missing) == 0
}

// MissingList renders the missing pairs as a diagnostic string, matching the
// wording embedded in error-status messages.
func (v Verification) MissingList() string {
	parts := make([]string, len(v.Missing))
	for i, sa := range v.Missing {
		parts[i] = sa.String()
	}
	return strings.Join(parts, ", ")
}

// Verify checks that every required (stage, agent) pair has at least one
// revision, and that the observed stage sequence matches the canonical order.
//
// Presence is an existence check, not a count: duplicate revisions for the
// same stage are tolerated and satisfy the requirement. The order check
// projects ALL revisions (valid or not) to their stage labels, sorted by
// creation time, and compares against the canonical prefix of the same
// length; extra or interleaved rows therefore flag OutOfOrder.
func Verify(revisions []Revision) Verification {
	var result Verification

	for _, def := range stageTable {
		found := false
		for _, rev := range revisions {
			if rev.Stage == def.Stage && rev.Agent == def.Agent {
				found = true
				break
			}
		}
		if !found {
			result.Missing = append(result.Missing, StageAgent{Stage: def.Stage, Agent: def.Agent})
		}
	}

	if len(revisions) > 0 {
		observed := make([]Stage, 0, len(revisions))
		for _, rev := range sortedByTime(revisions) {
			observed = append(observed, rev.Stage)
		}

		canonical := StageOrder()
		expected := canonical
		if len(observed) < len(canonical) {
			expected = canonical[:len(observed)]
		}

		result.OutOfOrder = !stagesEqual(observed, expected)
	}

	return result
}

func stagesEqual(a, b []Stage) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
