package article

import (
	"sort"
)

// StageDef is one row of the static stage table: which role produces the
// stage, which status is active while it runs, and which stage follows.
// Next is empty for the terminal stage.
type StageDef struct {
	Stage        Stage
	Agent        Role
	ActiveStatus Status
	Next         Stage
}

// Terminal reports whether this is the last stage of the pipeline.
func (d StageDef) Terminal() bool {
	return d.Next == ""
}

// stageTable is the ordered pipeline definition. Loaded once, never mutated.
// Planning and research both run under the "researching" status; the status
// set intentionally has three active labels for four stages.
var stageTable = []StageDef{
	{Stage: StagePlanning, Agent: RoleManager, ActiveStatus: StatusResearching, Next: StageResearch},
	{Stage: StageResearch, Agent: RoleResearcher, ActiveStatus: StatusResearching, Next: StageDraft},
	{Stage: StageDraft, Agent: RoleWriter, ActiveStatus: StatusWriting, Next: StageFinal},
	{Stage: StageFinal, Agent: RoleEditor, ActiveStatus: StatusEditing},
}

// Stages returns the stage table in pipeline order.
// Callers must not modify the returned slice.
func Stages() []StageDef {
	return stageTable
}

// StageOrder returns the canonical stage sequence.
func StageOrder() []Stage {
	order := make([]Stage, len(stageTable))
	for i, def := range stageTable {
		order[i] = def.Stage
	}
	return order
}

// StageByName looks up a stage definition by its label.
func StageByName(stage Stage) (StageDef, bool) {
	for _, def := range stageTable {
		if def.Stage == stage {
			return def, true
		}
	}
	return StageDef{}, false
}

// NextStage returns the definition of the stage that follows the given
// completed stage. ok is false when the completed stage is unknown or is the
// terminal stage (nothing follows "final").
func NextStage(completed Stage) (StageDef, bool) {
	def, found := StageByName(completed)
	if !found || def.Terminal() {
		return StageDef{}, false
	}
	return StageByName(def.Next)
}

// LastCompleted scans a revision history and returns the most recently
// completed valid (stage, agent) pair and its content. Revisions whose
// (stage, agent) combination does not appear in the stage table are ignored.
// When duplicates exist the latest by creation time wins. ok is false when no
// stage has ever completed.
func LastCompleted(revisions []Revision) (stage Stage, agent Role, content string, ok bool) {
	sorted := sortedByTime(revisions)

	for _, rev := range sorted {
		for _, def := range stageTable {
			if def.Stage == rev.Stage && def.Agent == rev.Agent {
				stage = rev.Stage
				agent = rev.Agent
				content = rev.Content
				ok = true
			}
		}
	}

	return stage, agent, content, ok
}

// sortedByTime returns a copy of revisions ordered by creation time. The sort
// is stable so same-timestamp rows keep their persisted order.
func sortedByTime(revisions []Revision) []Revision {
	sorted := make([]Revision, len(revisions))
	copy(sorted, revisions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}
