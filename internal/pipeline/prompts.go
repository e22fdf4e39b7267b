package pipeline

import (
	"fmt"

	"github.com/bylinehq/byline/pkg/article"
)

// promptInput carries everything a stage prompt may draw on: the original
// request, the previous stage's output, and the article's configuration.
// Builders are pure functions of this input.
type promptInput struct {
	Prompt        string
	PriorContent  string
	TargetLength  article.Length
	ResearchScope article.Scope
}

// planningPrompt is the first-stage prompt; it has no predecessor output.
func planningPrompt(in promptInput) string {
	return fmt.Sprintf(
		"Create a detailed plan for an article about: %s\n"+
			"Target length: %s\n"+
			"Research scope: %s\n\n"+
			"Provide a structured plan including:\n"+
			"1. Key topics to research\n"+
			"2. Specific areas to investigate\n"+
			"3. Types of sources to consult\n"+
			"4. Outline of the final article",
		in.Prompt, in.TargetLength, in.ResearchScope)
}

// researchPrompt builds the researcher's task from the manager's plan.
func researchPrompt(in promptInput) string {
	return fmt.Sprintf(
		"Using this content plan:\n%s\n\n"+
			"Conduct thorough research for an article about: %s\n"+
			"Research scope: %s\n\n"+
			"Provide research findings in this format:\n"+
			"1. Key Facts and Data\n"+
			"2. Expert Opinions and Quotes\n"+
			"3. Current Trends\n"+
			"4. Notable Examples\n"+
			"5. Sources and References",
		in.PriorContent, in.Prompt, in.ResearchScope)
}

// writingPrompt builds the writer's task from the research findings.
func writingPrompt(in promptInput) string {
	return fmt.Sprintf(
		"Write an article based on:\n\n"+
			"Original Prompt: %s\n\n"+
			"Research Findings:\n%s\n\n"+
			"Guidelines:\n"+
			"- Target length: %s\n"+
			"- Follow the research structure\n"+
			"- Incorporate research findings and quotes\n"+
			"- Maintain clear flow and readability\n"+
			"- Include proper citations",
		in.Prompt, in.PriorContent, in.TargetLength)
}

// editingPrompt builds the editor's task from the draft.
func editingPrompt(in promptInput) string {
	return fmt.Sprintf(
		"Review and improve this article draft:\n\n%s\n\n"+
			"Focus on:\n"+
			"1. Accuracy and fact verification\n"+
			"2. Structure and flow\n"+
			"3. Clarity and readability\n"+
			"4. Grammar and style\n"+
			"5. Citations and references\n\n"+
			"Provide the complete improved article. This will be the final published version.",
		in.PriorContent)
}

// promptBuilders binds each stage to its prompt builder. Stage input is
// always the immediately preceding stage's output, threaded directly by the
// engine rather than re-read from storage.
var promptBuilders = map[article.Stage]func(promptInput) string{
	article.StagePlanning: planningPrompt,
	article.StageResearch: researchPrompt,
	article.StageDraft:    writingPrompt,
	article.StageFinal:    editingPrompt,
}
