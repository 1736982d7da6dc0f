package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/agentic-curie/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildChunkSummaryPrompt creates the map step prompt for one chunk
func (pb *PromptBuilder) BuildChunkSummaryPrompt(chunk string) string {
	return fmt.Sprintf("Please summarize the following text.\n\n%s\n\nSummary:", chunk)
}

// BuildDocumentReducePrompt condenses the chunk summaries of one document
func (pb *PromptBuilder) BuildDocumentReducePrompt(material string) string {
	return fmt.Sprintf("Create a concise, structured summary of the following material.\n\n%s\n\nFinal summary:", material)
}

// BuildCombinePrompt creates the cross-document reduce prompt. Template
// instructions, when present, dictate the order of the output.
func (pb *PromptBuilder) BuildCombinePrompt(combinedText, instructions string) string {
	if strings.TrimSpace(instructions) != "" {
		return fmt.Sprintf(`Given the template instructions and summarized text, arrange the content per the template order.
Do not significantly rephrase. Bold headings using **like this**. If the template specifies sub-sections, list them using a), b), c).

Template instructions:
%s

Summarized text:
%s

Final arranged document:`, instructions, combinedText)
	}

	return fmt.Sprintf(`Combine the following summaries into one coherent document with clear section headings. Bold headings using **like this**.

%s

Final document:`, combinedText)
}

// BuildResumeMatchPrompt creates the scoring prompt for a single resume
func (pb *PromptBuilder) BuildResumeMatchPrompt(jdText, resumeText string) string {
	return fmt.Sprintf(`You are a recruiter. Compare the following Job Description (JD) with a single resume and produce a JSON object with fields:
- score: integer 0..100 (overall match quality)
- strengths: array of short strings (top aligned aspects)
- gaps: array of short strings (missing or weak aspects)
- summary: short one-paragraph rationale

JD:
%s

Resume:
%s
`, jdText, resumeText)
}

// CombineSummaries lays out the per-document summaries for the combine step.
func CombineSummaries(partials []models.PartialSummary) string {
	var b strings.Builder
	for _, p := range partials {
		fmt.Fprintf(&b, "Summary of %s:\n%s\n\n", p.Source, p.Text)
	}
	return b.String()
}

// FormatSearchContext renders index hits for the chat model
func FormatSearchContext(results []SearchResult) string {
	if len(results) == 0 {
		return "No relevant context found."
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Context %d: %s (Score: %.2f) ---\n%s",
			i+1, result.Filename, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
