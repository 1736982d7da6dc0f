package models

// TokenStats accumulates token counts across the LLM calls of one pipeline run.
type TokenStats struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add records one call. Negative counts are ignored so the totals never decrease.
func (t *TokenStats) Add(input, output int) {
	if input > 0 {
		t.InputTokens += input
	}
	if output > 0 {
		t.OutputTokens += output
	}
	t.TotalTokens = t.InputTokens + t.OutputTokens
}

// Merge folds other into t.
func (t *TokenStats) Merge(other TokenStats) {
	t.Add(other.InputTokens, other.OutputTokens)
}

// PartialSummary is the summary of one source document.
type PartialSummary struct {
	Source string
	Text   string
}

type SummaryResult struct {
	Text     string
	Document []byte
	Tokens   TokenStats
	Sources  []string
	Skipped  []string
}

const UnreadableMarker = "Unreadable"

// MatchResult is the score of one resume against a job description.
type MatchResult struct {
	Name      string         `json:"name"`
	Score     int            `json:"score"`
	Strengths []string       `json:"strengths"`
	Gaps      []string       `json:"gaps"`
	Summary   string         `json:"summary"`
	Raw       map[string]any `json:"raw,omitempty"`
	Malformed bool           `json:"malformed,omitempty"`
}

// UnreadableResult is recorded for a resume whose text could not be extracted.
func UnreadableResult(name string) MatchResult {
	return MatchResult{
		Name:      name,
		Score:     0,
		Strengths: []string{},
		Gaps:      []string{UnreadableMarker},
		Summary:   "Could not extract text.",
	}
}
