package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/agentic-curie/internal/config"
	"alfredoptarigan/agentic-curie/internal/models"
)

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		ChunkSize:          10000,
		ChunkOverlap:       400,
		SummaryTemperature: 0.3,
		MatchTemperature:   0.2,
	}
}

func newTestSummarizer(llm GeminiService, cfg config.PipelineConfig, log *zap.Logger) Summarizer {
	return NewSummarizer(llm, NewTextExtractor(log), NewTextChunker(), NewHeuristicCounter(), cfg, log)
}

func TestSummarizeTwoDocuments(t *testing.T) {
	llm := newStubLLM()
	llm.text = func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "hello world"):
			return "Greeting text.", nil
		case strings.Contains(prompt, "foo bar"):
			return "Placeholder words.", nil
		case strings.HasPrefix(prompt, "Combine the following summaries"):
			return "**A**\nGreeting text.\n\n**B**\nPlaceholder words.", nil
		}
		return "", errors.New("unexpected prompt")
	}

	s := newTestSummarizer(llm, testPipelineConfig(), nil)
	result, err := s.Summarize(context.Background(), []models.NamedFile{
		{Filename: "A.txt", Data: []byte("hello world")},
		{Filename: "B.txt", Data: []byte("foo bar")},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"A.txt", "B.txt"}, result.Sources)
	assert.Empty(t, result.Skipped)
	assert.Contains(t, result.Text, "**A**")
	assert.Contains(t, result.Text, "**B**")
	assert.NotEmpty(t, result.Document)
	assert.Greater(t, result.Tokens.TotalTokens, 0)
	assert.Equal(t, result.Tokens.InputTokens+result.Tokens.OutputTokens, result.Tokens.TotalTokens)

	assert.Equal(t, 1, llm.promptsContaining("Summary of A.txt:\nGreeting text.\n\nSummary of B.txt:\nPlaceholder words.\n\n"))

	paragraphs, err := docxParagraphs(result.Document)
	require.NoError(t, err)
	assert.Len(t, paragraphs, 2)
}

func TestSummarizeUsesTemplatePrompt(t *testing.T) {
	llm := newStubLLM()
	s := newTestSummarizer(llm, testPipelineConfig(), nil)

	_, err := s.Summarize(context.Background(), []models.NamedFile{
		{Filename: "a.txt", Data: []byte("alpha")},
		{Filename: "b.txt", Data: []byte("beta")},
	}, "1. Background\n2. Results")
	require.NoError(t, err)

	assert.Equal(t, 1, llm.promptsContaining("Template instructions:\n1. Background\n2. Results"))
	assert.Equal(t, 0, llm.promptsContaining("Combine the following summaries"))
}

func TestSummarizeSkipsUnreadable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	llm := newStubLLM()
	s := newTestSummarizer(llm, testPipelineConfig(), zap.New(core))

	result, err := s.Summarize(context.Background(), []models.NamedFile{
		{Filename: "scan.pdf", Data: []byte("%PDF-broken")},
		{Filename: "notes.txt", Data: []byte("meeting notes")},
		{Filename: "blank.txt", Data: []byte("   \n")},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"notes.txt"}, result.Sources)
	assert.Equal(t, []string{"scan.pdf", "blank.txt"}, result.Skipped)
	assert.Equal(t, 2, logs.FilterMessageSnippet("skipping").Len())
	assert.Equal(t, 1, llm.promptsContaining("Summary of notes.txt"))
}

func TestSummarizeNoReadableInputs(t *testing.T) {
	llm := newStubLLM()
	s := newTestSummarizer(llm, testPipelineConfig(), nil)

	_, err := s.Summarize(context.Background(), []models.NamedFile{
		{Filename: "a.txt", Data: nil},
		{Filename: "b.txt", Data: []byte(" ")},
	}, "")
	assert.ErrorIs(t, err, ErrNoReadableInputs)
	assert.Empty(t, llm.prompts)
}

func TestSummarizeStrictExtraction(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.StrictExtraction = true
	s := newTestSummarizer(newStubLLM(), cfg, nil)

	_, err := s.Summarize(context.Background(), []models.NamedFile{
		{Filename: "ok.txt", Data: []byte("text")},
		{Filename: "empty.txt", Data: nil},
	}, "")
	assert.ErrorIs(t, err, ErrUnreadableInput)
}

func TestSummarizeMissingCredential(t *testing.T) {
	llm := newStubLLM()
	llm.configured = false
	s := newTestSummarizer(llm, testPipelineConfig(), nil)

	_, err := s.Summarize(context.Background(), []models.NamedFile{{Filename: "a.txt", Data: []byte("x")}}, "")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Empty(t, llm.prompts)
}

func TestSummarizeTokensGrowPerChunk(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.ChunkSize = 20
	cfg.ChunkOverlap = 5

	llm := newStubLLM()
	counter := &recordingCounter{TokenCounter: NewHeuristicCounter()}
	s := NewSummarizer(llm, NewTextExtractor(nil), NewTextChunker(), counter, cfg, nil)

	result, err := s.Summarize(context.Background(), []models.NamedFile{
		{Filename: "long.txt", Data: []byte(strings.Repeat("lorem ipsum ", 10))},
	}, "")
	require.NoError(t, err)

	var totals []int
	running := 0
	for _, n := range counter.counts {
		require.GreaterOrEqual(t, n, 1)
		running += n
		totals = append(totals, running)
	}
	for i := 1; i < len(totals); i++ {
		assert.GreaterOrEqual(t, totals[i], totals[i-1])
	}
	assert.Equal(t, running, result.Tokens.TotalTokens)
	assert.Equal(t, len(ChunkText(strings.Repeat("lorem ipsum ", 10), 20, 5)), llm.promptsContaining("Please summarize the following text."))
}

func TestSummarizeReducePerDocument(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.ChunkSize = 10
	cfg.ChunkOverlap = 0
	cfg.ReducePerDocument = true

	llm := newStubLLM()
	s := newTestSummarizer(llm, cfg, nil)

	_, err := s.Summarize(context.Background(), []models.NamedFile{
		{Filename: "long.txt", Data: []byte(strings.Repeat("x", 25))},
		{Filename: "short.txt", Data: []byte("tiny")},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, llm.promptsContaining("Create a concise, structured summary"))
}

func TestSummarizePropagatesLLMFailure(t *testing.T) {
	llm := newStubLLM()
	llm.text = func(string) (string, error) { return "", errors.New("quota exceeded") }
	s := newTestSummarizer(llm, testPipelineConfig(), nil)

	_, err := s.Summarize(context.Background(), []models.NamedFile{{Filename: "a.txt", Data: []byte("x")}}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

type recordingCounter struct {
	TokenCounter
	counts []int
}

func (r *recordingCounter) Count(text string) int {
	n := r.TokenCounter.Count(text)
	r.counts = append(r.counts, n)
	return n
}

func TestSummarizeToleratesEmptyChunkSummary(t *testing.T) {
	llm := newStubLLM()
	llm.text = func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "blocked content"):
			return "", nil
		case strings.HasPrefix(prompt, "Combine the following summaries"):
			return "Merged.", nil
		}
		return "Fine text.", nil
	}

	s := newTestSummarizer(llm, testPipelineConfig(), nil)
	result, err := s.Summarize(context.Background(), []models.NamedFile{
		{Filename: "a.txt", Data: []byte("blocked content")},
		{Filename: "b.txt", Data: []byte("ordinary content")},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "Merged.", result.Text)
	assert.Equal(t, []string{"a.txt", "b.txt"}, result.Sources)
	assert.Equal(t, 1, llm.promptsContaining("Summary of a.txt:\n\n\nSummary of b.txt:\nFine text."))
}
