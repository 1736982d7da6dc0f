package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/config"
	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/models"
)

// Summarizer merges several documents into one through map-reduce
// summarization.
type Summarizer interface {
	Summarize(ctx context.Context, files []models.NamedFile, instructions string) (*models.SummaryResult, error)
}

type summarizerService struct {
	llm       GeminiService
	extractor TextExtractor
	chunker   TextChunker
	counter   TokenCounter
	prompts   *PromptBuilder
	cfg       config.PipelineConfig
	logger    *zap.Logger
}

func NewSummarizer(
	llm GeminiService,
	extractor TextExtractor,
	chunker TextChunker,
	counter TokenCounter,
	cfg config.PipelineConfig,
	log *zap.Logger,
) Summarizer {
	return &summarizerService{
		llm:       llm,
		extractor: extractor,
		chunker:   chunker,
		counter:   counter,
		prompts:   NewPromptBuilder(),
		cfg:       cfg,
		logger:    logger.OrNop(log),
	}
}

// Summarize implements Summarizer.
func (s *summarizerService) Summarize(ctx context.Context, files []models.NamedFile, instructions string) (*models.SummaryResult, error) {
	if !s.llm.Configured() {
		return nil, ErrMissingCredential
	}

	result := &models.SummaryResult{}
	var partials []models.PartialSummary

	for _, file := range files {
		text := s.extractor.ExtractText(file.Filename, file.Data)
		if strings.TrimSpace(text) == "" {
			if s.cfg.StrictExtraction {
				return nil, fmt.Errorf("%w: %s", ErrUnreadableInput, file.Filename)
			}
			s.logger.Warn("⚠️  Empty or unreadable content, skipping", zap.String("filename", file.Filename))
			result.Skipped = append(result.Skipped, file.Filename)
			continue
		}

		summary, err := s.summarizeDocument(ctx, file.Filename, text, &result.Tokens)
		if err != nil {
			return nil, err
		}
		partials = append(partials, models.PartialSummary{Source: file.Filename, Text: summary})
		result.Sources = append(result.Sources, file.Filename)
	}

	if len(partials) == 0 {
		return nil, ErrNoReadableInputs
	}

	prompt := s.prompts.BuildCombinePrompt(CombineSummaries(partials), instructions)
	final, err := s.complete(ctx, prompt, &result.Tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to combine summaries: %w", err)
	}
	result.Text = final

	doc, err := WriteDocx(final)
	if err != nil {
		return nil, err
	}
	result.Document = doc

	s.logger.Info("✅ Documents merged",
		zap.Int("sources", len(result.Sources)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("total_tokens", result.Tokens.TotalTokens))

	return result, nil
}

func (s *summarizerService) summarizeDocument(ctx context.Context, name, text string, stats *models.TokenStats) (string, error) {
	chunks := s.chunker.ChunkText(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	s.logger.Debug("📄 Summarizing document", zap.String("filename", name), zap.Int("chunks", len(chunks)))

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := s.complete(ctx, s.prompts.BuildChunkSummaryPrompt(chunk), stats)
		if err != nil {
			return "", fmt.Errorf("failed to summarize chunk %d of %s: %w", i+1, name, err)
		}
		summaries = append(summaries, summary)
	}

	combined := strings.Join(summaries, "\n\n")
	if !s.cfg.ReducePerDocument || len(summaries) < 2 {
		return combined, nil
	}

	reduced, err := s.complete(ctx, s.prompts.BuildDocumentReducePrompt(combined), stats)
	if err != nil {
		return "", fmt.Errorf("failed to reduce summaries of %s: %w", name, err)
	}
	return reduced, nil
}

func (s *summarizerService) complete(ctx context.Context, prompt string, stats *models.TokenStats) (string, error) {
	out, err := s.llm.GenerateText(ctx, prompt, s.cfg.SummaryTemperature)
	if err != nil {
		return "", err
	}
	stats.Add(s.counter.Count(prompt), s.counter.Count(out))
	return out, nil
}
