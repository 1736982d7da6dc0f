package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/agentic-curie/internal/config"
	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/models"
)

// Matcher scores resumes against a job description.
type Matcher interface {
	Match(ctx context.Context, jdText string, resumes []models.NamedFile) ([]models.MatchResult, error)
}

var matchResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score":     {Type: genai.TypeInteger, Description: "overall match quality 0..100"},
		"strengths": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"gaps":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"summary":   {Type: genai.TypeString},
	},
	Required: []string{"score", "strengths", "gaps", "summary"},
}

type matcherService struct {
	llm       GeminiService
	extractor TextExtractor
	prompts   *PromptBuilder
	cfg       config.PipelineConfig
	logger    *zap.Logger
}

func NewMatcher(llm GeminiService, extractor TextExtractor, cfg config.PipelineConfig, log *zap.Logger) Matcher {
	return &matcherService{
		llm:       llm,
		extractor: extractor,
		prompts:   NewPromptBuilder(),
		cfg:       cfg,
		logger:    logger.OrNop(log),
	}
}

// Match implements Matcher. Resumes are scored one at a time in input order.
// Unreadable resumes never reach the model, so a batch of them succeeds
// without a credential.
func (m *matcherService) Match(ctx context.Context, jdText string, resumes []models.NamedFile) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, 0, len(resumes))
	for _, resume := range resumes {
		text := m.extractor.ExtractText(resume.Filename, resume.Data)
		if strings.TrimSpace(text) == "" {
			m.logger.Warn("⚠️  Resume has no extractable text", zap.String("filename", resume.Filename))
			results = append(results, models.UnreadableResult(resume.Filename))
			continue
		}

		if !m.llm.Configured() {
			return nil, ErrMissingCredential
		}

		payload, err := m.llm.GenerateJSON(ctx, m.prompts.BuildResumeMatchPrompt(jdText, text), m.cfg.MatchTemperature, matchResponseSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to score %s: %w", resume.Filename, err)
		}

		result := DecodeMatchResult(resume.Filename, payload)
		if result.Malformed {
			m.logger.Warn("⚠️  Resume match response could not be decoded",
				zap.String("filename", resume.Filename),
				zap.Any("raw", payload))
		}
		results = append(results, result)
	}

	return results, nil
}

// DecodeMatchResult maps a model payload onto a MatchResult. Each field is
// decoded on its own: a bad strengths, gaps or summary value falls back to
// empty. Scores given as numbers or numeric strings are accepted and clamped
// to 0..100; a missing or unusable score yields a zero-score result flagged
// Malformed.
func DecodeMatchResult(name string, payload map[string]any) models.MatchResult {
	result := models.MatchResult{Name: name, Strengths: []string{}, Gaps: []string{}}

	var strengths, gaps []string
	if decodeField(payload, "strengths", &strengths) && strengths != nil {
		result.Strengths = strengths
	}
	if decodeField(payload, "gaps", &gaps) && gaps != nil {
		result.Gaps = gaps
	}
	var summary string
	if decodeField(payload, "summary", &summary) {
		result.Summary = summary
	}

	var score int
	if !decodeField(payload, "score", &score) {
		result.Raw = payload
		result.Malformed = true
		return result
	}

	result.Score = clampScore(score)
	return result
}

// decodeField weakly decodes payload[key] into out. out is left untouched
// when the key is missing or the value does not fit.
func decodeField[T any](payload map[string]any, key string, out *T) bool {
	value, ok := payload[key]
	if !ok || value == nil {
		return false
	}

	var decoded T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err != nil {
		return false
	}
	if err := decoder.Decode(value); err != nil {
		return false
	}

	*out = decoded
	return true
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
