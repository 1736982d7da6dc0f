package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/agentic-curie/internal/config"
	"alfredoptarigan/agentic-curie/internal/logger"
)

const providerGemini = "gemini"

// RawResponseKey holds the unparsed model text when a JSON-mode response
// could not be decoded.
const RawResponseKey = "raw"

type GeminiService interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateJSON(ctx context.Context, prompt string, temperature float32, schema *genai.Schema) (map[string]any, error)
	GenerateTurn(ctx context.Context, system string, history []*genai.Content, tools []*genai.Tool) (*genai.Content, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	Configured() bool
	Model() string
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	logLimit   int
	logger     *zap.Logger
}

// NewGeminiService builds the client. An empty API key is not an error: the
// service is returned unconfigured and every call fails with
// ErrMissingCredential.
func NewGeminiService(ctx context.Context, cfg config.GeminiConfig, logLimit int, log *zap.Logger) (GeminiService, error) {
	g := &geminiService{
		modelName:  cfg.Model,
		embedModel: cfg.EmbedModel,
		logLimit:   logLimit,
		logger:     logger.WithCommonFields(log, providerGemini, cfg.Model),
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		g.logger.Warn("⚠️  GEMINI_API_KEY is not set, LLM calls will be rejected")
		return g, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g.client = client

	return g, nil
}

func (g *geminiService) Configured() bool {
	return g.client != nil
}

func (g *geminiService) Model() string {
	return g.modelName
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !g.Configured() {
		return nil, ErrMissingCredential
	}

	// Truncate text if too long (max ~10000 tokens for embedding)
	if runes := []rune(text); len(runes) > 40000 {
		text = string(runes[:40000])
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := g.generate(ctx, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		g.logger.Warn("⚠️  No text content in response", zap.String("finish_reason", finishReason(resp)))
	}

	return text, nil
}

// GenerateJSON implements GeminiService. A response that is not a JSON object
// is returned as {"raw": text} instead of an error.
func (g *geminiService) GenerateJSON(ctx context.Context, prompt string, temperature float32, schema *genai.Schema) (map[string]any, error) {
	resp, err := g.generate(ctx, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return nil, err
	}

	return DecodeJSONObject(resp.Text()), nil
}

// GenerateTurn implements GeminiService.
func (g *geminiService) GenerateTurn(ctx context.Context, system string, history []*genai.Content, tools []*genai.Tool) (*genai.Content, error) {
	cfg := &genai.GenerateContentConfig{Tools: tools}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(system)}}
	}

	resp, err := g.generate(ctx, history, cfg)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in response")
	}

	content := resp.Candidates[0].Content
	if content.Role == "" {
		content.Role = genai.RoleModel
	}
	return content, nil
}

func (g *geminiService) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if !g.Configured() {
		return nil, ErrMissingCredential
	}

	if ce := g.logger.Check(zap.DebugLevel, "📤 Gemini request"); ce != nil {
		ce.Write(zap.String("preview", logger.TruncateForLog(previewContents(contents), g.logLimit)))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		g.logger.Error("❌ Gemini API error", zap.Error(err))
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
			return nil, fmt.Errorf("%w: %s", ErrMissingCredential, apiErr.Message)
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if resp == nil {
		g.logger.Error("❌ Gemini API returned nil response")
		return nil, fmt.Errorf("no response generated (nil response)")
	}

	g.logger.Debug("📊 Gemini response received",
		zap.String("preview", logger.TruncateForLog(resp.Text(), g.logLimit)))

	return resp, nil
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	return string(resp.Candidates[0].FinishReason)
}

// DecodeJSONObject parses a JSON-mode completion. Code fences are tolerated;
// anything that is not an object comes back under RawResponseKey.
func DecodeJSONObject(text string) map[string]any {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil || out == nil {
		return map[string]any{RawResponseKey: text}
	}
	return out
}

func previewContents(contents []*genai.Content) string {
	var parts []string
	for _, c := range contents {
		if c == nil {
			continue
		}
		for _, p := range c.Parts {
			switch {
			case p == nil:
			case p.Text != "":
				parts = append(parts, p.Text)
			case p.FunctionCall != nil:
				parts = append(parts, "call:"+p.FunctionCall.Name)
			case p.FunctionResponse != nil:
				parts = append(parts, "response:"+p.FunctionResponse.Name)
			}
		}
	}
	return strings.Join(parts, "\n")
}
