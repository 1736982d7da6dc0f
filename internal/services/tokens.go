package services

import (
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"

	"alfredoptarigan/agentic-curie/internal/logger"
)

// TokenCounter estimates how many tokens a prompt or completion costs.
// Counts are always at least 1.
type TokenCounter interface {
	Count(text string) int
}

type heuristicCounter struct{}

// NewHeuristicCounter counts one token per four characters.
func NewHeuristicCounter() TokenCounter {
	return heuristicCounter{}
}

func (heuristicCounter) Count(text string) int {
	n := utf8.RuneCountInString(text) / 4
	if n < 1 {
		return 1
	}
	return n
}

type localCounter struct {
	model    string
	logger   *zap.Logger
	once     sync.Once
	tok      *tokenizer.LocalTokenizer
	fallback TokenCounter
}

// NewTokenCounter looks up the local tokenizer for model on first use and
// falls back to the heuristic when the model has no known tokenizer.
func NewTokenCounter(model string, log *zap.Logger) TokenCounter {
	return &localCounter{
		model:    model,
		logger:   logger.OrNop(log),
		fallback: NewHeuristicCounter(),
	}
}

func (c *localCounter) Count(text string) int {
	c.once.Do(func() {
		tok, err := tokenizer.NewLocalTokenizer(c.model)
		if err != nil {
			c.logger.Warn("⚠️  No local tokenizer for model, using heuristic token counts",
				zap.String(logger.FieldModel, c.model), zap.Error(err))
			return
		}
		c.tok = tok
	})

	if c.tok == nil {
		return c.fallback.Count(text)
	}

	res, err := c.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil || res == nil || res.TotalTokens < 1 {
		return c.fallback.Count(text)
	}
	return int(res.TotalTokens)
}
