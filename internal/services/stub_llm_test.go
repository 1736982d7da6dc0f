package services

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// stubLLM answers prompts from canned functions and records every call.
type stubLLM struct {
	mu         sync.Mutex
	configured bool
	text       func(prompt string) (string, error)
	json       func(prompt string) (map[string]any, error)
	turns      []func(history []*genai.Content) (*genai.Content, error)
	prompts    []string
	histories  [][]*genai.Content
}

func newStubLLM() *stubLLM {
	return &stubLLM{
		configured: true,
		text: func(prompt string) (string, error) {
			return "summary", nil
		},
		json: func(prompt string) (map[string]any, error) {
			return map[string]any{"score": float64(50), "strengths": []any{"go"}, "gaps": []any{}, "summary": "ok"}, nil
		},
	}
}

func (s *stubLLM) GenerateText(_ context.Context, prompt string, _ float32) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if !s.configured {
		return "", ErrMissingCredential
	}
	return s.text(prompt)
}

func (s *stubLLM) GenerateJSON(_ context.Context, prompt string, _ float32, _ *genai.Schema) (map[string]any, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if !s.configured {
		return nil, ErrMissingCredential
	}
	return s.json(prompt)
}

func (s *stubLLM) GenerateTurn(_ context.Context, _ string, history []*genai.Content, _ []*genai.Tool) (*genai.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configured {
		return nil, ErrMissingCredential
	}
	s.histories = append(s.histories, append([]*genai.Content(nil), history...))
	if len(s.turns) == 0 {
		return genai.NewContentFromText("done", genai.RoleModel), nil
	}
	next := s.turns[0]
	s.turns = s.turns[1:]
	return next(history)
}

func (s *stubLLM) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if !s.configured {
		return nil, ErrMissingCredential
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (s *stubLLM) Configured() bool { return s.configured }

func (s *stubLLM) Model() string { return "stub-model" }

func (s *stubLLM) promptsContaining(sub string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.prompts {
		if strings.Contains(p, sub) {
			n++
		}
	}
	return n
}
