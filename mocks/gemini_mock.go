package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"google.golang.org/genai"
)

type MockGeminiService struct {
	mock.Mock
}

func (m *MockGeminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	args := m.Called(ctx, prompt, temperature)
	return args.String(0), args.Error(1)
}

func (m *MockGeminiService) GenerateJSON(ctx context.Context, prompt string, temperature float32, schema *genai.Schema) (map[string]any, error) {
	args := m.Called(ctx, prompt, temperature, schema)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockGeminiService) GenerateTurn(ctx context.Context, system string, history []*genai.Content, tools []*genai.Tool) (*genai.Content, error) {
	args := m.Called(ctx, system, history, tools)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*genai.Content), args.Error(1)
}

func (m *MockGeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockGeminiService) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockGeminiService) Model() string {
	args := m.Called()
	return args.String(0)
}
