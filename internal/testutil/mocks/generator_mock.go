package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chinesetutor/internal/models"
)

// MockGenerator is a mock implementation of generation.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) ([]models.FlashcardRecord, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FlashcardRecord), args.Error(1)
}

// MockSynthesizer is a mock implementation of speech.Synthesizer
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}
