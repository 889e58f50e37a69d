package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/domain"
	"github.com/nixolabs/triage-service/internal/observability"
)

func newTestClassifier(completer *mockCompleter) *Classifier {
	if completer == nil {
		return NewClassifier(nil, zap.NewNop(), observability.NewMetrics())
	}
	return NewClassifier(completer, zap.NewNop(), observability.NewMetrics())
}

func TestClassifyEmptyMessage(t *testing.T) {
	c := newTestClassifier(nil)

	result := c.Classify(context.Background(), "   ")

	assert.False(t, result.IsRelevant)
	assert.Equal(t, domain.CategoryIrrelevant, result.Category)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassifyFallback(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantRelevant bool
		wantCategory domain.Category
		wantConf     float64
	}{
		{
			name:         "casual acknowledgement",
			text:         "thanks!",
			wantRelevant: false,
			wantCategory: domain.CategoryIrrelevant,
			wantConf:     0.8,
		},
		{
			name:         "casual with trailing punctuation",
			text:         "Sounds good!!",
			wantRelevant: false,
			wantCategory: domain.CategoryIrrelevant,
			wantConf:     0.8,
		},
		{
			name:         "short message",
			text:         "yes pls",
			wantRelevant: false,
			wantCategory: domain.CategoryIrrelevant,
			wantConf:     0.8,
		},
		{
			name:         "substantive message kept as question",
			text:         "the export job keeps crashing on large files",
			wantRelevant: true,
			wantCategory: domain.CategoryQuestion,
			wantConf:     0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(nil)

			result := c.Classify(context.Background(), tt.text)

			assert.Equal(t, tt.wantRelevant, result.IsRelevant)
			assert.Equal(t, tt.wantCategory, result.Category)
			assert.Equal(t, tt.wantConf, result.Confidence)
		})
	}
}

func TestClassifyPrimaryPath(t *testing.T) {
	completer := &mockCompleter{
		CompleteFn: func(context.Context, string) (string, error) {
			return `{"category": "bug", "confidence": 0.92, "reasoning": "describes a crash"}`, nil
		},
	}
	c := newTestClassifier(completer)

	result := c.Classify(context.Background(), "the export job keeps crashing")

	assert.True(t, result.IsRelevant)
	assert.Equal(t, domain.CategoryBug, result.Category)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, "describes a crash", result.Reasoning)
}

func TestClassifyStripsCodeFences(t *testing.T) {
	completer := &mockCompleter{
		CompleteFn: func(context.Context, string) (string, error) {
			return "```json\n{\"category\": \"support\", \"confidence\": 0.7, \"reasoning\": \"asks for help\"}\n```", nil
		},
	}
	c := newTestClassifier(completer)

	result := c.Classify(context.Background(), "how do I reset the integration settings?")

	assert.Equal(t, domain.CategorySupport, result.Category)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestClassifyClampsConfidence(t *testing.T) {
	completer := &mockCompleter{
		CompleteFn: func(context.Context, string) (string, error) {
			return `{"category": "bug", "confidence": 1.7, "reasoning": "x"}`, nil
		},
	}
	c := newTestClassifier(completer)

	result := c.Classify(context.Background(), "crash report with details attached here")

	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassifyFallsBackOnError(t *testing.T) {
	completer := &mockCompleter{
		CompleteFn: func(context.Context, string) (string, error) {
			return "", errors.New("service unavailable")
		},
	}
	c := newTestClassifier(completer)

	result := c.Classify(context.Background(), "the export job keeps crashing on large files")

	assert.True(t, result.IsRelevant)
	assert.Equal(t, domain.CategoryQuestion, result.Category)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestClassifyFallsBackOnUnknownCategory(t *testing.T) {
	completer := &mockCompleter{
		CompleteFn: func(context.Context, string) (string, error) {
			return `{"category": "complaint", "confidence": 0.9, "reasoning": "x"}`, nil
		},
	}
	c := newTestClassifier(completer)

	result := c.Classify(context.Background(), "the export job keeps crashing on large files")

	assert.Equal(t, domain.CategoryQuestion, result.Category)
}

func TestClassifyFallsBackOnMalformedJSON(t *testing.T) {
	completer := &mockCompleter{
		CompleteFn: func(context.Context, string) (string, error) {
			return "I think this is a bug report.", nil
		},
	}
	c := newTestClassifier(completer)

	result := c.Classify(context.Background(), "the export job keeps crashing on large files")

	assert.Equal(t, domain.CategoryQuestion, result.Category)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestIrrelevantFromPrimaryPath(t *testing.T) {
	completer := &mockCompleter{
		CompleteFn: func(context.Context, string) (string, error) {
			return `{"category": "irrelevant", "confidence": 0.95, "reasoning": "lunch chatter"}`, nil
		},
	}
	c := newTestClassifier(completer)

	result := c.Classify(context.Background(), "anyone want to grab lunch at noon?")

	assert.False(t, result.IsRelevant)
	assert.Equal(t, domain.CategoryIrrelevant, result.Category)
}
