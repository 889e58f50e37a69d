package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/domain"
)

func newTestExtractor(completer *mockCompleter) *TopicExtractor {
	if completer == nil {
		return NewTopicExtractor(nil, zap.NewNop())
	}
	return NewTopicExtractor(completer, zap.NewNop())
}

func TestExtractPrimaryPath(t *testing.T) {
	completer := &mockCompleter{
		CompleteFn: func(context.Context, string) (string, error) {
			return `{"group_key": "Export-Crash", "summary": "Export job crashes on large files"}`, nil
		},
	}
	e := newTestExtractor(completer)

	topic := e.Extract(context.Background(), "the export job keeps crashing", domain.CategoryBug)

	assert.Equal(t, "export-crash", topic.GroupKey)
	assert.Equal(t, "Export job crashes on large files", topic.Summary)
}

func TestExtractFallback(t *testing.T) {
	e := newTestExtractor(nil)

	topic := e.Extract(context.Background(), "Export crashes when the file is too large!", domain.CategoryBug)

	assert.Equal(t, "export-crashes", topic.GroupKey)
	assert.Equal(t, "Export crashes when the file is too large!", topic.Summary)
}

func TestExtractFallbackOnError(t *testing.T) {
	completer := &mockCompleter{
		CompleteFn: func(context.Context, string) (string, error) {
			return "", errors.New("service unavailable")
		},
	}
	e := newTestExtractor(completer)

	topic := e.Extract(context.Background(), "deployment pipeline stuck again", domain.CategorySupport)

	assert.Equal(t, "deployment-pipeline", topic.GroupKey)
	assert.NotEmpty(t, topic.Summary)
}

func TestExtractNeverBlank(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "only short words", text: "ok so it is up"},
		{name: "only punctuation", text: "??? !!!"},
		{name: "empty", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(nil)

			topic := e.Extract(context.Background(), tt.text, domain.CategoryQuestion)

			assert.NotEmpty(t, topic.GroupKey)
			assert.NotEmpty(t, topic.Summary)
		})
	}
}

func TestNormalizeGroupKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Export-Crash", "export-crash"},
		{"db-export-crash", "export-crash"},
		{"export-crash-large-files", "export-crash"},
		{"a-b-c", "uncategorized"},
		{"", "uncategorized"},
		{"  Login  ", "login"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeGroupKey(tt.in))
		})
	}
}

func TestValidateSummaryReplacesPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		summary string
	}{
		{name: "placeholder word", summary: "Summary"},
		{name: "too short", summary: "hm"},
		{name: "blank", summary: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validateSummary(tt.summary, "Cannot log in after the password reset.")

			assert.Equal(t, "Cannot log in after the password reset", got)
		})
	}
}

func TestDerivedTitleTruncates(t *testing.T) {
	long := strings.Repeat("a", 80)

	got := derivedTitle(long)

	assert.Equal(t, strings.Repeat("a", 60)+"...", got)
}
