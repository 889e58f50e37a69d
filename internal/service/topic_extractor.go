package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/domain"
	"github.com/nixolabs/triage-service/internal/llm"
)

// uncategorizedKey is the sentinel group key when no usable topic token
// survives normalization.
const uncategorizedKey = "uncategorized"

// placeholderSummaries are answers the model gives when it echoes the field
// name instead of summarizing. Any of these triggers a derived title.
var placeholderSummaries = map[string]struct{}{
	"brief":   {},
	"summary": {},
	"title":   {},
	"n/a":     {},
}

const extractPromptTemplate = `Extract the core topic of this message. Respond JSON only:
{"group_key": "short-kebab-case", "summary": "5-10 word title"}

Message: %q
Category: %s`

// TopicExtractor derives a normalized group key and a human-readable summary
// from a relevant message. Both are guaranteed non-empty across the primary
// and fallback paths.
type TopicExtractor struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewTopicExtractor constructs the extractor. A nil completer disables the
// primary path.
func NewTopicExtractor(completer llm.Completer, logger *zap.Logger) *TopicExtractor {
	return &TopicExtractor{completer: completer, logger: logger}
}

// Extract returns grouping metadata for the message. Never returns an error
// and never returns blank fields.
func (e *TopicExtractor) Extract(ctx context.Context, text string, category domain.Category) domain.Topic {
	if e.completer != nil {
		if topic, ok := e.extractWithLLM(ctx, text, category); ok {
			return topic
		}
	}
	return e.extractFallback(text)
}

func (e *TopicExtractor) extractWithLLM(ctx context.Context, text string, category domain.Category) (domain.Topic, bool) {
	raw, err := e.completer.Complete(ctx, fmt.Sprintf(extractPromptTemplate, text, category))
	if err != nil {
		e.logger.Warn("topic extraction call failed", zap.Error(err))
		return domain.Topic{}, false
	}

	var parsed struct {
		GroupKey string `json:"group_key"`
		Summary  string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		e.logger.Warn("unparsable topic response", zap.Error(err))
		return domain.Topic{}, false
	}

	return domain.Topic{
		GroupKey: normalizeGroupKey(parsed.GroupKey),
		Summary:  validateSummary(parsed.Summary, text),
	}, true
}

// extractFallback derives the topic deterministically: the first two
// significant words become the key, the leading text becomes the summary.
func (e *TopicExtractor) extractFallback(text string) domain.Topic {
	cleaned := strings.ToLower(stripPunctuation(text))
	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) > 3 {
			tokens = append(tokens, word)
		}
		if len(tokens) == 2 {
			break
		}
	}

	key := normalizeGroupKey(strings.Join(tokens, "-"))
	summary := strings.TrimSpace(truncate(text, 100))
	if summary == "" {
		summary = key
	}
	return domain.Topic{GroupKey: key, Summary: summary}
}

// normalizeGroupKey lowercases the key, drops tokens of two characters or
// fewer and keeps at most the first two remaining tokens.
func normalizeGroupKey(key string) string {
	var kept []string
	for _, token := range strings.Split(strings.ToLower(strings.TrimSpace(key)), "-") {
		token = strings.TrimSpace(token)
		if len(token) <= 2 {
			continue
		}
		kept = append(kept, token)
		if len(kept) == 2 {
			break
		}
	}
	if len(kept) == 0 {
		return uncategorizedKey
	}
	return strings.Join(kept, "-")
}

// validateSummary rejects blank, too-short and placeholder summaries,
// replacing them with a title derived from the message text.
func validateSummary(summary, text string) string {
	summary = strings.TrimSpace(summary)
	_, placeholder := placeholderSummaries[strings.ToLower(summary)]
	if len(summary) < 5 || placeholder {
		return derivedTitle(text)
	}
	return summary
}

// derivedTitle strips terminal punctuation and truncates to 60 characters.
func derivedTitle(text string) string {
	title := strings.TrimRight(strings.TrimSpace(text), ".!?")
	title = strings.TrimSpace(title)
	if title == "" {
		return uncategorizedKey
	}
	return truncate(title, 60)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func stripPunctuation(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '\t', r == '\n':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}
