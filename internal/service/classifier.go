package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/domain"
	"github.com/nixolabs/triage-service/internal/llm"
	"github.com/nixolabs/triage-service/internal/observability"
)

// casualAcknowledgements are whole-string throwaway replies. Matched
// case-insensitively after trimming trailing "!" and ".".
var casualAcknowledgements = map[string]struct{}{
	"thanks": {}, "thank you": {}, "ty": {}, "thx": {}, "tysm": {},
	"ok": {}, "okay": {}, "sounds good": {}, "perfect": {}, "great": {},
	"awesome": {}, "cool": {}, "hi": {}, "hello": {}, "hey": {},
	"morning": {}, "afternoon": {}, "evening": {}, "bye": {}, "goodbye": {},
	"see you": {}, "ttyl": {}, "cya": {}, "later": {}, "lol": {},
	"haha": {}, "hehe": {}, "np": {}, "no problem": {}, "you're welcome": {},
	"yw": {}, "anytime": {}, "got it": {}, "will do": {}, "on it": {},
	"roger": {}, "copy": {}, "ack": {}, "acknowledged": {}, "+1": {},
}

const shortMessageThreshold = 10

const classifyPromptTemplate = `Classify this chat message for support triage. Respond JSON only:
{"category": "support|bug|feature_request|question|irrelevant", "confidence": 0.0-1.0, "reasoning": "one short sentence"}

Message: %q`

// Classifier decides whether a message is actionable and assigns an intent
// category. It always produces a result: when the text-understanding service
// is unavailable or its response cannot be parsed, a deterministic fallback
// takes over.
type Classifier struct {
	completer llm.Completer
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewClassifier constructs the classifier. A nil completer disables the
// primary path entirely.
func NewClassifier(completer llm.Completer, logger *zap.Logger, metrics *observability.Metrics) *Classifier {
	return &Classifier{completer: completer, logger: logger, metrics: metrics}
}

// Classify maps raw message text to a Classification. Never returns an error.
func (c *Classifier) Classify(ctx context.Context, text string) domain.Classification {
	if strings.TrimSpace(text) == "" {
		return domain.Classification{
			IsRelevant: false,
			Category:   domain.CategoryIrrelevant,
			Confidence: 1.0,
			Reasoning:  "empty message",
		}
	}

	if c.completer != nil {
		if result, ok := c.classifyWithLLM(ctx, text); ok {
			c.metrics.RecordClassification(string(result.Category), false)
			return result
		}
	}

	result := c.classifyFallback(text)
	c.metrics.RecordClassification(string(result.Category), true)
	return result
}

func (c *Classifier) classifyWithLLM(ctx context.Context, text string) (domain.Classification, bool) {
	raw, err := c.completer.Complete(ctx, fmt.Sprintf(classifyPromptTemplate, text))
	if err != nil {
		c.logger.Warn("classification call failed", zap.Error(err))
		return domain.Classification{}, false
	}

	var parsed struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		c.logger.Warn("unparsable classification response", zap.Error(err))
		return domain.Classification{}, false
	}

	category := domain.Category(strings.ToLower(strings.TrimSpace(parsed.Category)))
	if !domain.ValidCategory(category) {
		c.logger.Warn("classification returned unknown category", zap.String("category", parsed.Category))
		return domain.Classification{}, false
	}

	return domain.Classification{
		IsRelevant: category != domain.CategoryIrrelevant,
		Category:   category,
		Confidence: clampConfidence(parsed.Confidence),
		Reasoning:  strings.TrimSpace(parsed.Reasoning),
	}, true
}

// classifyFallback is the deterministic degraded path. Short or casual
// messages are filtered out; everything else is kept as a question so that
// possibly actionable messages are never dropped.
func (c *Classifier) classifyFallback(text string) domain.Classification {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < shortMessageThreshold || isCasualAcknowledgement(trimmed) {
		return domain.Classification{
			IsRelevant: false,
			Category:   domain.CategoryIrrelevant,
			Confidence: 0.8,
			Reasoning:  "fallback: short or casual message",
		}
	}
	return domain.Classification{
		IsRelevant: true,
		Category:   domain.CategoryQuestion,
		Confidence: 0.5,
		Reasoning:  "fallback: classification service unavailable, kept as question",
	}
}

func isCasualAcknowledgement(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, "!.")
	normalized = strings.TrimSpace(normalized)
	_, ok := casualAcknowledgements[normalized]
	return ok
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// stripCodeFences removes markdown code fence wrappers the model sometimes
// adds around JSON responses.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
