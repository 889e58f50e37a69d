package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/domain"
	"github.com/nixolabs/triage-service/internal/observability"
	"github.com/nixolabs/triage-service/internal/repository"
)

const (
	fuzzyThreshold      = 0.25
	fuzzyCandidateLimit = 50
	sharedTokenBonus    = 0.33
	semanticBonus       = 0.5
	summarySearchMinLen = 20
	summarySearchWords  = 5
	summarySearchLimit  = 3
)

// semanticClusters group synonyms that should match each other even when the
// literal tokens differ. Two keys whose token sets each touch the same
// cluster score at least the cluster bonus.
var semanticClusters = [][]string{
	{"password", "credential", "credentials", "login", "token", "secret", "key"},
	{"database", "postgres", "sql", "query", "migration"},
	{"auth", "authentication", "oauth", "sso", "signin", "session"},
	{"deploy", "deployment", "release", "rollout", "ship"},
	{"error", "crash", "failure", "exception", "bug", "broken"},
	{"setup", "install", "installation", "configure", "configuration", "onboarding"},
	{"model", "llm", "gpt", "prompt", "agent"},
}

// SimilarityMatcher searches open and in-progress tickets for one that covers
// the same topic as an incoming message. Matching deliberately ignores the
// message category: a bug report about the same topic as a support ticket
// joins that ticket, and the ticket keeps its original category.
type SimilarityMatcher struct {
	tickets repository.TicketRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewSimilarityMatcher constructs the matcher.
func NewSimilarityMatcher(tickets repository.TicketRepository, logger *zap.Logger, metrics *observability.Metrics) *SimilarityMatcher {
	return &SimilarityMatcher{tickets: tickets, logger: logger, metrics: metrics}
}

// FindMatch returns the best existing ticket for the topic, or nil when a new
// ticket should be created. Matching is best-effort: any datastore failure is
// logged and treated as no match.
func (m *SimilarityMatcher) FindMatch(ctx context.Context, groupKey string, category domain.Category, summary string) *domain.Ticket {
	if ticket := m.exactMatch(ctx, groupKey); ticket != nil {
		m.metrics.RecordMatchTier("exact")
		return ticket
	}
	if ticket := m.fuzzyMatch(ctx, groupKey); ticket != nil {
		m.metrics.RecordMatchTier("fuzzy")
		return ticket
	}
	if ticket := m.summaryMatch(ctx, summary); ticket != nil {
		m.metrics.RecordMatchTier("summary")
		return ticket
	}
	return nil
}

func (m *SimilarityMatcher) exactMatch(ctx context.Context, groupKey string) *domain.Ticket {
	ticket, err := m.tickets.FindByGroupKey(ctx, groupKey, domain.ActiveStatuses)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			m.logger.Warn("exact match lookup failed", zap.Error(err))
		}
		return nil
	}
	return ticket
}

func (m *SimilarityMatcher) fuzzyMatch(ctx context.Context, groupKey string) *domain.Ticket {
	candidates, err := m.tickets.ListByStatus(ctx, domain.ActiveStatuses, fuzzyCandidateLimit)
	if err != nil {
		m.logger.Warn("fuzzy candidate fetch failed", zap.Error(err))
		return nil
	}

	var best *domain.Ticket
	bestScore := 0.0
	for i := range candidates {
		score := SimilarityScore(groupKey, candidates[i].GroupKey)
		// strict > keeps the first-encountered candidate on ties
		if score >= fuzzyThreshold && score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}
	if best != nil {
		m.logger.Debug("fuzzy match",
			zap.String("group_key", groupKey),
			zap.String("matched_key", best.GroupKey),
			zap.Float64("score", bestScore))
	}
	return best
}

func (m *SimilarityMatcher) summaryMatch(ctx context.Context, summary string) *domain.Ticket {
	if len(summary) <= summarySearchMinLen {
		return nil
	}
	words := strings.Fields(summary)
	if len(words) > summarySearchWords {
		words = words[:summarySearchWords]
	}
	matches, err := m.tickets.SearchBySummary(ctx, strings.Join(words, " "), domain.ActiveStatuses, summarySearchLimit)
	if err != nil {
		m.logger.Warn("summary search failed", zap.Error(err))
		return nil
	}
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// SimilarityScore scores two group keys in [0,1]. The score is the maximum of
// token-set Jaccard similarity, a flat bonus for sharing any token, and a
// flat bonus for touching the same semantic cluster. Symmetric in its
// arguments; 0 when either key has no significant tokens.
func SimilarityScore(a, b string) float64 {
	tokensA := significantTokens(a)
	tokensB := significantTokens(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection

	score := float64(intersection) / float64(union)
	if intersection > 0 && sharedTokenBonus > score {
		score = sharedTokenBonus
	}
	if sharesSemanticCluster(tokensA, tokensB) && semanticBonus > score {
		score = semanticBonus
	}
	return score
}

func significantTokens(key string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Split(key, "-") {
		if len(token) > 2 {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}

func sharesSemanticCluster(a, b map[string]struct{}) bool {
	for _, cluster := range semanticClusters {
		inA, inB := false, false
		for _, term := range cluster {
			if _, ok := a[term]; ok {
				inA = true
			}
			if _, ok := b[term]; ok {
				inB = true
			}
		}
		if inA && inB {
			return true
		}
	}
	return false
}
