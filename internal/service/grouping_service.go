package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/domain"
	"github.com/nixolabs/triage-service/internal/events"
	"github.com/nixolabs/triage-service/internal/observability"
	"github.com/nixolabs/triage-service/internal/repository"
)

// Outcome describes how a message was handled by the grouping pipeline.
type Outcome string

const (
	OutcomeStoredIrrelevant      Outcome = "stored_irrelevant"
	OutcomeGrouped               Outcome = "grouped"
	OutcomeNewTicket             Outcome = "new_ticket"
	OutcomeStoredWithoutGrouping Outcome = "stored_without_grouping"
)

// InboundMessage is a chat message entering the pipeline.
type InboundMessage struct {
	Text      string
	ChannelID string
	UserID    string
	TS        string
	ThreadTS  *string
}

// ProcessResult reports the structured outcome of one message.
type ProcessResult struct {
	Ticket  *domain.Ticket
	Message *domain.Message
	Outcome Outcome
	// Duplicate is set when the (channel, ts) pair was already stored; the
	// call is a successful no-op and Message is nil.
	Duplicate bool
	// GroupingErr carries the recovered error when the outcome is
	// stored_without_grouping.
	GroupingErr error
}

// GroupingService is the pipeline entry point: it sequences topic extraction,
// similarity matching and the create-or-attach decision, and guarantees the
// message is persisted even when grouping fails.
//
// Two near-simultaneous messages on the same new topic may both miss the
// other's uncommitted ticket and each create one. That race is accepted; no
// lock or transaction guards the find-or-create sequence.
type GroupingService struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	extractor  *TopicExtractor
	matcher    *SimilarityMatcher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// GroupingDependencies bundles collaborators for the grouping service.
type GroupingDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.MessageRepository
	Extractor   *TopicExtractor
	Matcher     *SimilarityMatcher
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NewGroupingService constructs the service.
func NewGroupingService(deps GroupingDependencies) *GroupingService {
	return &GroupingService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		extractor:  deps.Extractor,
		matcher:    deps.Matcher,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// Process stores one classified message, attaching it to a matching ticket or
// creating a new one. Only final persistence failure returns an error; every
// grouping failure degrades to storing the message without a ticket.
func (s *GroupingService) Process(ctx context.Context, msg InboundMessage, classification domain.Classification) (ProcessResult, error) {
	if !classification.IsRelevant {
		result, err := s.store(ctx, msg, classification, nil)
		if err != nil {
			return ProcessResult{}, err
		}
		result.Outcome = OutcomeStoredIrrelevant
		s.metrics.RecordOutcome(string(result.Outcome))
		return result, nil
	}

	topic := s.extractor.Extract(ctx, msg.Text, classification.Category)

	if ticket := s.matcher.FindMatch(ctx, topic.GroupKey, classification.Category, topic.Summary); ticket != nil {
		result, err := s.store(ctx, msg, classification, &ticket.ID)
		if err != nil {
			return s.storeWithoutGrouping(ctx, msg, classification, err)
		}
		result.Ticket = ticket
		result.Outcome = OutcomeGrouped
		s.metrics.RecordOutcome(string(result.Outcome))
		if result.Message != nil {
			s.publishMessageAdded(ctx, ticket.ID, result.Message)
		}
		return result, nil
	}

	ticket, err := s.createTicket(ctx, msg, classification, topic)
	if err != nil {
		return s.storeWithoutGrouping(ctx, msg, classification, err)
	}

	result, err := s.store(ctx, msg, classification, &ticket.ID)
	if err != nil {
		return s.storeWithoutGrouping(ctx, msg, classification, err)
	}
	result.Ticket = ticket
	result.Outcome = OutcomeNewTicket
	s.metrics.RecordOutcome(string(result.Outcome))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:     ticket.Title,
			Category:  ticket.Category,
			GroupKey:  ticket.GroupKey,
			Status:    ticket.Status,
			ChannelID: ticket.FirstChannelID,
		},
	})
	if result.Message != nil {
		s.publishMessageAdded(ctx, ticket.ID, result.Message)
	}
	return result, nil
}

func (s *GroupingService) createTicket(ctx context.Context, msg InboundMessage, classification domain.Classification, topic domain.Topic) (*domain.Ticket, error) {
	title := topic.Summary
	if strings.TrimSpace(title) == "" {
		title = truncate(msg.Text, 100)
	}
	ticket := &domain.Ticket{
		Title:             title,
		Category:          classification.Category,
		GroupKey:          topic.GroupKey,
		SimilaritySummary: topic.Summary,
		FirstChannelID:    msg.ChannelID,
		FirstUserID:       msg.UserID,
		Status:            domain.TicketStatusOpen,
		IsFixed:           false,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("created ticket",
		zap.String("ticket_id", ticket.ID),
		zap.String("group_key", ticket.GroupKey),
		zap.String("category", string(ticket.Category)))
	return ticket, nil
}

// store persists the message. A duplicate (channel, ts) insert is reported as
// a successful no-op, which de-duplicates Slack's at-least-once delivery.
func (s *GroupingService) store(ctx context.Context, msg InboundMessage, classification domain.Classification, ticketID *string) (ProcessResult, error) {
	record := &domain.Message{
		TicketID:       ticketID,
		SlackTS:        msg.TS,
		SlackChannelID: msg.ChannelID,
		SlackUserID:    msg.UserID,
		SlackThreadTS:  msg.ThreadTS,
		Text:           msg.Text,
		Category:       classification.Category,
		IsRelevant:     classification.IsRelevant,
		Confidence:     classification.Confidence,
		Reasoning:      classification.Reasoning,
	}
	if err := s.messages.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateMessage) {
			s.logger.Info("duplicate message ignored",
				zap.String("channel", msg.ChannelID),
				zap.String("ts", msg.TS))
			return ProcessResult{Duplicate: true}, nil
		}
		return ProcessResult{}, err
	}
	return ProcessResult{Message: record}, nil
}

// storeWithoutGrouping is the recovery path: the message must outlive any
// grouping failure. Only when this second persistence attempt also fails does
// the error propagate.
func (s *GroupingService) storeWithoutGrouping(ctx context.Context, msg InboundMessage, classification domain.Classification, cause error) (ProcessResult, error) {
	s.logger.Error("grouping failed, storing message without ticket", zap.Error(cause))
	result, err := s.store(ctx, msg, classification, nil)
	if err != nil {
		return ProcessResult{}, err
	}
	result.Outcome = OutcomeStoredWithoutGrouping
	result.GroupingErr = cause
	s.metrics.RecordOutcome(string(result.Outcome))
	return result, nil
}

func (s *GroupingService) publishMessageAdded(ctx context.Context, ticketID string, msg *domain.Message) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticketID,
		Payload: events.TicketMessageAddedPayload{
			MessageID:   msg.ID,
			Category:    msg.Category,
			ChannelID:   msg.SlackChannelID,
			UserID:      msg.SlackUserID,
			TextPreview: stringPreview(msg.Text, 120),
		},
	})
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
