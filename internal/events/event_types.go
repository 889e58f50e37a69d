package events

import (
	"time"

	"github.com/nixolabs/triage-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketDeleted      EventType = "ticket_deleted"
	EventTicketMessageAdded EventType = "ticket_message_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title     string              `json:"title"`
	Category  domain.Category     `json:"category"`
	GroupKey  string              `json:"group_key"`
	Status    domain.TicketStatus `json:"status"`
	ChannelID string              `json:"channel_id"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Status  domain.TicketStatus `json:"status"`
	IsFixed bool                `json:"is_fixed"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	MessagesDeleted int64 `json:"messages_deleted"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   string          `json:"message_id"`
	Category    domain.Category `json:"category"`
	ChannelID   string          `json:"channel_id"`
	UserID      string          `json:"user_id"`
	TextPreview string          `json:"text_preview"`
}
