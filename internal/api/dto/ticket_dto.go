package dto

import (
	"time"

	"github.com/nixolabs/triage-service/internal/domain"
)

// TicketResponse is the dashboard view of a ticket.
type TicketResponse struct {
	ID                string              `json:"id"`
	Title             string              `json:"title"`
	Category          domain.Category     `json:"category"`
	GroupKey          string              `json:"group_key"`
	SimilaritySummary string              `json:"similarity_summary"`
	FirstChannelID    string              `json:"first_channel_id"`
	FirstUserID       string              `json:"first_user_id"`
	Status            domain.TicketStatus `json:"status"`
	IsFixed           bool                `json:"is_fixed"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	MessageCount      *int                `json:"message_count,omitempty"`
	LastMessageAt     *time.Time          `json:"last_message_at,omitempty"`
}

// MessageResponse is one stored message of a ticket thread.
type MessageResponse struct {
	ID             string          `json:"id"`
	TicketID       *string         `json:"ticket_id"`
	SlackTS        string          `json:"slack_ts"`
	SlackChannelID string          `json:"slack_channel_id"`
	SlackUserID    string          `json:"slack_user_id"`
	SlackThreadTS  *string         `json:"slack_thread_ts"`
	Text           string          `json:"text"`
	Category       domain.Category `json:"category"`
	IsRelevant     bool            `json:"is_relevant"`
	Confidence     float64         `json:"confidence"`
	Reasoning      string          `json:"reasoning"`
	CreatedAt      time.Time       `json:"created_at"`
}

// UpdateTicketRequest payload for PATCH; absent fields keep current values.
type UpdateTicketRequest struct {
	Status  *domain.TicketStatus `json:"status"`
	IsFixed *bool                `json:"is_fixed"`
}
