package domain

import "time"

// Message is a stored chat message. Immutable once created; TicketID stays
// nil for irrelevant messages and for messages stored after a grouping
// failure. The (SlackChannelID, SlackTS) pair is unique per source event and
// backs webhook de-duplication.
type Message struct {
	ID             string
	TicketID       *string
	SlackTS        string
	SlackChannelID string
	SlackUserID    string
	SlackThreadTS  *string
	Text           string
	Category       Category
	IsRelevant     bool
	Confidence     float64
	Reasoning      string
	CreatedAt      time.Time
}
