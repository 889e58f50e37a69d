package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// ValidTicketStatus reports whether s is a known status value.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ActiveStatuses are the states considered when matching incoming messages
// against existing tickets.
var ActiveStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress}

// Ticket is the aggregate for a recurring issue thread. Category and GroupKey
// are fixed at creation; messages grouped into the ticket later never change
// them, even when their own category differs.
type Ticket struct {
	ID                string
	Title             string
	Category          Category
	GroupKey          string
	SimilaritySummary string
	FirstChannelID    string
	FirstUserID       string
	Status            TicketStatus
	IsFixed           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TicketWithStats is the dashboard read view: a ticket plus live message
// aggregates from the tickets_with_counts view.
type TicketWithStats struct {
	Ticket
	MessageCount  int
	LastMessageAt *time.Time
}
