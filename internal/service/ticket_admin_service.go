package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/domain"
	"github.com/nixolabs/triage-service/internal/events"
	"github.com/nixolabs/triage-service/internal/repository"
	apperrors "github.com/nixolabs/triage-service/pkg/util"
)

// TicketAdminService serves the dashboard: listing tickets with activity
// stats, reading ticket threads, status changes and deletion.
type TicketAdminService struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTicketAdminService constructs the service.
func NewTicketAdminService(tickets repository.TicketRepository, messages repository.MessageRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TicketAdminService {
	return &TicketAdminService{
		tickets:    tickets,
		messages:   messages,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ListTickets returns all tickets with message counts, newest activity first.
func (s *TicketAdminService) ListTickets(ctx context.Context) ([]domain.TicketWithStats, error) {
	return s.tickets.ListWithStats(ctx)
}

// ListMessages returns a ticket's messages, oldest first.
func (s *TicketAdminService) ListMessages(ctx context.Context, ticketID string) ([]domain.Message, error) {
	return s.messages.ListByTicket(ctx, ticketID)
}

// UpdateTicket changes ticket status and/or completion flag; nil fields keep
// their current value. Category, title and group key are immutable and cannot
// be updated through any path.
func (s *TicketAdminService) UpdateTicket(ctx context.Context, ticketID string, status *domain.TicketStatus, isFixed *bool) (*domain.Ticket, error) {
	if status == nil && isFixed == nil {
		return nil, apperrors.NewValidationError("must provide status or is_fixed", nil)
	}
	if status != nil && !domain.ValidTicketStatus(*status) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *status})
	}

	current, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	newStatus := current.Status
	if status != nil {
		newStatus = *status
	}
	newFixed := current.IsFixed
	if isFixed != nil {
		newFixed = *isFixed
	}

	ticket, err := s.tickets.UpdateStatus(ctx, ticketID, newStatus, newFixed)
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Payload: events.TicketUpdatedPayload{
			Status:  ticket.Status,
			IsFixed: ticket.IsFixed,
		},
	})
	return ticket, nil
}

// DeleteTicket removes a ticket and all its messages. The delete is an
// explicit two-step: messages first, then the ticket, so a ticket row never
// disappears while leaving orphaned messages behind.
func (s *TicketAdminService) DeleteTicket(ctx context.Context, ticketID string) error {
	deleted, err := s.messages.DeleteByTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return err
	}
	s.logger.Info("deleted ticket",
		zap.String("ticket_id", ticketID),
		zap.Int64("messages_deleted", deleted))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Payload:  events.TicketDeletedPayload{MessagesDeleted: deleted},
	})
	return nil
}
