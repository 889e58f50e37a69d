package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/domain"
	"github.com/nixolabs/triage-service/internal/events"
)

func TestUpdateTicketRequiresAField(t *testing.T) {
	s := NewTicketAdminService(&mockTicketRepo{}, &mockMessageRepo{}, &mockDispatcher{}, zap.NewNop())

	_, err := s.UpdateTicket(context.Background(), "t-1", nil, nil)

	require.Error(t, err)
}

func TestUpdateTicketRejectsUnknownStatus(t *testing.T) {
	s := NewTicketAdminService(&mockTicketRepo{}, &mockMessageRepo{}, &mockDispatcher{}, zap.NewNop())
	bad := domain.TicketStatus("archived")

	_, err := s.UpdateTicket(context.Background(), "t-1", &bad, nil)

	require.Error(t, err)
}

func TestUpdateTicketMergesPartialFields(t *testing.T) {
	current := &domain.Ticket{ID: "t-1", Status: domain.TicketStatusInProgress, IsFixed: false}
	var gotStatus domain.TicketStatus
	var gotFixed bool
	tickets := &mockTicketRepo{
		GetByIDFn: func(context.Context, string) (*domain.Ticket, error) {
			return current, nil
		},
		UpdateStatusFn: func(_ context.Context, id string, status domain.TicketStatus, isFixed bool) (*domain.Ticket, error) {
			gotStatus = status
			gotFixed = isFixed
			updated := *current
			updated.Status = status
			updated.IsFixed = isFixed
			return &updated, nil
		},
	}
	dispatcher := &mockDispatcher{}
	s := NewTicketAdminService(tickets, &mockMessageRepo{}, dispatcher, zap.NewNop())

	fixed := true
	ticket, err := s.UpdateTicket(context.Background(), "t-1", nil, &fixed)

	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, gotStatus, "omitted status keeps the current value")
	assert.True(t, gotFixed)
	assert.True(t, ticket.IsFixed)

	require.Len(t, dispatcher.Published, 1)
	assert.Equal(t, events.EventTicketUpdated, dispatcher.Published[0].Type)
}

func TestDeleteTicketRemovesMessagesFirst(t *testing.T) {
	var order []string
	messages := &mockMessageRepo{
		DeleteByTicketFn: func(context.Context, string) (int64, error) {
			order = append(order, "messages")
			return 3, nil
		},
	}
	tickets := &mockTicketRepo{
		DeleteFn: func(context.Context, string) error {
			order = append(order, "ticket")
			return nil
		},
	}
	dispatcher := &mockDispatcher{}
	s := NewTicketAdminService(tickets, messages, dispatcher, zap.NewNop())

	err := s.DeleteTicket(context.Background(), "t-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"messages", "ticket"}, order)

	require.Len(t, dispatcher.Published, 1)
	assert.Equal(t, events.EventTicketDeleted, dispatcher.Published[0].Type)
	payload, ok := dispatcher.Published[0].Payload.(events.TicketDeletedPayload)
	require.True(t, ok)
	assert.Equal(t, int64(3), payload.MessagesDeleted)
}

func TestDeleteTicketStopsOnMessageFailure(t *testing.T) {
	ticketDeleted := false
	messages := &mockMessageRepo{
		DeleteByTicketFn: func(context.Context, string) (int64, error) {
			return 0, errors.New("delete failed")
		},
	}
	tickets := &mockTicketRepo{
		DeleteFn: func(context.Context, string) error {
			ticketDeleted = true
			return nil
		},
	}
	s := NewTicketAdminService(tickets, messages, &mockDispatcher{}, zap.NewNop())

	err := s.DeleteTicket(context.Background(), "t-1")

	require.Error(t, err)
	assert.False(t, ticketDeleted)
}
