package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nixolabs/triage-service/internal/domain"
	"github.com/nixolabs/triage-service/internal/events"
)

type mockTicketRepo struct {
	CreateFn          func(ctx context.Context, ticket *domain.Ticket) error
	GetByIDFn         func(ctx context.Context, id string) (*domain.Ticket, error)
	FindByGroupKeyFn  func(ctx context.Context, groupKey string, statuses []domain.TicketStatus) (*domain.Ticket, error)
	ListByStatusFn    func(ctx context.Context, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error)
	SearchBySummaryFn func(ctx context.Context, terms string, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error)
	UpdateStatusFn    func(ctx context.Context, id string, status domain.TicketStatus, isFixed bool) (*domain.Ticket, error)
	DeleteFn          func(ctx context.Context, id string) error
	ListWithStatsFn   func(ctx context.Context) ([]domain.TicketWithStats, error)
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, ticket)
	}
	ticket.ID = "ticket-1"
	return nil
}

func (m *mockTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTicketRepo) FindByGroupKey(ctx context.Context, groupKey string, statuses []domain.TicketStatus) (*domain.Ticket, error) {
	if m.FindByGroupKeyFn != nil {
		return m.FindByGroupKeyFn(ctx, groupKey, statuses)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTicketRepo) ListByStatus(ctx context.Context, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, statuses, limit)
	}
	return nil, nil
}

func (m *mockTicketRepo) SearchBySummary(ctx context.Context, terms string, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error) {
	if m.SearchBySummaryFn != nil {
		return m.SearchBySummaryFn(ctx, terms, statuses, limit)
	}
	return nil, nil
}

func (m *mockTicketRepo) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, isFixed bool) (*domain.Ticket, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status, isFixed)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTicketRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockTicketRepo) ListWithStats(ctx context.Context) ([]domain.TicketWithStats, error) {
	if m.ListWithStatsFn != nil {
		return m.ListWithStatsFn(ctx)
	}
	return nil, nil
}

type mockMessageRepo struct {
	CreateFn         func(ctx context.Context, msg *domain.Message) error
	ListByTicketFn   func(ctx context.Context, ticketID string) ([]domain.Message, error)
	DeleteByTicketFn func(ctx context.Context, ticketID string) (int64, error)
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, msg)
	}
	msg.ID = "message-1"
	return nil
}

func (m *mockMessageRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	if m.ListByTicketFn != nil {
		return m.ListByTicketFn(ctx, ticketID)
	}
	return nil, nil
}

func (m *mockMessageRepo) DeleteByTicket(ctx context.Context, ticketID string) (int64, error) {
	if m.DeleteByTicketFn != nil {
		return m.DeleteByTicketFn(ctx, ticketID)
	}
	return 0, nil
}

type mockCompleter struct {
	CompleteFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, prompt)
	}
	return "", errors.New("not configured")
}

type mockDispatcher struct {
	Published []events.Event
}

func (m *mockDispatcher) Publish(_ context.Context, event events.Event) error {
	m.Published = append(m.Published, event)
	return nil
}

func (m *mockDispatcher) Subscribe(events.EventType, events.EventHandler) {}
