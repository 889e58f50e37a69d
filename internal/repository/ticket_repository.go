package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nixolabs/triage-service/internal/domain"
)

const ticketColumns = `id, title, category, group_key, similarity_summary,
               first_channel_id, first_user_id, status, is_fixed, created_at, updated_at`

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// FindByGroupKey returns the most recently created ticket with exactly
	// this group key among the given statuses. pgx.ErrNoRows when none.
	FindByGroupKey(ctx context.Context, groupKey string, statuses []domain.TicketStatus) (*domain.Ticket, error)
	// ListByStatus returns up to limit tickets in the given statuses,
	// most recently created first.
	ListByStatus(ctx context.Context, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error)
	// SearchBySummary runs a full-text search over similarity_summary.
	SearchBySummary(ctx context.Context, terms string, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, isFixed bool) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	// ListWithStats reads the tickets_with_counts view, newest activity first.
	ListWithStats(ctx context.Context) ([]domain.TicketWithStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, category, group_key, similarity_summary, first_channel_id, first_user_id, status, is_fixed)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Category,
		ticket.GroupKey,
		ticket.SimilaritySummary,
		ticket.FirstChannelID,
		ticket.FirstUserID,
		ticket.Status,
		ticket.IsFixed,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) FindByGroupKey(ctx context.Context, groupKey string, statuses []domain.TicketStatus) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE group_key=$1 AND status = ANY($2)
        ORDER BY created_at DESC
        LIMIT 1`, ticketColumns)
	return r.fetchSingle(ctx, query, groupKey, statusStrings(statuses))
}

func (r *ticketRepository) ListByStatus(ctx context.Context, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status = ANY($1)
        ORDER BY created_at DESC
        LIMIT $2`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, statusStrings(statuses), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) SearchBySummary(ctx context.Context, terms string, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error) {
	if strings.TrimSpace(terms) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status = ANY($1)
          AND to_tsvector('english', coalesce(similarity_summary, '')) @@ plainto_tsquery('english', $2)
        ORDER BY created_at DESC
        LIMIT $3`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, statusStrings(statuses), terms, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, isFixed bool) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE tickets SET status=$1, is_fixed=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING %s`, ticketColumns)
	return r.fetchSingle(ctx, query, status, isFixed, id)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWithStats(ctx context.Context) ([]domain.TicketWithStats, error) {
	const query = `
        SELECT id, title, category, group_key, similarity_summary,
               first_channel_id, first_user_id, status, is_fixed, created_at, updated_at,
               message_count, last_message_at
        FROM tickets_with_counts
        ORDER BY last_message_at DESC NULLS LAST`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketWithStats
	for rows.Next() {
		var t domain.TicketWithStats
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Category,
			&t.GroupKey,
			&t.SimilaritySummary,
			&t.FirstChannelID,
			&t.FirstUserID,
			&t.Status,
			&t.IsFixed,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.MessageCount,
			&t.LastMessageAt,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Category,
		&ticket.GroupKey,
		&ticket.SimilaritySummary,
		&ticket.FirstChannelID,
		&ticket.FirstUserID,
		&ticket.Status,
		&ticket.IsFixed,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Category,
			&ticket.GroupKey,
			&ticket.SimilaritySummary,
			&ticket.FirstChannelID,
			&ticket.FirstUserID,
			&ticket.Status,
			&ticket.IsFixed,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func statusStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
