package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nixolabs/triage-service/internal/domain"
)

// ErrDuplicateMessage signals the (channel, ts) pair was already stored.
// Callers treat it as a successful no-op: Slack delivers at least once.
var ErrDuplicateMessage = errors.New("message already stored")

const uniqueViolationCode = "23505"

// MessageRepository manages stored chat messages.
type MessageRepository interface {
	// Create inserts a message. Returns ErrDuplicateMessage when the same
	// (slack_channel_id, slack_ts) pair exists.
	Create(ctx context.Context, msg *domain.Message) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error)
	// DeleteByTicket removes all messages of a ticket and reports how many.
	DeleteByTicket(ctx context.Context, ticketID string) (int64, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (ticket_id, slack_ts, slack_channel_id, slack_user_id, slack_thread_ts, text, category, is_relevant, confidence, reasoning)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.SlackTS,
		msg.SlackChannelID,
		msg.SlackUserID,
		msg.SlackThreadTS,
		msg.Text,
		msg.Category,
		msg.IsRelevant,
		msg.Confidence,
		msg.Reasoning,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateMessage
		}
		return err
	}
	return nil
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	const query = `
        SELECT id, ticket_id, slack_ts, slack_channel_id, slack_user_id, slack_thread_ts,
               text, category, is_relevant, confidence, reasoning, created_at
        FROM messages WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.SlackTS,
			&msg.SlackChannelID,
			&msg.SlackUserID,
			&msg.SlackThreadTS,
			&msg.Text,
			&msg.Category,
			&msg.IsRelevant,
			&msg.Confidence,
			&msg.Reasoning,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) DeleteByTicket(ctx context.Context, ticketID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
