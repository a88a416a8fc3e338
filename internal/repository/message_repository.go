package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// MessageRepository manages event chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds the repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (event_id, sender_id, content, is_private, private_recipient_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.EventID,
		msg.SenderID,
		msg.Content,
		msg.IsPrivate,
		msg.PrivateRecipientID,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Message, error) {
	const query = `
        SELECT id, event_id, sender_id, content, is_private, private_recipient_id, created_at
        FROM messages WHERE event_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.EventID,
			&msg.SenderID,
			&msg.Content,
			&msg.IsPrivate,
			&msg.PrivateRecipientID,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
