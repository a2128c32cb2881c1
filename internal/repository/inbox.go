package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
)

type InboxRepository struct {
	db *pgxpool.Pool
}

func NewInboxRepository(db *pgxpool.Pool) *InboxRepository {
	return &InboxRepository{db: db}
}

// InsertMessage stores message once. A second insert with the same id returns
// apperrors.ErrInboxMessageDuplicate.
func (r *InboxRepository) InsertMessage(ctx context.Context, ext RepoExtension, message model.InboxMessage) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
        INSERT INTO messages.inbox_messages (id, topic, payload)
		VALUES ($1, $2, $3)
        ON CONFLICT DO NOTHING;
    `

	tag, err := ext.Exec(ctx, query, message.ID, message.Topic, message.Payload)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrInboxMessageDuplicate
	}

	return nil
}

func (r *InboxRepository) UpdateAsProcessed(ctx context.Context, ext RepoExtension, messageID uuid.UUID) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
        UPDATE messages.inbox_messages
        SET processed = true, processed_at = NOW()
        WHERE id = $1;
    `

	_, err := ext.Exec(ctx, query, messageID)
	if err != nil {
		return err
	}

	return nil
}
