package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/claimant-engine/internal/domain"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO message (id, message_type, message_payload, message_timestamp, delivery_count, status, last_error, process_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		message.ID,
		message.MessageType,
		message.MessagePayload,
		message.MessageTimestamp,
		message.DeliveryCount,
		message.Status,
		message.LastError,
		message.ProcessAfter,
	)
	return err
}

func (r *messageRepository) FindForProcessing(ctx context.Context, messageType domain.MessageType, now time.Time, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, message_type, message_payload, message_timestamp, delivery_count, status, last_error, process_after
		FROM message
		WHERE message_type = $1 AND status IN ('NEW', 'ERROR') AND process_after <= $2
		ORDER BY message_timestamp
		LIMIT $3
	`

	var messages []*domain.Message
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &messages, query, messageType, now, limit); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) UpdateDelivery(ctx context.Context, message *domain.Message) error {
	query := `
		UPDATE message
		SET delivery_count = $2, status = $3, last_error = $4, process_after = $5
		WHERE id = $1
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		message.ID,
		message.DeliveryCount,
		message.Status,
		message.LastError,
		message.ProcessAfter,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result, customError.WrapMessageNotFound(message.ID.String()))
}

func (r *messageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM message WHERE id = $1`, id)
	return err
}

func (r *messageRepository) CountPendingByType(ctx context.Context) (map[domain.MessageType]int, error) {
	query := `
		SELECT message_type, COUNT(*) AS pending
		FROM message
		WHERE status IN ('NEW', 'ERROR')
		GROUP BY message_type
	`

	var rows []struct {
		MessageType domain.MessageType `db:"message_type"`
		Pending     int                `db:"pending"`
	}
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query); err != nil {
		return nil, err
	}

	counts := make(map[domain.MessageType]int, len(rows))
	for _, row := range rows {
		counts[row.MessageType] = row.Pending
	}
	return counts, nil
}
