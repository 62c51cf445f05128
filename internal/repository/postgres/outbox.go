package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/scheduling"
)

type outboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) *outboxRepository {
	return &outboxRepository{db: db}
}

// GetPendingEvents claims a batch with SKIP LOCKED so multiple worker
// replicas never publish the same event concurrently.
func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, error_message, retry_count,
			   created_at, processed_at, updated_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`
	var events []*model.OutboxEvent
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &events, query, model.OutboxStatusPending, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = $2, updated_at = $2, error_message = NULL
		WHERE id = $3
	`
	return r.setStatus(ctx, query, model.OutboxStatusProcessed, id, nil)
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, updated_at = $2, error_message = $4,
			retry_count = retry_count + 1
		WHERE id = $3
	`
	return r.setStatus(ctx, query, model.OutboxStatusFailed, id, &errMsg)
}

func (r *outboxRepository) setStatus(ctx context.Context, query string, status model.OutboxStatus, id uuid.UUID, errMsg *string) error {
	args := []interface{}{status, time.Now().UTC(), id}
	if errMsg != nil {
		args = append(args, *errMsg)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return scheduling.ErrNotFound
	}
	return nil
}
