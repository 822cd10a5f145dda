package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	if event.Payload == "" {
		return errors.New("event payload cannot be empty")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = string(model.OutboxStatusPending)
	}

	query := r.rebind(`
		INSERT INTO OutboxEvent (id, event_type, payload, status, retry_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.RetryCount,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

const outboxColumns = `seq, id, event_type, payload, status, error_message, retry_count,
	created_at, claimed_at, processed_at`

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := r.rebind(`
		SELECT ` + outboxColumns + `
		FROM OutboxEvent
		WHERE status = ?
		ORDER BY seq ASC
		LIMIT ?
	`)

	events := []*model.OutboxEvent{}
	if err := r.db.SelectContext(ctx, &events, query, string(model.OutboxStatusPending), limit); err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

// ClaimPendingEvents marks up to limit pending events as PROCESSING and
// returns them in emission order. Claims older than staleBefore are taken
// over, so a crashed worker does not strand its rows. A row is handed to
// one caller only: the outer status check is re-evaluated against the
// committed row when two claims race.
func (r *outboxRepository) ClaimPendingEvents(ctx context.Context, limit int, at, staleBefore string) ([]*model.OutboxEvent, error) {
	lock := ""
	if r.db.DriverName() == DriverPostgres {
		lock = "FOR UPDATE SKIP LOCKED"
	}
	query := r.rebind(`
		UPDATE OutboxEvent
		SET status = ?, claimed_at = ?
		WHERE seq IN (
			SELECT seq FROM OutboxEvent
			WHERE status = ? OR (status = ? AND claimed_at < ?)
			ORDER BY seq ASC
			LIMIT ?
			` + lock + `
		)
		AND (status = ? OR (status = ? AND claimed_at < ?))
		RETURNING ` + outboxColumns)

	pending, processing := string(model.OutboxStatusPending), string(model.OutboxStatusProcessing)
	events := []*model.OutboxEvent{}
	err := r.db.SelectContext(ctx, &events, query,
		processing, at,
		pending, processing, staleBefore, limit,
		pending, processing, staleBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending events: %w", err)
	}

	// RETURNING does not promise any order
	sort.Slice(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string, at string) error {
	query := r.rebind(`
		UPDATE OutboxEvent
		SET status = ?, error_message = ?, processed_at = ?
		WHERE id = ?
	`)

	result, err := r.db.ExecContext(ctx, query, string(status), errMsg, at, id)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *outboxRepository) IncrementRetry(ctx context.Context, id uuid.UUID, errMsg string) (int, error) {
	query := r.rebind(`
		UPDATE OutboxEvent
		SET retry_count = retry_count + 1, error_message = ?, status = ?, claimed_at = NULL
		WHERE id = ?
		RETURNING retry_count
	`)

	var count int
	if err := r.db.QueryRowxContext(ctx, query, errMsg, string(model.OutboxStatusPending), id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment retry count: %w", err)
	}
	return count, nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before string) (int64, error) {
	query := r.rebind(`
		DELETE FROM OutboxEvent
		WHERE status = ? AND processed_at < ?
	`)

	result, err := r.db.ExecContext(ctx, query, string(model.OutboxStatusProcessed), before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}
	return result.RowsAffected()
}
