package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/pharmily/pharmily-api/internal/model"
)

// OutboxRepository is the subset of the outbox store the workers need.
type OutboxRepository interface {
	// ClaimPendingEvents hands each pending event to a single worker, oldest first.
	ClaimPendingEvents(ctx context.Context, limit int, at, staleBefore string) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string, at string) error
	IncrementRetry(ctx context.Context, id uuid.UUID, errMsg string) (int, error)
	DeleteProcessedBefore(ctx context.Context, before string) (int64, error)
}
