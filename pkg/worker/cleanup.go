package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/logger"
	"github.com/pharmily/pharmily-api/pkg/repository"
)

// OutboxCleanupWorker deletes published events once they are older than the retention.
type OutboxCleanupWorker struct {
	repo          repository.OutboxRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
	clock         model.Clock
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retentionDays int, interval time.Duration, logger *logger.Logger, clock model.Clock) *OutboxCleanupWorker {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if clock == nil {
		clock = time.Now
	}
	return &OutboxCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger,
		clock:         clock,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Failed to clean up outbox events")
			}
		}
	}
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := model.FormatTimestamp(w.clock().AddDate(0, 0, -w.retentionDays))

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup outbox events: %w", err)
	}

	if rows > 0 {
		w.logger.Info("Cleaned up outbox events", "count", rows, "cutoff", cutoff)
	}
	return rows, nil
}
