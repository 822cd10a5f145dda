package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/logger"
	"github.com/pharmily/pharmily-api/pkg/messaging"
	"github.com/pharmily/pharmily-api/pkg/metrics"
	"github.com/pharmily/pharmily-api/pkg/repository"
)

type OutboxProcessorConfig struct {
	Channel       string
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxRetries is the number of failed batches after which an event is marked FAILED.
	MaxRetries int
	// ClaimTimeout is how long a claimed event may stay unfinished before
	// another worker takes it over.
	ClaimTimeout time.Duration
}

func (c *OutboxProcessorConfig) setDefaults() {
	if c.Channel == "" {
		c.Channel = "pharmily.events"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 200 * time.Millisecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.ClaimTimeout <= 0 {
		c.ClaimTimeout = 5 * time.Minute
	}
}

type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	clock   model.Clock
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	clock model.Clock,
) *OutboxProcessor {
	config.setDefaults()
	if clock == nil {
		clock = time.Now
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor", "channel", p.config.Channel)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch claims one batch of pending events, publishes them in
// emission order and returns how many succeeded. Concurrent processors never
// publish the same event twice unless a claim times out.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	now := p.clock()
	events, err := p.repo.ClaimPendingEvents(ctx, p.config.BatchSize,
		model.FormatTimestamp(now),
		model.FormatTimestamp(now.Add(-p.config.ClaimTimeout)),
	)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_pending_events", "error").Inc()
		return 0, fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_pending_events", "success").Inc()

	published := 0
	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
			continue
		}
		published++
	}

	return published, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		ID:      event.ID.String(),
		Type:    event.EventType,
		Payload: json.RawMessage(event.Payload),
	}

	err := retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		return p.broker.Publish(ctx, p.config.Channel, msg)
	})

	if err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		retries, incErr := p.repo.IncrementRetry(ctx, event.ID, err.Error())
		if incErr != nil {
			p.logger.Error(incErr, "Failed to record retry", "event_id", event.ID.String())
			return err
		}
		if retries >= p.config.MaxRetries {
			errStr := err.Error()
			now := model.FormatTimestamp(p.clock())
			if updateErr := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &errStr, now); updateErr != nil {
				p.logger.Error(updateErr, "Failed to update event status", "event_id", event.ID.String())
			}
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	now := model.FormatTimestamp(p.clock())
	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil, now); err != nil {
		p.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
		return err
	}

	return nil
}

// Helper retry function
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
