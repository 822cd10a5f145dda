package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
)

type EventService struct {
	outboxRepo repository.OutboxRepository
	clock      model.Clock
}

func NewEventService(outboxRepo repository.OutboxRepository, clock model.Clock) *EventService {
	if clock == nil {
		clock = time.Now
	}
	return &EventService{
		outboxRepo: outboxRepo,
		clock:      clock,
	}
}

// Emit writes a pending outbox event. The worker publishes it later.
func (s *EventService) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   string(payloadJSON),
		Status:    string(model.OutboxStatusPending),
		CreatedAt: model.FormatTimestamp(s.clock()),
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

var _ Emitter = (*EventService)(nil)
