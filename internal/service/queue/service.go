package queue

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
	"github.com/pharmily/pharmily-api/internal/service/event"
	"github.com/pharmily/pharmily-api/internal/service/notification"
	"github.com/pharmily/pharmily-api/pkg/errors"
	"github.com/pharmily/pharmily-api/pkg/metrics"
)

// maxIssueAttempts bounds retries after a concurrent writer took our number.
const maxIssueAttempts = 5

type Service struct {
	queueRepo repository.QueueRepository
	userRepo  repository.UserRepository
	events    event.Emitter
	notifier  notification.Service
	metrics   *metrics.Metrics
	clock     model.Clock
}

func NewService(
	queueRepo repository.QueueRepository,
	userRepo repository.UserRepository,
	events event.Emitter,
	notifier notification.Service,
	m *metrics.Metrics,
	clock model.Clock,
) *Service {
	return &Service{
		queueRepo: queueRepo,
		userRepo:  userRepo,
		events:    events,
		notifier:  notifier,
		metrics:   m,
		clock:     clock,
	}
}

// NextQueueNumber returns the number the doctor's next patient would get.
func (s *Service) NextQueueNumber(ctx context.Context, doctorID int64) (string, error) {
	n, err := s.queueRepo.Count(ctx, doctorID)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return model.FormatQueueNumber(doctorID, n+1), nil
}

// IssueQueueEntry appends the patient to the doctor's queue and returns the entry.
func (s *Service) IssueQueueEntry(ctx context.Context, patientID, doctorID int64) (*model.QueueEntry, error) {
	patient, err := s.userRepo.Get(ctx, patientID)
	if err != nil {
		return nil, s.lookupError("patient", err)
	}
	if patient.Role != model.RolePatient {
		return nil, errors.NewBadRequest("only patients can take a queue number", nil)
	}

	doctorUser, err := s.userRepo.Get(ctx, doctorID)
	if err != nil {
		return nil, s.lookupError("doctor", err)
	}
	doctor, ok := doctorUser.Doctor()
	if !ok {
		return nil, errors.NewNotFound("doctor", nil)
	}

	var entry *model.QueueEntry
	for attempt := 1; ; attempt++ {
		entry, err = s.queueRepo.Issue(ctx, patientID, doctorID, model.FormatTimestamp(s.clock()))
		if err == nil {
			break
		}
		if !stderrors.Is(err, repository.ErrQueueConflict) {
			return nil, errors.NewInternal(err)
		}
		s.metrics.QueueConflicts.Inc()
		if attempt >= maxIssueAttempts {
			return nil, errors.NewConflict("queue is busy, please try again", err)
		}
		log.Debug().Int64("doctor_id", doctorID).Int("attempt", attempt).Msg("Queue number taken, retrying")
	}

	s.metrics.QueueEntriesIssued.WithLabelValues(strconv.FormatInt(doctorID, 10)).Inc()

	if err := s.events.Emit(ctx, model.EventQueueEntryIssued, event.QueueEntryIssued{
		QueueNumber: entry.QueueNumber,
		PatientID:   entry.PatientID,
		DoctorID:    entry.DoctorID,
		CreatedAt:   entry.CreatedAt,
	}); err != nil {
		log.Error().Err(err).Str("queue_number", entry.QueueNumber).Msg("Failed to record queue event")
	}
	s.notifier.QueueIssued(ctx, patient, doctor, entry)

	log.Info().
		Int64("patient_id", patientID).
		Int64("doctor_id", doctorID).
		Str("queue_number", entry.QueueNumber).
		Msg("Queue number issued")

	return entry, nil
}

// GetTicket looks up a queue entry for the doctor it was issued to.
func (s *Service) GetTicket(ctx context.Context, doctorID int64, queueNumber string) (*model.QueueTicket, error) {
	ticket, err := s.queueRepo.GetByNumber(ctx, queueNumber)
	if err != nil {
		return nil, s.lookupError("queue number", err)
	}
	// other doctors' queues are invisible
	if ticket.DoctorID != doctorID {
		return nil, errors.NewNotFound("queue number", nil)
	}
	return ticket, nil
}

// ListQueue returns the doctor's entries in issuance order.
func (s *Service) ListQueue(ctx context.Context, doctorID int64) ([]*model.QueueEntry, error) {
	entries, err := s.queueRepo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

func (s *Service) lookupError(resource string, err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFound(resource, err)
	}
	return errors.NewInternal(err)
}
