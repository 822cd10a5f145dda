package prescription

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
	"github.com/pharmily/pharmily-api/internal/service/event"
	"github.com/pharmily/pharmily-api/pkg/errors"
	"github.com/pharmily/pharmily-api/pkg/metrics"
)

// DefaultDir is where documents go when no directory is configured.
const DefaultDir = "./temp_prescriptions"

const maxStatusLen = 64

// Renderer turns a compiled document into a file.
type Renderer interface {
	Render(w io.Writer, doc *model.PrescriptionDocument) error
}

type Service struct {
	repo      repository.PrescriptionRepository
	queueRepo repository.QueueRepository
	userRepo  repository.UserRepository
	compiler  *Compiler
	renderer  Renderer
	events    event.Emitter
	metrics   *metrics.Metrics
	clock     model.Clock
	dir       string
}

func NewService(
	repo repository.PrescriptionRepository,
	queueRepo repository.QueueRepository,
	userRepo repository.UserRepository,
	compiler *Compiler,
	renderer Renderer,
	events event.Emitter,
	m *metrics.Metrics,
	clock model.Clock,
	dir string,
) *Service {
	if dir == "" {
		dir = DefaultDir
	}
	return &Service{
		repo:      repo,
		queueRepo: queueRepo,
		userRepo:  userRepo,
		compiler:  compiler,
		renderer:  renderer,
		events:    events,
		metrics:   m,
		clock:     clock,
		dir:       dir,
	}
}

// CreatePrescription compiles and renders a prescription for the patient
// holding queueNumber, stores the file and records it as pending.
func (s *Service) CreatePrescription(ctx context.Context, doctorID int64, req *model.CreatePrescriptionRequest) (*model.PrescriptionResult, error) {
	ticket, err := s.queueRepo.GetByNumber(ctx, req.QueueNumber)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFound("queue number", err)
		}
		return nil, errors.NewInternal(err)
	}
	if ticket.DoctorID != doctorID {
		return nil, errors.NewNotFound("queue number", nil)
	}

	doctorUser, err := s.userRepo.Get(ctx, doctorID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFound("doctor", err)
		}
		return nil, errors.NewInternal(err)
	}
	doctor, ok := doctorUser.Doctor()
	if !ok {
		return nil, errors.Forbidden("only doctors can write prescriptions")
	}

	createdAt := model.FormatTimestamp(s.clock())
	doc, err := s.compiler.Compile(doctor, ticket.Patient, &model.PrescriptionInput{
		Location:  req.Location,
		CreatedAt: createdAt,
		Items:     req.Items,
	})
	if err != nil {
		return nil, errors.NewBadRequest(err.Error(), err)
	}

	filename := model.PrescriptionFilename(ticket.Patient.Name, ticket.QueueNumber)
	if err := s.writeDocument(filename, doc); err != nil {
		return nil, errors.NewInternal(err)
	}

	id, err := s.RecordPrescription(ctx, filename, createdAt)
	if err != nil {
		return nil, err
	}

	if err := s.events.Emit(ctx, model.EventPrescriptionCreated, event.PrescriptionCreated{
		ID:          id,
		Filename:    filename,
		QueueNumber: ticket.QueueNumber,
		DoctorID:    doctorID,
		CreatedAt:   createdAt,
	}); err != nil {
		log.Error().Err(err).Int64("prescription_id", id).Msg("Failed to record prescription event")
	}

	log.Info().
		Int64("prescription_id", id).
		Int64("doctor_id", doctorID).
		Str("queue_number", ticket.QueueNumber).
		Msg("Prescription created")

	return &model.PrescriptionResult{
		Record: &model.PrescriptionRecord{
			ID:            id,
			Filename:      filename,
			CreatedAt:     createdAt,
			Status:        model.PrescriptionStatusPending,
			FileAvailable: true,
		},
		QueueNumber: ticket.QueueNumber,
	}, nil
}

// RecordPrescription registers a generated document as pending.
func (s *Service) RecordPrescription(ctx context.Context, filename, createdAt string) (int64, error) {
	id, err := s.repo.Create(ctx, filename, createdAt)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("create_prescription", "error").Inc()
		return 0, errors.NewInternal(err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("create_prescription", "success").Inc()
	s.metrics.PrescriptionsRecorded.Inc()
	return id, nil
}

// UpdateStatus overwrites the free-text status of a record. A missing
// record is reported as not found before the status itself is checked.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			s.metrics.PrescriptionStatusSets.WithLabelValues("not_found").Inc()
			return errors.NewNotFound("prescription", err)
		}
		s.metrics.PrescriptionStatusSets.WithLabelValues("error").Inc()
		return errors.NewInternal(err)
	}

	status = strings.TrimSpace(status)
	if status == "" {
		return errors.NewBadRequest("status is required", nil)
	}
	if len([]rune(status)) > maxStatusLen {
		return errors.NewBadRequest(fmt.Sprintf("status must not exceed %d characters", maxStatusLen), nil)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			s.metrics.PrescriptionStatusSets.WithLabelValues("not_found").Inc()
			return errors.NewNotFound("prescription", err)
		}
		s.metrics.PrescriptionStatusSets.WithLabelValues("error").Inc()
		return errors.NewInternal(err)
	}
	s.metrics.PrescriptionStatusSets.WithLabelValues("success").Inc()

	if err := s.events.Emit(ctx, model.EventPrescriptionStatusUpdated, event.PrescriptionStatusUpdated{
		ID:     id,
		Status: status,
	}); err != nil {
		log.Error().Err(err).Int64("prescription_id", id).Msg("Failed to record status event")
	}
	return nil
}

// ListPrescriptions returns every record, newest first, flagging records
// whose file is gone.
func (s *Service) ListPrescriptions(ctx context.Context) ([]*model.PrescriptionRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	for _, rec := range records {
		rec.FileAvailable = s.fileExists(rec.Filename)
	}
	return records, nil
}

func (s *Service) GetPrescription(ctx context.Context, id int64) (*model.PrescriptionRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFound("prescription", err)
		}
		return nil, errors.NewInternal(err)
	}
	rec.FileAvailable = s.fileExists(rec.Filename)
	return rec, nil
}

// FilePath returns the location of a record's document on disk.
func (s *Service) FilePath(ctx context.Context, id int64) (string, *model.PrescriptionRecord, error) {
	rec, err := s.GetPrescription(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if !rec.FileAvailable {
		return "", nil, errors.NewNotFound("prescription file", nil)
	}
	return s.path(rec.Filename), rec, nil
}

func (s *Service) writeDocument(filename string, doc *model.PrescriptionDocument) error {
	timer := prometheus.NewTimer(s.metrics.DocumentRenderLatency)
	defer timer.ObserveDuration()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create prescription directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".render-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.renderer.Render(tmp, doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write prescription: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(filename)); err != nil {
		return fmt.Errorf("failed to store prescription: %w", err)
	}
	return nil
}

func (s *Service) path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

func (s *Service) fileExists(filename string) bool {
	info, err := os.Stat(s.path(filename))
	return err == nil && !info.IsDir()
}
