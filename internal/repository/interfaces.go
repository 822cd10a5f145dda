package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pharmily/pharmily-api/internal/model"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrQueueConflict     = errors.New("queue number already issued")
)

// All repository interfaces in one file
type (
	// UserRepository is the identity store.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) (int64, error)
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByUsernameAndRole(ctx context.Context, username string, role model.Role) (*model.User, error)
		ListHospitals(ctx context.Context) ([]string, error)
		ListDoctorsByHospital(ctx context.Context, hospital string) ([]*model.DoctorSummary, error)
	}

	// QueueRepository is the append-only queue ledger.
	QueueRepository interface {
		Count(ctx context.Context, doctorID int64) (int, error)
		// Issue counts and inserts in one transaction. It returns
		// ErrQueueConflict when another writer took the same number.
		Issue(ctx context.Context, patientID, doctorID int64, createdAt string) (*model.QueueEntry, error)
		GetByNumber(ctx context.Context, queueNumber string) (*model.QueueTicket, error)
		ListByDoctor(ctx context.Context, doctorID int64) ([]*model.QueueEntry, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, filename, createdAt string) (int64, error)
		Get(ctx context.Context, id int64) (*model.PrescriptionRecord, error)
		UpdateStatus(ctx context.Context, id int64, status string) error
		List(ctx context.Context) ([]*model.PrescriptionRecord, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		ClaimPendingEvents(ctx context.Context, limit int, at, staleBefore string) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string, at string) error
		IncrementRetry(ctx context.Context, id uuid.UUID, errMsg string) (int, error)
		DeleteProcessedBefore(ctx context.Context, before string) (int64, error)
	}
)
