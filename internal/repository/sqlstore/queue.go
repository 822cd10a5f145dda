package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
)

type queueRepository struct {
	BaseRepository
}

func NewQueueRepository(db *sqlx.DB) repository.QueueRepository {
	return &queueRepository{NewBaseRepository(db)}
}

func (r *queueRepository) Count(ctx context.Context, doctorID int64) (int, error) {
	return r.count(ctx, r.db, doctorID)
}

func (r *queueRepository) count(ctx context.Context, q sqlx.QueryerContext, doctorID int64) (int, error) {
	var n int
	query := r.rebind(`SELECT COUNT(*) FROM QueueNumber WHERE doctor_id = ?`)
	if err := sqlx.GetContext(ctx, q, &n, query, doctorID); err != nil {
		return 0, fmt.Errorf("failed to count queue entries: %w", err)
	}
	return n, nil
}

func (r *queueRepository) Issue(ctx context.Context, patientID, doctorID int64, createdAt string) (*model.QueueEntry, error) {
	entry := &model.QueueEntry{
		PatientID: patientID,
		DoctorID:  doctorID,
		CreatedAt: createdAt,
	}

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := r.count(ctx, tx, doctorID)
		if err != nil {
			return err
		}
		entry.QueueNumber = model.FormatQueueNumber(doctorID, n+1)

		query := tx.Rebind(`
			INSERT INTO QueueNumber (patient_id, doctor_id, queue_number, created_at)
			VALUES (?, ?, ?, ?)
			RETURNING id
		`)
		err = tx.QueryRowxContext(ctx, query, patientID, doctorID, entry.QueueNumber, createdAt).Scan(&entry.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrQueueConflict
			}
			return fmt.Errorf("failed to insert queue entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

type ticketRow struct {
	model.QueueEntry
	Username       string         `db:"username"`
	PatientName    sql.NullString `db:"patient_name"`
	PatientAge     sql.NullInt64  `db:"patient_age"`
	PatientGender  sql.NullString `db:"patient_gender"`
	PatientAddress sql.NullString `db:"patient_address"`
}

func (r *queueRepository) GetByNumber(ctx context.Context, queueNumber string) (*model.QueueTicket, error) {
	query := r.rebind(`
		SELECT q.id, q.patient_id, q.doctor_id, q.queue_number, q.created_at,
			u.username, u.patient_name, u.patient_age, u.patient_gender, u.patient_address
		FROM QueueNumber q
		JOIN Users u ON u.id = q.patient_id
		WHERE q.queue_number = ?
	`)

	var row ticketRow
	if err := r.db.GetContext(ctx, &row, query, queueNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}

	return &model.QueueTicket{
		QueueEntry:      row.QueueEntry,
		PatientUsername: row.Username,
		Patient: &model.PatientProfile{
			Name:    row.PatientName.String,
			Age:     int(row.PatientAge.Int64),
			Gender:  row.PatientGender.String,
			Address: row.PatientAddress.String,
		},
	}, nil
}

func (r *queueRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.QueueEntry, error) {
	query := r.rebind(`
		SELECT id, patient_id, doctor_id, queue_number, created_at
		FROM QueueNumber
		WHERE doctor_id = ?
		ORDER BY id
	`)

	entries := []*model.QueueEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	return entries, nil
}
