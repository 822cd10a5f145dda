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

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{NewBaseRepository(db)}
}

func (r *prescriptionRepository) Create(ctx context.Context, filename, createdAt string) (int64, error) {
	query := r.rebind(`
		INSERT INTO PrescriptionPDF (pdf_filename, created_at, status)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, filename, createdAt, model.PrescriptionStatusPending).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create prescription record: %w", err)
	}
	return id, nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id int64) (*model.PrescriptionRecord, error) {
	var rec model.PrescriptionRecord
	query := r.rebind(`SELECT id, pdf_filename, created_at, status FROM PrescriptionPDF WHERE id = ?`)
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prescription record: %w", err)
	}
	return &rec, nil
}

func (r *prescriptionRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := r.rebind(`UPDATE PrescriptionPDF SET status = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update prescription status: %w", err)
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

func (r *prescriptionRepository) List(ctx context.Context) ([]*model.PrescriptionRecord, error) {
	query := `
		SELECT id, pdf_filename, created_at, status
		FROM PrescriptionPDF
		ORDER BY created_at DESC, id DESC
	`

	records := []*model.PrescriptionRecord{}
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list prescription records: %w", err)
	}
	return records, nil
}
