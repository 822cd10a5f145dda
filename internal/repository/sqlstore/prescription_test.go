package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
)

func TestPrescriptionRepositoryCreateAndList(t *testing.T) {
	repo := NewPrescriptionRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.Create(ctx, "Siti_resep_dokter_1-01.pdf", "2024-05-01 09:00:00")
	require.NoError(t, err)
	second, err := repo.Create(ctx, "Budi_resep_dokter_1-02.pdf", "2024-05-01 09:00:00")
	require.NoError(t, err)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second, records[0].ID)
	assert.Equal(t, first, records[1].ID)
	assert.Equal(t, model.PrescriptionStatusPending, records[0].Status)

	rec, err := repo.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Siti_resep_dokter_1-01.pdf", rec.Filename)
}

func TestPrescriptionRepositoryUpdateStatus(t *testing.T) {
	repo := NewPrescriptionRepository(newTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, "a.pdf", "2024-05-01 09:00:00")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, id, "Done"))
	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Done", rec.Status)
}

func TestPrescriptionRepositoryUpdateMissing(t *testing.T) {
	repo := NewPrescriptionRepository(newTestDB(t))
	ctx := context.Background()

	err := repo.UpdateStatus(ctx, 999, "Done")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
