package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
	"github.com/pharmily/pharmily-api/internal/repository/sqlstore"
	"github.com/pharmily/pharmily-api/internal/service/event"
	"github.com/pharmily/pharmily-api/pkg/errors"
	"github.com/pharmily/pharmily-api/pkg/metrics"
)

type fixture struct {
	svc      *Service
	users    repository.UserRepository
	outbox   repository.OutboxRepository
	notified []string
	mu       sync.Mutex
}

func (f *fixture) QueueIssued(_ context.Context, patient *model.User, _ *model.DoctorProfile, entry *model.QueueEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, patient.Username+":"+entry.QueueNumber)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	db, err := sqlstore.NewDB(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlstore.Migrate(ctx, db))

	clock := func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	f := &fixture{
		users:  sqlstore.NewUserRepository(db),
		outbox: sqlstore.NewOutboxRepository(db),
	}
	f.svc = NewService(
		sqlstore.NewQueueRepository(db),
		f.users,
		event.NewEventService(f.outbox, clock),
		f,
		metrics.NewNop(),
		clock,
	)
	return f
}

func (f *fixture) doctor(t *testing.T, username, hospital string) int64 {
	t.Helper()
	id, err := f.users.Create(context.Background(), &model.User{
		Username:     username,
		PasswordHash: "x",
		Role:         model.RoleDoctor,
		Profile:      &model.DoctorProfile{Name: "Dr. " + username, LicenseID: "SIP", HospitalName: hospital},
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) patient(t *testing.T, username string) int64 {
	t.Helper()
	id, err := f.users.Create(context.Background(), &model.User{
		Username:     username,
		PasswordHash: "x",
		Role:         model.RolePatient,
		Profile:      &model.PatientProfile{Name: username, Age: 20, Gender: "Laki-laki"},
	})
	require.NoError(t, err)
	return id
}

func TestIssueQueueEntryScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	drA := f.doctor(t, "drA", "City Hospital")
	pat1 := f.patient(t, "pat1")
	pat2 := f.patient(t, "pat2")
	require.Equal(t, int64(1), drA)

	next, err := f.svc.NextQueueNumber(ctx, drA)
	require.NoError(t, err)
	assert.Equal(t, "1-01", next)

	first, err := f.svc.IssueQueueEntry(ctx, pat1, drA)
	require.NoError(t, err)
	assert.Equal(t, "1-01", first.QueueNumber)
	assert.Equal(t, "2024-05-01 09:00:00", first.CreatedAt)

	second, err := f.svc.IssueQueueEntry(ctx, pat2, drA)
	require.NoError(t, err)
	assert.Equal(t, "1-02", second.QueueNumber)

	assert.Equal(t, []string{"pat1:1-01", "pat2:1-02"}, f.notified)

	events, err := f.outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestIssueQueueEntrySequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dr := f.doctor(t, "drA", "City Hospital")
	pat := f.patient(t, "pat1")

	for i := 1; i <= 10; i++ {
		entry, err := f.svc.IssueQueueEntry(ctx, pat, dr)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%d-%02d", dr, i), entry.QueueNumber)
	}
}

func TestIssueQueueEntryConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dr := f.doctor(t, "drA", "City Hospital")
	pat := f.patient(t, "pat1")

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := f.svc.IssueQueueEntry(ctx, pat, dr)
			if assert.NoError(t, err) {
				numbers <- entry.QueueNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "duplicate queue number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("%d-%02d", dr, i)])
	}
}

func TestIssueQueueEntryValidatesUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dr := f.doctor(t, "drA", "City Hospital")
	pat := f.patient(t, "pat1")

	_, err := f.svc.IssueQueueEntry(ctx, pat, 999)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = f.svc.IssueQueueEntry(ctx, pat, pat)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = f.svc.IssueQueueEntry(ctx, dr, dr)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestGetTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	drA := f.doctor(t, "drA", "City Hospital")
	drB := f.doctor(t, "drB", "City Hospital")
	pat := f.patient(t, "pat1")

	_, err := f.svc.IssueQueueEntry(ctx, pat, drA)
	require.NoError(t, err)

	ticket, err := f.svc.GetTicket(ctx, drA, "1-01")
	require.NoError(t, err)
	assert.Equal(t, "pat1", ticket.Patient.Name)

	_, err = f.svc.GetTicket(ctx, drB, "1-01")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = f.svc.GetTicket(ctx, drA, "1-02")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	entries, err := f.svc.ListQueue(ctx, drA)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type conflictingRepo struct {
	repository.QueueRepository
	failures int
}

func (r *conflictingRepo) Issue(ctx context.Context, patientID, doctorID int64, createdAt string) (*model.QueueEntry, error) {
	if r.failures > 0 {
		r.failures--
		return nil, repository.ErrQueueConflict
	}
	return r.QueueRepository.Issue(ctx, patientID, doctorID, createdAt)
}

func TestIssueQueueEntryRetriesConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dr := f.doctor(t, "drA", "City Hospital")
	pat := f.patient(t, "pat1")

	repo := &conflictingRepo{QueueRepository: f.svc.queueRepo, failures: 2}
	f.svc.queueRepo = repo
	entry, err := f.svc.IssueQueueEntry(ctx, pat, dr)
	require.NoError(t, err)
	assert.Equal(t, "1-01", entry.QueueNumber)

	repo.failures = maxIssueAttempts
	_, err = f.svc.IssueQueueEntry(ctx, pat, dr)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}
