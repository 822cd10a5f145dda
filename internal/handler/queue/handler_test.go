package queue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmily/pharmily-api/internal/middleware"
	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/auth"
	"github.com/pharmily/pharmily-api/pkg/errors"
)

type fakeQueue struct {
	entries []*model.QueueEntry
}

func (f *fakeQueue) NextQueueNumber(_ context.Context, doctorID int64) (string, error) {
	return model.FormatQueueNumber(doctorID, len(f.entries)+1), nil
}

func (f *fakeQueue) IssueQueueEntry(_ context.Context, patientID, doctorID int64) (*model.QueueEntry, error) {
	if doctorID != 1 {
		return nil, errors.NewNotFound("doctor", nil)
	}
	e := &model.QueueEntry{
		ID:          int64(len(f.entries) + 1),
		PatientID:   patientID,
		DoctorID:    doctorID,
		QueueNumber: model.FormatQueueNumber(doctorID, len(f.entries)+1),
		CreatedAt:   "2024-05-01 09:00:00",
	}
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeQueue) GetTicket(_ context.Context, doctorID int64, number string) (*model.QueueTicket, error) {
	for _, e := range f.entries {
		if e.QueueNumber == number && e.DoctorID == doctorID {
			return &model.QueueTicket{QueueEntry: *e, PatientUsername: "pat1"}, nil
		}
	}
	return nil, errors.NewNotFound("queue number", nil)
}

func (f *fakeQueue) ListQueue(_ context.Context, doctorID int64) ([]*model.QueueEntry, error) {
	var out []*model.QueueEntry
	for _, e := range f.entries {
		if e.DoctorID == doctorID {
			out = append(out, e)
		}
	}
	return out, nil
}

type testEnv struct {
	router  *gin.Engine
	svc     *fakeQueue
	patient string
	doctor  string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc := auth.NewJWTService("secret", time.Hour)
	authMW := middleware.NewAuthMiddleware(jwtSvc)
	svc := &fakeQueue{}

	r := gin.New()
	api := r.Group("/api/v1", authMW.Authenticate())
	NewHandler(svc).RegisterRoutes(api, authMW)

	patient, err := jwtSvc.GenerateAccessToken(&model.User{ID: 2, Username: "pat1", Role: model.RolePatient})
	require.NoError(t, err)
	doctor, err := jwtSvc.GenerateAccessToken(&model.User{ID: 1, Username: "drA", Role: model.RoleDoctor})
	require.NoError(t, err)

	return &testEnv{router: r, svc: svc, patient: patient, doctor: doctor}
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestIssueQueueEntry(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodGet, "/api/v1/doctors/1/next-queue-number", env.patient, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":{"doctor_id":1,"queue_number":"1-01"}}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/v1/queue", env.patient, `{"doctor_id":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"queue_number":"1-01"`)
	require.Len(t, env.svc.entries, 1)
	assert.Equal(t, int64(2), env.svc.entries[0].PatientID)

	w = env.do(http.MethodPost, "/api/v1/queue", env.patient, `{"doctor_id":9}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/v1/queue", env.patient, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueueRoles(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/api/v1/queue", env.doctor, `{"doctor_id":1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/api/v1/queue", env.patient, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/api/v1/queue", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDoctorLooksUpTicket(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodGet, "/api/v1/queue", env.doctor, "")
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/v1/queue", env.patient, `{"doctor_id":1}`).Code)

	w = env.do(http.MethodGet, "/api/v1/queue/1-01", env.doctor, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"patient_username":"pat1"`)

	w = env.do(http.MethodGet, "/api/v1/queue/1-02", env.doctor, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/v1/queue", env.doctor, "")
	assert.Contains(t, w.Body.String(), `"queue_number":"1-01"`)
}
