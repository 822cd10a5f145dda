package prescription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
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

type fakePrescriptions struct {
	dir     string
	records map[int64]*model.PrescriptionRecord
	created []*model.CreatePrescriptionRequest
}

func (f *fakePrescriptions) CreatePrescription(_ context.Context, doctorID int64, req *model.CreatePrescriptionRequest) (*model.PrescriptionResult, error) {
	if doctorID != 1 {
		return nil, errors.NewNotFound("queue number", nil)
	}
	f.created = append(f.created, req)
	rec := &model.PrescriptionRecord{
		ID:        int64(len(f.records) + 1),
		Filename:  model.PrescriptionFilename("Siti Aminah", req.QueueNumber),
		CreatedAt: "2024-05-01 09:00:00",
		Status:    model.PrescriptionStatusPending,
	}
	f.records[rec.ID] = rec
	return &model.PrescriptionResult{Record: rec, QueueNumber: req.QueueNumber}, nil
}

func (f *fakePrescriptions) UpdateStatus(_ context.Context, id int64, status string) error {
	rec, ok := f.records[id]
	if !ok {
		return errors.NewNotFound("prescription", nil)
	}
	rec.Status = strings.TrimSpace(status)
	return nil
}

func (f *fakePrescriptions) ListPrescriptions(context.Context) ([]*model.PrescriptionRecord, error) {
	var out []*model.PrescriptionRecord
	for _, rec := range f.records {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakePrescriptions) GetPrescription(_ context.Context, id int64) (*model.PrescriptionRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.NewNotFound("prescription", nil)
	}
	return rec, nil
}

func (f *fakePrescriptions) FilePath(ctx context.Context, id int64) (string, *model.PrescriptionRecord, error) {
	rec, err := f.GetPrescription(ctx, id)
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(f.dir, rec.Filename)
	if _, err := os.Stat(path); err != nil {
		return "", nil, errors.NewNotFound("prescription file", err)
	}
	return path, rec, nil
}

type testEnv struct {
	router   *gin.Engine
	svc      *fakePrescriptions
	doctor   string
	pharmacy string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	jwtSvc := auth.NewJWTService("secret", time.Hour)
	authMW := middleware.NewAuthMiddleware(jwtSvc)
	svc := &fakePrescriptions{dir: t.TempDir(), records: map[int64]*model.PrescriptionRecord{}}

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1", authMW.Authenticate()), authMW)

	doctor, err := jwtSvc.GenerateAccessToken(&model.User{ID: 1, Username: "drA", Role: model.RoleDoctor})
	require.NoError(t, err)
	pharmacy, err := jwtSvc.GenerateAccessToken(&model.User{ID: 3, Username: "apotek", Role: model.RolePharmacy})
	require.NoError(t, err)

	return &testEnv{router: r, svc: svc, doctor: doctor, pharmacy: pharmacy}
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

const createBody = `{
	"queue_number": "1-01",
	"location": "Jakarta",
	"items": [{
		"drug_name": "Amoxicillin 500mg",
		"dosage_form": "tab",
		"quantity": "XV",
		"frequency": "3 dd",
		"dose": "1 tab"
	}]
}`

func TestCreatePrescription(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/api/v1/prescriptions", env.doctor, createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"pdf_filename":"Siti_Aminah_resep_dokter_1-01.pdf"`)
	assert.Contains(t, w.Body.String(), `"status":"Pending"`)

	w = env.do(http.MethodPost, "/api/v1/prescriptions", env.pharmacy, createBody)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePrescriptionValidatesItems(t *testing.T) {
	env := newEnv(t)

	cases := map[string]string{
		"no items":      `{"queue_number":"1-01","location":"Jakarta","items":[]}`,
		"arabic count":  strings.Replace(createBody, `"XV"`, `"15"`, 1),
		"missing queue": strings.Replace(createBody, `"queue_number": "1-01",`, "", 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/v1/prescriptions", env.doctor, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, env.svc.created)
}

func TestPharmacyWorkflow(t *testing.T) {
	env := newEnv(t)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/v1/prescriptions", env.doctor, createBody).Code)

	w := env.do(http.MethodGet, "/api/v1/prescriptions", env.pharmacy, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":1`)

	w = env.do(http.MethodGet, "/api/v1/prescriptions", env.doctor, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPatch, "/api/v1/prescriptions/1/status", env.pharmacy, `{"status":" Siap diambil "}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":{"id":1,"status":"Siap diambil"}}`, w.Body.String())
	assert.Equal(t, "Siap diambil", env.svc.records[1].Status)

	w = env.do(http.MethodPatch, "/api/v1/prescriptions/42/status", env.pharmacy, `{"status":"Done"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPatch, "/api/v1/prescriptions/abc/status", env.pharmacy, `{"status":"Done"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/v1/prescriptions/1", env.pharmacy, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDownloadFile(t *testing.T) {
	env := newEnv(t)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/v1/prescriptions", env.doctor, createBody).Code)

	w := env.do(http.MethodGet, "/api/v1/prescriptions/1/file", env.pharmacy, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	name := env.svc.records[1].Filename
	require.NoError(t, os.WriteFile(filepath.Join(env.svc.dir, name), []byte("%PDF-1.3"), 0o644))

	w = env.do(http.MethodGet, "/api/v1/prescriptions/1/file", env.pharmacy, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.3", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), name)
}
