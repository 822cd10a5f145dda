package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmily/pharmily-api/internal/middleware"
	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/errors"
)

type fakeService struct {
	signups []*model.SignupRequest
	signErr error
	login   *model.TokenResponse
	logErr  error
}

func (f *fakeService) Signup(_ context.Context, req *model.SignupRequest) (*model.User, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	f.signups = append(f.signups, req)
	u := req.ToUser()
	u.ID = int64(len(f.signups))
	return u, nil
}

func (f *fakeService) Login(_ context.Context, _ *model.LoginRequest) (*model.TokenResponse, error) {
	return f.login, f.logErr
}

func newRouter(t *testing.T, svc Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const patientBody = `{
	"username": "pat1",
	"password": "password123",
	"role": "patient",
	"patient": {"name": "Siti Aminah", "age": 34, "gender": "Perempuan", "address": "Bandung"}
}`

func TestSignup(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(t, svc)

	w := post(r, "/api/v1/auth/signup", patientBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Status string               `json:"status"`
		Data   model.SignupResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, int64(1), resp.Data.ID)
	assert.Equal(t, model.RolePatient, resp.Data.Role)
	assert.NotContains(t, w.Body.String(), "password")

	require.Len(t, svc.signups, 1)
	assert.Equal(t, "Siti Aminah", svc.signups[0].Patient.Name)
}

func TestSignupRejectsInvalidBody(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(t, svc)

	cases := map[string]string{
		"malformed":       `{"username":`,
		"unknown role":    `{"username":"pat1","password":"password123","role":"nurse"}`,
		"short password":  `{"username":"pat1","password":"short","role":"pharmacy"}`,
		"missing profile": `{"username":"drA","password":"password123","role":"doctor"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := post(r, "/api/v1/auth/signup", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, svc.signups)
}

func TestSignupConflict(t *testing.T) {
	r := newRouter(t, &fakeService{signErr: errors.NewConflict("username already exists", nil)})

	w := post(r, "/api/v1/auth/signup", patientBody)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"username already exists"}`, w.Body.String())
}

func TestLogin(t *testing.T) {
	svc := &fakeService{login: &model.TokenResponse{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 3600}}
	r := newRouter(t, svc)

	w := post(r, "/api/v1/auth/login", `{"username":"pat1","password":"password123","role":"patient"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"tok"`)

	svc.logErr = errors.Unauthorized(nil)
	w = post(r, "/api/v1/auth/login", `{"username":"pat1","password":"wrong-one","role":"patient"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, "/api/v1/auth/login", `{"username":"pat1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
