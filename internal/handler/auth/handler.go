package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmily/pharmily-api/internal/handler"
	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/httputil"
)

type Service interface {
	Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public auth endpoints behind the given middleware,
// typically the rate limiter.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw ...gin.HandlerFunc) {
	auth := r.Group("/auth", mw...)
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, &model.SignupResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, token)
}
