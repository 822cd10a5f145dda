package hospital

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/httputil"
)

type Service interface {
	ListHospitals(ctx context.Context) ([]string, error)
	ListDoctors(ctx context.Context, hospital string) ([]*model.DoctorSummary, error)
}

// Handler serves the hospital and doctor directory patients pick from.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw ...gin.HandlerFunc) {
	hospitals := r.Group("/hospitals", mw...)
	{
		hospitals.GET("", h.ListHospitals)
		hospitals.GET("/:name/doctors", h.ListDoctors)
	}
}

func (h *Handler) ListHospitals(c *gin.Context) {
	names, err := h.service.ListHospitals(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	httputil.RespondWithSuccess(c, http.StatusOK, names)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.ListDoctors(c.Request.Context(), c.Param("name"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, doctors)
}
