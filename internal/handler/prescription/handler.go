package prescription

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pharmily/pharmily-api/internal/handler"
	"github.com/pharmily/pharmily-api/internal/middleware"
	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/httputil"
)

type Service interface {
	CreatePrescription(ctx context.Context, doctorID int64, req *model.CreatePrescriptionRequest) (*model.PrescriptionResult, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	ListPrescriptions(ctx context.Context) ([]*model.PrescriptionRecord, error)
	GetPrescription(ctx context.Context, id int64) (*model.PrescriptionRecord, error)
	FilePath(ctx context.Context, id int64) (string, *model.PrescriptionRecord, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the prescription endpoints. r must already authenticate.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	doctor := authMW.RequireRole(model.RoleDoctor)
	pharmacy := authMW.RequireRole(model.RolePharmacy)

	prescriptions := r.Group("/prescriptions")
	{
		prescriptions.POST("", doctor, h.CreatePrescription)
		prescriptions.GET("", pharmacy, h.ListPrescriptions)
		prescriptions.GET("/:id", pharmacy, h.GetPrescription)
		prescriptions.GET("/:id/file", pharmacy, h.DownloadFile)
		prescriptions.PATCH("/:id/status", pharmacy, h.UpdateStatus)
	}
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.CreatePrescriptionRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CreatePrescription(c.Request.Context(), doctorID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, result)
}

func (h *Handler) ListPrescriptions(c *gin.Context) {
	records, err := h.service.ListPrescriptions(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if records == nil {
		records = []*model.PrescriptionRecord{}
	}
	httputil.RespondWithSuccess(c, http.StatusOK, records)
}

func (h *Handler) GetPrescription(c *gin.Context) {
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.service.GetPrescription(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, record)
}

func (h *Handler) DownloadFile(c *gin.Context) {
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	path, record, err := h.service.FilePath(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.FileAttachment(path, record.Filename)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePrescriptionStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"id": id, "status": strings.TrimSpace(req.Status)})
}
