package queue

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmily/pharmily-api/internal/handler"
	"github.com/pharmily/pharmily-api/internal/middleware"
	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/httputil"
)

type Service interface {
	NextQueueNumber(ctx context.Context, doctorID int64) (string, error)
	IssueQueueEntry(ctx context.Context, patientID, doctorID int64) (*model.QueueEntry, error)
	GetTicket(ctx context.Context, doctorID int64, queueNumber string) (*model.QueueTicket, error)
	ListQueue(ctx context.Context, doctorID int64) ([]*model.QueueEntry, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the queue endpoints. r must already authenticate.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	patient := authMW.RequireRole(model.RolePatient)
	doctor := authMW.RequireRole(model.RoleDoctor)

	queue := r.Group("/queue")
	{
		queue.POST("", patient, h.IssueQueueEntry)
		queue.GET("", doctor, h.ListQueue)
		queue.GET("/:number", doctor, h.GetTicket)
	}
	r.GET("/doctors/:id/next-queue-number", patient, h.NextQueueNumber)
}

func (h *Handler) IssueQueueEntry(c *gin.Context) {
	patientID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.IssueQueueRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.IssueQueueEntry(c.Request.Context(), patientID, req.DoctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, entry)
}

func (h *Handler) NextQueueNumber(c *gin.Context) {
	doctorID, ok := handler.ParseIDParam(c, "id")
	if !ok {
		return
	}

	number, err := h.service.NextQueueNumber(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"doctor_id": doctorID, "queue_number": number})
}

// GetTicket lets a doctor look up the patient holding one of their numbers.
func (h *Handler) GetTicket(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	ticket, err := h.service.GetTicket(c.Request.Context(), doctorID, c.Param("number"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, ticket)
}

func (h *Handler) ListQueue(c *gin.Context) {
	doctorID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	entries, err := h.service.ListQueue(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if entries == nil {
		entries = []*model.QueueEntry{}
	}
	httputil.RespondWithSuccess(c, http.StatusOK, entries)
}
