package billing

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/service/billing"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
	"github.com/meditracker/patientflow-api/pkg/httputil"
)

type Handler struct {
	service *billing.Service
}

func NewHandler(service *billing.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bills := r.Group("/billing")
	{
		bills.POST("/pay", h.Pay)
		bills.GET("/visit/:visitId", h.ListByVisit)
	}
}

func (h *Handler) Pay(c *gin.Context) {
	var req model.PayWithRFIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	if err := h.service.PayWithRFID(c.Request.Context(), req.RFIDTag, req.BillingID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"status": "paid"})
}

func (h *Handler) ListByVisit(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("visitId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid visit ID", err))
		return
	}

	bills, err := h.service.GetByVisit(c.Request.Context(), visitID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bills)
}
