package lab

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/service/lab"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
	"github.com/meditracker/patientflow-api/pkg/httputil"
)

type Handler struct {
	service *lab.Service
}

func NewHandler(service *lab.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	labs := r.Group("/lab")
	{
		labs.POST("/:visitId/order", h.OrderTest)
		labs.POST("/tests/:id/status", h.UpdateStatus)
		labs.GET("/:visitId/tests", h.ListByVisit)
	}
}

func (h *Handler) OrderTest(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("visitId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid visit ID", err))
		return
	}

	var req model.OrderLabTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}
	if !req.Price.IsPositive() {
		httputil.RespondWithError(c, apperrors.Validation("price must be positive", nil))
		return
	}

	test, err := h.service.OrderTest(c.Request.Context(), visitID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, test)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid lab test ID", err))
		return
	}

	var req model.UpdateLabStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	test, err := h.service.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, test)
}

func (h *Handler) ListByVisit(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("visitId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid visit ID", err))
		return
	}

	tests, err := h.service.GetByVisit(c.Request.Context(), visitID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tests)
}
