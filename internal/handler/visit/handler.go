package visit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/service/visit"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
	"github.com/meditracker/patientflow-api/pkg/httputil"
)

type Handler struct {
	service *visit.Service
}

func NewHandler(service *visit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits")
	{
		visits.POST("/start", h.Start)
		visits.POST("/:id/vitals", h.RecordVitals)
		visits.POST("/:id/consultation", h.AddConsultation)
		visits.POST("/discharge", h.Discharge)
		visits.GET("/:id/summary", h.GetSummary)
		visits.GET("/history/:rfid", h.GetHistory)
	}
}

func (h *Handler) Start(c *gin.Context) {
	var req model.StartVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	v, err := h.service.StartVisit(c.Request.Context(), req.RFIDTag, req.Department)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, v)
}

func (h *Handler) RecordVitals(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid visit ID", err))
		return
	}

	var req model.RecordVitalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	v, err := h.service.RecordVitals(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, v)
}

func (h *Handler) AddConsultation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid visit ID", err))
		return
	}

	var req model.ConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	v, err := h.service.AddConsultation(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, v)
}

func (h *Handler) Discharge(c *gin.Context) {
	var req model.DischargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	summary, err := h.service.Discharge(c.Request.Context(), req.RFIDTag)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) GetSummary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid visit ID", err))
		return
	}

	summary, err := h.service.GetVisitSummary(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) GetHistory(c *gin.Context) {
	summaries, err := h.service.GetPatientVisitHistory(c.Request.Context(), c.Param("rfid"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summaries)
}
