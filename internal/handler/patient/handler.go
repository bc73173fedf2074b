package patient

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meditracker/patientflow-api/internal/repository"
	"github.com/meditracker/patientflow-api/internal/service/visit"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
	"github.com/meditracker/patientflow-api/pkg/httputil"
)

// Handler serves the read side of the patient directory.
type Handler struct {
	patients repository.PatientRepository
	visits   *visit.Service
}

func NewHandler(patients repository.PatientRepository, visits *visit.Service) *Handler {
	return &Handler{patients: patients, visits: visits}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.List)
		patients.GET("/:id", h.Get)
		patients.GET("/:id/visits", h.ListVisits)
		patients.GET("/rfid/:rfid", h.GetByRFID)
	}
}

func (h *Handler) List(c *gin.Context) {
	patients, err := h.patients.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	patient, err := h.patients.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) GetByRFID(c *gin.Context) {
	patient, err := h.patients.GetByRFID(c.Request.Context(), c.Param("rfid"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) ListVisits(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	patient, err := h.patients.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	summaries, err := h.visits.GetPatientVisitHistory(c.Request.Context(), patient.RFIDTag)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summaries)
}
