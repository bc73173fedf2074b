package registration

import (
	"github.com/gin-gonic/gin"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/service/registration"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
	"github.com/meditracker/patientflow-api/pkg/httputil"
)

type Handler struct {
	service *registration.Service
}

func NewHandler(service *registration.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/registration", h.Register)
}

// Register creates the patient and seeded wallet, or returns the existing
// patient when the RFID tag is already registered.
func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	patient, err := h.service.RegisterOrFetch(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, patient)
}
