package wallet

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/service/wallet"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
	"github.com/meditracker/patientflow-api/pkg/httputil"
)

type Handler struct {
	service *wallet.Service
}

func NewHandler(service *wallet.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	wallets := r.Group("/wallet")
	{
		wallets.POST("/topup", h.TopUp)
		wallets.GET("/rfid/:rfid", h.GetByRFID)
		wallets.GET("/patient/:id", h.GetByPatient)
	}
}

func (h *Handler) TopUp(c *gin.Context) {
	var req model.WalletTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}
	if !req.Amount.IsPositive() {
		httputil.RespondWithError(c, apperrors.Validation("amount must be positive", nil))
		return
	}

	w, err := h.service.TopUp(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, w)
}

func (h *Handler) GetByRFID(c *gin.Context) {
	w, err := h.service.GetByRFID(c.Request.Context(), c.Param("rfid"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, w)
}

func (h *Handler) GetByPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient ID", err))
		return
	}

	w, err := h.service.GetByPatientID(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, w)
}
