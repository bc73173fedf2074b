package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillingStatus string

const (
	BillingStatusPending BillingStatus = "PENDING"
	BillingStatusPaid    BillingStatus = "PAID"
)

type BillingType string

const (
	BillingTypeConsultation BillingType = "CONSULTATION"
	BillingTypeLabTest      BillingType = "LAB_TEST"
)

// Billing is immutable once PAID; paid_at is set exactly once.
type Billing struct {
	Base
	VisitID     uuid.UUID       `db:"visit_id" json:"visit_id"`
	Type        BillingType     `db:"type" json:"type"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      BillingStatus   `db:"status" json:"status"`
	PaidAt      *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
}

type PayWithRFIDRequest struct {
	RFIDTag   string    `json:"rfid_tag" binding:"required"`
	BillingID uuid.UUID `json:"billing_id" binding:"required"`
}
