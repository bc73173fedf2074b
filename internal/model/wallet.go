package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is created together with its patient and seeded with the configured
// starting balance.
type Wallet struct {
	Base
	PatientID uuid.UUID       `db:"patient_id" json:"patient_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Active    bool            `db:"active" json:"active"`
}

type WalletTopUpRequest struct {
	RFIDTag       string          `json:"rfid_tag" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method"`
}
