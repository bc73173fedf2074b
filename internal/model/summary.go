package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VisitSummary is the read-side aggregation returned by the summary, history
// and discharge endpoints.
type VisitSummary struct {
	VisitID      uuid.UUID   `json:"visit_id"`
	VisitDate    time.Time   `json:"visit_date"`
	Status       VisitStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	DischargedAt *time.Time  `json:"discharged_at,omitempty"`

	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty"`
	RFIDTag      string `json:"rfid_tag"`

	DoctorName string     `json:"doctor_name"`
	Department Department `json:"department"`
	RoomNumber string     `json:"room_number,omitempty"`

	Vitals      VitalsInfo `json:"vitals"`
	Diagnosis   string     `json:"diagnosis,omitempty"`
	Medications string     `json:"medications,omitempty"`

	LabTests []LabTestInfo  `json:"lab_tests"`
	Billing  BillingSummary `json:"billing"`
}

type VitalsInfo struct {
	TemperatureCelsius *float64 `json:"temperature_celsius,omitempty"`
	BPSystolic         *int     `json:"bp_systolic,omitempty"`
	BPDiastolic        *int     `json:"bp_diastolic,omitempty"`
	HeartRate          *int     `json:"heart_rate,omitempty"`
}

type LabTestInfo struct {
	ID          uuid.UUID       `json:"id"`
	TestName    string          `json:"test_name"`
	Status      LabTestStatus   `json:"status"`
	Price       decimal.Decimal `json:"price"`
	ResultText  string          `json:"result_text,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type BillingItem struct {
	ID          uuid.UUID       `json:"id"`
	Type        BillingType     `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Status      BillingStatus   `json:"status"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

// BillingSummary totals every line of a visit. FullyPaid is true iff the
// pending total is exactly zero.
type BillingSummary struct {
	Items       []BillingItem   `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	TotalDue    decimal.Decimal `json:"total_due"`
	FullyPaid   bool            `json:"fully_paid"`
}
