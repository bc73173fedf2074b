package model

import (
	"github.com/google/uuid"
)

type VisitStatus string

// Visit statuses only ever advance; no transition reverses them.
// LAB_IN_PROGRESS and LAB_COMPLETED are declared for parity with the lab
// workflow but no service transition currently assigns them.
const (
	VisitStatusRegistered     VisitStatus = "REGISTERED"
	VisitStatusVitals         VisitStatus = "VITALS"
	VisitStatusConsultation   VisitStatus = "CONSULTATION"
	VisitStatusLabPending     VisitStatus = "LAB_PENDING"
	VisitStatusLabInProgress  VisitStatus = "LAB_IN_PROGRESS"
	VisitStatusLabCompleted   VisitStatus = "LAB_COMPLETED"
	VisitStatusBillingPending VisitStatus = "BILLING_PENDING"
	VisitStatusCompleted      VisitStatus = "COMPLETED"
)

type Visit struct {
	Base
	PatientID          uuid.UUID   `db:"patient_id" json:"patient_id"`
	DoctorID           uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	Department         Department  `db:"department" json:"department"`
	Status             VisitStatus `db:"status" json:"status"`
	TemperatureCelsius *float64    `db:"temperature_celsius" json:"temperature_celsius,omitempty"`
	BPSystolic         *int        `db:"bp_systolic" json:"bp_systolic,omitempty"`
	BPDiastolic        *int        `db:"bp_diastolic" json:"bp_diastolic,omitempty"`
	HeartRate          *int        `db:"heart_rate" json:"heart_rate,omitempty"`
	Diagnosis          string      `db:"diagnosis" json:"diagnosis,omitempty"`
	Medications        string      `db:"medications" json:"medications,omitempty"`
}

type StartVisitRequest struct {
	RFIDTag    string     `json:"rfid_tag" binding:"required"`
	Department Department `json:"department" binding:"required,department"`
}

type RecordVitalsRequest struct {
	TemperatureCelsius float64 `json:"temperature_celsius" binding:"required"`
	BPSystolic         int     `json:"bp_systolic" binding:"required"`
	BPDiastolic        int     `json:"bp_diastolic" binding:"required"`
	HeartRate          int     `json:"heart_rate" binding:"required"`
}

type ConsultationRequest struct {
	Diagnosis   string `json:"diagnosis" binding:"required"`
	Medications string `json:"medications"`
	TestsNeeded bool   `json:"tests_needed"`
}

type DischargeRequest struct {
	RFIDTag string `json:"rfid_tag" binding:"required"`
}
