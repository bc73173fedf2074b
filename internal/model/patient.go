package model

import (
	"time"
)

// Patient is registered once per RFID tag. The tag is the external key for
// every patient-facing flow; the UUID stays internal.
type Patient struct {
	Base
	RFIDTag     string     `db:"rfid_tag" json:"rfid_tag"`
	FullName    string     `db:"full_name" json:"full_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Phone       string     `db:"phone" json:"phone,omitempty"`
	Email       string     `db:"email" json:"email,omitempty"`
}

type RegisterPatientRequest struct {
	RFIDTag     string     `json:"rfid_tag" binding:"required"`
	FullName    string     `json:"full_name" binding:"required"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email" binding:"omitempty,email"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}
