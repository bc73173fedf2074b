package model

import (
	"github.com/shopspring/decimal"
)

type Department string

const (
	DepartmentCardiology      Department = "CARDIOLOGY"
	DepartmentGeneralMedicine Department = "GENERAL_MEDICINE"
	DepartmentOrthopedics     Department = "ORTHOPEDICS"
	DepartmentPediatrics      Department = "PEDIATRICS"
	DepartmentNeurology       Department = "NEUROLOGY"
	DepartmentDermatology     Department = "DERMATOLOGY"
)

// Valid reports whether d is one of the known departments.
func (d Department) Valid() bool {
	switch d {
	case DepartmentCardiology, DepartmentGeneralMedicine, DepartmentOrthopedics,
		DepartmentPediatrics, DepartmentNeurology, DepartmentDermatology:
		return true
	}
	return false
}

// Doctor is static reference data; visits reference a doctor picked by the
// first-by-department assignment policy.
type Doctor struct {
	Base
	FullName        string          `db:"full_name" json:"full_name"`
	Department      Department      `db:"department" json:"department"`
	RoomNumber      string          `db:"room_number" json:"room_number"`
	Floor           string          `db:"floor" json:"floor"`
	ConsultationFee decimal.Decimal `db:"consultation_fee" json:"consultation_fee"`
}

type CreateDoctorRequest struct {
	FullName        string           `json:"full_name" binding:"required"`
	Department      Department       `json:"department" binding:"required,department"`
	RoomNumber      string           `json:"room_number"`
	Floor           string           `json:"floor"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee"`
}

type UpdateDoctorRequest struct {
	FullName        string           `json:"full_name" binding:"required"`
	Department      Department       `json:"department" binding:"required,department"`
	RoomNumber      string           `json:"room_number"`
	Floor           string           `json:"floor"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee"`
}
