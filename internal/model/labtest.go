package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LabTestStatus string

const (
	LabTestStatusOrdered    LabTestStatus = "ORDERED"
	LabTestStatusInProgress LabTestStatus = "IN_PROGRESS"
	LabTestStatusCompleted  LabTestStatus = "COMPLETED"
)

type LabTest struct {
	Base
	VisitID     uuid.UUID       `db:"visit_id" json:"visit_id"`
	TestName    string          `db:"test_name" json:"test_name"`
	Status      LabTestStatus   `db:"status" json:"status"`
	Price       decimal.Decimal `db:"price" json:"price"`
	ResultText  string          `db:"result_text" json:"result_text,omitempty"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

type OrderLabTestRequest struct {
	TestName string          `json:"test_name" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
}

type UpdateLabStatusRequest struct {
	Status     LabTestStatus `json:"status" binding:"required,oneof=ORDERED IN_PROGRESS COMPLETED"`
	ResultText string        `json:"result_text"`
}
