package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/meditracker/patientflow-api/internal/model"
)

// TxManager runs a function inside one database transaction. Every mutating
// service operation is wrapped in exactly one of these.
type TxManager interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// All repository interfaces in one file
type (
	PatientRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByRFID(ctx context.Context, rfidTag string) (*model.Patient, error)
		GetByRFIDTx(ctx context.Context, tx *sqlx.Tx, rfidTag string) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Doctor, error)
		ListByDepartment(ctx context.Context, department model.Department) ([]*model.Doctor, error)
		FirstByDepartment(ctx context.Context, department model.Department) (*model.Doctor, error)
		Count(ctx context.Context) (int, error)
	}

	WalletRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, wallet *model.Wallet) error
		GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.Wallet, error)
		GetByPatientForUpdateTx(ctx context.Context, tx *sqlx.Tx, patientID uuid.UUID) (*model.Wallet, error)
		UpdateBalanceTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, balance decimal.Decimal) error
	}

	VisitRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, visit *model.Visit) error
		Get(ctx context.Context, id uuid.UUID) (*model.Visit, error)
		GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Visit, error)
		UpdateTx(ctx context.Context, tx *sqlx.Tx, visit *model.Visit) error
		UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.VisitStatus) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Visit, error)
		// GetActiveByPatientForUpdateTx returns the most recent visit of the
		// patient whose status is not COMPLETED, locked for update.
		GetActiveByPatientForUpdateTx(ctx context.Context, tx *sqlx.Tx, patientID uuid.UUID) (*model.Visit, error)
	}

	LabTestRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, test *model.LabTest) error
		Get(ctx context.Context, id uuid.UUID) (*model.LabTest, error)
		GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.LabTest, error)
		UpdateTx(ctx context.Context, tx *sqlx.Tx, test *model.LabTest) error
		ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*model.LabTest, error)
		ListByVisitTx(ctx context.Context, tx *sqlx.Tx, visitID uuid.UUID) ([]*model.LabTest, error)
		CountIncompleteByVisitTx(ctx context.Context, tx *sqlx.Tx, visitID uuid.UUID) (int, error)
	}

	BillingRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, billing *model.Billing) error
		Get(ctx context.Context, id uuid.UUID) (*model.Billing, error)
		GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Billing, error)
		MarkPaidTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, paidAt time.Time) error
		ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*model.Billing, error)
		ListByVisitTx(ctx context.Context, tx *sqlx.Tx, visitID uuid.UUID) ([]*model.Billing, error)
		CountUnpaidByVisitTx(ctx context.Context, tx *sqlx.Tx, visitID uuid.UUID) (int, error)
	}

	OutboxRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
