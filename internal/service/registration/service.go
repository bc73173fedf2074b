package registration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/repository"
	"github.com/meditracker/patientflow-api/internal/service/notification"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
)

type Service struct {
	txm         repository.TxManager
	patients    repository.PatientRepository
	wallets     repository.WalletRepository
	events      *notification.Events
	seedBalance decimal.Decimal
}

func NewService(
	txm repository.TxManager,
	patients repository.PatientRepository,
	wallets repository.WalletRepository,
	events *notification.Events,
	seedBalance decimal.Decimal,
) *Service {
	return &Service{
		txm:         txm,
		patients:    patients,
		wallets:     wallets,
		events:      events,
		seedBalance: seedBalance,
	}
}

// RegisterOrFetch is idempotent by RFID tag: an existing patient is returned
// unchanged and the remaining request fields are ignored. A new patient gets
// a wallet seeded with the configured starting balance in the same
// transaction.
func (s *Service) RegisterOrFetch(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error) {
	var patient *model.Patient

	err := s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.patients.GetByRFIDTx(ctx, tx, req.RFIDTag)
		if err == nil {
			patient = existing
			return nil
		}
		if !apperrors.IsNotFound(err) {
			return fmt.Errorf("failed to look up patient: %w", err)
		}

		p := &model.Patient{
			Base:        model.Base{ID: uuid.New()},
			RFIDTag:     req.RFIDTag,
			FullName:    req.FullName,
			Phone:       req.Phone,
			Email:       req.Email,
			DateOfBirth: req.DateOfBirth,
		}
		if err := s.patients.CreateTx(ctx, tx, p); err != nil {
			return err
		}

		wallet := &model.Wallet{
			Base:      model.Base{ID: uuid.New()},
			PatientID: p.ID,
			Balance:   s.seedBalance,
			Active:    true,
		}
		if err := s.wallets.CreateTx(ctx, tx, wallet); err != nil {
			return err
		}

		s.events.QueueBestEffortTx(ctx, tx, p, "Registration Successful", "Welcome, "+p.FullName+"!")

		patient = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patient, nil
}
