package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/repository"
	"github.com/meditracker/patientflow-api/internal/service/notification"
)

type Service struct {
	txm      repository.TxManager
	patients repository.PatientRepository
	wallets  repository.WalletRepository
	events   *notification.Events
}

func NewService(
	txm repository.TxManager,
	patients repository.PatientRepository,
	wallets repository.WalletRepository,
	events *notification.Events,
) *Service {
	return &Service{
		txm:      txm,
		patients: patients,
		wallets:  wallets,
		events:   events,
	}
}

// TopUp adds the amount to the patient's wallet balance. Amount positivity is
// validated at the boundary.
func (s *Service) TopUp(ctx context.Context, req *model.WalletTopUpRequest) (*model.Wallet, error) {
	var wallet *model.Wallet

	err := s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		patient, err := s.patients.GetByRFIDTx(ctx, tx, req.RFIDTag)
		if err != nil {
			return err
		}
		w, err := s.wallets.GetByPatientForUpdateTx(ctx, tx, patient.ID)
		if err != nil {
			return err
		}

		w.Balance = w.Balance.Add(req.Amount)
		if err := s.wallets.UpdateBalanceTx(ctx, tx, w.ID, w.Balance); err != nil {
			return err
		}

		method := req.PaymentMethod
		if method == "" {
			method = "payment"
		}
		s.events.QueueBestEffortTx(ctx, tx, patient, "Wallet Recharged",
			fmt.Sprintf("%s added to your wallet via %s. New balance: %s",
				req.Amount.StringFixed(2), method, w.Balance.StringFixed(2)))

		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *Service) GetByRFID(ctx context.Context, rfidTag string) (*model.Wallet, error) {
	patient, err := s.patients.GetByRFID(ctx, rfidTag)
	if err != nil {
		return nil, err
	}
	return s.wallets.GetByPatient(ctx, patient.ID)
}

func (s *Service) GetByPatientID(ctx context.Context, patientID uuid.UUID) (*model.Wallet, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.wallets.GetByPatient(ctx, patientID)
}
