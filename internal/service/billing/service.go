package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/repository"
	"github.com/meditracker/patientflow-api/internal/service/notification"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
	"github.com/meditracker/patientflow-api/pkg/metrics"
)

type Service struct {
	txm      repository.TxManager
	patients repository.PatientRepository
	wallets  repository.WalletRepository
	visits   repository.VisitRepository
	billings repository.BillingRepository
	events   *notification.Events
	metrics  *metrics.Metrics
}

func NewService(
	txm repository.TxManager,
	patients repository.PatientRepository,
	wallets repository.WalletRepository,
	visits repository.VisitRepository,
	billings repository.BillingRepository,
	events *notification.Events,
	m *metrics.Metrics,
) *Service {
	return &Service{
		txm:      txm,
		patients: patients,
		wallets:  wallets,
		visits:   visits,
		billings: billings,
		events:   events,
		metrics:  m,
	}
}

// PayWithRFID debits the patient's wallet for one billing line. Paying an
// already-PAID line is a no-op. When the payment settles the visit's last
// unpaid line, the visit auto-completes; only billing is checked here, lab
// completion is enforced at discharge.
func (s *Service) PayWithRFID(ctx context.Context, rfidTag string, billingID uuid.UUID) error {
	paid := false

	err := s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		patient, err := s.patients.GetByRFIDTx(ctx, tx, rfidTag)
		if err != nil {
			return err
		}
		wallet, err := s.wallets.GetByPatientForUpdateTx(ctx, tx, patient.ID)
		if err != nil {
			return err
		}
		bill, err := s.billings.GetForUpdateTx(ctx, tx, billingID)
		if err != nil {
			return err
		}

		if bill.Status == model.BillingStatusPaid {
			return nil
		}

		if wallet.Balance.LessThan(bill.Amount) {
			return apperrors.Conflict("insufficient wallet balance", nil)
		}

		if err := s.wallets.UpdateBalanceTx(ctx, tx, wallet.ID, wallet.Balance.Sub(bill.Amount)); err != nil {
			return err
		}
		if err := s.billings.MarkPaidTx(ctx, tx, bill.ID, time.Now()); err != nil {
			return err
		}
		paid = true

		s.events.QueueBestEffortTx(ctx, tx, patient, "Payment Success",
			fmt.Sprintf("Paid %s for %s", bill.Amount.StringFixed(2), bill.Description))

		unpaid, err := s.billings.CountUnpaidByVisitTx(ctx, tx, bill.VisitID)
		if err != nil {
			return err
		}
		if unpaid == 0 {
			if err := s.visits.UpdateStatusTx(ctx, tx, bill.VisitID, model.VisitStatusCompleted); err != nil {
				return err
			}
			s.events.QueueBestEffortTx(ctx, tx, patient, "Visit Completed", "Thank you for visiting.")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if paid && s.metrics != nil {
		s.metrics.PaymentsProcessed.Inc()
	}
	return nil
}

// GetByVisit lists every billing line of a visit.
func (s *Service) GetByVisit(ctx context.Context, visitID uuid.UUID) ([]*model.Billing, error) {
	if _, err := s.visits.Get(ctx, visitID); err != nil {
		return nil, err
	}
	return s.billings.ListByVisit(ctx, visitID)
}
