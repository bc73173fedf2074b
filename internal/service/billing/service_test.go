package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/service/notification"
	"github.com/meditracker/patientflow-api/internal/service/servicetest"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
)

type fixture struct {
	svc      *Service
	patients *servicetest.PatientRepo
	wallets  *servicetest.WalletRepo
	visits   *servicetest.VisitRepo
	billings *servicetest.BillingRepo
	outbox   *servicetest.OutboxRepo

	patient *model.Patient
	wallet  *model.Wallet
	visit   *model.Visit
}

func newFixture(t *testing.T, balance int64) *fixture {
	t.Helper()

	f := &fixture{
		patients: &servicetest.PatientRepo{},
		wallets:  &servicetest.WalletRepo{},
		visits:   &servicetest.VisitRepo{},
		billings: &servicetest.BillingRepo{},
		outbox:   &servicetest.OutboxRepo{},
	}
	f.svc = NewService(&servicetest.TxManager{}, f.patients, f.wallets, f.visits, f.billings,
		notification.NewEvents(f.outbox), nil)

	ctx := context.Background()

	f.patient = &model.Patient{
		Base:     model.Base{ID: uuid.New()},
		RFIDTag:  "TAG-300",
		FullName: "John Smith",
	}
	require.NoError(t, f.patients.CreateTx(ctx, nil, f.patient))

	f.wallet = &model.Wallet{
		Base:      model.Base{ID: uuid.New()},
		PatientID: f.patient.ID,
		Balance:   decimal.NewFromInt(balance),
		Active:    true,
	}
	require.NoError(t, f.wallets.CreateTx(ctx, nil, f.wallet))

	f.visit = &model.Visit{
		Base:       model.Base{ID: uuid.New()},
		PatientID:  f.patient.ID,
		DoctorID:   uuid.New(),
		Department: model.DepartmentCardiology,
		Status:     model.VisitStatusBillingPending,
	}
	require.NoError(t, f.visits.CreateTx(ctx, nil, f.visit))

	return f
}

func (f *fixture) addBilling(t *testing.T, billingType model.BillingType, desc string, amount int64) *model.Billing {
	t.Helper()
	bill := &model.Billing{
		Base:        model.Base{ID: uuid.New()},
		VisitID:     f.visit.ID,
		Type:        billingType,
		Description: desc,
		Amount:      decimal.NewFromInt(amount),
		Status:      model.BillingStatusPending,
	}
	require.NoError(t, f.billings.CreateTx(context.Background(), nil, bill))
	return bill
}

func TestPayWithRFIDDebitsWalletAndMarksPaid(t *testing.T) {
	f := newFixture(t, 1000)
	bill := f.addBilling(t, model.BillingTypeConsultation, "Consultation - Alice Heart", 300)
	f.addBilling(t, model.BillingTypeLabTest, "Lab Test - ECG", 50)

	err := f.svc.PayWithRFID(context.Background(), "TAG-300", bill.ID)
	require.NoError(t, err)

	assert.True(t, f.wallet.Balance.Equal(decimal.NewFromInt(700)), "1000 - 300 = 700, got %s", f.wallet.Balance)
	assert.Equal(t, model.BillingStatusPaid, bill.Status)
	assert.NotNil(t, bill.PaidAt)

	// One unpaid line remains, so the visit must not auto-complete.
	assert.Equal(t, model.VisitStatusBillingPending, f.visit.Status)
	assert.Equal(t, []string{"Payment Success"}, f.outbox.Titles())
}

func TestPayWithRFIDAutoCompletesVisitOnLastPayment(t *testing.T) {
	f := newFixture(t, 1000)
	consult := f.addBilling(t, model.BillingTypeConsultation, "Consultation - Alice Heart", 300)
	labBill := f.addBilling(t, model.BillingTypeLabTest, "Lab Test - ECG", 50)
	ctx := context.Background()

	require.NoError(t, f.svc.PayWithRFID(ctx, "TAG-300", consult.ID))
	require.NoError(t, f.svc.PayWithRFID(ctx, "TAG-300", labBill.ID))

	assert.True(t, f.wallet.Balance.Equal(decimal.NewFromInt(650)), "1000 - 300 - 50 = 650, got %s", f.wallet.Balance)
	assert.Equal(t, model.VisitStatusCompleted, f.visit.Status)
	assert.Equal(t, []string{"Payment Success", "Payment Success", "Visit Completed"}, f.outbox.Titles())
}

func TestPayWithRFIDIsIdempotentOnPaidLines(t *testing.T) {
	f := newFixture(t, 1000)
	bill := f.addBilling(t, model.BillingTypeConsultation, "Consultation - Alice Heart", 300)
	ctx := context.Background()

	require.NoError(t, f.svc.PayWithRFID(ctx, "TAG-300", bill.ID))
	balanceAfterFirst := f.wallet.Balance
	eventsAfterFirst := len(f.outbox.Events)

	require.NoError(t, f.svc.PayWithRFID(ctx, "TAG-300", bill.ID), "paying a PAID line is a no-op")

	assert.True(t, f.wallet.Balance.Equal(balanceAfterFirst), "second payment must not debit again")
	assert.Len(t, f.outbox.Events, eventsAfterFirst, "no duplicate notifications")
}

func TestPayWithRFIDInsufficientBalance(t *testing.T) {
	f := newFixture(t, 100)
	bill := f.addBilling(t, model.BillingTypeConsultation, "Consultation - Alice Heart", 300)

	err := f.svc.PayWithRFID(context.Background(), "TAG-300", bill.ID)
	assert.True(t, apperrors.IsConflict(err))

	assert.True(t, f.wallet.Balance.Equal(decimal.NewFromInt(100)), "no debit on failure")
	assert.Equal(t, model.BillingStatusPending, bill.Status)
	assert.Nil(t, bill.PaidAt)
	assert.Empty(t, f.outbox.Titles())
}

func TestPayWithRFIDUnknownBilling(t *testing.T) {
	f := newFixture(t, 1000)

	err := f.svc.PayWithRFID(context.Background(), "TAG-300", uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetByVisit(t *testing.T) {
	f := newFixture(t, 1000)
	f.addBilling(t, model.BillingTypeConsultation, "Consultation - Alice Heart", 300)
	ctx := context.Background()

	bills, err := f.svc.GetByVisit(ctx, f.visit.ID)
	require.NoError(t, err)
	assert.Len(t, bills, 1)

	_, err = f.svc.GetByVisit(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
