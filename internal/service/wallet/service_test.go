package wallet

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

func newTestService(t *testing.T) (*Service, *model.Patient, *model.Wallet, *servicetest.OutboxRepo) {
	t.Helper()

	patients := &servicetest.PatientRepo{}
	wallets := &servicetest.WalletRepo{}
	outbox := &servicetest.OutboxRepo{}
	svc := NewService(&servicetest.TxManager{}, patients, wallets, notification.NewEvents(outbox))

	ctx := context.Background()
	patient := &model.Patient{
		Base:     model.Base{ID: uuid.New()},
		RFIDTag:  "TAG-400",
		FullName: "John Smith",
	}
	require.NoError(t, patients.CreateTx(ctx, nil, patient))

	wallet := &model.Wallet{
		Base:      model.Base{ID: uuid.New()},
		PatientID: patient.ID,
		Balance:   decimal.NewFromInt(1000),
		Active:    true,
	}
	require.NoError(t, wallets.CreateTx(ctx, nil, wallet))

	return svc, patient, wallet, outbox
}

func TestTopUpAddsToBalance(t *testing.T) {
	svc, _, wallet, outbox := newTestService(t)

	updated, err := svc.TopUp(context.Background(), &model.WalletTopUpRequest{
		RFIDTag:       "TAG-400",
		Amount:        decimal.NewFromInt(250),
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	assert.True(t, updated.Balance.Equal(decimal.NewFromInt(1250)))
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(1250)))
	assert.Equal(t, []string{"Wallet Recharged"}, outbox.Titles())
}

func TestTopUpUnknownRFID(t *testing.T) {
	svc, _, wallet, _ := newTestService(t)

	_, err := svc.TopUp(context.Background(), &model.WalletTopUpRequest{
		RFIDTag: "NO-SUCH-TAG",
		Amount:  decimal.NewFromInt(250),
	})
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestGetByRFID(t *testing.T) {
	svc, _, wallet, _ := newTestService(t)

	got, err := svc.GetByRFID(context.Background(), "TAG-400")
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, got.ID)

	_, err = svc.GetByRFID(context.Background(), "NO-SUCH-TAG")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetByPatientID(t *testing.T) {
	svc, patient, wallet, _ := newTestService(t)

	got, err := svc.GetByPatientID(context.Background(), patient.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, got.ID)

	_, err = svc.GetByPatientID(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
