package lab

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
	visits   *servicetest.VisitRepo
	patients *servicetest.PatientRepo
	labTests *servicetest.LabTestRepo
	billings *servicetest.BillingRepo
	outbox   *servicetest.OutboxRepo

	visit *model.Visit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		visits:   &servicetest.VisitRepo{},
		patients: &servicetest.PatientRepo{},
		labTests: &servicetest.LabTestRepo{},
		billings: &servicetest.BillingRepo{},
		outbox:   &servicetest.OutboxRepo{},
	}
	f.svc = NewService(&servicetest.TxManager{}, f.visits, f.patients, f.labTests, f.billings,
		notification.NewEvents(f.outbox))

	patient := &model.Patient{
		Base:     model.Base{ID: uuid.New()},
		RFIDTag:  "TAG-200",
		FullName: "John Smith",
	}
	require.NoError(t, f.patients.CreateTx(context.Background(), nil, patient))

	f.visit = &model.Visit{
		Base:       model.Base{ID: uuid.New()},
		PatientID:  patient.ID,
		DoctorID:   uuid.New(),
		Department: model.DepartmentCardiology,
		Status:     model.VisitStatusLabPending,
	}
	require.NoError(t, f.visits.CreateTx(context.Background(), nil, f.visit))

	return f
}

func TestOrderTestCreatesBillingLineAtomically(t *testing.T) {
	f := newFixture(t)

	test, err := f.svc.OrderTest(context.Background(), f.visit.ID, &model.OrderLabTestRequest{
		TestName: "ECG",
		Price:    decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	assert.Equal(t, model.LabTestStatusOrdered, test.Status)
	assert.Equal(t, f.visit.ID, test.VisitID)

	require.Len(t, f.billings.Billings, 1)
	bill := f.billings.Billings[0]
	assert.Equal(t, model.BillingTypeLabTest, bill.Type)
	assert.Equal(t, "Lab Test - ECG", bill.Description)
	assert.True(t, bill.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, model.BillingStatusPending, bill.Status)
}

func TestOrderTestUnknownVisit(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.OrderTest(context.Background(), uuid.New(), &model.OrderLabTestRequest{
		TestName: "ECG",
		Price:    decimal.NewFromInt(50),
	})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, f.labTests.Tests)
	assert.Empty(t, f.billings.Billings)
}

func TestUpdateStatusToInProgress(t *testing.T) {
	f := newFixture(t)
	test, err := f.svc.OrderTest(context.Background(), f.visit.ID, &model.OrderLabTestRequest{
		TestName: "ECG", Price: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), test.ID, &model.UpdateLabStatusRequest{
		Status: model.LabTestStatusInProgress,
	})
	require.NoError(t, err)

	assert.Equal(t, model.LabTestStatusInProgress, updated.Status)
	assert.Nil(t, updated.CompletedAt)
	assert.Empty(t, f.outbox.Titles(), "only completion notifies the patient")
}

func TestUpdateStatusToCompletedStampsAndNotifies(t *testing.T) {
	f := newFixture(t)
	test, err := f.svc.OrderTest(context.Background(), f.visit.ID, &model.OrderLabTestRequest{
		TestName: "Blood Panel", Price: decimal.NewFromInt(120),
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), test.ID, &model.UpdateLabStatusRequest{
		Status:     model.LabTestStatusCompleted,
		ResultText: "All values within range",
	})
	require.NoError(t, err)

	assert.Equal(t, model.LabTestStatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
	assert.Equal(t, "All values within range", updated.ResultText)
	assert.Equal(t, []string{"Test Results Ready"}, f.outbox.Titles())
}

func TestGetByVisit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.OrderTest(ctx, f.visit.ID, &model.OrderLabTestRequest{TestName: "ECG", Price: decimal.NewFromInt(50)})
	require.NoError(t, err)
	_, err = f.svc.OrderTest(ctx, f.visit.ID, &model.OrderLabTestRequest{TestName: "X-Ray", Price: decimal.NewFromInt(80)})
	require.NoError(t, err)

	tests, err := f.svc.GetByVisit(ctx, f.visit.ID)
	require.NoError(t, err)
	assert.Len(t, tests, 2)

	_, err = f.svc.GetByVisit(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
