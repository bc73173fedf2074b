package visit

import (
	"context"
	"testing"
	"time"

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
	doctors  *servicetest.DoctorRepo
	visits   *servicetest.VisitRepo
	labTests *servicetest.LabTestRepo
	billings *servicetest.BillingRepo
	outbox   *servicetest.OutboxRepo

	patient *model.Patient
	doctor  *model.Doctor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		patients: &servicetest.PatientRepo{},
		doctors:  &servicetest.DoctorRepo{},
		visits:   &servicetest.VisitRepo{},
		labTests: &servicetest.LabTestRepo{},
		billings: &servicetest.BillingRepo{},
		outbox:   &servicetest.OutboxRepo{},
	}
	f.svc = NewService(
		&servicetest.TxManager{},
		f.patients, f.doctors, f.visits, f.labTests, f.billings,
		notification.NewEvents(f.outbox),
		FirstByDepartment(f.doctors),
		decimal.NewFromInt(300),
		nil,
	)

	f.patient = &model.Patient{
		Base:     model.Base{ID: uuid.New()},
		RFIDTag:  "TAG-100",
		FullName: "John Smith",
	}
	require.NoError(t, f.patients.CreateTx(context.Background(), nil, f.patient))

	f.doctor = &model.Doctor{
		Base:            model.Base{ID: uuid.New()},
		FullName:        "Alice Heart",
		Department:      model.DepartmentCardiology,
		RoomNumber:      "205",
		Floor:           "2",
		ConsultationFee: decimal.NewFromInt(300),
	}
	require.NoError(t, f.doctors.Create(context.Background(), f.doctor))

	return f
}

func TestStartVisitCreatesConsultationBilling(t *testing.T) {
	f := newFixture(t)

	v, err := f.svc.StartVisit(context.Background(), "TAG-100", model.DepartmentCardiology)
	require.NoError(t, err)

	assert.Equal(t, model.VisitStatusRegistered, v.Status)
	assert.Equal(t, f.patient.ID, v.PatientID)
	assert.Equal(t, f.doctor.ID, v.DoctorID)

	require.Len(t, f.billings.Billings, 1)
	bill := f.billings.Billings[0]
	assert.Equal(t, model.BillingTypeConsultation, bill.Type)
	assert.Equal(t, "Consultation - Alice Heart", bill.Description)
	assert.True(t, bill.Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, model.BillingStatusPending, bill.Status)

	assert.Equal(t, []string{"Visit Started"}, f.outbox.Titles())
}

func TestStartVisitUnknownRFID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartVisit(context.Background(), "NO-SUCH-TAG", model.DepartmentCardiology)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, f.visits.Visits)
	assert.Empty(t, f.billings.Billings)
}

func TestStartVisitNoDoctorInDepartment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartVisit(context.Background(), "TAG-100", model.DepartmentNeurology)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, f.visits.Visits)
}

func TestRecordVitalsAdvancesStatus(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.StartVisit(context.Background(), "TAG-100", model.DepartmentCardiology)
	require.NoError(t, err)

	updated, err := f.svc.RecordVitals(context.Background(), v.ID, &model.RecordVitalsRequest{
		TemperatureCelsius: 37.5,
		BPSystolic:         130,
		BPDiastolic:        85,
		HeartRate:          78,
	})
	require.NoError(t, err)

	assert.Equal(t, model.VisitStatusVitals, updated.Status)
	require.NotNil(t, updated.TemperatureCelsius)
	assert.Equal(t, 37.5, *updated.TemperatureCelsius)
	require.NotNil(t, updated.HeartRate)
	assert.Equal(t, 78, *updated.HeartRate)
}

func TestAddConsultationBranchesOnTestsNeeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v1, err := f.svc.StartVisit(ctx, "TAG-100", model.DepartmentCardiology)
	require.NoError(t, err)
	withTests, err := f.svc.AddConsultation(ctx, v1.ID, &model.ConsultationRequest{
		Diagnosis:   "Arrhythmia",
		Medications: "Beta blockers",
		TestsNeeded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.VisitStatusLabPending, withTests.Status)
	assert.Equal(t, "Arrhythmia", withTests.Diagnosis)

	withoutTests, err := f.svc.AddConsultation(ctx, v1.ID, &model.ConsultationRequest{
		Diagnosis:   "Arrhythmia",
		TestsNeeded: false,
	})
	require.NoError(t, err)
	assert.Equal(t, model.VisitStatusBillingPending, withoutTests.Status)
}

func TestDischargeRejectsUnpaidBills(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StartVisit(context.Background(), "TAG-100", model.DepartmentCardiology)
	require.NoError(t, err)

	_, err = f.svc.Discharge(context.Background(), "TAG-100")
	assert.True(t, apperrors.IsConflict(err), "unpaid consultation bill must block discharge")
}

func TestDischargeRejectsIncompleteLabTests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.StartVisit(ctx, "TAG-100", model.DepartmentCardiology)
	require.NoError(t, err)

	now := time.Now()
	f.billings.Billings[0].Status = model.BillingStatusPaid
	f.billings.Billings[0].PaidAt = &now

	require.NoError(t, f.labTests.CreateTx(ctx, nil, &model.LabTest{
		Base:     model.Base{ID: uuid.New()},
		VisitID:  v.ID,
		TestName: "ECG",
		Status:   model.LabTestStatusOrdered,
		Price:    decimal.NewFromInt(50),
	}))

	_, err = f.svc.Discharge(ctx, "TAG-100")
	assert.True(t, apperrors.IsConflict(err), "incomplete lab test must block discharge")
}

func TestDischargeNoActiveVisit(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Discharge(context.Background(), "TAG-100")
	assert.True(t, apperrors.IsConflict(err))
}

func TestDischargeCompletesVisitAndBuildsSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.StartVisit(ctx, "TAG-100", model.DepartmentCardiology)
	require.NoError(t, err)
	_, err = f.svc.AddConsultation(ctx, v.ID, &model.ConsultationRequest{
		Diagnosis: "Healthy", TestsNeeded: false,
	})
	require.NoError(t, err)

	now := time.Now()
	f.billings.Billings[0].Status = model.BillingStatusPaid
	f.billings.Billings[0].PaidAt = &now

	summary, err := f.svc.Discharge(ctx, "TAG-100")
	require.NoError(t, err)

	assert.Equal(t, model.VisitStatusCompleted, summary.Status)
	assert.Equal(t, "John Smith", summary.PatientName)
	assert.Equal(t, "Alice Heart", summary.DoctorName)
	assert.Equal(t, "Healthy", summary.Diagnosis)
	assert.NotNil(t, summary.DischargedAt)
	assert.True(t, summary.Billing.FullyPaid)
	assert.True(t, summary.Billing.TotalPaid.Equal(decimal.NewFromInt(300)))
	assert.True(t, summary.Billing.TotalDue.IsZero())

	assert.Contains(t, f.outbox.Titles(), "Discharge Summary - Visit Completed")
}

func TestGetVisitSummaryTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.StartVisit(ctx, "TAG-100", model.DepartmentCardiology)
	require.NoError(t, err)

	require.NoError(t, f.billings.CreateTx(ctx, nil, &model.Billing{
		Base:        model.Base{ID: uuid.New()},
		VisitID:     v.ID,
		Type:        model.BillingTypeLabTest,
		Description: "Lab Test - ECG",
		Amount:      decimal.NewFromInt(50),
		Status:      model.BillingStatusPending,
	}))

	summary, err := f.svc.GetVisitSummary(ctx, v.ID)
	require.NoError(t, err)

	assert.Len(t, summary.Billing.Items, 2)
	assert.True(t, summary.Billing.TotalAmount.Equal(decimal.NewFromInt(350)))
	assert.True(t, summary.Billing.TotalDue.Equal(decimal.NewFromInt(350)))
	assert.False(t, summary.Billing.FullyPaid)
	assert.Nil(t, summary.DischargedAt)
}

func TestGetPatientVisitHistoryMostRecentFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.StartVisit(ctx, "TAG-100", model.DepartmentCardiology)
	require.NoError(t, err)
	// Separate creation instants so ordering is deterministic.
	f.visits.Visits[0].CreatedAt = time.Now().Add(-time.Hour)

	second, err := f.svc.StartVisit(ctx, "TAG-100", model.DepartmentCardiology)
	require.NoError(t, err)

	history, err := f.svc.GetPatientVisitHistory(ctx, "TAG-100")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].VisitID)
	assert.Equal(t, first.ID, history[1].VisitID)
}
