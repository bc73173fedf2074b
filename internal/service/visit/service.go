package visit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/repository"
	"github.com/meditracker/patientflow-api/internal/service/notification"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
	"github.com/meditracker/patientflow-api/pkg/metrics"
)

// AssignmentPolicy selects the doctor for a new visit in a department.
type AssignmentPolicy func(ctx context.Context, department model.Department) (*model.Doctor, error)

// FirstByDepartment assigns the first doctor found in the department,
// arbitrary tie-break by creation order.
func FirstByDepartment(doctors repository.DoctorRepository) AssignmentPolicy {
	return doctors.FirstByDepartment
}

type Service struct {
	txm          repository.TxManager
	patients     repository.PatientRepository
	doctors      repository.DoctorRepository
	visits       repository.VisitRepository
	labTests     repository.LabTestRepository
	billings     repository.BillingRepository
	events       *notification.Events
	assignDoctor AssignmentPolicy
	defaultFee   decimal.Decimal
	metrics      *metrics.Metrics
}

func NewService(
	txm repository.TxManager,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	visits repository.VisitRepository,
	labTests repository.LabTestRepository,
	billings repository.BillingRepository,
	events *notification.Events,
	assignDoctor AssignmentPolicy,
	defaultFee decimal.Decimal,
	m *metrics.Metrics,
) *Service {
	return &Service{
		txm:          txm,
		patients:     patients,
		doctors:      doctors,
		visits:       visits,
		labTests:     labTests,
		billings:     billings,
		events:       events,
		assignDoctor: assignDoctor,
		defaultFee:   defaultFee,
		metrics:      m,
	}
}

// StartVisit creates a REGISTERED visit for the patient behind the RFID tag
// and a PENDING consultation billing line for the assigned doctor's fee.
func (s *Service) StartVisit(ctx context.Context, rfidTag string, department model.Department) (*model.Visit, error) {
	var visit *model.Visit

	err := s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		patient, err := s.patients.GetByRFIDTx(ctx, tx, rfidTag)
		if err != nil {
			return err
		}

		doctor, err := s.assignDoctor(ctx, department)
		if err != nil {
			return err
		}

		v := &model.Visit{
			Base:       model.Base{ID: uuid.New()},
			PatientID:  patient.ID,
			DoctorID:   doctor.ID,
			Department: department,
			Status:     model.VisitStatusRegistered,
		}
		if err := s.visits.CreateTx(ctx, tx, v); err != nil {
			return err
		}

		fee := doctor.ConsultationFee
		if fee.IsZero() {
			fee = s.defaultFee
		}
		billing := &model.Billing{
			Base:        model.Base{ID: uuid.New()},
			VisitID:     v.ID,
			Type:        model.BillingTypeConsultation,
			Description: "Consultation - " + doctor.FullName,
			Amount:      fee,
			Status:      model.BillingStatusPending,
		}
		if err := s.billings.CreateTx(ctx, tx, billing); err != nil {
			return err
		}

		s.events.QueueBestEffortTx(ctx, tx, patient, "Visit Started", "Assigned to Dr. "+doctor.FullName)

		visit = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.VisitsStarted.Inc()
	}
	return visit, nil
}

// RecordVitals overwrites the vitals fields and sets the status to VITALS
// regardless of the prior status.
func (s *Service) RecordVitals(ctx context.Context, visitID uuid.UUID, req *model.RecordVitalsRequest) (*model.Visit, error) {
	var visit *model.Visit

	err := s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		v, err := s.visits.GetForUpdateTx(ctx, tx, visitID)
		if err != nil {
			return err
		}

		v.TemperatureCelsius = &req.TemperatureCelsius
		v.BPSystolic = &req.BPSystolic
		v.BPDiastolic = &req.BPDiastolic
		v.HeartRate = &req.HeartRate
		v.Status = model.VisitStatusVitals

		if err := s.visits.UpdateTx(ctx, tx, v); err != nil {
			return err
		}
		visit = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

// AddConsultation records the outcome and advances the visit to LAB_PENDING
// when tests are needed, otherwise to BILLING_PENDING.
func (s *Service) AddConsultation(ctx context.Context, visitID uuid.UUID, req *model.ConsultationRequest) (*model.Visit, error) {
	var visit *model.Visit

	err := s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		v, err := s.visits.GetForUpdateTx(ctx, tx, visitID)
		if err != nil {
			return err
		}

		v.Diagnosis = req.Diagnosis
		v.Medications = req.Medications
		if req.TestsNeeded {
			v.Status = model.VisitStatusLabPending
		} else {
			v.Status = model.VisitStatusBillingPending
		}

		if err := s.visits.UpdateTx(ctx, tx, v); err != nil {
			return err
		}
		visit = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

// Discharge completes the patient's most recent non-completed visit. It
// refuses with a conflict while any billing line is unpaid or any lab test is
// incomplete.
func (s *Service) Discharge(ctx context.Context, rfidTag string) (*model.VisitSummary, error) {
	var summary *model.VisitSummary

	err := s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		patient, err := s.patients.GetByRFIDTx(ctx, tx, rfidTag)
		if err != nil {
			return err
		}

		visit, err := s.visits.GetActiveByPatientForUpdateTx(ctx, tx, patient.ID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.Conflict("no active visit found for patient", err)
			}
			return err
		}

		unpaid, err := s.billings.CountUnpaidByVisitTx(ctx, tx, visit.ID)
		if err != nil {
			return err
		}
		if unpaid > 0 {
			return apperrors.Conflict("cannot discharge patient - unpaid bills exist", nil)
		}

		incomplete, err := s.labTests.CountIncompleteByVisitTx(ctx, tx, visit.ID)
		if err != nil {
			return err
		}
		if incomplete > 0 {
			return apperrors.Conflict("cannot discharge patient - lab tests are not completed", nil)
		}

		if err := s.visits.UpdateStatusTx(ctx, tx, visit.ID, model.VisitStatusCompleted); err != nil {
			return err
		}
		visit.Status = model.VisitStatusCompleted
		visit.UpdatedAt = time.Now()

		doctor, err := s.doctors.Get(ctx, visit.DoctorID)
		if err != nil {
			return err
		}
		labTests, err := s.labTests.ListByVisitTx(ctx, tx, visit.ID)
		if err != nil {
			return err
		}
		billings, err := s.billings.ListByVisitTx(ctx, tx, visit.ID)
		if err != nil {
			return err
		}
		summary = buildSummary(visit, patient, doctor, labTests, billings)

		s.events.QueueBestEffortTx(ctx, tx, patient,
			"Discharge Summary - Visit Completed",
			dischargeBody(patient.FullName, visit.Diagnosis))

		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Discharges.Inc()
	}
	return summary, nil
}

// GetVisitSummary assembles the read-side aggregation for one visit.
func (s *Service) GetVisitSummary(ctx context.Context, visitID uuid.UUID) (*model.VisitSummary, error) {
	visit, err := s.visits.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, visit)
}

// GetPatientVisitHistory returns summaries for every visit of the patient,
// most recent first.
func (s *Service) GetPatientVisitHistory(ctx context.Context, rfidTag string) ([]*model.VisitSummary, error) {
	patient, err := s.patients.GetByRFID(ctx, rfidTag)
	if err != nil {
		return nil, err
	}

	visits, err := s.visits.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.VisitSummary, 0, len(visits))
	for _, v := range visits {
		summary, err := s.summarize(ctx, v)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Service) summarize(ctx context.Context, visit *model.Visit) (*model.VisitSummary, error) {
	patient, err := s.patients.Get(ctx, visit.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.doctors.Get(ctx, visit.DoctorID)
	if err != nil {
		return nil, err
	}
	labTests, err := s.labTests.ListByVisit(ctx, visit.ID)
	if err != nil {
		return nil, err
	}
	billings, err := s.billings.ListByVisit(ctx, visit.ID)
	if err != nil {
		return nil, err
	}
	return buildSummary(visit, patient, doctor, labTests, billings), nil
}

func buildSummary(visit *model.Visit, patient *model.Patient, doctor *model.Doctor, labTests []*model.LabTest, billings []*model.Billing) *model.VisitSummary {
	summary := &model.VisitSummary{
		VisitID:      visit.ID,
		VisitDate:    visit.CreatedAt,
		Status:       visit.Status,
		CreatedAt:    visit.CreatedAt,
		UpdatedAt:    visit.UpdatedAt,
		PatientName:  patient.FullName,
		PatientPhone: patient.Phone,
		RFIDTag:      patient.RFIDTag,
		DoctorName:   doctor.FullName,
		Department:   visit.Department,
		RoomNumber:   doctor.RoomNumber,
		Vitals: model.VitalsInfo{
			TemperatureCelsius: visit.TemperatureCelsius,
			BPSystolic:         visit.BPSystolic,
			BPDiastolic:        visit.BPDiastolic,
			HeartRate:          visit.HeartRate,
		},
		Diagnosis:   visit.Diagnosis,
		Medications: visit.Medications,
	}
	if visit.Status == model.VisitStatusCompleted {
		dischargedAt := visit.UpdatedAt
		summary.DischargedAt = &dischargedAt
	}

	summary.LabTests = make([]model.LabTestInfo, 0, len(labTests))
	for _, lt := range labTests {
		summary.LabTests = append(summary.LabTests, model.LabTestInfo{
			ID:          lt.ID,
			TestName:    lt.TestName,
			Status:      lt.Status,
			Price:       lt.Price,
			ResultText:  lt.ResultText,
			CompletedAt: lt.CompletedAt,
		})
	}

	items := make([]model.BillingItem, 0, len(billings))
	totalAmount := decimal.Zero
	totalPaid := decimal.Zero
	totalDue := decimal.Zero
	for _, b := range billings {
		items = append(items, model.BillingItem{
			ID:          b.ID,
			Type:        b.Type,
			Description: b.Description,
			Amount:      b.Amount,
			Status:      b.Status,
			PaidAt:      b.PaidAt,
		})
		totalAmount = totalAmount.Add(b.Amount)
		switch b.Status {
		case model.BillingStatusPaid:
			totalPaid = totalPaid.Add(b.Amount)
		case model.BillingStatusPending:
			totalDue = totalDue.Add(b.Amount)
		}
	}
	summary.Billing = model.BillingSummary{
		Items:       items,
		TotalAmount: totalAmount,
		TotalPaid:   totalPaid,
		TotalDue:    totalDue,
		FullyPaid:   totalDue.IsZero(),
	}

	return summary
}

func dischargeBody(patientName, diagnosis string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", patientName)
	b.WriteString("Your visit has been successfully completed.\n")
	if strings.TrimSpace(diagnosis) != "" {
		fmt.Fprintf(&b, "Diagnosis: %s\n", diagnosis)
	}
	b.WriteString("\nPlease follow your doctor's advice and take prescribed medications regularly.\n")
	b.WriteString("Your complete visit summary is available in your patient portal.\n\n")
	b.WriteString("Get well soon!\n\n")
	b.WriteString("Thank you for choosing our healthcare services.\n")
	b.WriteString("We wish you a speedy recovery!")
	return b.String()
}
