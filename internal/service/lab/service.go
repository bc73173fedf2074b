package lab

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/repository"
	"github.com/meditracker/patientflow-api/internal/service/notification"
)

type Service struct {
	txm      repository.TxManager
	visits   repository.VisitRepository
	patients repository.PatientRepository
	labTests repository.LabTestRepository
	billings repository.BillingRepository
	events   *notification.Events
}

func NewService(
	txm repository.TxManager,
	visits repository.VisitRepository,
	patients repository.PatientRepository,
	labTests repository.LabTestRepository,
	billings repository.BillingRepository,
	events *notification.Events,
) *Service {
	return &Service{
		txm:      txm,
		visits:   visits,
		patients: patients,
		labTests: labTests,
		billings: billings,
		events:   events,
	}
}

// OrderTest creates the lab test and its LAB_TEST billing line atomically;
// both commit or neither does.
func (s *Service) OrderTest(ctx context.Context, visitID uuid.UUID, req *model.OrderLabTestRequest) (*model.LabTest, error) {
	visit, err := s.visits.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}

	test := &model.LabTest{
		Base:     model.Base{ID: uuid.New()},
		VisitID:  visit.ID,
		TestName: req.TestName,
		Status:   model.LabTestStatusOrdered,
		Price:    req.Price,
	}

	err = s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.labTests.CreateTx(ctx, tx, test); err != nil {
			return err
		}
		billing := &model.Billing{
			Base:        model.Base{ID: uuid.New()},
			VisitID:     visit.ID,
			Type:        model.BillingTypeLabTest,
			Description: "Lab Test - " + req.TestName,
			Amount:      req.Price,
			Status:      model.BillingStatusPending,
		}
		return s.billings.CreateTx(ctx, tx, billing)
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

// UpdateStatus overwrites the lab test status unconditionally; transitions
// are not validated. Completion stamps the timestamp, stores the result text
// and notifies the patient.
func (s *Service) UpdateStatus(ctx context.Context, labTestID uuid.UUID, req *model.UpdateLabStatusRequest) (*model.LabTest, error) {
	var test *model.LabTest

	err := s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		t, err := s.labTests.GetForUpdateTx(ctx, tx, labTestID)
		if err != nil {
			return err
		}

		t.Status = req.Status
		if req.Status == model.LabTestStatusCompleted {
			now := time.Now()
			t.CompletedAt = &now
			t.ResultText = req.ResultText

			visit, err := s.visits.Get(ctx, t.VisitID)
			if err != nil {
				return err
			}
			patient, err := s.patients.Get(ctx, visit.PatientID)
			if err != nil {
				return err
			}
			s.events.QueueBestEffortTx(ctx, tx, patient,
				"Test Results Ready", t.TestName+" results are available.")
		}

		if err := s.labTests.UpdateTx(ctx, tx, t); err != nil {
			return err
		}
		test = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

// GetByVisit lists the lab tests ordered for a visit.
func (s *Service) GetByVisit(ctx context.Context, visitID uuid.UUID) ([]*model.LabTest, error) {
	if _, err := s.visits.Get(ctx, visitID); err != nil {
		return nil, err
	}
	return s.labTests.ListByVisit(ctx, visitID)
}
