// Package servicetest provides in-memory repository fakes shared by the
// service unit tests. The fakes preserve insertion order so "first" and
// "most recent" queries behave like their SQL counterparts.
package servicetest

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/meditracker/patientflow-api/internal/model"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
)

// TxManager runs the function with a nil transaction. The fakes ignore the
// tx argument, so service logic under test behaves as if committed.
type TxManager struct {
	// Calls counts WithTx invocations.
	Calls int
}

func (m *TxManager) WithTx(_ context.Context, fn func(*sqlx.Tx) error) error {
	m.Calls++
	return fn(nil)
}

type PatientRepo struct {
	Patients []*model.Patient
}

func (r *PatientRepo) CreateTx(_ context.Context, _ *sqlx.Tx, patient *model.Patient) error {
	now := time.Now()
	patient.CreatedAt = now
	patient.UpdatedAt = now
	r.Patients = append(r.Patients, patient)
	return nil
}

func (r *PatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	for _, p := range r.Patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("patient", nil)
}

func (r *PatientRepo) GetByRFID(_ context.Context, rfidTag string) (*model.Patient, error) {
	for _, p := range r.Patients {
		if p.RFIDTag == rfidTag {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("patient", nil)
}

func (r *PatientRepo) GetByRFIDTx(ctx context.Context, _ *sqlx.Tx, rfidTag string) (*model.Patient, error) {
	return r.GetByRFID(ctx, rfidTag)
}

func (r *PatientRepo) List(_ context.Context) ([]*model.Patient, error) {
	return append([]*model.Patient(nil), r.Patients...), nil
}

type DoctorRepo struct {
	Doctors []*model.Doctor
}

func (r *DoctorRepo) Create(_ context.Context, doctor *model.Doctor) error {
	now := time.Now()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now
	r.Doctors = append(r.Doctors, doctor)
	return nil
}

func (r *DoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	for _, d := range r.Doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperrors.NotFound("doctor", nil)
}

func (r *DoctorRepo) Update(_ context.Context, doctor *model.Doctor) error {
	for i, d := range r.Doctors {
		if d.ID == doctor.ID {
			doctor.UpdatedAt = time.Now()
			r.Doctors[i] = doctor
			return nil
		}
	}
	return apperrors.NotFound("doctor", nil)
}

func (r *DoctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, d := range r.Doctors {
		if d.ID == id {
			r.Doctors = append(r.Doctors[:i], r.Doctors[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("doctor", nil)
}

func (r *DoctorRepo) List(_ context.Context) ([]*model.Doctor, error) {
	return append([]*model.Doctor(nil), r.Doctors...), nil
}

func (r *DoctorRepo) ListByDepartment(_ context.Context, department model.Department) ([]*model.Doctor, error) {
	var out []*model.Doctor
	for _, d := range r.Doctors {
		if d.Department == department {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *DoctorRepo) FirstByDepartment(_ context.Context, department model.Department) (*model.Doctor, error) {
	for _, d := range r.Doctors {
		if d.Department == department {
			return d, nil
		}
	}
	return nil, apperrors.NotFound("doctor", nil)
}

func (r *DoctorRepo) Count(_ context.Context) (int, error) {
	return len(r.Doctors), nil
}

type WalletRepo struct {
	Wallets []*model.Wallet
}

func (r *WalletRepo) CreateTx(_ context.Context, _ *sqlx.Tx, wallet *model.Wallet) error {
	now := time.Now()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now
	r.Wallets = append(r.Wallets, wallet)
	return nil
}

func (r *WalletRepo) GetByPatient(_ context.Context, patientID uuid.UUID) (*model.Wallet, error) {
	for _, w := range r.Wallets {
		if w.PatientID == patientID {
			return w, nil
		}
	}
	return nil, apperrors.NotFound("wallet", nil)
}

func (r *WalletRepo) GetByPatientForUpdateTx(ctx context.Context, _ *sqlx.Tx, patientID uuid.UUID) (*model.Wallet, error) {
	return r.GetByPatient(ctx, patientID)
}

func (r *WalletRepo) UpdateBalanceTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	for _, w := range r.Wallets {
		if w.ID == id {
			w.Balance = balance
			w.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperrors.NotFound("wallet", nil)
}

type VisitRepo struct {
	Visits []*model.Visit
}

func (r *VisitRepo) CreateTx(_ context.Context, _ *sqlx.Tx, visit *model.Visit) error {
	now := time.Now()
	visit.CreatedAt = now
	visit.UpdatedAt = now
	r.Visits = append(r.Visits, visit)
	return nil
}

func (r *VisitRepo) Get(_ context.Context, id uuid.UUID) (*model.Visit, error) {
	for _, v := range r.Visits {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, apperrors.NotFound("visit", nil)
}

func (r *VisitRepo) GetForUpdateTx(ctx context.Context, _ *sqlx.Tx, id uuid.UUID) (*model.Visit, error) {
	return r.Get(ctx, id)
}

func (r *VisitRepo) UpdateTx(_ context.Context, _ *sqlx.Tx, visit *model.Visit) error {
	for i, v := range r.Visits {
		if v.ID == visit.ID {
			visit.UpdatedAt = time.Now()
			r.Visits[i] = visit
			return nil
		}
	}
	return apperrors.NotFound("visit", nil)
}

func (r *VisitRepo) UpdateStatusTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, status model.VisitStatus) error {
	for _, v := range r.Visits {
		if v.ID == id {
			v.Status = status
			v.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperrors.NotFound("visit", nil)
}

func (r *VisitRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Visit, error) {
	var out []*model.Visit
	for _, v := range r.Visits {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *VisitRepo) GetActiveByPatientForUpdateTx(ctx context.Context, _ *sqlx.Tx, patientID uuid.UUID) (*model.Visit, error) {
	visits, _ := r.ListByPatient(ctx, patientID)
	for _, v := range visits {
		if v.Status != model.VisitStatusCompleted {
			return v, nil
		}
	}
	return nil, apperrors.NotFound("visit", nil)
}

type LabTestRepo struct {
	Tests []*model.LabTest
}

func (r *LabTestRepo) CreateTx(_ context.Context, _ *sqlx.Tx, test *model.LabTest) error {
	now := time.Now()
	test.CreatedAt = now
	test.UpdatedAt = now
	r.Tests = append(r.Tests, test)
	return nil
}

func (r *LabTestRepo) Get(_ context.Context, id uuid.UUID) (*model.LabTest, error) {
	for _, t := range r.Tests {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperrors.NotFound("lab test", nil)
}

func (r *LabTestRepo) GetForUpdateTx(ctx context.Context, _ *sqlx.Tx, id uuid.UUID) (*model.LabTest, error) {
	return r.Get(ctx, id)
}

func (r *LabTestRepo) UpdateTx(_ context.Context, _ *sqlx.Tx, test *model.LabTest) error {
	for i, t := range r.Tests {
		if t.ID == test.ID {
			test.UpdatedAt = time.Now()
			r.Tests[i] = test
			return nil
		}
	}
	return apperrors.NotFound("lab test", nil)
}

func (r *LabTestRepo) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*model.LabTest, error) {
	var out []*model.LabTest
	for _, t := range r.Tests {
		if t.VisitID == visitID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *LabTestRepo) ListByVisitTx(ctx context.Context, _ *sqlx.Tx, visitID uuid.UUID) ([]*model.LabTest, error) {
	return r.ListByVisit(ctx, visitID)
}

func (r *LabTestRepo) CountIncompleteByVisitTx(ctx context.Context, _ *sqlx.Tx, visitID uuid.UUID) (int, error) {
	tests, _ := r.ListByVisit(ctx, visitID)
	count := 0
	for _, t := range tests {
		if t.Status != model.LabTestStatusCompleted {
			count++
		}
	}
	return count, nil
}

type BillingRepo struct {
	Billings []*model.Billing
}

func (r *BillingRepo) CreateTx(_ context.Context, _ *sqlx.Tx, billing *model.Billing) error {
	now := time.Now()
	billing.CreatedAt = now
	billing.UpdatedAt = now
	r.Billings = append(r.Billings, billing)
	return nil
}

func (r *BillingRepo) Get(_ context.Context, id uuid.UUID) (*model.Billing, error) {
	for _, b := range r.Billings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, apperrors.NotFound("billing", nil)
}

func (r *BillingRepo) GetForUpdateTx(ctx context.Context, _ *sqlx.Tx, id uuid.UUID) (*model.Billing, error) {
	return r.Get(ctx, id)
}

func (r *BillingRepo) MarkPaidTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, paidAt time.Time) error {
	for _, b := range r.Billings {
		if b.ID == id && b.Status == model.BillingStatusPending {
			b.Status = model.BillingStatusPaid
			b.PaidAt = &paidAt
			b.UpdatedAt = paidAt
			return nil
		}
	}
	return apperrors.NotFound("billing", nil)
}

func (r *BillingRepo) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*model.Billing, error) {
	var out []*model.Billing
	for _, b := range r.Billings {
		if b.VisitID == visitID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BillingRepo) ListByVisitTx(ctx context.Context, _ *sqlx.Tx, visitID uuid.UUID) ([]*model.Billing, error) {
	return r.ListByVisit(ctx, visitID)
}

func (r *BillingRepo) CountUnpaidByVisitTx(ctx context.Context, _ *sqlx.Tx, visitID uuid.UUID) (int, error) {
	billings, _ := r.ListByVisit(ctx, visitID)
	count := 0
	for _, b := range billings {
		if b.Status == model.BillingStatusPending {
			count++
		}
	}
	return count, nil
}

type OutboxRepo struct {
	Events []*model.OutboxEvent
	// FailCreate makes CreateTx return an error, for best-effort paths.
	FailCreate error
}

func (r *OutboxRepo) CreateTx(_ context.Context, _ *sqlx.Tx, event *model.OutboxEvent) error {
	if r.FailCreate != nil {
		return r.FailCreate
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	r.Events = append(r.Events, event)
	return nil
}

func (r *OutboxRepo) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	var out []*model.OutboxEvent
	for _, e := range r.Events {
		if e.Status == model.OutboxStatusPending {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *OutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	for _, e := range r.Events {
		if e.ID == id {
			e.Status = status
			e.ErrorMessage = errorMessage
			e.UpdatedAt = time.Now()
			if status == model.OutboxStatusProcessed {
				now := time.Now()
				e.ProcessedAt = &now
			}
			return nil
		}
	}
	return apperrors.NotFound("outbox event", nil)
}

func (r *OutboxRepo) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	var kept []*model.OutboxEvent
	var deleted int64
	for _, e := range r.Events {
		if e.Status == model.OutboxStatusProcessed && e.CreatedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.Events = kept
	return deleted, nil
}

// Titles decodes the queued notification payloads and returns their titles in
// queue order.
func (r *OutboxRepo) Titles() []string {
	var titles []string
	for _, e := range r.Events {
		var n model.PatientNotification
		if err := json.Unmarshal(e.Payload, &n); err == nil {
			titles = append(titles, n.Title)
		}
	}
	return titles
}
