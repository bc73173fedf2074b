package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/repository"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
)

type visitRepository struct {
	db *sqlx.DB
}

func NewVisitRepository(db *sqlx.DB) repository.VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, visit *model.Visit) error {
	query := `
		INSERT INTO visits (id, patient_id, doctor_id, department, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	visit.CreatedAt = time.Now()
	visit.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		visit.ID,
		visit.PatientID,
		visit.DoctorID,
		visit.Department,
		visit.Status,
		visit.CreatedAt,
		visit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

func (r *visitRepository) Get(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	query := `SELECT * FROM visits WHERE id = $1`
	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("visit", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return &visit, nil
}

func (r *visitRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Visit, error) {
	query := `SELECT * FROM visits WHERE id = $1 FOR UPDATE`
	var visit model.Visit
	err := tx.GetContext(ctx, &visit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("visit", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock visit: %w", err)
	}
	return &visit, nil
}

func (r *visitRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, visit *model.Visit) error {
	query := `
		UPDATE visits
		SET status = $1, temperature_celsius = $2, bp_systolic = $3, bp_diastolic = $4,
			heart_rate = $5, diagnosis = $6, medications = $7, updated_at = $8
		WHERE id = $9
	`
	visit.UpdatedAt = time.Now()
	_, err := tx.ExecContext(ctx, query,
		visit.Status,
		visit.TemperatureCelsius,
		visit.BPSystolic,
		visit.BPDiastolic,
		visit.HeartRate,
		visit.Diagnosis,
		visit.Medications,
		visit.UpdatedAt,
		visit.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	return nil
}

func (r *visitRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.VisitStatus) error {
	query := `UPDATE visits SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := tx.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update visit status: %w", err)
	}
	return nil
}

func (r *visitRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Visit, error) {
	query := `SELECT * FROM visits WHERE patient_id = $1 ORDER BY created_at DESC`
	var visits []*model.Visit
	err := r.db.SelectContext(ctx, &visits, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

func (r *visitRepository) GetActiveByPatientForUpdateTx(ctx context.Context, tx *sqlx.Tx, patientID uuid.UUID) (*model.Visit, error) {
	query := `
		SELECT * FROM visits
		WHERE patient_id = $1 AND status <> $2
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`
	var visit model.Visit
	err := tx.GetContext(ctx, &visit, query, patientID, model.VisitStatusCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("active visit", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock active visit: %w", err)
	}
	return &visit, nil
}
