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

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, rfid_tag, full_name, date_of_birth, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		patient.ID,
		patient.RFIDTag,
		patient.FullName,
		patient.DateOfBirth,
		patient.Phone,
		patient.Email,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByRFID(ctx context.Context, rfidTag string) (*model.Patient, error) {
	return r.getByRFID(ctx, r.db, rfidTag)
}

func (r *patientRepository) GetByRFIDTx(ctx context.Context, tx *sqlx.Tx, rfidTag string) (*model.Patient, error) {
	return r.getByRFID(ctx, tx, rfidTag)
}

func (r *patientRepository) getByRFID(ctx context.Context, q sqlx.QueryerContext, rfidTag string) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE rfid_tag = $1`
	var patient model.Patient
	err := sqlx.GetContext(ctx, q, &patient, query, rfidTag)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient by rfid: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT * FROM patients ORDER BY created_at DESC`
	var patients []*model.Patient
	err := r.db.SelectContext(ctx, &patients, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
