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

type doctorRepository struct {
	db *sqlx.DB
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (id, full_name, department, room_number, floor, consultation_fee, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.FullName,
		doctor.Department,
		doctor.RoomNumber,
		doctor.Floor,
		doctor.ConsultationFee,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE id = $1`
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("doctor", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET full_name = $1, department = $2, room_number = $3, floor = $4, consultation_fee = $5, updated_at = $6
		WHERE id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		doctor.FullName,
		doctor.Department,
		doctor.RoomNumber,
		doctor.Floor,
		doctor.ConsultationFee,
		time.Now(),
		doctor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("doctor", sql.ErrNoRows)
	}
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM doctors WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("doctor", sql.ErrNoRows)
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	query := `SELECT * FROM doctors ORDER BY full_name`
	var doctors []*model.Doctor
	err := r.db.SelectContext(ctx, &doctors, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ListByDepartment(ctx context.Context, department model.Department) ([]*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE department = $1 ORDER BY full_name`
	var doctors []*model.Doctor
	err := r.db.SelectContext(ctx, &doctors, query, department)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors by department: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) FirstByDepartment(ctx context.Context, department model.Department) (*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE department = $1 ORDER BY created_at LIMIT 1`
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, query, department)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("doctor for department", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor for department: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM doctors`)
	if err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return count, nil
}
