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

type labTestRepository struct {
	db *sqlx.DB
}

func NewLabTestRepository(db *sqlx.DB) repository.LabTestRepository {
	return &labTestRepository{db: db}
}

func (r *labTestRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, test *model.LabTest) error {
	query := `
		INSERT INTO lab_tests (id, visit_id, test_name, status, price, result_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	test.CreatedAt = time.Now()
	test.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		test.ID,
		test.VisitID,
		test.TestName,
		test.Status,
		test.Price,
		test.ResultText,
		test.CreatedAt,
		test.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lab test: %w", err)
	}
	return nil
}

func (r *labTestRepository) Get(ctx context.Context, id uuid.UUID) (*model.LabTest, error) {
	query := `SELECT * FROM lab_tests WHERE id = $1`
	var test model.LabTest
	err := r.db.GetContext(ctx, &test, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("lab test", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lab test: %w", err)
	}
	return &test, nil
}

func (r *labTestRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.LabTest, error) {
	query := `SELECT * FROM lab_tests WHERE id = $1 FOR UPDATE`
	var test model.LabTest
	err := tx.GetContext(ctx, &test, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("lab test", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock lab test: %w", err)
	}
	return &test, nil
}

func (r *labTestRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, test *model.LabTest) error {
	query := `
		UPDATE lab_tests
		SET status = $1, result_text = $2, completed_at = $3, updated_at = $4
		WHERE id = $5
	`
	test.UpdatedAt = time.Now()
	_, err := tx.ExecContext(ctx, query,
		test.Status,
		test.ResultText,
		test.CompletedAt,
		test.UpdatedAt,
		test.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lab test: %w", err)
	}
	return nil
}

func (r *labTestRepository) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*model.LabTest, error) {
	return r.listByVisit(ctx, r.db, visitID)
}

func (r *labTestRepository) ListByVisitTx(ctx context.Context, tx *sqlx.Tx, visitID uuid.UUID) ([]*model.LabTest, error) {
	return r.listByVisit(ctx, tx, visitID)
}

func (r *labTestRepository) listByVisit(ctx context.Context, q sqlx.QueryerContext, visitID uuid.UUID) ([]*model.LabTest, error) {
	query := `SELECT * FROM lab_tests WHERE visit_id = $1 ORDER BY created_at`
	var tests []*model.LabTest
	err := sqlx.SelectContext(ctx, q, &tests, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lab tests: %w", err)
	}
	return tests, nil
}

func (r *labTestRepository) CountIncompleteByVisitTx(ctx context.Context, tx *sqlx.Tx, visitID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM lab_tests WHERE visit_id = $1 AND status <> $2`
	var count int
	err := tx.GetContext(ctx, &count, query, visitID, model.LabTestStatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("failed to count incomplete lab tests: %w", err)
	}
	return count, nil
}
