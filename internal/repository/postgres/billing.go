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

type billingRepository struct {
	db *sqlx.DB
}

func NewBillingRepository(db *sqlx.DB) repository.BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, billing *model.Billing) error {
	query := `
		INSERT INTO billings (id, visit_id, type, description, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	billing.CreatedAt = time.Now()
	billing.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		billing.ID,
		billing.VisitID,
		billing.Type,
		billing.Description,
		billing.Amount,
		billing.Status,
		billing.CreatedAt,
		billing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create billing: %w", err)
	}
	return nil
}

func (r *billingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Billing, error) {
	query := `SELECT * FROM billings WHERE id = $1`
	var billing model.Billing
	err := r.db.GetContext(ctx, &billing, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("billing item", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get billing: %w", err)
	}
	return &billing, nil
}

func (r *billingRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Billing, error) {
	query := `SELECT * FROM billings WHERE id = $1 FOR UPDATE`
	var billing model.Billing
	err := tx.GetContext(ctx, &billing, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("billing item", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock billing: %w", err)
	}
	return &billing, nil
}

// MarkPaidTx sets the row to PAID and stamps paid_at exactly once.
func (r *billingRepository) MarkPaidTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, paidAt time.Time) error {
	query := `
		UPDATE billings
		SET status = $1, paid_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	_, err := tx.ExecContext(ctx, query,
		model.BillingStatusPaid,
		paidAt,
		time.Now(),
		id,
		model.BillingStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark billing paid: %w", err)
	}
	return nil
}

func (r *billingRepository) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*model.Billing, error) {
	return r.listByVisit(ctx, r.db, visitID)
}

func (r *billingRepository) ListByVisitTx(ctx context.Context, tx *sqlx.Tx, visitID uuid.UUID) ([]*model.Billing, error) {
	return r.listByVisit(ctx, tx, visitID)
}

func (r *billingRepository) listByVisit(ctx context.Context, q sqlx.QueryerContext, visitID uuid.UUID) ([]*model.Billing, error) {
	query := `SELECT * FROM billings WHERE visit_id = $1 ORDER BY created_at`
	var billings []*model.Billing
	err := sqlx.SelectContext(ctx, q, &billings, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list billings: %w", err)
	}
	return billings, nil
}

func (r *billingRepository) CountUnpaidByVisitTx(ctx context.Context, tx *sqlx.Tx, visitID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM billings WHERE visit_id = $1 AND status <> $2`
	var count int
	err := tx.GetContext(ctx, &count, query, visitID, model.BillingStatusPaid)
	if err != nil {
		return 0, fmt.Errorf("failed to count unpaid billings: %w", err)
	}
	return count, nil
}
