package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/repository"
	apperrors "github.com/meditracker/patientflow-api/pkg/errors"
)

type walletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) repository.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, wallet *model.Wallet) error {
	query := `
		INSERT INTO wallets (id, patient_id, balance, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	wallet.CreatedAt = time.Now()
	wallet.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		wallet.ID,
		wallet.PatientID,
		wallet.Balance,
		wallet.Active,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT * FROM wallets WHERE patient_id = $1`
	var wallet model.Wallet
	err := r.db.GetContext(ctx, &wallet, query, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("wallet", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// GetByPatientForUpdateTx locks the wallet row so concurrent debits cannot
// lose updates.
func (r *walletRepository) GetByPatientForUpdateTx(ctx context.Context, tx *sqlx.Tx, patientID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT * FROM wallets WHERE patient_id = $1 FOR UPDATE`
	var wallet model.Wallet
	err := tx.GetContext(ctx, &wallet, query, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("wallet", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) UpdateBalanceTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3`
	_, err := tx.ExecContext(ctx, query, balance, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	return nil
}
