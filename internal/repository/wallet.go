package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/infra"
)

type walletRepo struct{}

// NewWalletRepository returns a pgx-backed WalletRepository.
func NewWalletRepository() WalletRepository {
	return &walletRepo{}
}

const walletColumns = `id, seller_id, balance, total_earned, total_withdrawn, status, bank, last_transaction_at, created_at, updated_at`

func (r *walletRepo) FindBySellerID(ctx context.Context, db DBTX, sellerID uuid.UUID) (*domain.Wallet, error) {
	row := db.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets WHERE seller_id = $1`, sellerID)
	return scanWallet(row)
}

func (r *walletRepo) LockBySellerForUpdate(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (*domain.Wallet, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets WHERE seller_id = $1 FOR UPDATE`, sellerID)
	return scanWallet(row)
}

func (r *walletRepo) Create(ctx context.Context, db DBTX, w *domain.Wallet) error {
	var bank []byte
	if w.Bank != nil {
		bank, _ = json.Marshal(w.Bank)
	}
	_, err := db.Exec(ctx, `
		INSERT INTO wallets (id, seller_id, balance, total_earned, total_withdrawn, status, bank)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.SellerID,
		infra.Int64ToNumeric(w.Balance),
		infra.Int64ToNumeric(w.TotalEarned),
		infra.Int64ToNumeric(w.TotalWithdrawn),
		string(w.Status), bank,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// UpdateBalances applies server-side arithmetic so the delta lands on the
// locked row, never on a stale read.
func (r *walletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta domain.BalanceUpdate) (*domain.Wallet, error) {
	row := tx.QueryRow(ctx, `
		UPDATE wallets SET
			balance = balance + $2,
			total_earned = total_earned + $3,
			total_withdrawn = total_withdrawn + $4,
			last_transaction_at = now(),
			updated_at = now()
		WHERE id = $1
		RETURNING `+walletColumns,
		walletID,
		infra.Int64ToNumeric(delta.Balance),
		infra.Int64ToNumeric(delta.TotalEarned),
		infra.Int64ToNumeric(delta.TotalWithdrawn),
	)
	return scanWallet(row)
}

func (r *walletRepo) UpdateBank(ctx context.Context, db DBTX, walletID uuid.UUID, bank domain.BankDetails) error {
	payload, _ := json.Marshal(bank)
	_, err := db.Exec(ctx, `
		UPDATE wallets SET bank = $2, updated_at = now() WHERE id = $1`, walletID, payload)
	return err
}

func (r *walletRepo) SetStatus(ctx context.Context, db DBTX, walletID uuid.UUID, status domain.WalletStatus) error {
	_, err := db.Exec(ctx, `
		UPDATE wallets SET status = $2, updated_at = now() WHERE id = $1`, walletID, string(status))
	return err
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	var balNum, earnedNum, withdrawnNum pgtype.Numeric
	var bank []byte
	err := row.Scan(&w.ID, &w.SellerID, &balNum, &earnedNum, &withdrawnNum,
		&w.Status, &bank, &w.LastTransactionAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}

	var convErr error
	w.Balance, convErr = infra.NumericToInt64(balNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert balance: %w", convErr)
	}
	w.TotalEarned, convErr = infra.NumericToInt64(earnedNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert total_earned: %w", convErr)
	}
	w.TotalWithdrawn, convErr = infra.NumericToInt64(withdrawnNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert total_withdrawn: %w", convErr)
	}

	if len(bank) > 0 {
		var b domain.BankDetails
		if err := json.Unmarshal(bank, &b); err == nil {
			w.Bank = &b
		}
	}
	return &w, nil
}
