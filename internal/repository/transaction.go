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

type transactionRepo struct{}

// NewTransactionRepository returns a pgx-backed TransactionRepository.
func NewTransactionRepository() TransactionRepository {
	return &transactionRepo{}
}

const txColumns = `id, wallet_id, direction, category, amount, balance_after,
	idempotency_key, description, payment_id, project_id, payout_id, metadata, created_at`

func (r *transactionRepo) FindExisting(ctx context.Context, db DBTX, key domain.LedgerKey) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE wallet_id = $1 AND category = $2 AND idempotency_key = $3`,
		key.WalletID, string(key.Category), key.IdempotencyKey)
	return scanTransaction(row)
}

func (r *transactionRepo) Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, balanceAfter int64) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO transactions
		  (wallet_id, direction, category, amount, balance_after,
		   idempotency_key, description, payment_id, project_id, payout_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+txColumns,
		params.WalletID,
		string(params.Direction),
		string(params.Category),
		infra.Int64ToNumeric(params.Amount),
		infra.Int64ToNumeric(balanceAfter),
		params.IdempotencyKey,
		params.Description,
		params.PaymentID,
		params.ProjectID,
		params.PayoutID,
		ensureJSON(params.Metadata),
	)
	return scanTransaction(row)
}

// InsertUnattached writes a wallet-less accounting entry (platform
// commission). ON CONFLICT DO NOTHING against the partial unique index
// makes re-delivery a no-op; (nil, nil) signals the duplicate.
func (r *transactionRepo) InsertUnattached(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO transactions
		  (wallet_id, direction, category, amount, balance_after,
		   idempotency_key, description, payment_id, project_id, payout_id, metadata)
		VALUES (NULL, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (category, idempotency_key) WHERE wallet_id IS NULL DO NOTHING
		RETURNING `+txColumns,
		string(params.Direction),
		string(params.Category),
		infra.Int64ToNumeric(params.Amount),
		infra.Int64ToNumeric(0),
		params.IdempotencyKey,
		params.Description,
		params.PaymentID,
		params.ProjectID,
		params.PayoutID,
		ensureJSON(params.Metadata),
	)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *transactionRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `
		SELECT `+txColumns+`
		FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *transactionRepo) ListByWallet(ctx context.Context, db DBTX, walletID uuid.UUID, cursor *string, limit int) ([]domain.Transaction, error) {
	// Callers fetch one past the page size to detect a next page, so the
	// ceiling sits above the handler's 100 cap.
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = db.Query(ctx, `
			SELECT `+txColumns+`
			FROM transactions
			WHERE wallet_id = $1
			  AND (created_at, id) <= ((SELECT created_at, id FROM transactions WHERE id = $2))
			ORDER BY created_at DESC, id DESC
			LIMIT $3`, walletID, *cursor, limit)
	} else {
		rows, err = db.Query(ctx, `
			SELECT `+txColumns+`
			FROM transactions
			WHERE wallet_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, walletID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *transactionRepo) SumByWallet(ctx context.Context, db DBTX, walletID uuid.UUID) (int64, error) {
	var sumNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)
		FROM transactions WHERE wallet_id = $1`, walletID).Scan(&sumNum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return infra.NumericToInt64(sumNum)
}

func ensureJSON(data json.RawMessage) json.RawMessage {
	if data == nil {
		return json.RawMessage(`{}`)
	}
	return data
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amountNum, balNum pgtype.Numeric
	err := row.Scan(
		&tx.ID, &tx.WalletID, &tx.Direction, &tx.Category,
		&amountNum, &balNum,
		&tx.IdempotencyKey, &tx.Description,
		&tx.PaymentID, &tx.ProjectID, &tx.PayoutID, &tx.Metadata, &tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	var convErr error
	tx.Amount, convErr = infra.NumericToInt64(amountNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert amount: %w", convErr)
	}
	tx.BalanceAfter, convErr = infra.NumericToInt64(balNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert balance_after: %w", convErr)
	}

	return &tx, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amountNum, balNum pgtype.Numeric
		err := rows.Scan(
			&tx.ID, &tx.WalletID, &tx.Direction, &tx.Category,
			&amountNum, &balNum,
			&tx.IdempotencyKey, &tx.Description,
			&tx.PaymentID, &tx.ProjectID, &tx.PayoutID, &tx.Metadata, &tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		var convErr error
		tx.Amount, convErr = infra.NumericToInt64(amountNum)
		if convErr != nil {
			return nil, convErr
		}
		tx.BalanceAfter, convErr = infra.NumericToInt64(balNum)
		if convErr != nil {
			return nil, convErr
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
