package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/projectbuzz/platform/internal/domain"
)

// ExecuteCredit credits the seller's wallet. Sale and bonus credits also
// advance total_earned; refunds and adjustments move only the balance.
func (e *Engine) ExecuteCredit(ctx context.Context, tx pgx.Tx, params domain.CreditParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}
	if params.IdempotencyKey == "" {
		return nil, domain.ErrValidation("idempotency key is required")
	}

	// Lock
	wallet, err := e.LockWalletForUpdate(ctx, tx, params.SellerID)
	if err != nil {
		return nil, fmt.Errorf("credit: %w", err)
	}

	// Idempotency check
	existing, err := e.FindExistingTransaction(ctx, tx, domain.LedgerKey{
		WalletID:       wallet.ID,
		Category:       params.Category,
		IdempotencyKey: params.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &domain.CommandResult{Transaction: existing, Wallet: wallet, Idempotent: true}, nil
	}

	entry, updatedWallet, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		WalletID:       wallet.ID,
		Direction:      domain.TxCredit,
		Category:       params.Category,
		Amount:         params.Amount,
		BalanceUpdate:  creditBalanceUpdate(params.Category, params.Amount),
		IdempotencyKey: params.IdempotencyKey,
		Description:    params.Description,
		PaymentID:      params.PaymentID,
		ProjectID:      params.ProjectID,
		Metadata:       ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("credit post: %w", err)
	}

	return &domain.CommandResult{Transaction: entry, Wallet: updatedWallet}, nil
}

// creditBalanceUpdate shapes the column deltas for a credit. Only earnings
// categories advance the lifetime total_earned counter.
func creditBalanceUpdate(category domain.TxCategory, amount int64) domain.BalanceUpdate {
	update := domain.BalanceUpdate{Balance: amount}
	if category == domain.TxSale || category == domain.TxBonus {
		update.TotalEarned = amount
	}
	return update
}

func ensureJSON(data json.RawMessage) json.RawMessage {
	if data == nil {
		return json.RawMessage(`{}`)
	}
	return data
}
