package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/projectbuzz/platform/internal/domain"
)

// ExecutePayoutReversal returns funds held by a cancelled payout that had
// already been debited. It restores the balance and rolls back the
// total_withdrawn counter so the wallet reads as if the payout never left.
func (e *Engine) ExecutePayoutReversal(ctx context.Context, tx pgx.Tx, params domain.ReversalParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}
	if params.IdempotencyKey == "" {
		return nil, domain.ErrValidation("idempotency key is required")
	}

	// Lock
	wallet, err := e.LockWalletForUpdate(ctx, tx, params.SellerID)
	if err != nil {
		return nil, fmt.Errorf("payout reversal: %w", err)
	}

	// Idempotency check
	existing, err := e.FindExistingTransaction(ctx, tx, domain.LedgerKey{
		WalletID:       wallet.ID,
		Category:       domain.TxAdjustment,
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
		Category:       domain.TxAdjustment,
		Amount:         params.Amount,
		BalanceUpdate:  reversalBalanceUpdate(params.Amount),
		IdempotencyKey: params.IdempotencyKey,
		Description:    params.Description,
		PayoutID:       params.PayoutID,
		Metadata:       ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("payout reversal post: %w", err)
	}

	return &domain.CommandResult{Transaction: entry, Wallet: updatedWallet}, nil
}

// reversalBalanceUpdate restores the balance and unwinds total_withdrawn.
func reversalBalanceUpdate(amount int64) domain.BalanceUpdate {
	return domain.BalanceUpdate{Balance: amount, TotalWithdrawn: -amount}
}
