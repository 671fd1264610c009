package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/projectbuzz/platform/internal/domain"
)

// ExecuteDebit withdraws funds from the seller's wallet. The sufficiency
// check happens against the locked row, so a concurrent debit cannot slip
// between read and write. Payout debits advance total_withdrawn.
func (e *Engine) ExecuteDebit(ctx context.Context, tx pgx.Tx, params domain.DebitParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}
	if params.IdempotencyKey == "" {
		return nil, domain.ErrValidation("idempotency key is required")
	}

	// Lock
	wallet, err := e.LockWalletForUpdate(ctx, tx, params.SellerID)
	if err != nil {
		return nil, fmt.Errorf("debit: %w", err)
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

	if !wallet.CanWithdraw(params.Amount) {
		if wallet.Status != domain.WalletActive {
			return nil, domain.ErrConflict("wallet is suspended")
		}
		return nil, domain.ErrInsufficientBalance()
	}

	entry, updatedWallet, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		WalletID:       wallet.ID,
		Direction:      domain.TxDebit,
		Category:       params.Category,
		Amount:         params.Amount,
		BalanceUpdate:  debitBalanceUpdate(params.Category, params.Amount),
		IdempotencyKey: params.IdempotencyKey,
		Description:    params.Description,
		PayoutID:       params.PayoutID,
		Metadata:       ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("debit post: %w", err)
	}

	return &domain.CommandResult{Transaction: entry, Wallet: updatedWallet}, nil
}

// debitBalanceUpdate shapes the column deltas for a debit. Only payouts
// advance the lifetime total_withdrawn counter.
func debitBalanceUpdate(category domain.TxCategory, amount int64) domain.BalanceUpdate {
	update := domain.BalanceUpdate{Balance: -amount}
	if category == domain.TxPayout {
		update.TotalWithdrawn = amount
	}
	return update
}
