package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/projectbuzz/platform/internal/domain"
)

// ExecuteRefund claws a settled sale's share back out of the seller's
// wallet. Unlike a payout debit it runs against suspended wallets too, since
// refunds are an admin action, but it still refuses to take the balance
// negative. Rolls back total_earned alongside the balance.
func (e *Engine) ExecuteRefund(ctx context.Context, tx pgx.Tx, params domain.RefundParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}
	if params.IdempotencyKey == "" {
		return nil, domain.ErrValidation("idempotency key is required")
	}

	// Lock
	wallet, err := e.LockWalletForUpdate(ctx, tx, params.SellerID)
	if err != nil {
		return nil, fmt.Errorf("refund: %w", err)
	}

	// Idempotency check
	existing, err := e.FindExistingTransaction(ctx, tx, domain.LedgerKey{
		WalletID:       wallet.ID,
		Category:       domain.TxRefund,
		IdempotencyKey: params.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &domain.CommandResult{Transaction: existing, Wallet: wallet, Idempotent: true}, nil
	}

	if wallet.Balance < params.Amount {
		return nil, domain.ErrInsufficientBalance()
	}

	entry, updatedWallet, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		WalletID:       wallet.ID,
		Direction:      domain.TxDebit,
		Category:       domain.TxRefund,
		Amount:         params.Amount,
		BalanceUpdate:  domain.BalanceUpdate{Balance: -params.Amount, TotalEarned: -params.Amount},
		IdempotencyKey: params.IdempotencyKey,
		Description:    params.Description,
		PaymentID:      params.PaymentID,
		ProjectID:      params.ProjectID,
		Metadata:       ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("refund post: %w", err)
	}

	return &domain.CommandResult{Transaction: entry, Wallet: updatedWallet}, nil
}
