package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/projectbuzz/platform/internal/domain"
)

// ExecutePlatformCommission records the platform's share of a sale as a
// wallet-less ledger entry. No wallet lock is needed: uniqueness comes from
// the partial index on (category, idempotency_key), so a re-delivered
// settlement inserts nothing and gets the idempotent result back.
func (e *Engine) ExecutePlatformCommission(ctx context.Context, tx pgx.Tx, params domain.CommissionParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}
	if params.IdempotencyKey == "" {
		return nil, domain.ErrValidation("idempotency key is required")
	}

	entry, err := e.transactions.InsertUnattached(ctx, tx, domain.PostLedgerEntryParams{
		Direction:      domain.TxCredit,
		Category:       domain.TxPlatformCommission,
		Amount:         params.Amount,
		IdempotencyKey: params.IdempotencyKey,
		Description:    params.Description,
		PaymentID:      params.PaymentID,
		ProjectID:      params.ProjectID,
		Metadata:       ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("commission insert: %w", err)
	}
	if entry == nil {
		return &domain.CommandResult{Idempotent: true}, nil
	}

	event := domain.NewTransactionPostedEvent(entry)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return &domain.CommandResult{Transaction: entry}, nil
}
