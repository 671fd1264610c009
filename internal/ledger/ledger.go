package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/repository"
)

// Engine provides the 3 foundational ledger operations:
//  1. LockWalletForUpdate — row-level pessimistic lock, creating the wallet
//     lazily on first use
//  2. FindExistingTransaction — idempotency check
//  3. PostLedgerEntry — atomic balance update + append-only insert + outbox event
type Engine struct {
	wallets      repository.WalletRepository
	transactions repository.TransactionRepository
	outbox       repository.OutboxRepository
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	wallets repository.WalletRepository,
	transactions repository.TransactionRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		wallets:      wallets,
		transactions: transactions,
		outbox:       outbox,
	}
}

// LockWalletForUpdate acquires a row-level lock on the seller's wallet,
// creating a zero-balance wallet if the seller has never been credited.
// Must be called within a transaction; an insert in the same transaction
// already holds the row, so the re-lock after creation cannot block.
func (e *Engine) LockWalletForUpdate(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := e.wallets.LockBySellerForUpdate(ctx, tx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	if wallet != nil {
		return wallet, nil
	}

	fresh := &domain.Wallet{
		ID:       uuid.New(),
		SellerID: sellerID,
		Status:   domain.WalletActive,
	}
	if err := e.wallets.Create(ctx, tx, fresh); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	wallet, err = e.wallets.LockBySellerForUpdate(ctx, tx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("relock wallet: %w", err)
	}
	return wallet, nil
}

// FindExistingTransaction checks if a transaction with the same idempotency
// key exists. Returns nil if no duplicate found.
func (e *Engine) FindExistingTransaction(ctx context.Context, tx pgx.Tx, key domain.LedgerKey) (*domain.Transaction, error) {
	existing, err := e.transactions.FindExisting(ctx, tx, key)
	if err != nil {
		return nil, fmt.Errorf("find existing transaction: %w", err)
	}
	return existing, nil
}

// PostLedgerEntry atomically updates wallet balances and inserts a ledger
// entry. This is the core write primitive — every command delegates to this.
//
// Steps:
//  1. Update wallet balances using server-side arithmetic
//  2. Insert transaction with the post-update balance snapshot
//  3. Insert outbox event
//
// All 3 steps run within the caller's transaction.
func (e *Engine) PostLedgerEntry(ctx context.Context, tx pgx.Tx, params domain.PostLedgerEntryParams) (*domain.Transaction, *domain.Wallet, error) {
	updatedWallet, err := e.wallets.UpdateBalances(ctx, tx, params.WalletID, params.BalanceUpdate)
	if err != nil {
		return nil, nil, fmt.Errorf("update balances: %w", err)
	}

	entry, err := e.transactions.Insert(ctx, tx, params, updatedWallet.Balance)
	if err != nil {
		return nil, nil, fmt.Errorf("insert transaction: %w", err)
	}

	event := domain.NewTransactionPostedEvent(entry)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return entry, updatedWallet, nil
}
