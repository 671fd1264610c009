package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/projectbuzz/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// WalletRepository provides access to wallets.
type WalletRepository interface {
	// FindBySellerID returns a seller's wallet, or nil if none exists yet.
	FindBySellerID(ctx context.Context, db DBTX, sellerID uuid.UUID) (*domain.Wallet, error)

	// LockBySellerForUpdate acquires a row-level lock (SELECT FOR UPDATE) on
	// the seller's wallet. Returns nil if the wallet does not exist.
	LockBySellerForUpdate(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (*domain.Wallet, error)

	// Create inserts a zero-balance wallet for a seller (lazy creation).
	Create(ctx context.Context, db DBTX, wallet *domain.Wallet) error

	// UpdateBalances atomically applies balance deltas using server-side
	// arithmetic and stamps last_transaction_at.
	UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, delta domain.BalanceUpdate) (*domain.Wallet, error)

	// UpdateBank replaces the stored payout destination.
	UpdateBank(ctx context.Context, db DBTX, walletID uuid.UUID, bank domain.BankDetails) error

	// SetStatus suspends or reactivates a wallet.
	SetStatus(ctx context.Context, db DBTX, walletID uuid.UUID, status domain.WalletStatus) error
}

// TransactionRepository provides access to the append-only transactions ledger.
type TransactionRepository interface {
	// FindExisting checks the idempotency index for a duplicate entry.
	FindExisting(ctx context.Context, db DBTX, key domain.LedgerKey) (*domain.Transaction, error)

	// Insert creates a wallet-attached ledger entry with its balance snapshot.
	Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, balanceAfter int64) (*domain.Transaction, error)

	// InsertUnattached creates a wallet-less entry (platform commission).
	// Returns (nil, nil) when an entry with the same category+key exists.
	InsertUnattached(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams) (*domain.Transaction, error)

	// FindByID returns a ledger entry by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Transaction, error)

	// ListByWallet returns entries for a wallet, newest first, with
	// cursor-based pagination.
	ListByWallet(ctx context.Context, db DBTX, walletID uuid.UUID, cursor *string, limit int) ([]domain.Transaction, error)

	// SumByWallet recomputes credits − debits over the ledger. Used by
	// reconciliation to check the incremental balance for drift.
	SumByWallet(ctx context.Context, db DBTX, walletID uuid.UUID) (int64, error)
}

// PaymentRepository provides access to payments.
type PaymentRepository interface {
	Create(ctx context.Context, db DBTX, payment *domain.Payment) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payment, error)
	FindByGatewayOrderID(ctx context.Context, db DBTX, gatewayOrderID string) (*domain.Payment, error)

	// LockByGatewayOrderID acquires a row-level lock on the payment so the
	// webhook and client-verify settlement paths serialize. Returns nil if
	// no payment matches.
	LockByGatewayOrderID(ctx context.Context, tx pgx.Tx, gatewayOrderID string) (*domain.Payment, error)
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payment, error)
	FindByGatewayPaymentID(ctx context.Context, db DBTX, gatewayPaymentID string) (*domain.Payment, error)

	// FindLiveByBuyerProject returns the unexpired pending/active payment
	// for a (buyer, project) pair, or nil.
	FindLiveByBuyerProject(ctx context.Context, db DBTX, buyerID, projectID uuid.UUID, now time.Time) (*domain.Payment, error)

	// Update persists status, gateway stamps, settled flag and payload.
	Update(ctx context.Context, db DBTX, payment *domain.Payment) error

	// ExpireStale transitions pending/active payments past their TTL to
	// expired. Returns the number of rows swept.
	ExpireStale(ctx context.Context, db DBTX, now time.Time) (int64, error)

	ListByBuyer(ctx context.Context, db DBTX, buyerID uuid.UUID, limit int) ([]domain.Payment, error)
}

// PayoutRepository provides access to payouts.
type PayoutRepository interface {
	Create(ctx context.Context, db DBTX, payout *domain.Payout) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payout, error)

	// LockByID acquires a row-level lock on the payout so concurrent admin
	// reviews serialize instead of overwriting each other's terminal status.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payout, error)

	// FindNonTerminalBySeller returns the seller's open payout, or nil.
	// At most one can exist (partial unique index).
	FindNonTerminalBySeller(ctx context.Context, db DBTX, sellerID uuid.UUID) (*domain.Payout, error)

	Update(ctx context.Context, db DBTX, payout *domain.Payout) error
	ListBySeller(ctx context.Context, db DBTX, sellerID uuid.UUID, limit int) ([]domain.Payout, error)
	ListByStatus(ctx context.Context, db DBTX, status domain.PayoutStatus, limit int) ([]domain.Payout, error)
}

// ProjectRepository provides access to projects and buyer membership.
type ProjectRepository interface {
	Create(ctx context.Context, db DBTX, project *domain.Project) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Project, error)

	// HasBuyer reports whether the buyer already owns the project.
	HasBuyer(ctx context.Context, db DBTX, projectID, buyerID uuid.UUID) (bool, error)

	// AddBuyer appends the buyer to the project's buyer list. Re-entry is a
	// no-op (ON CONFLICT DO NOTHING); returns whether a row was inserted.
	AddBuyer(ctx context.Context, db DBTX, projectID, buyerID, paymentID uuid.UUID) (bool, error)

	// IncrementSales bumps the denormalized sales counter.
	IncrementSales(ctx context.Context, db DBTX, projectID uuid.UUID) error
}

// NegotiationRepository provides access to negotiations and discount codes.
type NegotiationRepository interface {
	Create(ctx context.Context, db DBTX, n *domain.Negotiation) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Negotiation, error)

	// LockByID acquires a row-level lock so two concurrent accepts cannot
	// both read active and mint two codes for one negotiation.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Negotiation, error)

	FindActiveByBuyerProject(ctx context.Context, db DBTX, buyerID, projectID uuid.UUID) (*domain.Negotiation, error)
	Update(ctx context.Context, db DBTX, n *domain.Negotiation) error

	CreateCode(ctx context.Context, db DBTX, code *domain.DiscountCode) error
	FindCode(ctx context.Context, db DBTX, code string) (*domain.DiscountCode, error)

	// ConsumeCode marks a code used by the given payment with a conditional
	// update; returns false if the code was already consumed.
	ConsumeCode(ctx context.Context, db DBTX, codeID, paymentID uuid.UUID) (bool, error)
}

// AuthUserRepository provides access to auth_users and user_stats.
type AuthUserRepository interface {
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AuthUser, error)
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.AuthUser, error)
	Create(ctx context.Context, db DBTX, user *domain.AuthUser) error

	// AddSpend / AddEarnings upsert the denormalized counters. Best-effort
	// aggregates, not part of the ledger invariant.
	AddSpend(ctx context.Context, db DBTX, userID uuid.UUID, amount int64) error
	AddEarnings(ctx context.Context, db DBTX, userID uuid.UUID, amount int64) error
	FindStats(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.UserStats, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the
	// state change it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error
}
