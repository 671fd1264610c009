package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/repository"
)

// WalletService exposes read and maintenance operations on seller wallets.
type WalletService struct {
	pool    *pgxpool.Pool
	wallets repository.WalletRepository
	txRepo  repository.TransactionRepository
	logger  *slog.Logger
}

// NewWalletService creates a WalletService.
func NewWalletService(
	pool *pgxpool.Pool,
	wallets repository.WalletRepository,
	txRepo repository.TransactionRepository,
	logger *slog.Logger,
) *WalletService {
	return &WalletService{pool: pool, wallets: wallets, txRepo: txRepo, logger: logger}
}

// GetWallet returns the seller's wallet. Sellers who have never been
// credited see a zero wallet rather than a 404.
func (s *WalletService) GetWallet(ctx context.Context, sellerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.wallets.FindBySellerID(ctx, s.pool, sellerID)
	if err != nil {
		return nil, domain.ErrInternal("find wallet", err)
	}
	if wallet == nil {
		return &domain.Wallet{SellerID: sellerID, Status: domain.WalletActive}, nil
	}
	return wallet, nil
}

// ListTransactions returns the wallet's ledger entries, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, sellerID uuid.UUID, cursor *string, limit int) ([]domain.Transaction, error) {
	wallet, err := s.wallets.FindBySellerID(ctx, s.pool, sellerID)
	if err != nil {
		return nil, domain.ErrInternal("find wallet", err)
	}
	if wallet == nil {
		return nil, nil
	}

	txs, err := s.txRepo.ListByWallet(ctx, s.pool, wallet.ID, cursor, limit)
	if err != nil {
		return nil, domain.ErrInternal("list transactions", err)
	}
	return txs, nil
}

// UpdateBank replaces the seller's payout destination after validation.
func (s *WalletService) UpdateBank(ctx context.Context, sellerID uuid.UUID, bank domain.BankDetails) (*domain.Wallet, error) {
	if err := domain.ValidateBankDetails(bank); err != nil {
		return nil, err
	}

	wallet, err := s.wallets.FindBySellerID(ctx, s.pool, sellerID)
	if err != nil {
		return nil, domain.ErrInternal("find wallet", err)
	}
	if wallet == nil {
		wallet = &domain.Wallet{
			ID:       uuid.New(),
			SellerID: sellerID,
			Status:   domain.WalletActive,
			Bank:     &bank,
		}
		if err := s.wallets.Create(ctx, s.pool, wallet); err != nil {
			return nil, domain.ErrInternal("create wallet", err)
		}
		return wallet, nil
	}

	if err := s.wallets.UpdateBank(ctx, s.pool, wallet.ID, bank); err != nil {
		return nil, domain.ErrInternal("update bank", err)
	}
	wallet.Bank = &bank
	return wallet, nil
}

// ReconcileResult reports whether a wallet's stored balance matches the
// credit−debit sum over its ledger entries.
type ReconcileResult struct {
	WalletID   uuid.UUID `json:"wallet_id"`
	Balance    int64     `json:"balance"`
	LedgerSum  int64     `json:"ledger_sum"`
	Consistent bool      `json:"consistent"`
}

// Reconcile recomputes the ledger sum for a seller's wallet and compares it
// against the stored balance. Drift means a bug, not data to repair here.
func (s *WalletService) Reconcile(ctx context.Context, sellerID uuid.UUID) (*ReconcileResult, error) {
	wallet, err := s.wallets.FindBySellerID(ctx, s.pool, sellerID)
	if err != nil {
		return nil, domain.ErrInternal("find wallet", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet", sellerID.String())
	}

	sum, err := s.txRepo.SumByWallet(ctx, s.pool, wallet.ID)
	if err != nil {
		return nil, domain.ErrInternal("sum ledger", err)
	}

	result := &ReconcileResult{
		WalletID:   wallet.ID,
		Balance:    wallet.Balance,
		LedgerSum:  sum,
		Consistent: wallet.Balance == sum,
	}
	if !result.Consistent {
		s.logger.Error("wallet balance drift",
			"wallet_id", wallet.ID, "balance", wallet.Balance, "ledger_sum", sum)
	}
	return result, nil
}
