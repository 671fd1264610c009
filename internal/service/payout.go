package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/ledger"
	"github.com/projectbuzz/platform/internal/repository"
)

// PayoutService handles the withdrawal lifecycle: seller request, admin
// review, bank completion. The wallet debit happens at approval, inside the
// same transaction as the status change, keyed on the payout ID.
type PayoutService struct {
	pool    *pgxpool.Pool
	engine  *ledger.Engine
	payouts repository.PayoutRepository
	wallets repository.WalletRepository
	outbox  repository.OutboxRepository
	logger  *slog.Logger
}

// NewPayoutService creates a PayoutService.
func NewPayoutService(
	pool *pgxpool.Pool,
	engine *ledger.Engine,
	payouts repository.PayoutRepository,
	wallets repository.WalletRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *PayoutService {
	return &PayoutService{
		pool:    pool,
		engine:  engine,
		payouts: payouts,
		wallets: wallets,
		outbox:  outbox,
		logger:  logger,
	}
}

// Request opens a payout for review. Sufficiency is checked here against the
// locked wallet row so the seller gets an immediate rejection, but funds are
// not moved until approval.
func (s *PayoutService) Request(ctx context.Context, sellerID uuid.UUID, amount int64) (*domain.Payout, error) {
	if amount < domain.MinPayoutAmount {
		return nil, domain.ErrValidation("payout amount is below the minimum of " + domain.FormatRupees(domain.MinPayoutAmount))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	wallet, err := s.engine.LockWalletForUpdate(ctx, tx, sellerID)
	if err != nil {
		return nil, domain.ErrInternal("lock wallet", err)
	}
	if wallet.Bank == nil {
		return nil, domain.ErrValidation("add your bank details before requesting a payout")
	}
	if !wallet.CanWithdraw(amount) {
		if wallet.Status != domain.WalletActive {
			return nil, domain.ErrConflict("wallet is suspended")
		}
		return nil, domain.ErrInsufficientBalance()
	}

	open, err := s.payouts.FindNonTerminalBySeller(ctx, tx, sellerID)
	if err != nil {
		return nil, domain.ErrInternal("check open payout", err)
	}
	if open != nil {
		return nil, domain.ErrConflict("a payout request is already in progress")
	}

	payout := &domain.Payout{
		ID:        uuid.New(),
		SellerID:  sellerID,
		WalletID:  wallet.ID,
		Amount:    amount,
		NetAmount: amount,
		Bank:      *wallet.Bank,
		Status:    domain.PayoutPending,
	}
	if err := s.payouts.Create(ctx, tx, payout); err != nil {
		return nil, domain.ErrInternal("record payout", err)
	}

	note := domain.NewNotificationEvent(domain.AggregatePayout, payout.ID,
		domain.EventPayoutRequested, sellerID, map[string]uuid.UUID{"payout": payout.ID})
	if err := s.outbox.Insert(ctx, tx, note); err != nil {
		return nil, domain.ErrInternal("queue notification", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("payout requested", "payout_id", payout.ID, "seller_id", sellerID, "amount", amount)
	return payout, nil
}

// Approve debits the wallet and moves the payout to processing, both inside
// one transaction. The debit is keyed on the payout ID, so a double-approve
// race cannot move funds twice.
func (s *PayoutService) Approve(ctx context.Context, adminID, payoutID uuid.UUID, comment string) (*domain.Payout, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	payout, err := s.payouts.LockByID(ctx, tx, payoutID)
	if err != nil {
		return nil, domain.ErrInternal("find payout", err)
	}
	if payout == nil {
		return nil, domain.ErrNotFound("payout", payoutID.String())
	}

	if err := payout.Approve(adminID, comment, time.Now()); err != nil {
		return nil, err
	}

	meta, _ := json.Marshal(map[string]string{"approved_by": adminID.String()})
	if _, err := s.engine.ExecuteDebit(ctx, tx, domain.DebitParams{
		SellerID:       payout.SellerID,
		Amount:         payout.Amount,
		Category:       domain.TxPayout,
		IdempotencyKey: payout.ID.String(),
		Description:    "payout to bank account",
		PayoutID:       &payout.ID,
		Metadata:       meta,
	}); err != nil {
		return nil, err
	}

	if err := s.payouts.Update(ctx, tx, payout); err != nil {
		return nil, domain.ErrInternal("persist payout", err)
	}

	note := domain.NewNotificationEvent(domain.AggregatePayout, payout.ID,
		domain.EventPayoutApproved, payout.SellerID, map[string]uuid.UUID{"payout": payout.ID})
	if err := s.outbox.Insert(ctx, tx, note); err != nil {
		return nil, domain.ErrInternal("queue notification", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("payout approved", "payout_id", payout.ID, "admin_id", adminID, "amount", payout.Amount)
	return payout, nil
}

// Reject closes a pending payout. Nothing was debited, so no wallet
// mutation accompanies it.
func (s *PayoutService) Reject(ctx context.Context, adminID, payoutID uuid.UUID, reason, comment string) (*domain.Payout, error) {
	if reason == "" {
		return nil, domain.ErrValidation("rejection reason is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	payout, err := s.payouts.LockByID(ctx, tx, payoutID)
	if err != nil {
		return nil, domain.ErrInternal("find payout", err)
	}
	if payout == nil {
		return nil, domain.ErrNotFound("payout", payoutID.String())
	}

	if err := payout.Reject(adminID, reason, comment); err != nil {
		return nil, err
	}
	if err := s.payouts.Update(ctx, tx, payout); err != nil {
		return nil, domain.ErrInternal("persist payout", err)
	}

	note := domain.NewNotificationEvent(domain.AggregatePayout, payout.ID,
		domain.EventPayoutRejected, payout.SellerID, map[string]uuid.UUID{"payout": payout.ID})
	if err := s.outbox.Insert(ctx, tx, note); err != nil {
		return nil, domain.ErrInternal("queue notification", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("payout rejected", "payout_id", payout.ID, "admin_id", adminID, "reason", reason)
	return payout, nil
}

// Complete records the bank settlement reference for a processing payout.
func (s *PayoutService) Complete(ctx context.Context, adminID, payoutID uuid.UUID, utr string) (*domain.Payout, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	payout, err := s.payouts.LockByID(ctx, tx, payoutID)
	if err != nil {
		return nil, domain.ErrInternal("find payout", err)
	}
	if payout == nil {
		return nil, domain.ErrNotFound("payout", payoutID.String())
	}

	if err := payout.MarkCompleted(utr, time.Now()); err != nil {
		return nil, err
	}
	if err := s.payouts.Update(ctx, tx, payout); err != nil {
		return nil, domain.ErrInternal("persist payout", err)
	}

	note := domain.NewNotificationEvent(domain.AggregatePayout, payout.ID,
		domain.EventPayoutCompleted, payout.SellerID, map[string]uuid.UUID{"payout": payout.ID})
	if err := s.outbox.Insert(ctx, tx, note); err != nil {
		return nil, domain.ErrInternal("queue notification", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("payout completed", "payout_id", payout.ID, "utr", utr)
	return payout, nil
}

// Cancel aborts the seller's open payout. If the debit already happened, a
// reversing adjustment restores the balance in the same transaction.
func (s *PayoutService) Cancel(ctx context.Context, sellerID, payoutID uuid.UUID) (*domain.Payout, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	payout, err := s.payouts.LockByID(ctx, tx, payoutID)
	if err != nil {
		return nil, domain.ErrInternal("find payout", err)
	}
	if payout == nil {
		return nil, domain.ErrNotFound("payout", payoutID.String())
	}
	if payout.SellerID != sellerID {
		return nil, domain.ErrForbidden("payout belongs to a different seller")
	}

	refundRequired, err := payout.Cancel()
	if err != nil {
		return nil, err
	}
	if refundRequired {
		if _, err := s.engine.ExecutePayoutReversal(ctx, tx, domain.ReversalParams{
			SellerID:       sellerID,
			Amount:         payout.Amount,
			IdempotencyKey: "reversal-" + payout.ID.String(),
			Description:    "payout cancelled, funds returned",
			PayoutID:       &payout.ID,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.payouts.Update(ctx, tx, payout); err != nil {
		return nil, domain.ErrInternal("persist payout", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("payout cancelled", "payout_id", payout.ID, "refunded", refundRequired)
	return payout, nil
}

// ListBySeller returns the seller's payout history.
func (s *PayoutService) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Payout, error) {
	payouts, err := s.payouts.ListBySeller(ctx, s.pool, sellerID, 50)
	if err != nil {
		return nil, domain.ErrInternal("list payouts", err)
	}
	return payouts, nil
}

// ListPending returns payouts awaiting admin review, oldest first.
func (s *PayoutService) ListPending(ctx context.Context) ([]domain.Payout, error) {
	payouts, err := s.payouts.ListByStatus(ctx, s.pool, domain.PayoutPending, 100)
	if err != nil {
		return nil, domain.ErrInternal("list pending payouts", err)
	}
	return payouts, nil
}
