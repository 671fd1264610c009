package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/ledger"
	"github.com/projectbuzz/platform/internal/repository"
)

// Orchestrator drives payment settlement: the single place where a captured
// payment turns into wallet credits, commission entries, project membership
// and notifications. Both the webhook path and the client-verify path end
// here, and both are safe to replay.
type Orchestrator struct {
	pool         *pgxpool.Pool
	engine       *ledger.Engine
	payments     repository.PaymentRepository
	projects     repository.ProjectRepository
	negotiations repository.NegotiationRepository
	users        repository.AuthUserRepository
	outbox       repository.OutboxRepository
	logger       *slog.Logger
}

// NewOrchestrator creates a settlement orchestrator.
func NewOrchestrator(
	pool *pgxpool.Pool,
	engine *ledger.Engine,
	payments repository.PaymentRepository,
	projects repository.ProjectRepository,
	negotiations repository.NegotiationRepository,
	users repository.AuthUserRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		pool:         pool,
		engine:       engine,
		payments:     payments,
		projects:     projects,
		negotiations: negotiations,
		users:        users,
		outbox:       outbox,
		logger:       logger,
	}
}

// CaptureParams carries the gateway capture details into settlement.
type CaptureParams struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Method           string
	RawPayload       json.RawMessage
}

// SettleCapture applies the full settlement for a captured payment inside
// one database transaction:
//
//  1. Lock the payment row
//  2. Short-circuit if already settled
//  3. Mark the payment paid
//  4. Consume the discount code, if one was applied
//  5. Credit the seller's share to their wallet
//  6. Record the platform commission
//  7. Grant the buyer project access and bump counters
//  8. Stamp settled and persist
//  9. Queue buyer and seller notifications via the outbox
//
// Every write is keyed on the payment ID, so a crash between commit and the
// gateway's retry replays cleanly: the ledger returns the existing entries
// and the settled flag stops the rest.
func (o *Orchestrator) SettleCapture(ctx context.Context, params CaptureParams) (*domain.Payment, error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	payment, err := o.payments.LockByGatewayOrderID(ctx, tx, params.GatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("lock payment: %w", err)
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", params.GatewayOrderID)
	}
	if payment.Settled {
		o.logger.Info("settlement replay ignored",
			"payment_id", payment.ID, "gateway_order_id", params.GatewayOrderID)
		return payment, nil
	}

	now := time.Now()
	if err := payment.MarkPaid(params.GatewayPaymentID, params.Method, now); err != nil {
		return nil, err
	}

	if payment.Discount != nil {
		if err := o.consumeDiscount(ctx, tx, payment); err != nil {
			return nil, err
		}
	}

	sellerShare, platformShare := domain.Split(payment.Amount, domain.DefaultSellerRateBps)
	key := payment.ID.String()

	creditResult, err := o.engine.ExecuteCredit(ctx, tx, domain.CreditParams{
		SellerID:       payment.SellerID,
		Amount:         sellerShare,
		Category:       domain.TxSale,
		IdempotencyKey: key,
		Description:    "sale of project " + payment.ProjectID.String(),
		PaymentID:      &payment.ID,
		ProjectID:      &payment.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("credit seller: %w", err)
	}

	if platformShare > 0 {
		if _, err := o.engine.ExecutePlatformCommission(ctx, tx, domain.CommissionParams{
			Amount:         platformShare,
			IdempotencyKey: key,
			Description:    "commission on project " + payment.ProjectID.String(),
			PaymentID:      &payment.ID,
			ProjectID:      &payment.ProjectID,
		}); err != nil {
			return nil, fmt.Errorf("record commission: %w", err)
		}
	}

	granted, err := o.projects.AddBuyer(ctx, tx, payment.ProjectID, payment.BuyerID, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("grant project access: %w", err)
	}
	if granted {
		if err := o.projects.IncrementSales(ctx, tx, payment.ProjectID); err != nil {
			return nil, fmt.Errorf("increment sales: %w", err)
		}
		if err := o.users.AddSpend(ctx, tx, payment.BuyerID, payment.Amount); err != nil {
			return nil, fmt.Errorf("update buyer stats: %w", err)
		}
		if err := o.users.AddEarnings(ctx, tx, payment.SellerID, sellerShare); err != nil {
			return nil, fmt.Errorf("update seller stats: %w", err)
		}
	}

	payment.Settled = true
	payment.GatewayPayload = params.RawPayload
	if err := o.payments.Update(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	entities := map[string]uuid.UUID{
		"payment": payment.ID,
		"project": payment.ProjectID,
	}
	// The buyer gets two messages: the payment receipt and the purchase
	// confirmation granting access. The seller gets the sale alert.
	paidNote := domain.NewNotificationEvent(domain.AggregatePayment, payment.ID,
		domain.EventPaymentSucceeded, payment.BuyerID, entities)
	buyerNote := domain.NewNotificationEvent(domain.AggregatePayment, payment.ID,
		domain.EventPurchaseConfirmed, payment.BuyerID, entities)
	sellerNote := domain.NewNotificationEvent(domain.AggregatePayment, payment.ID,
		domain.EventSaleAlert, payment.SellerID, entities)
	if err := o.outbox.Insert(ctx, tx, paidNote); err != nil {
		return nil, fmt.Errorf("queue payment notification: %w", err)
	}
	if err := o.outbox.Insert(ctx, tx, buyerNote); err != nil {
		return nil, fmt.Errorf("queue buyer notification: %w", err)
	}
	if err := o.outbox.Insert(ctx, tx, sellerNote); err != nil {
		return nil, fmt.Errorf("queue seller notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit settlement: %w", err)
	}

	o.logger.Info("payment settled",
		"payment_id", payment.ID,
		"amount", payment.Amount,
		"seller_share", sellerShare,
		"platform_share", platformShare,
		"idempotent_credit", creditResult.Idempotent)

	return payment, nil
}

// FailCapture records a gateway failure for a live payment. Replays against
// an already-failed or paid payment are ignored.
func (o *Orchestrator) FailCapture(ctx context.Context, gatewayOrderID, reason string, raw json.RawMessage) (*domain.Payment, error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin failure: %w", err)
	}
	defer tx.Rollback(ctx)

	payment, err := o.payments.LockByGatewayOrderID(ctx, tx, gatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("lock payment: %w", err)
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", gatewayOrderID)
	}
	if payment.IsTerminal() {
		return payment, nil
	}

	if err := payment.MarkFailed(reason); err != nil {
		return nil, err
	}
	payment.GatewayPayload = raw
	if err := o.payments.Update(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	note := domain.NewNotificationEvent(domain.AggregatePayment, payment.ID,
		domain.EventPaymentFailed, payment.BuyerID, map[string]uuid.UUID{"payment": payment.ID})
	if err := o.outbox.Insert(ctx, tx, note); err != nil {
		return nil, fmt.Errorf("queue failure notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit failure: %w", err)
	}

	o.logger.Info("payment failed", "payment_id", payment.ID, "reason", reason)
	return payment, nil
}

// RefundSale claws the seller's share of a settled payment back out of
// their wallet. The buyer keeps project access; reclaiming it is a support
// decision handled separately. The debit is keyed on the payment ID, so a
// second refund of the same payment returns the existing entry.
func (o *Orchestrator) RefundSale(ctx context.Context, adminID, paymentID uuid.UUID, reason string) (*domain.Payment, error) {
	if reason == "" {
		return nil, domain.ErrValidation("refund reason is required")
	}

	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin refund: %w", err)
	}
	defer tx.Rollback(ctx)

	payment, err := o.payments.LockByID(ctx, tx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("lock payment: %w", err)
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", paymentID.String())
	}
	if !payment.Settled {
		return nil, domain.ErrConflict("payment was never settled, nothing to refund")
	}

	sellerShare, _ := domain.Split(payment.Amount, domain.DefaultSellerRateBps)
	meta, _ := json.Marshal(map[string]string{
		"refunded_by": adminID.String(),
		"reason":      reason,
	})
	result, err := o.engine.ExecuteRefund(ctx, tx, domain.RefundParams{
		SellerID:       payment.SellerID,
		Amount:         sellerShare,
		IdempotencyKey: payment.ID.String(),
		Description:    "refund of project " + payment.ProjectID.String(),
		PaymentID:      &payment.ID,
		ProjectID:      &payment.ProjectID,
		Metadata:       meta,
	})
	if err != nil {
		return nil, err
	}

	if !result.Idempotent {
		if err := o.users.AddEarnings(ctx, tx, payment.SellerID, -sellerShare); err != nil {
			return nil, fmt.Errorf("unwind seller stats: %w", err)
		}
		note := domain.NewNotificationEvent(domain.AggregatePayment, payment.ID,
			domain.EventRefundIssued, payment.BuyerID, map[string]uuid.UUID{"payment": payment.ID})
		if err := o.outbox.Insert(ctx, tx, note); err != nil {
			return nil, fmt.Errorf("queue refund notification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit refund: %w", err)
	}

	o.logger.Info("sale refunded",
		"payment_id", payment.ID,
		"seller_share", sellerShare,
		"admin_id", adminID,
		"idempotent", result.Idempotent)
	return payment, nil
}

// consumeDiscount burns the code snapshotted on the payment. A replay after
// a crash finds the code already consumed by this same payment and treats
// that as done; consumption by any other payment is a conflict.
func (o *Orchestrator) consumeDiscount(ctx context.Context, tx repository.DBTX, payment *domain.Payment) error {
	code, err := o.negotiations.FindCode(ctx, tx, payment.Discount.Code)
	if err != nil {
		return fmt.Errorf("find discount code: %w", err)
	}
	if code == nil {
		return domain.ErrNotFound("discount code", payment.Discount.Code)
	}

	consumed, err := o.negotiations.ConsumeCode(ctx, tx, code.ID, payment.ID)
	if err != nil {
		return fmt.Errorf("consume discount code: %w", err)
	}
	if consumed {
		return nil
	}
	if code.UsedByPaymentID != nil && *code.UsedByPaymentID == payment.ID {
		return nil
	}
	return domain.ErrConflict("discount code has already been used")
}
