package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/gateway"
	"github.com/projectbuzz/platform/internal/repository"
	"github.com/projectbuzz/platform/internal/settlement"
)

// OrderService handles purchase order creation and the two settlement entry
// points (gateway webhook, client verification).
type OrderService struct {
	pool         *pgxpool.Pool
	gateway      *gateway.Client
	orchestrator *settlement.Orchestrator
	payments     repository.PaymentRepository
	projects     repository.ProjectRepository
	negotiations repository.NegotiationRepository
	users        repository.AuthUserRepository
	logger       *slog.Logger
}

// NewOrderService creates an OrderService.
func NewOrderService(
	pool *pgxpool.Pool,
	gw *gateway.Client,
	orchestrator *settlement.Orchestrator,
	payments repository.PaymentRepository,
	projects repository.ProjectRepository,
	negotiations repository.NegotiationRepository,
	users repository.AuthUserRepository,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		pool:         pool,
		gateway:      gw,
		orchestrator: orchestrator,
		payments:     payments,
		projects:     projects,
		negotiations: negotiations,
		users:        users,
		logger:       logger,
	}
}

// CreateOrder opens a purchase attempt: validates the project and any
// discount code, registers a gateway order for the final price, and records
// the pending payment with a 30-minute expiry.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID, projectID uuid.UUID, discountCode string) (*domain.Payment, error) {
	project, err := s.projects.FindByID(ctx, s.pool, projectID)
	if err != nil {
		return nil, domain.ErrInternal("find project", err)
	}
	if project == nil {
		return nil, domain.ErrNotFound("project", projectID.String())
	}
	if !project.Purchasable() {
		return nil, domain.ErrValidation("project is not available for purchase")
	}
	if project.SellerID == buyerID {
		return nil, domain.ErrValidation("you cannot purchase your own project")
	}

	owned, err := s.projects.HasBuyer(ctx, s.pool, projectID, buyerID)
	if err != nil {
		return nil, domain.ErrInternal("check ownership", err)
	}
	if owned {
		return nil, domain.ErrConflict("you already own this project")
	}

	now := time.Now()
	live, err := s.payments.FindLiveByBuyerProject(ctx, s.pool, buyerID, projectID, now)
	if err != nil {
		return nil, domain.ErrInternal("check outstanding payment", err)
	}
	if live != nil {
		return nil, domain.ErrConflict("a payment for this project is already in progress")
	}

	buyer, err := s.users.FindByID(ctx, s.pool, buyerID)
	if err != nil {
		return nil, domain.ErrInternal("find buyer", err)
	}
	if buyer == nil {
		return nil, domain.ErrNotFound("user", buyerID.String())
	}

	finalPrice := project.Price
	var snapshot *domain.DiscountSnapshot
	if discountCode != "" {
		code, err := s.negotiations.FindCode(ctx, s.pool, discountCode)
		if err != nil {
			return nil, domain.ErrInternal("find discount code", err)
		}
		if code == nil {
			return nil, domain.ErrValidation("discount code does not exist")
		}
		if err := code.ValidateForPurchase(buyerID, projectID, project.Price, now); err != nil {
			return nil, err
		}
		finalPrice = project.Price - code.DiscountAmount
		if finalPrice <= 0 {
			return nil, domain.ErrValidation("discount exceeds the project price")
		}
		snapshot = &domain.DiscountSnapshot{
			Code:           code.Code,
			DiscountAmount: code.DiscountAmount,
			OriginalPrice:  project.Price,
			FinalPrice:     finalPrice,
		}
	}

	payment := &domain.Payment{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		ProjectID: projectID,
		SellerID:  project.SellerID,
		Amount:    finalPrice,
		Currency:  "INR",
		Status:    domain.PaymentStatusPending,
		Discount:  snapshot,
		Customer: domain.CustomerSnapshot{
			Name:  buyer.Name,
			Email: buyer.Email,
			Phone: buyer.Phone,
		},
		ExpiresAt: now.Add(domain.PaymentTTL),
	}

	order, err := s.gateway.CreateOrder(ctx, finalPrice, payment.Currency, payment.ID.String())
	if err != nil {
		return nil, domain.ErrInternal("create gateway order", err)
	}
	payment.GatewayOrderID = order.ID

	if err := s.payments.Create(ctx, s.pool, payment); err != nil {
		return nil, domain.ErrInternal("record payment", err)
	}

	s.logger.Info("order created",
		"payment_id", payment.ID,
		"buyer_id", buyerID,
		"project_id", projectID,
		"amount", finalPrice,
		"discounted", snapshot != nil)
	return payment, nil
}

// VerifyPayment is the client-side settlement path: the frontend posts the
// gateway's checkout callback (order id, payment id, signature) after the
// buyer completes checkout. The signature check stops forged confirmations.
func (s *OrderService) VerifyPayment(ctx context.Context, buyerID uuid.UUID, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Payment, error) {
	payment, err := s.payments.FindByGatewayOrderID(ctx, s.pool, gatewayOrderID)
	if err != nil {
		return nil, domain.ErrInternal("find payment", err)
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", gatewayOrderID)
	}
	if payment.BuyerID != buyerID {
		return nil, domain.ErrForbidden("payment belongs to a different buyer")
	}

	if !s.gateway.VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature) {
		return nil, domain.ErrSignatureInvalid("payment signature verification failed")
	}

	raw, _ := json.Marshal(map[string]string{
		"source":             "client_verify",
		"gateway_order_id":   gatewayOrderID,
		"gateway_payment_id": gatewayPaymentID,
	})
	return s.orchestrator.SettleCapture(ctx, settlement.CaptureParams{
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
		RawPayload:       raw,
	})
}

// HandleGatewayWebhook processes a verified gateway webhook. Capture events
// settle, failure events mark the payment failed, everything else is logged
// and acknowledged so the gateway stops retrying. Events referencing a
// payment we never created are acknowledged too; returning an error would
// put the gateway into an endless redelivery loop for a row that will never
// appear.
func (s *OrderService) HandleGatewayWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return domain.ErrSignatureInvalid("webhook signature verification failed")
	}

	entity := event.Payload.Payment.Entity
	switch event.Event {
	case "payment.captured":
		_, err := s.orchestrator.SettleCapture(ctx, settlement.CaptureParams{
			GatewayOrderID:   entity.OrderID,
			GatewayPaymentID: entity.ID,
			Method:           entity.Method,
			RawPayload:       payload,
		})
		return s.dropIfUnknown(err, event.Event, entity.OrderID)
	case "payment.failed":
		reason := entity.ErrorDescription
		if reason == "" {
			reason = "payment failed at gateway"
		}
		_, err := s.orchestrator.FailCapture(ctx, entity.OrderID, reason, payload)
		return s.dropIfUnknown(err, event.Event, entity.OrderID)
	default:
		s.logger.Info("unhandled gateway event", "event", event.Event)
		return nil
	}
}

// dropIfUnknown swallows NOT_FOUND from the settlement paths so the webhook
// handler answers 200 for payments that do not exist on our side.
func (s *OrderService) dropIfUnknown(err error, event, gatewayOrderID string) error {
	if domain.IsNotFound(err) {
		s.logger.Warn("webhook for unknown payment dropped",
			"event", event, "gateway_order_id", gatewayOrderID)
		return nil
	}
	return err
}

// CancelOrder is the buyer-initiated abort of a live payment. The row lock
// serializes it against the settlement paths: a cancel racing a capture
// waits for the settlement commit, then reads paid and conflicts instead of
// overwriting the settled row.
func (s *OrderService) CancelOrder(ctx context.Context, buyerID, paymentID uuid.UUID) (*domain.Payment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	payment, err := s.payments.LockByID(ctx, tx, paymentID)
	if err != nil {
		return nil, domain.ErrInternal("find payment", err)
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", paymentID.String())
	}
	if payment.BuyerID != buyerID {
		return nil, domain.ErrForbidden("payment belongs to a different buyer")
	}

	if err := payment.Cancel(); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, tx, payment); err != nil {
		return nil, domain.ErrInternal("persist payment", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("order cancelled", "payment_id", payment.ID, "buyer_id", buyerID)
	return payment, nil
}

// GetOrder returns a payment the buyer owns.
func (s *OrderService) GetOrder(ctx context.Context, buyerID, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, s.pool, paymentID)
	if err != nil {
		return nil, domain.ErrInternal("find payment", err)
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", paymentID.String())
	}
	if payment.BuyerID != buyerID {
		return nil, domain.ErrForbidden("payment belongs to a different buyer")
	}
	return payment, nil
}

// ListOrders returns the buyer's payment history.
func (s *OrderService) ListOrders(ctx context.Context, buyerID uuid.UUID) ([]domain.Payment, error) {
	payments, err := s.payments.ListByBuyer(ctx, s.pool, buyerID, 50)
	if err != nil {
		return nil, domain.ErrInternal("list payments", err)
	}
	return payments, nil
}
