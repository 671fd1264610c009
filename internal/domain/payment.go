package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks one purchase attempt through its lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusActive    PaymentStatus = "active"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusExpired   PaymentStatus = "expired"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentTTL is how long an order stays live before it auto-expires.
const PaymentTTL = 30 * time.Minute

// paymentTransitions lists the allowed status moves. paid is terminal:
// settlement fires exactly once, guarded by the Settled flag.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusActive, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled},
	PaymentStatusActive:  {PaymentStatusPaid, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled},
}

// DiscountSnapshot freezes the discount applied to an order at creation time.
type DiscountSnapshot struct {
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
	OriginalPrice  int64  `json:"original_price"`
	FinalPrice     int64  `json:"final_price"`
}

// CustomerSnapshot freezes the buyer contact details sent to the gateway.
type CustomerSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Payment represents a payments table row: one purchase attempt from order
// creation to terminal state.
type Payment struct {
	ID               uuid.UUID         `json:"id"`
	BuyerID          uuid.UUID         `json:"buyer_id"`
	ProjectID        uuid.UUID         `json:"project_id"`
	SellerID         uuid.UUID         `json:"seller_id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           PaymentStatus     `json:"status"`
	GatewayOrderID   string            `json:"gateway_order_id"`
	GatewayPaymentID *string           `json:"gateway_payment_id,omitempty"`
	PaymentMethod    *string           `json:"payment_method,omitempty"`
	Discount         *DiscountSnapshot `json:"discount,omitempty"`
	Customer         CustomerSnapshot  `json:"customer"`
	Settled          bool              `json:"settled"`
	FailureReason    *string           `json:"failure_reason,omitempty"`
	GatewayPayload   json.RawMessage   `json:"gateway_payload,omitempty"`
	ExpiresAt        time.Time         `json:"expires_at"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IsTerminal reports whether the payment can no longer change status.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentStatusPaid, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled:
		return true
	}
	return false
}

// IsExpired reports whether the order's TTL has lapsed. Expiry is advisory:
// the sweeper transitions stale rows, read paths still check it.
func (p *Payment) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// IsLive reports whether the payment blocks a new purchase attempt for the
// same (buyer, project) pair.
func (p *Payment) IsLive(now time.Time) bool {
	return (p.Status == PaymentStatusPending || p.Status == PaymentStatusActive) && !p.IsExpired(now)
}

// CanTransitionTo reports whether moving to the target status is allowed.
func (p *Payment) CanTransitionTo(target PaymentStatus) bool {
	for _, s := range paymentTransitions[p.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// MarkPaid transitions to paid and stamps the gateway capture details.
// Calling it on an already-paid payment is a no-op that returns nil without
// re-stamping anything.
func (p *Payment) MarkPaid(gatewayPaymentID, method string, now time.Time) error {
	if p.Status == PaymentStatusPaid {
		return nil
	}
	if !p.CanTransitionTo(PaymentStatusPaid) {
		return ErrConflict("payment is " + string(p.Status) + ", cannot mark paid")
	}
	p.Status = PaymentStatusPaid
	p.GatewayPaymentID = &gatewayPaymentID
	if method != "" {
		p.PaymentMethod = &method
	}
	p.PaidAt = &now
	return nil
}

// MarkFailed transitions a non-terminal payment to failed.
func (p *Payment) MarkFailed(reason string) error {
	if !p.CanTransitionTo(PaymentStatusFailed) {
		return ErrConflict("payment is " + string(p.Status) + ", cannot mark failed")
	}
	p.Status = PaymentStatusFailed
	p.FailureReason = &reason
	return nil
}

// Cancel is the buyer-initiated abort. Disallowed once paid (or otherwise
// terminal) — there is no cancellation path after settlement.
func (p *Payment) Cancel() error {
	if !p.CanTransitionTo(PaymentStatusCancelled) {
		return ErrConflict("payment is " + string(p.Status) + ", cannot cancel")
	}
	p.Status = PaymentStatusCancelled
	return nil
}
