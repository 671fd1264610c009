package domain

import (
	"time"

	"github.com/google/uuid"
)

// NegotiationStatus tracks the offer exchange.
type NegotiationStatus string

const (
	NegotiationActive   NegotiationStatus = "active"
	NegotiationAccepted NegotiationStatus = "accepted"
	NegotiationRejected NegotiationStatus = "rejected"
)

// MinimumPriceBps is the negotiation floor: offers below 70% of the list
// price are never acceptable.
const MinimumPriceBps = 7000

// DiscountCodeTTL is how long a minted code stays redeemable.
const DiscountCodeTTL = 48 * time.Hour

// Negotiation holds a buyer/seller offer exchange for one project.
type Negotiation struct {
	ID            uuid.UUID         `json:"id"`
	BuyerID       uuid.UUID         `json:"buyer_id"`
	SellerID      uuid.UUID         `json:"seller_id"`
	ProjectID     uuid.UUID         `json:"project_id"`
	OriginalPrice int64             `json:"original_price"`
	MinimumPrice  int64             `json:"minimum_price"`
	CurrentOffer  int64             `json:"current_offer"`
	Status        NegotiationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewNegotiation opens an offer exchange with the floor derived from the
// list price.
func NewNegotiation(buyerID, sellerID, projectID uuid.UUID, originalPrice, initialOffer int64) (*Negotiation, error) {
	if initialOffer <= 0 {
		return nil, ErrValidation("offer must be positive")
	}
	if initialOffer >= originalPrice {
		return nil, ErrValidation("offer must be below the list price")
	}
	return &Negotiation{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		SellerID:      sellerID,
		ProjectID:     projectID,
		OriginalPrice: originalPrice,
		MinimumPrice:  PercentOf(originalPrice, MinimumPriceBps),
		CurrentOffer:  initialOffer,
		Status:        NegotiationActive,
	}, nil
}

// MakeOffer replaces the current offer while the negotiation is active.
func (n *Negotiation) MakeOffer(amount int64) error {
	if n.Status != NegotiationActive {
		return ErrConflict("negotiation is " + string(n.Status) + ", no further offers accepted")
	}
	if amount <= 0 {
		return ErrValidation("offer must be positive")
	}
	if amount >= n.OriginalPrice {
		return ErrValidation("offer must be below the list price")
	}
	n.CurrentOffer = amount
	return nil
}

// AcceptOffer closes the negotiation and mints a single-use discount code
// scoped to exactly the (buyer, project) pair that negotiated it. Allowed
// only while active and only when the current offer clears the floor.
func (n *Negotiation) AcceptOffer(code string, now time.Time) (*DiscountCode, error) {
	if n.Status != NegotiationActive {
		return nil, ErrConflict("negotiation is " + string(n.Status) + ", cannot accept")
	}
	if n.CurrentOffer < n.MinimumPrice {
		return nil, ErrValidation("offer is below the minimum acceptable price")
	}
	n.Status = NegotiationAccepted

	return &DiscountCode{
		ID:             uuid.New(),
		Code:           code,
		BuyerID:        n.BuyerID,
		ProjectID:      n.ProjectID,
		NegotiationID:  &n.ID,
		DiscountAmount: n.OriginalPrice - n.CurrentOffer,
		OriginalPrice:  n.OriginalPrice,
		Active:         true,
		ExpiresAt:      now.Add(DiscountCodeTTL),
	}, nil
}

// Reject closes the negotiation without minting anything.
func (n *Negotiation) Reject() error {
	if n.Status != NegotiationActive {
		return ErrConflict("negotiation is " + string(n.Status) + ", cannot reject")
	}
	n.Status = NegotiationRejected
	return nil
}

// DiscountCode is a time-boxed, single-use price reduction consumed by
// exactly one payment.
type DiscountCode struct {
	ID              uuid.UUID  `json:"id"`
	Code            string     `json:"code"`
	BuyerID         uuid.UUID  `json:"buyer_id"`
	ProjectID       uuid.UUID  `json:"project_id"`
	NegotiationID   *uuid.UUID `json:"negotiation_id,omitempty"`
	DiscountAmount  int64      `json:"discount_amount"`
	OriginalPrice   int64      `json:"original_price"`
	MinPurchase     int64      `json:"min_purchase"`
	Active          bool       `json:"active"`
	Used            bool       `json:"used"`
	UsedByPaymentID *uuid.UUID `json:"used_by_payment_id,omitempty"`
	ExpiresAt       time.Time  `json:"expires_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DiscountPercentage is a display figure derived from the snapshot prices.
func (d *DiscountCode) DiscountPercentage() int64 {
	if d.OriginalPrice <= 0 {
		return 0
	}
	return d.DiscountAmount * 100 / d.OriginalPrice
}

// ValidateForPurchase checks redeemability in a fixed order, short-circuiting
// on the first failure. The reason strings are surfaced verbatim to buyers.
func (d *DiscountCode) ValidateForPurchase(buyerID, projectID uuid.UUID, purchaseAmount int64, now time.Time) error {
	if !d.Active {
		return ErrValidation("discount code is no longer active")
	}
	if d.Used {
		return ErrValidation("discount code has already been used")
	}
	if now.After(d.ExpiresAt) {
		return ErrValidation("discount code has expired")
	}
	if d.BuyerID != buyerID {
		return ErrValidation("discount code was issued to a different buyer")
	}
	if d.ProjectID != projectID {
		return ErrValidation("discount code is not valid for this project")
	}
	// Negotiation-minted codes carry no minimum-purchase threshold.
	if d.NegotiationID == nil && purchaseAmount < d.MinPurchase {
		return ErrValidation("purchase amount is below the discount code minimum")
	}
	return nil
}

// MarkUsed consumes the code for the given payment.
func (d *DiscountCode) MarkUsed(paymentID uuid.UUID) error {
	if d.Used {
		return ErrConflict("discount code has already been used")
	}
	d.Used = true
	d.UsedByPaymentID = &paymentID
	return nil
}
