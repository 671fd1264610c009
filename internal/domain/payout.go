package domain

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus tracks a withdrawal request through admin review and bank
// settlement.
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutApproved   PayoutStatus = "approved"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutRejected   PayoutStatus = "rejected"
	PayoutCancelled  PayoutStatus = "cancelled"
)

// MinPayoutAmount is the minimum payout floor: ₹250 in paise.
const MinPayoutAmount = 25000

// payoutTransitions lists the allowed status moves. The wallet debit happens
// on the approved → processing edge, never earlier; approve performs both
// edges in one atomic step so approved never rests with funds still held.
var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutPending:    {PayoutApproved, PayoutRejected, PayoutCancelled},
	PayoutApproved:   {PayoutProcessing, PayoutCancelled},
	PayoutProcessing: {PayoutCompleted, PayoutCancelled},
}

// Payout represents a payouts row.
type Payout struct {
	ID            uuid.UUID    `json:"id"`
	SellerID      uuid.UUID    `json:"seller_id"`
	WalletID      uuid.UUID    `json:"wallet_id"`
	Amount        int64        `json:"amount"`
	NetAmount     int64        `json:"net_amount"`
	Bank          BankDetails  `json:"bank"`
	Status        PayoutStatus `json:"status"`
	ReviewedBy    *uuid.UUID   `json:"reviewed_by,omitempty"`
	ReviewComment *string      `json:"review_comment,omitempty"`
	RejectReason  *string      `json:"reject_reason,omitempty"`
	UTR           *string      `json:"utr,omitempty"`
	RequestedAt   time.Time    `json:"requested_at"`
	ApprovedAt    *time.Time   `json:"approved_at,omitempty"`
	ProcessingAt  *time.Time   `json:"processing_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// IsTerminal reports whether the payout can no longer change status.
func (p *Payout) IsTerminal() bool {
	switch p.Status {
	case PayoutCompleted, PayoutRejected, PayoutCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving to the target status is allowed.
func (p *Payout) CanTransitionTo(target PayoutStatus) bool {
	for _, s := range payoutTransitions[p.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Approve records the admin decision and moves the payout to processing.
// The caller must debit the wallet in the same database transaction.
func (p *Payout) Approve(adminID uuid.UUID, comment string, now time.Time) error {
	if p.Status != PayoutPending {
		return ErrConflict("payout is " + string(p.Status) + ", only pending payouts can be approved")
	}
	p.Status = PayoutProcessing
	p.ReviewedBy = &adminID
	if comment != "" {
		p.ReviewComment = &comment
	}
	p.ApprovedAt = &now
	p.ProcessingAt = &now
	return nil
}

// Reject records the admin decision. Nothing was ever debited, so no wallet
// mutation accompanies it.
func (p *Payout) Reject(adminID uuid.UUID, reason, comment string) error {
	if p.Status != PayoutPending {
		return ErrConflict("payout is " + string(p.Status) + ", only pending payouts can be rejected")
	}
	p.Status = PayoutRejected
	p.ReviewedBy = &adminID
	p.RejectReason = &reason
	if comment != "" {
		p.ReviewComment = &comment
	}
	return nil
}

// MarkCompleted records the bank settlement reference. The debit already
// happened at approval, so no further wallet mutation.
func (p *Payout) MarkCompleted(utr string, now time.Time) error {
	if p.Status != PayoutProcessing {
		return ErrConflict("payout is " + string(p.Status) + ", only processing payouts can be completed")
	}
	if utr == "" {
		return ErrValidation("settlement reference (UTR) is required")
	}
	p.Status = PayoutCompleted
	p.UTR = &utr
	p.CompletedAt = &now
	return nil
}

// Cancel aborts a non-terminal payout. If the payout already reached
// processing the caller must reverse the debit with an adjustment credit.
func (p *Payout) Cancel() (refundRequired bool, err error) {
	if p.IsTerminal() {
		return false, ErrConflict("payout is " + string(p.Status) + ", cannot cancel")
	}
	refundRequired = p.Status == PayoutProcessing
	p.Status = PayoutCancelled
	return refundRequired, nil
}
