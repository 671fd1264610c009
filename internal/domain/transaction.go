package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TxDirection is the side of the ledger an entry lands on.
type TxDirection string

const (
	TxCredit TxDirection = "credit"
	TxDebit  TxDirection = "debit"
)

// TxCategory classifies a ledger entry.
type TxCategory string

const (
	TxSale               TxCategory = "sale"
	TxPayout             TxCategory = "payout"
	TxRefund             TxCategory = "refund"
	TxAdjustment         TxCategory = "adjustment"
	TxBonus              TxCategory = "bonus"
	TxPenalty            TxCategory = "penalty"
	TxPlatformCommission TxCategory = "platform_commission"
)

// Transaction represents a transactions row: one immutable, append-only
// ledger entry. Wallet balances must always equal the credit−debit sum over
// these rows. WalletID is nil for platform commission entries, which are
// kept for accounting but belong to no seller wallet.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	WalletID       *uuid.UUID      `json:"wallet_id,omitempty"`
	Direction      TxDirection     `json:"direction"`
	Category       TxCategory      `json:"category"`
	Amount         int64           `json:"amount"`
	BalanceAfter   int64           `json:"balance_after"`
	IdempotencyKey string          `json:"idempotency_key"`
	Description    string          `json:"description"`
	PaymentID      *uuid.UUID      `json:"payment_id,omitempty"`
	ProjectID      *uuid.UUID      `json:"project_id,omitempty"`
	PayoutID       *uuid.UUID      `json:"payout_id,omitempty"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
}

// LedgerKey is the composite idempotency key: a given key may appear at
// most once per category per wallet, which is what prevents double-crediting
// the same sale.
type LedgerKey struct {
	WalletID       uuid.UUID
	Category       TxCategory
	IdempotencyKey string
}
