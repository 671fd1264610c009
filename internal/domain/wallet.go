package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WalletStatus marks whether a wallet may move funds.
type WalletStatus string

const (
	WalletActive    WalletStatus = "active"
	WalletSuspended WalletStatus = "suspended"
)

// BankDetails is the payout destination snapshot stored on the wallet and
// copied onto each payout request.
type BankDetails struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bank_name,omitempty"`
}

// Wallet represents a wallets row: one per seller, created lazily on first
// credit or first payout request, never deleted, only suspended.
type Wallet struct {
	ID                uuid.UUID    `json:"id"`
	SellerID          uuid.UUID    `json:"seller_id"`
	Balance           int64        `json:"balance"`
	TotalEarned       int64        `json:"total_earned"`
	TotalWithdrawn    int64        `json:"total_withdrawn"`
	Status            WalletStatus `json:"status"`
	Bank              *BankDetails `json:"bank,omitempty"`
	LastTransactionAt *time.Time   `json:"last_transaction_at,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// CanWithdraw reports whether the wallet covers a withdrawal of amount.
func (w *Wallet) CanWithdraw(amount int64) bool {
	return w.Status == WalletActive && w.Balance >= amount
}

// BalanceUpdate describes the column deltas applied by PostLedgerEntry in
// the same statement as the row lock, so sufficiency checks and the write
// can never race.
type BalanceUpdate struct {
	Balance        int64 // delta for balance
	TotalEarned    int64 // delta for total_earned
	TotalWithdrawn int64 // delta for total_withdrawn
}

// PostLedgerEntryParams is the input to the atomic PostLedgerEntry operation.
type PostLedgerEntryParams struct {
	WalletID       uuid.UUID
	Direction      TxDirection
	Category       TxCategory
	Amount         int64
	BalanceUpdate  BalanceUpdate
	IdempotencyKey string
	Description    string
	PaymentID      *uuid.UUID
	ProjectID      *uuid.UUID
	PayoutID       *uuid.UUID
	Metadata       json.RawMessage
}

// CommandResult is the return value from the ledger commands.
type CommandResult struct {
	Transaction *Transaction
	Wallet      *Wallet
	Idempotent  bool // true if this was a duplicate that returned the existing entry
}

// CreditParams holds the input for ExecuteCredit.
type CreditParams struct {
	SellerID       uuid.UUID
	Amount         int64
	Category       TxCategory
	IdempotencyKey string
	Description    string
	PaymentID      *uuid.UUID
	ProjectID      *uuid.UUID
	Metadata       json.RawMessage
}

// DebitParams holds the input for ExecuteDebit.
type DebitParams struct {
	SellerID       uuid.UUID
	Amount         int64
	Category       TxCategory
	IdempotencyKey string
	Description    string
	PayoutID       *uuid.UUID
	Metadata       json.RawMessage
}

// ReversalParams holds the input for ExecutePayoutReversal.
type ReversalParams struct {
	SellerID       uuid.UUID
	Amount         int64
	IdempotencyKey string
	Description    string
	PayoutID       *uuid.UUID
	Metadata       json.RawMessage
}

// RefundParams holds the input for ExecuteRefund.
type RefundParams struct {
	SellerID       uuid.UUID
	Amount         int64
	IdempotencyKey string
	Description    string
	PaymentID      *uuid.UUID
	ProjectID      *uuid.UUID
	Metadata       json.RawMessage
}

// CommissionParams holds the input for ExecutePlatformCommission.
type CommissionParams struct {
	Amount         int64
	IdempotencyKey string
	Description    string
	PaymentID      *uuid.UUID
	ProjectID      *uuid.UUID
	Metadata       json.RawMessage
}
