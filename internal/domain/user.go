package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthUser holds credentials from auth_users.
type AuthUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Verified     bool      `json:"verified"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStats carries the denormalized spend/earnings counters. These are
// best-effort aggregates, not part of the ledger invariant.
type UserStats struct {
	UserID        uuid.UUID `json:"user_id"`
	TotalSpent    int64     `json:"total_spent"`
	TotalEarned   int64     `json:"total_earned"`
	PurchaseCount int64     `json:"purchase_count"`
	SalesCount    int64     `json:"sales_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PendingRegistration is the short-lived state held between registration
// and OTP verification. Kept in the guard TTL store, never in a global map,
// so it is bounded in time and safe to shard across instances later.
type PendingRegistration struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	OTP          string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
