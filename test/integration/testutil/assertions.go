//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body carries the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// WalletBalance reads the seller's stored wallet balance. Returns 0 if the
// wallet does not exist yet.
func WalletBalance(t *testing.T, env *TestEnv, sellerID uuid.UUID) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var balance int64
	err := env.Pool.QueryRow(ctx,
		"SELECT COALESCE((SELECT balance::bigint FROM wallets WHERE seller_id = $1), 0)",
		sellerID).Scan(&balance)
	if err != nil {
		t.Fatalf("WalletBalance: %v", err)
	}
	return balance
}

// LedgerSum recomputes credits minus debits over the seller's ledger entries.
func LedgerSum(t *testing.T, env *TestEnv, sellerID uuid.UUID) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var sum int64
	err := env.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			CASE WHEN t.direction = 'credit' THEN t.amount ELSE -t.amount END
		)::bigint, 0)
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.seller_id = $1`, sellerID).Scan(&sum)
	if err != nil {
		t.Fatalf("LedgerSum: %v", err)
	}
	return sum
}

// CountTransactions returns the number of ledger entries for a seller's wallet.
func CountTransactions(t *testing.T, env *TestEnv, sellerID uuid.UUID) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.seller_id = $1`, sellerID).Scan(&count)
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	return count
}

// CommissionTotal sums the wallet-less platform commission entries.
func CommissionTotal(t *testing.T, env *TestEnv) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var total int64
	err := env.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount)::bigint, 0) FROM transactions
		WHERE wallet_id IS NULL AND category = 'platform_commission'`).Scan(&total)
	if err != nil {
		t.Fatalf("CommissionTotal: %v", err)
	}
	return total
}

// CountOutboxEvents returns the number of outbox events of a given type.
func CountOutboxEvents(t *testing.T, env *TestEnv, eventType string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_outbox WHERE event_type = $1", eventType).Scan(&count)
	if err != nil {
		t.Fatalf("CountOutboxEvents: %v", err)
	}
	return count
}
