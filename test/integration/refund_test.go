//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/projectbuzz/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefund_ClawsBackSellerShare(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("refunded-seller@test.com")
	adminToken, _ := env.CreateAdmin("refunding-admin@test.com")

	paymentID := settleSale(t, env, sellerID, 100000)
	require.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))
	txBefore := testutil.CountTransactions(t, env, sellerID)

	resp := env.POST(fmt.Sprintf("/admin/payments/%s/refund", paymentID),
		map[string]string{"reason": "project files were corrupted"}, adminToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The seller's 85% share comes back out; earnings are unwound with it.
	assert.Equal(t, int64(0), testutil.WalletBalance(t, env, sellerID))
	assert.Equal(t, testutil.WalletBalance(t, env, sellerID), testutil.LedgerSum(t, env, sellerID))
	assert.Equal(t, txBefore+1, testutil.CountTransactions(t, env, sellerID))

	var totalEarned int64
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT total_earned::bigint FROM wallets WHERE seller_id = $1", sellerID).Scan(&totalEarned))
	assert.Equal(t, int64(0), totalEarned)

	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "buzz.notify.refund.issued"))
}

func TestRefund_ReplayIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("replay-refund-seller@test.com")
	adminToken, _ := env.CreateAdmin("replay-refund-admin@test.com")

	paymentID := settleSale(t, env, sellerID, 100000)

	for i := 0; i < 2; i++ {
		resp := env.POST(fmt.Sprintf("/admin/payments/%s/refund", paymentID),
			map[string]string{"reason": "duplicate charge"}, adminToken)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// One debit only, and one notification only.
	assert.Equal(t, int64(0), testutil.WalletBalance(t, env, sellerID))
	assert.Equal(t, 2, testutil.CountTransactions(t, env, sellerID))
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "buzz.notify.refund.issued"))
}

func TestRefund_RequiresReason(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("noreason-seller@test.com")
	adminToken, _ := env.CreateAdmin("noreason-admin@test.com")

	paymentID := settleSale(t, env, sellerID, 100000)

	resp := env.POST(fmt.Sprintf("/admin/payments/%s/refund", paymentID),
		map[string]string{"reason": ""}, adminToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	assert.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))
}

func TestRefund_UnsettledPaymentRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	buyerToken, _ := env.CreateUser("unsettled-buyer@test.com")
	_, sellerID := env.CreateUser("unsettled-seller@test.com")
	adminToken, _ := env.CreateAdmin("unsettled-admin@test.com")

	projectID := env.SeedProject(sellerID, 100000)
	paymentID, _ := env.CreateOrder(buyerToken, projectID, "")

	resp := env.POST(fmt.Sprintf("/admin/payments/%s/refund", paymentID),
		map[string]string{"reason": "buyer changed their mind"}, adminToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusConflict)
}

func TestRefund_UnknownPaymentNotFound(t *testing.T) {
	env := testutil.NewTestEnv(t)
	adminToken, _ := env.CreateAdmin("ghost-admin@test.com")

	resp := env.POST(fmt.Sprintf("/admin/payments/%s/refund", uuid.New()),
		map[string]string{"reason": "nothing here"}, adminToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusNotFound)
}

func TestRefund_RejectsUserTokens(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userToken, sellerID := env.CreateUser("selfrefund-seller@test.com")

	paymentID := settleSale(t, env, sellerID, 100000)

	resp := env.POST(fmt.Sprintf("/admin/payments/%s/refund", paymentID),
		map[string]string{"reason": "trying my luck"}, userToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestRefund_WorksOnSuspendedWallet(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("suspended-refund-seller@test.com")
	adminToken, _ := env.CreateAdmin("suspended-refund-admin@test.com")

	paymentID := settleSale(t, env, sellerID, 100000)

	suspendResp := env.PATCH(fmt.Sprintf("/admin/wallets/%s/status", sellerID),
		map[string]string{"status": "suspended"}, adminToken)
	suspendResp.Body.Close()
	require.Equal(t, http.StatusOK, suspendResp.StatusCode)

	// Suspension blocks payouts, not admin clawbacks.
	resp := env.POST(fmt.Sprintf("/admin/payments/%s/refund", paymentID),
		map[string]string{"reason": "chargeback received"}, adminToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int64(0), testutil.WalletBalance(t, env, sellerID))
}

// settleSale runs a full purchase and returns the settled payment's ID.
func settleSale(t *testing.T, env *testutil.TestEnv, sellerID uuid.UUID, gross int64) uuid.UUID {
	t.Helper()
	buyerToken, _ := env.CreateUser(fmt.Sprintf("refund_buyer_%s@test.com", uuid.New().String()[:8]))
	projectID := env.SeedProject(sellerID, gross)

	paymentID, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")
	resp := env.CapturePayment(gatewayOrderID, gross)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return paymentID
}
