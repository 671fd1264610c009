//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/projectbuzz/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlement_CommissionSplit(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("split-seller@test.com")
	buyerToken, buyerID := env.CreateUser("split-buyer@test.com")

	// ₹1000 project
	projectID := env.SeedProject(sellerID, 100000)

	_, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")
	resp := env.CapturePayment(gatewayOrderID, 100000)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 85/15 split
	assert.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))
	assert.Equal(t, int64(15000), testutil.CommissionTotal(t, env))

	var owns bool
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT EXISTS(SELECT 1 FROM project_buyers WHERE project_id = $1 AND buyer_id = $2)",
		projectID, buyerID).Scan(&owns))
	assert.True(t, owns)

	var salesCount int64
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT sales_count FROM projects WHERE id = $1", projectID).Scan(&salesCount))
	assert.Equal(t, int64(1), salesCount)
}

func TestSettlement_PaymentMarkedSettled(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("settled-seller@test.com")
	buyerToken, _ := env.CreateUser("settled-buyer@test.com")
	projectID := env.SeedProject(sellerID, 50000)

	paymentID, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")
	resp := env.CapturePayment(gatewayOrderID, 50000)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status string
	var settled bool
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT status, settled FROM payments WHERE id = $1", paymentID).Scan(&status, &settled))
	assert.Equal(t, "paid", status)
	assert.True(t, settled)
}

func TestSettlement_WebhookReplayIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("replay-seller@test.com")
	buyerToken, _ := env.CreateUser("replay-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	_, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")

	for i := 0; i < 3; i++ {
		resp := env.CapturePayment(gatewayOrderID, 100000)
		require.Equal(t, http.StatusOK, resp.StatusCode, "delivery %d", i)
		resp.Body.Close()
	}

	assert.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))
	assert.Equal(t, int64(15000), testutil.CommissionTotal(t, env))
	assert.Equal(t, 1, testutil.CountTransactions(t, env, sellerID))
}

func TestSettlement_ClientVerifyThenWebhookSettlesOnce(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("dual-seller@test.com")
	buyerToken, _ := env.CreateUser("dual-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	_, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")
	gatewayPaymentID := "pay_" + uuid.New().String()[:12]

	verifyResp := env.POST("/orders/verify", map[string]string{
		"gateway_order_id":   gatewayOrderID,
		"gateway_payment_id": gatewayPaymentID,
		"signature":          testutil.PaymentSignature(gatewayOrderID, gatewayPaymentID),
	}, buyerToken)
	defer verifyResp.Body.Close()
	require.Equal(t, http.StatusOK, verifyResp.StatusCode)

	// The async webhook for the same capture arrives later.
	webhookResp := env.DeliverWebhook("payment.captured", gatewayOrderID, gatewayPaymentID, 100000, "")
	defer webhookResp.Body.Close()
	require.Equal(t, http.StatusOK, webhookResp.StatusCode)

	assert.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))
	assert.Equal(t, 1, testutil.CountTransactions(t, env, sellerID))
}

func TestSettlement_InvalidWebhookSignatureRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("badsig-seller@test.com")
	buyerToken, _ := env.CreateUser("badsig-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	_, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")

	payload, _ := json.Marshal(map[string]interface{}{
		"event": "payment.captured",
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       "pay_forged",
					"order_id": gatewayOrderID,
					"amount":   100000,
				},
			},
		},
	})
	resp := env.RawPOST("/webhooks/gateway", payload, map[string]string{
		"Content-Type":         "application/json",
		"X-Razorpay-Signature": "deadbeef",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(0), testutil.WalletBalance(t, env, sellerID))
}

func TestSettlement_InvalidClientSignatureRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("badverify-seller@test.com")
	buyerToken, _ := env.CreateUser("badverify-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	_, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")

	resp := env.POST("/orders/verify", map[string]string{
		"gateway_order_id":   gatewayOrderID,
		"gateway_payment_id": "pay_forged",
		"signature":          "deadbeef",
	}, buyerToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(0), testutil.WalletBalance(t, env, sellerID))
}

func TestSettlement_FailedPaymentCreditsNothing(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("failed-seller@test.com")
	buyerToken, _ := env.CreateUser("failed-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	paymentID, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")

	resp := env.DeliverWebhook("payment.failed", gatewayOrderID, "pay_failed", 100000, "card declined")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status string
	var failureReason *string
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT status, failure_reason FROM payments WHERE id = $1", paymentID).Scan(&status, &failureReason))
	assert.Equal(t, "failed", status)
	require.NotNil(t, failureReason)
	assert.Equal(t, "card declined", *failureReason)
	assert.Equal(t, int64(0), testutil.WalletBalance(t, env, sellerID))
}

func TestSettlement_LedgerMatchesBalance(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("ledger-seller@test.com")

	env.FundWallet(sellerToken, sellerID, 100000)
	env.FundWallet(sellerToken, sellerID, 40000)

	balance := testutil.WalletBalance(t, env, sellerID)
	assert.Equal(t, int64(85000+34000), balance)
	assert.Equal(t, balance, testutil.LedgerSum(t, env, sellerID))
}

func TestOrder_SelfPurchaseRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("self-seller@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	resp := env.POST("/orders", map[string]interface{}{"project_id": projectID}, sellerToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestOrder_SingleLivePaymentPerProject(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("live-seller@test.com")
	buyerToken, _ := env.CreateUser("live-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	env.CreateOrder(buyerToken, projectID, "")

	resp := env.POST("/orders", map[string]interface{}{"project_id": projectID}, buyerToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusConflict)
}

func TestOrder_AlreadyOwnedRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("owned-seller@test.com")
	buyerToken, _ := env.CreateUser("owned-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	_, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")
	capResp := env.CapturePayment(gatewayOrderID, 100000)
	capResp.Body.Close()

	resp := env.POST("/orders", map[string]interface{}{"project_id": projectID}, buyerToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusConflict)
}

func TestOrder_CancelStopsSettlementPath(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("cancel-seller@test.com")
	buyerToken, _ := env.CreateUser("cancel-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	paymentID, _ := env.CreateOrder(buyerToken, projectID, "")

	resp := env.POST(fmt.Sprintf("/orders/%s/cancel", paymentID), nil, buyerToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A second attempt is allowed now that the first is dead.
	resp2 := env.POST("/orders", map[string]interface{}{"project_id": projectID}, buyerToken)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusCreated, resp2.StatusCode)
}

func TestSettlement_NotificationDraftsQueued(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("notify-seller@test.com")
	buyerToken, _ := env.CreateUser("notify-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	_, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")
	resp := env.CapturePayment(gatewayOrderID, 100000)
	resp.Body.Close()

	// Buyer receipt, buyer access confirmation, seller alert.
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "buzz.notify.payment.succeeded"))
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "buzz.notify.purchase.confirmed"))
	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, "buzz.notify.sale.alert"))
}

func TestSettlement_WebhookForUnknownPaymentAcknowledged(t *testing.T) {
	env := testutil.NewTestEnv(t)

	// A capture for an order we never created must be acknowledged, not
	// errored, or the gateway redelivers it forever.
	resp := env.DeliverWebhook("payment.captured", "order_unknown_123", "pay_unknown_123", 100000, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2 := env.DeliverWebhook("payment.failed", "order_unknown_456", "pay_unknown_456", 100000, "card declined")
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	var payments int
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM payments").Scan(&payments))
	assert.Equal(t, 0, payments)
}

func TestOrder_CancelAfterSettlementConflicts(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("latecancel-seller@test.com")
	buyerToken, _ := env.CreateUser("latecancel-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	paymentID, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")
	captureResp := env.CapturePayment(gatewayOrderID, 100000)
	captureResp.Body.Close()
	require.Equal(t, http.StatusOK, captureResp.StatusCode)

	resp := env.POST(fmt.Sprintf("/orders/%s/cancel", paymentID), nil, buyerToken)
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusConflict)

	// The settled row is untouched and the seller keeps the credit.
	var status string
	var settled bool
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT status, settled FROM payments WHERE id = $1", paymentID).Scan(&status, &settled))
	assert.Equal(t, "paid", status)
	assert.True(t, settled)
	assert.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))
}
