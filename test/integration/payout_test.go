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

func TestPayout_RequiresBankDetails(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("nobank-seller@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)

	resp := env.POST("/payouts", map[string]int64{"amount": 50000}, sellerToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestPayout_BelowMinimumRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("min-seller@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	// Minimum is ₹250
	resp := env.POST("/payouts", map[string]int64{"amount": 24999}, sellerToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestPayout_InsufficientBalanceRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("broke-seller@test.com")
	env.FundWallet(sellerToken, sellerID, 50000) // wallet holds 42500
	env.SetBank(sellerToken)

	resp := env.POST("/payouts", map[string]int64{"amount": 60000}, sellerToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "INSUFFICIENT_BALANCE")
}

func TestPayout_SingleOpenRequestPerSeller(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("open-seller@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	resp := env.POST("/payouts", map[string]int64{"amount": 30000}, sellerToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Request does not move funds, only approval does.
	assert.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))

	resp2 := env.POST("/payouts", map[string]int64{"amount": 30000}, sellerToken)
	defer resp2.Body.Close()
	testutil.AssertStatus(t, resp2, http.StatusConflict)
}

func TestPayout_ApproveDebitsWallet(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("approve-seller@test.com")
	adminToken, _ := env.CreateAdmin("approve-admin@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	payoutID := requestPayout(t, env, sellerToken, 30000)

	resp := env.POST(fmt.Sprintf("/admin/payouts/%s/approve", payoutID),
		map[string]string{"comment": "verified bank details"}, adminToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payout struct {
		Status string `json:"status"`
	}
	testutil.DecodeJSON(t, resp, &payout)
	assert.Equal(t, "processing", payout.Status)

	assert.Equal(t, int64(55000), testutil.WalletBalance(t, env, sellerID))
	assert.Equal(t, testutil.WalletBalance(t, env, sellerID), testutil.LedgerSum(t, env, sellerID))

	var totalWithdrawn int64
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT total_withdrawn::bigint FROM wallets WHERE seller_id = $1", sellerID).Scan(&totalWithdrawn))
	assert.Equal(t, int64(30000), totalWithdrawn)
}

func TestPayout_CancelAfterApprovalRefunds(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("refund-seller@test.com")
	adminToken, _ := env.CreateAdmin("refund-admin@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	payoutID := requestPayout(t, env, sellerToken, 30000)

	approveResp := env.POST(fmt.Sprintf("/admin/payouts/%s/approve", payoutID),
		map[string]string{"comment": ""}, adminToken)
	approveResp.Body.Close()
	require.Equal(t, http.StatusOK, approveResp.StatusCode)
	require.Equal(t, int64(55000), testutil.WalletBalance(t, env, sellerID))

	cancelResp := env.POST(fmt.Sprintf("/payouts/%s/cancel", payoutID), nil, sellerToken)
	defer cancelResp.Body.Close()
	require.Equal(t, http.StatusOK, cancelResp.StatusCode)

	// Reversal restores the balance and unwinds the withdrawal counter.
	assert.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))
	assert.Equal(t, testutil.WalletBalance(t, env, sellerID), testutil.LedgerSum(t, env, sellerID))

	var totalWithdrawn int64
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT total_withdrawn::bigint FROM wallets WHERE seller_id = $1", sellerID).Scan(&totalWithdrawn))
	assert.Equal(t, int64(0), totalWithdrawn)
}

func TestPayout_CancelBeforeApprovalMovesNothing(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("precancel-seller@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	payoutID := requestPayout(t, env, sellerToken, 30000)
	txBefore := testutil.CountTransactions(t, env, sellerID)

	resp := env.POST(fmt.Sprintf("/payouts/%s/cancel", payoutID), nil, sellerToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))
	assert.Equal(t, txBefore, testutil.CountTransactions(t, env, sellerID))
}

func TestPayout_RejectRequiresReason(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("reject-seller@test.com")
	adminToken, _ := env.CreateAdmin("reject-admin@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	payoutID := requestPayout(t, env, sellerToken, 30000)

	resp := env.POST(fmt.Sprintf("/admin/payouts/%s/reject", payoutID),
		map[string]string{"reason": ""}, adminToken)
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusBadRequest)

	resp2 := env.POST(fmt.Sprintf("/admin/payouts/%s/reject", payoutID),
		map[string]string{"reason": "bank account mismatch"}, adminToken)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	// Nothing was debited, so rejection leaves the balance alone.
	assert.Equal(t, int64(85000), testutil.WalletBalance(t, env, sellerID))
}

func TestPayout_CompleteRequiresUTR(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("complete-seller@test.com")
	adminToken, _ := env.CreateAdmin("complete-admin@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	payoutID := requestPayout(t, env, sellerToken, 30000)

	approveResp := env.POST(fmt.Sprintf("/admin/payouts/%s/approve", payoutID),
		map[string]string{"comment": ""}, adminToken)
	approveResp.Body.Close()
	require.Equal(t, http.StatusOK, approveResp.StatusCode)

	resp := env.POST(fmt.Sprintf("/admin/payouts/%s/complete", payoutID),
		map[string]string{"utr": ""}, adminToken)
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusBadRequest)

	resp2 := env.POST(fmt.Sprintf("/admin/payouts/%s/complete", payoutID),
		map[string]string{"utr": "UTR123456789"}, adminToken)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var status string
	var utr *string
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT status, utr FROM payouts WHERE id = $1", payoutID).Scan(&status, &utr))
	assert.Equal(t, "completed", status)
	require.NotNil(t, utr)
	assert.Equal(t, "UTR123456789", *utr)
}

func TestPayout_CannotCompleteBeforeApproval(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("skip-seller@test.com")
	adminToken, _ := env.CreateAdmin("skip-admin@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	payoutID := requestPayout(t, env, sellerToken, 30000)

	resp := env.POST(fmt.Sprintf("/admin/payouts/%s/complete", payoutID),
		map[string]string{"utr": "UTR123456789"}, adminToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusConflict)
}

func TestPayout_CancelByOtherSellerForbidden(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("victim-seller@test.com")
	otherToken, _ := env.CreateUser("other-seller@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	payoutID := requestPayout(t, env, sellerToken, 30000)

	resp := env.POST(fmt.Sprintf("/payouts/%s/cancel", payoutID), nil, otherToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusForbidden)
}

func TestPayout_AdminRoutesRejectUserTokens(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userToken, _ := env.CreateUser("notadmin@test.com")

	resp := env.AuthGET("/admin/payouts/pending", userToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestPayout_PendingListVisibleToAdmin(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("list-seller@test.com")
	adminToken, _ := env.CreateAdmin("list-admin@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	payoutID := requestPayout(t, env, sellerToken, 30000)

	resp := env.AuthGET("/admin/payouts/pending", adminToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Payouts []struct {
			ID       uuid.UUID `json:"id"`
			SellerID uuid.UUID `json:"seller_id"`
			Amount   int64     `json:"amount"`
			Status   string    `json:"status"`
		} `json:"payouts"`
	}
	testutil.DecodeJSON(t, resp, &body)
	require.Len(t, body.Payouts, 1)
	assert.Equal(t, payoutID, body.Payouts[0].ID)
	assert.Equal(t, sellerID, body.Payouts[0].SellerID)
	assert.Equal(t, int64(30000), body.Payouts[0].Amount)
	assert.Equal(t, "pending", body.Payouts[0].Status)
}

func TestPayout_RejectAfterApprovalConflicts(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("lockstep-seller@test.com")
	adminToken, _ := env.CreateAdmin("lockstep-admin@test.com")
	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	payoutID := requestPayout(t, env, sellerToken, 30000)

	approveResp := env.POST(fmt.Sprintf("/admin/payouts/%s/approve", payoutID),
		map[string]string{"comment": ""}, adminToken)
	approveResp.Body.Close()
	require.Equal(t, http.StatusOK, approveResp.StatusCode)

	// A second reviewer losing the race reads processing and conflicts; the
	// approved status and the debit both stand.
	resp := env.POST(fmt.Sprintf("/admin/payouts/%s/reject", payoutID),
		map[string]string{"reason": "duplicate request"}, adminToken)
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusConflict)

	var status string
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT status FROM payouts WHERE id = $1", payoutID).Scan(&status))
	assert.Equal(t, "processing", status)
	assert.Equal(t, int64(55000), testutil.WalletBalance(t, env, sellerID))
}

func requestPayout(t *testing.T, env *testutil.TestEnv, sellerToken string, amount int64) uuid.UUID {
	t.Helper()
	resp := env.POST("/payouts", map[string]int64{"amount": amount}, sellerToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var payout struct {
		ID uuid.UUID `json:"id"`
	}
	testutil.DecodeJSON(t, resp, &payout)
	return payout.ID
}
