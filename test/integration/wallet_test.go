//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/projectbuzz/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallet_NewSellerSeesZeroWallet(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("fresh-seller@test.com")

	resp := env.AuthGET("/wallet", sellerToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wallet struct {
		SellerID uuid.UUID `json:"seller_id"`
		Balance  int64     `json:"balance"`
		Status   string    `json:"status"`
	}
	testutil.DecodeJSON(t, resp, &wallet)
	assert.Equal(t, sellerID, wallet.SellerID)
	assert.Equal(t, int64(0), wallet.Balance)
	assert.Equal(t, "active", wallet.Status)
}

func TestWallet_BalanceReflectsSettlements(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("earning-seller@test.com")

	env.FundWallet(sellerToken, sellerID, 100000)

	resp := env.AuthGET("/wallet", sellerToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wallet struct {
		Balance     int64 `json:"balance"`
		TotalEarned int64 `json:"total_earned"`
	}
	testutil.DecodeJSON(t, resp, &wallet)
	assert.Equal(t, int64(85000), wallet.Balance)
	assert.Equal(t, int64(85000), wallet.TotalEarned)
}

func TestWallet_TransactionsPaginate(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("paging-seller@test.com")

	for i := 0; i < 3; i++ {
		env.FundWallet(sellerToken, sellerID, 100000)
	}

	type txPage struct {
		Transactions []struct {
			ID        uuid.UUID `json:"id"`
			Direction string    `json:"direction"`
			Amount    int64     `json:"amount"`
		} `json:"transactions"`
		NextCursor *string `json:"next_cursor,omitempty"`
	}

	resp := env.AuthGET("/wallet/transactions?limit=2", sellerToken)
	var page1 txPage
	testutil.DecodeJSON(t, resp, &page1)
	require.Len(t, page1.Transactions, 2)
	require.NotNil(t, page1.NextCursor)

	resp2 := env.AuthGET(fmt.Sprintf("/wallet/transactions?limit=2&cursor=%s", *page1.NextCursor), sellerToken)
	var page2 txPage
	testutil.DecodeJSON(t, resp2, &page2)
	require.Len(t, page2.Transactions, 1)
	assert.Nil(t, page2.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, tx := range append(page1.Transactions, page2.Transactions...) {
		assert.False(t, seen[tx.ID], "transaction %s appeared twice", tx.ID)
		seen[tx.ID] = true
		assert.Equal(t, "credit", tx.Direction)
		assert.Equal(t, int64(85000), tx.Amount)
	}
}

func TestWallet_BankDetailsValidated(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, _ := env.CreateUser("bank-seller@test.com")

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing holder", map[string]string{"account_holder": "", "account_number": "1234567890", "ifsc": "HDFC0001234"}},
		{"short account", map[string]string{"account_holder": "S", "account_number": "1234", "ifsc": "HDFC0001234"}},
		{"bad ifsc", map[string]string{"account_holder": "S", "account_number": "1234567890", "ifsc": "NOPE"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.PUT("/wallet/bank", tc.body, sellerToken)
			defer resp.Body.Close()
			testutil.AssertStatus(t, resp, http.StatusBadRequest)
		})
	}

	env.SetBank(sellerToken)
}

func TestWallet_AdminReconcileReportsConsistent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("recon-seller@test.com")
	adminToken, _ := env.CreateAdmin("recon-admin@test.com")

	env.FundWallet(sellerToken, sellerID, 100000)

	resp := env.AuthGET(fmt.Sprintf("/admin/wallets/%s/reconcile", sellerID), adminToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Balance    int64 `json:"balance"`
		LedgerSum  int64 `json:"ledger_sum"`
		Consistent bool  `json:"consistent"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, int64(85000), result.Balance)
	assert.Equal(t, int64(85000), result.LedgerSum)
	assert.True(t, result.Consistent)
}

func TestWallet_SuspendedWalletBlocksPayouts(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("suspend-seller@test.com")
	adminToken, _ := env.CreateAdmin("suspend-admin@test.com")

	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	patchResp := env.PATCH(fmt.Sprintf("/admin/wallets/%s/status", sellerID),
		map[string]string{"status": "suspended"}, adminToken)
	patchResp.Body.Close()
	require.Equal(t, http.StatusOK, patchResp.StatusCode)

	resp := env.POST("/payouts", map[string]int64{"amount": 30000}, sellerToken)
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusConflict)

	// Suspended wallets still receive sale credits.
	env.FundWallet(sellerToken, sellerID, 40000)
	assert.Equal(t, int64(85000+34000), testutil.WalletBalance(t, env, sellerID))
}

func TestWallet_SuspendedWalletCanBeReactivated(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("reactivate-seller@test.com")
	adminToken, _ := env.CreateAdmin("reactivate-admin@test.com")

	env.FundWallet(sellerToken, sellerID, 100000)
	env.SetBank(sellerToken)

	for _, status := range []string{"suspended", "active"} {
		resp := env.PATCH(fmt.Sprintf("/admin/wallets/%s/status", sellerID),
			map[string]string{"status": status}, adminToken)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := env.POST("/payouts", map[string]int64{"amount": 30000}, sellerToken)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestWallet_AdminDashboardAggregates(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("dash-seller@test.com")
	adminToken, _ := env.CreateAdmin("dash-admin@test.com")

	env.FundWallet(sellerToken, sellerID, 100000)

	resp := env.AuthGET("/admin/reports/dashboard", adminToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		TotalSellers    int   `json:"total_sellers"`
		SettledPayments int   `json:"settled_payments"`
		GrossVolume     int64 `json:"gross_volume"`
		PlatformRevenue int64 `json:"platform_revenue"`
	}
	testutil.DecodeJSON(t, resp, &stats)
	assert.Equal(t, 1, stats.TotalSellers)
	assert.Equal(t, 1, stats.SettledPayments)
	assert.Equal(t, int64(100000), stats.GrossVolume)
	assert.Equal(t, int64(15000), stats.PlatformRevenue)
}
