//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/projectbuzz/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterRequiresVerification(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.POST("/auth/register", map[string]string{
		"email":    "newuser@test.com",
		"name":     "New User",
		"password": "securepass123",
	}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "verification_required", body.Status)

	// No account exists until the OTP is verified.
	loginResp := env.POST("/auth/login", map[string]string{
		"email":    "newuser@test.com",
		"password": "securepass123",
	}, "")
	defer loginResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, loginResp.StatusCode)
}

func TestAuth_RegisterRejectsDuplicateEmail(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.CreateUser("taken@test.com")

	resp := env.POST("/auth/register", map[string]string{
		"email":    "taken@test.com",
		"name":     "Impostor",
		"password": "securepass123",
	}, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusConflict)
}

func TestAuth_RegisterValidation(t *testing.T) {
	env := testutil.NewTestEnv(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"bad email", map[string]string{"email": "not-an-email", "name": "A", "password": "securepass123"}},
		{"missing name", map[string]string{"email": "a@test.com", "name": "", "password": "securepass123"}},
		{"short password", map[string]string{"email": "a@test.com", "name": "A", "password": "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.POST("/auth/register", tc.body, "")
			defer resp.Body.Close()
			testutil.AssertStatus(t, resp, http.StatusBadRequest)
		})
	}
}

func TestAuth_LoginIssuesUsableToken(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.CreateUser("login@test.com")

	resp := env.POST("/auth/login", map[string]string{
		"email":    "login@test.com",
		"password": "securepass123",
	}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Token  string    `json:"token"`
		UserID uuid.UUID `json:"user_id"`
		Email  string    `json:"email"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, "login@test.com", result.Email)

	statsResp := env.AuthGET("/me/stats", result.Token)
	defer statsResp.Body.Close()
	assert.Equal(t, http.StatusOK, statsResp.StatusCode)
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.CreateUser("wrongpass@test.com")

	resp := env.POST("/auth/login", map[string]string{
		"email":    "wrongpass@test.com",
		"password": "not-the-password",
	}, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestAuth_AdminLoginRequiresAdminFlag(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.CreateUser("plainuser@test.com")

	resp := env.POST("/auth/admin/login", map[string]string{
		"email":    "plainuser@test.com",
		"password": "securepass123",
	}, "")
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusForbidden)
}

func TestAuth_AdminLoginIssuesAdminToken(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.CreateAdmin("realadmin@test.com")

	resp := env.POST("/auth/admin/login", map[string]string{
		"email":    "realadmin@test.com",
		"password": "adminpass123",
	}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Token string `json:"token"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.NotEmpty(t, result.Token)

	adminResp := env.AuthGET("/admin/payouts/pending", result.Token)
	defer adminResp.Body.Close()
	assert.Equal(t, http.StatusOK, adminResp.StatusCode)
}

func TestAuth_ProtectedRoutesRejectAnonymous(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/wallet")
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestAuth_StatsTrackPurchasesAndSales(t *testing.T) {
	env := testutil.NewTestEnv(t)
	sellerToken, sellerID := env.CreateUser("stats-seller@test.com")
	buyerToken, _ := env.CreateUser("stats-buyer@test.com")

	projectID := env.SeedProject(sellerID, 100000)
	_, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")
	capResp := env.CapturePayment(gatewayOrderID, 100000)
	capResp.Body.Close()
	require.Equal(t, http.StatusOK, capResp.StatusCode)

	var buyerStats struct {
		TotalSpent    int64 `json:"total_spent"`
		PurchaseCount int64 `json:"purchase_count"`
	}
	buyerResp := env.AuthGET("/me/stats", buyerToken)
	testutil.DecodeJSON(t, buyerResp, &buyerStats)
	assert.Equal(t, int64(100000), buyerStats.TotalSpent)
	assert.Equal(t, int64(1), buyerStats.PurchaseCount)

	var sellerStats struct {
		TotalEarned int64 `json:"total_earned"`
		SalesCount  int64 `json:"sales_count"`
	}
	sellerResp := env.AuthGET("/me/stats", sellerToken)
	testutil.DecodeJSON(t, sellerResp, &sellerStats)
	assert.Equal(t, int64(85000), sellerStats.TotalEarned)
	assert.Equal(t, int64(1), sellerStats.SalesCount)
}
