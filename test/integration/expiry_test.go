//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/projectbuzz/platform/internal/repository"
	"github.com/projectbuzz/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_ExpiredPaymentUnblocksRetry(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("expiry-seller@test.com")
	buyerToken, _ := env.CreateUser("expiry-buyer@test.com")
	projectID := env.SeedProject(sellerID, 100000)

	firstID, _ := env.CreateOrder(buyerToken, projectID, "")

	// While the first attempt is live a second one conflicts.
	resp := env.POST("/orders", map[string]interface{}{"project_id": projectID}, buyerToken)
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	_, err := env.Pool.Exec(context.Background(),
		"UPDATE payments SET expires_at = now() - interval '1 minute' WHERE id = $1", firstID)
	require.NoError(t, err)

	// Past its TTL the abandoned attempt no longer blocks a retry, even
	// before the sweeper has flipped its status.
	secondID, _ := env.CreateOrder(buyerToken, projectID, "")
	assert.NotEqual(t, firstID, secondID)
}

func TestOrder_SweepExpiresStalePayments(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, sellerID := env.CreateUser("sweep-seller@test.com")
	buyerToken, _ := env.CreateUser("sweep-buyer@test.com")
	staleProject := env.SeedProject(sellerID, 100000)
	freshProject := env.SeedProject(sellerID, 100000)

	staleID, _ := env.CreateOrder(buyerToken, staleProject, "")
	freshID, _ := env.CreateOrder(buyerToken, freshProject, "")

	_, err := env.Pool.Exec(context.Background(),
		"UPDATE payments SET expires_at = now() - interval '1 minute' WHERE id = $1", staleID)
	require.NoError(t, err)

	swept, err := repository.NewPaymentRepository().ExpireStale(context.Background(), env.Pool, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	var staleStatus, freshStatus string
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT status FROM payments WHERE id = $1", staleID).Scan(&staleStatus))
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT status FROM payments WHERE id = $1", freshID).Scan(&freshStatus))
	assert.Equal(t, "expired", staleStatus)
	assert.Equal(t, "pending", freshStatus)
}
