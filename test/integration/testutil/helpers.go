//go:build integration

package testutil

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/projectbuzz/platform/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser inserts a verified user directly and returns a user-realm token
// and the user ID. The OTP flow is exercised separately; most tests just
// need an authenticated account.
func (env *TestEnv) CreateUser(email string) (token string, userID uuid.UUID) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID = uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("securepass123"), bcrypt.DefaultCost)
	if err != nil {
		env.t.Fatalf("CreateUser: hash: %v", err)
	}

	_, err = env.Pool.Exec(ctx, `
		INSERT INTO auth_users (id, email, name, phone, password_hash, verified, is_admin)
		VALUES ($1, $2, 'Test User', '+919999999999', $3, true, false)`,
		userID, email, string(hash))
	if err != nil {
		env.t.Fatalf("CreateUser: insert: %v", err)
	}

	token, err = env.JWTMgr.GenerateToken(auth.RealmUser, userID, email)
	if err != nil {
		env.t.Fatalf("CreateUser: token: %v", err)
	}
	return token, userID
}

// CreateAdmin inserts an admin user directly and returns an admin-realm token.
func (env *TestEnv) CreateAdmin(email string) (token string, adminID uuid.UUID) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	adminID = uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("adminpass123"), bcrypt.DefaultCost)
	if err != nil {
		env.t.Fatalf("CreateAdmin: hash: %v", err)
	}

	_, err = env.Pool.Exec(ctx, `
		INSERT INTO auth_users (id, email, name, phone, password_hash, verified, is_admin)
		VALUES ($1, $2, 'Test Admin', '', $3, true, true)`,
		adminID, email, string(hash))
	if err != nil {
		env.t.Fatalf("CreateAdmin: insert: %v", err)
	}

	token, err = env.JWTMgr.GenerateToken(auth.RealmAdmin, adminID, email)
	if err != nil {
		env.t.Fatalf("CreateAdmin: token: %v", err)
	}
	return token, adminID
}

// SeedProject inserts a published project and returns its ID.
func (env *TestEnv) SeedProject(sellerID uuid.UUID, price int64) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	projectID := uuid.New()
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO projects (id, seller_id, title, price, status)
		VALUES ($1, $2, 'Test Project', $3, 'published')`,
		projectID, sellerID, price)
	if err != nil {
		env.t.Fatalf("SeedProject: %v", err)
	}
	return projectID
}

// SetBank stores payout bank details for the seller via the API.
func (env *TestEnv) SetBank(token string) {
	env.t.Helper()
	resp := env.PUT("/wallet/bank", map[string]string{
		"account_holder": "Test Seller",
		"account_number": "1234567890",
		"ifsc":           "HDFC0001234",
	}, token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("SetBank: expected 200, got %d", resp.StatusCode)
	}
}

// CreateOrder places an order for a project and returns the payment.
func (env *TestEnv) CreateOrder(token string, projectID uuid.UUID, discountCode string) (paymentID uuid.UUID, gatewayOrderID string) {
	env.t.Helper()
	body := map[string]interface{}{"project_id": projectID}
	if discountCode != "" {
		body["discount_code"] = discountCode
	}

	resp := env.POST("/orders", body, token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("CreateOrder: expected 201, got %d", resp.StatusCode)
	}

	var payment struct {
		ID             uuid.UUID `json:"id"`
		GatewayOrderID string    `json:"gateway_order_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		env.t.Fatalf("CreateOrder: decode: %v", err)
	}
	return payment.ID, payment.GatewayOrderID
}

// CapturePayment delivers a signed payment.captured webhook for the order.
func (env *TestEnv) CapturePayment(gatewayOrderID string, amount int64) *http.Response {
	env.t.Helper()
	gatewayPaymentID := "pay_" + uuid.New().String()[:12]
	return env.DeliverWebhook("payment.captured", gatewayOrderID, gatewayPaymentID, amount, "")
}

// DeliverWebhook signs and posts a gateway webhook event.
func (env *TestEnv) DeliverWebhook(event, gatewayOrderID, gatewayPaymentID string, amount int64, errorDescription string) *http.Response {
	env.t.Helper()

	payload, err := json.Marshal(map[string]interface{}{
		"event": event,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":                gatewayPaymentID,
					"order_id":          gatewayOrderID,
					"amount":            amount,
					"currency":          "INR",
					"status":            "captured",
					"method":            "upi",
					"error_description": errorDescription,
				},
			},
		},
		"created_at": time.Now().Unix(),
	})
	if err != nil {
		env.t.Fatalf("DeliverWebhook: marshal: %v", err)
	}

	return env.RawPOST("/webhooks/gateway", payload, map[string]string{
		"Content-Type":         "application/json",
		"X-Razorpay-Signature": WebhookSignature(payload),
	})
}

// WebhookSignature computes the gateway webhook signature over a raw payload.
func WebhookSignature(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(TestGatewayWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentSignature computes the checkout callback signature for client verify.
func PaymentSignature(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(TestGatewayKeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.do("POST", path, body, token)
}

// PUT performs a PUT request with optional auth token.
func (env *TestEnv) PUT(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.do("PUT", path, body, token)
}

// PATCH performs a PATCH request with optional auth token.
func (env *TestEnv) PATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.do("PATCH", path, body, token)
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

func (env *TestEnv) do(method, path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// RawPOST performs a POST request with raw bytes and custom headers.
func (env *TestEnv) RawPOST(path string, body []byte, headers map[string]string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("POST", env.Server.URL+path, bytes.NewReader(body))
	if err != nil {
		env.t.Fatalf("RawPOST %s: new request: %v", path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("RawPOST %s: %v", path, err)
	}
	return resp
}

// FundWallet settles a real purchase so the seller's wallet carries the given
// gross amount's seller share. Returns the amount credited.
func (env *TestEnv) FundWallet(sellerToken string, sellerID uuid.UUID, grossAmount int64) int64 {
	env.t.Helper()

	buyerToken, _ := env.CreateUser(fmt.Sprintf("funder_%s@test.com", uuid.New().String()[:8]))
	projectID := env.SeedProject(sellerID, grossAmount)

	_, gatewayOrderID := env.CreateOrder(buyerToken, projectID, "")
	resp := env.CapturePayment(gatewayOrderID, grossAmount)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("FundWallet: capture: expected 200, got %d", resp.StatusCode)
	}

	sellerShare := grossAmount * 8500 / 10000
	return sellerShare
}
