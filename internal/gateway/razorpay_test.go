package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	c := NewClient("key_id", "key_secret", "whsec", "")

	t.Run("valid signature", func(t *testing.T) {
		sig := sign("key_secret", []byte("order_abc|pay_xyz"))
		assert.True(t, c.VerifyPaymentSignature("order_abc", "pay_xyz", sig))
	})

	t.Run("wrong secret", func(t *testing.T) {
		sig := sign("other_secret", []byte("order_abc|pay_xyz"))
		assert.False(t, c.VerifyPaymentSignature("order_abc", "pay_xyz", sig))
	})

	t.Run("swapped ids", func(t *testing.T) {
		sig := sign("key_secret", []byte("pay_xyz|order_abc"))
		assert.False(t, c.VerifyPaymentSignature("order_abc", "pay_xyz", sig))
	})

	t.Run("empty signature", func(t *testing.T) {
		assert.False(t, c.VerifyPaymentSignature("order_abc", "pay_xyz", ""))
	})
}

func TestVerifyWebhookSignature(t *testing.T) {
	c := NewClient("key_id", "key_secret", "whsec", "")

	payload := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_xyz",
					"order_id": "order_abc",
					"amount": 100000,
					"currency": "INR",
					"status": "captured",
					"method": "upi"
				}
			}
		}
	}`)

	t.Run("valid signature parses event", func(t *testing.T) {
		event, err := c.VerifyWebhookSignature(payload, sign("whsec", payload))
		require.NoError(t, err)
		assert.Equal(t, "payment.captured", event.Event)
		assert.Equal(t, "pay_xyz", event.Payload.Payment.Entity.ID)
		assert.Equal(t, "order_abc", event.Payload.Payment.Entity.OrderID)
		assert.Equal(t, int64(100000), event.Payload.Payment.Entity.Amount)
	})

	t.Run("tampered payload rejected", func(t *testing.T) {
		sig := sign("whsec", payload)
		tampered := append([]byte(nil), payload...)
		tampered[len(tampered)-2] = ' '
		_, err := c.VerifyWebhookSignature(tampered, sig)
		require.Error(t, err)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		_, err := c.VerifyWebhookSignature(payload, sign("other", payload))
		require.Error(t, err)
	})

	t.Run("unconfigured secret rejected", func(t *testing.T) {
		bare := NewClient("key_id", "key_secret", "", "")
		_, err := bare.VerifyWebhookSignature(payload, sign("whsec", payload))
		require.Error(t, err)
	})
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("k", "s", "w", "")
	assert.Equal(t, "https://api.razorpay.com", c.baseURL)

	c = NewClient("k", "s", "w", "http://localhost:9090")
	assert.Equal(t, "http://localhost:9090", c.baseURL)
}
