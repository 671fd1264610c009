package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(status PaymentStatus) *Payment {
	return &Payment{
		Status:    status,
		Amount:    100000,
		Currency:  "INR",
		ExpiresAt: time.Now().Add(PaymentTTL),
	}
}

func TestPayment_MarkPaid(t *testing.T) {
	now := time.Now()

	t.Run("active to paid", func(t *testing.T) {
		p := newTestPayment(PaymentStatusActive)
		require.NoError(t, p.MarkPaid("pay_abc123", "card", now))
		assert.Equal(t, PaymentStatusPaid, p.Status)
		require.NotNil(t, p.GatewayPaymentID)
		assert.Equal(t, "pay_abc123", *p.GatewayPaymentID)
		require.NotNil(t, p.PaidAt)
	})

	t.Run("pending to paid", func(t *testing.T) {
		p := newTestPayment(PaymentStatusPending)
		require.NoError(t, p.MarkPaid("pay_abc123", "upi", now))
		assert.Equal(t, PaymentStatusPaid, p.Status)
	})

	t.Run("already paid is a no-op", func(t *testing.T) {
		p := newTestPayment(PaymentStatusActive)
		require.NoError(t, p.MarkPaid("pay_first", "card", now))
		firstPaidAt := *p.PaidAt

		require.NoError(t, p.MarkPaid("pay_second", "card", now.Add(time.Minute)))
		assert.Equal(t, "pay_first", *p.GatewayPaymentID, "re-stamping must not happen")
		assert.Equal(t, firstPaidAt, *p.PaidAt)
	})

	t.Run("terminal states reject", func(t *testing.T) {
		for _, status := range []PaymentStatus{PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled} {
			p := newTestPayment(status)
			err := p.MarkPaid("pay_abc", "card", now)
			require.Error(t, err)
			assert.Equal(t, "CONFLICT", err.(*AppError).Code)
		}
	})
}

func TestPayment_MarkFailed(t *testing.T) {
	t.Run("active to failed", func(t *testing.T) {
		p := newTestPayment(PaymentStatusActive)
		require.NoError(t, p.MarkFailed("card declined"))
		assert.Equal(t, PaymentStatusFailed, p.Status)
		assert.Equal(t, "card declined", *p.FailureReason)
	})

	t.Run("paid rejects", func(t *testing.T) {
		p := newTestPayment(PaymentStatusPaid)
		require.Error(t, p.MarkFailed("too late"))
	})
}

func TestPayment_Cancel(t *testing.T) {
	t.Run("pending cancels", func(t *testing.T) {
		p := newTestPayment(PaymentStatusPending)
		require.NoError(t, p.Cancel())
		assert.Equal(t, PaymentStatusCancelled, p.Status)
	})

	t.Run("paid never cancels", func(t *testing.T) {
		p := newTestPayment(PaymentStatusPaid)
		require.Error(t, p.Cancel())
		assert.Equal(t, PaymentStatusPaid, p.Status)
	})
}

func TestPayment_Expiry(t *testing.T) {
	now := time.Now()

	t.Run("fresh order is live", func(t *testing.T) {
		p := newTestPayment(PaymentStatusActive)
		assert.False(t, p.IsExpired(now))
		assert.True(t, p.IsLive(now))
	})

	t.Run("past TTL is expired and not live", func(t *testing.T) {
		p := newTestPayment(PaymentStatusActive)
		p.ExpiresAt = now.Add(-time.Minute)
		assert.True(t, p.IsExpired(now))
		assert.False(t, p.IsLive(now))
	})

	t.Run("paid is never live", func(t *testing.T) {
		p := newTestPayment(PaymentStatusPaid)
		assert.False(t, p.IsLive(now))
	})
}
