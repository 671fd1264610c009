package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayout(status PayoutStatus) *Payout {
	return &Payout{
		ID:       uuid.New(),
		SellerID: uuid.New(),
		Amount:   50000,
		Status:   status,
	}
}

func TestPayout_Approve(t *testing.T) {
	admin := uuid.New()
	now := time.Now()

	t.Run("pending approves straight to processing", func(t *testing.T) {
		p := newTestPayout(PayoutPending)
		require.NoError(t, p.Approve(admin, "looks good", now))
		assert.Equal(t, PayoutProcessing, p.Status)
		assert.Equal(t, admin, *p.ReviewedBy)
		require.NotNil(t, p.ApprovedAt)
		require.NotNil(t, p.ProcessingAt)
	})

	t.Run("non-pending rejects", func(t *testing.T) {
		for _, status := range []PayoutStatus{PayoutProcessing, PayoutCompleted, PayoutRejected, PayoutCancelled} {
			p := newTestPayout(status)
			require.Error(t, p.Approve(admin, "", now))
		}
	})
}

func TestPayout_Reject(t *testing.T) {
	admin := uuid.New()

	t.Run("pending rejects", func(t *testing.T) {
		p := newTestPayout(PayoutPending)
		require.NoError(t, p.Reject(admin, "bank details mismatch", ""))
		assert.Equal(t, PayoutRejected, p.Status)
		assert.Equal(t, "bank details mismatch", *p.RejectReason)
	})

	t.Run("processing cannot be rejected", func(t *testing.T) {
		p := newTestPayout(PayoutProcessing)
		require.Error(t, p.Reject(admin, "too late", ""))
	})
}

func TestPayout_MarkCompleted(t *testing.T) {
	now := time.Now()

	t.Run("processing completes with UTR", func(t *testing.T) {
		p := newTestPayout(PayoutProcessing)
		require.NoError(t, p.MarkCompleted("UTR123456789", now))
		assert.Equal(t, PayoutCompleted, p.Status)
		assert.Equal(t, "UTR123456789", *p.UTR)
		require.NotNil(t, p.CompletedAt)
	})

	t.Run("missing UTR rejected", func(t *testing.T) {
		p := newTestPayout(PayoutProcessing)
		require.Error(t, p.MarkCompleted("", now))
		assert.Equal(t, PayoutProcessing, p.Status)
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		p := newTestPayout(PayoutPending)
		require.Error(t, p.MarkCompleted("UTR1", now))
	})
}

func TestPayout_Cancel(t *testing.T) {
	t.Run("pending cancels without refund", func(t *testing.T) {
		p := newTestPayout(PayoutPending)
		refund, err := p.Cancel()
		require.NoError(t, err)
		assert.False(t, refund, "nothing was debited yet")
		assert.Equal(t, PayoutCancelled, p.Status)
	})

	t.Run("processing cancels with refund", func(t *testing.T) {
		p := newTestPayout(PayoutProcessing)
		refund, err := p.Cancel()
		require.NoError(t, err)
		assert.True(t, refund, "the approval debit must be reversed")
	})

	t.Run("terminal cannot cancel", func(t *testing.T) {
		for _, status := range []PayoutStatus{PayoutCompleted, PayoutRejected, PayoutCancelled} {
			p := newTestPayout(status)
			_, err := p.Cancel()
			require.Error(t, err)
		}
	})
}

func TestWallet_CanWithdraw(t *testing.T) {
	tests := []struct {
		name    string
		wallet  Wallet
		amount  int64
		allowed bool
	}{
		{"active with funds", Wallet{Status: WalletActive, Balance: 50000}, 25000, true},
		{"exact balance", Wallet{Status: WalletActive, Balance: 50000}, 50000, true},
		{"insufficient", Wallet{Status: WalletActive, Balance: 50000}, 60000, false},
		{"suspended", Wallet{Status: WalletSuspended, Balance: 100000}, 25000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.wallet.CanWithdraw(tt.amount))
		})
	}
}
