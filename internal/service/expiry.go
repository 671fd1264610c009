package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/repository"
)

// ExpirySweeper transitions stale pending/active payments to expired on a
// fixed cadence, so an abandoned checkout never blocks a new purchase
// attempt for longer than one sweep interval past its TTL.
type ExpirySweeper struct {
	pool     *pgxpool.Pool
	payments repository.PaymentRepository
	interval time.Duration
	logger   *slog.Logger
}

// NewExpirySweeper creates a sweeper with the given interval.
func NewExpirySweeper(pool *pgxpool.Pool, payments repository.PaymentRepository, interval time.Duration, logger *slog.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpirySweeper{pool: pool, payments: payments, interval: interval, logger: logger}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *ExpirySweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("expiry sweeper started", "interval", s.interval)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("expiry sweeper stopped")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	swept, err := s.payments.ExpireStale(ctx, s.pool, time.Now())
	if err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
		return
	}
	if swept > 0 {
		s.logger.Info("expired stale payments", "count", swept)
	}
}
