package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/infra"
)

type payoutRepo struct{}

// NewPayoutRepository returns a pgx-backed PayoutRepository.
func NewPayoutRepository() PayoutRepository {
	return &payoutRepo{}
}

const payoutColumns = `id, seller_id, wallet_id, amount, net_amount, bank, status,
	reviewed_by, review_comment, reject_reason, utr,
	requested_at, approved_at, processing_at, completed_at, updated_at`

func (r *payoutRepo) Create(ctx context.Context, db DBTX, p *domain.Payout) error {
	bank, _ := json.Marshal(p.Bank)
	_, err := db.Exec(ctx, `
		INSERT INTO payouts (id, seller_id, wallet_id, amount, net_amount, bank, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.SellerID, p.WalletID,
		infra.Int64ToNumeric(p.Amount),
		infra.Int64ToNumeric(p.NetAmount),
		bank, string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

func (r *payoutRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payout, error) {
	row := db.QueryRow(ctx, `
		SELECT `+payoutColumns+`
		FROM payouts WHERE id = $1`, id)
	return scanPayout(row)
}

func (r *payoutRepo) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payout, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+payoutColumns+`
		FROM payouts WHERE id = $1 FOR UPDATE`, id)
	return scanPayout(row)
}

func (r *payoutRepo) FindNonTerminalBySeller(ctx context.Context, db DBTX, sellerID uuid.UUID) (*domain.Payout, error) {
	row := db.QueryRow(ctx, `
		SELECT `+payoutColumns+`
		FROM payouts
		WHERE seller_id = $1 AND status IN ('pending', 'approved', 'processing')`,
		sellerID)
	return scanPayout(row)
}

func (r *payoutRepo) Update(ctx context.Context, db DBTX, p *domain.Payout) error {
	_, err := db.Exec(ctx, `
		UPDATE payouts SET
			status = $2,
			reviewed_by = $3,
			review_comment = $4,
			reject_reason = $5,
			utr = $6,
			approved_at = $7,
			processing_at = $8,
			completed_at = $9,
			updated_at = now()
		WHERE id = $1`,
		p.ID, string(p.Status), p.ReviewedBy, p.ReviewComment, p.RejectReason,
		p.UTR, p.ApprovedAt, p.ProcessingAt, p.CompletedAt)
	return err
}

func (r *payoutRepo) ListBySeller(ctx context.Context, db DBTX, sellerID uuid.UUID, limit int) ([]domain.Payout, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT `+payoutColumns+`
		FROM payouts WHERE seller_id = $1
		ORDER BY requested_at DESC LIMIT $2`, sellerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query payouts: %w", err)
	}
	defer rows.Close()
	return collectPayouts(rows)
}

func (r *payoutRepo) ListByStatus(ctx context.Context, db DBTX, status domain.PayoutStatus, limit int) ([]domain.Payout, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := db.Query(ctx, `
		SELECT `+payoutColumns+`
		FROM payouts WHERE status = $1
		ORDER BY requested_at ASC LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("query payouts by status: %w", err)
	}
	defer rows.Close()
	return collectPayouts(rows)
}

func scanPayout(row pgx.Row) (*domain.Payout, error) {
	p, err := scanPayoutRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func scanPayoutRow(row pgx.Row) (*domain.Payout, error) {
	var p domain.Payout
	var amountNum, netNum pgtype.Numeric
	var bank []byte
	err := row.Scan(
		&p.ID, &p.SellerID, &p.WalletID, &amountNum, &netNum, &bank, &p.Status,
		&p.ReviewedBy, &p.ReviewComment, &p.RejectReason, &p.UTR,
		&p.RequestedAt, &p.ApprovedAt, &p.ProcessingAt, &p.CompletedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan payout: %w", err)
	}

	var convErr error
	p.Amount, convErr = infra.NumericToInt64(amountNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert payout amount: %w", convErr)
	}
	p.NetAmount, convErr = infra.NumericToInt64(netNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert payout net_amount: %w", convErr)
	}
	if len(bank) > 0 {
		_ = json.Unmarshal(bank, &p.Bank)
	}
	return &p, nil
}

func collectPayouts(rows pgx.Rows) ([]domain.Payout, error) {
	var payouts []domain.Payout
	for rows.Next() {
		p, err := scanPayoutRow(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, *p)
	}
	return payouts, rows.Err()
}
