package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/infra"
)

type paymentRepo struct{}

// NewPaymentRepository returns a pgx-backed PaymentRepository.
func NewPaymentRepository() PaymentRepository {
	return &paymentRepo{}
}

const paymentColumns = `id, buyer_id, project_id, seller_id, amount, currency, status,
	gateway_order_id, gateway_payment_id, payment_method, discount, customer,
	settled, failure_reason, gateway_payload, expires_at, paid_at, created_at, updated_at`

func (r *paymentRepo) Create(ctx context.Context, db DBTX, p *domain.Payment) error {
	var discount []byte
	if p.Discount != nil {
		discount, _ = json.Marshal(p.Discount)
	}
	customer, _ := json.Marshal(p.Customer)

	_, err := db.Exec(ctx, `
		INSERT INTO payments
		  (id, buyer_id, project_id, seller_id, amount, currency, status,
		   gateway_order_id, discount, customer, settled, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.BuyerID, p.ProjectID, p.SellerID,
		infra.Int64ToNumeric(p.Amount), p.Currency, string(p.Status),
		p.GatewayOrderID, discount, customer, p.Settled, p.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payment, error) {
	row := db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *paymentRepo) FindByGatewayOrderID(ctx context.Context, db DBTX, gatewayOrderID string) (*domain.Payment, error) {
	row := db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE gateway_order_id = $1`, gatewayOrderID)
	return scanPayment(row)
}

func (r *paymentRepo) LockByGatewayOrderID(ctx context.Context, tx pgx.Tx, gatewayOrderID string) (*domain.Payment, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE gateway_order_id = $1 FOR UPDATE`, gatewayOrderID)
	return scanPayment(row)
}

func (r *paymentRepo) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payment, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE id = $1 FOR UPDATE`, id)
	return scanPayment(row)
}

func (r *paymentRepo) FindByGatewayPaymentID(ctx context.Context, db DBTX, gatewayPaymentID string) (*domain.Payment, error) {
	row := db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE gateway_payment_id = $1`, gatewayPaymentID)
	return scanPayment(row)
}

func (r *paymentRepo) FindLiveByBuyerProject(ctx context.Context, db DBTX, buyerID, projectID uuid.UUID, now time.Time) (*domain.Payment, error) {
	row := db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE buyer_id = $1 AND project_id = $2
		  AND status IN ('pending', 'active')
		  AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1`, buyerID, projectID, now)
	return scanPayment(row)
}

func (r *paymentRepo) Update(ctx context.Context, db DBTX, p *domain.Payment) error {
	_, err := db.Exec(ctx, `
		UPDATE payments SET
			status = $2,
			gateway_payment_id = $3,
			payment_method = $4,
			settled = $5,
			failure_reason = $6,
			gateway_payload = COALESCE($7, gateway_payload),
			paid_at = $8,
			updated_at = now()
		WHERE id = $1`,
		p.ID, string(p.Status), p.GatewayPaymentID, p.PaymentMethod,
		p.Settled, p.FailureReason, p.GatewayPayload, p.PaidAt)
	return err
}

func (r *paymentRepo) ExpireStale(ctx context.Context, db DBTX, now time.Time) (int64, error) {
	tag, err := db.Exec(ctx, `
		UPDATE payments SET status = 'expired', updated_at = now()
		WHERE status IN ('pending', 'active') AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire stale payments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *paymentRepo) ListByBuyer(ctx context.Context, db DBTX, buyerID uuid.UUID, limit int) ([]domain.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE buyer_id = $1
		ORDER BY created_at DESC LIMIT $2`, buyerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPaymentFrom(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p, err := scanPaymentFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func scanPaymentFrom(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var amountNum pgtype.Numeric
	var discount, customer []byte
	err := row.Scan(
		&p.ID, &p.BuyerID, &p.ProjectID, &p.SellerID,
		&amountNum, &p.Currency, &p.Status,
		&p.GatewayOrderID, &p.GatewayPaymentID, &p.PaymentMethod,
		&discount, &customer,
		&p.Settled, &p.FailureReason, &p.GatewayPayload,
		&p.ExpiresAt, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	var convErr error
	p.Amount, convErr = infra.NumericToInt64(amountNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert payment amount: %w", convErr)
	}

	if len(discount) > 0 {
		var d domain.DiscountSnapshot
		if err := json.Unmarshal(discount, &d); err == nil {
			p.Discount = &d
		}
	}
	if len(customer) > 0 {
		_ = json.Unmarshal(customer, &p.Customer)
	}
	return &p, nil
}
