package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/infra"
)

type negotiationRepo struct{}

// NewNegotiationRepository returns a pgx-backed NegotiationRepository.
func NewNegotiationRepository() NegotiationRepository {
	return &negotiationRepo{}
}

const negotiationColumns = `id, buyer_id, seller_id, project_id, original_price,
	minimum_price, current_offer, status, created_at, updated_at`

const discountCodeColumns = `id, code, buyer_id, project_id, negotiation_id,
	discount_amount, original_price, min_purchase, active, used,
	used_by_payment_id, expires_at, created_at`

func (r *negotiationRepo) Create(ctx context.Context, db DBTX, n *domain.Negotiation) error {
	_, err := db.Exec(ctx, `
		INSERT INTO negotiations
		  (id, buyer_id, seller_id, project_id, original_price, minimum_price, current_offer, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.BuyerID, n.SellerID, n.ProjectID,
		infra.Int64ToNumeric(n.OriginalPrice),
		infra.Int64ToNumeric(n.MinimumPrice),
		infra.Int64ToNumeric(n.CurrentOffer),
		string(n.Status),
	)
	if err != nil {
		return fmt.Errorf("insert negotiation: %w", err)
	}
	return nil
}

func (r *negotiationRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Negotiation, error) {
	row := db.QueryRow(ctx, `
		SELECT `+negotiationColumns+`
		FROM negotiations WHERE id = $1`, id)
	return scanNegotiation(row)
}

func (r *negotiationRepo) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Negotiation, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+negotiationColumns+`
		FROM negotiations WHERE id = $1 FOR UPDATE`, id)
	return scanNegotiation(row)
}

func (r *negotiationRepo) FindActiveByBuyerProject(ctx context.Context, db DBTX, buyerID, projectID uuid.UUID) (*domain.Negotiation, error) {
	row := db.QueryRow(ctx, `
		SELECT `+negotiationColumns+`
		FROM negotiations
		WHERE buyer_id = $1 AND project_id = $2 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`, buyerID, projectID)
	return scanNegotiation(row)
}

func (r *negotiationRepo) Update(ctx context.Context, db DBTX, n *domain.Negotiation) error {
	_, err := db.Exec(ctx, `
		UPDATE negotiations SET
			current_offer = $2,
			status = $3,
			updated_at = now()
		WHERE id = $1`,
		n.ID, infra.Int64ToNumeric(n.CurrentOffer), string(n.Status))
	return err
}

func (r *negotiationRepo) CreateCode(ctx context.Context, db DBTX, c *domain.DiscountCode) error {
	_, err := db.Exec(ctx, `
		INSERT INTO discount_codes
		  (id, code, buyer_id, project_id, negotiation_id, discount_amount,
		   original_price, min_purchase, active, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Code, c.BuyerID, c.ProjectID, c.NegotiationID,
		infra.Int64ToNumeric(c.DiscountAmount),
		infra.Int64ToNumeric(c.OriginalPrice),
		infra.Int64ToNumeric(c.MinPurchase),
		c.Active, c.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert discount code: %w", err)
	}
	return nil
}

func (r *negotiationRepo) FindCode(ctx context.Context, db DBTX, code string) (*domain.DiscountCode, error) {
	var c domain.DiscountCode
	var discountNum, originalNum, minNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT `+discountCodeColumns+`
		FROM discount_codes WHERE code = $1`, code).Scan(
		&c.ID, &c.Code, &c.BuyerID, &c.ProjectID, &c.NegotiationID,
		&discountNum, &originalNum, &minNum, &c.Active, &c.Used,
		&c.UsedByPaymentID, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan discount code: %w", err)
	}

	var convErr error
	c.DiscountAmount, convErr = infra.NumericToInt64(discountNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert discount_amount: %w", convErr)
	}
	c.OriginalPrice, convErr = infra.NumericToInt64(originalNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert original_price: %w", convErr)
	}
	c.MinPurchase, convErr = infra.NumericToInt64(minNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert min_purchase: %w", convErr)
	}
	return &c, nil
}

// ConsumeCode is conditional on used = false so two concurrent settlements
// cannot both burn the same code.
func (r *negotiationRepo) ConsumeCode(ctx context.Context, db DBTX, codeID, paymentID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE discount_codes SET used = true, used_by_payment_id = $2
		WHERE id = $1 AND used = false`, codeID, paymentID)
	if err != nil {
		return false, fmt.Errorf("consume discount code: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanNegotiation(row pgx.Row) (*domain.Negotiation, error) {
	var n domain.Negotiation
	var originalNum, minNum, offerNum pgtype.Numeric
	err := row.Scan(
		&n.ID, &n.BuyerID, &n.SellerID, &n.ProjectID,
		&originalNum, &minNum, &offerNum, &n.Status,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan negotiation: %w", err)
	}

	var convErr error
	n.OriginalPrice, convErr = infra.NumericToInt64(originalNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert original_price: %w", convErr)
	}
	n.MinimumPrice, convErr = infra.NumericToInt64(minNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert minimum_price: %w", convErr)
	}
	n.CurrentOffer, convErr = infra.NumericToInt64(offerNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert current_offer: %w", convErr)
	}
	return &n, nil
}
