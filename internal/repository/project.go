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

type projectRepo struct{}

// NewProjectRepository returns a pgx-backed ProjectRepository.
func NewProjectRepository() ProjectRepository {
	return &projectRepo{}
}

const projectColumns = `id, seller_id, title, price, status, sales_count, created_at, updated_at`

func (r *projectRepo) Create(ctx context.Context, db DBTX, p *domain.Project) error {
	_, err := db.Exec(ctx, `
		INSERT INTO projects (id, seller_id, title, price, status)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.SellerID, p.Title, infra.Int64ToNumeric(p.Price), string(p.Status))
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *projectRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	var priceNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE id = $1`, id).Scan(
		&p.ID, &p.SellerID, &p.Title, &priceNum, &p.Status,
		&p.SalesCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.Price, err = infra.NumericToInt64(priceNum)
	if err != nil {
		return nil, fmt.Errorf("convert project price: %w", err)
	}
	return &p, nil
}

func (r *projectRepo) HasBuyer(ctx context.Context, db DBTX, projectID, buyerID uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM project_buyers WHERE project_id = $1 AND buyer_id = $2
		)`, projectID, buyerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check project buyer: %w", err)
	}
	return exists, nil
}

func (r *projectRepo) AddBuyer(ctx context.Context, db DBTX, projectID, buyerID, paymentID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO project_buyers (project_id, buyer_id, payment_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, buyer_id) DO NOTHING`,
		projectID, buyerID, paymentID)
	if err != nil {
		return false, fmt.Errorf("add project buyer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *projectRepo) IncrementSales(ctx context.Context, db DBTX, projectID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		UPDATE projects SET sales_count = sales_count + 1, updated_at = now()
		WHERE id = $1`, projectID)
	return err
}
