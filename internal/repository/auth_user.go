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

type authUserRepo struct{}

// NewAuthUserRepository returns a pgx-backed AuthUserRepository.
func NewAuthUserRepository() AuthUserRepository {
	return &authUserRepo{}
}

const authUserColumns = `id, email, name, phone, password_hash, verified, is_admin, created_at, updated_at`

func (r *authUserRepo) FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AuthUser, error) {
	row := db.QueryRow(ctx, `
		SELECT `+authUserColumns+`
		FROM auth_users WHERE lower(email) = lower($1)`, email)
	return scanAuthUser(row)
}

func (r *authUserRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.AuthUser, error) {
	row := db.QueryRow(ctx, `
		SELECT `+authUserColumns+`
		FROM auth_users WHERE id = $1`, id)
	return scanAuthUser(row)
}

func (r *authUserRepo) Create(ctx context.Context, db DBTX, u *domain.AuthUser) error {
	_, err := db.Exec(ctx, `
		INSERT INTO auth_users (id, email, name, phone, password_hash, verified, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.Phone, u.PasswordHash, u.Verified, u.IsAdmin)
	if err != nil {
		return fmt.Errorf("insert auth user: %w", err)
	}
	return nil
}

func (r *authUserRepo) AddSpend(ctx context.Context, db DBTX, userID uuid.UUID, amount int64) error {
	_, err := db.Exec(ctx, `
		INSERT INTO user_stats (user_id, total_spent, purchase_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			total_spent = user_stats.total_spent + EXCLUDED.total_spent,
			purchase_count = user_stats.purchase_count + 1,
			updated_at = now()`,
		userID, infra.Int64ToNumeric(amount))
	return err
}

func (r *authUserRepo) AddEarnings(ctx context.Context, db DBTX, userID uuid.UUID, amount int64) error {
	_, err := db.Exec(ctx, `
		INSERT INTO user_stats (user_id, total_earned, sales_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			total_earned = user_stats.total_earned + EXCLUDED.total_earned,
			sales_count = user_stats.sales_count + 1,
			updated_at = now()`,
		userID, infra.Int64ToNumeric(amount))
	return err
}

func (r *authUserRepo) FindStats(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.UserStats, error) {
	var s domain.UserStats
	var spentNum, earnedNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT user_id, total_spent, total_earned, purchase_count, sales_count, updated_at
		FROM user_stats WHERE user_id = $1`, userID).Scan(
		&s.UserID, &spentNum, &earnedNum, &s.PurchaseCount, &s.SalesCount, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.UserStats{UserID: userID}, nil
		}
		return nil, fmt.Errorf("scan user stats: %w", err)
	}

	var convErr error
	s.TotalSpent, convErr = infra.NumericToInt64(spentNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert total_spent: %w", convErr)
	}
	s.TotalEarned, convErr = infra.NumericToInt64(earnedNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert total_earned: %w", convErr)
	}
	return &s, nil
}

func scanAuthUser(row pgx.Row) (*domain.AuthUser, error) {
	var u domain.AuthUser
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PasswordHash,
		&u.Verified, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan auth user: %w", err)
	}
	return &u, nil
}
