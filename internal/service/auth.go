package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/auth"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/guard"
	"github.com/projectbuzz/platform/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration with email OTP verification and login.
// Pending registrations live in a TTL store, not a process-global map, so
// unverified signups expire on their own.
type AuthService struct {
	pool       *pgxpool.Pool
	users      repository.AuthUserRepository
	jwtMgr     *auth.JWTManager
	pending    *guard.TTLStore[domain.PendingRegistration]
	otpLimiter *guard.RateLimiter
	logger     *slog.Logger
}

// NewAuthService creates an AuthService. The pending store's TTL bounds how
// long an OTP stays valid.
func NewAuthService(
	pool *pgxpool.Pool,
	users repository.AuthUserRepository,
	jwtMgr *auth.JWTManager,
	pending *guard.TTLStore[domain.PendingRegistration],
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		pool:       pool,
		users:      users,
		jwtMgr:     jwtMgr,
		pending:    pending,
		otpLimiter: guard.NewRateLimiter(5, 10*time.Minute),
		logger:     logger,
	}
}

// RegisterInput holds the registration request fields.
type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// AuthResult is returned on successful verification or login.
type AuthResult struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}

// Register validates the signup, parks it in the pending store and issues an
// OTP. No database row exists until the OTP is verified.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := domain.ValidateEmail(input.Email); err != nil {
		return err
	}
	if input.Name == "" {
		return domain.ErrValidation("name is required")
	}
	if len(input.Password) < 8 {
		return domain.ErrValidation("password must be at least 8 characters")
	}

	existing, err := s.users.FindByEmail(ctx, s.pool, input.Email)
	if err != nil {
		return domain.ErrInternal("find user", err)
	}
	if existing != nil {
		return domain.ErrConflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.ErrInternal("hash password", err)
	}

	otp := generateOTP()
	s.pending.Put(input.Email, domain.PendingRegistration{
		Email:        input.Email,
		Name:         input.Name,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		OTP:          otp,
		CreatedAt:    time.Now(),
	})

	// Delivery goes through the mail integration in production. The OTP is
	// logged at debug level for local development only.
	s.logger.Info("registration pending verification", "email", input.Email)
	s.logger.Debug("otp issued", "email", input.Email, "otp", otp)
	return nil
}

// VerifyOTP completes registration: checks the code against the pending
// store, creates the account, and signs the first token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if result := s.otpLimiter.Check(ctx, "otp:"+email); !result.Allowed {
		return nil, domain.ErrValidation("too many attempts, request a new code")
	}

	reg, ok := s.pending.Get(email)
	if !ok {
		return nil, domain.ErrValidation("no pending registration for this email, or the code expired")
	}
	if reg.OTP != otp {
		return nil, domain.ErrValidation("incorrect verification code")
	}

	user := &domain.AuthUser{
		ID:           uuid.New(),
		Email:        reg.Email,
		Name:         reg.Name,
		Phone:        reg.Phone,
		PasswordHash: reg.PasswordHash,
		Verified:     true,
	}
	if err := s.users.Create(ctx, s.pool, user); err != nil {
		return nil, domain.ErrInternal("create user", err)
	}
	s.pending.Delete(email)

	token, err := s.jwtMgr.GenerateToken(auth.RealmUser, user.ID, user.Email)
	if err != nil {
		return nil, domain.ErrInternal("sign token", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return &AuthResult{Token: token, UserID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// Login checks credentials and signs a user-realm token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, s.pool, email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized("invalid email or password")
	}
	if !user.Verified {
		return nil, domain.ErrForbidden("account is not verified")
	}

	token, err := s.jwtMgr.GenerateToken(auth.RealmUser, user.ID, user.Email)
	if err != nil {
		return nil, domain.ErrInternal("sign token", err)
	}
	return &AuthResult{Token: token, UserID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// AdminLogin checks credentials and the admin flag, then signs an
// admin-realm token.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, s.pool, email)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized("invalid email or password")
	}
	if !user.IsAdmin {
		return nil, domain.ErrForbidden("admin access required")
	}

	token, err := s.jwtMgr.GenerateToken(auth.RealmAdmin, user.ID, user.Email)
	if err != nil {
		return nil, domain.ErrInternal("sign token", err)
	}
	return &AuthResult{Token: token, UserID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// GetStats returns the denormalized spend/earnings counters for a user.
func (s *AuthService) GetStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	stats, err := s.users.FindStats(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrInternal("find stats", err)
	}
	return stats, nil
}

// generateOTP returns a 6-digit numeric code.
func generateOTP() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1000000))
	return fmt.Sprintf("%06d", n.Int64())
}
