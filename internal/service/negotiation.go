package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/repository"
)

// NegotiationService handles the offer exchange between buyer and seller and
// the discount-code handoff when an offer is accepted.
type NegotiationService struct {
	pool         *pgxpool.Pool
	negotiations repository.NegotiationRepository
	projects     repository.ProjectRepository
	outbox       repository.OutboxRepository
	logger       *slog.Logger
}

// NewNegotiationService creates a NegotiationService.
func NewNegotiationService(
	pool *pgxpool.Pool,
	negotiations repository.NegotiationRepository,
	projects repository.ProjectRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *NegotiationService {
	return &NegotiationService{
		pool:         pool,
		negotiations: negotiations,
		projects:     projects,
		outbox:       outbox,
		logger:       logger,
	}
}

// Start opens a negotiation with the buyer's initial offer.
func (s *NegotiationService) Start(ctx context.Context, buyerID, projectID uuid.UUID, offer int64) (*domain.Negotiation, error) {
	project, err := s.projects.FindByID(ctx, s.pool, projectID)
	if err != nil {
		return nil, domain.ErrInternal("find project", err)
	}
	if project == nil {
		return nil, domain.ErrNotFound("project", projectID.String())
	}
	if !project.Purchasable() {
		return nil, domain.ErrValidation("project is not available for purchase")
	}
	if project.SellerID == buyerID {
		return nil, domain.ErrValidation("you cannot negotiate on your own project")
	}

	existing, err := s.negotiations.FindActiveByBuyerProject(ctx, s.pool, buyerID, projectID)
	if err != nil {
		return nil, domain.ErrInternal("check active negotiation", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("a negotiation for this project is already active")
	}

	negotiation, err := domain.NewNegotiation(buyerID, project.SellerID, projectID, project.Price, offer)
	if err != nil {
		return nil, err
	}
	if err := s.negotiations.Create(ctx, s.pool, negotiation); err != nil {
		return nil, domain.ErrInternal("record negotiation", err)
	}

	s.logger.Info("negotiation started",
		"negotiation_id", negotiation.ID, "project_id", projectID, "offer", offer)
	return negotiation, nil
}

// Offer updates the standing offer. Both sides may counter; the stored value
// is always the latest number on the table.
func (s *NegotiationService) Offer(ctx context.Context, userID, negotiationID uuid.UUID, amount int64) (*domain.Negotiation, error) {
	negotiation, err := s.findForParticipant(ctx, userID, negotiationID)
	if err != nil {
		return nil, err
	}

	if err := negotiation.MakeOffer(amount); err != nil {
		return nil, err
	}
	if err := s.negotiations.Update(ctx, s.pool, negotiation); err != nil {
		return nil, domain.ErrInternal("persist negotiation", err)
	}
	return negotiation, nil
}

// Accept is the seller closing the deal: the negotiation transitions to
// accepted and a single-use discount code is minted for the buyer, all in
// one transaction with the notification queued alongside.
func (s *NegotiationService) Accept(ctx context.Context, sellerID, negotiationID uuid.UUID) (*domain.DiscountCode, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	negotiation, err := s.negotiations.LockByID(ctx, tx, negotiationID)
	if err != nil {
		return nil, domain.ErrInternal("find negotiation", err)
	}
	if negotiation == nil {
		return nil, domain.ErrNotFound("negotiation", negotiationID.String())
	}
	if negotiation.SellerID != sellerID {
		return nil, domain.ErrForbidden("only the seller can accept an offer")
	}

	code, err := negotiation.AcceptOffer(generateCode(), time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.negotiations.Update(ctx, tx, negotiation); err != nil {
		return nil, domain.ErrInternal("persist negotiation", err)
	}
	if err := s.negotiations.CreateCode(ctx, tx, code); err != nil {
		return nil, domain.ErrInternal("record discount code", err)
	}

	note := domain.NewNotificationEvent(domain.AggregateNegotiation, negotiation.ID,
		domain.EventNegotiationAccepted, negotiation.BuyerID,
		map[string]uuid.UUID{"negotiation": negotiation.ID, "project": negotiation.ProjectID})
	if err := s.outbox.Insert(ctx, tx, note); err != nil {
		return nil, domain.ErrInternal("queue notification", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("negotiation accepted",
		"negotiation_id", negotiation.ID,
		"discount_amount", code.DiscountAmount,
		"expires_at", code.ExpiresAt)
	return code, nil
}

// Reject closes the negotiation without minting anything. Either side may
// walk away.
func (s *NegotiationService) Reject(ctx context.Context, userID, negotiationID uuid.UUID) (*domain.Negotiation, error) {
	negotiation, err := s.findForParticipant(ctx, userID, negotiationID)
	if err != nil {
		return nil, err
	}

	if err := negotiation.Reject(); err != nil {
		return nil, err
	}
	if err := s.negotiations.Update(ctx, s.pool, negotiation); err != nil {
		return nil, domain.ErrInternal("persist negotiation", err)
	}
	return negotiation, nil
}

// Get returns a negotiation visible to one of its participants.
func (s *NegotiationService) Get(ctx context.Context, userID, negotiationID uuid.UUID) (*domain.Negotiation, error) {
	return s.findForParticipant(ctx, userID, negotiationID)
}

func (s *NegotiationService) findForParticipant(ctx context.Context, userID, negotiationID uuid.UUID) (*domain.Negotiation, error) {
	negotiation, err := s.negotiations.FindByID(ctx, s.pool, negotiationID)
	if err != nil {
		return nil, domain.ErrInternal("find negotiation", err)
	}
	if negotiation == nil {
		return nil, domain.ErrNotFound("negotiation", negotiationID.String())
	}
	if negotiation.BuyerID != userID && negotiation.SellerID != userID {
		return nil, domain.ErrForbidden("you are not part of this negotiation")
	}
	return negotiation, nil
}

// generateCode mints a globally unique discount code. 8 random bytes keep
// collisions out of reach; the unique index on the column is the backstop.
func generateCode() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "NEGO-" + strings.ToUpper(hex.EncodeToString(buf))
}
