package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/service"
)

// NegotiationHandler handles price negotiation endpoints.
type NegotiationHandler struct {
	negotiations *service.NegotiationService
}

// NewNegotiationHandler creates a new NegotiationHandler.
func NewNegotiationHandler(negotiations *service.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiations: negotiations}
}

type startNegotiationRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
	Offer     int64     `json:"offer"`
}

// Start handles POST /negotiations.
func (h *NegotiationHandler) Start(w http.ResponseWriter, r *http.Request) {
	buyerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req startNegotiationRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.ProjectID == uuid.Nil {
		RespondError(w, domain.ErrValidation("project_id is required"))
		return
	}

	negotiation, err := h.negotiations.Start(r.Context(), buyerID, req.ProjectID, req.Offer)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, negotiation)
}

type offerRequest struct {
	Amount int64 `json:"amount"`
}

// Offer handles POST /negotiations/{id}/offer.
func (h *NegotiationHandler) Offer(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	negotiationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid negotiation id"))
		return
	}

	var req offerRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	negotiation, err := h.negotiations.Offer(r.Context(), userID, negotiationID, req.Amount)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, negotiation)
}

// Accept handles POST /negotiations/{id}/accept. Seller only; returns the
// minted discount code.
func (h *NegotiationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	sellerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	negotiationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid negotiation id"))
		return
	}

	code, err := h.negotiations.Accept(r.Context(), sellerID, negotiationID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, code)
}

// Reject handles POST /negotiations/{id}/reject.
func (h *NegotiationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	negotiationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid negotiation id"))
		return
	}

	negotiation, err := h.negotiations.Reject(r.Context(), userID, negotiationID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, negotiation)
}

// Get handles GET /negotiations/{id}.
func (h *NegotiationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	negotiationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid negotiation id"))
		return
	}

	negotiation, err := h.negotiations.Get(r.Context(), userID, negotiationID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, negotiation)
}
