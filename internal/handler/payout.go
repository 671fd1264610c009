package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/service"
)

// PayoutHandler handles seller payout endpoints.
type PayoutHandler struct {
	payouts *service.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payouts *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

type requestPayoutRequest struct {
	Amount int64 `json:"amount"`
}

// Request handles POST /payouts.
func (h *PayoutHandler) Request(w http.ResponseWriter, r *http.Request) {
	sellerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req requestPayoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	payout, err := h.payouts.Request(r.Context(), sellerID, req.Amount)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, payout)
}

// List handles GET /payouts.
func (h *PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	sellerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	payouts, err := h.payouts.ListBySeller(r.Context(), sellerID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"payouts": payouts})
}

// Cancel handles POST /payouts/{id}/cancel.
func (h *PayoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sellerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	payoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid payout id"))
		return
	}

	payout, err := h.payouts.Cancel(r.Context(), sellerID, payoutID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, payout)
}
