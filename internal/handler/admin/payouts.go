package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/handler"
	"github.com/projectbuzz/platform/internal/service"
)

// PayoutAdminHandler handles the admin payout review queue.
type PayoutAdminHandler struct {
	payouts *service.PayoutService
}

// NewPayoutAdminHandler creates a new PayoutAdminHandler.
func NewPayoutAdminHandler(payouts *service.PayoutService) *PayoutAdminHandler {
	return &PayoutAdminHandler{payouts: payouts}
}

// ListPending handles GET /admin/payouts/pending.
func (h *PayoutAdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	payouts, err := h.payouts.ListPending(r.Context())
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"payouts": payouts})
}

type reviewRequest struct {
	Comment string `json:"comment"`
}

// Approve handles POST /admin/payouts/{id}/approve. The wallet debit happens
// here, keyed on the payout ID.
func (h *PayoutAdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	adminID, payoutID, err := reviewParams(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var req reviewRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	payout, err := h.payouts.Approve(r.Context(), adminID, payoutID, req.Comment)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, payout)
}

type rejectRequest struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment"`
}

// Reject handles POST /admin/payouts/{id}/reject.
func (h *PayoutAdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	adminID, payoutID, err := reviewParams(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var req rejectRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	payout, err := h.payouts.Reject(r.Context(), adminID, payoutID, req.Reason, req.Comment)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, payout)
}

type completeRequest struct {
	UTR string `json:"utr"`
}

// Complete handles POST /admin/payouts/{id}/complete.
func (h *PayoutAdminHandler) Complete(w http.ResponseWriter, r *http.Request) {
	adminID, payoutID, err := reviewParams(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var req completeRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.UTR == "" {
		handler.RespondError(w, domain.ErrValidation("utr is required"))
		return
	}

	payout, err := h.payouts.Complete(r.Context(), adminID, payoutID, req.UTR)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, payout)
}

func reviewParams(r *http.Request) (adminID, payoutID uuid.UUID, err error) {
	adminID, err = handler.AdminIDFromContext(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	payoutID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrValidation("invalid payout id")
	}
	return adminID, payoutID, nil
}
