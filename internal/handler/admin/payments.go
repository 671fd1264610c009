package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/handler"
	"github.com/projectbuzz/platform/internal/settlement"
)

// PaymentAdminHandler handles admin payment maintenance.
type PaymentAdminHandler struct {
	orchestrator *settlement.Orchestrator
}

// NewPaymentAdminHandler creates a new PaymentAdminHandler.
func NewPaymentAdminHandler(orchestrator *settlement.Orchestrator) *PaymentAdminHandler {
	return &PaymentAdminHandler{orchestrator: orchestrator}
}

type refundRequest struct {
	Reason string `json:"reason"`
}

// Refund handles POST /admin/payments/{id}/refund.
func (h *PaymentAdminHandler) Refund(w http.ResponseWriter, r *http.Request) {
	adminID, err := handler.AdminIDFromContext(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid payment id"))
		return
	}

	var req refundRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	payment, err := h.orchestrator.RefundSale(r.Context(), adminID, paymentID, req.Reason)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, payment)
}
