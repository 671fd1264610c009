package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/handler"
	"github.com/projectbuzz/platform/internal/repository"
	"github.com/projectbuzz/platform/internal/service"
)

// WalletAdminHandler handles admin wallet maintenance.
type WalletAdminHandler struct {
	pool    *pgxpool.Pool
	wallets repository.WalletRepository
	svc     *service.WalletService
}

// NewWalletAdminHandler creates a new WalletAdminHandler.
func NewWalletAdminHandler(pool *pgxpool.Pool, wallets repository.WalletRepository, svc *service.WalletService) *WalletAdminHandler {
	return &WalletAdminHandler{pool: pool, wallets: wallets, svc: svc}
}

// Reconcile handles GET /admin/wallets/{sellerID}/reconcile.
func (h *WalletAdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	sellerID, err := uuid.Parse(chi.URLParam(r, "sellerID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid seller id"))
		return
	}

	result, err := h.svc.Reconcile(r.Context(), sellerID)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, result)
}

// UpdateStatus handles PATCH /admin/wallets/{sellerID}/status. Suspended
// wallets still receive sale credits but cannot be debited.
func (h *WalletAdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sellerID, err := uuid.Parse(chi.URLParam(r, "sellerID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid seller id"))
		return
	}

	var input struct {
		Status domain.WalletStatus `json:"status"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if input.Status != domain.WalletActive && input.Status != domain.WalletSuspended {
		handler.RespondError(w, domain.ErrValidation("status must be active or suspended"))
		return
	}

	wallet, err := h.wallets.FindBySellerID(r.Context(), h.pool, sellerID)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("find wallet", err))
		return
	}
	if wallet == nil {
		handler.RespondError(w, domain.ErrNotFound("wallet", sellerID.String()))
		return
	}

	if err := h.wallets.SetStatus(r.Context(), h.pool, wallet.ID, input.Status); err != nil {
		handler.RespondError(w, domain.ErrInternal("update wallet status", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
