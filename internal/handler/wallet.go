package handler

import (
	"net/http"
	"strconv"

	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/service"
)

// WalletHandler handles seller wallet endpoints.
type WalletHandler struct {
	wallets *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// Get handles GET /wallet.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	sellerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	wallet, err := h.wallets.GetWallet(r.Context(), sellerID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

// txListResponse wraps a list of transactions with cursor.
type txListResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	NextCursor   *string              `json:"next_cursor,omitempty"`
}

// GetTransactions handles GET /wallet/transactions with cursor-based pagination.
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	sellerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	txs, err := h.wallets.ListTransactions(r.Context(), sellerID, cursor, limit+1)
	if err != nil {
		RespondError(w, err)
		return
	}

	resp := txListResponse{Transactions: txs}
	if len(txs) > limit {
		resp.Transactions = txs[:limit]
		nextID := txs[limit].ID.String()
		resp.NextCursor = &nextID
	}
	RespondJSON(w, http.StatusOK, resp)
}

// UpdateBank handles PUT /wallet/bank.
func (h *WalletHandler) UpdateBank(w http.ResponseWriter, r *http.Request) {
	sellerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var bank domain.BankDetails
	if err := DecodeJSON(r, &bank); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	wallet, err := h.wallets.UpdateBank(r.Context(), sellerID, bank)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}
