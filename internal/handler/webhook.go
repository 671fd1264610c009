package handler

import (
	"io"
	"net/http"

	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/service"
)

const maxWebhookBody = 1 << 20 // 1MB

// WebhookHandler receives gateway webhooks.
type WebhookHandler struct {
	orders *service.OrderService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(orders *service.OrderService) *WebhookHandler {
	return &WebhookHandler{orders: orders}
}

// Gateway handles POST /webhooks/gateway. The signature covers the raw body,
// so it must be read before any decoding.
func (h *WebhookHandler) Gateway(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		RespondError(w, domain.ErrValidation("unreadable body"))
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if signature == "" {
		RespondError(w, domain.ErrSignatureInvalid("missing webhook signature"))
		return
	}

	if err := h.orders.HandleGatewayWebhook(r.Context(), body, signature); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
