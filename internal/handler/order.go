package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/service"
)

// OrderHandler handles purchase order endpoints.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	ProjectID    uuid.UUID `json:"project_id"`
	DiscountCode string    `json:"discount_code,omitempty"`
}

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	buyerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req createOrderRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.ProjectID == uuid.Nil {
		RespondError(w, domain.ErrValidation("project_id is required"))
		return
	}

	payment, err := h.orders.CreateOrder(r.Context(), buyerID, req.ProjectID, req.DiscountCode)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, payment)
}

type verifyRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// Verify handles POST /orders/verify, the client-side settlement path.
func (h *OrderHandler) Verify(w http.ResponseWriter, r *http.Request) {
	buyerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req verifyRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		RespondError(w, domain.ErrValidation("gateway_order_id, gateway_payment_id and signature are required"))
		return
	}

	payment, err := h.orders.VerifyPayment(r.Context(), buyerID, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, payment)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	buyerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid payment id"))
		return
	}

	payment, err := h.orders.GetOrder(r.Context(), buyerID, paymentID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, payment)
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	buyerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	payments, err := h.orders.ListOrders(r.Context(), buyerID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"orders": payments})
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	buyerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid payment id"))
		return
	}

	payment, err := h.orders.CancelOrder(r.Context(), buyerID, paymentID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, payment)
}
