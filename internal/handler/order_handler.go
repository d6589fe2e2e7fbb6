package handler

import (
	"encoding/json"
	"net/http"

	"mini-shop/internal/middleware"
	"mini-shop/internal/model"
	"mini-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	resp, err := h.service.Place(r.Context(), userID, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	resp, err := h.service.GetByID(r.Context(), userID, orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Paid handles POST /api/orders/{id}/paid requests. It is the payment
// callback surface, so no user check is applied.
func (h *OrderHandler) Paid(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkPaid(r.Context(), orderID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

// Received handles POST /api/orders/{id}/received requests.
func (h *OrderHandler) Received(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	order, err := h.service.MarkReceived(r.Context(), userID, orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// refundRequest is the body for POST /api/orders/{id}/refund.
type refundRequest struct {
	Reason string `json:"reason"`
}

// Refund handles POST /api/orders/{id}/refund requests.
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "refund reason is required", h.logger)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	order, err := h.service.ApplyRefund(r.Context(), userID, orderID, req.Reason)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// reviewRequest is the body for POST /api/orders/{id}/review.
type reviewRequest struct {
	Items []model.ItemReview `json:"items"`
}

// Review handles POST /api/orders/{id}/review requests.
func (h *OrderHandler) Review(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "at least one item review is required", h.logger)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	if err := h.service.SubmitReview(r.Context(), userID, orderID, req.Items); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reviewed"})
}

// orderID parses the {id} route parameter, writing a 400 on failure.
func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid order ID format", h.logger)
		return uuid.Nil, false
	}
	return orderID, true
}
