package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lokapasar-be/internal/customer"
	"lokapasar-be/internal/discount"
	"lokapasar-be/internal/inventory"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/order"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// handler is a thin JSON facade over the engine services: decode, call,
// encode. All business rules live below it.
type handler struct {
	orders    order.Service
	discounts discount.Service
	inventory inventory.Service
}

func newHandler(orders order.Service, discounts discount.Service, inv inventory.Service) *handler {
	return &handler{orders: orders, discounts: discounts, inventory: inv}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithRequestID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type createOrderRequest struct {
	CustomerID   string          `json:"customer_id"`
	Lines        []order.Line    `json:"lines"`
	DiscountCode *string         `json:"discount_code,omitempty"`
	Tax          decimal.Decimal `json:"tax"`
	Shipping     decimal.Decimal `json:"shipping"`
	ShippingAddr order.Address   `json:"shipping_address"`
	BillingAddr  order.Address   `json:"billing_address"`
}

func (h *handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.Create(r.Context(), order.CreateParams{
		CustomerID:   req.CustomerID,
		Lines:        req.Lines,
		DiscountCode: req.DiscountCode,
		Tax:          req.Tax,
		Shipping:     req.Shipping,
		ShippingAddr: req.ShippingAddr,
		BillingAddr:  req.BillingAddr,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var filter order.ListFilter
	if v := r.URL.Query().Get("customer_id"); v != "" {
		filter.CustomerID = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := order.Status(v)
		if !order.ValidStatus(status) {
			writeError(w, http.StatusBadRequest, "unknown status "+v)
			return
		}
		filter.Status = &status
	}

	limit, offset := pagination(r)
	orders, err := h.orders.List(r.Context(), filter, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByNumber(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
	Note   string       `json:"note"`
	Actor  string       `json:"actor"`
}

func (h *handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.Note, req.Actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type cancelRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

func (h *handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason, req.Actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

func (h *handler) setTracking(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.orders.SetTracking(r.Context(), chi.URLParam(r, "id"), req.TrackingNumber); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type validateDiscountRequest struct {
	Code       string          `json:"code"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

func (h *handler) validateDiscount(w http.ResponseWriter, r *http.Request) {
	var req validateDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v, err := h.discounts.Validate(r.Context(), req.Code, req.OrderTotal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]any{"valid": v.Valid}
	if v.Valid {
		resp["amount"] = v.Amount
	} else {
		resp["reason"] = v.Reason
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) createDiscount(w http.ResponseWriter, r *http.Request) {
	var d discount.Discount
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.discounts.Create(r.Context(), &d)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	discounts, err := h.discounts.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if discounts == nil {
		discounts = []*discount.Discount{}
	}
	writeJSON(w, http.StatusOK, discounts)
}

type adjustRequest struct {
	ProductID string                 `json:"product_id"`
	Type      inventory.MovementType `json:"type"`
	Quantity  int                    `json:"quantity"`
	Note      string                 `json:"note"`
	Actor     string                 `json:"actor"`
}

func (h *handler) adjustInventory(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.inventory.Adjust(r.Context(), inventory.ApplyParams{
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Note:      req.Note,
		Actor:     req.Actor,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) listMovements(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	movements, err := h.inventory.Movements(r.Context(), chi.URLParam(r, "productID"), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if movements == nil {
		movements = []*inventory.Movement{}
	}
	writeJSON(w, http.StatusOK, movements)
}

func pagination(r *http.Request) (limit, offset int32) {
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 32); err == nil {
		limit = int32(v)
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 32); err == nil {
		offset = int32(v)
	}
	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the engine's error taxonomy onto HTTP statuses.
// Unexpected persistence errors stay opaque.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, customer.ErrCustomerNotFound),
		errors.Is(err, discount.ErrDiscountNotFound),
		errors.Is(err, inventory.ErrProductNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, discount.ErrDiscountInvalid):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrValidation),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrProductInactive),
		errors.Is(err, inventory.ErrInvalidMovement),
		errors.Is(err, discount.ErrCodeExists):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
