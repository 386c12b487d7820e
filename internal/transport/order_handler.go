package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sushi-samurai/internal/collection"
	"sushi-samurai/internal/domain"
	"sushi-samurai/internal/middleware"
	"sushi-samurai/internal/query"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderItemRequest is a line item in an order creation payload
type OrderItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
	Notes     *string `json:"notes"`
}

// CreateOrderRequest is the order creation payload
type CreateOrderRequest struct {
	TotalPrice      float64            `json:"total_price" validate:"gte=0"`
	DeliveryMethod  string             `json:"delivery_method" validate:"required,oneof=delivery pickup"`
	DeliveryAddress json.RawMessage    `json:"delivery_address"`
	DeliveryNotes   *string            `json:"delivery_notes"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrderStatusRequest moves an order to a new status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderResponse bundles an order with its line items
type OrderResponse struct {
	Order *domain.Order       `json:"order"`
	Items []*domain.OrderItem `json:"items"`
}

// OrderItemStore is the slice of the table layer the handler needs for line
// items. *collection.Table[domain.OrderItem] satisfies it.
type OrderItemStore interface {
	GetAll(ctx context.Context, opts collection.ListOptions) ([]*domain.OrderItem, error)
	Create(ctx context.Context, fields map[string]any) (*domain.OrderItem, error)
}

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	orders *query.Orders
	items  OrderItemStore
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *query.Orders, items OrderItemStore, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, items: items, logger: logger}
}

// RegisterRoutes registers order routes. Everything requires authentication;
// status changes need staff.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, staffMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(staffMiddleware)
			r.Patch("/{id}/status", h.UpdateStatus)
		})
	})
}

// List returns the caller's orders, or every order for admins
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := contextUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListFor(r.Context(), user)
	if err != nil {
		h.logger.Error("Order list failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// Get returns one order with its items. Non-staff callers only see their own.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := contextUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		respondFetchError(w, h.logger, err, "order")
		return
	}
	if order.UserID != user.ID && user.Role == domain.RoleCustomer {
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	items, err := h.items.GetAll(r.Context(), collection.ListOptions{
		Filters: map[string]any{"order_id": order.ID},
	})
	if err != nil {
		h.logger.Error("Order items fetch failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch order items")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, OrderResponse{Order: order, Items: items})
}

// Create places an order with its line items for the authenticated user
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := contextUser(w, r)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	fields := map[string]any{
		"id":              uuid.New(),
		"total_price":     req.TotalPrice,
		"delivery_method": req.DeliveryMethod,
	}
	if req.DeliveryAddress != nil {
		fields["delivery_address"] = []byte(req.DeliveryAddress)
	}
	if req.DeliveryNotes != nil {
		fields["delivery_notes"] = *req.DeliveryNotes
	}

	order, err := h.orders.Create(r.Context(), user, fields)
	if err != nil {
		h.logger.Error("Order create failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	// Line items are inserted row by row, not in a transaction with the
	// order: a failed insert returns 500 with the pending order row already
	// persisted.
	items := make([]*domain.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		itemFields := map[string]any{
			"id":         uuid.New(),
			"order_id":   order.ID,
			"product_id": line.ProductID,
			"quantity":   line.Quantity,
			"price":      line.Price,
			"created_at": time.Now(),
		}
		if line.Notes != nil {
			itemFields["notes"] = *line.Notes
		}
		item, err := h.items.Create(r.Context(), itemFields)
		if err != nil {
			h.logger.Error("Order item create failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create order items")
			return
		}
		items = append(items, item)
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.Int("items", len(items)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, OrderResponse{Order: order, Items: items})
}

// UpdateStatus moves an order to a new status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !decode(w, r, &req, h.logger) {
		return
	}
	if !domain.ValidOrderStatus(req.Status) {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order status")
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondFetchError(w, h.logger, err, "order")
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", order.Status),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// contextUser rebuilds the caller identity from the auth middleware context.
func contextUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "user not authenticated")
		return nil, false
	}
	role, ok := middleware.GetUserRole(r.Context())
	if !ok {
		role = domain.RoleCustomer
	}
	return &domain.User{ID: userID, Role: role}, true
}
