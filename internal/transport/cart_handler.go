package transport

import (
	"net/http"

	"sushi-samurai/internal/middleware"
	"sushi-samurai/internal/query"
	"sushi-samurai/internal/state"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddCartItemRequest adds a product to the cart
type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateCartItemRequest sets a line item's quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is the cart with its derived totals
type CartResponse struct {
	Items      []state.CartItem `json:"items"`
	TotalItems int              `json:"total_items"`
	TotalPrice float64          `json:"total_price"`
	IsOpen     bool             `json:"is_open"`
}

// CartHandler serves the authenticated user's cart
type CartHandler struct {
	carts    *state.CartManager
	products *query.Products
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *state.CartManager, products *query.Products, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, products: products, logger: logger}
}

// RegisterRoutes registers cart routes; all require authentication
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.RemoveItem)
		r.Post("/open", h.Open)
		r.Post("/close", h.Close)
		r.Post("/toggle", h.Toggle)
	})
}

// Get returns the cart with derived totals
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

// AddItem snapshots the product and merges it into the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	product, err := h.products.Get(r.Context(), req.ProductID)
	if err != nil {
		respondFetchError(w, h.logger, err, "product")
		return
	}

	cart.AddItem(r.Context(), *product, req.Quantity)
	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

// UpdateItem sets the quantity of a line item. Zero or less removes it.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	cart.UpdateQuantity(r.Context(), id, req.Quantity)
	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

// RemoveItem drops a line item; removing an absent id is a no-op
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	cart.RemoveItem(r.Context(), id)
	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

// Clear empties the cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	cart.ClearCart(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

// Open marks the cart drawer visible
func (h *CartHandler) Open(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	cart.OpenCart()
	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

// Close marks the cart drawer hidden
func (h *CartHandler) Close(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	cart.CloseCart()
	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

// Toggle flips the cart drawer visibility
func (h *CartHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	cart.ToggleCart()
	middleware.RespondWithJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) cart(w http.ResponseWriter, r *http.Request) (*state.CartStore, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "user not authenticated")
		return nil, false
	}
	return h.carts.For(r.Context(), userID), true
}

func cartResponse(cart *state.CartStore) CartResponse {
	items := cart.Items()
	if items == nil {
		items = []state.CartItem{}
	}
	return CartResponse{
		Items:      items,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
		IsOpen:     cart.IsOpen(),
	}
}
