package state

import (
	"context"
	"sync"

	"sushi-samurai/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StorageKey is the namespace under which cart items are persisted.
const StorageKey = "sushi-samurai-cart"

// CartItem pairs a full product snapshot with a quantity. The snapshot, not
// just the id, is kept so the cart renders without refetching products.
type CartItem struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// CartPersister stores the items slice wholesale under a single key.
type CartPersister interface {
	Save(ctx context.Context, items []CartItem) error
	Load(ctx context.Context) ([]CartItem, error)
}

// CartStore holds a cart's line items and visibility flag. Items hold at
// most one entry per product id and keep insertion order. The items slice
// is written to the persister after every mutation; the visibility flag is
// never persisted and resets to closed on reload.
type CartStore struct {
	mu        sync.Mutex
	items     []CartItem
	isOpen    bool
	persister CartPersister
	logger    *zap.Logger
}

// NewCartStore creates a cart and loads any previously persisted items.
// A load failure starts the cart empty rather than failing construction.
func NewCartStore(ctx context.Context, persister CartPersister, logger *zap.Logger) *CartStore {
	s := &CartStore{persister: persister, logger: logger}

	items, err := persister.Load(ctx)
	if err != nil {
		logger.Warn("Failed to load persisted cart", zap.Error(err))
		return s
	}
	s.items = items
	return s
}

// AddItem merges quantity into an existing line item for the product, or
// appends a new one at the end. The quantity is not validated here.
func (s *CartStore) AddItem(ctx context.Context, product domain.Product, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Product.ID == product.ID {
			s.items[i].Quantity += quantity
			s.persist(ctx)
			return
		}
	}
	s.items = append(s.items, CartItem{Product: product, Quantity: quantity})
	s.persist(ctx)
}

// RemoveItem drops the line item for the product; a missing id is a no-op.
func (s *CartStore) RemoveItem(ctx context.Context, productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, productID)
}

// UpdateQuantity sets the line item's quantity. A quantity of zero or less
// removes the item; updating an absent id does not create one.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(ctx, productID)
		return
	}

	for i := range s.items {
		if s.items[i].Product.ID == productID {
			s.items[i].Quantity = quantity
			s.persist(ctx)
			return
		}
	}
}

// ClearCart empties the items; the visibility flag is untouched.
func (s *CartStore) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persist(ctx)
}

func (s *CartStore) OpenCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = true
}

func (s *CartStore) CloseCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = false
}

func (s *CartStore) ToggleCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = !s.isOpen
}

func (s *CartStore) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// Items returns a copy of the line items in insertion order.
func (s *CartStore) Items() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]CartItem, len(s.items))
	copy(items, s.items)
	return items
}

// TotalItems is the sum of quantities across all line items.
func (s *CartStore) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums price times quantity in float arithmetic. No rounding is
// applied; callers round for display.
func (s *CartStore) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, item := range s.items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// ItemQuantity returns the quantity for the product, or 0 when absent.
func (s *CartStore) ItemQuantity(productID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.Product.ID == productID {
			return item.Quantity
		}
	}
	return 0
}

func (s *CartStore) removeLocked(ctx context.Context, productID uuid.UUID) {
	kept := s.items[:0]
	for _, item := range s.items {
		if item.Product.ID != productID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(s.items) {
		return
	}
	s.items = kept
	s.persist(ctx)
}

// persist writes the items slice wholesale. Failures are logged, never
// surfaced: cart mutations do not fail.
func (s *CartStore) persist(ctx context.Context) {
	if err := s.persister.Save(ctx, s.items); err != nil {
		s.logger.Warn("Failed to persist cart", zap.Error(err))
	}
}
