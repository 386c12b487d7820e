package query

import (
	"context"
	"time"

	"sushi-samurai/internal/collection"
	"sushi-samurai/internal/domain"
)

// Orders serves order queries. Admins see every order; everyone else only
// their own.
type Orders struct {
	client[domain.Order]
}

func NewOrders(col Collection[domain.Order], cache *Cache) *Orders {
	return &Orders{client[domain.Order]{col: col, cache: cache}}
}

func (o *Orders) ListFor(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	opts := collection.ListOptions{}
	if user.Role != domain.RoleAdmin {
		opts.Filters = map[string]any{"user_id": user.ID}
	}
	return o.list(ctx, opts)
}

func (o *Orders) Get(ctx context.Context, id any) (*domain.Order, error) {
	return o.get(ctx, id)
}

// Create places an order for the user, stamping the owner and defaulting
// the status to pending. No business-rule validation happens here.
func (o *Orders) Create(ctx context.Context, user *domain.User, fields map[string]any) (*domain.Order, error) {
	now := time.Now()
	return o.create(ctx, stamped(fields, map[string]any{
		"user_id":    user.ID,
		"status":     domain.OrderStatusPending,
		"created_at": now,
		"updated_at": now,
	}))
}

func (o *Orders) UpdateStatus(ctx context.Context, id any, status string) (*domain.Order, error) {
	return o.update(ctx, id, map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	})
}
