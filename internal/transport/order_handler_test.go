package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"sushi-samurai/internal/collection"
	"sushi-samurai/internal/domain"
	"sushi-samurai/internal/middleware"
	"sushi-samurai/internal/query"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOrderCollection backs query.Orders without a database.
type fakeOrderCollection struct {
	rows []*domain.Order
}

func (f *fakeOrderCollection) Name() string { return "orders" }

func (f *fakeOrderCollection) GetAll(ctx context.Context, opts collection.ListOptions) ([]*domain.Order, error) {
	return f.rows, nil
}

func (f *fakeOrderCollection) GetOne(ctx context.Context, id any) (*domain.Order, error) {
	key, ok := id.(uuid.UUID)
	if !ok {
		return nil, collection.ErrNotFound
	}
	for _, o := range f.rows {
		if o.ID == key {
			return o, nil
		}
	}
	return nil, collection.ErrNotFound
}

func (f *fakeOrderCollection) Create(ctx context.Context, fields map[string]any) (*domain.Order, error) {
	order := &domain.Order{
		ID:             fields["id"].(uuid.UUID),
		UserID:         fields["user_id"].(uuid.UUID),
		Status:         fields["status"].(string),
		TotalPrice:     fields["total_price"].(float64),
		DeliveryMethod: fields["delivery_method"].(string),
		CreatedAt:      fields["created_at"].(time.Time),
		UpdatedAt:      fields["updated_at"].(time.Time),
	}
	f.rows = append(f.rows, order)
	return order, nil
}

func (f *fakeOrderCollection) Update(ctx context.Context, id any, fields map[string]any) (*domain.Order, error) {
	order, err := f.GetOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if status, ok := fields["status"].(string); ok {
		order.Status = status
	}
	return order, nil
}

func (f *fakeOrderCollection) Remove(ctx context.Context, id any) error { return nil }

func (f *fakeOrderCollection) Search(ctx context.Context, q string, columns []string, opts collection.ListOptions) ([]*domain.Order, error) {
	return nil, nil
}

// fakeOrderItemStore records line-item inserts; failCreate scripts a failure.
type fakeOrderItemStore struct {
	created    []*domain.OrderItem
	failCreate bool
}

func (f *fakeOrderItemStore) GetAll(ctx context.Context, opts collection.ListOptions) ([]*domain.OrderItem, error) {
	return f.created, nil
}

func (f *fakeOrderItemStore) Create(ctx context.Context, fields map[string]any) (*domain.OrderItem, error) {
	if f.failCreate {
		return nil, errors.New("insert failed")
	}
	productID, err := uuid.Parse(fields["product_id"].(string))
	if err != nil {
		return nil, err
	}
	item := &domain.OrderItem{
		ID:        fields["id"].(uuid.UUID),
		OrderID:   fields["order_id"].(uuid.UUID),
		ProductID: productID,
		Quantity:  fields["quantity"].(int),
		Price:     fields["price"].(float64),
	}
	f.created = append(f.created, item)
	return item, nil
}

func newOrderRouter(orders *fakeOrderCollection, items OrderItemStore, user *domain.User) chi.Router {
	r := chi.NewRouter()
	authed := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, user.ID)
			ctx = context.WithValue(ctx, middleware.UserRoleKey, user.Role)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
	passthrough := func(next http.Handler) http.Handler { return next }
	handler := NewOrderHandler(query.NewOrders(orders, query.NewCache()), items, zap.NewNop())
	handler.RegisterRoutes(r, authed, passthrough)
	return r
}

func sampleOrderRequest() CreateOrderRequest {
	return CreateOrderRequest{
		TotalPrice:     25.97,
		DeliveryMethod: domain.DeliveryMethodPickup,
		Items: []OrderItemRequest{
			{ProductID: uuid.New().String(), Quantity: 2, Price: 8.99},
			{ProductID: uuid.New().String(), Quantity: 1, Price: 7.99},
		},
	}
}

func TestOrderHandler_CreateSuccess(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Role: domain.RoleCustomer}
	orders := &fakeOrderCollection{}
	items := &fakeOrderItemStore{}
	router := newOrderRouter(orders, items, user)

	w := postJSON(t, router, "/api/orders", sampleOrderRequest())

	require.Equal(t, http.StatusCreated, w.Code)

	var resp OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, user.ID, resp.Order.UserID)
	assert.Equal(t, domain.OrderStatusPending, resp.Order.Status)
	assert.Len(t, resp.Items, 2)
	assert.Len(t, items.created, 2)
}

func TestOrderHandler_CreateItemInsertFailureKeepsOrderRow(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Role: domain.RoleCustomer}
	orders := &fakeOrderCollection{}
	items := &fakeOrderItemStore{failCreate: true}
	router := newOrderRouter(orders, items, user)

	w := postJSON(t, router, "/api/orders", sampleOrderRequest())

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// The order row was already written before the item insert failed.
	require.Len(t, orders.rows, 1)
	assert.Equal(t, domain.OrderStatusPending, orders.rows[0].Status)
	assert.Empty(t, items.created)
}

func TestOrderHandler_CreateRequiresItems(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Role: domain.RoleCustomer}
	router := newOrderRouter(&fakeOrderCollection{}, &fakeOrderItemStore{}, user)

	req := sampleOrderRequest()
	req.Items = nil
	w := postJSON(t, router, "/api/orders", req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
