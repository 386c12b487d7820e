package query

import (
	"context"
	"time"

	"sushi-samurai/internal/collection"
	"sushi-samurai/internal/domain"
)

// Products serves product queries with invalidate-on-mutation caching.
type Products struct {
	client[domain.Product]
}

func NewProducts(col Collection[domain.Product], cache *Cache) *Products {
	return &Products{client[domain.Product]{col: col, cache: cache}}
}

func (p *Products) List(ctx context.Context, opts collection.ListOptions) ([]*domain.Product, error) {
	return p.list(ctx, opts)
}

func (p *Products) Get(ctx context.Context, id any) (*domain.Product, error) {
	return p.get(ctx, id)
}

func (p *Products) Create(ctx context.Context, fields map[string]any) (*domain.Product, error) {
	return p.create(ctx, fields)
}

func (p *Products) Update(ctx context.Context, id any, fields map[string]any) (*domain.Product, error) {
	return p.update(ctx, id, stamped(fields, map[string]any{"updated_at": time.Now()}))
}

func (p *Products) Delete(ctx context.Context, id any) error {
	return p.remove(ctx, id)
}

// Search matches the query against title and description; results are not
// cached.
func (p *Products) Search(ctx context.Context, query string, opts collection.ListOptions) ([]*domain.Product, error) {
	return p.col.Search(ctx, query, []string{"title", "description"}, opts)
}

// Categories serves category queries.
type Categories struct {
	client[domain.Category]
}

func NewCategories(col Collection[domain.Category], cache *Cache) *Categories {
	return &Categories{client[domain.Category]{col: col, cache: cache}}
}

func (c *Categories) List(ctx context.Context, opts collection.ListOptions) ([]*domain.Category, error) {
	return c.list(ctx, opts)
}

func (c *Categories) Get(ctx context.Context, id any) (*domain.Category, error) {
	return c.get(ctx, id)
}

func (c *Categories) Create(ctx context.Context, fields map[string]any) (*domain.Category, error) {
	return c.create(ctx, fields)
}

func (c *Categories) Update(ctx context.Context, id any, fields map[string]any) (*domain.Category, error) {
	return c.update(ctx, id, stamped(fields, map[string]any{"updated_at": time.Now()}))
}

func (c *Categories) Delete(ctx context.Context, id any) error {
	return c.remove(ctx, id)
}
