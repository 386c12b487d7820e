package query

import (
	"context"

	"sushi-samurai/internal/collection"
)

// Collection is the table-binding surface the query clients consume.
// *collection.Table[T] satisfies it; tests substitute fakes.
type Collection[T any] interface {
	Name() string
	GetAll(ctx context.Context, opts collection.ListOptions) ([]*T, error)
	GetOne(ctx context.Context, id any) (*T, error)
	Create(ctx context.Context, fields map[string]any) (*T, error)
	Update(ctx context.Context, id any, fields map[string]any) (*T, error)
	Remove(ctx context.Context, id any) error
	Search(ctx context.Context, query string, columns []string, opts collection.ListOptions) ([]*T, error)
}

// client wires one collection binding to the cache: reads populate entries,
// mutations invalidate the entity namespace.
type client[T any] struct {
	col   Collection[T]
	cache *Cache
}

func (c *client[T]) list(ctx context.Context, opts collection.ListOptions) ([]*T, error) {
	key := listKey(c.col.Name(), opts)
	if cached, ok := c.cache.Get(key); ok {
		if items, ok := cached.([]*T); ok {
			return items, nil
		}
	}

	items, err := c.col.GetAll(ctx, opts)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, items)
	return items, nil
}

func (c *client[T]) get(ctx context.Context, id any) (*T, error) {
	key := idKey(c.col.Name(), id)
	if cached, ok := c.cache.Get(key); ok {
		if item, ok := cached.(*T); ok {
			return item, nil
		}
	}

	item, err := c.col.GetOne(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, item)
	return item, nil
}

func (c *client[T]) create(ctx context.Context, fields map[string]any) (*T, error) {
	created, err := c.col.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(c.col.Name())
	return created, nil
}

func (c *client[T]) update(ctx context.Context, id any, fields map[string]any) (*T, error) {
	updated, err := c.col.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(c.col.Name())
	return updated, nil
}

// stamped copies the caller's fields before adding server-side columns, so
// the input map is never written to (and may be nil).
func stamped(fields map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+len(extra))
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (c *client[T]) remove(ctx context.Context, id any) error {
	if err := c.col.Remove(ctx, id); err != nil {
		return err
	}
	c.cache.Invalidate(c.col.Name())
	return nil
}
