package query

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"sushi-samurai/internal/collection"
)

// Cache is an in-process result cache keyed by entity name, with single-row
// entries keyed by entity and id. Mutating clients invalidate the entity's
// whole namespace, mirroring invalidate-on-mutation query caching.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]any)}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Invalidate drops every entry under the given namespace: the list keys and
// all id keys of the entity.
func (c *Cache) Invalidate(namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key == namespace || strings.HasPrefix(key, namespace+"/") || strings.HasPrefix(key, namespace+"?") {
			delete(c.entries, key)
		}
	}
}

// listKey fingerprints a list query: entity plus sorted filter pairs, plus
// any pagination and ordering. The shape parameters carry a "$" prefix so
// they can never collide with a filter column.
func listKey(entity string, opts collection.ListOptions) string {
	keys := make([]string, 0, len(opts.Filters))
	for k := range opts.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)+3)
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, opts.Filters[k]))
	}
	if opts.Limit > 0 {
		pairs = append(pairs, fmt.Sprintf("$limit=%d", opts.Limit))
	}
	if opts.Offset > 0 {
		pairs = append(pairs, fmt.Sprintf("$offset=%d", opts.Offset))
	}
	if opts.OrderBy != nil {
		direction := "asc"
		if opts.OrderBy.Descending {
			direction = "desc"
		}
		pairs = append(pairs, fmt.Sprintf("$order=%s.%s", opts.OrderBy.Column, direction))
	}
	if len(pairs) == 0 {
		return entity
	}
	return entity + "?" + strings.Join(pairs, "&")
}

func idKey(entity string, id any) string {
	return fmt.Sprintf("%s/%v", entity, id)
}
