package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// FileCartPersister writes the items slice as one JSON document, overwriting
// the file wholesale on every save. This is the local-storage analog: a
// single namespaced key, no transactional guarantees beyond the write itself.
type FileCartPersister struct {
	path string
}

// NewFileCartPersister persists under dir with the given key as file name.
func NewFileCartPersister(dir, key string) *FileCartPersister {
	return &FileCartPersister{path: filepath.Join(dir, key+".json")}
}

func (p *FileCartPersister) Save(ctx context.Context, items []CartItem) error {
	if items == nil {
		items = []CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cart dir: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	return nil
}

func (p *FileCartPersister) Load(ctx context.Context) ([]CartItem, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var items []CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

// RedisCartPersister stores the serialized items under a single redis key.
type RedisCartPersister struct {
	client *redis.Client
	key    string
}

func NewRedisCartPersister(client *redis.Client, key string) *RedisCartPersister {
	return &RedisCartPersister{client: client, key: key}
}

func (p *RedisCartPersister) Save(ctx context.Context, items []CartItem) error {
	if items == nil {
		items = []CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := p.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	return nil
}

func (p *RedisCartPersister) Load(ctx context.Context) ([]CartItem, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var items []CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}
