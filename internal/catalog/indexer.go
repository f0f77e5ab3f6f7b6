package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Indexer writes the search-index document for a catalog record. The write
// must be idempotent per product code so that replayed events can re-index
// safely.
type Indexer interface {
	IndexProduct(ctx context.Context, rec Record) error
}

// RedisIndexer keeps index documents in Redis, keyed by product code, with
// a name-based secondary lookup set.
type RedisIndexer struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIndexer creates an indexer on the given Redis address.
func NewRedisIndexer(addr string) *RedisIndexer {
	return &RedisIndexer{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		keyPrefix: "catalog:product",
	}
}

// IndexProduct implements the Indexer interface. Writing the same record
// twice overwrites the document with identical content.
func (r *RedisIndexer) IndexProduct(ctx context.Context, rec Record) error {
	doc, err := json.Marshal(map[string]interface{}{
		"productCode":    rec.ProductCode,
		"name":           rec.Name,
		"price":          rec.Price,
		"description":    rec.Description,
		"variants":       rec.Variants,
		"discounts":      rec.Discounts,
		"images":         rec.Images,
		"specifications": rec.Specifications,
	})
	if err != nil {
		return fmt.Errorf("marshal index document: %w", err)
	}

	key := fmt.Sprintf("%s:%s", r.keyPrefix, rec.ProductCode)
	if err := r.client.Set(ctx, key, doc, 0).Err(); err != nil {
		return fmt.Errorf("write index document %s: %w", key, err)
	}
	if err := r.client.SAdd(ctx, r.keyPrefix+":all", rec.ProductCode).Err(); err != nil {
		return fmt.Errorf("register index document %s: %w", key, err)
	}
	return nil
}

// Close releases the Redis client.
func (r *RedisIndexer) Close() error {
	return r.client.Close()
}
