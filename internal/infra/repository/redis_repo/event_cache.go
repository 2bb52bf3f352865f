package redis_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/redis/go-redis/v9"
)

const DefaultProcessedEventTTL = 24 * time.Hour

// ProcessedEventCache 記錄已成功處理的事件 id
type ProcessedEventCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProcessedEventCache(client *redis.Client, ttl time.Duration) *ProcessedEventCache {
	if ttl <= 0 {
		ttl = DefaultProcessedEventTTL
	}
	return &ProcessedEventCache{client: client, ttl: ttl}
}

func generateProcessedEventKey(key string) string {
	return fmt.Sprintf("processed_event:%s", key)
}

func (c *ProcessedEventCache) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, generateProcessedEventKey(key)).Result()
	if err != nil {
		return false, model.Infra("check processed event", err)
	}
	return n > 0, nil
}

func (c *ProcessedEventCache) MarkProcessed(ctx context.Context, key string) error {
	if err := c.client.Set(ctx, generateProcessedEventKey(key), 1, c.ttl).Err(); err != nil {
		return model.Infra("mark processed event", err)
	}
	return nil
}

var _ repository.IProcessedEventCache = (*ProcessedEventCache)(nil)
