package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCartLocked 其他 worker 正在處理同一購物車，交由 bus 重新投遞
var ErrCartLocked = &model.InfrastructureError{Op: "acquire cart lock", Err: errors.New("cart is locked by another worker")}

const DefaultCartLockTTL = 30 * time.Second

// 只有持有 token 的一方可以釋放
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// CartLocker 以 SET NX PX 實作的單一購物車租約
type CartLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartLocker(client *redis.Client, ttl time.Duration) *CartLocker {
	if ttl <= 0 {
		ttl = DefaultCartLockTTL
	}
	return &CartLocker{client: client, ttl: ttl}
}

func generateCartLockKey(cartID string) string {
	return fmt.Sprintf("cart:%s:lock", cartID)
}

func (l *CartLocker) Acquire(ctx context.Context, cartID string) (func(context.Context) error, error) {
	key := generateCartLockKey(cartID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, model.Infra("acquire cart lock", err)
	}
	if !ok {
		return nil, ErrCartLocked
	}

	release := func(ctx context.Context) error {
		if err := releaseLockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return model.Infra("release cart lock", err)
		}
		return nil
	}
	return release, nil
}

var _ repository.ICartLocker = (*CartLocker)(nil)
