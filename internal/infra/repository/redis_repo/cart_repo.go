package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/sorting"
	"github.com/redis/go-redis/v9"
)

type CartRepoError error

var (
	ErrCartNotFound        CartRepoError = fmt.Errorf("cart %w", model.ErrNotFound)
	ErrCartAlreadyExists   CartRepoError = fmt.Errorf("%w: cart already exists", model.ErrInvalidState)
	ErrCartVersionConflict CartRepoError = &model.InfrastructureError{Op: "update cart", Err: errors.New("cart version conflict")}
	ErrActiveCartExists    CartRepoError = fmt.Errorf("%w: user already has an active cart, please complete the existing cart before creating a new one", model.ErrInvalidState)
)

const cartIndexKey = "carts:created_at"

// 購物車以 hash 存放
//
//	cart:{id}                doc (json) / version / status / user_id
//	carts:created_at         zset, score 為建立時間 (ms)，分頁用
//	user:{user_id}:active_cart  使用者目前 Active 的購物車 id
type CartRepo struct {
	CartCache *redis.Client
}

func NewCartRepo(cartCache *redis.Client) *CartRepo {
	return &CartRepo{CartCache: cartCache}
}

func generateCartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}

func generateUserActiveCartKey(userID string) string {
	return fmt.Sprintf("user:%s:active_cart", userID)
}

var addCartScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return -1
	end
	if ARGV[2] == 'Active' and redis.call('EXISTS', KEYS[3]) == 1 then
		return -3
	end
	redis.call('HSET', KEYS[1], 'doc', ARGV[1], 'version', 1, 'status', ARGV[2], 'user_id', ARGV[5])
	redis.call('ZADD', KEYS[2], ARGV[4], ARGV[3])
	if ARGV[2] == 'Active' then
		redis.call('SET', KEYS[3], ARGV[3])
	end
	return 1
`)

// -1 不存在, -2 版本不符, 其他為新版本號
var updateCartScript = redis.NewScript(`
	local v = redis.call('HGET', KEYS[1], 'version')
	if not v then
		return -1
	end
	if tonumber(v) ~= tonumber(ARGV[1]) then
		return -2
	end
	local nextVersion = tonumber(v) + 1
	redis.call('HSET', KEYS[1], 'doc', ARGV[2], 'version', nextVersion, 'status', ARGV[3])
	if ARGV[3] ~= 'Active' and redis.call('GET', KEYS[2]) == ARGV[4] then
		redis.call('DEL', KEYS[2])
	end
	return nextVersion
`)

var removeCartScript = redis.NewScript(`
	local removed = redis.call('DEL', KEYS[1])
	redis.call('ZREM', KEYS[2], ARGV[1])
	if redis.call('GET', KEYS[3]) == ARGV[1] then
		redis.call('DEL', KEYS[3])
	end
	return removed
`)

func (r *CartRepo) Add(ctx context.Context, cart *model.Cart) error {
	doc, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	res, err := addCartScript.Run(ctx, r.CartCache,
		[]string{generateCartKey(cart.ID), cartIndexKey, generateUserActiveCartKey(cart.UserRefID)},
		doc, string(cart.Status), cart.ID, cart.CreatedAt.UnixMilli(), cart.UserRefID,
	).Int64()
	if err != nil {
		return model.Infra("add cart", err)
	}

	switch res {
	case -1:
		return ErrCartAlreadyExists
	case -3:
		return ErrActiveCartExists
	}
	cart.Version = 1
	return nil
}

func (r *CartRepo) Update(ctx context.Context, cart *model.Cart) error {
	doc, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	res, err := updateCartScript.Run(ctx, r.CartCache,
		[]string{generateCartKey(cart.ID), generateUserActiveCartKey(cart.UserRefID)},
		cart.Version, doc, string(cart.Status), cart.ID,
	).Int64()
	if err != nil {
		return model.Infra("update cart", err)
	}

	switch res {
	case -1:
		return ErrCartNotFound
	case -2:
		return ErrCartVersionConflict
	}
	cart.Version = res
	return nil
}

func (r *CartRepo) Remove(ctx context.Context, cart *model.Cart) error {
	res, err := removeCartScript.Run(ctx, r.CartCache,
		[]string{generateCartKey(cart.ID), cartIndexKey, generateUserActiveCartKey(cart.UserRefID)},
		cart.ID,
	).Int64()
	if err != nil {
		return model.Infra("remove cart", err)
	}
	if res == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *CartRepo) GetByID(ctx context.Context, id string) (*model.Cart, error) {
	vals, err := r.CartCache.HMGet(ctx, generateCartKey(id), "doc", "version").Result()
	if err != nil {
		return nil, model.Infra("get cart", err)
	}
	cart, err := decodeCart(vals)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, fmt.Errorf("%w: %s", ErrCartNotFound, id)
	}
	return cart, nil
}

func (r *CartRepo) GetActiveByUser(ctx context.Context, userID string) (*model.Cart, error) {
	cartID, err := r.CartCache.Get(ctx, generateUserActiveCartKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, model.Infra("get active cart", err)
	}

	cart, err := r.GetByID(ctx, cartID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cart.Status != model.CartStatusActive {
		return nil, nil
	}
	return cart, nil
}

// GetPaged 只依建立時間排序時直接由 zset 取範圍，其他排序載入全部後在記憶體排序
func (r *CartRepo) GetPaged(ctx context.Context, p paging.Params, terms []sorting.Term) ([]*model.Cart, int64, error) {
	if len(terms) == 0 {
		terms = []sorting.Term{repository.CartDefaultSort}
	}

	if len(terms) == 1 && terms[0].Field == repository.CartSortCreatedAt {
		return r.getPagedByCreatedAt(ctx, p, terms[0].Direction)
	}

	ids, err := r.CartCache.ZRange(ctx, cartIndexKey, 0, -1).Result()
	if err != nil {
		return nil, 0, model.Infra("list carts", err)
	}
	carts, err := r.loadCarts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(carts, func(i, j int) bool {
		c := sorting.Compare(carts[i], carts[j], terms, compareCart)
		if c == 0 {
			return carts[i].ID < carts[j].ID
		}
		return c < 0
	})

	start, end := paging.Window(len(carts), p)
	return carts[start:end], int64(len(carts)), nil
}

func (r *CartRepo) getPagedByCreatedAt(ctx context.Context, p paging.Params, dir sorting.Direction) ([]*model.Cart, int64, error) {
	total, err := r.CartCache.ZCard(ctx, cartIndexKey).Result()
	if err != nil {
		return nil, 0, model.Infra("count carts", err)
	}

	start := int64(p.Offset())
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []*model.Cart{}, total, nil
	}
	stop := start + int64(p.PageSize) - 1

	var ids []string
	if dir == sorting.Desc {
		ids, err = r.CartCache.ZRevRange(ctx, cartIndexKey, start, stop).Result()
	} else {
		ids, err = r.CartCache.ZRange(ctx, cartIndexKey, start, stop).Result()
	}
	if err != nil {
		return nil, 0, model.Infra("list carts", err)
	}

	carts, err := r.loadCarts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return carts, total, nil
}

func (r *CartRepo) loadCarts(ctx context.Context, ids []string) ([]*model.Cart, error) {
	if len(ids) == 0 {
		return []*model.Cart{}, nil
	}

	pipe := r.CartCache.Pipeline()
	cmds := make([]*redis.SliceCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HMGet(ctx, generateCartKey(id), "doc", "version")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, model.Infra("load carts", err)
	}

	carts := make([]*model.Cart, 0, len(ids))
	for _, cmd := range cmds {
		cart, err := decodeCart(cmd.Val())
		if err != nil {
			return nil, err
		}
		// index 與 hash 之間不同步時略過
		if cart != nil {
			carts = append(carts, cart)
		}
	}
	return carts, nil
}

// decodeCart vals 為 HMGET doc, version 的結果，doc 不存在時回傳 nil, nil
func decodeCart(vals []interface{}) (*model.Cart, error) {
	if len(vals) < 2 || vals[0] == nil {
		return nil, nil
	}
	doc, ok := vals[0].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected cart doc type %T", vals[0])
	}

	var cart model.Cart
	if err := json.Unmarshal([]byte(doc), &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []*model.CartItem{}
	}

	if v, ok := vals[1].(string); ok {
		var version int64
		if _, err := fmt.Sscan(v, &version); err != nil {
			return nil, fmt.Errorf("invalid cart version %q: %w", v, err)
		}
		cart.Version = version
	}
	return &cart, nil
}

func compareCart(field sorting.Field, a, b *model.Cart) int {
	switch field {
	case repository.CartSortID:
		return strings.Compare(a.ID, b.ID)
	case repository.CartSortUserID:
		return strings.Compare(a.UserRefID, b.UserRefID)
	case repository.CartSortStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case repository.CartSortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

var _ repository.ICartRepository = (*CartRepo)(nil)
