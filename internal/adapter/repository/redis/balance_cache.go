package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/palletledger/internal/domain"
)

const keyPrefix = "palletledger:"

// BalanceCache implements usecase.BalanceCache. Every partner has a
// generation counter; cached balances are keyed by it, so bumping the
// counter orphans them until their TTL runs out.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache creates a BalanceCache whose entries expire after ttl.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		client: client,
		ttl:    ttl,
	}
}

func generationKey(partnerID string) string {
	return keyPrefix + "balance:gen:" + partnerID
}

func balanceKey(partnerID string, generation int64, start, end time.Time) string {
	return fmt.Sprintf("%sbalance:%s:%d:%s:%s", keyPrefix, partnerID, generation,
		start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano))
}

// Generation returns the partner's current generation, 0 if never bumped.
func (c *BalanceCache) Generation(ctx context.Context, partnerID string) (int64, error) {
	v, err := c.client.Get(ctx, generationKey(partnerID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(v, 10, 64)
}

// Get returns a balance cached under generation.
func (c *BalanceCache) Get(ctx context.Context, partnerID string, generation int64, start, end time.Time) (*domain.Balance, bool, error) {
	data, err := c.client.Get(ctx, balanceKey(partnerID, generation, start, end)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var b domain.Balance
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, false, fmt.Errorf("decode cached balance: %w", err)
	}

	return &b, true, nil
}

// Set caches a balance under generation.
func (c *BalanceCache) Set(ctx context.Context, partnerID string, generation int64, start, end time.Time, balance *domain.Balance) error {
	data, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("encode balance: %w", err)
	}

	return c.client.Set(ctx, balanceKey(partnerID, generation, start, end), data, c.ttl).Err()
}

// Invalidate bumps the partner's generation.
func (c *BalanceCache) Invalidate(ctx context.Context, partnerID string) error {
	return c.client.Incr(ctx, generationKey(partnerID)).Err()
}
