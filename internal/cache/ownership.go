package cache

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// defaultOwnershipTTL bounds how long an on-chain verdict is reused.
const defaultOwnershipTTL = 60 * time.Second

// keyPrefix namespaces ownership cache entries.
const keyPrefix = "walletauth:balance:"

// OwnershipCache is an optional Redis-backed cache of on-chain balance reads.
//
// A nil *OwnershipCache is valid and caches nothing, so callers never branch on
// whether Redis is configured.
type OwnershipCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOwnershipCache connects to Redis, or returns nil when addr is empty.
func NewOwnershipCache(addr, password string, db int) *OwnershipCache {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     trimmed,
		Password: password,
		DB:       db,
	})
	return &OwnershipCache{rdb: rdb, ttl: defaultOwnershipTTL}
}

// GetBalance returns a cached balance for a lowercased address, if present.
func (c *OwnershipCache) GetBalance(ctx context.Context, address string) (*big.Int, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, errGet := c.rdb.Get(ctx, keyPrefix+address).Result()
	if errGet != nil {
		return nil, false
	}
	balance, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, false
	}
	return balance, true
}

// SetBalance stores an on-chain balance verdict with the cache TTL.
//
// Fallback verdicts are never cached; only live reads pass through here.
func (c *OwnershipCache) SetBalance(ctx context.Context, address string, balance *big.Int) {
	if c == nil || c.rdb == nil || balance == nil {
		return
	}
	if errSet := c.rdb.Set(ctx, keyPrefix+address, balance.String(), c.ttl).Err(); errSet != nil {
		log.WithError(errSet).Warn("ownership cache: set failed")
	}
}
