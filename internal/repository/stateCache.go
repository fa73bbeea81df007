// Package repository redis state cache
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keys for the cached session state
const (
	balanceKey   = "trading:balance"
	hasTradedKey = "trading:has_traded"
)

// StateCache ephemeral local mirror of the displayed balance and the
// session "has traded" flag. Best-effort: callers log and swallow errors,
// the in-memory state stays authoritative.
type StateCache struct {
	rdb *redis.Client
}

// NewStateCache state cache constructor
func NewStateCache(rdb *redis.Client) *StateCache {
	return &StateCache{rdb: rdb}
}

// Balance cached balance; found is false when nothing was cached yet
func (c *StateCache) Balance(ctx context.Context) (balance float64, found bool, err error) {
	balance, err = c.rdb.Get(ctx, balanceKey).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("stateCache - Balance - Get: %w", err)
	}
	return balance, true, nil
}

// SetBalance cache the displayed balance
func (c *StateCache) SetBalance(ctx context.Context, balance float64) error {
	if err := c.rdb.Set(ctx, balanceKey, balance, 0).Err(); err != nil {
		return fmt.Errorf("stateCache - SetBalance - Set: %w", err)
	}
	return nil
}

// HasTraded whether an automated trade already settled this session
func (c *StateCache) HasTraded(ctx context.Context) (bool, error) {
	val, err := c.rdb.Get(ctx, hasTradedKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stateCache - HasTraded - Get: %w", err)
	}
	return val == "true", nil
}

// SetHasTraded persist the automated-trade block
func (c *StateCache) SetHasTraded(ctx context.Context) error {
	if err := c.rdb.Set(ctx, hasTradedKey, "true", 0).Err(); err != nil {
		return fmt.Errorf("stateCache - SetHasTraded - Set: %w", err)
	}
	return nil
}
