// Package marketdata provides the IV-rank lookups consumed by the risk engine.
package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"options-risk/internal/config"
	"options-risk/internal/errors"
)

// IVRankProvider returns the implied-volatility rank of a symbol in [0, 100].
// It is the one blocking call in a validation.
type IVRankProvider interface {
	IVRank(ctx context.Context, symbol string) (float64, error)
}

// StaticIVRank returns the same rank for every symbol. It stands in for a
// market-data integration that does not exist yet.
type StaticIVRank struct {
	Value float64
}

// IVRank implements IVRankProvider.
func (s StaticIVRank) IVRank(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Value, nil
}

// stringGetter is the subset of *redis.Client used by RedisIVRankProvider.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisIVRankProvider reads IV ranks published to Redis under prefix+SYMBOL.
type RedisIVRankProvider struct {
	client stringGetter
	prefix string
}

// NewRedisIVRankProvider connects to the Redis instance at url.
func NewRedisIVRankProvider(url, prefix string) (*RedisIVRankProvider, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &RedisIVRankProvider{
		client: redis.NewClient(opt),
		prefix: prefix,
	}, nil
}

// IVRank implements IVRankProvider. A missing key is an error, never a default.
func (p *RedisIVRankProvider) IVRank(ctx context.Context, symbol string) (float64, error) {
	key := p.prefix + strings.ToUpper(symbol)

	val, err := p.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, errors.NewDataError("iv_rank", symbol, "no value at "+key, errors.ErrDataNotFound)
	}
	if err != nil {
		return 0, errors.NewDataError("iv_rank", symbol, "redis lookup failed", err)
	}

	rank, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, errors.NewDataError("iv_rank", symbol, fmt.Sprintf("unparseable value %q", val), err)
	}
	if rank < 0 || rank > 100 {
		return 0, errors.NewDataError("iv_rank", symbol, fmt.Sprintf("value %.2f outside [0, 100]", rank), errors.ErrInvalidInput)
	}
	return rank, nil
}

// Close releases the Redis connection pool.
func (p *RedisIVRankProvider) Close() error {
	if c, ok := p.client.(*redis.Client); ok {
		return c.Close()
	}
	return nil
}

// NewProvider builds the provider selected in configuration.
func NewProvider(cfg config.MarketDataConfig) (IVRankProvider, error) {
	switch cfg.Provider {
	case "", "static":
		return StaticIVRank{Value: cfg.DefaultIVRank}, nil
	case "redis":
		return NewRedisIVRankProvider(cfg.RedisURL, cfg.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("%w: unknown iv rank provider %q", errors.ErrConfigInvalid, cfg.Provider)
	}
}
