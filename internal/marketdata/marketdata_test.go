package marketdata

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-risk/internal/config"
	"options-risk/internal/errors"
)

type fakeRedis struct {
	values map[string]string
	err    error
	keys   []string
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestStaticIVRank(t *testing.T) {
	p := StaticIVRank{Value: 50}
	rank, err := p.IVRank(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, 50.0, rank)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.IVRank(ctx, "SPY")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisIVRank(t *testing.T) {
	fake := &fakeRedis{values: map[string]string{
		"ivrank:TSLA": "42.5",
		"ivrank:BAD":  "high",
		"ivrank:BIG":  "140",
	}}
	p := &RedisIVRankProvider{client: fake, prefix: "ivrank:"}
	ctx := context.Background()

	rank, err := p.IVRank(ctx, "tsla")
	require.NoError(t, err)
	assert.Equal(t, 42.5, rank)
	assert.Equal(t, "ivrank:TSLA", fake.keys[0])

	_, err = p.IVRank(ctx, "AAPL")
	assert.ErrorIs(t, err, errors.ErrDataNotFound)

	_, err = p.IVRank(ctx, "BAD")
	assert.Error(t, err)

	_, err = p.IVRank(ctx, "BIG")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestRedisIVRankPropagatesConnectionErrors(t *testing.T) {
	boom := fmt.Errorf("dial tcp: connection refused")
	p := &RedisIVRankProvider{client: &fakeRedis{err: boom}, prefix: "ivrank:"}

	_, err := p.IVRank(context.Background(), "SPY")
	assert.ErrorIs(t, err, boom)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(config.MarketDataConfig{Provider: "static", DefaultIVRank: 35})
	require.NoError(t, err)
	assert.Equal(t, StaticIVRank{Value: 35}, p)

	p, err = NewProvider(config.MarketDataConfig{Provider: "redis", RedisURL: "redis://localhost:6379/0", RedisKeyPrefix: "ivrank:"})
	require.NoError(t, err)
	rp, ok := p.(*RedisIVRankProvider)
	require.True(t, ok)
	assert.NoError(t, rp.Close())

	_, err = NewProvider(config.MarketDataConfig{Provider: "redis", RedisURL: "://nope"})
	assert.Error(t, err)

	_, err = NewProvider(config.MarketDataConfig{Provider: "bloomberg"})
	assert.ErrorIs(t, err, errors.ErrConfigInvalid)
}
