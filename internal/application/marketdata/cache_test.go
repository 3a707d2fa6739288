package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func setupCachedGateway(t *testing.T) (*CachedGateway, *fakeGateway, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	fake := newFakeGateway()
	return &CachedGateway{Next: fake, Rdb: rdb, QuoteTTL: 30 * time.Second, DocumentTTL: time.Hour}, fake, mr
}

func TestCachedGateway_QuoteHitsCache(t *testing.T) {
	g, fake, mr := setupCachedGateway(t)
	fake.quotes["AAPL"] = &Quote{Current: 190, PreviousClose: 188}
	ctx := context.Background()

	q1, err := g.Quote(ctx, "AAPL")
	require.NoError(t, err)
	q2, err := g.Quote(ctx, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, q1, q2)
	assert.Equal(t, 1, fake.count("quote"))
	assert.True(t, mr.Exists("marketdata:quote:AAPL"))

	mr.FastForward(31 * time.Second)
	_, err = g.Quote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.count("quote"))
}

func TestCachedGateway_AbsentAndErrorsNotCached(t *testing.T) {
	g, fake, mr := setupCachedGateway(t)
	ctx := context.Background()

	_, err := g.Quote(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrNoData)
	assert.False(t, mr.Exists("marketdata:quote:NOPE"))

	fake.err = errors.New("boom")
	_, err = g.CompanyProfile(ctx, "AAPL")
	assert.EqualError(t, err, "boom")
	assert.False(t, mr.Exists("marketdata:profile:AAPL"))
}

func TestCachedGateway_RedisDownFallsThrough(t *testing.T) {
	g, fake, mr := setupCachedGateway(t)
	fake.profiles["AAPL"] = datatypes.JSONMap{"name": "Apple Inc"}
	mr.Close()

	p, err := g.CompanyProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", p["name"])
}

func TestCachedGateway_Invalidate(t *testing.T) {
	g, fake, mr := setupCachedGateway(t)
	fake.quotes["AAPL"] = &Quote{Current: 190}
	ctx := context.Background()

	_, err := g.Quote(ctx, "AAPL")
	require.NoError(t, err)
	require.NoError(t, g.Invalidate(ctx, "AAPL"))
	assert.False(t, mr.Exists("marketdata:quote:AAPL"))
}
