package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const cacheKeyPrefix = "marketdata:"

// CachedGateway caches successful lookups from Next in Redis. Absent results
// and errors are never cached, and Redis failures fall through to Next.
type CachedGateway struct {
	Next        Gateway
	Rdb         *redis.Client
	QuoteTTL    time.Duration
	DocumentTTL time.Duration
}

func (g *CachedGateway) Quote(ctx context.Context, ticker string) (*Quote, error) {
	return cached(ctx, g, "quote:"+ticker, g.QuoteTTL, func() (*Quote, error) {
		return g.Next.Quote(ctx, ticker)
	})
}

func (g *CachedGateway) CompanyProfile(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	return cached(ctx, g, "profile:"+ticker, g.DocumentTTL, func() (datatypes.JSONMap, error) {
		return g.Next.CompanyProfile(ctx, ticker)
	})
}

func (g *CachedGateway) FinancialMetrics(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	return cached(ctx, g, "metrics:"+ticker, g.DocumentTTL, func() (datatypes.JSONMap, error) {
		return g.Next.FinancialMetrics(ctx, ticker)
	})
}

// CompanyNews is not cached; ranges are rarely repeated.
func (g *CachedGateway) CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]NewsItem, error) {
	return g.Next.CompanyNews(ctx, ticker, from, to)
}

func (g *CachedGateway) SymbolSearch(ctx context.Context, query string) ([]SymbolMatch, error) {
	return cached(ctx, g, "search:"+strings.ToUpper(query), g.DocumentTTL, func() ([]SymbolMatch, error) {
		return g.Next.SymbolSearch(ctx, query)
	})
}

// Invalidate drops every cached entry for ticker.
func (g *CachedGateway) Invalidate(ctx context.Context, ticker string) error {
	if g.Rdb == nil {
		return nil
	}
	keys := []string{
		cacheKeyPrefix + "quote:" + ticker,
		cacheKeyPrefix + "profile:" + ticker,
		cacheKeyPrefix + "metrics:" + ticker,
	}
	return g.Rdb.Del(ctx, keys...).Err()
}

func cached[T any](ctx context.Context, g *CachedGateway, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if g.Rdb == nil || ttl <= 0 {
		return load()
	}
	key = cacheKeyPrefix + key

	b, err := g.Rdb.Get(ctx, key).Bytes()
	if err == nil {
		var v T
		if jsonErr := json.Unmarshal(b, &v); jsonErr == nil {
			return v, nil
		}
		log.Warn().Str("key", key).Msg("marketdata cache: dropping undecodable entry")
		_ = g.Rdb.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("marketdata cache: read failed")
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if b, err := json.Marshal(v); err == nil {
		if err := g.Rdb.Set(ctx, key, b, ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("marketdata cache: write failed")
		}
	}
	return v, nil
}
