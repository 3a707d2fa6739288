package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                string
	Port               string
	DatabaseURL        string // postgres DSN, or sqlite://path / file: DSN for the embedded store
	RedisURL           string // optional; enables quote caching and request stats
	FinnhubAPIKey      string
	FinnhubBaseURL     string
	MarketDataTimeout  time.Duration // per gateway call
	PriceFanoutLimit   int           // max concurrent quote lookups for live prices
	QuoteCacheTTL      time.Duration
	ProfileCacheTTL    time.Duration
	CORSAllowedOrigins []string
	HealthAdminKey     string
	LogLevel           string
	LogFormat          string // json | console
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", "sqlite://stockfolio.db")
	v.SetDefault("FINNHUB_BASE_URL", "https://finnhub.io/api/v1")
	v.SetDefault("MARKET_DATA_TIMEOUT", "5s")
	v.SetDefault("PRICE_FANOUT_LIMIT", 8)
	v.SetDefault("QUOTE_CACHE_TTL", "30s")
	v.SetDefault("PROFILE_CACHE_TTL", "24h")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost,http://localhost:3000,http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	fanout := v.GetInt("PRICE_FANOUT_LIMIT")
	if fanout <= 0 {
		fanout = 1
	}

	return &Config{
		Env:                v.GetString("APP_ENV"),
		Port:               v.GetString("PORT"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		RedisURL:           v.GetString("REDIS_URL"),
		FinnhubAPIKey:      v.GetString("FINNHUB_API_KEY"),
		FinnhubBaseURL:     strings.TrimRight(v.GetString("FINNHUB_BASE_URL"), "/"),
		MarketDataTimeout:  v.GetDuration("MARKET_DATA_TIMEOUT"),
		PriceFanoutLimit:   fanout,
		QuoteCacheTTL:      v.GetDuration("QUOTE_CACHE_TTL"),
		ProfileCacheTTL:    v.GetDuration("PROFILE_CACHE_TTL"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		HealthAdminKey:     v.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
