package router

import (
	"context"

	allocsvc "stockfolio-backend/internal/application/allocations"
	holdsvc "stockfolio-backend/internal/application/holdings"
	mdsvc "stockfolio-backend/internal/application/marketdata"
	stratsvc "stockfolio-backend/internal/application/strategies"
	"stockfolio-backend/internal/config"
	"stockfolio-backend/internal/infrastructure/cache"
	"stockfolio-backend/internal/infrastructure/database"
	allochandler "stockfolio-backend/internal/interfaces/handlers/allocations"
	healthhandler "stockfolio-backend/internal/interfaces/handlers/health"
	holdhandler "stockfolio-backend/internal/interfaces/handlers/holdings"
	mdhandler "stockfolio-backend/internal/interfaces/handlers/marketdata"
	strathandler "stockfolio-backend/internal/interfaces/handlers/strategies"
	"stockfolio-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deps are the opened backing stores and market data gateway. CreateApp
// opens them from config; tests build them directly.
type Deps struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Gateway mdsvc.Gateway
}

// CreateApp opens the database (running migrations), the optional Redis
// client and the market data gateway, then builds the Fiber app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}

	rdb, err := cache.Open(context.Background(), cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}

	var gw mdsvc.Gateway = mdsvc.NewFinnhubClient(cfg.FinnhubBaseURL, cfg.FinnhubAPIKey, cfg.MarketDataTimeout)
	if rdb != nil {
		gw = &mdsvc.CachedGateway{
			Next:        gw,
			Rdb:         rdb,
			QuoteTTL:    cfg.QuoteCacheTTL,
			DocumentTTL: cfg.ProfileCacheTTL,
		}
	} else {
		log.Info().Msg("REDIS_URL not set; market data caching and request stats disabled")
	}
	if cfg.FinnhubAPIKey == "" {
		log.Warn().Msg("FINNHUB_API_KEY not set; market data lookups will fail and new holdings get a placeholder name")
	}

	app := New(cfg, Deps{DB: db, Rdb: rdb, Gateway: gw})
	return app, db, rdb, nil
}

// New builds the Fiber app and registers every route on deps.
func New(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// categories and index tickers such as ^N225 arrive percent-encoded
		UnescapePath: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.Tracing())
	app.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins}))
	app.Use(middleware.HealthMarker(deps.Rdb))
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            deps.Rdb,
		DB:             &database.Pinger{DB: deps.DB},
		MarketURL:      cfg.FinnhubBaseURL,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Root)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	md := &mdsvc.Service{Gateway: deps.Gateway, Timeout: cfg.MarketDataTimeout}
	mh := &mdhandler.Handlers{Service: md}

	hs := &holdsvc.Service{
		DB:          deps.DB,
		Market:      deps.Gateway,
		FanoutLimit: cfg.PriceFanoutLimit,
		Timeout:     cfg.MarketDataTimeout,
	}
	holdh := &holdhandler.Handlers{Service: hs}

	api := app.Group("/api/v1")

	// Stocks: static segments before /:id
	sg := api.Group("/stocks")
	sg.Post("/", holdh.Upsert)
	sg.Get("/", holdh.List)
	sg.Get("/live-prices", holdh.LivePrices)
	sg.Get("/live-prices/:ticker", mh.Quote)
	sg.Get("/name/:ticker", mh.Name)
	sg.Get("/:ticker/profile", mh.Profile)
	sg.Get("/:ticker/metrics", mh.Metrics)
	sg.Get("/:ticker/news", mh.News)
	sg.Get("/:id", holdh.Get)
	sg.Put("/:id", holdh.Replace)
	sg.Delete("/:id", holdh.Delete)

	api.Get("/market/search/:query", mh.Search)

	sth := &strathandler.Handlers{Service: &stratsvc.Service{DB: deps.DB}}
	stg := api.Group("/strategies")
	stg.Post("/", sth.Create)
	stg.Get("/", sth.List)
	stg.Get("/:id", sth.Get)
	stg.Put("/:id", sth.Update)
	stg.Delete("/:id", sth.Delete)

	ah := &allochandler.Handlers{Service: &allocsvc.Service{DB: deps.DB}}
	ag := api.Group("/allocations")
	ag.Post("/", ah.Upsert)
	ag.Get("/", ah.List)
	ag.Get("/summary", ah.Summary)
	ag.Delete("/:category", ah.Delete)

	return app
}
