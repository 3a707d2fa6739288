package database

import (
	"strings"
	"time"

	"stockfolio-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteScheme = "sqlite://"

// Open opens a GORM DB from DSN. Postgres URLs/DSNs go through the pgx driver;
// "sqlite://path", "file:" and ":memory:" DSNs use the pure-Go SQLite driver.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers (PgBouncer etc.).
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(),
	}
	if IsSQLite(dsn) {
		db, err := gorm.Open(sqlite.Open(sqlitePath(dsn)), cfg)
		if err != nil {
			return nil, err
		}
		// SQLite serializes writers; a single connection also keeps ":memory:" databases alive.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg)
}

// zerologWriter sends GORM's warnings, errors and slow queries to the global zerolog logger.
type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...interface{}) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

// newLogger ignores ErrRecordNotFound: lookups that miss are normal control flow here.
func newLogger() logger.Interface {
	return logger.New(zerologWriter{}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// IsSQLite reports whether dsn targets the embedded SQLite store.
func IsSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, sqliteScheme) || strings.HasPrefix(dsn, "file:") || dsn == ":memory:"
}

func sqlitePath(dsn string) string {
	return strings.TrimPrefix(dsn, sqliteScheme)
}

// AutoMigrate creates or updates the holdings, strategies and allocations tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// Pinger adapts a *gorm.DB to the health check's Ping contract.
type Pinger struct {
	DB *gorm.DB
}

func (p *Pinger) Ping() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
