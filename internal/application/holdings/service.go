package holdings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"stockfolio-backend/internal/application/marketdata"
	"stockfolio-backend/internal/application/strategies"
	"stockfolio-backend/internal/domain"
	"stockfolio-backend/internal/pkg/apperr"
	"stockfolio-backend/internal/pkg/constants"
	"stockfolio-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Service is the holding ledger: one row per ticker, merged on repeat buys.
type Service struct {
	DB     *gorm.DB
	Market marketdata.Gateway

	// FanoutLimit bounds concurrent quote calls in LivePrices.
	FanoutLimit int
	// Timeout applies to each market data call.
	Timeout time.Duration
}

// UpsertInput is a purchase to record.
type UpsertInput struct {
	Ticker           string
	Quantity         int64
	AcquisitionPrice float64
	Category         string
	StrategyIDs      []uint
}

// ReplaceInput overwrites every field of a holding. A nil StrategyIDs leaves
// associations untouched; a non-nil empty slice clears them.
type ReplaceInput struct {
	Ticker           string
	Name             *string
	Quantity         int64
	AcquisitionPrice float64
	Category         string
	StrategyIDs      *[]uint
}

// Upsert records a purchase. A new ticker is created with a resolved name
// and inferred category; an existing ticker is merged into a weighted
// average cost. The bool reports whether a row was created.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (*domain.Holding, bool, error) {
	ticker := strings.TrimSpace(in.Ticker)
	if !validation.IsValidTicker(ticker) {
		return nil, false, apperr.Validation("Invalid ticker '%s'", in.Ticker)
	}
	db := s.DB.WithContext(ctx)
	if err := strategies.ValidateSelection(db, in.StrategyIDs); err != nil {
		return nil, false, err
	}

	existing, err := findByTicker(db, ticker)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		h, err := s.create(ctx, ticker, in)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return h, err == nil, err
		}
		// lost the race to a concurrent create; merge into it instead
		log.Debug().Str("ticker", ticker).Msg("holding created concurrently, merging")
	}

	var merged *domain.Holding
	err = db.Transaction(func(tx *gorm.DB) error {
		h, err := findByTicker(tx, ticker)
		if err != nil {
			return err
		}
		if h == nil {
			return apperr.NotFound("Holding for ticker '%s' not found", ticker)
		}
		qty, price, err := Merge(h.Quantity, h.AcquisitionPrice, in.Quantity, in.AcquisitionPrice)
		if err != nil {
			return err
		}
		if err := tx.Model(&domain.Holding{}).Where("id = ?", h.ID).Updates(map[string]interface{}{
			"quantity":          qty,
			"acquisition_price": price,
		}).Error; err != nil {
			return err
		}
		merged, err = find(tx, h.ID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return merged, false, nil
}

func (s *Service) create(ctx context.Context, ticker string, in UpsertInput) (*domain.Holding, error) {
	name := s.resolveName(ctx, ticker)
	var created *domain.Holding
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, missing, err := strategies.Resolve(tx, in.StrategyIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			log.Warn().Str("ticker", ticker).Interface("strategy_ids", missing).Msg("skipping unknown strategies")
		}
		h := domain.Holding{
			Ticker:           ticker,
			Name:             &name,
			Quantity:         in.Quantity,
			AcquisitionPrice: in.AcquisitionPrice,
			Category:         constants.ResolveCategory(ticker, strings.TrimSpace(in.Category)),
			Strategies:       found,
		}
		if err := tx.Omit("Strategies.*").Create(&h).Error; err != nil {
			return err
		}
		created, err = find(tx, h.ID)
		return err
	})
	return created, err
}

// resolveName never fails: provider errors fall back to the unknown-name
// placeholder so a purchase is always recorded.
func (s *Service) resolveName(ctx context.Context, ticker string) string {
	if s.Market == nil {
		return constants.UnknownName
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	name, err := marketdata.ResolveName(ctx, s.Market, ticker)
	if err != nil {
		if !errors.Is(err, marketdata.ErrNoData) {
			log.Warn().Err(err).Str("ticker", ticker).Msg("name lookup failed")
		}
		return constants.UnknownName
	}
	return name
}

// Merge combines two lots into a single quantity and weighted average price.
// A combined quantity of zero is rejected.
func Merge(q1 int64, p1 float64, q2 int64, p2 float64) (int64, float64, error) {
	qty := q1 + q2
	if qty == 0 {
		return 0, 0, apperr.Validation("Resulting quantity would be zero; delete the holding instead")
	}
	cost := decimal.NewFromInt(q1).Mul(decimal.NewFromFloat(p1)).
		Add(decimal.NewFromInt(q2).Mul(decimal.NewFromFloat(p2)))
	return qty, cost.Div(decimal.NewFromInt(qty)).InexactFloat64(), nil
}

// Replace overwrites holding id. It returns the strategy ids that were
// requested but do not exist.
func (s *Service) Replace(ctx context.Context, id uint, in ReplaceInput) (*domain.Holding, []uint, error) {
	ticker := strings.TrimSpace(in.Ticker)
	if !validation.IsValidTicker(ticker) {
		return nil, nil, apperr.Validation("Invalid ticker '%s'", in.Ticker)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = constants.DefaultCategory
	}

	var (
		updated *domain.Holding
		skipped []uint
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		h, err := find(tx, id)
		if err != nil {
			return err
		}
		other, err := findByTicker(tx, ticker)
		if err != nil {
			return err
		}
		if other != nil && other.ID != id {
			return apperr.Conflict("Ticker '%s' is already held (ID: %d)", ticker, other.ID)
		}
		if in.StrategyIDs != nil {
			if err := strategies.ValidateSelection(tx, *in.StrategyIDs); err != nil {
				return err
			}
		}

		if err := tx.Model(&domain.Holding{}).Where("id = ?", id).Updates(map[string]interface{}{
			"ticker":            ticker,
			"name":              in.Name,
			"quantity":          in.Quantity,
			"acquisition_price": in.AcquisitionPrice,
			"category":          category,
		}).Error; err != nil {
			return err
		}

		if in.StrategyIDs != nil {
			found, missing, err := strategies.Resolve(tx, *in.StrategyIDs)
			if err != nil {
				return err
			}
			skipped = missing
			assoc := tx.Model(h).Association("Strategies")
			if len(found) == 0 {
				err = assoc.Clear()
			} else {
				err = assoc.Replace(found)
			}
			if err != nil {
				return err
			}
		}

		updated, err = find(tx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, apperr.Conflict("Ticker '%s' is already held", ticker)
		}
		return nil, nil, err
	}
	return updated, skipped, nil
}

// Delete removes the holding and its strategy associations.
func (s *Service) Delete(ctx context.Context, id uint) (*domain.Holding, error) {
	var removed *domain.Holding
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		h, err := find(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM "+strategies.JoinTable+" WHERE holding_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Holding{}, id).Error; err != nil {
			return err
		}
		removed = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*domain.Holding, error) {
	return find(s.DB.WithContext(ctx), id)
}

// List returns holdings with their strategies, ordered by id.
func (s *Service) List(ctx context.Context, skip, limit int) ([]domain.Holding, error) {
	skip, limit = validation.Page(skip, limit)
	var out []domain.Holding
	if err := withStrategies(s.DB.WithContext(ctx)).
		Order("id ASC").Offset(skip).Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LivePrices quotes every holding concurrently and returns the last price
// per holding id. Holdings whose quote fails or is empty are omitted.
func (s *Service) LivePrices(ctx context.Context) (map[uint]float64, error) {
	var held []domain.Holding
	if err := s.DB.WithContext(ctx).Select("id", "ticker").Order("id ASC").Find(&held).Error; err != nil {
		return nil, err
	}
	prices := make(map[uint]float64, len(held))
	if s.Market == nil || len(held) == 0 {
		return prices, nil
	}

	limit := s.FanoutLimit
	if limit <= 0 {
		limit = 1
	}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(limit)
	for _, h := range held {
		h := h
		g.Go(func() error {
			callCtx := ctx
			if s.Timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
				defer cancel()
			}
			q, err := s.Market.Quote(callCtx, h.Ticker)
			if err != nil {
				if !errors.Is(err, marketdata.ErrNoData) {
					log.Warn().Err(err).Str("ticker", h.Ticker).Msg("live price unavailable")
				}
				return nil
			}
			price, ok := q.LastPrice()
			if !ok {
				return nil
			}
			mu.Lock()
			prices[h.ID] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prices, nil
}

func withStrategies(db *gorm.DB) *gorm.DB {
	return db.Preload("Strategies", func(db *gorm.DB) *gorm.DB {
		return db.Order("strategies.id ASC")
	})
}

func find(db *gorm.DB, id uint) (*domain.Holding, error) {
	var h domain.Holding
	if err := withStrategies(db).Where("id = ?", id).First(&h).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Holding not found")
		}
		return nil, err
	}
	return &h, nil
}

// findByTicker returns nil when no holding has ticker.
func findByTicker(db *gorm.DB, ticker string) (*domain.Holding, error) {
	var h domain.Holding
	err := db.Where("ticker = ?", ticker).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}
