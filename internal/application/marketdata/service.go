package marketdata

import (
	"context"
	"errors"
	"strings"
	"time"

	"stockfolio-backend/internal/pkg/apperr"
	"stockfolio-backend/internal/pkg/constants"
	"stockfolio-backend/internal/pkg/validation"

	"gorm.io/datatypes"
)

// Service exposes single-ticker lookups at the API boundary. An absent
// result becomes NotFound; provider failures become Upstream errors.
type Service struct {
	Gateway Gateway
	Timeout time.Duration // per call; zero means the gateway transport decides
}

// NameLookup is the result of resolving a ticker's display name.
type NameLookup struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (s *Service) Quote(ctx context.Context, ticker string) (*Quote, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	q, err := s.Gateway.Quote(ctx, ticker)
	if err != nil {
		return nil, classify(err, "Quote data not found for ticker %s", ticker)
	}
	return q, nil
}

func (s *Service) CompanyProfile(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	doc, err := s.Gateway.CompanyProfile(ctx, ticker)
	if err != nil {
		return nil, classify(err, "Company profile not found for ticker %s", ticker)
	}
	return doc, nil
}

func (s *Service) FinancialMetrics(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	doc, err := s.Gateway.FinancialMetrics(ctx, ticker)
	if err != nil {
		return nil, classify(err, "Financial metrics not found for ticker %s", ticker)
	}
	return doc, nil
}

// CompanyNews validates the YYYY-MM-DD range before calling the provider.
func (s *Service) CompanyNews(ctx context.Context, ticker, from, to string) ([]NewsItem, error) {
	fromDate, ok := validation.ParseDate(from)
	if !ok {
		return nil, apperr.Validation("from must be a date in YYYY-MM-DD format")
	}
	toDate, ok := validation.ParseDate(to)
	if !ok {
		return nil, apperr.Validation("to must be a date in YYYY-MM-DD format")
	}
	if toDate.Before(fromDate) {
		return nil, apperr.Validation("from must not be after to")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	items, err := s.Gateway.CompanyNews(ctx, ticker, fromDate, toDate)
	if err != nil {
		return nil, classify(err, "Company news not found for ticker %s or date range", ticker)
	}
	return items, nil
}

func (s *Service) SymbolSearch(ctx context.Context, query string) ([]SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("query is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	matches, err := s.Gateway.SymbolSearch(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return []SymbolMatch{}, nil
		}
		return nil, apperr.Upstream(err, "symbol search failed")
	}
	return matches, nil
}

// LookupName resolves the display name of ticker together with the category
// the ledger would infer for it.
func (s *Service) LookupName(ctx context.Context, ticker string) (*NameLookup, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	name, err := ResolveName(ctx, s.Gateway, ticker)
	if err != nil {
		return nil, classify(err, "Stock name not found for ticker %s", ticker)
	}
	return &NameLookup{
		Ticker:   ticker,
		Name:     name,
		Category: constants.InferCategory(ticker),
	}, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func classify(err error, notFound string, args ...interface{}) error {
	if errors.Is(err, ErrNoData) {
		return apperr.NotFound(notFound, args...)
	}
	return apperr.Upstream(err, "market data provider unavailable")
}
