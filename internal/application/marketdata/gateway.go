package marketdata

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// ErrNoData is returned when the provider answered but had nothing for the
// request. Transport, auth and decode failures are returned as other errors.
var ErrNoData = errors.New("marketdata: no data")

// Gateway is the market data provider contract.
type Gateway interface {
	Quote(ctx context.Context, ticker string) (*Quote, error)
	CompanyProfile(ctx context.Context, ticker string) (datatypes.JSONMap, error)
	FinancialMetrics(ctx context.Context, ticker string) (datatypes.JSONMap, error)
	// CompanyNews returns an empty, non-nil slice when the range has no articles.
	CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]NewsItem, error)
	SymbolSearch(ctx context.Context, query string) ([]SymbolMatch, error)
}

// Quote is a point-in-time price snapshot.
type Quote struct {
	Current       float64 `json:"current"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previous_close"`
	Timestamp     int64   `json:"timestamp"`
}

// LastPrice returns the current price, or the previous close while the
// market is closed and the provider reports a zero current price.
func (q *Quote) LastPrice() (float64, bool) {
	if q == nil {
		return 0, false
	}
	if q.Current > 0 {
		return q.Current, true
	}
	if q.PreviousClose > 0 {
		return q.PreviousClose, true
	}
	return 0, false
}

// SymbolMatch is one symbol search result.
type SymbolMatch struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"displaySymbol"`
	Description   string `json:"description"`
	Type          string `json:"type"`
}

// NewsItem is one company news article.
type NewsItem struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}
