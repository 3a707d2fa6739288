package marketdata

import (
	"context"
	"sync"
	"time"

	"gorm.io/datatypes"
)

type fakeGateway struct {
	mu       sync.Mutex
	quotes   map[string]*Quote
	profiles map[string]datatypes.JSONMap
	matches  []SymbolMatch
	news     []NewsItem
	err      error
	calls    map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		quotes:   map[string]*Quote{},
		profiles: map[string]datatypes.JSONMap{},
		calls:    map[string]int{},
	}
}

func (f *fakeGateway) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) hit(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeGateway) Quote(ctx context.Context, ticker string) (*Quote, error) {
	f.hit("quote")
	if f.err != nil {
		return nil, f.err
	}
	q, ok := f.quotes[ticker]
	if !ok {
		return nil, ErrNoData
	}
	return q, nil
}

func (f *fakeGateway) CompanyProfile(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	f.hit("profile")
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[ticker]
	if !ok {
		return nil, ErrNoData
	}
	return p, nil
}

func (f *fakeGateway) FinancialMetrics(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	f.hit("metrics")
	if f.err != nil {
		return nil, f.err
	}
	return nil, ErrNoData
}

func (f *fakeGateway) CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]NewsItem, error) {
	f.hit("news")
	if f.err != nil {
		return nil, f.err
	}
	if f.news == nil {
		return []NewsItem{}, nil
	}
	return f.news, nil
}

func (f *fakeGateway) SymbolSearch(ctx context.Context, query string) ([]SymbolMatch, error) {
	f.hit("search")
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}
