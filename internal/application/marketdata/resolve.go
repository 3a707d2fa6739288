package marketdata

import (
	"context"
	"strings"

	"stockfolio-backend/internal/pkg/constants"
	"stockfolio-backend/internal/pkg/validation"
)

// PickName chooses the display name for query from search results:
// exact symbol, then (for all-digit codes) a common stock listed under that
// display symbol, then any exact display symbol, then the first common stock,
// then the first result. Returns ErrNoData when there are no results.
func PickName(query string, matches []SymbolMatch) (string, error) {
	if len(matches) == 0 {
		return "", ErrNoData
	}
	pick := func(ok func(m SymbolMatch) bool) (string, bool) {
		for _, m := range matches {
			if ok(m) {
				return describe(m), true
			}
		}
		return "", false
	}

	if name, ok := pick(func(m SymbolMatch) bool { return m.Symbol == query }); ok {
		return name, nil
	}
	if validation.IsDigits(query) {
		if name, ok := pick(func(m SymbolMatch) bool {
			return m.DisplaySymbol == query && m.Type == constants.CommonStockType
		}); ok {
			return name, nil
		}
	}
	if name, ok := pick(func(m SymbolMatch) bool { return m.DisplaySymbol == query }); ok {
		return name, nil
	}
	if name, ok := pick(func(m SymbolMatch) bool { return m.Type == constants.CommonStockType }); ok {
		return name, nil
	}
	return describe(matches[0]), nil
}

func describe(m SymbolMatch) string {
	if d := strings.TrimSpace(m.Description); d != "" {
		return d
	}
	return constants.UnknownName
}

// ResolveName searches the gateway for ticker and applies PickName.
func ResolveName(ctx context.Context, gw Gateway, ticker string) (string, error) {
	matches, err := gw.SymbolSearch(ctx, ticker)
	if err != nil {
		return "", err
	}
	return PickName(ticker, matches)
}
