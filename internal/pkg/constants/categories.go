package constants

import "stockfolio-backend/internal/pkg/validation"

const (
	// DefaultCategory is stored when a holding is created without a category.
	DefaultCategory = "uncategorized"
	// DomesticCategory is inferred for all-digit tickers (Tokyo-style codes such as 7203).
	DomesticCategory = "jp_equity"
	// ForeignCategory is inferred for every other ticker.
	ForeignCategory = "us_equity"

	// UnknownName is stored when the market data provider cannot name a ticker.
	UnknownName = "unknown name"

	CommonStockType = "Common Stock"
)

// InferCategory applies the two-bucket ticker heuristic.
func InferCategory(ticker string) string {
	if validation.IsDigits(ticker) {
		return DomesticCategory
	}
	return ForeignCategory
}

// ResolveCategory keeps an explicit category and infers one when it is blank
// or still the default.
func ResolveCategory(ticker, category string) string {
	if category == "" || category == DefaultCategory {
		return InferCategory(ticker)
	}
	return category
}
