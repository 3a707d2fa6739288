package validation

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the YYYY-MM-DD format used by the news endpoints.
const DateLayout = "2006-01-02"

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Tickers: letters, digits, dot, dash, colon and caret (e.g. BRK.B, 7203.T, ^N225).
var tickerRe = regexp.MustCompile(`^[A-Za-z0-9.\-:^]{1,20}$`)

func IsValidTicker(ticker string) bool {
	return tickerRe.MatchString(ticker)
}

// IsDigits reports whether s is non-empty and consists of ASCII digits only.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsValidPercentage enforces the (0, 100] range for allocation targets.
func IsValidPercentage(p float64) bool {
	return p > 0 && p <= 100
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Page clamps offset/limit query values.
func Page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}
