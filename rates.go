package stockbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSource answers "what was one unit of 'symbol' worth in 'currency' on
// that day". Trade profit recognition only happens when a same-day rate is
// resolvable; any asynchronous fetching happens in the collaborator before
// data enters the core.
type RateSource interface {
	Rate(symbol, currency string, day time.Time) (decimal.Decimal, bool)
}

// RateTable is a map-backed RateSource: symbol → day (2006-01-02) → rate.
// A table is denominated in one fixed currency, the base currency of the
// books it is built for; the currency argument of Rate is ignored.
type RateTable map[string]map[string]decimal.Decimal

func (t RateTable) Rate(symbol, currency string, day time.Time) (decimal.Decimal, bool) {
	days, ok := t[symbol]
	if !ok {
		return decimal.Zero, false
	}
	rate, ok := days[day.Format("2006-01-02")]
	return rate, ok
}
