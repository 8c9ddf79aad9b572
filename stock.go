package stockbook

import (
	"slices"
)

// Position is the tracked state of one symbol: how much is held and the
// weighted-average unit cost of what is held.
type Position struct {
	Quantity Quantity
	Average  Money
}

// Stock tracks held quantity and weighted-average unit cost per symbol for a
// whole import run. It is shared mutable state: the surrounding pipeline must
// feed transactions strictly in timestamp order, because the average is a
// running fold over history.
//
// None of the operations fail: an unknown symbol behaves as zero state, and
// disposing more than is held produces a negative quantity rather than an
// error.
type Stock struct {
	currency  string
	positions map[string]Position
}

// NewStock returns an empty tracker whose averages are denominated in the
// given base currency.
func NewStock(currency string) *Stock {
	return &Stock{currency: currency, positions: make(map[string]Position)}
}

// Currency returns the base currency the averages are denominated in.
func (s *Stock) Currency() string { return s.currency }

// Add changes the held amount of 'symbol' by 'quantity'. The 'cost' argument
// is the total monetary value this change contributes, not a unit price.
//
// When quantity is positive the average is recomputed as
// (held*average + cost) / (held+quantity). When the resulting held amount is
// not positive the average resets to zero instead, which guards the division
// against float drift around zero. When quantity is zero or negative the
// held amount decreases and the average is left untouched: under
// weighted-average costing a disposal does not alter the remaining basis.
func (s *Stock) Add(quantity Quantity, symbol string, cost Money) Position {
	pos := s.positions[symbol]
	held := pos.Quantity.Add(quantity)

	if quantity.IsPositive() {
		if held.IsPositive() {
			total := pos.Average.Mul(pos.Quantity).Add(cost)
			pos.Average = total.Div(held)
		} else {
			pos.Average = M(0, s.currency)
		}
	}
	pos.Quantity = held
	if pos.Average.Currency() == "" {
		pos.Average = M(pos.Average.Decimal(), s.currency)
	}

	s.positions[symbol] = pos
	return pos
}

// Remove decreases the held amount of 'symbol' by 'quantity' without touching
// the average.
func (s *Stock) Remove(quantity Quantity, symbol string) Position {
	return s.Add(quantity.Neg(), symbol, M(0, s.currency))
}

// Quantity returns the held amount of 'symbol', zero when unknown.
func (s *Stock) Quantity(symbol string) Quantity {
	return s.positions[symbol].Quantity
}

// Average returns the weighted-average unit cost of 'symbol', zero when
// unknown.
func (s *Stock) Average(symbol string) Money {
	pos, ok := s.positions[symbol]
	if !ok {
		return M(0, s.currency)
	}
	return pos.Average
}

// SetAverages initializes average costs from externally supplied state, for
// example recovered from ledger history.
func (s *Stock) SetAverages(averages map[string]Money) {
	for symbol, avg := range averages {
		pos := s.positions[symbol]
		pos.Average = avg
		s.positions[symbol] = pos
	}
}

// SetQuantities initializes held quantities from externally supplied state.
func (s *Stock) SetQuantities(quantities map[string]Quantity) {
	for symbol, qty := range quantities {
		pos := s.positions[symbol]
		pos.Quantity = qty
		s.positions[symbol] = pos
	}
}

// Symbols returns the sorted list of symbols with a non-zero held quantity.
func (s *Stock) Symbols() []string {
	var symbols []string
	for symbol, pos := range s.positions {
		if !pos.Quantity.IsZero() {
			symbols = append(symbols, symbol)
		}
	}
	slices.Sort(symbols)
	return symbols
}
