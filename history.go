package stockbook

import (
	"iter"

	"github.com/oksanen/stockbook/texter"
	"github.com/shopspring/decimal"
)

// StockState is a recovered tracker position for one symbol.
type StockState struct {
	Quantity decimal.Decimal
	Average  decimal.Decimal
	// HasAverage reports whether an average was actually found. Trade
	// sentences carry the source's remaining quantity but not its average,
	// so the two can resolve from different entries.
	HasAverage bool
}

// RecoverStock rebuilds tracker state from stored sentences. 'history'
// yields description texts newest first; each is decoded against the given
// sets in order, first decode wins. For every requested symbol the most
// recent quantity and the most recent average are taken, independently,
// and the scan stops as soon as all of them are resolved. Symbols never
// mentioned in history are absent from the result.
func RecoverStock(history iter.Seq[string], symbols []string, sets ...*texter.Set) map[string]StockState {
	wantQty := make(map[string]bool, len(symbols))
	wantAvg := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		wantQty[sym] = true
		wantAvg[sym] = true
	}
	out := make(map[string]StockState)

	take := func(values texter.Values, symbolField, qtyField, avgField string) {
		symbol, ok := values[symbolField].(string)
		if !ok {
			return
		}
		// sentences mention symbols outside the requested set all the time;
		// those must not appear in the result.
		if !wantQty[symbol] && !wantAvg[symbol] {
			return
		}
		state := out[symbol]
		took := false
		if wantQty[symbol] {
			if qty, ok := values[qtyField].(decimal.Decimal); ok {
				state.Quantity = qty
				delete(wantQty, symbol)
				took = true
			}
		}
		if wantAvg[symbol] {
			if avg, ok := values[avgField].(decimal.Decimal); ok {
				state.Average = avg
				state.HasAverage = true
				delete(wantAvg, symbol)
				took = true
			}
		}
		if took {
			out[symbol] = state
		}
	}

	for text := range history {
		var m texter.Match
		found := false
		for _, set := range sets {
			if m, found = set.Parse(text); found {
				break
			}
		}
		if !found {
			continue
		}
		take(m.Values, "target", "stock", "avg")
		take(m.Values, "source", "stock2", "avg2")
		if len(wantQty) == 0 && len(wantAvg) == 0 {
			break
		}
	}

	// Quantity without average is kept; average without quantity is not a
	// position at all.
	for symbol := range out {
		if wantQty[symbol] {
			delete(out, symbol)
		}
	}
	return out
}

// SeedStock loads recovered states into a tracker.
func SeedStock(stock *Stock, states map[string]StockState) {
	quantities := make(map[string]Quantity, len(states))
	averages := make(map[string]Money, len(states))
	for symbol, state := range states {
		quantities[symbol] = Q(state.Quantity)
		if state.HasAverage {
			averages[symbol] = M(state.Average, stock.Currency())
		}
	}
	stock.SetQuantities(quantities)
	stock.SetAverages(averages)
}
