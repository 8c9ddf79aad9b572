package texter

import "github.com/Rhymond/go-money"

// symbolCurrencies lists the currencies whose symbol can appear in a
// rendered description, in priority order. The order matters to the reverse
// lookup: several currencies share a symbol (e.g. "$") and the first listed
// wins.
var symbolCurrencies = []string{
	"USD", "EUR", "GBP", "JPY", "SEK", "NOK", "DKK", "CHF", "CAD", "AUD",
}

// Symbol returns the display symbol for an ISO 4217 code, like "$" for USD
// or "€" for EUR. Falls back to the code itself when the currency is
// unknown or has no distinct symbol.
func Symbol(code string) string {
	cur := money.GetCurrency(code)
	if cur == nil || cur.Grapheme == "" {
		return code
	}
	return cur.Grapheme
}

// CodeOfSymbol is the reverse of Symbol. It resolves a symbol like "$" back
// to an ISO 4217 code, trying symbolCurrencies in order, and accepts a
// plain code ("USD") as its own symbol.
func CodeOfSymbol(symbol string) (string, bool) {
	for _, code := range symbolCurrencies {
		if Symbol(code) == symbol {
			return code, true
		}
	}
	if money.GetCurrency(symbol) != nil {
		return symbol, true
	}
	return "", false
}
