package stockbook

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decimalPtr(text string) *decimal.Decimal {
	d := decimal.RequireFromString(text)
	return &d
}

// testConfig returns a configuration with the account roles every posting
// test needs, mapped to distinct recognizable numbers.
func testConfig() *Config {
	return &Config{
		Currency: "EUR",
		Language: "fi",
		Service:  "coinmotion",
		Accounts: Accounts{
			"bank":           "1910",
			"fees":           "9300",
			"profits":        "3460",
			"losses":         "9740",
			"dividends":      "3470",
			"interest":       "9170",
			"currencies.EUR": "1900",
			"currencies.USD": "1901",
			"targets.BTC":    "1543",
			"targets.ETH":    "1544",
			"targets.LTC":    "1545",
			"targets.TSLA":   "1420",
			"taxes.source":   "9900",
			"taxes.income":   "9901",
			"loans.EUR":      "2620",
			"expenses.bank":  "9280",
			"incomes.misc":   "3000",
		},
		Services: map[string]map[string]string{
			"coinmotion": {"service": "Coinmotion"},
		},
	}
}

// posting is the compact expected form of an Entry: account number and the
// amount in cents.
type posting struct {
	account string
	cents   int64
}

func assertEntries(t *testing.T, got []Entry, want []posting) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Account != w.account {
			t.Errorf("entry %d account = %q, want %q", i, got[i].Account, w.account)
		}
		if got[i].Amount.Cents() != w.cents {
			t.Errorf("entry %d amount = %d cents, want %d", i, got[i].Amount.Cents(), w.cents)
		}
	}
}
