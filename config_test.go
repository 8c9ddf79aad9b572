package stockbook

import (
	"testing"
)

const sampleConfig = `
currency: EUR
service: coinmotion
flags:
  trade-profit: true
accounts:
  bank: "1910"
  fees: "9300"
  targets:
    BTC: 1543
    ETH: "1544"
  currencies:
    EUR: "1900"
  taxes:
    source: "9900"
services:
  coinmotion:
    service: Coinmotion
  nordnet:
    service: Nordnet
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", cfg.Currency)
	}
	if cfg.Language != "fi" {
		t.Errorf("Language = %q, want the fi default", cfg.Language)
	}
	if !cfg.Flags.TradeProfit {
		t.Error("Flags.TradeProfit = false, want true")
	}
	if cfg.Flags.NoProfit {
		t.Error("Flags.NoProfit = true, want false")
	}
	if got := cfg.ServiceVars()["service"]; got != "Coinmotion" {
		t.Errorf("ServiceVars()[service] = %q, want Coinmotion", got)
	}
}

func TestParseConfig_FlattensAccountRoles(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	testCases := []struct {
		role []string
		want string
	}{
		{[]string{"bank"}, "1910"},
		{[]string{"targets", "BTC"}, "1543"}, // unquoted number in YAML
		{[]string{"targets", "ETH"}, "1544"},
		{[]string{"currencies", "EUR"}, "1900"},
		{[]string{"taxes", "source"}, "9900"},
	}
	for _, tc := range testCases {
		got, err := cfg.Accounts.Number(tc.role...)
		if err != nil {
			t.Errorf("Number(%v) error = %v", tc.role, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Number(%v) = %q, want %q", tc.role, got, tc.want)
		}
	}

	if _, err := cfg.Accounts.Number("targets", "DOGE"); err == nil {
		t.Error("Number(targets, DOGE) succeeded, want error for unmapped role")
	}
}

func TestParseConfig_RejectsBadCurrency(t *testing.T) {
	if _, err := ParseConfig([]byte("currency: EURO")); err == nil {
		t.Fatal("ParseConfig() with a bogus currency succeeded, want error")
	}
	if _, err := ParseConfig([]byte("language: fi")); err == nil {
		t.Fatal("ParseConfig() without a currency succeeded, want error")
	}
}
