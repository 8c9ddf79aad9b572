package stockbook

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRateTable(t *testing.T) {
	table := RateTable{"LTC": {"2026-03-14": decimal.NewFromInt(110)}}
	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)

	rate, ok := table.Rate("LTC", "EUR", day)
	if !ok || !rate.Equal(decimal.NewFromInt(110)) {
		t.Errorf("Rate(LTC) = %v, %v, want 110, true", rate, ok)
	}

	// the denomination is a property of the table, not of the call.
	other, ok := table.Rate("LTC", "USD", day)
	if !ok || !other.Equal(rate) {
		t.Errorf("Rate(LTC, USD) = %v, %v, want the table's fixed denomination", other, ok)
	}

	if _, ok := table.Rate("BTC", "EUR", day); ok {
		t.Error("Rate(unknown symbol) = true, want false")
	}
	if _, ok := table.Rate("LTC", "EUR", day.AddDate(0, 0, 1)); ok {
		t.Error("Rate(unknown day) = true, want false")
	}
}
