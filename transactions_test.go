package stockbook

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNew_RejectsUnknownKind(t *testing.T) {
	if _, err := New("refund", nil, testConfig()); err == nil {
		t.Fatal("New(refund) succeeded, want error")
	}
}

func TestNew_EagerValidation(t *testing.T) {
	cfg := testConfig()

	testCases := []struct {
		name   string
		values map[string]any
	}{
		{"negative total", map[string]any{"total": -1}},
		{"negative fee", map[string]any{"total": 10, "fee": -0.5}},
		{"bogus currency", map[string]any{"total": 10, "currency": "EURO"}},
		{"non-numeric amount", map[string]any{"amount": "paljon"}},
		{"tags of wrong type", map[string]any{"tags": "korjaus"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(KindDeposit, tc.values, cfg); err == nil {
				t.Errorf("New(%v) succeeded, want error", tc.values)
			}
		})
	}
}

func TestFields_LazyReadErrors(t *testing.T) {
	cfg := testConfig()
	tx, err := New(KindSell, map[string]any{"target": "BTC", "amount": -1}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// total was never supplied; the posting generation is where it surfaces.
	if _, err := tx.Entries(cfg.Accounts); !errors.Is(err, ErrFieldNotSet) {
		t.Fatalf("Entries() error = %v, want ErrFieldNotSet", err)
	}
}

func TestFields_Defaults(t *testing.T) {
	f := NewFields(KindDeposit)

	fee, err := f.Number("fee")
	if err != nil {
		t.Fatalf("Number(fee) error = %v", err)
	}
	if !fee.IsZero() {
		t.Errorf("default fee = %v, want 0", fee)
	}
	if f.Has("fee") {
		t.Error("Has(fee) = true for a defaulted field, want false")
	}
	if _, ok := f.Values()["fee"]; ok {
		t.Error("Values() contains the defaulted fee, want explicitly set fields only")
	}

	// dividend has no fee default.
	f = NewFields(KindDividend)
	if _, err := f.Number("fee"); !errors.Is(err, ErrFieldNotSet) {
		t.Errorf("Number(fee) error = %v, want ErrFieldNotSet", err)
	}
}

func TestFields_NumericCoercion(t *testing.T) {
	f := NewFields(KindBuy)
	for name, value := range map[string]any{
		"total":  "1234.56",
		"amount": 2,
		"rate":   decimal.NewFromFloat(0.86),
	} {
		if err := f.Set(name, value); err != nil {
			t.Fatalf("Set(%s, %v) error = %v", name, value, err)
		}
	}
	total, err := f.Number("total")
	if err != nil {
		t.Fatalf("Number(total) error = %v", err)
	}
	if !total.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("total = %v, want 1234.56", total)
	}
}

func TestUpdateStock_BuyCachesPosition(t *testing.T) {
	cfg := testConfig()
	stock := NewStock("EUR")

	tx, err := New(KindBuy, map[string]any{"total": 210, "fee": 10, "amount": 2, "target": "ETH"}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := tx.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}

	// basis excludes the fee: (210-10)/2 = 100 per unit.
	if !stock.Average("ETH").Equal(M(100, "EUR")) {
		t.Errorf("Average = %v, want 100", stock.Average("ETH"))
	}
	values := tx.Fields().Values()
	if got := values["stock"].(decimal.Decimal); !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("cached stock = %v, want 2", got)
	}
	if got := values["avg"].(decimal.Decimal); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("cached avg = %v, want 100", got)
	}
}

func TestUpdateStock_SellDoesNotTouchAverage(t *testing.T) {
	cfg := testConfig()
	stock := NewStock("EUR")
	stock.Add(Q(4), "ETH", M(2000, "EUR"))

	tx, err := New(KindSell, map[string]any{"total": 1200, "amount": -2, "target": "ETH", "avg": 500}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := tx.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	if !stock.Quantity("ETH").Equal(Q(2)) {
		t.Errorf("Quantity = %v, want 2", stock.Quantity("ETH"))
	}
	if !stock.Average("ETH").Equal(M(500, "EUR")) {
		t.Errorf("Average = %v, want 500", stock.Average("ETH"))
	}
}

func TestUpdateStock_StockDividendDilutesAverage(t *testing.T) {
	cfg := testConfig()
	stock := NewStock("EUR")
	stock.Add(Q(3), "TSLA", M(300, "EUR")) // avg 100

	tx, err := New(KindStockDividend, map[string]any{"amount": 1, "target": "TSLA"}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := tx.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	// 4 units now carry the same 300 of cost.
	if !stock.Average("TSLA").Equal(M(75, "EUR")) {
		t.Errorf("Average = %v, want 75", stock.Average("TSLA"))
	}
}

func TestUpdateStock_MoveDefaultsTotalToBasis(t *testing.T) {
	cfg := testConfig()
	stock := NewStock("EUR")
	stock.Add(Q(2), "BTC", M(2000, "EUR")) // avg 1000

	out, err := New(KindMoveOut, map[string]any{"amount": 0.5, "target": "BTC"}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := out.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	total, err := out.Fields().Number("total")
	if err != nil {
		t.Fatalf("Number(total) error = %v", err)
	}
	if !total.Equal(decimal.NewFromInt(500)) {
		t.Errorf("derived total = %v, want 500", total)
	}

	// the move back in carries that basis along unchanged.
	in, err := New(KindMoveIn, map[string]any{"amount": 0.5, "target": "BTC"}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := in.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	if !stock.Average("BTC").Equal(M(1000, "EUR")) {
		t.Errorf("Average after round trip = %v, want 1000", stock.Average("BTC"))
	}
	if !stock.Quantity("BTC").Equal(Q(2)) {
		t.Errorf("Quantity after round trip = %v, want 2", stock.Quantity("BTC"))
	}
}

func TestUpdateStock_TradeCachesBothLegs(t *testing.T) {
	cfg := testConfig()
	stock := NewStock("EUR")
	stock.Add(Q(2), "BTC", M(2000, "EUR"))

	tx, err := New(KindTrade, map[string]any{"given": 1, "source": "BTC", "amount": 10, "target": "LTC"}, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := tx.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}

	values := tx.Fields().Values()
	if got := values["stock"].(decimal.Decimal); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("cached stock = %v, want 10", got)
	}
	if got := values["stock2"].(decimal.Decimal); !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("cached stock2 = %v, want 1", got)
	}
	if got := values["total"].(decimal.Decimal); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("derived total = %v, want 1000", got)
	}
}
