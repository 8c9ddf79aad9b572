package stockbook

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// newTx builds a variant and fails the test on a factory error.
func newTx(t *testing.T, cfg *Config, kind Kind, values map[string]any, opts ...Option) Transaction {
	t.Helper()
	tx, err := New(kind, values, cfg, opts...)
	if err != nil {
		t.Fatalf("New(%s) error = %v", kind, err)
	}
	return tx
}

func TestEntries_CashAndCommodity(t *testing.T) {
	cfg := testConfig()

	testCases := []struct {
		name   string
		kind   Kind
		values map[string]any
		want   []posting
	}{
		{
			name:   "deposit",
			kind:   KindDeposit,
			values: map[string]any{"total": 12},
			want:   []posting{{"1900", 1200}, {"1910", -1200}},
		},
		{
			name:   "deposit with fee",
			kind:   KindDeposit,
			values: map[string]any{"total": 12, "fee": 1},
			want:   []posting{{"1900", 1100}, {"9300", 100}, {"1910", -1200}},
		},
		{
			name:   "withdrawal with fee",
			kind:   KindWithdrawal,
			values: map[string]any{"total": 50, "fee": 0.5},
			want:   []posting{{"1910", 4950}, {"9300", 50}, {"1900", -5000}},
		},
		{
			name:   "buy",
			kind:   KindBuy,
			values: map[string]any{"total": 1000, "amount": 0.5, "target": "BTC"},
			want:   []posting{{"1543", 100000}, {"1900", -100000}},
		},
		{
			name:   "buy with fee",
			kind:   KindBuy,
			values: map[string]any{"total": 1000, "fee": 10, "amount": 0.5, "target": "BTC"},
			want:   []posting{{"1543", 99000}, {"9300", 1000}, {"1900", -100000}},
		},
		{
			name:   "sell at a profit",
			kind:   KindSell,
			values: map[string]any{"total": 1200, "target": "ETH", "amount": -2, "avg": 500},
			want:   []posting{{"1900", 120000}, {"3460", -20000}, {"1544", -100000}},
		},
		{
			name:   "sell at a loss",
			kind:   KindSell,
			values: map[string]any{"total": 800, "target": "ETH", "amount": -2, "avg": 500},
			want:   []posting{{"1900", 80000}, {"9740", 20000}, {"1544", -100000}},
		},
		{
			name:   "sell at cost has no profit leg",
			kind:   KindSell,
			values: map[string]any{"total": 1000, "target": "ETH", "amount": -2, "avg": 500},
			want:   []posting{{"1900", 100000}, {"1544", -100000}},
		},
		{
			name:   "sell with fee",
			kind:   KindSell,
			values: map[string]any{"total": 1200, "fee": 10, "target": "ETH", "amount": -2, "avg": 500},
			want:   []posting{{"1900", 119000}, {"9300", 1000}, {"3460", -20000}, {"1544", -100000}},
		},
		{
			name:   "dividend",
			kind:   KindDividend,
			values: map[string]any{"total": 5, "amount": 5, "target": "TSLA"},
			want:   []posting{{"1900", 500}, {"3470", -500}},
		},
		{
			name:   "dividend with foreign withholding",
			kind:   KindDividend,
			values: map[string]any{"total": 5, "tax": 1.5, "amount": 5, "target": "TSLA", "currency": "USD"},
			want:   []posting{{"1900", 350}, {"9900", 150}, {"3470", -500}},
		},
		{
			name:   "dividend with domestic withholding",
			kind:   KindDividend,
			values: map[string]any{"total": 5, "tax": 1.5, "amount": 5, "target": "TSLA"},
			want:   []posting{{"1900", 350}, {"9901", 150}, {"3470", -500}},
		},
		{
			name:   "fx in",
			kind:   KindFxIn,
			values: map[string]any{"total": 100, "currency": "USD"},
			want:   []posting{{"1900", 10000}, {"1901", -10000}},
		},
		{
			name:   "fx out",
			kind:   KindFxOut,
			values: map[string]any{"total": 100, "currency": "USD"},
			want:   []posting{{"1901", 10000}, {"1900", -10000}},
		},
		{
			name:   "interest",
			kind:   KindInterest,
			values: map[string]any{"total": 10},
			want:   []posting{{"9170", 1000}, {"1900", -1000}},
		},
		{
			name:   "loan take",
			kind:   KindLoanTake,
			values: map[string]any{"total": 500},
			want:   []posting{{"1900", 50000}, {"2620", -50000}},
		},
		{
			name:   "loan pay",
			kind:   KindLoanPay,
			values: map[string]any{"total": 500},
			want:   []posting{{"2620", 50000}, {"1900", -50000}},
		},
		{
			name:   "expense",
			kind:   KindExpense,
			values: map[string]any{"total": 3, "target": "bank", "notes": "kuukausimaksu"},
			want:   []posting{{"9280", 300}, {"1900", -300}},
		},
		{
			name:   "income",
			kind:   KindIncome,
			values: map[string]any{"total": 7, "target": "misc", "notes": "hyvitys"},
			want:   []posting{{"1900", 700}, {"3000", -700}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := newTx(t, cfg, tc.kind, tc.values)
			got, err := tx.Entries(cfg.Accounts)
			if err != nil {
				t.Fatalf("Entries() error = %v", err)
			}
			assertEntries(t, got, tc.want)
			if err := Balance(got); err != nil {
				t.Errorf("Balance() = %v, want nil", err)
			}
		})
	}
}

func TestEntries_SellNoProfitFlag(t *testing.T) {
	cfg := testConfig()
	cfg.Flags.NoProfit = true

	tx := newTx(t, cfg, KindSell, map[string]any{"total": 1200, "target": "ETH", "amount": -2, "avg": 500})
	got, err := tx.Entries(cfg.Accounts)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	// disposal at proceeds: no profit leg even though avg says 200 gained.
	assertEntries(t, got, []posting{{"1900", 120000}, {"1544", -120000}})
}

func TestEntries_MoveIsSingleLegged(t *testing.T) {
	cfg := testConfig()

	tx := newTx(t, cfg, KindMoveIn, map[string]any{"total": 100, "amount": 0.1, "target": "BTC"})
	got, err := tx.Entries(cfg.Accounts)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	assertEntries(t, got, []posting{{"1543", 10000}})

	tx = newTx(t, cfg, KindMoveOut, map[string]any{"total": 100, "amount": 0.1, "target": "BTC"})
	got, err = tx.Entries(cfg.Accounts)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	assertEntries(t, got, []posting{{"1543", -10000}})
}

func TestEntries_NonMonetaryKinds(t *testing.T) {
	cfg := testConfig()

	for _, kind := range []Kind{KindStockDividend, KindError} {
		values := map[string]any{"amount": 1, "target": "BTC"}
		if kind == KindError {
			values = map[string]any{"notes": "tuntematon rivi"}
		}
		tx := newTx(t, cfg, kind, values)
		got, err := tx.Entries(cfg.Accounts)
		if err != nil {
			t.Fatalf("%s Entries() error = %v", kind, err)
		}
		if len(got) != 0 {
			t.Errorf("%s Entries() = %v, want none", kind, got)
		}
	}
}

func TestEntries_TradeAtCost(t *testing.T) {
	cfg := testConfig()
	stock := NewStock("EUR")
	stock.Add(Q(2), "BTC", M(2000, "EUR")) // avg 1000

	tx := newTx(t, cfg, KindTrade, map[string]any{
		"given": 1, "source": "BTC", "amount": 10, "target": "LTC",
	})
	if err := tx.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	got, err := tx.Entries(cfg.Accounts)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	// cost moves from BTC to LTC, nothing is recognized.
	assertEntries(t, got, []posting{{"1545", 100000}, {"1543", -100000}})
	if err := Balance(got); err != nil {
		t.Errorf("Balance() = %v, want nil", err)
	}

	if !stock.Quantity("BTC").Equal(Q(1)) {
		t.Errorf("BTC quantity = %v, want 1", stock.Quantity("BTC"))
	}
	if !stock.Quantity("LTC").Equal(Q(10)) {
		t.Errorf("LTC quantity = %v, want 10", stock.Quantity("LTC"))
	}
	if !stock.Average("LTC").Equal(M(100, "EUR")) {
		t.Errorf("LTC average = %v, want 100", stock.Average("LTC"))
	}
}

func TestEntries_TradeWithFeeAndBurn(t *testing.T) {
	cfg := testConfig()
	stock := NewStock("EUR")
	stock.Add(Q(2), "BTC", M(2000, "EUR")) // avg 1000
	stock.Add(Q(1), "ETH", M(50, "EUR"))   // avg 50

	tx := newTx(t, cfg, KindTrade, map[string]any{
		"given": 1, "source": "BTC", "amount": 10, "target": "LTC",
		"fee": 2, "burned": 0.1, "burn": "ETH",
	})
	if err := tx.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	got, err := tx.Entries(cfg.Accounts)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	// burn cost 0.1*50=5 folds into the fee: acquired 1000+5-7=998.
	assertEntries(t, got, []posting{
		{"1545", 99800}, {"9300", 700}, {"1543", -100000}, {"1544", -500},
	})
	if err := Balance(got); err != nil {
		t.Errorf("Balance() = %v, want nil", err)
	}
	if !stock.Quantity("ETH").Equal(Q(0.9)) {
		t.Errorf("ETH quantity = %v, want 0.9", stock.Quantity("ETH"))
	}
}

func TestEntries_TradeProfitRecognition(t *testing.T) {
	cfg := testConfig()
	cfg.Flags.TradeProfit = true
	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	rates := RateTable{"LTC": {"2026-03-14": decimal.NewFromInt(110)}}

	stock := NewStock("EUR")
	stock.Add(Q(2), "BTC", M(2000, "EUR")) // avg 1000

	tx := newTx(t, cfg, KindTrade, map[string]any{
		"given": 1, "source": "BTC", "amount": 10, "target": "LTC",
	}, WithRates(rates, day))
	if err := tx.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	got, err := tx.Entries(cfg.Accounts)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	// market value 10*110=1100 against 1000 of cost removed: 100 of profit.
	assertEntries(t, got, []posting{
		{"1545", 110000}, {"1543", -100000}, {"3460", -10000},
	})
	if !stock.Average("LTC").Equal(M(110, "EUR")) {
		t.Errorf("LTC average = %v, want 110", stock.Average("LTC"))
	}
}

func TestEntries_TradeNoRateFallsBackToCost(t *testing.T) {
	cfg := testConfig()
	cfg.Flags.TradeProfit = true
	day := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)

	stock := NewStock("EUR")
	stock.Add(Q(2), "BTC", M(2000, "EUR"))

	tx := newTx(t, cfg, KindTrade, map[string]any{
		"given": 1, "source": "BTC", "amount": 10, "target": "LTC",
	}, WithRates(RateTable{}, day))
	if err := tx.UpdateStock(stock); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	got, err := tx.Entries(cfg.Accounts)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	assertEntries(t, got, []posting{{"1545", 100000}, {"1543", -100000}})
}

func TestEntries_TradeRequiresStockUpdate(t *testing.T) {
	cfg := testConfig()
	tx := newTx(t, cfg, KindTrade, map[string]any{
		"given": 1, "source": "BTC", "amount": 10, "target": "LTC",
	})
	if _, err := tx.Entries(cfg.Accounts); err == nil {
		t.Fatal("Entries() before UpdateStock() succeeded, want error")
	}
}

func TestEntries_MissingAccountRole(t *testing.T) {
	cfg := testConfig()
	delete(cfg.Accounts, "targets.BTC")

	tx := newTx(t, cfg, KindBuy, map[string]any{"total": 1000, "amount": 0.5, "target": "BTC"})
	if _, err := tx.Entries(cfg.Accounts); err == nil {
		t.Fatal("Entries() with unmapped target succeeded, want error")
	}
}
