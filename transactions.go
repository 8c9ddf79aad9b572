package stockbook

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is a typed string identifying a transaction variant.
type Kind string

// The closed set of transaction kinds.
const (
	KindDeposit       Kind = "deposit"
	KindWithdrawal    Kind = "withdrawal"
	KindBuy           Kind = "buy"
	KindSell          Kind = "sell"
	KindDividend      Kind = "dividend"
	KindStockDividend Kind = "stock-dividend"
	KindFxIn          Kind = "fx-in"
	KindFxOut         Kind = "fx-out"
	KindInterest      Kind = "interest"
	KindLoanTake      Kind = "loan-take"
	KindLoanPay       Kind = "loan-pay"
	KindMoveIn        Kind = "move-in"
	KindMoveOut       Kind = "move-out"
	KindTrade         Kind = "trade"
	KindExpense       Kind = "expense"
	KindIncome        Kind = "income"
	KindError         Kind = "error"
)

// ErrFieldNotSet reports a read of a field that is neither supplied by the
// caller nor covered by the kind's declared defaults. The taxonomy prefers
// refusing to produce a ledger entry over silently defaulting.
var ErrFieldNotSet = errors.New("field not set")

// numberFields lists the field names that hold decimal values. Everything
// else in the shared pool is a string, except "tags".
var numberFields = map[string]bool{
	"total": true, "amount": true, "given": true, "fee": true, "tax": true,
	"rate": true, "burned": true, "stock": true, "avg": true,
	"stock2": true, "avg2": true,
}

// fieldDefaults declares, per kind, the fields that may be read without
// being explicitly set.
var fieldDefaults = map[Kind]map[string]any{
	KindDeposit:    {"fee": decimal.Zero},
	KindWithdrawal: {"fee": decimal.Zero},
	KindBuy:        {"fee": decimal.Zero},
	KindSell:       {"fee": decimal.Zero},
	KindDividend:   {"tax": decimal.Zero},
	KindTrade:      {"fee": decimal.Zero, "burned": decimal.Zero},
	KindError:      {"notes": ""},
}

// Fields is a transaction's attribute map. A variant exclusively owns its
// field map; values are decimal.Decimal for the numeric pool, string for
// symbols, codes and notes, and []string for tags.
type Fields struct {
	kind   Kind
	values map[string]any
}

// NewFields returns an empty field map for the given kind.
func NewFields(kind Kind) *Fields {
	return &Fields{kind: kind, values: make(map[string]any)}
}

// Set validates and stores a field value. Setting "total" or "fee" requires
// a non-negative number and "currency" a valid ISO 4217 code. Numeric fields
// accept decimal.Decimal, float64, int or a numeric string; "tags" accepts
// []string.
func (f *Fields) Set(name string, value any) error {
	switch {
	case name == "tags":
		tags, ok := value.([]string)
		if !ok {
			return fmt.Errorf("field tags: expected []string, got %T", value)
		}
		f.values[name] = tags
		return nil
	case numberFields[name]:
		d, err := coerceDecimal(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		if (name == "total" || name == "fee") && d.IsNegative() {
			return fmt.Errorf("field %s must be non-negative, got %s", name, d)
		}
		f.values[name] = d
		return nil
	case name == "currency":
		code, ok := value.(string)
		if !ok {
			return fmt.Errorf("field currency: expected string, got %T", value)
		}
		if err := ValidateCurrency(code); err != nil {
			return fmt.Errorf("field currency: %w", err)
		}
		f.values[name] = code
		return nil
	default:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: expected string, got %T", name, value)
		}
		f.values[name] = s
		return nil
	}
}

func coerceDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("not a number: %q", v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("expected number, got %T", value)
	}
}

// lookup returns the raw value, falling back to the kind's defaults.
func (f *Fields) lookup(name string) (any, bool) {
	if v, ok := f.values[name]; ok {
		return v, true
	}
	if v, ok := fieldDefaults[f.kind][name]; ok {
		return v, true
	}
	return nil, false
}

// Has reports whether the field is explicitly set (defaults do not count).
func (f *Fields) Has(name string) bool {
	_, ok := f.values[name]
	return ok
}

// Number reads a decimal field. Reading an unset field with no default is an
// error wrapping ErrFieldNotSet.
func (f *Fields) Number(name string) (decimal.Decimal, error) {
	v, ok := f.lookup(name)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s %s: %w", f.kind, name, ErrFieldNotSet)
	}
	d, ok := v.(decimal.Decimal)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s %s: not a number", f.kind, name)
	}
	return d, nil
}

// Text reads a string field. Reading an unset field with no default is an
// error wrapping ErrFieldNotSet.
func (f *Fields) Text(name string) (string, error) {
	v, ok := f.lookup(name)
	if !ok {
		return "", fmt.Errorf("%s %s: %w", f.kind, name, ErrFieldNotSet)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s %s: not a string", f.kind, name)
	}
	return s, nil
}

// Tags returns the ordered tag list, empty when unset.
func (f *Fields) Tags() []string {
	if v, ok := f.values["tags"]; ok {
		if tags, ok := v.([]string); ok {
			return tags
		}
	}
	return nil
}

// Values returns a copy of the explicitly set fields. Defaults are left
// out on purpose: the description codec renders an option clause only when
// its fields were actually supplied.
func (f *Fields) Values() map[string]any {
	out := make(map[string]any, len(f.values))
	for name, v := range f.values {
		out[name] = v
	}
	return out
}

// Transaction is the capability set every variant implements.
type Transaction interface {
	Kind() Kind
	Fields() *Fields
	// Entries produces the double-entry postings for this transaction.
	// Amounts are rounded to the currency's minor unit and sum to exactly
	// zero, except for move-in/move-out whose offsetting leg belongs to the
	// persistence layer's imbalance handling.
	Entries(accounts Accounts) ([]Entry, error)
	// UpdateStock applies the transaction to the cost-basis tracker and
	// caches the resulting position back onto the fields (stock, avg, and
	// stock2/avg2 for the trade source leg). Callers must not apply the
	// same economic event twice.
	UpdateStock(stock *Stock) error
}

// baseTx carries what every variant shares: its field map, the configuration
// and the optional runtime collaborators.
type baseTx struct {
	kind   Kind
	fields *Fields
	cfg    *Config
	rates  RateSource
	day    time.Time
}

func (b *baseTx) Kind() Kind                     { return b.kind }
func (b *baseTx) Fields() *Fields                { return b.fields }
func (b *baseTx) UpdateStock(stock *Stock) error { return nil }

// money reads a numeric field as base-currency money.
func (b *baseTx) money(name string) (Money, error) {
	d, err := b.fields.Number(name)
	if err != nil {
		return Money{}, err
	}
	return M(d, b.cfg.Currency), nil
}

func (b *baseTx) qty(name string) (Quantity, error) {
	d, err := b.fields.Number(name)
	if err != nil {
		return Quantity{}, err
	}
	return Q(d), nil
}

// cachePosition writes a tracker position back into the fields under the
// given stock/avg names so the description codec can render it.
func (b *baseTx) cachePosition(pos Position, stockName, avgName string) {
	b.fields.values[stockName] = pos.Quantity.Decimal()
	b.fields.values[avgName] = pos.Average.Decimal()
}

// Option adjusts a transaction at construction time.
type Option func(*baseTx)

// WithRates supplies the market-rate collaborator and the transaction day,
// used by trade profit recognition.
func WithRates(rates RateSource, day time.Time) Option {
	return func(b *baseTx) {
		b.rates = rates
		b.day = day
	}
}

// The variant types. Each one owns its field map and implements the
// Transaction capability set; behavior lives in the Entries and UpdateStock
// methods.
type (
	DepositTx       struct{ baseTx }
	WithdrawalTx    struct{ baseTx }
	BuyTx           struct{ baseTx }
	SellTx          struct{ baseTx }
	DividendTx      struct{ baseTx }
	StockDividendTx struct{ baseTx }
	FxInTx          struct{ baseTx }
	FxOutTx         struct{ baseTx }
	InterestTx      struct{ baseTx }
	LoanTakeTx      struct{ baseTx }
	LoanPayTx       struct{ baseTx }
	MoveInTx        struct{ baseTx }
	MoveOutTx       struct{ baseTx }
	ExpenseTx       struct{ baseTx }
	IncomeTx        struct{ baseTx }
	ErrorTx         struct{ baseTx }
)

// TradeTx disposes of one symbol and acquires another. The cost legs are
// computed during UpdateStock and kept here for Entries.
type TradeTx struct {
	baseTx
	costOut   Money
	burnCost  Money
	haveCosts bool
}

// New builds a transaction variant of the given kind from a caller-supplied
// value map. Unknown kinds are rejected; set values are validated eagerly
// (total, fee, currency), everything else lazily on first read.
func New(kind Kind, values map[string]any, cfg *Config, opts ...Option) (Transaction, error) {
	base := baseTx{kind: kind, fields: NewFields(kind), cfg: cfg}
	for name, value := range values {
		if err := base.fields.Set(name, value); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}
	for _, opt := range opts {
		opt(&base)
	}

	switch kind {
	case KindDeposit:
		return &DepositTx{base}, nil
	case KindWithdrawal:
		return &WithdrawalTx{base}, nil
	case KindBuy:
		return &BuyTx{base}, nil
	case KindSell:
		return &SellTx{base}, nil
	case KindDividend:
		return &DividendTx{base}, nil
	case KindStockDividend:
		return &StockDividendTx{base}, nil
	case KindFxIn:
		return &FxInTx{base}, nil
	case KindFxOut:
		return &FxOutTx{base}, nil
	case KindInterest:
		return &InterestTx{base}, nil
	case KindLoanTake:
		return &LoanTakeTx{base}, nil
	case KindLoanPay:
		return &LoanPayTx{base}, nil
	case KindMoveIn:
		return &MoveInTx{base}, nil
	case KindMoveOut:
		return &MoveOutTx{base}, nil
	case KindTrade:
		return &TradeTx{baseTx: base}, nil
	case KindExpense:
		return &ExpenseTx{base}, nil
	case KindIncome:
		return &IncomeTx{base}, nil
	case KindError:
		return &ErrorTx{base}, nil
	default:
		return nil, fmt.Errorf("unknown transaction kind %q", kind)
	}
}

// --- Stock updates ---
//
// Only the kinds that move a tracked symbol touch the tracker. The resulting
// position is cached back into the fields so the codec can render the
// running totals.

func (t *BuyTx) UpdateStock(stock *Stock) error {
	amount, err := t.qty("amount")
	if err != nil {
		return err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return err
	}
	total, err := t.money("total")
	if err != nil {
		return err
	}
	fee, err := t.money("fee")
	if err != nil {
		return err
	}
	// the fee is not part of the acquired basis.
	pos := stock.Add(amount, target, total.Sub(fee))
	t.cachePosition(pos, "stock", "avg")
	return nil
}

func (t *SellTx) UpdateStock(stock *Stock) error {
	amount, err := t.qty("amount") // negative for a sale
	if err != nil {
		return err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return err
	}
	pos := stock.Add(amount, target, M(0, stock.Currency()))
	t.cachePosition(pos, "stock", "avg")
	return nil
}

func (t *StockDividendTx) UpdateStock(stock *Stock) error {
	amount, err := t.qty("amount")
	if err != nil {
		return err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return err
	}
	// free shares dilute the average: quantity rises at zero cost.
	pos := stock.Add(amount, target, M(0, stock.Currency()))
	t.cachePosition(pos, "stock", "avg")
	return nil
}

func (t *MoveInTx) UpdateStock(stock *Stock) error {
	amount, err := t.qty("amount")
	if err != nil {
		return err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return err
	}
	// a move between own services carries its basis along: default the
	// moved value to the current average.
	cost, err := t.money("total")
	if errors.Is(err, ErrFieldNotSet) {
		cost = stock.Average(target).Mul(amount)
		t.fields.values["total"] = cost.Decimal()
	} else if err != nil {
		return err
	}
	pos := stock.Add(amount, target, cost)
	t.cachePosition(pos, "stock", "avg")
	return nil
}

func (t *MoveOutTx) UpdateStock(stock *Stock) error {
	amount, err := t.qty("amount")
	if err != nil {
		return err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return err
	}
	if !t.fields.Has("total") {
		t.fields.values["total"] = stock.Average(target).Mul(amount).Decimal()
	}
	pos := stock.Remove(amount, target)
	t.cachePosition(pos, "stock", "avg")
	return nil
}

func (t *TradeTx) UpdateStock(stock *Stock) error {
	given, err := t.qty("given")
	if err != nil {
		return err
	}
	source, err := t.fields.Text("source")
	if err != nil {
		return err
	}
	amount, err := t.qty("amount")
	if err != nil {
		return err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return err
	}
	fee, err := t.money("fee")
	if err != nil {
		return err
	}

	// source leg first, then burn, then target. The order is load-bearing:
	// the disposal must not see the acquisition.
	t.costOut = stock.Average(source).Mul(given)
	srcPos := stock.Remove(given, source)
	t.cachePosition(srcPos, "stock2", "avg2")

	t.burnCost = M(0, stock.Currency())
	burned, err := t.qty("burned")
	if err != nil {
		return err
	}
	if !burned.IsZero() {
		burn, err := t.fields.Text("burn")
		if err != nil {
			return err
		}
		t.burnCost = stock.Average(burn).Mul(burned)
		stock.Remove(burned, burn)
	}
	t.haveCosts = true

	if !t.fields.Has("total") {
		t.fields.values["total"] = t.costOut.Add(t.burnCost).Decimal()
	}

	contribution := t.costOut.Add(t.burnCost).Sub(t.effectiveFee(fee))
	if value, ok := t.marketValue(amount, target); ok {
		contribution = value.Sub(t.effectiveFee(fee))
	}
	pos := stock.Add(amount, target, contribution)
	t.cachePosition(pos, "stock", "avg")
	return nil
}

// effectiveFee folds the burned units' cost into the explicit fee.
func (t *TradeTx) effectiveFee(fee Money) Money {
	return fee.Add(t.burnCost)
}

// marketValue resolves the acquired side's same-day market value when trade
// profit recognition is on and a rate is available.
func (t *TradeTx) marketValue(amount Quantity, target string) (Money, bool) {
	if !t.cfg.Flags.TradeProfit || t.rates == nil {
		return Money{}, false
	}
	rate, ok := t.rates.Rate(target, t.cfg.Currency, t.day)
	if !ok {
		return Money{}, false
	}
	return M(rate, t.cfg.Currency).Mul(amount), true
}
