package stockbook

import (
	"fmt"
)

// Entry is a single double-entry ledger posting: a signed amount against an
// account number. Amounts are rounded to the currency's minor unit.
type Entry struct {
	Account     string `json:"account"`
	Amount      Money  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// Balance verifies the double-entry invariant: the postings of one
// transaction sum to exactly zero, to the cent.
func Balance(entries []Entry) error {
	var sum int64
	for _, e := range entries {
		sum += e.Amount.Cents()
	}
	if sum != 0 {
		return fmt.Errorf("postings are unbalanced by %d cents", sum)
	}
	return nil
}

// entryBuilder accumulates postings in deterministic order. Every added leg
// is rounded; the balancing leg is derived as the exact negative of the sum,
// which keeps the transaction balanced to the cent regardless of rounding.
type entryBuilder struct {
	currency string
	entries  []Entry
}

func newEntryBuilder(currency string) *entryBuilder {
	return &entryBuilder{currency: currency}
}

func (b *entryBuilder) add(account string, amount Money) {
	b.entries = append(b.entries, Entry{Account: account, Amount: amount.Round()})
}

// residual returns the amount that would balance the legs added so far.
func (b *entryBuilder) residual() Money {
	sum := M(0, b.currency)
	for _, e := range b.entries {
		sum = sum.Add(e.Amount)
	}
	return sum.Neg()
}

// balance appends the balancing leg.
func (b *entryBuilder) balance(account string) {
	b.add(account, b.residual())
}

// balanceAt inserts the balancing leg at the given position, so that posting
// order stays deterministic even when the balancing account is not last.
// A zero residual inserts nothing.
func (b *entryBuilder) balanceAt(index int, account string) {
	amount := b.residual()
	if amount.IsZero() {
		return
	}
	entry := Entry{Account: account, Amount: amount.Round()}
	b.entries = append(b.entries[:index], append([]Entry{entry}, b.entries[index:]...)...)
}

// --- Per-kind posting generation ---

func (t *DepositTx) Entries(accounts Accounts) ([]Entry, error) {
	return cashEntries(&t.baseTx, accounts, true)
}

func (t *WithdrawalTx) Entries(accounts Accounts) ([]Entry, error) {
	return cashEntries(&t.baseTx, accounts, false)
}

// cashEntries covers deposit and withdrawal, which mirror each other: cash
// moves between the bank and the base-currency account, with the fee split
// out of the currency side.
func cashEntries(t *baseTx, accounts Accounts, in bool) ([]Entry, error) {
	total, err := t.money("total")
	if err != nil {
		return nil, err
	}
	fee, err := t.money("fee")
	if err != nil {
		return nil, err
	}
	currencyAcc, err := accounts.Number("currencies", t.cfg.Currency)
	if err != nil {
		return nil, err
	}
	bankAcc, err := accounts.Number("bank")
	if err != nil {
		return nil, err
	}

	b := newEntryBuilder(t.cfg.Currency)
	if in {
		b.add(currencyAcc, total.Sub(fee))
		if err := addFee(b, accounts, fee); err != nil {
			return nil, err
		}
		b.balance(bankAcc) // -total
	} else {
		b.add(bankAcc, total.Sub(fee))
		if err := addFee(b, accounts, fee); err != nil {
			return nil, err
		}
		b.balance(currencyAcc) // -total
	}
	return b.entries, nil
}

func addFee(b *entryBuilder, accounts Accounts, fee Money) error {
	if !fee.IsPositive() {
		return nil
	}
	feeAcc, err := accounts.Number("fees")
	if err != nil {
		return err
	}
	b.add(feeAcc, fee)
	return nil
}

func (t *BuyTx) Entries(accounts Accounts) ([]Entry, error) {
	total, err := t.money("total")
	if err != nil {
		return nil, err
	}
	fee, err := t.money("fee")
	if err != nil {
		return nil, err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return nil, err
	}
	targetAcc, err := accounts.Number("targets", target)
	if err != nil {
		return nil, err
	}
	currencyAcc, err := accounts.Number("currencies", t.cfg.Currency)
	if err != nil {
		return nil, err
	}

	b := newEntryBuilder(t.cfg.Currency)
	b.add(targetAcc, total.Sub(fee))
	if err := addFee(b, accounts, fee); err != nil {
		return nil, err
	}
	b.balance(currencyAcc) // -total
	return b.entries, nil
}

func (t *SellTx) Entries(accounts Accounts) ([]Entry, error) {
	total, err := t.money("total")
	if err != nil {
		return nil, err
	}
	fee, err := t.money("fee")
	if err != nil {
		return nil, err
	}
	amount, err := t.qty("amount") // negative
	if err != nil {
		return nil, err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return nil, err
	}
	targetAcc, err := accounts.Number("targets", target)
	if err != nil {
		return nil, err
	}
	currencyAcc, err := accounts.Number("currencies", t.cfg.Currency)
	if err != nil {
		return nil, err
	}

	net := total.Sub(fee)
	b := newEntryBuilder(t.cfg.Currency)
	b.add(currencyAcc, net)
	if err := addFee(b, accounts, fee); err != nil {
		return nil, err
	}

	if t.cfg.Flags.NoProfit {
		// profit/loss suppressed: dispose at proceeds, no P/L leg.
		b.balance(targetAcc) // -total
		return b.entries, nil
	}

	avg, err := t.money("avg")
	if err != nil {
		return nil, err
	}
	costBasisRemoved := avg.Mul(amount.Neg())
	plIndex := len(b.entries)
	b.add(targetAcc, costBasisRemoved.Neg())

	// The residual is the realized loss (positive) or profit (negative,
	// credit-normal). Zero inserts no posting at all.
	diff := b.residual()
	role := "losses"
	if diff.IsNegative() {
		role = "profits"
	}
	plAcc, err := accounts.Number(role)
	if err != nil {
		return nil, err
	}
	b.balanceAt(plIndex, plAcc)
	return b.entries, nil
}

func (t *DividendTx) Entries(accounts Accounts) ([]Entry, error) {
	total, err := t.money("total")
	if err != nil {
		return nil, err
	}
	tax, err := t.money("tax")
	if err != nil {
		return nil, err
	}
	currencyAcc, err := accounts.Number("currencies", t.cfg.Currency)
	if err != nil {
		return nil, err
	}
	dividendsAcc, err := accounts.Number("dividends")
	if err != nil {
		return nil, err
	}

	b := newEntryBuilder(t.cfg.Currency)
	b.add(currencyAcc, total.Sub(tax))
	if tax.IsPositive() {
		// withholding at the source is routed to the source-tax account
		// when the dividend is paid in a foreign currency.
		role := "income"
		if divCur, err := t.fields.Text("currency"); err == nil && divCur != t.cfg.Currency {
			role = "source"
		}
		taxAcc, err := accounts.Number("taxes", role)
		if err != nil {
			return nil, err
		}
		b.add(taxAcc, tax)
	}
	b.balance(dividendsAcc) // -total
	return b.entries, nil
}

func (t *StockDividendTx) Entries(accounts Accounts) ([]Entry, error) {
	// free shares carry no monetary value into the books; only the tracker
	// moves.
	return nil, nil
}

func (t *FxInTx) Entries(accounts Accounts) ([]Entry, error) {
	return fxEntries(&t.baseTx, accounts, true)
}

func (t *FxOutTx) Entries(accounts Accounts) ([]Entry, error) {
	return fxEntries(&t.baseTx, accounts, false)
}

// fxEntries is a straight two-line exchange between the base-currency
// account and a foreign currency account.
func fxEntries(t *baseTx, accounts Accounts, in bool) ([]Entry, error) {
	total, err := t.money("total")
	if err != nil {
		return nil, err
	}
	foreign, err := t.fields.Text("currency")
	if err != nil {
		return nil, err
	}
	baseAcc, err := accounts.Number("currencies", t.cfg.Currency)
	if err != nil {
		return nil, err
	}
	foreignAcc, err := accounts.Number("currencies", foreign)
	if err != nil {
		return nil, err
	}

	b := newEntryBuilder(t.cfg.Currency)
	if in {
		b.add(baseAcc, total)
		b.balance(foreignAcc)
	} else {
		b.add(foreignAcc, total)
		b.balance(baseAcc)
	}
	return b.entries, nil
}

func (t *InterestTx) Entries(accounts Accounts) ([]Entry, error) {
	return twoLine(&t.baseTx, accounts, []string{"interest"}, []string{"currencies"})
}

func (t *LoanTakeTx) Entries(accounts Accounts) ([]Entry, error) {
	return twoLine(&t.baseTx, accounts, []string{"currencies"}, []string{"loans"})
}

func (t *LoanPayTx) Entries(accounts Accounts) ([]Entry, error) {
	return twoLine(&t.baseTx, accounts, []string{"loans"}, []string{"currencies"})
}

// twoLine posts total as a debit against one role and the balancing credit
// against the other. The "currencies" and "loans" roles are keyed by the
// base currency.
func twoLine(t *baseTx, accounts Accounts, debit, credit []string) ([]Entry, error) {
	total, err := t.money("total")
	if err != nil {
		return nil, err
	}
	debitAcc, err := accounts.Number(currencyKeyed(debit, t.cfg.Currency)...)
	if err != nil {
		return nil, err
	}
	creditAcc, err := accounts.Number(currencyKeyed(credit, t.cfg.Currency)...)
	if err != nil {
		return nil, err
	}

	b := newEntryBuilder(t.cfg.Currency)
	b.add(debitAcc, total)
	b.balance(creditAcc)
	return b.entries, nil
}

func currencyKeyed(role []string, currency string) []string {
	if role[0] == "currencies" || role[0] == "loans" {
		return append(role, currency)
	}
	return role
}

func (t *MoveInTx) Entries(accounts Accounts) ([]Entry, error) {
	return moveEntries(&t.baseTx, accounts, true)
}

func (t *MoveOutTx) Entries(accounts Accounts) ([]Entry, error) {
	return moveEntries(&t.baseTx, accounts, false)
}

// moveEntries posts only the commodity leg; the offsetting posting is
// produced by the persistence layer's imbalance handling.
func moveEntries(t *baseTx, accounts Accounts, in bool) ([]Entry, error) {
	total, err := t.money("total")
	if err != nil {
		return nil, err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return nil, err
	}
	targetAcc, err := accounts.Number("targets", target)
	if err != nil {
		return nil, err
	}

	if !in {
		total = total.Neg()
	}
	return []Entry{{Account: targetAcc, Amount: total.Round()}}, nil
}

func (t *TradeTx) Entries(accounts Accounts) ([]Entry, error) {
	if !t.haveCosts {
		return nil, fmt.Errorf("trade: entries require the stock update to run first")
	}
	fee, err := t.money("fee")
	if err != nil {
		return nil, err
	}
	amount, err := t.qty("amount")
	if err != nil {
		return nil, err
	}
	source, err := t.fields.Text("source")
	if err != nil {
		return nil, err
	}
	target, err := t.fields.Text("target")
	if err != nil {
		return nil, err
	}
	sourceAcc, err := accounts.Number("targets", source)
	if err != nil {
		return nil, err
	}
	targetAcc, err := accounts.Number("targets", target)
	if err != nil {
		return nil, err
	}

	effFee := t.effectiveFee(fee)
	acquired := t.costOut.Add(t.burnCost).Sub(effFee)
	recognize := false
	if value, ok := t.marketValue(amount, target); ok {
		acquired = value.Sub(effFee)
		recognize = true
	}

	b := newEntryBuilder(t.cfg.Currency)
	b.add(targetAcc, acquired)
	if effFee.IsPositive() {
		feeAcc, err := accounts.Number("fees")
		if err != nil {
			return nil, err
		}
		b.add(feeAcc, effFee)
	}
	b.add(sourceAcc, t.costOut.Neg())
	if !t.burnCost.IsZero() {
		burn, err := t.fields.Text("burn")
		if err != nil {
			return nil, err
		}
		burnAcc, err := accounts.Number("targets", burn)
		if err != nil {
			return nil, err
		}
		b.add(burnAcc, t.burnCost.Neg())
	}

	if recognize {
		// residual is the gap between market value and cost removed.
		diff := b.residual()
		role := "losses"
		if diff.IsNegative() {
			role = "profits"
		}
		plAcc, err := accounts.Number(role)
		if err != nil {
			return nil, err
		}
		b.balanceAt(len(b.entries), plAcc)
	}
	return b.entries, nil
}

func (t *ExpenseTx) Entries(accounts Accounts) ([]Entry, error) {
	return keyedEntries(&t.baseTx, accounts, "expenses", true)
}

func (t *IncomeTx) Entries(accounts Accounts) ([]Entry, error) {
	return keyedEntries(&t.baseTx, accounts, "incomes", false)
}

// keyedEntries posts total against a role- and target-keyed account, with
// the base-currency account as the other side.
func keyedEntries(t *baseTx, accounts Accounts, role string, debit bool) ([]Entry, error) {
	total, err := t.money("total")
	if err != nil {
		return nil, err
	}
	key, err := t.fields.Text("target")
	if err != nil {
		return nil, err
	}
	keyedAcc, err := accounts.Number(role, key)
	if err != nil {
		return nil, err
	}
	currencyAcc, err := accounts.Number("currencies", t.cfg.Currency)
	if err != nil {
		return nil, err
	}

	b := newEntryBuilder(t.cfg.Currency)
	if debit {
		b.add(keyedAcc, total)
		b.balance(currencyAcc)
	} else {
		b.add(currencyAcc, total)
		b.balance(keyedAcc)
	}
	return b.entries, nil
}

func (t *ErrorTx) Entries(accounts Accounts) ([]Entry, error) {
	// an error marker records nothing in the books.
	return nil, nil
}
