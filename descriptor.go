package stockbook

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oksanen/stockbook/texter"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Descriptor is the normalized transaction form produced by the per-broker
// import adapters. It is the single input surface of the core: one
// descriptor per financial event, fields left nil/empty when the adapter
// has nothing to say about them.
type Descriptor struct {
	Kind     string           `json:"kind"`
	Date     string           `json:"date,omitempty"` // 2006-01-02
	Total    *decimal.Decimal `json:"total,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Target   string           `json:"target,omitempty"`
	Source   string           `json:"source,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Given    *decimal.Decimal `json:"given,omitempty"`
	Fee      *decimal.Decimal `json:"fee,omitempty"`
	Tax      *decimal.Decimal `json:"tax,omitempty"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	Burned   *decimal.Decimal `json:"burned,omitempty"`
	Burn     string           `json:"burn,omitempty"`
	Notes    string           `json:"notes,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
}

// fields flattens the descriptor into the factory's value map, keeping only
// what the adapter actually supplied.
func (d Descriptor) fields() map[string]any {
	values := make(map[string]any)
	addNumber := func(name string, v *decimal.Decimal) {
		if v != nil {
			values[name] = *v
		}
	}
	addText := func(name, v string) {
		if v != "" {
			values[name] = v
		}
	}
	addNumber("total", d.Total)
	addNumber("amount", d.Amount)
	addNumber("given", d.Given)
	addNumber("fee", d.Fee)
	addNumber("tax", d.Tax)
	addNumber("rate", d.Rate)
	addNumber("burned", d.Burned)
	addText("currency", d.Currency)
	addText("target", d.Target)
	addText("source", d.Source)
	addText("burn", d.Burn)
	addText("notes", d.Notes)
	if len(d.Tags) > 0 {
		values["tags"] = d.Tags
	}
	return values
}

// Day parses the descriptor date; the zero time when absent.
func (d Descriptor) Day() (time.Time, error) {
	if d.Date == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse("2006-01-02", d.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("descriptor date %q: %w", d.Date, err)
	}
	return day, nil
}

// ReadDescriptors decodes a JSONL stream of descriptors from 'r', one per
// line, skipping blank lines.
func ReadDescriptors(r io.Reader) ([]Descriptor, error) {
	var descriptors []Descriptor
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var d Descriptor
		if err := json.Unmarshal(line, &d); err != nil {
			return nil, fmt.Errorf("cannot parse descriptor line %q: %w", string(line), err)
		}
		descriptors = append(descriptors, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return descriptors, nil
}

// Record is the output of processing one descriptor: the postings for the
// ledger store and the rendered sentence persisted next to them.
type Record struct {
	Kind    Kind    `json:"kind"`
	Date    string  `json:"date,omitempty"`
	Entries []Entry `json:"entries"`
	Text    string  `json:"text"`
}

// Book is the import pipeline: configuration, the shared cost-basis
// tracker, the compiled description templates and the optional rate
// collaborator. It is strictly sequential; callers feed descriptors sorted
// by timestamp ascending, because the tracker's average is a running fold
// over history.
type Book struct {
	cfg   *Config
	stock *Stock
	texts *texter.Set
	rates RateSource
}

// NewBook assembles a pipeline from configuration. 'rates' may be nil when
// trade profit recognition is off.
func NewBook(cfg *Config, rates RateSource) (*Book, error) {
	catalog, ok := texter.Builtin(cfg.Language)
	if !ok {
		return nil, fmt.Errorf("no template catalog for language %q", cfg.Language)
	}
	texts, err := texter.NewSet(catalog, cfg.Currency, cfg.ServiceVars())
	if err != nil {
		return nil, err
	}
	return &Book{
		cfg:   cfg,
		stock: NewStock(cfg.Currency),
		texts: texts,
		rates: rates,
	}, nil
}

// Stock exposes the shared tracker, e.g. for seeding it from recovered
// history before the first descriptor.
func (b *Book) Stock() *Stock { return b.stock }

// Texts exposes the compiled template set, e.g. for history replay.
func (b *Book) Texts() *texter.Set { return b.texts }

// Process turns one descriptor into a variant, applies it to the tracker,
// and produces the postings and the rendered sentence. The posting list of
// every kind except move-in/move-out sums to exactly zero; that invariant
// is asserted here before anything is handed out.
func (b *Book) Process(d Descriptor) (*Record, error) {
	day, err := d.Day()
	if err != nil {
		return nil, err
	}
	tx, err := New(Kind(d.Kind), d.fields(), b.cfg, WithRates(b.rates, day))
	if err != nil {
		return nil, err
	}
	if err := tx.UpdateStock(b.stock); err != nil {
		return nil, fmt.Errorf("%s: %w", d.Kind, err)
	}
	entries, err := tx.Entries(b.cfg.Accounts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Kind, err)
	}
	if k := tx.Kind(); k != KindMoveIn && k != KindMoveOut {
		if err := Balance(entries); err != nil {
			return nil, fmt.Errorf("%s: %w", d.Kind, err)
		}
	}
	text, err := b.texts.Render(string(tx.Kind()), texter.Values(tx.Fields().Values()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Kind, err)
	}
	return &Record{Kind: tx.Kind(), Date: d.Date, Entries: entries, Text: text}, nil
}
