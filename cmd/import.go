package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/google/subcommands"
	"github.com/oksanen/stockbook"
	"github.com/oksanen/stockbook/texter"
)

type importCmd struct {
	config  string
	input   string
	history string
	rates   string
}

func (*importCmd) Name() string { return "import" }
func (*importCmd) Synopsis() string {
	return "process normalized descriptors into postings and description sentences"
}
func (*importCmd) Usage() string {
	return `stockbook import [-c <config>] [-i <descriptors.jsonl>] [-history <texts>] [-rates <rates.json>]

  Reads descriptors (JSONL, oldest first), runs each through the cost-basis
  tracker, and writes one record per line: the balanced postings and the
  rendered sentence. With -history, tracker state is first recovered from
  previously stored sentences (newest first).
`
}

func (p *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.config, "c", "", "Path to the configuration file.")
	f.StringVar(&p.input, "i", "-", "Descriptor input file, '-' for stdin.")
	f.StringVar(&p.history, "history", "", "File of stored sentences used to seed the tracker, newest first.")
	f.StringVar(&p.rates, "rates", "", "JSON rate table for trade profit recognition.")
}

func (p *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(p.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	rates, err := p.loadRates()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	book, err := stockbook.NewBook(cfg, rates)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if p.history != "" {
		if err := p.seed(book); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}

	in, done, err := openInput(p.input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer done()

	descriptors, err := stockbook.ReadDescriptors(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	out := json.NewEncoder(os.Stdout)
	for i, d := range descriptors {
		record, err := book.Process(d)
		if err != nil {
			fmt.Fprintf(os.Stderr, "descriptor %d: %v\n", i+1, err)
			return subcommands.ExitFailure
		}
		if err := out.Encode(record); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// seed recovers tracker state from stored sentences before processing. The
// symbols to recover are everything the descriptors could touch, which is
// not knowable up front, so every symbol mentioned in history is taken.
func (p *importCmd) seed(book *stockbook.Book) error {
	texts, err := readLines(p.history)
	if err != nil {
		return err
	}
	symbols := mentionedSymbols(texts, book.Texts())
	states := stockbook.RecoverStock(slices.Values(texts), symbols, book.Texts())
	stockbook.SeedStock(book.Stock(), states)
	return nil
}

// mentionedSymbols collects every symbol any decodable sentence refers to.
func mentionedSymbols(texts []string, set *texter.Set) []string {
	seen := map[string]bool{}
	for _, text := range texts {
		m, ok := set.Parse(text)
		if !ok {
			continue
		}
		for _, field := range []string{"target", "source"} {
			if symbol, ok := m.Values[field].(string); ok {
				seen[symbol] = true
			}
		}
	}
	var symbols []string
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	slices.Sort(symbols)
	return symbols
}

func (p *importCmd) loadRates() (stockbook.RateSource, error) {
	if p.rates == "" {
		return nil, nil
	}
	data, err := os.ReadFile(p.rates)
	if err != nil {
		return nil, err
	}
	var table stockbook.RateTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%s: %w", p.rates, err)
	}
	return table, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
