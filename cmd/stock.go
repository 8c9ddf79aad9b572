package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/google/subcommands"
	"github.com/oksanen/stockbook"
)

type stockCmd struct {
	config  string
	history string
}

func (*stockCmd) Name() string     { return "stock" }
func (*stockCmd) Synopsis() string { return "recover tracker state from stored sentences" }
func (*stockCmd) Usage() string {
	return `stockbook stock [-c <config>] -history <texts> [symbol ...]

  Replays stored sentences (newest first) and prints the recovered held
  quantity and average cost per symbol. Without arguments, every symbol
  mentioned in history is recovered.
`
}

func (p *stockCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.config, "c", "", "Path to the configuration file.")
	f.StringVar(&p.history, "history", "", "File of stored sentences, newest first.")
}

func (p *stockCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.history == "" {
		fmt.Fprintln(os.Stderr, "stock: -history is required")
		return subcommands.ExitUsageError
	}
	set, err := loadTexter(p.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	texts, err := readLines(p.history)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	symbols := f.Args()
	if len(symbols) == 0 {
		symbols = mentionedSymbols(texts, set)
	}

	states := stockbook.RecoverStock(slices.Values(texts), symbols, set)
	for _, symbol := range symbols {
		state, ok := states[symbol]
		if !ok {
			fmt.Printf("%s\tnot mentioned in history\n", symbol)
			continue
		}
		avg := state.Average.String()
		if !state.HasAverage {
			avg = "?"
		}
		fmt.Printf("%s\t%s\t%s\n", symbol, state.Quantity, avg)
	}
	return subcommands.ExitSuccess
}

// checkCmd verifies the round-trip contract over stored sentences: every
// decodable line must render back to the exact same text.
type checkCmd struct {
	config string
	input  string
	strict bool
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "verify that stored sentences decode and re-encode losslessly" }
func (*checkCmd) Usage() string {
	return `stockbook check [-c <config>] [-i <texts>] [-strict]

  Decodes every sentence and renders it back. Any sentence that does not
  reproduce itself exactly is reported; with -strict, undecodable lines are
  failures too.
`
}

func (p *checkCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.config, "c", "", "Path to the configuration file.")
	f.StringVar(&p.input, "i", "-", "Sentence input file, '-' for stdin.")
	f.BoolVar(&p.strict, "strict", false, "Treat undecodable lines as failures.")
}

func (p *checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	set, err := loadTexter(p.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	in, done, err := openInput(p.input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer done()

	failures := 0
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		m, ok := set.Parse(text)
		if !ok {
			if p.strict {
				fmt.Fprintf(os.Stderr, "line %d: undecodable: %q\n", line, text)
				failures++
			}
			continue
		}
		again, err := set.Render(m.Kind, m.Values)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: re-render failed: %v\n", line, err)
			failures++
			continue
		}
		if again != text {
			fmt.Fprintf(os.Stderr, "line %d: drift:\n  stored:   %q\n  rendered: %q\n", line, text, again)
			failures++
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d failing lines\n", failures)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
