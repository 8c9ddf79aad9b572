package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/oksanen/stockbook/texter"
)

type decodeCmd struct {
	config string
	input  string
}

func (*decodeCmd) Name() string     { return "decode" }
func (*decodeCmd) Synopsis() string { return "decode stored sentences back into their fields" }
func (*decodeCmd) Usage() string {
	return `stockbook decode [-c <config>] [-i <texts>]

  Reads description sentences, one per line, and prints the decoded kind and
  field map of each as JSON. Lines no template recognizes are reported on
  stderr and skipped.
`
}

func (p *decodeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.config, "c", "", "Path to the configuration file.")
	f.StringVar(&p.input, "i", "-", "Sentence input file, '-' for stdin.")
}

func (p *decodeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	out := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		m, ok := set.Parse(text)
		if !ok {
			fmt.Fprintf(os.Stderr, "line %d: no template matches %q\n", line, text)
			continue
		}
		if err := out.Encode(decoded{Kind: m.Kind, Values: m.Values}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type decoded struct {
	Kind   string        `json:"kind"`
	Values texter.Values `json:"values"`
}

// loadTexter builds the template set of the configured language and service.
func loadTexter(configOverride string) (*texter.Set, error) {
	cfg, err := loadConfig(configOverride)
	if err != nil {
		return nil, err
	}
	catalog, ok := texter.Builtin(cfg.Language)
	if !ok {
		return nil, fmt.Errorf("no template catalog for language %q", cfg.Language)
	}
	return texter.NewSet(catalog, cfg.Currency, cfg.ServiceVars())
}
