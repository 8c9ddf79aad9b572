// Package cmd implements the CLI application around the bookkeeping core:
// importing normalized descriptors, decoding stored sentences and
// recovering tracker state from history.
package cmd

import (
	"os"

	"github.com/google/subcommands"
	"github.com/oksanen/stockbook"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on
// the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "bookkeeping")
	c.Register(&decodeCmd{}, "bookkeeping")
	c.Register(&stockCmd{}, "bookkeeping")
	c.Register(&checkCmd{}, "bookkeeping")
}

// configPath returns the configuration file location: the STOCKBOOK_CONFIG
// environment variable when set (a .env file is loaded by main before this
// runs), "stockbook.yaml" otherwise.
func configPath() string {
	if path := os.Getenv("STOCKBOOK_CONFIG"); path != "" {
		return path
	}
	return "stockbook.yaml"
}

// loadConfig reads the application configuration.
func loadConfig(override string) (*stockbook.Config, error) {
	path := override
	if path == "" {
		path = configPath()
	}
	return stockbook.LoadConfig(path)
}

// openInput returns the named file, or stdin for "-".
func openInput(name string) (*os.File, func(), error) {
	if name == "-" || name == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
