package stockbook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Flags toggles optional accounting behavior.
type Flags struct {
	// NoProfit suppresses profit/loss recognition on sales: the commodity
	// leg is posted at net proceeds and no P/L leg is emitted.
	NoProfit bool `yaml:"no-profit"`
	// TradeProfit recognizes profit/loss immediately on trades, when a
	// same-day market rate for the acquired symbol is resolvable.
	TradeProfit bool `yaml:"trade-profit"`
}

// Config is the explicit, immutable configuration value threaded into the
// tracker, the variant factory and the description codec. There is no
// process-wide mutable state.
type Config struct {
	// Currency is the base currency of the books, ISO 4217.
	Currency string `yaml:"currency"`
	// Language selects the description template catalog, "fi" by default.
	Language string `yaml:"language"`
	// Service names the import service currently being processed; it keys
	// into Services for the codec's config-variable placeholders.
	Service string `yaml:"service"`

	Flags    Flags    `yaml:"flags"`
	Accounts Accounts `yaml:"accounts"`

	// Services holds per-service variables referenced by templates, for
	// example the service display name.
	Services map[string]map[string]string `yaml:"services"`
}

// ParseConfig decodes and validates a YAML configuration document.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse configuration: %w", err)
	}
	if err := ValidateCurrency(cfg.Currency); err != nil {
		return nil, fmt.Errorf("invalid base currency: %w", err)
	}
	if cfg.Language == "" {
		cfg.Language = "fi"
	}
	if cfg.Accounts == nil {
		cfg.Accounts = make(Accounts)
	}
	return cfg, nil
}

// LoadConfig reads and parses the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ServiceVars returns the template variables of the active service, empty
// when the service has none configured.
func (c *Config) ServiceVars() map[string]string {
	return c.Services[c.Service]
}
