package stockbook

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Accounts resolves a logical account role to a concrete account number.
// Roles are dotted paths: plain ones like "bank", "fees", "profits",
// "losses", "dividends", "interest", "imbalance", and keyed ones like
// "targets.BTC", "currencies.EUR", "taxes.source", "loans.EUR",
// "expenses.bank", "incomes.misc".
//
// The mapping is external configuration and read-only to the core.
type Accounts map[string]string

// Number resolves a role path to an account number. A missing mapping is a
// fatal configuration error, raised here at the point of first use.
func (a Accounts) Number(parts ...string) (string, error) {
	role := strings.Join(parts, ".")
	number, ok := a[role]
	if !ok {
		return "", fmt.Errorf("account role %q is not configured", role)
	}
	return number, nil
}

// UnmarshalYAML flattens the nested role tree of the configuration file
// into dotted paths, so that
//
//	accounts:
//	  bank: "1910"
//	  targets:
//	    BTC: "1549"
//
// yields {"bank": "1910", "targets.BTC": "1549"}.
func (a *Accounts) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*a = make(Accounts)
	return flattenRoles("", raw, *a)
}

func flattenRoles(prefix string, raw map[string]any, out Accounts) error {
	for key, v := range raw {
		role := key
		if prefix != "" {
			role = prefix + "." + key
		}
		switch t := v.(type) {
		case string:
			out[role] = t
		case int:
			// account numbers are commonly written unquoted
			out[role] = strconv.Itoa(t)
		case map[string]any:
			if err := flattenRoles(role, t, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("account role %q: expected account number or nested roles, got %T", role, v)
		}
	}
	return nil
}
