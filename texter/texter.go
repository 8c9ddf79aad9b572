// Package texter encodes a transaction's fields as a localized
// natural-language sentence and decodes such a sentence back into a field
// map. The sentence is the only durable record of structured state in the
// bookkeeping store, so the two directions must round-trip losslessly:
// for every built-in template, Render(Parse(Render(fields))) produces the
// exact same text.
package texter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Values is the field map exchanged with the codec. Numeric fields are
// decimal.Decimal, symbols and codes are strings, and "tags" is []string.
type Values map[string]any

// Match is the result of a successful Parse.
type Match struct {
	Kind   string
	Values Values
	Tags   []string
}

// Set holds the compiled templates of one language, bound to one service's
// configuration variables and one base currency. The compiled cache is
// built once and must be treated as read-only afterwards.
type Set struct {
	catalog    Catalog
	vars       map[string]string
	baseSymbol string

	mains   []*compiled
	clauses []*compiled

	// mains whose config variables were unavailable at compile time; kept
	// so that rendering that kind reports the configuration error instead
	// of "unknown kind".
	broken map[string]error
}

// NewSet compiles a catalog against the given base currency and service
// variables. Templates referencing a missing service variable are excluded
// from decoding and report a configuration error when rendered.
func NewSet(catalog Catalog, baseCurrency string, vars map[string]string) (*Set, error) {
	if vars == nil {
		vars = map[string]string{}
	}
	s := &Set{
		catalog:    catalog,
		vars:       vars,
		baseSymbol: Symbol(baseCurrency),
		broken:     make(map[string]error),
	}

	for _, t := range catalog.Templates {
		c, err := s.compileTemplate(t.Kind, "", t.Text, t.Options)
		if err != nil {
			if errors.Is(err, errVarNotSet) {
				s.broken[t.Kind] = err
				continue
			}
			return nil, fmt.Errorf("template for %s: %w", t.Kind, err)
		}
		s.mains = append(s.mains, c)
	}
	for _, cl := range catalog.Clauses {
		c, err := s.compileTemplate("", cl.Name, cl.Text, nil)
		if err != nil {
			return nil, fmt.Errorf("option clause %s: %w", cl.Name, err)
		}
		s.clauses = append(s.clauses, c)
	}
	return s, nil
}

// main returns the compiled main template for a kind.
func (s *Set) main(kind string) (*compiled, error) {
	for _, c := range s.mains {
		if c.kind == kind {
			return c, nil
		}
	}
	if err, ok := s.broken[kind]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("no template for kind %q", kind)
}

func (s *Set) clause(name string) (*compiled, error) {
	for _, c := range s.clauses {
		if c.clause == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no option clause %q", name)
}

// Render encodes a field map as the kind's sentence. Option clauses are
// appended, comma separated, inside one trailing parenthesis; a clause is
// included when every field it references is present. Tags render as
// leading brackets.
func (s *Set) Render(kind string, values Values) (string, error) {
	main, err := s.main(kind)
	if err != nil {
		return "", err
	}
	text, err := main.render(s, values)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}

	var opts []string
	for _, name := range main.options {
		cl, err := s.clause(name)
		if err != nil {
			return "", err
		}
		if !hasAll(values, cl.fields()) {
			continue
		}
		part, err := cl.render(s, values)
		if err != nil {
			return "", fmt.Errorf("render %s option %s: %w", kind, name, err)
		}
		opts = append(opts, part)
	}
	if len(opts) > 0 {
		text += " (" + strings.Join(opts, ", ") + ")"
	}

	if tags, ok := values["tags"].([]string); ok && len(tags) > 0 {
		var prefix strings.Builder
		for _, tag := range tags {
			prefix.WriteString("[" + tag + "]")
		}
		text = prefix.String() + " " + text
	}
	return text, nil
}

func hasAll(values Values, names []string) bool {
	for _, name := range names {
		if _, ok := values[name]; !ok {
			return false
		}
	}
	return true
}

var tagPrefix = regexp.MustCompile(`^\[([^\[\]]+)\]\s*`)

// Parse decodes a persisted sentence back into a transaction skeleton:
// the matched kind and the merged field map. Template matching is
// first-match-wins in catalog registration order. A text no template
// recognizes returns ok=false; that is an expected outcome during history
// replay, not an error.
func (s *Set) Parse(text string) (Match, bool) {
	var m Match

	// 1. leading [Tag] brackets, in order.
	for {
		groups := tagPrefix.FindStringSubmatch(text)
		if groups == nil {
			break
		}
		m.Tags = append(m.Tags, groups[1])
		text = text[len(groups[0]):]
	}

	// 2. one trailing parenthesized options clause.
	full := text
	var options string
	if strings.HasSuffix(text, ")") {
		if idx := strings.LastIndex(text, " ("); idx >= 0 {
			options = text[idx+2 : len(text)-1]
			text = text[:idx]
		}
	}

	// 3. main templates, registration order, first match wins.
	for _, c := range s.mains {
		values, ok := c.match(text)
		if !ok {
			continue
		}
		m.Kind = c.kind
		m.Values = values
		break
	}
	if m.Kind == "" {
		return Match{}, false
	}

	// 4. each option fragment independently, merging recognized fields.
	if options != "" {
		merged := 0
		for _, fragment := range strings.Split(options, ", ") {
			for _, c := range s.clauses {
				values, ok := c.match(fragment)
				if !ok {
					continue
				}
				for name, v := range values {
					m.Values[name] = v
				}
				merged++
				break
			}
		}
		// A parenthetical no clause recognizes usually belongs to the
		// sentence itself, e.g. free-form notes ending in "(...)". Prefer a
		// template that accepts the full text so those survive the round
		// trip.
		if merged == 0 {
			for _, c := range s.mains {
				if values, ok := c.match(full); ok {
					m.Kind = c.kind
					m.Values = values
					break
				}
			}
		}
	}

	if len(m.Tags) > 0 {
		m.Values["tags"] = m.Tags
	}
	return m, true
}
