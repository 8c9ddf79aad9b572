package texter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// errVarNotSet reports a template referencing a configuration variable the
// active service does not define.
var errVarNotSet = errors.New("config variable is not set")

// A template is literal text interleaved with typed placeholders of the form
// <sigil>{name}:
//
//	C{name}  a configuration variable of the active service
//	={name}  the raw field value
//	+{name}  a signed decimal, rendered with 8 fixed decimals
//	#{name}  an unsigned decimal, rendered with 8 fixed decimals
//	${name}  a currency amount, rendered with 2 decimals and grouping
//	£{name}  the currency symbol for the field's ISO code
//	X{$}     the literal base-currency symbol
//
// The placeholder set is the whole grammar: everything else is literal text,
// matched verbatim on decode.

// sigils accepted in front of a '{'.
const sigils = "C=+#$£X"

type placeholder struct {
	sigil rune
	name  string
}

// segment is one piece of a parsed template: either a literal or a
// placeholder.
type segment struct {
	literal string
	ph      *placeholder
}

// splitTemplate cuts a template source into segments.
func splitTemplate(source string) ([]segment, error) {
	var segments []segment
	var literal strings.Builder

	runes := []rune(source)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if strings.ContainsRune(sigils, r) && i+1 < len(runes) && runes[i+1] == '{' {
			end := -1
			for j := i + 2; j < len(runes); j++ {
				if runes[j] == '}' {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, fmt.Errorf("unclosed placeholder in template %q", source)
			}
			if literal.Len() > 0 {
				segments = append(segments, segment{literal: literal.String()})
				literal.Reset()
			}
			segments = append(segments, segment{ph: &placeholder{sigil: r, name: string(runes[i+2 : end])}})
			i = end
			continue
		}
		literal.WriteRune(r)
	}
	if literal.Len() > 0 {
		segments = append(segments, segment{literal: literal.String()})
	}
	return segments, nil
}

// capture describes one regex capture group of a compiled template: which
// field it fills and how the captured text converts to a value.
type capture struct {
	name    string
	convert func(string) (any, error)
}

// compiled is a template ready for both directions: segments for rendering,
// an anchored regex plus captures for decoding.
type compiled struct {
	kind     string   // transaction kind, or "" for an option clause
	clause   string   // option clause name, or "" for a main template
	options  []string // option clauses rendered for this kind
	segments []segment
	re       *regexp.Regexp
	captures []capture
}

// compileTemplate builds the compiled form against a Set's service variables
// and base-currency symbol. The regex is anchored whole-line; placeholders
// become capture groups in declared order.
func (s *Set) compileTemplate(kind, clause, source string, options []string) (*compiled, error) {
	segments, err := splitTemplate(source)
	if err != nil {
		return nil, err
	}

	var pattern strings.Builder
	var captures []capture
	pattern.WriteString("^")
	for _, seg := range segments {
		if seg.ph == nil {
			pattern.WriteString(regexp.QuoteMeta(seg.literal))
			continue
		}
		ph := seg.ph
		switch ph.sigil {
		case 'C':
			value, ok := s.vars[ph.name]
			if !ok {
				return nil, fmt.Errorf("%q: %w", ph.name, errVarNotSet)
			}
			pattern.WriteString(regexp.QuoteMeta(value))
		case 'X':
			pattern.WriteString(regexp.QuoteMeta(s.baseSymbol))
		case '=':
			pattern.WriteString("(.+?)")
			captures = append(captures, capture{name: ph.name, convert: convertRaw(ph.name)})
		case '+':
			pattern.WriteString(`([-+][0-9.]+)`)
			captures = append(captures, capture{name: ph.name, convert: convertDecimal})
		case '#':
			pattern.WriteString(`([0-9.]+)`)
			captures = append(captures, capture{name: ph.name, convert: convertDecimal})
		case '$':
			pattern.WriteString(`(-?[0-9.,]+)`)
			captures = append(captures, capture{name: ph.name, convert: convertGrouped})
		case '£':
			pattern.WriteString("(.+?)")
			captures = append(captures, capture{name: ph.name, convert: convertSymbol})
		default:
			return nil, fmt.Errorf("unknown placeholder sigil %q in template %q", ph.sigil, source)
		}
	}
	pattern.WriteString("$")

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", source, err)
	}
	return &compiled{
		kind:     kind,
		clause:   clause,
		options:  options,
		segments: segments,
		re:       re,
		captures: captures,
	}, nil
}

// render substitutes every placeholder left to right. A referenced field
// missing from the values, or an unset config variable, is a fatal error.
func (c *compiled) render(s *Set, values Values) (string, error) {
	var out strings.Builder
	for _, seg := range c.segments {
		if seg.ph == nil {
			out.WriteString(seg.literal)
			continue
		}
		ph := seg.ph
		switch ph.sigil {
		case 'C':
			value, ok := s.vars[ph.name]
			if !ok {
				return "", fmt.Errorf("%q: %w", ph.name, errVarNotSet)
			}
			out.WriteString(value)
		case 'X':
			out.WriteString(s.baseSymbol)
		default:
			value, ok := values[ph.name]
			if !ok {
				return "", fmt.Errorf("field %q is not set", ph.name)
			}
			text, err := renderValue(ph.sigil, value)
			if err != nil {
				return "", fmt.Errorf("field %q: %w", ph.name, err)
			}
			out.WriteString(text)
		}
	}
	return out.String(), nil
}

// fields returns the names of the value-bearing placeholders, used to decide
// whether an option clause can be rendered.
func (c *compiled) fields() []string {
	var names []string
	for _, seg := range c.segments {
		if seg.ph != nil && seg.ph.sigil != 'C' && seg.ph.sigil != 'X' {
			names = append(names, seg.ph.name)
		}
	}
	return names
}

// match tries the compiled regex and converts every capture. A conversion
// failure counts as no match, so the next template gets its turn.
func (c *compiled) match(text string) (Values, bool) {
	groups := c.re.FindStringSubmatch(text)
	if groups == nil {
		return nil, false
	}
	values := make(Values, len(c.captures))
	for i, cap := range c.captures {
		v, err := cap.convert(groups[i+1])
		if err != nil {
			return nil, false
		}
		values[cap.name] = v
	}
	return values, true
}

// --- value rendering ---

func renderValue(sigil rune, value any) (string, error) {
	switch sigil {
	case '=':
		switch v := value.(type) {
		case string:
			return v, nil
		case decimal.Decimal:
			return v.String(), nil
		default:
			return "", fmt.Errorf("cannot render %T", value)
		}
	case '+':
		d, ok := value.(decimal.Decimal)
		if !ok {
			return "", fmt.Errorf("expected decimal, got %T", value)
		}
		text := d.StringFixed(8)
		if !strings.HasPrefix(text, "-") {
			text = "+" + text
		}
		return text, nil
	case '#':
		d, ok := value.(decimal.Decimal)
		if !ok {
			return "", fmt.Errorf("expected decimal, got %T", value)
		}
		return d.StringFixed(8), nil
	case '$':
		d, ok := value.(decimal.Decimal)
		if !ok {
			return "", fmt.Errorf("expected decimal, got %T", value)
		}
		return groupedFixed2(d), nil
	case '£':
		code, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("expected currency code, got %T", value)
		}
		return Symbol(code), nil
	default:
		return "", fmt.Errorf("unknown sigil %q", sigil)
	}
}

// groupedFixed2 renders a decimal with two fixed decimals and comma
// grouping, like "1,234.56".
func groupedFixed2(d decimal.Decimal) string {
	text := d.StringFixed(2)
	neg := strings.HasPrefix(text, "-")
	if neg {
		text = text[1:]
	}
	intPart, frac, _ := strings.Cut(text, ".")

	var out strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteByte(intPart[i])
	}
	grouped := out.String() + "." + frac
	if neg {
		grouped = "-" + grouped
	}
	return grouped
}

// --- capture conversion ---

func convertDecimal(text string) (any, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(text, "+"))
	if err != nil {
		return nil, err
	}
	return d, nil
}

func convertGrouped(text string) (any, error) {
	return convertDecimal(strings.ReplaceAll(text, ",", ""))
}

func convertSymbol(text string) (any, error) {
	code, ok := CodeOfSymbol(text)
	if !ok {
		return nil, fmt.Errorf("unknown currency symbol %q", text)
	}
	return code, nil
}

// convertRaw keeps the captured text as-is, with two refinements: a capture
// for the "currency" field is mapped through the symbol table, and anything
// that parses as a number becomes one.
func convertRaw(name string) func(string) (any, error) {
	return func(text string) (any, error) {
		if name == "currency" {
			if code, ok := CodeOfSymbol(text); ok {
				return code, nil
			}
			return nil, fmt.Errorf("unknown currency %q", text)
		}
		if d, err := decimal.NewFromString(text); err == nil {
			return d, nil
		}
		return text, nil
	}
}
