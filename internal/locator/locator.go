package locator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Strategy is the addressing scheme a Locator uses
type Strategy int

const (
	ByID Strategy = iota
	ByName
	ByXPath
)

var strategyNames = map[Strategy]string{
	ByID:    "id",
	ByName:  "name",
	ByXPath: "xpath",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a strategy name (id, name, xpath) to its Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "id":
		return ByID, nil
	case "name":
		return ByName, nil
	case "xpath":
		return ByXPath, nil
	default:
		return 0, fmt.Errorf("unknown locator strategy: %q (supported: id, name, xpath)", name)
	}
}

var (
	ErrEmptyValue      = errors.New("locator value is empty")
	ErrUnknownStrategy = errors.New("unknown locator strategy")
)

// Locator identifies zero or more elements relative to a search root.
// The zero value is not a valid Locator; build one with New or Parse.
type Locator struct {
	Strategy Strategy
	Value    string
}

// New builds a Locator, rejecting an empty value
func New(strategy Strategy, value string) (Locator, error) {
	if _, ok := strategyNames[strategy]; !ok {
		return Locator{}, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(strategy))
	}
	if strings.TrimSpace(value) == "" {
		return Locator{}, ErrEmptyValue
	}
	return Locator{Strategy: strategy, Value: value}, nil
}

// ID, Name and XPath build locators for literal values known to be non-empty.
func ID(value string) Locator    { return Locator{Strategy: ByID, Value: value} }
func Name(value string) Locator  { return Locator{Strategy: ByName, Value: value} }
func XPath(value string) Locator { return Locator{Strategy: ByXPath, Value: value} }

// Parse reads the text form "strategy=value". A bare value that looks like
// an XPath expression (leading "/", "./" or "(") is accepted as ByXPath.
func Parse(text string) (Locator, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Locator{}, ErrEmptyValue
	}
	if looksLikeXPath(text) {
		return New(ByXPath, text)
	}

	prefix, value, ok := strings.Cut(text, "=")
	if !ok {
		return Locator{}, fmt.Errorf("invalid locator %q: expected strategy=value", text)
	}
	strategy, err := ParseStrategy(prefix)
	if err != nil {
		return Locator{}, err
	}
	return New(strategy, strings.TrimSpace(value))
}

// MustParse is Parse for literals; it panics on error
func MustParse(text string) Locator {
	loc, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return loc
}

func (l Locator) String() string {
	return l.Strategy.String() + "=" + l.Value
}

// IsZero reports whether l was never initialized
func (l Locator) IsZero() bool {
	return l.Value == ""
}

// Validate checks the non-empty value invariant
func (l Locator) Validate() error {
	_, err := New(l.Strategy, l.Value)
	return err
}

// MarshalText implements encoding.TextMarshaler so locators serialize in
// their "strategy=value" form.
func (l Locator) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Locator) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ScopedXPath rewrites the absolute location paths of an XPath expression so
// that they are evaluated relative to the context node instead of the
// document. Every path that opens the expression, a parenthesized group or a
// union branch is rewritten. Predicates and string literals are left alone;
// they filter nodes but never select them.
func ScopedXPath(expr string) string {
	expr = strings.TrimSpace(expr)

	var (
		b          strings.Builder
		quote      rune
		predicates int
		atStart    = true
	)
	b.Grow(len(expr) + 2)
	for _, r := range expr {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '[':
			predicates++
		case r == ']':
			predicates--
		case r == '/' && atStart:
			b.WriteByte('.')
		}
		b.WriteRune(r)

		if unicode.IsSpace(r) {
			continue
		}
		atStart = quote == 0 && predicates == 0 && (r == '(' || r == '|')
	}
	return b.String()
}

func looksLikeXPath(text string) bool {
	return strings.HasPrefix(text, "/") || strings.HasPrefix(text, "./") || strings.HasPrefix(text, "(")
}
