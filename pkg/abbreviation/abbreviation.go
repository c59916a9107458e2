// Package abbreviation parses and expands a compact subset of Emmet
// abbreviations for markup and stylesheet dialects.
package abbreviation

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/syntax"
)

// FieldFunc renders an output field. index starts at 1 and grows in
// output order; placeholder is the default text for the field.
type FieldFunc func(index int, placeholder string) string

// SnippetField renders fields as LSP snippet tab stops.
func SnippetField(index int, placeholder string) string {
	if placeholder == "" {
		return fmt.Sprintf("${%d}", index)
	}
	return fmt.Sprintf("${%d:%s}", index, placeholder)
}

// PlaceholderField renders fields as their literal placeholder text.
func PlaceholderField(_ int, placeholder string) string {
	return placeholder
}

type Config struct {
	Type syntax.Type
	// Syntax is the dialect name, e.g. html or scss.
	Syntax string
	// Inline output is rendered on a single line.
	Inline bool
	// Parent is the enclosing markup element, used to pick implicit tag
	// names for top-level elements.
	Parent string
	// Property is the enclosing stylesheet property. When set, stylesheet
	// abbreviations expand to values of that property.
	Property string
	// Field renders output fields. A nil Field produces LSP snippet syntax
	// and escapes literal text accordingly.
	Field FieldFunc
	// Indent is one level of indentation. Defaults to a tab.
	Indent string
	// SelfClosing selects how empty elements are written: html (<br>),
	// xhtml (<br />) or xml (<br/>). Defaults to the dialect's style.
	SelfClosing string
	// Snippets maps markup snippet names to abbreviations. Entries override
	// the built-in table.
	Snippets map[string]string
}

func (c Config) dialect() syntax.Dialect {
	if d, ok := syntax.Lookup(c.Syntax); ok {
		return d
	}
	if c.Type == syntax.Stylesheet {
		d, _ := syntax.Lookup("css")
		return d
	}
	d, _ := syntax.Lookup("html")
	return d
}

func (c Config) kind() syntax.Type {
	if c.Type != "" {
		return c.Type
	}
	return c.dialect().Type
}

func (c Config) indent() string {
	if c.Indent == "" {
		return "\t"
	}
	return c.Indent
}

// ParseError describes malformed abbreviation text.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %d", e.Message, e.Offset)
}

func newParseError(offset int, format string, args ...any) *ParseError {
	return &ParseError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// Abbreviation is a parsed abbreviation of either kind.
type Abbreviation struct {
	Type       syntax.Type
	Elements   []*Element
	Properties []*Property
}

// Simple reports whether the abbreviation looks like a plain word rather
// than a deliberate expansion: nothing at all, or a single childless,
// unrepeated element whose name is absent or starts lower-case. Stylesheet
// abbreviations are only simple when empty.
func (a *Abbreviation) Simple() bool {
	if a.Type == syntax.Stylesheet {
		return len(a.Properties) == 0
	}
	if len(a.Elements) == 0 {
		return true
	}
	if len(a.Elements) != 1 {
		return false
	}
	el := a.Elements[0]
	if len(el.Children) > 0 || el.Group || el.Repeat > 1 {
		return false
	}
	return el.Name == "" || isLowerInitial(el.Name)
}

func isLowerInitial(s string) bool {
	return s[0] >= 'a' && s[0] <= 'z'
}

// Parse parses text with the parser matching cfg's kind. Malformed text
// yields a *ParseError.
func Parse(text string, cfg Config) (*Abbreviation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newParseError(0, "empty abbreviation")
	}
	if cfg.kind() == syntax.Stylesheet {
		props, err := parseStylesheet(text, cfg.Property != "")
		if err != nil {
			return nil, err
		}
		return &Abbreviation{Type: syntax.Stylesheet, Properties: props}, nil
	}
	elems, err := parseMarkup(text)
	if err != nil {
		return nil, err
	}
	return &Abbreviation{Type: syntax.Markup, Elements: elems}, nil
}

// Render produces output for a parsed abbreviation.
func Render(abbr *Abbreviation, cfg Config) (string, error) {
	if abbr.Type == syntax.Stylesheet {
		return newStylesheetRenderer(cfg).render(abbr.Properties), nil
	}
	out, err := newMarkupRenderer(cfg).render(abbr.Elements)
	if err != nil {
		return "", errors.Errorf("rendering markup: %w", err)
	}
	return out, nil
}

// Expand parses and renders text in one step.
func Expand(text string, cfg Config) (string, error) {
	abbr, err := Parse(text, cfg)
	if err != nil {
		return "", err
	}
	return Render(abbr, cfg)
}

// fields hands out field indexes in output order.
type fields struct {
	fn    FieldFunc
	index int
	// escape is set in snippet mode, where literal `$`, `}` and `\` would
	// otherwise be read as snippet syntax.
	escape bool
}

func newFields(fn FieldFunc) *fields {
	if fn == nil {
		return &fields{fn: SnippetField, escape: true}
	}
	return &fields{fn: fn}
}

func (f *fields) next(placeholder string) string {
	f.index++
	return f.fn(f.index, f.literal(placeholder))
}

var snippetEscaper = strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`)

func (f *fields) literal(s string) string {
	if !f.escape {
		return s
	}
	return snippetEscaper.Replace(s)
}
