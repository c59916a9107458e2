package abbreviation

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"gitlab.com/tozd/go/errors"
)

var (
	stylesheetLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Color", Pattern: `#[0-9A-Za-z]*`},
		{Name: "Number", Pattern: `\d*\.\d+|\d+`},
		{Name: "Name", Pattern: `[A-Za-z]+`},
		{Name: "Punct", Pattern: `[-+:!]`},
		{Name: "Char", Pattern: `[\s\S]`},
	})

	stylesheetSymbols = stylesheetLexer.Symbols()
)

type ValueKind int

const (
	NumberValue ValueKind = iota
	KeywordValue
	ColorValue
)

type Value struct {
	Kind ValueKind
	// Text is the number, keyword abbreviation or hex digits as typed.
	Text     string
	Unit     string
	Negative bool
}

// Property is one `+`-separated part of a stylesheet abbreviation.
type Property struct {
	// Name is the property abbreviation as typed; empty when the
	// abbreviation is a bare value.
	Name string
	// Keyword is the part after `:` in `name:keyword`.
	Keyword   string
	Values    []Value
	Important bool
	Offset    int
}

type stylesheetParser struct {
	text string
	toks []lexer.Token
	pos  int
}

// parseStylesheet parses `+`-joined properties. In value scope the text is a
// list of values for an already known property.
func parseStylesheet(text string, valueScope bool) ([]*Property, error) {
	lex, err := stylesheetLexer.LexString("", text)
	if err != nil {
		return nil, newParseError(0, "tokenizing: %v", err)
	}
	toks, err := lexer.ConsumeAll(lex)
	if err != nil {
		var lerr *lexer.Error
		if errors.As(err, &lerr) {
			return nil, newParseError(lerr.Pos.Offset, "%s", lerr.Msg)
		}
		return nil, newParseError(0, "tokenizing: %v", err)
	}

	p := &stylesheetParser{text: text, toks: toks}
	var props []*Property
	for {
		prop, err := p.property(valueScope)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)

		tok := p.peek()
		switch {
		case tok.EOF():
			return props, nil
		case p.is(tok, "Punct", "+") && !valueScope:
			p.next()
			if p.peek().EOF() {
				return props, nil
			}
		default:
			return nil, p.unexpected(tok)
		}
	}
}

func (p *stylesheetParser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *stylesheetParser) next() lexer.Token {
	tok := p.toks[p.pos]
	if !tok.EOF() {
		p.pos++
	}
	return tok
}

func (p *stylesheetParser) is(tok lexer.Token, typ string, value string) bool {
	return tok.Type == stylesheetSymbols[typ] && (value == "" || tok.Value == value)
}

func (p *stylesheetParser) unexpected(tok lexer.Token) error {
	if tok.EOF() {
		return newParseError(len(p.text), "unexpected end of abbreviation")
	}
	return newParseError(tok.Pos.Offset, "unexpected character %q", tok.Value)
}

func (p *stylesheetParser) property(valueScope bool) (*Property, error) {
	start := p.peek()
	prop := &Property{Offset: start.Pos.Offset}

	if !valueScope {
		if !p.is(start, "Name", "") {
			return nil, p.unexpected(start)
		}
		prop.Name = p.next().Value

		if p.is(p.peek(), "Punct", ":") {
			p.next()
			if p.is(p.peek(), "Name", "") {
				prop.Keyword = p.next().Value
			}
		}
	}

	dashes := 0
	for {
		tok := p.peek()
		var v Value
		switch {
		case p.is(tok, "Punct", "-"):
			p.next()
			dashes++
			continue
		case p.is(tok, "Punct", "!"):
			p.next()
			prop.Important = true
			return prop, nil
		case p.is(tok, "Number", ""):
			p.next()
			v = Value{Kind: NumberValue, Text: tok.Value}
			if p.is(p.peek(), "Name", "") {
				v.Unit = p.next().Value
			}
		case p.is(tok, "Color", ""):
			p.next()
			v = Value{Kind: ColorValue, Text: strings.TrimPrefix(tok.Value, "#")}
		case p.is(tok, "Name", "") && (dashes > 0 || valueScope):
			p.next()
			v = Value{Kind: KeywordValue, Text: tok.Value}
		default:
			if valueScope && len(prop.Values) == 0 {
				return nil, p.unexpected(tok)
			}
			return prop, nil
		}

		if len(prop.Values) == 0 {
			v.Negative = dashes >= 1
		} else {
			v.Negative = dashes >= 2
		}
		if v.Kind != NumberValue {
			v.Negative = false
		}
		dashes = 0
		prop.Values = append(prop.Values, v)
	}
}

type stylesheetRenderer struct {
	cfg    Config
	fields *fields
}

func newStylesheetRenderer(cfg Config) *stylesheetRenderer {
	return &stylesheetRenderer{cfg: cfg, fields: newFields(cfg.Field)}
}

func (r *stylesheetRenderer) render(props []*Property) string {
	sep := "\n"
	if r.cfg.Inline || r.cfg.Property != "" {
		sep = " "
	}
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, r.declaration(p))
	}
	return strings.Join(out, sep)
}

// resolve maps the typed property to a full property name and its values.
func (r *stylesheetRenderer) resolve(p *Property) (string, []string) {
	if r.cfg.Property != "" {
		return r.cfg.Property, r.values(r.cfg.Property, p)
	}

	if p.Keyword == "" && len(p.Values) == 0 {
		if s, ok := keywordSnippets[p.Name]; ok {
			return s[0], []string{s[1]}
		}
	}

	if name, ok := propertyAliases[p.Name]; ok {
		return name, r.values(name, p)
	}

	// `dib` is `d` with the display keyword `ib`
	if p.Keyword == "" && len(p.Values) == 0 {
		for i := len(p.Name) - 1; i > 0; i-- {
			name, ok := propertyAliases[p.Name[:i]]
			if !ok {
				continue
			}
			if kw, ok := propertyKeywords[name][p.Name[i:]]; ok {
				return name, []string{kw}
			}
		}
	}

	return p.Name, r.values(p.Name, p)
}

func (r *stylesheetRenderer) values(property string, p *Property) []string {
	var out []string
	if p.Keyword != "" {
		out = append(out, keyword(property, p.Keyword))
	}
	for _, v := range p.Values {
		out = append(out, formatValue(property, v))
	}
	return out
}

func (r *stylesheetRenderer) declaration(p *Property) string {
	name, values := r.resolve(p)

	value := strings.Join(values, " ")
	if value == "" {
		value = r.fields.next("")
	} else {
		value = r.fields.literal(value)
	}
	if p.Important {
		value += " !important"
	}

	if r.cfg.Property != "" {
		return value
	}

	d := r.cfg.dialect()
	var b strings.Builder
	b.WriteString(name)
	if d.NoColon {
		b.WriteString(" ")
	} else {
		b.WriteString(": ")
	}
	b.WriteString(value)
	if !d.Indented {
		b.WriteString(";")
	}
	return b.String()
}

func keyword(property, abbr string) string {
	if kw, ok := propertyKeywords[property][abbr]; ok {
		return kw
	}
	if kw, ok := globalKeywords[abbr]; ok {
		return kw
	}
	return abbr
}

func formatValue(property string, v Value) string {
	switch v.Kind {
	case KeywordValue:
		return keyword(property, v.Text)
	case ColorValue:
		return "#" + expandColor(v.Text)
	}

	num := v.Text
	if v.Negative {
		num = "-" + num
	}

	var unit string
	switch {
	case v.Unit != "":
		unit = v.Unit
		if alias, ok := unitAliases[v.Unit]; ok {
			unit = alias
		}
	case unitlessProperties[property]:
	case strings.Trim(v.Text, "0.") == "":
	case strings.Contains(v.Text, "."):
		unit = "em"
	default:
		unit = "px"
	}
	return num + unit
}

func expandColor(hex string) string {
	switch len(hex) {
	case 0:
		return "000"
	case 1, 2:
		return strings.Repeat(hex, 3)
	}
	return hex
}
