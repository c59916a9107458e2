package abbreviation

import (
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
	"gitlab.com/tozd/go/errors"
)

var (
	markupLexer = lexer.MustStateful(lexer.Rules{
		"Root": {
			{Name: "TextOpen", Pattern: `\{`, Action: lexer.Push("Text")},
			{Name: "AttrOpen", Pattern: `\[`, Action: lexer.Push("Attrs")},
			{Name: "Number", Pattern: `\d+`, Action: nil},
			{Name: "Name", Pattern: `[\w$@!:\-]+`, Action: nil},
			{Name: "Op", Pattern: `[>+^*/().#]`, Action: nil},
			// anything else is reported by the parser
			{Name: "Char", Pattern: `.|\n`, Action: nil},
		},
		"Text": {
			{Name: "TextOpen", Pattern: `\{`, Action: lexer.Push("Text")},
			{Name: "TextClose", Pattern: `\}`, Action: lexer.Pop()},
			{Name: "TextBody", Pattern: `[^{}]+`, Action: nil},
		},
		"Attrs": {
			{Name: "Space", Pattern: `\s+`, Action: nil},
			{Name: "AttrClose", Pattern: `\]`, Action: lexer.Pop()},
			{Name: "String", Pattern: `"[^"]*"|'[^']*'`, Action: nil},
			{Name: "Eq", Pattern: `=`, Action: nil},
			{Name: "AttrName", Pattern: `[^\s="'\[\]]+`, Action: nil},
			{Name: "AttrChar", Pattern: `.`, Action: nil},
		},
	})

	markupSymbols = markupLexer.Symbols()
)

// Element is one node of a parsed markup abbreviation.
type Element struct {
	Name       string
	ID         string
	Classes    []string
	Attributes []Attribute
	Text       string
	HasText    bool
	// Repeat is the `*N` multiplier; 0 means not repeated.
	Repeat    int
	SelfClose bool
	// Group marks a parenthesized sub-abbreviation; its Children are the
	// group's content.
	Group    bool
	Children []*Element
	// Offset is where the element starts in the abbreviation text.
	Offset int
}

type Attribute struct {
	Name     string
	Value    string
	HasValue bool
}

type markupParser struct {
	text string
	toks []lexer.Token
	pos  int
}

func parseMarkup(text string) ([]*Element, error) {
	lex, err := markupLexer.LexString("", text)
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

	p := &markupParser{text: text, toks: toks}
	elems, err := p.sequence(false)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); !tok.EOF() {
		return nil, p.unexpected(tok)
	}
	return elems, nil
}

func (p *markupParser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *markupParser) next() lexer.Token {
	tok := p.toks[p.pos]
	if !tok.EOF() {
		p.pos++
	}
	return tok
}

func (p *markupParser) is(tok lexer.Token, typ string, value string) bool {
	return tok.Type == markupSymbols[typ] && (value == "" || tok.Value == value)
}

func (p *markupParser) unexpected(tok lexer.Token) error {
	if tok.EOF() {
		return newParseError(len(p.text), "unexpected end of abbreviation")
	}
	return newParseError(tok.Pos.Offset, "unexpected character %q", tok.Value)
}

// sequence parses items joined by `>`, `+` and `^`. A trailing operator is
// accepted so an abbreviation stays valid while it is being typed.
func (p *markupParser) sequence(inGroup bool) ([]*Element, error) {
	root := &Element{Group: true}
	stack := []*Element{root}

	for {
		el, err := p.item()
		if err != nil {
			return nil, err
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, el)

		tok := p.peek()
		switch {
		case tok.EOF():
			return root.Children, nil
		case inGroup && p.is(tok, "Op", ")"):
			return root.Children, nil
		case p.is(tok, "Op", ">"):
			p.next()
			stack = append(stack, el)
		case p.is(tok, "Op", "+"):
			p.next()
		case p.is(tok, "Op", "^"):
			for p.is(p.peek(), "Op", "^") {
				p.next()
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
			}
		default:
			return nil, p.unexpected(tok)
		}

		if tok := p.peek(); tok.EOF() || (inGroup && p.is(tok, "Op", ")")) {
			return root.Children, nil
		}
	}
}

func (p *markupParser) item() (*Element, error) {
	tok := p.peek()
	if p.is(tok, "Op", "(") {
		p.next()
		children, err := p.sequence(true)
		if err != nil {
			return nil, err
		}
		if tok := p.peek(); !p.is(tok, "Op", ")") {
			if tok.EOF() {
				return nil, newParseError(len(p.text), "expected )")
			}
			return nil, p.unexpected(tok)
		}
		p.next()
		group := &Element{Group: true, Children: children, Offset: tok.Pos.Offset}
		if err := p.repeat(group); err != nil {
			return nil, err
		}
		return group, nil
	}
	return p.element()
}

func (p *markupParser) element() (*Element, error) {
	start := p.peek()
	el := &Element{Offset: start.Pos.Offset}
	parts := 0

	if p.is(start, "Name", "") {
		el.Name = p.next().Value
		parts++
	}

	for {
		tok := p.peek()
		switch {
		case p.is(tok, "Op", "#"):
			p.next()
			name := p.peek()
			if !p.is(name, "Name", "") && !p.is(name, "Number", "") {
				return nil, p.unexpected(name)
			}
			el.ID = p.next().Value
		case p.is(tok, "Op", "."):
			p.next()
			name := p.peek()
			if !p.is(name, "Name", "") && !p.is(name, "Number", "") {
				return nil, p.unexpected(name)
			}
			el.Classes = append(el.Classes, p.next().Value)
		case p.is(tok, "AttrOpen", ""):
			p.next()
			if err := p.attributes(el); err != nil {
				return nil, err
			}
		case p.is(tok, "TextOpen", ""):
			p.next()
			text, err := p.textBody()
			if err != nil {
				return nil, err
			}
			el.Text += text
			el.HasText = true
		case p.is(tok, "Op", "*"):
			if err := p.repeat(el); err != nil {
				return nil, err
			}
			parts++
			continue
		case p.is(tok, "Op", "/"):
			p.next()
			el.SelfClose = true
		default:
			if parts == 0 {
				return nil, p.unexpected(tok)
			}
			return el, nil
		}
		parts++
	}
}

// repeat reads an optional `*N`. A bare `*` repeats once.
func (p *markupParser) repeat(el *Element) error {
	if !p.is(p.peek(), "Op", "*") {
		return nil
	}
	p.next()
	el.Repeat = 1
	if tok := p.peek(); p.is(tok, "Number", "") {
		p.next()
		n, err := strconv.Atoi(tok.Value)
		if err != nil || n < 1 {
			return newParseError(tok.Pos.Offset, "invalid repeat count %q", tok.Value)
		}
		el.Repeat = n
	}
	return nil
}

func (p *markupParser) attributes(el *Element) error {
	for {
		tok := p.next()
		switch {
		case tok.EOF():
			return newParseError(len(p.text), "expected ]")
		case p.is(tok, "Space", ""):
		case p.is(tok, "AttrClose", ""):
			return nil
		case p.is(tok, "AttrName", ""):
			attr := Attribute{Name: tok.Value}
			if p.is(p.peek(), "Eq", "") {
				p.next()
				val := p.peek()
				switch {
				case p.is(val, "String", ""):
					p.next()
					attr.Value = val.Value[1 : len(val.Value)-1]
				case p.is(val, "AttrName", ""):
					p.next()
					attr.Value = val.Value
				}
				attr.HasValue = true
			}
			el.Attributes = append(el.Attributes, attr)
		default:
			return p.unexpected(tok)
		}
	}
}

// textBody collects text up to the matching `}`.
func (p *markupParser) textBody() (string, error) {
	depth := 1
	var text []byte
	for {
		tok := p.next()
		switch {
		case tok.EOF():
			return "", newParseError(len(p.text), "expected }")
		case p.is(tok, "TextOpen", ""):
			depth++
		case p.is(tok, "TextClose", ""):
			depth--
			if depth == 0 {
				return string(text), nil
			}
		}
		text = append(text, tok.Value...)
	}
}
