package scanner

import (
	"iter"
	"strings"

	"github.com/gorilla/css/scanner"
)

type StylesheetKind int

const (
	Selector StylesheetKind = iota
	PropertyName
	PropertyValue
	BlockStart
	BlockEnd
	StyleComment
	// Delimiter is the `;` ending a declaration or at-rule.
	Delimiter
)

func (k StylesheetKind) String() string {
	switch k {
	case Selector:
		return "selector"
	case PropertyName:
		return "property-name"
	case PropertyValue:
		return "property-value"
	case BlockStart:
		return "block-start"
	case BlockEnd:
		return "block-end"
	case StyleComment:
		return "comment"
	case Delimiter:
		return "delimiter"
	}
	return "unknown"
}

type StylesheetToken struct {
	Kind  StylesheetKind
	Start int
	End   int
}

// lexeme is a gorilla/css token with its byte range.
type lexeme struct {
	tok        *scanner.Token
	start, end int
}

func (l lexeme) is(char string) bool {
	return l.tok.Type == scanner.TokenChar && l.tok.Value == char
}

// lexer wraps the css scanner with byte offsets and arbitrary lookahead.
type lexer struct {
	code   string
	src    string
	s      *scanner.Scanner
	offset int
	buf    []lexeme
	done   bool
}

func newLexer(code string) *lexer {
	src := blankLineComments(normalizeControls(code))
	return &lexer{code: code, src: src, s: scanner.New(src)}
}

func (l *lexer) read() (lexeme, bool) {
	if l.done {
		return lexeme{}, false
	}
	tok := l.s.Next()
	switch tok.Type {
	case scanner.TokenEOF:
		l.done = true
		return lexeme{}, false
	case scanner.TokenError:
		// unclosed comment or string: the remainder is one opaque token
		l.done = true
		if l.offset >= len(l.code) {
			return lexeme{}, false
		}
		typ := scanner.TokenString
		if strings.HasPrefix(l.code[l.offset:], "/*") {
			typ = scanner.TokenComment
		}
		lx := lexeme{tok: &scanner.Token{Type: typ, Value: l.code[l.offset:]}, start: l.offset, end: len(l.code)}
		l.offset = len(l.code)
		return lx, true
	}

	if !strings.HasPrefix(l.src[l.offset:], tok.Value) {
		l.done = true
		return lexeme{}, false
	}
	lx := lexeme{tok: tok, start: l.offset, end: l.offset + len(tok.Value)}
	l.offset = lx.end
	// whitespace that stands in for a blanked `//` comment
	if tok.Type == scanner.TokenS && strings.Contains(l.code[lx.start:lx.end], "//") {
		lx.tok = &scanner.Token{Type: scanner.TokenComment, Value: l.code[lx.start:lx.end]}
	}
	return lx, true
}

func (l *lexer) next() (lexeme, bool) {
	if len(l.buf) > 0 {
		lx := l.buf[0]
		l.buf = l.buf[1:]
		return lx, true
	}
	return l.read()
}

func (l *lexer) peek(n int) (lexeme, bool) {
	for len(l.buf) <= n {
		lx, ok := l.read()
		if !ok {
			return lexeme{}, false
		}
		l.buf = append(l.buf, lx)
	}
	return l.buf[n], true
}

// colonStartsValue looks past a `:` to decide whether it separates a
// property from its value or belongs to a selector such as `a:hover`.
func (l *lexer) colonStartsValue() bool {
	for i := 0; ; i++ {
		lx, ok := l.peek(i)
		if !ok {
			return true
		}
		switch {
		case lx.is("{"):
			return false
		case lx.is(";"), lx.is("}"):
			return true
		}
	}
}

// Stylesheet scans css-like source into structural tokens. `//` line
// comments are recognized for scss and less.
func Stylesheet(code string) iter.Seq[StylesheetToken] {
	return func(yield func(StylesheetToken) bool) {
		l := newLexer(code)

		var (
			pending   bool
			pendStart int
			pendEnd   int
			atRule    bool
			inValue   bool
			depth     int
		)

		emit := func(kind StylesheetKind, start, end int) bool {
			return yield(StylesheetToken{Kind: kind, Start: start, End: end})
		}

		// flush emits the pending segment as the given kind.
		flush := func(kind StylesheetKind) bool {
			if !pending {
				return true
			}
			pending = false
			return emit(kind, pendStart, pendEnd)
		}

		declarationKind := func() StylesheetKind {
			switch {
			case inValue:
				return PropertyValue
			case atRule:
				return Selector
			default:
				return PropertyName
			}
		}

		for {
			lx, ok := l.next()
			if !ok {
				break
			}

			switch {
			case lx.tok.Type == scanner.TokenS, lx.tok.Type == scanner.TokenBOM:
				continue
			case lx.tok.Type == scanner.TokenComment:
				if !emit(StyleComment, lx.start, lx.end) {
					return
				}
			case lx.is("{"):
				if !flush(Selector) || !emit(BlockStart, lx.start, lx.end) {
					return
				}
				depth++
				inValue, atRule = false, false
			case lx.is("}"):
				if !flush(declarationKind()) || !emit(BlockEnd, lx.start, lx.end) {
					return
				}
				if depth > 0 {
					depth--
				}
				inValue, atRule = false, false
			case lx.is(";"):
				if !flush(declarationKind()) || !emit(Delimiter, lx.start, lx.end) {
					return
				}
				inValue, atRule = false, false
			case lx.is(":") && pending && !inValue && !atRule && l.colonStartsValue():
				if !flush(PropertyName) {
					return
				}
				inValue = true
			default:
				if !pending {
					pending = true
					pendStart = lx.start
					atRule = !inValue && lx.tok.Type == scanner.TokenAtKeyword
				}
				pendEnd = lx.end
			}
		}

		if depth == 0 && !inValue {
			flush(Selector)
			return
		}
		flush(declarationKind())
	}
}

// normalizeControls replaces the bytes the css scanner would rewrite
// (\r, \f and NUL) with spaces of the same length, so token values stay
// aligned with the source.
func normalizeControls(code string) string {
	if !strings.ContainsAny(code, "\r\f\x00") {
		return code
	}
	b := []byte(code)
	for i, c := range b {
		switch c {
		case '\r', '\f', 0:
			b[i] = ' '
		}
	}
	return string(b)
}

// blankLineComments replaces `//` comments with spaces so the css scanner
// keeps byte offsets intact. `//` inside strings and url() is left alone.
func blankLineComments(code string) string {
	if !strings.Contains(code, "//") {
		return code
	}
	b := []byte(code)
	var quote byte
	parens := 0
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			parens++
		case c == ')':
			if parens > 0 {
				parens--
			}
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			end := strings.Index(code[i+2:], "*/")
			if end < 0 {
				return string(b)
			}
			i += end + 3
		case c == '/' && i+1 < len(b) && b[i+1] == '/' && parens == 0:
			for i < len(b) && b[i] != '\n' {
				b[i] = ' '
				i++
			}
		}
	}
	return string(b)
}
