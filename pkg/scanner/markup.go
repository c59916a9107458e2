// Package scanner turns markup and stylesheet source into lazily produced
// token streams with byte ranges. Consumers stop a scan with break.
package scanner

import (
	"iter"
	"strings"

	"golang.org/x/net/html"
)

type MarkupKind int

const (
	Open MarkupKind = iota
	Close
	SelfClose
	Text
	Comment
	Doctype
)

func (k MarkupKind) String() string {
	switch k {
	case Open:
		return "open"
	case Close:
		return "close"
	case SelfClose:
		return "self-close"
	case Text:
		return "text"
	case Comment:
		return "comment"
	case Doctype:
		return "doctype"
	}
	return "unknown"
}

// Attribute is a tag attribute with the byte range of its value. The value
// range excludes quotes; attributes without a value have ValueStart == -1.
type Attribute struct {
	Name       string
	Value      string
	NameStart  int
	ValueStart int
	ValueEnd   int
}

type MarkupToken struct {
	Kind  MarkupKind
	Name  string
	Start int
	End   int
	// Attributes is set for Open and SelfClose tokens.
	Attributes []Attribute
	// Unterminated marks a tag cut off by the end of the document.
	Unterminated bool
}

// Attr returns the named attribute.
func (t MarkupToken) Attr(name string) (Attribute, bool) {
	for _, a := range t.Attributes {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Attribute{}, false
}

// Markup scans code as HTML, or as XML when xml is set. Element names keep
// their source case in XML mode and are lower-cased otherwise.
func Markup(code string, xml bool) iter.Seq[MarkupToken] {
	return func(yield func(MarkupToken) bool) {
		z := html.NewTokenizer(strings.NewReader(code))
		offset := 0
		for {
			tt := z.Next()
			if tt == html.ErrorToken {
				break
			}
			raw := string(z.Raw())
			start := offset
			offset += len(raw)

			tok := MarkupToken{Start: start, End: offset}
			switch tt {
			case html.StartTagToken, html.SelfClosingTagToken:
				tok.Kind = Open
				if tt == html.SelfClosingTagToken {
					tok.Kind = SelfClose
				}
				tok.Name, tok.Attributes = parseTag(raw, start, xml)
			case html.EndTagToken:
				tok.Kind = Close
				tok.Name, _ = parseTag(raw, start, xml)
			case html.TextToken:
				tok.Kind = Text
			case html.CommentToken:
				tok.Kind = Comment
			case html.DoctypeToken:
				tok.Kind = Doctype
			}
			if !yield(tok) {
				return
			}
		}

		// the tokenizer drops a tag cut off by EOF; report it so a caret
		// inside it is not mistaken for text
		if offset < len(code) {
			rest := code[offset:]
			tok := MarkupToken{Kind: Text, Start: offset, End: len(code)}
			if len(rest) > 1 && rest[0] == '<' {
				tok.Unterminated = true
				switch {
				case rest[1] == '/':
					tok.Kind = Close
					tok.Name, _ = parseTag(rest, offset, xml)
				case rest[1] == '!' || rest[1] == '?':
					tok.Kind = Comment
				default:
					tok.Kind = Open
					tok.Name, tok.Attributes = parseTag(rest, offset, xml)
				}
			}
			yield(tok)
		}
	}
}

// parseTag reads the element name and attributes out of raw tag source.
// base is the document offset of raw[0].
func parseTag(raw string, base int, xml bool) (string, []Attribute) {
	i := 1
	if i < len(raw) && raw[i] == '/' {
		i++
	}
	nameStart := i
	for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '>' && raw[i] != '/' {
		i++
	}
	name := raw[nameStart:i]
	if !xml {
		name = strings.ToLower(name)
	}

	var attrs []Attribute
	for i < len(raw) {
		for i < len(raw) && (isTagSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}

		a := Attribute{NameStart: base + i, ValueStart: -1, ValueEnd: -1}
		ns := i
		for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '=' && raw[i] != '>' && raw[i] != '/' {
			i++
		}
		a.Name = raw[ns:i]
		if i == ns {
			// stray character such as a lone quote
			i++
			continue
		}

		j := i
		for j < len(raw) && isTagSpace(raw[j]) {
			j++
		}
		if j < len(raw) && raw[j] == '=' {
			j++
			for j < len(raw) && isTagSpace(raw[j]) {
				j++
			}
			i = j
			if i < len(raw) && (raw[i] == '"' || raw[i] == '\'') {
				quote := raw[i]
				i++
				vs := i
				for i < len(raw) && raw[i] != quote {
					i++
				}
				a.Value, a.ValueStart, a.ValueEnd = raw[vs:i], base+vs, base+i
				if i < len(raw) {
					i++
				}
			} else {
				vs := i
				for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '>' {
					i++
				}
				a.Value, a.ValueStart, a.ValueEnd = raw[vs:i], base+vs, base+i
			}
		}
		attrs = append(attrs, a)
	}
	return name, attrs
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
