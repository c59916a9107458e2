// Package activation decides whether an abbreviation may be expanded at a
// document offset and describes the surrounding structure.
package activation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/emmetls/pkg/abbreviation"
	"github.com/walteh/emmetls/pkg/scanner"
	"github.com/walteh/emmetls/pkg/syntax"
	"github.com/walteh/emmetls/pkg/textdoc"
)

// Context is the structural payload of an activation: MarkupContext or
// StylesheetContext.
type Context interface {
	isContext()
}

// MarkupContext is the innermost open element around the offset. Name is
// empty at the top level of a document.
type MarkupContext struct {
	Name       string
	Attributes map[string]string
}

// StylesheetContext names the property the offset belongs to. An empty Name
// means section scope: inside a rule body with no property yet.
type StylesheetContext struct {
	Name string
}

func (MarkupContext) isContext()     {}
func (StylesheetContext) isContext() {}

// Options is the activation context computed once when tracking starts.
type Options struct {
	Type    syntax.Type
	Syntax  string
	Inline  bool
	Context Context
}

// SectionScope reports a stylesheet activation between properties.
func (o *Options) SectionScope() bool {
	c, ok := o.Context.(StylesheetContext)
	return ok && o.Type == syntax.Stylesheet && c.Name == ""
}

// Config derives an expander configuration from the activation, on top of
// base settings such as indentation and snippets.
func (o *Options) Config(base abbreviation.Config) abbreviation.Config {
	cfg := base
	cfg.Type = o.Type
	cfg.Syntax = o.Syntax
	cfg.Inline = o.Inline
	switch c := o.Context.(type) {
	case MarkupContext:
		cfg.Parent = c.Name
	case StylesheetContext:
		cfg.Property = c.Name
	}
	return cfg
}

// Classify reports whether an abbreviation may start at pos in doc, written
// in the named dialect.
func Classify(ctx context.Context, doc textdoc.Document, pos int, syntaxName string) (*Options, bool) {
	return ClassifyText(ctx, doc.Text(), pos, syntaxName)
}

// ClassifyText is Classify over raw source.
func ClassifyText(ctx context.Context, code string, pos int, syntaxName string) (*Options, bool) {
	d, ok := syntax.Lookup(syntaxName)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("syntax", syntaxName).Msg("unknown syntax, not classifying")
		return nil, false
	}
	if pos < 0 || pos > len(code) {
		return nil, false
	}

	if d.Type == syntax.Stylesheet {
		sc, ok := classifyStylesheet(code, pos)
		if !ok {
			return nil, false
		}
		return &Options{Type: syntax.Stylesheet, Syntax: d.Name, Context: sc}, true
	}

	if d.JSX {
		// JSX abbreviations carry an explicit prefix, so no scan is needed
		return &Options{Type: syntax.Markup, Syntax: d.Name, Context: MarkupContext{Attributes: map[string]string{}}}, true
	}

	opts, ok := classifyMarkup(code, pos, d)
	if !ok {
		zerolog.Ctx(ctx).Trace().Int("offset", pos).Msg("markup offset is not expandable")
	}
	return opts, ok
}

// classifyStylesheet walks tokens that start before pos. A token contains
// pos when start < pos < end; a token ending at pos is fully consumed.
func classifyStylesheet(code string, pos int) (StylesheetContext, bool) {
	var (
		property string
		depth    int
	)
	for tok := range scanner.Stylesheet(code) {
		if tok.Start >= pos {
			break
		}
		inside := pos < tok.End

		switch tok.Kind {
		case scanner.PropertyValue:
			if inside {
				return StylesheetContext{Name: property}, true
			}
		case scanner.PropertyName:
			property = code[tok.Start:tok.End]
		case scanner.Selector:
			if inside {
				return StylesheetContext{}, false
			}
			property = ""
		case scanner.StyleComment:
			if inside {
				return StylesheetContext{}, false
			}
		case scanner.Delimiter:
			property = ""
		case scanner.BlockStart:
			depth++
			property = ""
		case scanner.BlockEnd:
			if depth > 0 {
				depth--
			}
			property = ""
		}
	}

	if property != "" || depth > 0 {
		return StylesheetContext{Name: property}, true
	}
	return StylesheetContext{}, false
}

type openElement struct {
	name  string
	token scanner.MarkupToken
}

func classifyMarkup(code string, pos int, d syntax.Dialect) (*Options, bool) {
	var stack []openElement

	for tok := range scanner.Markup(code, d.XML) {
		if tok.Start >= pos {
			break
		}
		inside := pos < tok.End || tok.Unterminated

		switch tok.Kind {
		case scanner.Open, scanner.SelfClose:
			if inside {
				return classifyStyleAttribute(code, pos, tok)
			}
			if tok.Kind == scanner.Open && !d.IsVoid(tok.Name) {
				stack = append(stack, openElement{name: tok.Name, token: tok})
			}
		case scanner.Close:
			if inside {
				return nil, false
			}
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == tok.Name {
					stack = stack[:i]
					break
				}
			}
		case scanner.Comment, scanner.Doctype:
			if inside {
				return nil, false
			}
		}
	}

	if len(stack) == 0 {
		return &Options{Type: syntax.Markup, Syntax: d.Name, Context: MarkupContext{Attributes: map[string]string{}}}, true
	}

	inner := stack[len(stack)-1]
	switch strings.ToLower(inner.name) {
	case "style":
		return classifyStyleElement(code, pos, inner.token)
	case "script":
		typ, _ := inner.token.Attr("type")
		if !syntax.IsHTMLScriptType(typ.Value) {
			return nil, false
		}
	}

	return &Options{
		Type:    syntax.Markup,
		Syntax:  d.Name,
		Context: MarkupContext{Name: inner.name, Attributes: attributeMap(inner.token)},
	}, true
}

// classifyStyleAttribute handles an offset inside a tag: only the value of
// a style attribute is expandable, as inline stylesheet code.
func classifyStyleAttribute(code string, pos int, tok scanner.MarkupToken) (*Options, bool) {
	style, ok := tok.Attr("style")
	if !ok || style.ValueStart < 0 || pos < style.ValueStart || pos > style.ValueEnd {
		return nil, false
	}
	sc, ok := classifyInlineStyle(code[style.ValueStart:style.ValueEnd], pos-style.ValueStart)
	if !ok {
		return nil, false
	}
	return &Options{Type: syntax.Stylesheet, Syntax: "css", Inline: true, Context: sc}, true
}

// classifyInlineStyle treats the attribute value as the body of a rule.
func classifyInlineStyle(value string, pos int) (StylesheetContext, bool) {
	const wrap = "a{"
	return classifyStylesheet(wrap+value+"}", pos+len(wrap))
}

func classifyStyleElement(code string, pos int, open scanner.MarkupToken) (*Options, bool) {
	start := open.End
	end := len(code)
	if i := indexFold(code[start:], "</style"); i >= 0 {
		end = start + i
	}
	if pos > end {
		return nil, false
	}

	typ, _ := open.Attr("type")
	d := syntax.StylesheetFromType(typ.Value)
	sc, ok := classifyStylesheet(code[start:end], pos-start)
	if !ok {
		return nil, false
	}
	return &Options{Type: syntax.Stylesheet, Syntax: d.Name, Context: sc}, true
}

func attributeMap(tok scanner.MarkupToken) map[string]string {
	attrs := make(map[string]string, len(tok.Attributes))
	for _, a := range tok.Attributes {
		attrs[a.Name] = a.Value
	}
	return attrs
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
func indexFold(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}
