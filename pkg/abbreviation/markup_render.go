package abbreviation

import (
	"regexp"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/syntax"
)

// maxSnippetDepth bounds snippets that expand to other snippets.
const maxSnippetDepth = 8

// node is an element after repeats, groups, snippets and numbering have
// been resolved.
type node struct {
	name      string
	attrs     []Attribute
	text      string
	hasText   bool
	raw       string
	isRaw     bool
	isText    bool
	selfClose bool
	children  []*node
}

func (n *node) setAttr(name, value string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			n.attrs[i].HasValue = true
			return
		}
	}
	n.attrs = append(n.attrs, Attribute{Name: name, Value: value, HasValue: true})
}

type repeatFrame struct {
	index int
	count int
}

type markupRenderer struct {
	cfg     Config
	dialect syntax.Dialect
	fields  *fields
	depth   int
}

func newMarkupRenderer(cfg Config) *markupRenderer {
	return &markupRenderer{
		cfg:     cfg,
		dialect: cfg.dialect(),
		fields:  newFields(cfg.Field),
	}
}

func (r *markupRenderer) render(elems []*Element) (string, error) {
	nodes, err := r.instantiate(elems, r.cfg.Parent, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	inline := r.cfg.Inline || allInline(nodes)
	for i, n := range nodes {
		if i > 0 && !inline {
			b.WriteString("\n")
		}
		r.writeNode(&b, n, 0)
	}
	return b.String(), nil
}

func (r *markupRenderer) instantiate(elems []*Element, parent string, frames []repeatFrame) ([]*node, error) {
	var out []*node
	for _, el := range elems {
		count := max(el.Repeat, 1)
		for i := 0; i < count; i++ {
			fr := frames
			if el.Repeat > 0 {
				fr = append(append([]repeatFrame(nil), frames...), repeatFrame{index: i, count: count})
			}

			var (
				nodes []*node
				err   error
			)
			if el.Group {
				nodes, err = r.instantiate(el.Children, parent, fr)
			} else {
				nodes, err = r.build(el, parent, fr)
			}
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
	}
	return out, nil
}

func (r *markupRenderer) snippet(name string) (string, bool) {
	if s, ok := r.cfg.Snippets[name]; ok {
		return s, true
	}
	s, ok := markupSnippets[name]
	return s, ok
}

func (r *markupRenderer) build(el *Element, parent string, frames []repeatFrame) ([]*node, error) {
	num := func(s string) string { return numbering(s, frames) }
	name := num(el.Name)

	if name == "" && el.ID == "" && len(el.Classes) == 0 && len(el.Attributes) == 0 && el.HasText && len(el.Children) == 0 {
		return []*node{{isText: true, text: num(el.Text), hasText: true}}, nil
	}

	if snippet, ok := r.snippet(name); ok {
		return r.expandSnippet(name, snippet, el, parent, frames)
	}

	if name == "" {
		name = implicitTag(parent)
	}

	n := &node{name: name, selfClose: el.SelfClose}
	r.decorate(n, el, frames)

	children, err := r.instantiate(el.Children, name, frames)
	if err != nil {
		return nil, err
	}
	n.children = children
	return []*node{n}, nil
}

// decorate copies attributes, id, classes and text from el onto n.
func (r *markupRenderer) decorate(n *node, el *Element, frames []repeatFrame) {
	if n.attrs == nil {
		n.attrs = append([]Attribute(nil), defaultAttributes[n.name]...)
	}
	if el.ID != "" {
		n.setAttr("id", numbering(el.ID, frames))
	}
	if len(el.Classes) > 0 {
		classes := make([]string, len(el.Classes))
		for i, c := range el.Classes {
			classes[i] = numbering(c, frames)
		}
		n.setAttr("class", strings.Join(classes, " "))
	}
	for _, a := range el.Attributes {
		if !a.HasValue {
			if !n.hasAttr(a.Name) {
				n.attrs = append(n.attrs, Attribute{Name: a.Name})
			}
			continue
		}
		n.setAttr(a.Name, numbering(a.Value, frames))
	}
	if el.HasText {
		n.text += numbering(el.Text, frames)
		n.hasText = true
	}
	if el.SelfClose {
		n.selfClose = true
	}
}

func (n *node) hasAttr(name string) bool {
	for _, a := range n.attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (r *markupRenderer) expandSnippet(name, snippet string, el *Element, parent string, frames []repeatFrame) ([]*node, error) {
	if strings.HasPrefix(snippet, "<") {
		return []*node{{isRaw: true, raw: snippet}}, nil
	}
	if r.depth >= maxSnippetDepth {
		return nil, errors.Errorf("snippet %q nests too deeply", name)
	}

	elems, err := parseMarkup(snippet)
	if err != nil {
		return nil, errors.Errorf("parsing snippet %q: %w", name, err)
	}

	r.depth++
	nodes, err := r.instantiate(elems, parent, frames)
	r.depth--
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	first := nodes[0]
	if !first.isRaw && !first.isText {
		r.decorate(first, el, frames)
	}

	last := nodes[len(nodes)-1]
	children, err := r.instantiate(el.Children, last.name, frames)
	if err != nil {
		return nil, err
	}
	last.children = append(last.children, children...)
	return nodes, nil
}

var numberingPattern = regexp.MustCompile(`(\$+)(?:@(-)?(\d+)?)?`)

// numbering replaces `$` runs with the index of the innermost repeat,
// zero-padded to the run length. `@-` counts down and `@N` sets the base.
func numbering(s string, frames []repeatFrame) string {
	if len(frames) == 0 || !strings.Contains(s, "$") {
		return s
	}
	f := frames[len(frames)-1]
	return numberingPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := numberingPattern.FindStringSubmatch(m)
		base := 1
		if sub[3] != "" {
			base, _ = strconv.Atoi(sub[3])
		}
		n := f.index + base
		if sub[2] == "-" {
			n = f.count - 1 - f.index + base
		}
		out := strconv.Itoa(n)
		if pad := len(sub[1]) - len(out); pad > 0 {
			out = strings.Repeat("0", pad) + out
		}
		return out
	})
}

func isInline(n *node) bool {
	return n.isText || (!n.isRaw && inlineElements[n.name])
}

func allInline(nodes []*node) bool {
	for _, n := range nodes {
		if !isInline(n) {
			return false
		}
	}
	return true
}

func (r *markupRenderer) selfClosing() string {
	style := r.cfg.SelfClosing
	if style == "" {
		switch {
		case r.dialect.XML:
			style = "xml"
		case r.dialect.JSX, r.dialect.Name == "xhtml":
			style = "xhtml"
		default:
			style = "html"
		}
	}
	switch style {
	case "xml":
		return "/>"
	case "xhtml":
		return " />"
	default:
		return ">"
	}
}

func (r *markupRenderer) writeNode(b *strings.Builder, n *node, depth int) {
	switch {
	case n.isRaw:
		b.WriteString(n.raw)
		return
	case n.isText:
		b.WriteString(r.fields.literal(n.text))
		return
	}

	b.WriteString("<")
	b.WriteString(n.name)
	for _, a := range n.attrs {
		name := a.Name
		if r.dialect.JSX {
			if renamed, ok := jsxAttributes[name]; ok {
				name = renamed
			}
		}
		b.WriteString(" ")
		b.WriteString(name)
		b.WriteString(`="`)
		if a.Value == "" {
			b.WriteString(r.fields.next(""))
		} else {
			b.WriteString(r.fields.literal(a.Value))
		}
		b.WriteString(`"`)
	}

	empty := len(n.children) == 0 && !n.hasText
	if n.selfClose || (empty && r.dialect.IsVoid(n.name)) {
		b.WriteString(r.selfClosing())
		return
	}
	b.WriteString(">")

	if n.hasText {
		b.WriteString(r.fields.literal(n.text))
	}
	if empty {
		b.WriteString(r.fields.next(""))
	}

	if len(n.children) > 0 {
		if r.cfg.Inline || allInline(n.children) {
			for _, c := range n.children {
				r.writeNode(b, c, depth)
			}
		} else {
			indent := r.cfg.indent()
			childDepth := depth + 1
			if n.name == "html" {
				// head and body sit flush with <html>
				childDepth = depth
			}
			for _, c := range n.children {
				b.WriteString("\n")
				b.WriteString(strings.Repeat(indent, childDepth))
				r.writeNode(b, c, childDepth)
			}
			b.WriteString("\n")
			b.WriteString(strings.Repeat(indent, depth))
		}
	}

	b.WriteString("</")
	b.WriteString(n.name)
	b.WriteString(">")
}
