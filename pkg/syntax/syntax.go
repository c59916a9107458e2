// Package syntax describes the markup and stylesheet dialects abbreviations
// can be tracked in.
package syntax

import (
	"sort"
	"strings"
)

type Type string

const (
	Markup     Type = "markup"
	Stylesheet Type = "stylesheet"
)

// Dialect is a named syntax with the knobs the classifier, policy and
// expander need.
type Dialect struct {
	Name string
	Type Type
	// XML disables HTML void elements.
	XML bool
	// JSX dialects require an explicit activation prefix before the
	// abbreviation.
	JSX bool
	// Indented stylesheet dialects have no braces or semicolons.
	Indented bool
	// NoColon stylesheet dialects separate property and value with a space.
	NoColon bool
}

var dialects = map[string]Dialect{
	"html":   {Name: "html", Type: Markup},
	"xhtml":  {Name: "xhtml", Type: Markup},
	"xml":    {Name: "xml", Type: Markup, XML: true},
	"xsl":    {Name: "xsl", Type: Markup, XML: true},
	"jsx":    {Name: "jsx", Type: Markup, JSX: true},
	"vue":    {Name: "vue", Type: Markup},
	"svelte": {Name: "svelte", Type: Markup},

	"css":    {Name: "css", Type: Stylesheet},
	"scss":   {Name: "scss", Type: Stylesheet},
	"less":   {Name: "less", Type: Stylesheet},
	"sass":   {Name: "sass", Type: Stylesheet, Indented: true},
	"sss":    {Name: "sss", Type: Stylesheet, Indented: true},
	"stylus": {Name: "stylus", Type: Stylesheet, Indented: true, NoColon: true},
}

// languageIDs maps LSP language identifiers onto dialect names.
var languageIDs = map[string]string{
	"html":            "html",
	"xhtml":           "xhtml",
	"xml":             "xml",
	"xsl":             "xsl",
	"vue":             "vue",
	"vue-html":        "vue",
	"svelte":          "svelte",
	"javascriptreact": "jsx",
	"typescriptreact": "jsx",
	"jsx":             "jsx",
	"tsx":             "jsx",
	"css":             "css",
	"scss":            "scss",
	"less":            "less",
	"sass":            "sass",
	"sugarss":         "sss",
	"sss":             "sss",
	"stylus":          "stylus",
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, bool) {
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// FromLanguageID resolves an editor language identifier.
func FromLanguageID(id string) (Dialect, bool) {
	name, ok := languageIDs[strings.ToLower(id)]
	if !ok {
		return Dialect{}, false
	}
	return Lookup(name)
}

// Names lists the registered dialects of the given type, sorted.
func Names(t Type) []string {
	var out []string
	for name, d := range dialects {
		if d.Type == t {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func IsMarkup(name string) bool {
	d, ok := Lookup(name)
	return ok && d.Type == Markup
}

func IsStylesheet(name string) bool {
	d, ok := Lookup(name)
	return ok && d.Type == Stylesheet
}

// Prefix is the activation prefix that precedes an abbreviation typed in
// this dialect. Only JSX has one.
func (d Dialect) Prefix(jsxPrefix string) string {
	if d.JSX {
		return jsxPrefix
	}
	return ""
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
	"keygen": true, "command": true,
}

// IsVoid reports whether element never has content in this dialect. XML
// dialects have no void elements.
func (d Dialect) IsVoid(element string) bool {
	if d.XML {
		return false
	}
	return voidElements[strings.ToLower(element)]
}

// StylesheetFromType maps a `type="text/scss"` style attribute to a dialect,
// falling back to css.
func StylesheetFromType(typ string) Dialect {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if name, ok := strings.CutPrefix(typ, "text/"); ok {
		if d, ok := Lookup(name); ok && d.Type == Stylesheet {
			return d
		}
	}
	d, _ := Lookup("css")
	return d
}

var templateScriptTypes = map[string]bool{
	"text/html":                  true,
	"text/template":              true,
	"text/x-template":            true,
	"text/ng-template":           true,
	"text/x-handlebars-template": true,
	"text/x-handlebars":          true,
	"text/x-jquery-tmpl":         true,
	"text/x-kendo-template":      true,
	"text/x-underscore-template": true,
}

// IsHTMLScriptType reports whether a <script type=...> holds markup.
func IsHTMLScriptType(typ string) bool {
	return templateScriptTypes[strings.ToLower(strings.TrimSpace(typ))]
}
