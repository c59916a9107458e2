// Package config holds the server settings and the sources they are read
// from: config files, LSP initialization options and .editorconfig.
package config

import (
	"maps"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/abbreviation"
	"github.com/walteh/emmetls/pkg/syntax"
)

type Config struct {
	MarkupSyntaxes     []string          `json:"markup_syntaxes,omitempty" yaml:"markup_syntaxes,omitempty" toml:"markup_syntaxes,omitempty" hcl:"markup_syntaxes,optional"`
	StylesheetSyntaxes []string          `json:"stylesheet_syntaxes,omitempty" yaml:"stylesheet_syntaxes,omitempty" toml:"stylesheet_syntaxes,omitempty" hcl:"stylesheet_syntaxes,optional"`
	JSXPrefix          string            `json:"jsx_prefix,omitempty" yaml:"jsx_prefix,omitempty" toml:"jsx_prefix,omitempty" hcl:"jsx_prefix,optional"`
	ShowPreview        bool              `json:"show_preview" yaml:"show_preview" toml:"show_preview" hcl:"show_preview,optional"`
	ShowDiagnostics    bool              `json:"show_diagnostics" yaml:"show_diagnostics" toml:"show_diagnostics" hcl:"show_diagnostics,optional"`
	SelfClosing        string            `json:"self_closing,omitempty" yaml:"self_closing,omitempty" toml:"self_closing,omitempty" hcl:"self_closing,optional"`
	Indent             string            `json:"indent,omitempty" yaml:"indent,omitempty" toml:"indent,omitempty" hcl:"indent,optional"`
	Exclude            []string          `json:"exclude,omitempty" yaml:"exclude,omitempty" toml:"exclude,omitempty" hcl:"exclude,optional"`
	Snippets           map[string]string `json:"snippets,omitempty" yaml:"snippets,omitempty" toml:"snippets,omitempty" hcl:"snippets,optional"`
}

// Default enables every known dialect.
func Default() *Config {
	return &Config{
		MarkupSyntaxes:     syntax.Names(syntax.Markup),
		StylesheetSyntaxes: syntax.Names(syntax.Stylesheet),
		JSXPrefix:          "<",
		ShowPreview:        true,
		ShowDiagnostics:    true,
		Indent:             "\t",
	}
}

func (c *Config) Clone() *Config {
	out := *c
	out.MarkupSyntaxes = slices.Clone(c.MarkupSyntaxes)
	out.StylesheetSyntaxes = slices.Clone(c.StylesheetSyntaxes)
	out.Exclude = slices.Clone(c.Exclude)
	out.Snippets = maps.Clone(c.Snippets)
	return &out
}

// Validate checks what the schema cannot: dialect names, glob syntax and
// snippet abbreviations. All problems are reported together.
func (c *Config) Validate() error {
	var result *multierror.Error

	check := func(names []string, want syntax.Type, key string) {
		for _, name := range names {
			d, ok := syntax.Lookup(name)
			if !ok {
				result = multierror.Append(result, errors.Errorf("%s: unknown syntax %q", key, name))
				continue
			}
			if d.Type != want {
				result = multierror.Append(result, errors.Errorf("%s: %q is a %s syntax", key, name, d.Type))
			}
		}
	}
	check(c.MarkupSyntaxes, syntax.Markup, "markup_syntaxes")
	check(c.StylesheetSyntaxes, syntax.Stylesheet, "stylesheet_syntaxes")

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			result = multierror.Append(result, errors.Errorf("exclude: invalid glob %q", pattern))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.Snippets)) {
		if _, err := abbreviation.Parse(c.Snippets[name], abbreviation.Config{Type: syntax.Markup}); err != nil {
			result = multierror.Append(result, errors.Errorf("snippets: %q: %w", name, err))
		}
	}

	return result.ErrorOrNil()
}

// Enabled reports whether documents in the named dialect are tracked.
func (c *Config) Enabled(syntaxName string) bool {
	return slices.Contains(c.MarkupSyntaxes, syntaxName) || slices.Contains(c.StylesheetSyntaxes, syntaxName)
}

// Excluded reports whether path matches one of the exclude globs.
func (c *Config) Excluded(path string) bool {
	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// Abbreviation returns the expander defaults. indent overrides the
// configured indentation when not empty.
func (c *Config) Abbreviation(indent string) abbreviation.Config {
	if indent == "" {
		indent = c.Indent
	}
	return abbreviation.Config{
		Indent:      indent,
		SelfClosing: c.SelfClosing,
		Snippets:    maps.Clone(c.Snippets),
	}
}
