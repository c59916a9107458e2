package config

import (
	"github.com/tidwall/gjson"
	"gitlab.com/tozd/go/errors"
)

// FromInitializationOptions overlays the `emmet` object of LSP
// initializationOptions on base. Absent keys keep their base values.
func FromInitializationOptions(base *Config, raw []byte) (*Config, error) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return base, nil
	}
	opts := gjson.GetBytes(raw, "emmet")
	if !opts.Exists() {
		return base, nil
	}

	cfg := base.Clone()
	strs := func(key string, dst *[]string) {
		if v := opts.Get(key); v.IsArray() {
			*dst = nil
			for _, item := range v.Array() {
				*dst = append(*dst, item.String())
			}
		}
	}
	str := func(key string, dst *string) {
		if v := opts.Get(key); v.Exists() {
			*dst = v.String()
		}
	}
	boolean := func(key string, dst *bool) {
		if v := opts.Get(key); v.IsBool() {
			*dst = v.Bool()
		}
	}

	strs("markup_syntaxes", &cfg.MarkupSyntaxes)
	strs("stylesheet_syntaxes", &cfg.StylesheetSyntaxes)
	strs("exclude", &cfg.Exclude)
	str("jsx_prefix", &cfg.JSXPrefix)
	str("self_closing", &cfg.SelfClosing)
	str("indent", &cfg.Indent)
	boolean("show_preview", &cfg.ShowPreview)
	boolean("show_diagnostics", &cfg.ShowDiagnostics)

	if v := opts.Get("snippets"); v.IsObject() {
		if cfg.Snippets == nil {
			cfg.Snippets = map[string]string{}
		}
		v.ForEach(func(key, value gjson.Result) bool {
			cfg.Snippets[key.String()] = value.String()
			return true
		})
	}

	if err := check(cfg); err != nil {
		return nil, errors.Errorf("invalid initialization options: %w", err)
	}
	return cfg, nil
}
