// Package completion turns live abbreviations into completion items and
// runs the one-shot "expand abbreviation" command.
package completion

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/abbreviation"
	"github.com/walteh/emmetls/pkg/activation"
	"github.com/walteh/emmetls/pkg/policy"
	"github.com/walteh/emmetls/pkg/position"
	"github.com/walteh/emmetls/pkg/syntax"
	"github.com/walteh/emmetls/pkg/textdoc"
	"github.com/walteh/emmetls/pkg/tracker"
)

// Item is a completion for the tracked abbreviation. InsertText uses LSP
// snippet syntax. Documentation is empty for simple abbreviations.
type Item struct {
	Label         string
	Range         tracker.Range
	InsertText    string
	Documentation string
}

// ExpandError is the one user-visible failure of the expand command.
type ExpandError struct {
	Offset  int
	Message string
}

func (e *ExpandError) Error() string {
	return fmt.Sprintf("cannot expand abbreviation: %s (offset %d)", e.Message, e.Offset)
}

// Expansion is the replacement computed by ExpandAtCaret.
type Expansion struct {
	Abbreviation string
	Range        tracker.Range
	// Snippet has LSP tab stops; Text has them rendered as placeholders.
	Snippet string
	Text    string
}

// Apply performs the replacement on an editable document and moves the
// caret after it.
func (e *Expansion) Apply(ed textdoc.Editor) error {
	if err := ed.Replace(e.Range.Start, e.Range.End, e.Text); err != nil {
		return errors.Errorf("applying expansion of %q: %w", e.Abbreviation, err)
	}
	ed.SetCaret(e.Range.Start + len(e.Text))
	return nil
}

type Provider struct {
	policy *policy.Policy

	showPreview atomic.Bool
}

type ProviderOption func(*Provider)

// WithPreview controls whether items carry the expanded preview.
func WithPreview(show bool) ProviderOption {
	return func(p *Provider) { p.showPreview.Store(show) }
}

func NewProvider(pol *policy.Policy, opts ...ProviderOption) *Provider {
	p := &Provider{policy: pol}
	p.showPreview.Store(true)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) SetPreview(show bool) {
	p.showPreview.Store(show)
}

// Provide returns the completion for the document's tracker when it is
// valid and the caret is within its range.
func (p *Provider) Provide(ctx context.Context, doc textdoc.Document, caret int) []Item {
	t, ok := p.policy.Store().Get(doc.ID())
	if !ok || !t.Range().Contains(caret) {
		return nil
	}
	v, ok := t.Valid()
	if !ok {
		return nil
	}

	snippet, err := abbreviation.Expand(v.Raw, snippetConfig(t.Config()))
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("abbreviation", v.Raw).Msg("tracked abbreviation does not expand")
		return nil
	}

	item := Item{
		Label:      doc.Substring(t.Range().Start, t.Range().End),
		Range:      t.Range(),
		InsertText: snippet,
	}
	if p.showPreview.Load() && !v.Simple {
		item.Documentation = v.Preview
	}
	return []Item{item}
}

// ExpandAtCaret expands the abbreviation ending at caret without starting a
// tracker. A live tracker around the caret is used and stopped instead of
// re-extracting the text.
func (p *Provider) ExpandAtCaret(ctx context.Context, doc textdoc.Document, syntaxName string, caret int) (*Expansion, error) {
	store := p.policy.Store()

	if t, ok := store.Get(doc.ID()); ok && t.Range().Contains(caret) {
		if v, ok := t.Valid(); ok {
			exp, err := expand(v.Raw, t.Range(), t.Range().Start+t.Offset(), t.Config())
			if err != nil {
				return nil, err
			}
			if err := store.Stop(ctx, doc, true); err != nil {
				return nil, errors.Errorf("stopping tracker: %w", err)
			}
			return exp, nil
		}
	}

	d, ok := syntax.Lookup(syntaxName)
	if !ok {
		return nil, &ExpandError{Offset: caret, Message: fmt.Sprintf("unsupported syntax %q", syntaxName)}
	}

	text := doc.Text()
	lineStart, _ := position.LineBounds(text, caret)
	found, ok := Extract(text[lineStart:caret], caret-lineStart, p.policy.Prefix(d))
	if !ok {
		return nil, &ExpandError{Offset: caret, Message: "no abbreviation before the caret"}
	}
	rng := tracker.Range{Start: lineStart + found.Start, End: lineStart + found.End}
	abbrStart := rng.End - len(found.Text)

	opts, ok := activation.Classify(ctx, doc, abbrStart, syntaxName)
	if !ok {
		return nil, &ExpandError{Offset: abbrStart, Message: "abbreviations are not allowed here"}
	}

	zerolog.Ctx(ctx).Debug().Str("abbreviation", found.Text).Int("offset", abbrStart).Msg("expanding at caret")
	return expand(found.Text, rng, abbrStart, opts.Config(store.Config()))
}

func expand(text string, rng tracker.Range, textStart int, cfg abbreviation.Config) (*Expansion, error) {
	snippet, err := abbreviation.Expand(text, snippetConfig(cfg))
	if err != nil {
		return nil, expandError(err, textStart)
	}
	plainCfg := cfg
	plainCfg.Field = abbreviation.PlaceholderField
	plain, err := abbreviation.Expand(text, plainCfg)
	if err != nil {
		return nil, expandError(err, textStart)
	}
	return &Expansion{Abbreviation: text, Range: rng, Snippet: snippet, Text: plain}, nil
}

func expandError(err error, textStart int) error {
	var perr *abbreviation.ParseError
	if errors.As(err, &perr) {
		return &ExpandError{Offset: textStart + perr.Offset, Message: perr.Message}
	}
	return &ExpandError{Offset: textStart, Message: err.Error()}
}

func snippetConfig(cfg abbreviation.Config) abbreviation.Config {
	cfg.Field = nil
	return cfg
}
