// Package policy decides, for every edit and caret movement, whether the
// abbreviation tracker of a document should start, continue or stop.
package policy

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/walteh/emmetls/pkg/activation"
	"github.com/walteh/emmetls/pkg/position"
	"github.com/walteh/emmetls/pkg/syntax"
	"github.com/walteh/emmetls/pkg/textdoc"
	"github.com/walteh/emmetls/pkg/tracker"
)

var (
	// preceding character (or none) followed by the typed character
	markupBoundary     = regexp.MustCompile(`^[\s>;"'(){}\[\]]?[a-zA-Z.#!@\[(]$`)
	stylesheetBoundary = regexp.MustCompile(`^[\s{}"']?[a-zA-Z!@]$`)

	// a property with no value, as expanded from an unknown name
	emptyDeclaration = regexp.MustCompile(`^\s*(.+?)\s*:\s*;?\s*$`)

	// prefix -> *regexp.Regexp
	prefixedBoundaries sync.Map

	pairs = map[byte]byte{'[': ']', '(': ')', '{': '}'}
)

// prefixedBoundary matches a character typed right after prefix, which
// itself follows a boundary character or nothing.
func prefixedBoundary(prefix string) *regexp.Regexp {
	if re, ok := prefixedBoundaries.Load(prefix); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`^[\s>;(){}\[\]"'=]?` + regexp.QuoteMeta(prefix) + `[a-zA-Z.#\[(]$`)
	actual, _ := prefixedBoundaries.LoadOrStore(prefix, re)
	return actual.(*regexp.Regexp)
}

// Policy is the glue between host events and the tracker store. Its only
// state is the last caret seen in each document.
type Policy struct {
	store  *tracker.Store
	carets sync.Map // textdoc.ID -> int

	mu        sync.RWMutex
	jsxPrefix string
}

type Option func(*Policy)

// WithJSXPrefix sets the marker that must precede abbreviations in JSX.
func WithJSXPrefix(prefix string) Option {
	return func(p *Policy) { p.jsxPrefix = prefix }
}

func New(store *tracker.Store, opts ...Option) *Policy {
	p := &Policy{store: store, jsxPrefix: "<"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Policy) Store() *tracker.Store {
	return p.store
}

func (p *Policy) SetJSXPrefix(prefix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jsxPrefix = prefix
}

// Prefix is the activation marker for abbreviations in dialect d.
func (p *Policy) Prefix(d syntax.Dialect) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return d.Prefix(p.jsxPrefix)
}

// LastCaret returns the caret recorded for a document, if any.
func (p *Policy) LastCaret(id textdoc.ID) (int, bool) {
	v, ok := p.carets.Load(id)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// HandleSelection records a caret movement.
func (p *Policy) HandleSelection(ctx context.Context, id textdoc.ID, caret int) {
	p.carets.Store(id, caret)
	p.store.OnSelectionChange(ctx, id, caret)
}

// HandleChange runs after doc has been edited. It updates the existing
// tracker, stops it when it no longer looks like active typing, and
// otherwise tries to start a new one. It returns the live tracker.
func (p *Policy) HandleChange(ctx context.Context, doc textdoc.Document, syntaxName string) (*tracker.Tracker, bool) {
	caret := doc.Caret()
	before, seen := p.LastCaret(doc.ID())
	p.carets.Store(doc.ID(), caret)

	if _, ok := p.store.Get(doc.ID()); ok {
		t, ok := p.store.OnDocumentChange(ctx, doc)
		if ok {
			if p.ShouldStop(doc, t, caret) {
				if err := p.store.Stop(ctx, doc, true); err != nil {
					zerolog.Ctx(ctx).Debug().Err(err).Msg("stopping tracker")
				}
				return nil, false
			}
			return t, true
		}
	}

	if seen && p.ShouldStart(doc, syntaxName, before, caret) {
		return p.TryStart(ctx, doc, syntaxName, caret)
	}
	return nil, false
}

// HandleClose forgets a closed document.
func (p *Policy) HandleClose(ctx context.Context, id textdoc.ID) {
	p.carets.Delete(id)
	p.store.Close(ctx, id)
}

// ShouldStart reports whether a single character was just typed at a word
// boundary, so that it may begin an abbreviation.
func (p *Policy) ShouldStart(doc textdoc.Document, syntaxName string, before, after int) bool {
	if after != before+1 || after < 1 {
		return false
	}
	d, ok := syntax.Lookup(syntaxName)
	if !ok {
		return false
	}

	if prefix := p.Prefix(d); prefix != "" {
		start := after - len(prefix) - 2
		if start < 0 {
			start = 0
		}
		return prefixedBoundary(prefix).MatchString(doc.Substring(start, after))
	}

	text := doc.Substring(after-2, after)
	if d.Type == syntax.Stylesheet {
		return stylesheetBoundary.MatchString(text)
	}
	return markupBoundary.MatchString(text)
}

// TryStart starts tracking the character just typed before caret when the
// position allows an abbreviation.
func (p *Policy) TryStart(ctx context.Context, doc textdoc.Document, syntaxName string, caret int) (*tracker.Tracker, bool) {
	d, ok := syntax.Lookup(syntaxName)
	if !ok || caret < 1 {
		return nil, false
	}
	offset := len(p.Prefix(d))
	start := caret - 1 - offset
	if start < 0 {
		return nil, false
	}

	end := caret
	typed := doc.Substring(caret-1, caret)
	if typed == "" {
		return nil, false
	}
	if closer, ok := pairs[typed[0]]; ok && doc.Substring(caret, caret+1) == string(closer) {
		end++
	}

	opts, ok := activation.Classify(ctx, doc, start, syntaxName)
	if !ok {
		return nil, false
	}

	if opts.SectionScope() && p.startsSelector(doc, typed, caret, opts) {
		zerolog.Ctx(ctx).Debug().Str("typed", typed).Msg("looks like a selector, not tracking")
		return nil, false
	}

	t, err := p.store.Start(ctx, doc, start, end, tracker.StartOptions{Options: opts, Offset: offset})
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("not tracking")
		return nil, false
	}
	p.store.OnSelectionChange(ctx, doc.ID(), caret)
	return t, true
}

// startsSelector catches a lone character typed on its own line between
// rules, whose expansion would be an empty declaration of an unknown
// property. Such input is most likely the first character of a selector.
func (p *Policy) startsSelector(doc textdoc.Document, typed string, caret int, opts *activation.Options) bool {
	text := doc.Text()
	lineStart, lineEnd := position.LineBounds(text, caret)
	if len(strings.TrimSpace(text[lineStart:lineEnd])) != 1 {
		return false
	}

	v, ok := tracker.Evaluate(typed, opts.Config(p.store.Config())).(tracker.Valid)
	if !ok {
		return false
	}
	m := emptyDeclaration.FindStringSubmatch(v.Preview)
	return m != nil && m[1] == typed
}

// ShouldStop reports whether the tracker no longer follows active typing.
// Forced trackers are only stopped explicitly.
func (p *Policy) ShouldStop(doc textdoc.Document, t *tracker.Tracker, caret int) bool {
	if t.Forced() {
		return false
	}

	raw := t.Outcome().RawText()
	if strings.ContainsAny(raw, "\r\n") || strings.Contains(raw, "${") {
		return true
	}

	perr, ok := t.Outcome().(tracker.ParseError)
	if !ok {
		return false
	}

	rng := t.Range()
	if caret == rng.End || perr.Offset == 0 {
		return true
	}

	if t.Options().Type == syntax.Stylesheet && perr.Offset < len(raw) {
		switch raw[perr.Offset] {
		case ' ', '\t', '\n', '\r', '\f', ',', ';':
			return true
		}
	}

	trimmed := rng.End
	for trimmed > rng.Start && isCloser(doc.Substring(trimmed-1, trimmed)) {
		trimmed--
	}
	return trimmed != rng.End && caret == trimmed
}

func isCloser(s string) bool {
	switch s {
	case "]", ")", "}", `"`, "'":
		return true
	}
	return false
}
