package tracker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/abbreviation"
	"github.com/walteh/emmetls/pkg/textdoc"
)

// Publisher surfaces tracker outcomes as diagnostics over the tracked range.
type Publisher interface {
	Publish(ctx context.Context, id textdoc.ID, rng Range, outcome Outcome)
	Clear(ctx context.Context, id textdoc.ID)
}

// Store holds at most one tracker per document. It is safe to use from
// callbacks of different documents concurrently; callbacks for a single
// document must be serialized by the host.
type Store struct {
	trackers  sync.Map // textdoc.ID -> *Tracker
	publisher Publisher

	mu   sync.RWMutex
	base abbreviation.Config
}

type StoreOption func(*Store)

// WithPublisher reports outcomes after every reparse.
func WithPublisher(p Publisher) StoreOption {
	return func(s *Store) { s.publisher = p }
}

// WithConfig sets expander defaults such as indentation and snippets.
func WithConfig(cfg abbreviation.Config) StoreOption {
	return func(s *Store) { s.base = cfg }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetConfig replaces the expander defaults used by trackers started later.
func (s *Store) SetConfig(cfg abbreviation.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = cfg
}

// Config returns the current expander defaults.
func (s *Store) Config() abbreviation.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

func (s *Store) Get(id textdoc.ID) (*Tracker, bool) {
	v, ok := s.trackers.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Tracker), true
}

// Len returns the number of live trackers.
func (s *Store) Len() int {
	n := 0
	s.trackers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Start tracks [start, caret) in doc, replacing any tracker the document
// already has, and parses it right away.
func (s *Store) Start(ctx context.Context, doc textdoc.Document, start, caret int, opts StartOptions) (*Tracker, error) {
	if err := opts.validate(start, caret); err != nil {
		return nil, errors.Errorf("starting tracker: %w", err)
	}
	if caret > doc.Len() {
		return nil, errors.Errorf("starting tracker: caret %d is past document end %d", caret, doc.Len())
	}

	t := &Tracker{
		id:         doc.ID(),
		rng:        Range{Start: start, End: caret},
		lastPos:    caret,
		lastLength: doc.Len(),
		offset:     opts.Offset,
		forced:     opts.Forced,
		options:    opts.Options,
		config:     opts.Options.Config(s.Config()),
	}
	s.trackers.Store(t.id, t)
	s.reparse(ctx, t, doc)

	s.log(ctx, t).Bool("forced", t.forced).Msg("abbreviation tracking started")
	return t, nil
}

// OnDocumentChange adjusts the tracker of doc after an edit, using only the
// change in document length and the caret. It returns false when the
// document has no tracker or the edit invalidated it.
func (s *Store) OnDocumentChange(ctx context.Context, doc textdoc.Document) (*Tracker, bool) {
	t, ok := s.Get(doc.ID())
	if !ok {
		return nil, false
	}

	length := doc.Len()
	caret := doc.Caret()
	delta := length - t.lastLength
	rng := t.rng

	if !rng.Contains(t.lastPos) {
		s.destroy(ctx, t, "edit outside tracked range")
		return nil, false
	}

	switch {
	case delta < 0:
		if t.lastPos == rng.Start {
			rng.Start += delta
			rng.End += delta
		} else if t.lastPos > rng.Start && t.lastPos != caret {
			rng.End += delta
		}
	case delta > 0:
		rng.End += delta
	}

	switch {
	case rng.Start < 0 || rng.End > length || rng.End < rng.Start:
		s.destroy(ctx, t, "tracked range no longer fits the document")
		return nil, false
	case rng.End == rng.Start && !t.forced:
		s.destroy(ctx, t, "tracked range collapsed")
		return nil, false
	}

	previous := t.outcome
	t.rng = rng
	t.lastLength = length
	t.lastPos = caret
	s.reparse(ctx, t, doc)

	if perr, ok := t.outcome.(ParseError); ok {
		if v, ok := previous.(Valid); ok && perr.Raw == v.Preview {
			s.destroy(ctx, t, "expanded text replaced the abbreviation")
			return nil, false
		}
	}
	return t, true
}

// OnSelectionChange records the caret. It never reparses or moves the range.
func (s *Store) OnSelectionChange(_ context.Context, id textdoc.ID, caret int) {
	if t, ok := s.Get(id); ok {
		t.lastPos = caret
	}
}

// Reparse recomputes the outcome of the document's tracker.
func (s *Store) Reparse(ctx context.Context, doc textdoc.Document) (*Tracker, bool) {
	t, ok := s.Get(doc.ID())
	if !ok {
		return nil, false
	}
	s.reparse(ctx, t, doc)
	return t, true
}

// Stop removes the document's tracker. A forced tracker also deletes its
// text unless keepContent is set; doc must then be a textdoc.Editor.
func (s *Store) Stop(ctx context.Context, doc textdoc.Document, keepContent bool) error {
	t, ok := s.Get(doc.ID())
	if !ok {
		return nil
	}
	s.destroy(ctx, t, "stopped")

	if !t.forced || keepContent || t.rng.Len() == 0 {
		return nil
	}
	ed, ok := doc.(textdoc.Editor)
	if !ok {
		return errors.Errorf("removing abbreviation text of %s: document is read-only", t.id)
	}
	if err := ed.Replace(t.rng.Start, t.rng.End, ""); err != nil {
		return errors.Errorf("removing abbreviation text of %s: %w", t.id, err)
	}
	return nil
}

// Close drops the tracker of a closed document.
func (s *Store) Close(ctx context.Context, id textdoc.ID) {
	if t, ok := s.Get(id); ok {
		s.destroy(ctx, t, "document closed")
	}
}

// Sweep drops trackers whose documents are no longer live and returns how
// many were removed.
func (s *Store) Sweep(ctx context.Context, live func(textdoc.ID) bool) int {
	removed := 0
	s.trackers.Range(func(key, value any) bool {
		if !live(key.(textdoc.ID)) {
			s.destroy(ctx, value.(*Tracker), "document is gone")
			removed++
		}
		return true
	})
	return removed
}

func (s *Store) reparse(ctx context.Context, t *Tracker, doc textdoc.Document) {
	t.reparse(doc)
	if s.publisher != nil {
		s.publisher.Publish(ctx, t.id, t.rng, t.outcome)
	}
}

func (s *Store) destroy(ctx context.Context, t *Tracker, reason string) {
	s.trackers.CompareAndDelete(t.id, t)
	if s.publisher != nil {
		s.publisher.Clear(ctx, t.id)
	}
	s.log(ctx, t).Str("reason", reason).Msg("abbreviation tracking stopped")
}

func (s *Store) log(ctx context.Context, t *Tracker) *zerolog.Event {
	return zerolog.Ctx(ctx).Debug().
		Str("document", string(t.id)).
		Int("range_start", t.rng.Start).
		Int("range_end", t.rng.End)
}
