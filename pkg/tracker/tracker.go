// Package tracker keeps the in-progress abbreviation of each document in
// sync with edits and caret movement.
package tracker

import (
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/abbreviation"
	"github.com/walteh/emmetls/pkg/activation"
	"github.com/walteh/emmetls/pkg/textdoc"
)

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports Start <= pos <= End: the caret may sit on either edge.
func (r Range) Contains(pos int) bool {
	return r.Start <= pos && pos <= r.End
}

// Outcome is the result of parsing the tracked text: Valid or ParseError.
type Outcome interface {
	RawText() string
}

type Valid struct {
	Raw     string
	Simple  bool
	Preview string
}

type ParseError struct {
	Raw     string
	Offset  int
	Message string
}

func (v Valid) RawText() string { return v.Raw }
func (e ParseError) RawText() string { return e.Raw }

// Tracker is the live abbreviation of one document. Only Store mutates it.
type Tracker struct {
	id         textdoc.ID
	rng        Range
	lastPos    int
	lastLength int
	offset     int
	forced     bool
	outcome    Outcome
	options    *activation.Options
	config     abbreviation.Config
}

func (t *Tracker) ID() textdoc.ID { return t.id }
func (t *Tracker) Range() Range { return t.rng }
func (t *Tracker) LastPos() int { return t.lastPos }
func (t *Tracker) Forced() bool { return t.forced }
func (t *Tracker) Outcome() Outcome { return t.outcome }
func (t *Tracker) Options() *activation.Options { return t.options }

// Offset is the length of the activation prefix in front of the
// abbreviation, such as `<` in JSX.
func (t *Tracker) Offset() int { return t.offset }

// Config is the expander configuration for this tracker's context.
func (t *Tracker) Config() abbreviation.Config { return t.config }

// Valid returns the outcome when it parsed.
func (t *Tracker) Valid() (Valid, bool) {
	v, ok := t.outcome.(Valid)
	return v, ok
}

// StartOptions configures a new tracker.
type StartOptions struct {
	// Options is the activation context; required.
	Options *activation.Options
	// Forced trackers were requested explicitly and may be empty.
	Forced bool
	// Offset is the length of the activation prefix at the range start.
	Offset int
}

func (o StartOptions) validate(start, caret int) error {
	if o.Options == nil {
		return errors.New("activation options are required")
	}
	if start > caret {
		return errors.Errorf("range start %d is after caret %d", start, caret)
	}
	if start == caret && !o.Forced {
		return errors.Errorf("empty range at %d requires a forced tracker", start)
	}
	if o.Offset < 0 || o.Offset > caret-start {
		return errors.Errorf("prefix length %d does not fit range [%d, %d)", o.Offset, start, caret)
	}
	return nil
}

// reparse recomputes the outcome from the tracked text.
func (t *Tracker) reparse(doc textdoc.Document) {
	text := doc.Substring(t.rng.Start, t.rng.End)
	if t.offset <= len(text) {
		text = text[t.offset:]
	}
	t.outcome = Evaluate(text, t.config)
}

// Evaluate parses text and renders its preview. It is a pure function of
// its inputs.
func Evaluate(text string, cfg abbreviation.Config) Outcome {
	abbr, err := abbreviation.Parse(text, cfg)
	if err != nil {
		return parseError(text, err)
	}

	previewCfg := cfg
	previewCfg.Field = abbreviation.PlaceholderField
	preview, err := abbreviation.Render(abbr, previewCfg)
	if err != nil {
		return parseError(text, err)
	}
	return Valid{Raw: text, Simple: abbr.Simple(), Preview: preview}
}

func parseError(text string, err error) ParseError {
	var perr *abbreviation.ParseError
	if errors.As(err, &perr) {
		return ParseError{Raw: text, Offset: perr.Offset, Message: perr.Message}
	}
	return ParseError{Raw: text, Message: err.Error()}
}
