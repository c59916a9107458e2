package policy_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/emmetls/pkg/activation"
	"github.com/walteh/emmetls/pkg/policy"
	"github.com/walteh/emmetls/pkg/syntax"
	"github.com/walteh/emmetls/pkg/textdoc"
	"github.com/walteh/emmetls/pkg/tracker"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.TestWriter{T: t}).With().Str("test", t.Name()).Logger().WithContext(context.Background())
}

// typeText types each character the way an editor reports keystrokes.
func typeText(ctx context.Context, p *policy.Policy, doc *textdoc.Buffer, syntaxName, text string) (*tracker.Tracker, bool) {
	var (
		t  *tracker.Tracker
		ok bool
	)
	for _, ch := range text {
		doc.Type(string(ch))
		t, ok = p.HandleChange(ctx, doc, syntaxName)
	}
	return t, ok
}

func TestShouldStart(t *testing.T) {
	tests := []struct {
		name   string
		syntax string
		text   string
		before int
		after  int
		want   bool
	}{
		{name: "after space", syntax: "html", text: "x d", before: 2, after: 3, want: true},
		{name: "document start", syntax: "html", text: "d", before: 0, after: 1, want: true},
		{name: "line start", syntax: "html", text: "x\nd", before: 2, after: 3, want: true},
		{name: "after element close", syntax: "html", text: "<p>d", before: 3, after: 4, want: true},
		{name: "class start", syntax: "html", text: " .", before: 1, after: 2, want: true},
		{name: "inside word", syntax: "html", text: "xd", before: 1, after: 2, want: false},
		{name: "digit", syntax: "html", text: " 1", before: 1, after: 2, want: false},
		{name: "paste", syntax: "html", text: " div", before: 1, after: 4, want: false},
		{name: "stylesheet after brace", syntax: "css", text: "a {d", before: 3, after: 4, want: true},
		{name: "stylesheet after semicolon", syntax: "css", text: "a{b:c;d", before: 6, after: 7, want: false},
		{name: "stylesheet after angle", syntax: "scss", text: "a>d", before: 2, after: 3, want: false},
		{name: "markup after semicolon", syntax: "html", text: "&nbsp;d", before: 6, after: 7, want: true},
		{name: "jsx with prefix", syntax: "jsx", text: "x <d", before: 3, after: 4, want: true},
		{name: "jsx prefix at start", syntax: "jsx", text: "<d", before: 1, after: 2, want: true},
		{name: "jsx without prefix", syntax: "jsx", text: "x d", before: 2, after: 3, want: false},
		{name: "jsx comparison", syntax: "jsx", text: "a<d", before: 2, after: 3, want: false},
		{name: "unknown syntax", syntax: "cobol", text: " d", before: 1, after: 2, want: false},
	}

	p := policy.New(tracker.NewStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := textdoc.NewBuffer("doc", tt.text)
			assert.Equal(t, tt.want, p.ShouldStart(doc, tt.syntax, tt.before, tt.after))
		})
	}
}

func TestTypingStartsAndGrows(t *testing.T) {
	ctx := testContext(t)
	p := policy.New(tracker.NewStore())
	doc := textdoc.NewBuffer("doc", "<p></p>")
	doc.SetCaret(3)
	p.HandleSelection(ctx, doc.ID(), 3)

	tr, ok := typeText(ctx, p, doc, "html", "ul>li")
	require.True(t, ok)
	assert.Equal(t, tracker.Range{Start: 3, End: 8}, tr.Range())
	assert.Equal(t, "ul>li", tr.Outcome().RawText())
	_, valid := tr.Valid()
	assert.True(t, valid)
}

func TestTypingSpaceStops(t *testing.T) {
	ctx := testContext(t)
	store := tracker.NewStore()
	p := policy.New(store)
	doc := textdoc.NewBuffer("doc", "<p></p>")
	doc.SetCaret(3)
	p.HandleSelection(ctx, doc.ID(), 3)

	_, ok := typeText(ctx, p, doc, "html", "div")
	require.True(t, ok)

	_, ok = typeText(ctx, p, doc, "html", " ")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, "<p>div </p>", doc.Text())
}

func TestNoStartInsideTag(t *testing.T) {
	ctx := testContext(t)
	store := tracker.NewStore()
	p := policy.New(store)
	doc := textdoc.NewBuffer("doc", "<p ></p>")
	doc.SetCaret(3)
	p.HandleSelection(ctx, doc.ID(), 3)

	_, ok := typeText(ctx, p, doc, "html", "d")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestNoStartWithoutKnownCaret(t *testing.T) {
	ctx := testContext(t)
	p := policy.New(tracker.NewStore())
	doc := textdoc.NewBuffer("doc", "")

	doc.Type("d")
	_, ok := p.HandleChange(ctx, doc, "html")
	assert.False(t, ok)

	_, ok = typeText(ctx, p, doc, "html", " a")
	assert.True(t, ok)
}

func TestPairedCloserIsAbsorbed(t *testing.T) {
	ctx := testContext(t)
	p := policy.New(tracker.NewStore())
	doc := textdoc.NewBuffer("doc", "<p>[]</p>")
	doc.SetCaret(4)

	tr, ok := p.TryStart(ctx, doc, "html", 4)
	require.True(t, ok)
	assert.Equal(t, tracker.Range{Start: 3, End: 5}, tr.Range())
	assert.Equal(t, 4, tr.LastPos())
}

func TestJSXPrefix(t *testing.T) {
	ctx := testContext(t)

	t.Run("default prefix", func(t *testing.T) {
		p := policy.New(tracker.NewStore())
		doc := textdoc.NewBuffer("doc", "(")
		doc.SetCaret(1)
		p.HandleSelection(ctx, doc.ID(), 1)

		tr, ok := typeText(ctx, p, doc, "jsx", "<d")
		require.True(t, ok)
		assert.Equal(t, tracker.Range{Start: 1, End: 3}, tr.Range())
		assert.Equal(t, 1, tr.Offset())
		assert.Equal(t, "d", tr.Outcome().RawText())
	})

	t.Run("custom prefix", func(t *testing.T) {
		p := policy.New(tracker.NewStore(), policy.WithJSXPrefix("@@"))
		doc := textdoc.NewBuffer("doc", " ")
		doc.SetCaret(1)
		p.HandleSelection(ctx, doc.ID(), 1)

		tr, ok := typeText(ctx, p, doc, "jsx", "@@b")
		require.True(t, ok)
		assert.Equal(t, 2, tr.Offset())
		assert.Equal(t, "b", tr.Outcome().RawText())
	})
}

func TestShouldStartFollowsPrefixChanges(t *testing.T) {
	p := policy.New(tracker.NewStore())
	angle := textdoc.NewBuffer("angle", "x <d")
	at := textdoc.NewBuffer("at", "x @@d")

	for range 2 {
		p.SetJSXPrefix("<")
		assert.True(t, p.ShouldStart(angle, "jsx", 3, 4))
		assert.False(t, p.ShouldStart(at, "jsx", 4, 5))

		p.SetJSXPrefix("@@")
		assert.False(t, p.ShouldStart(angle, "jsx", 3, 4))
		assert.True(t, p.ShouldStart(at, "jsx", 4, 5))
	}
}

func TestStylesheetSelectorHeuristic(t *testing.T) {
	ctx := testContext(t)

	tests := []struct {
		name  string
		typed string
		want  bool
	}{
		{name: "unknown property looks like a selector", typed: "x", want: false},
		{name: "known alias is tracked", typed: "c", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tracker.NewStore()
			p := policy.New(store)
			doc := textdoc.NewBuffer("doc", "a {\n  \n}")
			doc.SetCaret(6)
			p.HandleSelection(ctx, doc.ID(), 6)

			_, ok := typeText(ctx, p, doc, "scss", tt.typed)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, boolToInt(tt.want), store.Len())
		})
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func startTracker(t *testing.T, store *tracker.Store, doc *textdoc.Buffer, opts *activation.Options, forced bool) *tracker.Tracker {
	t.Helper()
	doc.SetCaret(doc.Len())
	tr, err := store.Start(testContext(t), doc, 0, doc.Len(), tracker.StartOptions{Options: opts, Forced: forced})
	require.NoError(t, err)
	return tr
}

func TestShouldStop(t *testing.T) {
	markup := &activation.Options{Type: syntax.Markup, Syntax: "html", Context: activation.MarkupContext{}}
	css := &activation.Options{Type: syntax.Stylesheet, Syntax: "css", Context: activation.StylesheetContext{}}

	tests := []struct {
		name   string
		text   string
		opts   *activation.Options
		forced bool
		caret  int
		want   bool
	}{
		{name: "valid", text: "ul>li", opts: markup, caret: 5, want: false},
		{name: "forced error", text: "div[", opts: markup, forced: true, caret: 4, want: false},
		{name: "line break", text: "a\nb", opts: markup, caret: 3, want: true},
		{name: "tab stop marker", text: "a${1}", opts: markup, caret: 5, want: true},
		{name: "error at caret", text: "div[", opts: markup, caret: 4, want: true},
		{name: "error at first character", text: ">a", opts: markup, caret: 1, want: true},
		{name: "error before caret", text: "div[ti", opts: markup, caret: 3, want: false},
		{name: "caret before auto closer", text: "ul>()", opts: markup, caret: 4, want: true},
		{name: "stylesheet terminator", text: "p 1", opts: css, caret: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tracker.NewStore()
			p := policy.New(store)
			doc := textdoc.NewBuffer("doc", tt.text)
			tr := startTracker(t, store, doc, tt.opts, tt.forced)

			assert.Equal(t, tt.want, p.ShouldStop(doc, tr, tt.caret))
		})
	}
}

func TestHandleClose(t *testing.T) {
	ctx := testContext(t)
	store := tracker.NewStore()
	p := policy.New(store)
	doc := textdoc.NewBuffer("doc", " ")
	doc.SetCaret(1)
	p.HandleSelection(ctx, doc.ID(), 1)

	_, ok := typeText(ctx, p, doc, "html", "a")
	require.True(t, ok)

	p.HandleClose(ctx, doc.ID())
	assert.Equal(t, 0, store.Len())
	_, ok = p.LastCaret(doc.ID())
	assert.False(t, ok)
}
