package lsp

import (
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/lsp/protocol"
	"github.com/walteh/emmetls/pkg/position"
	"github.com/walteh/emmetls/pkg/textdoc"
)

// Document is an open text document. Its textdoc ID is the URI.
type Document struct {
	*textdoc.Buffer

	URI protocol.DocumentURI
	// Dialect is the dialect of the language id, empty when unknown.
	Dialect string
	// Indent comes from .editorconfig, empty when none applies.
	Indent string
}

func (d *Document) Offset(pos protocol.Position) int {
	return position.OffsetAt(d.Text(), position.Place{Line: int(pos.Line), Character: int(pos.Character)})
}

func (d *Document) Position(offset int) protocol.Position {
	p := position.PlaceAt(d.Text(), offset)
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func (d *Document) Range(start, end int) protocol.Range {
	return protocol.Range{Start: d.Position(start), End: d.Position(end)}
}

// Apply performs one content change and returns the byte offsets it
// covered in the old text. Full-text changes report ok false.
func (d *Document) Apply(change protocol.TextDocumentContentChangeEvent) (start, end int, ok bool, err error) {
	if change.Range == nil {
		d.SetText(change.Text)
		return 0, 0, false, nil
	}
	start = d.Offset(change.Range.Start)
	end = d.Offset(change.Range.End)
	if err := d.Replace(start, end, change.Text); err != nil {
		return 0, 0, false, errors.Errorf("applying change to %s: %w", d.URI, err)
	}
	return start, end, true, nil
}

// DocumentManager holds the open documents.
type DocumentManager struct {
	store sync.Map // protocol.DocumentURI -> *Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{}
}

func (m *DocumentManager) Get(uri protocol.DocumentURI) (*Document, bool) {
	v, ok := m.store.Load(uri)
	if !ok {
		return nil, false
	}
	return v.(*Document), true
}

func (m *DocumentManager) Store(doc *Document) {
	m.store.Store(doc.URI, doc)
}

func (m *DocumentManager) Delete(uri protocol.DocumentURI) {
	m.store.Delete(uri)
}

func (m *DocumentManager) Range(fn func(*Document) bool) {
	m.store.Range(func(_, v any) bool {
		return fn(v.(*Document))
	})
}

// Live reports whether the document with the given textdoc ID is open.
func (m *DocumentManager) Live(id textdoc.ID) bool {
	_, ok := m.store.Load(protocol.DocumentURI(id))
	return ok
}

// editRecorder captures the replacement a store operation asks for instead
// of applying it, so it can be sent to the client as a workspace edit.
type editRecorder struct {
	*Document

	recorded   bool
	start, end int
	text       string
}

var _ textdoc.Editor = (*editRecorder)(nil)

func (r *editRecorder) Replace(start, end int, text string) error {
	r.recorded = true
	r.start, r.end, r.text = start, end, text
	return nil
}

func (r *editRecorder) SetCaret(int) {}
