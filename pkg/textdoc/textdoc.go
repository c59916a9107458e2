// Package textdoc is the read/write surface the abbreviation engine uses to
// look at host documents. Offsets are byte offsets into UTF-8 text.
package textdoc

import (
	"sync"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"
)

// ID is a stable document identity. Multiple editors viewing one document
// share the same ID.
type ID string

// Document is a snapshot accessor over a host document.
type Document interface {
	ID() ID
	Len() int
	Text() string
	Substring(start, end int) string
	Caret() int
}

// Editor is a Document that accepts replacement requests.
type Editor interface {
	Document
	Replace(start, end int, text string) error
	SetCaret(pos int)
}

// Buffer is an in-memory Editor. It is what the LSP server keeps per open
// document and what tests drive directly.
type Buffer struct {
	mu sync.RWMutex

	id      ID
	content string
	caret   int

	LanguageID string
	Version    int32
}

var _ Editor = (*Buffer)(nil)

// NewBuffer creates a buffer. An empty id gets a random one.
func NewBuffer(id ID, content string) *Buffer {
	if id == "" {
		id = ID(uuid.NewString())
	}
	return &Buffer{id: id, content: content}
}

func (b *Buffer) ID() ID {
	return b.id
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.content)
}

func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.content
}

// Substring returns content[start:end] with both bounds clamped to the
// document.
func (b *Buffer) Substring(start, end int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start = clamp(start, 0, len(b.content))
	end = clamp(end, start, len(b.content))
	return b.content[start:end]
}

func (b *Buffer) Caret() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.caret
}

func (b *Buffer) SetCaret(pos int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.caret = clamp(pos, 0, len(b.content))
}

// Replace swaps content[start:end] for text. The caret is moved the way an
// editor moves it: positions after the replaced span shift by the length
// difference, positions inside it snap to the end of the new text.
func (b *Buffer) Replace(start, end int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || end < start || end > len(b.content) {
		return errors.Errorf("invalid replace range [%d, %d) for document of length %d", start, end, len(b.content))
	}

	b.content = b.content[:start] + text + b.content[end:]

	switch {
	case b.caret >= end:
		b.caret += len(text) - (end - start)
	case b.caret > start:
		b.caret = start + len(text)
	}

	return nil
}

// SetText replaces the whole content, keeping the caret in bounds.
func (b *Buffer) SetText(content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.content = content
	b.caret = clamp(b.caret, 0, len(content))
}

// Type inserts text at the caret and leaves the caret after it, the way a
// keystroke does.
func (b *Buffer) Type(text string) {
	pos := b.Caret()
	_ = b.Replace(pos, pos, text)
	b.SetCaret(pos + len(text))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
