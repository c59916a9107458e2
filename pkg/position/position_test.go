package position_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/emmetls/pkg/position"
)

func TestPlaceAt(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
		want   position.Place
	}{
		{
			name:   "empty text",
			text:   "",
			offset: 0,
			want:   position.Place{Line: 0, Character: 0},
		},
		{
			name:   "single line, middle position",
			text:   "Hello, World!",
			offset: 7,
			want:   position.Place{Line: 0, Character: 7},
		},
		{
			name:   "multiple lines, second line",
			text:   "Hello\nWorld\nTest zzz",
			offset: 8,
			want:   position.Place{Line: 1, Character: 2},
		},
		{
			name:   "right after line break",
			text:   "ab\ncd",
			offset: 3,
			want:   position.Place{Line: 1, Character: 0},
		},
		{
			name:   "multi-byte runes count as utf-16 units",
			text:   "é😀x",
			offset: len("é😀"),
			want:   position.Place{Line: 0, Character: 3},
		},
		{
			name:   "offset past end is clamped",
			text:   "abc",
			offset: 10,
			want:   position.Place{Line: 0, Character: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, position.PlaceAt(tt.text, tt.offset))
		})
	}
}

func TestOffsetAt(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		place position.Place
		want  int
	}{
		{
			name:  "first line",
			text:  "Hello\nWorld",
			place: position.Place{Line: 0, Character: 3},
			want:  3,
		},
		{
			name:  "second line",
			text:  "Hello\nWorld",
			place: position.Place{Line: 1, Character: 2},
			want:  8,
		},
		{
			name:  "character past line end stops at line break",
			text:  "ab\ncd",
			place: position.Place{Line: 0, Character: 10},
			want:  2,
		},
		{
			name:  "line past end",
			text:  "ab\ncd",
			place: position.Place{Line: 7, Character: 0},
			want:  5,
		},
		{
			name:  "surrogate pairs",
			text:  "😀x",
			place: position.Place{Line: 0, Character: 2},
			want:  len("😀"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, position.OffsetAt(tt.text, tt.place))
		})
	}
}

func TestLineBounds(t *testing.T) {
	text := "one\ntwo three\nfour"
	start, end := position.LineBounds(text, 8)
	assert.Equal(t, 4, start)
	assert.Equal(t, 13, end)
	assert.Equal(t, "two three", text[start:end])
}
