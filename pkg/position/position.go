package position

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Place is a zero-based line and character pair. Character counts UTF-16
// code units, which is what LSP clients send.
type Place struct {
	Line      int
	Character int
}

// OffsetAt converts a line/character pair to a byte offset. Lines past the
// end map to len(text); characters past the end of a line map to the line
// break.
func OffsetAt(text string, place Place) int {
	offset := 0
	for line := 0; line < place.Line; line++ {
		next := indexByteFrom(text, '\n', offset)
		if next < 0 {
			return len(text)
		}
		offset = next + 1
	}

	units := 0
	for offset < len(text) && units < place.Character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		units += utf16Len(r)
		offset += size
	}
	return offset
}

// PlaceAt converts a byte offset to a line/character pair.
func PlaceAt(text string, offset int) Place {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}

	var place Place
	lineStart := 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			place.Line++
			lineStart = i + 1
		}
	}

	for i := lineStart; i < offset; {
		r, size := utf8.DecodeRuneInString(text[i:])
		place.Character += utf16Len(r)
		i += size
	}
	return place
}

// LineBounds returns the byte range of the line holding offset, excluding
// the line break.
func LineBounds(text string, offset int) (start, end int) {
	if offset > len(text) {
		offset = len(text)
	}
	start = offset
	for start > 0 && text[start-1] != '\n' {
		start--
	}
	end = offset
	for end < len(text) && text[end] != '\n' {
		end++
	}
	return start, end
}

func utf16Len(r rune) int {
	if r == utf8.RuneError {
		return 1
	}
	return len(utf16.Encode([]rune{r}))
}

func indexByteFrom(s string, c byte, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
