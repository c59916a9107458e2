package completion

import "strings"

// Extracted is an abbreviation found to the left of a caret on one line.
// Start includes the activation prefix; Text does not.
type Extracted struct {
	Text  string
	Start int
	End   int
}

const abbreviationChars = "#.*:$-_!@%^+>/"

var closers = map[byte]byte{']': '[', '}': '{', ')': '('}

// Extract walks left from caret over characters that can form an
// abbreviation. Brackets must balance; attribute lists and text may hold
// any character. When prefix is set the abbreviation must follow it.
func Extract(line string, caret int, prefix string) (Extracted, bool) {
	if caret > len(line) {
		caret = len(line)
	}
	if caret < 0 {
		return Extracted{}, false
	}

	var stack []byte
	pos := caret
scan:
	for pos > 0 {
		c := line[pos-1]
		n := len(stack)

		switch {
		case n > 0 && isQuote(stack[n-1]):
			if c == stack[n-1] {
				stack = stack[:n-1]
			}
		case n > 0 && stack[n-1] == '}':
			if c == '}' {
				stack = append(stack, c)
			} else if c == '{' {
				stack = stack[:n-1]
			}
		case closers[c] != 0:
			stack = append(stack, c)
		case c == '[' || c == '{' || c == '(':
			if n == 0 {
				break scan
			}
			if closers[stack[n-1]] != c {
				return Extracted{}, false
			}
			stack = stack[:n-1]
		case isQuote(c):
			if n == 0 {
				break scan
			}
			stack = append(stack, c)
		case n > 0 && stack[n-1] == ']':
		case c == '>' && endsTag(line[:pos]):
			break scan
		case isAbbreviationChar(c):
		default:
			break scan
		}
		pos--
	}
	if len(stack) > 0 {
		return Extracted{}, false
	}

	for pos < caret && !canStart(line[pos]) {
		pos++
	}
	if pos == caret {
		return Extracted{}, false
	}

	start := pos
	if prefix != "" {
		if !strings.HasSuffix(line[:pos], prefix) {
			return Extracted{}, false
		}
		start -= len(prefix)
	}
	return Extracted{Text: line[pos:caret], Start: start, End: caret}, true
}

// endsTag reports whether s ends with a markup tag such as `<p>` or `</p>`.
func endsTag(s string) bool {
	open := strings.LastIndexByte(s[:len(s)-1], '<')
	if open < 0 || open+1 >= len(s)-1 {
		return false
	}
	if strings.IndexByte(s[open:len(s)-1], '>') >= 0 {
		return false
	}
	c := s[open+1]
	return c == '/' || c == '!' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

func isAbbreviationChar(c byte) bool {
	return isAlnum(c) || strings.IndexByte(abbreviationChars, c) >= 0
}

func canStart(c byte) bool {
	return isAlnum(c) || strings.IndexByte(".#!@[({-", c) >= 0
}

func isAlnum(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
