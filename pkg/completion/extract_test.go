package completion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walteh/emmetls/pkg/completion"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		caret  int
		prefix string
		want   completion.Extracted
		ok     bool
	}{
		{name: "whole line", line: "ul>li*3", caret: 7, want: completion.Extracted{Text: "ul>li*3", Start: 0, End: 7}, ok: true},
		{name: "after indentation", line: "\t\tp.x", caret: 5, want: completion.Extracted{Text: "p.x", Start: 2, End: 5}, ok: true},
		{name: "stops at tag", line: "<p>a+b", caret: 6, want: completion.Extracted{Text: "a+b", Start: 3, End: 6}, ok: true},
		{name: "caret mid line", line: "div span", caret: 3, want: completion.Extracted{Text: "div", Start: 0, End: 3}, ok: true},
		{name: "spaces in attributes", line: `x a[title="a b" c]`, caret: 18, want: completion.Extracted{Text: `a[title="a b" c]`, Start: 2, End: 18}, ok: true},
		{name: "text with quote and brackets", line: "p{don't [stop]}", caret: 15, want: completion.Extracted{Text: "p{don't [stop]}", Start: 0, End: 15}, ok: true},
		{name: "group", line: " (a+b)*2", caret: 8, want: completion.Extracted{Text: "(a+b)*2", Start: 1, End: 8}, ok: true},
		{name: "leading operator is dropped", line: " >div", caret: 5, want: completion.Extracted{Text: "div", Start: 2, End: 5}, ok: true},
		{name: "unbalanced closer", line: "a]", caret: 2, ok: false},
		{name: "mismatched brackets", line: "a(b]", caret: 4, ok: false},
		{name: "nothing before caret", line: "div ", caret: 4, ok: false},
		{name: "jsx prefix", line: "(<div.a", caret: 7, prefix: "<", want: completion.Extracted{Text: "div.a", Start: 1, End: 7}, ok: true},
		{name: "jsx prefix missing", line: "(div.a", caret: 6, prefix: "<", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := completion.Extract(tt.line, tt.caret, tt.prefix)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
