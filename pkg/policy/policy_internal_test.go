package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixedBoundaryIsCompiledOnce(t *testing.T) {
	assert.Same(t, prefixedBoundary("<"), prefixedBoundary("<"))
	assert.NotSame(t, prefixedBoundary("<"), prefixedBoundary("@@"))
	assert.True(t, prefixedBoundary("a.b").MatchString(" a.bd"))
	assert.False(t, prefixedBoundary("a.b").MatchString(" axbd"))
}

func TestEmptyDeclaration(t *testing.T) {
	tests := []struct {
		preview string
		want    string
	}{
		{preview: "x: ;", want: "x"},
		{preview: "  x:;", want: "x"},
		{preview: "x :", want: "x"},
		{preview: "x: 1px;", want: ""},
		{preview: "x:y: ;", want: "x:y"},
	}

	for _, tt := range tests {
		t.Run(tt.preview, func(t *testing.T) {
			var got string
			if m := emptyDeclaration.FindStringSubmatch(tt.preview); m != nil {
				got = m[1]
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
