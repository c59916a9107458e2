package abbreviation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/emmetls/pkg/abbreviation"
	"github.com/walteh/emmetls/pkg/diff"
	"github.com/walteh/emmetls/pkg/syntax"
)

func preview(syn string) abbreviation.Config {
	d, _ := syntax.Lookup(syn)
	return abbreviation.Config{Type: d.Type, Syntax: syn, Field: abbreviation.PlaceholderField}
}

func TestExpandMarkup(t *testing.T) {
	tests := []struct {
		name   string
		abbr   string
		config abbreviation.Config
		want   string
	}{
		{
			name:   "class and id",
			abbr:   "div#main.a.b",
			config: preview("html"),
			want:   `<div id="main" class="a b"></div>`,
		},
		{
			name:   "default attributes",
			abbr:   "a",
			config: preview("html"),
			want:   `<a href=""></a>`,
		},
		{
			name:   "void element html",
			abbr:   "img",
			config: preview("html"),
			want:   `<img src="" alt="">`,
		},
		{
			name:   "void element xhtml",
			abbr:   "br",
			config: preview("xhtml"),
			want:   `<br />`,
		},
		{
			name:   "xml has no void elements",
			abbr:   "br+item/",
			config: preview("xml"),
			want:   "<br></br>\n<item/>",
		},
		{
			name:   "implicit list items with numbering",
			abbr:   "ul>.item$*2",
			config: preview("html"),
			want:   "<ul>\n\t<li class=\"item1\"></li>\n\t<li class=\"item2\"></li>\n</ul>",
		},
		{
			name:   "reverse numbering",
			abbr:   "li.x$@-*3",
			config: preview("html"),
			want:   "<li class=\"x3\"></li>\n<li class=\"x2\"></li>\n<li class=\"x1\"></li>",
		},
		{
			name:   "padded numbering with base",
			abbr:   "p#n$$@9*2",
			config: preview("html"),
			want:   "<p id=\"n09\"></p>\n<p id=\"n10\"></p>",
		},
		{
			name:   "inline children stay on one line",
			abbr:   "p>{Hello}+b",
			config: preview("html"),
			want:   "<p>Hello<b></b></p>",
		},
		{
			name:   "climb up",
			abbr:   "div>p^span",
			config: preview("html"),
			want:   "<div>\n\t<p></p>\n</div>\n<span></span>",
		},
		{
			name:   "repeated group",
			abbr:   "(dt+dd)*2",
			config: preview("html"),
			want:   "<dt></dt>\n<dd></dd>\n<dt></dt>\n<dd></dd>",
		},
		{
			name:   "attributes",
			abbr:   `td[colspan=2 title="a b" hidden]`,
			config: preview("html"),
			want:   `<td colspan="2" title="a b" hidden=""></td>`,
		},
		{
			name:   "trailing operator is accepted",
			abbr:   "div+",
			config: preview("html"),
			want:   "<div></div>",
		},
		{
			name:   "jsx attribute names",
			abbr:   "label.a+br",
			config: preview("jsx"),
			want:   `<label htmlFor="" className="a"></label><br />`,
		},
		{
			name:   "snippet",
			abbr:   "a:link",
			config: preview("html"),
			want:   `<a href="http://"></a>`,
		},
		{
			name: "user snippet",
			abbr: "card",
			config: abbreviation.Config{
				Syntax:   "html",
				Field:    abbreviation.PlaceholderField,
				Snippets: map[string]string{"card": "div.card>h2+p"},
			},
			want: "<div class=\"card\">\n\t<h2></h2>\n\t<p></p>\n</div>",
		},
		{
			name:   "inline output",
			abbr:   "ul>li*2",
			config: abbreviation.Config{Syntax: "html", Inline: true, Field: abbreviation.PlaceholderField},
			want:   "<ul><li></li><li></li></ul>",
		},
		{
			name:   "implicit name from context",
			abbr:   ".x",
			config: abbreviation.Config{Syntax: "html", Parent: "em", Field: abbreviation.PlaceholderField},
			want:   `<span class="x"></span>`,
		},
		{
			name:   "indent from config",
			abbr:   "ol>li",
			config: abbreviation.Config{Syntax: "html", Indent: "  ", Field: abbreviation.PlaceholderField},
			want:   "<ol>\n  <li></li>\n</ol>",
		},
		{
			name:   "snippet fields",
			abbr:   "ul>li*3",
			config: abbreviation.Config{Syntax: "html"},
			want:   "<ul>\n\t<li>${1}</li>\n\t<li>${2}</li>\n\t<li>${3}</li>\n</ul>",
		},
		{
			name:   "snippet fields in attributes",
			abbr:   "a{$5}",
			config: abbreviation.Config{Syntax: "html"},
			want:   `<a href="${1}">\$5</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := abbreviation.Expand(tt.abbr, tt.config)
			require.NoError(t, err)
			diff.RequireText(t, tt.want, got)
		})
	}
}

func TestExpandDocumentSnippet(t *testing.T) {
	got, err := abbreviation.Expand("!", preview("html"))
	require.NoError(t, err)
	assert.Contains(t, got, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n\t<meta charset=\"UTF-8\">")
	assert.Contains(t, got, "\t<title>Document</title>")
	assert.Contains(t, got, "<body></body>\n</html>")
}

func TestExpandStylesheet(t *testing.T) {
	tests := []struct {
		name   string
		abbr   string
		config abbreviation.Config
		want   string
	}{
		{name: "number with default unit", abbr: "p10", config: preview("css"), want: "padding: 10px;"},
		{name: "multiple values", abbr: "m10-20", config: preview("css"), want: "margin: 10px 20px;"},
		{name: "negative first value", abbr: "m-10", config: preview("css"), want: "margin: -10px;"},
		{name: "negative second value", abbr: "m10--20", config: preview("css"), want: "margin: 10px -20px;"},
		{name: "unit alias", abbr: "w100p", config: preview("css"), want: "width: 100%;"},
		{name: "float gets em", abbr: "fz1.5", config: preview("css"), want: "font-size: 1.5em;"},
		{name: "unitless property", abbr: "lh1.5", config: preview("css"), want: "line-height: 1.5;"},
		{name: "zero", abbr: "p0", config: preview("css"), want: "padding: 0;"},
		{name: "keyword snippet", abbr: "dn", config: preview("css"), want: "display: none;"},
		{name: "alias plus keyword", abbr: "ovs", config: preview("css"), want: "overflow: scroll;"},
		{name: "name colon keyword", abbr: "pos:a", config: preview("css"), want: "position: absolute;"},
		{name: "short color", abbr: "c#f", config: preview("css"), want: "color: #fff;"},
		{name: "two digit color", abbr: "c#fc", config: preview("css"), want: "color: #fcfcfc;"},
		{name: "mixed values", abbr: "bd1-s-#f", config: preview("css"), want: "border: 1px solid #fff;"},
		{name: "important", abbr: "p10!", config: preview("css"), want: "padding: 10px !important;"},
		{name: "joined properties", abbr: "p10+m5", config: preview("css"), want: "padding: 10px;\nmargin: 5px;"},
		{name: "unknown property", abbr: "x", config: preview("css"), want: "x: ;"},
		{name: "sass has no semicolons", abbr: "p10", config: preview("sass"), want: "padding: 10px"},
		{name: "stylus has no colon", abbr: "p10", config: preview("stylus"), want: "padding 10px"},
		{
			name:   "inline",
			abbr:   "p10+m5",
			config: abbreviation.Config{Syntax: "css", Inline: true, Field: abbreviation.PlaceholderField},
			want:   "padding: 10px; margin: 5px;",
		},
		{
			name:   "value scope keyword",
			abbr:   "ib",
			config: abbreviation.Config{Syntax: "css", Property: "display", Field: abbreviation.PlaceholderField},
			want:   "inline-block",
		},
		{
			name:   "value scope numbers",
			abbr:   "10-20",
			config: abbreviation.Config{Syntax: "css", Property: "padding", Field: abbreviation.PlaceholderField},
			want:   "10px 20px",
		},
		{
			name:   "snippet field",
			abbr:   "bgc",
			config: abbreviation.Config{Syntax: "css"},
			want:   "background-color: ${1};",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := abbreviation.Expand(tt.abbr, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		abbr       string
		syntax     string
		wantOffset int
	}{
		{name: "empty", abbr: "", syntax: "html", wantOffset: 0},
		{name: "space between elements", abbr: "div ul", syntax: "html", wantOffset: 3},
		{name: "unclosed attributes", abbr: "div[title", syntax: "html", wantOffset: 9},
		{name: "unclosed text", abbr: "p{abc", syntax: "html", wantOffset: 5},
		{name: "unclosed group", abbr: "(div", syntax: "html", wantOffset: 4},
		{name: "leading operator", abbr: ">div", syntax: "html", wantOffset: 0},
		{name: "stray closer", abbr: "div}", syntax: "html", wantOffset: 3},
		{name: "css space", abbr: "p 10", syntax: "css", wantOffset: 1},
		{name: "css comma", abbr: "p10,", syntax: "css", wantOffset: 3},
		{name: "css leading number", abbr: "10", syntax: "css", wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := abbreviation.Parse(tt.abbr, preview(tt.syntax))
			require.Error(t, err)

			var perr *abbreviation.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantOffset, perr.Offset)
			assert.NotEmpty(t, perr.Message)
		})
	}
}

func TestSimple(t *testing.T) {
	tests := []struct {
		abbr   string
		syntax string
		want   bool
	}{
		{abbr: "div", syntax: "html", want: true},
		{abbr: ".x", syntax: "html", want: true},
		{abbr: "{hello}", syntax: "html", want: true},
		{abbr: "Div", syntax: "html", want: false},
		{abbr: "div>p", syntax: "html", want: false},
		{abbr: "li*3", syntax: "html", want: false},
		{abbr: "a+b", syntax: "html", want: false},
		{abbr: "p10", syntax: "css", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.abbr, func(t *testing.T) {
			abbr, err := abbreviation.Parse(tt.abbr, preview(tt.syntax))
			require.NoError(t, err)
			assert.Equal(t, tt.want, abbr.Simple())
		})
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	for _, text := range []string{"ul>li.item$*3>a", "bd1-s-#f+p10!", "!"} {
		cfg := preview("html")
		if text == "bd1-s-#f+p10!" {
			cfg = preview("css")
		}
		first, err := abbreviation.Expand(text, cfg)
		require.NoError(t, err)
		second, err := abbreviation.Expand(text, cfg)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}
