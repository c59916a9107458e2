package abbreviation

const html5Document = `!!!+html[lang=en]>(head>meta[charset=UTF-8]+meta[name=viewport content="width=device-width, initial-scale=1.0"]+title{Document})+body`

// markupSnippets maps snippet names to abbreviations. Values starting with
// `<` are emitted verbatim.
var markupSnippets = map[string]string{
	"!":   html5Document,
	"!!!": "<!DOCTYPE html>",

	"a:link":     "a[href=http://]",
	"a:mail":     "a[href=mailto:]",
	"link:css":   "link[href=style.css]",
	"script:src": "script[src]",
	"meta:utf":   "meta[http-equiv=Content-Type content=text/html;charset=UTF-8]",
	"meta:vp":    `meta[name=viewport content="width=device-width, initial-scale=1.0"]`,

	"inp":            "input[name id]",
	"input:t":        "input",
	"input:text":     "input",
	"input:c":        "input[type=checkbox]",
	"input:checkbox": "input[type=checkbox]",
	"input:r":        "input[type=radio]",
	"input:radio":    "input[type=radio]",
	"input:email":    "input[type=email]",
	"input:p":        "input[type=password]",
	"input:password": "input[type=password]",
	"input:h":        "input[type=hidden value]",
	"input:hidden":   "input[type=hidden value]",
	"input:s":        "input[type=submit value]",
	"input:submit":   "input[type=submit value]",
	"btn":            "button",
	"btn:s":          "button[type=submit]",
	"btn:r":          "button[type=reset]",

	"bq":    "blockquote",
	"hdr":   "header",
	"ftr":   "footer",
	"mn":    "main",
	"sect":  "section",
	"art":   "article",
	"fig":   "figure",
	"str":   "strong",
	"emb":   "embed",
	"obj":   "object",
	"cap":   "caption",
	"colg":  "colgroup",
	"fst":   "fieldset",
	"leg":   "legend",
	"opt":   "option",
	"optg":  "optgroup",
	"tarea": "textarea",
}

// defaultAttributes are added to elements that do not set them.
var defaultAttributes = map[string][]Attribute{
	"a":        {{Name: "href"}},
	"abbr":     {{Name: "title"}},
	"area":     {{Name: "shape", Value: "rect", HasValue: true}, {Name: "coords"}, {Name: "href"}, {Name: "alt"}},
	"base":     {{Name: "href"}},
	"embed":    {{Name: "src"}, {Name: "type"}},
	"form":     {{Name: "action"}},
	"iframe":   {{Name: "src"}, {Name: "frameborder", Value: "0", HasValue: true}},
	"img":      {{Name: "src"}, {Name: "alt"}},
	"input":    {{Name: "type", Value: "text", HasValue: true}},
	"label":    {{Name: "for"}},
	"link":     {{Name: "rel", Value: "stylesheet", HasValue: true}, {Name: "href"}},
	"object":   {{Name: "data"}, {Name: "type"}},
	"select":   {{Name: "name"}, {Name: "id"}},
	"textarea": {{Name: "name"}, {Name: "id"}, {Name: "cols", Value: "30", HasValue: true}, {Name: "rows", Value: "10", HasValue: true}},
}

var inlineElements = map[string]bool{
	"a": true, "abbr": true, "acronym": true, "b": true, "bdi": true, "bdo": true,
	"big": true, "br": true, "button": true, "cite": true, "code": true,
	"data": true, "del": true, "dfn": true, "em": true, "font": true, "i": true,
	"img": true, "input": true, "ins": true, "kbd": true, "label": true,
	"map": true, "mark": true, "meter": true, "object": true, "output": true,
	"q": true, "s": true, "samp": true, "select": true, "small": true,
	"span": true, "strike": true, "strong": true, "sub": true, "sup": true,
	"textarea": true, "time": true, "tt": true, "u": true, "var": true,
	"wbr": true,
}

// implicitChildren names the element an unnamed child of a parent gets.
var implicitChildren = map[string]string{
	"ul":       "li",
	"ol":       "li",
	"table":    "tr",
	"tbody":    "tr",
	"thead":    "tr",
	"tfoot":    "tr",
	"tr":       "td",
	"select":   "option",
	"optgroup": "option",
	"datalist": "option",
	"audio":    "source",
	"video":    "source",
	"picture":  "source",
	"map":      "area",
}

func implicitTag(parent string) string {
	if name, ok := implicitChildren[parent]; ok {
		return name
	}
	if inlineElements[parent] {
		return "span"
	}
	return "div"
}

// jsxAttributes renames attributes that are reserved words in JSX.
var jsxAttributes = map[string]string{
	"class": "className",
	"for":   "htmlFor",
}
