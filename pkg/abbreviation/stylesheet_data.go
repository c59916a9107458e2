package abbreviation

var propertyAliases = map[string]string{
	"p":    "padding",
	"pt":   "padding-top",
	"pr":   "padding-right",
	"pb":   "padding-bottom",
	"pl":   "padding-left",
	"m":    "margin",
	"mt":   "margin-top",
	"mr":   "margin-right",
	"mb":   "margin-bottom",
	"ml":   "margin-left",
	"w":    "width",
	"h":    "height",
	"maw":  "max-width",
	"mah":  "max-height",
	"miw":  "min-width",
	"mih":  "min-height",
	"c":    "color",
	"bg":   "background",
	"bgc":  "background-color",
	"bgi":  "background-image",
	"bd":   "border",
	"bdc":  "border-color",
	"bdw":  "border-width",
	"bds":  "border-style",
	"bdrs": "border-radius",
	"bxsh": "box-shadow",
	"bxz":  "box-sizing",
	"fz":   "font-size",
	"ff":   "font-family",
	"fw":   "font-weight",
	"fs":   "font-style",
	"lh":   "line-height",
	"lts":  "letter-spacing",
	"ta":   "text-align",
	"td":   "text-decoration",
	"tt":   "text-transform",
	"ti":   "text-indent",
	"va":   "vertical-align",
	"ws":   "white-space",
	"d":    "display",
	"pos":  "position",
	"t":    "top",
	"r":    "right",
	"b":    "bottom",
	"l":    "left",
	"z":    "z-index",
	"zi":   "z-index",
	"op":   "opacity",
	"ov":   "overflow",
	"cur":  "cursor",
	"fl":   "float",
	"cl":   "clear",
	"v":    "visibility",
	"ct":   "content",
	"trf":  "transform",
	"trs":  "transition",
	"fx":   "flex",
	"fxd":  "flex-direction",
	"fxw":  "flex-wrap",
	"ai":   "align-items",
	"jc":   "justify-content",
	"gap":  "gap",
}

// keywordSnippets expand to a complete declaration.
var keywordSnippets = map[string][2]string{
	"dn":    {"display", "none"},
	"db":    {"display", "block"},
	"di":    {"display", "inline"},
	"dib":   {"display", "inline-block"},
	"df":    {"display", "flex"},
	"dif":   {"display", "inline-flex"},
	"dg":    {"display", "grid"},
	"poa":   {"position", "absolute"},
	"por":   {"position", "relative"},
	"pof":   {"position", "fixed"},
	"tac":   {"text-align", "center"},
	"tal":   {"text-align", "left"},
	"tar":   {"text-align", "right"},
	"taj":   {"text-align", "justify"},
	"fll":   {"float", "left"},
	"flr":   {"float", "right"},
	"ovh":   {"overflow", "hidden"},
	"ova":   {"overflow", "auto"},
	"cup":   {"cursor", "pointer"},
	"fwb":   {"font-weight", "bold"},
	"fwn":   {"font-weight", "normal"},
	"fsi":   {"font-style", "italic"},
	"tdn":   {"text-decoration", "none"},
	"tdu":   {"text-decoration", "underline"},
	"ttu":   {"text-transform", "uppercase"},
	"bxzbb": {"box-sizing", "border-box"},
	"wsnw":  {"white-space", "nowrap"},
	"vh":    {"visibility", "hidden"},
}

var propertyKeywords = map[string]map[string]string{
	"display": {
		"n": "none", "b": "block", "i": "inline", "ib": "inline-block",
		"f": "flex", "if": "inline-flex", "g": "grid", "ig": "inline-grid",
		"t": "table", "li": "list-item", "c": "contents",
	},
	"position": {
		"s": "static", "a": "absolute", "r": "relative", "f": "fixed", "st": "sticky",
	},
	"text-align": {
		"l": "left", "c": "center", "r": "right", "j": "justify",
	},
	"float": {"l": "left", "r": "right", "n": "none"},
	"clear": {"l": "left", "r": "right", "b": "both", "n": "none"},
	"overflow": {
		"h": "hidden", "v": "visible", "s": "scroll", "a": "auto",
	},
	"visibility": {"v": "visible", "h": "hidden", "c": "collapse"},
	"font-weight": {
		"n": "normal", "b": "bold", "br": "bolder", "lr": "lighter",
	},
	"font-style": {"n": "normal", "i": "italic", "o": "oblique"},
	"text-decoration": {
		"n": "none", "u": "underline", "o": "overline", "l": "line-through",
	},
	"text-transform": {
		"u": "uppercase", "l": "lowercase", "c": "capitalize", "n": "none",
	},
	"cursor": {
		"p": "pointer", "d": "default", "a": "auto", "t": "text", "m": "move",
		"h": "help", "w": "wait",
	},
	"white-space": {
		"n": "normal", "p": "pre", "nw": "nowrap", "pw": "pre-wrap", "pl": "pre-line",
	},
	"vertical-align": {
		"t": "top", "m": "middle", "b": "bottom", "bl": "baseline",
		"s": "sub", "sp": "super",
	},
	"box-sizing": {"bb": "border-box", "cb": "content-box"},
	"align-items": {
		"c": "center", "fs": "flex-start", "fe": "flex-end", "s": "stretch", "b": "baseline",
	},
	"justify-content": {
		"c": "center", "fs": "flex-start", "fe": "flex-end",
		"sb": "space-between", "sa": "space-around", "se": "space-evenly",
	},
	"flex-direction": {
		"r": "row", "c": "column", "rr": "row-reverse", "cr": "column-reverse",
	},
	"border": {
		"n": "none", "s": "solid", "d": "dashed", "dt": "dotted", "db": "double",
	},
}

var globalKeywords = map[string]string{
	"a":  "auto",
	"i":  "inherit",
	"n":  "none",
	"t":  "transparent",
	"s":  "solid",
	"d":  "dashed",
	"dt": "dotted",
	"c":  "center",
}

var unitAliases = map[string]string{
	"p": "%",
	"e": "em",
	"x": "ex",
	"r": "rem",
}

var unitlessProperties = map[string]bool{
	"z-index":     true,
	"opacity":     true,
	"line-height": true,
	"font-weight": true,
	"flex":        true,
	"flex-grow":   true,
	"flex-shrink": true,
	"order":       true,
	"zoom":        true,
}
