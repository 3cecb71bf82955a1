package message

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder names used by the Angular extractor for well-known elements.
var tagPlaceholderNames = map[string]string{
	"a":     "LINK",
	"b":     "BOLD_TEXT",
	"br":    "LINE_BREAK",
	"em":    "EMPHASISED_TEXT",
	"h1":    "HEADING_LEVEL1",
	"h2":    "HEADING_LEVEL2",
	"h3":    "HEADING_LEVEL3",
	"h4":    "HEADING_LEVEL4",
	"h5":    "HEADING_LEVEL5",
	"h6":    "HEADING_LEVEL6",
	"hr":    "HORIZONTAL_RULE",
	"i":     "ITALIC_TEXT",
	"li":    "LIST_ITEM",
	"link":  "MEDIA_LINK",
	"ol":    "ORDERED_LIST",
	"p":     "PARAGRAPH",
	"q":     "QUOTATION",
	"s":     "STRIKETHROUGH_TEXT",
	"small": "SMALL_TEXT",
	"sub":   "SUBSTRIPT",
	"sup":   "SUPERSCRIPT",
	"tbody": "TABLE_BODY",
	"td":    "TABLE_CELL",
	"tfoot": "TABLE_FOOTER",
	"th":    "TABLE_HEADER_CELL",
	"thead": "TABLE_HEADER",
	"tr":    "TABLE_ROW",
	"tt":    "MONOSPACED_TEXT",
	"u":     "UNDERLINED_TEXT",
	"ul":    "UNORDERED_LIST",
}

var tagNamesByPlaceholder = func() map[string]string {
	m := make(map[string]string, len(tagPlaceholderNames))
	for tag, name := range tagPlaceholderNames {
		m[name] = tag
	}
	return m
}()

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

func isVoidElement(name string) bool {
	return voidElements[strings.ToLower(name)]
}

func tagBaseName(tag string) string {
	tag = strings.ToLower(tag)
	if n, ok := tagPlaceholderNames[tag]; ok {
		return n
	}
	return "TAG_" + strings.ToUpper(tag)
}

func tagFromBaseName(base string) string {
	if t, ok := tagNamesByPlaceholder[base]; ok {
		return t
	}
	return strings.ToLower(strings.TrimPrefix(base, "TAG_"))
}

func counterSuffix(n int) string {
	if n == 0 {
		return ""
	}
	return "_" + strconv.Itoa(n)
}

// placeholderName returns the Angular placeholder name of a non-text part.
func placeholderName(p Part) string {
	switch v := p.(type) {
	case Placeholder:
		return "INTERPOLATION" + counterSuffix(v.Index)
	case ICUMessageRef:
		return "ICU" + counterSuffix(v.Index)
	case Tag:
		base := tagBaseName(v.Name)
		switch v.Kind {
		case TagOpen:
			return "START_" + base + counterSuffix(v.Counter)
		case TagClose:
			return "CLOSE_" + base + counterSuffix(v.Counter)
		default:
			return base + counterSuffix(v.Counter)
		}
	}
	return ""
}

var counterRE = regexp.MustCompile(`^(.*?)(?:_(\d+))?$`)

// partFromPlaceholderName is the inverse of placeholderName. expr is the
// original expression carried by the native element, if any.
func partFromPlaceholderName(name, expr string) Part {
	m := counterRE.FindStringSubmatch(name)
	base := m[1]
	n := 0
	if m[2] != "" {
		n, _ = strconv.Atoi(m[2])
	}
	switch {
	case base == "INTERPOLATION":
		if expr == name {
			expr = ""
		}
		return Placeholder{Index: n, Expression: expr}
	case base == "ICU":
		return ICUMessageRef{Index: n}
	case strings.HasPrefix(base, "START_"):
		return Tag{Kind: TagOpen, Name: tagFromBaseName(strings.TrimPrefix(base, "START_")), Counter: n}
	case strings.HasPrefix(base, "CLOSE_"):
		return Tag{Kind: TagClose, Name: tagFromBaseName(strings.TrimPrefix(base, "CLOSE_")), Counter: n}
	}
	return Tag{Kind: TagEmpty, Name: tagFromBaseName(base), Counter: n}
}

// htmlForTag renders the HTML the tag stands for, used for equiv-text and
// disp attributes.
func htmlForTag(t Tag) string {
	switch t.Kind {
	case TagOpen:
		return "<" + t.Name + ">"
	case TagClose:
		return "</" + t.Name + ">"
	}
	return "<" + t.Name + "/>"
}
