package message

import (
	"regexp"
	"strconv"
	"strings"
)

// DisplayFormat renders the non-text parts of a message for humans and
// machine translation. Text is always rendered verbatim and ICU expressions
// in canonical ICU source form.
type DisplayFormat interface {
	Placeholder(p Placeholder) string
	Tag(t Tag) string
	ICUMessageRef(r ICUMessageRef) string
}

var (
	// DefaultDisplay renders {{0}}, <b>, </b>, <br> and <ICU-Message-Ref_0/>.
	DefaultDisplay DisplayFormat = defaultDisplay{}
	// NgxTranslateDisplay renders placeholders as {{index}} and
	// self-closes empty tags, as used in ngx-translate JSON files.
	NgxTranslateDisplay DisplayFormat = ngxTranslateDisplay{}
)

type defaultDisplay struct{}

func (defaultDisplay) Placeholder(p Placeholder) string {
	return "{{" + strconv.Itoa(p.Index) + "}}"
}

func (defaultDisplay) Tag(t Tag) string {
	switch t.Kind {
	case TagOpen:
		return "<" + t.Name + ">"
	case TagClose:
		return "</" + t.Name + ">"
	}
	if isVoidElement(t.Name) {
		return "<" + t.Name + ">"
	}
	return "<" + t.Name + "/>"
}

func (defaultDisplay) ICUMessageRef(r ICUMessageRef) string {
	return "<ICU-Message-Ref_" + strconv.Itoa(r.Index) + "/>"
}

type ngxTranslateDisplay struct{ defaultDisplay }

func (ngxTranslateDisplay) Tag(t Tag) string {
	if t.Kind == TagEmpty {
		return "<" + t.Name + "/>"
	}
	return defaultDisplay{}.Tag(t)
}

func renderDisplay(parts []Part, f DisplayFormat) string {
	var b strings.Builder
	for _, p := range parts {
		switch v := p.(type) {
		case Text:
			b.WriteString(v.Value)
		case Placeholder:
			b.WriteString(f.Placeholder(v))
		case Tag:
			b.WriteString(f.Tag(v))
		case ICUMessageRef:
			b.WriteString(f.ICUMessageRef(v))
		case *ICUMessage:
			renderICU(&b, v, func(parts []Part) string { return renderDisplay(parts, f) })
		}
	}
	return b.String()
}

var displayTokenRE = regexp.MustCompile(
	`\{\{\s*(\d+)\s*\}\}` +
		`|<ICU-Message-Ref_(\d+)\s*/>` +
		`|<(/?)([a-zA-Z][a-zA-Z0-9-]*)(?:\s[^<>]*?)?\s*(/?)>`)

// tokenizeDisplay splits a display string into text and non-text parts.
// Placeholder indices are taken verbatim; tag counters are assigned per
// element name in order of appearance.
func tokenizeDisplay(s string) []Part {
	var (
		parts   []Part
		last    int
		opened  = map[string]int{}
		empties = map[string]int{}
		stack   []Tag
	)
	for _, m := range displayTokenRE.FindAllStringSubmatchIndex(s, -1) {
		parts = append(parts, Text{Value: s[last:m[0]]})
		last = m[1]
		group := func(i int) string {
			if m[2*i] < 0 {
				return ""
			}
			return s[m[2*i]:m[2*i+1]]
		}
		switch {
		case group(1) != "":
			n, _ := strconv.Atoi(group(1))
			parts = append(parts, Placeholder{Index: n})
		case group(2) != "":
			n, _ := strconv.Atoi(group(2))
			parts = append(parts, ICUMessageRef{Index: n})
		default:
			name := strings.ToLower(group(4))
			switch {
			case group(3) == "/":
				t := Tag{Kind: TagClose, Name: name}
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i].Name == name {
						t.Counter = stack[i].Counter
						stack = append(stack[:i], stack[i+1:]...)
						break
					}
				}
				parts = append(parts, t)
			case group(5) == "/" || isVoidElement(name):
				parts = append(parts, Tag{Kind: TagEmpty, Name: name, Counter: empties[name]})
				empties[name]++
			default:
				t := Tag{Kind: TagOpen, Name: name, Counter: opened[name]}
				opened[name]++
				stack = append(stack, t)
				parts = append(parts, t)
			}
		}
	}
	parts = append(parts, Text{Value: s[last:]})
	return mergeText(parts)
}
