package message

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Syntax is the native inline markup of one document format.
type Syntax interface {
	// Name is the short format name ("xlf", "xlf2", "xmb", "xtb").
	Name() string
	tokenize(raw string) ([]Part, error)
	render(parts []Part) string
}

var (
	// XLIFF12 uses <x id="..."/> markers.
	XLIFF12 Syntax = xliff12Syntax{}
	// XLIFF20 uses <ph equiv="..."/> markers and <pc> pairs.
	XLIFF20 Syntax = xliff20Syntax{}
	// XMB uses <ph name="..."><ex>...</ex></ph> markers.
	XMB Syntax = xmbSyntax{}
	// XTB uses <ph name="..."/> markers.
	XTB Syntax = xtbSyntax{}
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// EscapeText escapes character data for element content.
func EscapeText(s string) string { return textEscaper.Replace(s) }

// EscapeAttr escapes a double-quoted attribute value.
func EscapeAttr(s string) string { return attrEscaper.Replace(s) }

// parseFragment parses inline markup wrapped into a synthetic root element.
func parseFragment(raw string) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader("<fragment>" + raw + "</fragment>"))
	if err != nil {
		return nil, fmt.Errorf("parsing inline markup: %w", err)
	}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n, nil
		}
	}
	return nil, errors.New("parsing inline markup: empty document")
}

type elementHandler func(el *xmlquery.Node, out []Part) []Part

func walk(n *xmlquery.Node, out []Part, handle elementHandler) []Part {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			out = append(out, Text{Value: c.Data})
		case xmlquery.ElementNode:
			out = handle(c, out)
		}
	}
	return out
}

func tokenizeWith(raw string, handle elementHandler) ([]Part, error) {
	if !strings.Contains(raw, "<") && !strings.Contains(raw, "&") {
		return []Part{Text{Value: raw}}, nil
	}
	root, err := parseFragment(raw)
	if err != nil {
		return nil, err
	}
	return walk(root, nil, handle), nil
}

func renderICU(b *strings.Builder, icu *ICUMessage, body func([]Part) string) {
	b.WriteString("{")
	b.WriteString(icu.Variable)
	b.WriteString(", ")
	b.WriteString(icu.Type)
	b.WriteString(",")
	for _, c := range icu.Categories {
		b.WriteString(" ")
		b.WriteString(c.Name)
		b.WriteString(" {")
		if c.Message != nil {
			b.WriteString(body(quoteICUParts(c.Message.parts)))
		}
		b.WriteString("}")
	}
	b.WriteString("}")
}

// ---------------------------------------------------------------------------
// XLIFF 1.2
// ---------------------------------------------------------------------------

type xliff12Syntax struct{}

func (xliff12Syntax) Name() string { return "xlf" }

func (s xliff12Syntax) tokenize(raw string) ([]Part, error) {
	return tokenizeWith(raw, s.element)
}

func (s xliff12Syntax) element(el *xmlquery.Node, out []Part) []Part {
	if el.Data == "x" {
		return append(out, partFromPlaceholderName(el.SelectAttr("id"), el.SelectAttr("equiv-text")))
	}
	// <g>, <bx> and friends are not produced by the extractor; keep their text.
	return walk(el, out, s.element)
}

func xliff12Ctype(name string) string {
	switch name {
	case "br":
		return "lb"
	case "img":
		return "image"
	}
	return "x-" + name
}

func (s xliff12Syntax) render(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		switch v := p.(type) {
		case Text:
			b.WriteString(EscapeText(v.Value))
		case Placeholder:
			b.WriteString(`<x id="` + placeholderName(v) + `"`)
			if v.Expression != "" {
				b.WriteString(` equiv-text="` + EscapeAttr(v.Expression) + `"`)
			}
			b.WriteString("/>")
		case Tag:
			fmt.Fprintf(&b, `<x id="%s" ctype="%s" equiv-text="%s"/>`,
				placeholderName(v), xliff12Ctype(v.Name), EscapeAttr(htmlForTag(v)))
		case ICUMessageRef:
			b.WriteString(`<x id="` + placeholderName(v) + `"/>`)
		case *ICUMessage:
			renderICU(&b, v, s.render)
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// XLIFF 2.0
// ---------------------------------------------------------------------------

type xliff20Syntax struct{}

func (xliff20Syntax) Name() string { return "xlf2" }

func (s xliff20Syntax) tokenize(raw string) ([]Part, error) {
	return tokenizeWith(raw, s.element)
}

func (s xliff20Syntax) element(el *xmlquery.Node, out []Part) []Part {
	switch el.Data {
	case "ph":
		return append(out, partFromPlaceholderName(el.SelectAttr("equiv"), el.SelectAttr("disp")))
	case "pc":
		if start := el.SelectAttr("equivStart"); start != "" {
			out = append(out, partFromPlaceholderName(start, ""))
		}
		out = walk(el, out, s.element)
		if end := el.SelectAttr("equivEnd"); end != "" {
			out = append(out, partFromPlaceholderName(end, ""))
		}
		return out
	}
	return walk(el, out, s.element)
}

func xliff20Type(name string) string {
	switch name {
	case "a":
		return "link"
	case "img":
		return "image"
	}
	if _, ok := tagPlaceholderNames[name]; ok {
		return "fmt"
	}
	return "other"
}

// matchTags pairs each opening tag with the closing tag that ends it. Only
// properly nested pairs are matched.
func matchTags(parts []Part) (closeOf map[int]int, matched map[int]bool) {
	closeOf = map[int]int{}
	matched = map[int]bool{}
	var stack []int
	for i, p := range parts {
		t, ok := p.(Tag)
		if !ok {
			continue
		}
		switch t.Kind {
		case TagOpen:
			stack = append(stack, i)
		case TagClose:
			if n := len(stack); n > 0 && parts[stack[n-1]].(Tag).Name == t.Name {
				closeOf[stack[n-1]] = i
				matched[stack[n-1]] = true
				matched[i] = true
				stack = stack[:n-1]
			}
		}
	}
	return closeOf, matched
}

func (s xliff20Syntax) render(parts []Part) string {
	var b strings.Builder
	closeOf, matched := matchTags(parts)
	id := 0
	nextID := func() string {
		v := strconv.Itoa(id)
		id++
		return v
	}
	for i, p := range parts {
		switch v := p.(type) {
		case Text:
			b.WriteString(EscapeText(v.Value))
		case Placeholder:
			b.WriteString(`<ph id="` + nextID() + `" equiv="` + placeholderName(v) + `"`)
			if v.Expression != "" {
				b.WriteString(` disp="` + EscapeAttr(v.Expression) + `"`)
			}
			b.WriteString("/>")
		case Tag:
			if v.Kind == TagOpen && matched[i] {
				end := parts[closeOf[i]].(Tag)
				fmt.Fprintf(&b, `<pc id="%s" equivStart="%s" equivEnd="%s" type="%s" dispStart="%s" dispEnd="%s">`,
					nextID(), placeholderName(v), placeholderName(end), xliff20Type(v.Name),
					EscapeAttr(htmlForTag(v)), EscapeAttr(htmlForTag(end)))
				continue
			}
			if v.Kind == TagClose && matched[i] {
				b.WriteString("</pc>")
				continue
			}
			fmt.Fprintf(&b, `<ph id="%s" equiv="%s" type="%s" disp="%s"/>`,
				nextID(), placeholderName(v), xliff20Type(v.Name), EscapeAttr(htmlForTag(v)))
		case ICUMessageRef:
			b.WriteString(`<ph id="` + nextID() + `" equiv="` + placeholderName(v) + `"/>`)
		case *ICUMessage:
			renderICU(&b, v, s.render)
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// XMB / XTB
// ---------------------------------------------------------------------------

type xmbSyntax struct{}

func (xmbSyntax) Name() string { return "xmb" }

func (s xmbSyntax) tokenize(raw string) ([]Part, error) {
	return tokenizeWith(raw, phByName)
}

func phByName(el *xmlquery.Node, out []Part) []Part {
	if el.Data != "ph" {
		return walk(el, out, phByName)
	}
	expr := ""
	if ex := xmlquery.FindOne(el, "ex"); ex != nil {
		expr = ex.InnerText()
	}
	return append(out, partFromPlaceholderName(el.SelectAttr("name"), expr))
}

func (s xmbSyntax) render(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		switch v := p.(type) {
		case Text:
			b.WriteString(EscapeText(v.Value))
		case Placeholder:
			name := placeholderName(v)
			ex := name
			if v.Expression != "" {
				ex = v.Expression
			}
			b.WriteString(`<ph name="` + name + `"><ex>` + EscapeText(ex) + `</ex></ph>`)
		case Tag:
			b.WriteString(`<ph name="` + placeholderName(v) + `"><ex>` + EscapeText(htmlForTag(v)) + `</ex></ph>`)
		case ICUMessageRef:
			name := placeholderName(v)
			b.WriteString(`<ph name="` + name + `"><ex>` + name + `</ex></ph>`)
		case *ICUMessage:
			renderICU(&b, v, s.render)
		}
	}
	return b.String()
}

type xtbSyntax struct{}

func (xtbSyntax) Name() string { return "xtb" }

func (s xtbSyntax) tokenize(raw string) ([]Part, error) {
	return tokenizeWith(raw, phByName)
}

func (s xtbSyntax) render(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		switch v := p.(type) {
		case Text:
			b.WriteString(EscapeText(v.Value))
		case Placeholder, Tag, ICUMessageRef:
			b.WriteString(`<ph name="` + placeholderName(v) + `"/>`)
		case *ICUMessage:
			renderICU(&b, v, s.render)
		}
	}
	return b.String()
}
