package document

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/minios-linux/xliffmerge/message"
)

const xmlNamespaceURL = "http://www.w3.org/XML/1998/namespace"

type attribute struct {
	Name  string
	Value string
}

func qualifiedName(space, local string) string {
	switch {
	case space == "":
		return local
	case space == xmlNamespaceURL:
		return "xml:" + local
	case strings.ContainsAny(space, "/:"):
		// unresolved namespace URI
		return local
	}
	return space + ":" + local
}

func elementName(n *xmlquery.Node) string {
	if n.Prefix == "" {
		return n.Data
	}
	return n.Prefix + ":" + n.Data
}

// attrsOf returns the attributes of n in document order, without the ones
// named in skip.
func attrsOf(n *xmlquery.Node, skip ...string) []attribute {
	var out []attribute
	for _, a := range n.Attr {
		name := qualifiedName(a.Name.Space, a.Name.Local)
		if slices.Contains(skip, name) {
			continue
		}
		out = append(out, attribute{Name: name, Value: a.Value})
	}
	return out
}

func cloneAttrs(a []attribute) []attribute { return slices.Clone(a) }

func writeAttrs(b *strings.Builder, attrs []attribute) {
	for _, a := range attrs {
		b.WriteString(" " + a.Name + `="` + message.EscapeAttr(a.Value) + `"`)
	}
}

// innerXML serializes the children of n.
func innerXML(n *xmlquery.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(&b, c)
	}
	return b.String()
}

// outerXML serializes n itself.
func outerXML(n *xmlquery.Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.TextNode:
		b.WriteString(message.EscapeText(n.Data))
	case xmlquery.CharDataNode:
		b.WriteString("<![CDATA[" + n.Data + "]]>")
	case xmlquery.CommentNode:
		b.WriteString("<!--" + n.Data + "-->")
	case xmlquery.ElementNode:
		name := elementName(n)
		b.WriteString("<" + name)
		writeAttrs(b, attrsOf(n))
		if n.FirstChild == nil {
			b.WriteString("/>")
			return
		}
		b.WriteString(">")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(b, c)
		}
		b.WriteString("</" + name + ">")
	}
}

// childElements returns the element children of n.
func childElements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

var doctypeRE = regexp.MustCompile(`(?s)<!DOCTYPE\s[^\[>]*(?:\[.*?\])?\s*>`)

// doctypeOf returns the raw DOCTYPE declaration of the document, if any.
func doctypeOf(data string) string {
	return doctypeRE.FindString(data)
}

func prolog(b *strings.Builder, enc string) {
	b.WriteString(`<?xml version="1.0" encoding="` + enc + `"?>` + "\n")
}

// parseRef reads "file:line" references. A trailing ",end" line is dropped.
func parseRef(s string) (SourceRef, bool) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return SourceRef{}, false
	}
	lineStr := s[i+1:]
	if j := strings.Index(lineStr, ","); j >= 0 {
		lineStr = lineStr[:j]
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		return SourceRef{}, false
	}
	return SourceRef{File: s[:i], Line: line}, true
}

func formatRef(r SourceRef) string {
	return r.File + ":" + strconv.Itoa(r.Line)
}

func escapeText(s string) string { return message.EscapeText(s) }
