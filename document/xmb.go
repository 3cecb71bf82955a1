package document

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var (
	xmbRootExpr  = xpath.MustCompile("/messagebundle")
	xmbUnitsExpr = xpath.MustCompile("/messagebundle/msg")
	xtbRootExpr  = xpath.MustCompile("/translationbundle")
	xtbUnitsExpr = xpath.MustCompile("/translationbundle/translation")
)

const xmbDoctype = `<!DOCTYPE messagebundle [
<!ELEMENT messagebundle (msg)*>
<!ATTLIST messagebundle class CDATA #IMPLIED>

<!ELEMENT msg (#PCDATA|ph|source)*>
<!ATTLIST msg id CDATA #IMPLIED>
<!ATTLIST msg seq CDATA #IMPLIED>
<!ATTLIST msg name CDATA #IMPLIED>
<!ATTLIST msg desc CDATA #IMPLIED>
<!ATTLIST msg meaning CDATA #IMPLIED>
<!ATTLIST msg obsolete (obsolete) #IMPLIED>
<!ATTLIST msg xml:space (default|preserve) "default">
<!ATTLIST msg is_hidden CDATA #IMPLIED>

<!ELEMENT source (#PCDATA)>

<!ELEMENT ph (#PCDATA|ex)*>
<!ATTLIST ph name CDATA #REQUIRED>

<!ELEMENT ex (#PCDATA)>
]>`

const xtbDoctype = `<!DOCTYPE translationbundle [
<!ELEMENT translationbundle (translation)*>
<!ATTLIST translationbundle lang CDATA #REQUIRED>

<!ELEMENT translation (#PCDATA|ph)*>
<!ATTLIST translation id CDATA #REQUIRED>

<!ELEMENT ph EMPTY>
<!ATTLIST ph name CDATA #REQUIRED>
]>`

// ---------------------------------------------------------------------------
// XMB: extraction only, sources without targets
// ---------------------------------------------------------------------------

type xmbCodec struct{}

func (xmbCodec) format() Format { return XMB }

func (xmbCodec) caps() capabilities {
	return capabilities{storesSource: true, description: true, meaning: true, refs: true}
}

func (xmbCodec) stateOf(string, bool) State { return StateFinal }

func (xmbCodec) parse(d *Document, top *xmlquery.Node) error {
	root := xmlquery.QuerySelector(top, xmbRootExpr)
	if root == nil {
		return formatError(d.path, XMB, nil, "missing <messagebundle> root element")
	}
	d.rootAttrs = attrsOf(root)
	for _, n := range xmlquery.QuerySelectorAll(top, xmbUnitsExpr) {
		u := &Unit{
			id:          n.SelectAttr("id"),
			description: n.SelectAttr("desc"),
			meaning:     n.SelectAttr("meaning"),
			attrs:       attrsOf(n, "id", "desc", "meaning"),
			state:       StateFinal,
		}
		if u.id == "" {
			return formatError(d.path, XMB, nil, "<msg> without id")
		}
		var content strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode && c.Data == "source" {
				if ref, ok := parseRef(c.InnerText()); ok {
					u.refs = append(u.refs, ref)
				}
				continue
			}
			writeNode(&content, c)
		}
		u.source = content.String()
		if err := d.add(u, AtEnd); err != nil {
			return formatError(d.path, XMB, err, "unit %q", u.id)
		}
	}
	return nil
}

func (xmbCodec) marshal(d *Document) string {
	var b strings.Builder
	prolog(&b, d.encoding)
	doctype := d.doctype
	if doctype == "" {
		doctype = xmbDoctype
	}
	b.WriteString(doctype + "\n")
	b.WriteString("<messagebundle")
	writeAttrs(&b, d.rootAttrs)
	b.WriteString(">\n")
	for _, u := range d.units {
		attrs := []attribute{{"id", u.id}}
		if u.description != "" {
			attrs = append(attrs, attribute{"desc", u.description})
		}
		if u.meaning != "" {
			attrs = append(attrs, attribute{"meaning", u.meaning})
		}
		b.WriteString("  <msg")
		writeAttrs(&b, append(attrs, u.attrs...))
		b.WriteString(">")
		for _, r := range u.refs {
			b.WriteString("<source>" + escapeText(formatRef(r)) + "</source>")
		}
		b.WriteString(u.source + "</msg>\n")
	}
	b.WriteString("</messagebundle>\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// XTB: translations of an XMB master, keyed by id
// ---------------------------------------------------------------------------

type xtbCodec struct{}

func (xtbCodec) format() Format { return XTB }

func (xtbCodec) caps() capabilities {
	return capabilities{targetLanguage: true, importUnits: true}
}

func (xtbCodec) stateOf(_ string, hasTarget bool) State {
	if hasTarget {
		return StateTranslated
	}
	return StateNew
}

func (c xtbCodec) parse(d *Document, top *xmlquery.Node) error {
	root := xmlquery.QuerySelector(top, xtbRootExpr)
	if root == nil {
		return formatError(d.path, XTB, nil, "missing <translationbundle> root element")
	}
	d.targetLang = root.SelectAttr("lang")
	d.rootAttrs = attrsOf(root, "lang")
	for _, n := range xmlquery.QuerySelectorAll(top, xtbUnitsExpr) {
		u := &Unit{id: n.SelectAttr("id"), target: innerXML(n), hasTarget: true, attrs: attrsOf(n, "id")}
		if u.id == "" {
			return formatError(d.path, XTB, nil, "<translation> without id")
		}
		u.state = c.stateOf("", u.target != "")
		if err := d.add(u, AtEnd); err != nil {
			return formatError(d.path, XTB, err, "unit %q", u.id)
		}
	}
	return nil
}

func (xtbCodec) marshal(d *Document) string {
	var b strings.Builder
	prolog(&b, d.encoding)
	doctype := d.doctype
	if doctype == "" {
		doctype = xtbDoctype
	}
	b.WriteString(doctype + "\n")
	attrs := d.rootAttrs
	if lang := d.TargetLanguage(); lang != "" {
		attrs = append([]attribute{{"lang", lang}}, attrs...)
	}
	b.WriteString("<translationbundle")
	writeAttrs(&b, attrs)
	b.WriteString(">\n")
	for _, u := range d.units {
		b.WriteString("  <translation")
		writeAttrs(&b, append([]attribute{{"id", u.id}}, u.attrs...))
		b.WriteString(">" + u.target + "</translation>\n")
	}
	b.WriteString("</translationbundle>\n")
	return b.String()
}
