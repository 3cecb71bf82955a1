package document

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var (
	xliff20UnitsExpr = xpath.MustCompile("/xliff/file//unit")
	xliff20DefaultNS = "urn:oasis:names:tc:xliff:document:2.0"
)

type xliff20Codec struct{}

func (xliff20Codec) format() Format { return XLIFF20 }

func (xliff20Codec) caps() capabilities {
	return capabilities{
		sourceLanguage: true, targetLanguage: true, storesSource: true, state: true,
		description: true, meaning: true, refs: true, importUnits: true,
	}
}

func (xliff20Codec) stateOf(native string, hasTarget bool) State {
	switch native {
	case "initial":
		return StateNew
	case "translated":
		return StateTranslated
	case "reviewed":
		return StateSignedOff
	case "final":
		return StateFinal
	}
	if hasTarget {
		return StateTranslated
	}
	return StateNew
}

func (xliff20Codec) nativeState(s State) string {
	switch s {
	case StateTranslated:
		return "translated"
	case StateSignedOff:
		return "reviewed"
	case StateFinal:
		return "final"
	}
	return "initial"
}

func (c xliff20Codec) parse(d *Document, top *xmlquery.Node) error {
	root := xmlquery.QuerySelector(top, xliffRootExpr)
	if root == nil {
		return formatError(d.path, XLIFF20, nil, "missing <xliff> root element")
	}
	if v := root.SelectAttr("version"); v != "2.0" {
		return formatError(d.path, XLIFF20, nil, "version %q, want 2.0", v)
	}
	file := xmlquery.QuerySelector(top, xliffFileExpr)
	if file == nil {
		return formatError(d.path, XLIFF20, nil, "missing <file> element")
	}
	d.sourceLang = root.SelectAttr("srcLang")
	d.targetLang = root.SelectAttr("trgLang")
	d.rootAttrs = attrsOf(root, "srcLang", "trgLang")
	d.fileAttrs = attrsOf(file)

	for _, n := range xmlquery.QuerySelectorAll(top, xliff20UnitsExpr) {
		u, err := c.parseUnit(d, n)
		if err != nil {
			return err
		}
		if err := d.add(u, AtEnd); err != nil {
			return formatError(d.path, XLIFF20, err, "unit %q", u.id)
		}
	}
	return nil
}

func (c xliff20Codec) parseUnit(d *Document, n *xmlquery.Node) (*Unit, error) {
	u := &Unit{id: n.SelectAttr("id"), attrs: attrsOf(n, "id")}
	if u.id == "" {
		return nil, formatError(d.path, XLIFF20, nil, "<unit> without id")
	}
	var segment *xmlquery.Node
	for _, el := range childElements(n) {
		switch el.Data {
		case "notes":
			for _, note := range childElements(el) {
				switch note.SelectAttr("category") {
				case "description":
					u.description = note.InnerText()
				case "meaning":
					u.meaning = note.InnerText()
				case "location":
					if ref, ok := parseRef(note.InnerText()); ok {
						u.refs = append(u.refs, ref)
						continue
					}
					u.extraNotes = append(u.extraNotes, outerXML(note))
				default:
					u.extraNotes = append(u.extraNotes, outerXML(note))
				}
			}
		case "segment":
			if segment == nil {
				segment = el
				continue
			}
			u.extra = append(u.extra, outerXML(el))
		default:
			u.extra = append(u.extra, outerXML(el))
		}
	}
	if segment == nil {
		return nil, formatError(d.path, XLIFF20, nil, "unit %q has no <segment>", u.id)
	}
	u.nativeState = segment.SelectAttr("state")
	for _, el := range childElements(segment) {
		switch el.Data {
		case "source":
			u.source = innerXML(el)
		case "target":
			u.target = innerXML(el)
			u.hasTarget = true
		}
	}
	u.state = c.stateOf(u.nativeState, u.hasTarget && u.target != "")
	return u, nil
}

func (c xliff20Codec) marshal(d *Document) string {
	var b strings.Builder
	prolog(&b, d.encoding)
	rootAttrs := d.rootAttrs
	if len(rootAttrs) == 0 {
		rootAttrs = []attribute{{"version", "2.0"}, {"xmlns", xliff20DefaultNS}}
	}
	rootAttrs = append(cloneAttrs(rootAttrs), attribute{"srcLang", d.sourceLang})
	if d.targetLang != "" {
		rootAttrs = append(rootAttrs, attribute{"trgLang", d.targetLang})
	}
	b.WriteString("<xliff")
	writeAttrs(&b, rootAttrs)
	b.WriteString(">\n")
	fileAttrs := d.fileAttrs
	if len(fileAttrs) == 0 {
		fileAttrs = []attribute{{"original", "ng.template"}, {"id", "ngi18n"}}
	}
	b.WriteString("  <file")
	writeAttrs(&b, fileAttrs)
	b.WriteString(">\n")
	for _, u := range d.units {
		c.marshalUnit(&b, u)
	}
	b.WriteString("  </file>\n</xliff>\n")
	return b.String()
}

func (c xliff20Codec) marshalUnit(b *strings.Builder, u *Unit) {
	b.WriteString("    <unit")
	writeAttrs(b, append([]attribute{{"id", u.id}}, u.attrs...))
	b.WriteString(">\n")
	if u.description != "" || u.meaning != "" || len(u.refs) > 0 || len(u.extraNotes) > 0 {
		b.WriteString("      <notes>\n")
		if u.description != "" {
			b.WriteString(`        <note category="description">` + escapeText(u.description) + "</note>\n")
		}
		if u.meaning != "" {
			b.WriteString(`        <note category="meaning">` + escapeText(u.meaning) + "</note>\n")
		}
		for _, r := range u.refs {
			b.WriteString(`        <note category="location">` + escapeText(formatRef(r)) + "</note>\n")
		}
		for _, x := range u.extraNotes {
			b.WriteString("        " + x + "\n")
		}
		b.WriteString("      </notes>\n")
	}
	for _, x := range u.extra {
		b.WriteString("      " + x + "\n")
	}
	state := u.nativeState
	if state == "" && u.hasTarget {
		state = c.nativeState(u.state)
	}
	b.WriteString("      <segment")
	if state != "" {
		writeAttrs(b, []attribute{{"state", state}})
	}
	b.WriteString(">\n")
	b.WriteString("        <source>" + u.source + "</source>\n")
	if u.hasTarget {
		b.WriteString("        <target>" + u.target + "</target>\n")
	}
	b.WriteString("      </segment>\n    </unit>\n")
}
