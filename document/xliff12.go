package document

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var (
	xliffRootExpr     = xpath.MustCompile("/xliff")
	xliffFileExpr     = xpath.MustCompile("/xliff/file")
	xliff12UnitsExpr  = xpath.MustCompile("/xliff/file/body//trans-unit")
	xliff12DefaultNS  = "urn:oasis:names:tc:xliff:document:1.2"
	xliff12NoteFrom   = map[string]bool{"description": true, "meaning": true}
	xliff12StateNames = map[string]State{
		"new":                      StateNew,
		"needs-translation":        StateNew,
		"needs-adaptation":         StateTranslated,
		"needs-l10n":               StateTranslated,
		"needs-review-adaptation":  StateTranslated,
		"needs-review-l10n":        StateTranslated,
		"needs-review-translation": StateTranslated,
		"translated":               StateTranslated,
		"signed-off":               StateSignedOff,
		"final":                    StateFinal,
	}
)

type xliff12Codec struct{}

func (xliff12Codec) format() Format { return XLIFF12 }

func (xliff12Codec) caps() capabilities {
	return capabilities{
		sourceLanguage: true, targetLanguage: true, storesSource: true, state: true,
		description: true, meaning: true, refs: true, importUnits: true,
	}
}

func (xliff12Codec) stateOf(native string, hasTarget bool) State {
	if s, ok := xliff12StateNames[native]; ok {
		return s
	}
	if hasTarget {
		return StateTranslated
	}
	return StateNew
}

func (xliff12Codec) nativeState(s State) string {
	switch s {
	case StateTranslated:
		return "translated"
	case StateSignedOff:
		return "signed-off"
	case StateFinal:
		return "final"
	}
	return "new"
}

func (c xliff12Codec) parse(d *Document, top *xmlquery.Node) error {
	root := xmlquery.QuerySelector(top, xliffRootExpr)
	if root == nil {
		return formatError(d.path, XLIFF12, nil, "missing <xliff> root element")
	}
	if v := root.SelectAttr("version"); v != "1.2" {
		return formatError(d.path, XLIFF12, nil, "version %q, want 1.2", v)
	}
	file := xmlquery.QuerySelector(top, xliffFileExpr)
	if file == nil {
		return formatError(d.path, XLIFF12, nil, "missing <file> element")
	}
	d.rootAttrs = attrsOf(root)
	d.sourceLang = file.SelectAttr("source-language")
	d.targetLang = file.SelectAttr("target-language")
	d.fileAttrs = attrsOf(file, "source-language", "target-language")
	for _, el := range childElements(file) {
		if el.Data == "header" {
			d.header = outerXML(el)
		}
	}

	for _, n := range xmlquery.QuerySelectorAll(top, xliff12UnitsExpr) {
		u, err := c.parseUnit(d, n)
		if err != nil {
			return err
		}
		if err := d.add(u, AtEnd); err != nil {
			return formatError(d.path, XLIFF12, err, "unit %q", u.id)
		}
	}
	return nil
}

func (c xliff12Codec) parseUnit(d *Document, n *xmlquery.Node) (*Unit, error) {
	u := &Unit{id: n.SelectAttr("id"), attrs: attrsOf(n, "id")}
	if u.id == "" {
		return nil, formatError(d.path, XLIFF12, nil, "<trans-unit> without id")
	}
	for _, el := range childElements(n) {
		switch {
		case el.Data == "source":
			u.source = innerXML(el)
		case el.Data == "target":
			u.target = innerXML(el)
			u.hasTarget = true
			u.nativeState = el.SelectAttr("state")
		case el.Data == "note" && xliff12NoteFrom[el.SelectAttr("from")]:
			if el.SelectAttr("from") == "description" {
				u.description = el.InnerText()
			} else {
				u.meaning = el.InnerText()
			}
		case el.Data == "context-group" && el.SelectAttr("purpose") == "location":
			ref, ok := xliff12Location(el)
			if !ok {
				u.extra = append(u.extra, outerXML(el))
				continue
			}
			u.refs = append(u.refs, ref)
		default:
			u.extra = append(u.extra, outerXML(el))
		}
	}
	u.state = c.stateOf(u.nativeState, u.hasTarget && u.target != "")
	if _, known := xliff12StateNames[u.nativeState]; !known {
		u.nativeState = ""
	}
	return u, nil
}

func xliff12Location(group *xmlquery.Node) (SourceRef, bool) {
	var ref SourceRef
	var hasFile bool
	for _, ctx := range childElements(group) {
		switch ctx.SelectAttr("context-type") {
		case "sourcefile":
			ref.File = ctx.InnerText()
			hasFile = true
		case "linenumber":
			line, err := strconv.Atoi(strings.TrimSpace(ctx.InnerText()))
			if err != nil {
				return ref, false
			}
			ref.Line = line
		}
	}
	return ref, hasFile
}

func (c xliff12Codec) marshal(d *Document) string {
	var b strings.Builder
	prolog(&b, d.encoding)
	if d.doctype != "" {
		b.WriteString(d.doctype + "\n")
	}
	rootAttrs := d.rootAttrs
	if len(rootAttrs) == 0 {
		rootAttrs = []attribute{{"version", "1.2"}, {"xmlns", xliff12DefaultNS}}
	}
	b.WriteString("<xliff")
	writeAttrs(&b, rootAttrs)
	b.WriteString(">\n")

	fileAttrs := []attribute{{"source-language", d.sourceLang}}
	if d.targetLang != "" {
		fileAttrs = append(fileAttrs, attribute{"target-language", d.targetLang})
	}
	rest := d.fileAttrs
	if len(rest) == 0 {
		rest = []attribute{{"datatype", "plaintext"}, {"original", "ng2.template"}}
	}
	b.WriteString("  <file")
	writeAttrs(&b, append(fileAttrs, rest...))
	b.WriteString(">\n")
	if d.header != "" {
		b.WriteString("    " + d.header + "\n")
	}
	b.WriteString("    <body>\n")
	for _, u := range d.units {
		c.marshalUnit(&b, u)
	}
	b.WriteString("    </body>\n  </file>\n</xliff>\n")
	return b.String()
}

func (c xliff12Codec) marshalUnit(b *strings.Builder, u *Unit) {
	attrs := append([]attribute{{"id", u.id}}, u.attrs...)
	if len(u.attrs) == 0 {
		attrs = append(attrs, attribute{"datatype", "html"})
	}
	b.WriteString("      <trans-unit")
	writeAttrs(b, attrs)
	b.WriteString(">\n")
	b.WriteString("        <source>" + u.source + "</source>\n")
	if u.hasTarget {
		state := u.nativeState
		if state == "" {
			state = c.nativeState(u.state)
		}
		b.WriteString(`        <target state="` + state + `">` + u.target + "</target>\n")
	}
	for _, r := range u.refs {
		b.WriteString("        <context-group purpose=\"location\">\n")
		b.WriteString(`          <context context-type="sourcefile">` + escapeText(r.File) + "</context>\n")
		b.WriteString(`          <context context-type="linenumber">` + strconv.Itoa(r.Line) + "</context>\n")
		b.WriteString("        </context-group>\n")
	}
	if u.description != "" {
		b.WriteString(`        <note priority="1" from="description">` + escapeText(u.description) + "</note>\n")
	}
	if u.meaning != "" {
		b.WriteString(`        <note priority="1" from="meaning">` + escapeText(u.meaning) + "</note>\n")
	}
	for _, x := range u.extra {
		b.WriteString("        " + x + "\n")
	}
	b.WriteString("      </trans-unit>\n")
}
