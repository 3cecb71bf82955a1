// Package document models translation documents in the XLIFF 1.2,
// XLIFF 2.0, XMB and XTB formats behind one type.
//
// A Document is an ordered collection of units plus the format specific
// markup needed to write it back. Parsing reads the XML tree once; Marshal
// renders the current structure from scratch.
package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/minios-linux/xliffmerge/message"
)

// DefaultEncoding is used when neither the document nor the caller declare
// one.
const DefaultEncoding = "UTF-8"

// capabilities describe what a format can store.
type capabilities struct {
	sourceLanguage bool
	targetLanguage bool
	storesSource   bool
	state          bool
	description    bool
	meaning        bool
	refs           bool
	importUnits    bool
}

// codec is the per-format parsing and serialization strategy.
type codec interface {
	format() Format
	caps() capabilities
	parse(d *Document, top *xmlquery.Node) error
	marshal(d *Document) string
	// stateOf maps a native state attribute to a State.
	stateOf(native string, hasTarget bool) State
}

// UnitLookup resolves units by id. XTB documents use it to reach their XMB
// master without owning it.
type UnitLookup interface {
	UnitWithID(id string) *Unit
	SourceLanguage() string
}

// Document is a parsed translation document.
type Document struct {
	codec    codec
	path     string
	encoding string

	sourceLang string
	targetLang string

	units []*Unit
	byID  map[string]*Unit

	// preserved markup
	doctype   string
	rootAttrs []attribute
	fileAttrs []attribute
	header    string

	master   UnitLookup
	warnings []string
}

func newDocument(c codec, path, enc string) *Document {
	if enc == "" {
		enc = DefaultEncoding
	}
	return &Document{codec: c, path: path, encoding: enc, byID: map[string]*Unit{}}
}

func codecFor(f Format) (codec, error) {
	switch f {
	case XLIFF12:
		return xliff12Codec{}, nil
	case XLIFF20:
		return xliff20Codec{}, nil
	case XMB:
		return xmbCodec{}, nil
	case XTB:
		return xtbCodec{}, nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

var encodingRE = regexp.MustCompile(`^\s*<\?xml[^>]*\bencoding\s*=\s*["']([^"']+)["']`)

// Parse reads a document of the given format. encoding is used for output
// when the XML prolog does not declare one.
func Parse(f Format, data []byte, path, enc string) (*Document, error) {
	if f == XTB {
		return ParseXTB(data, path, enc, nil)
	}
	return parse(f, data, path, enc, nil)
}

// ParseXTB reads an XTB document paired with its XMB master. master may be
// nil; states and sources are then unavailable.
func ParseXTB(data []byte, path, enc string, master *Document) (*Document, error) {
	var lookup UnitLookup
	if master != nil {
		if master.Format() != XMB {
			return nil, formatError(path, XTB, nil, "master %s is %s, not xmb", master.Path(), master.Format())
		}
		lookup = master
	}
	d, err := parse(XTB, data, path, enc, lookup)
	if err != nil {
		return nil, err
	}
	if master != nil && master.NumberOfUnits() != d.NumberOfUnits() {
		d.warnf("%s contains %d translations, master %s contains %d messages",
			path, d.NumberOfUnits(), master.Path(), master.NumberOfUnits())
	}
	return d, nil
}

func parse(f Format, data []byte, path, enc string, master UnitLookup) (*Document, error) {
	c, err := codecFor(f)
	if err != nil {
		return nil, err
	}
	if m := encodingRE.FindSubmatch(data); m != nil {
		enc = string(m[1])
	}
	top, err := xmlquery.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, formatError(path, f, err, "malformed XML")
	}
	d := newDocument(c, path, enc)
	d.master = master
	d.doctype = doctypeOf(string(data))
	if err := c.parse(d, top); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) syntax() message.Syntax { return d.codec.format().Syntax() }

func (d *Document) Format() Format { return d.codec.format() }

func (d *Document) Path() string { return d.path }

// SetPath changes where the document will be saved.
func (d *Document) SetPath(p string) { d.path = p }

func (d *Document) Encoding() string { return d.encoding }

// Warnings returns non-fatal findings collected while parsing.
func (d *Document) Warnings() []string { return append([]string(nil), d.warnings...) }

func (d *Document) warnf(format string, args ...any) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

// SupportsLanguageAttributes reports whether the source language is stored
// in the document itself. XMB and XTB rely on the file name.
func (d *Document) SupportsLanguageAttributes() bool {
	return d.codec.caps().sourceLanguage
}

// SourceLanguage returns the declared source language or, for formats that
// cannot declare it, the language guessed from the file name.
func (d *Document) SourceLanguage() string {
	switch {
	case d.codec.caps().sourceLanguage:
		return d.sourceLang
	case d.master != nil:
		return d.master.SourceLanguage()
	case d.Format() == XMB:
		return GuessLanguageFromFilename(d.path)
	}
	return ""
}

// SetSourceLanguage changes the declared source language. It has no effect
// for formats without a language attribute.
func (d *Document) SetSourceLanguage(lang string) {
	if d.codec.caps().sourceLanguage {
		d.sourceLang = lang
	}
}

// TargetLanguage returns the declared target language, falling back to the
// file name convention.
func (d *Document) TargetLanguage() string {
	if d.codec.caps().targetLanguage && d.targetLang != "" {
		return d.targetLang
	}
	if d.Format() == XMB {
		return ""
	}
	return GuessLanguageFromFilename(d.path)
}

func (d *Document) SetTargetLanguage(lang string) {
	if d.codec.caps().targetLanguage {
		d.targetLang = lang
	}
}

// UnitWithID returns the unit with the given id, or nil.
func (d *Document) UnitWithID(id string) *Unit { return d.byID[id] }

// Units returns the units in document order.
func (d *Document) Units() []*Unit { return append([]*Unit(nil), d.units...) }

// ForEachUnit calls fn for every unit in document order.
func (d *Document) ForEachUnit(fn func(*Unit)) {
	for _, u := range d.units {
		fn(u)
	}
}

func (d *Document) NumberOfUnits() int { return len(d.units) }

// Position says where ImportUnit places a new unit.
type Position struct {
	start bool
	after string
}

var (
	// AtEnd appends the unit.
	AtEnd = Position{}
	// AtStart inserts the unit before all others.
	AtStart = Position{start: true}
)

// After places the unit behind the unit with the given id, or at the end
// if there is no such unit.
func After(id string) Position { return Position{after: id} }

func (d *Document) add(u *Unit, pos Position) error {
	if _, ok := d.byID[u.id]; ok {
		return &ContractError{Op: "add unit", ID: u.id, Path: d.path, Err: ErrDuplicateID}
	}
	u.doc = d
	d.byID[u.id] = u
	idx := len(d.units)
	switch {
	case pos.start:
		idx = 0
	case pos.after != "":
		for i, x := range d.units {
			if x.id == pos.after {
				idx = i + 1
				break
			}
		}
	}
	d.units = append(d.units, nil)
	copy(d.units[idx+1:], d.units[idx:])
	d.units[idx] = u
	return nil
}

// ImportUnit copies a unit of another document into this one. The source
// is converted to this format's markup. With isDefaultLanguage or
// copyContent the target starts as a copy of the source; default language
// units are final, all others new.
func (d *Document) ImportUnit(foreign *Unit, isDefaultLanguage, copyContent bool, pos Position) (*Unit, error) {
	if !d.codec.caps().importUnits {
		return nil, &ContractError{Op: "import unit", ID: foreign.ID(), Path: d.path, Err: ErrImportNotSupported}
	}
	if d.byID[foreign.ID()] != nil {
		return nil, &ContractError{Op: "import unit", ID: foreign.ID(), Path: d.path, Err: ErrDuplicateID}
	}
	src, err := foreign.SourceContentNormalized()
	if err != nil {
		return nil, err
	}
	native := src.WithSyntax(d.syntax()).Native()
	u := &Unit{id: foreign.ID(), hasTarget: true, state: StateNew}
	if d.codec.caps().storesSource {
		u.source = native
	}
	if isDefaultLanguage || copyContent {
		u.target = native
	}
	if isDefaultLanguage {
		u.state = StateFinal
	}
	if d.codec.caps().description {
		u.description = foreign.Description()
	}
	if d.codec.caps().meaning {
		u.meaning = foreign.Meaning()
	}
	if d.codec.caps().refs {
		u.refs = foreign.SourceReferences()
	}
	if err := d.add(u, pos); err != nil {
		return nil, err
	}
	return u, nil
}

// RemoveUnitWithID deletes a unit.
func (d *Document) RemoveUnitWithID(id string) error {
	u, ok := d.byID[id]
	if !ok {
		return &ContractError{Op: "remove unit", ID: id, Path: d.path, Err: ErrUnitNotFound}
	}
	delete(d.byID, id)
	for i, x := range d.units {
		if x == u {
			d.units = append(d.units[:i], d.units[i+1:]...)
			break
		}
	}
	return nil
}

// CreateTranslationDocumentForLanguage derives an empty language document
// from this master. XMB masters produce XTB documents, XLIFF masters a copy
// in the same dialect.
func (d *Document) CreateTranslationDocumentForLanguage(lang, path string, isDefaultLanguage, copySource bool) (*Document, error) {
	if d.Format() == XTB {
		return nil, &ContractError{Op: "create translation from", ID: lang, Path: d.path, Err: ErrImportNotSupported}
	}
	c, err := codecFor(d.Format().TranslationFormat())
	if err != nil {
		return nil, err
	}
	t := newDocument(c, path, d.encoding)
	if d.Format() == XMB {
		t.master = d
		t.targetLang = lang
	} else {
		t.sourceLang = d.sourceLang
		t.targetLang = lang
		t.rootAttrs = cloneAttrs(d.rootAttrs)
		t.fileAttrs = cloneAttrs(d.fileAttrs)
		t.header = d.header
	}
	for _, u := range d.units {
		if _, err := t.ImportUnit(u, isDefaultLanguage, copySource, AtEnd); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Marshal renders the document in its declared encoding.
func (d *Document) Marshal() ([]byte, error) {
	out := d.codec.marshal(d)
	enc, err := htmlindex.Get(d.encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding %q: %w", d.path, d.encoding, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return []byte(out), nil
	}
	b, err := encoding.HTMLEscapeUnsupported(enc.NewEncoder()).String(out)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding to %s: %w", d.path, d.encoding, err)
	}
	return []byte(b), nil
}
