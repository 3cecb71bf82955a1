package document

import (
	"regexp"
	"slices"
	"strconv"
	"sync"

	"github.com/minios-linux/xliffmerge/message"
)

// State is the translation workflow status of a unit's target.
type State int

const (
	StateNew State = iota
	StateTranslated
	StateSignedOff
	StateFinal
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateTranslated:
		return "translated"
	case StateSignedOff:
		return "signed-off"
	case StateFinal:
		return "final"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// SourceRef is a {file, line} provenance pair of a unit.
type SourceRef struct {
	File string
	Line int
}

var generatedIDRE = regexp.MustCompile(`^(?:[0-9]+|[0-9a-fA-F]{11,})$`)

// Unit is one translation unit. A unit always belongs to exactly one
// document.
type Unit struct {
	doc *Document

	id          string
	source      string
	target      string
	hasTarget   bool
	state       State
	nativeState string
	description string
	meaning     string
	refs        []SourceRef

	// Markup the model does not interpret, written back unchanged.
	attrs      []attribute
	extra      []string
	extraNotes []string

	mu     sync.Mutex
	srcMsg *message.Message
	tgtMsg *message.Message
}

func (u *Unit) ID() string { return u.id }

// HasExplicitID reports whether the id was set by the author rather than
// generated by the extractor (decimal or long hex digests).
func (u *Unit) HasExplicitID() bool {
	return !generatedIDRE.MatchString(u.id)
}

// masterUnit returns the XMB unit an XTB unit is paired with, or nil.
func (u *Unit) masterUnit() *Unit {
	if u.doc.master == nil {
		return nil
	}
	return u.doc.master.UnitWithID(u.id)
}

// SourceContent returns the raw source markup. XTB units take it from
// their XMB master.
func (u *Unit) SourceContent() string {
	if !u.doc.codec.caps().storesSource {
		if m := u.masterUnit(); m != nil {
			return m.SourceContent()
		}
		return ""
	}
	return u.source
}

// SourceContentNormalized parses the source markup. The result is cached
// until the source changes.
func (u *Unit) SourceContentNormalized() (*message.Message, error) {
	if !u.doc.codec.caps().storesSource {
		m := u.masterUnit()
		if m == nil {
			return nil, &ContractError{Op: "resolve source of", ID: u.id, Path: u.doc.path, Err: ErrUnitNotFound}
		}
		msg, err := m.SourceContentNormalized()
		if err != nil {
			return nil, err
		}
		return msg.WithSyntax(u.doc.syntax()), nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.srcMsg == nil {
		msg, err := message.Parse(u.source, u.doc.syntax())
		if err != nil {
			return nil, formatError(u.doc.path, u.doc.Format(), err, "source of unit %q", u.id)
		}
		u.srcMsg = msg
	}
	return u.srcMsg, nil
}

// SetSourceContent replaces the raw source markup. It has no effect for
// formats that do not store sources.
func (u *Unit) SetSourceContent(raw string) {
	if !u.doc.codec.caps().storesSource {
		return
	}
	u.mu.Lock()
	u.source = raw
	u.srcMsg = nil
	u.mu.Unlock()
}

// SetSource stores msg as the source, converted to this document's syntax.
func (u *Unit) SetSource(msg *message.Message) {
	u.SetSourceContent(msg.WithSyntax(u.doc.syntax()).Native())
}

// TargetContent returns the raw target markup, "" if there is none.
func (u *Unit) TargetContent() string { return u.target }

// HasTarget reports whether the unit carries a target element.
func (u *Unit) HasTarget() bool { return u.hasTarget }

// TargetContentNormalized parses the target markup.
func (u *Unit) TargetContentNormalized() (*message.Message, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.tgtMsg == nil {
		msg, err := message.Parse(u.target, u.doc.syntax())
		if err != nil {
			return nil, formatError(u.doc.path, u.doc.Format(), err, "target of unit %q", u.id)
		}
		u.tgtMsg = msg
	}
	return u.tgtMsg, nil
}

// SetTargetContent replaces the raw target markup without touching the
// state.
func (u *Unit) SetTargetContent(raw string) {
	u.mu.Lock()
	u.target = raw
	u.hasTarget = true
	u.tgtMsg = nil
	u.mu.Unlock()
}

// SetTarget stores msg as the target, converted to this document's syntax.
func (u *Unit) SetTarget(msg *message.Message) {
	u.SetTargetContent(msg.WithSyntax(u.doc.syntax()).Native())
}

// Translate stores a translation and marks the unit translated.
func (u *Unit) Translate(msg *message.Message) {
	u.SetTarget(msg)
	u.SetTargetState(StateTranslated)
}

// TargetState returns the workflow state. XTB files carry no state: a
// translation that is empty or equal to the master source counts as new.
// XMB units are sources only and count as final.
func (u *Unit) TargetState() State {
	switch u.doc.Format() {
	case XMB:
		return StateFinal
	case XTB:
		if u.target == "" {
			return StateNew
		}
		src, err := u.SourceContentNormalized()
		if err != nil {
			return StateTranslated
		}
		tgt, err := u.TargetContentNormalized()
		if err == nil && src.NearlyEqual(tgt) {
			return StateNew
		}
		return StateTranslated
	}
	return u.state
}

// SetTargetState changes the workflow state. It has no effect for formats
// without states.
func (u *Unit) SetTargetState(s State) {
	if !u.doc.codec.caps().state {
		return
	}
	if s != u.state {
		u.nativeState = ""
	}
	u.state = s
}

func (u *Unit) Description() string {
	if m := u.metadataSource(); m != u {
		return m.Description()
	}
	return u.description
}

func (u *Unit) Meaning() string {
	if m := u.metadataSource(); m != u {
		return m.Meaning()
	}
	return u.meaning
}

// SourceReferences returns the provenance pairs of the unit.
func (u *Unit) SourceReferences() []SourceRef {
	if m := u.metadataSource(); m != u {
		return m.SourceReferences()
	}
	return slices.Clone(u.refs)
}

// metadataSource returns the unit holding description, meaning and
// references: the XMB master unit for XTB, the unit itself otherwise.
func (u *Unit) metadataSource() *Unit {
	if u.doc.Format() == XTB {
		if m := u.masterUnit(); m != nil {
			return m
		}
	}
	return u
}

func (u *Unit) SupportsSetDescription() bool { return u.doc.codec.caps().description }

func (u *Unit) SupportsSetMeaning() bool { return u.doc.codec.caps().meaning }

func (u *Unit) SupportsSetSourceReferences() bool { return u.doc.codec.caps().refs }

func (u *Unit) SetDescription(s string) {
	if u.SupportsSetDescription() {
		u.description = s
	}
}

func (u *Unit) SetMeaning(s string) {
	if u.SupportsSetMeaning() {
		u.meaning = s
	}
}

func (u *Unit) SetSourceReferences(refs []SourceRef) {
	if u.SupportsSetSourceReferences() {
		u.refs = slices.Clone(refs)
	}
}
