// Package message implements the normalized representation of a translation
// unit's inline content: text, interpolation placeholders, inline tags and
// ICU plural/select expressions.
//
// A Message is parsed from the native markup of one of the supported
// document syntaxes (XLIFF 1.2, XLIFF 2.0, XMB, XTB), can be rendered back
// to that markup or to a display string for translators and machine
// translation, and can be compared, translated and validated.
package message

import "strconv"

// Part is one piece of a message. The concrete types are Text, Placeholder,
// Tag, ICUMessage and ICUMessageRef.
type Part interface {
	part()
}

// Text is plain character data.
type Text struct {
	Value string
}

// Placeholder is an interpolation marker. Index is the 0-based number the
// translator must reuse verbatim; Expression is the original source
// expression when the native format carries it (e.g. "{{ user.name }}").
type Placeholder struct {
	Index      int
	Expression string
}

// TagKind distinguishes opening, closing and self-contained inline tags.
type TagKind int

const (
	TagOpen TagKind = iota
	TagClose
	TagEmpty
)

func (k TagKind) String() string {
	switch k {
	case TagOpen:
		return "OPEN"
	case TagClose:
		return "CLOSE"
	case TagEmpty:
		return "EMPTY"
	}
	return "TagKind(" + strconv.Itoa(int(k)) + ")"
}

// Tag is an inline HTML element boundary. Counter distinguishes repeated
// occurrences of the same element name within one message.
type Tag struct {
	Kind    TagKind
	Name    string
	Counter int
}

// ICUMessage is a plural, select or selectordinal expression. When present
// it is the only part of its message.
type ICUMessage struct {
	Variable   string
	Type       string
	Categories []Category
}

// Category is one selector of an ICU expression with its sub-message.
type Category struct {
	Name    string
	Message *Message
}

// Category returns the sub-message for name, or nil.
func (icu *ICUMessage) Category(name string) *Message {
	for _, c := range icu.Categories {
		if c.Name == name {
			return c.Message
		}
	}
	return nil
}

// ICUMessageRef points at an ICU expression that is stored as a separate
// translation unit.
type ICUMessageRef struct {
	Index int
}

func (Text) part()          {}
func (Placeholder) part()   {}
func (Tag) part()           {}
func (*ICUMessage) part()   {}
func (ICUMessageRef) part() {}

// mergeText joins adjacent Text parts and drops empty ones.
func mergeText(parts []Part) []Part {
	out := make([]Part, 0, len(parts))
	for _, p := range parts {
		t, ok := p.(Text)
		if !ok {
			out = append(out, p)
			continue
		}
		if t.Value == "" {
			continue
		}
		if n := len(out); n > 0 {
			if prev, ok := out[n-1].(Text); ok {
				out[n-1] = Text{Value: prev.Value + t.Value}
				continue
			}
		}
		out = append(out, t)
	}
	return out
}
