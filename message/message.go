package message

import (
	"fmt"
	"sort"
	"strings"
)

// Message is the normalized content of one unit's source or target.
type Message struct {
	parts  []Part
	syntax Syntax
	// source is the message this one was translated from; validation
	// compares against it.
	source *Message
}

// Parse normalizes native markup of the given syntax.
func Parse(raw string, syntax Syntax) (*Message, error) {
	atoms, err := syntax.tokenize(raw)
	if err != nil {
		return nil, err
	}
	return build(atoms, syntax)
}

// ParseDisplay normalizes a display string (see DefaultDisplay) into a
// message that renders natively in syntax.
func ParseDisplay(text string, syntax Syntax) (*Message, error) {
	return build(tokenizeDisplay(text), syntax)
}

// build turns flat atoms into a message. An ICU expression must be the
// whole content; one mixed with text or markup is ErrMixedICU.
func build(atoms []Part, syntax Syntax) (*Message, error) {
	atoms = mergeText(atoms)
	if !containsICU(sentinelString(atoms)) {
		return &Message{parts: atoms, syntax: syntax}, nil
	}
	icu, err := parseICU(atoms, syntax)
	if err != nil {
		return nil, err
	}
	return &Message{parts: []Part{icu}, syntax: syntax}, nil
}

// Parts returns a copy of the message parts.
func (m *Message) Parts() []Part {
	return append([]Part(nil), m.parts...)
}

// Syntax returns the native syntax the message renders to.
func (m *Message) Syntax() Syntax { return m.syntax }

// WithSyntax returns a copy of the message rendering to another syntax.
func (m *Message) WithSyntax(s Syntax) *Message {
	c := *m
	c.syntax = s
	return &c
}

// IsICU reports whether the message is a single ICU expression.
func (m *Message) IsICU() bool {
	return m.ICU() != nil
}

// ICU returns the ICU expression of an ICU message, or nil.
func (m *Message) ICU() *ICUMessage {
	if len(m.parts) != 1 {
		return nil
	}
	icu, _ := m.parts[0].(*ICUMessage)
	return icu
}

// HasNestedICU reports whether any ICU category contains another ICU
// expression.
func (m *Message) HasNestedICU() bool {
	icu := m.ICU()
	if icu == nil {
		return false
	}
	for _, c := range icu.Categories {
		if c.Message == nil {
			continue
		}
		for _, p := range c.Message.parts {
			if _, ok := p.(*ICUMessage); ok {
				return true
			}
		}
	}
	return false
}

// CategoryText is the default display text of one ICU category.
type CategoryText struct {
	Name string
	Text string
}

// ICUCategoryTexts returns the display text of every category of an ICU
// message in document order, or nil for other messages.
func (m *Message) ICUCategoryTexts() []CategoryText {
	icu := m.ICU()
	if icu == nil {
		return nil
	}
	out := make([]CategoryText, 0, len(icu.Categories))
	for _, c := range icu.Categories {
		out = append(out, CategoryText{Name: c.Name, Text: c.Message.String()})
	}
	return out
}

// HasICURef reports whether the message references a separately stored ICU
// expression.
func (m *Message) HasICURef() bool {
	for _, p := range m.parts {
		if _, ok := p.(ICUMessageRef); ok {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the message has no content at all.
func (m *Message) IsEmpty() bool {
	return len(m.parts) == 0
}

// DisplayString renders the message for the given display format.
func (m *Message) DisplayString(f DisplayFormat) string {
	if f == nil {
		f = DefaultDisplay
	}
	return renderDisplay(m.parts, f)
}

func (m *Message) String() string {
	return m.DisplayString(DefaultDisplay)
}

// Native renders the message as markup of its syntax.
func (m *Message) Native() string {
	return m.syntax.render(m.parts)
}

// NearlyEqual compares two messages by their trimmed default display
// strings. For ICU messages this is the canonical ICU source form. Only
// leading and trailing whitespace is ignored; runs of whitespace inside the
// message are significant.
func (m *Message) NearlyEqual(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.IsICU() != other.IsICU() {
		return false
	}
	return strings.TrimSpace(m.String()) == strings.TrimSpace(other.String())
}

// Translate parses a translated display string. Placeholder expressions are
// copied from this message so they survive into the native markup.
func (m *Message) Translate(text string) (*Message, error) {
	t, err := ParseDisplay(text, m.syntax)
	if err != nil {
		return nil, fmt.Errorf("parsing translation %q: %w", text, err)
	}
	t.source = m
	t.copyExpressions(m)
	return t, nil
}

// TranslateICU builds the translation of an ICU message from per-category
// display strings. Categories missing from translations keep their source
// text; extra categories are appended.
func (m *Message) TranslateICU(translations map[string]string) (*Message, error) {
	src := m.ICU()
	if src == nil {
		return nil, fmt.Errorf("translating %q: not an ICU message", m.String())
	}
	out := &ICUMessage{Variable: src.Variable, Type: src.Type}
	seen := map[string]bool{}
	for _, c := range src.Categories {
		seen[c.Name] = true
		text, ok := translations[c.Name]
		if !ok {
			out.Categories = append(out.Categories, c)
			continue
		}
		sub, err := c.Message.Translate(text)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", c.Name, err)
		}
		out.Categories = append(out.Categories, Category{Name: c.Name, Message: sub})
	}
	var extra []string
	for name := range translations {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		sub, err := ParseDisplay(translations[name], m.syntax)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", name, err)
		}
		out.Categories = append(out.Categories, Category{Name: name, Message: sub})
	}
	return &Message{parts: []Part{out}, syntax: m.syntax, source: m}, nil
}

func (m *Message) copyExpressions(src *Message) {
	exprs := map[int]string{}
	for _, p := range src.parts {
		if ph, ok := p.(Placeholder); ok && ph.Expression != "" {
			exprs[ph.Index] = ph.Expression
		}
	}
	for i, p := range m.parts {
		if ph, ok := p.(Placeholder); ok && ph.Expression == "" {
			ph.Expression = exprs[ph.Index]
			m.parts[i] = ph
		}
	}
}
