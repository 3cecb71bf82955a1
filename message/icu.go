package message

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// ErrMixedICU is returned when an ICU expression shares its message with
// other content.
var ErrMixedICU = errors.New("ICU expression mixed with other content")

// ErrMalformedICU is returned for content that starts like an ICU
// expression but does not parse as one.
var ErrMalformedICU = errors.New("malformed ICU expression")

// Non-text parts are replaced by sentinel runs before lexing so that
// markup and display placeholders can never be confused with ICU braces.
const (
	sentinelStart = '\uE000'
	sentinelEnd   = '\uE001'
)

var icuLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Sentinel", Pattern: `\x{E000}[0-9]+\x{E001}`},
		{Name: "Escaped", Pattern: `'[{}]'|''`},
		{Name: "LBrace", Pattern: `\{`, Action: lexer.Push("Expr")},
		{Name: "RBrace", Pattern: `\}`, Action: lexer.Pop()},
		{Name: "Text", Pattern: `[^{}'\x{E000}]+|'`},
	},
	"Expr": {
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Comma", Pattern: `,`},
		{Name: "LBrace", Pattern: `\{`, Action: lexer.Push("Root")},
		{Name: "RBrace", Pattern: `\}`, Action: lexer.Pop()},
		{Name: "Ident", Pattern: `[^\s,{}]+`},
	},
})

var icuSymbols = icuLexer.Symbols()

var icuHeaderRE = regexp.MustCompile(`\{\s*[^\s,{}']+\s*,\s*(plural|select|selectordinal)\s*,`)

// containsICU reports whether s holds an ICU expression header anywhere
// outside quoted braces.
func containsICU(s string) bool {
	return icuHeaderRE.MatchString(escapedBraceRE.ReplaceAllString(s, ""))
}

// quoteICUText escapes literal text for a category body: braces become
// '{' and '}', and an apostrophe is doubled when the lexer would otherwise
// read it as the start of a quote.
func quoteICUText(s string) string {
	if !strings.ContainsAny(s, "{}'") {
		return s
	}
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		switch r {
		case '{', '}':
			b.WriteRune('\'')
			b.WriteRune(r)
			b.WriteRune('\'')
		case '\'':
			b.WriteRune(r)
			if i+1 < len(rs) && strings.ContainsRune("{}'", rs[i+1]) {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// quoteICUParts returns parts with every text quoted for a category body.
func quoteICUParts(parts []Part) []Part {
	out := make([]Part, len(parts))
	for i, p := range parts {
		if t, ok := p.(Text); ok {
			p = Text{Value: quoteICUText(t.Value)}
		}
		out[i] = p
	}
	return out
}

// sentinelString joins atoms into a lexable string.
func sentinelString(atoms []Part) string {
	var b strings.Builder
	for i, a := range atoms {
		if t, ok := a.(Text); ok {
			b.WriteString(t.Value)
			continue
		}
		b.WriteRune(sentinelStart)
		b.WriteString(strconv.Itoa(i))
		b.WriteRune(sentinelEnd)
	}
	return b.String()
}

var escapedBraceRE = regexp.MustCompile(`'[{}]'`)

// balanced reports whether the braces of s nest properly.
func balanced(s string) bool {
	depth := 0
	for _, r := range escapedBraceRE.ReplaceAllString(s, "") {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

type icuParser struct {
	toks   []lexer.Token
	pos    int
	atoms  []Part
	syntax Syntax
}

// parseICU parses the sentinel string of atoms into a single ICUMessage.
func parseICU(atoms []Part, syntax Syntax) (*ICUMessage, error) {
	src := sentinelString(atoms)
	if !balanced(src) {
		return nil, fmt.Errorf("%w: unbalanced braces", ErrMalformedICU)
	}
	lex, err := icuLexer.LexString("", src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedICU, err)
	}
	var toks []lexer.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedICU, err)
		}
		if tok.EOF() {
			break
		}
		toks = append(toks, tok)
	}
	p := &icuParser{toks: toks, atoms: atoms, syntax: syntax}
	parts, err := p.body(false)
	if err != nil {
		return nil, err
	}
	var icu *ICUMessage
	for _, part := range parts {
		switch v := part.(type) {
		case *ICUMessage:
			if icu != nil {
				return nil, ErrMixedICU
			}
			icu = v
		case Text:
			if strings.TrimSpace(v.Value) != "" {
				return nil, ErrMixedICU
			}
		default:
			return nil, ErrMixedICU
		}
	}
	if icu == nil {
		return nil, ErrMalformedICU
	}
	return icu, nil
}

func (p *icuParser) peek() (lexer.Token, bool) {
	if p.pos >= len(p.toks) {
		return lexer.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *icuParser) is(tok lexer.Token, name string) bool {
	return tok.Type == icuSymbols[name]
}

func (p *icuParser) skipSpace() {
	for {
		tok, ok := p.peek()
		if !ok || !p.is(tok, "Whitespace") {
			return
		}
		p.pos++
	}
}

func (p *icuParser) expect(name string) (lexer.Token, error) {
	p.skipSpace()
	tok, ok := p.peek()
	if !ok {
		return tok, fmt.Errorf("%w: unexpected end, want %s", ErrMalformedICU, name)
	}
	if !p.is(tok, name) {
		return tok, fmt.Errorf("%w: unexpected %q at %d, want %s", ErrMalformedICU, tok.Value, tok.Pos.Offset, name)
	}
	p.pos++
	return tok, nil
}

// body reads message content up to the closing brace of a category (when
// nested) or the end of input.
func (p *icuParser) body(nested bool) ([]Part, error) {
	var parts []Part
	for {
		tok, ok := p.peek()
		if !ok {
			if nested {
				return nil, fmt.Errorf("%w: unterminated category", ErrMalformedICU)
			}
			return mergeText(parts), nil
		}
		p.pos++
		switch {
		case p.is(tok, "Sentinel"):
			idx, _ := strconv.Atoi(strings.Trim(tok.Value, string([]rune{sentinelStart, sentinelEnd})))
			parts = append(parts, p.atoms[idx])
		case p.is(tok, "Escaped"):
			if tok.Value == "''" {
				parts = append(parts, Text{Value: "'"})
			} else {
				parts = append(parts, Text{Value: tok.Value[1 : len(tok.Value)-1]})
			}
		case p.is(tok, "Text"):
			parts = append(parts, Text{Value: tok.Value})
		case p.is(tok, "LBrace"):
			icu, err := p.expression()
			if err != nil {
				return nil, err
			}
			parts = append(parts, icu)
		case p.is(tok, "RBrace"):
			if !nested {
				return nil, fmt.Errorf("%w: unbalanced '}'", ErrMalformedICU)
			}
			return mergeText(parts), nil
		default:
			return nil, fmt.Errorf("%w: unexpected %q", ErrMalformedICU, tok.Value)
		}
	}
}

// expression reads "var, type, cat {msg} ... }" after an opening brace.
func (p *icuParser) expression() (*ICUMessage, error) {
	variable, err := p.expect("Ident")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("Comma"); err != nil {
		return nil, err
	}
	typ, err := p.expect("Ident")
	if err != nil {
		return nil, err
	}
	switch typ.Value {
	case "plural", "select", "selectordinal":
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrMalformedICU, typ.Value)
	}
	if _, err := p.expect("Comma"); err != nil {
		return nil, err
	}
	icu := &ICUMessage{Variable: variable.Value, Type: typ.Value}
	for {
		p.skipSpace()
		tok, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated expression", ErrMalformedICU)
		}
		if p.is(tok, "RBrace") {
			p.pos++
			if len(icu.Categories) == 0 {
				return nil, fmt.Errorf("%w: no categories", ErrMalformedICU)
			}
			return icu, nil
		}
		name, err := p.expect("Ident")
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(name.Value, "offset:") {
			continue
		}
		if _, err := p.expect("LBrace"); err != nil {
			return nil, err
		}
		parts, err := p.body(true)
		if err != nil {
			return nil, err
		}
		icu.Categories = append(icu.Categories, Category{Name: name.Value, Message: &Message{parts: parts, syntax: p.syntax}})
	}
}
