// Package ngxtranslate exports translations as ngx-translate JSON files.
//
// A unit is exported when its id was set explicitly in the template (the
// "@@" word of the extraction pattern) or when its description is one of
// the pattern's words; the key is then the unit's meaning. Dotted keys
// become nested objects.
package ngxtranslate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/minios-linux/xliffmerge/document"
	"github.com/minios-linux/xliffmerge/message"
)

// ---------------------------------------------------------------------------
// Extraction pattern
// ---------------------------------------------------------------------------

const explicitIDWord = "@@"

var wordRE = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Pattern selects the units to export.
type Pattern struct {
	ExplicitIDs  bool
	Descriptions []string
}

// ParsePattern parses words separated by "|", e.g. "@@|ngx-translate".
func ParsePattern(s string) (Pattern, error) {
	var p Pattern
	for _, w := range strings.Split(s, "|") {
		w = strings.TrimSpace(w)
		switch {
		case w == explicitIDWord:
			p.ExplicitIDs = true
		case wordRE.MatchString(w):
			p.Descriptions = append(p.Descriptions, w)
		default:
			return Pattern{}, fmt.Errorf("invalid extraction pattern %q: %q is neither @@ nor a word", s, w)
		}
	}
	return p, nil
}

// key returns the export key of u and whether u is selected.
func (p Pattern) key(u *document.Unit) (string, bool) {
	if p.ExplicitIDs && u.HasExplicitID() {
		return u.ID(), true
	}
	if slices.Contains(p.Descriptions, u.Description()) && u.Meaning() != "" {
		return u.Meaning(), true
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// ExportError reports a key that is used both as a value and as a group.
type ExportError struct {
	Key string
	ID  string
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("unit %s: key %q conflicts with another key", e.ID, e.Key)
}

// Export builds the nested key/value tree of the selected units of doc.
// Units without target and ICU messages are skipped.
func Export(doc *document.Document, p Pattern) (map[string]any, error) {
	tree := map[string]any{}
	for _, u := range doc.Units() {
		key, ok := p.key(u)
		if !ok || !u.HasTarget() {
			continue
		}
		msg, err := u.TargetContentNormalized()
		if err != nil || msg.IsICU() || msg.HasICURef() {
			continue
		}
		if err := insert(tree, key, msg.DisplayString(message.NgxTranslateDisplay), u.ID()); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func insert(tree map[string]any, key, value, id string) error {
	path := strings.Split(key, ".")
	node := tree
	for _, name := range path[:len(path)-1] {
		switch child := node[name].(type) {
		case nil:
			next := map[string]any{}
			node[name] = next
			node = next
		case map[string]any:
			node = child
		default:
			return &ExportError{Key: key, ID: id}
		}
	}
	leaf := path[len(path)-1]
	if _, isGroup := node[leaf].(map[string]any); isGroup {
		return &ExportError{Key: key, ID: id}
	}
	node[leaf] = value
	return nil
}

// Marshal renders the export of doc as indented JSON.
func Marshal(doc *document.Document, p Pattern) ([]byte, error) {
	tree, err := Export(doc, p)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
