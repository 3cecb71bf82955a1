package message

import (
	"fmt"
	"sort"
)

// Validation issue codes. Errors block accepting a translation, warnings
// are advisory.
const (
	PlaceholderAdded   = "placeholderAdded"
	PlaceholderRemoved = "placeholderRemoved"
	ICURefAdded        = "icuRefAdded"
	ICURefRemoved      = "icuRefRemoved"
	TagAdded           = "tagAdded"
	TagRemoved         = "tagRemoved"
	TagMismatch        = "tagMismatch"
	ICUMismatch        = "icuMismatch"
	ICUCategoryMissing = "icuCategoryMissing"
	ICUCategoryAdded   = "icuCategoryAdded"
)

// Issue is one structural problem of a translation.
type Issue struct {
	Code   string
	Detail string
}

func (i Issue) String() string {
	return i.Code + ": " + i.Detail
}

// Validate returns the structural errors of a translated message compared to
// the message it was translated from. Messages that are not translations
// have no errors.
func (m *Message) Validate() []Issue {
	if m.source == nil {
		return nil
	}
	errs, _ := compare(m.source, m, "")
	return errs
}

// ValidateWarnings returns the advisory findings of a translated message.
func (m *Message) ValidateWarnings() []Issue {
	if m.source == nil {
		return nil
	}
	_, warns := compare(m.source, m, "")
	return warns
}

func compare(src, tr *Message, where string) (errs, warns []Issue) {
	srcICU, trICU := src.ICU(), tr.ICU()
	if (srcICU == nil) != (trICU == nil) {
		errs = append(errs, Issue{ICUMismatch, where + "ICU and plain content mixed"})
		return errs, warns
	}
	if srcICU != nil {
		return compareICU(srcICU, trICU, where)
	}

	srcPh, trPh := indexSet(src.parts, placeholderIndex), indexSet(tr.parts, placeholderIndex)
	for _, i := range sortedKeys(trPh) {
		if !srcPh[i] {
			errs = append(errs, Issue{PlaceholderAdded, fmt.Sprintf("%splaceholder {{%d}} is not in the original", where, i)})
		}
	}
	for _, i := range sortedKeys(srcPh) {
		if !trPh[i] {
			warns = append(warns, Issue{PlaceholderRemoved, fmt.Sprintf("%splaceholder {{%d}} is missing", where, i)})
		}
	}

	srcRef, trRef := indexSet(src.parts, icuRefIndex), indexSet(tr.parts, icuRefIndex)
	for _, i := range sortedKeys(trRef) {
		if !srcRef[i] {
			errs = append(errs, Issue{ICURefAdded, fmt.Sprintf("%sICU reference %d is not in the original", where, i)})
		}
	}
	for _, i := range sortedKeys(srcRef) {
		if !trRef[i] {
			warns = append(warns, Issue{ICURefRemoved, fmt.Sprintf("%sICU reference %d is missing", where, i)})
		}
	}

	if problem := tagStructure(tr.parts); problem != "" {
		errs = append(errs, Issue{TagMismatch, where + problem})
	}
	srcTags, trTags := tagCounts(src.parts), tagCounts(tr.parts)
	for _, name := range sortedNames(srcTags, trTags) {
		switch {
		case trTags[name] > srcTags[name]:
			warns = append(warns, Issue{TagAdded, fmt.Sprintf("%stag <%s> added", where, name)})
		case trTags[name] < srcTags[name]:
			warns = append(warns, Issue{TagRemoved, fmt.Sprintf("%stag <%s> removed", where, name)})
		}
	}
	return errs, warns
}

func compareICU(src, tr *ICUMessage, where string) (errs, warns []Issue) {
	if src.Type != tr.Type {
		errs = append(errs, Issue{ICUMismatch, fmt.Sprintf("%sICU type %s changed to %s", where, src.Type, tr.Type)})
	}
	for _, c := range src.Categories {
		sub := tr.Category(c.Name)
		if sub == nil {
			errs = append(errs, Issue{ICUCategoryMissing, fmt.Sprintf("%sICU category %q is missing", where, c.Name)})
			continue
		}
		e, w := compare(c.Message, sub, where+c.Name+": ")
		errs = append(errs, e...)
		warns = append(warns, w...)
	}
	for _, c := range tr.Categories {
		if src.Category(c.Name) == nil {
			warns = append(warns, Issue{ICUCategoryAdded, fmt.Sprintf("%sICU category %q added", where, c.Name)})
		}
	}
	return errs, warns
}

func placeholderIndex(p Part) (int, bool) {
	ph, ok := p.(Placeholder)
	return ph.Index, ok
}

func icuRefIndex(p Part) (int, bool) {
	r, ok := p.(ICUMessageRef)
	return r.Index, ok
}

func indexSet(parts []Part, index func(Part) (int, bool)) map[int]bool {
	set := map[int]bool{}
	for _, p := range parts {
		if i, ok := index(p); ok {
			set[i] = true
		}
	}
	return set
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// tagCounts counts opening and empty tags per element name.
func tagCounts(parts []Part) map[string]int {
	counts := map[string]int{}
	for _, p := range parts {
		if t, ok := p.(Tag); ok && t.Kind != TagClose {
			counts[t.Name]++
		}
	}
	return counts
}

func sortedNames(a, b map[string]int) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range []map[string]int{a, b} {
		for name := range m {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// tagStructure returns a description of the first nesting error, or "".
func tagStructure(parts []Part) string {
	var stack []string
	for _, p := range parts {
		t, ok := p.(Tag)
		if !ok {
			continue
		}
		switch t.Kind {
		case TagOpen:
			stack = append(stack, t.Name)
		case TagClose:
			if len(stack) == 0 || stack[len(stack)-1] != t.Name {
				return fmt.Sprintf("unexpected closing tag </%s>", t.Name)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Sprintf("tag <%s> is not closed", stack[len(stack)-1])
	}
	return ""
}
