package merge

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/xliffmerge/document"
)

type unitSpec struct {
	id, src, tgt, state, ref, desc string
}

func xliff(t *testing.T, path, srcLang, tgtLang string, units ...unitSpec) *document.Document {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<xliff version="1.2" xmlns="urn:oasis:names:tc:xliff:document:1.2">` + "\n")
	fmt.Fprintf(&b, `<file source-language=%q`, srcLang)
	if tgtLang != "" {
		fmt.Fprintf(&b, ` target-language=%q`, tgtLang)
	}
	b.WriteString(` datatype="plaintext" original="ng2.template"><body>` + "\n")
	for _, u := range units {
		fmt.Fprintf(&b, `<trans-unit id=%q datatype="html"><source>%s</source>`, u.id, u.src)
		if u.state != "" {
			fmt.Fprintf(&b, `<target state=%q>%s</target>`, u.state, u.tgt)
		}
		if u.ref != "" {
			file, line, _ := strings.Cut(u.ref, ":")
			fmt.Fprintf(&b, `<context-group purpose="location"><context context-type="sourcefile">%s</context><context context-type="linenumber">%s</context></context-group>`, file, line)
		}
		if u.desc != "" {
			fmt.Fprintf(&b, `<note priority="1" from="description">%s</note>`, u.desc)
		}
		b.WriteString("</trans-unit>\n")
	}
	b.WriteString("</body></file></xliff>\n")
	d, err := document.Parse(document.XLIFF12, []byte(b.String()), path, "")
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return d
}

func ids(d *document.Document) []string {
	var out []string
	d.ForEachUnit(func(u *document.Unit) { out = append(out, u.ID()) })
	return out
}

func defaultOptions(lang string) Options {
	return Options{
		Language:        lang,
		DefaultLanguage: "en",
		Path:            "messages." + lang + ".xlf",
		PreserveOrder:   true,
		RemoveUnusedIDs: true,
	}
}

func TestMergeNewUnitAndSourceChange(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "",
		unitSpec{id: "a", src: "Hello"},
		unitSpec{id: "b", src: "Bye"},
	)
	de := xliff(t, "messages.de.xlf", "en", "de",
		unitSpec{id: "a", src: "Hello", tgt: "Hallo", state: "final"},
	)

	res, err := Merge(master, de, defaultOptions("de"))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(res.New, []string{"b"}) || len(res.Removed) != 0 || len(res.SourceChanged) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if got := ids(de); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("ids = %v", got)
	}
	b := de.UnitWithID("b")
	if b.TargetState() != document.StateNew || b.TargetContent() != "" {
		t.Fatalf("b: state %v target %q", b.TargetState(), b.TargetContent())
	}
	a := de.UnitWithID("a")
	if a.TargetState() != document.StateFinal || a.TargetContent() != "Hallo" {
		t.Fatalf("a: state %v target %q", a.TargetState(), a.TargetContent())
	}

	changed := xliff(t, "messages.xlf", "en", "",
		unitSpec{id: "a", src: "Hello!"},
		unitSpec{id: "b", src: "Bye"},
	)
	res, err = Merge(changed, de, defaultOptions("de"))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(res.SourceChanged, []string{"a"}) {
		t.Fatalf("SourceChanged = %v", res.SourceChanged)
	}
	if a.TargetState() != document.StateTranslated || a.TargetContent() != "Hallo" || a.SourceContent() != "Hello!" {
		t.Fatalf("a after source change: state %v target %q source %q", a.TargetState(), a.TargetContent(), a.SourceContent())
	}
}

func TestMergeIdempotent(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "",
		unitSpec{id: "a", src: "Hello <x id=\"INTERPOLATION\" equiv-text=\"{{ name }}\"/>", ref: "src/app.html:3", desc: "greeting"},
		unitSpec{id: "b", src: "Bye"},
		unitSpec{id: "c", src: "{VAR_PLURAL, plural, one {one item} other {many items}}"},
	)
	de := xliff(t, "messages.de.xlf", "en", "de",
		unitSpec{id: "a", src: "Hello", tgt: "Hallo", state: "translated"},
		unitSpec{id: "old", src: "Gone", tgt: "Weg", state: "final"},
	)
	opts := defaultOptions("de")
	opts.UseSourceAsTarget = true

	first, err := Merge(master, de, opts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if first.UpToDate() {
		t.Fatal("first merge should change the document")
	}

	out, err := de.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	reread, err := document.Parse(document.XLIFF12, out, "messages.de.xlf", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, d := range []*document.Document{de, reread} {
		second, err := Merge(master, d, opts)
		if err != nil {
			t.Fatalf("Merge: %v", err)
		}
		if !second.UpToDate() {
			t.Fatalf("second merge not a no-op: %+v", second)
		}
		if second.Summary() != "already up to date" {
			t.Fatalf("Summary = %q", second.Summary())
		}
	}
}

func TestMergeIDChange(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "", unitSpec{id: "a2", src: "Hello"})
	newLang := func() *document.Document {
		return xliff(t, "messages.de.xlf", "en", "de",
			unitSpec{id: "a", src: "  Hello ", tgt: "Hallo", state: "final"},
		)
	}

	de := newLang()
	opts := defaultOptions("de")
	opts.AllowIDChange = true
	res, err := Merge(master, de, opts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(res.IDChanged, []string{"a -> a2"}) || len(res.New) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if !reflect.DeepEqual(res.Removed, []string{"a"}) {
		t.Fatalf("Removed = %v", res.Removed)
	}
	u := de.UnitWithID("a2")
	if u.TargetContent() != "Hallo" || u.TargetState() != document.StateTranslated {
		t.Fatalf("a2: target %q state %v", u.TargetContent(), u.TargetState())
	}

	de = newLang()
	opts.AllowIDChange = false
	res, err = Merge(master, de, opts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(res.New, []string{"a2"}) || len(res.IDChanged) != 0 {
		t.Fatalf("without id change: %+v", res)
	}
	if de.UnitWithID("a2").TargetContent() != "" {
		t.Fatal("new unit should not carry a translation")
	}
}

func TestMergeDefaultLanguageResync(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "", unitSpec{id: "a", src: "Hello!"})
	en := xliff(t, "messages.en.xlf", "en", "en",
		unitSpec{id: "a", src: "Hello", tgt: "Hello", state: "translated"},
	)
	res, err := Merge(master, en, defaultOptions("en"))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(res.SourceChanged) != 1 {
		t.Fatalf("SourceChanged = %v", res.SourceChanged)
	}
	a := en.UnitWithID("a")
	if a.TargetContent() != "Hello!" || a.TargetState() != document.StateFinal {
		t.Fatalf("a: target %q state %v", a.TargetContent(), a.TargetState())
	}
}

func TestMergeCreate(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "",
		unitSpec{id: "a", src: "Hello"},
		unitSpec{id: "c", src: "{VAR_SELECT, select, m {he} other {they}}"},
	)

	opts := defaultOptions("de")
	opts.UseSourceAsTarget = true
	opts.TargetPrefix = "[de] "
	res, err := Merge(master, nil, opts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !res.Created || len(res.New) != 2 || res.Document.Path() != "messages.de.xlf" {
		t.Fatalf("result = %+v", res)
	}
	if got := res.Document.UnitWithID("a").TargetContent(); got != "[de] Hello" {
		t.Fatalf("prefixed target = %q", got)
	}
	if got := res.Document.UnitWithID("c").TargetContent(); got != "{VAR_SELECT, select, m {he} other {they}}" {
		t.Fatalf("ICU target = %q", got)
	}
	if res.Document.UnitWithID("a").TargetState() != document.StateNew {
		t.Fatal("copied source should stay new")
	}

	res, err = Merge(master, nil, defaultOptions("en"))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	res.Document.ForEachUnit(func(u *document.Unit) {
		if u.TargetState() != document.StateFinal || u.TargetContent() != u.SourceContent() {
			t.Errorf("default language unit %s: state %v target %q", u.ID(), u.TargetState(), u.TargetContent())
		}
	})
}

func TestMergePreserveOrder(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "",
		unitSpec{id: "z", src: "First"},
		unitSpec{id: "a", src: "A"},
		unitSpec{id: "b", src: "B"},
		unitSpec{id: "c", src: "C"},
	)
	tests := []struct {
		preserve bool
		want     []string
	}{
		{true, []string{"z", "a", "b", "c"}},
		{false, []string{"a", "c", "z", "b"}},
	}
	for _, tt := range tests {
		de := xliff(t, "messages.de.xlf", "en", "de",
			unitSpec{id: "a", src: "A", tgt: "A", state: "translated"},
			unitSpec{id: "c", src: "C", tgt: "C", state: "translated"},
		)
		opts := defaultOptions("de")
		opts.PreserveOrder = tt.preserve
		if _, err := Merge(master, de, opts); err != nil {
			t.Fatalf("Merge: %v", err)
		}
		if got := ids(de); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("preserveOrder=%v: ids = %v, want %v", tt.preserve, got, tt.want)
		}
	}
}

func TestMergeKeepsUnused(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "", unitSpec{id: "a", src: "A"})
	de := xliff(t, "messages.de.xlf", "en", "de",
		unitSpec{id: "a", src: "A", tgt: "A", state: "translated"},
		unitSpec{id: "x", src: "X", tgt: "X", state: "translated"},
	)
	opts := defaultOptions("de")
	opts.RemoveUnusedIDs = false
	res, err := Merge(master, de, opts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(res.Unused, []string{"x"}) || len(res.Removed) != 0 || de.UnitWithID("x") == nil {
		t.Fatalf("result = %+v", res)
	}
	if !res.UpToDate() {
		t.Fatal("kept unused units alone should not count as a change")
	}
}

func TestMergeMetadata(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "",
		unitSpec{id: "a", src: "A", ref: "src/app.html:7", desc: "title"},
	)
	de := xliff(t, "messages.de.xlf", "en", "de",
		unitSpec{id: "a", src: "A", tgt: "A", state: "final", ref: "src/app.html:3"},
	)
	res, err := Merge(master, de, defaultOptions("de"))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(res.ReferencesChanged) != 1 || len(res.DescriptionChanged) != 1 {
		t.Fatalf("result = %+v", res)
	}
	a := de.UnitWithID("a")
	if a.Description() != "title" || a.SourceReferences()[0].Line != 7 {
		t.Fatalf("a: description %q refs %v", a.Description(), a.SourceReferences())
	}
	if a.TargetState() != document.StateFinal {
		t.Fatal("metadata changes must not touch the state")
	}
}

func TestMergeLanguageMaster(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "",
		unitSpec{id: "a", src: "A"},
		unitSpec{id: "b", src: "Bye"},
	)
	de := xliff(t, "messages.de.xlf", "en", "de", unitSpec{id: "a", src: "A", tgt: "A", state: "final"})
	langMaster := xliff(t, "messages.de-master.xlf", "en", "de",
		unitSpec{id: "b", src: "Bye", tgt: "Tschüss", state: "final"},
	)
	opts := defaultOptions("de")
	opts.LanguageMaster = langMaster
	if _, err := Merge(master, de, opts); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	b := de.UnitWithID("b")
	if b.TargetContent() != "Tschüss" || b.TargetState() != document.StateFinal {
		t.Fatalf("b: target %q state %v", b.TargetContent(), b.TargetState())
	}

	opts.UseSourceAsTarget = true
	opts.TargetPrefix = "[de] "
	res, err := Merge(master, nil, opts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := res.Document.UnitWithID("b").TargetContent(); got != "Tschüss" {
		t.Fatalf("created b target = %q, want the language master translation", got)
	}
	if got := res.Document.UnitWithID("a").TargetContent(); got != "[de] A" {
		t.Fatalf("created a target = %q", got)
	}
}

func TestMergeXTB(t *testing.T) {
	xmb := `<?xml version="1.0" encoding="UTF-8"?>
<messagebundle>
  <msg id="1001">Hello</msg>
  <msg id="1002">Bye</msg>
</messagebundle>`
	master, err := document.Parse(document.XMB, []byte(xmb), "messages.xmb", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	xtb := `<?xml version="1.0" encoding="UTF-8"?>
<translationbundle lang="de">
  <translation id="1001">Hallo</translation>
  <translation id="999">Alt</translation>
</translationbundle>`
	de, err := document.ParseXTB([]byte(xtb), "messages.de.xtb", "", master)
	if err != nil {
		t.Fatalf("ParseXTB: %v", err)
	}
	res, err := Merge(master, de, defaultOptions("de"))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(res.New, []string{"1002"}) || !reflect.DeepEqual(res.Removed, []string{"999"}) {
		t.Fatalf("result = %+v", res)
	}
	if de.UnitWithID("1001").TargetState() != document.StateTranslated {
		t.Fatal("existing translation lost")
	}
	if de.UnitWithID("1002").TargetState() != document.StateNew {
		t.Fatal("imported unit should be new")
	}
}

func TestMergeFormatMismatch(t *testing.T) {
	master := xliff(t, "messages.xlf", "en", "", unitSpec{id: "a", src: "A"})
	xlf2 := `<?xml version="1.0" encoding="UTF-8"?>
<xliff version="2.0" xmlns="urn:oasis:names:tc:xliff:document:2.0" srcLang="en" trgLang="de">
  <file original="ng.template" id="ngi18n"></file>
</xliff>`
	de, err := document.Parse(document.XLIFF20, []byte(xlf2), "messages.de.xlf", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = Merge(master, de, defaultOptions("de"))
	var fe *document.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FormatError", err)
	}
}
