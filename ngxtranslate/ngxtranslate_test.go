package ngxtranslate

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/xliffmerge/document"
)

func parseDoc(t *testing.T, units string) *document.Document {
	t.Helper()
	data := `<?xml version="1.0" encoding="UTF-8" ?>
<xliff version="1.2" xmlns="urn:oasis:names:tc:xliff:document:1.2">
  <file source-language="en" target-language="de" datatype="plaintext" original="ng2.template">
    <body>
` + units + `
    </body>
  </file>
</xliff>
`
	doc, err := document.Parse(document.XLIFF12, []byte(data), "messages.de.xlf", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("@@|ngx-translate|i18n_key")
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	if !p.ExplicitIDs {
		t.Fatalf("ExplicitIDs = false, want true")
	}
	if want := []string{"ngx-translate", "i18n_key"}; !reflect.DeepEqual(p.Descriptions, want) {
		t.Fatalf("Descriptions = %v, want %v", p.Descriptions, want)
	}

	p, err = ParsePattern("ngx-translate")
	if err != nil || p.ExplicitIDs {
		t.Fatalf("ParsePattern(ngx-translate) = %+v, %v", p, err)
	}

	for _, bad := range []string{"", "@@|", "a b", "@"} {
		if _, err := ParsePattern(bad); err == nil {
			t.Fatalf("ParsePattern(%q) should fail", bad)
		}
	}
}

func TestExport(t *testing.T) {
	doc := parseDoc(t, `
      <trans-unit id="app.title" datatype="html">
        <source>Title</source>
        <target state="translated">Titel</target>
      </trans-unit>
      <trans-unit id="app.greeting" datatype="html">
        <source>Hello <x id="INTERPOLATION" equiv-text="{{ name }}"/></source>
        <target state="translated">Hallo <x id="INTERPOLATION" equiv-text="{{ name }}"/></target>
      </trans-unit>
      <trans-unit id="4d2a8c1e6f3b9a7d5c0e" datatype="html">
        <source>File</source>
        <target state="translated">Datei</target>
        <note priority="1" from="description">ngx-translate</note>
        <note priority="1" from="meaning">menu.file</note>
      </trans-unit>
      <trans-unit id="7ab3c90e12d45f6a8b0c" datatype="html">
        <source>Other</source>
        <target state="translated">Andere</target>
        <note priority="1" from="description">something else</note>
        <note priority="1" from="meaning">menu.other</note>
      </trans-unit>
      <trans-unit id="count" datatype="html">
        <source>{VAR_PLURAL, plural, one {one} other {many}}</source>
        <target state="translated">{VAR_PLURAL, plural, one {eins} other {viele}}</target>
      </trans-unit>
      <trans-unit id="untranslated" datatype="html">
        <source>Nothing</source>
      </trans-unit>`)

	p, err := ParsePattern("@@|ngx-translate")
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	got, err := Export(doc, p)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := map[string]any{
		"app": map[string]any{
			"title":    "Titel",
			"greeting": "Hallo {{0}}",
		},
		"menu": map[string]any{
			"file": "Datei",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Export = %#v, want %#v", got, want)
	}

	onlyIDs, _ := ParsePattern("@@")
	got, err = Export(doc, onlyIDs)
	if err != nil {
		t.Fatalf("Export(@@): %v", err)
	}
	if _, ok := got["menu"]; ok {
		t.Fatalf("description units exported without their word: %#v", got)
	}
}

func TestExportConflict(t *testing.T) {
	doc := parseDoc(t, `
      <trans-unit id="app" datatype="html">
        <source>App</source>
        <target state="translated">App</target>
      </trans-unit>
      <trans-unit id="app.title" datatype="html">
        <source>Title</source>
        <target state="translated">Titel</target>
      </trans-unit>`)

	p, _ := ParsePattern("@@")
	_, err := Export(doc, p)
	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("Export error = %v, want *ExportError", err)
	}
	if exportErr.Key != "app.title" {
		t.Fatalf("conflicting key = %q, want app.title", exportErr.Key)
	}
}

func TestMarshalKeepsMarkup(t *testing.T) {
	doc := parseDoc(t, `
      <trans-unit id="note" datatype="html">
        <source>a <x id="START_BOLD_TEXT" ctype="x-b" equiv-text="&lt;b&gt;"/>b<x id="CLOSE_BOLD_TEXT" ctype="x-b" equiv-text="&lt;/b&gt;"/></source>
        <target state="translated">x <x id="START_BOLD_TEXT" ctype="x-b" equiv-text="&lt;b&gt;"/>y<x id="CLOSE_BOLD_TEXT" ctype="x-b" equiv-text="&lt;/b&gt;"/></target>
      </trans-unit>`)

	p, _ := ParsePattern("@@")
	data, err := Marshal(doc, p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"note": "x <b>y</b>"`) {
		t.Fatalf("markup escaped or missing:\n%s", data)
	}
}
