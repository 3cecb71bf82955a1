package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/minios-linux/xliffmerge/config"
	"github.com/minios-linux/xliffmerge/settings"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader("typed-key\n"))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestApplyFlags(t *testing.T) {
	o := &config.Options{Languages: []string{"de", "fr"}, Provider: "google", APIKey: "profile-key"}
	applyFlags(o, rootFlags{verbose: true, autoTranslate: true, apiKey: "flag-key", provider: "groq"}, []string{"it"})

	if !o.Verbose || o.Quiet {
		t.Fatalf("Verbose/Quiet = %v/%v", o.Verbose, o.Quiet)
	}
	if !o.Autotranslate.All {
		t.Fatalf("--auto-translate should enable all languages")
	}
	if o.APIKey != "flag-key" || o.Provider != "groq" {
		t.Fatalf("APIKey/Provider = %q/%q", o.APIKey, o.Provider)
	}
	if !reflect.DeepEqual(o.Languages, []string{"it"}) {
		t.Fatalf("Languages = %v, want [it]", o.Languages)
	}

	o = &config.Options{Languages: []string{"de"}, APIKey: "profile-key"}
	applyFlags(o, rootFlags{}, nil)
	if o.APIKey != "profile-key" || !reflect.DeepEqual(o.Languages, []string{"de"}) {
		t.Fatalf("empty flags must keep profile values: %+v", o)
	}
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "xliffmerge version dev\n") || !strings.Contains(out, "commit:    none") {
		t.Fatalf("version output = %q", out)
	}
}

func storedEntry(t *testing.T, id string) (settings.Entry, bool) {
	t.Helper()
	store, err := settings.OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault: %v", err)
	}
	return store.Get(id)
}

func TestAuthCommands(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(settings.EnvAPIKey, "")

	if _, _, err := execute(t, "auth", "set", "google", "AIza1234567890"); err != nil {
		t.Fatalf("auth set: %v", err)
	}
	if _, _, err := execute(t, "auth", "set", "groq"); err != nil {
		t.Fatalf("auth set from stdin: %v", err)
	}
	if e, _ := storedEntry(t, "groq"); e.Key != "typed-key" {
		t.Fatalf("groq key = %q, want typed-key", e.Key)
	}
	if _, _, err := execute(t, "auth", "set", "ollama", "--base-url", "http://gpu:11434/v1", "--model", "llama3"); err != nil {
		t.Fatalf("auth set endpoint: %v", err)
	}
	if e, _ := storedEntry(t, "ollama"); e != (settings.Entry{BaseURL: "http://gpu:11434/v1", Model: "llama3"}) {
		t.Fatalf("ollama entry = %+v", e)
	}
	if _, _, err := execute(t, "auth", "set", "babelfish", "x"); err == nil {
		t.Fatalf("auth set with unknown provider should fail")
	}

	out, _, err := execute(t, "auth", "list")
	if err != nil {
		t.Fatalf("auth list: %v", err)
	}
	for _, want := range []string{"AIza...7890", "not configured", "3 providers configured", "model:    llama3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("auth list output misses %q:\n%s", want, out)
		}
	}

	if _, _, err := execute(t, "auth", "remove", "google"); err != nil {
		t.Fatalf("auth remove: %v", err)
	}
	if _, ok := storedEntry(t, "google"); ok {
		t.Fatalf("google still stored")
	}
	if _, ok := storedEntry(t, "groq"); !ok {
		t.Fatalf("remove google should keep groq")
	}
	if _, _, err := execute(t, "auth", "remove"); err != nil {
		t.Fatalf("auth remove all: %v", err)
	}
	store, err := settings.OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault: %v", err)
	}
	if len(store.Providers()) != 0 {
		t.Fatalf("store should be empty after remove all")
	}
}

func TestRootMergesLanguages(t *testing.T) {
	dir := t.TempDir()
	master := `<?xml version="1.0" encoding="UTF-8" ?>
<xliff version="1.2" xmlns="urn:oasis:names:tc:xliff:document:1.2">
  <file source-language="en" datatype="plaintext" original="ng2.template">
    <body>
      <trans-unit id="title" datatype="html">
        <source>Title</source>
      </trans-unit>
    </body>
  </file>
</xliff>
`
	if err := os.WriteFile(filepath.Join(dir, "messages.xlf"), []byte(master), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	profile := filepath.Join(dir, "xliffmerge.yaml")
	if err := os.WriteFile(profile, []byte("xliffmergeOptions:\n  languages: [fr]\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, stderr, err := execute(t, "--profile", profile, "de", "it")
	if err != nil {
		t.Fatalf("root: %v\n%s", err, stderr)
	}
	for _, lang := range []string{"de", "it"} {
		if _, err := os.Stat(filepath.Join(dir, "messages."+lang+".xlf")); err != nil {
			t.Fatalf("messages.%s.xlf not written: %v", lang, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "messages.fr.xlf")); !os.IsNotExist(err) {
		t.Fatalf("command line languages must replace the profile languages")
	}
}

func TestRootExitCode(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "xliffmerge.json")
	if err := os.WriteFile(profile, []byte(`{"xliffmergeOptions": {"srcDir": "nowhere"}}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, stderr, err := execute(t, "-p", profile, "-q")
	var code exitCode
	if !errors.As(err, &code) || code != 1 {
		t.Fatalf("err = %v, want exit code 1", err)
	}
	if !strings.Contains(stderr, "[ERROR] srcDir:") {
		t.Fatalf("configuration error not reported:\n%s", stderr)
	}
}

func TestRootRejectsInvalidLanguage(t *testing.T) {
	_, _, err := execute(t, "-q", "not a language")
	if err == nil || !strings.Contains(err.Error(), "invalid language") {
		t.Fatalf("err = %v, want invalid language", err)
	}
	var code exitCode
	if errors.As(err, &code) {
		t.Fatalf("argument errors must not run the merge")
	}
}
