package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadFormats(t *testing.T) {
	profiles := map[string]string{
		"xliffmerge.json": `{
  "xliffmergeOptions": {
    "srcDir": "src/i18n",
    "genDir": "out",
    "i18nFormat": "xmb",
    "languages": ["de", "fr"],
    "removeUnusedIds": false,
    "autotranslate": ["fr"],
    "parallel": 2
  }
}`,
		"profile.yaml": `xliffmergeOptions:
  srcDir: src/i18n
  genDir: out
  i18nFormat: xmb
  languages: [de, fr]
  removeUnusedIds: false
  autotranslate: [fr]
  parallel: 2
`,
		"profile.toml": `[xliffmergeOptions]
srcDir = "src/i18n"
genDir = "out"
i18nFormat = "xmb"
languages = ["de", "fr"]
removeUnusedIds = false
autotranslate = ["fr"]
parallel = 2
`,
	}
	for name, content := range profiles {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			writeFile(t, path, content)

			o, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if o.BaseDir != dir {
				t.Fatalf("BaseDir = %q, want %q", o.BaseDir, dir)
			}
			if got, want := o.MasterPath(), filepath.Join(dir, "src/i18n", "messages.xmb"); got != want {
				t.Fatalf("MasterPath() = %q, want %q", got, want)
			}
			if got, want := o.LanguagePath("de"), filepath.Join(dir, "out", "messages.de.xtb"); got != want {
				t.Fatalf("LanguagePath(de) = %q, want %q", got, want)
			}
			if !reflect.DeepEqual(o.Languages, []string{"de", "fr"}) {
				t.Fatalf("Languages = %v", o.Languages)
			}
			if o.RemoveUnused() {
				t.Fatalf("RemoveUnused() = true, want false")
			}
			if !o.SourceAsTarget() || !o.KeepOrder() {
				t.Fatalf("unset booleans should default to true")
			}
			if o.Autotranslate.Enabled("de") || !o.Autotranslate.Enabled("fr") {
				t.Fatalf("Autotranslate = %+v", o.Autotranslate)
			}
			if o.Parallel != 2 {
				t.Fatalf("Parallel = %d, want 2", o.Parallel)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	o, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") without profile: %v", err)
	}
	if o.DefaultLanguage != "en" || o.I18nFormat != "xlf" || o.I18nFile != "messages.xlf" ||
		o.I18nBaseFile != "messages" || o.Encoding != "UTF-8" || o.Provider != "google" || o.Parallel != 3 {
		t.Fatalf("unexpected defaults: %+v", o)
	}
	if o.NgxTranslateExtractionPattern != "@@|ngx-translate" {
		t.Fatalf("NgxTranslateExtractionPattern = %q", o.NgxTranslateExtractionPattern)
	}
	if !reflect.DeepEqual(o.Languages, []string{"en"}) {
		t.Fatalf("Languages = %v, want [en]", o.Languages)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("Load() of an explicit missing profile should fail")
	}
}

func TestAutotranslateBool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	writeFile(t, path, `{"xliffmergeOptions": {"autotranslate": true, "languages": ["de"]}}`)
	o, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !o.Autotranslate.All || !o.Autotranslate.Enabled("any") {
		t.Fatalf("Autotranslate = %+v, want all", o.Autotranslate)
	}

	writeFile(t, path, `{"xliffmergeOptions": {"autotranslate": {"de": true}}}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load() should reject an object for autotranslate")
	}
}

func TestDetectLanguages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"messages.xlf", "messages.de.xlf", "messages.fr-CA.xlf", "other.it.xlf", "messages.es.json"} {
		writeFile(t, filepath.Join(dir, name), "")
	}
	o := &Options{BaseDir: dir}
	o.ApplyDefaults()
	if want := []string{"de", "fr-CA"}; !reflect.DeepEqual(o.Languages, want) {
		t.Fatalf("Languages = %v, want %v", o.Languages, want)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "messages.xlf"), "<xliff/>")
		writeFile(t, filepath.Join(dir, "de-master.xlf"), "<xliff/>")
		o := &Options{
			BaseDir:         dir,
			Languages:       []string{"en", "de"},
			Autotranslate:   Autotranslate{Languages: []string{"de"}},
			LanguageMasters: map[string]string{"de": "de-master.xlf"},
		}
		o.ApplyDefaults()
		if err := o.Validate(); err != nil {
			t.Fatalf("Validate() error: %v", err)
		}
	})

	t.Run("reports every error", func(t *testing.T) {
		dir := t.TempDir()
		o := &Options{
			BaseDir:                       dir,
			GenDir:                        "missing",
			I18nFormat:                    "po",
			Languages:                     []string{"de", "not a language", "de"},
			Autotranslate:                 Autotranslate{Languages: []string{"fr"}},
			Provider:                      "babelfish",
			Encoding:                      "klingon",
			SupportNgxTranslate:           true,
			NgxTranslateExtractionPattern: "@@|",
			Parallel:                      -1,
		}
		o.ApplyDefaults()

		err := o.Validate()
		var errs Errors
		if !errors.As(err, &errs) {
			t.Fatalf("Validate() = %v, want Errors", err)
		}
		options := map[string]bool{}
		for _, e := range errs {
			var oe *OptionError
			if !errors.As(e, &oe) {
				t.Fatalf("error %v is not an *OptionError", e)
			}
			options[oe.Option] = true
		}
		for _, want := range []string{"i18nFormat", "genDir", "i18nFile", "languages", "autotranslate",
			"provider", "encoding", "ngxTranslateExtractionPattern", "parallel"} {
			if !options[want] {
				t.Errorf("no error reported for %s; got %v", want, err)
			}
		}
		if !strings.Contains(err.Error(), "; ") {
			t.Fatalf("Errors.Error() should join all messages: %q", err.Error())
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvAPIKey, "")
	os.Unsetenv(EnvAPIKey)

	if err := LoadDotEnv(dir); err != nil {
		t.Fatalf("LoadDotEnv() without .env: %v", err)
	}
	writeFile(t, filepath.Join(dir, ".env"), EnvAPIKey+"=from-dotenv\n")
	if err := LoadDotEnv(dir); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	if got := os.Getenv(EnvAPIKey); got != "from-dotenv" {
		t.Fatalf("%s = %q, want from-dotenv", EnvAPIKey, got)
	}
}
