package i18n

import (
	"reflect"
	"testing"

	"golang.org/x/text/language"
)

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{EnvLocale, "LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		t.Setenv(env, "")
	}
}

func restore(t *testing.T) {
	t.Helper()
	oldPo, oldCur := po, current
	t.Cleanup(func() { po, current = oldPo, oldCur })
}

func TestPreferencesOrder(t *testing.T) {
	clearLocaleEnv(t)
	t.Setenv(EnvLocale, "fr")
	t.Setenv("LANGUAGE", "ru_RU.UTF-8:de")
	t.Setenv("LANG", "it_IT.UTF-8")

	got := preferences()
	want := []string{"fr", "ru_RU.UTF-8", "de", "", "", "it_IT.UTF-8"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("preferences() = %q, want %q", got, want)
	}
}

func TestLocaleTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"de_AT.UTF-8", "de-AT", true},
		{"pt_BR@euro", "pt-BR", true},
		{"C", "und", false},
		{"POSIX", "und", false},
		{"", "und", false},
		{"not a locale", "und", false},
	}
	for _, tt := range tests {
		tag, ok := localeTag(tt.in)
		if ok != tt.ok || tag.String() != tt.want {
			t.Errorf("localeTag(%q) = %s, %v, want %s, %v", tt.in, tag, ok, tt.want, tt.ok)
		}
	}
}

func TestAvailable(t *testing.T) {
	if got := Available(); !reflect.DeepEqual(got, []language.Tag{language.German}) {
		t.Fatalf("Available() = %v, want [de]", got)
	}
}

func TestInitMatchesEnvironment(t *testing.T) {
	restore(t)
	clearLocaleEnv(t)
	t.Setenv("LANGUAGE", "ja:de_AT")
	t.Setenv("LANG", "fr_FR.UTF-8")

	if got := Init(""); got != language.German {
		t.Fatalf("Init() = %v, want de", got)
	}
	if Lang() != language.German {
		t.Fatalf("Lang() = %v", Lang())
	}
	if got := T("Store an API key"); got != "API-Schlüssel speichern" {
		t.Fatalf("T() = %q, want German translation", got)
	}

	t.Setenv(EnvLocale, "C")
	t.Setenv("LANGUAGE", "")
	t.Setenv("LANG", "en_US.UTF-8")
	if got := Init(""); got != language.Und {
		t.Fatalf("Init() = %v, want und for English", got)
	}
	if got := T("Store an API key"); got != "Store an API key" {
		t.Fatalf("T() without catalogue = %q, want msgid", got)
	}
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	restore(t)
	po = nil

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}
	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "file")
	}
	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "files")
	}
}

func TestEmbeddedGermanCatalogue(t *testing.T) {
	restore(t)

	if got := Init("de-CH"); got != language.German {
		t.Fatalf("Init(de-CH) = %v, want de", got)
	}
	if got := N("%d provider configured", "%d providers configured", 3); got != "%d Dienste eingerichtet" {
		t.Fatalf("N(3) = %q, want German plural", got)
	}
	if got := T("untranslated message"); got != "untranslated message" {
		t.Fatalf("T() of unknown msgid = %q, want passthrough", got)
	}
}
