// Package i18n localises the messages of the xliffmerge command line.
//
// Catalogues are gettext files embedded below
// locales/<lang>/LC_MESSAGES/xliffmerge.po. The user's locale is matched
// against the embedded catalogues with golang.org/x/text/language, so a
// regional locale such as de_AT.UTF-8 uses the German catalogue. Without a
// matching catalogue every string is passed through unchanged.
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

//go:embed all:locales
var locales embed.FS

const domain = "xliffmerge"

// EnvLocale selects the locale of xliffmerge's own messages, ahead of the
// gettext environment variables.
const EnvLocale = "XLIFFMERGE_LOCALE"

var (
	po      *gotext.Locale
	current = language.Und
)

type catalogue struct {
	tag language.Tag
	dir string
}

// catalogues lists the embedded locale directories.
func catalogues() []catalogue {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var out []catalogue
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if tag, err := language.Parse(e.Name()); err == nil {
			out = append(out, catalogue{tag: tag, dir: e.Name()})
		}
	}
	return out
}

// Available returns the languages xliffmerge has a catalogue for.
func Available() []language.Tag {
	var tags []language.Tag
	for _, c := range catalogues() {
		tags = append(tags, c.tag)
	}
	return tags
}

// Init selects the catalogue best matching lang, or the environment's
// locale when lang is empty, and returns the chosen language. language.Und
// means no catalogue matched and strings stay untranslated.
func Init(lang string) language.Tag {
	prefs := []string{lang}
	if lang == "" {
		prefs = preferences()
	}
	po, current = nil, language.Und

	c, ok := match(prefs)
	if !ok {
		return current
	}
	po = gotext.NewLocaleFSWithPath(c.dir, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
	current = c.tag
	return current
}

// Lang returns the language chosen by the last Init.
func Lang() language.Tag { return current }

// T translates a string.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms using the catalogue's plural
// formula.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// preferences returns the user's locales in priority order:
// $XLIFFMERGE_LOCALE, every entry of $LANGUAGE, $LC_ALL, $LC_MESSAGES and
// $LANG.
func preferences() []string {
	var out []string
	if v := os.Getenv(EnvLocale); v != "" {
		out = append(out, v)
	}
	out = append(out, strings.Split(os.Getenv("LANGUAGE"), ":")...)
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		out = append(out, os.Getenv(env))
	}
	return out
}

// localeTag turns a POSIX locale ("pt_BR.UTF-8@euro") into a language tag.
// C, POSIX and empty values select no language.
func localeTag(locale string) (language.Tag, bool) {
	locale, _, _ = strings.Cut(locale, ".")
	locale, _, _ = strings.Cut(locale, "@")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return language.Und, false
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

func match(prefs []string) (catalogue, bool) {
	cats := catalogues()
	if len(cats) == 0 {
		return catalogue{}, false
	}
	var want []language.Tag
	for _, p := range prefs {
		if tag, ok := localeTag(p); ok {
			want = append(want, tag)
		}
	}
	if len(want) == 0 {
		return catalogue{}, false
	}
	supported := make([]language.Tag, len(cats))
	for i, c := range cats {
		supported[i] = c.tag
	}
	_, idx, conf := language.NewMatcher(supported).Match(want...)
	if conf == language.No {
		return catalogue{}, false
	}
	return cats[idx], true
}
