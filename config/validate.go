package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/language"

	"github.com/minios-linux/xliffmerge/document"
	"github.com/minios-linux/xliffmerge/ngxtranslate"
	"github.com/minios-linux/xliffmerge/translate"
)

// OptionError is a problem with one option.
type OptionError struct {
	Option string
	Msg    string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Option, e.Msg)
}

// Errors collects every problem found in a set of options.
type Errors []error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Unwrap() []error { return e }

func (e *Errors) addf(option, format string, args ...any) {
	*e = append(*e, &OptionError{Option: option, Msg: fmt.Sprintf(format, args...)})
}

// Validate checks the options and the files they point to. It returns nil
// when the options are usable.
func (o *Options) Validate() error {
	var errs Errors

	f, err := o.Format()
	switch {
	case err != nil:
		errs.addf("i18nFormat", "%v", err)
	case f == document.XTB:
		errs.addf("i18nFormat", "xtb is a translation format, use xmb for the master")
	}

	srcOK := checkDir(&errs, "srcDir", o.SrcDirPath())
	checkDir(&errs, "genDir", o.GenDirPath())
	if srcOK {
		if st, err := os.Stat(o.MasterPath()); err != nil || st.IsDir() {
			errs.addf("i18nFile", "master file %s does not exist", o.MasterPath())
		}
	}

	if _, err := language.Parse(o.DefaultLanguage); err != nil {
		errs.addf("defaultLanguage", "invalid language %q", o.DefaultLanguage)
	}
	seen := map[string]bool{}
	for _, lang := range o.Languages {
		if _, err := language.Parse(lang); err != nil {
			errs.addf("languages", "invalid language %q", lang)
		}
		if seen[lang] {
			errs.addf("languages", "language %q listed twice", lang)
		}
		seen[lang] = true
	}
	for _, lang := range o.Autotranslate.Languages {
		if !slices.Contains(o.Languages, lang) {
			errs.addf("autotranslate", "language %q is not in languages", lang)
		}
	}
	for lang := range o.LanguageMasters {
		if !slices.Contains(o.Languages, lang) {
			errs.addf("languageMasters", "language %q is not in languages", lang)
			continue
		}
		if _, err := os.Stat(o.LanguageMasterPath(lang)); err != nil {
			errs.addf("languageMasters", "%s: file %s does not exist", lang, o.LanguageMasterPath(lang))
		}
	}

	if o.Parallel < 1 {
		errs.addf("parallel", "must be at least 1, got %d", o.Parallel)
	}
	if _, err := htmlindex.Get(o.Encoding); err != nil {
		errs.addf("encoding", "unknown encoding %q", o.Encoding)
	}
	if o.SupportNgxTranslate {
		if _, err := ngxtranslate.ParsePattern(o.NgxTranslateExtractionPattern); err != nil {
			errs.addf("ngxTranslateExtractionPattern", "%v", err)
		}
	}
	if !o.Autotranslate.IsZero() {
		if _, ok := translate.DefaultProviders()[strings.ToLower(o.Provider)]; !ok {
			errs.addf("provider", "unknown translation provider %q", o.Provider)
		}
		if o.APIKeyFile != "" {
			if _, err := os.Stat(o.APIKeyFilePath()); err != nil {
				errs.addf("apikeyfile", "file %s does not exist", o.APIKeyFilePath())
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkDir(errs *Errors, option, path string) bool {
	st, err := os.Stat(path)
	if err != nil {
		errs.addf(option, "directory %s does not exist", path)
		return false
	}
	if !st.IsDir() {
		errs.addf(option, "%s is not a directory", path)
		return false
	}
	return true
}
