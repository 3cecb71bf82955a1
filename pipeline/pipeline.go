// Package pipeline runs xliffmerge: it loads the master file once, fixes
// its source language and then merges, auto-translates and saves every
// configured language as an independent task.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/minios-linux/xliffmerge/config"
	"github.com/minios-linux/xliffmerge/document"
	"github.com/minios-linux/xliffmerge/merge"
	"github.com/minios-linux/xliffmerge/ngxtranslate"
	"github.com/minios-linux/xliffmerge/settings"
	"github.com/minios-linux/xliffmerge/translate"
)

// ProviderFactory creates the translation provider of a run.
type ProviderFactory func(ctx context.Context) (translate.Provider, error)

// Runner executes one xliffmerge run.
type Runner struct {
	Options *config.Options
	Log     logrus.FieldLogger
	// NewProvider creates the provider used for auto-translation. Nil
	// means DefaultProvider(Options).
	NewProvider ProviderFactory
}

// DefaultProvider builds the configured provider from the profile, the
// environment and the provider settings store.
func DefaultProvider(o *config.Options) ProviderFactory {
	return func(ctx context.Context) (translate.Provider, error) {
		store, err := settings.OpenDefault()
		if err != nil {
			return nil, err
		}
		c, err := store.Resolve(settings.Request{
			Provider:   o.Provider,
			APIKey:     o.APIKey,
			APIKeyFile: o.APIKeyFilePath(),
			BaseURL:    o.ProviderURL,
			Model:      o.Model,
		})
		if err != nil {
			return nil, err
		}
		cfg, err := translate.ResolveProvider(c.Provider, c.Key, c.BaseURL, c.Model)
		if err != nil {
			return nil, err
		}
		return translate.NewProvider(ctx, cfg)
	}
}

// Run validates the options and processes every language. It returns the
// process exit code: the first non-zero language code in language order,
// or 1 when the run could not start.
func (r *Runner) Run(ctx context.Context) int {
	o := r.Options
	log := r.Log

	if err := o.Validate(); err != nil {
		var errs config.Errors
		if errors.As(err, &errs) {
			for _, e := range errs {
				log.Error(e)
			}
		} else {
			log.Error(err)
		}
		return 1
	}

	master, err := r.loadMaster()
	if err != nil {
		log.Error(err)
		return 1
	}
	for _, w := range master.Warnings() {
		log.Warn(w)
	}
	if err := r.correctSourceLanguage(master); err != nil {
		log.Error(err)
		return 1
	}
	log.Debugf("master %s: %d units, languages %s", master.Path(), master.NumberOfUnits(), strings.Join(o.Languages, ", "))

	provider := r.provider(ctx)
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}

	codes := make([]int, len(o.Languages))
	tasks := make([]int, len(o.Languages))
	for i := range tasks {
		tasks[i] = i
	}
	runParallel(ctx, tasks, o.Parallel, func(ctx context.Context, i int) {
		codes[i] = r.processLanguage(ctx, master, o.Languages[i], provider)
	})
	if err := ctx.Err(); err != nil {
		log.Error(err)
		return 1
	}

	for _, code := range codes {
		if code != 0 {
			return code
		}
	}
	return 0
}

func (r *Runner) needsTranslation(lang string) bool {
	return r.Options.Autotranslate.Enabled(lang) && !strings.EqualFold(lang, r.Options.DefaultLanguage)
}

// provider creates the translation provider if any language needs it. A
// failure is logged and disables auto-translation for the run.
func (r *Runner) provider(ctx context.Context) translate.Provider {
	needed := false
	for _, lang := range r.Options.Languages {
		needed = needed || r.needsTranslation(lang)
	}
	if !needed {
		return nil
	}
	factory := r.NewProvider
	if factory == nil {
		factory = DefaultProvider(r.Options)
	}
	p, err := factory(ctx)
	if err != nil {
		r.Log.Errorf("auto-translate disabled: %v", err)
		return nil
	}
	return p
}

// ---------------------------------------------------------------------------
// Master
// ---------------------------------------------------------------------------

func (r *Runner) loadMaster() (*document.Document, error) {
	f, err := r.Options.Format()
	if err != nil {
		return nil, err
	}
	path := r.Options.MasterPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading master: %w", err)
	}
	return document.Parse(f, data, path, r.Options.Encoding)
}

// correctSourceLanguage makes the master declare the default language and
// saves it. Formats without language attributes are left alone.
func (r *Runner) correctSourceLanguage(master *document.Document) error {
	want := r.Options.DefaultLanguage
	if !master.SupportsLanguageAttributes() || master.SourceLanguage() == want {
		return nil
	}
	if got := master.SourceLanguage(); got != "" {
		r.Log.Warnf("master %s declares source language %q, changed to %q", master.Path(), got, want)
	} else {
		r.Log.Infof("master %s has no source language, set to %q", master.Path(), want)
	}
	master.SetSourceLanguage(want)
	return save(master)
}

// ---------------------------------------------------------------------------
// Languages
// ---------------------------------------------------------------------------

func (r *Runner) processLanguage(ctx context.Context, master *document.Document, lang string, provider translate.Provider) int {
	o := r.Options
	log := r.Log.WithField("lang", lang)
	path := o.LanguagePath(lang)

	target, err := loadLanguageFile(master, path, o.Encoding)
	if err != nil {
		log.Error(err)
		return 1
	}
	opts := merge.Options{
		Language:          lang,
		DefaultLanguage:   o.DefaultLanguage,
		Path:              path,
		UseSourceAsTarget: o.SourceAsTarget(),
		TargetPrefix:      o.TargetPraefix,
		TargetSuffix:      o.TargetSuffix,
		AllowIDChange:     o.AllowIDChange,
		PreserveOrder:     o.KeepOrder(),
		RemoveUnusedIDs:   o.RemoveUnused(),
	}
	if p := o.LanguageMasterPath(lang); p != "" {
		if opts.LanguageMaster, err = loadLanguageFile(master, p, o.Encoding); err != nil {
			log.Error(err)
			return 1
		}
	}

	res, err := merge.Merge(master, target, opts)
	if err != nil {
		log.Errorf("merging %s: %v", path, err)
		return 1
	}
	doc := res.Document
	log.Infof("%s: %s", path, res.Summary())
	for _, id := range res.Unused {
		log.Warnf("unit %s is not in the master any more, kept", id)
	}

	changed := !res.UpToDate()
	if r.needsTranslation(lang) {
		if provider == nil {
			log.Warn("auto-translate skipped, no provider available")
		} else {
			summary := translate.NewAutoTranslator(provider, log).TranslateDocument(ctx, doc, o.DefaultLanguage, lang)
			if summary.Err != nil || summary.Failed > 0 {
				log.Warnf("auto-translate: %s", summary)
			} else {
				log.Infof("auto-translate: %s", summary)
			}
			changed = changed || summary.Success > 0
		}
	}

	if changed {
		if err := save(doc); err != nil {
			log.Error(err)
			return 1
		}
		log.Debugf("wrote %s", doc.Path())
	}

	if o.SupportNgxTranslate {
		if err := exportNgx(doc, o.NgxTranslateExtractionPattern, o.NgxPath(lang)); err != nil {
			log.Error(err)
			return 1
		}
		log.Debugf("wrote %s", o.NgxPath(lang))
	}
	return 0
}

// loadLanguageFile reads an existing language document. It returns nil
// without error when the file does not exist.
func loadLanguageFile(master *document.Document, path, enc string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if master.Format() == document.XMB {
		return document.ParseXTB(data, path, enc, master)
	}
	return document.Parse(master.Format(), data, path, enc)
}

func save(doc *document.Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(doc.Path(), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", doc.Path(), err)
	}
	return nil
}

func exportNgx(doc *document.Document, pattern, path string) error {
	p, err := ngxtranslate.ParsePattern(pattern)
	if err != nil {
		return err
	}
	data, err := ngxtranslate.Marshal(doc, p)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
