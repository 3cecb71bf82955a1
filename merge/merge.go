// Package merge synchronizes a language document with its master,
// keeping existing translations.
package merge

import (
	"fmt"
	"slices"
	"strings"

	"github.com/minios-linux/xliffmerge/document"
	"github.com/minios-linux/xliffmerge/message"
)

// Options control a single merge.
type Options struct {
	// Language is the target language of the document.
	Language string
	// DefaultLanguage is the language the master is written in.
	DefaultLanguage string
	// Path is used when the language document has to be created.
	Path string

	UseSourceAsTarget bool
	TargetPrefix      string
	TargetSuffix      string
	AllowIDChange     bool
	PreserveOrder     bool
	RemoveUnusedIDs   bool

	// LanguageMaster is consulted for units missing in the target.
	LanguageMaster *document.Document
}

func (o Options) isDefaultLanguage() bool {
	return strings.EqualFold(o.Language, o.DefaultLanguage)
}

// Result describes what a merge changed. The slices hold unit ids.
type Result struct {
	Document *document.Document
	Created  bool

	New                []string
	SourceChanged      []string
	ReferencesChanged  []string
	DescriptionChanged []string
	// IDChanged holds "old -> new" pairs of recovered units.
	IDChanged []string
	Removed   []string
	// Unused holds ids absent from the master that were kept.
	Unused []string

	LanguageChanged bool
}

// UpToDate reports whether the merge left the document unchanged.
func (r *Result) UpToDate() bool {
	return !r.Created && !r.LanguageChanged &&
		len(r.New) == 0 && len(r.SourceChanged) == 0 && len(r.ReferencesChanged) == 0 &&
		len(r.DescriptionChanged) == 0 && len(r.IDChanged) == 0 && len(r.Removed) == 0
}

// Summary formats the counters for logging.
func (r *Result) Summary() string {
	if r.Created {
		return fmt.Sprintf("created with %d units", len(r.New))
	}
	if r.UpToDate() {
		return "already up to date"
	}
	s := fmt.Sprintf("%d new, %d source changed, %d references changed, %d description changed, %d id changed, %d removed",
		len(r.New), len(r.SourceChanged), len(r.ReferencesChanged), len(r.DescriptionChanged), len(r.IDChanged), len(r.Removed))
	if len(r.Unused) > 0 {
		s += fmt.Sprintf(", %d unused kept", len(r.Unused))
	}
	return s
}

// Merge brings target in line with master. A nil target creates the
// language document from the master.
//
// Units are processed in master order: missing units are taken from the
// language master, recovered by source text when ids may change, or
// imported as new. Existing units get source, references and descriptions
// resynced. Units the master no longer has are removed or reported.
func Merge(master, target *document.Document, opts Options) (*Result, error) {
	if target == nil {
		return create(master, opts)
	}
	if want := master.Format().TranslationFormat(); target.Format() != want {
		return nil, &document.FormatError{
			Path:   target.Path(),
			Format: target.Format(),
			Reason: fmt.Sprintf("master %s is %s, language files must be %s", master.Path(), master.Format(), want),
		}
	}

	m := &merger{master: master, target: target, opts: opts, res: &Result{Document: target}}
	if err := m.run(); err != nil {
		return nil, err
	}
	return m.res, nil
}

func create(master *document.Document, opts Options) (*Result, error) {
	isDefault := opts.isDefaultLanguage()
	doc, err := master.CreateTranslationDocumentForLanguage(opts.Language, opts.Path, isDefault, opts.UseSourceAsTarget)
	if err != nil {
		return nil, err
	}
	res := &Result{Document: doc, Created: true}
	for _, u := range doc.Units() {
		res.New = append(res.New, u.ID())
		if opts.LanguageMaster != nil {
			if lu := opts.LanguageMaster.UnitWithID(u.ID()); lu != nil && strings.TrimSpace(lu.TargetContent()) != "" {
				if err := copyTranslation(lu, u, lu.TargetState()); err != nil {
					return nil, err
				}
				continue
			}
		}
		if !isDefault && opts.UseSourceAsTarget {
			decorate(u, opts)
		}
	}
	return res, nil
}

// decorate wraps a target copied from the source in the configured prefix
// and suffix. ICU messages are left alone.
func decorate(u *document.Unit, opts Options) {
	if opts.TargetPrefix == "" && opts.TargetSuffix == "" {
		return
	}
	src, err := u.SourceContentNormalized()
	if err != nil || src.IsICU() || src.HasICURef() {
		return
	}
	msg, err := src.Translate(opts.TargetPrefix + src.String() + opts.TargetSuffix)
	if err != nil {
		return
	}
	u.SetTarget(msg)
}

type merger struct {
	master *document.Document
	target *document.Document
	opts   Options
	res    *Result

	// recovered holds target ids whose translation moved to a new id.
	recovered map[string]bool
}

func (m *merger) run() error {
	m.recovered = map[string]bool{}
	if lang := m.master.SourceLanguage(); lang != "" && m.target.SupportsLanguageAttributes() &&
		m.target.SourceLanguage() != lang {
		m.target.SetSourceLanguage(lang)
		m.res.LanguageChanged = true
	}
	if m.target.TargetLanguage() == "" && m.opts.Language != "" {
		m.target.SetTargetLanguage(m.opts.Language)
		m.res.LanguageChanged = true
	}

	var last string
	for _, mu := range m.master.Units() {
		pos := document.AtEnd
		if m.opts.PreserveOrder {
			pos = document.AtStart
			if last != "" {
				pos = document.After(last)
			}
		}
		if err := m.mergeUnit(mu, pos); err != nil {
			return err
		}
		last = mu.ID()
	}
	return m.prune()
}

func (m *merger) mergeUnit(mu *document.Unit, pos document.Position) error {
	if tu := m.target.UnitWithID(mu.ID()); tu != nil {
		return m.update(mu, tu)
	}
	isDefault := m.opts.isDefaultLanguage()

	if m.opts.LanguageMaster != nil {
		if lu := m.opts.LanguageMaster.UnitWithID(mu.ID()); lu != nil {
			tu, err := m.target.ImportUnit(mu, isDefault, false, pos)
			if err != nil {
				return err
			}
			if err := copyTranslation(lu, tu, lu.TargetState()); err != nil {
				return err
			}
			m.res.New = append(m.res.New, mu.ID())
			return nil
		}
	}

	if m.opts.AllowIDChange {
		if old := m.findRecoverable(mu); old != nil {
			tu, err := m.target.ImportUnit(mu, isDefault, false, pos)
			if err != nil {
				return err
			}
			if err := copyTranslation(old, tu, document.StateTranslated); err != nil {
				return err
			}
			m.recovered[old.ID()] = true
			m.res.IDChanged = append(m.res.IDChanged, old.ID()+" -> "+mu.ID())
			return nil
		}
	}

	tu, err := m.target.ImportUnit(mu, isDefault, isDefault || m.opts.UseSourceAsTarget, pos)
	if err != nil {
		return err
	}
	if !isDefault && m.opts.UseSourceAsTarget {
		decorate(tu, m.opts)
	}
	m.res.New = append(m.res.New, mu.ID())
	return nil
}

// copyTranslation moves a non-empty target of from onto to.
func copyTranslation(from, to *document.Unit, state document.State) error {
	if strings.TrimSpace(from.TargetContent()) == "" {
		return nil
	}
	tgt, err := from.TargetContentNormalized()
	if err != nil {
		return err
	}
	to.SetTarget(tgt)
	to.SetTargetState(state)
	return nil
}

// findRecoverable returns a target unit unknown to the master whose source
// matches mu's source.
func (m *merger) findRecoverable(mu *document.Unit) *document.Unit {
	src, err := mu.SourceContentNormalized()
	if err != nil {
		return nil
	}
	for _, tu := range m.target.Units() {
		if m.recovered[tu.ID()] || m.master.UnitWithID(tu.ID()) != nil {
			continue
		}
		tsrc, err := tu.SourceContentNormalized()
		if err != nil {
			continue
		}
		if src.NearlyEqual(tsrc) {
			return tu
		}
	}
	return nil
}

func (m *merger) update(mu, tu *document.Unit) error {
	id := mu.ID()
	msrc, err := mu.SourceContentNormalized()
	if err != nil {
		return err
	}
	changed, err := sourceChanged(msrc, tu)
	if err != nil {
		return err
	}
	if changed {
		tu.SetSource(msrc)
		if m.opts.isDefaultLanguage() {
			tu.SetTarget(msrc)
			tu.SetTargetState(document.StateFinal)
		} else if s := tu.TargetState(); s == document.StateFinal || s == document.StateSignedOff {
			tu.SetTargetState(document.StateTranslated)
		}
		tu.SetSourceReferences(mu.SourceReferences())
		m.res.SourceChanged = append(m.res.SourceChanged, id)
	} else if tu.SupportsSetSourceReferences() && !slices.Equal(tu.SourceReferences(), mu.SourceReferences()) {
		tu.SetSourceReferences(mu.SourceReferences())
		m.res.ReferencesChanged = append(m.res.ReferencesChanged, id)
	}

	descChanged := false
	if tu.SupportsSetDescription() && tu.Description() != mu.Description() {
		tu.SetDescription(mu.Description())
		descChanged = true
	}
	if tu.SupportsSetMeaning() && tu.Meaning() != mu.Meaning() {
		tu.SetMeaning(mu.Meaning())
		descChanged = true
	}
	if descChanged {
		m.res.DescriptionChanged = append(m.res.DescriptionChanged, id)
	}
	return nil
}

// sourceChanged compares the master source with the one stored in tu.
// Formats without stored sources never report a change.
func sourceChanged(msrc *message.Message, tu *document.Unit) (bool, error) {
	if tu.SourceContent() == "" && msrc.IsEmpty() {
		return false, nil
	}
	tsrc, err := tu.SourceContentNormalized()
	if err != nil {
		return false, err
	}
	return !msrc.NearlyEqual(tsrc), nil
}

func (m *merger) prune() error {
	var unused []string
	m.target.ForEachUnit(func(u *document.Unit) {
		if m.master.UnitWithID(u.ID()) == nil {
			unused = append(unused, u.ID())
		}
	})
	if !m.opts.RemoveUnusedIDs {
		m.res.Unused = unused
		return nil
	}
	for _, id := range unused {
		if err := m.target.RemoveUnitWithID(id); err != nil {
			return err
		}
		m.res.Removed = append(m.res.Removed, id)
	}
	return nil
}
