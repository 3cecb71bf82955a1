// Package translate sends untranslated units of a language document to a
// machine translation provider and applies the validated results.
//
// Plain messages are translated as display strings. ICU messages are split
// into their categories, translated through the same batching path and
// recombined. A translation is only applied when it passes structural
// validation against its source without errors or warnings.
package translate

import (
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/minios-linux/xliffmerge/document"
	"github.com/minios-linux/xliffmerge/message"
)

// AutoTranslator drives a Provider for whole documents.
type AutoTranslator struct {
	Provider Provider
	// Timeout bounds each provider call including the provider's own
	// retries. Zero means the provider's CallTimeout, or 60 seconds.
	Timeout time.Duration
	Log     logrus.FieldLogger
}

// NewAutoTranslator creates an AutoTranslator that logs to log.
func NewAutoTranslator(p Provider, log logrus.FieldLogger) *AutoTranslator {
	return &AutoTranslator{Provider: p, Log: log}
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (a *AutoTranslator) log() logrus.FieldLogger {
	if a.Log == nil {
		return discard
	}
	return a.Log
}

// CallTimeouter is implemented by providers that retry internally and
// know how long a call with all its attempts may take.
type CallTimeouter interface {
	CallTimeout() time.Duration
}

func (a *AutoTranslator) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	if ct, ok := a.Provider.(CallTimeouter); ok {
		if d := ct.CallTimeout(); d > 0 {
			return d
		}
	}
	return 60 * time.Second
}

func (a *AutoTranslator) batchSize() int {
	if n := a.Provider.MaxSegments(); n > 0 && n < MaxSegments {
		return n
	}
	return MaxSegments
}

// candidate is a unit waiting for translation with its parsed source.
type candidate struct {
	unit *document.Unit
	src  *message.Message
}

// TranslateDocument translates every NEW unit of doc from one language to
// another. Provider failures are reported in the summary, never returned.
func (a *AutoTranslator) TranslateDocument(ctx context.Context, doc *document.Document, from, to string) Summary {
	var plain, icu []candidate
	var broken Summary
	for _, u := range doc.Units() {
		if u.TargetState() != document.StateNew {
			continue
		}
		src, err := u.SourceContentNormalized()
		if err != nil {
			a.log().WithField("unit", u.ID()).Warnf("cannot read source: %v", err)
			broken.Total++
			broken.Failed++
			continue
		}
		if src.IsICU() {
			icu = append(icu, candidate{u, src})
		} else {
			plain = append(plain, candidate{u, src})
		}
	}
	from, to = BaseLanguage(from), BaseLanguage(to)
	summary := broken.
		Merge(a.translatePlain(ctx, plain, from, to)).
		Merge(a.translateICU(ctx, icu, from, to))
	a.log().WithFields(logrus.Fields{"lang": to, "provider": a.Provider.Name()}).Debugf("auto-translate: %s", summary)
	return summary
}

func (a *AutoTranslator) translatePlain(ctx context.Context, units []candidate, from, to string) Summary {
	var s Summary
	var send []candidate
	for _, c := range units {
		s.Total++
		if c.src.IsEmpty() {
			s.Ignored++
			continue
		}
		send = append(send, c)
	}
	if len(send) == 0 {
		return s
	}
	texts := make([]string, len(send))
	for i, c := range send {
		texts[i] = c.src.String()
	}
	translations, err := a.translateTexts(ctx, texts, from, to)
	if err != nil {
		a.log().WithField("lang", to).Errorf("auto-translate failed: %v", err)
		s.Failed += len(send)
		s.Err = err
		return s
	}
	for i, c := range send {
		msg, err := c.src.Translate(translations[i])
		if a.accept(c, msg, err) {
			s.Success++
		} else {
			s.Failed++
		}
	}
	return s
}

// icuText addresses one category text of an ICU candidate.
type icuText struct {
	unit     int
	category string
}

func (a *AutoTranslator) translateICU(ctx context.Context, units []candidate, from, to string) Summary {
	var s Summary
	var send []candidate
	var refs []icuText
	var texts []string
	for _, c := range units {
		s.Total++
		if c.src.HasNestedICU() {
			a.log().WithField("unit", c.unit.ID()).Debug("nested ICU message not supported, ignored")
			s.Ignored++
			continue
		}
		idx := len(send)
		send = append(send, c)
		for _, cat := range c.src.ICUCategoryTexts() {
			refs = append(refs, icuText{idx, cat.Name})
			texts = append(texts, cat.Text)
		}
	}
	if len(send) == 0 {
		return s
	}
	translations, err := a.translateTexts(ctx, texts, from, to)
	if err != nil {
		a.log().WithField("lang", to).Errorf("auto-translate of ICU messages failed: %v", err)
		s.Failed += len(send)
		s.Err = err
		return s
	}
	perUnit := make([]map[string]string, len(send))
	for i, ref := range refs {
		if perUnit[ref.unit] == nil {
			perUnit[ref.unit] = map[string]string{}
		}
		perUnit[ref.unit][ref.category] = translations[i]
	}
	for i, c := range send {
		msg, err := c.src.TranslateICU(perUnit[i])
		if a.accept(c, msg, err) {
			s.Success++
		} else {
			s.Failed++
		}
	}
	return s
}

// accept applies msg to the unit if it translated cleanly.
func (a *AutoTranslator) accept(c candidate, msg *message.Message, err error) bool {
	log := a.log().WithField("unit", c.unit.ID())
	if err != nil {
		log.Warnf("translation rejected: %v", err)
		return false
	}
	if issues := append(msg.Validate(), msg.ValidateWarnings()...); len(issues) > 0 {
		log.Warnf("translation %q rejected: %v", msg.String(), issues)
		return false
	}
	c.unit.Translate(msg)
	return true
}

// translateTexts sends texts in batches and returns the unescaped
// translations in input order.
func (a *AutoTranslator) translateTexts(ctx context.Context, texts []string, from, to string) ([]string, error) {
	out := make([]string, 0, len(texts))
	for _, batch := range splitStrings(texts, a.batchSize()) {
		res, err := a.call(ctx, Request{Texts: batch, SourceLang: from, TargetLang: to})
		if err != nil {
			return nil, err
		}
		if len(res.Translations) != len(batch) {
			return nil, &ProviderError{
				Provider: a.Provider.Name(),
				Code:     CodeService,
				Err:      fmt.Errorf("got %d translations for %d texts", len(res.Translations), len(batch)),
			}
		}
		for _, t := range res.Translations {
			out = append(out, html.UnescapeString(t))
		}
	}
	return out, nil
}

func (a *AutoTranslator) call(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()
	a.log().WithFields(logrus.Fields{"lang": req.TargetLang, "segments": len(req.Texts)}).Debug("calling translation provider")
	return a.Provider.Translate(ctx, req)
}

// splitStrings divides items into chunks of the given size.
func splitStrings(items []string, chunkSize int) [][]string {
	if chunkSize <= 0 || chunkSize >= len(items) {
		return [][]string{items}
	}
	var chunks [][]string
	for i := 0; i < len(items); i += chunkSize {
		end := i + chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}
