// Package translation owns the per-result translation state machine.
//
// An Orchestrator is created when a result view opens and discarded when it
// closes. Each language selection is answered from the original explanation, the
// cache, or an asynchronous backend call. Overlapping calls are resolved by a
// monotonically increasing request id: only the completion whose id matches the
// latest selection may change what the viewer sees.
package translation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"ResultViewer/internal/domain"
	"ResultViewer/internal/i18n"
	"ResultViewer/internal/ports"
)

// DefaultContentOnly lists languages that translate the explanation but keep the
// interface chrome in its current locale.
var DefaultContentOnly = []string{"kn"}

// LanguageSet is a set of normalized language codes.
type LanguageSet map[string]struct{}

// NewContentOnlySet normalizes langs into a set. A nil slice selects
// DefaultContentOnly; an empty one disables content-only handling.
func NewContentOnlySet(langs []string) LanguageSet {
	if langs == nil {
		langs = DefaultContentOnly
	}
	set := make(LanguageSet, len(langs))
	for _, lang := range langs {
		if norm := i18n.Normalize(lang); norm != "" {
			set[norm] = struct{}{}
		}
	}
	return set
}

// Has reports whether lang, in any accepted spelling, is in the set.
func (s LanguageSet) Has(lang string) bool {
	_, ok := s[i18n.Normalize(lang)]
	return ok
}

// Options tunes an Orchestrator.
type Options struct {
	// ContentOnly overrides DefaultContentOnly when non-nil.
	ContentOnly LanguageSet
	Logger      *slog.Logger
}

// Orchestrator reacts to language selections for one rendered result.
type Orchestrator struct {
	translator  ports.Translator
	contentOnly LanguageSet
	logger      *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	mu                  sync.Mutex
	closed              bool
	initialized         bool
	originalLanguage    string
	originalExplanation string
	cache               *Cache
	selected            string
	uiLocale            string
	pending             uint64
	status              domain.TranslationStatus
	text                string
	errMsg              string
	subscribers         map[chan domain.Projection]struct{}
}

// NewOrchestrator builds an idle orchestrator. Translations run under ctx;
// cancelling it (or calling Close) aborts outstanding backend calls.
func NewOrchestrator(ctx context.Context, translator ports.Translator, opts Options) *Orchestrator {
	if ctx == nil {
		ctx = context.Background()
	}
	contentOnly := opts.ContentOnly
	if contentOnly == nil {
		contentOnly = NewContentOnlySet(nil)
	}

	runCtx, cancel := context.WithCancel(ctx)
	return &Orchestrator{
		translator:  translator,
		contentOnly: contentOnly,
		logger:      opts.Logger,
		ctx:         runCtx,
		cancel:      cancel,
		cache:       NewCache(),
		status:      domain.StatusIdle,
		subscribers: map[chan domain.Projection]struct{}{},
	}
}

// Initialize captures the original language and explanation of raw and seeds the
// machine into Ready with the original text. Calling it again starts over and
// invalidates any translation still in flight.
func (o *Orchestrator) Initialize(raw domain.RawAnalysisResult, viewer domain.Viewer) domain.Projection {
	o.mu.Lock()
	defer o.mu.Unlock()

	original := i18n.Normalize(raw.Language)
	if original == "" {
		original = domain.DefaultLanguage
	}
	explanation := raw.Explanation

	o.initialized = true
	o.originalLanguage = original
	o.originalExplanation = explanation
	o.cache = NewCache()
	o.cache.Put(original, explanation)
	o.pending++

	o.selected = original
	o.uiLocale = original
	if raw.Language == "" {
		if locale := i18n.Normalize(viewer.UILocale); locale != "" {
			o.uiLocale = locale
		}
	}
	o.status = domain.StatusReady
	o.text = explanation
	o.errMsg = ""

	o.debug("initialized", "viewer", viewer.ID, "original_language", original, "ui_locale", o.uiLocale)
	return o.publishLocked()
}

// SelectLanguage switches the displayed explanation to lang. It answers
// synchronously from the original text or the cache when it can, and otherwise
// starts a backend translation and reports Translating. Values carried by ctx
// reach the backend call; its cancellation does not, since the call outlives the
// request that triggered it.
func (o *Orchestrator) SelectLanguage(ctx context.Context, lang string) domain.Projection {
	lang = i18n.Normalize(lang)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || !o.initialized || lang == "" {
		return o.projectionLocked()
	}

	o.selected = lang
	contentOnly := o.isContentOnlyLocked(lang)
	if !contentOnly {
		o.uiLocale = lang
	}
	// Every selection supersedes whatever is still in flight.
	o.pending++
	o.errMsg = ""

	if lang == o.originalLanguage && !contentOnly {
		o.status = domain.StatusReady
		o.text = o.originalExplanation
		o.debug("original language selected", "language", lang)
		return o.publishLocked()
	}

	if cached, ok := o.cache.Get(lang); ok {
		o.status = domain.StatusReady
		o.text = cached
		o.debug("translation cache hit", "language", lang)
		return o.publishLocked()
	}

	if o.originalExplanation == "" {
		o.cache.Put(lang, "")
		o.status = domain.StatusReady
		o.text = ""
		return o.publishLocked()
	}

	rid := o.pending
	o.status = domain.StatusTranslating
	o.debug("translation requested", "language", lang, "request_id", rid)
	o.startLocked(ctx, rid, lang, o.originalExplanation, o.cache)
	return o.publishLocked()
}

func (o *Orchestrator) startLocked(ctx context.Context, rid uint64, lang, text string, cache *Cache) {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(o.ctx, cancel)

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		defer cancel()
		defer stop()

		var (
			translated string
			err        error
		)
		if o.translator == nil {
			err = &domain.TranslationError{Language: lang, Message: "translator is not configured"}
		} else {
			translated, err = o.translator.Translate(callCtx, text, lang)
		}
		if err == nil && translated == "" {
			err = &domain.TranslationError{Language: lang, Message: "backend returned an empty translation"}
		}
		o.complete(rid, lang, translated, err, cache)
	}()
}

func (o *Orchestrator) complete(rid uint64, lang, translated string, err error, cache *Cache) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	// Successful results are worth keeping even when superseded.
	if err == nil {
		cache.Put(lang, translated)
	}

	if rid != o.pending {
		o.debug("stale translation discarded", "language", lang, "request_id", rid, "current_request_id", o.pending)
		return
	}

	if err != nil {
		o.status = domain.StatusFailed
		o.text = o.fallbackTextLocked()
		o.errMsg = failureMessage(err)
		if o.logger != nil {
			o.logger.Warn("translation failed", "language", lang, "request_id", rid, "error", err)
		}
		o.publishLocked()
		return
	}

	o.status = domain.StatusReady
	o.text = translated
	o.debug("translation committed", "language", lang, "request_id", rid)
	o.publishLocked()
}

func (o *Orchestrator) fallbackTextLocked() string {
	if text, ok := o.cache.Get(o.originalLanguage); ok && text != "" {
		return text
	}
	return o.originalExplanation
}

func failureMessage(err error) string {
	var terr *domain.TranslationError
	if errors.As(err, &terr) && terr.Message != "" {
		return terr.Message
	}
	return err.Error()
}

// Current returns the latest projection.
func (o *Orchestrator) Current() domain.Projection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.projectionLocked()
}

// Subscribe streams projections, starting with the current one. A slow reader
// skips intermediate frames but always receives the newest. The returned func
// unsubscribes and closes the channel.
func (o *Orchestrator) Subscribe() (<-chan domain.Projection, func()) {
	ch := make(chan domain.Projection, 1)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	o.subscribers[ch] = struct{}{}
	ch <- o.projectionLocked()
	o.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if _, ok := o.subscribers[ch]; ok {
				delete(o.subscribers, ch)
				close(ch)
			}
		})
	}
}

// IsContentOnly reports whether selecting lang leaves the interface locale alone.
func (o *Orchestrator) IsContentOnly(lang string) bool {
	return o.contentOnly.Has(lang)
}

func (o *Orchestrator) isContentOnlyLocked(lang string) bool {
	_, ok := o.contentOnly[lang]
	return ok
}

// CachedLanguages lists the languages with a cached explanation.
func (o *Orchestrator) CachedLanguages() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache.Languages()
}

// Wait blocks until every started translation has completed.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

// Close discards the view: outstanding calls are cancelled, subscribers are
// released and later completions are ignored.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	for ch := range o.subscribers {
		delete(o.subscribers, ch)
		close(ch)
	}
	o.mu.Unlock()

	o.cancel()
}

func (o *Orchestrator) projectionLocked() domain.Projection {
	return domain.Projection{
		Status:           o.status,
		Text:             o.text,
		SelectedLanguage: o.selected,
		OriginalLanguage: o.originalLanguage,
		UILocale:         o.uiLocale,
		ContentOnly:      o.isContentOnlyLocked(o.selected),
		RequestID:        o.pending,
		Error:            o.errMsg,
	}
}

func (o *Orchestrator) publishLocked() domain.Projection {
	p := o.projectionLocked()
	for ch := range o.subscribers {
		select {
		case ch <- p:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- p:
			default:
			}
		}
	}
	return p
}

func (o *Orchestrator) debug(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}
