package translation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"ResultViewer/internal/domain"
	"ResultViewer/internal/ports"
)

const original = "The claim is false.\nConfidence Rating: 8"

type reply struct {
	text string
	err  error
}

type pendingCall struct {
	lang  string
	text  string
	reply chan reply
}

// blockingTranslator parks every call until the test answers it.
type blockingTranslator struct {
	calls chan *pendingCall
}

func newBlockingTranslator() *blockingTranslator {
	return &blockingTranslator{calls: make(chan *pendingCall, 16)}
}

func (b *blockingTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	call := &pendingCall{lang: lang, text: text, reply: make(chan reply, 1)}
	b.calls <- call
	select {
	case r := <-call.reply:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *blockingTranslator) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-b.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for translate call")
	}
	return nil
}

func (b *blockingTranslator) assertNoCall(t *testing.T) {
	t.Helper()
	select {
	case call := <-b.calls:
		t.Fatalf("unexpected translate call for %s", call.lang)
	default:
	}
}

type translatorFunc func(ctx context.Context, text, lang string) (string, error)

func (f translatorFunc) Translate(ctx context.Context, text, lang string) (string, error) {
	return f(ctx, text, lang)
}

func newOrchestrator(tr ports.Translator) *Orchestrator {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o := NewOrchestrator(context.Background(), tr, Options{Logger: logger})
	o.Initialize(domain.RawAnalysisResult{
		Label:       domain.LabelFake,
		Explanation: original,
		Language:    "en",
	}, domain.Viewer{ID: "viewer-1", UILocale: "en"})
	return o
}

func waitForStatus(t *testing.T, o *Orchestrator, want domain.TranslationStatus) domain.Projection {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p := o.Current(); p.Status == want {
			return p
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %s, last %+v", want, o.Current())
	return domain.Projection{}
}

func TestInitializeSeedsReady(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(newBlockingTranslator())
	defer o.Close()

	p := o.Current()
	if p.Status != domain.StatusReady {
		t.Fatalf("expected ready after initialize, got %s", p.Status)
	}
	if p.Text != original {
		t.Fatalf("expected original text, got %q", p.Text)
	}
	if p.OriginalLanguage != "en" || p.SelectedLanguage != "en" || p.UILocale != "en" {
		t.Fatalf("unexpected languages: %+v", p)
	}
	if got := o.CachedLanguages(); !reflect.DeepEqual(got, []string{"en"}) {
		t.Fatalf("expected cache seeded with original language, got %v", got)
	}
}

func TestInitializeDefaultsLanguageAndKeepsViewerLocale(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(context.Background(), newBlockingTranslator(), Options{})
	defer o.Close()

	if p := o.Current(); p.Status != domain.StatusIdle {
		t.Fatalf("expected idle before initialize, got %s", p.Status)
	}

	p := o.Initialize(domain.RawAnalysisResult{Explanation: "text"}, domain.Viewer{UILocale: "de-DE"})
	if p.OriginalLanguage != domain.DefaultLanguage {
		t.Fatalf("expected default original language, got %s", p.OriginalLanguage)
	}
	if p.UILocale != "de" {
		t.Fatalf("expected viewer locale to be kept, got %s", p.UILocale)
	}
}

func TestSelectLanguageBeforeInitializeIsIgnored(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := NewOrchestrator(context.Background(), tr, Options{})
	defer o.Close()

	p := o.SelectLanguage(context.Background(), "fr")
	if p.Status != domain.StatusIdle {
		t.Fatalf("expected idle, got %s", p.Status)
	}
	tr.assertNoCall(t)
}

func TestSelectSameLanguageTwiceUsesCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	tr := translatorFunc(func(_ context.Context, text, lang string) (string, error) {
		calls.Add(1)
		return "[" + lang + "] " + text, nil
	})
	o := newOrchestrator(tr)
	defer o.Close()

	p := o.SelectLanguage(context.Background(), "fr")
	if p.Status != domain.StatusTranslating {
		t.Fatalf("expected translating, got %s", p.Status)
	}
	o.Wait()

	p = o.SelectLanguage(context.Background(), "fr")
	if p.Status != domain.StatusReady {
		t.Fatalf("expected ready from cache, got %s", p.Status)
	}
	if p.Text != "[fr] "+original {
		t.Fatalf("unexpected cached text: %q", p.Text)
	}
	o.Wait()
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one backend call, got %d", n)
	}
}

func TestLastSelectionWins(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := newOrchestrator(tr)
	defer o.Close()

	o.SelectLanguage(context.Background(), "fr")
	fr := tr.next(t)
	o.SelectLanguage(context.Background(), "de")
	de := tr.next(t)

	if fr.lang != "fr" || de.lang != "de" {
		t.Fatalf("unexpected call order: %s, %s", fr.lang, de.lang)
	}
	if fr.text != original {
		t.Fatalf("translation must start from the original explanation, got %q", fr.text)
	}

	de.reply <- reply{text: "Die Behauptung ist falsch."}
	waitForStatus(t, o, domain.StatusReady)

	fr.reply <- reply{text: "L'affirmation est fausse."}
	o.Wait()

	p := o.Current()
	if p.Status != domain.StatusReady {
		t.Fatalf("expected ready, got %s", p.Status)
	}
	if p.Text != "Die Behauptung ist falsch." {
		t.Fatalf("stale response overwrote newer selection: %q", p.Text)
	}
	if p.SelectedLanguage != "de" {
		t.Fatalf("unexpected selection: %s", p.SelectedLanguage)
	}
	if got := o.CachedLanguages(); !reflect.DeepEqual(got, []string{"de", "en", "fr"}) {
		t.Fatalf("expected both translations cached, got %v", got)
	}

	p = o.SelectLanguage(context.Background(), "fr")
	if p.Status != domain.StatusReady || p.Text != "L'affirmation est fausse." {
		t.Fatalf("expected cached fr translation, got %+v", p)
	}
	tr.assertNoCall(t)
}

func TestReturningToOriginalSupersedesInFlightRequest(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := newOrchestrator(tr)
	defer o.Close()

	o.SelectLanguage(context.Background(), "fr")
	fr := tr.next(t)

	p := o.SelectLanguage(context.Background(), "en")
	if p.Status != domain.StatusReady || p.Text != original {
		t.Fatalf("expected original text immediately, got %+v", p)
	}

	fr.reply <- reply{text: "L'affirmation est fausse."}
	o.Wait()

	if p := o.Current(); p.Text != original || p.SelectedLanguage != "en" {
		t.Fatalf("stale fr response leaked into view: %+v", p)
	}
}

func TestKannadaTranslatesContentOnly(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := newOrchestrator(tr)
	defer o.Close()

	if !o.IsContentOnly("kn") || o.IsContentOnly("fr") {
		t.Fatalf("unexpected content-only classification")
	}

	p := o.SelectLanguage(context.Background(), "kn")
	if p.Status != domain.StatusTranslating {
		t.Fatalf("expected translating, got %s", p.Status)
	}
	if !p.ContentOnly || p.UILocale != "en" {
		t.Fatalf("kn must not change the interface locale: %+v", p)
	}

	call := tr.next(t)
	if call.lang != "kn" {
		t.Fatalf("unexpected target language %s", call.lang)
	}
	call.reply <- reply{text: "ಹೇಳಿಕೆ ಸುಳ್ಳು."}
	o.Wait()

	if p := o.Current(); p.Text != "ಹೇಳಿಕೆ ಸುಳ್ಳು." || p.UILocale != "en" {
		t.Fatalf("unexpected projection after kn translation: %+v", p)
	}

	p = o.SelectLanguage(context.Background(), "en")
	if p.Status != domain.StatusReady || p.Text != original {
		t.Fatalf("expected original restored, got %+v", p)
	}
	tr.assertNoCall(t)
}

func TestContentOnlyOriginalLanguageUsesSeededCache(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := NewOrchestrator(context.Background(), tr, Options{})
	defer o.Close()
	o.Initialize(domain.RawAnalysisResult{Explanation: "ಮೂಲ", Language: "kn"}, domain.Viewer{})

	o.SelectLanguage(context.Background(), "fr")
	call := tr.next(t)
	call.reply <- reply{text: "origine"}
	o.Wait()

	p := o.SelectLanguage(context.Background(), "kn")
	if p.Status != domain.StatusReady || p.Text != "ಮೂಲ" {
		t.Fatalf("expected seeded original from cache, got %+v", p)
	}
	if p.UILocale != "fr" {
		t.Fatalf("content-only selection must keep the fr interface, got %s", p.UILocale)
	}
	tr.assertNoCall(t)
}

func TestWholeUILanguageSwitchesLocale(t *testing.T) {
	t.Parallel()

	tr := translatorFunc(func(_ context.Context, _, lang string) (string, error) {
		return "texte", nil
	})
	o := newOrchestrator(tr)
	defer o.Close()

	p := o.SelectLanguage(context.Background(), "FR")
	if p.UILocale != "fr" || p.SelectedLanguage != "fr" || p.ContentOnly {
		t.Fatalf("unexpected projection: %+v", p)
	}
	o.Wait()
}

func TestFailureFallsBackToOriginal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	tr := translatorFunc(func(_ context.Context, _, lang string) (string, error) {
		if calls.Add(1) == 1 {
			return "", &domain.TranslationError{Language: lang, Message: "Translation failed: 500"}
		}
		return "Die Behauptung ist falsch.", nil
	})
	o := newOrchestrator(tr)
	defer o.Close()

	o.SelectLanguage(context.Background(), "de")
	o.Wait()

	p := o.Current()
	if p.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", p.Status)
	}
	if p.Text != original {
		t.Fatalf("expected original fallback, got %q", p.Text)
	}
	if p.Error != "Translation failed: 500" {
		t.Fatalf("unexpected error message: %q", p.Error)
	}
	if got := o.CachedLanguages(); !reflect.DeepEqual(got, []string{"en"}) {
		t.Fatalf("failures must not be cached, got %v", got)
	}

	p = o.SelectLanguage(context.Background(), "de")
	if p.Status != domain.StatusTranslating {
		t.Fatalf("expected retry, got %s", p.Status)
	}
	o.Wait()

	p = o.Current()
	if p.Status != domain.StatusReady || p.Text != "Die Behauptung ist falsch." || p.Error != "" {
		t.Fatalf("unexpected projection after retry: %+v", p)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("expected two calls, got %d", n)
	}
}

func TestEmptyTranslationCountsAsFailure(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(translatorFunc(func(context.Context, string, string) (string, error) {
		return "", nil
	}))
	defer o.Close()

	o.SelectLanguage(context.Background(), "es")
	o.Wait()

	p := o.Current()
	if p.Status != domain.StatusFailed || p.Text != original {
		t.Fatalf("expected failure with original text, got %+v", p)
	}
}

func TestStaleFailureIsIgnored(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := newOrchestrator(tr)
	defer o.Close()

	o.SelectLanguage(context.Background(), "fr")
	fr := tr.next(t)
	o.SelectLanguage(context.Background(), "de")
	de := tr.next(t)

	fr.reply <- reply{err: errors.New("boom")}
	de.reply <- reply{text: "Die Behauptung ist falsch."}
	o.Wait()

	p := o.Current()
	if p.Status != domain.StatusReady || p.Text != "Die Behauptung ist falsch." {
		t.Fatalf("stale failure affected projection: %+v", p)
	}
}

func TestEmptyExplanationSkipsBackend(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := NewOrchestrator(context.Background(), tr, Options{})
	defer o.Close()
	o.Initialize(domain.RawAnalysisResult{Label: domain.LabelUnsure}, domain.Viewer{})

	p := o.SelectLanguage(context.Background(), "fr")
	if p.Status != domain.StatusReady || p.Text != "" {
		t.Fatalf("unexpected projection: %+v", p)
	}
	tr.assertNoCall(t)
}

func TestCustomContentOnlySet(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(context.Background(), newBlockingTranslator(), Options{ContentOnly: NewContentOnlySet([]string{"hi", "KN"})})
	defer o.Close()

	if !o.IsContentOnly("hi") || !o.IsContentOnly("kn") || o.IsContentOnly("en") {
		t.Fatalf("unexpected content-only set")
	}
}

func TestContentOnlySetNormalizesSpellings(t *testing.T) {
	t.Parallel()

	set := NewContentOnlySet([]string{"kn-IN", " TA ", ""})
	for _, lang := range []string{"kn", "KN", "kn-in", "ta"} {
		if !set.Has(lang) {
			t.Fatalf("expected %q in set", lang)
		}
	}
	if set.Has("fr") || set.Has("") {
		t.Fatalf("unexpected member in %v", set)
	}

	if !NewContentOnlySet(nil).Has("kn") {
		t.Fatalf("nil list must select the default set")
	}
	if NewContentOnlySet([]string{}).Has("kn") {
		t.Fatalf("empty list must disable content-only languages")
	}
}

func TestInitializeKeepsExplanationVerbatim(t *testing.T) {
	t.Parallel()

	explanation := "  Claim: 3<b and 5>4 is stated in the post.\nVerdict: <i>false</i> &amp; misleading\n"
	o := NewOrchestrator(context.Background(), newBlockingTranslator(), Options{})
	defer o.Close()

	p := o.Initialize(domain.RawAnalysisResult{Explanation: explanation, Language: "en"}, domain.Viewer{})
	if p.Text != explanation {
		t.Fatalf("explanation rewritten: %+v", p)
	}
}

func TestSubscribeStreamsTransitions(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := newOrchestrator(tr)

	frames, unsubscribe := o.Subscribe()
	defer unsubscribe()

	first := <-frames
	if first.Status != domain.StatusReady || first.Text != original {
		t.Fatalf("unexpected initial frame: %+v", first)
	}

	o.SelectLanguage(context.Background(), "it")
	if p := <-frames; p.Status != domain.StatusTranslating {
		t.Fatalf("expected translating frame, got %+v", p)
	}

	call := tr.next(t)
	call.reply <- reply{text: "L'affermazione è falsa."}

	select {
	case p := <-frames:
		if p.Status != domain.StatusReady || p.Text != "L'affermazione è falsa." {
			t.Fatalf("unexpected final frame: %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for ready frame")
	}

	o.Close()
	if _, ok := <-frames; ok {
		t.Fatalf("expected channel closed after Close")
	}
}

func TestCloseCancelsInFlightTranslation(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := newOrchestrator(tr)

	o.SelectLanguage(context.Background(), "ru")
	tr.next(t)

	o.Close()
	o.Wait()

	if p := o.Current(); p.Status != domain.StatusTranslating {
		t.Fatalf("closed orchestrator must ignore completions, got %s", p.Status)
	}

	p := o.SelectLanguage(context.Background(), "fr")
	if p.SelectedLanguage != "ru" {
		t.Fatalf("closed orchestrator must ignore selections, got %+v", p)
	}
}

func TestRequestContextCancellationDoesNotAbortTranslation(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := newOrchestrator(tr)
	defer o.Close()

	ctx, cancel := context.WithCancel(context.Background())
	o.SelectLanguage(ctx, "ja")
	cancel()

	call := tr.next(t)
	call.reply <- reply{text: "その主張は誤りです。"}
	o.Wait()

	if p := o.Current(); p.Status != domain.StatusReady || p.Text != "その主張は誤りです。" {
		t.Fatalf("unexpected projection: %+v", p)
	}
}

func TestReinitializeInvalidatesInFlight(t *testing.T) {
	t.Parallel()

	tr := newBlockingTranslator()
	o := newOrchestrator(tr)
	defer o.Close()

	o.SelectLanguage(context.Background(), "fr")
	call := tr.next(t)

	o.Initialize(domain.RawAnalysisResult{Explanation: "Another result", Language: "en"}, domain.Viewer{})
	call.reply <- reply{text: "ancien"}
	o.Wait()

	if p := o.Current(); p.Text != "Another result" {
		t.Fatalf("completion from previous result leaked: %+v", p)
	}
	if got := o.CachedLanguages(); !reflect.DeepEqual(got, []string{"en"}) {
		t.Fatalf("previous result's translation leaked into cache: %v", got)
	}
}
