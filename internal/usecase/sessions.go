package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ResultViewer/internal/domain"
	"ResultViewer/internal/i18n"
	"ResultViewer/internal/normalizer"
	"ResultViewer/internal/ports"
	"ResultViewer/internal/translation"
	"ResultViewer/internal/view"
)

// ErrViewNotFound is returned for unknown or already discarded views.
var ErrViewNotFound = errors.New("view not found")

// ErrEmptyInput is returned when there is nothing to analyze.
var ErrEmptyInput = errors.New("input text is empty")

// SessionDeps wires driven adapters into the view sessions.
type SessionDeps struct {
	Results     ports.ResultRepository
	Analyzer    ports.Analyzer
	Translator  ports.Translator
	Catalog     *i18n.Catalog
	MaxRating   float64
	ContentOnly []string
	Logger      *slog.Logger
	Now         func() time.Time
	NewID       func() string
}

// View is one opened result page with its own translation state.
type View struct {
	ID       string
	ResultID string
	Viewer   domain.Viewer
	Model    domain.DisplayModel

	orchestrator *translation.Orchestrator
	openedAt     time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Orchestrator exposes the view's translation state machine.
func (v *View) Orchestrator() *translation.Orchestrator {
	return v.orchestrator
}

func (v *View) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *View) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

// Sessions owns all open views. Each view gets a dedicated orchestrator that
// is closed together with the view.
type Sessions struct {
	results     ports.ResultRepository
	analyzer    ports.Analyzer
	translator  ports.Translator
	catalog     *i18n.Catalog
	maxRating   float64
	contentOnly translation.LanguageSet
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	views map[string]*View
}

// NewSessions constructs the session registry.
func NewSessions(deps SessionDeps) *Sessions {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = i18n.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sessions{
		results:     deps.Results,
		analyzer:    deps.Analyzer,
		translator:  deps.Translator,
		catalog:     catalog,
		maxRating:   deps.MaxRating,
		contentOnly: translation.NewContentOnlySet(deps.ContentOnly),
		logger:      deps.Logger,
		now:         now,
		newID:       newID,
		ctx:         ctx,
		cancel:      cancel,
		views:       map[string]*View{},
	}
}

// CreateResult stores a raw payload and returns its new id.
func (s *Sessions) CreateResult(ctx context.Context, raw domain.RawAnalysisResult) (string, error) {
	if s.results == nil {
		return "", fmt.Errorf("result repository is not configured")
	}

	id := s.newID()
	if err := s.results.SaveResult(ctx, id, raw); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	s.debug("result stored", "result", id, "label", raw.Label)
	return id, nil
}

// AnalyzeText asks the backend for a verdict and stores it.
func (s *Sessions) AnalyzeText(ctx context.Context, text string) (string, domain.RawAnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.RawAnalysisResult{}, ErrEmptyInput
	}
	if s.analyzer == nil {
		return "", domain.RawAnalysisResult{}, fmt.Errorf("analyzer is not configured")
	}

	raw, err := s.analyzer.AnalyzeText(ctx, text)
	if err != nil {
		return "", domain.RawAnalysisResult{}, err
	}
	if raw.Input == nil {
		raw.Input = text
	}

	id, err := s.CreateResult(ctx, raw)
	if err != nil {
		return "", domain.RawAnalysisResult{}, err
	}
	return id, raw, nil
}

// Open loads resultID, normalizes it and starts a translation session for viewer.
func (s *Sessions) Open(ctx context.Context, resultID string, viewer domain.Viewer) (*View, error) {
	if s.results == nil {
		return nil, fmt.Errorf("result repository is not configured")
	}

	raw, err := s.results.LoadResult(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("load result %s: %w", resultID, err)
	}

	orch := translation.NewOrchestrator(s.ctx, s.translator, translation.Options{
		ContentOnly: s.contentOnly,
		Logger:      s.logger,
	})

	now := s.now()
	v := &View{
		ID:           s.newID(),
		ResultID:     resultID,
		Viewer:       viewer,
		Model:        normalizer.Normalize(raw, s.maxRating),
		orchestrator: orch,
		openedAt:     now,
		lastSeen:     now,
	}
	if v.Viewer.ID == "" {
		v.Viewer.ID = v.ID
	}
	orch.Initialize(raw, v.Viewer)

	s.mu.Lock()
	s.views[v.ID] = v
	s.mu.Unlock()

	s.debug("view opened", "view", v.ID, "result", resultID, "ui_locale", viewer.UILocale)
	return v, nil
}

// Get returns an open view.
func (s *Sessions) Get(viewID string) (*View, error) {
	s.mu.RLock()
	v, ok := s.views[viewID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrViewNotFound
	}
	v.touch(s.now())
	return v, nil
}

// Render binds the view's current projection.
func (s *Sessions) Render(viewID string) (view.Render, error) {
	v, err := s.Get(viewID)
	if err != nil {
		return view.Render{}, err
	}
	return s.Bind(v, v.orchestrator.Current()), nil
}

// Bind renders p against v's display model. The timestamp row shows when the
// view was opened.
func (s *Sessions) Bind(v *View, p domain.Projection) view.Render {
	openedAt := v.openedAt
	return view.Bind(v.Model, p, view.Options{
		Catalog: s.catalog,
		Now:     func() time.Time { return openedAt },
	})
}

// SelectLanguage forwards a picker selection to the view's orchestrator.
// Languages outside the registry are rejected before they reach it.
func (s *Sessions) SelectLanguage(ctx context.Context, viewID, lang string) (view.Render, error) {
	v, err := s.Get(viewID)
	if err != nil {
		return view.Render{}, err
	}
	if !i18n.IsSupported(lang) {
		return view.Render{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, lang)
	}

	p := v.orchestrator.SelectLanguage(ctx, lang)
	return s.Bind(v, p), nil
}

// Subscribe streams renders for every projection change of a view.
func (s *Sessions) Subscribe(viewID string) (<-chan view.Render, func(), error) {
	v, err := s.Get(viewID)
	if err != nil {
		return nil, nil, err
	}

	projections, unsubscribe := v.orchestrator.Subscribe()
	out := make(chan view.Render, 1)
	go func() {
		defer close(out)
		for p := range projections {
			r := s.Bind(v, p)
			select {
			case out <- r:
			default:
				// Reader is behind; replace the stale render.
				select {
				case <-out:
				default:
				}
				out <- r
			}
		}
	}()
	return out, unsubscribe, nil
}

// Close discards a view and cancels its outstanding translations.
func (s *Sessions) Close(viewID string) error {
	s.mu.Lock()
	v, ok := s.views[viewID]
	delete(s.views, viewID)
	s.mu.Unlock()
	if !ok {
		return ErrViewNotFound
	}

	v.orchestrator.Close()
	s.debug("view closed", "view", viewID, "open_for", s.now().Sub(v.openedAt).String())
	return nil
}

// Sweep closes views that have not been touched for idle and returns their ids.
func (s *Sessions) Sweep(now time.Time, idle time.Duration) []string {
	if idle <= 0 {
		return nil
	}

	var expired []string
	s.mu.RLock()
	for id, v := range s.views {
		if now.Sub(v.idleSince()) >= idle {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()
	sort.Strings(expired)

	for _, id := range expired {
		_ = s.Close(id)
	}
	if len(expired) > 0 {
		s.debug("idle views swept", "count", len(expired))
	}
	return expired
}

// IsContentOnly reports whether selecting lang keeps the interface locale.
func (s *Sessions) IsContentOnly(lang string) bool {
	return s.contentOnly.Has(lang)
}

// Len reports the number of open views.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// Shutdown closes every view.
func (s *Sessions) Shutdown() {
	s.mu.Lock()
	views := s.views
	s.views = map[string]*View{}
	s.mu.Unlock()

	for _, v := range views {
		v.orchestrator.Close()
	}
	s.cancel()
}

func (s *Sessions) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
