package domain

// TranslationStatus enumerates orchestrator states for the displayed explanation.
type TranslationStatus string

const (
	StatusIdle        TranslationStatus = "idle"
	StatusTranslating TranslationStatus = "translating"
	StatusReady       TranslationStatus = "ready"
	StatusFailed      TranslationStatus = "failed"
)

// Projection is the read-only snapshot of translation state exposed to renderers.
type Projection struct {
	Status           TranslationStatus `json:"status"`
	Text             string            `json:"text"`
	SelectedLanguage string            `json:"selected_language"`
	OriginalLanguage string            `json:"original_language"`
	UILocale         string            `json:"ui_locale"`
	ContentOnly      bool              `json:"content_only"`
	RequestID        uint64            `json:"request_id"`
	Error            string            `json:"error,omitempty"`
}

// Loading reports whether a translation for the current selection is in flight.
func (p Projection) Loading() bool {
	return p.Status == StatusTranslating
}

// Viewer carries per-viewer context that used to live in ambient session storage.
type Viewer struct {
	ID       string
	UILocale string
}
