// Package view turns a display model and the current translation projection into
// render-ready values for the UI shell.
package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"ResultViewer/internal/domain"
	"ResultViewer/internal/i18n"
	"ResultViewer/internal/normalizer"
)

const defaultTimeFormat = "2006-01-02 15:04:05"

// Confidence tones follow the bar colours of the result page.
const (
	TonePositive = "positive"
	ToneNeutral  = "neutral"
	ToneNegative = "negative"
)

// Options configures Bind. Zero values are usable.
type Options struct {
	Catalog    *i18n.Catalog
	Now        func() time.Time
	TimeFormat string
}

// ConfidenceBar is the rating meter.
type ConfidenceBar struct {
	Value      float64 `json:"value"`
	MaxRating  float64 `json:"max_rating"`
	Percentage float64 `json:"percentage"`
	Label      string  `json:"label"`
	Tone       string  `json:"tone"`
	Display    string  `json:"display"`
}

// MetadataRow is one line of the detection summary table.
type MetadataRow struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Negative bool   `json:"negative,omitempty"`
}

// Headings are the localized section titles.
type Headings struct {
	AnalysisResults     string `json:"analysis_results"`
	SelectLanguage      string `json:"select_language"`
	DetectionSummary    string `json:"detection_summary"`
	ConfidenceRating    string `json:"confidence_rating"`
	ConfidenceNote      string `json:"confidence_note"`
	DetailedExplanation string `json:"detailed_explanation"`
	KeyFindings         string `json:"key_findings"`
	OriginalInput       string `json:"original_input"`
}

// Render is everything the shell needs to draw one result.
type Render struct {
	Status               domain.TranslationStatus `json:"status"`
	SelectedLanguage     string                   `json:"selected_language"`
	UILocale             string                   `json:"ui_locale"`
	ContentOnly          bool                     `json:"content_only"`
	Headings             Headings                 `json:"headings"`
	ConfidenceBar        ConfidenceBar            `json:"confidence_bar"`
	ExplanationText      string                   `json:"explanation_text"`
	ExplanationIsLoading bool                     `json:"explanation_is_loading"`
	KeyFindings          []string                 `json:"key_findings"`
	MetadataRows         []MetadataRow            `json:"metadata_rows"`
	Notice               string                   `json:"notice,omitempty"`
	Input                string                   `json:"input"`
	Error                string                   `json:"error,omitempty"`
}

// Bind combines the immutable display model with the current projection.
func Bind(model domain.DisplayModel, p domain.Projection, opts Options) Render {
	cat := opts.Catalog
	if cat == nil {
		cat = i18n.Default()
	}
	locale := p.UILocale
	if locale == "" {
		locale = i18n.BaseLocale
	}
	t := func(key string, args ...any) string { return cat.T(locale, key, args...) }

	r := Render{
		Status:           p.Status,
		SelectedLanguage: p.SelectedLanguage,
		UILocale:         locale,
		ContentOnly:      p.ContentOnly,
		Headings: Headings{
			AnalysisResults:     t(i18n.KeyAnalysisResults),
			SelectLanguage:      t(i18n.KeySelectLanguage),
			DetectionSummary:    t(i18n.KeyDetectionSummary),
			ConfidenceRating:    t(i18n.KeyConfidenceRating),
			ConfidenceNote:      t(i18n.KeyConfidenceNote),
			DetailedExplanation: t(i18n.KeyDetailedExplanation),
			KeyFindings:         t(i18n.KeyKeyFindings),
			OriginalInput:       t(i18n.KeyOriginalInput),
		},
		ConfidenceBar:        NewConfidenceBar(model.Confidence, model.MaxRating),
		ExplanationIsLoading: p.Loading(),
		MetadataRows:         metadataRows(model, t, opts),
		Notice:               notice(p, t),
		Input:                model.Input,
		Error:                p.Error,
	}

	switch {
	case r.ExplanationIsLoading:
		r.ExplanationText = t(i18n.KeyTranslating)
	case p.Text != "":
		r.ExplanationText = normalizer.PlainText(p.Text)
		r.KeyFindings = normalizer.KeyFindings(model.Message, p.Text)
	case model.Explanation != "":
		r.ExplanationText = normalizer.PlainText(model.Explanation)
		r.KeyFindings = model.KeyFindings
	default:
		r.ExplanationText = t(i18n.KeyNoExplanation)
		r.KeyFindings = normalizer.KeyFindings(model.Message, "")
	}
	if len(r.KeyFindings) == 0 {
		r.KeyFindings = nil
	}

	return r
}

// NewConfidenceBar maps a rating onto a percentage and label band.
func NewConfidenceBar(confidence, maxRating float64) ConfidenceBar {
	if maxRating <= 0 {
		maxRating = normalizer.DefaultMaxRating
	}
	value := confidence
	if value < 0 || math.IsNaN(value) {
		value = 0
	}
	if value > maxRating {
		value = maxRating
	}
	percentage := value / maxRating * 100
	if percentage > 100 {
		percentage = 100
	}

	return ConfidenceBar{
		Value:      value,
		MaxRating:  maxRating,
		Percentage: percentage,
		Label:      ConfidenceLabel(percentage),
		Tone:       confidenceTone(percentage),
		Display:    fmt.Sprintf("%.1f/%s", value, strconv.FormatFloat(maxRating, 'f', -1, 64)),
	}
}

// ConfidenceLabel names the band a percentage falls into.
func ConfidenceLabel(percentage float64) string {
	switch {
	case percentage >= 80:
		return "Very High"
	case percentage >= 60:
		return "High"
	case percentage >= 40:
		return "Moderate"
	case percentage >= 20:
		return "Low"
	default:
		return "Very Low"
	}
}

func confidenceTone(percentage float64) string {
	switch {
	case percentage >= 60:
		return TonePositive
	case percentage >= 40:
		return ToneNeutral
	default:
		return ToneNegative
	}
}

func metadataRows(model domain.DisplayModel, t func(string, ...any) string, opts Options) []MetadataRow {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	layout := opts.TimeFormat
	if layout == "" {
		layout = defaultTimeFormat
	}

	usedModel := model.UsedModel
	if usedModel == "" {
		usedModel = t(i18n.KeyUnknownModel)
	}

	rows := []MetadataRow{
		{Label: t(i18n.KeyInputType), Value: string(model.InputKind)},
		{Label: t(i18n.KeyAIModel), Value: usedModel},
		{Label: t(i18n.KeyResult), Value: model.Result, Negative: model.Result == domain.LabelFake},
		{Label: t(i18n.KeyTimestamp), Value: now().Format(layout)},
	}
	if model.Language != "" {
		rows = append(rows, MetadataRow{Label: t(i18n.KeyLanguage), Value: strings.ToUpper(model.Language)})
	}
	if model.FallbackTriggered {
		rows = append(rows, MetadataRow{Label: t(i18n.KeyFallbackUsed), Value: t(i18n.KeyFallbackYes)})
	}
	return rows
}

func notice(p domain.Projection, t func(string, ...any) string) string {
	if p.SelectedLanguage == "" || p.SelectedLanguage == p.OriginalLanguage {
		return ""
	}
	if p.ContentOnly {
		return t(i18n.KeyNoticeContentOnly,
			i18n.DisplayName(p.SelectedLanguage, p.UILocale),
			i18n.DisplayName(p.UILocale, p.UILocale))
	}
	return t(i18n.KeyNoticeOriginal, i18n.NativeName(p.OriginalLanguage))
}
