package view

import (
	"fmt"
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("result").Parse(`<section class="result" data-status="{{.Status}}" data-language="{{.SelectedLanguage}}" lang="{{.UILocale}}">
<h1>{{.Headings.AnalysisResults}}</h1>
{{with .Notice}}<p class="notice">{{.}}</p>
{{end}}<div class="card summary">
<h2>{{.Headings.DetectionSummary}}</h2>
<div class="confidence" data-tone="{{.ConfidenceBar.Tone}}" data-percentage="{{printf "%.0f" .ConfidenceBar.Percentage}}">
<span class="confidence-title">{{.Headings.ConfidenceRating}}</span>
<span class="confidence-label">{{.ConfidenceBar.Label}}</span>
<span class="confidence-value">{{.ConfidenceBar.Display}}</span>
<small class="confidence-note">{{.Headings.ConfidenceNote}}</small>
</div>
<table class="metadata">
{{range .MetadataRows}}<tr{{if .Negative}} class="negative"{{end}}><td class="label">{{.Label}}</td><td class="value">{{.Value}}</td></tr>
{{end}}</table>
</div>
<div class="card explanation">
<h2>{{.Headings.DetailedExplanation}}</h2>
<div class="explanation-text{{if .ExplanationIsLoading}} loading{{end}}">{{.ExplanationText}}</div>
{{if .KeyFindings}}<div class="key-findings">
<h3>{{.Headings.KeyFindings}}</h3>
<ul>{{range .KeyFindings}}<li>{{.}}</li>{{end}}</ul>
</div>
{{end}}</div>
<div class="card input">
<h2>{{.Headings.OriginalInput}}</h2>
<div class="input-text">{{.Input}}</div>
</div>
</section>
`))

// RenderHTML writes the result page fragment for r.
func RenderHTML(w io.Writer, r Render) error {
	if err := pageTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("render result page: %w", err)
	}
	return nil
}
