// Package normalizer turns loosely typed backend payloads into display models.
package normalizer

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ResultViewer/internal/domain"
)

const (
	// DefaultMaxRating is the top of the confidence scale.
	DefaultMaxRating = 10.0
	maxKeyFindings   = 4
	imageInputPrefix = "Image:"
	formatTags       = `p|br|div|span|ul|ol|li|b|strong|em|i|h[1-6]`
)

var (
	ratingExpr = regexp.MustCompile(`(?i)Confidence Rating:\s*(\d+(?:\.\d+)?)`)
	leadingNum = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	// Tags must be complete: attributes carry quoted values and nothing else
	// may sit between the name and the closing bracket.
	markupExpr = regexp.MustCompile(`(?i)<(?:(` + formatTags + `)(?:\s+[a-z][a-z0-9-]*\s*=\s*(?:"[^"<>]*"|'[^'<>]*'))*\s*/?|/(` + formatTags + `)\s*)>`)
)

// Normalize builds a DisplayModel from raw. It never fails: malformed or missing
// fields degrade to defaults. maxRating <= 0 selects DefaultMaxRating.
func Normalize(raw domain.RawAnalysisResult, maxRating float64) domain.DisplayModel {
	if maxRating <= 0 || math.IsNaN(maxRating) || math.IsInf(maxRating, 0) {
		maxRating = DefaultMaxRating
	}

	return domain.DisplayModel{
		Confidence:        Confidence(raw.ConfidenceScore, raw.Explanation, maxRating),
		MaxRating:         maxRating,
		InputKind:         DetectInputKind(raw.Input),
		Input:             inputString(raw.Input),
		Result:            raw.Label,
		KeyFindings:       KeyFindings(raw.Message, raw.Explanation),
		Explanation:       raw.Explanation,
		Message:           raw.Message,
		UsedModel:         raw.UsedModel,
		Language:          raw.Language,
		FallbackTriggered: raw.FallbackTriggered,
	}
}

// Confidence resolves the rating: the score field first, then a
// "Confidence Rating: N" phrase in the explanation, then zero. The result is
// clamped into [0, maxRating].
func Confidence(score any, explanation string, maxRating float64) float64 {
	// A non-numeric score string falls through to the scraped rating instead of reading as zero.
	if v, ok := parseScore(score); ok {
		return clamp(v, maxRating)
	}
	if m := ratingExpr.FindStringSubmatch(explanation); len(m) == 2 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return clamp(v, maxRating)
		}
	}
	return 0
}

// parseScore accepts numbers and numeric strings. Zero counts as absent.
func parseScore(score any) (float64, bool) {
	var v float64
	switch val := score.(type) {
	case nil:
		return 0, false
	case float64:
		v = val
	case float32:
		v = float64(val)
	case int:
		v = float64(val)
	case int64:
		v = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		num := leadingNum.FindString(strings.TrimSpace(val))
		if num == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}

	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clamp(v, maxRating float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > maxRating:
		return maxRating
	default:
		return v
	}
}

// DetectInputKind is a literal prefix check on the submitted input.
func DetectInputKind(input any) domain.InputKind {
	if s, ok := input.(string); ok && strings.HasPrefix(s, imageInputPrefix) {
		return domain.InputImage
	}
	return domain.InputText
}

func inputString(input any) string {
	switch val := input.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// KeyFindings returns the status message alone when present, otherwise up to
// four non-blank lines of text.
func KeyFindings(message, text string) []string {
	if message != "" {
		return []string{message}
	}

	findings := make([]string, 0, maxKeyFindings)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		findings = append(findings, line)
		if len(findings) == maxKeyFindings {
			break
		}
	}
	return findings
}

// PlainText strips complete formatting tags some models wrap explanations in,
// for display only. Everything outside those tags, entities and stray angle
// brackets included, is kept as written. Text without such tags is returned
// unchanged.
func PlainText(text string) string {
	tags := markupExpr.FindAllStringSubmatchIndex(text, -1)
	if len(tags) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range tags {
		b.WriteString(html.EscapeString(text[last:m[0]]))
		last = m[1]

		open, closing := "", ""
		if m[2] >= 0 {
			open = strings.ToLower(text[m[2]:m[3]])
		}
		if m[4] >= 0 {
			closing = strings.ToLower(text[m[4]:m[5]])
		}
		switch {
		case open == "br" || closing == "br":
			b.WriteString("\n")
		case blockTag(closing):
			b.WriteString(text[m[0]:m[1]])
			b.WriteString("\n")
		default:
			b.WriteString(text[m[0]:m[1]])
		}
	}
	b.WriteString(html.EscapeString(text[last:]))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	if err != nil {
		return text
	}
	return strings.TrimSpace(doc.Text())
}

func blockTag(name string) bool {
	switch name {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}
