package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Verdict labels produced by the analysis backend. Unknown labels are kept verbatim.
const (
	LabelReal    = "REAL"
	LabelFake    = "FAKE"
	LabelUnsure  = "UNSURE"
	LabelInvalid = "INVALID"
)

// DefaultLanguage is assumed when a result does not say which language it was produced in.
const DefaultLanguage = "en"

// RawAnalysisResult is the loosely typed payload returned by the analysis backend.
type RawAnalysisResult struct {
	Label             string `json:"label"`
	ConfidenceScore   any    `json:"confidence_score,omitempty"`
	Explanation       string `json:"explanation,omitempty"`
	Input             any    `json:"input,omitempty"`
	UsedModel         string `json:"used_model,omitempty"`
	Language          string `json:"language,omitempty"`
	FallbackTriggered bool   `json:"fallback_triggered,omitempty"`
	Message           string `json:"message,omitempty"`
}

// UnmarshalJSON decodes a backend payload without trusting field types.
// Only syntactically invalid JSON is reported as an error.
func (r *RawAnalysisResult) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = RawAnalysisResult{
		Label:             looseString(fields["label"]),
		ConfidenceScore:   fields["confidence_score"],
		Explanation:       looseString(fields["explanation"]),
		Input:             fields["input"],
		UsedModel:         looseString(fields["used_model"]),
		Language:          looseString(fields["language"]),
		FallbackTriggered: looseBool(fields["fallback_triggered"]),
		Message:           looseString(fields["message"]),
	}
	return nil
}

func looseString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func looseBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return err == nil && b
	default:
		return false
	}
}

// InputKind tells whether the analysed content was an image or plain text.
type InputKind string

const (
	InputText  InputKind = "Text"
	InputImage InputKind = "Image"
)

// DisplayModel is the normalized, render-ready view of a raw analysis result.
type DisplayModel struct {
	Confidence        float64
	MaxRating         float64
	InputKind         InputKind
	Input             string
	Result            string
	KeyFindings       []string
	Explanation       string
	Message           string
	UsedModel         string
	Language          string
	FallbackTriggered bool
}
