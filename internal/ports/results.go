package ports

import (
	"context"

	"ResultViewer/internal/domain"
)

// Translator converts explanation text through the analysis backend.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// ResultLoader fetches a stored raw analysis result.
type ResultLoader interface {
	LoadResult(ctx context.Context, id string) (domain.RawAnalysisResult, error)
}

// ResultRepository stores and loads raw analysis results.
type ResultRepository interface {
	ResultLoader
	SaveResult(ctx context.Context, id string, raw domain.RawAnalysisResult) error
}

// Analyzer runs a fresh analysis on submitted text.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (domain.RawAnalysisResult, error)
}
