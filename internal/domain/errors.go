package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingResult means no analysis payload exists for the requested view.
	ErrMissingResult = errors.New("analysis result not found")
	// ErrTranslationFailure marks any failed call to the translation backend.
	ErrTranslationFailure = errors.New("translation failed")
	// ErrUnsupportedLanguage is returned for language codes outside the registry.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// TranslationError carries the human-readable reason a translation failed.
type TranslationError struct {
	Language string
	Message  string
	Err      error
}

func (e *TranslationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("translate to %s: %v", e.Language, ErrTranslationFailure)
	}
	return fmt.Sprintf("translate to %s: %s", e.Language, e.Message)
}

// Is lets errors.Is match ErrTranslationFailure.
func (e *TranslationError) Is(target error) bool {
	return target == ErrTranslationFailure
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
