package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is one entry of the language picker.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supported = []Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Español"},
	{Code: "fr", Name: "Français"},
	{Code: "de", Name: "Deutsch"},
	{Code: "it", Name: "Italiano"},
	{Code: "pt", Name: "Português"},
	{Code: "nl", Name: "Nederlands"},
	{Code: "ru", Name: "Русский"},
	{Code: "zh", Name: "中文"},
	{Code: "ja", Name: "日本語"},
	{Code: "ko", Name: "한국어"},
	{Code: "ar", Name: "العربية"},
	{Code: "hi", Name: "हिन्दी"},
	{Code: "vi", Name: "Tiếng Việt"},
	{Code: "kn", Name: "ಕನ್ನಡ"},
}

// Supported returns the languages offered to viewers, in picker order.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether code names a language from the picker.
func IsSupported(code string) bool {
	norm := Normalize(code)
	for _, lang := range supported {
		if lang.Code == norm {
			return true
		}
	}
	return false
}

// Normalize reduces a language identifier to its lowercase base code ("en-US" -> "en").
// Values that do not parse as BCP 47 are only trimmed and lowercased.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	if base.String() == "und" {
		return strings.ToLower(code)
	}
	return base.String()
}

// NativeName returns the endonym shown in the language picker.
func NativeName(code string) string {
	norm := Normalize(code)
	for _, lang := range supported {
		if lang.Code == norm {
			return lang.Name
		}
	}
	return code
}

// DisplayName names the language code in the viewer's interface locale, e.g. "Kannada"
// for an English interface. Falls back to the endonym.
func DisplayName(code, uiLocale string) string {
	tag, err := language.Parse(Normalize(code))
	if err != nil {
		return NativeName(code)
	}
	in, err := language.Parse(Normalize(uiLocale))
	if err != nil {
		in = language.English
	}
	if name := display.Tags(in).Name(tag); name != "" {
		return name
	}
	return NativeName(code)
}

// MatchAcceptLanguage picks the best supported language for an Accept-Language header.
func MatchAcceptLanguage(header, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	for _, tag := range tags {
		if code := Normalize(tag.String()); IsSupported(code) {
			return code
		}
	}
	return fallback
}
