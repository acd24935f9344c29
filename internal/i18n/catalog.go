package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Chrome message keys.
const (
	KeyAnalysisResults     = "analysis_results"
	KeySelectLanguage      = "select_language"
	KeyDetectionSummary    = "detection_summary"
	KeyConfidenceRating    = "confidence_rating"
	KeyDetailedExplanation = "detailed_explanation"
	KeyKeyFindings         = "key_findings"
	KeyOriginalInput       = "original_input"
	KeyInputType           = "input_type"
	KeyAIModel             = "ai_model"
	KeyResult              = "result"
	KeyTimestamp           = "timestamp"
	KeyLanguage            = "language"
	KeyFallbackUsed        = "fallback_used"
	KeyConfidenceNote      = "confidence_note"
	KeyTranslating         = "translating"
	KeyNoExplanation       = "no_explanation"
	KeyUnknownModel        = "unknown_model"
	KeyFallbackYes         = "fallback_yes"
	KeyNoticeContentOnly   = "notice_content_only"
	KeyNoticeOriginal      = "notice_original"
)

// BaseLocale is the locale every chrome message is defined in.
const BaseLocale = "en"

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Catalog renders interface chrome strings for a locale.
type Catalog struct {
	builder *catalog.Builder
	keys    map[string]map[string]struct{}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog built from the embedded locale files.
func Default() *Catalog {
	defaultOnce.Do(func() {
		cat, err := LoadFromFS(embeddedLocales)
		if err != nil {
			panic(fmt.Sprintf("i18n: load embedded catalog: %v", err))
		}
		defaultCatalog = cat
	})
	return defaultCatalog
}

// LoadFromFS reads locales/*.yaml from fsys.
func LoadFromFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale files found")
	}
	sort.Strings(paths)

	cat := &Catalog{
		builder: catalog.NewBuilder(catalog.Fallback(language.English)),
		keys:    map[string]map[string]struct{}{},
	}
	for _, path := range paths {
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := cat.add(file); err != nil {
			return nil, fmt.Errorf("register %s: %w", path, err)
		}
	}
	if _, ok := cat.keys[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %q missing", BaseLocale)
	}
	return cat, nil
}

func (c *Catalog) add(file catalogFile) error {
	locale := Normalize(file.Locale)
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("parse locale %q: %w", file.Locale, err)
	}
	if c.keys[locale] == nil {
		c.keys[locale] = map[string]struct{}{}
	}
	for key, msg := range file.Messages {
		if err := c.builder.SetString(tag, key, msg); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		c.keys[locale][key] = struct{}{}
	}
	return nil
}

// T renders key in locale. Keys the locale does not define fall back to BaseLocale.
func (c *Catalog) T(locale, key string, args ...any) string {
	locale = Normalize(locale)
	if _, ok := c.keys[locale][key]; !ok {
		locale = BaseLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag, message.Catalog(c.builder)).Sprintf(key, args...)
}

// HasLocale reports whether the catalog carries any chrome strings for locale.
func (c *Catalog) HasLocale(locale string) bool {
	_, ok := c.keys[Normalize(locale)]
	return ok
}
