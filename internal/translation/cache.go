package translation

import (
	"sort"

	"ResultViewer/internal/i18n"
)

// Cache maps a language to the explanation translated into it. It is owned by a
// single Orchestrator, which serialises access; it is not safe for concurrent use
// on its own. Entries are never evicted.
type Cache struct {
	entries map[string]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]string{}}
}

// Get returns the cached text for lang.
func (c *Cache) Get(lang string) (string, bool) {
	text, ok := c.entries[i18n.Normalize(lang)]
	return text, ok
}

// Put stores or replaces the text for lang.
func (c *Cache) Put(lang, text string) {
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	c.entries[i18n.Normalize(lang)] = text
}

// Len reports the number of cached languages.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Languages lists cached language codes in sorted order.
func (c *Cache) Languages() []string {
	out := make([]string, 0, len(c.entries))
	for lang := range c.entries {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
