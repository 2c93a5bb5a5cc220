// Package i18n provides the label localizer and comment language selection
// used when projecting layouts into documentation.
package i18n

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Catalog localizes label keys from a message catalog. Lookups walk from
// the requested language to its parents (en-GB, then en) and finally to the
// fallback language. Unknown keys localize to the key itself.
type Catalog struct {
	builder  *catalog.Builder
	fallback language.Tag

	mu   sync.RWMutex
	keys map[language.Tag]map[string]bool
}

// NewCatalog creates an empty catalog falling back to the given language.
func NewCatalog(fallback language.Tag) *Catalog {
	return &Catalog{
		builder:  catalog.NewBuilder(catalog.Fallback(fallback)),
		fallback: fallback,
		keys:     make(map[language.Tag]map[string]bool),
	}
}

// Set registers the display text of key in lang.
func (c *Catalog) Set(lang, key, text string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("invalid language %q: %w", lang, err)
	}
	return c.set(tag, key, text)
}

func (c *Catalog) set(tag language.Tag, key, text string) error {
	if err := c.builder.SetString(tag, key, text); err != nil {
		return fmt.Errorf("setting label %q for %s: %w", key, tag, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[tag] == nil {
		c.keys[tag] = make(map[string]bool)
	}
	c.keys[tag][key] = true
	return nil
}

// Load registers labels given as language -> key -> text.
func (c *Catalog) Load(labels map[string]map[string]string) error {
	langs := make([]string, 0, len(labels))
	for lang := range labels {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		for key, text := range labels[lang] {
			if err := c.Set(lang, key, text); err != nil {
				return err
			}
		}
	}
	return nil
}

// Localize returns the display text of key in lang.
func (c *Catalog) Localize(lang, key string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = c.fallback
	}
	found, ok := c.resolve(tag, key)
	if !ok {
		found, ok = c.resolve(c.fallback, key)
	}
	if !ok {
		return key
	}
	return message.NewPrinter(found, message.Catalog(c.builder)).Sprintf(key)
}

// resolve finds the closest ancestor of tag defining key.
func (c *Catalog) resolve(tag language.Tag, key string) (language.Tag, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for t := tag; ; t = t.Parent() {
		if c.keys[t][key] {
			return t, true
		}
		if t == language.Und {
			return t, false
		}
	}
}

// DefaultCatalog returns an English catalog holding the column headers used
// by the document projector.
func DefaultCatalog() *Catalog {
	c := NewCatalog(language.English)
	headers := map[string]string{
		"field":    "Field",
		"offset":   "Offset",
		"type":     "Type",
		"size":     "Size",
		"comments": "Comments",
		"bit":      "Flag",
		"mask":     "Mask",
		"option":   "Option",
		"value":    "Value",
	}
	for key, text := range headers {
		// Keys and tag are constant, so set cannot fail here.
		_ = c.set(language.English, key, text)
	}
	return c
}
