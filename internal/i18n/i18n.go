// Package i18n loads flat key/value translation tables from JSON files
// and hands out Translators with default-on-miss semantics.
package i18n

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Translator maps translation keys to localized strings. A lookup miss
// returns the caller-supplied fallback, never an error.
type Translator struct {
	table map[string]string
}

// NewTranslator wraps an existing table; useful in tests.
func NewTranslator(table map[string]string) *Translator {
	if table == nil {
		table = map[string]string{}
	}
	return &Translator{table: table}
}

// Get returns the translation for key, or fallback when absent.
func (t *Translator) Get(key, fallback string) string {
	if v, ok := t.table[key]; ok {
		return v
	}
	return fallback
}

// Catalog loads and caches per-language translation tables from
// <dir>/<lang>.json. Loaded tables live for the process lifetime and
// are safe to share across goroutines.
type Catalog struct {
	dir         string
	defaultLang string
	log         *zap.Logger

	mu    sync.RWMutex
	cache map[string]*Translator
}

// NewCatalog creates a catalog rooted at dir with a default language.
func NewCatalog(dir, defaultLang string, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		dir:         dir,
		defaultLang: defaultLang,
		log:         logger,
		cache:       make(map[string]*Translator),
	}
}

// Translator returns the table for lang. Unknown languages fall back to
// the default language; a broken default yields an empty table so every
// lookup resolves to its fallback literal.
func (c *Catalog) Translator(lang string) *Translator {
	if tr := c.cached(lang); tr != nil {
		return tr
	}

	tr, err := c.load(lang)
	if err != nil {
		c.log.Warn("translation file unavailable",
			zap.String("lang", lang), zap.Error(err))
		if lang != c.defaultLang {
			// Cache the fallback under the missing language too, so
			// repeated requests stop hitting the disk.
			tr = c.Translator(c.defaultLang)
		} else {
			tr = NewTranslator(nil)
		}
	}

	c.mu.Lock()
	c.cache[lang] = tr
	c.mu.Unlock()
	return tr
}

// Normalize reduces a request language tag to a bare file-safe code:
// "en-US" becomes "en", anything non-alphabetic becomes the default.
func (c *Catalog) Normalize(lang string) string {
	lang = strings.ToLower(lang)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	for _, r := range lang {
		if r < 'a' || r > 'z' {
			return c.defaultLang
		}
	}
	if lang == "" {
		return c.defaultLang
	}
	return lang
}

func (c *Catalog) cached(lang string) *Translator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache[lang]
}

func (c *Catalog) load(lang string) (*Translator, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, lang+".json"))
	if err != nil {
		return nil, err
	}
	table := map[string]string{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	c.log.Info("loaded translations", zap.String("lang", lang), zap.Int("keys", len(table)))
	return NewTranslator(table), nil
}
