package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslatorGet(t *testing.T) {
	tr := NewTranslator(map[string]string{"race": "ZÁVOD"})
	assert.Equal(t, "ZÁVOD", tr.Get("race", "RACE"))
	assert.Equal(t, "RACE", tr.Get("missing", "RACE"))
}

func TestTranslatorNilTable(t *testing.T) {
	tr := NewTranslator(nil)
	assert.Equal(t, "fallback", tr.Get("anything", "fallback"))
}

func writeTable(t *testing.T, dir, lang, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, lang+".json"), []byte(body), 0o644))
}

func TestCatalogLoadsLanguage(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "en", `{"race": "RACE"}`)
	writeTable(t, dir, "cs", `{"race": "ZÁVOD"}`)

	c := NewCatalog(dir, "en", nil)
	assert.Equal(t, "ZÁVOD", c.Translator("cs").Get("race", "?"))
	assert.Equal(t, "RACE", c.Translator("en").Get("race", "?"))
}

func TestCatalogUnknownLanguageFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "en", `{"race": "RACE"}`)

	c := NewCatalog(dir, "en", nil)
	assert.Equal(t, "RACE", c.Translator("xx").Get("race", "?"))
}

func TestCatalogCachesUnknownLanguageFallback(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "en", `{"race": "RACE"}`)

	c := NewCatalog(dir, "en", nil)
	first := c.Translator("xx")
	assert.Equal(t, "RACE", first.Get("race", "?"))

	// The file appearing later changes nothing; the miss was cached.
	writeTable(t, dir, "xx", `{"race": "XRACE"}`)
	assert.Same(t, first, c.Translator("xx"))
}

func TestCatalogBrokenDefaultYieldsEmptyTable(t *testing.T) {
	c := NewCatalog(t.TempDir(), "en", nil)
	tr := c.Translator("en")
	assert.Equal(t, "RACE", tr.Get("race", "RACE"))
}

func TestCatalogCaches(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "en", `{"race": "RACE"}`)

	c := NewCatalog(dir, "en", nil)
	first := c.Translator("en")

	// Later file changes are not picked up; tables are process-lifetime.
	writeTable(t, dir, "en", `{"race": "CHANGED"}`)
	assert.Same(t, first, c.Translator("en"))
}

func TestNormalize(t *testing.T) {
	c := NewCatalog(t.TempDir(), "en", nil)

	assert.Equal(t, "cs", c.Normalize("cs"))
	assert.Equal(t, "en", c.Normalize("en-US"))
	assert.Equal(t, "de", c.Normalize("DE_at"))
	assert.Equal(t, "en", c.Normalize(""))
	assert.Equal(t, "en", c.Normalize("../../etc/passwd"))
	assert.Equal(t, "en", c.Normalize("en?x=1"))
}
