// Package i18n resolves message keys against per-locale translation tables.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/tr"
	ut "github.com/go-playground/universal-translator"
	"golang.org/x/text/language"
)

// DefaultLocale is used when the client expresses no supported preference.
const DefaultLocale = "en"

//go:embed locales/*.json
var localeFiles embed.FS

// Catalog holds the translation tables for every supported locale.
type Catalog struct {
	uni      *ut.UniversalTranslator
	matcher  language.Matcher
	supports []string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the process-wide catalog built from the embedded locale files.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = New()
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("i18n: load embedded locales: %v", defaultErr))
	}
	return defaultCatalog
}

// New builds a catalog for English and Turkish from the embedded JSON tables.
func New() (*Catalog, error) {
	translators := []locales.Translator{en.New(), tr.New()}
	uni := ut.New(translators[0], translators...)

	tags := make([]language.Tag, 0, len(translators))
	supports := make([]string, 0, len(translators))
	for _, lt := range translators {
		locale := lt.Locale()
		table, err := loadTable(locale)
		if err != nil {
			return nil, err
		}

		trans, _ := uni.GetTranslator(locale)
		for key, text := range table {
			if err := trans.Add(key, text, true); err != nil {
				return nil, fmt.Errorf("i18n: add %s/%s: %w", locale, key, err)
			}
		}

		tags = append(tags, language.Make(locale))
		supports = append(supports, locale)
	}

	return &Catalog{
		uni:      uni,
		matcher:  language.NewMatcher(tags),
		supports: supports,
	}, nil
}

func loadTable(locale string) (map[string]string, error) {
	data, err := localeFiles.ReadFile(path.Join("locales", locale+".json"))
	if err != nil {
		return nil, fmt.Errorf("i18n: read %s: %w", locale, err)
	}

	table := map[string]string{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("i18n: decode %s: %w", locale, err)
	}
	return table, nil
}

// Negotiate picks the best supported locale for an Accept-Language header value.
func (c *Catalog) Negotiate(acceptLanguage string) string {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return DefaultLocale
	}

	tag, _ := language.MatchStrings(c.matcher, acceptLanguage)
	base, _ := tag.Base()
	for _, supported := range c.supports {
		if supported == base.String() {
			return supported
		}
	}
	return DefaultLocale
}

// Supported lists the locales with a translation table.
func (c *Catalog) Supported() []string {
	out := make([]string, len(c.supports))
	copy(out, c.supports)
	return out
}

// T translates key for locale. Unknown keys are returned unchanged.
func (c *Catalog) T(locale, key string) string {
	trans, found := c.uni.GetTranslator(locale)
	if !found {
		trans = c.uni.GetFallback()
	}

	text, err := trans.T(key)
	if err == nil && text != "" {
		return text
	}

	if fallback := c.uni.GetFallback(); fallback != trans {
		if text, err := fallback.T(key); err == nil && text != "" {
			return text
		}
	}
	return key
}
