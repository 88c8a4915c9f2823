// Package i18n looks up user-facing strings in embedded YAML catalogs.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

type Translator struct {
	catalogs map[string]map[string]string
	fallback string
}

// New loads every embedded catalog. The fallback language must be one of them.
func New(fallback string) (*Translator, error) {
	const operation = "i18n.New"

	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read locales: %w", operation, err)
	}

	t := &Translator{
		catalogs: make(map[string]map[string]string, len(entries)),
		fallback: fallback,
	}

	for _, e := range entries {
		data, err := locales.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read %s: %w", operation, e.Name(), err)
		}

		catalog := make(map[string]string)
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("%s: failed to parse %s: %w", operation, e.Name(), err)
		}

		t.catalogs[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = catalog
	}

	if !t.Has(fallback) {
		return nil, fmt.Errorf("%s: no catalog for fallback language %q", operation, fallback)
	}

	return t, nil
}

// T returns the string for key in lang, then in the fallback language, then
// the key itself. Placeholders like {name} are replaced from params.
func (t *Translator) T(key, lang string, params map[string]any) string {
	text, ok := t.catalogs[lang][key]
	if !ok {
		text, ok = t.catalogs[t.fallback][key]
	}
	if !ok {
		return key
	}

	if len(params) == 0 {
		return text
	}

	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Languages lists the available catalog codes, sorted.
func (t *Translator) Languages() []string {
	langs := make([]string, 0, len(t.catalogs))
	for code := range t.catalogs {
		langs = append(langs, code)
	}
	sort.Strings(langs)
	return langs
}

func (t *Translator) Has(lang string) bool {
	_, ok := t.catalogs[lang]
	return ok
}
