// Package languages holds the catalog behind the language picker: the display
// name shown to the user, the code sent to OpenWeatherMap and the flag icon.
package languages

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed languages.json
var catalogJSON []byte

const flagURLFormat = "https://flagcdn.com/28x21/%s.png"

type Language struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Flag         string `json:"flag"`
	FlagURL      string `json:"flag_url"`
}

type Catalog struct {
	list   []Language
	byName map[string]Language
	byCode map[string]Language
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(catalogJSON)
}

// Parse reads a catalog in the name -> {abbreviation, flag} layout.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]struct {
		Abbreviation string `json:"abbreviation"`
		Flag         string `json:"flag"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse language catalog: %w", err)
	}

	c := &Catalog{
		list:   make([]Language, 0, len(raw)),
		byName: make(map[string]Language, len(raw)),
		byCode: make(map[string]Language, len(raw)),
	}

	for name, entry := range raw {
		if entry.Abbreviation == "" {
			return nil, fmt.Errorf("language %q has no abbreviation", name)
		}
		lang := Language{
			Name:         name,
			Abbreviation: entry.Abbreviation,
			Flag:         entry.Flag,
			FlagURL:      FlagURL(entry.Flag),
		}
		c.list = append(c.list, lang)
		c.byName[strings.ToLower(name)] = lang
		c.byCode[strings.ToLower(entry.Abbreviation)] = lang
	}

	sort.Slice(c.list, func(i, j int) bool { return c.list[i].Name < c.list[j].Name })

	return c, nil
}

// List returns the catalog sorted by display name.
func (c *Catalog) List() []Language {
	out := make([]Language, len(c.list))
	copy(out, c.list)
	return out
}

// Abbreviation maps a picker display name to its API language code.
func (c *Catalog) Abbreviation(name string) (string, bool) {
	lang, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return lang.Abbreviation, ok
}

// Resolve accepts either a display name or an API code.
func (c *Catalog) Resolve(v string) (Language, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if lang, ok := c.byName[v]; ok {
		return lang, true
	}
	lang, ok := c.byCode[v]
	return lang, ok
}

func FlagURL(flag string) string {
	if flag == "" {
		return ""
	}
	return fmt.Sprintf(flagURLFormat, flag)
}
