// Package lang infers target languages from localization file names.
package lang

import (
	_ "embed"
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
)

// Fallback is the language used when a file name carries no code.
const Fallback = "en"

//go:embed aliases.yaml
var defaultAliases []byte

var (
	regionPattern = regexp.MustCompile(`(?i)^([a-z]{2})[_-]([a-z]{2})`)
	simplePattern = regexp.MustCompile(`(?i)^([a-z]{2})`)
)

// Aliases maps lowercase codes to the language codes the translation API
// accepts. The zero value maps nothing. It is read-only after construction.
type Aliases struct {
	m map[string]string
}

// DefaultAliases returns the built-in alias table.
func DefaultAliases() *Aliases {
	a, err := parseAliases(defaultAliases)
	if err != nil {
		panic("lang: embedded aliases: " + err.Error())
	}
	return a
}

// LoadAliases returns the built-in table with entries from the YAML file at
// path layered on top. An empty path returns the built-in table.
func LoadAliases(file string) (*Aliases, error) {
	base := DefaultAliases()
	if file == "" {
		return base, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read aliases %s: %w", file, err)
	}
	extra, err := parseAliases(data)
	if err != nil {
		return nil, fmt.Errorf("parse aliases %s: %w", file, err)
	}
	for k, v := range extra.m {
		base.m[k] = v
	}
	return base, nil
}

func parseAliases(data []byte) (*Aliases, error) {
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	m := make(map[string]string, len(raw))
	for k, v := range raw {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			return nil, fmt.Errorf("alias %q: empty code", k)
		}
		m[k] = v
	}
	return &Aliases{m: m}, nil
}

// Lookup returns the mapped code for code, compared case-insensitively.
func (a *Aliases) Lookup(code string) (string, bool) {
	if a == nil || a.m == nil {
		return "", false
	}
	v, ok := a.m[strings.ToLower(code)]
	return v, ok
}

// Canonical returns the mapped code, or code itself when it has no alias.
func (a *Aliases) Canonical(code string) string {
	if v, ok := a.Lookup(code); ok {
		return v
	}
	return code
}

// Len returns the number of entries.
func (a *Aliases) Len() int {
	if a == nil {
		return 0
	}
	return len(a.m)
}

// Infer derives the target language from a file name such as "de_AT.csv".
//
// For a "ll_cc" or "ll-cc" prefix the combined code is tried first, then the
// country, then the primary code. A bare two-letter prefix maps through the
// alias table. Anything else falls back to English.
func (a *Aliases) Infer(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	if m := regionPattern.FindStringSubmatch(base); m != nil {
		primary, country := strings.ToLower(m[1]), strings.ToLower(m[2])
		for _, c := range []string{primary + country, country, primary} {
			if v, ok := a.Lookup(c); ok {
				return v
			}
		}
		return primary
	}

	code := Fallback
	if m := simplePattern.FindStringSubmatch(base); m != nil {
		code = strings.ToLower(m[1])
	}
	return a.Canonical(code)
}

// Target is a language offered for bulk translation.
type Target struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var targetCodes = []string{"cs", "de", "es", "fr", "it", "ja", "ko", "pl", "pt", "ru", "zh"}

// Targets returns the selectable bulk-translation languages with English
// display names, sorted by name.
func Targets() []Target {
	namer := display.English.Languages()
	out := make([]Target, 0, len(targetCodes))
	for _, c := range targetCodes {
		name := c
		if tag, err := language.Parse(c); err == nil {
			if n := namer.Name(tag); n != "" {
				name = n
			}
		}
		out = append(out, Target{Code: c, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DisplayName returns the English name of code, or code when unknown.
func DisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if n := display.English.Languages().Name(tag); n != "" {
		return n
	}
	return code
}
