package table

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/locgrid/internal/csvcodec"
)

// BuildKeyUniverse returns every distinct key across datasets in display order.
// The header sentinel and empty keys are excluded.
func BuildKeyUniverse(datasets []*Dataset) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, d := range datasets {
		if d == nil {
			continue
		}
		for _, row := range d.Rows {
			k := row.Key()
			if k == "" || k == csvcodec.HeaderKey {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}

// sortKeys orders keys that start with an ASCII letter first, compared
// case- and accent-insensitively. All other keys follow in byte order.
// Equal keys keep their relative order.
func sortKeys(keys []string) {
	col := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(keys, func(i, j int) bool {
		return compareKeys(col, keys[i], keys[j]) < 0
	})
}

func compareKeys(col *collate.Collator, a, b string) int {
	aLetter, bLetter := startsWithLetter(a), startsWithLetter(b)
	switch {
	case aLetter && bLetter:
		return col.CompareString(a, b)
	case aLetter:
		return -1
	case bLetter:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func startsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// LookupTranslation returns the value of the first row for key, or "".
func LookupTranslation(d *Dataset, key string) string {
	if d == nil {
		return ""
	}
	for _, row := range d.Rows {
		if row.Key() == key {
			return row.Value()
		}
	}
	return ""
}
