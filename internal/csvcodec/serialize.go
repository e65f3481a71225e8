package csvcodec

import "strings"

// HeaderKey is the key of the conventional header row. It is never a
// translation key and is never written.
const HeaderKey = "Key"

// Pair is one key and its translation.
type Pair struct {
	Key   string
	Value string
}

// Serialize writes pairs as double-quoted lines joined by "\n", without a
// header row or trailing newline. The header sentinel is always skipped; with
// nonEmptyOnly, pairs whose trimmed value is empty are skipped too.
func Serialize(rows []Pair, nonEmptyOnly bool) string {
	var b strings.Builder
	n := 0
	for _, p := range rows {
		if p.Key == HeaderKey {
			continue
		}
		if nonEmptyOnly && strings.TrimSpace(p.Value) == "" {
			continue
		}
		if n > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('"')
		b.WriteString(Escape(p.Key))
		b.WriteString(`","`)
		b.WriteString(Escape(p.Value))
		b.WriteByte('"')
		n++
	}
	return b.String()
}

// Escape doubles every double quote. Delimiters, backslashes and newlines are
// left alone.
func Escape(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
