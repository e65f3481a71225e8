package csvcodec

import "strings"

// WarningKind classifies an advisory warning.
type WarningKind string

const (
	WarnBOM               WarningKind = "bom"
	WarnUnmatchedQuotes   WarningKind = "unmatched_quotes"
	WarnRaggedColumns     WarningKind = "ragged_columns"
	WarnUnterminatedQuote WarningKind = "unterminated_quote"
)

// Warning is a non-blocking observation about the input. Line is 1-based and
// zero for whole-file warnings.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Line    int         `json:"line,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}

// Validate inspects raw file content and reports advisory warnings: a leading
// BOM, an odd number of double quotes, and lines with differing comma counts.
// It does not look at the parsed rows.
func Validate(content string) []Warning {
	var warnings []Warning

	if strings.HasPrefix(content, string(bom)) {
		warnings = append(warnings, Warning{
			Kind:    WarnBOM,
			Message: "file contains BOM marker (will be automatically removed)",
		})
	}

	if strings.Count(content, `"`)%2 != 0 {
		warnings = append(warnings, Warning{
			Kind:    WarnUnmatchedQuotes,
			Message: "unmatched quotes detected",
		})
	}

	counts := make(map[int]struct{})
	for _, line := range splitLines(content) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		counts[strings.Count(line, ",")] = struct{}{}
	}
	if len(counts) > 1 {
		warnings = append(warnings, Warning{
			Kind:    WarnRaggedColumns,
			Message: "inconsistent number of columns",
		})
	}

	return warnings
}
