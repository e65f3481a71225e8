// Package csvcodec reads and writes the two-column localization CSV dialect.
//
// The dialect is not RFC 4180. Cells may be wrapped in double or single quotes,
// a backslash escapes the next character anywhere on the line, and a doubled
// quote inside a quoted section is a literal quote. Output is always written in
// double-quote style, so a file parsed with single quotes or backslash escapes
// is normalized when it is written back.
package csvcodec

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// bom is the byte-order mark stripped from the start of a file.
const bom = '\uFEFF'

var (
	// ErrEmptyContent is returned for files with no content at all.
	ErrEmptyContent = errors.New("empty file")

	// ErrInvalidEncoding is returned when content is not valid UTF-8.
	ErrInvalidEncoding = errors.New("encoding error: content is not valid UTF-8")
)

// ParseError reports content the tokenizer cannot work with.
// Advisory problems are reported as Warnings instead.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "failed to parse CSV: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Row is one tokenized line. Row[0] is the key and Row[1] the translation.
type Row []string

// Key returns the first cell.
func (r Row) Key() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// Value returns the second cell, or "" for short rows.
func (r Row) Value() string {
	if len(r) < 2 {
		return ""
	}
	return r[1]
}

// Result is the output of Parse.
type Result struct {
	Rows     []Row
	Warnings []Warning
}

// tokenizer states
type state int

const (
	stateUnquoted state = iota
	stateInQuote
	stateEscaped
)

// Parse tokenizes content into rows.
//
// Lines are split on "\r\n" or "\n" and blank lines are skipped. Rows with
// fewer than two cells are dropped. Warnings never change the returned rows.
func Parse(content string) (*Result, error) {
	if content == "" {
		return nil, &ParseError{Err: ErrEmptyContent}
	}
	if !utf8.ValidString(content) {
		return nil, &ParseError{Err: ErrInvalidEncoding}
	}

	res := &Result{Warnings: Validate(content)}
	content = strings.TrimPrefix(content, string(bom))

	for i, line := range splitLines(content) {
		if strings.TrimSpace(line) == "" {
			continue
		}

		cells, unterminated := tokenizeLine(line)
		if unterminated {
			res.Warnings = append(res.Warnings, Warning{
				Kind:    WarnUnterminatedQuote,
				Line:    i + 1,
				Message: fmt.Sprintf("unclosed quote in line %d", i+1),
			})
		}

		if len(cells) < 2 {
			continue
		}
		for j, c := range cells {
			cells[j] = unescape(stripOuterQuotes(c))
		}
		res.Rows = append(res.Rows, Row(cells))
	}

	return res, nil
}

// splitLines splits on "\n" and drops the "\r" of "\r\n" pairs.
// A lone "\r" stays part of the line.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// tokenizeLine runs the cell state machine over one line. It reports whether
// the line ended inside a quoted section; the pending cell is kept either way.
func tokenizeLine(line string) ([]string, bool) {
	var (
		cells []string
		cur   strings.Builder
		st    = stateUnquoted
		quote rune
		// prev is the state to return to after an escaped character.
		prev = stateUnquoted
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if st == stateEscaped {
			cur.WriteRune(c)
			st = prev
			continue
		}

		if c == '\\' {
			prev = st
			st = stateEscaped
			continue
		}

		switch st {
		case stateInQuote:
			if c != quote {
				cur.WriteRune(c)
				continue
			}
			if i+1 < len(runes) && runes[i+1] == quote {
				cur.WriteRune(c)
				i++
				continue
			}
			st = stateUnquoted
			quote = 0

		default:
			switch c {
			case '"', '\'':
				st = stateInQuote
				quote = c
			case ',':
				cells = append(cells, cur.String())
				cur.Reset()
			default:
				cur.WriteRune(c)
			}
		}
	}

	if st == stateEscaped {
		st = prev
	}
	cells = append(cells, cur.String())
	return cells, st == stateInQuote
}

// stripOuterQuotes removes one matching pair of wrapping quotes.
func stripOuterQuotes(s string) string {
	if s == "" {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' || first == '\'') && first == last {
		if len(s) == 1 {
			return ""
		}
		return s[1 : len(s)-1]
	}
	return s
}

// unescape replaces every backslash pair `\X` with X. A trailing backslash and
// a backslash before a line terminator are kept.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' && i+1 < len(runes) && !isLineTerminator(runes[i+1]) {
			b.WriteRune(runes[i+1])
			i++
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func isLineTerminator(r rune) bool {
	switch r {
	case '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return false
}
