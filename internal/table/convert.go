package table

// convert.go parses raw source fields into typed Values.
//
// These functions handle the messy reality of independently-sourced CSV
// exports:
//   - Multiple date formats (ISO, US, EU)
//   - Thousands separators in numbers
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Excel formula prefixes (="value")
//   - Python-style list literals (['flour', 'sugar']) in list columns
//
// All Parse* functions return a Value with Valid=false for empty input and
// an ok=false second return for input that does not parse, letting the
// caller decide whether that is a load-time concern or a validation finding.

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order; four-digit-year forms first since they
// are unambiguous.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006", "01/02/2006",
	"1-2-2006", "01-02-2006",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
}

// ParseInt parses an integer cell. Thousands separators are tolerated.
func ParseInt(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing(), true
	}
	s = strings.ReplaceAll(s, ",", "")
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Missing(), false
	}
	return NewInt(i), true
}

// ParseFloat parses a float cell. Thousands separators are tolerated.
func ParseFloat(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing(), true
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing(), false
	}
	return NewFloat(f), true
}

// ParseBool parses a boolean cell.
// Accepts true/false, t/f, yes/no, y/n, 1/0 in any case.
func ParseBool(s string) (Value, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Missing(), true
	}
	switch s {
	case "true", "t", "yes", "y", "1":
		return NewBool(true), true
	case "false", "f", "no", "n", "0":
		return NewBool(false), true
	}
	return Missing(), false
}

// ParseDate parses a date cell against the supported layouts.
func ParseDate(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing(), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), true
		}
	}
	return Missing(), false
}

// ParseList parses a list cell in the raw dataset's literal form:
// ['a', 'b'] or ["a", "b"]. An empty literal [] yields an empty list,
// which is valid data, not a missing marker.
func ParseList(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing(), true
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return Missing(), false
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return NewList(nil), true
	}

	var items []string
	rest := inner
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			return Missing(), false
		}
		quote := rest[0]
		if quote != '\'' && quote != '"' {
			return Missing(), false
		}
		end := findClosingQuote(rest[1:], quote)
		if end < 0 {
			return Missing(), false
		}
		items = append(items, unescapeQuotes(rest[1:1+end], quote))
		rest = strings.TrimLeft(rest[2+end:], " \t")
		if rest == "" {
			break
		}
		if rest[0] != ',' {
			return Missing(), false
		}
		rest = rest[1:]
	}
	return NewList(items), true
}

// findClosingQuote returns the index of the closing quote in s, skipping
// backslash-escaped quotes, or -1 if unterminated.
func findClosingQuote(s string, quote byte) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

// unescapeQuotes resolves backslash escapes of the quote character.
func unescapeQuotes(s string, quote byte) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == quote || s[i+1] == '\\') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// FormatList renders a list back into the raw dataset's literal form.
// Round-trips with ParseList for export.
func FormatList(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(item, `\`, `\\`), "'", `\'`))
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"`)
}
