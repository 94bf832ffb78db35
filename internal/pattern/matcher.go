package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Field is one extraction request: a key plus an optional caller-supplied
// expression. An empty Pattern (or the UseBuiltin sentinel) selects the
// predefined pattern for the key.
type Field struct {
	Key     string
	Pattern string
}

// Match holds the extracted values for one field. A field that matched
// nothing has an empty Values slice; that is not an error. Err is set only
// when the field's caller-supplied pattern failed to compile.
type Match struct {
	Err    error
	Key    string
	Values []string
}

// First returns the first extracted value, or "" when nothing matched.
func (m Match) First() string {
	if len(m.Values) == 0 {
		return ""
	}
	return m.Values[0]
}

// Matcher evaluates a fixed set of fields against input text. Patterns are
// compiled once at construction. An invalid caller-supplied expression is
// recorded against its field and does not stop the other fields from
// extracting.
type Matcher struct {
	compiled map[string]*regexp.Regexp
	errs     map[string]error
	fields   []Field
}

// NewMatcher compiles the patterns for the given fields.
func NewMatcher(fields []Field) *Matcher {
	m := &Matcher{
		fields:   fields,
		compiled: make(map[string]*regexp.Regexp, len(fields)),
		errs:     make(map[string]error),
	}

	for _, field := range fields {
		expr := field.Pattern
		if expr == "" || expr == UseBuiltin {
			expr = builtinFor(field.Key)
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			m.errs[field.Key] = fmt.Errorf("invalid pattern %q: %w", expr, err)
			continue
		}
		m.compiled[field.Key] = re
	}

	return m
}

// Extract runs every configured field against the text and returns one
// Match per field, in field order. Fields whose pattern failed to compile
// carry their error; the remaining fields still extract.
func (m *Matcher) Extract(text string) []Match {
	results := make([]Match, 0, len(m.fields))

	for _, field := range m.fields {
		if err, ok := m.errs[field.Key]; ok {
			results = append(results, Match{Key: field.Key, Err: err})
			continue
		}

		raw := m.compiled[field.Key].FindAllStringSubmatch(text, -1)

		match := Match{Key: field.Key}
		if dateKeys[field.Key] {
			match.Values = collectDates(field.Key, raw)
		} else {
			match.Values = collectValues(raw)
		}
		results = append(results, match)
	}

	return results
}

// collectDates normalizes (year, month, day) captures to YYYY-MM-DD.
// 换股期限 is a window, so it keeps the first two dates; every other date
// key keeps only the first.
func collectDates(key string, raw [][]string) []string {
	var dates []string
	for _, groups := range raw {
		if len(groups) >= 4 {
			dates = append(dates, FormatDate(groups[1], groups[2], groups[3]))
		} else if len(groups) >= 2 {
			dates = append(dates, groups[1])
		}
	}

	if key == "换股期限" {
		if len(dates) > 2 {
			dates = dates[:2]
		}
		return dates
	}
	if len(dates) > 1 {
		dates = dates[:1]
	}
	return dates
}

// collectValues flattens submatches. A single occurrence keeps its first
// non-empty capture group; multiple occurrences keep every non-empty group
// of each. A pattern with no groups contributes the whole match.
func collectValues(raw [][]string) []string {
	single := len(raw) == 1

	var values []string
	for _, groups := range raw {
		if len(groups) == 1 {
			if v := strings.TrimSpace(groups[0]); v != "" {
				values = append(values, v)
			}
			continue
		}
		for _, g := range groups[1:] {
			v := strings.TrimSpace(g)
			if v == "" {
				continue
			}
			values = append(values, v)
			if single {
				break
			}
		}
	}
	return values
}

// FormatDate renders a year/month/day triple as zero-padded YYYY-MM-DD.
// Non-numeric components fall back to a plain hyphen join.
func FormatDate(year, month, day string) string {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return year + "-" + month + "-" + day
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}
