// Package normalize canonicalizes free-text, date, language and currency
// fields into comparable forms. Every function is total: unusable input maps
// to the absent value instead of an error.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ListSeparator delimits multi-valued author and category fields
const ListSeparator = "|"

// dateLayouts are tried in order; year-only and year-month layouts leave
// the missing day and month at 1.
var dateLayouts = []string{
	"2006",
	"2006-1",
	"2006-1-2",
	"2006/1",
	"2006/1/2",
	"2006.1.2",
	"1/2/2006",
	"January 2006",
	"Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Title trims, lowercases and collapses internal whitespace runs to one space
func Title(s string) string {
	return strings.Join(strings.Fields(lower(s)), " ")
}

// Language trims and lowercases a language tag. ok is false when nothing is left.
func Language(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return lower(s), true
}

// Currency trims and uppercases a currency code. ok is false when nothing is left.
func Currency(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return upper(s), true
}

// Date parses full and partial dates into ISO 8601 calendar form
// (YYYY-MM-DD). ok is false when the value is blank or cannot be parsed.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), true
		}
	}

	t, err := cast.ToTimeE(s)
	if err != nil {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

// Year returns the publication year held in the first four characters of an
// ISO date produced by Date.
func Year(isoDate string) (int64, bool) {
	if len(isoDate) < 4 {
		return 0, false
	}
	year, err := strconv.ParseInt(isoDate[:4], 10, 64)
	if err != nil {
		return 0, false
	}
	return year, true
}

// SplitList splits a pipe-delimited value, trimming entries and dropping empty ones
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ListSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Key trims and lowercases a value for use in identity hashing
func Key(s string) string {
	return lower(strings.TrimSpace(s))
}
