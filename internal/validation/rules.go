// Package validation evaluates per-record quality rules. Violations are
// recorded on the record; nothing is dropped and no error is raised.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/bookintegrate/internal/staging"
)

// Rule codes, in evaluation order
const (
	MissingKey      = "R1_MISSING_KEY_TITLE_AUTHOR"
	InvalidDate     = "R2_INVALID_DATE"
	InvalidLanguage = "R3_INVALID_LANGUAGE"
	InvalidCurrency = "R4_INVALID_CURRENCY"
	InvalidRating   = "R5_INVALID_RATING"
)

// Rule checks one record and reports whether it violates the rule
type Rule struct {
	Code        string
	Description string
	Violated    func(r *staging.Record) bool
}

// Rules is the fixed, ordered rule set
var Rules = []Rule{
	{
		Code:        MissingKey,
		Description: "title or primary author is missing or blank",
		Violated: func(r *staging.Record) bool {
			return blank(r.Title) || blank(r.PrimaryAuthor)
		},
	},
	{
		Code:        InvalidDate,
		Description: "a publication date was given but could not be parsed",
		Violated: func(r *staging.Record) bool {
			return !blank(r.PubDateRaw) && r.PubDate == nil
		},
	},
	{
		Code:        InvalidLanguage,
		Description: "language is not a BCP-47 style tag",
		Violated: func(r *staging.Record) bool {
			return r.Language != nil && !ValidLanguage(*r.Language)
		},
	},
	{
		Code:        InvalidCurrency,
		Description: "currency is not a three letter uppercase code",
		Violated: func(r *staging.Record) bool {
			return r.Currency != nil && !ValidCurrency(*r.Currency)
		},
	},
	{
		Code:        InvalidRating,
		Description: "rating is not a number between 0 and 5",
		Violated: func(r *staging.Record) bool {
			return !ValidRating(r.Rating, r.RatingRaw)
		},
	},
}

// Check returns the codes of every rule the record violates, in rule order
func Check(r *staging.Record) []string {
	codes := []string{}
	for _, rule := range Rules {
		if rule.Violated(r) {
			codes = append(codes, rule.Code)
		}
	}
	return codes
}

// Annotate returns a copy of records with ErrorCodes and HasError set
func Annotate(records []staging.Record) []staging.Record {
	out := make([]staging.Record, len(records))
	for i := range records {
		out[i] = records[i]
		out[i].ErrorCodes = Check(&records[i])
		out[i].HasError = len(out[i].ErrorCodes) > 0
	}
	return out
}

// ValidLanguage approximates BCP-47 syntax: a primary subtag of 2-3 letters
// followed by subtags of 1-8 alphanumerics. Underscores inside subtags are
// ignored for the length check.
func ValidLanguage(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}

	parts := strings.Split(tag, "-")
	if n := utf8.RuneCountInString(parts[0]); n < 2 || n > 3 || !allRunes(parts[0], unicode.IsLetter) {
		return false
	}

	for _, part := range parts[1:] {
		part = strings.ReplaceAll(part, "_", "")
		n := utf8.RuneCountInString(part)
		if n < 1 || n > 8 || !allRunes(part, isAlnum) {
			return false
		}
	}
	return true
}

// ValidCurrency approximates ISO 4217: exactly three uppercase letters
func ValidCurrency(code string) bool {
	code = strings.TrimSpace(code)
	return utf8.RuneCountInString(code) == 3 && allRunes(code, unicode.IsLetter) && strings.ToUpper(code) == code
}

// ValidRating reports whether a rating is absent or a number in [0, 5].
// raw carries a rating that was present but not numeric.
func ValidRating(rating *float64, raw *string) bool {
	if raw != nil {
		return false
	}
	if rating == nil {
		return true
	}
	return *rating >= 0 && *rating <= 5
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func allRunes(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}
