// Package isbn canonicalizes ISBN-10 and ISBN-13 identifiers.
//
// Checksums are not verified; an identifier is accepted on shape alone.
package isbn

import (
	"strings"
)

// nullLike are values upstream tooling writes for a missing identifier
var nullLike = map[string]bool{
	"":     true,
	"NAN":  true,
	"NONE": true,
	"<NA>": true,
}

// Clean removes everything except digits and the letter X (either case).
// It returns "" when the input is absent or nothing survives.
func Clean(raw string) string {
	if nullLike[strings.ToUpper(raw)] {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == 'X' || r == 'x' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsISBN10 reports whether raw has exactly 10 characters after cleaning
func IsISBN10(raw string) bool {
	return len(Clean(raw)) == 10
}

// IsISBN13 reports whether raw has exactly 13 characters after cleaning
func IsISBN13(raw string) bool {
	return len(Clean(raw)) == 13
}

// NormalizeISBN13 returns the canonical 13 digit form of raw, or "" when the
// cleaned value is not exactly 13 digits. A trailing X is rejected because
// ISBN-13 check digits are numeric.
func NormalizeISBN13(raw string) string {
	s := Clean(raw)
	if len(s) != 13 || !allDigits(s) {
		return ""
	}
	return s
}

// ToISBN13 derives an ISBN-13 from an ISBN-10 by prefixing 978 to the first
// nine characters and recomputing the check digit. The ISBN-10 check digit
// itself is ignored. It returns "" when the input is not 10 characters after
// cleaning or its first nine characters are not digits.
func ToISBN13(isbn10 string) string {
	s := Clean(isbn10)
	if len(s) != 10 {
		return ""
	}

	core := "978" + s[:9]
	if !allDigits(core) {
		return ""
	}

	return core + string(rune('0'+CheckDigit13(core)))
}

// CheckDigit13 computes the ISBN-13 check digit for the first 12 digits of
// core, weighting positions alternately by 1 and 3 starting with 1.
func CheckDigit13(core string) int {
	total := 0
	for i := 0; i < 12 && i < len(core); i++ {
		n := int(core[i] - '0')
		if i%2 == 0 {
			total += n
		} else {
			total += n * 3
		}
	}
	return (10 - total%10) % 10
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
