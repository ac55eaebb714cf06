package staging

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookintegrate/internal/isbn"
	"github.com/lehigh-university-libraries/bookintegrate/internal/normalize"
)

// BookID returns the canonical identity of a record: its ISBN-13 when one is
// present and well formed, otherwise the SHA-1 hex digest of
// "title|author|publisher|year" built from the normalized fields. Changing
// the field order, separator, casing or digest regroups the whole catalog.
func BookID(r *Record) string {
	if r.ISBN13 != nil {
		if id := isbn.NormalizeISBN13(*r.ISBN13); id != "" {
			return id
		}
	}

	var year string
	if r.PubYear != nil {
		year = strconv.FormatInt(*r.PubYear, 10)
	}

	return FallbackID(deref(r.TitleNormalized), r.AuthorKey, r.PublisherKey, year)
}

// FallbackID hashes the descriptive identity tuple of a book without ISBN-13
func FallbackID(title, author, publisher, year string) string {
	key := strings.Join([]string{
		normalize.Key(title),
		normalize.Key(author),
		normalize.Key(publisher),
		normalize.Key(year),
	}, "|")

	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
