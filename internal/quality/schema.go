package quality

import (
	"fmt"
	"io"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/lehigh-university-libraries/bookintegrate/internal/table"
	"github.com/lehigh-university-libraries/bookintegrate/internal/validation"
)

const exampleWidth = 40

var survivorshipRules = []string{
	"book_id is the normalized ISBN-13 when present, otherwise the SHA-1 of title|author|publisher|year (trimmed, lowercased)",
	"Only records without validation errors can win",
	"Within a book_id, prefer a record with an ISBN-13, then one with a price, then the higher priority source (googlebooks > goodreads > other), then the longest title",
	"Authors and categories are the sorted union over all valid records of the book",
	"book_source_detail keeps every input record, valid or not, with its error codes",
}

// WriteSchema renders a markdown description of each table: column name,
// type, nullability and an example value.
func WriteSchema(w io.Writer, tables ...table.Table) error {
	doc := md.NewMarkdown(w)
	doc.H1("Table schema").LF()

	for _, t := range tables {
		doc.H2(t.Name).LF()
		doc.PlainTextf("%d rows, %d columns", t.Rows, len(t.Columns)).LF().LF()

		rows := make([][]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			rows = append(rows, []string{c.Name, c.Type, Nullability(c), escape(Example(c))})
		}
		doc.Table(md.TableSet{
			Header: []string{"column", "type", "nullability", "example"},
			Rows:   rows,
		})
		doc.LF()
	}

	doc.H2("Survivorship").LF()
	doc.BulletList(survivorshipRules...)
	doc.LF()

	doc.H2("Validation rules").LF()
	rules := make([][]string, 0, len(validation.Rules))
	for _, r := range validation.Rules {
		rules = append(rules, []string{r.Code, r.Description})
	}
	doc.Table(md.TableSet{
		Header: []string{"code", "violated when"},
		Rows:   rules,
	})

	if err := doc.Build(); err != nil {
		return fmt.Errorf("failed to render schema document: %w", err)
	}
	return nil
}

// Nullability is "NOT NULL" for a column without nulls, else the null share
func Nullability(c table.Column) string {
	pct := c.NullFraction()
	if pct == 0 {
		return "NOT NULL"
	}
	return fmt.Sprintf("NULL (%.1f%%)", pct*100)
}

// Example returns the first value that is neither null nor an empty list,
// truncated to 40 characters. A list column of only empty lists shows "[]".
func Example(c table.Column) string {
	v, ok := c.FirstValue()
	if !ok {
		if c.Type == table.TypeList && c.Nulls() < len(c.Values) {
			return "[]"
		}
		return ""
	}
	text := []rune(table.Format(v))
	if len(text) > exampleWidth {
		return string(text[:exampleWidth-3]) + "..."
	}
	return string(text)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
