// Package table exposes typed rows as named columns, following the row
// types' parquet tags. It backs the metrics, the schema document and the
// flat-file exports.
package table

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookintegrate/internal/normalize"
)

// Column types
const (
	TypeString    = "string"
	TypeFloat     = "float64"
	TypeInt       = "int64"
	TypeBool      = "bool"
	TypeList      = "list<string>"
	TypeTimestamp = "timestamp"
)

// Column is one named column. A nil entry in Values is a null.
type Column struct {
	Name   string
	Type   string
	Values []any
}

// Table is a named, ordered set of columns
type Table struct {
	Name    string
	Rows    int
	Columns []Column
}

type field struct {
	index int
	name  string
	typ   string
}

// New builds a table from a slice of structs
func New[T any](name string, rows []T) Table {
	return Table{
		Name:    name,
		Rows:    len(rows),
		Columns: Columns(rows),
	}
}

// Columns turns rows into columns in struct field order. Fields tagged
// parquet:"-" or without a parquet tag are skipped.
func Columns[T any](rows []T) []Column {
	fields := fieldsOf(reflect.TypeOf((*T)(nil)).Elem())

	cols := make([]Column, len(fields))
	for i, fd := range fields {
		cols[i] = Column{Name: fd.name, Type: fd.typ, Values: make([]any, len(rows))}
	}

	for r := range rows {
		v := reflect.ValueOf(&rows[r]).Elem()
		for i, fd := range fields {
			cols[i].Values[r] = value(v.Field(fd.index))
		}
	}
	return cols
}

func fieldsOf(t reflect.Type) []field {
	var fields []field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, ok := sf.Tag.Lookup("parquet")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" || name == "" {
			continue
		}
		fields = append(fields, field{index: i, name: name, typ: typeOf(sf.Type)})
	}
	return fields
}

func typeOf(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeOf(time.Time{}) {
		return TypeTimestamp
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return TypeFloat
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return TypeInt
	case reflect.Bool:
		return TypeBool
	case reflect.Slice:
		return TypeList
	default:
		return TypeString
	}
}

// value unwraps pointers and widens numbers so columns hold string,
// float64, int64, bool, []string, time.Time or nil.
func value(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Bool:
		return v.Bool()
	case reflect.Slice:
		if v.IsNil() {
			return []string{}
		}
		out := make([]string, v.Len())
		for i := range out {
			out[i] = v.Index(i).String()
		}
		return out
	}

	if t, ok := v.Interface().(time.Time); ok {
		return t
	}
	return v.Interface()
}

// Names returns the column names in order
func (t Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Row returns row i as formatted strings, nulls as ""
func (t Table) Row(i int) []string {
	out := make([]string, len(t.Columns))
	for c, col := range t.Columns {
		out[c] = Format(col.Values[i])
	}
	return out
}

// Nulls counts null entries in the column
func (c Column) Nulls() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// NullFraction is the share of null entries, 0 for an empty column
func (c Column) NullFraction() float64 {
	if len(c.Values) == 0 {
		return 0
	}
	return float64(c.Nulls()) / float64(len(c.Values))
}

// FirstValue returns the first entry that is neither null nor an empty list
func (c Column) FirstValue() (any, bool) {
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		if list, ok := v.([]string); ok && len(list) == 0 {
			continue
		}
		return v, true
	}
	return nil, false
}

// Format renders a column value as text. Lists are pipe-joined.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case []string:
		return strings.Join(x, normalize.ListSeparator)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
