package network

import (
	"math"
	"strconv"
	"strings"

	"github.com/rickb777/date"
)

// Kind tags the content of a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindDate
)

// Value is a single typed cell of a normalized table.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	day  date.Date
}

// NullValue returns the null Value.
func NullValue() Value { return Value{} }

// Text returns a string Value. Empty text is null, matching how blank
// spreadsheet cells are read.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindString, str: s}
}

// Number returns a numeric Value; NaN is null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Int is a convenience for Number(float64(i)).
func Int(i int64) Value { return Number(float64(i)) }

// Day returns a date Value.
func Day(d date.Date) Value { return Value{kind: KindDate, day: d} }

// FromNull lifts a nullable into a Value using conv for the valid case.
func FromNull[T any](n Null[T], conv func(T) Value) Value {
	if !n.Valid {
		return Value{}
	}
	return conv(n.V)
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string content, or "" for non-string values.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// Float returns the numeric content.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Date returns the date content.
func (v Value) Date() (date.Date, bool) {
	return v.day, v.kind == KindDate
}

// Equal reports whether two values have the same kind and content.
// Null never equals anything, including another null.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindDate:
		return v.day.Equal(o.day)
	}
	return false
}

// Less orders values of the same kind; nulls sort last.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		if v.kind == KindNull {
			return false
		}
		if o.kind == KindNull {
			return true
		}
		return v.kind < o.kind
	}
	switch v.kind {
	case KindString:
		return v.str < o.str
	case KindNumber:
		return v.num < o.num
	case KindDate:
		return v.day.Before(o.day)
	}
	return false
}

// String renders the value the way it is written to CSV.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.day.String()
	}
	return ""
}

// Contains is a case-insensitive substring test; null never matches.
func (v Value) Contains(needle string) bool {
	if v.kind == KindNull {
		return false
	}
	return strings.Contains(strings.ToLower(v.String()), strings.ToLower(needle))
}

// Null is a nullable scalar.
type Null[T any] struct {
	V     T
	Valid bool
}

// Some wraps a valid value.
func Some[T any](v T) Null[T] { return Null[T]{V: v, Valid: true} }

// None returns the invalid value of T.
func None[T any]() Null[T] { return Null[T]{} }
