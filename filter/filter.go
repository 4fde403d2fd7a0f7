// Package filter narrows normalized tables with an ordered list of column
// predicates. Filters never mutate their input.
package filter

import (
	"noc-stats/domain/network"

	"github.com/rickb777/date"
	"github.com/samber/lo"
)

// Filter is one column predicate. A Filter with nothing to test reports
// Empty and leaves the column untouched.
type Filter interface {
	Match(v network.Value) bool
	Empty() bool
}

// Range keeps numbers within [Min, Max].
type Range struct {
	Min, Max float64
}

func (r Range) Empty() bool { return false }

func (r Range) Match(v network.Value) bool {
	f, ok := v.Float()
	return ok && f >= r.Min && f <= r.Max
}

// DateRange keeps dates within [From, To].
type DateRange struct {
	From, To date.Date
}

func (r DateRange) Empty() bool { return false }

func (r DateRange) Match(v network.Value) bool {
	d, ok := v.Date()
	return ok && !d.Before(r.From) && !d.After(r.To)
}

// Set keeps values equal to one of Values.
type Set struct {
	Values []network.Value
}

// Strings builds a Set of text values; blanks are skipped.
func Strings(values ...string) Set {
	vals := lo.FilterMap(values, func(s string, _ int) (network.Value, bool) {
		return network.Text(s), s != ""
	})
	return Set{Values: vals}
}

func (s Set) Empty() bool { return len(s.Values) == 0 }

func (s Set) Match(v network.Value) bool {
	return lo.ContainsBy(s.Values, func(o network.Value) bool { return o.Equal(v) })
}

// Substring keeps values containing Text, ignoring case. Null never matches.
type Substring struct {
	Text string
}

func (s Substring) Empty() bool { return s.Text == "" }

func (s Substring) Match(v network.Value) bool { return v.Contains(s.Text) }

// Exact keeps values equal to Value.
type Exact struct {
	Value network.Value
}

// Is builds an Exact text filter.
func Is(s string) Exact { return Exact{Value: network.Text(s)} }

func (e Exact) Empty() bool { return e.Value.IsNull() }

func (e Exact) Match(v network.Value) bool { return e.Value.Equal(v) }

// Clause binds a filter to a column.
type Clause struct {
	Column string
	Filter Filter
}

// Spec is an ordered list of clauses combined with AND.
type Spec []Clause

// With returns a copy of the spec with one more clause.
func (s Spec) With(column string, f Filter) Spec {
	out := make(Spec, 0, len(s)+1)
	out = append(out, s...)
	return append(out, Clause{Column: column, Filter: f})
}

// Active drops clauses whose filter is empty.
func (s Spec) Active() Spec {
	return lo.Filter(s, func(c Clause, _ int) bool { return c.Filter != nil && !c.Filter.Empty() })
}

// For keeps the clauses on columns a table carries. A clause on a column
// the table lacks would otherwise reject every row.
func (s Spec) For(columns []string) Spec {
	return lo.Filter(s, func(c Clause, _ int) bool { return lo.Contains(columns, c.Column) })
}

// Apply returns the rows of t matching every clause of spec.
func Apply[R network.Row](t network.Table[R], spec Spec) network.Table[R] {
	out, _ := Trace(t, spec)
	return out
}

// Trace is Apply that also reports the column of the first clause that
// turned a non-empty table empty, "" when the result is not a selection miss.
func Trace[R network.Row](t network.Table[R], spec Spec) (network.Table[R], string) {
	rows := t.Rows
	miss := ""
	for _, c := range spec.Active() {
		before := len(rows)
		rows = lo.Filter(rows, func(r R, _ int) bool { return c.Filter.Match(r.Field(c.Column)) })
		if before > 0 && len(rows) == 0 && miss == "" {
			miss = c.Column
		}
	}
	if len(spec.Active()) == 0 {
		rows = append([]R(nil), t.Rows...)
	}
	return t.WithRows(rows), miss
}

// Options lists the distinct non-null values of column, sorted.
func Options[R network.Row](t network.Table[R], column string) []network.Value {
	vals := lo.FilterMap(t.Rows, func(r R, _ int) (network.Value, bool) {
		v := r.Field(column)
		return v, !v.IsNull()
	})
	vals = lo.UniqBy(vals, func(v network.Value) string { return v.String() })
	sortValues(vals)
	return vals
}

// OptionStrings is Options rendered as text.
func OptionStrings[R network.Row](t network.Table[R], column string) []string {
	return lo.Map(Options(t, column), func(v network.Value, _ int) string { return v.String() })
}

// DateBounds returns the earliest and latest date in column.
func DateBounds[R network.Row](t network.Table[R], table, column string) (DateRange, error) {
	var r DateRange
	found := false
	for _, row := range t.Rows {
		d, ok := row.Field(column).Date()
		if !ok {
			continue
		}
		if !found || d.Before(r.From) {
			r.From = d
		}
		if !found || d.After(r.To) {
			r.To = d
		}
		found = true
	}
	if !found {
		return r, &network.EmptyRangeError{Table: table, Column: column}
	}
	return r, nil
}
