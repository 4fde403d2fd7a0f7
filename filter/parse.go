package filter

import (
	"fmt"
	"sort"
	"strings"

	"noc-stats/domain/network"
	"noc-stats/normalize"

	"github.com/samber/lo"
)

const (
	rangeSep     = ".."
	setSep       = "|"
	substringTag = "~"
	exactTag     = "="
)

// ParseClause turns query text into a filter for column. The column is
// checked first so that "a..b" on a date column is a DateRange and on a
// numeric column a Range. Then "a|b|c" is a Set and "=text" an Exact match.
// Any other text is a case-insensitive Substring ("~text" forces one on
// date and numeric columns). Blank text yields an empty filter.
func ParseClause(column, expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Set{}, nil
	}
	if strings.HasPrefix(expr, substringTag) {
		return Substring{Text: strings.TrimPrefix(expr, substringTag)}, nil
	}
	exact := strings.HasPrefix(expr, exactTag)
	if exact {
		expr = strings.TrimSpace(strings.TrimPrefix(expr, exactTag))
	}

	switch {
	case network.IsDateColumn(column):
		if from, to, ok := strings.Cut(expr, rangeSep); ok {
			f, okf := normalize.ParseDate(from)
			t, okt := normalize.ParseDate(to)
			if !okf || !okt {
				return nil, fmt.Errorf("column %s: invalid date range %q", column, expr)
			}
			if t.Before(f) {
				f, t = t, f
			}
			return DateRange{From: f, To: t}, nil
		}
		parts := strings.Split(expr, setSep)
		vals := make([]network.Value, 0, len(parts))
		for _, p := range parts {
			d, ok := normalize.ParseDate(p)
			if !ok {
				return nil, fmt.Errorf("column %s: invalid date %q", column, p)
			}
			vals = append(vals, network.Day(d))
		}
		if len(vals) == 1 {
			return Exact{Value: vals[0]}, nil
		}
		return Set{Values: vals}, nil

	case network.IsNumericColumn(column):
		if low, high, ok := strings.Cut(expr, rangeSep); ok {
			l, okl := normalize.ParseNumber(low)
			h, okh := normalize.ParseNumber(high)
			if !okl || !okh {
				return nil, fmt.Errorf("column %s: invalid range %q", column, expr)
			}
			if h < l {
				l, h = h, l
			}
			return Range{Min: l, Max: h}, nil
		}
		parts := strings.Split(expr, setSep)
		vals := make([]network.Value, 0, len(parts))
		for _, p := range parts {
			f, ok := normalize.ParseNumber(p)
			if !ok {
				return nil, fmt.Errorf("column %s: invalid number %q", column, p)
			}
			vals = append(vals, network.Number(f))
		}
		if len(vals) == 1 {
			return Exact{Value: vals[0]}, nil
		}
		return Set{Values: vals}, nil
	}

	if strings.Contains(expr, setSep) {
		return Strings(lo.Map(strings.Split(expr, setSep), func(s string, _ int) string { return strings.TrimSpace(s) })...), nil
	}
	if exact {
		return Is(expr), nil
	}
	return Substring{Text: expr}, nil
}

// ParseSpec parses column/expression pairs in the given column order.
func ParseSpec(columns []string, exprs map[string]string) (Spec, error) {
	var spec Spec
	for _, col := range columns {
		expr, ok := exprs[col]
		if !ok {
			continue
		}
		f, err := ParseClause(col, expr)
		if err != nil {
			return nil, err
		}
		spec = spec.With(col, f)
	}
	return spec, nil
}

func sortValues(vals []network.Value) {
	sort.SliceStable(vals, func(i, j int) bool { return vals[i].Less(vals[j]) })
}
