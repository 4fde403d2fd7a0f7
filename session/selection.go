package session

import (
	"fmt"
	"strings"
	"time"

	"noc-stats/domain/network"
	"noc-stats/filter"
	"noc-stats/normalize"

	"github.com/rickb777/date"
	"github.com/samber/lo"
)

var (
	firstDay = date.New(1900, time.January, 1)
	lastDay  = date.New(9999, time.December, 31)
)

// Selection is the set of operator choices behind a view. Empty fields
// do not filter.
type Selection struct {
	From, To network.Null[date.Date]
	Sites    []string
	// Customer matches as a substring of the site's tenants.
	Customer string
	Zones    []string
	Regions  []string
	States   []string
	RTOs     []string
	FSEs     []string
	SBCs     []string
}

// Spec turns the selection into filter clauses.
func (sel Selection) Spec() filter.Spec {
	var spec filter.Spec
	if sel.From.Valid || sel.To.Valid {
		r := filter.DateRange{From: firstDay, To: lastDay}
		if sel.From.Valid {
			r.From = sel.From.V
		}
		if sel.To.Valid {
			r.To = sel.To.V
		}
		spec = spec.With(network.ColDate, r)
	}
	for _, c := range []struct {
		column string
		values []string
	}{
		{network.ColSiteID, sel.Sites},
		{network.ColZone, sel.Zones},
		{network.ColRegion, sel.Regions},
		{network.ColState, sel.States},
		{network.ColRTO, sel.RTOs},
		{network.ColFSE, sel.FSEs},
		{network.ColSBC, sel.SBCs},
	} {
		if len(c.values) > 0 {
			spec = spec.With(c.column, filter.Strings(c.values...))
		}
	}
	if sel.Customer != "" {
		spec = spec.With(network.ColTenantsOnSite, filter.Substring{Text: sel.Customer})
	}
	return spec
}

// Selection keys accepted by ParseSelection.
const (
	KeyFrom     = "from"
	KeyTo       = "to"
	KeySite     = "site"
	KeyCustomer = "customer"
	KeyZone     = "zone"
	KeyRegion   = "region"
	KeyState    = "state"
	KeyRTO      = "rto"
	KeyFSE      = "fse"
	KeySBC      = "sbc"
)

// ParseSelection reads a selection from key/values pairs such as URL query
// parameters. List values may also be comma separated.
func ParseSelection(get func(key string) []string) (Selection, error) {
	list := func(key string) []string {
		var out []string
		for _, v := range get(key) {
			out = append(out, lo.Compact(lo.Map(strings.Split(v, ","), func(s string, _ int) string {
				return strings.TrimSpace(s)
			}))...)
		}
		return out
	}
	day := func(key string) (network.Null[date.Date], error) {
		vals := list(key)
		if len(vals) == 0 {
			return network.None[date.Date](), nil
		}
		d, ok := normalize.ParseDate(vals[0])
		if !ok {
			return network.None[date.Date](), fmt.Errorf("%s: invalid date %q", key, vals[0])
		}
		return network.Some(d), nil
	}

	var sel Selection
	var err error
	if sel.From, err = day(KeyFrom); err != nil {
		return sel, err
	}
	if sel.To, err = day(KeyTo); err != nil {
		return sel, err
	}
	if sel.From.Valid && sel.To.Valid && sel.To.V.Before(sel.From.V) {
		sel.From, sel.To = sel.To, sel.From
	}
	sel.Sites = list(KeySite)
	sel.Zones = list(KeyZone)
	sel.Regions = list(KeyRegion)
	sel.States = list(KeyState)
	sel.RTOs = list(KeyRTO)
	sel.FSEs = list(KeyFSE)
	sel.SBCs = list(KeySBC)
	if c := get(KeyCustomer); len(c) > 0 {
		sel.Customer = strings.TrimSpace(c[0])
	}
	return sel, nil
}
