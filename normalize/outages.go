package normalize

import (
	"strings"
	"time"

	"noc-stats/connectors/workbook"
	"noc-stats/domain/network"
	"noc-stats/metrics"

	"github.com/samber/lo"
)

const tableOutages = "outages"

// Options tune normalization.
type Options struct {
	// RetainYears keeps outages from the last N calendar years, the current
	// one included. 0 keeps everything.
	RetainYears int
	// Now is the processing clock, time.Now when nil.
	Now func() time.Time
	// SiteIDAliases are alternate labels of the site id column on the PA sheet.
	SiteIDAliases []string
	// Placeholder is the PA token meaning "no measurement".
	Placeholder string
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// retained reports whether a year falls in the retention window.
func (o Options) retained(year network.Null[int]) bool {
	if o.RetainYears <= 0 {
		return true
	}
	if !year.Valid {
		return false
	}
	current := o.now().Year()
	return year.V <= current && year.V > current-o.RetainYears
}

// Outages holds the outage table in two scopes.
type Outages struct {
	// Retained is limited to the retention window.
	Retained network.Table[network.OutageEvent]
	// History is every normalized row regardless of year, used for
	// period-boundary lookups.
	History network.Table[network.OutageEvent]
}

// outageOwnColumns are parsed into typed fields rather than passed through.
var outageOwnColumns = append(append([]string{}, network.OutageBaseColumns...), network.ColTenantsOnSite)

// NormalizeOutages cleans the raw outage sheet and joins it onto the site
// directory. Unparseable cells become null; no row is dropped except by the
// retention window.
func NormalizeOutages(s workbook.Sheet, dir *Directory, opts Options) (Outages, Quality, error) {
	var q Quality
	if err := s.RequireColumns(network.ColSiteID, network.ColDate, network.ColDuration); err != nil {
		return Outages{}, q, err
	}

	// Source columns that collide with joined site attributes give way to the
	// directory, the same way the stale tenants column does.
	extras := lo.Filter(s.Header, func(h string, _ int) bool {
		return h != "" && !lo.Contains(outageOwnColumns, h) && !lo.Contains(network.SiteColumns, h)
	})
	extras = lo.Uniq(extras)
	columns := make([]string, 0, len(network.OutageBaseColumns)+len(extras)+len(network.SiteColumns))
	columns = append(columns, network.OutageBaseColumns...)
	columns = append(columns, extras...)
	columns = append(columns, network.SiteColumns[1:]...)

	history := make([]network.OutageEvent, 0, len(s.Rows))
	retained := make([]network.OutageEvent, 0, len(s.Rows))
	for i, row := range s.Rows {
		ev := outageRow(&q, s, row, i+1, extras)
		if site, ok := dir.Lookup(ev.SiteID); ok {
			ev.Site = site
		} else {
			q.UnmatchedSites++
		}
		history = append(history, ev)
		if opts.retained(ev.Year) {
			retained = append(retained, ev)
		} else {
			q.OutOfWindow++
		}
	}

	metrics.RowsNormalized.WithLabelValues(tableOutages).Add(float64(len(retained)))
	return Outages{
		Retained: network.Table[network.OutageEvent]{Columns: columns, Rows: retained},
		History:  network.Table[network.OutageEvent]{Columns: columns, Rows: history},
	}, q, nil
}

func outageRow(q *Quality, s workbook.Sheet, row []string, n int, extras []string) network.OutageEvent {
	get := func(col string) string { return strings.TrimSpace(s.Get(row, col)) }
	ev := network.OutageEvent{SiteID: get(network.ColSiteID)}

	if raw := get(network.ColDate); raw != "" {
		if d, ok := ParseDate(raw); ok {
			ev.Date = network.Some(d)
		} else {
			q.degrade(tableOutages, network.ColDate, n, raw)
		}
	}
	if raw := get(network.ColDuration); raw != "" {
		if secs, ok := ParseDuration(raw); ok {
			ev.Duration = network.Some(secs)
		} else {
			q.degrade(tableOutages, network.ColDuration, n, raw)
		}
	}
	ev.Year = intColumn(q, n, network.ColYear, get(network.ColYear))
	ev.Week = intColumn(q, n, network.ColWeek, get(network.ColWeek))
	if s.Has(network.ColOutageCount) {
		if c := intColumn(q, n, network.ColOutageCount, get(network.ColOutageCount)); c.Valid {
			ev.Count = network.Some(int64(c.V))
		}
	}

	month := get(network.ColMonth)
	if ev.Date.Valid {
		if !ev.Year.Valid {
			ev.Year = network.Some(ev.Date.V.Year())
		}
		if !ev.Week.Valid {
			_, w := ev.Date.V.ISOWeek()
			ev.Week = network.Some(w)
		}
		if _, ok := network.MonthFromName(month); !ok {
			month = ev.Date.V.Month().String()
		}
	}
	ev.Month = month

	if len(extras) > 0 {
		ev.Extra = make(map[string]string, len(extras))
		for _, col := range extras {
			if v := get(col); v != "" {
				ev.Extra[col] = v
			}
		}
	}
	return ev
}

func intColumn(q *Quality, n int, column, raw string) network.Null[int] {
	if raw == "" {
		return network.None[int]()
	}
	v, ok := ParseInt(raw)
	if !ok {
		q.degrade(tableOutages, column, n, raw)
		return network.None[int]()
	}
	return network.Some(v)
}
