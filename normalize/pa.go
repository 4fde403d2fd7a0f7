package normalize

import (
	"log/slog"
	"strings"

	"noc-stats/connectors/workbook"
	"noc-stats/domain/network"
	"noc-stats/metrics"

	"github.com/rickb777/date"
)

const tablePA = "pa"

// paColumn is one date column of the wide PA sheet.
type paColumn struct {
	index int
	raw   string
	day   network.Null[date.Date]
}

// NormalizePA reshapes the wide PA sheet (one column per date) into one row
// per site and date, joined onto the site directory.
func NormalizePA(s workbook.Sheet, dir *Directory, opts Options) (network.Table[network.PAMeasurement], Quality, error) {
	var q Quality
	table := network.Table[network.PAMeasurement]{Columns: network.PAColumns}

	siteIdx, ok := siteColumn(s, opts.SiteIDAliases)
	if !ok {
		return table, q, &network.SchemaError{Sheet: s.Name, Column: network.ColSiteID}
	}

	var cols []paColumn
	for i, h := range s.Header {
		if i == siteIdx || strings.TrimSpace(h) == "" {
			continue
		}
		cols = append(cols, paColumn{index: i, raw: strings.TrimSpace(h)})
	}
	strategy := parseHeaders(cols)
	if len(cols) > 0 && strategy == "" {
		q.DateAxisUnusable = true
		q.warn("normalize.pa.date_axis_unusable", "none of %d PA column headers parsed as a date", len(cols))
	} else {
		slog.Debug("normalize.pa.headers", "strategy", strategy, "columns", len(cols))
	}

	placeholder := opts.Placeholder
	rows := make([]network.PAMeasurement, 0, len(s.Rows)*len(cols))
	for i, row := range s.Rows {
		if siteIdx >= len(row) {
			continue
		}
		siteID := strings.TrimSpace(row[siteIdx])
		if siteID == "" {
			continue
		}
		site, matched := dir.Lookup(siteID)
		if !matched {
			q.UnmatchedSites++
		}
		for _, c := range cols {
			if c.index >= len(row) {
				continue
			}
			raw := strings.TrimSpace(row[c.index])
			if raw == "" {
				continue
			}
			m := network.PAMeasurement{SiteID: siteID, Date: c.day, Site: site}
			if placeholder == "" || raw != placeholder {
				if v, ok := paValue(raw); ok {
					m.Value = network.Some(v)
				} else {
					q.degrade(tablePA, c.raw, i+1, raw)
				}
			}
			rows = append(rows, m)
		}
	}

	metrics.RowsNormalized.WithLabelValues(tablePA).Add(float64(len(rows)))
	return table.WithRows(rows), q, nil
}

func siteColumn(s workbook.Sheet, aliases []string) (int, bool) {
	if i, ok := s.Index(network.ColSiteID); ok {
		return i, true
	}
	for _, a := range aliases {
		if i, ok := s.Index(a); ok {
			return i, true
		}
	}
	return 0, false
}

// parseHeaders applies the first header strategy that yields at least one
// date and returns its name, or "" when every strategy fails.
func parseHeaders(cols []paColumn) string {
	for _, st := range headerStrategies {
		hit := false
		for i := range cols {
			if d, ok := st.parse(cols[i].raw); ok {
				cols[i].day = network.Some(d)
				hit = true
			} else {
				cols[i].day = network.None[date.Date]()
			}
		}
		if hit {
			return st.name
		}
	}
	return ""
}

func paValue(raw string) (float64, bool) {
	v, ok := ParseNumber(raw)
	if !ok || v < 0 || v > 100 {
		return 0, false
	}
	return Round2(v), true
}
