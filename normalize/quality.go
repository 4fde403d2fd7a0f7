package normalize

import (
	"fmt"
	"log/slog"

	"noc-stats/domain/network"
	"noc-stats/metrics"
)

// Quality collects the non-fatal findings of a normalization run.
type Quality struct {
	Degradations []network.ParseDegradation
	Warnings     []string
	// DateAxisUnusable is set when no PA column header parsed as a date.
	DateAxisUnusable bool
	// OutOfWindow counts outage rows dropped by the year retention window.
	OutOfWindow int
	// UnmatchedSites counts rows whose site id has no directory entry.
	UnmatchedSites int
}

func (q *Quality) degrade(table, column string, row int, raw string) {
	q.Degradations = append(q.Degradations, network.ParseDegradation{Table: table, Column: column, Row: row, Raw: raw})
	metrics.ParseDegradations.WithLabelValues(table, column).Inc()
}

func (q *Quality) warn(event string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slog.Warn(event, "detail", msg)
	q.Warnings = append(q.Warnings, msg)
}

// Count returns the degradations recorded for table and column.
func (q Quality) Count(table, column string) int {
	n := 0
	for _, d := range q.Degradations {
		if d.Table == table && d.Column == column {
			n++
		}
	}
	return n
}

// Merge combines two reports.
func (q Quality) Merge(o Quality) Quality {
	return Quality{
		Degradations:     append(append([]network.ParseDegradation(nil), q.Degradations...), o.Degradations...),
		Warnings:         append(append([]string(nil), q.Warnings...), o.Warnings...),
		DateAxisUnusable: q.DateAxisUnusable || o.DateAxisUnusable,
		OutOfWindow:      q.OutOfWindow + o.OutOfWindow,
		UnmatchedSites:   q.UnmatchedSites + o.UnmatchedSites,
	}
}
