// Package session holds one normalized workbook and answers filtered views
// and KPI cards over it. A Session never changes after New returns, so it
// can serve concurrent requests.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"noc-stats/connectors/workbook"
	dc "noc-stats/domain/config"
	"noc-stats/domain/network"
	"noc-stats/filter"
	"noc-stats/kpi"
	"noc-stats/metrics"
	"noc-stats/normalize"

	"github.com/goodsign/monday"
	"github.com/rickb777/date"
	"github.com/samber/lo"
)

const tablePA = "pa"

// Session is the normalized content of one workbook.
type Session struct {
	ID     string
	Source string
	Digest string
	Loaded time.Time

	Directory *normalize.Directory
	Outages   normalize.Outages
	PA        network.Table[network.PAMeasurement]
	// Aux keeps the sheets that are read but not normalized.
	Aux     map[string]workbook.Sheet
	Quality normalize.Quality

	// OutageBounds is zero when the retained outages carry no date.
	OutageBounds network.Null[filter.DateRange]
	PABounds     filter.DateRange

	report dc.Report
	base   filter.Spec
}

// New runs the whole pipeline over book. Structural problems, a missing
// sheet or column or a PA sheet whose dates are all unusable, are returned
// as *network.SchemaError or *network.EmptyRangeError.
func New(book *workbook.Book, cfg dc.Config, now func() time.Time) (*Session, error) {
	if now == nil {
		now = time.Now
	}
	start := time.Now()
	s, err := build(book, cfg, now)
	metrics.NormalizeDuration.Observe(time.Since(start).Seconds())
	metrics.WorkbooksLoaded.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		slog.Error("session.load.error", "source", book.Source, "err", err)
		return nil, err
	}
	slog.Info("session.loaded",
		"source", s.Source,
		"sites", s.Directory.Sites.Len(),
		"tenants", s.Directory.Tenants.Len(),
		"outages", s.Outages.Retained.Len(),
		"history", s.Outages.History.Len(),
		"pa", s.PA.Len(),
		"degradations", len(s.Quality.Degradations),
		"elapsed", time.Since(start))
	return s, nil
}

// Load opens the workbook at path, an .xlsx file or a directory of CSV
// sheets, and runs New over it.
func Load(path string, cfg dc.Config, now func() time.Time) (*Session, error) {
	book, err := workbook.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return New(book, cfg, now)
}

func build(book *workbook.Book, cfg dc.Config, now func() time.Time) (*Session, error) {
	if err := book.Require(cfg.Sheets.Names()...); err != nil {
		return nil, err
	}
	sheet := func(name string) workbook.Sheet {
		sh, _ := book.Sheet(name)
		return sh
	}

	opts := normalize.Options{
		RetainYears:   cfg.Outages.RetainYears,
		Now:           now,
		SiteIDAliases: cfg.PA.SiteIDAliases,
		Placeholder:   cfg.PA.Placeholder,
	}
	dir, q, err := normalize.BuildDirectory(sheet(cfg.Sheets.Directory))
	if err != nil {
		return nil, fmt.Errorf("site directory: %w", err)
	}
	outages, oq, err := normalize.NormalizeOutages(sheet(cfg.Sheets.Outages), dir, opts)
	if err != nil {
		return nil, fmt.Errorf("outages: %w", err)
	}
	pa, pq, err := normalize.NormalizePA(sheet(cfg.Sheets.PA), dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pa: %w", err)
	}

	s := &Session{
		Source:    book.Source,
		Digest:    book.Digest,
		Loaded:    now(),
		Directory: dir,
		Outages:   outages,
		PA:        pa,
		Aux: map[string]workbook.Sheet{
			cfg.Sheets.RNA: sheet(cfg.Sheets.RNA),
			cfg.Sheets.TCH: sheet(cfg.Sheets.TCH),
		},
		Quality: q.Merge(oq).Merge(pq),
		report:  cfg.Report,
	}

	s.PABounds, err = filter.DateBounds(pa, tablePA, network.ColDate)
	if err != nil {
		return nil, err
	}
	if r, err := filter.DateBounds(outages.Retained, "outages", network.ColDate); err == nil {
		s.OutageBounds = network.Some(r)
	} else {
		slog.Warn("session.outages.no_dates", "rows", outages.Retained.Len())
	}

	if cfg.Report.Zone != "" {
		s.base = s.base.With(network.ColZone, filter.Is(cfg.Report.Zone))
	}
	return s, nil
}

func outcome(err error) string {
	var se *network.SchemaError
	var er *network.EmptyRangeError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "schema_error"
	case errors.As(err, &er):
		return "empty_range"
	}
	return "error"
}

// View is the filtered content of a session.
type View struct {
	Outages network.Table[network.OutageEvent]
	History network.Table[network.OutageEvent]
	PA      network.Table[network.PAMeasurement]
	Tenants network.Table[network.TenantSiteRecord]
	// Miss names the clause that emptied the outage table, "" otherwise.
	Miss string
}

// Spec prefixes spec with the session's base filter. An explicit zone
// clause replaces the configured zone.
func (s *Session) Spec(spec filter.Spec) filter.Spec {
	if lo.ContainsBy(spec, func(c filter.Clause) bool { return c.Column == network.ColZone }) {
		return spec
	}
	return append(append(filter.Spec{}, s.base...), spec...)
}

// View filters the base tables. Each table only sees the clauses on columns
// it carries.
func (s *Session) View(spec filter.Spec) View {
	spec = s.Spec(spec)
	outages, miss := filter.Trace(s.Outages.Retained, spec.For(s.Outages.Retained.Columns))
	return View{
		Outages: outages,
		History: filter.Apply(s.Outages.History, spec.For(s.Outages.History.Columns)),
		PA:      filter.Apply(s.PA, spec.For(s.PA.Columns)),
		Tenants: filter.Apply(s.Directory.Tenants, spec.For(s.Directory.Tenants.Columns)),
		Miss:    miss,
	}
}

// Input is the KPI input for a view. The outage reference date comes from
// the unfiltered outages; the PA one from the filtered PA rows, falling back
// to the unfiltered series when the view has no PA dates.
func (s *Session) Input(v View) kpi.Input {
	in := kpi.Input{
		Outages: v.Outages,
		History: v.History,
		PA:      v.PA,
		PARef:   network.Some(s.PABounds.To),
		Locale:  monday.Locale(s.report.Locale),
	}
	if r, err := filter.DateBounds(v.PA, tablePA, network.ColDate); err == nil {
		in.PARef = network.Some(r.To)
	}
	if s.OutageBounds.Valid {
		in.OutageRef = network.Some(s.OutageBounds.V.To)
	} else {
		in.OutageRef = network.None[date.Date]()
	}
	return in
}

// Cards computes the KPI cards for spec.
func (s *Session) Cards(spec filter.Spec) kpi.Cards {
	return kpi.Compute(s.Input(s.View(spec)))
}

// TenantLabel lists the tenants of a site joined for display.
func (s *Session) TenantLabel(siteID string) string {
	return s.Directory.TenantLabel(siteID)
}

// Summary is the site summary of a view's tenant rows.
func (s *Session) Summary(v View) kpi.Summary {
	return kpi.SiteSummary(v.Tenants, s.report.ExcludedProjects)
}

// BelowTarget lists the PA rows of a view that miss the configured target.
func (s *Session) BelowTarget(v View) network.Table[network.PAMeasurement] {
	return kpi.BelowTarget(v.PA, s.report.TargetPA)
}

// Customers lists the configured customer names.
func (s *Session) Customers() []string { return s.report.Customers }
