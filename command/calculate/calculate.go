package calculate

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"noc-stats/connectors/config"
	ccsv "noc-stats/connectors/csv"
	"noc-stats/filter"
	"noc-stats/kpi"
	"noc-stats/session"
)

// Extract file names.
const (
	OutageExtract = "outage_data.csv"
	PAExtract     = "pa_data.csv"
)

// clauses collects repeated -where Column=expr flags.
type clauses []string

func (c *clauses) String() string     { return strings.Join(*c, "; ") }
func (c *clauses) Set(v string) error { *c = append(*c, v); return nil }

// Report is what calculate prints.
type Report struct {
	Source   string      `json:"source"`
	Cards    kpi.Cards   `json:"cards"`
	Summary  kpi.Summary `json:"summary"`
	TopSite  string      `json:"top_site,omitempty"`
	Tenants  string      `json:"tenants,omitempty"`
	Weekly   []kpi.Point `json:"weekly_outages"`
	WeeklyPA []kpi.Point `json:"weekly_pa"`
	Miss     string      `json:"selection_miss,omitempty"`
}

// Run executes the calculate command: filter a workbook, print the KPI
// cards as JSON and write the filtered extracts.
func Run(args []string) error {
	return run(args, os.Stdout, time.Now)
}

func run(args []string, stdout io.Writer, now func() time.Time) error {
	fs := flag.NewFlagSet("calculate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("workbook", "", "Workbook: an .xlsx file or a directory of <sheet>.csv files")
	out := fs.String("out", "data", "Directory receiving "+OutageExtract+" and "+PAExtract)
	values := map[string]*string{}
	for key, usage := range map[string]string{
		session.KeyFrom:     "First day, inclusive",
		session.KeyTo:       "Last day, inclusive",
		session.KeySite:     "Comma-separated site ids",
		session.KeyCustomer: "Customer name, matched within the site tenants",
		session.KeyZone:     "Comma-separated zones (replaces report.zone)",
		session.KeyRegion:   "Comma-separated regions",
		session.KeyState:    "Comma-separated states",
		session.KeyRTO:      "Comma-separated RTO names",
		session.KeyFSE:      "Comma-separated EFS names",
		session.KeySBC:      "Comma-separated SBCs",
	} {
		values[key] = fs.String(key, "", usage)
	}
	var where clauses
	fs.Var(&where, "where", `Extra clause "Column=expr": a..b range, a|b set, ~text substring (repeatable)`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("calculate: missing required -workbook")
	}

	sel, err := session.ParseSelection(func(key string) []string {
		if v, ok := values[key]; ok && *v != "" {
			return []string{*v}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("calculate: %w", err)
	}
	spec := sel.Spec()
	for _, w := range where {
		col, expr, ok := strings.Cut(w, "=")
		if !ok {
			return fmt.Errorf("calculate: -where %q is not Column=expr", w)
		}
		f, err := filter.ParseClause(strings.TrimSpace(col), expr)
		if err != nil {
			return fmt.Errorf("calculate: %w", err)
		}
		spec = spec.With(strings.TrimSpace(col), f)
	}

	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	s, err := session.Load(*path, cfg, now)
	if err != nil {
		return err
	}

	view := s.View(spec)
	rep := Report{
		Source:   s.Source,
		Cards:    kpi.Compute(s.Input(view)),
		Summary:  s.Summary(view),
		Weekly:   kpi.WeeklyOutages(view.Outages),
		WeeklyPA: kpi.WeeklyPA(view.PA),
		Miss:     view.Miss,
	}
	if site, ok := kpi.TopSite(view.Outages); ok {
		rep.TopSite = site
		rep.Tenants = s.TenantLabel(site)
	}
	if view.Miss != "" {
		slog.Warn("calculate.selection_miss", "column", view.Miss)
	}

	if err := ccsv.WriteFile(filepath.Join(*out, OutageExtract), ccsv.Recent(view.Outages)); err != nil {
		return err
	}
	if err := ccsv.WriteFile(filepath.Join(*out, PAExtract), view.PA); err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "calculate.done outages=%d pa=%d\n", view.Outages.Len(), view.PA.Len())
	return nil
}
