package cmdimport

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"noc-stats/connectors/config"
	ccsv "noc-stats/connectors/csv"
	"noc-stats/normalize"
	"noc-stats/session"
)

// Run executes the import subcommand: normalize a workbook and write the
// tables as CSV files into the data directory.
func Run(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("workbook", "", "Workbook to import: an .xlsx file or a directory of <sheet>.csv files")
	out := fs.String("out", "data", "Directory receiving the normalized CSV files")
	retain := fs.Int("retain-years", -1, "Outage years to keep, current one included; 0 keeps all (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" && fs.NArg() > 0 {
		*path = fs.Arg(0)
	}
	if *path == "" {
		fmt.Fprintln(os.Stderr, "-workbook is required")
		slog.Error("import.validation.error", "reason", "missing workbook")
		return fmt.Errorf("missing required -workbook")
	}

	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	if *retain >= 0 {
		cfg.Outages.RetainYears = *retain
	}

	slog.Info("import.start", "workbook", *path, "out", *out, "retainYears", cfg.Outages.RetainYears)
	s, err := session.Load(*path, cfg, time.Now)
	if err != nil {
		slog.Error("import.load.error", "workbook", *path, "error", err)
		return err
	}
	logQuality(s.Quality)

	err = ccsv.WriteAll(*out, ccsv.Export{
		Outages: s.Outages.Retained,
		History: s.Outages.History,
		PA:      s.PA,
		Sites:   s.Directory.Sites,
		Tenants: s.Directory.Tenants,
	})
	if err != nil {
		slog.Error("phase.csv.write.error", "error", err)
		fmt.Fprintf(os.Stderr, "failed to write CSV outputs: %v\n", err)
		return err
	}
	slog.Info("import.done",
		"outages", s.Outages.Retained.Len(),
		"history", s.Outages.History.Len(),
		"pa", s.PA.Len(),
		"sites", s.Directory.Sites.Len(),
		"tenants", s.Directory.Tenants.Len())
	return nil
}

// logQuality summarizes parse degradations per table and column.
func logQuality(q normalize.Quality) {
	counts := map[string]int{}
	for _, d := range q.Degradations {
		counts[d.Table+"."+d.Column]++
		slog.Debug("import.degradation", "cell", d.String())
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		slog.Warn("import.degradations", "column", k, "count", counts[k])
	}
	if q.OutOfWindow > 0 {
		slog.Info("import.retention", "dropped", q.OutOfWindow)
	}
	if q.UnmatchedSites > 0 {
		slog.Warn("import.unmatched_sites", "rows", q.UnmatchedSites)
	}
}
