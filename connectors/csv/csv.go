package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"noc-stats/connectors/workbook"
	"noc-stats/domain/network"
)

// File names written by WriteAll.
const (
	OutagesFile       = "outages.csv"
	OutageHistoryFile = "outage_history.csv"
	PAFile            = "pa.csv"
	SitesFile         = "sites.csv"
	TenantSitesFile   = "tenant_sites.csv"
)

// Export is the set of normalized tables written to a data directory.
type Export struct {
	Outages network.Table[network.OutageEvent]
	History network.Table[network.OutageEvent]
	PA      network.Table[network.PAMeasurement]
	Sites   network.Table[network.SiteRecord]
	Tenants network.Table[network.TenantSiteRecord]
}

// WriteAll writes every table of e into dir.
func WriteAll(dir string, e Export) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := WriteFile(filepath.Join(dir, OutagesFile), e.Outages); err != nil {
		return err
	}
	if err := WriteFile(filepath.Join(dir, OutageHistoryFile), e.History); err != nil {
		return err
	}
	if err := WriteFile(filepath.Join(dir, PAFile), e.PA); err != nil {
		return err
	}
	if err := WriteFile(filepath.Join(dir, SitesFile), e.Sites); err != nil {
		return err
	}
	return WriteFile(filepath.Join(dir, TenantSitesFile), e.Tenants)
}

// WriteFile writes t to path, creating parent directories.
func WriteFile[R network.Row](path string, t network.Table[R]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteTable(f, t)
}

// WriteTable writes a header row followed by one row per record. Nulls are
// empty cells and dates are written as YYYY-MM-DD.
func WriteTable[R network.Row](w io.Writer, t network.Table[R]) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	row := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, col := range t.Columns {
			row[i] = r.Field(col).String()
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTable reads a CSV written by WriteTable back as a sheet.
func ReadTable(r io.Reader, name string) (workbook.Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return workbook.Sheet{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) == 0 {
		return workbook.NewSheet(name, nil, nil), nil
	}
	return workbook.NewSheet(name, records[0], records[1:]), nil
}

// Recent orders outages for extracts: latest date first, then longest
// duration. Rows without a date go last.
func Recent(t network.Table[network.OutageEvent]) network.Table[network.OutageEvent] {
	rows := slices.Clone(t.Rows)
	slices.SortStableFunc(rows, func(a, b network.OutageEvent) int {
		if c := compareDesc(a.Field(network.ColDate), b.Field(network.ColDate)); c != 0 {
			return c
		}
		return compareDesc(a.Field(network.ColDuration), b.Field(network.ColDuration))
	})
	return t.WithRows(rows)
}

// compareDesc sorts larger values first and nulls last.
func compareDesc(a, b network.Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return 1
	case b.IsNull():
		return -1
	case b.Less(a):
		return -1
	case a.Less(b):
		return 1
	}
	return 0
}
