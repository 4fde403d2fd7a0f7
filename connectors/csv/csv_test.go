package csv

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"noc-stats/domain/network"
	"noc-stats/filter"

	"github.com/rickb777/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outage(site string, day int, seconds int64, cause string) network.OutageEvent {
	o := network.OutageEvent{
		SiteID: site,
		Year:   network.Some(2025),
		Week:   network.Some(10),
		Month:  "March",
		Extra:  map[string]string{"Cause": cause},
		Site:   network.SiteRecord{SiteID: site, Region: "PH", TenantsOnSite: "MTN NG, Airtel NG"},
	}
	if day > 0 {
		o.Date = network.Some(date.New(2025, time.March, day))
	}
	if seconds >= 0 {
		o.Duration = network.Some(seconds)
	}
	return o
}

func table(rows ...network.OutageEvent) network.Table[network.OutageEvent] {
	cols := append(append([]string{}, network.OutageBaseColumns...), "Cause")
	cols = append(cols, network.SiteColumns[1:]...)
	return network.Table[network.OutageEvent]{Columns: cols, Rows: rows}
}

func TestRoundTrip(t *testing.T) {
	base := table(
		outage("S1", 3, 600, "Power, grid"),
		outage("S2", 4, -1, `Link "down"`),
		outage("S1", 0, 90, ""),
	)
	filtered := filter.Apply(base, filter.Spec{}.With(network.ColRegion, filter.Is("PH")))

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, filtered))

	sheet, err := ReadTable(&buf, "outages")
	require.NoError(t, err)
	assert.Equal(t, filtered.Columns, sheet.Header)
	require.Len(t, sheet.Rows, filtered.Len())

	for i, r := range filtered.Rows {
		for _, col := range filtered.Columns {
			if network.IsDateColumn(col) {
				continue
			}
			assert.Equal(t, r.Field(col).String(), sheet.Get(sheet.Rows[i], col), "row %d column %s", i, col)
		}
	}
	assert.Equal(t, "2025-03-03", sheet.Get(sheet.Rows[0], network.ColDate))
	assert.Equal(t, "", sheet.Get(sheet.Rows[2], network.ColDate))
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	err := WriteAll(dir, Export{
		Outages: table(outage("S1", 3, 600, "Power")),
		PA:      network.Table[network.PAMeasurement]{Columns: network.PAColumns},
		Sites:   network.Table[network.SiteRecord]{Columns: network.SiteColumns},
		Tenants: network.Table[network.TenantSiteRecord]{Columns: network.TenantColumns},
	})
	require.NoError(t, err)

	for _, name := range []string{OutagesFile, OutageHistoryFile, PAFile, SitesFile, TenantSitesFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	b, err := os.ReadFile(filepath.Join(dir, SitesFile))
	require.NoError(t, err)
	assert.Equal(t, "IHS Site ID,Tenants On Site,IHS Site Priority,Zone,Region,State,EFS Name,RTO Name,\"Head, Field Service\",SBC\n", string(b))
}

func TestRecent(t *testing.T) {
	got := Recent(table(
		outage("A", 3, 100, ""),
		outage("B", 0, 900, ""),
		outage("C", 5, 100, ""),
		outage("D", 5, -1, ""),
		outage("E", 5, 300, ""),
	))
	ids := make([]string, 0, got.Len())
	for _, o := range got.Rows {
		ids = append(ids, o.SiteID)
	}
	assert.Equal(t, []string{"E", "C", "D", "A", "B"}, ids)
}
