package cmdimport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	ccsv "noc-stats/connectors/csv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dbCSV = `IHS Site ID,Tenants On Site,IHS Site Priority,Zone,Region,State,EFS Name,RTO Name,"Head, Field Service",SBC,Tenant Name,Tenant ID,Site Address,Site Operational Status,Latitude,Longitude,Project,Cluster
S1,"MTN NG, Airtel NG",P1,South,PH,Rivers,Efe,Ola,Chidi,SBC-1,MTN NG,M1,1 Main St,On Air,4.81,7.05,IHS,C7
S1,"MTN NG, Airtel NG",P1,South,PH,Rivers,Efe,Ola,Chidi,SBC-1,Airtel NG,A1,1 Main St,On Air,4.81,7.05,IHS,C7
S2,MTN NG,P2,South,Aba,Abia,Uju,Ken,Chidi,SBC-2,MTN NG,M2,2 Main St,Down,5.1,7.3,IHS,C8
`

const outagesCSV = `IHS Site ID,Date,Duration
S1,2024-12-30,01:00:00
S1,2025-03-11,02:00:00
S2,2025-03-12,03:00:00
`

const paCSV = `IHS Site ID,2025-03-11,2025-03-12
S1,99,100
S2,97,-
`

func writeWorkbook(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"db.csv":      dbCSV,
		"outages.csv": outagesCSV,
		"pa.csv":      paCSV,
		"rna.csv":     "IHS Site ID\n",
		"tch.csv":     "IHS Site ID\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yml"))
	return dir
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

func TestRun(t *testing.T) {
	wb := writeWorkbook(t)
	out := filepath.Join(t.TempDir(), "data")

	require.NoError(t, Run([]string{"-workbook", wb, "-out", out, "-retain-years", "0"}))

	for _, name := range []string{ccsv.OutagesFile, ccsv.OutageHistoryFile, ccsv.PAFile, ccsv.SitesFile, ccsv.TenantSitesFile} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.Len(t, readLines(t, filepath.Join(out, ccsv.OutagesFile)), 4)
	assert.Len(t, readLines(t, filepath.Join(out, ccsv.SitesFile)), 3)
	assert.Len(t, readLines(t, filepath.Join(out, ccsv.PAFile)), 5)

	tenants := readLines(t, filepath.Join(out, ccsv.TenantSitesFile))
	require.Len(t, tenants, 4)
	assert.True(t, strings.HasSuffix(tenants[0], ",Cluster"), tenants[0])
	assert.True(t, strings.HasSuffix(tenants[1], "MTN NG_M1,C7"), tenants[1])
}

func TestRunPositionalWorkbook(t *testing.T) {
	wb := writeWorkbook(t)
	out := t.TempDir()
	require.NoError(t, Run([]string{"-out", out, "-retain-years", "0", wb}))
	assert.FileExists(t, filepath.Join(out, ccsv.OutagesFile))
}

func TestRunRejectsBadInput(t *testing.T) {
	wb := writeWorkbook(t)
	assert.Error(t, Run(nil))
	assert.Error(t, Run([]string{"-workbook", filepath.Join(wb, "nope")}))

	require.NoError(t, os.Remove(filepath.Join(wb, "tch.csv")))
	assert.Error(t, Run([]string{"-workbook", wb, "-out", t.TempDir()}))
}
