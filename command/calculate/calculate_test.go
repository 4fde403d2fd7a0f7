package calculate

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dbCSV = `IHS Site ID,Tenants On Site,IHS Site Priority,Zone,Region,State,EFS Name,RTO Name,"Head, Field Service",SBC,Tenant Name,Tenant ID,Site Address,Site Operational Status,Latitude,Longitude,Project
S1,"MTN NG, Airtel NG",P1,South,PH,Rivers,Efe,Ola,Chidi,SBC-1,MTN NG,M1,1 Main St,On Air,4.81,7.05,IHS
S1,"MTN NG, Airtel NG",P1,South,PH,Rivers,Efe,Ola,Chidi,SBC-1,Airtel NG,A1,1 Main St,On Air,4.81,7.05,IHS
S2,MTN NG,P2,South,Aba,Abia,Uju,Ken,Chidi,SBC-2,MTN NG,M2,2 Main St,Down,5.1,7.3,IHS
`

const outagesCSV = `IHS Site ID,Date,Duration,Cause
S1,2025-03-04,01:00:00,Power
S1,2025-03-11,02:00:00,Power
S1,2025-03-12,00:30:00,Link
S2,2025-03-12,03:00:00,Power
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

func fixedNow() time.Time { return time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC) }

func TestRun(t *testing.T) {
	wb := writeWorkbook(t)
	out := t.TempDir()

	var stdout bytes.Buffer
	err := run([]string{"-workbook", wb, "-out", out, "-site", "S1", "-where", "Cause=Power"}, &stdout, fixedNow)
	require.NoError(t, err)

	var rep Report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rep))
	assert.Equal(t, int64(2), rep.Cards.TotalOutages)
	assert.Equal(t, 1.0, rep.Cards.WeeklyOutages.Current)
	assert.Equal(t, 1.0, rep.Cards.WeeklyOutages.Previous)
	assert.Equal(t, "S1", rep.TopSite)
	assert.Equal(t, "MTN NG_M1 - Airtel NG_A1", rep.Tenants)
	assert.Equal(t, 99.5, rep.Cards.WeeklyPA.Current)

	b, err := os.ReadFile(filepath.Join(out, OutageExtract))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "S1,2025-03-11,7200"), "latest first: %s", lines[1])

	b, err = os.ReadFile(filepath.Join(out, PAExtract))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(b)), "\n"), 3)
}

func TestRunRejectsBadInput(t *testing.T) {
	wb := writeWorkbook(t)
	var stdout bytes.Buffer
	assert.Error(t, run(nil, &stdout, fixedNow))
	assert.Error(t, run([]string{"-workbook", wb, "-from", "someday"}, &stdout, fixedNow))
	assert.Error(t, run([]string{"-workbook", wb, "-where", "Cause"}, &stdout, fixedNow))
	assert.Error(t, run([]string{"-workbook", filepath.Join(wb, "nope")}, &stdout, fixedNow))
}
