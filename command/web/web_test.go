package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dc "noc-stats/domain/config"
	"noc-stats/session"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var dbHeader = []any{
	"IHS Site ID", "Tenants On Site", "IHS Site Priority", "Zone", "Region", "State",
	"EFS Name", "RTO Name", "Head, Field Service", "SBC",
	"Tenant Name", "Tenant ID", "Site Address", "Site Operational Status", "Latitude", "Longitude", "Project",
}

func dbRow(site, tenants, tenant, id, status string) []any {
	return []any{site, tenants, "P1", "South", "PH", "Rivers", "Efe", "Ola", "Chidi", "SBC-1",
		tenant, id, "1 Main St", status, 4.81, 7.05, "IHS"}
}

func fixture(paHeader []any) map[string][][]any {
	return map[string][][]any{
		"outages": {
			{"IHS Site ID", "Date", "Duration"},
			{"S1", "2025-03-04", "01:00:00"},
			{"S1", "2025-03-11", "02:00:00"},
			{"S1", "2025-03-12", "00:30:00"},
			{"S2", "2025-03-12", "03:00:00"},
		},
		"db": {
			dbHeader,
			dbRow("S1", "MTN NG, Airtel NG", "MTN NG", "M1", "On Air"),
			dbRow("S1", "MTN NG, Airtel NG", "Airtel NG", "A1", "On Air"),
			dbRow("S2", "MTN NG", "MTN NG", "M2", "Down"),
		},
		"pa": {
			paHeader,
			{"S1", 99, 100},
			{"S2", 97, "-"},
		},
		"rna": {{"IHS Site ID"}},
		"tch": {{"IHS Site ID"}},
	}
}

func buildXLSX(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func validWorkbook(t *testing.T) []byte {
	return buildXLSX(t, fixture([]any{"IHS Site ID", "2025-03-11", "2025-03-12"}), "outages", "db", "pa", "rna", "tch")
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	now := func() time.Time { return time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC) }
	cfg := dc.Default()
	return NewServer(cfg, session.NewStore(cfg, now), t.TempDir())
}

func upload(t *testing.T, e *echo.Echo, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("workbook", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func openSession(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := upload(t, e, "noc.xlsx", validWorkbook(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var info sessionInfo
	decode(t, rec, &info)
	require.NotEmpty(t, info.ID)
	return info.ID
}

func TestUploadAndReuse(t *testing.T) {
	e := newServer(t)
	data := validWorkbook(t)

	rec := upload(t, e, "noc.xlsx", data)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first sessionInfo
	decode(t, rec, &first)
	assert.Equal(t, 4, first.Outages)
	assert.Equal(t, 2, first.Sites)
	assert.Equal(t, "2025-03-11", first.PADates.From)

	rec = upload(t, e, "again.xlsx", data)
	require.Equal(t, http.StatusOK, rec.Code)
	var second sessionInfo
	decode(t, rec, &second)
	assert.True(t, second.Reused)
	assert.Equal(t, first.ID, second.ID)
}

func TestUploadErrors(t *testing.T) {
	e := newServer(t)

	missing := fixture([]any{"IHS Site ID", "2025-03-11"})
	rec := upload(t, e, "broken.xlsx", buildXLSX(t, missing, "outages", "db", "pa", "rna"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "schema_error", body["error"])
	assert.Equal(t, "tch", body["sheet"])

	rec = upload(t, e, "dates.xlsx", buildXLSX(t, fixture([]any{"IHS Site ID", "day one", "day two"}), "outages", "db", "pa", "rna", "tch"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "empty_date_range", body["error"])

	rec = upload(t, e, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	e := newServer(t)
	rec := get(e, "/api/sessions/nope/kpis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKPIs(t *testing.T) {
	e := newServer(t)
	id := openSession(t, e)

	rec := get(e, "/api/sessions/"+id+"/kpis?site=S1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res kpiResponse
	decode(t, rec, &res)
	assert.Equal(t, int64(3), res.Cards.TotalOutages)
	assert.Equal(t, 2.0, res.Cards.WeeklyOutages.Current)
	assert.Equal(t, 1.0, res.Cards.WeeklyOutages.Previous)
	assert.InDelta(t, 100, res.Cards.WeeklyOutages.Change, 1e-9)
	assert.Equal(t, "MTN NG_M1 - Airtel NG_A1", res.Tenants)
	assert.Equal(t, 1, res.Summary.Sites)

	rec = get(e, "/api/sessions/"+id+"/kpis?from=2025-03-14&to=2025-03-20&site=S1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Selection-Miss"))

	rec = get(e, "/api/sessions/"+id+"/kpis?from=whenever")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOutagesDownload(t *testing.T) {
	e := newServer(t)
	id := openSession(t, e)

	rec := get(e, "/api/sessions/"+id+"/outages?format=csv&customer=airtel")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "outage_data.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "IHS Site ID,Date,Duration"))
	assert.True(t, strings.HasPrefix(lines[1], "S1,2025-03-12,1800"), lines[1])

	rec = get(e, "/api/sessions/"+id+"/pa?where=PA=0..99.5")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]string
	decode(t, rec, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "99", rows[0]["PA"])
}

func TestSiteTenantsAndOptions(t *testing.T) {
	e := newServer(t)
	id := openSession(t, e)

	rec := get(e, "/api/sessions/"+id+"/sites/S1/tenants")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "MTN NG_M1 - Airtel NG_A1", body["label"])

	assert.Equal(t, http.StatusNotFound, get(e, "/api/sessions/"+id+"/sites/S9/tenants").Code)

	rec = get(e, "/api/sessions/"+id+"/options?column=IHS+Site+ID&from=2025-03-12&to=2025-03-12")
	require.Equal(t, http.StatusOK, rec.Code)
	var opts []string
	decode(t, rec, &opts)
	assert.Equal(t, []string{"S1", "S2"}, opts)

	rec = get(e, "/api/sessions/"+id+"/options?column=Tenant+Name")
	decode(t, rec, &opts)
	assert.Equal(t, []string{"Airtel NG", "MTN NG"}, opts)

	assert.Equal(t, http.StatusNotFound, get(e, "/api/sessions/"+id+"/options?column=Nope").Code)
}

func TestTrendAndDelete(t *testing.T) {
	e := newServer(t)
	id := openSession(t, e)

	rec := get(e, "/api/sessions/"+id+"/trend/outages")
	require.Equal(t, http.StatusOK, rec.Code)
	var points []map[string]any
	decode(t, rec, &points)
	require.Len(t, points, 2)
	assert.Equal(t, "2025-W10", points[0]["period"])
	assert.Equal(t, 3.0, points[1]["value"])

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil)
	del := httptest.NewRecorder()
	e.ServeHTTP(del, req)
	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.Equal(t, http.StatusNotFound, get(e, "/api/sessions/"+id).Code)
}

func TestImportedData(t *testing.T) {
	dir := t.TempDir()
	cfg := dc.Default()
	e := NewServer(cfg, session.NewStore(cfg, time.Now), dir)

	assert.Equal(t, http.StatusNotFound, get(e, "/api/data/sites").Code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sites.csv"), []byte("IHS Site ID,Zone\nS1,South\n"), 0o644))
	rec := get(e, "/api/data/sites")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]string
	decode(t, rec, &rows)
	assert.Equal(t, []map[string]string{{"IHS Site ID": "S1", "Zone": "South"}}, rows)

	assert.Equal(t, http.StatusOK, get(e, "/metrics").Code)
}
