package web

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"noc-stats/connectors/config"
	ccsv "noc-stats/connectors/csv"
	dc "noc-stats/domain/config"
	"noc-stats/metrics"
	"noc-stats/session"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run starts the Echo server.
//
// Usage:
//
//	noc-stats web [-addr :8080] [-data ./data] [-ui ./ui/dist]
//
// Endpoints:
//
//	POST   /api/sessions                         upload a workbook (multipart field "workbook")
//	GET    /api/sessions/:id                     session summary
//	DELETE /api/sessions/:id
//	GET    /api/sessions/:id/kpis                KPI cards for the selection in the query
//	GET    /api/sessions/:id/outages             filtered outages (?format=csv to download)
//	GET    /api/sessions/:id/pa                  filtered PA series (?format=csv to download)
//	GET    /api/sessions/:id/pa/below_target     PA rows under report.target_pa
//	GET    /api/sessions/:id/tenants             filtered tenant-site rows
//	GET    /api/sessions/:id/sites/:site/tenants tenants of one site
//	GET    /api/sessions/:id/options?column=     distinct values of a column in the view
//	GET    /api/sessions/:id/trend/outages       weekly outage counts
//	GET    /api/sessions/:id/trend/pa            weekly mean PA
//	GET    /api/data/outages                     <data>/outages.csv written by import
//	GET    /api/data/pa                          <data>/pa.csv
//	GET    /api/data/sites                       <data>/sites.csv
//	GET    /api/data/tenants                     <data>/tenant_sites.csv
//	GET    /metrics
//
// Selections are query parameters: from, to, site, customer, zone, region,
// state, rto, fse, sbc, plus repeated where=Column=expr clauses.
//
// When -ui points to a built Vite app (index.html exists), static files are served at / and
// unknown routes fall back to index.html for SPA routing.
func Run(args []string) error {
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Web.Addr, "http listen address (host:port)")
	dataDir := fs.String("data", "./data", "directory containing CSV files written by import")
	uiDir := fs.String("ui", "./ui/dist", "directory containing built UI (Vite dist)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := NewServer(cfg, session.NewStore(cfg, time.Now), *dataDir)

	// Static UI (optional)
	indexPath := filepath.Join(*uiDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		e.Static("/", *uiDir)
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s (SPA routing) while keeping static assets working
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				p := c.Request().URL.Path
				if !strings.HasPrefix(p, "/api") && p != "/metrics" {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}

	return e.Start(*addr)
}

// NewServer wires every route onto a new Echo instance.
func NewServer(cfg dc.Config, store *session.Store, dataDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(countRequests)

	h := &handler{store: store}
	api := e.Group("/api/sessions")
	api.POST("", h.upload, middleware.BodyLimit(uploadLimit(cfg.Web.MaxUpload)))
	api.GET("/:id", h.withSession(h.info))
	api.DELETE("/:id", h.withSession(h.remove))
	api.GET("/:id/kpis", h.withView(h.kpis))
	api.GET("/:id/outages", h.withView(h.outages))
	api.GET("/:id/pa", h.withView(h.pa))
	api.GET("/:id/pa/below_target", h.withView(h.belowTarget))
	api.GET("/:id/tenants", h.withView(h.tenants))
	api.GET("/:id/sites/:site/tenants", h.withSession(h.siteTenants))
	api.GET("/:id/options", h.withView(h.options))
	api.GET("/:id/trend/outages", h.withView(h.outageTrend))
	api.GET("/:id/trend/pa", h.withView(h.paTrend))

	// Helper to register a GET endpoint serving a specific CSV file
	serveCSV := func(route string, filename string) {
		e.GET(route, func(c echo.Context) error {
			path := filepath.Join(dataDir, filename)
			rows, err := readCSV(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return c.JSON(http.StatusNotFound, map[string]any{
						"error":   "file not found",
						"path":    path,
						"message": "CSV file is missing, run import first",
					})
				}
				return c.JSON(http.StatusInternalServerError, map[string]any{
					"error":   err.Error(),
					"path":    path,
					"message": "failed to read CSV",
				})
			}
			return c.JSON(http.StatusOK, rows)
		})
	}
	serveCSV("/api/data/outages", ccsv.OutagesFile)
	serveCSV("/api/data/outages/history", ccsv.OutageHistoryFile)
	serveCSV("/api/data/pa", ccsv.PAFile)
	serveCSV("/api/data/sites", ccsv.SitesFile)
	serveCSV("/api/data/tenants", ccsv.TenantSitesFile)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

// uploadLimit renders a byte count the way BodyLimit parses it.
func uploadLimit(n int64) string {
	if n < 1<<10 {
		n = 1 << 10
	}
	return fmt.Sprintf("%dK", n>>10)
}

func countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Path(), strconv.Itoa(status)).Inc()
		return err
	}
}

// readCSV loads a CSV file and returns a slice of objects keyed by headers.
// Values are kept as strings to avoid lossy or incorrect type coercion.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, err := ccsv.ReadTable(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	res := make([]map[string]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if len(row) == 0 {
			continue
		}
		obj := make(map[string]string, len(sheet.Header))
		for _, h := range sheet.Header {
			obj[h] = sheet.Get(row, h)
		}
		res = append(res, obj)
	}
	return res, nil
}
