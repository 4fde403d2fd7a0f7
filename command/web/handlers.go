package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	ccsv "noc-stats/connectors/csv"
	"noc-stats/connectors/workbook"
	"noc-stats/domain/network"
	"noc-stats/filter"
	"noc-stats/kpi"
	"noc-stats/session"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

type handler struct {
	store *session.Store
}

type sessionFunc func(c echo.Context, s *session.Session) error

type viewFunc func(c echo.Context, s *session.Session, v session.View) error

func fail(c echo.Context, status int, code, message string, extra ...any) error {
	body := map[string]any{"error": code, "message": message}
	for i := 0; i+1 < len(extra); i += 2 {
		body[fmt.Sprint(extra[i])] = extra[i+1]
	}
	return c.JSON(status, body)
}

func (h *handler) withSession(fn sessionFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		s, ok := h.store.Get(id)
		if !ok {
			return fail(c, http.StatusNotFound, "session not found", "upload the workbook again", "id", id)
		}
		return fn(c, s)
	}
}

func (h *handler) withView(fn viewFunc) echo.HandlerFunc {
	return h.withSession(func(c echo.Context, s *session.Session) error {
		spec, err := selection(c)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid selection", err.Error())
		}
		v := s.View(spec)
		if v.Miss != "" {
			c.Response().Header().Set("X-Selection-Miss", v.Miss)
		}
		return fn(c, s, v)
	})
}

// selection reads the view selection from the query string.
func selection(c echo.Context) (filter.Spec, error) {
	q := c.QueryParams()
	sel, err := session.ParseSelection(func(key string) []string { return q[key] })
	if err != nil {
		return nil, err
	}
	spec := sel.Spec()
	for _, w := range q["where"] {
		col, expr, ok := strings.Cut(w, "=")
		if !ok {
			return nil, fmt.Errorf("where %q is not Column=expr", w)
		}
		f, err := filter.ParseClause(strings.TrimSpace(col), expr)
		if err != nil {
			return nil, err
		}
		spec = spec.With(strings.TrimSpace(col), f)
	}
	return spec, nil
}

type bounds struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func boundsOf(r filter.DateRange) *bounds {
	return &bounds{From: r.From.String(), To: r.To.String()}
}

type sessionInfo struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Reused       bool      `json:"reused"`
	Loaded       time.Time `json:"loaded"`
	Outages      int       `json:"outages"`
	History      int       `json:"history"`
	PA           int       `json:"pa"`
	Sites        int       `json:"sites"`
	Tenants      int       `json:"tenants"`
	OutageDates  *bounds   `json:"outage_dates,omitempty"`
	PADates      *bounds   `json:"pa_dates"`
	Degradations int       `json:"degradations"`
	Warnings     []string  `json:"warnings,omitempty"`
	Customers    []string  `json:"customers"`
}

func infoOf(s *session.Session, reused bool) sessionInfo {
	info := sessionInfo{
		ID:           s.ID,
		Source:       s.Source,
		Reused:       reused,
		Loaded:       s.Loaded,
		Outages:      s.Outages.Retained.Len(),
		History:      s.Outages.History.Len(),
		PA:           s.PA.Len(),
		Sites:        s.Directory.Sites.Len(),
		Tenants:      s.Directory.Tenants.Len(),
		PADates:      boundsOf(s.PABounds),
		Degradations: len(s.Quality.Degradations),
		Warnings:     s.Quality.Warnings,
		Customers:    s.Customers(),
	}
	if s.OutageBounds.Valid {
		info.OutageDates = boundsOf(s.OutageBounds.V)
	}
	return info
}

func (h *handler) upload(c echo.Context) error {
	fh, err := c.FormFile("workbook")
	if err != nil {
		return fail(c, http.StatusBadRequest, "missing workbook", "send the workbook as multipart field \"workbook\"")
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "unreadable upload", err.Error())
	}
	defer f.Close()

	book, err := workbook.Read(f, fh.Filename)
	if err != nil {
		return fail(c, http.StatusBadRequest, "unsupported workbook", err.Error(), "file", fh.Filename)
	}
	s, reused, err := h.store.Open(book)
	if err != nil {
		return loadFailure(c, err)
	}
	status := http.StatusCreated
	if reused {
		status = http.StatusOK
	}
	return c.JSON(status, infoOf(s, reused))
}

// loadFailure tells a structurally wrong file apart from one whose dates
// are unusable.
func loadFailure(c echo.Context, err error) error {
	var se *network.SchemaError
	var er *network.EmptyRangeError
	switch {
	case errors.As(err, &se):
		return fail(c, http.StatusUnprocessableEntity, "schema_error", se.Error(), "sheet", se.Sheet, "column", se.Column)
	case errors.As(err, &er):
		return fail(c, http.StatusUnprocessableEntity, "empty_date_range", er.Error(), "table", er.Table, "column", er.Column)
	}
	return fail(c, http.StatusInternalServerError, "load failed", err.Error())
}

func (h *handler) info(c echo.Context, s *session.Session) error {
	return c.JSON(http.StatusOK, infoOf(s, false))
}

func (h *handler) remove(c echo.Context, s *session.Session) error {
	h.store.Delete(s.ID)
	return c.NoContent(http.StatusNoContent)
}

type kpiResponse struct {
	Cards   kpi.Cards   `json:"cards"`
	Summary kpi.Summary `json:"summary"`
	TopSite string      `json:"top_site,omitempty"`
	Tenants string      `json:"tenants,omitempty"`
	Miss    string      `json:"selection_miss,omitempty"`
}

func (h *handler) kpis(c echo.Context, s *session.Session, v session.View) error {
	res := kpiResponse{
		Cards:   kpi.Compute(s.Input(v)),
		Summary: s.Summary(v),
		Miss:    v.Miss,
	}
	if site, ok := kpi.TopSite(v.Outages); ok {
		res.TopSite = site
		res.Tenants = s.TenantLabel(site)
	}
	return c.JSON(http.StatusOK, res)
}

func rowsOf[R network.Row](t network.Table[R]) []map[string]string {
	return lo.Map(t.Rows, func(r R, _ int) map[string]string {
		obj := make(map[string]string, len(t.Columns))
		for _, col := range t.Columns {
			obj[col] = r.Field(col).String()
		}
		return obj
	})
}

func respond[R network.Row](c echo.Context, t network.Table[R], filename string) error {
	if c.QueryParam("format") != "csv" {
		return c.JSON(http.StatusOK, rowsOf(t))
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	res.WriteHeader(http.StatusOK)
	return ccsv.WriteTable(res, t)
}

func (h *handler) outages(c echo.Context, _ *session.Session, v session.View) error {
	return respond(c, ccsv.Recent(v.Outages), "outage_data.csv")
}

func (h *handler) pa(c echo.Context, _ *session.Session, v session.View) error {
	return respond(c, v.PA, "pa_data.csv")
}

func (h *handler) belowTarget(c echo.Context, s *session.Session, v session.View) error {
	return respond(c, s.BelowTarget(v), "pa_below_target.csv")
}

func (h *handler) tenants(c echo.Context, _ *session.Session, v session.View) error {
	return respond(c, v.Tenants, "tenant_sites.csv")
}

func (h *handler) siteTenants(c echo.Context, s *session.Session) error {
	site := c.Param("site")
	if _, ok := s.Directory.Lookup(site); !ok {
		return fail(c, http.StatusNotFound, "site not found", "no directory entry for this site", "site", site)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"site":    site,
		"tenants": s.Directory.TenantsFor(site),
		"label":   s.TenantLabel(site),
	})
}

// options serves cascading selector values: the distinct values of a column
// within the current view.
func (h *handler) options(c echo.Context, _ *session.Session, v session.View) error {
	column := c.QueryParam("column")
	switch {
	case column == "":
		return fail(c, http.StatusBadRequest, "missing column", "pass ?column=<name>")
	case lo.Contains(v.Outages.Columns, column):
		return c.JSON(http.StatusOK, filter.OptionStrings(v.Outages, column))
	case lo.Contains(v.Tenants.Columns, column):
		return c.JSON(http.StatusOK, filter.OptionStrings(v.Tenants, column))
	case lo.Contains(v.PA.Columns, column):
		return c.JSON(http.StatusOK, filter.OptionStrings(v.PA, column))
	}
	return fail(c, http.StatusNotFound, "unknown column", "no table carries this column", "column", column)
}

func (h *handler) outageTrend(c echo.Context, _ *session.Session, v session.View) error {
	if c.QueryParam("period") == "month" {
		return c.JSON(http.StatusOK, kpi.MonthlyOutages(v.Outages))
	}
	return c.JSON(http.StatusOK, kpi.WeeklyOutages(v.Outages))
}

func (h *handler) paTrend(c echo.Context, _ *session.Session, v session.View) error {
	return c.JSON(http.StatusOK, kpi.WeeklyPA(v.PA))
}
