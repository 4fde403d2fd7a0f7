package network

import (
	"time"

	"github.com/rickb777/date"
)

// Source column names. They are matched exactly, case and whitespace included.
const (
	ColSiteID        = "IHS Site ID"
	ColTenantsOnSite = "Tenants On Site"
	ColPriority      = "IHS Site Priority"
	ColZone          = "Zone"
	ColRegion        = "Region"
	ColState         = "State"
	ColFSE           = "EFS Name"
	ColRTO           = "RTO Name"
	ColHeadFS        = "Head, Field Service"
	ColSBC           = "SBC"

	ColTenantName = "Tenant Name"
	ColTenantID   = "Tenant ID"
	ColAddress    = "Site Address"
	ColStatus     = "Site Operational Status"
	ColLatitude   = "Latitude"
	ColLongitude  = "Longitude"
	ColProject    = "Project"
	ColTenantKey  = "tenant_and_id"

	ColDate        = "Date"
	ColDuration    = "Duration"
	ColYear        = "Year"
	ColWeek        = "Week"
	ColMonth       = "Month"
	ColOutageCount = "Outage Count"

	ColPA = "PA"
)

// SiteColumns is the SiteRecord subset selected from the directory sheet.
var SiteColumns = []string{
	ColSiteID, ColTenantsOnSite, ColPriority, ColZone, ColRegion,
	ColState, ColFSE, ColRTO, ColHeadFS, ColSBC,
}

// TenantColumns is the full tenant-site relationship row.
var TenantColumns = append(append([]string{}, SiteColumns...),
	ColTenantName, ColTenantID, ColAddress, ColStatus, ColLatitude, ColLongitude, ColProject, ColTenantKey)

// OutageBaseColumns lead every outage table; pass-through source columns
// follow, then the joined site attributes.
var OutageBaseColumns = []string{ColSiteID, ColDate, ColDuration, ColYear, ColWeek, ColMonth, ColOutageCount}

// PAColumns is the long-format PA row followed by the joined site attributes.
var PAColumns = append([]string{ColSiteID, ColDate, ColPA}, SiteColumns[1:]...)

// IsDateColumn reports whether a column holds calendar dates in the normalized tables.
func IsDateColumn(column string) bool { return column == ColDate }

// IsNumericColumn reports whether a column holds numbers in the normalized tables.
func IsNumericColumn(column string) bool {
	switch column {
	case ColDuration, ColYear, ColWeek, ColOutageCount, ColPA, ColLatitude, ColLongitude:
		return true
	}
	return false
}

// Row is implemented by every normalized record.
type Row interface {
	Field(column string) Value
}

// Table is an immutable snapshot of normalized rows.
type Table[R Row] struct {
	Columns []string
	Rows    []R
}

// Len returns the row count.
func (t Table[R]) Len() int { return len(t.Rows) }

// WithRows returns a table with the same columns and the given rows.
func (t Table[R]) WithRows(rows []R) Table[R] {
	return Table[R]{Columns: t.Columns, Rows: rows}
}

// SiteRecord is one physical site.
type SiteRecord struct {
	SiteID        string
	TenantsOnSite string
	Priority      string
	Zone          string
	Region        string
	State         string
	FSE           string
	RTO           string
	HeadFS        string
	SBC           string
}

func (s SiteRecord) Field(column string) Value {
	switch column {
	case ColSiteID:
		return Text(s.SiteID)
	case ColTenantsOnSite:
		return Text(s.TenantsOnSite)
	case ColPriority:
		return Text(s.Priority)
	case ColZone:
		return Text(s.Zone)
	case ColRegion:
		return Text(s.Region)
	case ColState:
		return Text(s.State)
	case ColFSE:
		return Text(s.FSE)
	case ColRTO:
		return Text(s.RTO)
	case ColHeadFS:
		return Text(s.HeadFS)
	case ColSBC:
		return Text(s.SBC)
	}
	return NullValue()
}

// TenantSiteRecord is one site-tenant pair.
type TenantSiteRecord struct {
	SiteRecord
	TenantName string
	TenantID   string
	Address    string
	Status     string
	Latitude   Null[float64]
	Longitude  Null[float64]
	Project    string
	// TenantKey is TenantName + "_" + TenantID, blanks rendered as "nan".
	TenantKey string
	// Extra holds directory columns outside TenantColumns.
	Extra map[string]string
}

func (t TenantSiteRecord) Field(column string) Value {
	switch column {
	case ColTenantName:
		return Text(t.TenantName)
	case ColTenantID:
		return Text(t.TenantID)
	case ColAddress:
		return Text(t.Address)
	case ColStatus:
		return Text(t.Status)
	case ColLatitude:
		return FromNull(t.Latitude, Number)
	case ColLongitude:
		return FromNull(t.Longitude, Number)
	case ColProject:
		return Text(t.Project)
	case ColTenantKey:
		return Text(t.TenantKey)
	}
	if v, ok := t.Extra[column]; ok {
		return Text(v)
	}
	return t.SiteRecord.Field(column)
}

// OutageEvent is one outage record joined with its site.
type OutageEvent struct {
	SiteID string
	Date   Null[date.Date]
	// Duration is elapsed seconds.
	Duration Null[int64]
	Year     Null[int]
	Week     Null[int]
	Month    string
	Count    Null[int64]
	Extra    map[string]string

	// Site is the zero SiteRecord when the site id did not match.
	Site SiteRecord
}

func (o OutageEvent) Field(column string) Value {
	switch column {
	case ColSiteID:
		return Text(o.SiteID)
	case ColDate:
		return FromNull(o.Date, Day)
	case ColDuration:
		return FromNull(o.Duration, Int)
	case ColYear:
		return FromNull(o.Year, func(y int) Value { return Int(int64(y)) })
	case ColWeek:
		return FromNull(o.Week, func(w int) Value { return Int(int64(w)) })
	case ColMonth:
		return Text(o.Month)
	case ColOutageCount:
		return FromNull(o.Count, Int)
	}
	if v, ok := o.Extra[column]; ok {
		return Text(v)
	}
	return o.Site.Field(column)
}

// Weight is the number of outages the row stands for.
func (o OutageEvent) Weight() int64 {
	if o.Count.Valid {
		return o.Count.V
	}
	return 1
}

// ISOWeek buckets the row by ISO week, preferring the date over the source
// Year/Week columns.
func (o OutageEvent) ISOWeek() (year, week int, ok bool) {
	if o.Date.Valid {
		year, week = o.Date.V.ISOWeek()
		return year, week, true
	}
	if o.Year.Valid && o.Week.Valid {
		return o.Year.V, o.Week.V, true
	}
	return 0, 0, false
}

// CalendarMonth buckets the row by calendar month, preferring the date over
// the source Year/Month columns.
func (o OutageEvent) CalendarMonth() (year int, month time.Month, ok bool) {
	if o.Date.Valid {
		return o.Date.V.Year(), o.Date.V.Month(), true
	}
	if o.Year.Valid {
		if m, found := MonthFromName(o.Month); found {
			return o.Year.V, m, true
		}
	}
	return 0, 0, false
}

// PAMeasurement is the availability of one site on one day.
type PAMeasurement struct {
	SiteID string
	Date   Null[date.Date]
	Value  Null[float64]
	Site   SiteRecord
}

func (p PAMeasurement) Field(column string) Value {
	switch column {
	case ColSiteID:
		return Text(p.SiteID)
	case ColDate:
		return FromNull(p.Date, Day)
	case ColPA:
		return FromNull(p.Value, Number)
	}
	return p.Site.Field(column)
}

// MonthFromName resolves an English calendar month name.
func MonthFromName(name string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		if m.String() == name {
			return m, true
		}
	}
	return 0, false
}
