package normalize

import (
	"slices"
	"strings"

	"noc-stats/connectors/workbook"
	"noc-stats/domain/network"
	"noc-stats/metrics"

	"github.com/samber/lo"
)

const (
	tableSites   = "sites"
	tableTenants = "tenant_sites"

	// nullKeyPart stands in for a blank tenant name or id in tenant_and_id.
	nullKeyPart = "nan"
	tenantJoin  = " - "
)

// directoryColumns are required on the raw directory sheet.
var directoryColumns = network.TenantColumns[:len(network.TenantColumns)-1]

// Directory is the site reference built from the directory sheet.
type Directory struct {
	// Sites holds one row per physical site, first occurrence wins.
	Sites network.Table[network.SiteRecord]
	// Tenants holds every site-tenant row of the source, in order.
	Tenants network.Table[network.TenantSiteRecord]

	bySite  map[string]int
	tenants map[string][]string
}

// BuildDirectory cleans the raw directory sheet.
func BuildDirectory(s workbook.Sheet) (*Directory, Quality, error) {
	var q Quality
	if err := s.RequireColumns(directoryColumns...); err != nil {
		return nil, q, err
	}

	d := &Directory{
		bySite:  map[string]int{},
		tenants: map[string][]string{},
	}
	extras := lo.Uniq(lo.Filter(s.Header, func(h string, _ int) bool {
		return h != "" && !lo.Contains(network.TenantColumns, h)
	}))
	sites := make([]network.SiteRecord, 0, len(s.Rows))
	tenants := make([]network.TenantSiteRecord, 0, len(s.Rows))

	for i, row := range s.Rows {
		get := func(col string) string { return strings.TrimSpace(s.Get(row, col)) }
		site := network.SiteRecord{
			SiteID:        get(network.ColSiteID),
			TenantsOnSite: get(network.ColTenantsOnSite),
			Priority:      get(network.ColPriority),
			Zone:          get(network.ColZone),
			Region:        get(network.ColRegion),
			State:         get(network.ColState),
			FSE:           get(network.ColFSE),
			RTO:           get(network.ColRTO),
			HeadFS:        get(network.ColHeadFS),
			SBC:           get(network.ColSBC),
		}
		t := network.TenantSiteRecord{
			SiteRecord: site,
			TenantName: get(network.ColTenantName),
			TenantID:   get(network.ColTenantID),
			Address:    get(network.ColAddress),
			Status:     get(network.ColStatus),
			Project:    get(network.ColProject),
		}
		t.Latitude = coordinate(&q, i+1, network.ColLatitude, get(network.ColLatitude))
		t.Longitude = coordinate(&q, i+1, network.ColLongitude, get(network.ColLongitude))
		t.TenantKey = TenantKey(t.TenantName, t.TenantID)
		if len(extras) > 0 {
			t.Extra = make(map[string]string, len(extras))
			for _, col := range extras {
				t.Extra[col] = get(col)
			}
		}
		tenants = append(tenants, t)

		if site.SiteID == "" {
			continue
		}
		d.tenants[site.SiteID] = append(d.tenants[site.SiteID], t.TenantKey)
		if _, seen := d.bySite[site.SiteID]; !seen {
			d.bySite[site.SiteID] = len(sites)
			sites = append(sites, site)
		}
	}

	d.Sites = network.Table[network.SiteRecord]{Columns: network.SiteColumns, Rows: sites}
	columns := append(append([]string{}, network.TenantColumns...), extras...)
	d.Tenants = network.Table[network.TenantSiteRecord]{Columns: columns, Rows: tenants}
	metrics.RowsNormalized.WithLabelValues(tableSites).Add(float64(len(sites)))
	metrics.RowsNormalized.WithLabelValues(tableTenants).Add(float64(len(tenants)))
	return d, q, nil
}

func coordinate(q *Quality, row int, column, raw string) network.Null[float64] {
	if raw == "" {
		return network.None[float64]()
	}
	f, ok := ParseNumber(raw)
	if !ok {
		q.degrade(tableTenants, column, row, raw)
		return network.None[float64]()
	}
	return network.Some(f)
}

// TenantKey builds the tenant_and_id selector key.
func TenantKey(name, id string) string {
	if name == "" {
		name = nullKeyPart
	}
	if id == "" {
		id = nullKeyPart
	}
	return name + "_" + id
}

// Lookup returns the deduplicated record for a site.
func (d *Directory) Lookup(siteID string) (network.SiteRecord, bool) {
	i, ok := d.bySite[siteID]
	if !ok {
		return network.SiteRecord{}, false
	}
	return d.Sites.Rows[i], true
}

// TenantsFor lists the tenant_and_id keys on a site in source order.
func (d *Directory) TenantsFor(siteID string) []string {
	return append([]string(nil), d.tenants[siteID]...)
}

// TenantLabel joins the tenants on a site for display, "-" when there are none.
func (d *Directory) TenantLabel(siteID string) string {
	keys := d.TenantsFor(siteID)
	if len(keys) == 0 {
		return "-"
	}
	return strings.Join(keys, tenantJoin)
}

// TenantKeys lists the distinct tenant_and_id keys, sorted.
func (d *Directory) TenantKeys() []string {
	keys := lo.Uniq(lo.Map(d.Tenants.Rows, func(t network.TenantSiteRecord, _ int) string { return t.TenantKey }))
	slices.Sort(keys)
	return keys
}
