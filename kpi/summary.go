package kpi

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"noc-stats/domain/network"

	"github.com/samber/lo"
)

// StatusOnAir marks an operational site.
const StatusOnAir = "On Air"

// TopSite returns the site with the most outage rows, ties going to the
// smallest id. It is the default site on per-site views.
func TopSite(t network.Table[network.OutageEvent]) (string, bool) {
	counts := lo.CountValues(lo.FilterMap(t.Rows, func(o network.OutageEvent, _ int) (string, bool) {
		return o.SiteID, o.SiteID != ""
	}))
	if len(counts) == 0 {
		return "", false
	}
	ids := lo.Keys(counts)
	slices.Sort(ids)
	best := ids[0]
	for _, id := range ids[1:] {
		if counts[id] > counts[best] {
			best = id
		}
	}
	return best, true
}

// ZoneSummary is the per-zone site count.
type ZoneSummary struct {
	Zone        string  `json:"zone"`
	Sites       int     `json:"sites"`
	OnAir       int     `json:"on_air"`
	Operational float64 `json:"operational_pct"`
}

// Summary describes a tenant-site selection.
type Summary struct {
	Sites       int `json:"sites"`
	Operational int `json:"operational"`
	// Tenants is the number of tenant rows per tenant name.
	Tenants map[string]int `json:"tenants"`
	Zones   []ZoneSummary  `json:"zones"`
}

// SiteSummary counts unique and operational sites, skipping rows whose
// project is in excluded.
func SiteSummary(t network.Table[network.TenantSiteRecord], excluded []string) Summary {
	rows := lo.Reject(t.Rows, func(r network.TenantSiteRecord, _ int) bool {
		return lo.Contains(excluded, strings.TrimSpace(r.Project))
	})
	sites := lo.UniqBy(rows, func(r network.TenantSiteRecord) string { return r.SiteID })

	s := Summary{
		Sites: len(sites),
		Operational: lo.CountBy(sites, func(r network.TenantSiteRecord) bool {
			return r.Status == StatusOnAir
		}),
		Tenants: lo.CountValues(lo.FilterMap(rows, func(r network.TenantSiteRecord, _ int) (string, bool) {
			return r.TenantName, r.TenantName != ""
		})),
	}

	byZone := lo.GroupBy(sites, func(r network.TenantSiteRecord) string { return r.Zone })
	zones := lo.Keys(byZone)
	slices.Sort(zones)
	for _, z := range zones {
		zs := ZoneSummary{
			Zone:  z,
			Sites: len(byZone[z]),
			OnAir: lo.CountBy(byZone[z], func(r network.TenantSiteRecord) bool { return r.Status == StatusOnAir }),
		}
		zs.Operational = math.Round(float64(zs.OnAir)/float64(zs.Sites)*1000) / 10
		s.Zones = append(s.Zones, zs)
	}
	return s
}

// BelowTarget keeps PA rows that are not exactly target, nulls included.
func BelowTarget(t network.Table[network.PAMeasurement], target float64) network.Table[network.PAMeasurement] {
	return t.WithRows(lo.Reject(t.Rows, func(p network.PAMeasurement, _ int) bool {
		return p.Value.Valid && p.Value.V == target
	}))
}

// HumanFormat renders card numbers as 950, 1.23K, 4.50M, 2.00B or 1.00T.
func HumanFormat(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2fT", n/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", n/1e3)
	}
	return fmt.Sprintf("%.0f", n)
}
