package kpi

import (
	"math"
	"slices"

	"noc-stats/domain/network"

	"github.com/samber/lo"
)

// Point is one value of a trend series.
type Point struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// WeeklyOutages sums outage weights per ISO week, oldest first.
func WeeklyOutages(t network.Table[network.OutageEvent]) []Point {
	weeks, _ := outageCounts(t.Rows)
	return series(weeks, weekKey.less, func(n int64) float64 { return float64(n) })
}

// MonthlyOutages sums outage weights per calendar month, oldest first.
func MonthlyOutages(t network.Table[network.OutageEvent]) []Point {
	_, months := outageCounts(t.Rows)
	return series(months, monthKey.less, func(n int64) float64 { return float64(n) })
}

// WeeklyPA is the mean PA per ISO week. Weeks with only null values are left out.
func WeeklyPA(t network.Table[network.PAMeasurement]) []Point {
	weeks, _ := paMeans(t.Rows)
	points := series(weeks, weekKey.less, mean.value)
	return lo.Filter(points, func(p Point, _ int) bool { return !math.IsNaN(p.Value) })
}

func series[K interface {
	comparable
	String() string
}, V any](buckets map[K]V, less func(a, b K) bool, value func(V) float64) []Point {
	keys := lo.Keys(buckets)
	slices.SortFunc(keys, func(a, b K) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		}
		return 0
	})
	return lo.Map(keys, func(k K, _ int) Point { return Point{Period: k.String(), Value: value(buckets[k])} })
}
