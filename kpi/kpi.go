// Package kpi derives period-over-period cards from filtered outage and PA
// tables. Every function is pure; nothing here mutates its input.
package kpi

import (
	"fmt"
	"math"
	"time"

	"noc-stats/domain/network"
	"noc-stats/normalize"

	"github.com/goodsign/monday"
	"github.com/hako/durafmt"
	"github.com/rickb777/date"
	"github.com/samber/lo"
)

// Input is what the engine needs for one computation.
type Input struct {
	// Outages and PA are the filtered views.
	Outages network.Table[network.OutageEvent]
	PA      network.Table[network.PAMeasurement]
	// History is the filtered outage table without the year retention
	// window. Weekly counts and previous periods are looked up here; Outages
	// is used when it is empty.
	History network.Table[network.OutageEvent]

	// OutageRef and PARef are the latest dates of the unfiltered base
	// tables. They fix the active period.
	OutageRef network.Null[date.Date]
	PARef     network.Null[date.Date]

	Locale monday.Locale
}

// Period is the active reporting period derived from a reference date.
type Period struct {
	Available bool   `json:"available"`
	Date      string `json:"date,omitempty"`
	WeekYear  int    `json:"week_year,omitempty"`
	Week      int    `json:"week,omitempty"`
	WeekLabel string `json:"week_label,omitempty"`
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty"`
	// MonthLabel is the localized "January 2006" rendering.
	MonthLabel string `json:"month_label,omitempty"`
}

// Delta compares a period with the one before it.
// Current and Previous are zero when the period holds no data.
type Delta struct {
	Current     float64 `json:"current"`
	Previous    float64 `json:"previous"`
	Change      float64 `json:"change"`
	HasCurrent  bool    `json:"has_current"`
	HasPrevious bool    `json:"has_previous"`
}

func newDelta(cur, prev float64) Delta {
	d := Delta{Change: PercentChange(cur, prev)}
	if !math.IsNaN(cur) {
		d.Current, d.HasCurrent = cur, true
	}
	if !math.IsNaN(prev) {
		d.Previous, d.HasPrevious = prev, true
	}
	return d
}

// Cards is the full KPI card set.
type Cards struct {
	OutagePeriod Period `json:"outage_period"`
	PAPeriod     Period `json:"pa_period"`

	TotalOutages      int64  `json:"total_outages"`
	TotalOutagesText  string `json:"total_outages_text"`
	TotalDuration     int64  `json:"total_duration_seconds"`
	TotalDurationText string `json:"total_duration_text"`

	WeeklyOutages  Delta `json:"weekly_outages"`
	MonthlyOutages Delta `json:"monthly_outages"`
	WeeklyPA       Delta `json:"weekly_pa"`
	MonthlyPA      Delta `json:"monthly_pa"`

	WeekComplete bool `json:"week_complete"`
}

// PercentChange is (cur - prev) / prev * 100 with sentinels instead of
// infinities: a zero or missing previous value gives 0 when the current
// value is also zero or missing and 100 otherwise; a missing current value
// against a real previous one gives 0.
func PercentChange(cur, prev float64) float64 {
	if math.IsNaN(prev) || prev == 0 {
		if math.IsNaN(cur) || cur == 0 {
			return 0
		}
		return 100
	}
	if math.IsNaN(cur) {
		return 0
	}
	return (cur - prev) / prev * 100
}

type weekKey struct{ year, week int }

type monthKey struct {
	year  int
	month time.Month
}

func (k weekKey) String() string  { return fmt.Sprintf("%d-W%02d", k.year, k.week) }
func (k monthKey) String() string { return fmt.Sprintf("%d-%02d", k.year, int(k.month)) }

func (k weekKey) less(o weekKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.week < o.week
}

func (k monthKey) less(o monthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

func weekOf(d date.Date) weekKey {
	y, w := d.ISOWeek()
	return weekKey{y, w}
}

func monthOf(d date.Date) monthKey { return monthKey{d.Year(), d.Month()} }

// previousWeek steps back one ISO week. Week 1 steps to the last week seen
// in the prior ISO year; week 0 of that year stands for "no data".
func previousWeek[V any](k weekKey, seen map[weekKey]V) weekKey {
	if k.week > 1 {
		return weekKey{k.year, k.week - 1}
	}
	last := 0
	for s := range seen {
		if s.year == k.year-1 && s.week > last {
			last = s.week
		}
	}
	return weekKey{k.year - 1, last}
}

func previousMonth(k monthKey) monthKey {
	if k.month == time.January {
		return monthKey{k.year - 1, time.December}
	}
	return monthKey{k.year, k.month - 1}
}

// outageCounts buckets outage weights by ISO week and calendar month.
func outageCounts(rows []network.OutageEvent) (map[weekKey]int64, map[monthKey]int64) {
	weeks := map[weekKey]int64{}
	months := map[monthKey]int64{}
	for _, o := range rows {
		if y, w, ok := o.ISOWeek(); ok {
			weeks[weekKey{y, w}] += o.Weight()
		}
		if y, m, ok := o.CalendarMonth(); ok {
			months[monthKey{y, m}] += o.Weight()
		}
	}
	return weeks, months
}

type mean struct {
	sum float64
	n   int
}

func (m mean) value() float64 {
	if m.n == 0 {
		return math.NaN()
	}
	return normalize.Round2(m.sum / float64(m.n))
}

// paMeans buckets non-null PA values by ISO week and calendar month.
func paMeans(rows []network.PAMeasurement) (map[weekKey]mean, map[monthKey]mean) {
	weeks := map[weekKey]mean{}
	months := map[monthKey]mean{}
	for _, p := range rows {
		if !p.Date.Valid || !p.Value.Valid {
			continue
		}
		wk, mk := weekOf(p.Date.V), monthOf(p.Date.V)
		weeks[wk] = mean{weeks[wk].sum + p.Value.V, weeks[wk].n + 1}
		months[mk] = mean{months[mk].sum + p.Value.V, months[mk].n + 1}
	}
	return weeks, months
}

func periodOf(ref network.Null[date.Date], locale monday.Locale) Period {
	if !ref.Valid {
		return Period{}
	}
	d := ref.V
	wk := weekOf(d)
	if locale == "" {
		locale = monday.LocaleEnUS
	}
	return Period{
		Available:  true,
		Date:       d.String(),
		WeekYear:   wk.year,
		Week:       wk.week,
		WeekLabel:  wk.String(),
		Year:       d.Year(),
		Month:      int(d.Month()),
		MonthLabel: monday.Format(d.In(time.UTC), "January 2006", locale),
	}
}

// Compute derives the card set. It never fails: empty periods and zero
// denominators resolve through PercentChange.
func Compute(in Input) Cards {
	c := Cards{
		OutagePeriod: periodOf(in.OutageRef, in.Locale),
		PAPeriod:     periodOf(in.PARef, in.Locale),
	}

	for _, o := range in.Outages.Rows {
		c.TotalOutages += o.Weight()
		if o.Duration.Valid {
			c.TotalDuration += o.Duration.V
		}
	}
	c.TotalOutagesText = HumanFormat(float64(c.TotalOutages))
	c.TotalDurationText = durafmt.Parse(time.Duration(c.TotalDuration) * time.Second).LimitFirstN(2).String()

	if in.OutageRef.Valid {
		history := in.History
		if history.Len() == 0 {
			history = in.Outages
		}
		_, curMonths := outageCounts(in.Outages.Rows)
		pastWeeks, pastMonths := outageCounts(history.Rows)

		// An ISO week can start in the prior calendar year, so the active
		// week is read from history too.
		wk, mk := weekOf(in.OutageRef.V), monthOf(in.OutageRef.V)
		prevWk := previousWeek(wk, pastWeeks)
		c.WeeklyOutages = newDelta(float64(pastWeeks[wk]), float64(pastWeeks[prevWk]))
		c.MonthlyOutages = newDelta(float64(curMonths[mk]), float64(pastMonths[previousMonth(mk)]))
		c.WeekComplete = weekComplete(history.Rows, in.OutageRef.V)
	}

	if in.PARef.Valid {
		weeks, months := paMeans(in.PA.Rows)
		wk, mk := weekOf(in.PARef.V), monthOf(in.PARef.V)
		c.WeeklyPA = newDelta(weeks[wk].value(), weeks[previousWeek(wk, weeks)].value())
		c.MonthlyPA = newDelta(months[mk].value(), months[previousMonth(mk)].value())
	}
	return c
}

// weekComplete reports whether rows cover all seven days of ref's ISO week.
func weekComplete(rows []network.OutageEvent, ref date.Date) bool {
	start := ref.AddDate(0, 0, -((int(ref.Weekday()) + 6) % 7))
	end := start.AddDate(0, 0, 6)
	days := lo.FilterMap(rows, func(o network.OutageEvent, _ int) (string, bool) {
		if !o.Date.Valid || o.Date.V.Before(start) || o.Date.V.After(end) {
			return "", false
		}
		return o.Date.V.String(), true
	})
	return len(lo.Uniq(days)) == 7
}
