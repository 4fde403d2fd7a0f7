package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rickb777/date"
	"github.com/xuri/excelize/v2"
)

// Excel serials outside this window are treated as plain numbers, not dates
// (10000 is 1927-05-18).
const (
	minSerial = 10000
	maxSerial = 2958465
)

// maxSeconds caps parsed durations at 100 years; anything longer is a bad cell.
const maxSeconds = 100 * 366 * 86400

// maxExactInt is the largest integer a float64 holds exactly.
const maxExactInt = 1 << 53

var (
	isoLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339,
	}
	dayFirstLayouts = []string{
		"2/1/2006",
		"2-1-2006",
		"2.1.2006",
		"2/1/06",
	}
	textualLayouts = []string{
		"2 January 2006",
		"2 Jan 2006",
		"2-Jan-2006",
		"2-Jan-06",
		"Jan 2, 2006",
		"January 2, 2006",
		"Mon, 2 Jan 2006",
		"2006/01/02",
	}
)

func parseLayouts(s string, layouts []string) (date.Date, bool) {
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return date.NewAt(t), true
		}
	}
	return date.Date{}, false
}

// parseSerial decodes an Excel serial day number.
func parseSerial(s string) (date.Date, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < minSerial || f > maxSerial {
		return date.Date{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return date.Date{}, false
	}
	return date.NewAt(t), true
}

// ParseDate accepts Excel serials, ISO dates, day-first numeric dates and
// dates with month names.
func ParseDate(raw string) (date.Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return date.Date{}, false
	}
	if d, ok := parseSerial(s); ok {
		return d, true
	}
	for _, layouts := range [][]string{isoLayouts, dayFirstLayouts, textualLayouts} {
		if d, ok := parseLayouts(s, layouts); ok {
			return d, true
		}
	}
	return date.Date{}, false
}

// headerStrategy parses one PA column header into a date.
type headerStrategy struct {
	name  string
	parse func(string) (date.Date, bool)
}

// headerStrategies are tried in order; the first to parse at least one
// header is used for all of them.
var headerStrategies = []headerStrategy{
	{"temporal", func(s string) (date.Date, bool) {
		if d, ok := parseSerial(s); ok {
			return d, true
		}
		return parseLayouts(s, isoLayouts)
	}},
	{"free-form", func(s string) (date.Date, bool) {
		if d, ok := parseLayouts(s, isoLayouts); ok {
			return d, true
		}
		return parseLayouts(s, textualLayouts)
	}},
	{"day-first", func(s string) (date.Date, bool) {
		return parseLayouts(s, dayFirstLayouts[:1])
	}},
}

// ParseDuration returns elapsed seconds for a time of day (seconds since
// midnight), an elapsed duration in clock or "N days HH:MM:SS" form, a Go
// duration string, or an Excel day fraction.
func ParseDuration(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		secs := math.Round(f * 86400)
		if f < 0 || math.IsNaN(f) || secs > maxSeconds {
			return 0, false
		}
		return int64(secs), true
	}
	if secs, ok := parseMeridiem(s); ok {
		return secs, true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil && t.Year() <= 1900 {
		// spreadsheet time cells rendered on the 1899-12-30 epoch
		return int64(t.Hour()*3600 + t.Minute()*60 + t.Second()), true
	}

	var days int64
	rest := s
	if i := strings.Index(s, "day"); i > 0 {
		n, err := strconv.ParseInt(strings.TrimSpace(s[:i]), 10, 64)
		if err != nil || n < 0 || n > maxSeconds/86400 {
			return 0, false
		}
		days = n
		rest = strings.TrimLeft(s[i+len("day"):], "s, ")
		if rest == "" {
			return days * 86400, true
		}
	}
	if secs, ok := parseClock(rest); ok && days*86400+secs <= maxSeconds {
		return days*86400 + secs, true
	}
	if days == 0 {
		if d, err := time.ParseDuration(s); err == nil && d >= 0 && d <= maxSeconds*time.Second {
			return int64(d.Round(time.Second) / time.Second), true
		}
	}
	return 0, false
}

// parseClock reads H:MM or H:MM:SS[.fff]. Hours may exceed 23.
func parseClock(s string) (int64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || h < 0 || h > maxSeconds/3600 {
		return 0, false
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	var sec float64
	if len(parts) == 3 {
		sec, err = strconv.ParseFloat(parts[2], 64)
		if err != nil || sec < 0 || sec >= 60 {
			return 0, false
		}
	}
	return h*3600 + m*60 + int64(sec), true
}

func parseMeridiem(s string) (int64, bool) {
	u := strings.ToUpper(s)
	if !strings.HasSuffix(u, "AM") && !strings.HasSuffix(u, "PM") {
		return 0, false
	}
	for _, l := range []string{"3:04:05 PM", "3:04 PM", "3:04:05PM", "3:04PM"} {
		if t, err := time.Parse(l, u); err == nil {
			return int64(t.Hour()*3600 + t.Minute()*60 + t.Second()), true
		}
	}
	return 0, false
}

// ParseNumber accepts plain decimals and a trailing percent sign.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseInt accepts integers, including integral decimals such as "2025.0".
func ParseInt(raw string) (int, bool) {
	f, ok := ParseNumber(raw)
	if !ok || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, false
	}
	return int(f), true
}

// Round2 rounds half away from zero to two decimals.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
