package ingestion

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// nativeLayouts are tried first. Month-first numeric layouts are left out on
// purpose so that "05-03-2024" reaches the day-first pattern below.
var nativeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
}

type datePattern struct {
	re             *regexp.Regexp
	year, mon, day int // submatch indexes
}

var datePatterns = []datePattern{
	{regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`), 1, 2, 3},
	{regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`), 1, 2, 3},
	{regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})$`), 3, 2, 1},
	{regexp.MustCompile(`^(\d{4}|\d{2})年(\d{1,2})月(\d{1,2})日$`), 1, 2, 3},
	{regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日(\d{4}|\d{2})年$`), 3, 1, 2},
}

var serialRe = regexp.MustCompile(`^\d+(\.\d+)?$`)

// excelEpoch is day zero of the 1900 date system as used by spreadsheet serials.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

// ParseDate interprets s as a calendar date. It returns a UTC midnight time
// and false when no form matches or the date does not exist.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range nativeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[p.year])
		mo, _ := strconv.Atoi(m[p.mon])
		d, _ := strconv.Atoi(m[p.day])
		if y < 100 {
			y += 2000
		}
		if t, ok := calendarDate(y, mo, d); ok {
			return t, true
		}
	}
	if serialRe.MatchString(s) {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 1 && v <= maxExcelSerial {
			return excelEpoch.AddDate(0, 0, int(v)), true
		}
	}
	return time.Time{}, false
}

// calendarDate builds y-m-d and rejects values time.Date would roll over.
func calendarDate(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
