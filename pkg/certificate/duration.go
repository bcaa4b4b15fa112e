package certificate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/juergengeck/trust.core/pkg/coreerr"
)

// Fixed approximation table: calendar arithmetic is deliberately not
// used. A month is 30 days and a year is 365 days; these two units don't
// agree at n=12 (12*30=360, not 365), so monthsToDuration treats exactly
// 12 months as 1 year rather than 12 separate 30-day months. Any other
// month count (6, 3, 18, ...) is a plain multiple of the 30-day month.
const (
	day   = 24 * time.Hour
	month = 30 * day
	year  = 365 * day
)

// monthsToDuration applies the 12-months-is-a-year special case.
func monthsToDuration(n int) time.Duration {
	if n == 12 {
		return year
	}
	return time.Duration(n) * month
}

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

var humanUnitRE = regexp.MustCompile(`^\s*(\d+)\s*(year|years|month|months|day|days|hour|hours|minute|minutes|second|seconds)\s*$`)

// ParseDuration accepts both ISO-8601 durations ("P1Y", "P6M", "P90D",
// "PT6H") and human forms ("12 months", "1 year", "90 days", "6 hours"),
// normalized through the same approximation table (monthsToDuration,
// day/year constants) so both conventions agree numerically.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, coreerr.NewDetails(coreerr.KindInvalidDuration, "empty duration")
	}

	if strings.HasPrefix(s, "P") {
		return parseISODuration(s)
	}
	return parseHumanDuration(s)
}

func parseISODuration(s string) (time.Duration, error) {
	m := isoDurationRE.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, coreerr.NewDetails(coreerr.KindInvalidDuration, s)
	}

	var total time.Duration
	if m[1] != "" {
		n, _ := strconv.Atoi(m[1])
		total += time.Duration(n) * year
	}
	if m[2] != "" {
		n, _ := strconv.Atoi(m[2])
		total += monthsToDuration(n)
	}
	if m[3] != "" {
		n, _ := strconv.Atoi(m[3])
		total += time.Duration(n) * day
	}
	if m[4] != "" {
		n, _ := strconv.Atoi(m[4])
		total += time.Duration(n) * time.Hour
	}
	if m[5] != "" {
		n, _ := strconv.Atoi(m[5])
		total += time.Duration(n) * time.Minute
	}
	if m[6] != "" {
		n, _ := strconv.Atoi(m[6])
		total += time.Duration(n) * time.Second
	}

	if total == 0 {
		return 0, coreerr.NewDetails(coreerr.KindInvalidDuration, s)
	}
	return total, nil
}

func parseHumanDuration(s string) (time.Duration, error) {
	m := humanUnitRE.FindStringSubmatch(s)
	if m == nil {
		return 0, coreerr.NewDetails(coreerr.KindInvalidDuration, s)
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, coreerr.NewDetails(coreerr.KindInvalidDuration, s)
	}

	unit := strings.TrimSuffix(m[2], "s")
	switch unit {
	case "year":
		return time.Duration(n) * year, nil
	case "month":
		return monthsToDuration(n), nil
	case "day":
		return time.Duration(n) * day, nil
	case "hour":
		return time.Duration(n) * time.Hour, nil
	case "minute":
		return time.Duration(n) * time.Minute, nil
	case "second":
		return time.Duration(n) * time.Second, nil
	default:
		return 0, coreerr.NewDetails(coreerr.KindInvalidDuration, s)
	}
}
