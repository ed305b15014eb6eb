// Package civil converts between seconds since 1970-01-01 00:00:00 and
// broken-down dates of the proleptic Gregorian calendar. It knows nothing
// about time zones or leap seconds.
//
// The day arithmetic follows the Go standard library's time package, but
// works on int64 throughout so that the full range of int64 seconds can be
// represented.
package civil

import "math"

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	SecondsPerDay    = 24 * secondsPerHour

	daysPer400Years = 365*400 + 97
	daysPer100Years = 365*100 + 24
	daysPer4Years   = 365*4 + 1

	// unixToInternalDays is the number of days from 0001-01-01 to 1970-01-01.
	unixToInternalDays = 1969*365 + 1969/4 - 1969/100 + 1969/400

	// epochWeekday is the weekday of 1970-01-01, a Thursday.
	epochWeekday = 4
)

// Fields is a broken-down civil time.
type Fields struct {
	Year    int64
	Month   int // 1..12
	Day     int // 1..31
	Hour    int
	Min     int
	Sec     int
	Weekday int // 0 = Sunday
	YearDay int // 0 = January 1
}

// daysBefore[m] is the number of days in a non-leap year before month m+1.
var daysBefore = [13]int64{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}

// IsLeap reports whether year is a leap year.
func IsLeap(year int64) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days of month (1..12) in year.
func DaysIn(year int64, month int) int {
	if month == 2 && IsLeap(year) {
		return 29
	}
	return int(daysBefore[month] - daysBefore[month-1])
}

// Weekday returns the weekday of the given day number, counted from
// 1970-01-01, with 0 meaning Sunday.
func Weekday(days int64) int {
	return int(floorMod(days+epochWeekday, 7))
}

// DaysFromCivil returns the day number, counted from 1970-01-01, of the
// given date. month must be in 1..12 and year must be within the range
// ToCivil can produce.
func DaysFromCivil(year int64, month, day int) int64 {
	d, _ := daysFromYear(year)
	d += daysBefore[month-1] + int64(day) - 1
	if month > 2 && IsLeap(year) {
		d++
	}
	return d
}

// ToCivil breaks secs down into calendar fields. It is defined for every
// int64 value.
func ToCivil(secs int64) Fields {
	days := floorDiv(secs, SecondsPerDay)
	rem := int(secs - days*SecondsPerDay)

	f := Fields{
		Hour:    rem / secondsPerHour,
		Min:     rem % secondsPerHour / secondsPerMinute,
		Sec:     rem % secondsPerMinute,
		Weekday: Weekday(days),
	}

	// Days since 0001-01-01, split into 400, 100, 4 and 1 year cycles.
	d := days + unixToInternalDays
	era := floorDiv(d, daysPer400Years)
	n := d - era*daysPer400Years

	c := n / daysPer100Years
	if c == 4 {
		// December 31 of the last year of the 400 year cycle.
		c = 3
	}
	n -= c * daysPer100Years

	q := n / daysPer4Years
	n -= q * daysPer4Years

	y := n / 365
	if y == 4 {
		y = 3
	}
	n -= y * 365

	f.Year = era*400 + c*100 + q*4 + y + 1
	f.YearDay = int(n)

	leap := IsLeap(f.Year)
	yday := n
	if leap && yday >= daysBefore[2] {
		if yday == daysBefore[2] {
			f.Month, f.Day = 2, 29
			return f
		}
		yday--
	}
	m := 1
	for m < 12 && daysBefore[m] <= yday {
		m++
	}
	f.Month = m
	f.Day = int(yday-daysBefore[m-1]) + 1
	return f
}

// FromCivil returns the seconds since 1970-01-01 00:00:00 of the given
// date and time. The fields may lie outside their usual ranges: month is
// folded into year first, and the remaining fields are added linearly, so
// that day 0 is the last day of the previous month and second 60 is the
// first second of the next minute. ok is false if the result does not fit
// an int64.
func FromCivil(year, month, day, hour, min, sec int64) (secs int64, ok bool) {
	m0, ok := add(month, -1)
	if !ok {
		return 0, false
	}
	if year, ok = add(year, floorDiv(m0, 12)); !ok {
		return 0, false
	}
	m0 = floorMod(m0, 12)

	days, ok := daysFromYear(year)
	if !ok {
		return 0, false
	}
	days += daysBefore[m0]
	if m0 > 1 && IsLeap(year) {
		days++
	}
	if day, ok = add(day, -1); !ok {
		return 0, false
	}
	if days, ok = add(days, day); !ok {
		return 0, false
	}

	// Time of day, carried into days before the final multiplication so
	// that the extremes of the int64 range stay reachable.
	h, ok1 := mul(hour, secondsPerHour)
	m, ok2 := mul(min, secondsPerMinute)
	tod, ok3 := add(h, m)
	tod, ok4 := add(tod, sec)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, false
	}
	if days, ok = add(days, floorDiv(tod, SecondsPerDay)); !ok {
		return 0, false
	}
	tod = floorMod(tod, SecondsPerDay)
	if days < 0 && tod > 0 {
		days++
		tod -= SecondsPerDay
	}
	if secs, ok = mul(days, SecondsPerDay); !ok {
		return 0, false
	}
	return add(secs, tod)
}

// daysFromYear returns the day number, counted from 1970-01-01, of January 1
// of year.
func daysFromYear(year int64) (int64, bool) {
	y, ok := add(year, -1)
	if !ok {
		return 0, false
	}
	era := floorDiv(y, 400)
	y -= era * 400
	d, ok := mul(era, daysPer400Years)
	if !ok {
		return 0, false
	}
	d, ok = add(d, 365*y+y/4-y/100+y/400)
	if !ok {
		return 0, false
	}
	return add(d, -unixToInternalDays)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

func add(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}

func mul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}
