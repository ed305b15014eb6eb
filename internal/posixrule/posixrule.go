// Package posixrule parses and evaluates POSIX TZ strings such as
// "CET-1CEST,M3.5.0,M10.5.0/3", including the extensions of RFC8536
// section 3.3.1.
package posixrule

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ngrash/go-libtz/internal/civil"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// Zone is one of the two local time types a rule alternates between.
type Zone struct {
	Name   string
	Offset int64 // seconds east of UTC
	IsDST  bool
}

// Rule is a parsed TZ string.
type Rule struct {
	Std Zone
	DST Zone

	// HasDST is false for strings without a daylight saving part. Lookup
	// then always returns Std.
	HasDST bool

	// Permanent is set when daylight saving time lasts the whole year.
	// Lookup then always returns DST.
	Permanent bool

	start, end date
	input      string
}

type dateKind int

const (
	julian    dateKind = iota // Jn, 1..365, February 29 never counted
	zeroBased                 // n, 0..365, February 29 counted
	monthWeek                 // Mm.w.d
)

// date is the day and local time of day at which a transition happens.
type date struct {
	kind    dateKind
	day     int // julian and zeroBased
	month   int // 1..12
	week    int // 1..5, 5 meaning the last
	weekday int // 0 = Sunday
	time    int64
}

// SyntaxError describes a TZ string that could not be parsed.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("posixrule: %s at offset %d in %q", e.Msg, e.Pos, e.Input)
}

// defaultRule is used when a TZ string names a DST zone but no dates.
const defaultRule = ",M3.2.0,M11.1.0"

// Parse parses a TZ string. The empty string is not a valid rule.
func Parse(s string) (*Rule, error) {
	p := &parser{input: s, s: s}
	r := &Rule{input: s}

	var err error
	if r.Std.Name, err = p.name(); err != nil {
		return nil, err
	}
	off, err := p.offset(24)
	if err != nil {
		return nil, err
	}
	// TZ offsets are added to local time to get UTC.
	r.Std.Offset = -off

	if p.done() {
		return r, nil
	}
	if p.peek() == ',' {
		// A rule without a daylight saving zone has nothing to switch to.
		return nil, p.errorf("rule without daylight saving zone")
	}

	r.HasDST = true
	r.DST.IsDST = true
	if r.DST.Name, err = p.name(); err != nil {
		return nil, err
	}
	if p.done() || p.peek() == ',' || p.peek() == ';' {
		r.DST.Offset = r.Std.Offset + secondsPerHour
	} else {
		if off, err = p.offset(24); err != nil {
			return nil, err
		}
		r.DST.Offset = -off
	}

	if p.done() {
		p = &parser{input: defaultRule, s: defaultRule}
	}
	// tzcode accepts ';' in place of the first ','.
	if c := p.peek(); c != ',' && c != ';' {
		return nil, p.errorf("expected ','")
	}
	p.advance(1)
	if r.start, err = p.date(); err != nil {
		return nil, err
	}
	if p.done() || p.peek() != ',' {
		return nil, p.errorf("expected ','")
	}
	p.advance(1)
	if r.end, err = p.date(); err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("trailing characters")
	}

	// Zoneinfo version 3 supports zones with permanent DST, for example
	// "EST5EDT,0/0,J365/25". Detect them by the length of DST in a leap
	// year.
	if r.start.kind != monthWeek && r.end.kind != monthWeek {
		start := r.start.yearSeconds(true) - r.Std.Offset
		end := r.end.yearSeconds(true) - r.DST.Offset
		if end-start >= 366*secondsPerDay {
			r.Permanent = true
		}
	}
	return r, nil
}

// String returns the TZ string the rule was parsed from.
func (r *Rule) String() string { return r.input }

// Zones returns the local time types the rule can produce.
func (r *Rule) Zones() []Zone {
	switch {
	case r.Permanent:
		return []Zone{r.DST}
	case r.HasDST:
		return []Zone{r.Std, r.DST}
	default:
		return []Zone{r.Std}
	}
}

// Lookup returns the zone in effect at sec, seconds since 1970-01-01 UTC
// without leap seconds, and the half-open window [start, end) during which
// it stays in effect. An unbounded side is math.MinInt64 or math.MaxInt64.
func (r *Rule) Lookup(sec int64) (z Zone, start, end int64) {
	switch {
	case r.Permanent:
		return r.DST, math.MinInt64, math.MaxInt64
	case !r.HasDST:
		return r.Std, math.MinInt64, math.MaxInt64
	}

	year := civil.ToCivil(sec).Year
	var txs []transition
	// Rule times may reach a week into neighboring years.
	for y := year - 2; y <= year+2; y++ {
		if at, ok := r.start.utc(y, r.Std.Offset); ok {
			txs = append(txs, transition{at: at, dst: true})
		}
		if at, ok := r.end.utc(y, r.DST.Offset); ok {
			txs = append(txs, transition{at: at, dst: false})
		}
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].at < txs[j].at })

	i := sort.Search(len(txs), func(i int) bool { return txs[i].at > sec }) - 1
	start, end = math.MinInt64, math.MaxInt64
	dst := false
	if i >= 0 {
		start = txs[i].at
		dst = txs[i].dst
	} else if len(txs) > 0 {
		dst = !txs[0].dst
	}
	if i+1 < len(txs) {
		end = txs[i+1].at
	}
	if dst {
		return r.DST, start, end
	}
	return r.Std, start, end
}

type transition struct {
	at  int64
	dst bool
}

// yearSeconds returns the seconds from local midnight of January 1 to the
// transition.
func (d date) yearSeconds(leap bool) int64 {
	day := int64(d.day)
	if d.kind == julian {
		day--
		if leap && day >= 31+28 {
			day++
		}
	}
	return day*secondsPerDay + d.time
}

// utc returns the instant of the transition in year, given the UTC offset
// in effect before it. ok is false if the instant does not fit an int64.
func (d date) utc(year int64, before int64) (int64, bool) {
	if d.kind != monthWeek {
		return civil.FromCivil(year, 1, 1, 0, 0, d.yearSeconds(civil.IsLeap(year))-before)
	}
	first := civil.DaysFromCivil(year, d.month, 1)
	day := (d.weekday - civil.Weekday(first) + 7) % 7
	day += (d.week - 1) * 7
	for dim := civil.DaysIn(year, d.month); day >= dim; {
		day -= 7
	}
	return civil.FromCivil(year, int64(d.month), int64(day)+1, 0, 0, d.time-before)
}

type parser struct {
	input string
	s     string
}

func (p *parser) pos() int { return len(p.input) - len(p.s) }

func (p *parser) done() bool { return len(p.s) == 0 }

func (p *parser) peek() byte { return p.s[0] }

func (p *parser) advance(n int) { p.s = p.s[n:] }

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.input, Pos: p.pos(), Msg: fmt.Sprintf(format, args...)}
}

// name parses a zone abbreviation, either at least three characters up to
// the offset or quoted in angle brackets.
func (p *parser) name() (string, error) {
	if p.done() {
		return "", p.errorf("missing zone name")
	}
	if p.peek() == '<' {
		i := strings.IndexByte(p.s, '>')
		if i < 0 {
			return "", p.errorf("unterminated quoted zone name")
		}
		name := p.s[1:i]
		for j := 0; j < len(name); j++ {
			c := name[j]
			if !isAlpha(c) && !isDigit(c) && c != '+' && c != '-' {
				return "", p.errorf("invalid character %q in zone name", c)
			}
		}
		if len(name) < 3 {
			return "", p.errorf("zone name %q shorter than three characters", name)
		}
		p.advance(i + 1)
		return name, nil
	}
	i := 0
	for i < len(p.s) && isAlpha(p.s[i]) {
		i++
	}
	if i < 3 {
		return "", p.errorf("zone name shorter than three characters")
	}
	name := p.s[:i]
	p.advance(i)
	return name, nil
}

// offset parses [+-]hh[:mm[:ss]] and returns it in seconds.
func (p *parser) offset(maxHour int) (int64, error) {
	if p.done() {
		return 0, p.errorf("missing offset")
	}
	neg := false
	switch p.peek() {
	case '-':
		neg = true
		p.advance(1)
	case '+':
		p.advance(1)
	}
	h, err := p.num(0, maxHour)
	if err != nil {
		return 0, err
	}
	off := int64(h) * secondsPerHour
	for _, unit := range []int64{secondsPerMinute, 1} {
		if p.done() || p.peek() != ':' {
			break
		}
		p.advance(1)
		n, err := p.num(0, 59)
		if err != nil {
			return 0, err
		}
		off += int64(n) * unit
	}
	if neg {
		off = -off
	}
	return off, nil
}

// date parses Jn, n or Mm.w.d with an optional /time.
func (p *parser) date() (date, error) {
	var (
		d   date
		err error
	)
	if p.done() {
		return d, p.errorf("missing date")
	}
	switch p.peek() {
	case 'J':
		p.advance(1)
		d.kind = julian
		if d.day, err = p.num(1, 365); err != nil {
			return d, err
		}
	case 'M':
		p.advance(1)
		d.kind = monthWeek
		if d.month, err = p.num(1, 12); err != nil {
			return d, err
		}
		if err = p.expect('.'); err != nil {
			return d, err
		}
		if d.week, err = p.num(1, 5); err != nil {
			return d, err
		}
		if err = p.expect('.'); err != nil {
			return d, err
		}
		if d.weekday, err = p.num(0, 6); err != nil {
			return d, err
		}
	default:
		d.kind = zeroBased
		if d.day, err = p.num(0, 365); err != nil {
			return d, err
		}
	}

	d.time = 2 * secondsPerHour
	if !p.done() && p.peek() == '/' {
		p.advance(1)
		// tzcode permits hours up to 24 * 7 - 1 here, although POSIX
		// does not.
		if d.time, err = p.offset(24*7 - 1); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (p *parser) expect(c byte) error {
	if p.done() || p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.advance(1)
	return nil
}

// num parses a decimal number within [min, max].
func (p *parser) num(min, max int) (int, error) {
	i, n := 0, 0
	for i < len(p.s) && isDigit(p.s[i]) {
		n = n*10 + int(p.s[i]-'0')
		if n > max {
			return 0, p.errorf("number out of range [%d, %d]", min, max)
		}
		i++
	}
	if i == 0 {
		return 0, p.errorf("expected number")
	}
	if n < min {
		return 0, p.errorf("number out of range [%d, %d]", min, max)
	}
	p.advance(i)
	return n, nil
}

func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
