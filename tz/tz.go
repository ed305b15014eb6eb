// Package tz converts between absolute time and civil time in a time zone
// described by TZif data.
//
// A Zone is built from the bytes of a TZif file, or from a POSIX TZ string
// alone, and never changes afterwards. It is safe for concurrent use. The
// package performs no I/O: finding the bytes for a zone name is up to the
// caller, see package zonesource.
package tz

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ngrash/go-libtz/internal/posixrule"
	"github.com/ngrash/go-libtz/internal/ruletable"
	"github.com/ngrash/go-libtz/tzif"
)

var (
	// ErrInvalidCivilTime is returned by Mktime and Timegm when no instant
	// has the requested civil time.
	ErrInvalidCivilTime = errors.New("tz: invalid civil time")

	// ErrOverflow is returned when a result does not fit its type. Mktime
	// and Timegm return it together with ErrInvalidCivilTime.
	ErrOverflow = errors.New("tz: value out of range")
)

// FormatError is returned when a zone cannot be loaded. Err wraps the
// tzif sentinel error describing the problem.
type FormatError struct {
	Name string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("tz: loading %q: %v", e.Name, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// EncodingError is returned for zone names and abbreviations that are not
// valid text.
type EncodingError = tzif.EncodingError

// Tm is a broken-down civil time, laid out like C's struct tm.
type Tm struct {
	Sec   int // 0..60, 60 only during an inserted leap second
	Min   int
	Hour  int
	Mday  int // 1..31
	Mon   int // 0..11
	Year  int // years since 1900
	Wday  int // 0 = Sunday
	Yday  int // 0..365
	IsDST int // >0 DST, 0 standard time, <0 unknown

	GMTOff int64  // seconds east of UTC
	Zone   string // abbreviation
}

// Ambiguity selects the instant Mktime returns for a civil time that
// occurs twice and is not told apart by IsDST or GMTOff.
type Ambiguity int

const (
	// AmbiguityEarlier picks the first of the two instants.
	AmbiguityEarlier Ambiguity = iota
	// AmbiguityLater picks the second of the two instants.
	AmbiguityLater
)

func (a Ambiguity) String() string {
	switch a {
	case AmbiguityEarlier:
		return "earlier"
	case AmbiguityLater:
		return "later"
	default:
		return fmt.Sprintf("Ambiguity(%d)", int(a))
	}
}

// ParseAmbiguity parses the String form of an Ambiguity.
func ParseAmbiguity(s string) (Ambiguity, error) {
	switch s {
	case "earlier":
		return AmbiguityEarlier, nil
	case "later":
		return AmbiguityLater, nil
	}
	return 0, fmt.Errorf("unknown ambiguity policy %q, want earlier or later", s)
}

// Gap selects how Mktime treats a civil time skipped by a transition.
type Gap int

const (
	// GapReject fails with ErrInvalidCivilTime.
	GapReject Gap = iota
	// GapShift interprets the fields in the offset of the time type that
	// IsDST asks for, as tzcode does. IsDST < 0 is still rejected.
	GapShift
)

func (g Gap) String() string {
	switch g {
	case GapReject:
		return "reject"
	case GapShift:
		return "shift"
	default:
		return fmt.Sprintf("Gap(%d)", int(g))
	}
}

// ParseGap parses the String form of a Gap.
func ParseGap(s string) (Gap, error) {
	switch s {
	case "reject":
		return GapReject, nil
	case "shift":
		return GapShift, nil
	}
	return 0, fmt.Errorf("unknown gap policy %q, want reject or shift", s)
}

type options struct {
	ambiguity Ambiguity
	gap       Gap
}

// Option configures a Zone.
type Option func(*options)

// WithAmbiguity sets the policy for civil times that occur twice.
func WithAmbiguity(a Ambiguity) Option { return func(o *options) { o.ambiguity = a } }

// WithGap sets the policy for civil times skipped by a transition.
func WithGap(g Gap) Option { return func(o *options) { o.gap = g } }

// Zone is a loaded time zone.
type Zone struct {
	name  string
	table *ruletable.Table
	opts  options
}

// Load builds a zone named name from the contents of a TZif file. Any
// defect in data fails the whole load with a *FormatError.
func Load(name string, data []byte, opts ...Option) (*Zone, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	d, err := tzif.Decode(data)
	if err != nil {
		return nil, &FormatError{Name: name, Err: err}
	}
	table, err := ruletable.New(d)
	if err != nil {
		return nil, &FormatError{Name: name, Err: err}
	}
	return newZone(name, table, opts), nil
}

// LoadDefault builds the zone the system uses for local time, usually from
// the contents of /etc/localtime. The zone is named "localtime".
func LoadDefault(data []byte, opts ...Option) (*Zone, error) {
	return Load("localtime", data, opts...)
}

// FromTZString builds a zone from a POSIX TZ string such as
// "EST5EDT,M3.2.0,M11.1.0". The zone is named after the string.
func FromTZString(s string, opts ...Option) (*Zone, error) {
	if err := checkName(s); err != nil {
		return nil, err
	}
	rule, err := posixrule.Parse(s)
	if err != nil {
		return nil, &FormatError{Name: s, Err: err}
	}
	return newZone(s, ruletable.FromRule(rule), opts), nil
}

// UTC returns a zone named "UTC" with offset zero and abbreviation "UTC".
func UTC(opts ...Option) *Zone {
	rule, err := posixrule.Parse("UTC0")
	if err != nil {
		panic(err)
	}
	return newZone("UTC", ruletable.FromRule(rule), opts)
}

func newZone(name string, table *ruletable.Table, opts []Option) *Zone {
	z := &Zone{name: name, table: table}
	for _, opt := range opts {
		opt(&z.opts)
	}
	return z
}

func checkName(name string) error {
	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return &EncodingError{Field: "zone name", Value: name}
		}
	}
	if !utf8.ValidString(name) {
		return &EncodingError{Field: "zone name", Value: name}
	}
	return nil
}

// Name returns the name the zone was loaded with.
func (z *Zone) Name() string { return z.name }

func (z *Zone) String() string { return z.name }

// HasLeapSeconds reports whether the zone counts inserted leap seconds,
// as the "right/" zones of the tz database do.
func (z *Zone) HasLeapSeconds() bool { return z.table.HasLeapSeconds() }
