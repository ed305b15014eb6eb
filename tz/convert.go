package tz

import (
	"fmt"
	"math"
	"slices"

	"github.com/ngrash/go-libtz/internal/civil"
)

// Localtime returns the civil time in z at instant t.
func (z *Zone) Localtime(t int64) (Tm, error) {
	r := z.table.Lookup(t)
	corr, hit := z.table.LeapCorrection(t)
	local, ok := add(t, r.Type.Offset-corr)
	if !ok {
		return Tm{}, fmt.Errorf("%w: localtime of %d in %s", ErrOverflow, t, z.name)
	}
	tm, err := fromFields(civil.ToCivil(local))
	if err != nil {
		return Tm{}, err
	}
	if hit {
		tm.Sec++
	}
	if r.Type.IsDST {
		tm.IsDST = 1
	}
	tm.GMTOff = r.Type.Offset
	tm.Zone = r.Type.Abbrev
	return tm, nil
}

// Mktime returns the instant at which z shows the civil time tm. Fields
// outside their usual ranges are normalized; Wday, Yday and Zone are
// ignored.
//
// A civil time that occurs twice is resolved by IsDST when it is not
// negative, then by GMTOff, then by the zone's Ambiguity policy. A civil
// time that never occurs fails with ErrInvalidCivilTime unless the zone
// was loaded with WithGap(GapShift).
func (z *Zone) Mktime(tm Tm) (int64, error) {
	// Seconds outside [0, 60) are added back after resolution, so that
	// 23:59:60 names the inserted leap second in zones that count them.
	sec, saved := int64(tm.Sec), int64(0)
	if sec < 0 || sec >= 60 {
		saved, sec = sec, 0
	}
	local, ok := civil.FromCivil(int64(tm.Year)+1900, int64(tm.Mon)+1, int64(tm.Mday), int64(tm.Hour), int64(tm.Min), sec)
	if !ok {
		return 0, errOverflow(tm)
	}
	want := civil.ToCivil(local)

	var cands []candidate
	for _, off := range z.table.Offsets() {
		p, ok := add(local, -off)
		if !ok {
			continue
		}
		t := z.Posix2Time(p)
		got, err := z.Localtime(t)
		if err != nil || !sameCivil(got, want) {
			continue
		}
		cands = append(cands, candidate{t: t, tm: got})
	}
	slices.SortFunc(cands, func(a, b candidate) int {
		switch {
		case a.t < b.t:
			return -1
		case a.t > b.t:
			return 1
		}
		return 0
	})
	cands = slices.CompactFunc(cands, func(a, b candidate) bool { return a.t == b.t })

	var t int64
	if len(cands) == 0 {
		var err error
		if t, err = z.gap(tm, local, want); err != nil {
			return 0, err
		}
	} else {
		t = z.pick(tm, cands)
	}
	if t, ok = add(t, saved); !ok {
		return 0, errOverflow(tm)
	}
	return t, nil
}

type candidate struct {
	t  int64
	tm Tm
}

func (z *Zone) pick(tm Tm, cands []candidate) int64 {
	if tm.IsDST >= 0 {
		cands = prefer(cands, func(c candidate) bool { return (c.tm.IsDST > 0) == (tm.IsDST > 0) })
		cands = prefer(cands, func(c candidate) bool { return c.tm.GMTOff == tm.GMTOff })
	}
	if z.opts.ambiguity == AmbiguityLater {
		return cands[len(cands)-1].t
	}
	return cands[0].t
}

// prefer returns the candidates matching f, or all of them if none does.
func prefer(cands []candidate, f func(candidate) bool) []candidate {
	var match []candidate
	for _, c := range cands {
		if f(c) {
			match = append(match, c)
		}
	}
	if len(match) == 0 {
		return cands
	}
	return match
}

// gap resolves a civil time that z skips.
func (z *Zone) gap(tm Tm, local int64, want civil.Fields) (int64, error) {
	if z.opts.gap == GapShift && tm.IsDST >= 0 {
		wantDST := tm.IsDST > 0
		for _, off := range z.table.Offsets() {
			p, ok := add(local, -off)
			if !ok {
				continue
			}
			typ := z.table.Lookup(z.Posix2Time(p)).Type
			if typ.IsDST != wantDST {
				continue
			}
			if p, ok = add(local, -typ.Offset); ok {
				return z.Posix2Time(p), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %04d-%02d-%02d %02d:%02d:%02d does not occur in %s",
		ErrInvalidCivilTime, want.Year, want.Month, want.Day, want.Hour, want.Min, want.Sec, z.name)
}

func sameCivil(tm Tm, f civil.Fields) bool {
	return int64(tm.Year)+1900 == f.Year &&
		tm.Mon+1 == f.Month &&
		tm.Mday == f.Day &&
		tm.Hour == f.Hour &&
		tm.Min == f.Min &&
		tm.Sec == f.Sec
}

// Gmtime returns the civil time in UTC at instant t. Leap seconds are not
// counted.
func Gmtime(t int64) (Tm, error) {
	tm, err := fromFields(civil.ToCivil(t))
	if err != nil {
		return Tm{}, err
	}
	tm.Zone = "UTC"
	return tm, nil
}

// Timegm is the inverse of Gmtime. Fields outside their usual ranges are
// normalized; Wday, Yday, IsDST, GMTOff and Zone are ignored.
func Timegm(tm Tm) (int64, error) {
	t, ok := civil.FromCivil(int64(tm.Year)+1900, int64(tm.Mon)+1, int64(tm.Mday), int64(tm.Hour), int64(tm.Min), int64(tm.Sec))
	if !ok {
		return 0, errOverflow(tm)
	}
	return t, nil
}

func fromFields(f civil.Fields) (Tm, error) {
	year := f.Year - 1900
	if year < math.MinInt || year > math.MaxInt {
		return Tm{}, fmt.Errorf("%w: year %d", ErrOverflow, f.Year)
	}
	return Tm{
		Sec:   f.Sec,
		Min:   f.Min,
		Hour:  f.Hour,
		Mday:  f.Day,
		Mon:   f.Month - 1,
		Year:  int(year),
		Wday:  f.Weekday,
		Yday:  f.YearDay,
		IsDST: 0,
	}, nil
}

func errOverflow(tm Tm) error {
	return fmt.Errorf("%w: %w: year %d month %d day %d %02d:%02d:%02d",
		ErrInvalidCivilTime, ErrOverflow, int64(tm.Year)+1900, tm.Mon+1, tm.Mday, tm.Hour, tm.Min, tm.Sec)
}

func add(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}
