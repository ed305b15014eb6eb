package tz

import "math"

// Time2Posix converts t, which counts inserted leap seconds in zones that
// have them, to POSIX time. During an inserted leap second the previous
// POSIX second repeats. In zones without leap seconds t is returned as is.
func (z *Zone) Time2Posix(t int64) int64 {
	corr, _ := z.table.LeapCorrection(t)
	return saturate(t, -corr)
}

// Posix2Time is the inverse of Time2Posix: Time2Posix(Posix2Time(p)) == p
// for every p. It searches for the instant the way tzcode's posix2time does.
func (z *Zone) Posix2Time(p int64) int64 {
	if !z.table.HasLeapSeconds() {
		return p
	}
	x := saturate(p, z.corr(p))
	y := z.Time2Posix(x)
	switch {
	case y < p:
		for y < p && x < math.MaxInt64 {
			x++
			y = z.Time2Posix(x)
		}
		if y != p {
			x--
		}
	case y > p:
		for y > p && x > math.MinInt64 {
			x--
			y = z.Time2Posix(x)
		}
		if y != p {
			x++
		}
	}
	return x
}

func (z *Zone) corr(t int64) int64 {
	c, _ := z.table.LeapCorrection(t)
	return c
}

// saturate returns a+b clamped to the int64 range.
func saturate(a, b int64) int64 {
	if c, ok := add(a, b); ok {
		return c
	}
	if b > 0 {
		return math.MaxInt64
	}
	return math.MinInt64
}
