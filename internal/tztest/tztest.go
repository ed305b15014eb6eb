// Package tztest builds TZif files for tests.
package tztest

import (
	"bytes"
	"math"
	"testing"

	"github.com/ngrash/go-libtz/tzif"
)

// Type is a local time type of a test zone.
type Type struct {
	Offset int32
	IsDST  bool
	Abbrev string
}

// Zone describes a test zone. Transitions[i] switches to Types[TransitionTypes[i]].
type Zone struct {
	Version         tzif.Version // zero means V1
	Types           []Type
	Transitions     []int64
	TransitionTypes []uint8
	Leaps           []tzif.LeapSecondRecord
	Footer          string
}

// Data assembles the zone into TZif data. Version 2+ files carry the full
// table in the second block and the part of it that fits 32 bits in the
// first.
func (z Zone) Data() tzif.Data {
	d := tzif.Data{Version: z.Version}
	d.V1Header, d.V1Data = z.block(z.Version, true)
	if z.Version > tzif.V1 {
		d.V2Header, d.V2Data = z.block(z.Version, false)
		d.V2Footer = tzif.Footer{TZString: []byte(z.Footer)}
	}
	return d
}

func (z Zone) block(v tzif.Version, narrow bool) (tzif.Header, tzif.DataBlock) {
	fits := func(t int64) bool { return !narrow || (t >= math.MinInt32 && t <= math.MaxInt32) }

	var b tzif.DataBlock
	index := make(map[string]uint8)
	for _, typ := range z.Types {
		idx, ok := index[typ.Abbrev]
		if !ok {
			idx = uint8(len(b.TimeZoneDesignation))
			index[typ.Abbrev] = idx
			b.TimeZoneDesignation = append(b.TimeZoneDesignation, typ.Abbrev...)
			b.TimeZoneDesignation = append(b.TimeZoneDesignation, 0)
		}
		b.LocalTimeTypeRecords = append(b.LocalTimeTypeRecords, tzif.LocalTimeTypeRecord{
			Utoff: typ.Offset,
			Dst:   typ.IsDST,
			Idx:   idx,
		})
	}
	for i, t := range z.Transitions {
		if fits(t) {
			b.TransitionTimes = append(b.TransitionTimes, t)
			b.TransitionTypes = append(b.TransitionTypes, z.TransitionTypes[i])
		}
	}
	for _, l := range z.Leaps {
		if fits(l.Occur) {
			b.LeapSecondRecords = append(b.LeapSecondRecords, l)
		}
	}

	h := tzif.Header{
		Version: v,
		Leapcnt: uint32(len(b.LeapSecondRecords)),
		Timecnt: uint32(len(b.TransitionTimes)),
		Typecnt: uint32(len(b.LocalTimeTypeRecords)),
		Charcnt: uint32(len(b.TimeZoneDesignation)),
	}
	return h, b
}

// Bytes encodes the zone.
func (z Zone) Bytes(tb testing.TB) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := z.Data().Encode(&buf); err != nil {
		tb.Fatalf("encode test zone: %v", err)
	}
	return buf.Bytes()
}

// Pacific is US Pacific time with the 1999, 2020 and 2021 transitions and
// the current rules in the footer. Standard time fills the years between.
func Pacific() Zone {
	return Zone{
		Version: tzif.V2,
		Types: []Type{
			{Offset: -28800, Abbrev: "PST"},
			{Offset: -25200, IsDST: true, Abbrev: "PDT"},
		},
		Transitions: []int64{
			923220000,  // 1999-04-04 10:00Z
			941360400,  // 1999-10-31 09:00Z
			1583661600, // 2020-03-08 10:00Z
			1604221200, // 2020-11-01 09:00Z
			1615716000, // 2021-03-14 10:00Z
			1636275600, // 2021-11-07 09:00Z
		},
		TransitionTypes: []uint8{1, 0, 1, 0, 1, 0},
		Footer:          "PST8PDT,M3.2.0,M11.1.0",
	}
}

// Paris has no transitions; every instant is resolved by the footer.
func Paris() Zone {
	return Zone{
		Version: tzif.V2,
		Types: []Type{
			{Offset: 3600, Abbrev: "CET"},
			{Offset: 7200, IsDST: true, Abbrev: "CEST"},
		},
		Footer: "CET-1CEST,M3.5.0,M10.5.0/3",
	}
}

// Moscow moved its standard offset from +04 back to +03 on 2014-10-26
// at 02:00 local time, repeating an hour without any DST involved.
func Moscow() Zone {
	return Zone{
		Version: tzif.V2,
		Types: []Type{
			{Offset: 14400, Abbrev: "MSK"},
			{Offset: 10800, Abbrev: "MSK"},
		},
		Transitions:     []int64{1414274400},
		TransitionTypes: []uint8{1},
		Footer:          "MSK-3",
	}
}

// Honolulu is example B.2 of RFC8536.
func Honolulu() Zone {
	return Zone{
		Version: tzif.V2,
		Types: []Type{
			{Offset: -37886, Abbrev: "LMT"},
			{Offset: -37800, Abbrev: "HST"},
			{Offset: -34200, IsDST: true, Abbrev: "HDT"},
			{Offset: -34200, IsDST: true, Abbrev: "HWT"},
			{Offset: -34200, IsDST: true, Abbrev: "HPT"},
			{Offset: -36000, Abbrev: "HST"},
		},
		Transitions: []int64{
			-2334101314,
			-1157283000,
			-1155436200,
			-880198200,
			-769395600,
			-765376200,
			-712150200,
		},
		TransitionTypes: []uint8{1, 2, 1, 3, 4, 1, 5},
		Footer:          "HST10",
	}
}

// UTCLeaps is example B.1 of RFC8536: UTC with the 27 leap seconds
// inserted up to 2017.
func UTCLeaps() Zone {
	return Zone{
		Version: tzif.V1,
		Types:   []Type{{Offset: 0, Abbrev: "UTC"}},
		Leaps: []tzif.LeapSecondRecord{
			{Occur: 78796800, Corr: 1},
			{Occur: 94694401, Corr: 2},
			{Occur: 126230402, Corr: 3},
			{Occur: 157766403, Corr: 4},
			{Occur: 189302404, Corr: 5},
			{Occur: 220924805, Corr: 6},
			{Occur: 252460806, Corr: 7},
			{Occur: 283996807, Corr: 8},
			{Occur: 315532808, Corr: 9},
			{Occur: 362793609, Corr: 10},
			{Occur: 394329610, Corr: 11},
			{Occur: 425865611, Corr: 12},
			{Occur: 489024012, Corr: 13},
			{Occur: 567993613, Corr: 14},
			{Occur: 631152014, Corr: 15},
			{Occur: 662688015, Corr: 16},
			{Occur: 709948816, Corr: 17},
			{Occur: 741484817, Corr: 18},
			{Occur: 773020818, Corr: 19},
			{Occur: 820454419, Corr: 20},
			{Occur: 867715220, Corr: 21},
			{Occur: 915148821, Corr: 22},
			{Occur: 1136073622, Corr: 23},
			{Occur: 1230768023, Corr: 24},
			{Occur: 1341100824, Corr: 25},
			{Occur: 1435708825, Corr: 26},
			{Occur: 1483228826, Corr: 27},
		},
	}
}
