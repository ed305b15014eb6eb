package tz_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/ngrash/go-libtz/tz"
)

func ExampleZone_Localtime() {
	z, err := tz.FromTZString("PST8PDT,M3.2.0,M11.1.0")
	if err != nil {
		log.Fatal(err)
	}
	tm, err := z.Localtime(946713600)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%04d-%02d-%02d %02d:%02d:%02d %s isdst=%d gmtoff=%d\n",
		tm.Year+1900, tm.Mon+1, tm.Mday, tm.Hour, tm.Min, tm.Sec, tm.Zone, tm.IsDST, tm.GMTOff)
	// Output: 2000-01-01 00:00:00 PST isdst=0 gmtoff=-28800
}

func ExampleZone_Mktime() {
	z, err := tz.FromTZString("PST8PDT,M3.2.0,M11.1.0")
	if err != nil {
		log.Fatal(err)
	}

	// 01:30 on 2021-11-07 happens twice.
	for _, isDST := range []int{-1, 1, 0} {
		t, err := z.Mktime(tz.Tm{Min: 30, Hour: 1, Mday: 7, Mon: 10, Year: 121, IsDST: isDST})
		fmt.Println(isDST, t, err)
	}

	// 02:30 on 2021-03-14 never happens.
	_, err = z.Mktime(tz.Tm{Min: 30, Hour: 2, Mday: 14, Mon: 2, Year: 121, IsDST: -1})
	fmt.Println(errors.Is(err, tz.ErrInvalidCivilTime))
	// Output:
	// -1 1636273800 <nil>
	// 1 1636273800 <nil>
	// 0 1636277400 <nil>
	// true
}

func ExampleGmtime() {
	tm, err := tz.Gmtime(283996800)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%04d-%02d-%02d %s wday=%d yday=%d\n", tm.Year+1900, tm.Mon+1, tm.Mday, tm.Zone, tm.Wday, tm.Yday)
	t, err := tz.Timegm(tm)
	fmt.Println(t, err)
	// Output:
	// 1979-01-01 UTC wday=1 yday=0
	// 283996800 <nil>
}

func ExampleWithAmbiguity() {
	z, err := tz.FromTZString("PST8PDT,M3.2.0,M11.1.0", tz.WithAmbiguity(tz.AmbiguityLater))
	if err != nil {
		log.Fatal(err)
	}
	// 01:30 on 2021-11-07 happens first in PDT, then in PST.
	t, err := z.Mktime(tz.Tm{Min: 30, Hour: 1, Mday: 7, Mon: 10, Year: 121, IsDST: -1})
	fmt.Println(t, err)
	// Output: 1636277400 <nil>
}

func ExampleWithGap() {
	z, err := tz.FromTZString("PST8PDT,M3.2.0,M11.1.0", tz.WithGap(tz.GapShift))
	if err != nil {
		log.Fatal(err)
	}
	// 02:30 on 2021-03-14 never happens; read it as PST.
	t, err := z.Mktime(tz.Tm{Min: 30, Hour: 2, Mday: 14, Mon: 2, Year: 121, IsDST: 0})
	fmt.Println(t, err)
	// Output: 1615717800 <nil>
}
