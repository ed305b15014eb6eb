package cmd

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ngrash/go-libtz/tz"
)

// civilTime is a converted time as printed by the conversion commands.
type civilTime struct {
	Instant int64  `yaml:"instant"`
	Time    string `yaml:"time"`
	Weekday int    `yaml:"weekday"`
	YearDay int    `yaml:"yearday"`
	IsDST   int    `yaml:"isdst"`
	GMTOff  int64  `yaml:"gmtoff"`
	Zone    string `yaml:"zone"`
}

func newCivilTime(t int64, tm tz.Tm) civilTime {
	return civilTime{
		Instant: t,
		Time:    formatTm(tm),
		Weekday: tm.Wday,
		YearDay: tm.Yday,
		IsDST:   tm.IsDST,
		GMTOff:  tm.GMTOff,
		Zone:    tm.Zone,
	}
}

func (c civilTime) String() string {
	return fmt.Sprintf("%d\t%s %s %s isdst=%d wday=%d yday=%d",
		c.Instant, c.Time, c.Zone, formatOffset(c.GMTOff), c.IsDST, c.Weekday, c.YearDay)
}

// mapping is an instant mapped between two time scales.
type mapping struct {
	From int64 `yaml:"from"`
	To   int64 `yaml:"to"`
}

func (m mapping) String() string { return fmt.Sprintf("%d\t%d", m.From, m.To) }

func formatTm(tm tz.Tm) string {
	year, sign := int64(tm.Year)+1900, ""
	if year < 0 {
		year, sign = -year, "-"
	}
	return fmt.Sprintf("%s%04d-%02d-%02d %02d:%02d:%02d",
		sign, year, tm.Mon+1, tm.Mday, tm.Hour, tm.Min, tm.Sec)
}

// formatOffset formats a UT offset as +hhmm, or +hhmmss when it has seconds.
func formatOffset(off int64) string {
	sign := byte('+')
	if off < 0 {
		sign = '-'
		off = -off
	}
	h, m, s := off/3600, off/60%60, off%60
	if s != 0 {
		return fmt.Sprintf("%c%02d%02d%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%c%02d%02d", sign, h, m)
}

// write prints values one per line as text, or as a YAML sequence.
func write[T fmt.Stringer](w io.Writer, format string, values []T) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(values); err != nil {
			return err
		}
		return enc.Close()
	}
	for _, v := range values {
		if _, err := fmt.Fprintln(w, v.String()); err != nil {
			return err
		}
	}
	return nil
}
