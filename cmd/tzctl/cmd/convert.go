package cmd

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ngrash/go-libtz/tz"
)

func newLocaltimeCommand(a *app) *cobra.Command {
	var zf zoneFlags
	cmd := &cobra.Command{
		Use:   "localtime [flags] [--] INSTANT...",
		Short: "Convert instants to civil time in a zone",
		Long: `Convert seconds since 1970-01-01 00:00:00 UTC to the civil time of a zone.
INSTANT may be "now". Negative instants must follow --:

  tzctl localtime -z Pacific/Honolulu -- -2334101315`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(zf)
			if err != nil {
				return err
			}
			return convertInstants(cmd, a, args, func(t int64) (civilTime, error) {
				tm, err := z.Localtime(t)
				return newCivilTime(t, tm), err
			})
		},
	}
	zf.register(cmd)
	return cmd
}

func newGmtimeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gmtime [flags] [--] INSTANT...",
		Short: "Convert instants to civil time in UTC",
		Long: `Convert seconds since 1970-01-01 00:00:00 UTC to civil time in UTC.
Negative instants must follow --:

  tzctl gmtime -- -86400`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convertInstants(cmd, a, args, func(t int64) (civilTime, error) {
				tm, err := tz.Gmtime(t)
				return newCivilTime(t, tm), err
			})
		},
	}
}

func newMktimeCommand(a *app) *cobra.Command {
	var zf zoneFlags
	isDST := isDSTValue(-1)
	cmd := &cobra.Command{
		Use:   "mktime [flags] [--] CIVILTIME...",
		Short: "Convert civil times in a zone to instants",
		Long: `Convert civil times of the form "YYYY-MM-DD[ HH:MM[:SS]]" in a zone to
seconds since the epoch. Negative years must follow --.

A time that occurs twice is resolved by --isdst, then by --ambiguous.
A time that is skipped fails unless --gap shift is given together with
--isdst 0 or 1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(zf)
			if err != nil {
				return err
			}
			return convertCivil(cmd, a, args, func(tm tz.Tm) (civilTime, error) {
				tm.IsDST = int(isDST)
				t, err := z.Mktime(tm)
				if err != nil {
					return civilTime{}, err
				}
				out, err := z.Localtime(t)
				return newCivilTime(t, out), err
			})
		},
	}
	zf.register(cmd)
	cmd.Flags().Var(&isDST, "isdst", "whether the civil time is daylight saving time")
	return cmd
}

func newTimegmCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timegm [flags] [--] CIVILTIME...",
		Short: "Convert civil times in UTC to instants",
		Long: `Convert civil times of the form "YYYY-MM-DD[ HH:MM[:SS]]" in UTC to
seconds since the epoch. Negative years must follow --:

  tzctl timegm -- -0001-01-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convertCivil(cmd, a, args, func(tm tz.Tm) (civilTime, error) {
				t, err := tz.Timegm(tm)
				if err != nil {
					return civilTime{}, err
				}
				out, err := tz.Gmtime(t)
				return newCivilTime(t, out), err
			})
		},
	}
}

func newTime2PosixCommand(a *app) *cobra.Command {
	var zf zoneFlags
	cmd := &cobra.Command{
		Use:   "time2posix [flags] [--] INSTANT...",
		Short: "Map instants that count leap seconds to POSIX time",
		Long:  "Negative instants must follow --.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(zf)
			if err != nil {
				return err
			}
			return convertInstants(cmd, a, args, func(t int64) (mapping, error) {
				return mapping{From: t, To: z.Time2Posix(t)}, nil
			})
		},
	}
	zf.register(cmd)
	return cmd
}

func newPosix2TimeCommand(a *app) *cobra.Command {
	var zf zoneFlags
	cmd := &cobra.Command{
		Use:   "posix2time [flags] [--] INSTANT...",
		Short: "Map POSIX time to instants that count leap seconds",
		Long:  "Negative instants must follow --.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(zf)
			if err != nil {
				return err
			}
			return convertInstants(cmd, a, args, func(p int64) (mapping, error) {
				return mapping{From: p, To: z.Posix2Time(p)}, nil
			})
		},
	}
	zf.register(cmd)
	return cmd
}

func convertInstants[T fmt.Stringer](cmd *cobra.Command, a *app, args []string, conv func(int64) (T, error)) error {
	out := make([]T, 0, len(args))
	for _, arg := range args {
		t, err := parseInstant(arg)
		if err != nil {
			return err
		}
		v, err := conv(t)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	return write(cmd.OutOrStdout(), a.cfg.Output.Format, out)
}

func convertCivil[T fmt.Stringer](cmd *cobra.Command, a *app, args []string, conv func(tz.Tm) (T, error)) error {
	out := make([]T, 0, len(args))
	for _, arg := range args {
		tm, err := parseCivil(arg)
		if err != nil {
			return err
		}
		v, err := conv(tm)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	return write(cmd.OutOrStdout(), a.cfg.Output.Format, out)
}

func parseInstant(s string) (int64, error) {
	if s == "now" {
		return time.Now().Unix(), nil
	}
	t, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid instant %q: want seconds since the epoch", s)
	}
	return t, nil
}

var civilRE = regexp.MustCompile(`^([+-]?\d+)-(\d{1,2})-(\d{1,2})(?:[ T](\d{1,2}):(\d{1,2})(?::(\d{1,2}))?)?$`)

// parseCivil parses "YYYY-MM-DD[ HH:MM[:SS]]". Fields are not range
// checked; mktime and timegm normalize them.
func parseCivil(s string) (tz.Tm, error) {
	m := civilRE.FindStringSubmatch(s)
	if m == nil {
		return tz.Tm{}, fmt.Errorf("invalid civil time %q: want YYYY-MM-DD HH:MM:SS", s)
	}
	year, err := strconv.Atoi(m[1])
	if err != nil || year < math.MinInt+1900 {
		return tz.Tm{}, fmt.Errorf("invalid civil time %q: year out of range", s)
	}
	// The remaining groups are at most two digits.
	num := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	return tz.Tm{
		Year:  year - 1900,
		Mon:   num(m[2]) - 1,
		Mday:  num(m[3]),
		Hour:  num(m[4]),
		Min:   num(m[5]),
		Sec:   num(m[6]),
		IsDST: -1,
	}, nil
}
