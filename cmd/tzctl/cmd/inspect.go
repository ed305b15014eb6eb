package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ngrash/go-libtz/tz"
	"github.com/ngrash/go-libtz/tzif"
)

func newInspectCommand(a *app) *cobra.Command {
	var printV1 bool
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the contents of a TZif file",
		Long: `Print the headers, data blocks and footer of a TZif file and report
whether the file is valid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			r := bytes.NewReader(b)
			data, err := tzif.DecodeData(r)
			if err != nil {
				return fmt.Errorf("decoding: %w", err)
			}
			a.logger.Debug("decoded", "path", args[0], "version", data.Version, "size", len(b))

			rep := newReport(data, printV1, r.Len())
			w := cmd.OutOrStdout()
			if a.cfg.Output.Format == "yaml" {
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(rep); err != nil {
					return err
				}
				return enc.Close()
			}
			rep.print(w)
			return nil
		},
	}
	cmd.Flags().BoolVar(&printV1, "v1", false, "always print the v1 header and data block")
	return cmd
}

// report is the inspect output.
type report struct {
	Version  string        `yaml:"version"`
	Blocks   []blockReport `yaml:"blocks"`
	Footer   *string       `yaml:"footer,omitempty"`
	Trailing int           `yaml:"trailing_bytes,omitempty"`
	Valid    bool          `yaml:"valid"`
	Problems []string      `yaml:"problems,omitempty"`
}

type blockReport struct {
	Version      string             `yaml:"version"`
	TimeSize     int                `yaml:"time_size"`
	Header       headerReport       `yaml:"header"`
	Transitions  []transitionReport `yaml:"transitions,omitempty"`
	Types        []typeReport       `yaml:"types"`
	Designations []string           `yaml:"designations"`
	Leaps        []leapReport       `yaml:"leap_seconds,omitempty"`
	StdWall      []bool             `yaml:"standard_wall,omitempty"`
	UTLocal      []bool             `yaml:"ut_local,omitempty"`
}

type headerReport struct {
	Isutcnt  uint32 `yaml:"isutcnt"`
	Isstdcnt uint32 `yaml:"isstdcnt"`
	Leapcnt  uint32 `yaml:"leapcnt"`
	Timecnt  uint32 `yaml:"timecnt"`
	Typecnt  uint32 `yaml:"typecnt"`
	Charcnt  uint32 `yaml:"charcnt"`
}

type transitionReport struct {
	Time int64 `yaml:"time"`
	Type uint8 `yaml:"type"`
}

type typeReport struct {
	Utoff  int32  `yaml:"utoff"`
	Dst    bool   `yaml:"dst"`
	Idx    uint8  `yaml:"idx"`
	Abbrev string `yaml:"abbrev"`
}

type leapReport struct {
	Occur int64 `yaml:"occur"`
	Corr  int32 `yaml:"corr"`
}

func newReport(d tzif.Data, printV1 bool, trailing int) report {
	rep := report{
		Version:  d.Version.String(),
		Trailing: trailing,
		Valid:    true,
	}
	if d.Version == tzif.V1 || printV1 {
		rep.Blocks = append(rep.Blocks, newBlockReport(d.V1Header.Version, tzif.V1TimeSize, d.V1Header, d.V1Data))
	}
	if d.Version > tzif.V1 {
		rep.Blocks = append(rep.Blocks, newBlockReport(d.V2Header.Version, tzif.V2TimeSize, d.V2Header, d.V2Data))
		footer := d.Footer()
		rep.Footer = &footer
	}
	if err := tzif.Validate(d); err != nil {
		rep.Valid = false
		rep.Problems = strings.Split(err.Error(), "\n")
	} else if _, err := tz.Load("inspect", encode(d)); err != nil {
		rep.Valid = false
		rep.Problems = []string{err.Error()}
	}
	return rep
}

// encode re-encodes d so that tz.Load sees exactly what was decoded.
func encode(d tzif.Data) []byte {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}

func newBlockReport(v tzif.Version, timeSize int, h tzif.Header, b tzif.DataBlock) blockReport {
	br := blockReport{
		Version:  v.String(),
		TimeSize: timeSize,
		Header: headerReport{
			Isutcnt:  h.Isutcnt,
			Isstdcnt: h.Isstdcnt,
			Leapcnt:  h.Leapcnt,
			Timecnt:  h.Timecnt,
			Typecnt:  h.Typecnt,
			Charcnt:  h.Charcnt,
		},
		Designations: strings.Split(strings.TrimSuffix(string(b.TimeZoneDesignation), "\x00"), "\x00"),
		StdWall:      b.StandardWallIndicators,
		UTLocal:      b.UTLocalIndicators,
	}
	for i, t := range b.TransitionTimes {
		tr := transitionReport{Time: t}
		if i < len(b.TransitionTypes) {
			tr.Type = b.TransitionTypes[i]
		}
		br.Transitions = append(br.Transitions, tr)
	}
	for _, r := range b.LocalTimeTypeRecords {
		abbrev, err := b.Designation(r.Idx)
		if err != nil {
			abbrev = "?"
		}
		br.Types = append(br.Types, typeReport{Utoff: r.Utoff, Dst: r.Dst, Idx: r.Idx, Abbrev: abbrev})
	}
	for _, l := range b.LeapSecondRecords {
		br.Leaps = append(br.Leaps, leapReport{Occur: l.Occur, Corr: l.Corr})
	}
	return br
}

func (r report) print(w io.Writer) {
	fmt.Fprintln(w, "Version", r.Version)
	fmt.Fprintln(w)
	for _, b := range r.Blocks {
		b.print(w)
	}
	if r.Footer != nil {
		fmt.Fprintln(w, "Footer")
		fmt.Fprintln(w, "  TZString =", *r.Footer)
		fmt.Fprintln(w)
	}
	if r.Trailing > 0 {
		fmt.Fprintln(w, "remaining data:", r.Trailing, "bytes")
	}
	if r.Valid {
		fmt.Fprintln(w, "valid")
		return
	}
	fmt.Fprintln(w, "invalid:")
	for _, p := range r.Problems {
		fmt.Fprintln(w, " ", p)
	}
}

func (b blockReport) print(w io.Writer) {
	h := b.Header
	fmt.Fprintln(w, "Header")
	fmt.Fprintln(w, "  version  =", b.Version)
	fmt.Fprintln(w, "  isutcnt  =", h.Isutcnt)
	fmt.Fprintln(w, "  isstdcnt =", h.Isstdcnt)
	fmt.Fprintln(w, "  leapcnt  =", h.Leapcnt)
	fmt.Fprintln(w, "  timecnt  =", h.Timecnt)
	fmt.Fprintln(w, "  typecnt  =", h.Typecnt)
	fmt.Fprintln(w, "  charcnt  =", h.Charcnt)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Data block (%d-byte times)\n", b.TimeSize)
	fmt.Fprintf(w, "  Transitions (%d)\n", len(b.Transitions))
	for _, t := range b.Transitions {
		fmt.Fprintf(w, "    %d %d\n", t.Time, t.Type)
	}
	fmt.Fprintf(w, "  LocalTimeTypeRecords (%d)\n", len(b.Types))
	for i, t := range b.Types {
		fmt.Fprintf(w, "    %d: utoff=%d dst=%t idx=%d %s\n", i, t.Utoff, t.Dst, t.Idx, t.Abbrev)
	}
	fmt.Fprintf(w, "  TimeZoneDesignation (%d) = %v\n", len(b.Designations), b.Designations)
	fmt.Fprintf(w, "  LeapSecondRecords (%d)\n", len(b.Leaps))
	for _, l := range b.Leaps {
		fmt.Fprintf(w, "    %d %+d\n", l.Occur, l.Corr)
	}
	fmt.Fprintf(w, "  StandardWallIndicators (%d) = %v\n", len(b.StdWall), b.StdWall)
	fmt.Fprintf(w, "  UTLocalIndicators (%d) = %v\n", len(b.UTLocal), b.UTLocal)
	fmt.Fprintln(w)
}
