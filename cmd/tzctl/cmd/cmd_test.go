package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/ngrash/go-libtz/internal/config"
	"github.com/ngrash/go-libtz/internal/tztest"
	"github.com/ngrash/go-libtz/tz"
)

// fixtures writes a zoneinfo directory and returns its path.
func fixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]tztest.Zone{
		"America/Los_Angeles": tztest.Pacific(),
		"Europe/Paris":        tztest.Paris(),
		"Pacific/Honolulu":    tztest.Honolulu(),
		"right/UTC":           tztest.UTCLeaps(),
	}
	for name, z := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, z.Bytes(t), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConversions(t *testing.T) {
	dir := fixtures(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "localtime",
			args: []string{"localtime", "--zone", "America/Los_Angeles", "1636273800", "1636277400"},
			want: "1636273800\t2021-11-07 01:30:00 PDT -0700 isdst=1 wday=0 yday=310\n" +
				"1636277400\t2021-11-07 01:30:00 PST -0800 isdst=0 wday=0 yday=310\n",
		},
		{
			name: "localtime LMT",
			args: []string{"localtime", "-z", "Pacific/Honolulu", "--", "-2334101315"},
			want: "-2334101315\t1896-01-13 11:59:59 LMT -103126 isdst=0 wday=1 yday=12\n",
		},
		{
			name: "mktime isdst",
			args: []string{"mktime", "-z", "America/Los_Angeles", "--isdst", "0", "2021-11-07 01:30:00"},
			want: "1636277400\t2021-11-07 01:30:00 PST -0800 isdst=0 wday=0 yday=310\n",
		},
		{
			name: "mktime earlier",
			args: []string{"mktime", "-z", "America/Los_Angeles", "2021-11-07T01:30"},
			want: "1636273800\t2021-11-07 01:30:00 PDT -0700 isdst=1 wday=0 yday=310\n",
		},
		{
			name: "mktime later",
			args: []string{"mktime", "--ambiguous", "later", "-z", "America/Los_Angeles", "2021-11-07 01:30:00"},
			want: "1636277400\t2021-11-07 01:30:00 PST -0800 isdst=0 wday=0 yday=310\n",
		},
		{
			name: "mktime gap shift",
			args: []string{"mktime", "--gap", "shift", "--isdst", "std", "-z", "America/Los_Angeles", "2021-03-14 02:30:00"},
			want: "1615717800\t2021-03-14 03:30:00 PDT -0700 isdst=1 wday=0 yday=72\n",
		},
		{
			name: "gmtime",
			args: []string{"gmtime", "0"},
			want: "0\t1970-01-01 00:00:00 UTC +0000 isdst=0 wday=4 yday=0\n",
		},
		{
			name: "gmtime negative",
			args: []string{"gmtime", "--", "-86400", "0"},
			want: "-86400\t1969-12-31 00:00:00 UTC +0000 isdst=0 wday=3 yday=364\n" +
				"0\t1970-01-01 00:00:00 UTC +0000 isdst=0 wday=4 yday=0\n",
		},
		{
			name: "timegm negative year",
			args: []string{"timegm", "--", "-0001-01-01"},
			want: "-62198755200\t-0001-01-01 00:00:00 UTC +0000 isdst=0 wday=5 yday=0\n",
		},
		{
			name: "timegm",
			args: []string{"timegm", "2000-03-01"},
			want: "951868800\t2000-03-01 00:00:00 UTC +0000 isdst=0 wday=3 yday=60\n",
		},
		{
			name: "posix2time",
			args: []string{"posix2time", "-z", "right/UTC", "536457599"},
			want: "536457599\t536457612\n",
		},
		{
			name: "time2posix",
			args: []string{"time2posix", "-z", "right/UTC", "536457612", "78796800"},
			want: "536457612\t536457599\n78796800\t78796799\n",
		},
		{
			name: "TZ string zone",
			args: []string{"localtime", "-z", "JST-9", "0"},
			want: "0\t1970-01-01 09:00:00 JST +0900 isdst=0 wday=4 yday=0\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, append([]string{"--zoneinfo", dir}, tt.args...)...)
			if err != nil {
				t.Fatalf("tzctl %v failed: %v", tt.args, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("tzctl %v mismatch (-want +got):\n%s", tt.args, diff)
			}
		})
	}
}

func TestConversions_Errors(t *testing.T) {
	dir := fixtures(t)
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"gap rejected", []string{"mktime", "-z", "America/Los_Angeles", "2021-03-14 02:30:00"}, tz.ErrInvalidCivilTime},
		{"unknown zone", []string{"localtime", "-z", "Mars/Olympus", "0"}, nil},
		{"bad instant", []string{"localtime", "-z", "Europe/Paris", "yesterday"}, nil},
		{"bad civil time", []string{"timegm", "2000/03/01"}, nil},
		{"bad isdst", []string{"mktime", "--isdst", "maybe", "2000-03-01"}, nil},
		{"bad policy", []string{"--gap", "skip", "gmtime", "0"}, nil},
		{"zone and file", []string{"localtime", "-z", "UTC", "-f", "x", "0"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--zoneinfo", dir}, tt.args...)...)
			if err == nil {
				t.Fatalf("tzctl %v succeeded, want error", tt.args)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("tzctl %v error = %v, want %v", tt.args, err, tt.want)
			}
		})
	}
}

func TestNegativeArgsNeedDashes(t *testing.T) {
	for _, args := range [][]string{
		{"gmtime", "-86400"},
		{"localtime", "-z", "UTC0", "-1"},
		{"timegm", "-0001-01-01"},
	} {
		_, err := run(t, args...)
		if err == nil || !strings.Contains(err.Error(), "must follow --") {
			t.Errorf("tzctl %v error = %v, want a hint to use --", args, err)
		}
	}
}

func TestDefaultZone(t *testing.T) {
	dir := fixtures(t)
	t.Setenv("TZ", "Europe/Paris")
	got, err := run(t, "--zoneinfo", dir, "localtime", "1625097600")
	if err != nil {
		t.Fatal(err)
	}
	want := "1625097600\t2021-07-01 02:00:00 CEST +0200 isdst=1 wday=4 yday=181\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("localtime mismatch (-want +got):\n%s", diff)
	}
}

func TestFileZone(t *testing.T) {
	dir := fixtures(t)
	got, err := run(t, "localtime", "--file", filepath.Join(dir, "Europe", "Paris"), "915177600")
	if err != nil {
		t.Fatal(err)
	}
	want := "915177600\t1999-01-01 09:00:00 CET +0100 isdst=0 wday=5 yday=0\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("localtime mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigFile(t *testing.T) {
	dir := fixtures(t)
	cfg := filepath.Join(t.TempDir(), "tzctl.toml")
	content := "[zoneinfo]\ndirs = [\"" + dir + "\"]\ndefault = \"America/Los_Angeles\"\n\n[output]\nformat = \"yaml\"\n"
	if err := os.WriteFile(cfg, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfg, "localtime", "1636273800")
	if err != nil {
		t.Fatal(err)
	}
	var got []civilTime
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	want := []civilTime{{
		Instant: 1636273800,
		Time:    "2021-11-07 01:30:00",
		Weekday: 0,
		YearDay: 310,
		IsDST:   1,
		GMTOff:  -25200,
		Zone:    "PDT",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("localtime mismatch (-want +got):\n%s", diff)
	}

	// Flags take precedence over the file.
	out, err = run(t, "--config", cfg, "-o", "text", "localtime", "-z", "Europe/Paris", "0")
	if err != nil {
		t.Fatal(err)
	}
	if want := "0\t1970-01-01 01:00:00 CET +0100 isdst=0 wday=4 yday=0\n"; out != want {
		t.Errorf("localtime = %q, want %q", out, want)
	}
}

func TestInspect(t *testing.T) {
	dir := fixtures(t)
	path := filepath.Join(dir, "Pacific", "Honolulu")

	out, err := run(t, "inspect", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Version V2 (0x32)", "Data block (8-byte times)", "TZString = HST10", "5: utoff=-36000 dst=false idx=4 HST", "valid"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "4-byte times") {
		t.Errorf("inspect printed the v1 block without --v1:\n%s", out)
	}

	out, err = run(t, "-o", "yaml", "inspect", "--v1", path)
	if err != nil {
		t.Fatal(err)
	}
	var rep report
	if err := yaml.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if len(rep.Blocks) != 2 || rep.Blocks[0].TimeSize != 4 || rep.Blocks[1].TimeSize != 8 {
		t.Errorf("inspect --v1 blocks = %+v, want a 4-byte and an 8-byte block", rep.Blocks)
	}
	if rep.Footer == nil || *rep.Footer != "HST10" || !rep.Valid {
		t.Errorf("inspect report = %+v", rep)
	}
	if got := len(rep.Blocks[1].Transitions); got != 7 {
		t.Errorf("inspect found %d transitions, want 7", got)
	}

	garbage := filepath.Join(t.TempDir(), "garbage")
	if err := os.WriteFile(garbage, []byte("not a tzif file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "inspect", garbage); err == nil {
		t.Error("inspect(garbage) succeeded")
	}
}

func TestDiff(t *testing.T) {
	dir := fixtures(t)
	paris := filepath.Join(dir, "Europe", "Paris")
	la := filepath.Join(dir, "America", "Los_Angeles")

	out, err := run(t, "diff", paris, paris)
	if err != nil {
		t.Fatal(err)
	}
	if out != "files are identical\n" {
		t.Errorf("diff(same) = %q", out)
	}

	out, err = run(t, "diff", paris, la)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "files are different: -A +B\n") {
		t.Errorf("diff(different) = %q", out)
	}
	for _, footer := range []string{`"CET-1CEST,M3.5.0,M10.5.0/3"`, `"PST8PDT,M3.2.0,M11.1.0"`} {
		if !strings.Contains(out, footer) {
			t.Errorf("diff(different) does not show footer %s:\n%s", footer, out)
		}
	}
}

func TestIsDSTValue(t *testing.T) {
	tests := []struct {
		in   string
		want isDSTValue
	}{
		{"auto", -1},
		{"-1", -1},
		{"0", 0},
		{"std", 0},
		{"1", 1},
		{"DST", 1},
	}
	for _, tt := range tests {
		var v isDSTValue
		if err := v.Set(tt.in); err != nil || v != tt.want {
			t.Errorf("Set(%q) = %d, %v; want %d", tt.in, v, err, tt.want)
		}
	}
	var v isDSTValue
	if err := v.Set("2"); err == nil {
		t.Error("Set(2) succeeded")
	}
}

func TestParseCivil(t *testing.T) {
	tests := []struct {
		in   string
		want tz.Tm
	}{
		{"2021-11-07 01:30:00", tz.Tm{Year: 121, Mon: 10, Mday: 7, Hour: 1, Min: 30, IsDST: -1}},
		{"2021-11-07T01:30", tz.Tm{Year: 121, Mon: 10, Mday: 7, Hour: 1, Min: 30, IsDST: -1}},
		{"1972-06-30 23:59:60", tz.Tm{Year: 72, Mon: 5, Mday: 30, Hour: 23, Min: 59, Sec: 60, IsDST: -1}},
		{"-0001-01-01", tz.Tm{Year: -1901, Mon: 0, Mday: 1, IsDST: -1}},
	}
	for _, tt := range tests {
		got, err := parseCivil(tt.in)
		if err != nil {
			t.Errorf("parseCivil(%q) failed: %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseCivil(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
	for _, in := range []string{"", "2021-11", "2021-11-07 1", "noon"} {
		if _, err := parseCivil(in); err == nil {
			t.Errorf("parseCivil(%q) succeeded", in)
		}
	}
}

func TestFormatOffset(t *testing.T) {
	for off, want := range map[int64]string{0: "+0000", 3600: "+0100", -25200: "-0700", -37886: "-103126", 19800: "+0530"} {
		if got := formatOffset(off); got != want {
			t.Errorf("formatOffset(%d) = %q, want %q", off, got, want)
		}
	}
}
