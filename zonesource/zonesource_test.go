package zonesource

import (
	"archive/zip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ngrash/go-libtz/internal/tztest"
	"github.com/ngrash/go-libtz/tz"
)

// zoneDir writes the fixtures into a fresh zoneinfo directory.
func zoneDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"America/Los_Angeles": tztest.Pacific().Bytes(t),
		"Europe/Paris":        tztest.Paris().Bytes(t),
		"localtime":           tztest.Moscow().Bytes(t),
		"broken":              []byte("TZif nonsense"),
	}
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func zipFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "zoneinfo.zip")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	fw, err := w.Create("Pacific/Honolulu")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(tztest.Honolulu().Bytes(t)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestValidName(t *testing.T) {
	tests := map[string]bool{
		"Europe/Paris":     true,
		"UTC":              true,
		"Etc/GMT+5":        true,
		"":                 false,
		"/etc/localtime":   false,
		"\\windows":        false,
		"../../etc/shadow": false,
		"Europe/../UTC":    false,
	}
	for name, want := range tests {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestDir_ReadZone(t *testing.T) {
	d := Dir(zoneDir(t))
	got, err := d.ReadZone("Europe/Paris")
	if err != nil {
		t.Fatalf("ReadZone() failed: %v", err)
	}
	if diff := cmp.Diff(tztest.Paris().Bytes(t), got); diff != "" {
		t.Errorf("ReadZone() mismatch (-want +got):\n%s", diff)
	}

	if _, err := d.ReadZone("Mars/Olympus"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadZone(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := d.ReadZone("../x"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("ReadZone(../x) error = %v, want ErrInvalidName", err)
	}
}

func TestZip_ReadZone(t *testing.T) {
	z := Zip(zipFile(t))
	got, err := z.ReadZone("Pacific/Honolulu")
	if err != nil {
		t.Fatalf("ReadZone() failed: %v", err)
	}
	if diff := cmp.Diff(tztest.Honolulu().Bytes(t), got); diff != "" {
		t.Errorf("ReadZone() mismatch (-want +got):\n%s", diff)
	}
	if _, err := z.ReadZone("Europe/Paris"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadZone(missing) error = %v, want ErrNotFound", err)
	}
	missing := Zip(filepath.Join(t.TempDir(), "none.zip"))
	if _, err := missing.ReadZone("UTC"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadZone(no archive) error = %v, want ErrNotFound", err)
	}
	if got, want := z.String(), "zip:"+string(z); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

type failing struct{ err error }

func (f failing) ReadZone(string) ([]byte, error) { return nil, f.err }

func TestSources_ReadZone(t *testing.T) {
	dir := Dir(zoneDir(t))
	archive := Zip(zipFile(t))
	boom := errors.New("boom")

	s := Sources{archive, dir}
	for _, name := range []string{"Pacific/Honolulu", "Europe/Paris"} {
		if _, err := s.ReadZone(name); err != nil {
			t.Errorf("ReadZone(%q) failed: %v", name, err)
		}
	}

	tests := []struct {
		name    string
		sources Sources
		zone    string
		want    error
	}{
		{"empty", nil, "UTC", ErrNotFound},
		{"all missing", Sources{archive, dir}, "Mars/Olympus", ErrNotFound},
		{"first real error wins", Sources{dir, failing{boom}}, "Mars/Olympus", boom},
		{"invalid stops", Sources{failing{ErrInvalidName}, dir}, "Europe/Paris", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.sources.ReadZone(tt.zone); !errors.Is(err, tt.want) {
				t.Errorf("ReadZone() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSystem(t *testing.T) {
	got := System(env(map[string]string{"ZONEINFO": "/opt/zoneinfo.zip"}))
	want := Sources{Zip("/opt/zoneinfo.zip")}
	for _, d := range DefaultDirs {
		want = append(want, Dir(d))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("System() mismatch (-want +got):\n%s", diff)
	}
	if got := System(env(nil)); len(got) != len(DefaultDirs) {
		t.Errorf("System() without ZONEINFO has %d sources, want %d", len(got), len(DefaultDirs))
	}
}

func TestLoader_Load(t *testing.T) {
	l := &Loader{Source: Dir(zoneDir(t)), Getenv: env(nil)}

	tests := []struct {
		name     string
		wantName string
		wantAbbr string // at 2021-07-01 00:00 UTC
	}{
		{"America/Los_Angeles", "America/Los_Angeles", "PDT"},
		{"Europe/Paris", "Europe/Paris", "CEST"},
		{"", "UTC", "UTC"},
		{"EST5EDT", "EST5EDT", "EDT"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			z, err := l.Load(tt.name)
			if err != nil {
				t.Fatalf("Load(%q) failed: %v", tt.name, err)
			}
			if z.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", z.Name(), tt.wantName)
			}
			tm, err := z.Localtime(1625097600)
			if err != nil {
				t.Fatal(err)
			}
			if tm.Zone != tt.wantAbbr {
				t.Errorf("Localtime().Zone = %q, want %q", tm.Zone, tt.wantAbbr)
			}
		})
	}

	if _, err := l.Load("Mars/Olympus"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := l.Load("../etc/passwd"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Load(../etc/passwd) error = %v, want ErrInvalidName", err)
	}
	var fe *tz.FormatError
	if _, err := l.Load("broken"); !errors.As(err, &fe) {
		t.Errorf("Load(broken) error = %v, want *tz.FormatError", err)
	}
}

func TestLoader_Options(t *testing.T) {
	l := &Loader{
		Source:  Dir(zoneDir(t)),
		Getenv:  env(nil),
		Options: []tz.Option{tz.WithAmbiguity(tz.AmbiguityLater)},
	}
	z, err := l.Load("America/Los_Angeles")
	if err != nil {
		t.Fatal(err)
	}
	// 2021-11-07 01:30 occurs in PDT and then in PST.
	got, err := z.Mktime(tz.Tm{Year: 121, Mon: 10, Mday: 7, Hour: 1, Min: 30, IsDST: -1})
	if err != nil {
		t.Fatal(err)
	}
	if got != 1636277400 {
		t.Errorf("Mktime() = %d, want 1636277400", got)
	}
}

func TestLoader_Default(t *testing.T) {
	dir := zoneDir(t)
	parisPath := filepath.Join(dir, "Europe", "Paris")

	tests := []struct {
		name     string
		env      map[string]string
		local    string
		wantName string
		wantOff  int64 // at 2021-07-01 00:00 UTC
	}{
		{"unset", nil, filepath.Join(dir, "localtime"), "localtime", 10800},
		{"unset without file", nil, filepath.Join(dir, "nothing"), "UTC", 0},
		{"empty", map[string]string{"TZ": ""}, "", "UTC", 0},
		{"name", map[string]string{"TZ": "Europe/Paris"}, "", "Europe/Paris", 7200},
		{"colon name", map[string]string{"TZ": ":America/Los_Angeles"}, "", "America/Los_Angeles", -25200},
		{"absolute path", map[string]string{"TZ": parisPath}, "", parisPath, 7200},
		{"colon absolute path", map[string]string{"TZ": ":" + parisPath}, "", parisPath, 7200},
		{"TZ string", map[string]string{"TZ": "JST-9"}, "", "JST-9", 32400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Loader{Source: Dir(dir), Getenv: env(tt.env), LocaltimePath: tt.local}
			z, err := l.Default()
			if err != nil {
				t.Fatalf("Default() failed: %v", err)
			}
			if z.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", z.Name(), tt.wantName)
			}
			tm, err := z.Localtime(1625097600)
			if err != nil {
				t.Fatal(err)
			}
			if tm.GMTOff != tt.wantOff {
				t.Errorf("Localtime().GMTOff = %d, want %d", tm.GMTOff, tt.wantOff)
			}
		})
	}
}

func TestLoader_DefaultErrors(t *testing.T) {
	dir := zoneDir(t)
	tests := []struct {
		name string
		tz   string
		want error
	}{
		{"colon disables TZ strings", ":JST-9", ErrNotFound},
		{"missing absolute path", filepath.Join(dir, "nothing"), fs.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Loader{Source: Dir(dir), Getenv: env(map[string]string{"TZ": tt.tz})}
			if _, err := l.Default(); !errors.Is(err, tt.want) {
				t.Errorf("Default() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCache(t *testing.T) {
	c := NewCache(&Loader{Source: Dir(zoneDir(t)), Getenv: env(nil)})

	var wg sync.WaitGroup
	zones := make([]*tz.Zone, 8)
	for i := range zones {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			z, err := c.Get("Europe/Paris")
			if err != nil {
				t.Error(err)
				return
			}
			zones[i] = z
		}(i)
	}
	wg.Wait()
	for i, z := range zones {
		if z != zones[0] {
			t.Errorf("Get() #%d returned a different zone", i)
		}
	}

	if _, err := c.Get("Mars/Olympus"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	hits, misses := c.Stats()
	if hits+misses != int64(len(zones)) || misses < 1 {
		t.Errorf("Stats() = %d hits, %d misses", hits, misses)
	}
}
