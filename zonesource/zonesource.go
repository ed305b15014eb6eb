// Package zonesource finds the TZif data for zone names and resolves the
// TZ environment variable, then hands the bytes to package tz.
package zonesource

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when no source has a file for a zone name.
	ErrNotFound = errors.New("zonesource: zone not found")

	// ErrInvalidName is returned for names that could escape a zoneinfo
	// directory.
	ErrInvalidName = errors.New("zonesource: invalid zone name")
)

// DefaultDirs are the directories searched by System, in order.
var DefaultDirs = []string{
	"/usr/share/zoneinfo/",
	"/usr/share/lib/zoneinfo/",
	"/usr/lib/locale/TZ/",
	"/etc/zoneinfo",
}

// maxZoneSize bounds the size of a zone file read from any source.
const maxZoneSize = 10 << 20

// Source reads the TZif data for a zone name. Implementations return an
// error wrapping ErrNotFound when they have no such zone.
type Source interface {
	ReadZone(name string) ([]byte, error)
}

// ValidName reports whether name can be looked up in a source. No valid
// IANA zone name contains "..", and none begins with a slash.
func ValidName(name string) bool {
	if name == "" || name[0] == '/' || name[0] == '\\' {
		return false
	}
	return !strings.Contains(name, "..")
}

// Dir is a zoneinfo directory such as /usr/share/zoneinfo.
type Dir string

func (d Dir) ReadZone(name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := readFile(filepath.Join(string(d), filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, d)
	}
	return data, err
}

func (d Dir) String() string { return string(d) }

// Zip is an uncompressed or deflated zip archive of zone files, such as
// $GOROOT/lib/time/zoneinfo.zip.
type Zip string

func (z Zip) ReadZone(name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	r, err := zip.OpenReader(string(z))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: archive %s does not exist", ErrNotFound, z)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", z, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		if f.UncompressedSize64 > maxZoneSize {
			return nil, fmt.Errorf("reading %s from %s: file too large", name, z)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", name, z, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, maxZoneSize))
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", name, z, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, z)
}

func (z Zip) String() string { return "zip:" + string(z) }

// Sources tries each source in order. A source that fails with something
// other than ErrNotFound does not stop the search, but its error is
// returned if no later source has the zone.
type Sources []Source

func (s Sources) ReadZone(name string) ([]byte, error) {
	var firstErr error
	for _, src := range s {
		data, err := src.ReadZone(name)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, ErrInvalidName) {
			return nil, err
		}
		if firstErr == nil || (errors.Is(firstErr, ErrNotFound) && !errors.Is(err, ErrNotFound)) {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil, firstErr
}

// System returns the sources consulted when nothing else is configured:
// the directory or zip archive named by $ZONEINFO, then DefaultDirs.
func System(getenv func(string) (string, bool)) Sources {
	var s Sources
	if zi, ok := getenv("ZONEINFO"); ok && zi != "" {
		s = append(s, fromPath(zi))
	}
	for _, d := range DefaultDirs {
		s = append(s, Dir(d))
	}
	return s
}

// fromPath returns a Zip for paths ending in .zip and a Dir otherwise.
func fromPath(p string) Source {
	if strings.HasSuffix(p, ".zip") {
		return Zip(p)
	}
	return Dir(p)
}

func readFile(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxZoneSize))
}
