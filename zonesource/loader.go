package zonesource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ngrash/go-libtz/tz"
)

// DefaultLocaltime is the file describing the system's local time.
const DefaultLocaltime = "/etc/localtime"

// Loader loads zones by name. The zero value searches System sources,
// reads the environment with os.LookupEnv and does not log.
type Loader struct {
	Source        Source
	Getenv        func(string) (string, bool)
	LocaltimePath string
	Options       []tz.Option
	Logger        *slog.Logger
}

func (l *Loader) source() Source {
	if l.Source != nil {
		return l.Source
	}
	return System(l.getenv)
}

func (l *Loader) getenv(key string) (string, bool) {
	if l.Getenv != nil {
		return l.Getenv(key)
	}
	return os.LookupEnv(key)
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Load returns the zone called name. The empty name means UTC. A name no
// source knows is tried as a POSIX TZ string, so "EST5EDT" works without a
// zoneinfo file.
func (l *Loader) Load(name string) (*tz.Zone, error) {
	return l.load(name, true)
}

func (l *Loader) load(name string, tzString bool) (*tz.Zone, error) {
	log := l.logger()
	if name == "" {
		log.Debug("using UTC for empty zone name")
		return tz.UTC(l.Options...), nil
	}
	data, err := l.source().ReadZone(name)
	if err == nil {
		log.Debug("zone loaded", "name", name, "bytes", len(data))
		return tz.Load(name, data, l.Options...)
	}
	if tzString && (errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidName)) {
		if z, perr := tz.FromTZString(name, l.Options...); perr == nil {
			log.Debug("zone built from TZ string", "name", name)
			return z, nil
		}
	}
	return nil, err
}

// Default returns the zone for local time as selected by $TZ:
//
//   - unset: the file at LocaltimePath, or UTC if it does not exist
//   - empty: UTC
//   - ":name" or "name": the zone called name, where an absolute path is
//     read directly
//
// Only a name without the leading colon may be a POSIX TZ string.
func (l *Loader) Default() (*tz.Zone, error) {
	log := l.logger()
	env, ok := l.getenv("TZ")
	switch {
	case !ok:
		path := l.LocaltimePath
		if path == "" {
			path = DefaultLocaltime
		}
		data, err := readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("no local time file, using UTC", "path", path)
			return tz.UTC(l.Options...), nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		log.Debug("local time loaded", "path", path)
		return tz.LoadDefault(data, l.Options...)
	case env == "":
		log.Debug("TZ is empty, using UTC")
		return tz.UTC(l.Options...), nil
	}

	colon := env[0] == ':'
	if colon {
		env = env[1:]
	}
	if env != "" && env[0] == '/' {
		data, err := readFile(env)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", env, err)
		}
		log.Debug("local time loaded", "path", env)
		return tz.Load(env, data, l.Options...)
	}
	return l.load(env, !colon)
}
