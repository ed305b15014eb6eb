// Package config loads the tzctl configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ngrash/go-libtz/tz"
	"github.com/ngrash/go-libtz/zonesource"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "TZCTL_CONFIG"

// Config holds the complete tzctl configuration
type Config struct {
	Zoneinfo ZoneinfoConfig `toml:"zoneinfo"`
	Log      LogConfig      `toml:"log"`
	Output   OutputConfig   `toml:"output"`
	Policy   PolicyConfig   `toml:"policy"`
}

// ZoneinfoConfig selects where zone files come from
type ZoneinfoConfig struct {
	// Dirs and Zip replace the system sources when set. Dirs are searched
	// before Zip.
	Dirs []string `toml:"dirs"`
	Zip  string   `toml:"zip"`
	// Default is the zone used when a command is given none. Empty means
	// the TZ environment variable, then /etc/localtime.
	Default   string `toml:"default"`
	Localtime string `toml:"localtime"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// OutputConfig holds output settings
type OutputConfig struct {
	Format string `toml:"format"`
}

// PolicyConfig holds the mktime resolution policies
type PolicyConfig struct {
	Ambiguous string `toml:"ambiguous"`
	Gap       string `toml:"gap"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file. An empty path means the file
// named by TZCTL_CONFIG, or the defaults when that is unset too.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Policy.Ambiguous == "" {
		c.Policy.Ambiguous = tz.AmbiguityEarlier.String()
	}
	if c.Policy.Gap == "" {
		c.Policy.Gap = tz.GapReject.String()
	}
	if c.Zoneinfo.Localtime == "" {
		c.Zoneinfo.Localtime = zonesource.DefaultLocaltime
	}
}

// expandEnvVars expands environment variables in paths
func (c *Config) expandEnvVars() {
	for i, d := range c.Zoneinfo.Dirs {
		c.Zoneinfo.Dirs[i] = os.ExpandEnv(d)
	}
	c.Zoneinfo.Zip = os.ExpandEnv(c.Zoneinfo.Zip)
	c.Zoneinfo.Localtime = os.ExpandEnv(c.Zoneinfo.Localtime)
}

// Validate reports every value that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q, want text or json", c.Log.Format))
	}
	switch c.Output.Format {
	case "text", "yaml":
	default:
		errs = append(errs, fmt.Errorf("output format %q, want text or yaml", c.Output.Format))
	}
	if _, err := c.ZoneOptions(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.Log.Level, err)
	}
	return l, nil
}

// ZoneOptions returns the tz options selected by the policy section.
func (c *Config) ZoneOptions() ([]tz.Option, error) {
	a, err := tz.ParseAmbiguity(c.Policy.Ambiguous)
	if err != nil {
		return nil, err
	}
	g, err := tz.ParseGap(c.Policy.Gap)
	if err != nil {
		return nil, err
	}
	return []tz.Option{tz.WithAmbiguity(a), tz.WithGap(g)}, nil
}

// Source returns the zone source selected by the zoneinfo section, or nil
// when the system sources should be used.
func (c *Config) Source() zonesource.Source {
	if len(c.Zoneinfo.Dirs) == 0 && c.Zoneinfo.Zip == "" {
		return nil
	}
	var s zonesource.Sources
	for _, d := range c.Zoneinfo.Dirs {
		s = append(s, zonesource.Dir(filepath.Clean(d)))
	}
	if c.Zoneinfo.Zip != "" {
		s = append(s, zonesource.Zip(c.Zoneinfo.Zip))
	}
	return s
}

// Loader returns a zone loader configured from c.
func (c *Config) Loader(logger *slog.Logger) (*zonesource.Loader, error) {
	opts, err := c.ZoneOptions()
	if err != nil {
		return nil, err
	}
	return &zonesource.Loader{
		Source:        c.Source(),
		LocaltimePath: c.Zoneinfo.Localtime,
		Options:       opts,
		Logger:        logger,
	}, nil
}
