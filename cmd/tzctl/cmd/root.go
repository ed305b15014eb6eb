// Package cmd implements the tzctl commands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/ngrash/go-libtz/internal/config"
	"github.com/ngrash/go-libtz/tz"
	"github.com/ngrash/go-libtz/zonesource"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string
	output    string
	zoneinfo  []string
	ambiguity policyValue[tz.Ambiguity]
	gap       policyValue[tz.Gap]

	cfg    *config.Config
	logger *slog.Logger
	zones  *zonesource.Cache
	loader *zonesource.Loader
}

// Execute runs tzctl with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand returns the tzctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{
		ambiguity: newPolicyValue(tz.ParseAmbiguity),
		gap:       newPolicyValue(tz.ParseGap),
	}

	root := &cobra.Command{
		Use:   "tzctl",
		Short: "Inspect TZif files and convert between instants and civil time",
		Long: `tzctl reads compiled time zone (TZif) files and converts between
seconds since the epoch and broken-down civil time in a zone.

Zones are named like Europe/Paris and looked up in the zoneinfo
directories, or given as POSIX TZ strings such as EST5EDT. Without
--zone the TZ environment variable and /etc/localtime decide.

Examples:
  tzctl localtime --zone America/Los_Angeles 1636273800
  tzctl mktime --zone Europe/Paris --isdst 0 "2021-10-31 02:30:00"
  tzctl inspect /usr/share/zoneinfo/Europe/Paris`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.SetFlagErrorFunc(flagError)

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default $"+config.EnvVar+")")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	f.StringVarP(&a.output, "output", "o", "", "output format: text or yaml")
	f.StringSliceVar(&a.zoneinfo, "zoneinfo", nil, "zoneinfo directories or zip archives to search instead of the system ones")
	f.Var(&a.ambiguity, "ambiguous", "instant chosen for a repeated civil time: earlier or later")
	f.Var(&a.gap, "gap", "handling of a skipped civil time: reject or shift")

	root.AddCommand(
		newInspectCommand(a),
		newDiffCommand(a),
		newLocaltimeCommand(a),
		newMktimeCommand(a),
		newGmtimeCommand(a),
		newTimegmCommand(a),
		newTime2PosixCommand(a),
		newPosix2TimeCommand(a),
	)
	return root
}

var negativeArg = regexp.MustCompile(`in -\d`)

// flagError points at -- when a negative number was taken for a flag.
func flagError(cmd *cobra.Command, err error) error {
	if negativeArg.MatchString(err.Error()) {
		return fmt.Errorf("%w (negative instants and years must follow --)", err)
	}
	return err
}

// setup loads the configuration, applies the flags on top of it and
// prepares logging and zone loading.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if f.Changed("output") {
		cfg.Output.Format = a.output
	}
	if a.ambiguity.set {
		cfg.Policy.Ambiguous = a.ambiguity.String()
	}
	if a.gap.set {
		cfg.Policy.Gap = a.gap.String()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := cfg.LogLevel()
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Format, level)

	loader, err := cfg.Loader(a.logger)
	if err != nil {
		return err
	}
	if f.Changed("zoneinfo") {
		loader.Source = zoneinfoSources(a.zoneinfo)
	}
	a.loader = loader
	a.zones = zonesource.NewCache(loader)
	a.logger.Debug("configured",
		"config", a.cfgFile,
		"output", cfg.Output.Format,
		"ambiguous", cfg.Policy.Ambiguous,
		"gap", cfg.Policy.Gap)
	return nil
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// zoneinfoSources maps --zoneinfo paths to sources. Paths that are not
// directories are read as zip archives.
func zoneinfoSources(paths []string) zonesource.Source {
	var s zonesource.Sources
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			s = append(s, zonesource.Zip(p))
			continue
		}
		s = append(s, zonesource.Dir(p))
	}
	return s
}

// zoneFlags are the flags of commands that convert in a zone.
type zoneFlags struct {
	zone string
	file string
}

func (zf *zoneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&zf.zone, "zone", "z", "", "zone name or POSIX TZ string (default from config, $TZ or /etc/localtime)")
	cmd.Flags().StringVarP(&zf.file, "file", "f", "", "read the zone from this TZif file")
	cmd.MarkFlagsMutuallyExclusive("zone", "file")
}

// zone resolves the zone selected by zf.
func (a *app) zone(zf zoneFlags) (*tz.Zone, error) {
	opts, err := a.cfg.ZoneOptions()
	if err != nil {
		return nil, err
	}
	switch {
	case zf.file != "":
		data, err := os.ReadFile(zf.file)
		if err != nil {
			return nil, fmt.Errorf("reading zone file: %w", err)
		}
		a.logger.Debug("zone loaded from file", "path", zf.file)
		return tz.Load(zf.file, data, opts...)
	case zf.zone != "":
		return a.zones.Get(zf.zone)
	case a.cfg.Zoneinfo.Default != "":
		return a.zones.Get(a.cfg.Zoneinfo.Default)
	default:
		return a.loader.Default()
	}
}
