package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sokinpui/docsync/internal/source"
	"github.com/sokinpui/docsync/model"
)

const (
	DefaultSource      = "./src/lib.rs"
	DefaultDestination = "./README.md"
	DefaultMarker      = "//!"

	configName = ".docsync"
	envPrefix  = "DOCSYNC"
)

// Config holds all the command-line flag values.
type Config struct {
	Direction    model.Direction
	Dir          string
	Source       string
	Destination  string
	Marker       string
	Banner       string
	HeaderLines  int // negative means derive from Banner
	DetectHeader bool
	Input        string
	Check        bool
	Stdout       bool
	Revert       bool
	Redo         bool
	NoTUI        bool
	ConfigFile   string
}

// ParseFlags parses os.Args.
func ParseFlags() (*Config, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs defines and parses command-line flags using pflag. Values not
// given on the command line come from DOCSYNC_* environment variables, then
// an optional .docsync.{yaml,toml,json} file, then defaults.
func ParseArgs(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("docsync", pflag.ContinueOnError)

	flags.StringP("dir", "C", "", "Run as if started in this directory.")
	flags.StringP("source", "s", DefaultSource, "Source file holding the marker-prefixed doc block.")
	flags.StringP("destination", "d", DefaultDestination, "Destination document.")
	flags.StringP("marker", "m", DefaultMarker, "Line prefix marking doc block lines.")
	flags.StringP("banner", "B", "", "Title and badges written above the block (default: \"# <directory name>\").")
	flags.Int("header-lines", -1, "Destination lines to skip on reverse sync (default: lines used by the banner).")
	flags.Bool("detect-header", false, "Detect the destination title and badge lines instead of counting banner lines.")
	flags.StringP("input", "i", source.InputFile, "Where reverse sync reads the destination from: file, stdin or clipboard.")
	flags.Bool("check", false, "Exit with an error if the destination is out of sync instead of writing it.")
	flags.Bool("stdout", false, "Print the resulting document instead of writing it.")
	flags.Bool("no-tui", false, "Print plain progress lines instead of the interactive view.")
	flags.String("config", "", "Config file (default: .docsync.yaml in the working directory).")

	// Mutually exclusive history group
	flags.BoolP("revert", "r", false, "Revert the last sync.")
	flags.BoolP("redo", "R", false, "Redo the last reverted sync.")

	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: docsync [readme|source] [flags]")
		fmt.Fprintln(os.Stderr, "\nCopy the doc comment block of a source file into a README (readme, the default),")
		fmt.Fprintln(os.Stderr, "or copy the README body back into the source file (source).")
		fmt.Fprintln(os.Stderr, "\nExample: docsync -B '# easy-sgr'")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Dir:          v.GetString("dir"),
		Source:       v.GetString("source"),
		Destination:  v.GetString("destination"),
		Marker:       v.GetString("marker"),
		Banner:       v.GetString("banner"),
		HeaderLines:  v.GetInt("header-lines"),
		DetectHeader: v.GetBool("detect-header"),
		Input:        v.GetString("input"),
		Check:        v.GetBool("check"),
		Stdout:       v.GetBool("stdout"),
		Revert:       v.GetBool("revert"),
		Redo:         v.GetBool("redo"),
		NoTUI:        v.GetBool("no-tui"),
		ConfigFile:   v.ConfigFileUsed(),
	}

	rest := flags.Args()
	if len(rest) > 1 {
		return nil, fmt.Errorf("error: expected at most one direction argument, got %q", rest)
	}
	direction := v.GetString("direction")
	if len(rest) == 1 {
		direction = rest[0]
	}
	dir, err := model.ParseDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("error: %w", err)
	}
	cfg.Direction = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readConfigFile loads the --config file, or .docsync.* from the working
// directory (or --dir) when present. A missing default file is not an error.
// Config keys are the long flag names plus "direction".
func readConfigFile(v *viper.Viper) error {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		return nil
	}

	dir := v.GetString("dir")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)
	v.SetConfigName(configName)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Validate checks flag combinations that cannot work together.
func (c *Config) Validate() error {
	if c.Revert && c.Redo {
		return fmt.Errorf("error: --revert and --redo are mutually exclusive")
	}
	if c.Check && c.Stdout {
		return fmt.Errorf("error: --check and --stdout are mutually exclusive")
	}
	if c.Marker == "" {
		return fmt.Errorf("error: --marker must not be empty")
	}
	if !source.ValidInput(c.Input) {
		return fmt.Errorf("error: unknown input %q (want file, stdin or clipboard)", c.Input)
	}
	if c.Check && c.Direction == model.Reverse {
		return fmt.Errorf("error: --check only applies to forward sync")
	}
	return nil
}
