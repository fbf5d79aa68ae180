package docsync

import (
	"fmt"

	"github.com/sokinpui/docsync/cli"
	"github.com/sokinpui/docsync/model"
)

// Config for using docsync as a library.
type Config struct {
	// Root directory that relative paths are resolved against. Defaults to
	// the working directory.
	Dir string
	// Source file holding the marker-prefixed block. Defaults to ./src/lib.rs.
	Source string
	// Destination document. Defaults to ./README.md.
	Destination string
	// Marker prefix. Defaults to "//!".
	Marker string
	// Banner written above the block.
	Banner string
	// Destination lines skipped on reverse sync. Nil derives the count from
	// Banner.
	HeaderLines *int
	// DetectHeader finds the title and badge lines in the destination instead.
	DetectHeader bool
}

func (c Config) cliConfig(dir model.Direction) *cli.Config {
	cfg := &cli.Config{
		Direction:    dir,
		Dir:          c.Dir,
		Source:       c.Source,
		Destination:  c.Destination,
		Marker:       c.Marker,
		Banner:       c.Banner,
		HeaderLines:  -1,
		DetectHeader: c.DetectHeader,
		NoTUI:        true,
	}
	if cfg.Source == "" {
		cfg.Source = cli.DefaultSource
	}
	if cfg.Destination == "" {
		cfg.Destination = cli.DefaultDestination
	}
	if cfg.Marker == "" {
		cfg.Marker = cli.DefaultMarker
	}
	if c.HeaderLines != nil {
		cfg.HeaderLines = *c.HeaderLines
	}
	return cfg
}

// Forward copies the source comment block into the destination document.
func Forward(config Config) (model.Summary, error) {
	return run(config.cliConfig(model.Forward))
}

// Reverse copies the destination body back into the source file.
func Reverse(config Config) (model.Summary, error) {
	return run(config.cliConfig(model.Reverse))
}

func run(cfg *cli.Config) (model.Summary, error) {
	app, err := New(cfg)
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to initialize docsync app: %w", err)
	}
	return app.Execute()
}
