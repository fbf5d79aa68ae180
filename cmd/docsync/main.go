package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/sokinpui/docsync/cli"
	"github.com/sokinpui/docsync/docsync"
	"github.com/sokinpui/docsync/internal/tui"
	"github.com/sokinpui/docsync/internal/ui"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	app, err := docsync.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// --stdout output and non-interactive runs skip the TUI.
	if cfg.NoTUI || cfg.Stdout || !isatty.IsTerminal(os.Stderr.Fd()) {
		summary, err := app.Execute()
		if !cfg.Stdout {
			ui.PrintSummary(summary)
		}
		if err != nil {
			exitWithError(err)
		}
		return
	}

	// Warnings are held back while bubbletea owns the terminal and printed
	// below the final view.
	var diag bytes.Buffer
	ui.Writer = io.Discard
	ui.Diagnostics = &diag
	model := tui.New(app)
	final, err := tea.NewProgram(model, tea.WithOutput(os.Stderr)).Run()
	ui.Writer, ui.Diagnostics = os.Stderr, nil
	os.Stderr.Write(diag.Bytes())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		os.Exit(1)
	}
}

func exitWithError(err error) {
	ui.Error("Error: %v", err)
	var de *docsync.DetailedError
	if errors.As(err, &de) {
		fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", de.Stack)
	}
	os.Exit(1)
}
