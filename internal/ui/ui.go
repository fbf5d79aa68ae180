package ui

import (
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/sokinpui/docsync/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
)

// Writer receives all progress output. The TUI swaps it for io.Discard while
// it owns the terminal.
var Writer io.Writer = os.Stderr

// Diagnostics, when set, receives warnings and errors instead of Writer, so
// they survive while progress output is discarded.
var Diagnostics io.Writer

func diagnostics() io.Writer {
	if Diagnostics != nil {
		return Diagnostics
	}
	return Writer
}

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(Writer, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(Writer, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(Writer, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(diagnostics(), format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(diagnostics(), format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(Writer, "  "+format+"\n", a...)
}

// --- Summaries ---

// PrintSummary writes the result of a sync, revert or redo.
func PrintSummary(s model.Summary) {
	Header("\n--- Summary ---")
	if s.Message != "" {
		Info("%s", s.Message)
	}
	if s.Direction != "" {
		Info("Direction: %s (%d block line(s))", s.Direction, s.BlockLines)
	}

	if len(s.Created) == 0 && len(s.Modified) == 0 && len(s.Unchanged) == 0 && len(s.Failed) == 0 {
		Info("No files were updated.")
		return
	}

	printList(SuccessColor, "Created %d file(s):", s.Created)
	printList(SuccessColor, "Modified %d file(s):", s.Modified)
	printList(InfoColor, "Already in sync %d file(s):", s.Unchanged)
	printList(ErrorColor, "Failed to process %d file(s):", s.Failed)
}

func printList(c *color.Color, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	c.Fprintf(Writer, title+"\n", len(paths))
	for _, p := range paths {
		Path("- %s", p)
	}
}
