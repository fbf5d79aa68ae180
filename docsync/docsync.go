package docsync

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/sokinpui/docsync/cli"
	"github.com/sokinpui/docsync/internal/block"
	"github.com/sokinpui/docsync/internal/fs"
	"github.com/sokinpui/docsync/internal/parser"
	"github.com/sokinpui/docsync/internal/source"
	"github.com/sokinpui/docsync/internal/state"
	"github.com/sokinpui/docsync/internal/ui"
	"github.com/sokinpui/docsync/model"
)

// ErrOutOfSync is returned by a --check run when the destination does not
// match the source comment block.
var ErrOutOfSync = errors.New("destination is out of sync with source")

// App orchestrates the entire application logic.
type App struct {
	cfg            *cli.Config
	stateManager   *state.Manager
	pathResolver   *fs.PathResolver
	sourceProvider *source.SourceProvider
	stdout         io.Writer
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// StackTrace returns the stack captured when the panic was recovered.
func (e *DetailedError) StackTrace() []byte {
	return e.Stack
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pathResolver, err := fs.NewPathResolver(cfg.Dir)
	if err != nil {
		return nil, err
	}
	stateRoot := ""
	if cfg.Dir != "" {
		stateRoot = pathResolver.Root()
	}
	stateManager, err := state.New(stateRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state manager: %w", err)
	}

	return &App{
		cfg:            cfg,
		stateManager:   stateManager,
		pathResolver:   pathResolver,
		sourceProvider: source.New(cfg.Input),
		stdout:         os.Stdout,
	}, nil
}

// SetStdin replaces the reader used by the stdin input.
func (a *App) SetStdin(r io.Reader) {
	a.sourceProvider.WithStdin(r)
}

// SetStdout replaces the writer used by --stdout.
func (a *App) SetStdout(w io.Writer) {
	a.stdout = w
}

// Execute executes the main application logic based on the config.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.Revert:
		return a.revertLastOperation()
	case a.cfg.Redo:
		return a.redoLastOperation()
	case a.cfg.Direction == model.Reverse:
		return a.syncSource()
	default:
		return a.syncDestination()
	}
}

func (a *App) banner() string {
	if a.cfg.Banner != "" {
		return a.cfg.Banner
	}
	return "# " + filepath.Base(a.pathResolver.Root())
}

// syncDestination copies the source comment block into the destination.
func (a *App) syncDestination() (model.Summary, error) {
	ui.Header("Copying start")
	srcPath := a.pathResolver.Resolve(a.cfg.Source)
	dstPath := a.pathResolver.Resolve(a.cfg.Destination)

	src, err := fs.ReadDocument(srcPath)
	if err != nil {
		return model.Summary{}, err
	}
	blk := block.Extract(src, a.cfg.Marker)
	if len(blk) == 0 {
		ui.Warning("No lines starting with '%s' in %s.", a.cfg.Marker, a.pathResolver.Rel(srcPath))
	}
	content := block.Render(a.banner(), blk)

	summary := model.Summary{Direction: model.Forward, BlockLines: len(blk)}
	if a.cfg.Check {
		current, err := os.ReadFile(dstPath)
		if err != nil && !os.IsNotExist(err) {
			return model.Summary{}, fmt.Errorf("failed to read %s: %w", dstPath, err)
		}
		if string(current) != content {
			summary.Failed = []string{dstPath}
			a.relativizeSummaryPaths(&summary)
			return summary, fmt.Errorf("%s: %w", a.pathResolver.Rel(dstPath), ErrOutOfSync)
		}
		summary.Unchanged = []string{dstPath}
		summary.Message = "Destination is in sync."
		a.relativizeSummaryPaths(&summary)
		return summary, nil
	}

	if err := a.writeArtifact(dstPath, content, &summary); err != nil {
		return model.Summary{}, err
	}
	ui.Success("Copying complete")
	return summary, nil
}

// syncSource copies the destination body back into the source file.
func (a *App) syncSource() (model.Summary, error) {
	ui.Header("Copying start")
	srcPath := a.pathResolver.Resolve(a.cfg.Source)
	dstPath := a.pathResolver.Resolve(a.cfg.Destination)

	dstContent, err := a.sourceProvider.GetContent(dstPath)
	if err != nil {
		return model.Summary{}, err
	}
	headerLines := a.headerLines([]byte(dstContent))
	blk := block.FromDestination(model.ParseDocument(dstContent), headerLines)

	src, err := fs.ReadDocument(srcPath)
	if err != nil {
		return model.Summary{}, err
	}
	content := block.Reinsert(src, a.cfg.Marker, blk).String()

	summary := model.Summary{Direction: model.Reverse, BlockLines: len(blk)}
	if err := a.writeArtifact(srcPath, content, &summary); err != nil {
		return model.Summary{}, err
	}
	ui.Success("Copying complete")
	return summary, nil
}

// headerLines picks how many destination lines belong to the banner.
func (a *App) headerLines(dst []byte) int {
	if a.cfg.HeaderLines >= 0 {
		return a.cfg.HeaderLines
	}
	if a.cfg.DetectHeader {
		if n, ok := parser.DetectHeaderLines(dst); ok {
			return n
		}
		ui.Warning("Could not find a title in the destination, falling back to the banner size.")
	}
	return block.HeaderLines(a.banner())
}

// writeArtifact replaces path with content unless it already matches, and
// records the write in the history.
func (a *App) writeArtifact(path, content string, summary *model.Summary) error {
	if a.cfg.Stdout {
		if _, err := io.WriteString(a.stdout, content); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
		return nil
	}

	var before *string
	if raw, err := os.ReadFile(path); err == nil {
		s := string(raw)
		before = &s
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if before != nil && *before == content {
		summary.Unchanged = append(summary.Unchanged, path)
		a.relativizeSummaryPaths(summary)
		return nil
	}

	op, err := a.stateManager.Record(path, before, content)
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	if err := fs.WriteDocument(path, content); err != nil {
		return err
	}
	if err := a.stateManager.Write([]state.Operation{op}); err != nil {
		ui.Warning("History not saved, revert will not be available: %v", err)
	}

	if before == nil {
		summary.Created = append(summary.Created, path)
	} else {
		summary.Modified = append(summary.Modified, path)
	}
	a.relativizeSummaryPaths(summary)
	return nil
}

// revertLastOperation handles the undo logic.
func (a *App) revertLastOperation() (model.Summary, error) {
	ops := a.stateManager.GetOperationsToRevert()
	if len(ops) == 0 {
		return model.Summary{Message: "No operation to revert."}, nil
	}
	summary := model.Summary{Message: "Reverted last sync."}
	err := a.replay("revert", ops, a.stateManager.CheckRevert, a.stateManager.Revert, a.stateManager.CommitRevert, &summary)
	return summary, err
}

// redoLastOperation handles the redo logic.
func (a *App) redoLastOperation() (model.Summary, error) {
	ops := a.stateManager.GetOperationsToRedo()
	if len(ops) == 0 {
		return model.Summary{Message: "No operation to redo."}, nil
	}
	summary := model.Summary{Message: "Redid last reverted sync."}
	err := a.replay("redo", ops, a.stateManager.CheckRedo, a.stateManager.Redo, a.stateManager.CommitRedo, &summary)
	return summary, err
}

// replay checks every operation before applying any of them. The history
// pointer moves only when all of them were applied, so a failed revert or
// redo can be retried once the conflicting edits are resolved.
func (a *App) replay(verb string, ops []state.Operation, check, apply func(state.Operation) error, commit func() error, summary *model.Summary) error {
	defer a.relativizeSummaryPaths(summary)

	var firstErr error
	for _, op := range ops {
		if err := check(op); err != nil {
			ui.Error("Cannot %s %s: %v", verb, a.pathResolver.Rel(op.Path), err)
			summary.Failed = append(summary.Failed, op.Path)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		summary.Message = fmt.Sprintf("Nothing was changed, %d file(s) cannot %s.", len(summary.Failed), verb)
		return fmt.Errorf("failed to %s: %w", verb, firstErr)
	}

	for _, op := range ops {
		if err := apply(op); err != nil {
			summary.Failed = append(summary.Failed, op.Path)
			return fmt.Errorf("failed to %s %s: %w", verb, a.pathResolver.Rel(op.Path), err)
		}
		summary.Modified = append(summary.Modified, op.Path)
	}
	if err := commit(); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// relativizeSummaryPaths converts absolute file paths in a summary to be
// relative to the root directory for cleaner display.
func (a *App) relativizeSummaryPaths(summary *model.Summary) {
	makeRelative := func(paths []string) []string {
		if paths == nil {
			return nil
		}
		out := make([]string, len(paths))
		for i, p := range paths {
			if filepath.IsAbs(p) {
				out[i] = a.pathResolver.Rel(p)
			} else {
				out[i] = p
			}
		}
		return out
	}

	summary.Created = makeRelative(summary.Created)
	summary.Modified = makeRelative(summary.Modified)
	summary.Unchanged = makeRelative(summary.Unchanged)
	summary.Failed = makeRelative(summary.Failed)
}
