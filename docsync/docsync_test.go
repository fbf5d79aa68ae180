package docsync_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sokinpui/docsync/cli"
	"github.com/sokinpui/docsync/docsync"
	"github.com/sokinpui/docsync/internal/state"
	"github.com/sokinpui/docsync/model"
)

const libRS = `//! # easy-sgr
//!
//! An easy to use library for adding graphical ANSI codes or SGR escape sequences to your project.
//!
//! ## Installation
//!
//! Add it to your ` + "`Cargo.toml`" + `.

#![forbid(unsafe_code)]

pub mod color;
pub use color::*;
`

const readmeMD = "# easy-sgr\n\n# easy-sgr\n\nAn easy to use library for adding graphical ANSI codes or SGR escape sequences to your project.\n\n## Installation\n\nAdd it to your `Cargo.toml`.\n"

// newProject lays out src/lib.rs (and README.md when readme is not empty)
// in a temporary directory.
func newProject(t *testing.T, lib, readme string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "lib.rs"), []byte(lib), 0644); err != nil {
		t.Fatal(err)
	}
	if readme != "" {
		if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(readme), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func newApp(t *testing.T, cfg *cli.Config) *docsync.App {
	t.Helper()
	if cfg.Source == "" {
		cfg.Source = cli.DefaultSource
	}
	if cfg.Destination == "" {
		cfg.Destination = cli.DefaultDestination
	}
	if cfg.Marker == "" {
		cfg.Marker = cli.DefaultMarker
	}
	if cfg.Direction == "" {
		cfg.Direction = model.Forward
	}
	app, err := docsync.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return app
}

func TestForwardCreatesReadme(t *testing.T) {
	dir := newProject(t, libRS, "")

	summary, err := docsync.Forward(docsync.Config{Dir: dir, Banner: "# easy-sgr"})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if got := read(t, filepath.Join(dir, "README.md")); got != readmeMD {
		t.Fatalf("README mismatch:\ngot:\n%q\nwant:\n%q", got, readmeMD)
	}
	if len(summary.Created) != 1 || summary.Created[0] != "README.md" {
		t.Errorf("Created = %v, want [README.md]", summary.Created)
	}
	if summary.BlockLines != 7 {
		t.Errorf("BlockLines = %d, want 7", summary.BlockLines)
	}
}

func TestForwardIsIdempotent(t *testing.T) {
	dir := newProject(t, libRS, "# stale\n")
	cfg := docsync.Config{Dir: dir, Banner: "# easy-sgr"}

	first, err := docsync.Forward(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Modified) != 1 {
		t.Fatalf("first run Modified = %v", first.Modified)
	}
	want := read(t, filepath.Join(dir, "README.md"))

	second, err := docsync.Forward(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := read(t, filepath.Join(dir, "README.md")); got != want {
		t.Fatalf("second run changed README:\n%q\n%q", got, want)
	}
	if len(second.Unchanged) != 1 || len(second.Modified) != 0 {
		t.Errorf("second run summary = %+v, want README unchanged", second)
	}
}

func TestForwardEmptyBlock(t *testing.T) {
	dir := newProject(t, "fn main() {}\n", "")
	if _, err := docsync.Forward(docsync.Config{Dir: dir, Banner: "# easy-sgr"}); err != nil {
		t.Fatal(err)
	}
	if got := read(t, filepath.Join(dir, "README.md")); got != "# easy-sgr\n\n" {
		t.Errorf("README = %q, want banner and blank line only", got)
	}
}

func TestForwardDefaultBanner(t *testing.T) {
	dir := newProject(t, "//! Hello\n", "")
	if _, err := docsync.Forward(docsync.Config{Dir: dir}); err != nil {
		t.Fatal(err)
	}
	want := "# " + filepath.Base(dir) + "\n\nHello\n"
	if got := read(t, filepath.Join(dir, "README.md")); got != want {
		t.Errorf("README = %q, want %q", got, want)
	}
}

func TestForwardMissingSource(t *testing.T) {
	dir := t.TempDir()
	if _, err := docsync.Forward(docsync.Config{Dir: dir}); err == nil {
		t.Fatal("expected an I/O error for a missing source file")
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); !os.IsNotExist(err) {
		t.Errorf("README should not be created on failure, stat err = %v", err)
	}
}

func TestReverseRoundTrip(t *testing.T) {
	dir := newProject(t, libRS, "")
	cfg := docsync.Config{Dir: dir, Banner: "# easy-sgr"}

	if _, err := docsync.Forward(cfg); err != nil {
		t.Fatal(err)
	}
	summary, err := docsync.Reverse(cfg)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if got := read(t, filepath.Join(dir, "src", "lib.rs")); got != libRS {
		t.Fatalf("round trip changed lib.rs:\ngot:\n%s\nwant:\n%s", got, libRS)
	}
	if len(summary.Unchanged) != 1 {
		t.Errorf("summary = %+v, want lib.rs unchanged", summary)
	}
}

func TestReverseEditedReadme(t *testing.T) {
	dir := newProject(t, "//! old\n\nfn main() {}\n", "# t\n\nNew intro.\n\nMore.\n")

	summary, err := docsync.Reverse(docsync.Config{Dir: dir, Banner: "# t"})
	if err != nil {
		t.Fatal(err)
	}
	want := "//! New intro.\n//!\n//! More.\n\nfn main() {}\n"
	if got := read(t, filepath.Join(dir, "src", "lib.rs")); got != want {
		t.Fatalf("lib.rs = %q, want %q", got, want)
	}
	if len(summary.Modified) != 1 || summary.Modified[0] != filepath.Join("src", "lib.rs") {
		t.Errorf("Modified = %v", summary.Modified)
	}
}

func TestReverseDetectHeader(t *testing.T) {
	readme := "# easy-sgr\n\n[![Crates.io](https://img.shields.io/crates/v/easy-sgr)](https://crates.io/crates/easy-sgr)\n\nBody text.\n"
	dir := newProject(t, "fn main() {}\n", readme)

	_, err := docsync.Reverse(docsync.Config{Dir: dir, DetectHeader: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "//! Body text.\nfn main() {}\n"
	if got := read(t, filepath.Join(dir, "src", "lib.rs")); got != want {
		t.Fatalf("lib.rs = %q, want %q", got, want)
	}
}

func TestReverseFromStdin(t *testing.T) {
	dir := newProject(t, "fn main() {}\n", "")
	app := newApp(t, &cli.Config{
		Dir:         dir,
		Direction:   model.Reverse,
		Banner:      "# t",
		HeaderLines: -1,
		Input:       "stdin",
	})
	app.SetStdin(strings.NewReader("# t\n\npiped\n"))

	if _, err := app.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := read(t, filepath.Join(dir, "src", "lib.rs")); got != "//! piped\nfn main() {}\n" {
		t.Errorf("lib.rs = %q", got)
	}
}

func TestCheck(t *testing.T) {
	dir := newProject(t, libRS, "# easy-sgr\n\nstale\n")
	cfg := &cli.Config{Dir: dir, Banner: "# easy-sgr", HeaderLines: -1, Check: true}

	_, err := newApp(t, cfg).Execute()
	if !errors.Is(err, docsync.ErrOutOfSync) {
		t.Fatalf("Execute err = %v, want ErrOutOfSync", err)
	}
	if got := read(t, filepath.Join(dir, "README.md")); got != "# easy-sgr\n\nstale\n" {
		t.Fatalf("--check must not write, README = %q", got)
	}

	if _, err := docsync.Forward(docsync.Config{Dir: dir, Banner: "# easy-sgr"}); err != nil {
		t.Fatal(err)
	}
	summary, err := newApp(t, cfg).Execute()
	if err != nil {
		t.Fatalf("Execute after sync: %v", err)
	}
	if len(summary.Unchanged) != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestStdout(t *testing.T) {
	dir := newProject(t, "//! Hello\n//! World\n", "")
	app := newApp(t, &cli.Config{Dir: dir, Banner: "# easy-sgr", HeaderLines: -1, Stdout: true})
	var out bytes.Buffer
	app.SetStdout(&out)

	if _, err := app.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "# easy-sgr\n\nHello\nWorld\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); !os.IsNotExist(err) {
		t.Errorf("--stdout must not write README, stat err = %v", err)
	}
}

func TestRevertAndRedo(t *testing.T) {
	dir := newProject(t, "//! new body\n", "# t\n\nold body\n")
	if _, err := docsync.Forward(docsync.Config{Dir: dir, Banner: "# t"}); err != nil {
		t.Fatal(err)
	}
	readme := filepath.Join(dir, "README.md")
	if got := read(t, readme); got != "# t\n\nnew body\n" {
		t.Fatalf("README = %q", got)
	}

	summary, err := newApp(t, &cli.Config{Dir: dir, Revert: true, HeaderLines: -1}).Execute()
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if len(summary.Modified) != 1 || len(summary.Failed) != 0 {
		t.Fatalf("revert summary = %+v", summary)
	}
	if got := read(t, readme); got != "# t\n\nold body\n" {
		t.Fatalf("README after revert = %q", got)
	}

	if _, err := newApp(t, &cli.Config{Dir: dir, Redo: true, HeaderLines: -1}).Execute(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if got := read(t, readme); got != "# t\n\nnew body\n" {
		t.Fatalf("README after redo = %q", got)
	}

	summary, err = newApp(t, &cli.Config{Dir: dir, Redo: true, HeaderLines: -1}).Execute()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Message != "No operation to redo." {
		t.Errorf("Message = %q", summary.Message)
	}
}

func TestRevertRefusesHandEditedFile(t *testing.T) {
	dir := newProject(t, "//! new body\n", "# t\n\nold body\n")
	if _, err := docsync.Forward(docsync.Config{Dir: dir, Banner: "# t"}); err != nil {
		t.Fatal(err)
	}
	readme := filepath.Join(dir, "README.md")
	edited := "# t\n\nnew body\nedited by hand\n"
	if err := os.WriteFile(readme, []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	summary, err := newApp(t, &cli.Config{Dir: dir, Revert: true, HeaderLines: -1}).Execute()
	if !errors.Is(err, state.ErrChangedSinceSync) {
		t.Fatalf("revert err = %v, want ErrChangedSinceSync", err)
	}
	if len(summary.Failed) != 1 || summary.Failed[0] != "README.md" {
		t.Errorf("Failed = %v, want [README.md]", summary.Failed)
	}
	if got := read(t, readme); got != edited {
		t.Fatalf("failed revert touched README: %q", got)
	}

	// The history entry is still there once the edit is undone.
	if err := os.WriteFile(readme, []byte("# t\n\nnew body\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := newApp(t, &cli.Config{Dir: dir, Revert: true, HeaderLines: -1}).Execute(); err != nil {
		t.Fatalf("second revert: %v", err)
	}
	if got := read(t, readme); got != "# t\n\nold body\n" {
		t.Fatalf("README after revert = %q", got)
	}
}

func TestRedoRefusesHandEditedFile(t *testing.T) {
	dir := newProject(t, "//! new body\n", "# t\n\nold body\n")
	if _, err := docsync.Forward(docsync.Config{Dir: dir, Banner: "# t"}); err != nil {
		t.Fatal(err)
	}
	if _, err := newApp(t, &cli.Config{Dir: dir, Revert: true, HeaderLines: -1}).Execute(); err != nil {
		t.Fatal(err)
	}
	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# t\n\nother\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := newApp(t, &cli.Config{Dir: dir, Redo: true, HeaderLines: -1}).Execute(); !errors.Is(err, state.ErrChangedSinceSync) {
		t.Fatalf("redo err = %v, want ErrChangedSinceSync", err)
	}
	summary, err := newApp(t, &cli.Config{Dir: dir, Redo: true, HeaderLines: -1}).Execute()
	if err == nil || summary.Message == "No operation to redo." {
		t.Fatalf("redo entry was consumed by the failed attempt: %+v, %v", summary, err)
	}
}

func TestReverseZeroHeaderLines(t *testing.T) {
	dir := newProject(t, "fn main() {}\n", "Intro\n\nMore\n")
	zero := 0

	if _, err := docsync.Reverse(docsync.Config{Dir: dir, Banner: "# t", HeaderLines: &zero}); err != nil {
		t.Fatal(err)
	}
	want := "//! Intro\n//!\n//! More\nfn main() {}\n"
	if got := read(t, filepath.Join(dir, "src", "lib.rs")); got != want {
		t.Fatalf("lib.rs = %q, want %q", got, want)
	}
}
