package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/sokinpui/docsync/internal/ui"
)

// Input names where reverse sync reads the destination document from.
const (
	InputFile      = "file"
	InputStdin     = "stdin"
	InputClipboard = "clipboard"
)

// ValidInput reports whether s is a known input name.
func ValidInput(s string) bool {
	switch s {
	case "", InputFile, InputStdin, InputClipboard:
		return true
	}
	return false
}

// SourceProvider determines and retrieves the destination content used by
// reverse sync.
type SourceProvider struct {
	input string
	stdin io.Reader
}

// New creates a new SourceProvider for the given input name.
func New(input string) *SourceProvider {
	if input == "" {
		input = InputFile
	}
	return &SourceProvider{input: input, stdin: os.Stdin}
}

// WithStdin replaces the reader used for the stdin input.
func (sp *SourceProvider) WithStdin(r io.Reader) *SourceProvider {
	sp.stdin = r
	return sp
}

// GetContent returns the document content from the configured input. path
// is only read for the file input.
func (sp *SourceProvider) GetContent(path string) (string, error) {
	switch sp.input {
	case InputStdin:
		ui.Header("--- Reading from stdin ---")
		content, err := io.ReadAll(sp.stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	case InputClipboard:
		ui.Header("--- Reading from clipboard ---")
		content, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("failed to read from clipboard: %w", err)
		}
		if strings.TrimSpace(content) == "" {
			ui.Warning("Clipboard is empty.")
		}
		return content, nil
	default:
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(content), nil
	}
}
