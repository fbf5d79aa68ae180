package model

import (
	"fmt"
	"strings"
)

// Direction selects which artifact is rewritten.
type Direction string

const (
	// Forward copies the comment block from the source file into the destination.
	Forward Direction = "forward"
	// Reverse copies the destination body back into the source file.
	Reverse Direction = "reverse"
)

// ParseDirection accepts the canonical names and the artifact aliases
// ("readme" for forward, "source" for reverse).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forward", "readme":
		return Forward, nil
	case "reverse", "source":
		return Reverse, nil
	}
	return "", fmt.Errorf("unknown direction %q (want forward|readme or reverse|source)", s)
}

// Document is the full content of a text artifact split into lines.
type Document struct {
	Lines []string
	// FinalNewline is true when the artifact ended with a line terminator.
	FinalNewline bool
}

// ParseDocument splits text on "\n". A trailing terminator does not produce
// an extra empty line.
func ParseDocument(text string) Document {
	if text == "" {
		return Document{}
	}
	doc := Document{FinalNewline: strings.HasSuffix(text, "\n")}
	doc.Lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	return doc
}

// String joins the lines back into artifact content.
func (d Document) String() string {
	if len(d.Lines) == 0 {
		return ""
	}
	s := strings.Join(d.Lines, "\n")
	if d.FinalNewline {
		s += "\n"
	}
	return s
}

// CommentBlock holds documentation lines with the marker prefix removed.
// Blank lines are empty strings.
type CommentBlock []string

// Summary holds the results of an operation for display.
type Summary struct {
	Direction  Direction
	BlockLines int
	Created    []string
	Modified   []string
	Unchanged  []string
	Failed     []string
	Message    string
}
