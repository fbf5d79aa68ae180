// Package block moves a documentation comment block between a source file
// and a destination document.
package block

import (
	"strings"

	"github.com/sokinpui/docsync/model"
)

// Extract returns the lines of doc that start with marker, with the marker
// and at most one following space removed. Order is preserved.
func Extract(doc model.Document, marker string) model.CommentBlock {
	block := model.CommentBlock{}
	for _, line := range doc.Lines {
		if !strings.HasPrefix(line, marker) {
			continue
		}
		rest := strings.TrimPrefix(line, marker)
		block = append(block, strings.TrimPrefix(rest, " "))
	}
	return block
}

// Render builds the destination content: banner, a blank line, then one
// line per block entry.
func Render(banner string, block model.CommentBlock) string {
	var b strings.Builder
	b.WriteString(banner)
	b.WriteString("\n\n")
	for _, line := range block {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// HeaderLines reports how many destination lines Render spends on banner,
// including the separating blank line.
func HeaderLines(banner string) int {
	return strings.Count(banner, "\n") + 2
}

// FromDestination drops the first headerLines lines of doc and returns the
// rest verbatim.
func FromDestination(doc model.Document, headerLines int) model.CommentBlock {
	if headerLines < 0 {
		headerLines = 0
	}
	if headerLines >= len(doc.Lines) {
		return model.CommentBlock{}
	}
	block := make(model.CommentBlock, len(doc.Lines)-headerLines)
	copy(block, doc.Lines[headerLines:])
	return block
}

// Reinsert places block, prefixed with marker, at the top of doc and keeps
// every line of doc that does not start with marker in its original order.
// Marker lines that were interleaved with code end up grouped at the top.
func Reinsert(doc model.Document, marker string, block model.CommentBlock) model.Document {
	out := model.Document{
		Lines:        make([]string, 0, len(block)+len(doc.Lines)),
		FinalNewline: true,
	}
	for _, line := range block {
		if line == "" {
			out.Lines = append(out.Lines, marker)
			continue
		}
		out.Lines = append(out.Lines, marker+" "+line)
	}

	kept := 0
	for _, line := range doc.Lines {
		if strings.HasPrefix(line, marker) {
			continue
		}
		out.Lines = append(out.Lines, line)
		kept++
	}
	if kept > 0 {
		out.FinalNewline = doc.FinalNewline
	}
	return out
}
