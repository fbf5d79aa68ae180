package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// setextUnderline matches the line under a setext heading.
var setextUnderline = regexp.MustCompile(`^ {0,3}(=+|-+)[ \t]*$`)

// DetectHeaderLines finds the banner at the top of a destination document:
// a leading heading, optionally followed by a paragraph made only of badge
// links or images, plus the blank lines after them. It returns the number
// of lines the banner occupies. ok is false when the document does not start
// with a heading.
func DetectHeaderLines(source []byte) (n int, ok bool) {
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	first := root.FirstChild()
	if first == nil || first.Kind() != ast.KindHeading {
		return 0, false
	}
	if !startsDocument(first, source) {
		return 0, false
	}

	last := first
	if next := first.NextSibling(); next != nil && isBadgeParagraph(next, source) {
		last = next
	}

	end, found := lastByte(last)
	if !found {
		return 0, false
	}
	lines := strings.Split(strings.TrimSuffix(string(source), "\n"), "\n")
	n = bytes.Count(source[:end], []byte("\n")) + 1
	// Heading segments stop at the title text; a setext underline follows it.
	if last == first && !isATX(first, source) && n < len(lines) && setextUnderline.MatchString(lines[n]) {
		n++
	}
	for n < len(lines) && strings.TrimSpace(lines[n]) == "" {
		n++
	}
	return n, true
}

// isATX reports whether a heading is written with leading '#' characters.
func isATX(heading ast.Node, source []byte) bool {
	segs := heading.Lines()
	if segs.Len() == 0 {
		return true
	}
	start := segs.At(0).Start
	line := source[lastLineStart(source[:start]):]
	return bytes.HasPrefix(bytes.TrimLeft(line, " "), []byte("#"))
}

// startsDocument reports whether node begins on the first non-blank line.
func startsDocument(node ast.Node, source []byte) bool {
	segs := node.Lines()
	if segs.Len() == 0 {
		return true
	}
	before := source[:segs.At(0).Start]
	return len(bytes.TrimSpace(before[:lastLineStart(before)])) == 0
}

func lastLineStart(b []byte) int {
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// lastByte returns the offset of the last content byte of a block node.
func lastByte(node ast.Node) (int, bool) {
	segs := node.Lines()
	if segs.Len() == 0 {
		return 0, false
	}
	seg := segs.At(segs.Len() - 1)
	if seg.Stop <= seg.Start {
		return seg.Start, true
	}
	return seg.Stop - 1, true
}

// isBadgeParagraph reports whether node is a paragraph whose inline content is
// only links, images, raw HTML and whitespace.
func isBadgeParagraph(node ast.Node, source []byte) bool {
	if node.Kind() != ast.KindParagraph {
		return false
	}
	badges := 0
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Link, *ast.Image, *ast.AutoLink, *ast.RawHTML:
			badges++
		case *ast.Text:
			if len(bytes.TrimSpace(n.Segment.Value(source))) != 0 {
				return false
			}
		default:
			return false
		}
	}
	return badges > 0
}
