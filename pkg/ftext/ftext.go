// Package ftext provides an immutable text model with 1-based
// line/column indexing, used throughout the parser and rewriter so
// diagnostics and trivia can be attributed to precise source ranges.
package ftext

import (
	"sort"
	"strings"
)

// FilePos is a 1-based (line, column) position. Both fields must be
// >= 1 for a position to be considered valid.
type FilePos struct {
	Line   int
	Column int
}

// Before reports whether p sorts strictly before other.
func (p FilePos) Before(other FilePos) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// Less is an alias for Before, used by sort.Slice call sites that read
// more naturally with a Less name.
func (p FilePos) Less(other FilePos) bool { return p.Before(other) }

// IsValid reports whether both Line and Column are positive.
func (p FilePos) IsValid() bool {
	return p.Line >= 1 && p.Column >= 1
}

// FileText is an immutable span of source text, optionally associated
// with a filename and an offset (StartPos) into some larger document.
// Line lookups are O(log N) via a precomputed offset table.
type FileText struct {
	Filename string
	StartPos FilePos

	text        string
	lineOffsets []int // byte offset of the start of each line (0-based slice, 1-based line numbers)
}

// New constructs a FileText for text starting at (1,1) with no filename.
func New(text string) FileText {
	return NewAt(text, "", FilePos{Line: 1, Column: 1})
}

// NewAt constructs a FileText with an explicit filename and start
// position, used when a FileText represents a slice of a larger file.
func NewAt(text, filename string, start FilePos) FileText {
	return FileText{
		Filename:    filename,
		StartPos:    start,
		text:        text,
		lineOffsets: computeLineOffsets(text),
	}
}

func computeLineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// Text returns the underlying string.
func (f FileText) Text() string { return f.text }

// EndsWithNewline reports whether the text's last byte is '\n'. The
// formatter must reproduce this to preserve the source's terminal
// newline convention.
func (f FileText) EndsWithNewline() bool {
	return strings.HasSuffix(f.text, "\n")
}

// LineCount returns the number of lines, matching
// count('\n') + (1 if not endswith('\n') else 0).
func (f FileText) LineCount() int {
	n := len(f.lineOffsets)
	if !f.EndsWithNewline() {
		return n
	}
	return n - 1
}

// PosAt converts a 0-based byte offset into this text to an absolute
// FilePos, accounting for StartPos.
func (f FileText) PosAt(byteOffset int) FilePos {
	// Find the line containing byteOffset: largest i such that
	// lineOffsets[i] <= byteOffset.
	i := sort.Search(len(f.lineOffsets), func(i int) bool {
		return f.lineOffsets[i] > byteOffset
	}) - 1
	if i < 0 {
		i = 0
	}
	lineStart := f.lineOffsets[i]
	col := byteOffset - lineStart + 1

	line := i + 1
	if line == 1 {
		return FilePos{Line: f.StartPos.Line, Column: f.StartPos.Column + col - 1}
	}
	return FilePos{Line: f.StartPos.Line + line - 1, Column: col}
}

// Slice returns the substring of text between byte offsets [start,end)
// as a new FileText whose StartPos is computed from this FileText's
// own position table, preserving filename.
func (f FileText) Slice(start, end int) FileText {
	if start < 0 {
		start = 0
	}
	if end > len(f.text) {
		end = len(f.text)
	}
	if end < start {
		end = start
	}
	return NewAt(f.text[start:end], f.Filename, f.PosAt(start))
}

// Concat concatenates the texts of multiple FileTexts in order. The
// result carries the filename and StartPos of the first element; it is
// a byte-for-byte concatenation with no separators inserted, so callers
// that split a file into statements can reassemble it losslessly.
func Concat(parts ...FileText) FileText {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.text)
	}
	filename := ""
	start := FilePos{Line: 1, Column: 1}
	if len(parts) > 0 {
		filename = parts[0].Filename
		start = parts[0].StartPos
	}
	return NewAt(sb.String(), filename, start)
}
