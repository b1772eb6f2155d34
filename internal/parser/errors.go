// Package parser reads Claude Code session JSONL streams: one record per
// line, with per-line recovery, parse statistics, a size guard, and session
// liveness classification.
package parser

import (
	"fmt"
	"unicode/utf8"
)

// previewRunes is how much of a failing line is kept in a ParseError.
const previewRunes = 80

// ParseError describes a malformed line. Preview holds the first few
// characters of the line, truncated on a rune boundary.
type ParseError struct {
	Line    int
	Msg     string
	Preview string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s (near %q)", e.Line, e.Msg, e.Preview)
}

// newParseError builds a ParseError with a rune-safe preview of the line.
func newParseError(line int, msg string, data []byte) *ParseError {
	return &ParseError{Line: line, Msg: msg, Preview: truncateRunes(string(data), previewRunes)}
}

// truncateRunes shortens s to at most n runes without splitting a code point.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// ValidationError is returned when a file exceeds the configured size limit.
// It is raised before any line is read.
type ValidationError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: file size %d exceeds limit %d", e.Path, e.Size, e.Limit)
}
