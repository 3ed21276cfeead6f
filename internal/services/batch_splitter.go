// Package services provides storage, configuration and batch handling for hl7anon
//
// Batch Splitting:
// HL7 batch files are not newline delimited; a message may carry its own
// segment terminators. Message boundaries are found structurally instead:
// every message starts with a marker segment (MSH, BHS or FHS) followed by
// the delimiter declaration (field separator plus the four encoding
// characters, "|^~\&" by default).
//
// Splitting Algorithm:
//  1. Read the declaration from the first segment (default if absent)
//  2. Scan forward from the current message for the next declaration
//  3. Back up by the marker tag length; the candidate is a boundary if it
//     carries a marker tag, whether or not a terminator precedes it
//  4. Yield the text up to the boundary with trailing terminators trimmed
//  5. The remainder after the last boundary is the final message
//
// Example Usage:
//
//	splitter := NewBatchSplitter(data)
//	for raw, ok := splitter.Next(); ok; raw, ok = splitter.Next() {
//	    // parse and anonymize raw
//	}
package services

import (
	"strings"

	"github.com/samber/lo"
)

const (
	markerTagLength = 3

	// DefaultDelimiterDeclaration is the field separator plus encoding characters
	DefaultDelimiterDeclaration = `|^~\&`
)

// MarkerTags are the segment tags that start a message
var MarkerTags = []string{"MSH", "BHS", "FHS"}

// BatchSplitter yields the raw messages of a batch one at a time
// It is single pass; once exhausted Next keeps returning false
type BatchSplitter struct {
	data        string
	declaration string
	offset      int
}

// NewBatchSplitter prepares a splitter over a whole batch file's contents
func NewBatchSplitter(data string) *BatchSplitter {
	declaration := DefaultDelimiterDeclaration
	if len(data) >= markerTagLength+len(DefaultDelimiterDeclaration) && isMarkerTag(data[:markerTagLength]) {
		declaration = data[markerTagLength : markerTagLength+len(DefaultDelimiterDeclaration)]
	}
	return &BatchSplitter{data: data, declaration: declaration}
}

// Next returns the next raw message, false when the batch is exhausted
func (s *BatchSplitter) Next() (string, bool) {
	if strings.TrimSpace(s.data[s.offset:]) == "" {
		s.offset = len(s.data)
		return "", false
	}

	rest := s.data[s.offset:]
	start := s.offset + len(rest) - len(strings.TrimLeft(rest, "\r\n"))
	end := s.nextBoundary(start)
	s.offset = end

	return strings.TrimRight(s.data[start:end], "\r\n"), true
}

// Offset returns how many bytes of the batch have been consumed
func (s *BatchSplitter) Offset() int {
	return s.offset
}

// Declaration returns the delimiter declaration used to find boundaries
func (s *BatchSplitter) Declaration() string {
	return s.declaration
}

// nextBoundary finds the start of the message following the one at start
// Returns len(data) when there is none
func (s *BatchSplitter) nextBoundary(start int) int {
	// The current message's own declaration sits at start+3; look past it
	from := start + markerTagLength + 1
	for from < len(s.data) {
		i := strings.Index(s.data[from:], s.declaration)
		if i < 0 {
			break
		}
		candidate := from + i - markerTagLength
		if isMarkerTag(s.data[candidate:candidate+markerTagLength]) {
			return candidate
		}
		from += i + 1
	}
	return len(s.data)
}

func isMarkerTag(tag string) bool {
	return lo.Contains(MarkerTags, tag)
}
