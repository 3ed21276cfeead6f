// Package hl7 parses and renders HL7 v2 messages
//
// A message is a list of segments, a segment a list of fields and a field a
// list of components. Repetitions and subcomponents are left inside the
// component text. Rendering an untouched message reproduces the input
// byte for byte.
package hl7

import (
	"strings"

	"github.com/samber/lo"
	"github.com/trobanga/hl7anon/internal/lib"
)

// HeaderTags are segments whose first field is the encoding characters
var HeaderTags = []string{"MSH", "BHS", "FHS"}

// Message is a parsed HL7 message
type Message struct {
	segments     []*Segment
	terminator   string
	fieldSep     string
	componentSep string
}

// Segment is one line of a message; Fields[0] holds the segment tag
type Segment struct {
	Fields [][]string
}

// Parse splits raw message text using the delimiters declared by its header
func Parse(raw string) (*Message, error) {
	if len(raw) < 8 {
		return nil, lib.ErrInvalidMessage("message too short for a header segment")
	}
	if !IsHeaderTag(raw[:3]) {
		return nil, lib.ErrInvalidMessage("first segment is " + sanitizeTag(raw[:3]))
	}

	fieldSep := raw[3:4]
	encoding, _, _ := strings.Cut(raw[4:], fieldSep)
	if encoding == "" {
		return nil, lib.ErrInvalidMessage("missing encoding characters")
	}

	m := &Message{
		terminator:   detectTerminator(raw),
		fieldSep:     fieldSep,
		componentSep: encoding[:1],
	}

	for _, line := range strings.Split(raw, m.terminator) {
		m.segments = append(m.segments, m.parseSegment(line))
	}
	return m, nil
}

func detectTerminator(raw string) string {
	switch {
	case strings.Contains(raw, "\r\n"):
		return "\r\n"
	case strings.Contains(raw, "\r"):
		return "\r"
	case strings.Contains(raw, "\n"):
		return "\n"
	default:
		return "\r"
	}
}

func (m *Message) parseSegment(line string) *Segment {
	raw := strings.Split(line, m.fieldSep)
	fields := make([][]string, len(raw))
	header := IsHeaderTag(raw[0])
	for i, field := range raw {
		if i == 0 || (i == 1 && header) {
			fields[i] = []string{field}
			continue
		}
		fields[i] = strings.Split(field, m.componentSep)
	}
	return &Segment{Fields: fields}
}

// IsHeaderTag reports whether tag is MSH, BHS or FHS
func IsHeaderTag(tag string) bool {
	return lo.Contains(HeaderTags, tag)
}

// Segments returns the segments in message order
func (m *Message) Segments() []*Segment {
	return m.segments
}

// Terminator returns the segment terminator the message was parsed with
func (m *Message) Terminator() string {
	return m.terminator
}

// String renders the message with its original delimiters
func (m *Message) String() string {
	lines := make([]string, len(m.segments))
	for i, seg := range m.segments {
		fields := make([]string, len(seg.Fields))
		for j, components := range seg.Fields {
			fields[j] = strings.Join(components, m.componentSep)
		}
		lines[i] = strings.Join(fields, m.fieldSep)
	}
	return strings.Join(lines, m.terminator)
}

// Tag returns the segment type, e.g. "PID"
func (s *Segment) Tag() string {
	return s.Fields[0][0]
}

// Field returns component (1-indexed) of fields[element]
// The bool is false when the segment is too short to hold the position
func (s *Segment) Field(element, component int) (string, bool) {
	if element < 0 || element >= len(s.Fields) || component < 1 {
		return "", false
	}
	components := s.Fields[element]
	if component > len(components) {
		return "", false
	}
	return components[component-1], true
}

// SetField replaces an existing position; missing positions are not created
func (s *Segment) SetField(element, component int, value string) bool {
	if _, ok := s.Field(element, component); !ok {
		return false
	}
	s.Fields[element][component-1] = value
	return true
}

func sanitizeTag(tag string) string {
	return strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(tag)
}
