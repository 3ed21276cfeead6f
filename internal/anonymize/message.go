package anonymize

import (
	"github.com/trobanga/hl7anon/internal/hl7"
)

// Message is one raw HL7 message on its way through the transformer
type Message struct {
	parsed     *hl7.Message
	anonymized bool
	rendered   string
}

// NewMessage parses raw message text
func NewMessage(raw string) (*Message, error) {
	parsed, err := hl7.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &Message{parsed: parsed}, nil
}

// Anonymized reports whether Transform already ran on the message
func (m *Message) Anonymized() bool {
	return m.anonymized
}

// String renders the message in its current state
func (m *Message) String() string {
	if m.anonymized {
		return m.rendered
	}
	return m.parsed.String()
}
