package anonymize

import (
	"fmt"

	"github.com/trobanga/hl7anon/internal/lib"
)

// Transformer rewrites every mapped component of a message
type Transformer struct {
	fields   *FieldMap
	resolver *Resolver
	logger   *lib.Logger
}

// NewTransformer creates a transformer applying fields through resolver
func NewTransformer(fields *FieldMap, resolver *Resolver, logger *lib.Logger) *Transformer {
	return &Transformer{fields: fields, resolver: resolver, logger: logger}
}

// Transform anonymizes m in place and returns its rendering
// Positions the message does not carry are skipped. A message is only
// transformed once; later calls return the first result.
func (t *Transformer) Transform(m *Message) (string, error) {
	if m.anonymized {
		return m.rendered, nil
	}

	for _, seg := range m.parsed.Segments() {
		mapped, ok := t.fields.Segment(seg.Tag())
		if !ok {
			continue
		}

		for _, element := range mapped.Elements() {
			components := mapped[element]
			for _, component := range components.Components() {
				value, ok := seg.Field(element, component)
				if !ok {
					continue
				}

				coord := Coordinate{Segment: seg.Tag(), Element: element, Component: component}
				anon, err := t.resolver.ResolveString(value, components[component])
				if err != nil {
					return "", fmt.Errorf("%s: %w", coord, err)
				}
				lib.LogFieldAnonymized(t.logger, coord.String())
				seg.SetField(element, component, anon)
			}
		}
	}

	m.rendered = m.parsed.String()
	m.anonymized = true
	return m.rendered, nil
}
