package anonymize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/samber/lo"
	"github.com/trobanga/hl7anon/internal/hl7"
	"github.com/trobanga/hl7anon/internal/lib"
)

var (
	coordinatePattern = regexp.MustCompile(`^([A-Z]{2}[A-Z0-9])-(\d+)\.(\d+)$`)
	segmentPattern    = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]$`)
)

// Coordinate addresses one component: SEG-Element.Component, 1-indexed.
// For MSH, FHS and BHS Element is stored one lower than written, matching
// the parsed field index (the field separator itself is not a parsed field).
type Coordinate struct {
	Segment   string
	Element   int
	Component int
}

// ParseCoordinate parses keys like "PID-3.1" or "MSH-10.1"
func ParseCoordinate(key string) (Coordinate, error) {
	match := coordinatePattern.FindStringSubmatch(key)
	if match == nil {
		return Coordinate{}, lib.ErrInvalidCoordinate(key)
	}
	element, err := strconv.Atoi(match[2])
	if err != nil {
		return Coordinate{}, lib.ErrInvalidCoordinate(key)
	}
	component, err := strconv.Atoi(match[3])
	if err != nil {
		return Coordinate{}, lib.ErrInvalidCoordinate(key)
	}

	segment := match[1]
	if hl7.IsHeaderTag(segment) {
		element--
	}
	// Element 0 is the segment tag; components count from 1
	if element < 1 || component < 1 {
		return Coordinate{}, lib.ErrInvalidCoordinate(key)
	}
	return Coordinate{Segment: segment, Element: element, Component: component}, nil
}

// String renders the coordinate in SEG-E.C notation
func (c Coordinate) String() string {
	element := c.Element
	if hl7.IsHeaderTag(c.Segment) {
		element++
	}
	return fmt.Sprintf("%s-%d.%d", c.Segment, element, c.Component)
}

// ComponentMap maps component index to its generator
type ComponentMap map[int]Generator[string]

// SegmentMap maps element index to the generators of its components
type SegmentMap map[int]ComponentMap

// Elements returns the mapped element indices in ascending order
func (s SegmentMap) Elements() []int {
	return sortedKeys(s)
}

// Components returns the mapped component indices in ascending order
func (c ComponentMap) Components() []int {
	return sortedKeys(c)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := lo.Keys(m)
	sort.Ints(keys)
	return keys
}

// FieldMap assigns generators to component coordinates
// Built once before any input is read, read-only afterwards
type FieldMap struct {
	segments map[string]SegmentMap
}

// NewFieldMap returns an empty map
func NewFieldMap() *FieldMap {
	return &FieldMap{segments: make(map[string]SegmentMap)}
}

// Set assigns gen to c, replacing any earlier assignment
func (f *FieldMap) Set(c Coordinate, gen Generator[string]) {
	seg, ok := f.segments[c.Segment]
	if !ok {
		seg = make(SegmentMap)
		f.segments[c.Segment] = seg
	}
	comps, ok := seg[c.Element]
	if !ok {
		comps = make(ComponentMap)
		seg[c.Element] = comps
	}
	comps[c.Component] = gen
}

// SetKey parses key and assigns gen to it
func (f *FieldMap) SetKey(key string, gen Generator[string]) error {
	c, err := ParseCoordinate(key)
	if err != nil {
		return err
	}
	f.Set(c, gen)
	return nil
}

// Get returns the generator at c
func (f *FieldMap) Get(c Coordinate) (Generator[string], bool) {
	gen, ok := f.segments[c.Segment][c.Element][c.Component]
	return gen, ok
}

// Contains reports whether c has a generator
func (f *FieldMap) Contains(c Coordinate) bool {
	_, ok := f.Get(c)
	return ok
}

// Segment returns everything mapped for a segment type
func (f *FieldMap) Segment(tag string) (SegmentMap, bool) {
	if !segmentPattern.MatchString(tag) {
		return nil, false
	}
	seg, ok := f.segments[tag]
	return seg, ok
}

// ContainsSegment reports whether any component of tag is mapped
func (f *FieldMap) ContainsSegment(tag string) bool {
	_, ok := f.Segment(tag)
	return ok
}

// Coordinates lists every mapped coordinate, ordered by segment, element, component
func (f *FieldMap) Coordinates() []Coordinate {
	tags := lo.Keys(f.segments)
	sort.Strings(tags)

	var out []Coordinate
	for _, tag := range tags {
		seg := f.segments[tag]
		for _, element := range seg.Elements() {
			for _, component := range seg[element].Components() {
				out = append(out, Coordinate{Segment: tag, Element: element, Component: component})
			}
		}
	}
	return out
}
