package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/trobanga/hl7anon/internal/anonymize"
	"github.com/trobanga/hl7anon/internal/lib"
	"gopkg.in/yaml.v3"
)

// RecordTypeKey names the mapping key that selects a record's strategy
const RecordTypeKey = "type"

// RecordStrategy anonymizes the fields of one reference data record in place
type RecordStrategy func(record *Record) error

// Record is one mapping of a static data file
type Record struct {
	node *yaml.Node
}

// Type returns the record type, empty when the record carries none
func (r *Record) Type() string {
	if v := r.value(RecordTypeKey); v != nil {
		return v.Value
	}
	return ""
}

// Field returns the scalar value under key
func (r *Record) Field(key string) (string, bool) {
	v := r.value(key)
	if v == nil || v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
		return "", false
	}
	return v.Value, true
}

// SetField replaces the scalar value under key and sets its YAML tag
func (r *Record) SetField(key, value, tag string) {
	v := r.value(key)
	if v == nil {
		return
	}
	v.Value = value
	v.Tag = tag
	v.Style = 0
}

func (r *Record) value(key string) *yaml.Node {
	for i := 0; i+1 < len(r.node.Content); i += 2 {
		if r.node.Content[i].Value == key {
			return r.node.Content[i+1]
		}
	}
	return nil
}

// StaticDataAnonymizer rewrites reference data records by type
type StaticDataAnonymizer struct {
	strategies map[string]RecordStrategy
	logger     *lib.Logger
}

// NewStaticDataAnonymizer registers the Facility and ReportableRegion strategies
// Records of any other type are left untouched.
func NewStaticDataAnonymizer(r *anonymize.Resolver, g *anonymize.Generators, logger *lib.Logger) (*StaticDataAnonymizer, error) {
	localCode, err := anonymize.FixedLengthString(3, "")
	if err != nil {
		return nil, err
	}
	regionName, err := anonymize.FixedLengthString(4, "")
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = lib.DefaultLogger
	}
	s := &StaticDataAnonymizer{strategies: map[string]RecordStrategy{}, logger: logger}

	s.Register("Facility", func(rec *Record) error {
		if err := resolveField(r, rec, "county", g.Short, "!!str"); err != nil {
			return err
		}
		if err := resolveField(r, rec, "npi", g.NPI, "!!int"); err != nil {
			return err
		}
		// zip codes are regenerated on every pass, never cached
		if zip, ok := rec.Field("zip"); ok {
			anon, err := g.FiveDigits(zip)
			if err != nil {
				return fmt.Errorf("zip: %w", err)
			}
			rec.SetField("zip", anon, "!!str")
		}
		if err := resolveField(r, rec, "organization_name", g.Site, "!!str"); err != nil {
			return err
		}
		return resolveField(r, rec, "local_code", localCode, "!!str")
	})

	s.Register("ReportableRegion", func(rec *Record) error {
		if err := resolveField(r, rec, "region_name", regionName, "!!str"); err != nil {
			return err
		}
		return resolveField(r, rec, "dim_facility_pk", g.NPI, "!!int")
	})

	return s, nil
}

// Register sets the strategy for records of recordType
func (s *StaticDataAnonymizer) Register(recordType string, strategy RecordStrategy) {
	s.strategies[recordType] = strategy
}

func resolveField(r *anonymize.Resolver, rec *Record, key string, gen anonymize.Generator[string], tag string) error {
	value, ok := rec.Field(key)
	if !ok {
		return nil
	}
	anon, err := r.ResolveString(value, gen)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	rec.SetField(key, anon, tag)
	return nil
}

// Anonymize rewrites every record of a YAML sequence and returns the new document
func (s *StaticDataAnonymizer) Anonymize(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, lib.WrapError(lib.CategoryValidation, "Failed to parse static data", err,
			"Check the YAML syntax of the file")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, lib.ErrInvalidStaticData("top level is not a sequence")
	}

	counts := map[string]int{}
	for i, node := range doc.Content[0].Content {
		if node.Kind != yaml.MappingNode {
			return nil, lib.ErrInvalidStaticData(fmt.Sprintf("record %d is not a mapping", i+1))
		}
		rec := &Record{node: node}
		recordType := rec.Type()
		if recordType == "" {
			return nil, lib.ErrInvalidStaticData(fmt.Sprintf("record %d has no %s", i+1, RecordTypeKey))
		}

		strategy, ok := s.strategies[recordType]
		if !ok {
			continue
		}
		if err := strategy(rec); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i+1, recordType, err)
		}
		counts[recordType]++
	}

	for recordType, n := range counts {
		s.logger.Info("Static records anonymized", "type", recordType, "count", n)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode static data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode static data: %w", err)
	}
	return buf.Bytes(), nil
}

// AnonymizeFile anonymizes the static data in inputFile into outputFile,
// or into stdout when outputFile is empty
func (s *StaticDataAnonymizer) AnonymizeFile(inputFile, outputFile string, stdout io.Writer) error {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return lib.WrapFileError(inputFile, err)
	}

	out, err := s.Anonymize(data)
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err := stdout.Write(out)
		return err
	}

	ctx, err := SetupOutputFile(outputFile)
	if err != nil {
		return err
	}
	_, writeErr := ctx.OutFile.Write(out)
	if err := ctx.Finalize(outputFile, writeErr == nil); err != nil && writeErr == nil {
		writeErr = err
	}
	return writeErr
}
