package anonymize

import (
	"github.com/trobanga/hl7anon/internal/models"
)

const (
	layoutYearMonth = "200601"
	layoutTimestamp = "20060102150405"
)

// Generators shared by the MBDS profile and the static data anonymizer
type Generators struct {
	Dotted     Generator[string] // 30 char digit sequence with points every 1-6 digits
	Short      Generator[string] // 10 letters
	Site       Generator[string] // "Site " and 7 letters
	YearMonth  Generator[string] // shifted YYYYMM
	Timestamp  Generator[string] // shifted YYYYMMDDHHMMSS
	TwoDigits  Generator[string]
	FiveDigits Generator[string]
	SixDigits  Generator[string]
	TenDigits  Generator[string]
	NPI        Generator[string] // ten digits starting with 1
	Facility   Generator[string]
	Zip        Generator[string]
	Observed   Generator[string]
	ControlID  Generator[string]
}

// NewGenerators builds the generator set for a campaign
// The date shift offset is loaded from, or stored to, the resolver's store
func NewGenerators(r *Resolver, cfg *models.ProjectConfig) (*Generators, error) {
	g := &Generators{}
	var err error

	if g.Dotted, err = FixedLengthDigits(30, 1, 7); err != nil {
		return nil, err
	}
	if g.Short, err = FixedLengthString(10, ""); err != nil {
		return nil, err
	}
	if g.Site, err = FixedLengthString(12, "Site "); err != nil {
		return nil, err
	}
	if g.TwoDigits, err = FixedLengthDigits(2); err != nil {
		return nil, err
	}
	if g.FiveDigits, err = FixedLengthDigits(5); err != nil {
		return nil, err
	}
	if g.SixDigits, err = FixedLengthDigits(6); err != nil {
		return nil, err
	}
	if g.TenDigits, err = FixedLengthDigits(10); err != nil {
		return nil, err
	}
	if g.NPI, err = DigitsWithPrefix(10, "1"); err != nil {
		return nil, err
	}

	yearMonth, err := NewDateShift(r.Store(), cfg.Ballpark(), layoutYearMonth)
	if err != nil {
		return nil, err
	}
	g.YearMonth = yearMonth.Generator()

	timestamp, err := NewDateShift(r.Store(), cfg.Ballpark(), layoutTimestamp)
	if err != nil {
		return nil, err
	}
	g.Timestamp = timestamp.Generator()

	g.Facility = FacilitySubcomponents(r, g.Site, g.Dotted)
	g.Zip = PreservePrefix(3, g.FiveDigits)
	g.Observed = TypeAndMagnitude(g.Short)
	g.ControlID = ControlID(r, g.Timestamp, g.Dotted)

	return g, nil
}

// NewMBDSFieldMap builds the field map of the Minimum Biosurveillance Data Set profile
func NewMBDSFieldMap(r *Resolver, cfg *models.ProjectConfig) (*FieldMap, error) {
	g, err := NewGenerators(r, cfg)
	if err != nil {
		return nil, err
	}

	assignments := []struct {
		key string
		gen Generator[string]
	}{
		{"BHS-3.1", g.Short},
		{"BHS-3.2", g.Dotted},
		{"BHS-4.1", g.Short},
		{"BHS-4.2", g.Dotted},
		{"BHS-5.1", g.Short},
		{"BHS-5.2", g.Dotted},
		{"BHS-6.1", g.Short},
		{"BHS-6.2", g.Dotted},
		{"BHS-7.1", g.Timestamp},
		{"BHS-11.1", g.Dotted},

		{"FHS-3.1", g.Short},
		{"FHS-3.2", g.Dotted},
		{"FHS-4.1", g.Short},
		{"FHS-4.2", g.Dotted},
		{"FHS-5.1", g.Short},
		{"FHS-5.2", g.Dotted},
		{"FHS-6.1", g.Short},
		{"FHS-6.2", g.Dotted},
		{"FHS-7.1", g.Timestamp},
		{"FHS-11.1", g.Dotted},

		{"MSH-3.1", g.TenDigits},
		{"MSH-3.2", g.Dotted},
		{"MSH-4.1", g.Site},
		{"MSH-4.2", g.TenDigits},
		{"MSH-5.1", g.Short},
		{"MSH-5.2", g.Dotted},
		{"MSH-6.1", g.Short},
		{"MSH-6.2", g.Dotted},
		{"MSH-7.1", g.Timestamp},
		{"MSH-10.1", g.ControlID},

		{"EVN-2.1", g.Timestamp},
		{"EVN-3.1", g.Timestamp},
		{"EVN-7.1", g.Site},
		{"EVN-7.2", g.TenDigits},

		{"PID-3.1", g.SixDigits},
		{"PID-3.4", g.Facility},
		{"PID-3.6", g.Facility},
		{"PID-7.1", g.YearMonth},
		{"PID-11.5", g.Zip},
		{"PID-18.1", g.SixDigits},
		{"PID-18.4", g.Facility},

		{"PV1-3.2", g.SixDigits},
		{"PV1-3.4", g.Short},
		{"PV1-3.7", g.Short},
		{"PV1-3.8", g.TwoDigits},
		{"PV1-19.1", g.SixDigits},
		{"PV1-19.4", g.Facility},
		{"PV1-19.6", g.Facility},
		{"PV1-44.1", g.Timestamp},
		{"PV1-45.1", g.Timestamp},

		{"DG1-5.1", g.Timestamp},

		{"OBR-2.1", g.TenDigits},
		{"OBR-2.2", g.Dotted},
		{"OBR-2.3", g.Dotted},
		{"OBR-3.1", g.TenDigits},
		{"OBR-3.2", g.Dotted},
		{"OBR-3.3", g.Dotted},
		{"OBR-6.1", g.Timestamp},
		{"OBR-7.1", g.Timestamp},
		{"OBR-8.1", g.Timestamp},
		{"OBR-14.1", g.Timestamp},
		{"OBR-22.1", g.Timestamp},

		{"OBX-5.1", g.Observed},
		{"OBX-14.1", g.Timestamp},
		{"OBX-15.4", g.Short},

		{"ORC-3.1", g.Dotted},
		{"ORC-9.1", g.Timestamp},

		{"SPM-2.2", g.Dotted},
		{"SPM-18.1", g.Timestamp},

		{"NTE-3.1", g.Short},
	}

	fields := NewFieldMap()
	for _, a := range assignments {
		if err := fields.SetKey(a.key, a.gen); err != nil {
			return nil, err
		}
	}
	return fields, nil
}
