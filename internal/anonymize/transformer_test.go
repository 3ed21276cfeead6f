package anonymize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trobanga/hl7anon/internal/anonymize"
)

const mshSegment = "MSH|^~\\&|sendingapp^SAID|sendingfacility^SFID^NPI|" +
	"receivingapp^RAID^ISO|receivingfacility^RFID^ISO|" +
	"30301210090814||ADT^A08^ADT_A01|" +
	"1234567890303012100908143982|P|2.5|||||||||Biosurveillance-1.0"

func newMBDSTransformer(t *testing.T) (*anonymize.Transformer, *memStore) {
	t.Helper()
	r, store := newResolver()
	fields, err := anonymize.NewMBDSFieldMap(r, testConfig())
	require.NoError(t, err)
	return anonymize.NewTransformer(fields, r, testLogger()), store
}

func transform(t *testing.T, tr *anonymize.Transformer, raw string) string {
	t.Helper()
	m, err := anonymize.NewMessage(raw)
	require.NoError(t, err)
	out, err := tr.Transform(m)
	require.NoError(t, err)
	return out
}

func assertHidden(t *testing.T, input, result string, hidden []string) {
	t.Helper()
	for _, component := range hidden {
		// The input must carry what we expect to change
		require.Contains(t, input, component)
		assert.NotContains(t, result, component)
	}
}

func TestTransform_Segments(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		hidden []string
	}{
		{
			name: "BHS",
			input: "BHS|^~\\&|batchsendingapp^BSAID^ISO|batchsendingfacility^BSFID^ISO|" +
				"batchreceivingapp^BRAID^ISO|batchreceivingfacility^BRFID^ISO|20410209150319||||batchcontrolid",
			hidden: []string{"batchsendingapp", "BSAID", "batchsendingfacility", "BSFID",
				"batchreceivingapp", "BRAID", "batchreceivingfacility", "BRFID",
				"20410209150319", "batchcontrolid"},
		},
		{
			name: "FHS",
			input: "FHS|^~\\&|filesendingapp^FSAID^ISO|filesendingfacility^FSFID^ISO|" +
				"filereceivingapp^FRAID^ISO|filereceivingfacility^FRFID^ISO|20211209113014||||filecontrolid",
			hidden: []string{"filesendingapp", "FSAID", "filesendingfacility", "FSFID",
				"filereceivingapp", "FRAID", "filereceivingfacility", "FRFID",
				"20211209113014", "filecontrolid"},
		},
		{
			name:  "MSH",
			input: mshSegment,
			hidden: []string{"sendingapp", "SAID", "sendingfacility", "SFID", "receivingapp", "RAID",
				"eceivingfacility", "RFID", "303012100908", "1234567890303012100908143982"},
		},
		{
			name:   "EVN",
			input:  mshSegment + "\rEVN|A01|303012091749|30300706172800||||eventfacility^EFID^NPI",
			hidden: []string{"303012091749", "30300706172800", "eventfacility", "EFID"},
		},
		{
			name: "DG1",
			input: mshSegment + "\rDG1|1||592.0^CALCULUS OF KIDNEY^I9||303012091749" +
				"|A^Admitting^HL70052^A^^L|||||||||1",
			hidden: []string{"303012091749"},
		},
		{
			name: "PID",
			input: mshSegment + "\rPID|1||patientID^^^&assigningID&ISO||\"\"|" +
				"|213005|M||1002-5^American Indian or Alaska Native^^6^^L|" +
				"^^^WA^66123|FER-WA||||||account^^^&assigningauthority",
			hidden: []string{"patientID", "assigningID", "213005", "66123", "account", "assigningauthority"},
		},
		{
			name: "PV1",
			input: mshSegment + "\rPV1|1|E^Emergency^HL70004^E^^L|" +
				"^patientroom^bed^patientfacility^status^type^building^floor|" +
				"2^Urgent^UB04FL14^UR^^L|||||||||||||||||||||||||||" +
				"|||||||||||||303002091749|303003091749",
			hidden: []string{"patientroom", "patientfacility", "building", "floor", "303002091749", "303003091749"},
		},
		{
			name: "OBR",
			input: mshSegment + "\rOBR|1|placerorderno^placerid^placeruid|" +
				"fillerorderno^fillerid^filleruid|" +
				"610-6^Bacteria identified:Prid:Pt:Body fld:Nom:Aerobic culture" +
				"^LN^CFL^Culture Body Fluid^L||30301210090814|" +
				"303008091215|303008091218||||||303008091310|" +
				"&&&PELVIS&Pelvis&L|||||||303008091322||MB|A",
			hidden: []string{"placerorderno", "placerid", "placeruid", "fillerorderno", "fillerid", "filleruid",
				"30301210090814", "303008091215", "303008091218", "303008091310", "303008091322"},
		},
		{
			name: "SPM",
			input: mshSegment + "\rSPM|1|^fillerid||" +
				"309051001^Body fluid sample (specimen)^SN^PARFLD^Paracentesis Fluid^L|" +
				"|||||||||||||30301210090814",
			hidden: []string{"fillerid", "30301210090814"},
		},
		{
			name:   "NTE",
			input:  mshSegment + "\rNTE|1||note text",
			hidden: []string{"note text"},
		},
		{
			name: "OBX",
			input: mshSegment + "\rOBX|4|TX|41852-5^Microorganism or agent identified:" +
				"Prid:Pt:XXX:Nom:^LN^RL^DFA^L|4.1|" +
				"too many dates and addresses||||||F||||^^^labcode^^L",
			hidden: []string{"too many dates and addresses", "labcode"},
		},
		{
			name:   "ORC",
			input:  mshSegment + "\rORC|NW|613395|19950914:C00094R||||||199509141051",
			hidden: []string{"199509"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newMBDSTransformer(t)
			result := transform(t, tr, tt.input)
			assertHidden(t, tt.input, result, tt.hidden)
		})
	}
}

func TestTransform_MSHScenario(t *testing.T) {
	tr, store := newMBDSTransformer(t)
	result := transform(t, tr, mshSegment)

	fields := strings.Split(result, "|")
	require.Len(t, fields, len(strings.Split(mshSegment, "|")), "structure is kept")

	controlID := fields[9]
	assert.Len(t, controlID, 28)
	assert.True(t, strings.HasSuffix(controlID, "3982"), "message counter is kept")

	// Control id timestamp agrees with MSH-7
	assert.Equal(t, fields[6], controlID[10:24])
	assert.Equal(t, store.value(t, "30301210090814"), fields[6])

	// Unmapped fields pass through
	assert.Equal(t, "ADT^A08^ADT_A01", fields[8])
	assert.Equal(t, "Biosurveillance-1.0", fields[len(fields)-1])
	assert.True(t, strings.HasPrefix(result, "MSH|^~\\&|"))

	sendingFacility := strings.Split(fields[3], "^")
	assert.Regexp(t, `^Site [a-z]{7}$`, sendingFacility[0])
	assert.Equal(t, "NPI", sendingFacility[2])
}

func TestTransform_Reentrant(t *testing.T) {
	tr, store := newMBDSTransformer(t)
	raw := "MSH|^~\\&|sendingapp^SAID|sendingfacility^SFID^NPI|" +
		"receivingapp^RAID^ISO|receivingfacility^RFID^ISO|" +
		"303012100908||ADT^A08^ADT_A01|" +
		"1234567890303012100908143982|P|2.5|||||||||Biosurveillance-1.0"

	m, err := anonymize.NewMessage(raw)
	require.NoError(t, err)

	first, err := tr.Transform(m)
	require.NoError(t, err)
	puts := store.puts

	second, err := tr.Transform(m)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, puts, store.puts, "second call does no lookups or writes")
	assert.True(t, m.Anonymized())
	assert.Equal(t, first, m.String())
}

func TestTransform_ConsistentAcrossMessages(t *testing.T) {
	tr, _ := newMBDSTransformer(t)

	first := transform(t, tr, mshSegment+"\rPID|1||patientID")
	second := transform(t, tr, strings.Replace(mshSegment, "3982", "3983", 1)+"\rPID|1||patientID")

	firstPID := strings.Split(strings.Split(first, "\r")[1], "|")[3]
	secondPID := strings.Split(strings.Split(second, "\r")[1], "|")[3]
	assert.Equal(t, firstPID, secondPID)
	assert.Regexp(t, `^\d{6}$`, firstPID)

	assert.Equal(t, strings.Split(first, "|")[2], strings.Split(second, "|")[2], "MSH-3 agrees")
}

func TestTransform_UnmappedUntouched(t *testing.T) {
	tr, _ := newMBDSTransformer(t)
	raw := mshSegment + "\r\nZZZ|secret|value\r\nAL1|1||peanuts\r\n"

	result := transform(t, tr, raw)
	assert.Contains(t, result, "\r\nZZZ|secret|value\r\nAL1|1||peanuts\r\n")
}

func TestTransform_MissingPositionsSkipped(t *testing.T) {
	tr, _ := newMBDSTransformer(t)
	raw := mshSegment + "\rPV1|1\rNTE|1"

	result := transform(t, tr, raw)
	assert.True(t, strings.HasSuffix(result, "\rPV1|1\rNTE|1"))
}

func TestTransform_UnparsableTimestamp(t *testing.T) {
	tr, _ := newMBDSTransformer(t)
	m, err := anonymize.NewMessage(mshSegment + "\rEVN|A01|not-a-date")
	require.NoError(t, err)

	_, err = tr.Transform(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVN-2.1")
	assert.False(t, m.Anonymized())
}

func TestTransform_SequentialControlID(t *testing.T) {
	tr, _ := newMBDSTransformer(t)
	raw := strings.Replace(mshSegment, "1234567890303012100908143982", "000000000000000000001234", 1)

	result := transform(t, tr, raw)
	fields := strings.Split(result, "|")
	assert.NotEqual(t, "000000000000000000001234", fields[9])
	assert.NotEmpty(t, fields[9])
}
