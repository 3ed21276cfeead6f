package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/pipeline"
)

func TestLookupTerm(t *testing.T) {
	cfg := testConfig(t)
	store := openStore(t, cfg)

	require.NoError(t, store.Put("sendingapp", "Qwertyuiop", false))
	require.NoError(t, store.Put("203012100908", "20410311140812", false))
	require.NoError(t, store.Put("patientID", "123456", false))
	require.NoError(t, store.Put("&assigningID&ISO", "&0.12.345&ISO", false))
	require.NoError(t, store.Put("date_delta-87600h0m0s", int64(311040000), false))

	tests := []struct {
		name  string
		term  string
		want  string
		found bool
	}{
		{"Literal key", "sendingapp", "Qwertyuiop", true},
		{"Comma date", "2030,12,10,9,8", "2041,03,11,14,08,12", true},
		{"Identifier with authority", "patientID^^^&assigningID&ISO", "123456^^^&0.12.345&ISO", true},
		{"Numeric value", "date_delta-87600h0m0s", "311040000", true},
		{"Missing key", "unknown", "", false},
		{"Missing date", "2031,1,1,0,0", "", false},
		{"Missing authority", "patientID^^^&other&ISO", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := pipeline.LookupTerm(store, tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupTerm_InvalidDate(t *testing.T) {
	store := openStore(t, testConfig(t))

	_, _, err := pipeline.LookupTerm(store, "2030,12,ten,9,8")
	require.Error(t, err)
	assert.True(t, lib.IsCategory(err, lib.CategoryValidation))
}

func TestFormatTermValue(t *testing.T) {
	assert.Equal(t, "Qwertyuiop", pipeline.FormatTermValue([]byte(`"Qwertyuiop"`)))
	assert.Equal(t, "42", pipeline.FormatTermValue([]byte(`42`)))
}
