package pipeline_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/pipeline"
)

func segmentsWithTag(output, tag string) [][]string {
	var found [][]string
	for _, seg := range strings.Split(output, "\r") {
		if strings.HasPrefix(seg, tag+"|") {
			found = append(found, strings.Split(seg, "|"))
		}
	}
	return found
}

func TestAnonymizeBatch(t *testing.T) {
	cfg := testConfig(t)
	tr := newTransformer(t, cfg, openStore(t, cfg))

	var offsets []int64
	var out bytes.Buffer
	result, err := pipeline.AnonymizeBatch(batch, tr, &out, func(offset int64) {
		offsets = append(offsets, offset)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Messages)
	assert.Equal(t, int64(len(batch)), result.BytesRead)
	require.Len(t, offsets, 3)
	assert.IsIncreasing(t, offsets)
	assert.Equal(t, int64(len(batch)), offsets[2])

	output := out.String()
	assert.True(t, strings.HasSuffix(output, "BTS|2\r"))
	for _, hidden := range []string{"batchsendingapp", "batchcontrolid", "sendingapp", "patientID", "assigningID"} {
		assert.NotContains(t, output, hidden)
	}

	// The same patient id maps to one replacement in both messages
	pids := segmentsWithTag(output, "PID")
	require.Len(t, pids, 2)
	assert.Equal(t, pids[0][3], pids[1][3])

	// Message counters survive in the control ids
	headers := segmentsWithTag(output, "MSH")
	require.Len(t, headers, 2)
	assert.True(t, strings.HasSuffix(headers[0][9], "3982"))
	assert.True(t, strings.HasSuffix(headers[1][9], "3983"))
}

func TestAnonymizeBatch_InvalidMessage(t *testing.T) {
	cfg := testConfig(t)
	tr := newTransformer(t, cfg, openStore(t, cfg))

	var out bytes.Buffer
	result, err := pipeline.AnonymizeBatch("not an hl7 batch", tr, &out, nil)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "message 1")
	assert.True(t, lib.IsCategory(err, lib.CategoryValidation))
	assert.Equal(t, 0, result.Messages)
}

func TestAnonymizeFile_ToFile(t *testing.T) {
	cfg := testConfig(t)
	tr := newTransformer(t, cfg, openStore(t, cfg))

	dir := t.TempDir()
	input := filepath.Join(dir, "batch.hl7")
	output := filepath.Join(dir, "batch.anon.hl7")
	require.NoError(t, os.WriteFile(input, []byte(batch), 0644))

	result, err := pipeline.AnonymizeFile(input, output, tr, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Messages)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "patientID")

	assert.NoFileExists(t, output+".part")
}

func TestAnonymizeFile_ToStdout(t *testing.T) {
	cfg := testConfig(t)
	tr := newTransformer(t, cfg, openStore(t, cfg))

	input := filepath.Join(t.TempDir(), "batch.hl7")
	require.NoError(t, os.WriteFile(input, []byte(batch), 0644))

	var stdout bytes.Buffer
	_, err := pipeline.AnonymizeFile(input, "", tr, &stdout, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout.String(), "BHS|^~\\&|"))
}

func TestAnonymizeFile_FailureLeavesNoOutput(t *testing.T) {
	cfg := testConfig(t)
	tr := newTransformer(t, cfg, openStore(t, cfg))

	dir := t.TempDir()
	input := filepath.Join(dir, "bad.hl7")
	output := filepath.Join(dir, "bad.anon.hl7")
	bad := "MSH|^~\\&|sendingapp^SAID||||30301210090814\rEVN|A01|not-a-date\r"
	require.NoError(t, os.WriteFile(input, []byte(bad), 0644))

	_, err := pipeline.AnonymizeFile(input, output, tr, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVN-2.1")

	assert.NoFileExists(t, output)
	assert.NoFileExists(t, output+".part")
}

func TestAnonymizeFile_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	tr := newTransformer(t, cfg, openStore(t, cfg))

	_, err := pipeline.AnonymizeFile(filepath.Join(t.TempDir(), "missing.hl7"), "", tr, nil, nil)
	require.Error(t, err)
	assert.True(t, lib.IsCategory(err, lib.CategoryFileSystem))
}
