package ui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trobanga/hl7anon/internal/ui"
)

func TestProgressBar_Disabled(t *testing.T) {
	bar := ui.NewProgressBar(100, "anonymizing", false)

	require.NoError(t, bar.Set(40))
	require.NoError(t, bar.Add(10))
	require.NoError(t, bar.Finish())

	assert.Equal(t, int64(50), bar.Current())
	assert.InDelta(t, 50.0, bar.GetPercentage(), 0.001)
}

func TestProgressBar_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	bar := ui.NewProgressBarWithWriter(1000, "anonymizing", &buf)

	require.NoError(t, bar.Set(1000))
	require.NoError(t, bar.Finish())

	assert.Contains(t, buf.String(), "anonymizing")
	assert.InDelta(t, 100.0, bar.GetPercentage(), 0.001)
}

func TestProgressBar_ZeroTotal(t *testing.T) {
	bar := ui.NewProgressBar(0, "empty", false)
	assert.Equal(t, 0.0, bar.GetPercentage())
}
