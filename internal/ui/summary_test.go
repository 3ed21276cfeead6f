package ui_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/trobanga/hl7anon/internal/ui"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 kB"},
		{5_000_000, "5.0 MB"},
		{-1, "0 B"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ui.FormatBytes(tt.bytes))
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", ui.FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", ui.FormatDuration(1520*time.Millisecond))
	assert.Equal(t, "2m5s", ui.FormatDuration(2*time.Minute+5*time.Second+300*time.Millisecond))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "2.50 messages/sec", ui.FormatRate(5, 2*time.Second, "messages"))
	assert.Equal(t, "< 0.01 messages/sec", ui.FormatRate(0, time.Second, "messages"))
	assert.Equal(t, "- messages/sec", ui.FormatRate(5, 0, "messages"))
}

func TestRunSummary(t *testing.T) {
	summary := ui.RunSummary(1200, 4_000_000, 2*time.Second)

	assert.Contains(t, summary, "1,200 messages")
	assert.Contains(t, summary, "4.0 MB")
	assert.Contains(t, summary, "600.00 messages/sec")
	assert.Contains(t, summary, "2.0 MB/sec")
}
