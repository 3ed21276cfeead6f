package ui

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar shows how much of an input file has been consumed
// A disabled bar accepts every call and draws nothing
type ProgressBar struct {
	bar     *progressbar.ProgressBar
	total   int64
	current int64
}

// NewProgressBar creates a byte progress bar on stderr
// Stdout stays free for anonymized output
func NewProgressBar(total int64, description string, enabled bool) *ProgressBar {
	if !enabled {
		return &ProgressBar{total: total}
	}
	return NewProgressBarWithWriter(total, description, os.Stderr)
}

// NewProgressBarWithWriter creates a progress bar that writes to a specific writer
// Useful for testing with buffers
func NewProgressBarWithWriter(total int64, description string, writer io.Writer) *ProgressBar {
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(500*time.Millisecond),
		progressbar.OptionSetWriter(writer),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(false),
	)
	return &ProgressBar{bar: bar, total: total}
}

// Set moves the bar to an absolute byte offset
func (p *ProgressBar) Set(value int64) error {
	p.current = value
	if p.bar == nil {
		return nil
	}
	return p.bar.Set64(value)
}

// Add advances the bar by amount bytes
func (p *ProgressBar) Add(amount int64) error {
	return p.Set(p.current + amount)
}

// Finish completes the bar
func (p *ProgressBar) Finish() error {
	if p.bar == nil {
		return nil
	}
	return p.bar.Finish()
}

// Current returns the last offset reported
func (p *ProgressBar) Current() int64 {
	return p.current
}

// GetPercentage returns current completion percentage (0-100)
func (p *ProgressBar) GetPercentage() float64 {
	if p.total == 0 {
		return 0
	}
	return (float64(p.current) / float64(p.total)) * 100
}
