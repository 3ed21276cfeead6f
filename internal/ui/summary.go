package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes formats bytes as human-readable size
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}

// FormatDuration formats a duration like "1m5s", rounded to the precision that matters
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

// FormatRate formats an average rate of count per elapsed time
func FormatRate(count int64, elapsed time.Duration, unit string) string {
	if elapsed <= 0 {
		return fmt.Sprintf("- %s/sec", unit)
	}
	perSec := float64(count) / elapsed.Seconds()
	if perSec < 0.01 {
		return fmt.Sprintf("< 0.01 %s/sec", unit)
	}
	return fmt.Sprintf("%s %s/sec", humanize.FormatFloat("#,###.##", perSec), unit)
}

// RunSummary returns a one line report of a finished run
func RunSummary(messages int, bytes int64, elapsed time.Duration) string {
	return fmt.Sprintf(
		"%s messages (%s) in %s | Avg: %s, %s/sec",
		humanize.Comma(int64(messages)),
		FormatBytes(bytes),
		FormatDuration(elapsed),
		FormatRate(int64(messages), elapsed, "messages"),
		FormatBytes(int64(float64(bytes)/max(elapsed.Seconds(), 1e-9))),
	)
}
