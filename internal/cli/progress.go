package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ScanProgressReporter implements scan progress reporting with a progress
// bar. Quiet mode turns it into a no-op.
type ScanProgressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

// NewScanProgressReporter creates a new scan progress reporter.
func NewScanProgressReporter(quiet bool) *ScanProgressReporter {
	return &ScanProgressReporter{quiet: quiet}
}

func (r *ScanProgressReporter) OnScanStart(totalFiles int) {
	// Bars for a handful of files are noise.
	if r.quiet || totalFiles < 50 {
		return
	}
	r.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("Scanning files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (r *ScanProgressReporter) OnFileScanned(path string) {
	if r.bar != nil {
		r.bar.Add(1)
	}
}

func (r *ScanProgressReporter) OnScanComplete() {
	if r.bar != nil {
		r.bar.Finish()
		r.bar = nil
	}
}
