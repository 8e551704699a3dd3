package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"

	"mediacraft/internal/upload"
)

// uploadProgress renders per-file upload progress. On a terminal it drives
// go-pretty progress bars; piped output gets one line per file instead.
type uploadProgress struct {
	out         io.Writer
	interactive bool

	writer progress.Writer

	mu       sync.Mutex
	trackers map[int]*progress.Tracker
}

func newUploadProgress(out io.Writer) *uploadProgress {
	interactive := out == os.Stdout &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))

	p := &uploadProgress{
		out:         out,
		interactive: interactive,
		trackers:    make(map[int]*progress.Tracker),
	}
	if interactive {
		pw := progress.NewWriter()
		pw.SetOutputWriter(out)
		pw.SetAutoStop(false)
		pw.SetUpdateFrequency(100 * time.Millisecond)
		pw.Style().Visibility.ETA = false
		pw.Style().Visibility.Speed = false
		p.writer = pw
		go pw.Render()
	}
	return p
}

// Callback returns the per-file hook handed to the upload coordinator.
func (p *uploadProgress) Callback() upload.FileProgress {
	return func(index int, filename string, percent int) {
		if !p.interactive {
			if percent == 0 {
				fmt.Fprintf(p.out, "Uploading %s...\n", filename)
			} else if percent == 100 {
				fmt.Fprintf(p.out, "Uploaded %s\n", filename)
			}
			return
		}

		p.mu.Lock()
		tracker, ok := p.trackers[index]
		if !ok {
			tracker = &progress.Tracker{
				Message: filename,
				Total:   100,
				Units:   progress.UnitsDefault,
			}
			p.trackers[index] = tracker
			p.writer.AppendTracker(tracker)
		}
		p.mu.Unlock()

		tracker.SetValue(int64(percent))
		if percent >= 100 {
			tracker.MarkAsDone()
		}
	}
}

// Stop finishes rendering. Safe to call when not interactive.
func (p *uploadProgress) Stop() {
	if !p.interactive {
		return
	}
	p.mu.Lock()
	for _, tracker := range p.trackers {
		if !tracker.IsDone() {
			tracker.MarkAsDone()
		}
	}
	p.mu.Unlock()

	for p.writer.IsRenderInProgress() && p.writer.LengthActive() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	p.writer.Stop()
}
