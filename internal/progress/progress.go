// Package progress renders upload batch progress for the CLI (a terminal
// progress bar) and for event-bus consumers.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/events"
	"github.com/eisenvault/evshare/internal/models"
)

// Reporter receives batch progress.
type Reporter interface {
	Start(total int, folder string)
	ItemDone(processed, total int, result models.UploadResult)
	Finish(result models.BatchUploadResult)
}

// BatchBar draws an item-count progress bar and prints one line per failed item.
type BatchBar struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
	// lines disables the bar and prints a line per item (non-terminal output)
	lines bool
}

// NewBatchBar creates a bar writing to w. When w is not a terminal the bar is
// replaced by plain lines.
func NewBatchBar(w io.Writer) *BatchBar {
	if w == nil {
		w = os.Stderr
	}
	return &BatchBar{out: w, lines: !isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start initializes the bar for total items.
func (b *BatchBar) Start(total int, folder string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lines {
		fmt.Fprintf(b.out, "Uploading %d file(s) to %s\n", total, folder)
		return
	}
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Uploading to "+folder),
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetWidth(constants.ProgressBarWidth),
		progressbar.OptionThrottle(constants.ProgressThrottle),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(b.out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// ItemDone advances the bar by one item.
func (b *BatchBar) ItemDone(processed, total int, result models.UploadResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name := result.FileName
	if name == "" {
		name = fmt.Sprintf("item %d", result.Index+1)
	}

	if b.bar == nil {
		status := "ok"
		if result.Err != nil {
			status = api.UserMessage(result.Err)
		}
		fmt.Fprintf(b.out, "[%d/%d] %s: %s\n", processed, total, name, status)
		return
	}

	if result.Err != nil {
		// Clear the bar line so the message is not drawn over it
		_ = b.bar.Clear()
		fmt.Fprintf(b.out, "Failed: %s: %s\n", name, api.UserMessage(result.Err))
	}
	_ = b.bar.Set(processed)
}

// Finish completes the bar and prints the outcome.
func (b *BatchBar) Finish(result models.BatchUploadResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
	if result.OK() {
		fmt.Fprintf(b.out, "Upload successful! %d file(s) uploaded.\n", result.Succeeded)
		return
	}
	fmt.Fprintf(b.out, "Upload finished with errors: %s\n", result)
}

// Callback adapts the reporter to the upload orchestrator's progress hook.
func Callback(r Reporter) func(processed, total int, result models.UploadResult) {
	return func(processed, total int, result models.UploadResult) {
		r.ItemDone(processed, total, result)
	}
}

// NoOpProgress is a reporter that does nothing (for quiet runs).
type NoOpProgress struct{}

// Start does nothing.
func (NoOpProgress) Start(total int, folder string) {}

// ItemDone does nothing.
func (NoOpProgress) ItemDone(processed, total int, result models.UploadResult) {}

// Finish does nothing.
func (NoOpProgress) Finish(result models.BatchUploadResult) {}

// Follow drives r from upload events on bus until an UploadCompleteEvent
// arrives or ctx ends. The subscription is in place when Follow returns; the
// returned channel is closed once following stops.
func Follow(ctx context.Context, bus *events.EventBus, r Reporter) <-chan struct{} {
	ch := bus.SubscribeAll()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer bus.UnsubscribeAll(ch)

		started := false
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case *events.UploadProgressEvent:
					if !started {
						r.Start(e.Total, "")
						started = true
					}
					r.ItemDone(e.Processed, e.Total, models.UploadResult{Index: e.Processed - 1, FileName: e.FileName, Err: e.Err})
				case *events.UploadCompleteEvent:
					r.Finish(models.BatchUploadResult{Succeeded: e.Succeeded, Failed: e.Failed, Total: e.Total})
					return
				}
			}
		}
	}()
	return done
}
