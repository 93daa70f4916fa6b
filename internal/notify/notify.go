// Package notify sends desktop notifications when a share upload finishes.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/eisenvault/evshare/internal/events"
	"github.com/eisenvault/evshare/internal/logging"
)

const appTitle = "EisenVault"

// Notifier handles desktop notifications.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
	cfg     Config
	mu      sync.RWMutex

	// send delivers a notification; replaced in tests.
	send func(title, message string) error
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are sent.
	Enabled bool

	// ShowUploadComplete shows a notification when every file was uploaded.
	ShowUploadComplete bool

	// ShowUploadFailed shows a notification when some files failed.
	ShowUploadFailed bool
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:            true,
		ShowUploadComplete: true,
		ShowUploadFailed:   true,
	}
}

// NewNotifier creates a new notifier with the given configuration.
func NewNotifier(cfg *Config, logger *logging.Logger) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Notifier{
		logger:  logger,
		enabled: cfg.Enabled,
		cfg:     *cfg,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// UploadFinished notifies about a finished batch.
func (n *Notifier) UploadFinished(ev *events.UploadCompleteEvent) {
	if !n.IsEnabled() || ev == nil {
		return
	}

	folder := truncate(ev.Folder, 40)
	var title, message string
	switch {
	case ev.Failed == 0:
		if !n.cfg.ShowUploadComplete {
			return
		}
		title = "Upload successful!"
		message = fmt.Sprintf("%d file(s) uploaded to \"%s\".", ev.Succeeded, folder)
	default:
		if !n.cfg.ShowUploadFailed {
			return
		}
		title = "Upload failed"
		message = fmt.Sprintf("%d of %d file(s) could not be uploaded to \"%s\".", ev.Failed, ev.Total, folder)
	}

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("folder", ev.Folder).Msg("Failed to send upload notification")
	}
}

// SessionExpired asks the user to log in again in the host application.
func (n *Notifier) SessionExpired() {
	if !n.IsEnabled() {
		return
	}

	if err := n.send(appTitle, "Your session has expired. Please open EisenVault and log in again."); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send session expired notification")
	}
}

// Subscribe notifies for every UploadCompleteEvent published on bus until
// the bus is closed. The returned channel is closed once every pending
// notification has been sent.
func (n *Notifier) Subscribe(bus *events.EventBus) <-chan struct{} {
	ch := bus.Subscribe(events.EventUploadComplete)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			if complete, ok := ev.(*events.UploadCompleteEvent); ok {
				n.UploadFinished(complete)
			}
		}
	}()
	return done
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
