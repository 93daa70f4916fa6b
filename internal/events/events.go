// Package events provides an in-process event bus for share sessions.
// Navigation and upload components publish to it; front ends (progress bars,
// notifications, the interactive browser) subscribe.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/models"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventNavigation     EventType = "navigation"
	EventFolderCreated  EventType = "folder_created"
	EventUploadProgress EventType = "upload_progress"
	EventUploadComplete EventType = "upload_complete"
)

// NavAction names the navigator transition that produced a NavigationEvent.
type NavAction string

const (
	NavLoad    NavAction = "load"
	NavInto    NavAction = "into"
	NavBack    NavAction = "back"
	NavSelect  NavAction = "select"
	NavReset   NavAction = "reset"
	NavRefresh NavAction = "refresh"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NavigationEvent is published after every committed navigator transition.
type NavigationEvent struct {
	BaseEvent
	Action      NavAction
	Breadcrumbs []models.FolderNode // copy, outermost first
	ListingSize int
	Selected    *models.FolderNode
}

// FolderCreatedEvent is published after a folder was created on the server.
type FolderCreatedEvent struct {
	BaseEvent
	Parent models.FolderNode
	Folder models.FolderNode
}

// UploadProgressEvent is published after each item of a batch finishes.
type UploadProgressEvent struct {
	BaseEvent
	Processed int
	Total     int
	FileName  string
	Err       error // nil on success
}

// UploadCompleteEvent is published once per batch.
type UploadCompleteEvent struct {
	BaseEvent
	Folder    string
	FolderID  string
	Succeeded int
	Failed    int
	Total     int
	Duration  time.Duration
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking. Events for a
// full subscriber are dropped and counted. Publishing on a nil bus is a no-op.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishNavigation is a convenience method for publishing navigation events.
// The breadcrumb slice is copied.
func (eb *EventBus) PublishNavigation(action NavAction, breadcrumbs []models.FolderNode, listingSize int, selected *models.FolderNode) {
	if eb == nil {
		return
	}
	crumbs := make([]models.FolderNode, len(breadcrumbs))
	copy(crumbs, breadcrumbs)
	var sel *models.FolderNode
	if selected != nil {
		node := *selected
		sel = &node
	}
	eb.Publish(&NavigationEvent{
		BaseEvent: BaseEvent{
			EventType: EventNavigation,
			Time:      time.Now(),
		},
		Action:      action,
		Breadcrumbs: crumbs,
		ListingSize: listingSize,
		Selected:    sel,
	})
}

// PublishUploadProgress is a convenience method for publishing per-item progress.
func (eb *EventBus) PublishUploadProgress(processed, total int, fileName string, err error) {
	eb.Publish(&UploadProgressEvent{
		BaseEvent: BaseEvent{
			EventType: EventUploadProgress,
			Time:      time.Now(),
		},
		Processed: processed,
		Total:     total,
		FileName:  fileName,
		Err:       err,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
