package events

import (
	"errors"
	"testing"
	"time"

	"github.com/eisenvault/evshare/internal/models"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventUploadProgress)

	bus.PublishUploadProgress(1, 3, "report.pdf", nil)

	select {
	case received := <-ch:
		progress, ok := received.(*UploadProgressEvent)
		if !ok {
			t.Fatal("Expected UploadProgressEvent")
		}
		if progress.FileName != "report.pdf" {
			t.Errorf("Expected file name 'report.pdf', got '%s'", progress.FileName)
		}
		if progress.Processed != 1 || progress.Total != 3 {
			t.Errorf("Expected 1/3, got %d/%d", progress.Processed, progress.Total)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(EventNavigation)
	ch2 := bus.Subscribe(EventNavigation)

	bus.PublishNavigation(NavLoad, nil, 4, nil)

	received1 := false
	received2 := false

	select {
	case <-ch1:
		received1 = true
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case <-ch2:
		received2 = true
	case <-time.After(100 * time.Millisecond):
	}

	if !received1 || !received2 {
		t.Error("Not all subscribers received the event")
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	progressCh := bus.Subscribe(EventUploadProgress)
	navCh := bus.Subscribe(EventNavigation)

	bus.PublishUploadProgress(1, 1, "a.txt", nil)

	select {
	case <-progressCh:
	case <-time.After(100 * time.Millisecond):
		t.Error("Progress subscriber didn't receive event")
	}

	select {
	case <-navCh:
		t.Error("Navigation subscriber received wrong event type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	allCh := bus.SubscribeAll()

	bus.PublishUploadProgress(1, 2, "a.txt", nil)
	bus.Publish(&UploadCompleteEvent{
		BaseEvent: BaseEvent{EventType: EventUploadComplete, Time: time.Now()},
		Total:     2,
	})

	count := 0
	for i := 0; i < 2; i++ {
		select {
		case <-allCh:
			count++
		case <-time.After(100 * time.Millisecond):
		}
	}

	if count != 2 {
		t.Errorf("Expected to receive 2 events, got %d", count)
	}
}

func TestEventBus_NonBlocking(t *testing.T) {
	bus := NewEventBus(2)
	defer bus.Close()

	ch := bus.Subscribe(EventUploadProgress)

	// Excess events are dropped rather than blocking the publisher
	for i := 0; i < 10; i++ {
		bus.PublishUploadProgress(i+1, 10, "f", nil)
	}

	if got := bus.GetDroppedEventCount(); got != 8 {
		t.Errorf("Expected 8 dropped events, got %d", got)
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		case <-time.After(10 * time.Millisecond):
			goto done
		}
	}
done:

	if count != 2 {
		t.Errorf("Expected 2 buffered events, got %d", count)
	}
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)

	ch := bus.Subscribe(EventUploadComplete)

	bus.Close()

	_, ok := <-ch
	if ok {
		t.Error("Channel should be closed after bus.Close()")
	}

	// Publishing after close should not panic
	bus.PublishUploadProgress(1, 1, "a", nil)
}

// TestEventBus_NilBus verifies components can publish without an attached bus.
func TestEventBus_NilBus(t *testing.T) {
	var bus *EventBus
	bus.PublishUploadProgress(1, 1, "a", errors.New("boom"))
	bus.PublishNavigation(NavBack, nil, 0, nil)
}

// TestPublishNavigation_CopiesState verifies later mutation of the caller's
// breadcrumbs does not leak into a published event.
func TestPublishNavigation_CopiesState(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventNavigation)

	crumbs := []models.FolderNode{{ID: "1", Name: "Finance", Kind: models.KindSite}}
	selected := &models.FolderNode{ID: "2", Name: "Invoices", Kind: models.KindFolder}
	bus.PublishNavigation(NavSelect, crumbs, 5, selected)

	crumbs[0].Name = "changed"
	selected.Name = "changed"

	select {
	case event := <-ch:
		nav, ok := event.(*NavigationEvent)
		if !ok {
			t.Fatal("Expected NavigationEvent")
		}
		if nav.Action != NavSelect {
			t.Errorf("Expected action select, got %s", nav.Action)
		}
		if nav.Breadcrumbs[0].Name != "Finance" {
			t.Errorf("Breadcrumbs not copied: %s", nav.Breadcrumbs[0].Name)
		}
		if nav.Selected == nil || nav.Selected.Name != "Invoices" {
			t.Errorf("Selected not copied: %+v", nav.Selected)
		}
		if nav.ListingSize != 5 {
			t.Errorf("Expected listing size 5, got %d", nav.ListingSize)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for navigation event")
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventUploadProgress)
	bus.Unsubscribe(EventUploadProgress, ch)

	bus.PublishUploadProgress(1, 1, "a", nil)

	select {
	case <-ch:
		t.Error("Unsubscribed channel received an event")
	case <-time.After(50 * time.Millisecond):
	}
}
