package event

import (
	"testing"
	"time"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBusSize(8)

	bus.Publish(NewSearchStarted(time.Time{}, time.Time{}))
	bus.Publish(NewPageFound(100, 100))
	bus.Publish(NewPageFound(40, 140))
	bus.Publish(NewBatchComplete(140))
	bus.Close()

	var names []string
	for e := range bus.Subscribe() {
		names = append(names, e.EventName())
	}

	want := []string{"search.started", "page.found", "page.found", "batch.complete"}
	if len(names) != len(want) {
		t.Fatalf("got %d events, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestBusCloseIdempotent(t *testing.T) {
	bus := NewBus()
	bus.Close()
	bus.Close()

	// Publish after close must not panic.
	bus.Publish(NewCancelled())

	if _, ok := <-bus.Subscribe(); ok {
		t.Fatal("subscription channel should be closed")
	}
}

func TestEventTimestamps(t *testing.T) {
	before := time.Now()
	e := NewDownloadStarted("abc-123")
	after := time.Now()

	if e.OccurredAt().Before(before) || e.OccurredAt().After(after) {
		t.Errorf("OccurredAt() = %v, want between %v and %v", e.OccurredAt(), before, after)
	}
	if e.EnvelopeID != "abc-123" {
		t.Errorf("EnvelopeID = %q", e.EnvelopeID)
	}
}
