package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recvEvent receives one event with a timeout so tests never hang.
func recvEvent(t *testing.T, tap *Tap, within time.Duration) Event {
	t.Helper()
	select {
	case ev, ok := <-tap.C:
		if !ok {
			t.Fatalf("tap closed unexpectedly")
		}
		return ev
	case <-time.After(within):
		t.Fatalf("timed out waiting for event")
		return Event{} // unreachable
	}
}

func recvNoEvent(t *testing.T, tap *Tap, within time.Duration) {
	t.Helper()
	select {
	case ev, ok := <-tap.C:
		if ok {
			t.Fatalf("expected no event within %v, got %s", within, ev.Type)
		}
	case <-time.After(within):
	}
}

func TestBrokerFanoutPreservesOrder(t *testing.T) {
	b := NewBroker()
	tap1 := b.Subscribe()
	tap2 := b.Subscribe()

	b.Publish(Event{Type: EventStarted})
	b.Publish(Event{Type: EventPaused})
	b.Publish(Event{Type: EventResumed})

	for _, tap := range []*Tap{tap1, tap2} {
		assert.Equal(t, EventStarted, recvEvent(t, tap, time.Second).Type)
		assert.Equal(t, EventPaused, recvEvent(t, tap, time.Second).Type)
		assert.Equal(t, EventResumed, recvEvent(t, tap, time.Second).Type)
	}
}

func TestBrokerTapCloseDetaches(t *testing.T) {
	b := NewBroker()
	tap := b.Subscribe()
	other := b.Subscribe()

	tap.Close()
	b.Publish(Event{Type: EventStarted})

	_, ok := <-tap.C
	assert.False(t, ok)
	assert.Equal(t, EventStarted, recvEvent(t, other, time.Second).Type)

	// double close is safe
	tap.Close()
}

func TestBrokerCloseClosesAllTaps(t *testing.T) {
	b := NewBroker()
	tap := b.Subscribe()

	b.Close()

	_, ok := <-tap.C
	require.False(t, ok)

	// publish after close is a no-op, subscribe yields a closed tap
	b.Publish(Event{Type: EventStarted})
	late := b.Subscribe()
	_, ok = <-late.C
	assert.False(t, ok)
}

func TestBrokerSlowTapDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroker()
	tap := b.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < tapBuffer+10; i++ {
			b.Publish(Event{Type: EventSettingsChanged})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// the tap kept the first tapBuffer events and lost the rest
	for i := 0; i < tapBuffer; i++ {
		recvEvent(t, tap, time.Second)
	}
	recvNoEvent(t, tap, 50*time.Millisecond)
}
