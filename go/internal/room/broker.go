package room

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// tapBuffer bounds how far a subscriber may fall behind before events are
// dropped for it.
const tapBuffer = 64

// Broker is a room's broadcast channel: an in-process publish/subscribe hub
// where every subscriber owns an independent buffered tap. One publish
// reaches all taps in the same relative order; delivery time differs per
// consumer and publishing never blocks.
type Broker struct {
	mu     sync.Mutex
	taps   map[*Tap]struct{}
	closed bool
}

// Tap is one subscriber's private cursor on the broker. Receive from C; the
// channel is closed when the broker shuts down.
type Tap struct {
	C      <-chan Event
	ch     chan Event
	broker *Broker
}

func NewBroker() *Broker {
	return &Broker{taps: make(map[*Tap]struct{})}
}

// Subscribe registers a new tap. Taps created after the broker closed receive
// an already-closed channel.
func (b *Broker) Subscribe() *Tap {
	ch := make(chan Event, tapBuffer)
	tap := &Tap{C: ch, ch: ch, broker: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return tap
	}
	b.taps[tap] = struct{}{}
	return tap
}

// Publish delivers the event to every tap. A tap whose buffer is full misses
// the event; consumers re-read authoritative state on wake, so a dropped
// event costs at most one notification.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for tap := range b.taps {
		select {
		case tap.ch <- ev:
		default:
			log.Warn().Str("event", string(ev.Type)).Msg("tap buffer full, dropping event")
		}
	}
}

// Close shuts the broker down, closing every tap's channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for tap := range b.taps {
		close(tap.ch)
	}
	b.taps = make(map[*Tap]struct{})
}

// Close detaches the tap from the broker and closes its channel.
func (t *Tap) Close() {
	b := t.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.taps[t]; !ok {
		return
	}
	delete(b.taps, t)
	close(t.ch)
}
