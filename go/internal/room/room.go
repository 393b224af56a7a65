// Package room implements the per-room timer engine: the room registry, the
// tournament command surface, the broadcast broker, the level-advance
// scheduler, and the notification fanout.
package room

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/seanmccall/pokerclock/go/internal/push"
	"github.com/seanmccall/pokerclock/go/internal/structure"
	"github.com/seanmccall/pokerclock/go/internal/tournament"
)

// Room is the addressable unit holding at most one active tournament and the
// broadcast channel used for all internal signaling. A room, once referenced,
// persists for the life of the process.
type Room struct {
	ID uuid.UUID

	clock   clockwork.Clock
	catalog *structure.Catalog
	pusher  push.Sender
	broker  *Broker

	// mu is the sole serialization point for state changes within this room.
	mu         sync.Mutex
	tournament *tournament.Tournament
}

func newRoom(id uuid.UUID, catalog *structure.Catalog, pusher push.Sender, clk clockwork.Clock) *Room {
	r := &Room{
		ID:      id,
		clock:   clk,
		catalog: catalog,
		pusher:  pusher,
		broker:  NewBroker(),
	}
	// Subscribe before spawning so no event published between room creation
	// and the goroutine's first run is missed.
	go r.runNotifier(r.broker.Subscribe())
	return r
}

// Events exposes the room's broadcast channel for sessions and tests.
func (r *Room) Events() *Broker {
	return r.broker
}

// Status is what a device needs to render the room right now.
type Status struct {
	Running    bool
	Subscribed bool
	State      *tournament.RoundState
}

// Snapshot returns a freshly computed view of the room for one device.
func (r *Room) Snapshot(device uuid.UUID) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return Status{}
	}
	state := r.tournament.RoundState()
	return Status{
		Running:    true,
		Subscribed: r.tournament.Subscribed(device),
		State:      &state,
	}
}

// CreateTournament idempotently starts a tournament against the named
// structure: a no-op when one is already running, an error when the structure
// is unknown.
func (r *Room) CreateTournament(structureName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament != nil {
		return nil
	}

	t, err := tournament.New(r.ID, structureName, r.catalog, r.clock.Now())
	if err != nil {
		return err
	}
	r.tournament = t
	go r.runScheduler()

	log.Info().
		Str("room_id", r.ID.String()).
		Str("structure", structureName).
		Msg("tournament created")
	r.publishLocked(Event{Type: EventStarted})
	return nil
}

// restoreTournament installs a tournament rebuilt from the snapshot file and
// restarts its scheduler.
func (r *Room) restoreTournament(t *tournament.Tournament) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tournament = t
	go r.runScheduler()

	log.Info().
		Str("room_id", r.ID.String()).
		Str("structure", t.StructureName).
		Int("level", t.Level).
		Msg("tournament restored")
	r.publishLocked(Event{Type: EventStarted})
}

// Pause freezes the clock. The requesting device is excluded from its own
// notification.
func (r *Room) Pause(device uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return
	}
	r.tournament.Clock = r.tournament.Clock.Pause(r.clock.Now())
	r.publishLocked(Event{Type: EventPaused, Origin: device})
}

// Resume restarts the clock. The requesting device is excluded from its own
// notification.
func (r *Room) Resume(device uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return
	}
	r.tournament.Clock = r.tournament.Clock.Resume(r.clock.Now())
	r.publishLocked(Event{Type: EventResumed, Origin: device})
}

// Advance moves the tournament by delta levels. Invalid transitions are
// silently ignored; reaching the terminal level ends the tournament.
func (r *Room) Advance(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanceLocked(delta)
}

// advanceLocked reports whether the tournament completed.
func (r *Room) advanceLocked(delta int) bool {
	if r.tournament == nil {
		return true
	}
	switch r.tournament.AdvanceLevel(delta, r.clock.Now()) {
	case tournament.AdvanceInvalid:
		return false
	case tournament.Completed:
		r.endLocked()
		return true
	default:
		state := r.tournament.RoundState()
		log.Info().
			Str("room_id", r.ID.String()).
			Int("level", state.Level).
			Str("cur", state.Cur.ShortString()).
			Msg("level changed")
		r.publishLocked(Event{Type: EventLevelUp, State: &state})
		return false
	}
}

// Terminate ends the tournament immediately.
func (r *Room) Terminate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return
	}
	r.endLocked()
}

// endLocked clears the tournament and its subscriptions and announces the
// end. The subscriber set is captured into the event because it no longer
// exists by the time the notifier reads it.
func (r *Room) endLocked() {
	recipients := make([]push.Subscription, 0)
	for _, sub := range r.tournament.Subscribers() {
		recipients = append(recipients, sub)
	}
	r.tournament.ClearSubscriptions()
	r.tournament = nil

	log.Info().Str("room_id", r.ID.String()).Msg("tournament ended")
	r.publishLocked(Event{Type: EventEnded, Recipients: recipients})
}

// ErrNoTournament is returned by settings and subscription operations when
// the room has no active tournament.
var ErrNoTournament = errors.New("no tournament running")

// Settings returns the current duration override.
func (r *Room) Settings() (*time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return nil, ErrNoTournament
	}
	return r.tournament.Override, nil
}

// UpdateSettings stores a new duration override, shifting the running clock
// by the change in effective duration.
func (r *Room) UpdateSettings(override *time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return ErrNoTournament
	}
	r.tournament.UpdateSettings(override, r.clock.Now())
	r.publishLocked(Event{Type: EventSettingsChanged})
	return nil
}

// Subscribe records a device's push credentials for the running tournament.
func (r *Room) Subscribe(device uuid.UUID, sub push.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return ErrNoTournament
	}
	r.tournament.Subscribe(device, sub)
	log.Info().Str("room_id", r.ID.String()).Str("device_id", device.String()).Msg("device subscribed")
	r.publishLocked(Event{Type: EventSubscriptionChanged, Device: device})
	return nil
}

// Unsubscribe removes a device's push credentials.
func (r *Room) Unsubscribe(device uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return ErrNoTournament
	}
	r.tournament.Unsubscribe(device)
	log.Info().Str("room_id", r.ID.String()).Str("device_id", device.String()).Msg("device unsubscribed")
	r.publishLocked(Event{Type: EventSubscriptionChanged, Device: device})
	return nil
}

// Execute applies a control-channel command on behalf of a device.
func (r *Room) Execute(cmd Command, device uuid.UUID) {
	switch cmd {
	case CommandPause:
		r.Pause(device)
	case CommandResume:
		r.Resume(device)
	case CommandNextLevel:
		r.Advance(1)
	case CommandPrevLevel:
		r.Advance(-1)
	case CommandTerminate:
		r.Terminate()
	}
}

func (r *Room) publishLocked(ev Event) {
	r.broker.Publish(ev)
}

// subscribersExcept snapshots the current subscriber set, minus the
// originating device.
func (r *Room) subscribersExcept(origin uuid.UUID) []push.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return nil
	}
	var out []push.Subscription
	for device, sub := range r.tournament.Subscribers() {
		if device == origin {
			continue
		}
		out = append(out, sub)
	}
	return out
}

func (r *Room) subscriberFor(device uuid.UUID) (push.Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tournament == nil {
		return push.Subscription{}, false
	}
	subs := r.tournament.Subscribers()
	sub, ok := subs[device]
	return sub, ok
}
