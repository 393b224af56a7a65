// Package tournament holds the per-room tournament state machine: level
// progression, the level clock, the duration override, and the device
// notification subscriptions. Tournaments are not self-locking; all mutation
// happens under the owning room's lock.
package tournament

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/seanmccall/pokerclock/go/internal/clock"
	"github.com/seanmccall/pokerclock/go/internal/push"
	"github.com/seanmccall/pokerclock/go/internal/structure"
)

// ErrUnknownStructure is returned when a tournament references a structure
// name the catalog does not have.
var ErrUnknownStructure = errors.New("unknown structure")

// AdvanceResult reports the outcome of a level change.
type AdvanceResult int

const (
	// AdvanceInvalid means the transition was rejected and nothing changed.
	AdvanceInvalid AdvanceResult = iota
	// Advanced means the tournament moved to a playable level.
	Advanced
	// Completed means the tournament reached the terminal level; the caller
	// must clear the tournament and announce the end.
	Completed
)

// Tournament is one run of level progression for a room, from creation to the
// terminal level or explicit termination.
type Tournament struct {
	Created       time.Time
	RoomID        uuid.UUID
	StructureName string
	Level         int
	Clock         clock.State

	// Override replaces every level's nominal duration when set.
	Override *time.Duration

	structure *structure.Structure
	subs      map[uuid.UUID]push.Subscription
}

// New starts a tournament at level 1 with a paused clock.
func New(roomID uuid.UUID, structureName string, catalog *structure.Catalog, now time.Time) (*Tournament, error) {
	s, ok := catalog.Get(structureName)
	if !ok {
		return nil, ErrUnknownStructure
	}
	return &Tournament{
		Created:       now,
		RoomID:        roomID,
		StructureName: structureName,
		Level:         1,
		Clock:         clock.Paused(s.LevelAt(1).NominalDuration()),
		structure:     s,
		subs:          make(map[uuid.UUID]push.Subscription),
	}, nil
}

// Restore rebuilds a tournament from persisted state, resolving the structure
// against the live catalog.
func Restore(roomID uuid.UUID, structureName string, catalog *structure.Catalog,
	created time.Time, level int, clk clock.State, override *time.Duration,
	subs map[uuid.UUID]push.Subscription) (*Tournament, error) {

	s, ok := catalog.Get(structureName)
	if !ok {
		return nil, ErrUnknownStructure
	}
	if subs == nil {
		subs = make(map[uuid.UUID]push.Subscription)
	}
	return &Tournament{
		Created:       created,
		RoomID:        roomID,
		StructureName: structureName,
		Level:         level,
		Clock:         clk,
		Override:      override,
		structure:     s,
		subs:          subs,
	}, nil
}

// CurrentLevel is the level the clock is counting down.
func (t *Tournament) CurrentLevel() structure.Level {
	return t.structure.LevelAt(t.Level)
}

// NextLevel is the level after the current one.
func (t *Tournament) NextLevel() structure.Level {
	return t.structure.LevelAt(t.Level + 1)
}

// effectiveDuration is the level's length with the override applied.
func (t *Tournament) effectiveDuration(l structure.Level) time.Duration {
	if t.Override != nil {
		return *t.Override
	}
	return l.NominalDuration()
}

// AdvanceLevel moves the tournament by delta levels. A transition that would
// leave level 1 downwards is rejected. Landing on the terminal level reports
// Completed and leaves the cleanup to the caller; otherwise the clock is reset
// to the new level's effective duration, preserving whether it was paused or
// running.
func (t *Tournament) AdvanceLevel(delta int, now time.Time) AdvanceResult {
	if t.Level+delta < 1 {
		return AdvanceInvalid
	}
	t.Level += delta
	level := t.structure.LevelAt(t.Level)
	if level.Kind == structure.KindDone {
		return Completed
	}
	duration := t.effectiveDuration(level)
	if t.Clock.IsPaused() {
		t.Clock = clock.Paused(duration)
	} else {
		t.Clock = clock.Running(duration, now)
	}
	return Advanced
}

// UpdateSettings stores a new duration override and shifts the current
// clock's remaining time by the change in effective duration, so progress
// through the level is preserved rather than reset.
func (t *Tournament) UpdateSettings(override *time.Duration, now time.Time) {
	level := t.CurrentLevel()
	current := t.effectiveDuration(level)
	t.Override = override
	t.Clock = t.Clock.Shift(t.effectiveDuration(level) - current)
}

// Subscribe records a device's push credentials, replacing any prior ones.
func (t *Tournament) Subscribe(device uuid.UUID, sub push.Subscription) {
	t.subs[device] = sub
}

// Unsubscribe removes a device's push credentials.
func (t *Tournament) Unsubscribe(device uuid.UUID) {
	delete(t.subs, device)
}

// Subscribed reports whether a device currently receives notifications.
func (t *Tournament) Subscribed(device uuid.UUID) bool {
	_, ok := t.subs[device]
	return ok
}

// Subscribers returns a copy of the subscription map.
func (t *Tournament) Subscribers() map[uuid.UUID]push.Subscription {
	out := make(map[uuid.UUID]push.Subscription, len(t.subs))
	for device, sub := range t.subs {
		out[device] = sub
	}
	return out
}

// ClearSubscriptions drops every subscription; they expire with the
// tournament.
func (t *Tournament) ClearSubscriptions() {
	t.subs = make(map[uuid.UUID]push.Subscription)
}

// RoundState is the externally visible snapshot of the current round.
func (t *Tournament) RoundState() RoundState {
	return RoundState{
		RoomID: t.RoomID,
		Level:  t.Level,
		Cur:    t.CurrentLevel(),
		Next:   t.NextLevel(),
		Clock:  t.Clock,
	}
}

// RoundState is a read-only snapshot combining everything a client needs to
// render the current round.
type RoundState struct {
	RoomID uuid.UUID       `json:"room_id"`
	Level  int             `json:"level"`
	Cur    structure.Level `json:"cur"`
	Next   structure.Level `json:"next"`
	Clock  clock.State     `json:"clock"`
}
