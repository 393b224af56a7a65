package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/seanmccall/pokerclock/go/internal/clock"
	"github.com/seanmccall/pokerclock/go/internal/persist"
	"github.com/seanmccall/pokerclock/go/internal/push"
	"github.com/seanmccall/pokerclock/go/internal/structure"
	"github.com/seanmccall/pokerclock/go/internal/tournament"
)

// persistWindow bounds which tournaments survive a restart: anything older is
// presumed abandoned and dropped at save time.
const persistWindow = 7 * 24 * time.Hour

// Registry is the process's room lookup, constructed at startup and passed to
// every component that needs it. It permits concurrent independent
// get-or-create operations; no lock spans rooms.
type Registry struct {
	clock   clockwork.Clock
	catalog *structure.Catalog
	pusher  push.Sender

	mu    sync.RWMutex
	rooms map[uuid.UUID]*Room
}

func NewRegistry(catalog *structure.Catalog, pusher push.Sender, clk clockwork.Clock) *Registry {
	return &Registry{
		clock:   clk,
		catalog: catalog,
		pusher:  pusher,
		rooms:   make(map[uuid.UUID]*Room),
	}
}

// GetOrCreate returns the room for the id, creating it (with its broadcast
// channel and notifier) on first reference. Room ids are not pre-registered
// resources; any id is valid.
func (g *Registry) GetOrCreate(id uuid.UUID) *Room {
	g.mu.RLock()
	r, ok := g.rooms[id]
	g.mu.RUnlock()
	if ok {
		return r
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[id]; ok {
		return r
	}
	r = newRoom(id, g.catalog, g.pusher, g.clock)
	g.rooms[id] = r
	log.Debug().Str("room_id", id.String()).Msg("room created")
	return r
}

// Len reports how many rooms have been referenced.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// SaveSnapshot writes every tournament created within the persistence window
// to the snapshot file in dir.
func (g *Registry) SaveSnapshot(dir string) error {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	now := g.clock.Now()
	var records []persist.Record
	for _, r := range rooms {
		if rec, ok := r.record(now); ok {
			records = append(records, rec)
		}
	}
	return persist.Save(dir, records)
}

// record snapshots the room's tournament for persistence; ok is false when
// there is nothing worth saving.
func (r *Room) record(now time.Time) (persist.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tournament
	if t == nil || now.Sub(t.Created) > persistWindow {
		return persist.Record{}, false
	}
	rec := persist.Record{
		RoomID:        r.ID,
		Created:       t.Created,
		Structure:     t.StructureName,
		Level:         t.Level,
		Paused:        t.Clock.IsPaused(),
		RemainingMS:   t.Clock.Remaining(now).Milliseconds(),
		AsOf:          now,
		Subscriptions: t.Subscribers(),
	}
	if t.Override != nil {
		ms := t.Override.Milliseconds()
		rec.OverrideMS = &ms
	}
	return rec, true
}

// RestoreSnapshot loads the snapshot file (if any), rebuilds each saved
// tournament against the live catalog, and restarts its scheduler. Records
// that no longer resolve are skipped, not fatal.
func (g *Registry) RestoreSnapshot(dir string) error {
	records, err := persist.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load tournament snapshot: %w", err)
	}
	for _, rec := range records {
		if err := g.restoreRecord(rec); err != nil {
			log.Error().
				Err(err).
				Str("room_id", rec.RoomID.String()).
				Str("structure", rec.Structure).
				Msg("skipping saved tournament")
		}
	}
	return nil
}

func (g *Registry) restoreRecord(rec persist.Record) error {
	var clk clock.State
	if rec.Paused {
		clk = clock.Paused(rec.Remaining())
	} else {
		clk = clock.Running(rec.Remaining(), rec.AsOf)
	}
	t, err := tournament.Restore(rec.RoomID, rec.Structure, g.catalog,
		rec.Created, rec.Level, clk, rec.Override(), rec.Subscriptions)
	if err != nil {
		return err
	}
	g.GetOrCreate(rec.RoomID).restoreTournament(t)
	return nil
}

// Close shuts down every room's broadcast channel, stopping schedulers,
// notifiers, and sessions.
func (g *Registry) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.rooms {
		r.broker.Close()
	}
}
