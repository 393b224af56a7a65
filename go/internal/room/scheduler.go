package room

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/seanmccall/pokerclock/go/internal/structure"
)

const (
	// advanceSlack is how close to zero the clock must be before the
	// scheduler advances the level; it absorbs timer wake-up jitter.
	advanceSlack = 2 * time.Second

	// breakWarningLead is how far before the end of a break the one-minute
	// warning fires.
	breakWarningLead = time.Minute
)

// runScheduler is the only path that advances levels automatically. One
// scheduler goroutine runs per active tournament; it stops when the
// tournament is gone or the room's broker closes.
//
// Each pass sleeps until the level should change (or the one-minute warning
// is due), racing the sleep against the room's broadcast channel so that any
// mutating event — pause, settings change, manual level change — interrupts
// the wait immediately rather than letting the scheduler sleep past it.
func (r *Room) runScheduler() {
	tap := r.broker.Subscribe()
	defer tap.Close()

	log.Debug().Str("room_id", r.ID.String()).Msg("scheduler started")
	warnedLevel := 0

	for {
		r.mu.Lock()
		t := r.tournament
		if t == nil {
			r.mu.Unlock()
			log.Debug().Str("room_id", r.ID.String()).Msg("scheduler stopped: no tournament")
			return
		}
		now := r.clock.Now()
		remaining := t.Clock.Remaining(now)
		wait := remaining
		if t.CurrentLevel().Kind == structure.KindBreak &&
			warnedLevel != t.Level && remaining > breakWarningLead {
			wait = remaining - breakWarningLead
		}
		r.mu.Unlock()

		if wait < 0 {
			wait = 0
		}
		timer := r.clock.NewTimer(wait)
		select {
		case <-timer.Chan():
		case _, ok := <-tap.C:
			stopAndDrainTimer(timer)
			if !ok {
				log.Debug().Str("room_id", r.ID.String()).Msg("scheduler stopped: broker closed")
				return
			}
		}

		r.mu.Lock()
		t = r.tournament
		if t == nil {
			r.mu.Unlock()
			log.Debug().Str("room_id", r.ID.String()).Msg("scheduler stopped: no tournament")
			return
		}
		now = r.clock.Now()
		remaining = t.Clock.Remaining(now)
		switch {
		case remaining < advanceSlack:
			if r.advanceLocked(1) {
				r.mu.Unlock()
				log.Debug().Str("room_id", r.ID.String()).Msg("scheduler stopped: tournament complete")
				return
			}
		case t.CurrentLevel().Kind == structure.KindBreak &&
			remaining <= breakWarningLead && warnedLevel != t.Level:
			warnedLevel = t.Level
			r.publishLocked(Event{Type: EventOneMinuteWarning})
		}
		r.mu.Unlock()
	}
}

// stopAndDrainTimer stops an abandoned timer and drains its channel, per the
// time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
