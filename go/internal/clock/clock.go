package clock

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the paused/running representation of the time remaining in the
// current level. For a running clock the true remaining at time T is
// remaining - (T - asof); asof is never transmitted, see MarshalJSON.
type State struct {
	paused    bool
	remaining time.Duration
	asof      time.Time
}

// Paused returns a paused clock with the given time remaining.
func Paused(remaining time.Duration) State {
	return State{paused: true, remaining: remaining}
}

// Running returns a running clock with the given time remaining as of now.
func Running(remaining time.Duration, asof time.Time) State {
	return State{remaining: remaining, asof: asof}
}

func (s State) IsPaused() bool {
	return s.paused
}

// Remaining reports the time left on the clock at the given instant.
func (s State) Remaining(now time.Time) time.Duration {
	if s.paused {
		return s.remaining
	}
	return s.remaining - now.Sub(s.asof)
}

// Pause freezes a running clock, banking the elapsed time. Pausing a paused
// clock is a no-op.
func (s State) Pause(now time.Time) State {
	if s.paused {
		return s
	}
	return Paused(s.Remaining(now))
}

// Resume restarts a paused clock from its banked remaining time. Resuming a
// running clock is a no-op.
func (s State) Resume(now time.Time) State {
	if !s.paused {
		return s
	}
	return Running(s.remaining, now)
}

// Shift moves the remaining time by delta without touching elapsed progress.
func (s State) Shift(delta time.Duration) State {
	s.remaining += delta
	return s
}

// Display renders the clock as mm:ss, clamped at 00:00.
func (s State) Display(now time.Time) string {
	r := s.Remaining(now)
	if r < 0 {
		r = 0
	}
	secs := int(r / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// wireState is the on-the-wire form. A running clock is collapsed into the
// absolute remaining computed at encode time so that producer and consumer
// never need to agree on wall-clock time; the decoder re-stamps asof with its
// own clock.
type wireState struct {
	Paused      bool  `json:"paused"`
	RemainingMS int64 `json:"remaining_ms"`
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{
		Paused:      s.paused,
		RemainingMS: s.Remaining(time.Now()).Milliseconds(),
	})
}

func (s *State) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode clock state: %w", err)
	}
	remaining := time.Duration(w.RemainingMS) * time.Millisecond
	if w.Paused {
		*s = Paused(remaining)
	} else {
		*s = Running(remaining, time.Now())
	}
	return nil
}
