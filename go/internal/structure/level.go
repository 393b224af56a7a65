package structure

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind tags the variant of a Level.
type Kind string

const (
	KindBlinds Kind = "blinds"
	KindLimit  Kind = "limit"
	KindStud   Kind = "stud"
	KindBreak  Kind = "break"
	KindDone   Kind = "done"
)

// Level is one named phase of a tournament: a timed round, a break, or the
// terminal marker. Levels are immutable once constructed.
type Level struct {
	Kind     Kind
	Game     string
	Small    int
	Big      int
	Ante     int // 0 means no ante
	BringIn  int
	Duration time.Duration
}

// Done is the sentinel past-the-end level.
var Done = Level{Kind: KindDone}

// Blinds builds a no-limit round. ante of 0 means the round has no ante.
func Blinds(game string, small, big, ante int, duration time.Duration) Level {
	return Level{Kind: KindBlinds, Game: game, Small: small, Big: big, Ante: ante, Duration: duration}
}

// Limit builds a fixed-limit round.
func Limit(game string, small, big int, duration time.Duration) Level {
	return Level{Kind: KindLimit, Game: game, Small: small, Big: big, Duration: duration}
}

// Stud builds a stud round.
func Stud(game string, ante, bringIn, small, big int, duration time.Duration) Level {
	return Level{Kind: KindStud, Game: game, Ante: ante, BringIn: bringIn, Small: small, Big: big, Duration: duration}
}

// Break builds a break of the given length.
func Break(duration time.Duration) Level {
	return Level{Kind: KindBreak, Duration: duration}
}

// NominalDuration is the level's configured length; the terminal level has
// none.
func (l Level) NominalDuration() time.Duration {
	if l.Kind == KindDone {
		return 0
	}
	return l.Duration
}

// GameName is the label displayed above the timer.
func (l Level) GameName() string {
	switch l.Kind {
	case KindBreak:
		return ""
	case KindDone:
		return "FINISHED"
	default:
		return l.Game
	}
}

// ShortString is the one-line form used in "next level" displays and level-up
// notifications.
func (l Level) ShortString() string {
	switch l.Kind {
	case KindBlinds:
		if l.Ante > 0 {
			return fmt.Sprintf("%s %d / %d / %d", l.Game, l.Small, l.Big, l.Ante)
		}
		return fmt.Sprintf("%s %d / %d", l.Game, l.Small, l.Big)
	case KindLimit:
		return fmt.Sprintf("%s %d / %d  Big Bet: %d", l.Game, l.Small, l.Big, l.Big*2)
	case KindStud:
		return fmt.Sprintf("%s Ante: %d Bring: %d Small: %d Big: %d", l.Game, l.Ante, l.BringIn, l.Small, l.Big)
	case KindBreak:
		return fmt.Sprintf("%d MINUTE BREAK", int(l.Duration.Minutes()))
	default:
		return "FINISHED"
	}
}

// LevelString is the main timer display; the game name is shown separately.
func (l Level) LevelString() string {
	switch l.Kind {
	case KindBlinds:
		if l.Ante > 0 {
			return fmt.Sprintf("%d / %d / %d", l.Small, l.Big, l.Ante)
		}
		return fmt.Sprintf("%d / %d", l.Small, l.Big)
	case KindLimit:
		return fmt.Sprintf("%d / %d  Big Bet: %d", l.Small, l.Big, l.Big*2)
	case KindStud:
		return fmt.Sprintf("Ante: %d Bring: %d Small: %d Big: %d", l.Ante, l.BringIn, l.Small, l.Big)
	case KindBreak:
		return fmt.Sprintf("%d MINUTE BREAK", int(l.Duration.Minutes()))
	default:
		return "FINISHED"
	}
}

// wireLevel carries durations as milliseconds so browser clients never see Go
// nanosecond values.
type wireLevel struct {
	Kind       Kind   `json:"kind"`
	Game       string `json:"game,omitempty"`
	Small      int    `json:"small,omitempty"`
	Big        int    `json:"big,omitempty"`
	Ante       int    `json:"ante,omitempty"`
	BringIn    int    `json:"bring_in,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireLevel{
		Kind:       l.Kind,
		Game:       l.Game,
		Small:      l.Small,
		Big:        l.Big,
		Ante:       l.Ante,
		BringIn:    l.BringIn,
		DurationMS: l.Duration.Milliseconds(),
	})
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var w wireLevel
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode level: %w", err)
	}
	*l = Level{
		Kind:     w.Kind,
		Game:     w.Game,
		Small:    w.Small,
		Big:      w.Big,
		Ante:     w.Ante,
		BringIn:  w.BringIn,
		Duration: time.Duration(w.DurationMS) * time.Millisecond,
	}
	return nil
}
