package room

import (
	"github.com/google/uuid"

	"github.com/seanmccall/pokerclock/go/internal/push"
	"github.com/seanmccall/pokerclock/go/internal/tournament"
)

// EventType identifies an internal occurrence inside a room.
type EventType string

const (
	EventStarted             EventType = "Started"
	EventEnded               EventType = "Ended"
	EventPaused              EventType = "Paused"
	EventResumed             EventType = "Resumed"
	EventLevelUp             EventType = "LevelUp"
	EventSettingsChanged     EventType = "SettingsChanged"
	EventOneMinuteWarning    EventType = "OneMinuteWarning"
	EventSubscriptionChanged EventType = "SubscriptionChanged"
)

// Event is broadcast on a room's channel to every scheduler, notifier, and
// live session tap.
type Event struct {
	Type EventType

	// State is the snapshot taken when the event was published. Only LevelUp
	// consumers rely on it; sessions recompute fresh snapshots on receipt.
	State *tournament.RoundState

	// Origin is the device whose command caused the event, so that device can
	// be excluded from its own notification. Zero when the event has no
	// originator (e.g. the scheduler).
	Origin uuid.UUID

	// Device is the target of a SubscriptionChanged event.
	Device uuid.UUID

	// Recipients carries the subscriber set captured before it was cleared.
	// Set only on Ended, where the tournament (and its subscriptions) are
	// already gone by the time the notifier reads the event.
	Recipients []push.Subscription
}

// Command is a control-channel instruction from a connected device.
type Command string

const (
	CommandPause     Command = "Pause"
	CommandResume    Command = "Resume"
	CommandNextLevel Command = "NextLevel"
	CommandPrevLevel Command = "PrevLevel"
	CommandTerminate Command = "Terminate"
)

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	switch c {
	case CommandPause, CommandResume, CommandNextLevel, CommandPrevLevel, CommandTerminate:
		return true
	}
	return false
}
