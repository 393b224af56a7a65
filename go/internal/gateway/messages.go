package gateway

import (
	"github.com/seanmccall/pokerclock/go/internal/room"
	"github.com/seanmccall/pokerclock/go/internal/tournament"
)

// Server→client frame types.
const (
	frameState = "state"
	frameBeep  = "beep"
)

// ServerMessage is the tagged union sent to a connected device: either a
// fresh state snapshot or the beep signal that precedes a level change.
type ServerMessage struct {
	Type  string        `json:"type"`
	State *StatePayload `json:"state,omitempty"`
}

// StatePayload tells a client exactly what to render.
type StatePayload struct {
	Running    bool                   `json:"running"`
	Subscribed bool                   `json:"subscribed"`
	Round      *tournament.RoundState `json:"round,omitempty"`
}

// ClientMessage is the inbound command frame.
type ClientMessage struct {
	Command room.Command `json:"command"`
}

func stateMessage(status room.Status) ServerMessage {
	return ServerMessage{
		Type: frameState,
		State: &StatePayload{
			Running:    status.Running,
			Subscribed: status.Subscribed,
			Round:      status.State,
		},
	}
}

func beepMessage() ServerMessage {
	return ServerMessage{Type: frameBeep}
}
