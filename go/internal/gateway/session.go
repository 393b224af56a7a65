package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/seanmccall/pokerclock/go/internal/room"
)

const writeTimeout = 10 * time.Second

// session bridges one websocket connection to a room's broadcast channel.
// The run loop is the connection's only writer; the read pump only decodes
// commands and applies them to the room.
type session struct {
	conn     *websocket.Conn
	room     *room.Room
	deviceID uuid.UUID
}

func newSession(conn *websocket.Conn, r *room.Room, deviceID uuid.UUID) *session {
	return &session{conn: conn, room: r, deviceID: deviceID}
}

func (s *session) run() {
	defer s.conn.Close()

	tap := s.room.Events().Subscribe()
	defer tap.Close()

	// immediate snapshot so the client renders without waiting for an event
	if err := s.writeState(); err != nil {
		log.Debug().Err(err).Str("room_id", s.room.ID.String()).Msg("failed to send hello snapshot")
		return
	}

	done := make(chan struct{})
	go s.readPump(done)

	for {
		select {
		case <-done:
			return
		case ev, ok := <-tap.C:
			if !ok {
				return
			}
			// subscription confirmations only concern the changing device
			if ev.Type == room.EventSubscriptionChanged && ev.Device != s.deviceID {
				continue
			}
			// the beep goes out ahead of the numeric update so clients can
			// cue audio before redrawing
			if ev.Type == room.EventLevelUp {
				if err := s.write(beepMessage()); err != nil {
					return
				}
			}
			// always recompute: multiple mutators may have raced since the
			// event was published
			if err := s.writeState(); err != nil {
				return
			}
		}
	}
}

// readPump decodes inbound command frames and applies them synchronously. A
// decode failure or closed connection ends the session.
func (s *session) readPump(done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().
					Err(err).
					Str("room_id", s.room.ID.String()).
					Str("device_id", s.deviceID.String()).
					Msg("websocket closed")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || !msg.Command.Valid() {
			log.Warn().
				Str("room_id", s.room.ID.String()).
				Str("device_id", s.deviceID.String()).
				Msg("unparseable command frame, closing connection")
			return
		}
		s.room.Execute(msg.Command, s.deviceID)
	}
}

func (s *session) writeState() error {
	return s.write(stateMessage(s.room.Snapshot(s.deviceID)))
}

func (s *session) write(msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
